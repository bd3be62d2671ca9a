package pipeline

import (
	"context"
	"errors"
	"testing"

	"github.com/specialistvlad/bootloader/internal/event"
	"github.com/specialistvlad/bootloader/internal/loader"
	"github.com/specialistvlad/bootloader/internal/state"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

// recorder builds loaders that append "<phase>(<id>)" to a shared call log.
type recorder struct {
	calls []string
}

func (r *recorder) loader(id string, fail map[string]error) *loader.Funcs {
	hook := func(phase string) func(context.Context) error {
		return func(context.Context) error {
			r.calls = append(r.calls, phase+"("+id+")")
			return fail[phase]
		}
	}
	return &loader.Funcs{Pre: hook("preLoad"), Main: hook("load"), Post: hook("postLoad")}
}

// loadOnly implements only the required part of the contract.
type loadOnly struct {
	loads int
}

func (l *loadOnly) Dependencies() []string { return nil }
func (l *loadOnly) Load(context.Context) error { l.loads++; return nil }

func TestActivate_PhasesAreNotInterleaved(t *testing.T) {
	rec := &recorder{}
	ordered := []loader.Descriptor{
		loader.NewDescriptor("L1", "p1", rec.loader("L1", nil)),
		loader.NewDescriptor("L2", "p2", rec.loader("L2", nil)),
	}

	require.NoError(t, New(state.New()).Activate(context.Background(), ordered))
	assert.Equal(t, []string{
		"preLoad(L1)", "preLoad(L2)",
		"load(L1)", "load(L2)",
		"postLoad(L1)", "postLoad(L2)",
	}, rec.calls)
}

func TestActivate_OptionalHooksDefaultToNoop(t *testing.T) {
	st := state.New()
	l := &loadOnly{}

	require.NoError(t, New(st).Activate(context.Background(), []loader.Descriptor{loader.NewDescriptor("L", "p", l)}))
	assert.Equal(t, 1, l.loads)
	assert.True(t, st.IsActivated("L"))
}

func TestActivate_FlagIsSetRightAfterLoad(t *testing.T) {
	st := state.New()
	var seen []bool
	l1 := &loader.Funcs{
		Main: func(context.Context) error { seen = append(seen, st.IsActivated("L1")); return nil },
	}
	l2 := &loader.Funcs{
		Main: func(context.Context) error { seen = append(seen, st.IsActivated("L1"), st.IsActivated("L2")); return nil },
	}

	ordered := []loader.Descriptor{loader.NewDescriptor("L1", "p1", l1), loader.NewDescriptor("L2", "p2", l2)}
	require.NoError(t, New(st).Activate(context.Background(), ordered))
	assert.Equal(t, []bool{false, true, false}, seen)
}

func TestActivate_AbortsOnHookError(t *testing.T) {
	boom := errors.New("boom")
	cases := []struct {
		name      string
		phase     Phase
		calls     []string
		activated []string
	}{
		{
			name:      "preLoad",
			phase:     PreLoad,
			calls:     []string{"preLoad(L1)", "preLoad(L2)"},
			activated: []string{},
		},
		{
			name:      "load",
			phase:     Load,
			calls:     []string{"preLoad(L1)", "preLoad(L2)", "preLoad(L3)", "load(L1)", "load(L2)"},
			activated: []string{"L1"},
		},
		{
			name:  "postLoad",
			phase: PostLoad,
			calls: []string{
				"preLoad(L1)", "preLoad(L2)", "preLoad(L3)",
				"load(L1)", "load(L2)", "load(L3)",
				"postLoad(L1)", "postLoad(L2)",
			},
			activated: []string{"L1", "L2", "L3"},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := &recorder{}
			st := state.New()
			ordered := []loader.Descriptor{
				loader.NewDescriptor("L1", "p1", rec.loader("L1", nil)),
				loader.NewDescriptor("L2", "p2", rec.loader("L2", map[string]error{string(tc.phase): boom})),
				loader.NewDescriptor("L3", "p3", rec.loader("L3", nil)),
			}

			err := New(st).Activate(context.Background(), ordered)

			var phaseErr *PhaseError
			require.ErrorAs(t, err, &phaseErr)
			assert.Equal(t, "L2", phaseErr.LoaderID)
			assert.Equal(t, "p2", phaseErr.Package)
			assert.Equal(t, tc.phase, phaseErr.Phase)
			assert.ErrorIs(t, err, boom)
			assert.Equal(t, tc.calls, rec.calls)
			assert.Equal(t, tc.activated, st.Snapshot().Activated, "no rollback of earlier loaders")
		})
	}
}

func TestActivate_IsIdempotent(t *testing.T) {
	rec := &recorder{}
	st := state.New()
	p := New(st)
	ordered := []loader.Descriptor{loader.NewDescriptor("L1", "p1", rec.loader("L1", nil))}

	require.NoError(t, p.Activate(context.Background(), ordered))
	rec.calls = nil
	require.NoError(t, p.Activate(context.Background(), ordered))
	assert.Empty(t, rec.calls)
}

func TestActivate_NestedActivation(t *testing.T) {
	rec := &recorder{}
	st := state.New()
	p := New(st)

	l2 := loader.NewDescriptor("L2", "p2", rec.loader("L2", nil))
	var l1 loader.Descriptor
	l1 = loader.NewDescriptor("L1", "p1", &loader.Funcs{
		Main: func(ctx context.Context) error {
			rec.calls = append(rec.calls, "load(L1)")
			assert.True(t, p.InProgress("L1"))
			return p.Activate(ctx, []loader.Descriptor{l1, l2})
		},
	})

	require.NoError(t, p.Activate(context.Background(), []loader.Descriptor{l1, l2}))
	assert.Equal(t, []string{
		"preLoad(L2)",
		"load(L1)",
		"preLoad(L2)", "load(L2)", "postLoad(L2)",
	}, rec.calls)
	assert.Equal(t, []string{"L2", "L1"}, st.Snapshot().Activated)
	assert.False(t, p.InProgress("L1"))
}

func TestActivate_NotifiesObserver(t *testing.T) {
	var kinds []string
	obs := event.ObserverFunc(func(_ context.Context, e event.Event) {
		kinds = append(kinds, string(e.Kind)+":"+e.Phase)
	})
	ordered := []loader.Descriptor{loader.NewDescriptor("L1", "p1", &loader.Funcs{})}

	require.NoError(t, New(state.New(), WithObserver(obs)).Activate(context.Background(), ordered))
	assert.Equal(t, []string{
		"loader.phase_completed:preLoad",
		"loader.phase_completed:load",
		"loader.activated:",
		"loader.phase_completed:postLoad",
	}, kinds)
}

func TestActivate_RecordsSpans(t *testing.T) {
	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))
	boom := errors.New("boom")

	ordered := []loader.Descriptor{
		loader.NewDescriptor("L1", "p1", &loader.Funcs{Main: func(context.Context) error { return boom }}),
	}
	err := New(state.New(), WithTracer(tp.Tracer("test"))).Activate(context.Background(), ordered)
	require.Error(t, err)

	var names []string
	for _, s := range sr.Ended() {
		names = append(names, s.Name())
	}
	assert.Equal(t, []string{"loader.preLoad", "loader.load", "pipeline.Activate"}, names)

	loadSpan := sr.Ended()[1]
	assert.Equal(t, "Error", loadSpan.Status().Code.String())
	assert.Equal(t, "L1", attr(loadSpan, "loader.id"))
}

func attr(s sdktrace.ReadOnlySpan, key string) string {
	for _, kv := range s.Attributes() {
		if string(kv.Key) == key {
			return kv.Value.AsString()
		}
	}
	return ""
}
