package event

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/specialistvlad/bootloader/internal/ctxlog"
	"github.com/stretchr/testify/assert"
)

func TestObserversFanOutInOrder(t *testing.T) {
	var got []string
	obs := Observers{
		ObserverFunc(func(_ context.Context, e Event) { got = append(got, "a:"+string(e.Kind)) }),
		ObserverFunc(func(_ context.Context, e Event) { got = append(got, "b:"+string(e.Kind)) }),
	}

	obs.Notify(context.Background(), Event{Kind: LoaderActivated})
	assert.Equal(t, []string{"a:loader.activated", "b:loader.activated"}, got)
}

func TestLogObserver(t *testing.T) {
	var buf bytes.Buffer
	ctx := ctxlog.WithLogger(context.Background(), slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})))

	LogObserver{}.Notify(ctx, Event{Kind: PhaseCompleted, LoaderID: "forall.http.Loader", Phase: "load"})
	assert.Contains(t, buf.String(), "event=loader.phase_completed")
	assert.Contains(t, buf.String(), "loader=forall.http.Loader")
	assert.NotContains(t, buf.String(), "symbol=")

	buf.Reset()
	LogObserver{}.Notify(ctx, Event{Kind: ActivationFailed, Err: errors.New("boom")})
	assert.Contains(t, buf.String(), "level=ERROR")
	assert.Contains(t, buf.String(), "error=boom")
}
