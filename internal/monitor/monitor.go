// Package monitor streams bootstrap events to a remote socket.io endpoint so
// a dashboard can follow a boot as it happens.
package monitor

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/specialistvlad/bootloader/internal/ctxlog"
	"github.com/specialistvlad/bootloader/internal/event"
	"github.com/zishang520/engine.io-client-go/transports"
	"github.com/zishang520/engine.io/v2/types"
	"github.com/zishang520/socket.io-client-go/socket"
)

// EventName is the socket.io event every bootstrap event is emitted under.
const EventName = "bootloader:event"

// DefaultTimeout bounds how long Dial waits for the connection.
const DefaultTimeout = 15 * time.Second

// Options configures a Reporter connection.
type Options struct {
	URL                string
	Namespace          string
	InsecureSkipVerify bool
	Timeout            time.Duration
}

// Reporter is an event.Observer that forwards events over socket.io.
type Reporter struct {
	client *socket.Socket
	emit   func(name string, payload map[string]any) error
}

// Dial connects to the socket.io server at opts.URL.
func Dial(ctx context.Context, opts Options) (*Reporter, error) {
	logger := ctxlog.FromContext(ctx).With("monitor", opts.URL)
	logger.Info("Connecting boot monitor...")

	parsedURL, err := url.Parse(opts.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse URL: %w", err)
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	sopts := socket.DefaultOptions()
	sopts.SetPath(parsedURL.Path)
	if opts.InsecureSkipVerify {
		logger.Warn("Skipping TLS certificate verification")
		sopts.SetTLSClientConfig(&tls.Config{InsecureSkipVerify: true})
	}
	sopts.SetTransports(types.NewSet(transports.WebSocket))

	connectChan := make(chan error, 1)

	baseURL := fmt.Sprintf("%s://%s", parsedURL.Scheme, parsedURL.Host)
	manager := socket.NewManager(baseURL, sopts)
	io := manager.Socket(opts.Namespace, sopts)

	io.Once(types.EventName("connect"), func(...any) {
		logger.Info("Boot monitor connected", "sid", io.Id())
		deliver(connectChan, nil)
	})
	io.Once(types.EventName("connect_error"), func(errs ...any) {
		err := errors.New("connect_error")
		if len(errs) > 0 {
			if e, ok := errs[0].(error); ok {
				err = e
			}
		}
		deliver(connectChan, err)
	})

	io.Connect()

	select {
	case err := <-connectChan:
		if err != nil {
			io.Disconnect()
			return nil, fmt.Errorf("socket.io connection failed: %w", err)
		}
	case <-ctx.Done():
		io.Disconnect()
		return nil, fmt.Errorf("context cancelled while waiting for socket.io connection")
	case <-time.After(timeout):
		io.Disconnect()
		return nil, fmt.Errorf("timed out after %s waiting for socket.io connection", timeout)
	}

	return &Reporter{
		client: io,
		emit: func(name string, payload map[string]any) error {
			if !io.Connected() {
				return errors.New("boot monitor is not connected")
			}
			io.Emit(name, payload)
			return nil
		},
	}, nil
}

// Notify emits e. Delivery failures are logged and otherwise ignored so a
// flaky monitor never fails a boot.
func (r *Reporter) Notify(ctx context.Context, e event.Event) {
	if err := r.emit(EventName, Payload(e)); err != nil {
		ctxlog.FromContext(ctx).Warn("Failed to emit boot event.", "event", string(e.Kind), "error", err)
	}
}

// Close disconnects from the server.
func (r *Reporter) Close() {
	if r.client != nil {
		r.client.Disconnect()
	}
}

// Payload converts e to the map sent over the wire. Empty fields are omitted.
func Payload(e event.Event) map[string]any {
	p := map[string]any{
		"kind": string(e.Kind),
		"time": time.Now().UTC().Format(time.RFC3339Nano),
	}
	for k, v := range map[string]string{
		"package": e.Package,
		"loader":  e.LoaderID,
		"symbol":  e.Symbol,
		"path":    e.Path,
		"phase":   e.Phase,
	} {
		if v != "" {
			p[k] = v
		}
	}
	if e.Err != nil {
		p["error"] = e.Err.Error()
	}
	return p
}

// deliver hands the first connection outcome to Dial. Later outcomes, and any
// arriving after Dial gave up, are dropped so the socket.io callback never
// blocks.
func deliver(ch chan<- error, err error) {
	select {
	case ch <- err:
	default:
	}
}
