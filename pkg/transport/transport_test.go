package transport

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"src.guictl.dev/pkg/api"
	"src.guictl.dev/pkg/testutil"
)

var discard = log.New(io.Discard, "", 0)

type echoParams struct {
	Text string `json:"text"`
}

type recorder struct {
	mu    sync.Mutex
	notes []string
	ids   []string
}

func (r *recorder) methods() map[string]Method {
	return map[string]Method{
		"echo": func(_ context.Context, _ *Peer, params json.RawMessage) (any, error) {
			var p echoParams
			if err := json.Unmarshal(params, &p); err != nil {
				return nil, api.ErrInvalidParams
			}
			return p, nil
		},
		"note": func(_ context.Context, peer *Peer, params json.RawMessage) (any, error) {
			var p echoParams
			json.Unmarshal(params, &p)
			r.mu.Lock()
			defer r.mu.Unlock()
			r.notes = append(r.notes, p.Text)
			r.ids = append(r.ids, peer.ID())
			return nil, nil
		},
		"hello": func(_ context.Context, peer *Peer, params json.RawMessage) (any, error) {
			var p echoParams
			json.Unmarshal(params, &p)
			peer.SetID(p.Text)
			return nil, nil
		},
		"unconfigured": func(context.Context, *Peer, json.RawMessage) (any, error) {
			return nil, fmt.Errorf("plot p: %w", api.ErrNotConfigured)
		},
		"stopped": func(context.Context, *Peer, json.RawMessage) (any, error) {
			return nil, api.ErrStopped
		},
		"broken": func(context.Context, *Peer, json.RawMessage) (any, error) {
			return nil, errors.New("something broke")
		},
		"noparams": func(_ context.Context, _ *Peer, params json.RawMessage) (any, error) {
			return len(params), nil
		},
	}
}

func (r *recorder) snapshot() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.notes...)
}

// Starts a server and returns its listener and a function that stops it and
// returns the result of Serve.
func serve(t *testing.T, network, addr string, r *recorder) (net.Listener, func() error) {
	t.Helper()
	l, err := Listen(network, addr)
	if err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- NewServer(r.methods(), discard).Serve(ctx, l) }()
	stop := sync.OnceValue(func() error {
		cancel()
		select {
		case err := <-errCh:
			return err
		case <-time.After(testutil.Scaled(2 * time.Second)):
			return errors.New("Serve did not return after cancel")
		}
	})
	t.Cleanup(func() { stop() })
	return l, stop
}

func dial(t *testing.T, l net.Listener) *Conn {
	t.Helper()
	c, err := Dial(context.Background(), l.Addr().Network(), l.Addr().String(), discard)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { c.Close() })
	return c
}

func TestCall(t *testing.T) {
	l, _ := serve(t, "tcp", "127.0.0.1:0", &recorder{})
	c := dial(t, l)

	var got echoParams
	if err := c.Call(context.Background(), "echo", echoParams{"hi"}, &got); err != nil {
		t.Fatal(err)
	}
	if got.Text != "hi" {
		t.Errorf("echo -> %q, want hi", got.Text)
	}
	var n int
	if err := c.Call(context.Background(), "noparams", nil, &n); err != nil {
		t.Fatal(err)
	}
	if err := c.Call(context.Background(), "echo", echoParams{"discarded"}, nil); err != nil {
		t.Errorf("Call with nil result -> %v", err)
	}
}

func TestCall_Errors(t *testing.T) {
	l, _ := serve(t, "tcp", "127.0.0.1:0", &recorder{})
	c := dial(t, l)
	ctx := context.Background()

	err := c.Call(ctx, "unconfigured", nil, nil)
	if !errors.Is(err, api.ErrNotConfigured) {
		t.Errorf("unconfigured -> %v, want ErrNotConfigured", err)
	}
	if errors.Is(err, ErrEndpointGone) {
		t.Errorf("unconfigured -> %v, also matches ErrEndpointGone", err)
	}
	err = c.Call(ctx, "echo", "not an object", nil)
	if !errors.Is(err, api.ErrInvalidParams) {
		t.Errorf("bad params -> %v, want ErrInvalidParams", err)
	}

	// A host shutting down counts as gone.
	err = c.Call(ctx, "stopped", nil, nil)
	if !errors.Is(err, ErrEndpointGone) || !errors.Is(err, api.ErrStopped) {
		t.Errorf("stopped -> %v, want ErrEndpointGone and ErrStopped", err)
	}

	var remote *RemoteError
	err = c.Call(ctx, "broken", nil, nil)
	if !errors.As(err, &remote) || remote.Unwrap() != nil {
		t.Errorf("broken -> %v, want RemoteError without api error", err)
	}
	err = c.Call(ctx, "nope", nil, nil)
	if !errors.As(err, &remote) {
		t.Errorf("unknown method -> %v, want RemoteError", err)
	}
}

func TestNotify_OrderedPerConnection(t *testing.T) {
	r := &recorder{}
	l, _ := serve(t, "tcp", "127.0.0.1:0", r)
	c := dial(t, l)
	ctx := context.Background()

	if err := c.Call(ctx, "hello", echoParams{"client-1"}, nil); err != nil {
		t.Fatal(err)
	}
	want := []string{"a", "b", "c", "d"}
	for _, s := range want {
		if err := c.Notify(ctx, "note", echoParams{s}); err != nil {
			t.Fatal(err)
		}
	}
	// Calls are handled after earlier notifications on the same connection.
	if err := c.Call(ctx, "echo", echoParams{"barrier"}, nil); err != nil {
		t.Fatal(err)
	}
	got := r.snapshot()
	if fmt.Sprint(got) != fmt.Sprint(want) {
		t.Errorf("notes %v, want %v", got, want)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.ids[0] != "client-1" {
		t.Errorf("peer id %q, want client-1", r.ids[0])
	}
}

func TestEndpointGone_AfterServerStops(t *testing.T) {
	l, stop := serve(t, "tcp", "127.0.0.1:0", &recorder{})
	c := dial(t, l)
	if err := c.Call(context.Background(), "echo", echoParams{"x"}, nil); err != nil {
		t.Fatal(err)
	}

	if err := stop(); err != nil {
		t.Errorf("Serve -> %v, want nil", err)
	}
	select {
	case <-c.Done():
	case <-time.After(testutil.Scaled(2 * time.Second)):
		t.Fatal("client connection not closed after server stopped")
	}

	err := c.Call(context.Background(), "echo", echoParams{"x"}, nil)
	if !errors.Is(err, ErrEndpointGone) {
		t.Errorf("Call after server stopped -> %v, want ErrEndpointGone", err)
	}
	if err := c.Notify(context.Background(), "note", echoParams{"x"}); !errors.Is(err, ErrEndpointGone) {
		t.Errorf("Notify after server stopped -> %v, want ErrEndpointGone", err)
	}
	if err := c.Close(); err != nil {
		t.Errorf("Close on closed conn -> %v", err)
	}
}

// Waits for a call started with startCall to return an error wrapping
// ErrEndpointGone.
func requireEndpointGone(t *testing.T, errCh <-chan error) {
	t.Helper()
	select {
	case err := <-errCh:
		if !errors.Is(err, ErrEndpointGone) {
			t.Errorf("Call -> %v, want ErrEndpointGone", err)
		}
	case <-time.After(testutil.Scaled(2 * time.Second)):
		t.Fatal("Call still blocked after the server went away")
	}
}

func startCall(c *Conn, method string) <-chan error {
	errCh := make(chan error, 1)
	go func() { errCh <- c.Call(context.Background(), method, echoParams{"x"}, nil) }()
	return errCh
}

func TestEndpointGone_ServerDiesDuringCall(t *testing.T) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	defer l.Close()
	received := make(chan struct{})
	go func() {
		nc, err := l.Accept()
		if err != nil {
			return
		}
		// Read the start of the request and go away without replying.
		nc.Read(make([]byte, 1))
		close(received)
		nc.Close()
	}()
	c := dial(t, l)

	errCh := startCall(c, "echo")
	select {
	case <-received:
	case <-time.After(testutil.Scaled(2 * time.Second)):
		t.Fatal("request not received")
	}
	requireEndpointGone(t, errCh)
}

func TestEndpointGone_ServerStopsDuringCall(t *testing.T) {
	started := make(chan struct{})
	block := make(chan struct{})
	methods := map[string]Method{
		"block": func(context.Context, *Peer, json.RawMessage) (any, error) {
			close(started)
			<-block
			return nil, nil
		},
	}
	l, err := Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		NewServer(methods, discard).Serve(ctx, l)
		close(done)
	}()
	defer func() {
		cancel()
		close(block)
		<-done
	}()
	c := dial(t, l)

	errCh := startCall(c, "block")
	select {
	case <-started:
	case <-time.After(testutil.Scaled(2 * time.Second)):
		t.Fatal("method not called")
	}
	cancel()
	requireEndpointGone(t, errCh)
}

func TestDial_Unreachable(t *testing.T) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	addr := l.Addr().String()
	l.Close()
	_, err = Dial(context.Background(), "tcp", addr, discard)
	if !errors.Is(err, ErrEndpointGone) {
		t.Errorf("Dial to closed port -> %v, want ErrEndpointGone", err)
	}
}

func TestCall_ContextCanceled(t *testing.T) {
	block := make(chan struct{})
	methods := map[string]Method{
		"block": func(context.Context, *Peer, json.RawMessage) (any, error) {
			<-block
			return nil, nil
		},
	}
	l, err := Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		NewServer(methods, discard).Serve(ctx, l)
		close(done)
	}()
	defer func() {
		close(block)
		cancel()
		<-done
	}()
	c := dial(t, l)

	callCtx, callCancel := context.WithTimeout(context.Background(), testutil.Scaled(50*time.Millisecond))
	defer callCancel()
	err = c.Call(callCtx, "block", nil, nil)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Call -> %v, want DeadlineExceeded", err)
	}
}

func TestListen_Unix(t *testing.T) {
	sock := filepath.Join(t.TempDir(), "sock")
	// A stale socket file is removed.
	stale, err := net.Listen("unix", sock)
	if err != nil {
		t.Skip("unix sockets not supported:", err)
	}
	stale.(*net.UnixListener).SetUnlinkOnClose(false)
	stale.Close()

	l, _ := serve(t, "unix", sock, &recorder{})
	c := dial(t, l)
	if err := c.Call(context.Background(), "echo", echoParams{"x"}, nil); err != nil {
		t.Errorf("Call over unix socket -> %v", err)
	}
	// A socket in use is not removed.
	if _, err := Listen("unix", sock); err == nil {
		t.Errorf("Listen on socket in use -> nil error")
	}
}

func TestListen_NotASocket(t *testing.T) {
	path := filepath.Join(t.TempDir(), "file")
	os.WriteFile(path, nil, 0600)
	if _, err := Listen("unix", path); err == nil {
		t.Errorf("Listen on regular file -> nil error")
	}
}
