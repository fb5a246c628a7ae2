package transport

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net"
	"time"

	"github.com/sourcegraph/jsonrpc2"
)

// KeepAlive is the TCP keep-alive period of client connections.
const KeepAlive = 5 * time.Second

// Conn is the client end of a connection.
type Conn struct {
	addr string
	conn *jsonrpc2.Conn
}

// Dial connects to a server.
func Dial(ctx context.Context, network, addr string, logger *log.Logger) (*Conn, error) {
	d := net.Dialer{KeepAlive: KeepAlive}
	nc, err := d.DialContext(ctx, network, addr)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w: %v", addr, ErrEndpointGone, err)
	}
	h := jsonrpc2.HandlerWithError(func(_ context.Context, _ *jsonrpc2.Conn, req *jsonrpc2.Request) (any, error) {
		logger.Printf("unexpected request %s from %s", req.Method, addr)
		return nil, errMethodNotFound
	})
	conn := jsonrpc2.NewConn(context.Background(), newStream(nc), h)
	return &Conn{addr, conn}, nil
}

// Addr returns the address the connection was dialed to.
func (c *Conn) Addr() string { return c.addr }

// Call sends a request and waits for the response, which is decoded into
// result. A nil result discards the response.
func (c *Conn) Call(ctx context.Context, method string, params, result any) error {
	if c.Gone() {
		return fmt.Errorf("%s: %w", method, ErrEndpointGone)
	}
	if result == nil {
		result = &json.RawMessage{}
	}
	return fromRPCError(method, c.conn.Call(ctx, method, params, result))
}

// Notify sends a notification. It returns once the notification is written
// and does not wait for it to be handled.
func (c *Conn) Notify(ctx context.Context, method string, params any) error {
	if c.Gone() {
		return fmt.Errorf("%s: %w", method, ErrEndpointGone)
	}
	return fromRPCError(method, c.conn.Notify(ctx, method, params))
}

// Done returns a channel that is closed when the connection is closed, by
// either end.
func (c *Conn) Done() <-chan struct{} { return c.conn.DisconnectNotify() }

// Gone reports whether the connection is closed.
func (c *Conn) Gone() bool {
	select {
	case <-c.Done():
		return true
	default:
		return false
	}
}

// Close closes the connection. Closing a connection that is already closed is
// not an error.
func (c *Conn) Close() error {
	err := c.conn.Close()
	if errors.Is(err, jsonrpc2.ErrClosed) {
		return nil
	}
	return err
}
