// Package transport carries RPCs between render hosts and remote control
// clients.
//
// The protocol is JSON-RPC 2.0 with Content-Length framing over a stream
// connection, either TCP or a unix socket. Errors defined in the api package
// are mapped to JSON-RPC error codes on the server and back on the client, so
// that callers can compare them with errors.Is. Any failure to reach the
// other end is reported as ErrEndpointGone.
package transport

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"os"

	"github.com/sourcegraph/jsonrpc2"
	"src.guictl.dev/pkg/api"
	"src.guictl.dev/pkg/sys"
)

// ErrEndpointGone is returned when the other end of a connection has gone
// away or cannot be reached.
var ErrEndpointGone = errors.New("endpoint gone")

// RemoteError is an error returned by the other end of a connection.
type RemoteError struct {
	Code    int64
	Message string
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("remote error %d: %s", e.Code, e.Message)
}

// Unwrap returns the api error corresponding to the code, if any.
func (e *RemoteError) Unwrap() error { return api.ErrorOf(e.Code) }

func newStream(conn io.ReadWriteCloser) jsonrpc2.ObjectStream {
	return jsonrpc2.NewBufferedStream(conn, jsonrpc2.VSCodeObjectCodec{})
}

// Converts an error returned by a Method to a JSON-RPC error. It returns nil
// when err is nil.
func toRPCError(err error) *jsonrpc2.Error {
	if err == nil {
		return nil
	}
	var rpcErr *jsonrpc2.Error
	if errors.As(err, &rpcErr) {
		return rpcErr
	}
	code, ok := api.CodeOf(err)
	if !ok {
		code = jsonrpc2.CodeInternalError
	}
	return &jsonrpc2.Error{Code: code, Message: err.Error()}
}

// Converts an error returned by jsonrpc2 on the calling side.
func fromRPCError(method string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	var rpcErr *jsonrpc2.Error
	if errors.As(err, &rpcErr) {
		remote := &RemoteError{rpcErr.Code, rpcErr.Message}
		if rpcErr.Code == api.CodeStopped {
			// The host is going away; the connection will follow.
			return fmt.Errorf("%s: %w: %w", method, ErrEndpointGone, remote)
		}
		return fmt.Errorf("%s: %w", method, remote)
	}
	return fmt.Errorf("%s: %w: %v", method, ErrEndpointGone, err)
}

// Listen listens on a TCP address or a unix socket path. A stale unix socket
// left by a previous process is removed first, and the new socket is only
// accessible by the current user.
func Listen(network, addr string) (net.Listener, error) {
	if network == "unix" {
		if err := removeStaleSocket(addr); err != nil {
			return nil, err
		}
		defer sys.PrivateSocketUmask()()
	}
	return net.Listen(network, addr)
}

func removeStaleSocket(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return nil
	}
	if info.Mode()&os.ModeSocket == 0 {
		return fmt.Errorf("%s exists and is not a socket", path)
	}
	if conn, err := net.Dial("unix", path); err == nil {
		conn.Close()
		return fmt.Errorf("%s is in use", path)
	}
	return os.Remove(path)
}
