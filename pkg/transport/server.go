package transport

import (
	"context"
	"encoding/json"
	"log"
	"net"
	"sync"

	"github.com/sourcegraph/jsonrpc2"
)

// Method handles an RPC. For notifications, the result is discarded and a
// non-nil error is only logged.
type Method func(ctx context.Context, peer *Peer, params json.RawMessage) (any, error)

var errMethodNotFound = &jsonrpc2.Error{
	Code: jsonrpc2.CodeMethodNotFound, Message: "method not found"}

// Peer is the client end of a server connection.
type Peer struct {
	Addr string

	mu sync.Mutex
	id string
}

// ID returns the id the client identified itself with, or its address if it
// has not done so.
func (p *Peer) ID() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.id == "" {
		return p.Addr
	}
	return p.id
}

func (p *Peer) SetID(id string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.id = id
}

// Server serves RPCs. Requests on one connection are handled one at a time,
// in the order they arrive; requests on different connections are handled
// concurrently.
type Server struct {
	methods map[string]Method
	logger  *log.Logger
}

// NewServer creates a Server that dispatches to the given methods.
func NewServer(methods map[string]Method, logger *log.Logger) *Server {
	return &Server{methods, logger}
}

func (s *Server) handler(peer *Peer) jsonrpc2.Handler {
	return jsonrpc2.HandlerWithError(func(ctx context.Context, _ *jsonrpc2.Conn, req *jsonrpc2.Request) (any, error) {
		fn, ok := s.methods[req.Method]
		if !ok {
			return nil, errMethodNotFound
		}
		var params json.RawMessage
		if req.Params != nil {
			params = *req.Params
		}
		result, err := fn(ctx, peer, params)
		if rpcErr := toRPCError(err); rpcErr != nil {
			if req.Notif {
				s.logger.Printf("%s from %s: %v", req.Method, peer.ID(), err)
			}
			return nil, rpcErr
		}
		return result, nil
	}).SuppressErrClosed()
}

// Serve accepts connections on l and serves them until ctx is done or l
// fails. It then closes l and all connections, and waits for their handlers
// to return. It returns nil if ctx is done, and the accept error otherwise.
func (s *Server) Serve(ctx context.Context, l net.Listener) error {
	connCh := make(chan net.Conn, 10)
	listenErrCh := make(chan error, 1)
	go func() {
		for {
			conn, err := l.Accept()
			if err != nil {
				listenErrCh <- err
				close(listenErrCh)
				return
			}
			connCh <- conn
		}
	}()

	conns := make(map[*jsonrpc2.Conn]*Peer)
	connDoneCh := make(chan *jsonrpc2.Conn, 10)
	var wg sync.WaitGroup
	var listenErr error

loop:
	for {
		select {
		case <-ctx.Done():
			break loop
		case listenErr = <-listenErrCh:
			s.logger.Println("could not accept:", listenErr)
			break loop
		case nc := <-connCh:
			peer := &Peer{Addr: l.Addr().String()}
			if ra := nc.RemoteAddr(); ra != nil && ra.String() != "" {
				peer.Addr = ra.String()
			}
			conn := jsonrpc2.NewConn(ctx, newStream(nc), s.handler(peer))
			conns[conn] = peer
			s.logger.Println("accepted connection from", peer.Addr)
			wg.Add(1)
			go func() {
				defer wg.Done()
				<-conn.DisconnectNotify()
				connDoneCh <- conn
			}()
		case conn := <-connDoneCh:
			s.logger.Println("connection closed:", conns[conn].ID())
			delete(conns, conn)
		}
	}

	l.Close()
	// Wait for the accept goroutine to exit, then close connections that were
	// accepted but not served.
	for done := listenErr != nil; !done; {
		select {
		case nc := <-connCh:
			nc.Close()
		case <-listenErrCh:
			done = true
		}
	}
	close(connCh)
	for nc := range connCh {
		nc.Close()
	}

	s.logger.Printf("closing %d active connections", len(conns))
	for conn := range conns {
		conn.Close()
	}
	// Drain connDoneCh so that the waiting goroutines can exit.
	go func() {
		for range connDoneCh {
		}
	}()
	wg.Wait()
	close(connDoneCh)
	if listenErr != nil && ctx.Err() != nil {
		return nil
	}
	return listenErr
}
