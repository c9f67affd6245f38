// Package dispatch runs the TCP accept loop and the per-connection
// framing/handler pump described by spec.md §4.4-§4.7 and §7's error
// taxonomy. Grounded on the teacher's gateway.Connection.readPump,
// adapted from a websocket frame pump to the spec's raw length-prefixed
// TCP protocol and CBOR payloads.
package dispatch

import (
	"context"
	"net"

	"github.com/rs/zerolog"

	"riverhall/internal/handlers"
	"riverhall/internal/registry"
	"riverhall/internal/session"
	"riverhall/internal/wire"
)

// Server owns the listener and every dependency a connection's
// handler invocations need.
type Server struct {
	Listener net.Listener
	Handlers map[uint16]handlers.HandlerFunc
	Deps     *handlers.Server
	Conns    *session.Registry
	Tables   *registry.Registry
	Log      zerolog.Logger

	nextConnID int64
}

// New wires a dispatch server around an already-bound listener.
func New(ln net.Listener, deps *handlers.Server, log zerolog.Logger) *Server {
	return &Server{
		Listener: ln,
		Handlers: handlers.Routes(),
		Deps:     deps,
		Conns:    deps.Conns,
		Tables:   deps.Tables,
		Log:      log,
	}
}

// Serve accepts connections until ctx is canceled, spawning one handler
// goroutine per connection. It returns once the listener is closed.
func (s *Server) Serve(ctx context.Context) error {
	go func() {
		<-ctx.Done()
		_ = s.Listener.Close()
	}()

	for {
		raw, err := s.Listener.Accept()
		if err != nil {
			select {
			case <-ctx.Done():
				return nil
			default:
				return err
			}
		}
		s.nextConnID++
		c := session.New(s.nextConnID, raw)
		s.Conns.Add(c)
		go s.serveConn(ctx, c)
	}
}

// serveConn performs the handshake, then pumps framed packets through
// the handler table until the socket closes. Per spec.md §7, a
// ProtocolError closes the connection; any other handler path keeps it
// open and replies with an error code.
func (s *Server) serveConn(ctx context.Context, c *session.Conn) {
	defer func() {
		if r := recover(); r != nil {
			s.Log.Error().Interface("panic", r).Int64("conn_id", c.ID).Msg("dispatch: recovered panic, closing connection")
		}
		s.Tables.LeaveOnDisconnect(c)
		s.Conns.Remove(c)
		_ = c.Close()
	}()

	if !s.handshake(c) {
		return
	}

	buf := make([]byte, 0, session.MaxReadBuffer)
	tmp := make([]byte, 4096)
	for {
		n, err := c.Read(tmp)
		if err != nil {
			return
		}
		buf = append(buf, tmp[:n]...)
		c.Touch()

		for {
			frame, consumed, err := wire.ReadFrame(buf)
			if err == wire.ErrShortBuffer {
				break
			}
			if err != nil {
				// ProtocolError: malformed framing closes the connection.
				return
			}
			buf = buf[consumed:]
			s.handleFrame(ctx, c, frame)
		}

		if len(buf) > session.MaxReadBuffer {
			return
		}
	}
}

func (s *Server) handshake(c *session.Conn) bool {
	hs := make([]byte, wire.HandshakeRequestLen)
	total := 0
	for total < len(hs) {
		n, err := c.Read(hs[total:])
		if err != nil {
			return false
		}
		total += n
	}
	accepted, err := wire.ParseHandshake(hs)
	if err != nil {
		accepted = false
	}
	if werr := c.WriteFrame(wire.EncodeHandshakeReply(accepted)); werr != nil {
		return false
	}
	return accepted
}

func (s *Server) handleFrame(ctx context.Context, c *session.Conn, frame wire.Frame) {
	handler, ok := s.Handlers[frame.Type]
	if !ok {
		return
	}
	req, err := wire.DecodeMap(frame.Payload)
	if err != nil {
		return
	}

	resp := handler(ctx, s.Deps, c, req)
	payload, err := wire.EncodeMap(resp)
	if err != nil {
		s.Log.Error().Err(err).Uint16("type", frame.Type).Msg("dispatch: failed to encode response")
		return
	}
	encoded, err := wire.Encode(responseType(frame.Type), payload)
	if err != nil {
		s.Log.Error().Err(err).Uint16("type", frame.Type).Msg("dispatch: response too large to frame")
		return
	}
	if err := c.WriteFrame(encoded); err != nil {
		// IOError: the accept loop's deferred cleanup handles bot-fill and deregistration.
		return
	}
}

// responseType maps a request's C→S type code to its S→C reply code,
// per spec.md §6's distinct-codes columns. Packets whose request and
// response share one code (LOGIN, SIGNUP, TABLES, ...) fall through
// unmapped and are framed with the same type they arrived on.
func responseType(reqType uint16) uint16 {
	switch reqType {
	case wire.TypePing:
		return wire.TypePong
	case wire.TypeActionRequest:
		return wire.TypeActionResult
	case wire.TypeResyncRequest:
		return wire.TypeResyncResponse
	default:
		return reqType
	}
}
