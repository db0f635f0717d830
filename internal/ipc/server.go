package ipc

import (
	"context"
	"errors"
	"net"
)

// EventKind classifies one inbox entry.
type EventKind int

const (
	// EventFrame carries one successfully decoded Request.
	EventFrame EventKind = iota
	// EventMalformed means the connection sent an unparsable frame or
	// exceeded the buffer cap; the connection has already been closed.
	EventMalformed
	// EventClosed means the peer disconnected or a read error occurred;
	// the connection has already been closed.
	EventClosed
)

// Event is one readiness notification fed into the dispatcher's shared
// inbox channel by a per-connection reader goroutine.
type Event struct {
	Conn *Conn
	Kind EventKind
	Req  Request
}

// Server runs the accept loop for one listener and fans connection
// readiness into two channels the dispatcher selects on: Accepted (new
// connections) and Inbox (frames, malformed frames, and disconnects from
// every connection already accepted). This is the goroutines-per-
// connection-plus-shared-channel substitute for a kernel readiness
// multiplexer: exactly one goroutine (the dispatcher's) ever reads from
// either channel, so no locking is needed downstream.
type Server struct {
	listener net.Listener
	Accepted chan *Conn
	Inbox    chan Event
}

// Serve starts the accept loop in a background goroutine and returns
// immediately. The accept loop exits once ctx is cancelled or the listener
// is closed. Each connection reader goroutine it spawns exits when its
// connection closes or fails to read, or when ctx is cancelled while it
// is handing an event to Inbox.
func Serve(ctx context.Context, listener net.Listener) *Server {
	s := &Server{
		listener: listener,
		Accepted: make(chan *Conn, 16),
		Inbox:    make(chan Event, 64),
	}

	go func() {
		<-ctx.Done()
		_ = listener.Close()
	}()

	go s.acceptLoop(ctx)
	return s
}

func (s *Server) acceptLoop(ctx context.Context) {
	defer close(s.Accepted)

	for {
		raw, err := s.listener.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) || ctx.Err() != nil {
				return
			}
			continue
		}

		conn := newConn(raw)
		go conn.readLoop(ctx, s.Inbox)
		select {
		case s.Accepted <- conn:
		case <-ctx.Done():
			_ = conn.Close()
			return
		}
	}
}

// readLoop reads chunks from the connection, extracts every complete frame
// from the growing buffer, and emits one Event per frame (or per
// malformed/closed transition) onto inbox. It never touches any state but
// its own Conn.
func (c *Conn) readLoop(ctx context.Context, inbox chan<- Event) {
	readBuf := make([]byte, 4096)
	pending := []byte(nil)

	for {
		req, status := c.appendAndExtract(pending)
		pending = nil

		switch status {
		case frameComplete:
			if !sendEvent(ctx, inbox, Event{Conn: c, Kind: EventFrame, Req: req}) {
				return
			}
			continue // drain any further already-buffered frames before reading again
		case frameMalformed:
			_ = c.Close()
			sendEvent(ctx, inbox, Event{Conn: c, Kind: EventMalformed})
			return
		case frameNeedMore:
			// fall through to a network read
		}

		n, err := c.raw.Read(readBuf)
		if err != nil {
			_ = c.Close()
			sendEvent(ctx, inbox, Event{Conn: c, Kind: EventClosed})
			return
		}
		pending = readBuf[:n]
	}
}

// sendEvent delivers ev to inbox, returning false if ctx was cancelled
// first so the caller can stop reading this connection.
func sendEvent(ctx context.Context, inbox chan<- Event, ev Event) bool {
	select {
	case inbox <- ev:
		return true
	case <-ctx.Done():
		return false
	}
}
