package ipc

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net"
	"sync/atomic"
)

// MaxFrameBytes caps a connection's unconsumed read buffer. A client that
// never sends a newline within this many bytes is treated as hostile and
// disconnected with EventMalformed.
const MaxFrameBytes = 64 * 1024

var nextConnID atomic.Uint64

// Conn wraps one accepted connection with its append-only partial-frame
// read buffer. A Conn is read and appended to only by its own reader
// goroutine; WriteResponse may be called from the dispatcher goroutine.
type Conn struct {
	ID  uint64
	raw net.Conn
	buf []byte
}

func newConn(raw net.Conn) *Conn {
	return &Conn{ID: nextConnID.Add(1), raw: raw}
}

// Close closes the underlying connection.
func (c *Conn) Close() error { return c.raw.Close() }

// WriteResponse serializes resp as a single newline-terminated JSON line.
// Broken-pipe and other write errors are returned to the caller, who
// decides whether to close the connection; they are never panics.
func (c *Conn) WriteResponse(resp Response) error {
	encoded, err := json.Marshal(resp)
	if err != nil {
		return fmt.Errorf("encode response: %w", err)
	}
	encoded = append(encoded, '\n')
	_, err = c.raw.Write(encoded)
	return err
}

// extractFrame pulls the first newline-terminated prefix out of buf. It
// returns the line without its trailing newline, the remaining buffer, and
// whether a complete line was found.
func extractFrame(buf []byte) (line []byte, rest []byte, ok bool) {
	idx := bytes.IndexByte(buf, '\n')
	if idx < 0 {
		return nil, buf, false
	}
	return buf[:idx], buf[idx+1:], true
}

// frameStatus classifies the result of appending a chunk and attempting to
// extract frames from a connection's buffer.
type frameStatus int

const (
	frameNeedMore frameStatus = iota
	frameComplete
	frameMalformed
)

// appendAndExtract appends chunk to the connection's buffer and extracts
// the next complete frame, if any. Called only from the connection's own
// reader goroutine.
func (c *Conn) appendAndExtract(chunk []byte) (Request, frameStatus) {
	c.buf = append(c.buf, chunk...)

	line, rest, ok := extractFrame(c.buf)
	if !ok {
		if len(c.buf) > MaxFrameBytes {
			return Request{}, frameMalformed
		}
		return Request{}, frameNeedMore
	}
	c.buf = rest

	var req Request
	if err := json.Unmarshal(line, &req); err != nil {
		return Request{}, frameMalformed
	}
	return req, frameComplete
}
