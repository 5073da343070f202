// internal/session/closed.go
package session

import (
	"errors"
	"io"
	"net"
	"syscall"

	"github.com/gorilla/websocket"
)

// isConnectionClosed reports whether err is a normal client-side termination:
// a close frame, EOF, a closed connection, broken pipe, or connection reset.
func isConnectionClosed(err error) bool {
	if err == nil {
		return false
	}

	var ce *websocket.CloseError
	if errors.As(err, &ce) {
		return true
	}
	if errors.Is(err, websocket.ErrCloseSent) {
		return true
	}
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, net.ErrClosed) {
		return true
	}

	var errno syscall.Errno
	if errors.As(err, &errno) {
		return errno == syscall.EPIPE || errno == syscall.ECONNRESET
	}
	return false
}
