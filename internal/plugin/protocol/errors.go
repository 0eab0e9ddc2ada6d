// Package protocol implements the wire format spoken between the editor and
// its out-of-process plugins: fixed-width integers, length-prefixed blocks,
// single-byte booleans and the one- or two-byte command vocabulary.
package protocol

import (
	"errors"
	"fmt"
	"io"
	"syscall"
)

var (
	// ErrConnectionClosed is returned when the peer closed its end of a
	// channel before a value was completely transferred.
	ErrConnectionClosed = errors.New("connection closed by peer")

	// ErrTimeout is returned when a read deadline configured on an FD expires.
	ErrTimeout = errors.New("timed out waiting for peer")
)

// IOError wraps an operating system failure that is neither EOF nor a
// closed pipe.
type IOError struct {
	Op  string
	Err error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *IOError) Unwrap() error {
	return e.Err
}

// BlockSizeError reports a block length that is negative or exceeds the
// configured limit.
type BlockSizeError struct {
	Size int64
	Max  int
}

func (e *BlockSizeError) Error() string {
	if e.Size < 0 {
		return fmt.Sprintf("invalid block length %d", e.Size)
	}
	return fmt.Sprintf("block length %d exceeds limit %d", e.Size, e.Max)
}

// UnknownCommandError is returned by ReadCommand for a code outside the
// vocabulary.
type UnknownCommandError struct {
	Code []byte
}

func (e *UnknownCommandError) Error() string {
	return fmt.Sprintf("unknown command code %q", e.Code)
}

// isPeerGone reports whether err means the other side of the channel is no
// longer there.
func isPeerGone(err error) bool {
	return errors.Is(err, io.EOF) ||
		errors.Is(err, io.ErrUnexpectedEOF) ||
		errors.Is(err, io.ErrClosedPipe) ||
		errors.Is(err, syscall.EPIPE) ||
		errors.Is(err, ErrConnectionClosed)
}
