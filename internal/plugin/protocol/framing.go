package protocol

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
)

const (
	// IntSize is the width in bytes of every integer on the wire.
	IntSize = 4

	// DefaultMaxBlock is the default upper bound on a single block payload (64 MiB).
	DefaultMaxBlock = 64 << 20

	// maxEmptyReads mirrors bufio: a reader that keeps returning (0, nil)
	// is treated as broken rather than spun on forever.
	maxEmptyReads = 100
)

// Limits bounds what a reader is willing to accept from its peer.
type Limits struct {
	// MaxBlock is the largest block payload accepted. Zero or less means no
	// limit beyond what fits in an int32 length.
	MaxBlock int
}

// DefaultLimits returns the default protocol limits.
func DefaultLimits() Limits {
	return Limits{MaxBlock: DefaultMaxBlock}
}

// ReadFull reads exactly n bytes from r, issuing as many reads as needed.
func ReadFull(r io.Reader, n int) ([]byte, error) {
	buf := make([]byte, n)
	if err := readInto(r, buf); err != nil {
		return nil, err
	}
	return buf, nil
}

func readInto(r io.Reader, buf []byte) error {
	got, empty := 0, 0
	for got < len(buf) {
		n, err := r.Read(buf[got:])
		if n > 0 {
			got += n
			empty = 0
		}
		if got == len(buf) {
			return nil
		}
		if err != nil {
			if isPeerGone(err) {
				return fmt.Errorf("%w: received %d of %d bytes", ErrConnectionClosed, got, len(buf))
			}
			if errors.Is(err, ErrTimeout) {
				return err
			}
			return &IOError{Op: "read", Err: err}
		}
		if n == 0 {
			empty++
			if empty >= maxEmptyReads {
				return &IOError{Op: "read", Err: io.ErrNoProgress}
			}
		}
	}
	return nil
}

// WriteFull writes all of b to w. Short writes are continued; a write that
// makes no progress means the peer is gone.
func WriteFull(w io.Writer, b []byte) error {
	for len(b) > 0 {
		n, err := w.Write(b)
		if n > 0 {
			b = b[n:]
		}
		if err != nil {
			if errors.Is(err, io.ErrShortWrite) && n > 0 {
				continue
			}
			if isPeerGone(err) {
				return fmt.Errorf("%w: %d bytes unsent", ErrConnectionClosed, len(b))
			}
			return &IOError{Op: "write", Err: err}
		}
		if n == 0 {
			return fmt.Errorf("%w: zero-length write with %d bytes unsent", ErrConnectionClosed, len(b))
		}
	}
	return nil
}

// ReadInt32 reads one native-endian integer.
func ReadInt32(r io.Reader) (int32, error) {
	var buf [IntSize]byte
	if err := readInto(r, buf[:]); err != nil {
		return 0, err
	}
	return int32(binary.NativeEndian.Uint32(buf[:])), nil
}

// WriteInt32 writes one native-endian integer.
func WriteInt32(w io.Writer, v int32) error {
	var buf [IntSize]byte
	binary.NativeEndian.PutUint32(buf[:], uint32(v))
	return WriteFull(w, buf[:])
}

// ReadBlock reads a length-prefixed block. A zero length yields an empty,
// non-nil slice.
func ReadBlock(r io.Reader, limits Limits) ([]byte, error) {
	n, err := ReadInt32(r)
	if err != nil {
		return nil, err
	}
	if n < 0 || (limits.MaxBlock > 0 && int(n) > limits.MaxBlock) {
		return nil, &BlockSizeError{Size: int64(n), Max: limits.MaxBlock}
	}
	return ReadFull(r, int(n))
}

// WriteBlock writes len(b) followed by b.
func WriteBlock(w io.Writer, b []byte) error {
	if int64(len(b)) > math.MaxInt32 {
		return &BlockSizeError{Size: int64(len(b)), Max: math.MaxInt32}
	}
	if err := WriteInt32(w, int32(len(b))); err != nil {
		return err
	}
	return WriteFull(w, b)
}

// EOFPolicy decides what ReadBool reports when the peer closes the channel
// before the byte arrives.
type EOFPolicy int

const (
	// EOFAssumeTrue reports true, matching the historical client library:
	// a host that went away is taken to have closed the document or quit.
	EOFAssumeTrue EOFPolicy = iota

	// EOFAssumeFalse reports false.
	EOFAssumeFalse

	// EOFFail surfaces ErrConnectionClosed to the caller.
	EOFFail
)

// String returns the configuration spelling of the policy.
func (p EOFPolicy) String() string {
	switch p {
	case EOFAssumeTrue:
		return "true"
	case EOFAssumeFalse:
		return "false"
	case EOFFail:
		return "error"
	default:
		return fmt.Sprintf("EOFPolicy(%d)", int(p))
	}
}

// ParseEOFPolicy parses "true", "false" or "error".
func ParseEOFPolicy(s string) (EOFPolicy, error) {
	switch s {
	case "true":
		return EOFAssumeTrue, nil
	case "false":
		return EOFAssumeFalse, nil
	case "error":
		return EOFFail, nil
	default:
		return EOFAssumeTrue, fmt.Errorf("invalid EOF policy %q (expected true, false or error)", s)
	}
}

// ReadBool reads a single boolean byte, non-zero meaning true. Only a clean
// close of the channel is subject to policy; other failures are returned.
func ReadBool(r io.Reader, policy EOFPolicy) (bool, error) {
	var buf [1]byte
	err := readInto(r, buf[:])
	switch {
	case err == nil:
		return buf[0] != 0, nil
	case errors.Is(err, ErrConnectionClosed):
		switch policy {
		case EOFAssumeTrue:
			return true, nil
		case EOFAssumeFalse:
			return false, nil
		}
		return false, err
	default:
		return false, err
	}
}

// WriteBool writes a single boolean byte.
func WriteBool(w io.Writer, v bool) error {
	var b byte
	if v {
		b = 1
	}
	return WriteFull(w, []byte{b})
}

// WriteCommand writes the byte code of cmd.
func WriteCommand(w io.Writer, cmd Command) error {
	code := cmd.Code()
	if code == nil {
		return fmt.Errorf("cannot encode %s", cmd)
	}
	return WriteFull(w, code)
}
