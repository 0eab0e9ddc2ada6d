package protocol

import (
	"errors"
	"fmt"
	"io"
	"time"

	"golang.org/x/sys/unix"
)

// FD is an inherited file descriptor used as one end of a plugin channel.
// It reads and writes the descriptor directly, so it works whether the
// parent left it blocking or non-blocking. An FD never closes its
// descriptor: the channel lives as long as the process.
type FD struct {
	Num int

	// ReadTimeout bounds how long a single Read waits for data. Zero
	// waits forever.
	ReadTimeout time.Duration
}

// Read implements io.Reader. A zero-byte read from the kernel is reported
// as io.EOF.
func (f FD) Read(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	for {
		if f.ReadTimeout > 0 {
			if err := f.wait(unix.POLLIN, f.ReadTimeout); err != nil {
				return 0, err
			}
		}
		n, err := unix.Read(f.Num, p)
		if err != nil {
			if err == unix.EINTR {
				continue
			}
			if err == unix.EAGAIN {
				if err := f.wait(unix.POLLIN, f.ReadTimeout); err != nil {
					return 0, err
				}
				continue
			}
			return 0, &IOError{Op: fmt.Sprintf("read fd %d", f.Num), Err: err}
		}
		if n == 0 {
			return 0, io.EOF
		}
		return n, nil
	}
}

// Write implements io.Writer. It may return a short count with a nil error;
// WriteFull continues from there.
func (f FD) Write(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	for {
		n, err := unix.Write(f.Num, p)
		if err != nil {
			if err == unix.EINTR {
				continue
			}
			if err == unix.EAGAIN {
				if err := f.wait(unix.POLLOUT, 0); err != nil {
					return 0, err
				}
				continue
			}
			if err == unix.EPIPE {
				return 0, ErrConnectionClosed
			}
			return 0, &IOError{Op: fmt.Sprintf("write fd %d", f.Num), Err: err}
		}
		if n < 0 {
			n = 0
		}
		return n, nil
	}
}

// wait blocks in poll(2) until the descriptor is ready for events or the
// timeout expires. A non-positive timeout waits forever.
func (f FD) wait(events int16, timeout time.Duration) error {
	ms := -1
	if timeout > 0 {
		ms = int(timeout / time.Millisecond)
		if ms == 0 {
			ms = 1
		}
	}
	fds := []unix.PollFd{{Fd: int32(f.Num), Events: events}}
	for {
		count, err := unix.Poll(fds, ms)
		if err != nil {
			if err == unix.EINTR {
				continue
			}
			return &IOError{Op: fmt.Sprintf("poll fd %d", f.Num), Err: err}
		}
		if count == 0 {
			return fmt.Errorf("fd %d: %w after %s", f.Num, ErrTimeout, timeout)
		}
		// POLLHUP and POLLERR fall through to the read or write, which
		// reports the condition precisely.
		return nil
	}
}

// Check verifies that the descriptor is open in this process.
func (f FD) Check() error {
	if f.Num < 0 {
		return fmt.Errorf("invalid file descriptor %d", f.Num)
	}
	if _, err := unix.FcntlInt(uintptr(f.Num), unix.F_GETFD, 0); err != nil {
		return &IOError{Op: fmt.Sprintf("fd %d", f.Num), Err: err}
	}
	return nil
}

// Channels is the descriptor triple a plugin inherits from its host.
type Channels struct {
	// Control carries the handshake context value from host to plugin.
	Control FD
	// Command carries command codes and request arguments to the host.
	Command FD
	// Data carries replies from the host.
	Data FD
}

// NewChannels builds a channel set from raw descriptor numbers.
func NewChannels(control, command, data int) Channels {
	return Channels{
		Control: FD{Num: control},
		Command: FD{Num: command},
		Data:    FD{Num: data},
	}
}

// WithReadTimeout returns a copy whose readable descriptors time out after d.
func (c Channels) WithReadTimeout(d time.Duration) Channels {
	c.Control.ReadTimeout = d
	c.Data.ReadTimeout = d
	return c
}

// Validate checks that all three descriptors are open.
func (c Channels) Validate() error {
	var errs []error
	for _, ch := range []struct {
		name string
		fd   FD
	}{
		{"control", c.Control},
		{"command", c.Command},
		{"data", c.Data},
	} {
		if err := ch.fd.Check(); err != nil {
			errs = append(errs, fmt.Errorf("%s channel: %w", ch.name, err))
		}
	}
	return errors.Join(errs...)
}
