package plugin

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/jmylchreest/edlink/internal/plugin/protocol"
)

// ErrNotPlugin is returned when the process was not started by the editor.
var ErrNotPlugin = errors.New("not launched as a plugin")

// Launch is the result of parsing a plugin's command line.
type Launch struct {
	// Program is argv[0].
	Program string

	// Channels are the descriptors handed over by the editor.
	Channels protocol.Channels

	// Query is set when the editor only wants the plugin's menu entry.
	Query bool

	// Args is argv[0] followed by the arguments meant for the plugin itself.
	Args []string

	// Raw is the unmodified command line.
	Raw []string
}

// ParseLaunch parses args (including argv[0]) as a plugin launch. It does
// no I/O.
func ParseLaunch(args []string) (Launch, error) {
	if len(args) < launchArgs {
		return Launch{}, fmt.Errorf("%w: expected %d arguments, got %d", ErrNotPlugin, launchArgs, len(args))
	}
	if args[1] != LaunchMarker {
		return Launch{}, fmt.Errorf("%w: expected %s, got %q", ErrNotPlugin, LaunchMarker, args[1])
	}

	var fds [3]int
	for i, name := range []string{"control", "command", "data"} {
		fd, err := parseFD(args[2+i])
		if err != nil {
			return Launch{}, fmt.Errorf("%w: %s descriptor: %v", ErrNotPlugin, name, err)
		}
		fds[i] = fd
	}

	rest := args[launchArgs:]
	query := len(rest) > 0 && rest[0] == QueryFlag
	if query {
		rest = rest[1:]
	}

	return Launch{
		Program:  args[0],
		Channels: protocol.NewChannels(fds[0], fds[1], fds[2]),
		Query:    query,
		Args:     append([]string{args[0]}, rest...),
		Raw:      append([]string(nil), args...),
	}, nil
}

func parseFD(s string) (int, error) {
	fd, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("%q is not a number", s)
	}
	if fd < 0 {
		return 0, fmt.Errorf("%d is negative", fd)
	}
	return fd, nil
}
