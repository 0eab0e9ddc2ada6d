package plugin

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/google/uuid"
	"github.com/hashicorp/go-hclog"
	"github.com/mitchellh/go-ps"

	"github.com/jmylchreest/edlink/internal/plugin/protocol"
	"github.com/jmylchreest/edlink/internal/version"
)

// Session is a plugin's connection to the editor.
type Session struct {
	// ID tags the session's log lines.
	ID string

	// Context is the handle received during the handshake. It is zero in
	// query mode.
	Context Context

	// Args is argv[0] followed by the plugin's own arguments.
	Args []string

	Launch Launch

	// Client issues commands on the session's channels. Finishing it
	// directly finishes the session.
	Client *Client

	// Queried is set when the editor only asked for the menu entry. The
	// session is already finished in that case.
	Queried bool

	logger hclog.Logger
	mu     sync.Mutex
	state  State
}

// Start parses args, checks the descriptors and performs the handshake.
// In query mode it advertises info and finishes without reading the
// control channel. Errors caused by a bad command line wrap ErrNotPlugin.
func Start(args []string, info Info, opts ...Option) (*Session, error) {
	return start(args, info, resolveOptions(true, opts))
}

func start(args []string, info Info, o *options) (*Session, error) {
	launch, err := ParseLaunch(args)
	if err != nil {
		return nil, err
	}

	channels := launch.Channels.WithReadTimeout(o.cfg.ReadTimeout)
	if err := channels.Validate(); err != nil {
		return nil, fmt.Errorf("invalid plugin channels: %w", err)
	}

	s := &Session{
		ID:     uuid.NewString(),
		Args:   launch.Args,
		Launch: launch,
		state:  StateHandshaking,
	}
	s.logger = o.logger.Named("client").With("session", s.ID, "host", hostProcess())
	s.Client = newClient(channels.Command, channels.Data, o, s.logger)

	if launch.Query {
		if err := s.advertise(info); err != nil {
			return nil, err
		}
		return s, nil
	}

	ctx, err := protocol.ReadInt32(channels.Control)
	if err != nil {
		return nil, fmt.Errorf("handshake: read context: %w", err)
	}
	s.Context = Context(ctx)
	s.setState(StateActive)
	s.logger.Debug("handshake complete", "context", ctx, "plugin", info.Name, "version", version.Version)
	return s, nil
}

// advertise registers the menu entry or accelerator, if there is either,
// and finishes.
func (s *Session) advertise(info Info) error {
	if info.MenuLocation != "" || info.Accelerator != "" {
		if err := s.Client.Register(info.MenuLocation, info.Accelerator); err != nil {
			return fmt.Errorf("query: %w", err)
		}
	}
	if err := s.Finish(); err != nil {
		return fmt.Errorf("query: %w", err)
	}
	s.Queried = true
	s.logger.Debug("advertised", "menu", info.MenuLocation, "accelerator", info.Accelerator)
	return nil
}

// State returns the lifecycle stage of the session.
func (s *Session) State() State {
	if s.Client.Finished() {
		return StateFinished
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Session) setState(state State) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = state
}

// Logger returns the session logger.
func (s *Session) Logger() hclog.Logger {
	return s.logger
}

// CurrentDocument returns the current document of the session's context.
func (s *Session) CurrentDocument() (DocID, error) {
	return s.Client.CurrentDocument(s.Context)
}

// Finish sends the finish command once. Further calls do nothing.
func (s *Session) Finish() error {
	return s.Client.Finish()
}

// Main runs a plugin and exits. It prints UsageMessage and exits 1 when the
// process was not launched by the editor, exits 0 after a query, and
// otherwise calls run with an active session, finishing it afterwards.
func Main(info Info, run func(*Session) error, opts ...Option) {
	os.Exit(execute(os.Args, os.Stdout, os.Stderr, info, run, opts...))
}

func execute(args []string, stdout, stderr io.Writer, info Info, run func(*Session) error, opts ...Option) int {
	o := resolveOptions(true, append([]Option{withLogOutput(stderr)}, opts...))

	s, err := start(args, info, o)
	if err != nil {
		if errors.Is(err, ErrNotPlugin) {
			fmt.Fprintln(stdout, UsageMessage)
			return 1
		}
		o.logger.Error("plugin start failed", "error", err)
		return 1
	}
	if s.Queried {
		return 0
	}

	if err := run(s); err != nil {
		s.logger.Error("plugin failed", "error", err)
		if ferr := s.Finish(); ferr != nil {
			s.logger.Debug("finish after failure", "error", ferr)
		}
		return 1
	}
	if err := s.Finish(); err != nil {
		s.logger.Error("finish failed", "error", err)
		return 1
	}
	return 0
}

// hostProcess names the editor process that launched the plugin.
func hostProcess() string {
	p, err := ps.FindProcess(os.Getppid())
	if err != nil || p == nil {
		return "unknown"
	}
	return p.Executable()
}
