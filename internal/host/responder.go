// Package host implements the editor side of the plugin protocol: it sends
// the handshake context and answers commands read from a plugin. It does
// not start or supervise plugin processes.
package host

import (
	"errors"
	"fmt"
	"io"

	"github.com/hashicorp/go-hclog"

	"github.com/jmylchreest/edlink/internal/plugin/protocol"
)

// Backend is the editor state a Responder serves commands against.
type Backend interface {
	CurrentDocument(context int32) int32
	Filename(doc int32) string
	NewDocument(context int32, title string) int32
	OpenDocument(context int32, path string) int32
	CloseDocument(doc int32) bool
	AppendText(doc int32, text []byte)
	InsertText(doc int32, pos int32, text []byte)
	Text(doc int32) []byte
	ShowDocument(doc int32)
	Quit() bool
	Position(doc int32) int32
	SelectionText(doc int32) []byte
	SelectionRange(doc int32) (start, end int32)
	SetSelectionText(doc int32, text []byte)
	SetToggle(doc int32, toggle protocol.Command, on bool)
	Register(menuLocation, accelerator string)
}

// ErrPluginGone is returned by Serve when the plugin closed its command
// channel without sending finish.
var ErrPluginGone = errors.New("plugin closed its channel before finishing")

// Responder answers plugin commands.
type Responder struct {
	backend Backend
	logger  hclog.Logger
	limits  protocol.Limits
}

// NewResponder creates a responder serving backend.
func NewResponder(backend Backend, logger hclog.Logger) *Responder {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &Responder{
		backend: backend,
		logger:  logger.Named("host"),
		limits:  protocol.DefaultLimits(),
	}
}

// SetLimits replaces the limits applied to blocks received from plugins.
func (r *Responder) SetLimits(limits protocol.Limits) {
	r.limits = limits
}

// SendContext writes the handshake context value on the control channel.
func (r *Responder) SendContext(control io.Writer, context int32) error {
	if err := protocol.WriteInt32(control, context); err != nil {
		return fmt.Errorf("send context: %w", err)
	}
	r.logger.Debug("sent context", "context", context)
	return nil
}

// Serve reads commands from the plugin's command channel and writes replies
// to its data channel until the plugin sends finish.
func (r *Responder) Serve(commands io.Reader, data io.Writer) error {
	for {
		cmd, err := protocol.ReadCommand(commands)
		if err != nil {
			if errors.Is(err, protocol.ErrConnectionClosed) {
				return ErrPluginGone
			}
			return fmt.Errorf("read command: %w", err)
		}

		if cmd == protocol.CmdFinish {
			r.logger.Debug("plugin finished")
			return nil
		}

		req, err := protocol.ReadRequest(commands, cmd, r.limits)
		if err != nil {
			if errors.Is(err, protocol.ErrConnectionClosed) {
				return fmt.Errorf("%w: %v", ErrPluginGone, err)
			}
			return err
		}
		r.logger.Trace("request", "command", cmd, "ints", req.Ints, "blocks", len(req.Blocks))

		if err := r.dispatch(req, data); err != nil {
			return fmt.Errorf("reply to %s: %w", cmd, err)
		}
	}
}

// Loopback serves commands over in-process pipes. Commands written to the
// returned writer are answered on the returned reader, and done receives
// the result of Serve once the plugin finishes or closes the writer.
func (r *Responder) Loopback() (commands io.WriteCloser, data io.Reader, done <-chan error) {
	cmdR, cmdW := io.Pipe()
	dataR, dataW := io.Pipe()
	result := make(chan error, 1)
	go func() {
		err := r.Serve(cmdR, dataW)
		dataW.Close()
		cmdR.Close()
		result <- err
	}()
	return cmdW, dataR, result
}

func (r *Responder) dispatch(req protocol.Request, data io.Writer) error {
	b := r.backend
	switch req.Command {
	case protocol.CmdDocumentCurrent:
		return protocol.WriteInt32(data, b.CurrentDocument(req.Ints[0]))
	case protocol.CmdDocumentFilename:
		return protocol.WriteBlock(data, []byte(b.Filename(req.Ints[0])))
	case protocol.CmdDocumentNew:
		return protocol.WriteInt32(data, b.NewDocument(req.Ints[0], string(req.Blocks[0])))
	case protocol.CmdDocumentOpen:
		return protocol.WriteInt32(data, b.OpenDocument(req.Ints[0], string(req.Blocks[0])))
	case protocol.CmdDocumentClose:
		return protocol.WriteBool(data, b.CloseDocument(req.Ints[0]))
	case protocol.CmdTextAppend:
		b.AppendText(req.Ints[0], req.Blocks[0])
	case protocol.CmdTextInsert:
		b.InsertText(req.Ints[0], req.Ints[1], req.Blocks[0])
	case protocol.CmdTextGet:
		return protocol.WriteBlock(data, b.Text(req.Ints[0]))
	case protocol.CmdDocumentShow:
		b.ShowDocument(req.Ints[0])
	case protocol.CmdProgramQuit:
		return protocol.WriteBool(data, b.Quit())
	case protocol.CmdDocumentPosition:
		return protocol.WriteInt32(data, b.Position(req.Ints[0]))
	case protocol.CmdSelectionText:
		return protocol.WriteBlock(data, b.SelectionText(req.Ints[0]))
	case protocol.CmdSelectionRange:
		start, end := b.SelectionRange(req.Ints[0])
		if err := protocol.WriteInt32(data, start); err != nil {
			return err
		}
		return protocol.WriteInt32(data, end)
	case protocol.CmdSelectionSetText:
		b.SetSelectionText(req.Ints[0], req.Blocks[0])
	case protocol.CmdToggleAutoIndent, protocol.CmdToggleStatusBar, protocol.CmdToggleWordWrap,
		protocol.CmdToggleReadOnly, protocol.CmdToggleSplitScreen:
		b.SetToggle(req.Ints[0], req.Command, req.Ints[1] != 0)
	case protocol.CmdRegister:
		b.Register(string(req.Blocks[0]), string(req.Blocks[1]))
	default:
		return fmt.Errorf("no handler for %s", req.Command)
	}
	return nil
}
