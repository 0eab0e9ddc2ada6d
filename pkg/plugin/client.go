package plugin

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/hashicorp/go-hclog"

	"github.com/jmylchreest/edlink/internal/plugin/protocol"
)

// ErrFinished is returned by calls made after Finish.
var ErrFinished = errors.New("plugin session finished")

// Client issues commands to the editor. Every method blocks until the
// editor's full reply has been read, and returns framing errors to the
// caller wrapped with the command name. Nothing is retried.
//
// A Client is safe for concurrent use; calls are serialized so frames never
// interleave.
type Client struct {
	mu       sync.Mutex
	commands io.Writer
	data     io.Reader
	policy   protocol.EOFPolicy
	limits   protocol.Limits
	logger   hclog.Logger
	finished bool
}

// NewClient creates a client writing commands to commands and reading
// replies from data. Unlike Start it does not read the environment.
func NewClient(commands io.Writer, data io.Reader, opts ...Option) *Client {
	o := resolveOptions(false, opts)
	return newClient(commands, data, o, o.logger.Named("client"))
}

func newClient(commands io.Writer, data io.Reader, o *options, logger hclog.Logger) *Client {
	return &Client{
		commands: commands,
		data:     data,
		policy:   o.cfg.BoolOnEOF,
		limits:   o.cfg.Limits(),
		logger:   logger,
	}
}

// frame accumulates a command and its arguments so it goes out in one write.
type frame struct {
	buf bytes.Buffer
	err error
}

func (f *frame) int(v int32) *frame {
	if f.err == nil {
		f.err = protocol.WriteInt32(&f.buf, v)
	}
	return f
}

func (f *frame) block(s string) *frame {
	if f.err == nil {
		f.err = protocol.WriteBlock(&f.buf, []byte(s))
	}
	return f
}

// call sends cmd with args and then runs recv, if any, against the data
// channel.
func (c *Client) call(cmd protocol.Command, args *frame, recv func(r io.Reader) error) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.finished {
		return fmt.Errorf("%s: %w", cmd, ErrFinished)
	}
	if err := c.send(cmd, args); err != nil {
		return fmt.Errorf("%s: %w", cmd, err)
	}
	if recv == nil {
		return nil
	}
	if err := recv(c.data); err != nil {
		return fmt.Errorf("%s: %w", cmd, err)
	}
	return nil
}

func (c *Client) send(cmd protocol.Command, args *frame) error {
	var out frame
	if err := protocol.WriteCommand(&out.buf, cmd); err != nil {
		return err
	}
	if args != nil {
		if args.err != nil {
			return args.err
		}
		out.buf.Write(args.buf.Bytes())
	}
	c.logger.Trace("send", "command", cmd, "bytes", out.buf.Len())
	return protocol.WriteFull(c.commands, out.buf.Bytes())
}

func (c *Client) readInt(r io.Reader, cmd protocol.Command) (int32, error) {
	v, err := protocol.ReadInt32(r)
	if err == nil {
		c.logger.Trace("recv", "command", cmd, "int", v)
	}
	return v, err
}

func (c *Client) readBlock(r io.Reader, cmd protocol.Command) (string, error) {
	b, err := protocol.ReadBlock(r, c.limits)
	if err == nil {
		c.logger.Trace("recv", "command", cmd, "block", len(b))
	}
	return string(b), err
}

func (c *Client) readBool(r io.Reader, cmd protocol.Command) (bool, error) {
	v, err := protocol.ReadBool(r, c.policy)
	if err == nil {
		c.logger.Trace("recv", "command", cmd, "bool", v)
	}
	return v, err
}

func (c *Client) docCall(cmd protocol.Command, args *frame) (DocID, error) {
	var id int32
	err := c.call(cmd, args, func(r io.Reader) (err error) {
		id, err = c.readInt(r, cmd)
		return err
	})
	return DocID(id), err
}

func (c *Client) textCall(cmd protocol.Command, doc DocID) (string, error) {
	var text string
	err := c.call(cmd, new(frame).int(int32(doc)), func(r io.Reader) (err error) {
		text, err = c.readBlock(r, cmd)
		return err
	})
	return text, err
}

// CurrentDocument returns the document the editor considers current for ctx.
func (c *Client) CurrentDocument(ctx Context) (DocID, error) {
	return c.docCall(protocol.CmdDocumentCurrent, new(frame).int(int32(ctx)))
}

// DocumentFilename returns the file name of doc, empty when it has none.
func (c *Client) DocumentFilename(doc DocID) (string, error) {
	return c.textCall(protocol.CmdDocumentFilename, doc)
}

// NewDocument creates an empty document titled title.
func (c *Client) NewDocument(ctx Context, title string) (DocID, error) {
	return c.docCall(protocol.CmdDocumentNew, new(frame).int(int32(ctx)).block(title))
}

// OpenDocument opens path in the editor.
func (c *Client) OpenDocument(ctx Context, path string) (DocID, error) {
	return c.docCall(protocol.CmdDocumentOpen, new(frame).int(int32(ctx)).block(path))
}

// CloseDocument asks the editor to close doc and reports whether it did.
// If the editor hangs up before answering, the configured EOFPolicy decides.
func (c *Client) CloseDocument(doc DocID) (bool, error) {
	cmd := protocol.CmdDocumentClose
	var closed bool
	err := c.call(cmd, new(frame).int(int32(doc)), func(r io.Reader) (err error) {
		closed, err = c.readBool(r, cmd)
		return err
	})
	return closed, err
}

// AppendText appends text to the end of doc.
func (c *Client) AppendText(doc DocID, text string) error {
	return c.call(protocol.CmdTextAppend, new(frame).int(int32(doc)).block(text), nil)
}

// InsertText inserts text at character offset pos in doc.
func (c *Client) InsertText(doc DocID, pos int32, text string) error {
	return c.call(protocol.CmdTextInsert, new(frame).int(int32(doc)).int(pos).block(text), nil)
}

// Text returns the whole contents of doc.
func (c *Client) Text(doc DocID) (string, error) {
	return c.textCall(protocol.CmdTextGet, doc)
}

// ShowDocument brings doc to the front.
func (c *Client) ShowDocument(doc DocID) error {
	return c.call(protocol.CmdDocumentShow, new(frame).int(int32(doc)), nil)
}

// QuitProgram asks the editor to quit and reports whether it agreed. If the
// editor hangs up before answering, the configured EOFPolicy decides.
func (c *Client) QuitProgram() (bool, error) {
	cmd := protocol.CmdProgramQuit
	var quit bool
	err := c.call(cmd, nil, func(r io.Reader) (err error) {
		quit, err = c.readBool(r, cmd)
		return err
	})
	return quit, err
}

// Position returns the cursor offset in doc.
func (c *Client) Position(doc DocID) (int32, error) {
	cmd := protocol.CmdDocumentPosition
	var pos int32
	err := c.call(cmd, new(frame).int(int32(doc)), func(r io.Reader) (err error) {
		pos, err = c.readInt(r, cmd)
		return err
	})
	return pos, err
}

// SelectionText returns the selected text of doc, empty when nothing is
// selected.
func (c *Client) SelectionText(doc DocID) (string, error) {
	return c.textCall(protocol.CmdSelectionText, doc)
}

// SelectionRange returns the selection bounds of doc.
func (c *Client) SelectionRange(doc DocID) (SelectionRange, error) {
	cmd := protocol.CmdSelectionRange
	var sel SelectionRange
	err := c.call(cmd, new(frame).int(int32(doc)), func(r io.Reader) (err error) {
		if sel.Start, err = c.readInt(r, cmd); err != nil {
			return err
		}
		sel.End, err = c.readInt(r, cmd)
		return err
	})
	return sel, err
}

// SetSelectionText replaces the selection of doc with text.
func (c *Client) SetSelectionText(doc DocID, text string) error {
	return c.call(protocol.CmdSelectionSetText, new(frame).int(int32(doc)).block(text), nil)
}

// SetToggle switches a per-document setting.
func (c *Client) SetToggle(doc DocID, toggle Toggle, on bool) error {
	if !toggle.IsToggle() {
		return fmt.Errorf("%s is not a document toggle", toggle)
	}
	var flag int32
	if on {
		flag = 1
	}
	return c.call(toggle, new(frame).int(int32(doc)).int(flag), nil)
}

// SetAutoIndent turns automatic indentation of doc on or off.
func (c *Client) SetAutoIndent(doc DocID, on bool) error {
	return c.SetToggle(doc, ToggleAutoIndent, on)
}

// SetStatusBar shows or hides the status bar of doc.
func (c *Client) SetStatusBar(doc DocID, on bool) error {
	return c.SetToggle(doc, ToggleStatusBar, on)
}

// SetWordWrap turns line wrapping of doc on or off.
func (c *Client) SetWordWrap(doc DocID, on bool) error {
	return c.SetToggle(doc, ToggleWordWrap, on)
}

// SetReadOnly makes doc read-only, or editable again.
func (c *Client) SetReadOnly(doc DocID, on bool) error {
	return c.SetToggle(doc, ToggleReadOnly, on)
}

// SetSplitScreen splits the view of doc in two, or joins it back.
func (c *Client) SetSplitScreen(doc DocID, on bool) error {
	return c.SetToggle(doc, ToggleSplitScreen, on)
}

// Register advertises a menu entry. Editors only expect it in query mode.
func (c *Client) Register(menuLocation, accelerator string) error {
	return c.call(protocol.CmdRegister, new(frame).block(menuLocation).block(accelerator), nil)
}

// Finish tells the editor the plugin is done. The channels are unusable
// afterwards; later calls return ErrFinished and Finish itself is a no-op.
func (c *Client) Finish() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.finished {
		return nil
	}
	c.finished = true
	if err := c.send(protocol.CmdFinish, nil); err != nil {
		return fmt.Errorf("%s: %w", protocol.CmdFinish, err)
	}
	return nil
}

// Finished reports whether Finish has been called.
func (c *Client) Finished() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.finished
}
