package host

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmylchreest/edlink/internal/plugin/protocol"
)

// script builds plugin command-channel traffic.
type script struct{ bytes.Buffer }

func (s *script) cmd(c protocol.Command) *script {
	s.Write(c.Code())
	return s
}

func (s *script) int(v int32) *script {
	_ = binary.Write(&s.Buffer, binary.NativeEndian, v)
	return s
}

func (s *script) block(b string) *script {
	s.int(int32(len(b)))
	s.WriteString(b)
	return s
}

func serve(t *testing.T, ed *MemoryEditor, s *script) (*bytes.Buffer, error) {
	t.Helper()
	var data bytes.Buffer
	err := NewResponder(ed, nil).Serve(&s.Buffer, &data)
	return &data, err
}

func TestSendContext(t *testing.T) {
	var control bytes.Buffer
	require.NoError(t, NewResponder(NewMemoryEditor(), nil).SendContext(&control, 42))

	v, err := protocol.ReadInt32(&control)
	require.NoError(t, err)
	assert.Equal(t, int32(42), v)
}

func TestServeDocumentCommands(t *testing.T) {
	ed := NewMemoryEditor()
	doc := ed.AddDocument(42, "/tmp/notes.txt", "hello")

	s := new(script)
	s.cmd(protocol.CmdDocumentCurrent).int(42)
	s.cmd(protocol.CmdDocumentFilename).int(doc)
	s.cmd(protocol.CmdTextAppend).int(doc).block(" world")
	s.cmd(protocol.CmdTextGet).int(doc)
	s.cmd(protocol.CmdDocumentShow).int(doc)
	s.cmd(protocol.CmdFinish)

	data, err := serve(t, ed, s)
	require.NoError(t, err)

	current, err := protocol.ReadInt32(data)
	require.NoError(t, err)
	assert.Equal(t, doc, current)

	name, err := protocol.ReadBlock(data, protocol.DefaultLimits())
	require.NoError(t, err)
	assert.Equal(t, "/tmp/notes.txt", string(name))

	text, err := protocol.ReadBlock(data, protocol.DefaultLimits())
	require.NoError(t, err)
	assert.Equal(t, "hello world", string(text))
	assert.Zero(t, data.Len(), "unexpected trailing reply bytes")

	snap, ok := ed.Document(doc)
	require.True(t, ok)
	assert.True(t, snap.Shown)
}

func TestServeNewOpenClose(t *testing.T) {
	ed := NewMemoryEditor()
	ed.SetFile("/etc/motd", "welcome")

	s := new(script)
	s.cmd(protocol.CmdDocumentNew).int(1).block("Untitled")
	s.cmd(protocol.CmdDocumentOpen).int(1).block("/etc/motd")
	s.cmd(protocol.CmdDocumentClose).int(1)
	s.cmd(protocol.CmdDocumentClose).int(1)
	s.cmd(protocol.CmdFinish)

	data, err := serve(t, ed, s)
	require.NoError(t, err)

	created, _ := protocol.ReadInt32(data)
	opened, _ := protocol.ReadInt32(data)
	assert.Equal(t, int32(1), created)
	assert.Equal(t, int32(2), opened)

	first, err := protocol.ReadBool(data, protocol.EOFFail)
	require.NoError(t, err)
	second, err := protocol.ReadBool(data, protocol.EOFFail)
	require.NoError(t, err)
	assert.True(t, first)
	assert.False(t, second, "closing a closed document should fail")

	snap, ok := ed.Document(opened)
	require.True(t, ok)
	assert.Equal(t, "welcome", snap.Text)
	assert.Equal(t, opened, ed.CurrentDocument(1))
}

func TestServeSelection(t *testing.T) {
	ed := NewMemoryEditor()
	doc := ed.AddDocument(3, "", "the quick brown fox")
	ed.Select(doc, 4, 9)

	s := new(script)
	s.cmd(protocol.CmdSelectionRange).int(doc)
	s.cmd(protocol.CmdSelectionText).int(doc)
	s.cmd(protocol.CmdSelectionSetText).int(doc).block("slow")
	s.cmd(protocol.CmdDocumentPosition).int(doc)
	s.cmd(protocol.CmdFinish)

	data, err := serve(t, ed, s)
	require.NoError(t, err)

	start, _ := protocol.ReadInt32(data)
	end, _ := protocol.ReadInt32(data)
	assert.Equal(t, []int32{4, 9}, []int32{start, end})

	sel, err := protocol.ReadBlock(data, protocol.DefaultLimits())
	require.NoError(t, err)
	assert.Equal(t, "quick", string(sel))

	pos, err := protocol.ReadInt32(data)
	require.NoError(t, err)
	assert.Equal(t, int32(8), pos)

	snap, _ := ed.Document(doc)
	assert.Equal(t, "the slow brown fox", snap.Text)
}

func TestServeToggles(t *testing.T) {
	ed := NewMemoryEditor()
	doc := ed.AddDocument(1, "", "")

	s := new(script)
	s.cmd(protocol.CmdToggleWordWrap).int(doc).int(1)
	s.cmd(protocol.CmdToggleReadOnly).int(doc).int(0)
	s.cmd(protocol.CmdFinish)

	data, err := serve(t, ed, s)
	require.NoError(t, err)
	assert.Zero(t, data.Len(), "toggles have no reply")

	snap, _ := ed.Document(doc)
	assert.Equal(t, map[protocol.Command]bool{
		protocol.CmdToggleWordWrap: true,
		protocol.CmdToggleReadOnly: false,
	}, snap.Toggles)
}

func TestServeRegisterAndQuit(t *testing.T) {
	ed := NewMemoryEditor()
	ed.AllowQuit = false

	s := new(script)
	s.cmd(protocol.CmdRegister).block("Tools/Word Count").block("<Control>w")
	s.cmd(protocol.CmdProgramQuit)
	s.cmd(protocol.CmdFinish)

	data, err := serve(t, ed, s)
	require.NoError(t, err)

	allowed, err := protocol.ReadBool(data, protocol.EOFFail)
	require.NoError(t, err)
	assert.False(t, allowed)
	assert.True(t, ed.QuitRequested())
	assert.Equal(t, []Registration{{MenuLocation: "Tools/Word Count", Accelerator: "<Control>w"}}, ed.Registrations())
}

func TestServePluginGone(t *testing.T) {
	ed := NewMemoryEditor()

	_, err := serve(t, ed, new(script))
	assert.ErrorIs(t, err, ErrPluginGone)

	s := new(script)
	s.cmd(protocol.CmdTextAppend).int(1)
	_, err = serve(t, ed, s)
	assert.ErrorIs(t, err, ErrPluginGone)
}

func TestServeUnknownCommand(t *testing.T) {
	s := new(script)
	s.WriteString("z")

	_, err := serve(t, NewMemoryEditor(), s)
	var unknown *protocol.UnknownCommandError
	require.ErrorAs(t, err, &unknown)
	assert.Equal(t, []byte("z"), unknown.Code)
}

func TestLoopback(t *testing.T) {
	ed := NewMemoryEditor()
	ed.AddDocument(9, "", "")

	commands, data, done := NewResponder(ed, nil).Loopback()

	s := new(script)
	s.cmd(protocol.CmdDocumentCurrent).int(9)
	go func() {
		_, _ = commands.Write(s.Bytes())
	}()
	doc, err := protocol.ReadInt32(data)
	require.NoError(t, err)
	assert.Equal(t, int32(1), doc)

	_, err = commands.Write(protocol.CmdFinish.Code())
	require.NoError(t, err)
	require.NoError(t, <-done)

	_, err = protocol.ReadInt32(data)
	assert.ErrorIs(t, err, protocol.ErrConnectionClosed)
}

func TestLoopbackClosedWithoutFinish(t *testing.T) {
	commands, _, done := NewResponder(NewMemoryEditor(), nil).Loopback()
	require.NoError(t, commands.Close())
	assert.ErrorIs(t, <-done, ErrPluginGone)
}

func TestServeOversizedBlock(t *testing.T) {
	s := new(script)
	s.cmd(protocol.CmdTextAppend).int(1).block("far too long")

	r := NewResponder(NewMemoryEditor(), nil)
	r.SetLimits(protocol.Limits{MaxBlock: 4})
	err := r.Serve(&s.Buffer, new(bytes.Buffer))

	var sizeErr *protocol.BlockSizeError
	require.ErrorAs(t, err, &sizeErr)
	assert.Equal(t, int64(12), sizeErr.Size)
}
