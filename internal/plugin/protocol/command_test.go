package protocol

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCommandCodes(t *testing.T) {
	want := map[Command]string{
		CmdDocumentCurrent:   "c",
		CmdDocumentFilename:  "f",
		CmdDocumentNew:       "n",
		CmdDocumentOpen:      "o",
		CmdDocumentClose:     "l",
		CmdTextAppend:        "a",
		CmdTextInsert:        "i",
		CmdTextGet:           "g",
		CmdDocumentShow:      "s",
		CmdFinish:            "d",
		CmdProgramQuit:       "q",
		CmdDocumentPosition:  "p",
		CmdSelectionText:     "et",
		CmdSelectionRange:    "er",
		CmdSelectionSetText:  "es",
		CmdToggleAutoIndent:  "ti",
		CmdToggleStatusBar:   "tb",
		CmdToggleWordWrap:    "tw",
		CmdToggleReadOnly:    "tr",
		CmdToggleSplitScreen: "tt",
		CmdRegister:          "r",
	}

	require.Len(t, Commands(), len(want), "every command needs an expected code")
	for _, cmd := range Commands() {
		assert.Equal(t, want[cmd], string(cmd.Code()), "code for %s", cmd)
	}
}

func TestReadCommandDecodesEveryCode(t *testing.T) {
	var buf bytes.Buffer
	for _, cmd := range Commands() {
		require.NoError(t, WriteCommand(&buf, cmd))
	}
	for _, cmd := range Commands() {
		got, err := ReadCommand(&buf)
		require.NoError(t, err)
		assert.Equal(t, cmd, got)
	}
}

func TestReadCommandUnknown(t *testing.T) {
	tests := []struct {
		name string
		in   []byte
		code string
	}{
		{"primary", []byte("z"), "z"},
		{"selection sub-code", []byte("ex"), "ex"},
		{"toggle sub-code", []byte("tz"), "tz"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadCommand(bytes.NewReader(tt.in))
			var unknown *UnknownCommandError
			require.ErrorAs(t, err, &unknown)
			assert.Equal(t, tt.code, string(unknown.Code))
		})
	}
}

func TestReadCommandTruncatedCompound(t *testing.T) {
	_, err := ReadCommand(bytes.NewReader([]byte("e")))
	assert.ErrorIs(t, err, ErrConnectionClosed)
}

func TestInvalidCommand(t *testing.T) {
	assert.False(t, CmdInvalid.Valid())
	assert.Nil(t, CmdInvalid.Code())
	assert.Error(t, WriteCommand(&bytes.Buffer{}, CmdInvalid))
	assert.Equal(t, "Command(0)", CmdInvalid.String())
}

func TestCodeIsACopy(t *testing.T) {
	code := CmdSelectionText.Code()
	code[0] = 'x'
	assert.Equal(t, "et", string(CmdSelectionText.Code()))
}

func TestReadRequest(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteInt32(&buf, 3))
	require.NoError(t, WriteInt32(&buf, 11))
	require.NoError(t, WriteBlock(&buf, []byte("inserted")))

	req, err := ReadRequest(&buf, CmdTextInsert, DefaultLimits())
	require.NoError(t, err)
	assert.Equal(t, CmdTextInsert, req.Command)
	assert.Equal(t, []int32{3, 11}, req.Ints)
	require.Len(t, req.Blocks, 1)
	assert.Equal(t, "inserted", string(req.Blocks[0]))
	assert.Zero(t, buf.Len())
}

func TestReadRequestTruncated(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteInt32(&buf, 3))
	_, err := ReadRequest(&buf, CmdDocumentNew, DefaultLimits())
	assert.ErrorIs(t, err, ErrConnectionClosed)
	assert.Contains(t, err.Error(), "document-new")
}

func TestToggleCommands(t *testing.T) {
	var toggles []Command
	for _, cmd := range Commands() {
		if cmd.IsToggle() {
			toggles = append(toggles, cmd)
			assert.Equal(t, byte('t'), cmd.Code()[0])
			assert.Equal(t, []Kind{KindInt, KindInt}, cmd.Spec().Request)
			assert.Empty(t, cmd.Spec().Reply)
		}
	}
	assert.Len(t, toggles, 5)
}
