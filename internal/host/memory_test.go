package host

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmylchreest/edlink/internal/plugin/protocol"
)

func TestMemoryEditorOffsetsAreCharacters(t *testing.T) {
	ed := NewMemoryEditor()
	doc := ed.AddDocument(1, "", "naïve café")

	ed.Select(doc, 6, 10)
	assert.Equal(t, "café", string(ed.SelectionText(doc)))

	ed.InsertText(doc, 5, []byte("r"))
	snap, _ := ed.Document(doc)
	assert.Equal(t, "naïver café", snap.Text)
	assert.Equal(t, int32(6), snap.Cursor)
}

func TestMemoryEditorClamps(t *testing.T) {
	ed := NewMemoryEditor()
	doc := ed.AddDocument(1, "", "abc")

	ed.InsertText(doc, 99, []byte("!"))
	ed.InsertText(doc, -5, []byte(">"))
	snap, _ := ed.Document(doc)
	assert.Equal(t, ">abc!", snap.Text)

	ed.Select(doc, 4, 1)
	start, end := ed.SelectionRange(doc)
	assert.Equal(t, []int32{1, 4}, []int32{start, end})
}

func TestMemoryEditorUnknownDocument(t *testing.T) {
	ed := NewMemoryEditor()

	assert.Equal(t, NoDocument, ed.CurrentDocument(7))
	assert.Empty(t, ed.Filename(99))
	assert.Nil(t, ed.Text(99))
	assert.Nil(t, ed.SelectionText(99))
	assert.False(t, ed.CloseDocument(99))

	ed.AppendText(99, []byte("ignored"))
	_, ok := ed.Document(99)
	assert.False(t, ok)
}

func TestMemoryEditorOpenReusesDocument(t *testing.T) {
	ed := NewMemoryEditor()
	first := ed.OpenDocument(1, "/tmp/a")
	ed.NewDocument(1, "scratch")
	second := ed.OpenDocument(2, "/tmp/a")

	assert.Equal(t, first, second)
	assert.Equal(t, first, ed.CurrentDocument(2))
}

func TestMemoryEditorCloseClearsCurrent(t *testing.T) {
	ed := NewMemoryEditor()
	doc := ed.AddDocument(4, "/tmp/b", "")
	require.True(t, ed.CloseDocument(doc))
	assert.Equal(t, NoDocument, ed.CurrentDocument(4))
}

func TestMemoryEditorSnapshotIsCopy(t *testing.T) {
	ed := NewMemoryEditor()
	doc := ed.AddDocument(1, "", "")
	ed.SetToggle(doc, protocol.CmdToggleAutoIndent, true)
	ed.SetToggle(doc, protocol.CmdTextGet, true)

	snap, _ := ed.Document(doc)
	assert.Len(t, snap.Toggles, 1)
	snap.Toggles[protocol.CmdToggleStatusBar] = true

	again, _ := ed.Document(doc)
	assert.NotContains(t, again.Toggles, protocol.CmdToggleStatusBar)
}
