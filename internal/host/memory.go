package host

import (
	"maps"
	"sync"

	"github.com/jmylchreest/edlink/internal/plugin/protocol"
)

// NoDocument is returned where a document id is expected but none exists.
const NoDocument int32 = 0

// Document is a snapshot of one open buffer in a MemoryEditor. Offsets are
// in characters, not bytes.
type Document struct {
	ID       int32
	Title    string
	Filename string
	Text     string
	Cursor   int32
	SelStart int32
	SelEnd   int32
	Shown    bool
	Toggles  map[protocol.Command]bool
}

// Registration is a menu entry advertised by a plugin in query mode.
type Registration struct {
	MenuLocation string
	Accelerator  string
}

// MemoryEditor is an in-memory Backend. It is safe for concurrent use so
// tests can inspect it while a Responder is serving.
type MemoryEditor struct {
	// AllowQuit is what a quit request reports.
	AllowQuit bool

	mu            sync.Mutex
	nextID        int32
	docs          map[int32]*Document
	current       map[int32]int32
	files         map[string]string
	registrations []Registration
	quitRequested bool
}

// NewMemoryEditor creates an empty editor that allows quitting.
func NewMemoryEditor() *MemoryEditor {
	return &MemoryEditor{
		AllowQuit: true,
		docs:      make(map[int32]*Document),
		current:   make(map[int32]int32),
		files:     make(map[string]string),
	}
}

// SetFile makes path openable with the given contents.
func (m *MemoryEditor) SetFile(path, text string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.files[path] = text
}

// AddDocument creates a document and makes it current for context.
func (m *MemoryEditor) AddDocument(context int32, filename, text string) int32 {
	m.mu.Lock()
	defer m.mu.Unlock()
	doc := m.create(context, filename)
	doc.Filename = filename
	doc.Text = text
	return doc.ID
}

// Select sets the selection of doc, clamped to its text.
func (m *MemoryEditor) Select(doc, start, end int32) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if d, ok := m.docs[doc]; ok {
		n := runeLen(d.Text)
		d.SelStart, d.SelEnd = clamp(start, n), clamp(end, n)
		if d.SelEnd < d.SelStart {
			d.SelStart, d.SelEnd = d.SelEnd, d.SelStart
		}
		d.Cursor = d.SelEnd
	}
}

// SetCursor moves the cursor of doc.
func (m *MemoryEditor) SetCursor(doc, pos int32) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if d, ok := m.docs[doc]; ok {
		d.Cursor = clamp(pos, runeLen(d.Text))
	}
}

// Document returns a snapshot of doc.
func (m *MemoryEditor) Document(doc int32) (Document, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.docs[doc]
	if !ok {
		return Document{}, false
	}
	snap := *d
	snap.Toggles = maps.Clone(d.Toggles)
	return snap, true
}

// Registrations returns the menu entries advertised so far.
func (m *MemoryEditor) Registrations() []Registration {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Registration(nil), m.registrations...)
}

// QuitRequested reports whether any plugin asked the editor to quit.
func (m *MemoryEditor) QuitRequested() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.quitRequested
}

// create adds an empty document and makes it current. m.mu must be held.
func (m *MemoryEditor) create(context int32, title string) *Document {
	m.nextID++
	doc := &Document{
		ID:      m.nextID,
		Title:   title,
		Toggles: make(map[protocol.Command]bool),
	}
	m.docs[doc.ID] = doc
	m.current[context] = doc.ID
	return doc
}

// CurrentDocument returns the current document of context, or NoDocument.
func (m *MemoryEditor) CurrentDocument(context int32) int32 {
	m.mu.Lock()
	defer m.mu.Unlock()
	if id, ok := m.current[context]; ok {
		return id
	}
	return NoDocument
}

// Filename returns the file doc was opened from, empty if it has none.
func (m *MemoryEditor) Filename(doc int32) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if d, ok := m.docs[doc]; ok {
		return d.Filename
	}
	return ""
}

// NewDocument creates an empty document titled title.
func (m *MemoryEditor) NewDocument(context int32, title string) int32 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.create(context, title).ID
}

// OpenDocument opens path, or switches to it if it is already open. Paths
// not added with SetFile open empty.
func (m *MemoryEditor) OpenDocument(context int32, path string) int32 {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, d := range m.docs {
		if d.Filename == path {
			m.current[context] = id
			return id
		}
	}
	doc := m.create(context, path)
	doc.Filename = path
	doc.Text = m.files[path]
	return doc.ID
}

// CloseDocument removes doc and reports whether it existed.
func (m *MemoryEditor) CloseDocument(doc int32) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.docs[doc]; !ok {
		return false
	}
	delete(m.docs, doc)
	for ctx, id := range m.current {
		if id == doc {
			delete(m.current, ctx)
		}
	}
	return true
}

// AppendText adds text at the end of doc.
func (m *MemoryEditor) AppendText(doc int32, text []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if d, ok := m.docs[doc]; ok {
		d.Text += string(text)
	}
}

// InsertText inserts text at character offset pos, clamped to the text,
// and leaves the cursor after it.
func (m *MemoryEditor) InsertText(doc int32, pos int32, text []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if d, ok := m.docs[doc]; ok {
		d.Text, d.Cursor = splice(d.Text, pos, pos, string(text))
	}
}

// Text returns the contents of doc.
func (m *MemoryEditor) Text(doc int32) []byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	if d, ok := m.docs[doc]; ok {
		return []byte(d.Text)
	}
	return nil
}

// ShowDocument marks doc as shown.
func (m *MemoryEditor) ShowDocument(doc int32) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if d, ok := m.docs[doc]; ok {
		d.Shown = true
	}
}

// Quit records the request and reports AllowQuit.
func (m *MemoryEditor) Quit() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.quitRequested = true
	return m.AllowQuit
}

// Position returns the cursor offset of doc.
func (m *MemoryEditor) Position(doc int32) int32 {
	m.mu.Lock()
	defer m.mu.Unlock()
	if d, ok := m.docs[doc]; ok {
		return d.Cursor
	}
	return 0
}

// SelectionText returns the selected text of doc.
func (m *MemoryEditor) SelectionText(doc int32) []byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.docs[doc]
	if !ok {
		return nil
	}
	runes := []rune(d.Text)
	return []byte(string(runes[d.SelStart:d.SelEnd]))
}

// SelectionRange returns the selection bounds of doc in characters.
func (m *MemoryEditor) SelectionRange(doc int32) (int32, int32) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if d, ok := m.docs[doc]; ok {
		return d.SelStart, d.SelEnd
	}
	return 0, 0
}

// SetSelectionText replaces the selection of doc and collapses it to the
// end of the new text.
func (m *MemoryEditor) SetSelectionText(doc int32, text []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if d, ok := m.docs[doc]; ok {
		d.Text, d.Cursor = splice(d.Text, d.SelStart, d.SelEnd, string(text))
		d.SelStart, d.SelEnd = d.Cursor, d.Cursor
	}
}

// SetToggle records a toggle. Commands that are not toggles are ignored.
func (m *MemoryEditor) SetToggle(doc int32, toggle protocol.Command, on bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if d, ok := m.docs[doc]; ok && toggle.IsToggle() {
		d.Toggles[toggle] = on
	}
}

// Register records an advertised menu entry.
func (m *MemoryEditor) Register(menuLocation, accelerator string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.registrations = append(m.registrations, Registration{
		MenuLocation: menuLocation,
		Accelerator:  accelerator,
	})
}

// splice replaces the characters in [start, end) of text with insert and
// returns the new text and the offset just past the insertion.
func splice(text string, start, end int32, insert string) (string, int32) {
	runes := []rune(text)
	n := int32(len(runes))
	start, end = clamp(start, n), clamp(end, n)
	if end < start {
		end = start
	}
	out := string(runes[:start]) + insert + string(runes[end:])
	return out, start + runeLen(insert)
}

func runeLen(s string) int32 {
	return int32(len([]rune(s)))
}

func clamp(v, n int32) int32 {
	if v < 0 {
		return 0
	}
	if v > n {
		return n
	}
	return v
}
