package plugin

import (
	"fmt"

	"github.com/jmylchreest/edlink/internal/plugin/protocol"
)

// Context identifies the editor session a plugin is attached to.
type Context int32

// DocID identifies a document open in the editor.
type DocID int32

// SelectionRange is a selection in character offsets, End exclusive.
type SelectionRange struct {
	Start int32
	End   int32
}

// Empty reports whether nothing is selected.
func (r SelectionRange) Empty() bool {
	return r.End <= r.Start
}

// Len returns the number of selected characters.
func (r SelectionRange) Len() int32 {
	if r.Empty() {
		return 0
	}
	return r.End - r.Start
}

// State is the lifecycle stage of a Session.
type State int32

const (
	StateUnstarted State = iota
	StateHandshaking
	StateActive
	StateFinished
)

func (s State) String() string {
	switch s {
	case StateUnstarted:
		return "unstarted"
	case StateHandshaking:
		return "handshaking"
	case StateActive:
		return "active"
	case StateFinished:
		return "finished"
	default:
		return fmt.Sprintf("State(%d)", int32(s))
	}
}

// EOFPolicy decides what boolean replies report when the editor hangs up
// before answering.
type EOFPolicy = protocol.EOFPolicy

const (
	EOFAssumeTrue  = protocol.EOFAssumeTrue
	EOFAssumeFalse = protocol.EOFAssumeFalse
	EOFFail        = protocol.EOFFail
)

// Toggle is a per-document display or editing setting.
type Toggle = protocol.Command

const (
	ToggleAutoIndent  = protocol.CmdToggleAutoIndent
	ToggleStatusBar   = protocol.CmdToggleStatusBar
	ToggleWordWrap    = protocol.CmdToggleWordWrap
	ToggleReadOnly    = protocol.CmdToggleReadOnly
	ToggleSplitScreen = protocol.CmdToggleSplitScreen
)
