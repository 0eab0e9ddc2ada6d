package protocol

import (
	"fmt"
	"io"
)

// Command is one entry of the plugin command vocabulary.
type Command uint8

// Commands, with their wire codes. Those without a reply are applied by
// the host asynchronously.
const (
	CmdInvalid           Command = iota // zero value, never sent
	CmdDocumentCurrent                  // c: current document of a context
	CmdDocumentFilename                 // f: filename of a document
	CmdDocumentNew                      // n: create an empty document
	CmdDocumentOpen                     // o: open a file
	CmdDocumentClose                    // l: close a document
	CmdTextAppend                       // a: append text
	CmdTextInsert                       // i: insert text at an offset
	CmdTextGet                          // g: whole text of a document
	CmdDocumentShow                     // s: bring a document to the front
	CmdFinish                           // d: plugin is done
	CmdProgramQuit                      // q: ask the editor to exit
	CmdDocumentPosition                 // p: cursor offset
	CmdSelectionText                    // et: selected text
	CmdSelectionRange                   // er: selection bounds
	CmdSelectionSetText                 // es: replace the selection
	CmdToggleAutoIndent                 // ti
	CmdToggleStatusBar                  // tb
	CmdToggleWordWrap                   // tw
	CmdToggleReadOnly                   // tr
	CmdToggleSplitScreen                // tt
	CmdRegister                         // r: advertise a menu entry

	numCommands
)

// Compound command prefixes.
const (
	prefixSelection byte = 'e'
	prefixToggle    byte = 't'
)

// Kind is the type of a single value in a request or reply.
type Kind uint8

const (
	KindInt Kind = iota + 1
	KindBlock
	KindBool
)

func (k Kind) String() string {
	switch k {
	case KindInt:
		return "int"
	case KindBlock:
		return "block"
	case KindBool:
		return "bool"
	default:
		return fmt.Sprintf("Kind(%d)", uint8(k))
	}
}

// Spec describes the wire shape of a command: its byte code, the values the
// client sends after the code, and the values the host sends back.
type Spec struct {
	Name    string
	Code    []byte
	Request []Kind
	Reply   []Kind
}

var specs = [numCommands]Spec{
	CmdDocumentCurrent:   {Name: "document-current", Code: []byte{'c'}, Request: []Kind{KindInt}, Reply: []Kind{KindInt}},
	CmdDocumentFilename:  {Name: "document-filename", Code: []byte{'f'}, Request: []Kind{KindInt}, Reply: []Kind{KindBlock}},
	CmdDocumentNew:       {Name: "document-new", Code: []byte{'n'}, Request: []Kind{KindInt, KindBlock}, Reply: []Kind{KindInt}},
	CmdDocumentOpen:      {Name: "document-open", Code: []byte{'o'}, Request: []Kind{KindInt, KindBlock}, Reply: []Kind{KindInt}},
	CmdDocumentClose:     {Name: "document-close", Code: []byte{'l'}, Request: []Kind{KindInt}, Reply: []Kind{KindBool}},
	CmdTextAppend:        {Name: "text-append", Code: []byte{'a'}, Request: []Kind{KindInt, KindBlock}},
	CmdTextInsert:        {Name: "text-insert", Code: []byte{'i'}, Request: []Kind{KindInt, KindInt, KindBlock}},
	CmdTextGet:           {Name: "text-get", Code: []byte{'g'}, Request: []Kind{KindInt}, Reply: []Kind{KindBlock}},
	CmdDocumentShow:      {Name: "document-show", Code: []byte{'s'}, Request: []Kind{KindInt}},
	CmdFinish:            {Name: "finish", Code: []byte{'d'}},
	CmdProgramQuit:       {Name: "program-quit", Code: []byte{'q'}, Reply: []Kind{KindBool}},
	CmdDocumentPosition:  {Name: "document-position", Code: []byte{'p'}, Request: []Kind{KindInt}, Reply: []Kind{KindInt}},
	CmdSelectionText:     {Name: "selection-text", Code: []byte{prefixSelection, 't'}, Request: []Kind{KindInt}, Reply: []Kind{KindBlock}},
	CmdSelectionRange:    {Name: "selection-range", Code: []byte{prefixSelection, 'r'}, Request: []Kind{KindInt}, Reply: []Kind{KindInt, KindInt}},
	CmdSelectionSetText:  {Name: "selection-set-text", Code: []byte{prefixSelection, 's'}, Request: []Kind{KindInt, KindBlock}},
	CmdToggleAutoIndent:  {Name: "toggle-auto-indent", Code: []byte{prefixToggle, 'i'}, Request: []Kind{KindInt, KindInt}},
	CmdToggleStatusBar:   {Name: "toggle-status-bar", Code: []byte{prefixToggle, 'b'}, Request: []Kind{KindInt, KindInt}},
	CmdToggleWordWrap:    {Name: "toggle-word-wrap", Code: []byte{prefixToggle, 'w'}, Request: []Kind{KindInt, KindInt}},
	CmdToggleReadOnly:    {Name: "toggle-read-only", Code: []byte{prefixToggle, 'r'}, Request: []Kind{KindInt, KindInt}},
	CmdToggleSplitScreen: {Name: "toggle-split-screen", Code: []byte{prefixToggle, 't'}, Request: []Kind{KindInt, KindInt}},
	CmdRegister:          {Name: "register", Code: []byte{'r'}, Request: []Kind{KindBlock, KindBlock}},
}

var (
	primaryCodes  = map[byte]Command{}
	compoundCodes = map[byte]map[byte]Command{}
)

func init() {
	for i := CmdInvalid + 1; i < numCommands; i++ {
		code := specs[i].Code
		switch len(code) {
		case 1:
			primaryCodes[code[0]] = i
		case 2:
			sub, ok := compoundCodes[code[0]]
			if !ok {
				sub = map[byte]Command{}
				compoundCodes[code[0]] = sub
			}
			sub[code[1]] = i
		default:
			panic(fmt.Sprintf("command %d has no code", i))
		}
	}
	for prefix := range compoundCodes {
		if _, clash := primaryCodes[prefix]; clash {
			panic(fmt.Sprintf("compound prefix %q is also a command", prefix))
		}
	}
}

// Commands returns every valid command in declaration order.
func Commands() []Command {
	out := make([]Command, 0, numCommands-1)
	for c := CmdInvalid + 1; c < numCommands; c++ {
		out = append(out, c)
	}
	return out
}

// Valid reports whether c is part of the vocabulary.
func (c Command) Valid() bool {
	return c > CmdInvalid && c < numCommands
}

// Spec returns the wire shape of c.
func (c Command) Spec() Spec {
	if !c.Valid() {
		return Spec{}
	}
	return specs[c]
}

// Code returns the bytes that identify c on the wire, or nil for an
// invalid command.
func (c Command) Code() []byte {
	if !c.Valid() {
		return nil
	}
	return append([]byte(nil), specs[c].Code...)
}

func (c Command) String() string {
	if !c.Valid() {
		return fmt.Sprintf("Command(%d)", uint8(c))
	}
	return specs[c].Name
}

// IsToggle reports whether c is one of the document property toggles.
func (c Command) IsToggle() bool {
	return c >= CmdToggleAutoIndent && c <= CmdToggleSplitScreen
}

// ReadCommand reads and decodes one command code, following compound
// prefixes into their sub-table.
func ReadCommand(r io.Reader) (Command, error) {
	first, err := ReadFull(r, 1)
	if err != nil {
		return CmdInvalid, err
	}
	if cmd, ok := primaryCodes[first[0]]; ok {
		return cmd, nil
	}
	sub, ok := compoundCodes[first[0]]
	if !ok {
		return CmdInvalid, &UnknownCommandError{Code: first}
	}
	second, err := ReadFull(r, 1)
	if err != nil {
		return CmdInvalid, err
	}
	if cmd, ok := sub[second[0]]; ok {
		return cmd, nil
	}
	return CmdInvalid, &UnknownCommandError{Code: []byte{first[0], second[0]}}
}

// Request holds the decoded arguments of a command, grouped by kind in the
// order they appeared on the wire.
type Request struct {
	Command Command
	Ints    []int32
	Blocks  [][]byte
}

// ReadRequest reads the arguments that follow cmd's code, as listed in its Spec.
func ReadRequest(r io.Reader, cmd Command, limits Limits) (Request, error) {
	req := Request{Command: cmd}
	for _, kind := range cmd.Spec().Request {
		switch kind {
		case KindInt:
			v, err := ReadInt32(r)
			if err != nil {
				return req, fmt.Errorf("%s: %w", cmd, err)
			}
			req.Ints = append(req.Ints, v)
		case KindBlock:
			b, err := ReadBlock(r, limits)
			if err != nil {
				return req, fmt.Errorf("%s: %w", cmd, err)
			}
			req.Blocks = append(req.Blocks, b)
		default:
			return req, fmt.Errorf("%s: unsupported request kind %s", cmd, kind)
		}
	}
	return req, nil
}
