package dice

import "fmt"

// ErrorKind classifies a NotationError for programmatic handling.
type ErrorKind int

const (
	// KindLexical marks an unrecognized character found while tokenizing.
	KindLexical ErrorKind = iota
	// KindSyntax marks a structurally invalid token sequence.
	KindSyntax
)

// NotationError is the only error type produced by Tokenize and Parse.
// A notation string is either valid or rejected in full; there is no
// partial-success notion.
type NotationError struct {
	// Kind distinguishes lexical from syntax failures.
	Kind ErrorKind
	// Pos is the zero-based offset in the normalized input for lexical
	// errors; -1 when no position applies.
	Pos int
	// Msg is the human-readable description.
	Msg string
}

// Error implements the error interface.
func (e *NotationError) Error() string {
	return "dice: invalid notation: " + e.Msg
}

func lexicalError(pos int, ch byte) *NotationError {
	return &NotationError{
		Kind: KindLexical,
		Pos:  pos,
		Msg:  fmt.Sprintf("unexpected character %q at position %d", ch, pos),
	}
}

func syntaxError(format string, args ...any) *NotationError {
	return &NotationError{
		Kind: KindSyntax,
		Pos:  -1,
		Msg:  fmt.Sprintf(format, args...),
	}
}
