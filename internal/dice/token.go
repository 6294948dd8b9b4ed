// Package dice implements the dice-notation interpreter: a tokenizer and
// recursive-descent parser for compact roll notation (e.g. "4d6dl1+2",
// "2d20kh1+5", "1d6!", "2d6r1") and an executor that evaluates the parsed
// expression against an injectable randomness source, producing a fully
// auditable roll result.
package dice

import (
	"strconv"
	"strings"
	"unicode"
)

// TokenKind identifies the lexical class of a Token.
type TokenKind int

const (
	TokenNumber TokenKind = iota
	TokenD
	TokenPlus
	TokenMinus
	TokenKeepHigh
	TokenKeepLow
	TokenDropHigh
	TokenDropLow
	TokenExplode
	TokenReroll
	TokenPercent
	TokenEnd
)

// String returns the notation-level name of the token kind.
func (k TokenKind) String() string {
	switch k {
	case TokenNumber:
		return "number"
	case TokenD:
		return "d"
	case TokenPlus:
		return "+"
	case TokenMinus:
		return "-"
	case TokenKeepHigh:
		return "kh"
	case TokenKeepLow:
		return "kl"
	case TokenDropHigh:
		return "dh"
	case TokenDropLow:
		return "dl"
	case TokenExplode:
		return "!"
	case TokenReroll:
		return "r"
	case TokenPercent:
		return "%"
	case TokenEnd:
		return "end of input"
	}
	return "unknown"
}

// Token is one lexical unit of a notation string.
type Token struct {
	Kind TokenKind
	// Value carries the parsed integer for TokenNumber; 0 otherwise.
	Value int
	// Pos is the zero-based offset in the normalized (lower-cased,
	// whitespace-stripped) input where the token begins.
	Pos int
}

// normalize lower-cases the input and strips all whitespace.
func normalize(input string) string {
	lowered := strings.ToLower(input)
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, lowered)
}

// Tokenize converts a raw notation string into a flat token sequence
// terminated by a TokenEnd. Scanning is a single left-to-right pass over
// the normalized input with no backtracking. Multi-character keywords
// ("kh", "kl", "dh", "dl") are matched before single-character dispatch
// so that a lone 'd' is never mis-consumed.
//
// Postcondition: On success the returned slice is non-empty and its last
// element has Kind TokenEnd. On failure the error is a *NotationError of
// KindLexical carrying the offending character and its position.
func Tokenize(input string) ([]Token, error) {
	s := normalize(input)
	tokens := make([]Token, 0, len(s)+1)

	i := 0
	for i < len(s) {
		c := s[i]

		if c >= '0' && c <= '9' {
			start := i
			for i < len(s) && s[i] >= '0' && s[i] <= '9' {
				i++
			}
			n, err := strconv.Atoi(s[start:i])
			if err != nil {
				return nil, &NotationError{
					Kind: KindLexical,
					Pos:  start,
					Msg:  "number " + s[start:i] + " at position " + strconv.Itoa(start) + " overflows",
				}
			}
			tokens = append(tokens, Token{Kind: TokenNumber, Value: n, Pos: start})
			continue
		}

		// Longer tokens first: kh/kl/dh/dl before the single-char set.
		if i+1 < len(s) {
			var kind TokenKind
			matched := true
			switch s[i : i+2] {
			case "kh":
				kind = TokenKeepHigh
			case "kl":
				kind = TokenKeepLow
			case "dh":
				kind = TokenDropHigh
			case "dl":
				kind = TokenDropLow
			default:
				matched = false
			}
			if matched {
				tokens = append(tokens, Token{Kind: kind, Pos: i})
				i += 2
				continue
			}
		}

		var kind TokenKind
		switch c {
		case 'd':
			kind = TokenD
		case '+':
			kind = TokenPlus
		case '-':
			kind = TokenMinus
		case '!':
			kind = TokenExplode
		case 'r':
			kind = TokenReroll
		case '%':
			kind = TokenPercent
		default:
			return nil, lexicalError(i, c)
		}
		tokens = append(tokens, Token{Kind: kind, Pos: i})
		i++
	}

	tokens = append(tokens, Token{Kind: TokenEnd, Pos: len(s)})
	return tokens, nil
}
