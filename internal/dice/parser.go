package dice

// The grammar, in EBNF:
//
//	expression := term (('+'|'-') term)*
//	term       := dice | NUMBER
//	dice       := [NUMBER] 'd' (NUMBER|'%') modifier*
//	modifier   := ('kh'|'kl') [NUMBER] | ('dh'|'dl') [NUMBER] | '!' | 'r' NUMBER
//
// The parser walks an immutable token slice with an explicit cursor; a fresh
// parser value is built per Parse call, so concurrent calls never share state.

// parser holds the token slice and cursor for one Parse invocation.
type parser struct {
	tokens []Token
	pos    int
}

// Parse tokenizes and parses a notation string into an Expression.
//
// Postcondition: On success every group satisfies DiceGroup.Validate. On
// failure the error is a *NotationError (lexical or syntax kind); no partial
// Expression is returned.
func Parse(input string) (Expression, error) {
	tokens, err := Tokenize(input)
	if err != nil {
		return Expression{}, err
	}
	p := &parser{tokens: tokens}

	expr, err := p.expression()
	if err != nil {
		return Expression{}, err
	}
	if tok := p.peek(); tok.Kind != TokenEnd {
		return Expression{}, syntaxError("unexpected trailing token %q", tok.Kind.String())
	}
	return expr, nil
}

// MustParse parses notation and panics on error. Useful for fixed notations
// known valid at compile time.
func MustParse(notation string) Expression {
	expr, err := Parse(notation)
	if err != nil {
		panic("dice: MustParse(" + notation + "): " + err.Error())
	}
	return expr
}

func (p *parser) peek() Token {
	return p.tokens[p.pos]
}

func (p *parser) peekAt(offset int) Token {
	i := p.pos + offset
	if i >= len(p.tokens) {
		return p.tokens[len(p.tokens)-1]
	}
	return p.tokens[i]
}

func (p *parser) next() Token {
	tok := p.tokens[p.pos]
	if tok.Kind != TokenEnd {
		p.pos++
	}
	return tok
}

// expression parses term (('+'|'-') term)*. The sign of each '+'/'-' applies
// only to bare-number terms; a sign preceding a dice term is consumed but
// carries nothing into the AST (groups always add).
func (p *parser) expression() (Expression, error) {
	var expr Expression

	if err := p.term(&expr, 1); err != nil {
		return Expression{}, err
	}
	for {
		var sign int
		switch p.peek().Kind {
		case TokenPlus:
			sign = 1
		case TokenMinus:
			sign = -1
		default:
			return expr, nil
		}
		p.next()
		if err := p.term(&expr, sign); err != nil {
			return Expression{}, err
		}
	}
}

// term parses one dice group or one bare number, folding the latter (with
// sign) into the expression's modifier. A term is dice when the current
// token is 'd' or a NUMBER immediately followed by 'd'.
func (p *parser) term(expr *Expression, sign int) error {
	tok := p.peek()

	isDice := tok.Kind == TokenD ||
		(tok.Kind == TokenNumber && p.peekAt(1).Kind == TokenD)
	if isDice {
		group, err := p.dice()
		if err != nil {
			return err
		}
		expr.Groups = append(expr.Groups, group)
		return nil
	}

	if tok.Kind != TokenNumber {
		return syntaxError("expected dice notation or number, got %q", tok.Kind.String())
	}
	p.next()
	expr.Modifier += sign * tok.Value
	return nil
}

// dice parses [NUMBER] 'd' (NUMBER|'%') modifier*.
func (p *parser) dice() (DiceGroup, error) {
	count := 1
	if p.peek().Kind == TokenNumber {
		count = p.next().Value
	}

	if tok := p.next(); tok.Kind != TokenD {
		return DiceGroup{}, syntaxError("expected %q, got %q", "d", tok.Kind.String())
	}

	var sides int
	switch tok := p.next(); tok.Kind {
	case TokenNumber:
		sides = tok.Value
	case TokenPercent:
		sides = 100
	default:
		return DiceGroup{}, syntaxError("expected number of sides after %q, got %q", "d", tok.Kind.String())
	}

	group, err := NewDiceGroup(count, sides)
	if err != nil {
		return DiceGroup{}, err
	}

	// Repeated modifiers of the same kind are accepted; the last occurrence
	// wins. The grammar does not enforce uniqueness.
	for {
		switch p.peek().Kind {
		case TokenKeepHigh, TokenKeepLow:
			tok := p.next()
			mode := Highest
			if tok.Kind == TokenKeepLow {
				mode = Lowest
			}
			group.Keep = &KeepSpec{Mode: mode, Count: p.optionalCount()}
		case TokenDropHigh, TokenDropLow:
			tok := p.next()
			mode := Highest
			if tok.Kind == TokenDropLow {
				mode = Lowest
			}
			group.Drop = &DropSpec{Mode: mode, Count: p.optionalCount()}
		case TokenExplode:
			p.next()
			group.Exploding = true
		case TokenReroll:
			p.next()
			tok := p.peek()
			if tok.Kind != TokenNumber {
				return DiceGroup{}, syntaxError("expected number after reroll operator, got %q", tok.Kind.String())
			}
			p.next()
			target := tok.Value
			group.Reroll = &target
		default:
			if err := group.Validate(); err != nil {
				return DiceGroup{}, err
			}
			return group, nil
		}
	}
}

// optionalCount consumes a NUMBER if present, defaulting to 1.
func (p *parser) optionalCount() int {
	if p.peek().Kind == TokenNumber {
		return p.next().Value
	}
	return 1
}
