package lambda

import (
	"strings"
)

// lexer splits lambda text into tokens.
type lexer struct {
	input string
	pos   int
}

// tokenize returns every token of input, ending with tokenEOF.
func tokenize(input string) ([]token, error) {
	l := &lexer{input: input}
	var out []token
	for {
		tok, err := l.next()
		if err != nil {
			return nil, err
		}
		out = append(out, tok)
		if tok.typ == tokenEOF {
			return out, nil
		}
	}
}

func (l *lexer) ch() byte {
	if l.pos >= len(l.input) {
		return 0
	}
	return l.input[l.pos]
}

func (l *lexer) peek() byte {
	if l.pos+1 >= len(l.input) {
		return 0
	}
	return l.input[l.pos+1]
}

func (l *lexer) next() (token, error) {
	for l.pos < len(l.input) && strings.IndexByte(" \t\r\n", l.ch()) >= 0 {
		l.pos++
	}
	start := l.pos
	c := l.ch()
	if c == 0 {
		return token{typ: tokenEOF, pos: start}, nil
	}

	switch {
	case isDigit(c):
		return l.readNumber(), nil
	case c == '"' || c == '\'':
		return l.readString()
	case isLetter(c):
		return l.readIdent(), nil
	case c == '$':
		l.pos++
		if !isDigit(l.ch()) {
			return token{}, syntaxErrorf(start, "expected digit after '$'")
		}
		for isDigit(l.ch()) {
			l.pos++
		}
		return token{typ: tokenPlaceholder, value: l.input[start+1 : l.pos], pos: start}, nil
	}

	two := func(typ tokenType) (token, error) {
		l.pos += 2
		return token{typ: typ, value: l.input[start:l.pos], pos: start}, nil
	}
	one := func(typ tokenType) (token, error) {
		l.pos++
		return token{typ: typ, value: l.input[start:l.pos], pos: start}, nil
	}

	switch c {
	case '=':
		switch l.peek() {
		case '>':
			return two(tokenArrow)
		case '=':
			return two(tokenEq)
		}
		return token{}, syntaxErrorf(start, "unexpected '=', did you mean '=='?")
	case '!':
		if l.peek() == '=' {
			return two(tokenNe)
		}
		return one(tokenNot)
	case '<':
		if l.peek() == '=' {
			return two(tokenLe)
		}
		return one(tokenLt)
	case '>':
		if l.peek() == '=' {
			return two(tokenGe)
		}
		return one(tokenGt)
	case '&':
		if l.peek() == '&' {
			return two(tokenAnd)
		}
	case '|':
		if l.peek() == '|' {
			return two(tokenOr)
		}
	case '?':
		if l.peek() == '?' {
			return two(tokenCoalesce)
		}
		return one(tokenQuestion)
	case '+':
		return one(tokenPlus)
	case '-':
		return one(tokenMinus)
	case '*':
		return one(tokenStar)
	case '/':
		return one(tokenSlash)
	case '%':
		return one(tokenPercent)
	case '(':
		return one(tokenLParen)
	case ')':
		return one(tokenRParen)
	case '[':
		return one(tokenLBracket)
	case ']':
		return one(tokenRBracket)
	case '{':
		return one(tokenLBrace)
	case '}':
		return one(tokenRBrace)
	case ',':
		return one(tokenComma)
	case '.':
		return one(tokenDot)
	case ':':
		return one(tokenColon)
	}
	return token{}, syntaxErrorf(start, "unexpected character %q", c)
}

func (l *lexer) readNumber() token {
	start := l.pos
	for isDigit(l.ch()) {
		l.pos++
	}
	if l.ch() == '.' && isDigit(l.peek()) {
		l.pos++
		for isDigit(l.ch()) {
			l.pos++
		}
	}
	if c := l.ch(); c == 'e' || c == 'E' {
		save := l.pos
		l.pos++
		if c := l.ch(); c == '+' || c == '-' {
			l.pos++
		}
		if !isDigit(l.ch()) {
			l.pos = save
		}
		for isDigit(l.ch()) {
			l.pos++
		}
	}
	return token{typ: tokenNumber, value: l.input[start:l.pos], pos: start}
}

func (l *lexer) readString() (token, error) {
	start := l.pos
	quote := l.ch()
	l.pos++
	var sb strings.Builder
	for {
		c := l.ch()
		switch {
		case c == 0:
			return token{}, syntaxErrorf(start, "unterminated string")
		case c == quote:
			l.pos++
			return token{typ: tokenString, value: sb.String(), pos: start}, nil
		case c == '\\':
			l.pos++
			switch e := l.ch(); e {
			case 'n':
				sb.WriteByte('\n')
			case 't':
				sb.WriteByte('\t')
			case 'r':
				sb.WriteByte('\r')
			case 0:
				return token{}, syntaxErrorf(start, "unterminated string")
			default:
				sb.WriteByte(e)
			}
			l.pos++
		default:
			sb.WriteByte(c)
			l.pos++
		}
	}
}

func (l *lexer) readIdent() token {
	start := l.pos
	for isLetter(l.ch()) || isDigit(l.ch()) {
		l.pos++
	}
	word := l.input[start:l.pos]
	if typ, ok := keywords[word]; ok {
		return token{typ: typ, value: word, pos: start}
	}
	return token{typ: tokenIdent, value: word, pos: start}
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

func isLetter(c byte) bool {
	return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c == '_' || c >= 0x80
}
