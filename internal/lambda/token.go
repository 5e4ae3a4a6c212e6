package lambda

import "fmt"

// tokenType identifies a lexical token.
type tokenType int

const (
	tokenEOF tokenType = iota
	tokenNumber
	tokenString
	tokenIdent
	tokenPlaceholder // $0, $1, ...
	tokenArrow       // =>
	tokenPlus
	tokenMinus
	tokenStar
	tokenSlash
	tokenPercent
	tokenLParen
	tokenRParen
	tokenLBracket
	tokenRBracket
	tokenLBrace
	tokenRBrace
	tokenComma
	tokenDot
	tokenColon
	tokenQuestion
	tokenCoalesce // ??
	tokenEq       // ==
	tokenNe       // !=
	tokenLt
	tokenLe
	tokenGt
	tokenGe
	tokenAnd // && or and
	tokenOr  // || or or
	tokenNot // ! or not
	tokenIn
	tokenLike
	tokenTrue
	tokenFalse
	tokenNull
)

// token is one lexical unit of lambda text.
type token struct {
	typ   tokenType
	value string
	pos   int
}

func (t token) String() string {
	if t.typ == tokenEOF {
		return "end of input"
	}
	return fmt.Sprintf("%q", t.value)
}

var keywords = map[string]tokenType{
	"and":   tokenAnd,
	"or":    tokenOr,
	"not":   tokenNot,
	"in":    tokenIn,
	"like":  tokenLike,
	"true":  tokenTrue,
	"false": tokenFalse,
	"null":  tokenNull,
}

// SyntaxError reports malformed lambda text.
type SyntaxError struct {
	Pos     int
	Message string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("lambda: %s at position %d", e.Message, e.Pos)
}

func syntaxErrorf(pos int, format string, args ...any) *SyntaxError {
	return &SyntaxError{Pos: pos, Message: fmt.Sprintf(format, args...)}
}
