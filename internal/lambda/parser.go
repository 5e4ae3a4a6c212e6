// Package lambda parses textual lambdas such as
//
//	p => p.age > $0 && p.name != "root"
//
// into expression trees. Placeholders $0, $1, ... bind Go values as
// constants, so values never need to be spliced into the text.
//
// Grammar, lowest precedence first:
//
//	lambda      = params "=>" expr
//	params      = ident | "(" [ident {"," ident}] ")"
//	expr        = coalesce ["?" expr ":" expr]
//	coalesce    = or {"??" or}
//	or          = and {("||" | "or") and}
//	and         = equality {("&&" | "and") equality}
//	equality    = membership {("==" | "!=" | "like") membership}
//	membership  = relational {["not"] "in" relational}
//	relational  = additive {("<" | "<=" | ">" | ">=") additive}
//	additive    = term {("+" | "-") term}
//	term        = unary {("*" | "/" | "%") unary}
//	unary       = ("!" | "not" | "-") unary | postfix
//	postfix     = primary {"." name [args] | "[" expr "]"}
//	primary     = number | string | "true" | "false" | "null" | "$" digits
//	            | ident [args] | "(" expr ")" | "{" [field {"," field}] "}"
//	            | "[" [expr {"," expr}] "]"
//	args        = "(" [(lambda | expr) {"," (lambda | expr)}] ")"
//
// An identifier followed by arguments is a query language function call;
// a member followed by arguments is a query method such as Where or Count.
package lambda

import (
	"reflect"
	"strconv"

	"github.com/roach88/aqlgen/internal/model"
)

// Parse parses text as a lambda whose parameters have the given types.
// Missing types are treated as dynamic.
func Parse(text string, paramTypes []reflect.Type, args ...any) (*model.Lambda, error) {
	tokens, err := tokenize(text)
	if err != nil {
		return nil, err
	}
	p := &parser{tokens: tokens, args: args}
	l, err := p.parseLambda(paramTypes)
	if err != nil {
		return nil, err
	}
	if p.cur().typ != tokenEOF {
		return nil, syntaxErrorf(p.cur().pos, "unexpected %s after lambda body", p.cur())
	}
	return l, nil
}

// IsLambda reports whether text looks like a lambda rather than a literal.
func IsLambda(text string) bool {
	tokens, err := tokenize(text)
	if err != nil {
		return false
	}
	p := &parser{tokens: tokens}
	return p.atLambda()
}

type parser struct {
	tokens []token
	pos    int
	args   []any
	scopes []map[string]*model.Parameter
}

func (p *parser) cur() token { return p.tokens[p.pos] }

func (p *parser) peekAt(n int) token {
	if p.pos+n >= len(p.tokens) {
		return p.tokens[len(p.tokens)-1]
	}
	return p.tokens[p.pos+n]
}

func (p *parser) advance() token {
	tok := p.tokens[p.pos]
	if p.pos < len(p.tokens)-1 {
		p.pos++
	}
	return tok
}

func (p *parser) expect(typ tokenType, what string) (token, error) {
	if p.cur().typ != typ {
		return token{}, syntaxErrorf(p.cur().pos, "expected %s, found %s", what, p.cur())
	}
	return p.advance(), nil
}

// atLambda reports whether the tokens at the cursor start a lambda.
func (p *parser) atLambda() bool {
	if p.cur().typ == tokenIdent {
		return p.peekAt(1).typ == tokenArrow
	}
	if p.cur().typ != tokenLParen {
		return false
	}
	for i := 1; ; i++ {
		switch p.peekAt(i).typ {
		case tokenIdent, tokenComma:
			continue
		case tokenRParen:
			return p.peekAt(i+1).typ == tokenArrow
		}
		return false
	}
}

func (p *parser) lookup(name string) (*model.Parameter, bool) {
	for i := len(p.scopes) - 1; i >= 0; i-- {
		if param, ok := p.scopes[i][name]; ok {
			return param, true
		}
	}
	return nil, false
}

func (p *parser) parseLambda(types []reflect.Type) (*model.Lambda, error) {
	var names []token
	if p.cur().typ == tokenIdent {
		names = append(names, p.advance())
	} else {
		if _, err := p.expect(tokenLParen, "'(' or parameter name"); err != nil {
			return nil, err
		}
		for p.cur().typ != tokenRParen {
			name, err := p.expect(tokenIdent, "parameter name")
			if err != nil {
				return nil, err
			}
			names = append(names, name)
			if p.cur().typ == tokenComma {
				p.advance()
			}
		}
		p.advance()
	}
	if _, err := p.expect(tokenArrow, "'=>'"); err != nil {
		return nil, err
	}

	scope := make(map[string]*model.Parameter, len(names))
	params := make([]*model.Parameter, len(names))
	for i, name := range names {
		if _, dup := scope[name.value]; dup {
			return nil, syntaxErrorf(name.pos, "duplicate parameter %q", name.value)
		}
		var t reflect.Type
		if i < len(types) {
			t = types[i]
		}
		params[i] = model.Param(name.value, t)
		scope[name.value] = params[i]
	}

	p.scopes = append(p.scopes, scope)
	body, err := p.parseExpr()
	p.scopes = p.scopes[:len(p.scopes)-1]
	if err != nil {
		return nil, err
	}
	return &model.Lambda{Params: params, Body: body}, nil
}

func (p *parser) parseExpr() (model.Expr, error) {
	test, err := p.parseCoalesce()
	if err != nil {
		return nil, err
	}
	if p.cur().typ != tokenQuestion {
		return test, nil
	}
	p.advance()
	then, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(tokenColon, "':'"); err != nil {
		return nil, err
	}
	els, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	return &model.Conditional{Test: test, Then: then, Else: els}, nil
}

// binaryLevel parses one left-associative precedence level.
func (p *parser) binaryLevel(next func() (model.Expr, error), ops map[tokenType]model.BinaryOp) (model.Expr, error) {
	left, err := next()
	if err != nil {
		return nil, err
	}
	for {
		op, ok := ops[p.cur().typ]
		if !ok {
			return left, nil
		}
		p.advance()
		right, err := next()
		if err != nil {
			return nil, err
		}
		left = model.Bin(op, left, right)
	}
}

func (p *parser) parseCoalesce() (model.Expr, error) {
	return p.binaryLevel(p.parseOr, map[tokenType]model.BinaryOp{tokenCoalesce: model.OpCoalesce})
}

func (p *parser) parseOr() (model.Expr, error) {
	return p.binaryLevel(p.parseAnd, map[tokenType]model.BinaryOp{tokenOr: model.OpOr})
}

func (p *parser) parseAnd() (model.Expr, error) {
	return p.binaryLevel(p.parseEquality, map[tokenType]model.BinaryOp{tokenAnd: model.OpAnd})
}

func (p *parser) parseEquality() (model.Expr, error) {
	return p.binaryLevel(p.parseMembership, map[tokenType]model.BinaryOp{
		tokenEq:   model.OpEq,
		tokenNe:   model.OpNe,
		tokenLike: model.OpLike,
	})
}

func (p *parser) parseMembership() (model.Expr, error) {
	left, err := p.parseRelational()
	if err != nil {
		return nil, err
	}
	for {
		op := model.OpIn
		switch {
		case p.cur().typ == tokenIn:
			p.advance()
		case p.cur().typ == tokenNot && p.peekAt(1).typ == tokenIn:
			p.advance()
			p.advance()
			op = model.OpNotIn
		default:
			return left, nil
		}
		right, err := p.parseRelational()
		if err != nil {
			return nil, err
		}
		left = model.Bin(op, left, right)
	}
}

func (p *parser) parseRelational() (model.Expr, error) {
	return p.binaryLevel(p.parseAdditive, map[tokenType]model.BinaryOp{
		tokenLt: model.OpLt,
		tokenLe: model.OpLe,
		tokenGt: model.OpGt,
		tokenGe: model.OpGe,
	})
}

func (p *parser) parseAdditive() (model.Expr, error) {
	return p.binaryLevel(p.parseTerm, map[tokenType]model.BinaryOp{
		tokenPlus:  model.OpAdd,
		tokenMinus: model.OpSub,
	})
}

func (p *parser) parseTerm() (model.Expr, error) {
	return p.binaryLevel(p.parseUnary, map[tokenType]model.BinaryOp{
		tokenStar:    model.OpMul,
		tokenSlash:   model.OpDiv,
		tokenPercent: model.OpMod,
	})
}

func (p *parser) parseUnary() (model.Expr, error) {
	switch p.cur().typ {
	case tokenNot:
		p.advance()
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return model.Not(operand), nil
	case tokenMinus:
		p.advance()
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		if c, ok := operand.(*model.Constant); ok {
			switch v := c.Value.(type) {
			case int64:
				return model.Const(-v), nil
			case float64:
				return model.Const(-v), nil
			}
		}
		return &model.Unary{Op: model.OpNegate, Operand: operand}, nil
	}
	return p.parsePostfix()
}

func (p *parser) parsePostfix() (model.Expr, error) {
	e, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}
	for {
		switch p.cur().typ {
		case tokenDot:
			p.advance()
			name := p.advance()
			if !isWord(name.typ) {
				return nil, syntaxErrorf(name.pos, "expected member name, found %s", name)
			}
			if p.cur().typ == tokenLParen {
				args, err := p.parseArgs(elementType(e))
				if err != nil {
					return nil, err
				}
				e = &model.MethodCall{Method: name.value, Source: e, Args: args}
				continue
			}
			e = &model.Member{Target: e, Name: name.value}
		case tokenLBracket:
			p.advance()
			idx, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			if _, err := p.expect(tokenRBracket, "']'"); err != nil {
				return nil, err
			}
			e = &model.Index{Target: e, Index: idx}
		default:
			return e, nil
		}
	}
}

// parseArgs parses a parenthesized argument list. Lambda arguments are
// quoted and their first parameter gets itemType.
func (p *parser) parseArgs(itemType reflect.Type) ([]model.Expr, error) {
	if _, err := p.expect(tokenLParen, "'('"); err != nil {
		return nil, err
	}
	var args []model.Expr
	for p.cur().typ != tokenRParen {
		if len(args) > 0 {
			if _, err := p.expect(tokenComma, "','"); err != nil {
				return nil, err
			}
		}
		if p.atLambda() {
			l, err := p.parseLambda([]reflect.Type{itemType})
			if err != nil {
				return nil, err
			}
			args = append(args, &model.Quote{Operand: l})
			continue
		}
		arg, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		args = append(args, arg)
	}
	p.advance()
	return args, nil
}

func (p *parser) parsePrimary() (model.Expr, error) {
	tok := p.cur()
	switch tok.typ {
	case tokenNumber:
		p.advance()
		return parseNumber(tok)
	case tokenString:
		p.advance()
		return model.Const(tok.value), nil
	case tokenTrue:
		p.advance()
		return model.Const(true), nil
	case tokenFalse:
		p.advance()
		return model.Const(false), nil
	case tokenNull:
		p.advance()
		return model.Const(nil), nil
	case tokenPlaceholder:
		p.advance()
		n, _ := strconv.Atoi(tok.value)
		if n >= len(p.args) {
			return nil, syntaxErrorf(tok.pos, "placeholder $%d has no argument (%d given)", n, len(p.args))
		}
		return model.Const(p.args[n]), nil
	case tokenIdent:
		p.advance()
		if param, ok := p.lookup(tok.value); ok {
			return param, nil
		}
		if p.cur().typ == tokenLParen {
			args, err := p.parseArgs(nil)
			if err != nil {
				return nil, err
			}
			return &model.Call{Function: tok.value, Args: args}, nil
		}
		return nil, syntaxErrorf(tok.pos, "unknown identifier %q", tok.value)
	case tokenLParen:
		p.advance()
		e, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(tokenRParen, "')'"); err != nil {
			return nil, err
		}
		return e, nil
	case tokenLBrace:
		return p.parseObject()
	case tokenLBracket:
		p.advance()
		list := &model.List{}
		for p.cur().typ != tokenRBracket {
			if len(list.Items) > 0 {
				if _, err := p.expect(tokenComma, "','"); err != nil {
					return nil, err
				}
			}
			item, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			list.Items = append(list.Items, item)
		}
		p.advance()
		return list, nil
	}
	return nil, syntaxErrorf(tok.pos, "unexpected %s", tok)
}

func (p *parser) parseObject() (model.Expr, error) {
	p.advance()
	obj := &model.New{}
	for p.cur().typ != tokenRBrace {
		if len(obj.Fields) > 0 {
			if _, err := p.expect(tokenComma, "','"); err != nil {
				return nil, err
			}
		}
		key := p.advance()
		if !isWord(key.typ) && key.typ != tokenString {
			return nil, syntaxErrorf(key.pos, "expected field name, found %s", key)
		}
		if _, err := p.expect(tokenColon, "':'"); err != nil {
			return nil, err
		}
		value, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		obj.Fields = append(obj.Fields, model.Field{Name: key.value, Value: value})
	}
	p.advance()
	return obj, nil
}

func parseNumber(tok token) (model.Expr, error) {
	if n, err := strconv.ParseInt(tok.value, 10, 64); err == nil {
		return model.Const(n), nil
	}
	f, err := strconv.ParseFloat(tok.value, 64)
	if err != nil {
		return nil, syntaxErrorf(tok.pos, "invalid number %q", tok.value)
	}
	return model.Const(f), nil
}

func isWord(typ tokenType) bool {
	switch typ {
	case tokenIdent, tokenAnd, tokenOr, tokenNot, tokenIn, tokenLike, tokenTrue, tokenFalse, tokenNull:
		return true
	}
	return false
}

// passThrough lists query methods whose items have the same type as their
// source's items.
var passThrough = map[string]bool{
	"Where": true, "OrderBy": true, "OrderByDescending": true, "ThenBy": true,
	"ThenByDescending": true, "Take": true, "Skip": true, "Distinct": true,
	"Intersect": true, "Union": true, "Except": true,
}

// elementType returns the item type of a sequence expression when it can
// be inferred from parameter types.
func elementType(e model.Expr) reflect.Type {
	if call, ok := e.(*model.MethodCall); ok {
		if passThrough[call.Method] {
			return elementType(call.Source)
		}
		return nil
	}
	return model.ElementType(model.TypeOf(e, nil))
}
