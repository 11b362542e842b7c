package frontend

import (
	"mipscc/internal/ast"
	"mipscc/internal/diag"
)

// Parser is a hand-written recursive-descent parser producing *ast.Node
// trees directly -- no separate parse-tree stage -- mirroring the
// teacher's fused parse-tree-is-the-AST idiom from src/frontend/tree.go,
// generalized to the richer node set of spec.md §3.3.
// Parser is a hand-written recursive-descent parser producing *ast.Node
// trees directly -- no separate parse-tree stage -- mirroring the
// teacher's fused parse-tree-is-the-AST idiom from src/frontend/tree.go,
// generalized to the richer node set of spec.md §3.3.
//
// The token stream is fully materialized up front (toks/idx) rather than
// pulled lazily from the Lexer, so the cast-expression lookahead in
// parseUnary can snapshot and restore idx to backtrack cleanly -- a
// streaming two-token lookahead can't rewind once the Lexer has already
// consumed the bytes behind it.
type Parser struct {
	toks []token
	idx  int
	tok  token
	next token
	bag  *diag.Bag

	scope *ast.Scope
}

// Parse lexes and parses src into the root Scope node of spec.md §3.3,
// reporting diagnostics into bag.
func Parse(src string, bag *diag.Bag) *ast.Node {
	lex := NewLexer(src, bag)
	var toks []token
	for {
		t := lex.Next()
		toks = append(toks, t)
		if t.kind == tEOF {
			break
		}
	}

	p := &Parser{toks: toks, bag: bag}
	p.scope = ast.NewScope(ast.ScopeGlobal, nil)
	p.tok = p.toks[0]
	if len(p.toks) > 1 {
		p.next = p.toks[1]
	} else {
		p.next = p.toks[0]
	}

	root := ast.NewNode(ast.NScope, diag.Position{Line: 1, Col: 1}, nil)
	root.Table = p.scope
	for p.tok.kind != tEOF {
		if decl := p.parseExternalDecl(); decl != nil {
			root.Children = append(root.Children, decl)
		}
	}
	return root
}

func (p *Parser) advance() {
	if p.idx < len(p.toks)-1 {
		p.idx++
	}
	p.tok = p.toks[p.idx]
	if p.idx+1 < len(p.toks) {
		p.next = p.toks[p.idx+1]
	} else {
		p.next = p.toks[p.idx]
	}
}

// mark/reset implement the backtracking cast-expression lookahead.
func (p *Parser) mark() int { return p.idx }
func (p *Parser) reset(m int) {
	p.idx = m
	p.tok = p.toks[p.idx]
	if p.idx+1 < len(p.toks) {
		p.next = p.toks[p.idx+1]
	} else {
		p.next = p.toks[p.idx]
	}
}

func (p *Parser) expect(k tokenKind, what string) token {
	if p.tok.kind != k {
		p.bag.Addf(diag.CompilationError, p.tok.pos, "expected %s, got %q", what, p.tok.text)
	}
	t := p.tok
	p.advance()
	return t
}

func (p *Parser) parseExternalDecl() *ast.Node {
	if p.tok.kind == tKwInclude {
		pos := p.tok.pos
		p.advance()
		n := ast.NewNode(ast.NIncludeStdio, pos, nil)
		n.Table = p.scope
		return n
	}

	isConst := false
	if p.tok.kind == tKwConst {
		isConst = true
		p.advance()
	}
	base, ok := p.parseBaseType()
	if !ok {
		p.bag.Addf(diag.CompilationError, p.tok.pos, "expected a type at top level, got %q", p.tok.text)
		p.advance()
		return nil
	}
	base.IsConst = isConst
	ty := p.parsePointerStars(base)

	nameTok := p.expect(tIdent, "an identifier")

	if p.tok.kind == tLParen {
		return p.parseFunctionRest(nameTok, ty)
	}
	return p.parseVariableDeclRest(nameTok, ty)
}

func (p *Parser) parseBaseType() (*ast.Type, bool) {
	switch p.tok.kind {
	case tKwVoid:
		p.advance()
		return ast.Void(), true
	case tKwChar:
		p.advance()
		return ast.BaseType(ast.Char), true
	case tKwShort:
		p.advance()
		return ast.BaseType(ast.Short), true
	case tKwInt:
		p.advance()
		return ast.BaseType(ast.Int), true
	case tKwLong:
		p.advance()
		return ast.BaseType(ast.Long), true
	case tKwFloat:
		p.advance()
		return ast.BaseType(ast.Float), true
	case tKwDouble:
		p.advance()
		return ast.BaseType(ast.Double), true
	default:
		return nil, false
	}
}

func (p *Parser) parsePointerStars(base *ast.Type) *ast.Type {
	ty := base
	for p.tok.kind == tStar {
		p.advance()
		ty = ast.PointerTo(ty)
	}
	return ty
}

func (p *Parser) parseFunctionRest(nameTok token, retType *ast.Type) *ast.Node {
	p.advance() // '('
	var paramTypes []*ast.Type
	var paramNames []string
	variadic := false

	if p.tok.kind == tKwVoid && p.next.kind == tRParen {
		p.advance()
	} else {
		for p.tok.kind != tRParen && p.tok.kind != tEOF {
			pbase, ok := p.parseBaseType()
			if !ok {
				break
			}
			pty := p.parsePointerStars(pbase)
			pname := ""
			if p.tok.kind == tIdent {
				pname = p.tok.text
				p.advance()
			}
			if p.tok.kind == tLBracket {
				p.advance()
				p.expect(tRBracket, "]")
				pty = ast.PointerTo(pty)
			}
			paramTypes = append(paramTypes, pty)
			paramNames = append(paramNames, pname)
			if p.tok.kind == tComma {
				p.advance()
				continue
			}
			break
		}
	}
	p.expect(tRParen, ")")

	fnType := ast.FunctionType(retType, paramTypes, variadic)
	data := &ast.FunctionData{Name: nameTok.text, Params: paramNames}

	if p.tok.kind == tSemi {
		p.advance()
		n := ast.NewNode(ast.NFunctionDeclaration, nameTok.pos, data)
		n.Table = p.scope
		n.Type = fnType
		return n
	}

	fnScope := p.scope
	bodyScope := ast.NewScope(ast.ScopeFunction, fnScope)
	p.scope = bodyScope
	body := p.parseBlock()
	p.scope = fnScope

	n := ast.NewNode(ast.NFunctionDefinition, nameTok.pos, data, body)
	n.Table = fnScope
	n.Type = fnType
	return n
}

func (p *Parser) parseVariableDeclRest(nameTok token, declType *ast.Type) *ast.Node {
	ty := declType
	if p.tok.kind == tLBracket {
		p.advance()
		var length *int
		if p.tok.kind == tIntLit {
			n := int(p.tok.ival)
			length = &n
			p.advance()
		}
		p.expect(tRBracket, "]")
		ty = ast.ArrayOf(declType, length)
	}

	var init *ast.Node
	if p.tok.kind == tAssign {
		p.advance()
		init = p.parseAssignment()
	}
	p.expect(tSemi, ";")

	n := ast.NewNode(ast.NVariableDecl, nameTok.pos, &ast.VariableDeclData{Name: nameTok.text, Init: init})
	n.Table = p.scope
	n.Type = ty
	return n
}

func (p *Parser) parseBlock() *ast.Node {
	pos := p.tok.pos
	p.expect(tLBrace, "{")
	n := ast.NewNode(ast.NScope, pos, nil)
	n.Table = p.scope
	for p.tok.kind != tRBrace && p.tok.kind != tEOF {
		if stmt := p.parseStatement(); stmt != nil {
			n.Children = append(n.Children, stmt)
		}
	}
	p.expect(tRBrace, "}")
	return n
}

func (p *Parser) parseStatement() *ast.Node {
	switch p.tok.kind {
	case tLBrace:
		outer := p.scope
		p.scope = ast.NewScope(ast.ScopePlain, outer)
		block := p.parseBlock()
		p.scope = outer
		return block
	case tKwIf:
		return p.parseIf()
	case tKwWhile:
		return p.parseWhile()
	case tKwDo:
		return p.parseDoWhile()
	case tKwFor:
		return p.parseFor()
	case tKwBreak:
		pos := p.tok.pos
		p.advance()
		p.expect(tSemi, ";")
		n := ast.NewNode(ast.NControl, pos, &ast.ControlData{Kind: ast.CtrlBreak})
		n.Table = p.scope
		return n
	case tKwContinue:
		pos := p.tok.pos
		p.advance()
		p.expect(tSemi, ";")
		n := ast.NewNode(ast.NControl, pos, &ast.ControlData{Kind: ast.CtrlContinue})
		n.Table = p.scope
		return n
	case tKwReturn:
		pos := p.tok.pos
		p.advance()
		var children []*ast.Node
		if p.tok.kind != tSemi {
			children = append(children, p.parseExpression())
		}
		p.expect(tSemi, ";")
		n := ast.NewNode(ast.NReturn, pos, nil, children...)
		n.Table = p.scope
		return n
	case tKwVoid, tKwChar, tKwShort, tKwInt, tKwLong, tKwFloat, tKwDouble, tKwConst:
		return p.parseLocalVariableDecl()
	case tSemi:
		p.advance()
		return nil
	default:
		expr := p.parseExpression()
		p.expect(tSemi, ";")
		return expr
	}
}

func (p *Parser) parseLocalVariableDecl() *ast.Node {
	isConst := false
	if p.tok.kind == tKwConst {
		isConst = true
		p.advance()
	}
	base, _ := p.parseBaseType()
	base.IsConst = isConst
	ty := p.parsePointerStars(base)
	nameTok := p.expect(tIdent, "an identifier")
	return p.parseVariableDeclRest(nameTok, ty)
}

func (p *Parser) parseIf() *ast.Node {
	pos := p.tok.pos
	p.advance()
	p.expect(tLParen, "(")
	cond := p.parseExpression()
	p.expect(tRParen, ")")
	then := p.parseStatement()
	var els *ast.Node
	if p.tok.kind == tKwElse {
		p.advance()
		els = p.parseStatement()
	}
	n := ast.NewNode(ast.NIf, pos, &ast.IfData{Cond: cond, Then: then, Else: els})
	n.Table = p.scope
	return n
}

func (p *Parser) parseWhile() *ast.Node {
	pos := p.tok.pos
	p.advance()
	p.expect(tLParen, "(")
	cond := p.parseExpression()
	p.expect(tRParen, ")")

	outer := p.scope
	p.scope = ast.NewScope(ast.ScopeLoop, outer)
	body := p.parseStatement()
	p.scope = outer

	n := ast.NewNode(ast.NLoop, pos, &ast.LoopData{Cond: cond, Body: body})
	n.Table = p.scope
	return n
}

func (p *Parser) parseDoWhile() *ast.Node {
	pos := p.tok.pos
	p.advance()

	outer := p.scope
	p.scope = ast.NewScope(ast.ScopeLoop, outer)
	body := p.parseStatement()
	p.scope = outer

	p.expect(tKwWhile, "while")
	p.expect(tLParen, "(")
	cond := p.parseExpression()
	p.expect(tRParen, ")")
	p.expect(tSemi, ";")

	n := ast.NewNode(ast.NLoop, pos, &ast.LoopData{Cond: cond, Body: body, DoWhile: true})
	n.Table = p.scope
	return n
}

func (p *Parser) parseFor() *ast.Node {
	pos := p.tok.pos
	p.advance()
	p.expect(tLParen, "(")

	outer := p.scope
	p.scope = ast.NewScope(ast.ScopeLoop, outer)

	var initNode *ast.Node
	if p.tok.kind != tSemi {
		switch p.tok.kind {
		case tKwChar, tKwShort, tKwInt, tKwLong, tKwFloat, tKwDouble, tKwConst:
			initNode = p.parseLocalVariableDecl()
		default:
			initNode = p.parseExpression()
			p.expect(tSemi, ";")
		}
	} else {
		p.advance()
	}

	var cond *ast.Node
	if p.tok.kind != tSemi {
		cond = p.parseExpression()
	}
	p.expect(tSemi, ";")

	var iter *ast.Node
	if p.tok.kind != tRParen {
		iter = p.parseExpression()
	}
	p.expect(tRParen, ")")

	body := p.parseStatement()
	p.scope = outer

	n := ast.NewNode(ast.NLoop, pos, &ast.LoopData{Init: initNode, Cond: cond, Iter: iter, Body: body})
	n.Table = p.scope
	return n
}

// Expression grammar, tightest to loosest binding: primary, postfix, unary,
// multiplicative, additive, shift, relational, equality, bitAnd, bitXor,
// bitOr, logicalAnd, logicalOr, assignment.

func (p *Parser) parseExpression() *ast.Node { return p.parseAssignment() }

func (p *Parser) parseAssignment() *ast.Node {
	lhs := p.parseLogicalOr()
	if p.tok.kind == tAssign {
		pos := p.tok.pos
		p.advance()
		rhs := p.parseAssignment()
		n := ast.NewNode(ast.NAssignment, pos, &ast.AssignmentData{LValue: lhs, RValue: rhs})
		n.Table = p.scope
		return n
	}
	return lhs
}

func (p *Parser) parseLogicalOr() *ast.Node {
	lhs := p.parseLogicalAnd()
	for p.tok.kind == tOrOr {
		pos := p.tok.pos
		p.advance()
		rhs := p.parseLogicalAnd()
		lhs = p.binary(ast.OpLogicalOr, lhs, rhs, pos)
	}
	return lhs
}

func (p *Parser) parseLogicalAnd() *ast.Node {
	lhs := p.parseBitOr()
	for p.tok.kind == tAndAnd {
		pos := p.tok.pos
		p.advance()
		rhs := p.parseBitOr()
		lhs = p.binary(ast.OpLogicalAnd, lhs, rhs, pos)
	}
	return lhs
}

func (p *Parser) parseBitOr() *ast.Node {
	lhs := p.parseBitXor()
	for p.tok.kind == tPipe {
		pos := p.tok.pos
		p.advance()
		lhs = p.binary(ast.OpBitOr, lhs, p.parseBitXor(), pos)
	}
	return lhs
}

func (p *Parser) parseBitXor() *ast.Node {
	lhs := p.parseBitAnd()
	for p.tok.kind == tCaret {
		pos := p.tok.pos
		p.advance()
		lhs = p.binary(ast.OpBitXor, lhs, p.parseBitAnd(), pos)
	}
	return lhs
}

func (p *Parser) parseBitAnd() *ast.Node {
	lhs := p.parseEquality()
	for p.tok.kind == tAmp {
		pos := p.tok.pos
		p.advance()
		lhs = p.binary(ast.OpBitAnd, lhs, p.parseEquality(), pos)
	}
	return lhs
}

func (p *Parser) parseEquality() *ast.Node {
	lhs := p.parseRelational()
	for p.tok.kind == tEq || p.tok.kind == tNe {
		op, pos := ast.OpEq, p.tok.pos
		if p.tok.kind == tNe {
			op = ast.OpNe
		}
		p.advance()
		lhs = p.binary(op, lhs, p.parseRelational(), pos)
	}
	return lhs
}

func (p *Parser) parseRelational() *ast.Node {
	lhs := p.parseShift()
	for {
		var op ast.BinaryOp
		switch p.tok.kind {
		case tLt:
			op = ast.OpLt
		case tLe:
			op = ast.OpLe
		case tGt:
			op = ast.OpGt
		case tGe:
			op = ast.OpGe
		default:
			return lhs
		}
		pos := p.tok.pos
		p.advance()
		lhs = p.binary(op, lhs, p.parseShift(), pos)
	}
}

func (p *Parser) parseShift() *ast.Node {
	lhs := p.parseAdditive()
	for p.tok.kind == tShl || p.tok.kind == tShr {
		op, pos := ast.OpShl, p.tok.pos
		if p.tok.kind == tShr {
			op = ast.OpShr
		}
		p.advance()
		lhs = p.binary(op, lhs, p.parseAdditive(), pos)
	}
	return lhs
}

func (p *Parser) parseAdditive() *ast.Node {
	lhs := p.parseMultiplicative()
	for p.tok.kind == tPlus || p.tok.kind == tMinus {
		op, pos := ast.OpAdd, p.tok.pos
		if p.tok.kind == tMinus {
			op = ast.OpSub
		}
		p.advance()
		lhs = p.binary(op, lhs, p.parseMultiplicative(), pos)
	}
	return lhs
}

func (p *Parser) parseMultiplicative() *ast.Node {
	lhs := p.parseUnary()
	for p.tok.kind == tStar || p.tok.kind == tSlash || p.tok.kind == tPercent {
		var op ast.BinaryOp
		switch p.tok.kind {
		case tStar:
			op = ast.OpMul
		case tSlash:
			op = ast.OpDiv
		default:
			op = ast.OpMod
		}
		pos := p.tok.pos
		p.advance()
		lhs = p.binary(op, lhs, p.parseUnary(), pos)
	}
	return lhs
}

func (p *Parser) binary(op ast.BinaryOp, lhs, rhs *ast.Node, pos diag.Position) *ast.Node {
	n := ast.NewNode(ast.NBinary, pos, &ast.BinaryData{Op: op, Lhs: lhs, Rhs: rhs})
	n.Table = p.scope
	return n
}

func (p *Parser) isTypeStart() bool {
	switch p.tok.kind {
	case tKwVoid, tKwChar, tKwShort, tKwInt, tKwLong, tKwFloat, tKwDouble, tKwConst:
		return true
	default:
		return false
	}
}

func (p *Parser) parseUnary() *ast.Node {
	pos := p.tok.pos
	switch p.tok.kind {
	case tAmp:
		p.advance()
		return p.prefix(ast.OpAddressOf, p.parseUnary(), pos)
	case tStar:
		p.advance()
		return p.prefix(ast.OpDeref, p.parseUnary(), pos)
	case tBang:
		p.advance()
		return p.prefix(ast.OpLogicalNot, p.parseUnary(), pos)
	case tPlus:
		p.advance()
		return p.prefix(ast.OpUnaryPlus, p.parseUnary(), pos)
	case tMinus:
		p.advance()
		return p.prefix(ast.OpUnaryNeg, p.parseUnary(), pos)
	case tLParen:
		if p.next.kind != tEOF {
			mark := p.mark()
			p.advance()
			if p.isTypeStart() {
				isConst := false
				if p.tok.kind == tKwConst {
					isConst = true
					p.advance()
				}
				base, ok := p.parseBaseType()
				if ok {
					base.IsConst = isConst
					target := p.parsePointerStars(base)
					if p.tok.kind == tRParen {
						p.advance()
						operand := p.parseUnary()
						n := ast.NewNode(ast.NCast, pos, &ast.CastData{Target: target, Operand: operand})
						n.Table = p.scope
						return n
					}
				}
			}
			p.reset(mark)
		}
	}
	return p.parsePostfix()
}

func (p *Parser) prefix(op ast.UnaryOp, operand *ast.Node, pos diag.Position) *ast.Node {
	n := ast.NewNode(ast.NPrefix, pos, &ast.PrefixData{Op: op, Operand: operand})
	n.Table = p.scope
	return n
}

func (p *Parser) parsePostfix() *ast.Node {
	n := p.parsePrimary()
	for {
		switch p.tok.kind {
		case tLBracket:
			pos := p.tok.pos
			p.advance()
			idx := p.parseExpression()
			p.expect(tRBracket, "]")
			sub := ast.NewNode(ast.NSubscript, pos, &ast.SubscriptData{Base: n, Index: idx})
			sub.Table = p.scope
			n = sub
		case tIncr, tDecr:
			pos := p.tok.pos
			op := ast.PostfixInc
			if p.tok.kind == tDecr {
				op = ast.PostfixDec
			}
			p.advance()
			post := ast.NewNode(ast.NPostfix, pos, &ast.PostfixData{Op: op, Var: n})
			post.Table = p.scope
			n = post
		default:
			return n
		}
	}
}

func (p *Parser) parsePrimary() *ast.Node {
	switch p.tok.kind {
	case tIntLit:
		n := ast.NewNode(ast.NLiteral, p.tok.pos, nil)
		n.Table = p.scope
		n.Type = ast.BaseType(ast.Int)
		n.Folded = &ast.Literal{Type: ast.BaseType(ast.Int), Int: p.tok.ival}
		p.advance()
		return n
	case tFloatLit:
		n := ast.NewNode(ast.NLiteral, p.tok.pos, nil)
		n.Table = p.scope
		n.Type = ast.BaseType(ast.Double)
		n.Folded = &ast.Literal{Type: ast.BaseType(ast.Double), Float: p.tok.fval}
		p.advance()
		return n
	case tStringLit:
		n := ast.NewNode(ast.NStringLiteral, p.tok.pos, p.tok.text)
		n.Table = p.scope
		n.Type = ast.PointerTo(ast.BaseType(ast.Char))
		p.advance()
		return n
	case tIdent:
		nameTok := p.tok
		p.advance()
		if p.tok.kind == tLParen {
			p.advance()
			var args []*ast.Node
			for p.tok.kind != tRParen && p.tok.kind != tEOF {
				args = append(args, p.parseAssignment())
				if p.tok.kind == tComma {
					p.advance()
					continue
				}
				break
			}
			p.expect(tRParen, ")")
			n := ast.NewNode(ast.NCall, nameTok.pos, &ast.CallData{Name: nameTok.text, Args: args})
			n.Table = p.scope
			return n
		}
		n := ast.NewNode(ast.NVariable, nameTok.pos, &ast.VariableData{Name: nameTok.text})
		n.Table = p.scope
		return n
	case tLParen:
		p.advance()
		n := p.parseExpression()
		p.expect(tRParen, ")")
		return n
	default:
		p.bag.Addf(diag.CompilationError, p.tok.pos, "unexpected token %q in expression", p.tok.text)
		p.advance()
		n := ast.NewNode(ast.NLiteral, p.tok.pos, nil)
		n.Table = p.scope
		n.Type = ast.BaseType(ast.Int)
		n.Folded = &ast.Literal{Type: ast.BaseType(ast.Int)}
		return n
	}
}
