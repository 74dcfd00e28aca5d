// Package parser builds the B-Minor AST from a token stream by recursive
// descent with precedence climbing for expressions (spec.md §4.2). A
// hand-written descent parser is one of the generator-free options
// spec.md §9 allows in place of an LALR table generator; what matters is
// that the grammar, precedence table, and dangling-else resolution match.
//
// Dangling-else is resolved implicitly: parseIf greedily consumes a
// trailing "else" right after parsing its "then" branch, so when an if is
// nested directly inside another if's then-branch, the inner call returns
// with its own else already attached before the outer call ever looks for
// one — the else binds to the nearest open if without any separate
// open/closed grammar split.
package parser

import (
	"fmt"

	"bminor/internal/ast"
	"bminor/internal/diag"
	"bminor/internal/token"
)

// ----------------------------
// ----- Type definitions -----
// ----------------------------

type parser struct {
	toks []token.Token
	pos  int
	bag  *diag.Bag
}

// ---------------------
// ----- functions -----
// ---------------------

// Parse builds a Program from toks, appending any syntax errors to bag.
// The returned Program may be partial if errors were encountered.
func Parse(toks []token.Token, bag *diag.Bag) *ast.Program {
	p := &parser{toks: toks, bag: bag}
	decls := make([]ast.Decl, 0, 16)
	for !p.at(token.EOF) {
		startPos := p.pos
		d := p.parseTopDecl()
		if d != nil {
			decls = append(decls, d)
		}
		if p.pos == startPos {
			// Guarantee forward progress on unrecoverable input.
			p.next()
		}
	}
	return &ast.Program{Decls: decls}
}

// ------------------------------
// ----- token-stream cursor -----
// ------------------------------

func (p *parser) cur() token.Token {
	if p.pos >= len(p.toks) {
		return p.toks[len(p.toks)-1]
	}
	return p.toks[p.pos]
}

func (p *parser) at(k token.Kind) bool { return p.cur().Kind == k }

func (p *parser) next() token.Token {
	t := p.cur()
	if p.pos < len(p.toks)-1 {
		p.pos++
	}
	return t
}

// expect consumes the current token if it matches k, else reports a parse
// error at the offending token and attempts to continue (spec.md §4.2).
func (p *parser) expect(k token.Kind) token.Token {
	if p.at(k) {
		return p.next()
	}
	t := p.cur()
	p.bag.Errorf(t.Line, "expected %s, got %s", k, describeToken(t))
	return t
}

func describeToken(t token.Token) string {
	if t.Kind == token.EOF {
		return "end of input"
	}
	return fmt.Sprintf("%q", t.Lexeme)
}

// synchronize skips tokens until a plausible statement/declaration
// boundary, used after a parse error to continue error recovery.
func (p *parser) synchronize() {
	for !p.at(token.EOF) {
		if p.at(token.SEMI) {
			p.next()
			return
		}
		switch p.cur().Kind {
		case token.RBRACE, token.IF, token.WHILE, token.DO, token.FOR, token.RETURN, token.PRINT:
			return
		}
		p.next()
	}
}

// ---------------------------
// ----- type expressions -----
// ---------------------------

func (p *parser) parseType() ast.Type {
	switch p.cur().Kind {
	case token.INT:
		p.next()
		return ast.Integer
	case token.FLOAT_KW:
		p.next()
		return ast.Float
	case token.BOOLEAN:
		p.next()
		return ast.Boolean
	case token.CHAR_KW:
		p.next()
		return ast.Char
	case token.STRING_KW:
		p.next()
		return ast.String
	case token.VOID:
		p.next()
		return ast.Void
	case token.ARRAY:
		p.next()
		p.expect(token.LBRACKET)
		var size ast.Expr
		if !p.at(token.RBRACKET) {
			size = p.parseExpr()
		}
		p.expect(token.RBRACKET)
		elem := p.parseType()
		return &ast.ArrayType{Elem: elem, Size: size}
	case token.AUTO:
		p.next()
		return ast.ErrType // auto: type left to later inference; unsupported, flagged as error downstream
	default:
		t := p.cur()
		p.bag.Errorf(t.Line, "expected a type, got %s", describeToken(t))
		return ast.ErrType
	}
}

// ----------------------------
// ----- top-level decls ------
// ----------------------------

func (p *parser) parseTopDecl() ast.Decl {
	return p.parseDecl(true)
}

// parseDecl parses "name : type ;", "name : type = init ;", or a function
// declaration/definition. allowFunc gates whether "function" is accepted
// here (only at Program scope — B-Minor has no nested functions).
func (p *parser) parseDecl(allowFunc bool) ast.Decl {
	line := p.cur().Line
	if !p.at(token.IDENT) {
		t := p.cur()
		p.bag.Errorf(t.Line, "expected declaration, got %s", describeToken(t))
		p.synchronize()
		return nil
	}
	name := p.next().Lexeme
	p.expect(token.COLON)

	if p.at(token.FUNCTION) {
		if !allowFunc {
			p.bag.Errorf(line, "nested function declarations are not supported")
		}
		p.next()
		ret := p.parseType()
		p.expect(token.LPAREN)
		params := p.parseParams()
		p.expect(token.RPAREN)
		fd := &ast.FuncDecl{LineNo: line, Name: name, Params: params, RetType: ret}
		if p.at(token.SEMI) {
			p.next() // prototype, no body
			return fd
		}
		p.expect(token.ASSIGN)
		fd.Body = p.parseBlock()
		return fd
	}

	typ := p.parseType()
	if arrType, ok := typ.(*ast.ArrayType); ok {
		var init *ast.ArrayLit
		if p.at(token.ASSIGN) {
			p.next()
			init = p.parseArrayLit()
		}
		p.expect(token.SEMI)
		return &ast.ArrayDecl{LineNo: line, Name: name, ArrType: arrType, Init: init}
	}
	var init ast.Expr
	if p.at(token.ASSIGN) {
		p.next()
		init = p.parseExpr()
	}
	p.expect(token.SEMI)
	return &ast.VarDecl{LineNo: line, Name: name, DeclaredType: typ, Init: init}
}

func (p *parser) parseParams() []*ast.Param {
	params := make([]*ast.Param, 0, 4)
	if p.at(token.RPAREN) {
		return params
	}
	for {
		line := p.cur().Line
		name := p.expect(token.IDENT).Lexeme
		p.expect(token.COLON)
		typ := p.parseType()
		params = append(params, &ast.Param{LineNo: line, Name: name, DeclaredType: typ})
		if p.at(token.COMMA) {
			p.next()
			continue
		}
		break
	}
	return params
}

func (p *parser) parseArrayLit() *ast.ArrayLit {
	line := p.cur().Line
	p.expect(token.LBRACE)
	elems := make([]ast.Expr, 0, 4)
	if !p.at(token.RBRACE) {
		for {
			if p.at(token.LBRACE) {
				elems = append(elems, p.parseArrayLit())
			} else {
				elems = append(elems, p.parseExpr())
			}
			if p.at(token.COMMA) {
				p.next()
				continue
			}
			break
		}
	}
	p.expect(token.RBRACE)
	return &ast.ArrayLit{ExprBase: ast.ExprBase{LineNo: line}, Elems: elems}
}

// --------------------------
// ----- statements ---------
// --------------------------

func (p *parser) parseBlock() *ast.BlockStmt {
	line := p.cur().Line
	p.expect(token.LBRACE)
	stmts := make([]ast.Stmt, 0, 8)
	for !p.at(token.RBRACE) && !p.at(token.EOF) {
		startPos := p.pos
		if s := p.parseStatement(); s != nil {
			stmts = append(stmts, s)
		}
		if p.pos == startPos {
			p.next()
		}
	}
	p.expect(token.RBRACE)
	return ast.NewBlockStmt(line, stmts)
}

func (p *parser) parseStatement() ast.Stmt {
	line := p.cur().Line
	switch p.cur().Kind {
	case token.LBRACE:
		return p.parseBlock()
	case token.IF:
		return p.parseIf()
	case token.WHILE:
		return p.parseWhile()
	case token.DO:
		return p.parseDoWhile()
	case token.FOR:
		return p.parseFor()
	case token.RETURN:
		p.next()
		var v ast.Expr
		if !p.at(token.SEMI) {
			v = p.parseExpr()
		}
		p.expect(token.SEMI)
		return ast.NewReturnStmt(line, v)
	case token.PRINT:
		p.next()
		args := []ast.Expr{p.parseExpr()}
		for p.at(token.COMMA) {
			p.next()
			args = append(args, p.parseExpr())
		}
		p.expect(token.SEMI)
		return ast.NewPrintStmt(line, args)
	case token.SEMI:
		p.next()
		return nil
	default:
		if p.at(token.IDENT) && p.peekIsDecl() {
			d := p.parseDecl(false)
			if d == nil {
				return nil
			}
			return ast.NewDeclStmt(line, d)
		}
		x := p.parseExpr()
		p.expect(token.SEMI)
		return ast.NewExprStmt(line, x)
	}
}

// peekIsDecl reports whether the parser is looking at "IDENT :", the only
// context a local declaration can start in; this disambiguates a bare
// identifier statement (e.g. a call or assignment) from a declaration
// without backtracking.
func (p *parser) peekIsDecl() bool {
	if p.pos+1 >= len(p.toks) {
		return false
	}
	return p.toks[p.pos+1].Kind == token.COLON
}

func (p *parser) parseIf() ast.Stmt {
	line := p.cur().Line
	p.next() // 'if'
	p.expect(token.LPAREN)
	cond := p.parseExpr()
	p.expect(token.RPAREN)
	then := p.parseStatement()
	var els ast.Stmt
	if p.at(token.ELSE) {
		p.next()
		els = p.parseStatement()
	}
	return ast.NewIfStmt(line, cond, then, els)
}

func (p *parser) parseWhile() ast.Stmt {
	line := p.cur().Line
	p.next() // 'while'
	p.expect(token.LPAREN)
	cond := p.parseExpr()
	p.expect(token.RPAREN)
	body := p.parseStatement()
	return ast.NewWhileStmt(line, cond, body)
}

func (p *parser) parseDoWhile() ast.Stmt {
	line := p.cur().Line
	p.next() // 'do'
	body := p.parseStatement()
	p.expect(token.WHILE)
	p.expect(token.LPAREN)
	cond := p.parseExpr()
	p.expect(token.RPAREN)
	p.expect(token.SEMI)
	return ast.NewDoWhileStmt(line, body, cond)
}

// parseFor implements the for-init quirk from spec.md §4.2: the header's
// first clause accepts a full variable declaration (without a trailing
// semicolon — parseDecl still consumes one, so a declaration init is
// parsed directly rather than through parseDecl) or an expression or
// nothing; the two semicolons are always mandatory.
func (p *parser) parseFor() ast.Stmt {
	line := p.cur().Line
	p.next() // 'for'
	p.expect(token.LPAREN)

	var init ast.Stmt
	if p.at(token.IDENT) && p.peekIsDecl() {
		dline := p.cur().Line
		name := p.next().Lexeme
		p.expect(token.COLON)
		typ := p.parseType()
		var iv ast.Expr
		if p.at(token.ASSIGN) {
			p.next()
			iv = p.parseExpr()
		}
		init = ast.NewDeclStmt(dline, &ast.VarDecl{LineNo: dline, Name: name, DeclaredType: typ, Init: iv})
	} else if !p.at(token.SEMI) {
		eline := p.cur().Line
		init = ast.NewExprStmt(eline, p.parseExpr())
	}
	p.expect(token.SEMI)

	var cond ast.Expr
	if !p.at(token.SEMI) {
		cond = p.parseExpr()
	}
	p.expect(token.SEMI)

	var update ast.Expr
	if !p.at(token.RPAREN) {
		update = p.parseExpr()
	}
	p.expect(token.RPAREN)

	body := p.parseStatement()
	return ast.NewForStmt(line, init, cond, update, body)
}

// --------------------------
// ----- expressions ---------
// --------------------------

func (p *parser) parseExpr() ast.Expr { return p.parseAssignment() }

// parseAssignment implements precedence level 1 ("="), right associative.
func (p *parser) parseAssignment() ast.Expr {
	left := p.parseLogicalOr()
	if p.at(token.ASSIGN) {
		line := p.next().Line
		right := p.parseAssignment()
		return ast.NewAssignment(line, left, right)
	}
	return left
}

// parseLogicalOr implements precedence level 2 ("||"), left associative.
func (p *parser) parseLogicalOr() ast.Expr {
	left := p.parseLogicalAnd()
	for p.at(token.OROR) {
		line := p.cur().Line
		op := p.next().Kind
		right := p.parseLogicalAnd()
		left = ast.NewBinOper(line, op, left, right)
	}
	return left
}

// parseLogicalAnd implements precedence level 3 ("&&"), left associative.
func (p *parser) parseLogicalAnd() ast.Expr {
	left := p.parseRelational()
	for p.at(token.ANDAND) {
		line := p.cur().Line
		op := p.next().Kind
		right := p.parseRelational()
		left = ast.NewBinOper(line, op, left, right)
	}
	return left
}

var relOps = map[token.Kind]bool{
	token.EQ: true, token.NE: true, token.LT: true, token.LE: true, token.GT: true, token.GE: true,
}

// parseRelational implements precedence level 4, left associative.
func (p *parser) parseRelational() ast.Expr {
	left := p.parseAdditive()
	for relOps[p.cur().Kind] {
		line := p.cur().Line
		op := p.next().Kind
		right := p.parseAdditive()
		left = ast.NewBinOper(line, op, left, right)
	}
	return left
}

// parseAdditive implements precedence level 5 ("+ -"), left associative.
func (p *parser) parseAdditive() ast.Expr {
	left := p.parseMultiplicative()
	for p.at(token.PLUS) || p.at(token.MINUS) {
		line := p.cur().Line
		op := p.next().Kind
		right := p.parseMultiplicative()
		left = ast.NewBinOper(line, op, left, right)
	}
	return left
}

// parseMultiplicative implements precedence level 6 ("* / %"), left
// associative.
func (p *parser) parseMultiplicative() ast.Expr {
	left := p.parseExponent()
	for p.at(token.STAR) || p.at(token.SLASH) || p.at(token.PERCENT) {
		line := p.cur().Line
		op := p.next().Kind
		right := p.parseExponent()
		left = ast.NewBinOper(line, op, left, right)
	}
	return left
}

// parseExponent implements precedence level 7 ("^"), right associative via
// recursing back into itself after the operator.
func (p *parser) parseExponent() ast.Expr {
	left := p.parseUnary()
	if p.at(token.CARET) {
		line := p.cur().Line
		op := p.next().Kind
		right := p.parseExponent()
		return ast.NewBinOper(line, op, left, right)
	}
	return left
}

// parseUnary implements precedence level 8: prefix "- ! ++x --x".
func (p *parser) parseUnary() ast.Expr {
	switch p.cur().Kind {
	case token.MINUS, token.NOT, token.PLUS:
		line := p.cur().Line
		op := p.next().Kind
		x := p.parseUnary()
		return ast.NewUnaryOper(line, op, x)
	case token.INC:
		line := p.next().Line
		x := p.parseUnary()
		return ast.NewIncDecExpr(line, ast.Inc, true, x)
	case token.DEC:
		line := p.next().Line
		x := p.parseUnary()
		return ast.NewIncDecExpr(line, ast.Dec, true, x)
	default:
		return p.parsePostfix()
	}
}

// parsePostfix implements precedence level 9: postfix "x++ x--", call, and
// subscript, left to right.
func (p *parser) parsePostfix() ast.Expr {
	x := p.parsePrimary()
	for {
		switch p.cur().Kind {
		case token.LBRACKET:
			p.next()
			idx := p.parseExpr()
			p.expect(token.RBRACKET)
			x = ast.NewArraySubscript(x.Line(), x, idx)
		case token.INC:
			line := p.next().Line
			x = ast.NewIncDecExpr(line, ast.Inc, false, x)
		case token.DEC:
			line := p.next().Line
			x = ast.NewIncDecExpr(line, ast.Dec, false, x)
		default:
			return x
		}
	}
}

func (p *parser) parsePrimary() ast.Expr {
	t := p.cur()
	switch t.Kind {
	case token.INTEGER:
		p.next()
		return ast.NewIntegerLit(t.Line, t.Value.(int64))
	case token.FLOAT:
		p.next()
		return ast.NewFloatLit(t.Line, t.Value.(float64))
	case token.TRUE:
		p.next()
		return ast.NewBoolLit(t.Line, true)
	case token.FALSE:
		p.next()
		return ast.NewBoolLit(t.Line, false)
	case token.CHAR:
		p.next()
		return ast.NewCharLit(t.Line, t.Value.(rune))
	case token.STRING:
		p.next()
		return ast.NewStringLit(t.Line, t.Value.(string))
	case token.IDENT:
		p.next()
		if p.at(token.LPAREN) {
			p.next()
			args := p.parseArgList()
			p.expect(token.RPAREN)
			return ast.NewFuncCall(t.Line, t.Lexeme, args)
		}
		return ast.NewVarLocation(t.Line, t.Lexeme)
	case token.LPAREN:
		p.next()
		e := p.parseExpr()
		p.expect(token.RPAREN)
		return e
	default:
		p.bag.Errorf(t.Line, "unexpected token %s in expression", describeToken(t))
		p.next()
		return ast.NewIntegerLit(t.Line, 0)
	}
}

func (p *parser) parseArgList() []ast.Expr {
	args := make([]ast.Expr, 0, 4)
	if p.at(token.RPAREN) {
		return args
	}
	for {
		args = append(args, p.parseExpr())
		if p.at(token.COMMA) {
			p.next()
			continue
		}
		break
	}
	return args
}
