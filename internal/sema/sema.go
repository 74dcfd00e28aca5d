// Package sema implements the semantic analyzer: scope construction, name
// resolution, type inference/checking, and mutability annotation
// (spec.md §4.3). Every expression node ends up with a non-error Type once
// Analyze returns with no diagnostics (spec.md §8 Invariant 5), and every
// VarLocation/FuncCall carries a resolved declaration reachable from its
// scope (Invariant 4).
//
// Dispatch is a type switch over the closed ast node family, the same
// "tagged-union pattern matching" style the parser and IR generator use
// (spec.md §4.5/§9); the *symtab.Scope currently in effect is threaded
// explicitly through every recursive call instead of living on a stack or
// in package state.
package sema

import (
	"bminor/internal/ast"
	"bminor/internal/builtins"
	"bminor/internal/diag"
	"bminor/internal/symtab"
	"bminor/internal/token"
)

// ---------------------
// ----- functions -----
// ---------------------

// Analyze builds the scope tree for prog, resolving names and annotating
// every expression's Type and mutability, appending diagnostics to bag.
// It returns the global scope.
func Analyze(prog *ast.Program, bag *diag.Bag) *symtab.Scope {
	a := &analyzer{bag: bag}
	global := symtab.New("global", nil)
	for _, proto := range builtins.Prototypes() {
		_ = global.Declare(proto.Name, proto)
	}
	for _, d := range prog.Decls {
		a.decl(d, global)
	}
	return global
}

type analyzer struct {
	bag *diag.Bag
}

func (a *analyzer) errorf(line int, format string, args ...interface{}) {
	a.bag.Errorf(line, format, args...)
}

// ------------------------
// ----- declarations -----
// ------------------------

func (a *analyzer) decl(d ast.Decl, s *symtab.Scope) {
	switch dd := d.(type) {
	case *ast.VarDecl:
		a.varDecl(dd, s)
	case *ast.ArrayDecl:
		a.arrayDecl(dd, s)
	case *ast.FuncDecl:
		a.funcDecl(dd, s)
	case *ast.Param:
		a.param(dd, s)
	}
}

func (a *analyzer) varDecl(d *ast.VarDecl, s *symtab.Scope) {
	if d.DeclaredType != nil && d.DeclaredType.Kind() == ast.KindVoid {
		a.errorf(d.LineNo, "variable %q cannot have type void", d.Name)
	}
	if d.Init != nil {
		a.expr(d.Init, s)
		if !ast.IsError(d.Init.Type()) && !ast.Equal(d.DeclaredType, d.Init.Type()) {
			a.errorf(d.LineNo, "cannot initialize %q of type %s with value of type %s",
				d.Name, d.DeclaredType, d.Init.Type())
		}
		if s.Parent == nil && !isConstExpr(d.Init) {
			a.errorf(d.LineNo, "global initializer for %q must be a constant expression", d.Name)
		}
	}
	if err := s.Declare(d.Name, d); err != nil {
		a.errorf(d.LineNo, "variable %q: %s", d.Name, err)
	}
}

func (a *analyzer) arrayDecl(d *ast.ArrayDecl, s *symtab.Scope) {
	if containsVoid(d.ArrType) {
		a.errorf(d.LineNo, "array %q cannot contain elements of type void", d.Name)
	}
	a.checkArraySizes(d.ArrType, s, d.LineNo)
	if d.Init != nil {
		a.arrayLit(d.Init, d.ArrType, s, d.LineNo)
		if s.Parent == nil && !isConstExpr(d.Init) {
			a.errorf(d.LineNo, "global initializer for %q must be a constant expression", d.Name)
		}
	}
	if err := s.Declare(d.Name, d); err != nil {
		a.errorf(d.LineNo, "array %q: %s", d.Name, err)
	}
}

// checkArraySizes recursively verifies every nesting level's size
// expression is of type integer (spec.md's "Nested arrays" rule).
func (a *analyzer) checkArraySizes(t *ast.ArrayType, s *symtab.Scope, line int) {
	if t.Size != nil {
		a.expr(t.Size, s)
		if !ast.IsError(t.Size.Type()) && !ast.Equal(t.Size.Type(), ast.Integer) {
			a.errorf(line, "array size must be of type integer, got %s", t.Size.Type())
		}
	}
	if nested, ok := t.Elem.(*ast.ArrayType); ok {
		a.checkArraySizes(nested, s, line)
	}
}

// arrayLit type-checks a brace-list initializer against arrType, recursing
// into nested brace lists for multi-dimensional arrays.
func (a *analyzer) arrayLit(lit *ast.ArrayLit, arrType *ast.ArrayType, s *symtab.Scope, line int) {
	for _, el := range lit.Elems {
		if nestedArr, ok := arrType.Elem.(*ast.ArrayType); ok {
			if nestedLit, ok := el.(*ast.ArrayLit); ok {
				a.arrayLit(nestedLit, nestedArr, s, line)
				continue
			}
		}
		a.expr(el, s)
		if !ast.IsError(el.Type()) && !ast.Equal(el.Type(), arrType.Elem) {
			a.errorf(line, "array initializer element has type %s, expected %s", el.Type(), arrType.Elem)
		}
	}
}

func containsVoid(t ast.Type) bool {
	switch tt := t.(type) {
	case *ast.ArrayType:
		return containsVoid(tt.Elem)
	default:
		return t.Kind() == ast.KindVoid
	}
}

// isConstExpr reports whether e is a literal (or a negated/plus-signed
// numeric literal, or a brace list of such) suitable as a global
// initializer — spec.md §9's Open Question on non-literal global
// initializers, resolved here by rejecting anything else.
func isConstExpr(e ast.Expr) bool {
	switch ee := e.(type) {
	case *ast.IntegerLit, *ast.FloatLit, *ast.BoolLit, *ast.CharLit, *ast.StringLit:
		return true
	case *ast.UnaryOper:
		return (ee.Op == token.MINUS || ee.Op == token.PLUS) && isConstExpr(ee.X)
	case *ast.ArrayLit:
		for _, el := range ee.Elems {
			if !isConstExpr(el) {
				return false
			}
		}
		return true
	}
	return false
}

func (a *analyzer) param(p *ast.Param, s *symtab.Scope) {
	if arrType, ok := p.DeclaredType.(*ast.ArrayType); ok {
		a.checkArraySizes(arrType, s, p.LineNo)
	}
	if err := s.Declare(p.Name, p); err != nil {
		a.errorf(p.LineNo, "parameter %q: %s", p.Name, err)
	}
}

func (a *analyzer) funcDecl(d *ast.FuncDecl, s *symtab.Scope) {
	if err := s.Declare(d.Name, d); err != nil {
		a.errorf(d.LineNo, "function %q: %s", d.Name, err)
		return
	}
	fs := symtab.NewFuncScope(d.Name, s, d)
	for _, p := range d.Params {
		a.param(p, fs)
	}
	if d.Body != nil {
		a.blockIn(d.Body, fs)
	}
}

// ----------------------
// ----- statements -----
// ----------------------

func (a *analyzer) stmt(st ast.Stmt, s *symtab.Scope) {
	switch ss := st.(type) {
	case *ast.BlockStmt:
		a.block(ss, s)
	case *ast.IfStmt:
		a.expr(ss.Cond, s)
		a.requireBoolean(ss.Cond, "if condition")
		a.stmt(ss.Then, s)
		if ss.Else != nil {
			a.stmt(ss.Else, s)
		}
	case *ast.WhileStmt:
		a.expr(ss.Cond, s)
		a.requireBoolean(ss.Cond, "while condition")
		ls := symtab.NewLoopScope("while_loop", s)
		a.stmt(ss.Body, ls)
	case *ast.DoWhileStmt:
		ls := symtab.NewLoopScope("do_loop", s)
		a.stmt(ss.Body, ls)
		a.expr(ss.Cond, s)
		a.requireBoolean(ss.Cond, "do-while condition")
	case *ast.ForStmt:
		fs := symtab.NewLoopScope("for_loop", s)
		if ss.Init != nil {
			a.stmt(ss.Init, fs)
		}
		if ss.Cond != nil {
			a.expr(ss.Cond, fs)
			a.requireBoolean(ss.Cond, "for condition")
		}
		if ss.Update != nil {
			a.expr(ss.Update, fs)
		}
		a.stmt(ss.Body, fs)
	case *ast.ReturnStmt:
		fn := s.EnclosingFunc()
		if fn == nil {
			a.errorf(ss.LineNo, "'return' used outside of a function")
			if ss.Value != nil {
				a.expr(ss.Value, s)
			}
			return
		}
		if fn.RetType.Kind() == ast.KindVoid {
			if ss.Value != nil {
				a.expr(ss.Value, s)
				a.errorf(ss.LineNo, "function %q returns void and cannot return a value", fn.Name)
			}
			return
		}
		if ss.Value == nil {
			a.errorf(ss.LineNo, "function %q must return a value of type %s", fn.Name, fn.RetType)
			return
		}
		a.expr(ss.Value, s)
		if !ast.IsError(ss.Value.Type()) && !ast.Equal(ss.Value.Type(), fn.RetType) {
			a.errorf(ss.LineNo, "function %q returns %s, got %s", fn.Name, fn.RetType, ss.Value.Type())
		}
	case *ast.PrintStmt:
		for _, arg := range ss.Args {
			a.expr(arg, s)
			t := arg.Type()
			if ast.IsError(t) {
				continue
			}
			if t.Kind() == ast.KindVoid || t.Kind() == ast.KindArray || t.Kind() == ast.KindFunction {
				a.errorf(ss.LineNo, "cannot print a value of type %s", t)
			}
		}
	case *ast.ExprStmt:
		a.expr(ss.X, s)
	case *ast.DeclStmt:
		a.decl(ss.D, s)
	}
}

func (a *analyzer) requireBoolean(e ast.Expr, what string) {
	if !ast.IsError(e.Type()) && !ast.Equal(e.Type(), ast.Boolean) {
		a.errorf(e.Line(), "%s must be of type boolean, got %s", what, e.Type())
	}
}

func (a *analyzer) block(b *ast.BlockStmt, s *symtab.Scope) {
	a.blockIn(b, symtab.New("block", s))
}

// blockIn visits b's statements directly in scope bs, used for function
// bodies where the caller has already created the (named, $func-bound)
// scope bs and a redundant nested "block" scope is not wanted.
func (a *analyzer) blockIn(b *ast.BlockStmt, bs *symtab.Scope) {
	for _, st := range b.Stmts {
		a.stmt(st, bs)
	}
}

// -----------------------
// ----- expressions -----
// -----------------------

func (a *analyzer) expr(e ast.Expr, s *symtab.Scope) {
	switch ee := e.(type) {
	case *ast.Assignment:
		a.assignment(ee, s)
	case *ast.BinOper:
		a.binOper(ee, s)
	case *ast.UnaryOper:
		a.unaryOper(ee, s)
	case *ast.IncDecExpr:
		a.incDec(ee, s)
	case *ast.IntegerLit:
		ee.SetType(ast.Integer)
	case *ast.FloatLit:
		ee.SetType(ast.Float)
	case *ast.BoolLit:
		ee.SetType(ast.Boolean)
	case *ast.CharLit:
		ee.SetType(ast.Char)
	case *ast.StringLit:
		ee.SetType(ast.String)
	case *ast.ArrayLit:
		// A bare ArrayLit is only meaningful as a declaration initializer,
		// which arrayDecl type-checks directly against the declared
		// element type; reached standalone only on malformed input.
		ee.SetType(ast.ErrType)
	case *ast.VarLocation:
		a.varLocation(ee, s)
	case *ast.ArraySubscript:
		a.arraySubscript(ee, s)
	case *ast.FuncCall:
		a.funcCall(ee, s)
	}
}

func (a *analyzer) assignment(e *ast.Assignment, s *symtab.Scope) {
	a.expr(e.Target, s)
	a.expr(e.Value, s)
	if !e.Target.Mutable() {
		a.errorf(e.LineNo, "left-hand side of assignment is not an assignable location")
		e.SetType(ast.ErrType)
		return
	}
	if ast.IsError(e.Target.Type()) || ast.IsError(e.Value.Type()) {
		e.SetType(ast.ErrType)
		return
	}
	if !ast.Equal(e.Target.Type(), e.Value.Type()) {
		a.errorf(e.LineNo, "cannot assign %s to location of type %s", e.Value.Type(), e.Target.Type())
		e.SetType(ast.ErrType)
		return
	}
	e.SetType(e.Target.Type())
}

// arithOK, relOK and logicOK implement the three operator-class tables in
// spec.md §4.3.1.
func arithOK(op token.Kind, l, r ast.Type) (ast.Type, bool) {
	both := func(k ast.TypeKind) bool { return l.Kind() == k && r.Kind() == k }
	switch {
	case both(ast.KindInteger):
		return ast.Integer, true
	case both(ast.KindFloat):
		return ast.Float, true
	case op == token.PLUS && both(ast.KindString):
		return ast.String, true
	}
	return ast.ErrType, false
}

func relOK(op token.Kind, l, r ast.Type) (ast.Type, bool) {
	both := func(k ast.TypeKind) bool { return l.Kind() == k && r.Kind() == k }
	switch {
	case both(ast.KindInteger), both(ast.KindFloat), both(ast.KindChar):
		return ast.Boolean, true
	case (op == token.EQ || op == token.NE) && both(ast.KindBoolean):
		return ast.Boolean, true
	}
	return ast.ErrType, false
}

func logicOK(l, r ast.Type) (ast.Type, bool) {
	if l.Kind() == ast.KindBoolean && r.Kind() == ast.KindBoolean {
		return ast.Boolean, true
	}
	return ast.ErrType, false
}

func (a *analyzer) binOper(e *ast.BinOper, s *symtab.Scope) {
	a.expr(e.Left, s)
	a.expr(e.Right, s)
	lt, rt := e.Left.Type(), e.Right.Type()
	if ast.IsError(lt) || ast.IsError(rt) {
		e.SetType(ast.ErrType)
		return
	}
	var t ast.Type
	var ok bool
	switch e.Op {
	case token.PLUS, token.MINUS, token.STAR, token.SLASH, token.PERCENT, token.CARET:
		t, ok = arithOK(e.Op, lt, rt)
	case token.EQ, token.NE, token.LT, token.LE, token.GT, token.GE:
		t, ok = relOK(e.Op, lt, rt)
	case token.OROR, token.ANDAND:
		t, ok = logicOK(lt, rt)
	}
	if !ok {
		a.errorf(e.LineNo, "operator %s is not defined for operands of type %s and %s", e.Op, lt, rt)
		e.SetType(ast.ErrType)
		return
	}
	e.SetType(t)
}

func (a *analyzer) unaryOper(e *ast.UnaryOper, s *symtab.Scope) {
	a.expr(e.X, s)
	t := e.X.Type()
	if ast.IsError(t) {
		e.SetType(ast.ErrType)
		return
	}
	switch e.Op {
	case token.MINUS, token.PLUS:
		if t.Kind() == ast.KindInteger || t.Kind() == ast.KindFloat {
			e.SetType(t)
			return
		}
	case token.NOT:
		if t.Kind() == ast.KindBoolean {
			e.SetType(ast.Boolean)
			return
		}
	}
	a.errorf(e.LineNo, "operator %s is not defined for operand of type %s", e.Op, t)
	e.SetType(ast.ErrType)
}

func (a *analyzer) incDec(e *ast.IncDecExpr, s *symtab.Scope) {
	a.expr(e.X, s)
	t := e.X.Type()
	if ast.IsError(t) {
		e.SetType(ast.ErrType)
		return
	}
	if (t.Kind() != ast.KindInteger && t.Kind() != ast.KindFloat) || !e.X.Mutable() {
		a.errorf(e.LineNo, "'++'/'--' require a mutable integer or float operand")
		e.SetType(ast.ErrType)
		return
	}
	e.SetType(t)
}

func (a *analyzer) varLocation(e *ast.VarLocation, s *symtab.Scope) {
	d, ok := s.Lookup(e.Name)
	if !ok {
		a.errorf(e.LineNo, "undefined name %q", e.Name)
		e.SetType(ast.ErrType)
		return
	}
	e.Ref = d
	if fd, isFn := d.(*ast.FuncDecl); isFn {
		e.SetType(fd.Signature())
	} else {
		e.SetType(d.DeclType())
	}
	e.SetMutable(!d.Callable())
}

func (a *analyzer) arraySubscript(e *ast.ArraySubscript, s *symtab.Scope) {
	a.expr(e.Base, s)
	a.expr(e.Index, s)
	if !ast.IsError(e.Index.Type()) && !ast.Equal(e.Index.Type(), ast.Integer) {
		a.errorf(e.LineNo, "array index must be of type integer, got %s", e.Index.Type())
	}
	bt := e.Base.Type()
	if ast.IsError(bt) {
		e.SetType(ast.ErrType)
		return
	}
	arrType, ok := bt.(*ast.ArrayType)
	if !ok {
		a.errorf(e.LineNo, "cannot subscript a value of type %s", bt)
		e.SetType(ast.ErrType)
		return
	}
	e.SetType(arrType.Elem)
	e.SetMutable(true)
}

func (a *analyzer) funcCall(e *ast.FuncCall, s *symtab.Scope) {
	d, ok := s.Lookup(e.Name)
	if !ok {
		a.errorf(e.LineNo, "undefined name %q", e.Name)
		a.typecheckArgsLoose(e, s)
		e.SetType(ast.ErrType)
		return
	}
	fd, isFn := d.(*ast.FuncDecl)
	if !isFn {
		a.errorf(e.LineNo, "%q is not a function", e.Name)
		a.typecheckArgsLoose(e, s)
		e.SetType(ast.ErrType)
		return
	}
	e.Ref = fd

	if fd.Name == builtins.LengthName {
		a.typecheckArgsLoose(e, s)
		if len(e.Args) != 1 {
			a.errorf(e.LineNo, "length() requires exactly 1 argument, got %d", len(e.Args))
			e.SetType(ast.ErrType)
			return
		}
		at := e.Args[0].Type()
		if !ast.IsError(at) && at.Kind() != ast.KindArray && at.Kind() != ast.KindString {
			a.errorf(e.LineNo, "length() requires an array or string, got %s", at)
		}
		e.SetType(ast.Integer)
		return
	}

	if len(e.Args) != len(fd.Params) {
		a.errorf(e.LineNo, "%q expects %d argument(s), got %d", e.Name, len(fd.Params), len(e.Args))
		a.typecheckArgsLoose(e, s)
		e.SetType(ast.ErrType)
		return
	}
	for i, arg := range e.Args {
		a.expr(arg, s)
		pt := fd.Params[i].DeclaredType
		if !ast.IsError(arg.Type()) && !ast.Equal(arg.Type(), pt) {
			a.errorf(arg.Line(), "argument %d to %q has type %s, expected %s", i+1, e.Name, arg.Type(), pt)
		}
	}
	e.SetType(fd.RetType)
}

// typecheckArgsLoose still visits call arguments (so every expression gets
// a type per spec.md Invariant 5) when the call itself cannot be checked
// against a signature, e.g. an undefined or non-callable name.
func (a *analyzer) typecheckArgsLoose(e *ast.FuncCall, s *symtab.Scope) {
	for _, arg := range e.Args {
		a.expr(arg, s)
	}
}
