// Package ast defines the closed set of B-Minor syntax tree node variants
// (spec.md §3) and the annotations the semantic analyzer attaches to them.
//
// Every node carries its source line. Node families mirror spec.md exactly:
// Program, the declaration family (VarDecl/ArrayDecl/FuncDecl/Param), the
// type family (SimpleType/ArrayType), the statement family, and the
// expression family. Type and mutability annotations live as fields on the
// expression nodes themselves (spec.md §3's "mutable fields on the AST
// variant" option), written once by the semantic analyzer and read by every
// later stage.
package ast

import (
	"fmt"
	"strings"

	"bminor/internal/token"
)

// ----------------------------
// ----- Type definitions -----
// ----------------------------

// Node is implemented by every syntax tree variant.
type Node interface {
	Line() int
}

// Program is the top-level node: an ordered sequence of declarations.
type Program struct {
	Decls []Decl
}

func (p *Program) Line() int {
	if len(p.Decls) == 0 {
		return 0
	}
	return p.Decls[0].Line()
}

// ---------------------------
// ----- Type expressions -----
// ---------------------------

// TypeKind names the closed set of B-Minor base types.
type TypeKind int

const (
	KindInteger TypeKind = iota
	KindFloat
	KindBoolean
	KindChar
	KindString
	KindVoid
	KindError // sentinel assigned to expressions that failed to type-check
	KindArray
	KindFunction // internal: the "type" of a resolved function symbol
)

// Type is implemented by SimpleType and ArrayType.
type Type interface {
	Kind() TypeKind
	String() string
	isType()
}

// SimpleType is one of integer, float, boolean, char, string, void, or the
// internal error sentinel.
type SimpleType struct {
	K TypeKind
}

func (t *SimpleType) Kind() TypeKind { return t.K }
func (t *SimpleType) isType()        {}
func (t *SimpleType) String() string {
	switch t.K {
	case KindInteger:
		return "integer"
	case KindFloat:
		return "float"
	case KindBoolean:
		return "boolean"
	case KindChar:
		return "char"
	case KindString:
		return "string"
	case KindVoid:
		return "void"
	default:
		return "<error>"
	}
}

// ArrayType is an optionally-sized array of Elem, which may itself be an
// ArrayType to express nested/multi-dimensional arrays.
type ArrayType struct {
	Elem Type
	Size Expr // optional; nil means an unsized array type (e.g. a parameter)
}

func (t *ArrayType) Kind() TypeKind { return KindArray }
func (t *ArrayType) isType()        {}
func (t *ArrayType) String() string {
	return fmt.Sprintf("array[] %s", t.Elem.String())
}

// FuncType captures a function's signature for use in the symbol table and
// by FuncCall type checking.
type FuncType struct {
	Params []Type
	Ret    Type
}

func (t *FuncType) Kind() TypeKind { return KindFunction }
func (t *FuncType) isType()        {}
func (t *FuncType) String() string {
	parts := make([]string, len(t.Params))
	for i, p := range t.Params {
		parts[i] = p.String()
	}
	return fmt.Sprintf("function %s(%s)", t.Ret.String(), strings.Join(parts, ", "))
}

// Predefined simple type singletons, shared so equality can use pointer or
// structural comparison interchangeably.
var (
	Integer = &SimpleType{K: KindInteger}
	Float   = &SimpleType{K: KindFloat}
	Boolean = &SimpleType{K: KindBoolean}
	Char    = &SimpleType{K: KindChar}
	String  = &SimpleType{K: KindString}
	Void    = &SimpleType{K: KindVoid}
	ErrType = &SimpleType{K: KindError}
)

// Equal reports whether two Types describe the same B-Minor type. The error
// sentinel is never equal to anything, including itself, so that a single
// failure does not cascade into spurious matches.
func Equal(a, b Type) bool {
	if a == nil || b == nil {
		return false
	}
	if a.Kind() == KindError || b.Kind() == KindError {
		return false
	}
	switch at := a.(type) {
	case *SimpleType:
		bt, ok := b.(*SimpleType)
		return ok && at.K == bt.K
	case *ArrayType:
		bt, ok := b.(*ArrayType)
		return ok && Equal(at.Elem, bt.Elem)
	case *FuncType:
		bt, ok := b.(*FuncType)
		if !ok || len(at.Params) != len(bt.Params) || !Equal(at.Ret, bt.Ret) {
			return false
		}
		for i := range at.Params {
			if !Equal(at.Params[i], bt.Params[i]) {
				return false
			}
		}
		return true
	}
	return false
}

// IsError reports whether t is the error sentinel.
func IsError(t Type) bool {
	return t != nil && t.Kind() == KindError
}

// ------------------------
// ----- Declarations -----
// ------------------------

// Decl is implemented by every top-level and parameter declaration node.
type Decl interface {
	Node
	declNode()
	DeclName() string
	// DeclType returns the declared type: the variable/array/parameter's
	// type, or a function's return type (spec.md's sym_type annotation).
	DeclType() Type
	// Callable reports whether a VarLocation naming this Decl is a
	// function reference (and therefore not a mutable location).
	Callable() bool
}

// VarDecl declares a scalar variable, optionally with an initializer.
type VarDecl struct {
	LineNo       int
	Name         string
	DeclaredType Type
	Init         Expr // optional
}

func (d *VarDecl) Line() int        { return d.LineNo }
func (d *VarDecl) declNode()        {}
func (d *VarDecl) DeclName() string { return d.Name }
func (d *VarDecl) DeclType() Type   { return d.DeclaredType }
func (d *VarDecl) Callable() bool   { return false }

// ArrayDecl declares a fixed-size (possibly multi-dimensional) array.
type ArrayDecl struct {
	LineNo  int
	Name    string
	ArrType *ArrayType
	Init    *ArrayLit // optional brace-list initializer
}

func (d *ArrayDecl) Line() int        { return d.LineNo }
func (d *ArrayDecl) declNode()        {}
func (d *ArrayDecl) DeclName() string { return d.Name }
func (d *ArrayDecl) DeclType() Type   { return d.ArrType }
func (d *ArrayDecl) Callable() bool   { return false }

// Param is a single function parameter.
type Param struct {
	LineNo       int
	Name         string
	DeclaredType Type
}

func (d *Param) Line() int        { return d.LineNo }
func (d *Param) declNode()        {}
func (d *Param) DeclName() string { return d.Name }
func (d *Param) DeclType() Type   { return d.DeclaredType }
func (d *Param) Callable() bool   { return false }

// FuncDecl declares a function. A nil Body denotes a prototype or built-in.
type FuncDecl struct {
	LineNo  int
	Name    string
	Params  []*Param
	RetType Type
	Body    *BlockStmt // optional
}

func (d *FuncDecl) Line() int        { return d.LineNo }
func (d *FuncDecl) declNode()        {}
func (d *FuncDecl) DeclName() string { return d.Name }
func (d *FuncDecl) DeclType() Type   { return d.RetType }
func (d *FuncDecl) Callable() bool   { return true }

// Signature returns the FuncType describing d, used for call-site checking.
func (d *FuncDecl) Signature() *FuncType {
	params := make([]Type, len(d.Params))
	for i, p := range d.Params {
		params[i] = p.DeclaredType
	}
	return &FuncType{Params: params, Ret: d.RetType}
}

// ----------------------
// ----- Statements -----
// ----------------------

// Stmt is implemented by every statement node.
type Stmt interface {
	Node
	stmtNode()
}

type stmtBase struct{ LineNo int }

func (s stmtBase) Line() int { return s.LineNo }
func (s stmtBase) stmtNode() {}

type BlockStmt struct {
	stmtBase
	Stmts []Stmt
}

type IfStmt struct {
	stmtBase
	Cond Expr
	Then Stmt
	Else Stmt // optional
}

type WhileStmt struct {
	stmtBase
	Cond Expr
	Body Stmt
}

type DoWhileStmt struct {
	stmtBase
	Body Stmt
	Cond Expr
}

// ForStmt models the C-style for loop; Init may be a VarDecl wrapped in
// DeclStmt or an ExprStmt, per the for-init quirk in spec.md §4.2.
type ForStmt struct {
	stmtBase
	Init   Stmt // optional: *DeclStmt or *ExprStmt
	Cond   Expr // optional
	Update Expr // optional
	Body   Stmt
}

type ReturnStmt struct {
	stmtBase
	Value Expr // optional
}

type PrintStmt struct {
	stmtBase
	Args []Expr
}

// ExprStmt is an expression evaluated for effect (e.g. an assignment or a
// call) used as a statement.
type ExprStmt struct {
	stmtBase
	X Expr
}

// DeclStmt wraps a VarDecl or ArrayDecl appearing as a statement inside a
// block or a for-loop initializer.
type DeclStmt struct {
	stmtBase
	D Decl
}

func NewBlockStmt(line int, stmts []Stmt) *BlockStmt { return &BlockStmt{stmtBase{line}, stmts} }
func NewIfStmt(line int, cond Expr, then, els Stmt) *IfStmt {
	return &IfStmt{stmtBase{line}, cond, then, els}
}
func NewWhileStmt(line int, cond Expr, body Stmt) *WhileStmt {
	return &WhileStmt{stmtBase{line}, cond, body}
}
func NewDoWhileStmt(line int, body Stmt, cond Expr) *DoWhileStmt {
	return &DoWhileStmt{stmtBase{line}, body, cond}
}
func NewForStmt(line int, init Stmt, cond, update Expr, body Stmt) *ForStmt {
	return &ForStmt{stmtBase{line}, init, cond, update, body}
}
func NewReturnStmt(line int, v Expr) *ReturnStmt { return &ReturnStmt{stmtBase{line}, v} }
func NewPrintStmt(line int, args []Expr) *PrintStmt {
	return &PrintStmt{stmtBase{line}, args}
}
func NewExprStmt(line int, x Expr) *ExprStmt { return &ExprStmt{stmtBase{line}, x} }
func NewDeclStmt(line int, d Decl) *DeclStmt { return &DeclStmt{stmtBase{line}, d} }

// -----------------------
// ----- Expressions -----
// -----------------------

// Expr is implemented by every expression node. Typ and mutability are
// annotations written once by the semantic analyzer (spec.md's "Annotations
// added during semantic analysis").
type Expr interface {
	Node
	exprNode()
	Type() Type
	SetType(Type)
	Mutable() bool
	SetMutable(bool)
}

// ExprBase is embedded by every concrete expression node and carries the
// annotation fields so each variant does not repeat the bookkeeping.
type ExprBase struct {
	LineNo    int
	Typ       Type
	IsMutable bool
}

func (b *ExprBase) Line() int          { return b.LineNo }
func (b *ExprBase) exprNode()          {}
func (b *ExprBase) Type() Type         { return b.Typ }
func (b *ExprBase) SetType(t Type)     { b.Typ = t }
func (b *ExprBase) Mutable() bool      { return b.IsMutable }
func (b *ExprBase) SetMutable(m bool)  { b.IsMutable = m }

type Assignment struct {
	ExprBase
	Target Expr
	Value  Expr
}

type BinOper struct {
	ExprBase
	Op    token.Kind
	Left  Expr
	Right Expr
}

type UnaryOper struct {
	ExprBase
	Op token.Kind
	X  Expr
}

// IncDecOp discriminates which of the four increment/decrement variants an
// IncDecExpr is (spec.md's PreInc/PreDec/PostInc/PostDec), carried as a
// tagged variant rather than four separate node structs.
type IncDecOp int

const (
	Inc IncDecOp = iota
	Dec
)

type IncDecExpr struct {
	ExprBase
	Op     IncDecOp
	Prefix bool
	X      Expr
}

type IntegerLit struct {
	ExprBase
	Val int64
}

type FloatLit struct {
	ExprBase
	Val float64
}

type BoolLit struct {
	ExprBase
	Val bool
}

type CharLit struct {
	ExprBase
	Val rune
}

type StringLit struct {
	ExprBase
	Val string
}

// ArrayLit is a brace-enclosed list of element initializers, used both as a
// top-level ArrayDecl initializer and, recursively, as an element of a
// nested array's initializer.
type ArrayLit struct {
	ExprBase
	Elems []Expr
}

// VarLocation names a variable, parameter, array, or function. Ref is the
// resolved declaration, filled in by the semantic analyzer.
type VarLocation struct {
	ExprBase
	Name string
	Ref  Decl
}

type ArraySubscript struct {
	ExprBase
	Base  Expr
	Index Expr
}

// FuncCall invokes a resolved FuncDecl with a list of argument expressions.
type FuncCall struct {
	ExprBase
	Name string
	Args []Expr
	Ref  *FuncDecl
}

func newExprBase(line int) ExprBase { return ExprBase{LineNo: line} }

func NewAssignment(line int, target, value Expr) *Assignment {
	return &Assignment{newExprBase(line), target, value}
}
func NewBinOper(line int, op token.Kind, left, right Expr) *BinOper {
	return &BinOper{newExprBase(line), op, left, right}
}
func NewUnaryOper(line int, op token.Kind, x Expr) *UnaryOper {
	return &UnaryOper{newExprBase(line), op, x}
}
func NewIncDecExpr(line int, op IncDecOp, prefix bool, x Expr) *IncDecExpr {
	return &IncDecExpr{newExprBase(line), op, prefix, x}
}
func NewIntegerLit(line int, v int64) *IntegerLit   { return &IntegerLit{newExprBase(line), v} }
func NewFloatLit(line int, v float64) *FloatLit     { return &FloatLit{newExprBase(line), v} }
func NewBoolLit(line int, v bool) *BoolLit          { return &BoolLit{newExprBase(line), v} }
func NewCharLit(line int, v rune) *CharLit          { return &CharLit{newExprBase(line), v} }
func NewStringLit(line int, v string) *StringLit    { return &StringLit{newExprBase(line), v} }
func NewArrayLit(line int, elems []Expr) *ArrayLit  { return &ArrayLit{newExprBase(line), elems} }
func NewVarLocation(line int, name string) *VarLocation {
	return &VarLocation{newExprBase(line), name, nil}
}
func NewArraySubscript(line int, base, index Expr) *ArraySubscript {
	return &ArraySubscript{newExprBase(line), base, index}
}
func NewFuncCall(line int, name string, args []Expr) *FuncCall {
	return &FuncCall{newExprBase(line), name, args, nil}
}
