package irgen

import (
	"fmt"

	"tinygo.org/x/go-llvm"

	"bminor/internal/ast"
	"bminor/internal/builtins"
	"bminor/internal/token"
)

// binOp lowers a binary operator given its already-evaluated operands,
// dispatching on the B-Minor operand type per spec.md §4.4's "Expression
// lowering" rule: signed integer ops for integer, ordered-fp ops for float,
// and a runtime pow call for `^` exponentiation (spec.md: "`^` lowers to a
// call to a pow intrinsic on double").
func (g *gen) binOp(e *ast.BinOper, l, r llvm.Value) (llvm.Value, error) {
	operandT := e.Left.Type()
	isFloat := operandT.Kind() == ast.KindFloat

	switch e.Op {
	case token.PLUS:
		switch operandT.Kind() {
		case ast.KindString:
			return g.concatStrings(l, r)
		case ast.KindFloat:
			return g.b.CreateFAdd(l, r, ""), nil
		default:
			return g.b.CreateAdd(l, r, ""), nil
		}
	case token.MINUS:
		if isFloat {
			return g.b.CreateFSub(l, r, ""), nil
		}
		return g.b.CreateSub(l, r, ""), nil
	case token.STAR:
		if isFloat {
			return g.b.CreateFMul(l, r, ""), nil
		}
		return g.b.CreateMul(l, r, ""), nil
	case token.SLASH:
		if isFloat {
			return g.b.CreateFDiv(l, r, ""), nil
		}
		return g.b.CreateSDiv(l, r, ""), nil
	case token.PERCENT:
		return g.b.CreateSRem(l, r, ""), nil
	case token.CARET:
		lf, rf := l, r
		if !isFloat {
			lf = g.b.CreateSIToFP(l, g.f64, "")
			rf = g.b.CreateSIToFP(r, g.f64, "")
		}
		res := g.b.CreateCall(g.runtime["llvm.pow.f64"], []llvm.Value{lf, rf}, "")
		if !isFloat {
			return g.b.CreateFPToSI(res, g.i64, ""), nil
		}
		return res, nil
	case token.EQ, token.NE, token.LT, token.LE, token.GT, token.GE:
		return g.relOp(e.Op, operandT, l, r), nil
	case token.OROR:
		return g.b.CreateOr(l, r, ""), nil
	case token.ANDAND:
		return g.b.CreateAnd(l, r, ""), nil
	}
	return llvm.Value{}, fmt.Errorf("line %d: irgen: unhandled binary operator %s", e.Line(), e.Op)
}

// relOp lowers a relational/equality operator. Per spec.md's "Type
// mapping", char comparisons use unsigned integer predicates (chars are an
// unsigned i8 ABI), while integer comparisons are signed.
func (g *gen) relOp(op token.Kind, operandT ast.Type, l, r llvm.Value) llvm.Value {
	if operandT.Kind() == ast.KindFloat {
		pred := map[token.Kind]llvm.FloatPredicate{
			token.EQ: llvm.FloatOEQ, token.NE: llvm.FloatONE,
			token.LT: llvm.FloatOLT, token.LE: llvm.FloatOLE,
			token.GT: llvm.FloatOGT, token.GE: llvm.FloatOGE,
		}[op]
		return g.b.CreateFCmp(pred, l, r, "")
	}
	if operandT.Kind() == ast.KindChar {
		pred := map[token.Kind]llvm.IntPredicate{
			token.EQ: llvm.IntEQ, token.NE: llvm.IntNE,
			token.LT: llvm.IntULT, token.LE: llvm.IntULE,
			token.GT: llvm.IntUGT, token.GE: llvm.IntUGE,
		}[op]
		return g.b.CreateICmp(pred, l, r, "")
	}
	pred := map[token.Kind]llvm.IntPredicate{
		token.EQ: llvm.IntEQ, token.NE: llvm.IntNE,
		token.LT: llvm.IntSLT, token.LE: llvm.IntSLE,
		token.GT: llvm.IntSGT, token.GE: llvm.IntSGE,
	}[op]
	return g.b.CreateICmp(pred, l, r, "")
}

func (g *gen) unaryOp(e *ast.UnaryOper, v llvm.Value) (llvm.Value, error) {
	isFloat := e.X.Type().Kind() == ast.KindFloat
	switch e.Op {
	case token.MINUS:
		if isFloat {
			return g.b.CreateFNeg(v, ""), nil
		}
		return g.b.CreateNeg(v, ""), nil
	case token.PLUS:
		return v, nil
	case token.NOT:
		return g.b.CreateXor(v, llvm.ConstInt(g.i1, 1, false), ""), nil
	}
	return llvm.Value{}, fmt.Errorf("line %d: irgen: unhandled unary operator %s", e.Line(), e.Op)
}

// concatStrings lowers string + string. There is no runtime ABI symbol for
// concatenation in spec.md §6's table; `+` is the only operator sema
// accepts on two strings (string comparisons are rejected there) but, per
// spec.md §7's IR-generation error taxonomy
// ("unsupported operator combination ... flagged as a hard error at
// lowering time"), string concatenation has no lowering and is rejected
// here rather than silently miscompiled.
func (g *gen) concatStrings(l, r llvm.Value) (llvm.Value, error) {
	return llvm.Value{}, fmt.Errorf("irgen: string concatenation has no runtime ABI support and cannot be lowered")
}

// call lowers a function call, dispatching built-ins to the runtime ABI
// symbols from spec.md §6 and user functions to their declared LLVM
// function value.
func (g *gen) call(e *ast.FuncCall, s *scope) (llvm.Value, error) {
	if builtins.IsBuiltin(e.Name) {
		return g.callBuiltin(e, s)
	}
	fn, ok := g.fns[e.Name]
	if !ok {
		return llvm.Value{}, fmt.Errorf("line %d: irgen: undeclared function %q", e.Line(), e.Name)
	}
	args := make([]llvm.Value, len(e.Args))
	for i, a := range e.Args {
		v, err := g.expr(a, s)
		if err != nil {
			return llvm.Value{}, err
		}
		args[i] = v
	}
	return g.b.CreateCall(fn, args, ""), nil
}

// callBuiltin lowers one of the seven built-ins to its runtime ABI
// equivalent. read_string/length require special shapes the 1:1 signature
// table can't express (a caller-allocated buffer, and dispatch on the
// argument's static type); length likewise is not implemented by
// builtins.Call and is left to its caller there.
func (g *gen) callBuiltin(e *ast.FuncCall, s *scope) (llvm.Value, error) {
	args := make([]llvm.Value, len(e.Args))
	for i, a := range e.Args {
		v, err := g.expr(a, s)
		if err != nil {
			return llvm.Value{}, err
		}
		args[i] = v
	}

	switch e.Name {
	case "read_integer":
		return g.b.CreateCall(g.runtime["read_integer"], nil, ""), nil
	case "read_string":
		const bufCap = 256
		buf := g.b.CreateAlloca(llvm.ArrayType(g.i8, bufCap), "")
		zero := llvm.ConstInt(g.ctx.Int32Type(), 0, false)
		ptr := g.b.CreateGEP(llvm.ArrayType(g.i8, bufCap), buf, []llvm.Value{zero, zero}, "")
		capConst := llvm.ConstInt(g.ctx.Int32Type(), bufCap, false)
		g.b.CreateCall(g.runtime["read_string"], []llvm.Value{ptr, capConst}, "")
		return ptr, nil
	case "sqrt":
		return g.b.CreateCall(g.runtime["sqrt_func"], args, ""), nil
	case "abs":
		return g.b.CreateCall(g.runtime["abs_func"], args, ""), nil
	case "max":
		return g.b.CreateCall(g.runtime["max_func"], args, ""), nil
	case "min":
		return g.b.CreateCall(g.runtime["min_func"], args, ""), nil
	case builtins.LengthName:
		return g.callLength(e, args[0])
	}
	return llvm.Value{}, fmt.Errorf("line %d: irgen: unhandled built-in %q", e.Line(), e.Name)
}

// callLength implements the Open Question resolution from spec.md §9:
// length widens to accept a string (string_length) or an array of any
// element type (array_length_<T>, dispatched on the static argument type
// since the array's element type is known at compile time).
func (g *gen) callLength(e *ast.FuncCall, arg llvm.Value) (llvm.Value, error) {
	argT := e.Args[0].Type()
	if argT.Kind() == ast.KindString {
		n := g.b.CreateCall(g.runtime["string_length"], []llvm.Value{arg}, "")
		return g.b.CreateSExt(n, g.i64, ""), nil
	}
	arrT, ok := argT.(*ast.ArrayType)
	if !ok {
		return llvm.Value{}, fmt.Errorf("line %d: length() requires an array or string", e.Line())
	}
	suffix, err := arrayRuntimeSuffix(arrT.Elem)
	if err != nil {
		return llvm.Value{}, err
	}
	return g.b.CreateCall(g.runtime["array_length_"+suffix], []llvm.Value{arg}, ""), nil
}
