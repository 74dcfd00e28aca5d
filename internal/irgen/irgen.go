// Package irgen lowers a type-checked AST into LLVM IR, the runtime symbol
// list from spec.md §6, using the tinygo.org/x/go-llvm cgo bindings the
// same way the teacher's ir/llvm package drives the LLVM C API directly
// (_examples/hhramberg-go-vslc/src/ir/llvm/transform.go). Unlike the
// teacher, generation here is strictly single-threaded and synchronous
// (spec.md §5 forbids goroutine fan-out across the pipeline), so there is
// no worker pool, no global mutex-guarded symbol table, and no thread
// index math; one builder and one plain Go map walk the program in source
// order.
package irgen

import (
	"fmt"
	"path/filepath"

	"tinygo.org/x/go-llvm"

	"bminor/internal/ast"
	"bminor/internal/token"
)

// ----------------------------
// ----- Type definitions -----
// ----------------------------

// scope is one lexical binding frame mapping a B-Minor name to the LLVM
// value holding its address (alloca or global).
type scope struct {
	parent *scope
	vars   map[string]llvm.Value
	types  map[string]ast.Type
}

func newScope(parent *scope) *scope {
	return &scope{parent: parent, vars: make(map[string]llvm.Value, 8), types: make(map[string]ast.Type, 8)}
}

func (s *scope) declare(name string, v llvm.Value, t ast.Type) {
	s.vars[name] = v
	s.types[name] = t
}

func (s *scope) lookup(name string) (llvm.Value, ast.Type, bool) {
	for cur := s; cur != nil; cur = cur.parent {
		if v, ok := cur.vars[name]; ok {
			return v, cur.types[name], true
		}
	}
	return llvm.Value{}, nil, false
}

// gen threads the LLVM context, module, and builder through lowering,
// mirroring the teacher's (b, m, fun, st) parameter convention but with a
// single struct instead of four repeated arguments.
type gen struct {
	ctx     llvm.Context
	mod     llvm.Module
	b       llvm.Builder
	fns     map[string]llvm.Value // every declared FuncDecl, by name
	runtime map[string]llvm.Value // ABI symbols declared from spec.md §6
	strs    map[string]llvm.Value // deduplicated string literal constants
	i64     llvm.Type
	f64     llvm.Type
	i1      llvm.Type
	i8      llvm.Type
	i8ptr   llvm.Type
}

// ---------------------
// ----- functions -----
// ---------------------

// Emit lowers prog (already validated by sema.Analyze) into a textual LLVM
// IR module, using srcName as the module's identifier.
func Emit(prog *ast.Program, srcName string) (string, error) {
	ctx := llvm.NewContext()
	defer ctx.Dispose()

	b := ctx.NewBuilder()
	defer b.Dispose()

	mod := ctx.NewModule(filepath.Base(srcName))
	defer mod.Dispose()
	mod.SetTarget(llvm.DefaultTargetTriple())

	g := &gen{
		ctx:     ctx,
		mod:     mod,
		b:       b,
		fns:     make(map[string]llvm.Value, 16),
		runtime: make(map[string]llvm.Value, 16),
		strs:    make(map[string]llvm.Value, 8),
		i64:     ctx.Int64Type(),
		f64:     ctx.DoubleType(),
		i1:      ctx.Int1Type(),
		i8:      ctx.Int8Type(),
		i8ptr:   llvm.PointerType(ctx.Int8Type(), 0),
	}
	g.declareRuntime()

	global := newScope(nil)

	// Two-pass function lowering (spec.md §4.4): declare every FuncDecl's
	// signature first so call sites resolve regardless of source order,
	// then lower bodies.
	var funcs []*ast.FuncDecl
	for _, d := range prog.Decls {
		switch dd := d.(type) {
		case *ast.FuncDecl:
			if err := g.declareFunc(dd); err != nil {
				return "", err
			}
			funcs = append(funcs, dd)
		case *ast.VarDecl:
			if err := g.declareGlobalVar(dd, global); err != nil {
				return "", err
			}
		case *ast.ArrayDecl:
			if err := g.declareGlobalArray(dd, global); err != nil {
				return "", err
			}
		}
	}
	for _, fd := range funcs {
		if fd.Body == nil {
			continue // prototype-only declaration
		}
		if err := g.lowerFuncBody(fd, global); err != nil {
			return "", err
		}
	}

	return mod.String(), nil
}

// declareRuntime declares the external runtime ABI symbols from spec.md
// §6's table, the Go-native equivalent of the teacher's genPrintf/genAtoi/
// genAtof helpers generalized to the full B-Minor runtime surface.
func (g *gen) declareRuntime() {
	void := g.ctx.VoidType()
	i32 := g.ctx.Int32Type()

	def := func(name string, ret llvm.Type, params ...llvm.Type) {
		ft := llvm.FunctionType(ret, params, false)
		g.runtime[name] = llvm.AddFunction(g.mod, name, ft)
	}

	def("print_integer", void, g.i64)
	def("print_float", void, g.f64)
	def("print_boolean", void, g.i1)
	def("print_char", void, g.i8)
	def("print_string", void, g.i8ptr)
	def("print_newline", void)
	def("read_integer", g.i64)
	def("read_float", g.f64)
	def("read_string", void, g.i8ptr, i32)
	def("sqrt_func", g.f64, g.f64)
	def("abs_func", g.f64, g.f64)
	def("max_func", g.f64, g.f64, g.f64)
	def("min_func", g.f64, g.f64, g.f64)
	def("string_length", i32, g.i8ptr)
	def("array_new_i64", llvm.PointerType(g.i64, 0), i32)
	def("array_new_double", llvm.PointerType(g.f64, 0), i32)
	def("array_new_i1", llvm.PointerType(g.i1, 0), i32)
	def("array_length_i64", g.i64, llvm.PointerType(g.i64, 0))
	def("array_length_double", g.i64, llvm.PointerType(g.f64, 0))
	def("array_length_i1", g.i64, llvm.PointerType(g.i1, 0))

	powFt := llvm.FunctionType(g.f64, []llvm.Type{g.f64, g.f64}, false)
	g.runtime["llvm.pow.f64"] = llvm.AddFunction(g.mod, "llvm.pow.f64", powFt)
}

// --------------------------
// ----- type lowering  -----
// --------------------------

// llType maps a B-Minor type to its LLVM representation per spec.md §4.4's
// type mapping table.
func (g *gen) llType(t ast.Type) llvm.Type {
	switch tt := t.(type) {
	case *ast.ArrayType:
		return llvm.PointerType(g.llType(tt.Elem), 0)
	case *ast.SimpleType:
		switch tt.Kind() {
		case ast.KindInteger:
			return g.i64
		case ast.KindFloat:
			return g.f64
		case ast.KindBoolean:
			return g.i1
		case ast.KindChar:
			return g.i8
		case ast.KindString:
			return g.i8ptr
		case ast.KindVoid:
			return g.ctx.VoidType()
		}
	}
	return g.i64
}

// arrayRuntimeSuffix names the array_new_*/array_length_* runtime variant
// for an array's element type.
func arrayRuntimeSuffix(elem ast.Type) (string, error) {
	switch elem.Kind() {
	case ast.KindInteger, ast.KindChar:
		return "i64", nil
	case ast.KindFloat:
		return "double", nil
	case ast.KindBoolean:
		return "i1", nil
	default:
		return "", fmt.Errorf("no array runtime for element type %s", elem)
	}
}

func zeroOf(t llvm.Type) llvm.Value {
	switch {
	case t.TypeKind() == llvm.DoubleTypeKind:
		return llvm.ConstFloat(t, 0)
	case t.TypeKind() == llvm.PointerTypeKind:
		return llvm.ConstNull(t)
	default:
		return llvm.ConstInt(t, 0, false)
	}
}

// ------------------------------
// ----- global declarations ----
// ------------------------------

func (g *gen) declareFunc(fd *ast.FuncDecl) error {
	ret := g.llType(fd.RetType)
	params := make([]llvm.Type, len(fd.Params))
	for i, p := range fd.Params {
		params[i] = g.llType(p.DeclaredType)
	}
	ft := llvm.FunctionType(ret, params, false)
	fn := llvm.AddFunction(g.mod, fd.Name, ft)
	for i, p := range fd.Params {
		fn.Param(i).SetName(p.Name)
	}
	g.fns[fd.Name] = fn
	return nil
}

// declareGlobalVar emits a module-level global for a scalar VarDecl.
// sema.Analyze already rejected non-constant global initializers
// (SPEC_FULL.md's resolution of the global-initializer Open Question), so
// every Init reaching here is a literal.
func (g *gen) declareGlobalVar(d *ast.VarDecl, global *scope) error {
	llt := g.llType(d.DeclaredType)
	gv := llvm.AddGlobal(g.mod, llt, d.Name)
	if d.Init != nil {
		c, err := g.constOf(d.Init, llt)
		if err != nil {
			return err
		}
		gv.SetInitializer(c)
	} else {
		gv.SetInitializer(zeroOf(llt))
	}
	global.declare(d.Name, gv, d.DeclaredType)
	return nil
}

func (g *gen) declareGlobalArray(d *ast.ArrayDecl, global *scope) error {
	elemT := g.llType(d.ArrType.Elem)
	var n int64
	if d.Init != nil {
		n = int64(len(d.Init.Elems))
	} else if lit, ok := d.ArrType.Size.(*ast.IntegerLit); ok {
		n = lit.Val
	}
	arrT := llvm.ArrayType(elemT, int(n))
	gv := llvm.AddGlobal(g.mod, arrT, d.Name)
	if d.Init != nil {
		elems := make([]llvm.Value, len(d.Init.Elems))
		for i, el := range d.Init.Elems {
			c, err := g.constOf(el, elemT)
			if err != nil {
				return err
			}
			elems[i] = c
		}
		gv.SetInitializer(llvm.ConstArray(elemT, elems))
	} else {
		gv.SetInitializer(llvm.ConstNull(arrT))
	}
	global.declare(d.Name, gv, d.ArrType)
	return nil
}

// constOf evaluates a constant-expression literal into an LLVM constant of
// type llt, used for global initializers.
func (g *gen) constOf(e ast.Expr, llt llvm.Type) (llvm.Value, error) {
	switch ee := e.(type) {
	case *ast.IntegerLit:
		return llvm.ConstInt(llt, uint64(ee.Val), true), nil
	case *ast.FloatLit:
		return llvm.ConstFloat(llt, ee.Val), nil
	case *ast.BoolLit:
		v := uint64(0)
		if ee.Val {
			v = 1
		}
		return llvm.ConstInt(llt, v, false), nil
	case *ast.CharLit:
		return llvm.ConstInt(llt, uint64(ee.Val), false), nil
	case *ast.StringLit:
		return g.globalString(ee.Val), nil
	case *ast.UnaryOper:
		// isConstExpr only accepts MINUS/PLUS unary operators as global
		// initializers, so +x folds to x and -x negates it.
		inner, err := g.constOf(ee.X, llt)
		if err != nil {
			return llvm.Value{}, err
		}
		if ee.Op == token.MINUS {
			return g.negateConst(inner, llt), nil
		}
		return inner, nil
	default:
		return llvm.Value{}, fmt.Errorf("line %d: not a constant expression", e.Line())
	}
}

func (g *gen) negateConst(v llvm.Value, llt llvm.Type) llvm.Value {
	if llt.TypeKind() == llvm.DoubleTypeKind {
		return llvm.ConstFNeg(v)
	}
	return llvm.ConstNeg(v)
}

// globalString returns the deduplicated global string constant for s,
// creating it on first use.
func (g *gen) globalString(s string) llvm.Value {
	if v, ok := g.strs[s]; ok {
		return v
	}
	c := g.ctx.ConstString(s, true)
	gv := llvm.AddGlobal(g.mod, c.Type(), fmt.Sprintf("L_STR%d", len(g.strs)))
	gv.SetInitializer(c)
	gv.SetLinkage(llvm.PrivateLinkage)
	gv.SetGlobalConstant(true)
	zero := llvm.ConstInt(g.ctx.Int32Type(), 0, false)
	ptr := llvm.ConstGEP(gv, []llvm.Value{zero, zero})
	g.strs[s] = ptr
	return ptr
}

// ----------------------------
// ----- function bodies  -----
// ----------------------------

func (g *gen) lowerFuncBody(fd *ast.FuncDecl, global *scope) error {
	fn := g.fns[fd.Name]
	entry := g.ctx.AddBasicBlock(fn, "entry")
	g.b.SetInsertPointAtEnd(entry)

	fscope := newScope(global)
	for i, p := range fd.Params {
		llt := g.llType(p.DeclaredType)
		alloc := g.b.CreateAlloca(llt, p.Name)
		g.b.CreateStore(fn.Param(i), alloc)
		fscope.declare(p.Name, alloc, p.DeclaredType)
	}

	terminated, err := g.block(fd.Body, fscope, fn)
	if err != nil {
		return err
	}
	if !terminated {
		if fd.RetType.Kind() == ast.KindVoid {
			g.b.CreateRetVoid()
		} else {
			g.b.CreateRet(zeroOf(g.llType(fd.RetType)))
		}
	}
	return nil
}

// block lowers every statement of b in a fresh child scope, reporting
// whether the block ended with a terminator (so callers following the
// teacher's "!ret -> branch to successor" pattern know not to add a
// fall-through branch, per spec.md §4.4).
func (g *gen) block(b *ast.BlockStmt, s *scope, fn llvm.Value) (bool, error) {
	bs := newScope(s)
	for _, st := range b.Stmts {
		terminated, err := g.stmt(st, bs, fn)
		if err != nil {
			return false, err
		}
		if terminated {
			return true, nil
		}
	}
	return false, nil
}

func (g *gen) stmt(st ast.Stmt, s *scope, fn llvm.Value) (bool, error) {
	switch ss := st.(type) {
	case *ast.BlockStmt:
		return g.block(ss, s, fn)
	case *ast.DeclStmt:
		return false, g.localDecl(ss.D, s)
	case *ast.ExprStmt:
		_, err := g.expr(ss.X, s)
		return false, err
	case *ast.PrintStmt:
		return false, g.print(ss, s)
	case *ast.ReturnStmt:
		return true, g.ret(ss, s, fn)
	case *ast.IfStmt:
		return g.ifStmt(ss, s, fn)
	case *ast.WhileStmt:
		return g.whileStmt(ss, s, fn)
	case *ast.DoWhileStmt:
		return g.doWhileStmt(ss, s, fn)
	case *ast.ForStmt:
		return g.forStmt(ss, s, fn)
	}
	return false, fmt.Errorf("irgen: unhandled statement %T", st)
}

func (g *gen) localDecl(d ast.Decl, s *scope) error {
	switch dd := d.(type) {
	case *ast.VarDecl:
		llt := g.llType(dd.DeclaredType)
		alloc := g.b.CreateAlloca(llt, dd.Name)
		if dd.Init != nil {
			v, err := g.expr(dd.Init, s)
			if err != nil {
				return err
			}
			g.b.CreateStore(v, alloc)
		} else {
			g.b.CreateStore(zeroOf(llt), alloc)
		}
		s.declare(dd.Name, alloc, dd.DeclaredType)
		return nil
	case *ast.ArrayDecl:
		return g.localArrayDecl(dd, s)
	}
	return fmt.Errorf("irgen: unhandled local declaration %T", d)
}

// localArrayDecl allocates a local array via the array_new_<T> runtime
// call. A literal declared size (or one implied by a brace-list
// initializer) folds to an LLVM constant at generation time; any other
// size expression — sema only requires it to be of type integer, not a
// compile-time constant (see TestArraySizeMustBeInteger) — is evaluated
// and its i64 result truncated to the i32 the runtime allocator expects,
// matching original_source/codegen.py's visit(ArrayDecl), which evaluates
// and truncates the runtime size for exactly this non-literal case rather
// than treating it as always zero.
func (g *gen) localArrayDecl(d *ast.ArrayDecl, s *scope) error {
	elemT := g.llType(d.ArrType.Elem)
	suffix, err := arrayRuntimeSuffix(d.ArrType.Elem)
	if err != nil {
		return err
	}
	var sizeVal llvm.Value
	switch {
	case d.Init != nil:
		sizeVal = llvm.ConstInt(g.ctx.Int32Type(), uint64(len(d.Init.Elems)), false)
	case d.ArrType.Size == nil:
		sizeVal = llvm.ConstInt(g.ctx.Int32Type(), 0, false)
	default:
		if lit, ok := d.ArrType.Size.(*ast.IntegerLit); ok {
			sizeVal = llvm.ConstInt(g.ctx.Int32Type(), uint64(lit.Val), false)
		} else {
			sv, err := g.expr(d.ArrType.Size, s)
			if err != nil {
				return err
			}
			sizeVal = g.b.CreateTrunc(sv, g.ctx.Int32Type(), d.Name+"_size")
		}
	}
	allocFn := g.runtime["array_new_"+suffix]
	arrPtr := g.b.CreateCall(allocFn, []llvm.Value{sizeVal}, d.Name+"_new")

	if d.Init != nil {
		for i, el := range d.Init.Elems {
			v, err := g.expr(el, s)
			if err != nil {
				return err
			}
			idx := llvm.ConstInt(g.ctx.Int32Type(), uint64(i), false)
			ptr := g.b.CreateGEP(elemT, arrPtr, []llvm.Value{idx}, "")
			g.b.CreateStore(v, ptr)
		}
	}
	s.declare(d.Name, arrPtr, d.ArrType)
	return nil
}

// print lowers every comma-separated argument to its type-dispatched
// print_<T> runtime call, with no separator between them, followed by
// exactly one trailing call to print_newline per statement (spec.md §9's
// print-newline Open Question resolution) — no print_<T> helper appends
// its own newline, so interp.print's single trailing "\n" and this
// sequence agree on every program.
func (g *gen) print(p *ast.PrintStmt, s *scope) error {
	for _, arg := range p.Args {
		v, err := g.expr(arg, s)
		if err != nil {
			return err
		}
		var helper llvm.Value
		switch arg.Type().Kind() {
		case ast.KindInteger:
			helper = g.runtime["print_integer"]
		case ast.KindFloat:
			helper = g.runtime["print_float"]
		case ast.KindBoolean:
			helper = g.runtime["print_boolean"]
		case ast.KindChar:
			helper = g.runtime["print_char"]
		case ast.KindString:
			helper = g.runtime["print_string"]
		default:
			return fmt.Errorf("line %d: cannot print a value of type %s", p.Line(), arg.Type())
		}
		g.b.CreateCall(helper, []llvm.Value{v}, "")
	}
	g.b.CreateCall(g.runtime["print_newline"], nil, "")
	return nil
}

func (g *gen) ret(r *ast.ReturnStmt, s *scope, fn llvm.Value) error {
	if r.Value == nil {
		g.b.CreateRetVoid()
		return nil
	}
	v, err := g.expr(r.Value, s)
	if err != nil {
		return err
	}
	g.b.CreateRet(v)
	return nil
}

// ifStmt follows the "if.then"/"if.else"/"if.end" block-shape table in
// spec.md §4.4, generalizing the teacher's two-way genIf to never emit a
// fall-through branch after an already-terminated block.
func (g *gen) ifStmt(st *ast.IfStmt, s *scope, fn llvm.Value) (bool, error) {
	cond, err := g.expr(st.Cond, s)
	if err != nil {
		return false, err
	}
	thenBB := g.ctx.AddBasicBlock(fn, "if.then")
	if st.Else == nil {
		endBB := g.ctx.AddBasicBlock(fn, "if.end")
		g.b.CreateCondBr(cond, thenBB, endBB)

		g.b.SetInsertPointAtEnd(thenBB)
		thenTerm, err := g.stmt(st.Then, s, fn)
		if err != nil {
			return false, err
		}
		if !thenTerm {
			g.b.CreateBr(endBB)
		}
		g.b.SetInsertPointAtEnd(endBB)
		return false, nil
	}

	elseBB := g.ctx.AddBasicBlock(fn, "if.else")
	g.b.CreateCondBr(cond, thenBB, elseBB)

	g.b.SetInsertPointAtEnd(thenBB)
	thenTerm, err := g.stmt(st.Then, s, fn)
	if err != nil {
		return false, err
	}
	thenEnd := g.b.GetInsertBlock()

	g.b.SetInsertPointAtEnd(elseBB)
	elseTerm, err := g.stmt(st.Else, s, fn)
	if err != nil {
		return false, err
	}
	elseEnd := g.b.GetInsertBlock()

	if thenTerm && elseTerm {
		return true, nil
	}
	endBB := g.ctx.AddBasicBlock(fn, "if.end")
	if !thenTerm {
		g.b.SetInsertPointAtEnd(thenEnd)
		g.b.CreateBr(endBB)
	}
	if !elseTerm {
		g.b.SetInsertPointAtEnd(elseEnd)
		g.b.CreateBr(endBB)
	}
	g.b.SetInsertPointAtEnd(endBB)
	return false, nil
}

func (g *gen) whileStmt(st *ast.WhileStmt, s *scope, fn llvm.Value) (bool, error) {
	condBB := g.ctx.AddBasicBlock(fn, "while.cond")
	bodyBB := g.ctx.AddBasicBlock(fn, "while.body")
	endBB := g.ctx.AddBasicBlock(fn, "while.end")

	g.b.CreateBr(condBB)
	g.b.SetInsertPointAtEnd(condBB)
	cond, err := g.expr(st.Cond, s)
	if err != nil {
		return false, err
	}
	g.b.CreateCondBr(cond, bodyBB, endBB)

	g.b.SetInsertPointAtEnd(bodyBB)
	terminated, err := g.stmt(st.Body, s, fn)
	if err != nil {
		return false, err
	}
	if !terminated {
		g.b.CreateBr(condBB)
	}
	g.b.SetInsertPointAtEnd(endBB)
	return false, nil
}

func (g *gen) doWhileStmt(st *ast.DoWhileStmt, s *scope, fn llvm.Value) (bool, error) {
	bodyBB := g.ctx.AddBasicBlock(fn, "do.body")
	condBB := g.ctx.AddBasicBlock(fn, "do.cond")
	endBB := g.ctx.AddBasicBlock(fn, "do.end")

	g.b.CreateBr(bodyBB)
	g.b.SetInsertPointAtEnd(bodyBB)
	terminated, err := g.stmt(st.Body, s, fn)
	if err != nil {
		return false, err
	}
	if !terminated {
		g.b.CreateBr(condBB)
	}

	g.b.SetInsertPointAtEnd(condBB)
	cond, err := g.expr(st.Cond, s)
	if err != nil {
		return false, err
	}
	g.b.CreateCondBr(cond, bodyBB, endBB)

	g.b.SetInsertPointAtEnd(endBB)
	return false, nil
}

func (g *gen) forStmt(st *ast.ForStmt, s *scope, fn llvm.Value) (bool, error) {
	fs := newScope(s)
	if st.Init != nil {
		if _, err := g.stmt(st.Init, fs, fn); err != nil {
			return false, err
		}
	}

	condBB := g.ctx.AddBasicBlock(fn, "for.cond")
	bodyBB := g.ctx.AddBasicBlock(fn, "for.body")
	updateBB := g.ctx.AddBasicBlock(fn, "for.update")
	endBB := g.ctx.AddBasicBlock(fn, "for.end")

	g.b.CreateBr(condBB)
	g.b.SetInsertPointAtEnd(condBB)
	if st.Cond != nil {
		cond, err := g.expr(st.Cond, fs)
		if err != nil {
			return false, err
		}
		g.b.CreateCondBr(cond, bodyBB, endBB)
	} else {
		g.b.CreateBr(bodyBB)
	}

	g.b.SetInsertPointAtEnd(bodyBB)
	terminated, err := g.stmt(st.Body, fs, fn)
	if err != nil {
		return false, err
	}
	if !terminated {
		g.b.CreateBr(updateBB)
	}

	g.b.SetInsertPointAtEnd(updateBB)
	if st.Update != nil {
		if _, err := g.expr(st.Update, fs); err != nil {
			return false, err
		}
	}
	g.b.CreateBr(condBB)

	g.b.SetInsertPointAtEnd(endBB)
	return false, nil
}

// -----------------------------
// ----- expression lowering ---
// -----------------------------

func (g *gen) expr(e ast.Expr, s *scope) (llvm.Value, error) {
	switch ee := e.(type) {
	case *ast.IntegerLit:
		return llvm.ConstInt(g.i64, uint64(ee.Val), true), nil
	case *ast.FloatLit:
		return llvm.ConstFloat(g.f64, ee.Val), nil
	case *ast.BoolLit:
		v := uint64(0)
		if ee.Val {
			v = 1
		}
		return llvm.ConstInt(g.i1, v, false), nil
	case *ast.CharLit:
		return llvm.ConstInt(g.i8, uint64(ee.Val), false), nil
	case *ast.StringLit:
		return g.globalString(ee.Val), nil
	case *ast.VarLocation:
		return g.load(ee.Name, s)
	case *ast.ArraySubscript:
		ptr, elemT, err := g.arrayElemPtr(ee, s)
		if err != nil {
			return llvm.Value{}, err
		}
		return g.b.CreateLoad(elemT, ptr, ""), nil
	case *ast.Assignment:
		return g.assignment(ee, s)
	case *ast.BinOper:
		return g.binOper(ee, s)
	case *ast.UnaryOper:
		return g.unaryOper(ee, s)
	case *ast.IncDecExpr:
		return g.incDec(ee, s)
	case *ast.FuncCall:
		return g.call(ee, s)
	}
	return llvm.Value{}, fmt.Errorf("line %d: irgen: unhandled expression %T", e.Line(), e)
}

func (g *gen) load(name string, s *scope) (llvm.Value, error) {
	ptr, t, ok := s.lookup(name)
	if !ok {
		return llvm.Value{}, fmt.Errorf("irgen: undeclared name %q", name)
	}
	return g.b.CreateLoad(g.llType(t), ptr, ""), nil
}

// lvaluePtr resolves e to the address it names, used by both assignment
// and ++/-- lowering.
func (g *gen) lvaluePtr(e ast.Expr, s *scope) (llvm.Value, ast.Type, error) {
	switch ee := e.(type) {
	case *ast.VarLocation:
		ptr, t, ok := s.lookup(ee.Name)
		if !ok {
			return llvm.Value{}, nil, fmt.Errorf("irgen: undeclared name %q", ee.Name)
		}
		return ptr, t, nil
	case *ast.ArraySubscript:
		ptr, _, err := g.arrayElemPtr(ee, s)
		return ptr, ee.Type(), err
	}
	return llvm.Value{}, nil, fmt.Errorf("line %d: not an assignable location", e.Line())
}

func (g *gen) arrayElemPtr(sub *ast.ArraySubscript, s *scope) (llvm.Value, llvm.Type, error) {
	basePtr, err := g.expr(sub.Base, s)
	if err != nil {
		return llvm.Value{}, llvm.Type{}, err
	}
	idx, err := g.expr(sub.Index, s)
	if err != nil {
		return llvm.Value{}, llvm.Type{}, err
	}
	elemT := g.llType(sub.Type())
	ptr := g.b.CreateGEP(elemT, basePtr, []llvm.Value{idx}, "elem_ptr")
	return ptr, elemT, nil
}

func (g *gen) assignment(a *ast.Assignment, s *scope) (llvm.Value, error) {
	v, err := g.expr(a.Value, s)
	if err != nil {
		return llvm.Value{}, err
	}
	ptr, _, err := g.lvaluePtr(a.Target, s)
	if err != nil {
		return llvm.Value{}, err
	}
	g.b.CreateStore(v, ptr)
	return v, nil
}

func (g *gen) binOper(e *ast.BinOper, s *scope) (llvm.Value, error) {
	l, err := g.expr(e.Left, s)
	if err != nil {
		return llvm.Value{}, err
	}
	r, err := g.expr(e.Right, s)
	if err != nil {
		return llvm.Value{}, err
	}
	return g.binOp(e, l, r)
}

func (g *gen) unaryOper(e *ast.UnaryOper, s *scope) (llvm.Value, error) {
	v, err := g.expr(e.X, s)
	if err != nil {
		return llvm.Value{}, err
	}
	return g.unaryOp(e, v)
}

func (g *gen) incDec(e *ast.IncDecExpr, s *scope) (llvm.Value, error) {
	ptr, t, err := g.lvaluePtr(e.X, s)
	if err != nil {
		return llvm.Value{}, err
	}
	llt := g.llType(t)
	old := g.b.CreateLoad(llt, ptr, "")
	var one, updated llvm.Value
	if t.Kind() == ast.KindFloat {
		one = llvm.ConstFloat(llt, 1)
	} else {
		one = llvm.ConstInt(llt, 1, true)
	}
	switch {
	case e.Op == ast.Inc && t.Kind() == ast.KindFloat:
		updated = g.b.CreateFAdd(old, one, "")
	case e.Op == ast.Inc:
		updated = g.b.CreateAdd(old, one, "")
	case e.Op == ast.Dec && t.Kind() == ast.KindFloat:
		updated = g.b.CreateFSub(old, one, "")
	default:
		updated = g.b.CreateSub(old, one, "")
	}
	g.b.CreateStore(updated, ptr)
	if e.Prefix {
		return updated, nil
	}
	return old, nil
}
