package ast

import (
	"fmt"
	"strconv"
	"strings"
)

// Print renders the Program back to B-Minor source text. It is the
// pretty-printer spec.md §8 Invariant 3 requires: re-lexing and re-parsing
// Print's output must yield an AST equal modulo source positions to the
// one that produced it. Dispatch is a type switch over the closed node
// family (the "tagged-union pattern matching" option from spec.md §4.5 /
// §9), which is how every stage in this module traverses the tree.
func Print(p *Program) string {
	var sb strings.Builder
	for _, d := range p.Decls {
		printDecl(&sb, d, 0)
		sb.WriteByte('\n')
	}
	return sb.String()
}

func indent(sb *strings.Builder, depth int) {
	sb.WriteString(strings.Repeat("\t", depth))
}

func printType(t Type) string {
	switch tt := t.(type) {
	case *ArrayType:
		if tt.Size != nil {
			return fmt.Sprintf("array[%s] %s", printExpr(tt.Size), printType(tt.Elem))
		}
		return fmt.Sprintf("array[] %s", printType(tt.Elem))
	default:
		return t.String()
	}
}

func printDecl(sb *strings.Builder, d Decl, depth int) {
	indent(sb, depth)
	switch dd := d.(type) {
	case *VarDecl:
		if dd.Init != nil {
			sb.WriteString(fmt.Sprintf("%s: %s = %s;", dd.Name, printType(dd.DeclaredType), printExpr(dd.Init)))
		} else {
			sb.WriteString(fmt.Sprintf("%s: %s;", dd.Name, printType(dd.DeclaredType)))
		}
	case *ArrayDecl:
		if dd.Init != nil {
			sb.WriteString(fmt.Sprintf("%s: %s = %s;", dd.Name, printType(dd.ArrType), printExpr(dd.Init)))
		} else {
			sb.WriteString(fmt.Sprintf("%s: %s;", dd.Name, printType(dd.ArrType)))
		}
	case *Param:
		sb.WriteString(fmt.Sprintf("%s: %s", dd.Name, printType(dd.DeclaredType)))
	case *FuncDecl:
		params := make([]string, len(dd.Params))
		for i, p := range dd.Params {
			params[i] = fmt.Sprintf("%s: %s", p.Name, printType(p.DeclaredType))
		}
		sig := fmt.Sprintf("%s: function %s(%s)", dd.Name, printType(dd.RetType), strings.Join(params, ", "))
		if dd.Body == nil {
			sb.WriteString(sig + ";")
			return
		}
		sb.WriteString(sig + " = ")
		printStmt(sb, dd.Body, depth)
	}
}

func printStmt(sb *strings.Builder, s Stmt, depth int) {
	switch ss := s.(type) {
	case *BlockStmt:
		sb.WriteString("{\n")
		for _, st := range ss.Stmts {
			indent(sb, depth+1)
			printStmt(sb, st, depth+1)
			sb.WriteByte('\n')
		}
		indent(sb, depth)
		sb.WriteString("}")
	case *IfStmt:
		sb.WriteString(fmt.Sprintf("if (%s) ", printExpr(ss.Cond)))
		printStmt(sb, ss.Then, depth)
		if ss.Else != nil {
			sb.WriteString(" else ")
			printStmt(sb, ss.Else, depth)
		}
	case *WhileStmt:
		sb.WriteString(fmt.Sprintf("while (%s) ", printExpr(ss.Cond)))
		printStmt(sb, ss.Body, depth)
	case *DoWhileStmt:
		sb.WriteString("do ")
		printStmt(sb, ss.Body, depth)
		sb.WriteString(fmt.Sprintf(" while (%s);", printExpr(ss.Cond)))
	case *ForStmt:
		init := ""
		if ss.Init != nil {
			init = printForInit(ss.Init)
		}
		cond := ""
		if ss.Cond != nil {
			cond = printExpr(ss.Cond)
		}
		update := ""
		if ss.Update != nil {
			update = printExpr(ss.Update)
		}
		sb.WriteString(fmt.Sprintf("for (%s; %s; %s) ", init, cond, update))
		printStmt(sb, ss.Body, depth)
	case *ReturnStmt:
		if ss.Value != nil {
			sb.WriteString(fmt.Sprintf("return %s;", printExpr(ss.Value)))
		} else {
			sb.WriteString("return;")
		}
	case *PrintStmt:
		args := make([]string, len(ss.Args))
		for i, a := range ss.Args {
			args[i] = printExpr(a)
		}
		sb.WriteString(fmt.Sprintf("print %s;", strings.Join(args, ", ")))
	case *ExprStmt:
		sb.WriteString(printExpr(ss.X) + ";")
	case *DeclStmt:
		printDecl(sb, ss.D, depth)
	}
}

func printForInit(s Stmt) string {
	switch ss := s.(type) {
	case *DeclStmt:
		var sb strings.Builder
		printDecl(&sb, ss.D, 0)
		return strings.TrimSuffix(sb.String(), ";")
	case *ExprStmt:
		return printExpr(ss.X)
	}
	return ""
}

func printExpr(e Expr) string {
	switch ee := e.(type) {
	case *Assignment:
		return fmt.Sprintf("%s = %s", printExpr(ee.Target), printExpr(ee.Value))
	case *BinOper:
		return fmt.Sprintf("(%s %s %s)", printExpr(ee.Left), ee.Op.String(), printExpr(ee.Right))
	case *UnaryOper:
		return fmt.Sprintf("(%s%s)", ee.Op.String(), printExpr(ee.X))
	case *IncDecExpr:
		sym := "++"
		if ee.Op == Dec {
			sym = "--"
		}
		if ee.Prefix {
			return sym + printExpr(ee.X)
		}
		return printExpr(ee.X) + sym
	case *IntegerLit:
		return strconv.FormatInt(ee.Val, 10)
	case *FloatLit:
		s := strconv.FormatFloat(ee.Val, 'g', -1, 64)
		if !strings.ContainsAny(s, ".eE") {
			s += ".0" // keep an integral float from re-lexing as an integer
		}
		return s
	case *BoolLit:
		if ee.Val {
			return "true"
		}
		return "false"
	case *CharLit:
		if ee.Val == 0 {
			return `'\0'`
		}
		return strconv.QuoteRune(ee.Val)
	case *StringLit:
		return strconv.Quote(ee.Val)
	case *ArrayLit:
		parts := make([]string, len(ee.Elems))
		for i, el := range ee.Elems {
			parts[i] = printExpr(el)
		}
		return "{" + strings.Join(parts, ", ") + "}"
	case *VarLocation:
		return ee.Name
	case *ArraySubscript:
		return fmt.Sprintf("%s[%s]", printExpr(ee.Base), printExpr(ee.Index))
	case *FuncCall:
		args := make([]string, len(ee.Args))
		for i, a := range ee.Args {
			args[i] = printExpr(a)
		}
		return fmt.Sprintf("%s(%s)", ee.Name, strings.Join(args, ", "))
	}
	return "<?>"
}
