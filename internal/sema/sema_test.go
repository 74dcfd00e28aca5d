package sema_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bminor/internal/diag"
	"bminor/internal/lexer"
	"bminor/internal/parser"
	"bminor/internal/sema"
)

// analyze lexes, parses, and semantically analyzes src, returning the
// diagnostic bag so callers can assert on exact error counts/messages.
func analyze(t *testing.T, src string) *diag.Bag {
	t.Helper()
	bag := diag.New()
	toks := lexer.Tokenize(src, bag)
	require.False(t, bag.HasErrors(), "lex errors: %s", bag.String())
	prog := parser.Parse(toks, bag)
	require.False(t, bag.HasErrors(), "parse errors: %s", bag.String())
	sema.Analyze(prog, bag)
	return bag
}

func assertOK(t *testing.T, src string) {
	t.Helper()
	bag := analyze(t, src)
	assert.False(t, bag.HasErrors(), "expected no errors, got: %s", bag.String())
}

func assertErr(t *testing.T, src string) {
	t.Helper()
	bag := analyze(t, src)
	assert.True(t, bag.HasErrors(), "expected errors, got none")
}

func TestArithmeticOperatorTable(t *testing.T) {
	assertOK(t, `main: function integer() = { x: integer = 1 + 2; return 0; }`)
	assertOK(t, `main: function integer() = { x: float = 1.0 + 2.0; return 0; }`)
	assertOK(t, `main: function integer() = { x: string = "a" + "b"; return 0; }`)
	// integer + float is not defined - no implicit conversion.
	assertErr(t, `main: function integer() = { x: float = 1 + 2.0; return 0; }`)
	// subtraction is not defined for strings.
	assertErr(t, `main: function integer() = { x: string = "a" - "b"; return 0; }`)
}

func TestRelationalOperatorTable(t *testing.T) {
	assertOK(t, `main: function integer() = { x: boolean = 1 < 2; return 0; }`)
	assertOK(t, `main: function integer() = { x: boolean = 'a' < 'b'; return 0; }`)
	assertOK(t, `main: function integer() = { x: boolean = true == false; return 0; }`)
	// ordering is not defined for booleans.
	assertErr(t, `main: function integer() = { x: boolean = true < false; return 0; }`)
}

func TestLogicalOperatorsRequireBoolean(t *testing.T) {
	assertOK(t, `main: function integer() = { x: boolean = true && false; return 0; }`)
	assertErr(t, `main: function integer() = { x: boolean = 1 && 2; return 0; }`)
}

func TestGlobalInitializerMustBeConstant(t *testing.T) {
	assertOK(t, `x: integer = 5;
	main: function integer() = { return 0; }`)
	assertOK(t, `x: integer = -5;
	main: function integer() = { return 0; }`)
	assertOK(t, `x: array[3] integer = {1, 2, 3};
	main: function integer() = { return 0; }`)
	// a non-constant global initializer referencing another global.
	assertErr(t, `x: integer = 5;
	y: integer = x;
	main: function integer() = { return 0; }`)
	// fine as a local initializer though - only globals require constants.
	assertOK(t, `x: integer = 5;
	main: function integer() = { y: integer = x; return 0; }`)
}

func TestVoidVariableRejected(t *testing.T) {
	assertErr(t, `main: function integer() = { x: void = 0; return 0; }`)
}

func TestArraySizeMustBeInteger(t *testing.T) {
	assertOK(t, `main: function integer() = { x: array[3] integer = {1,2,3}; return 0; }`)
	assertErr(t, `n: boolean = true;
	main: function integer() = { x: array[n] integer; return 0; }`)
}

func TestArrayElementTypeMismatchInInitializer(t *testing.T) {
	assertErr(t, `main: function integer() = { x: array[2] integer = {1, "two"}; return 0; }`)
}

func TestFunctionReturnTypeMustMatch(t *testing.T) {
	assertOK(t, `f: function integer() = { return 1; }
	main: function integer() = { return 0; }`)
	assertErr(t, `f: function integer() = { return 1.0; }
	main: function integer() = { return 0; }`)
	assertErr(t, `f: function void() = { return 1; }
	main: function integer() = { return 0; }`)
	assertErr(t, `f: function integer() = { return; }
	main: function integer() = { return 0; }`)
}

func TestFunctionArityAndArgumentTypes(t *testing.T) {
	assertOK(t, `add: function integer(a: integer, b: integer) = { return a + b; }
	main: function integer() = { return add(1, 2); }`)
	assertErr(t, `add: function integer(a: integer, b: integer) = { return a + b; }
	main: function integer() = { return add(1); }`)
	assertErr(t, `add: function integer(a: integer, b: integer) = { return a + b; }
	main: function integer() = { return add(1, 2.0); }`)
}

func TestUndefinedNameIsReported(t *testing.T) {
	assertErr(t, `main: function integer() = { return y; }`)
	assertErr(t, `main: function integer() = { return missing(); }`)
}

func TestRecursiveFunctionCallIsAllowed(t *testing.T) {
	assertOK(t, `fact: function integer(n: integer) = {
		if (n < 2) { return 1; }
		return n * fact(n - 1);
	}
	main: function integer() = { return fact(5); }`)
}

func TestLengthBuiltinAcceptsArrayOrString(t *testing.T) {
	assertOK(t, `main: function integer() = {
		a: array[3] integer = {1,2,3};
		return length(a);
	}`)
	assertOK(t, `main: function integer() = { return length("hello"); }`)
	assertErr(t, `main: function integer() = { return length(5); }`)
	assertErr(t, `main: function integer() = { return length(); }`)
}

func TestPrintRejectsVoidArrayAndFunctionValues(t *testing.T) {
	assertOK(t, `main: function integer() = { print 1, "two", 3.0; return 0; }`)
	assertErr(t, `main: function integer() = {
		a: array[2] integer = {1, 2};
		print a;
		return 0;
	}`)
	assertErr(t, `f: function void() = { }
	main: function integer() = { print f; return 0; }`)
}

func TestIncDecRequiresMutableNumericOperand(t *testing.T) {
	assertOK(t, `main: function integer() = { x: integer = 0; x++; return x; }`)
	assertErr(t, `main: function integer() = { x: boolean = true; x++; return 0; }`)
	// a literal is not an assignable location.
	assertErr(t, `main: function integer() = { 1++; return 0; }`)
}

func TestAssignmentRequiresMutableTarget(t *testing.T) {
	assertOK(t, `main: function integer() = { x: integer = 0; x = 5; return x; }`)
	assertErr(t, `main: function integer() = { 1 = 5; return 0; }`)
	assertErr(t, `main: function integer() = { x: integer = 0; x = true; return 0; }`)
}

func TestConditionsMustBeBoolean(t *testing.T) {
	assertOK(t, `main: function integer() = { if (true) { return 1; } return 0; }`)
	assertErr(t, `main: function integer() = { if (1) { return 1; } return 0; }`)
	assertErr(t, `main: function integer() = { while (1) { return 1; } return 0; }`)
	assertErr(t, `main: function integer() = { do { return 1; } while (1); return 0; }`)
	assertErr(t, `main: function integer() = { for (i: integer = 0; 1; i++) { } return 0; }`)
}
