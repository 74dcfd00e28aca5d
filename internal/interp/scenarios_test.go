package interp_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bminor/internal/diag"
	"bminor/internal/lexer"
	"bminor/internal/parser"
	"bminor/internal/sema"
)

// TestEndToEndScenarios runs the exact end-to-end scenarios this module's
// specification enumerates as acceptance cases, each wrapped in a main
// function since every program needs one to be runnable.
func TestEndToEndScenarios(t *testing.T) {
	cases := []struct {
		name string
		src  string
		want string
	}{
		{
			name: "arithmetic and print",
			src: `main: function integer() = {
				x: integer = 10;
				y: integer = 20;
				print x + y * 2;
				return 0;
			}`,
			want: "50\n",
		},
		{
			name: "if-else with boolean",
			src: `main: function integer() = {
				x: integer = 3;
				if (x < 5) {
					print "small";
				} else {
					print "big";
				}
				return 0;
			}`,
			want: "small\n",
		},
		{
			name: "for-loop sum",
			src: `main: function integer() = {
				s: integer = 0;
				for (i: integer = 1; i <= 5; i++) {
					s = s + i;
				}
				print s;
				return 0;
			}`,
			want: "15\n",
		},
		{
			name: "function and recursion",
			src: `fact: function integer(n: integer) = {
				if (n <= 1) {
					return 1;
				} else {
					return n * fact(n-1);
				}
			}
			main: function integer() = {
				print fact(5);
				return 0;
			}`,
			want: "120\n",
		},
		{
			name: "array subscript and assignment",
			src: `main: function integer() = {
				a: array[3] integer = {10, 20, 30};
				a[1] = a[0] + a[2];
				print a[1];
				return 0;
			}`,
			want: "40\n",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, runProgram(t, tc.src))
		})
	}
}

// TestTypeErrorRejectionProducesNoIR is end-to-end scenario 6: a type
// mismatch on a global initializer must be caught by the semantic analyzer
// with no further stage (IR generation in particular) ever running.
func TestTypeErrorRejectionProducesNoIR(t *testing.T) {
	src := `x: integer = true;`

	bag := diag.New()
	toks := lexer.Tokenize(src, bag)
	require.False(t, bag.HasErrors())

	prog := parser.Parse(toks, bag)
	require.False(t, bag.HasErrors())

	sema.Analyze(prog, bag)
	assert.True(t, bag.HasErrors(), "assigning a boolean literal to an integer global must be rejected")
}
