package script

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_StatementKinds(t *testing.T) {
	tests := []struct {
		name  string
		src   string
		check func(t *testing.T, s Statement)
	}{
		{"let", "let x = 1 + 2", func(t *testing.T, s Statement) {
			assert.Equal(t, KindLet, s.Kind)
			assert.Equal(t, "x", s.Name)
			assert.Equal(t, "1 + 2", s.Expr)
		}},
		{"assign", "x = x * 2", func(t *testing.T, s Statement) {
			assert.Equal(t, KindAssign, s.Kind)
			assert.Equal(t, "x", s.Name)
			assert.Equal(t, "x * 2", s.Expr)
		}},
		{"assign to name starting with keyword", "fname = 3", func(t *testing.T, s Statement) {
			assert.Equal(t, KindAssign, s.Kind)
			assert.Equal(t, "fname", s.Name)
		}},
		{"index set", "xs[i + 1] = 0", func(t *testing.T, s Statement) {
			assert.Equal(t, KindSetIndex, s.Kind)
			assert.Equal(t, "xs", s.Name)
			assert.Equal(t, "i + 1", s.Index)
			assert.Equal(t, "0", s.Expr)
		}},
		{"member set", "user.name = \"bob\"", func(t *testing.T, s Statement) {
			assert.Equal(t, KindSetIndex, s.Kind)
			assert.Equal(t, "user", s.Name)
			assert.Equal(t, `"name"`, s.Index)
		}},
		{"print", `print "hi " + name`, func(t *testing.T, s Statement) {
			assert.Equal(t, KindPrint, s.Kind)
			assert.Equal(t, `"hi " + name`, s.Expr)
		}},
		{"call", "call f(1, [2, 3], {\"a\": 1})", func(t *testing.T, s Statement) {
			assert.Equal(t, KindCall, s.Kind)
			assert.Equal(t, "f", s.Callee)
			assert.Equal(t, []string{"1", "[2, 3]", `{"a": 1}`}, s.Args)
		}},
		{"let call", "let r = call add(a, b)", func(t *testing.T, s Statement) {
			assert.Equal(t, KindLet, s.Kind)
			assert.True(t, s.IsCall)
			assert.Equal(t, "add", s.Callee)
			assert.Equal(t, []string{"a", "b"}, s.Args)
		}},
		{"assign call", "r = call noop()", func(t *testing.T, s Statement) {
			assert.Equal(t, KindAssign, s.Kind)
			assert.True(t, s.IsCall)
			assert.Empty(t, s.Args)
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			prog, err := Parse(tt.src)
			require.NoError(t, err)
			require.Equal(t, 1, prog.Len())
			s := prog.Statements[0]
			assert.Equal(t, 1, s.Line)
			assert.Equal(t, tt.src, s.Text)
			tt.check(t, s)
		})
	}
}

func TestParse_Blocks(t *testing.T) {
	src := `fn add(a, b) {
  return a + b
}
let i = 0
while i < 3 {
  if i == 1 {
    print i
  }
  i = i + 1
}
{
  let tmp = 1
}`
	prog, err := Parse(src)
	require.NoError(t, err)

	kinds := make([]StmtKind, prog.Len())
	for i, s := range prog.Statements {
		kinds[i] = s.Kind
	}
	assert.Equal(t, []StmtKind{
		KindFunc, KindReturn, KindEnd,
		KindLet,
		KindWhile, KindIf, KindPrint, KindEnd, KindAssign, KindEnd,
		KindBlock, KindLet, KindEnd,
	}, kinds)

	fn := prog.Statements[0]
	assert.Equal(t, "add", fn.Name)
	assert.Equal(t, []string{"a", "b"}, fn.Params)
	assert.Equal(t, 2, fn.Match)
	assert.Equal(t, 0, prog.Statements[2].Match)

	assert.Equal(t, 9, prog.Statements[4].Match, "while links to its brace")
	assert.Equal(t, 7, prog.Statements[5].Match, "if links to its brace")
	assert.Equal(t, "i < 3", prog.Statements[4].Expr)
}

func TestParse_SeparatorsAndComments(t *testing.T) {
	src := "let x = 5; let y = 10; let z = x + y\n# a comment\n\nprint \"a;b\"; # trailing\nlet s = \"#not a comment\""
	prog, err := Parse(src)
	require.NoError(t, err)
	require.Equal(t, 5, prog.Len())

	assert.Equal(t, []int{1, 1, 1, 4, 5}, []int{
		prog.Statements[0].Line, prog.Statements[1].Line, prog.Statements[2].Line,
		prog.Statements[3].Line, prog.Statements[4].Line,
	})
	assert.Equal(t, `"a;b"`, prog.Statements[3].Expr)
	assert.Equal(t, `"#not a comment"`, prog.Statements[4].Expr)

	assert.Len(t, prog.StatementsAt(1), 3)
	assert.Empty(t, prog.StatementsAt(2))
	assert.True(t, prog.HasLine(4))
	assert.False(t, prog.HasLine(3))
	assert.Equal(t, 5, prog.LineCount())
	assert.Equal(t, "# a comment", prog.LineToSource(2))
	assert.Equal(t, "", prog.LineToSource(0))
	assert.Equal(t, "", prog.LineToSource(6))
}

func TestParse_TrailingComments(t *testing.T) {
	src := "let x = 1 # one\nwhile x < 3 { # loop\n  x = x + 1 # bump\n} # done\nlet m = {\"k#\": [1, 2]} # map\nlet n = len(filter([1, 2, 3], {# > 1}))"
	prog, err := Parse(src)
	require.NoError(t, err)
	require.Equal(t, 6, prog.Len())

	assert.Equal(t, "let x = 1", prog.Statements[0].Text)
	assert.Equal(t, "1", prog.Statements[0].Expr)
	assert.Equal(t, KindWhile, prog.Statements[1].Kind)
	assert.Equal(t, "x < 3", prog.Statements[1].Expr)
	assert.Equal(t, "x + 1", prog.Statements[2].Expr)
	assert.Equal(t, KindEnd, prog.Statements[3].Kind)
	assert.Equal(t, `{"k#": [1, 2]}`, prog.Statements[4].Expr)
	assert.Equal(t, "len(filter([1, 2, 3], {# > 1}))", prog.Statements[5].Expr)
	assert.Equal(t, "let x = 1 # one", prog.LineToSource(1))

	in := NewInterpreter(prog)
	for !in.Done() {
		require.NoError(t, in.Advance())
	}
	v, ok := in.Lookup("x")
	require.True(t, ok)
	assert.Equal(t, 3, v)
	v, _ = in.Lookup("n")
	assert.Equal(t, 2, v)
}

func TestParse_ClosingBraceFollowedByStatement(t *testing.T) {
	prog, err := Parse("if true {\nlet a = 1\n}; let b = 2")
	require.NoError(t, err)
	require.Equal(t, 4, prog.Len())
	assert.Equal(t, KindEnd, prog.Statements[2].Kind)
	assert.Equal(t, KindLet, prog.Statements[3].Kind)
	assert.Equal(t, 3, prog.Statements[3].Line)
}

func TestParse_Empty(t *testing.T) {
	prog, err := Parse("\n# nothing here\n")
	require.NoError(t, err)
	assert.Equal(t, 0, prog.Len())
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		line int
	}{
		{"unknown statement", "let x = 1\nfoo bar", 2},
		{"bad expression", "let x = 1 +", 1},
		{"missing brace", "if x > 1 {\nprint x", 1},
		{"unexpected brace", "let a = 1\n}", 2},
		{"if without brace", "if x > 1", 1},
		{"return outside function", "return 1", 1},
		{"reserved name", "let print = 1", 1},
		{"malformed fn", "fn (a) {", 1},
		{"malformed call", "call 1abc()", 1},
		{"call bound to index", "xs[0] = call f()", 1},
		{"unsafe expression", "let x = os.Exit(1)", 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.src)
			require.Error(t, err)

			var evalErr *EvalError
			require.True(t, errors.As(err, &evalErr))
			assert.Equal(t, ErrorTypeSyntax, evalErr.Type)
			assert.Equal(t, tt.line, evalErr.Line)
		})
	}
}

func TestStatement_Expressions(t *testing.T) {
	prog, err := Parse("xs[i] = call_me + 1\ncall f(a, b + 1)")
	require.NoError(t, err)

	assert.Equal(t, []string{"i", "call_me + 1"}, prog.Statements[0].Expressions())
	assert.Equal(t, []string{"a", "b + 1"}, prog.Statements[1].Expressions())
}

func TestEvalError(t *testing.T) {
	cause := errors.New("boom")
	err := &EvalError{Type: ErrorTypeRuntime, Line: 3, Message: "bad", Cause: cause}
	assert.Equal(t, "[runtime] line 3: bad", err.Error())
	assert.ErrorIs(t, err, cause)

	noLine := &EvalError{Type: ErrorTypeLimit, Message: "too much"}
	assert.Equal(t, "[limit] too much", noLine.Error())

	var nilErr *EvalError
	assert.Equal(t, "<nil>", nilErr.Error())
	assert.NoError(t, nilErr.Unwrap())
}
