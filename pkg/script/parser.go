package script

import (
	"regexp"
	"strings"

	"github.com/dshills/ttdb/pkg/transform"
)

var (
	identPattern   = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)
	letPattern     = regexp.MustCompile(`^let\s+([A-Za-z_][A-Za-z0-9_]*)\s*=\s*(.+)$`)
	setPattern     = regexp.MustCompile(`^([A-Za-z_][A-Za-z0-9_]*)(?:\[(.+?)\]|\.([A-Za-z_][A-Za-z0-9_]*))?\s*=([^=].*)$`)
	callPattern    = regexp.MustCompile(`^([A-Za-z_][A-Za-z0-9_]*)\s*\((.*)\)$`)
	fnPattern      = regexp.MustCompile(`^fn\s+([A-Za-z_][A-Za-z0-9_]*)\s*\(([^)]*)\)\s*\{$`)
	keywordPattern = regexp.MustCompile(`^(let|print|if|while|fn|call|return)\b`)
)

var reserved = map[string]bool{
	"let": true, "print": true, "if": true, "while": true, "fn": true,
	"call": true, "return": true, "true": true, "false": true, "nil": true,
}

// Parse parses source into a Program. All expressions are syntax-checked and
// every block opener is linked to its closing brace. The returned error is an
// *EvalError of type ErrorTypeSyntax.
func Parse(source string) (*Program, error) {
	lines := strings.Split(strings.ReplaceAll(source, "\r\n", "\n"), "\n")
	prog := &Program{lines: lines}

	var open []int
	fnDepth := 0
	for i, raw := range lines {
		lineNo := i + 1
		for _, text := range splitStatements(raw) {
			stmt, err := parseStatement(lineNo, text)
			if err != nil {
				return nil, err
			}

			idx := len(prog.Statements)
			switch {
			case stmt.Kind.opens():
				open = append(open, idx)
				if stmt.Kind == KindFunc {
					fnDepth++
				}
			case stmt.Kind == KindEnd:
				if len(open) == 0 {
					return nil, syntaxError(lineNo, text, "unexpected '}'")
				}
				opener := open[len(open)-1]
				open = open[:len(open)-1]
				stmt.Match = opener
				prog.Statements[opener].Match = idx
				if prog.Statements[opener].Kind == KindFunc {
					fnDepth--
				}
			case stmt.Kind == KindReturn && fnDepth == 0:
				return nil, syntaxError(lineNo, text, "return outside of a function")
			}
			prog.Statements = append(prog.Statements, stmt)
		}
	}

	if len(open) > 0 {
		unclosed := prog.Statements[open[len(open)-1]]
		return nil, syntaxError(unclosed.Line, unclosed.Text, "missing '}' for %s", unclosed.Kind)
	}
	return prog, nil
}

func parseStatement(line int, text string) (Statement, error) {
	stmt := Statement{Line: line, Text: text}

	switch {
	case text == "}":
		stmt.Kind = KindEnd
		return stmt, nil

	case text == "{":
		stmt.Kind = KindBlock
		return stmt, nil

	case hasKeyword(text, "fn"):
		m := fnPattern.FindStringSubmatch(text)
		if m == nil {
			return stmt, syntaxError(line, text, "malformed function definition")
		}
		stmt.Kind = KindFunc
		stmt.Name = m[1]
		if err := checkName(line, text, stmt.Name); err != nil {
			return stmt, err
		}
		for _, p := range splitTopLevel(m[2], ',') {
			if err := checkName(line, text, p); err != nil {
				return stmt, err
			}
			stmt.Params = append(stmt.Params, p)
		}
		return stmt, nil

	case hasKeyword(text, "if"), hasKeyword(text, "while"):
		if !strings.HasSuffix(text, "{") {
			return stmt, syntaxError(line, text, "expected '{' at end of line")
		}
		keyword, cond, _ := strings.Cut(text, " ")
		stmt.Kind = KindIf
		if keyword == "while" {
			stmt.Kind = KindWhile
		}
		stmt.Expr = strings.TrimSpace(strings.TrimSuffix(cond, "{"))
		return stmt, checkExpr(line, text, stmt.Expr)

	case hasKeyword(text, "print"):
		stmt.Kind = KindPrint
		stmt.Expr = strings.TrimSpace(strings.TrimPrefix(text, "print"))
		return stmt, checkExpr(line, text, stmt.Expr)

	case hasKeyword(text, "return"):
		stmt.Kind = KindReturn
		stmt.Expr = strings.TrimSpace(strings.TrimPrefix(text, "return"))
		if stmt.Expr == "" {
			return stmt, nil
		}
		return stmt, checkExpr(line, text, stmt.Expr)

	case hasKeyword(text, "call"):
		stmt.Kind = KindCall
		return stmt, parseCall(&stmt, strings.TrimSpace(strings.TrimPrefix(text, "call")))

	case hasKeyword(text, "let"):
		m := letPattern.FindStringSubmatch(text)
		if m == nil {
			return stmt, syntaxError(line, text, "malformed let statement")
		}
		stmt.Kind = KindLet
		stmt.Name = m[1]
		if err := checkName(line, text, stmt.Name); err != nil {
			return stmt, err
		}
		return stmt, parseValue(&stmt, m[2])
	}

	if m := setPattern.FindStringSubmatch(text); m != nil && !keywordPattern.MatchString(text) {
		stmt.Name = m[1]
		if err := checkName(line, text, stmt.Name); err != nil {
			return stmt, err
		}
		switch {
		case m[2] != "":
			stmt.Kind = KindSetIndex
			stmt.Index = strings.TrimSpace(m[2])
			if err := checkExpr(line, text, stmt.Index); err != nil {
				return stmt, err
			}
		case m[3] != "":
			stmt.Kind = KindSetIndex
			stmt.Index = `"` + m[3] + `"`
		default:
			stmt.Kind = KindAssign
		}
		if err := parseValue(&stmt, m[4]); err != nil {
			return stmt, err
		}
		if stmt.Kind == KindSetIndex && stmt.IsCall {
			return stmt, syntaxError(line, text, "call results can only be bound to a variable")
		}
		return stmt, nil
	}

	return stmt, syntaxError(line, text, "unrecognised statement")
}

// parseValue fills in the right-hand side of let/assign/set statements.
func parseValue(stmt *Statement, rhs string) error {
	rhs = strings.TrimSpace(rhs)
	if hasKeyword(rhs, "call") {
		stmt.IsCall = true
		return parseCall(stmt, strings.TrimSpace(strings.TrimPrefix(rhs, "call")))
	}
	stmt.Expr = rhs
	return checkExpr(stmt.Line, stmt.Text, rhs)
}

func parseCall(stmt *Statement, call string) error {
	m := callPattern.FindStringSubmatch(call)
	if m == nil {
		return syntaxError(stmt.Line, stmt.Text, "malformed call")
	}
	stmt.Callee = m[1]
	for _, arg := range splitTopLevel(m[2], ',') {
		if err := checkExpr(stmt.Line, stmt.Text, arg); err != nil {
			return err
		}
		stmt.Args = append(stmt.Args, arg)
	}
	return nil
}

func checkName(line int, text, name string) error {
	if !identPattern.MatchString(name) {
		return syntaxError(line, text, "invalid name %q", name)
	}
	if reserved[name] {
		return syntaxError(line, text, "%q is a reserved word", name)
	}
	return nil
}

func checkExpr(line int, text, expression string) error {
	if err := transform.ValidateSyntax(expression); err != nil {
		return &EvalError{
			Type:      ErrorTypeSyntax,
			Line:      line,
			Statement: text,
			Message:   err.Error(),
			Cause:     err,
		}
	}
	return nil
}

func hasKeyword(text, keyword string) bool {
	if !strings.HasPrefix(text, keyword) {
		return false
	}
	rest := text[len(keyword):]
	return rest == "" || rest[0] == ' ' || rest[0] == '\t'
}

// splitStatements splits one source line at top-level semicolons. A leading
// "}" is split off so that "} ; x = 1" and "}" forms both work. A top-level
// '#' outside quotes comments out the rest of the line.
func splitStatements(line string) []string {
	var out []string
	for _, piece := range splitTopLevel(stripComment(line), ';') {
		for strings.HasPrefix(piece, "}") && piece != "}" {
			out = append(out, "}")
			piece = strings.TrimSpace(piece[1:])
		}
		if piece != "" {
			out = append(out, piece)
		}
	}
	return out
}

// stripComment cuts line at the first '#' outside quotes and brackets.
// Nested '#' is left alone: expr-lang uses it inside predicates.
func stripComment(line string) string {
	depth := 0
	var quote byte
	for i := 0; i < len(line); i++ {
		c := line[i]
		switch {
		case quote != 0:
			if c == '\\' {
				i++
			} else if c == quote {
				quote = 0
			}
		case c == '"' || c == '\'' || c == '`':
			quote = c
		case c == '(' || c == '[':
			depth++
		case c == ')' || c == ']':
			depth = max(depth-1, 0)
		case c == '#' && depth == 0:
			return line[:i]
		}
	}
	return line
}

// splitTopLevel splits s at sep characters that are outside quotes,
// parentheses, brackets and braces. Empty pieces are dropped; pieces are trimmed.
func splitTopLevel(s string, sep byte) []string {
	var out []string
	depth := 0
	var quote byte
	start := 0
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case quote != 0:
			if c == '\\' {
				i++
			} else if c == quote {
				quote = 0
			}
		case c == '"' || c == '\'' || c == '`':
			quote = c
		case c == '(' || c == '[' || c == '{':
			depth++
		case c == ')' || c == ']' || c == '}':
			depth = max(depth-1, 0)
		case c == sep && depth == 0:
			if piece := strings.TrimSpace(s[start:i]); piece != "" {
				out = append(out, piece)
			}
			start = i + 1
		}
	}
	if piece := strings.TrimSpace(s[start:]); piece != "" {
		out = append(out, piece)
	}
	return out
}
