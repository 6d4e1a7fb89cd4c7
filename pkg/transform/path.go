package transform

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"
)

// PathQuerier resolves member and index paths (user.name, items[0],
// items[-1], items.#) inside a variable's value.
type PathQuerier interface {
	Query(path string, data interface{}) (interface{}, error)
}

// gjsonQuerier implements PathQuerier using github.com/tidwall/gjson
type gjsonQuerier struct{}

// NewPathQuerier creates a new path querier using gjson
func NewPathQuerier() PathQuerier {
	return &gjsonQuerier{}
}

// SplitPath splits a dotted/indexed reference into the root variable name and
// the remaining path. "user.tags[0]" yields ("user", "tags[0]");
// "items[2]" yields ("items", "[2]"); "x" yields ("x", "").
func SplitPath(ref string) (string, string) {
	ref = strings.TrimSpace(ref)
	i := strings.IndexAny(ref, ".[")
	if i < 0 {
		return ref, ""
	}
	rest := ref[i:]
	if rest[0] == '.' {
		rest = rest[1:]
	}
	return ref[:i], rest
}

// Query executes path against data. An empty path returns data unchanged.
func (q *gjsonQuerier) Query(path string, data interface{}) (interface{}, error) {
	if path == "" {
		return data, nil
	}
	if data == nil {
		return nil, ErrNilData
	}
	if err := validateBrackets(path); err != nil {
		return nil, err
	}

	jsonBytes, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal data: %w", err)
	}
	jsonStr := string(jsonBytes)

	segments, err := splitSegments(path)
	if err != nil {
		return nil, err
	}

	// Negative indexes are resolved against the length of the array they
	// index, one segment at a time.
	resolved := make([]string, 0, len(segments))
	for _, seg := range segments {
		if n, convErr := strconv.Atoi(seg); convErr == nil && n < 0 {
			length := gjson.Get(jsonStr, joinPath(resolved, "#"))
			if !length.Exists() {
				return nil, fmt.Errorf("%w: %s is not an array", ErrTypeMismatch, path)
			}
			seg = strconv.Itoa(int(length.Int()) + n)
		}
		resolved = append(resolved, seg)
	}

	result := gjson.Get(jsonStr, joinPath(resolved))
	if !result.Exists() {
		return nil, fmt.Errorf("%w: %s", ErrPathNotFound, path)
	}
	// The JSON text loses number types and precision; return the value
	// itself when the path can be followed through native collections.
	if v, ok := walkValue(data, resolved); ok {
		return v, nil
	}
	return convertGJSONResult(result), nil
}

// walkValue follows resolved gjson segments through maps and slices.
func walkValue(data interface{}, segments []string) (interface{}, bool) {
	cur := data
	for _, seg := range segments {
		key := unescapeSegment(seg)
		switch val := cur.(type) {
		case map[string]interface{}:
			next, ok := val[key]
			if !ok {
				return nil, false
			}
			cur = next
		case []interface{}:
			if key == "#" {
				cur = len(val)
				continue
			}
			i, err := strconv.Atoi(key)
			if err != nil || i < 0 || i >= len(val) {
				return nil, false
			}
			cur = val[i]
		default:
			return nil, false
		}
	}
	return cur, true
}

func unescapeSegment(seg string) string {
	if !strings.Contains(seg, "\\") {
		return seg
	}
	var b strings.Builder
	for i := 0; i < len(seg); i++ {
		if seg[i] == '\\' && i+1 < len(seg) {
			i++
		}
		b.WriteByte(seg[i])
	}
	return b.String()
}

// joinPath builds a gjson path from already escaped segments.
func joinPath(segments []string, extra ...string) string {
	all := append(append([]string{}, segments...), extra...)
	if len(all) == 0 {
		return "@this"
	}
	return strings.Join(all, ".")
}

// splitSegments converts "a.b[0][-1]" into ["a", "b", "0", "-1"], escaping
// gjson wildcard characters in member names.
func splitSegments(path string) ([]string, error) {
	var segments []string
	var cur strings.Builder
	flush := func() {
		if cur.Len() > 0 {
			segments = append(segments, cur.String())
			cur.Reset()
		}
	}

	for i := 0; i < len(path); i++ {
		c := path[i]
		switch c {
		case '.':
			flush()
		case '[':
			flush()
			end := strings.IndexByte(path[i:], ']')
			content := path[i+1 : i+end]
			if !isSimpleNumber(content) {
				return nil, fmt.Errorf("%w: index %q must be an integer", ErrInvalidPath, content)
			}
			segments = append(segments, content)
			i += end
		case '*', '?', '|', '@', '\\':
			cur.WriteByte('\\')
			cur.WriteByte(c)
		default:
			cur.WriteByte(c)
		}
	}
	flush()

	if len(segments) == 0 {
		return nil, ErrInvalidPath
	}
	return segments, nil
}

// validateBrackets checks that square brackets are balanced and not nested
func validateBrackets(path string) error {
	depth := 0
	for _, c := range path {
		switch c {
		case '[':
			depth++
			if depth > 1 {
				return ErrInvalidPath
			}
		case ']':
			depth--
			if depth < 0 {
				return ErrInvalidPath
			}
		}
	}
	if depth != 0 {
		return ErrInvalidPath
	}
	return nil
}

// isSimpleNumber checks if a string is a simple integer (positive or negative)
func isSimpleNumber(s string) bool {
	if s == "" {
		return false
	}
	if s[0] == '-' {
		s = s[1:]
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return len(s) > 0
}

// convertGJSONResult converts a gjson.Result to the appropriate Go type
func convertGJSONResult(result gjson.Result) interface{} {
	if !result.Exists() {
		return nil
	}

	switch result.Type {
	case gjson.Null:
		return nil
	case gjson.False:
		return false
	case gjson.True:
		return true
	case gjson.Number:
		// Integral numbers come back as int, matching the interpreter's literals
		if result.Num == float64(int64(result.Num)) {
			return int(result.Num)
		}
		return result.Num
	case gjson.String:
		return result.Str
	case gjson.JSON:
		var value interface{}
		if err := json.Unmarshal([]byte(result.Raw), &value); err != nil {
			return result.Raw
		}
		return value
	default:
		return result.Value()
	}
}
