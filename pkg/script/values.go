package script

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/dshills/ttdb/pkg/domain/scope"
)

// FormatValue renders a value the way the debugger displays it: strings are
// quoted, collections are rendered recursively with map keys sorted.
func FormatValue(v scope.Value) string {
	var b strings.Builder
	writeValue(&b, v, true)
	return b.String()
}

// Display renders a value for program output: a top-level string is written
// without quotes.
func Display(v scope.Value) string {
	if s, ok := v.(string); ok {
		return s
	}
	return FormatValue(v)
}

func writeValue(b *strings.Builder, v scope.Value, quote bool) {
	switch val := v.(type) {
	case nil:
		b.WriteString("nil")
	case string:
		if quote {
			b.WriteString(strconv.Quote(val))
		} else {
			b.WriteString(val)
		}
	case float64:
		b.WriteString(strconv.FormatFloat(val, 'g', -1, 64))
	case []interface{}:
		b.WriteByte('[')
		for i, item := range val {
			if i > 0 {
				b.WriteString(", ")
			}
			writeValue(b, item, true)
		}
		b.WriteByte(']')
	case map[string]interface{}:
		keys := make([]string, 0, len(val))
		for k := range val {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		b.WriteByte('{')
		for i, k := range keys {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString(k)
			b.WriteString(": ")
			writeValue(b, val[k], true)
		}
		b.WriteByte('}')
	case *scope.Function:
		b.WriteString(val.String())
	default:
		fmt.Fprintf(b, "%v", val)
	}
}
