package transform

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitPath(t *testing.T) {
	tests := []struct {
		ref      string
		wantRoot string
		wantRest string
	}{
		{"x", "x", ""},
		{"user.name", "user", "name"},
		{"user.tags[0]", "user", "tags[0]"},
		{"items[2]", "items", "[2]"},
		{"  spaced  ", "spaced", ""},
	}
	for _, tt := range tests {
		root, rest := SplitPath(tt.ref)
		assert.Equal(t, tt.wantRoot, root, tt.ref)
		assert.Equal(t, tt.wantRest, rest, tt.ref)
	}
}

func TestPathQuerier_Query(t *testing.T) {
	q := NewPathQuerier()
	data := map[string]interface{}{
		"name":  "ada",
		"age":   36,
		"score": 9.5,
		"tags":  []interface{}{"math", "engines", "poetry"},
		"meta":  map[string]interface{}{"active": true, "boss": nil},
		"grid":  []interface{}{[]interface{}{1, 2}, []interface{}{3, 4}},
		"a*b":   "starred",
	}

	tests := []struct {
		name string
		path string
		want interface{}
	}{
		{"empty path", "", data},
		{"string field", "name", "ada"},
		{"int field stays int", "age", 36},
		{"float field", "score", 9.5},
		{"nested bool", "meta.active", true},
		{"explicit null", "meta.boss", nil},
		{"index", "tags[1]", "engines"},
		{"negative index", "tags[-1]", "poetry"},
		{"length", "tags.#", 3},
		{"nested index", "grid[1][0]", 3},
		{"nested negative index", "grid[-1][-1]", 4},
		{"subtree", "meta", map[string]interface{}{"active": true, "boss": nil}},
		{"wildcard characters are literal", "a*b", "starred"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := q.Query(tt.path, data)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPathQuerier_QueryArrayRoot(t *testing.T) {
	q := NewPathQuerier()
	data := []interface{}{10, 20, 30}

	got, err := q.Query("[0]", data)
	require.NoError(t, err)
	assert.Equal(t, 10, got)

	got, err = q.Query("[-2]", data)
	require.NoError(t, err)
	assert.Equal(t, 20, got)
}

func TestPathQuerier_Errors(t *testing.T) {
	q := NewPathQuerier()
	data := map[string]interface{}{"tags": []interface{}{"a"}, "n": 1}

	tests := []struct {
		name    string
		path    string
		data    interface{}
		wantErr error
	}{
		{"missing field", "nope", data, ErrPathNotFound},
		{"index out of range", "tags[5]", data, ErrPathNotFound},
		{"member of scalar", "n.x", data, ErrPathNotFound},
		{"negative index on non array", "n[-1]", data, ErrTypeMismatch},
		{"non numeric index", "tags[x]", data, ErrInvalidPath},
		{"unbalanced brackets", "tags[0", data, ErrInvalidPath},
		{"nested brackets", "tags[[0]]", data, ErrInvalidPath},
		{"nil data", "x", nil, ErrNilData},
		{"only separators", "..", data, ErrInvalidPath},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := q.Query(tt.path, tt.data)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestPathQuerier_KeepsNativeValues(t *testing.T) {
	q := NewPathQuerier()
	inner := []interface{}{1.0, 2}
	data := map[string]interface{}{
		"big":   9007199254740993,
		"whole": 4.0,
		"list":  inner,
		"k*":    map[string]interface{}{"n": int64(7)},
	}

	got, err := q.Query("big", data)
	require.NoError(t, err)
	assert.Equal(t, 9007199254740993, got)

	got, err = q.Query("whole", data)
	require.NoError(t, err)
	assert.Equal(t, 4.0, got)

	got, err = q.Query("list[0]", data)
	require.NoError(t, err)
	assert.Equal(t, 1.0, got)

	got, err = q.Query("k*.n", data)
	require.NoError(t, err)
	assert.Equal(t, int64(7), got)

	got, err = q.Query("list", data)
	require.NoError(t, err)
	assert.Same(t, &inner[0], &got.([]interface{})[0])
}

func TestPathQuerier_OtherCollectionTypes(t *testing.T) {
	q := NewPathQuerier()
	data := map[string]interface{}{"counts": map[string]int{"a": 3}}

	got, err := q.Query("counts.a", data)
	require.NoError(t, err)
	assert.Equal(t, 3, got)
}
