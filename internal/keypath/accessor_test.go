package keypath

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/solatis/keyshift/internal/types"
)

func mustDoc(t *testing.T, m map[string]any) types.Document {
	t.Helper()
	doc, err := types.DocumentFromMap(m)
	if err != nil {
		t.Fatalf("DocumentFromMap() error = %v", err)
	}
	return doc
}

func TestParsePath(t *testing.T) {
	tests := []struct {
		name    string
		path    string
		want    Path
		wantErr error
	}{
		{name: "single segment", path: "name", want: Path{"name"}},
		{name: "nested", path: "employee.details.name", want: Path{"employee", "details", "name"}},
		{name: "empty", path: "", wantErr: types.ErrEmptyPath},
		{name: "double dot", path: "a..b", wantErr: types.ErrEmptySegment},
		{name: "leading dot", path: ".a", wantErr: types.ErrEmptySegment},
		{name: "trailing dot", path: "a.", wantErr: types.ErrEmptySegment},
		{name: "lone dot", path: ".", wantErr: types.ErrEmptySegment},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParsePath(tt.path)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("ParsePath() error = %v, wantErr %v", err, tt.wantErr)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("ParsePath() mismatch (-want +got):\n%s", diff)
			}
			if tt.wantErr == nil && got.String() != tt.path {
				t.Errorf("String() = %q, want %q", got.String(), tt.path)
			}
		})
	}
}

func TestGet_Normal(t *testing.T) {
	doc := mustDoc(t, map[string]any{
		"name": "John",
		"age":  23,
		"employee": map[string]any{
			"details": map[string]any{"name": "Ada", "active": false},
		},
		"tags":    []any{"a", "b"},
		"nested":  []any{[]any{1, 2}, []any{3, []any{4}}},
		"nothing": nil,
	})

	tests := []struct {
		name     string
		path     string
		expected types.Value
	}{
		{name: "direct string", path: "name", expected: types.String("John")},
		{name: "direct number", path: "age", expected: types.Int(23)},
		{name: "deep nesting", path: "employee.details.name", expected: types.String("Ada")},
		{name: "falsy value", path: "employee.details.active", expected: types.Bool(false)},
		{name: "null is present", path: "nothing", expected: types.Null()},
		{
			name: "document returned as-is",
			path: "employee.details",
			expected: types.Doc(types.Document{
				"name":   types.String("Ada"),
				"active": types.Bool(false),
			}),
		},
		{name: "flat sequence", path: "tags", expected: types.Seq(types.String("a"), types.String("b"))},
		{
			name:     "nested sequences flattened",
			path:     "nested",
			expected: types.Seq(types.Int(1), types.Int(2), types.Int(3), types.Int(4)),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Get(doc, tt.path)
			if !ok {
				t.Fatalf("Get(%q) found = false, want true", tt.path)
			}
			if !got.Equal(tt.expected) {
				t.Errorf("Get(%q) = %v, expected %v", tt.path, got.ToAny(), tt.expected.ToAny())
			}
		})
	}
}

func TestGet_Misses(t *testing.T) {
	doc := mustDoc(t, map[string]any{
		"value": "scalar",
		"list":  []any{map[string]any{"name": "A"}},
		"user":  nil,
		"a":     map[string]any{"x": "wrong"},
	})

	tests := []struct {
		name string
		doc  types.Document
		path string
	}{
		{name: "missing top-level", doc: doc, path: "missing"},
		{name: "missing intermediate", doc: doc, path: "a.b.c"},
		{name: "scalar but path continues", doc: doc, path: "value.nested"},
		{name: "sequence but path continues", doc: doc, path: "list.name"},
		{name: "null at intermediate level", doc: doc, path: "user.name"},
		{name: "empty path", doc: doc, path: ""},
		{name: "empty segment", doc: doc, path: "a..x"},
		{name: "nil document", doc: nil, path: "a"},
		{name: "empty document", doc: types.Document{}, path: "a"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Get(tt.doc, tt.path)
			if ok {
				t.Errorf("Get(%q) found = true, want false (value %v)", tt.path, got.ToAny())
			}
			if !got.IsAbsent() {
				t.Errorf("Get(%q) kind = %v, want absent", tt.path, got.Kind())
			}
		})
	}
}

func TestGetPath_EmptyPath(t *testing.T) {
	if _, ok := GetPath(types.Document{"a": types.Int(1)}, Path{}); ok {
		t.Error("GetPath() with zero segments found = true, want false")
	}
}

func TestSet(t *testing.T) {
	tests := []struct {
		name     string
		initial  map[string]any
		path     string
		value    types.Value
		expected map[string]any
	}{
		{
			name:     "single segment",
			initial:  map[string]any{},
			path:     "name",
			value:    types.String("John"),
			expected: map[string]any{"name": "John"},
		},
		{
			name:     "creates intermediate documents",
			initial:  map[string]any{},
			path:     "employee.details.name",
			value:    types.String("John"),
			expected: map[string]any{"employee": map[string]any{"details": map[string]any{"name": "John"}}},
		},
		{
			name:     "merges into existing document",
			initial:  map[string]any{"employee": map[string]any{"id": 7}},
			path:     "employee.name",
			value:    types.String("John"),
			expected: map[string]any{"employee": map[string]any{"id": 7, "name": "John"}},
		},
		{
			name:     "overwrites leaf of another kind",
			initial:  map[string]any{"a": map[string]any{"deep": true}},
			path:     "a",
			value:    types.Int(1),
			expected: map[string]any{"a": 1},
		},
		{
			name:     "destructive set replaces scalar",
			initial:  map[string]any{"a": "scalar"},
			path:     "a.b",
			value:    types.Int(1),
			expected: map[string]any{"a": map[string]any{"b": 1}},
		},
		{
			name:     "destructive set replaces sequence",
			initial:  map[string]any{"a": []any{1, 2}},
			path:     "a.b",
			value:    types.Int(1),
			expected: map[string]any{"a": map[string]any{"b": 1}},
		},
		{
			name:     "destructive set replaces null",
			initial:  map[string]any{"a": nil},
			path:     "a.b",
			value:    types.Null(),
			expected: map[string]any{"a": map[string]any{"b": nil}},
		},
		{
			name:     "invalid path leaves document unchanged",
			initial:  map[string]any{"a": 1},
			path:     "a..b",
			value:    types.Int(2),
			expected: map[string]any{"a": 1},
		},
		{
			name:     "absent value leaves document unchanged",
			initial:  map[string]any{"a": 1},
			path:     "b.c",
			value:    types.Value{},
			expected: map[string]any{"a": 1},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Set(mustDoc(t, tt.initial), tt.path, tt.value)
			if diff := cmp.Diff(mustDoc(t, tt.expected), got); diff != "" {
				t.Errorf("Set() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestSet_NilDocument(t *testing.T) {
	got := Set(nil, "a.b", types.String("x"))
	want := types.Document{"a": types.Doc(types.Document{"b": types.String("x")})}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Set() mismatch (-want +got):\n%s", diff)
	}
}

func TestSet_MutatesInPlace(t *testing.T) {
	doc := types.Document{"a": types.Doc(types.Document{})}
	inner, _ := doc["a"].AsDocument()

	Set(doc, "a.b", types.Int(1))

	if _, ok := inner["b"]; !ok {
		t.Error("Set() did not write into the existing nested document")
	}
}

func TestSet_Overwrite(t *testing.T) {
	doc := Set(nil, "x.y", types.Int(1))
	doc = Set(doc, "x.y", types.Int(2))

	got, ok := Get(doc, "x.y")
	if !ok || !got.Equal(types.Int(2)) {
		t.Errorf("Get() after two sets = %v, want 2", got.ToAny())
	}
}

func TestFlatten(t *testing.T) {
	tests := []struct {
		name     string
		input    []any
		expected []any
	}{
		{name: "empty", input: []any{}, expected: []any{}},
		{name: "already flat", input: []any{1, "a", true}, expected: []any{1, "a", true}},
		{name: "one level", input: []any{[]any{1, 2}, 3}, expected: []any{1, 2, 3}},
		{name: "deep", input: []any{[]any{[]any{[]any{1}}}, []any{2}}, expected: []any{1, 2}},
		{name: "empty inner sequences vanish", input: []any{[]any{}, 1, []any{[]any{}}}, expected: []any{1}},
		{
			name:     "documents are elements",
			input:    []any{[]any{map[string]any{"list": []any{[]any{1}}}}},
			expected: []any{map[string]any{"list": []any{[]any{1}}}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in, _ := types.MustFromAny(tt.input).AsSequence()
			want, _ := types.MustFromAny(tt.expected).AsSequence()
			got := Flatten(in)
			if !types.Seq(got...).Equal(types.Seq(want...)) {
				t.Errorf("Flatten() = %v, expected %v", types.Seq(got...).ToAny(), tt.expected)
			}
		})
	}
}

// Property-based test: set then get returns the value written
func TestSetGet_PropertyRoundTrip(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("get(set(empty, p, get(d, p)), p) == get(d, p)", prop.ForAll(
		func(segments []string, depth int, n float64, s string) bool {
			path := Path(segments[:depth]).String()

			d := Set(nil, path, types.Doc(types.Document{
				"n":    types.Number(n),
				"s":    types.String(s),
				"list": types.Seq(types.Seq(types.Number(n)), types.String(s)),
			}))

			original, ok := Get(d, path)
			if !ok {
				return false
			}
			copied := Set(types.Document{}, path, original)
			got, ok := Get(copied, path)
			return ok && got.Equal(original)
		},
		gen.SliceOfN(6, gen.Identifier()),
		gen.IntRange(1, 6),
		gen.Float64(),
		gen.AlphaString(),
	))

	properties.TestingRun(t)
}

// Property-based test: last write wins
func TestSet_PropertyOverwrite(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	properties.Property("second set on the same path wins", prop.ForAll(
		func(segments []string, depth int, v1, v2 string) bool {
			path := Path(segments[:depth]).String()
			doc := Set(nil, path, types.String(v1))
			doc = Set(doc, path, types.String(v2))
			got, ok := Get(doc, path)
			return ok && got.Equal(types.String(v2))
		},
		gen.SliceOfN(4, gen.Identifier()),
		gen.IntRange(1, 4),
		gen.AlphaString(),
		gen.AlphaString(),
	))

	properties.TestingRun(t)
}

// Property-based test: resolution never panics regardless of shape
func TestGet_PropertyNeverPanics(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	doc := types.Document{
		"key": types.Seq(types.Doc(types.Document{"key": types.String("value")})),
		"doc": types.Doc(types.Document{"key": types.Null()}),
	}

	properties.Property("get never panics", prop.ForAll(
		func(path string) (ok bool) {
			defer func() {
				if r := recover(); r != nil {
					t.Errorf("Get(%q) panicked: %v", path, r)
					ok = false
				}
			}()
			_, _ = Get(doc, path)
			_ = Set(doc.Clone(), path, types.Int(1))
			return true
		},
		gen.OneGenOf(
			gen.Const("key.key"),
			gen.Const("doc.key.deeper"),
			gen.Const(".."),
			gen.AnyString(),
		),
	))

	properties.TestingRun(t)
}
