package rules

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/solatis/keyshift/internal/log"
	"github.com/solatis/keyshift/internal/types"
)

type warnRecorder struct {
	log.NoopLogger
	warnings []string
}

func (r *warnRecorder) Warn(err error, msg string, fields ...log.Fields) {
	r.warnings = append(r.warnings, msg)
}

func (r *warnRecorder) WithFields(log.Fields) log.Logger { return r }

func recruitSource() types.Document {
	return types.Document{
		"name": types.String("Sam"),
		"age":  types.String("31"),
		"id":   types.Int(7),
		"schools": types.Seq(
			types.Doc(types.Document{"school": types.String("MIT"), "year": types.Int(2010)}),
			types.Doc(types.Document{"school": types.String("ETH"), "year": types.Int(2014)}),
		),
		"address": types.Doc(types.Document{"city": types.String("Bern")}),
	}
}

func mustCompile(t *testing.T, m *types.Mapping) *CompiledMapping {
	t.Helper()
	compiled, err := Compile(m)
	if err != nil {
		t.Fatalf("Compile() error = %v", err)
	}
	return compiled
}

func TestExecute(t *testing.T) {
	tests := []struct {
		name    string
		mapping *types.Mapping
		want    types.Document
	}{
		{
			name: "copy and literal",
			mapping: &types.Mapping{Rules: []types.Rule{
				{Source: "name", Target: "person.name"},
				{Source: "address.city", Target: "person.city"},
				{Target: "person.kind", Value: "recruit"},
			}},
			want: types.Document{
				"person": types.Doc(types.Document{
					"name": types.String("Sam"),
					"city": types.String("Bern"),
					"kind": types.String("recruit"),
				}),
			},
		},
		{
			name: "missing source skipped",
			mapping: &types.Mapping{Rules: []types.Rule{
				{Source: "nope", Target: "x"},
				{Source: "name", Target: "n"},
			}},
			want: types.Document{"n": types.String("Sam")},
		},
		{
			name: "coerced copy",
			mapping: &types.Mapping{Rules: []types.Rule{
				{Source: "age", Target: "age", Coerce: "numeric"},
				{Source: "id", Target: "ref", Coerce: "text"},
			}},
			want: types.Document{"age": types.Number(31), "ref": types.String("7")},
		},
		{
			name: "failed coercion skips rule",
			mapping: &types.Mapping{Rules: []types.Rule{
				{Source: "name", Target: "age", Coerce: "numeric"},
			}},
			want: types.Document{},
		},
		{
			name: "later rule overwrites earlier",
			mapping: &types.Mapping{Rules: []types.Rule{
				{Source: "name", Target: "who"},
				{Target: "who", Value: "anonymous"},
			}},
			want: types.Document{"who": types.String("anonymous")},
		},
		{
			name: "copy source seeds scalars only",
			mapping: &types.Mapping{CopySource: true, Rules: []types.Rule{
				{Target: "extra", Value: true},
			}},
			want: types.Document{
				"name":  types.String("Sam"),
				"age":   types.String("31"),
				"id":    types.Int(7),
				"extra": types.Bool(true),
			},
		},
		{
			name: "each maps elements in order",
			mapping: &types.Mapping{Rules: []types.Rule{
				{Source: "schools", Target: "education", Each: []types.Rule{
					{Source: "school", Target: "institution"},
					{Source: "year", Target: "graduated", Coerce: "text"},
				}},
			}},
			want: types.Document{
				"education": types.Seq(
					types.Doc(types.Document{"institution": types.String("MIT"), "graduated": types.String("2010")}),
					types.Doc(types.Document{"institution": types.String("ETH"), "graduated": types.String("2014")}),
				),
			},
		},
		{
			name: "each with element copy source",
			mapping: &types.Mapping{Rules: []types.Rule{
				{Source: "schools", Target: "education", CopySource: true, Each: []types.Rule{
					{Target: "verified", Value: false},
				}},
			}},
			want: types.Document{
				"education": types.Seq(
					types.Doc(types.Document{"school": types.String("MIT"), "year": types.Int(2010), "verified": types.Bool(false)}),
					types.Doc(types.Document{"school": types.String("ETH"), "year": types.Int(2014), "verified": types.Bool(false)}),
				),
			},
		},
		{
			name: "each on non-sequence skipped",
			mapping: &types.Mapping{Rules: []types.Rule{
				{Source: "address", Target: "education", Each: []types.Rule{
					{Source: "city", Target: "c"},
				}},
			}},
			want: types.Document{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			source := recruitSource()
			got := Execute(mustCompile(t, tt.mapping), source, nil)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Execute() mismatch (-want +got):\n%s", diff)
			}
			if diff := cmp.Diff(recruitSource(), source); diff != "" {
				t.Errorf("Execute() modified source (-want +got):\n%s", diff)
			}
		})
	}
}

func TestExecute_LiteralNotShared(t *testing.T) {
	compiled := mustCompile(t, &types.Mapping{Rules: []types.Rule{
		{Target: "meta", Value: map[string]any{"v": 1}},
	}})

	first := Execute(compiled, types.Document{}, nil)
	meta, _ := first["meta"].AsDocument()
	meta["v"] = types.Int(99)

	second := Execute(compiled, types.Document{}, nil)
	want := types.Document{"meta": types.Doc(types.Document{"v": types.Int(1)})}
	if diff := cmp.Diff(want, second); diff != "" {
		t.Errorf("second Execute() mismatch (-want +got):\n%s", diff)
	}
}

func TestExecute_LogsCoercionFailure(t *testing.T) {
	rec := &warnRecorder{}
	compiled := mustCompile(t, &types.Mapping{Name: "warn", Rules: []types.Rule{
		{Source: "name", Target: "n", Coerce: "boolean"},
		{Source: "missing", Target: "m", Coerce: "boolean"},
	}})

	Execute(compiled, recruitSource(), rec)

	if len(rec.warnings) != 1 {
		t.Fatalf("got %d warnings, want 1: %v", len(rec.warnings), rec.warnings)
	}
}

func TestEngineRun(t *testing.T) {
	engine := NewEngine(nil)

	got, err := engine.Run(&types.Mapping{Rules: []types.Rule{
		{Source: "address.city", Target: "city"},
	}}, recruitSource())
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if diff := cmp.Diff(types.Document{"city": types.String("Bern")}, got); diff != "" {
		t.Errorf("Run() mismatch (-want +got):\n%s", diff)
	}

	_, err = engine.Run(&types.Mapping{Rules: []types.Rule{{Source: "a"}}}, recruitSource())
	if err == nil {
		t.Fatal("Run() expected compile error, got nil")
	}
}
