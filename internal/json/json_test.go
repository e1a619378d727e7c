package json

import "testing"

func TestMarshal_SortsKeys(t *testing.T) {
	v := map[string]any{
		"zeta":  1,
		"alpha": map[string]any{"y": true, "b": "x", "m": nil},
		"mid":   []any{map[string]any{"d": 1, "c": 2}},
	}
	want := `{"alpha":{"b":"x","m":null,"y":true},"mid":[{"c":2,"d":1}],"zeta":1}`

	for i := 0; i < 20; i++ {
		got, err := Marshal(v)
		if err != nil {
			t.Fatalf("Marshal() error = %v", err)
		}
		if string(got) != want {
			t.Fatalf("Marshal() = %s, want %s", got, want)
		}
	}
}

func TestValid(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{`{"a":1}`, true},
		{`[1,2]`, true},
		{`"s"`, true},
		{`{"a":`, false},
		{``, false},
	}
	for _, tt := range tests {
		if got := Valid([]byte(tt.input)); got != tt.want {
			t.Errorf("Valid(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}
