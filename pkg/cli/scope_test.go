package cli

import (
	"strings"
	"testing"

	"github.com/typeforge/typeforge/internal/typesystem"
)

func TestParseScope(t *testing.T) {
	data := []byte(`
language: typescript
variables:
  count: number
  person: Person
functions:
  toString:
    params:
      - {name: value, type: number}
    return: string
  log:
    params:
      - {name: message, type: string}
classes:
  - name: Person
    properties:
      - {name: name, type: string}
      - {name: age, type: number}
`)
	tctx, err := ParseScope(data, "python")
	if err != nil {
		t.Fatalf("ParseScope: %v", err)
	}

	if tctx.Language != "typescript" {
		t.Errorf("language = %q, file should override the fallback", tctx.Language)
	}
	if got := tctx.Variables["count"]; !got.Equal(typesystem.Prim(typesystem.NumberName)) {
		t.Errorf("count = %s", got)
	}

	toString, ok := tctx.Functions["toString"]
	if !ok {
		t.Fatalf("toString missing")
	}
	if len(toString.Params) != 1 || !toString.Return.Equal(typesystem.Prim(typesystem.StringName)) {
		t.Errorf("toString = %+v", toString)
	}
	if log := tctx.Functions["log"]; !log.Return.Equal(typesystem.Prim(typesystem.VoidName)) {
		t.Errorf("omitted return should be void, got %s", log.Return)
	}

	person, ok := tctx.Classes["Person"]
	if !ok {
		t.Fatalf("Person missing")
	}
	if want := []string{"name", "age"}; person.PropertyOrder[0] != want[0] || person.PropertyOrder[1] != want[1] {
		t.Errorf("property order = %v, want %v", person.PropertyOrder, want)
	}
}

func TestParseScopeErrors(t *testing.T) {
	tests := []struct {
		name string
		data string
		want string
	}{
		{"bad variable type", "variables:\n  x: Array<\n", "variable \"x\""},
		{"class without name", "classes:\n  - properties: []\n", "need a name"},
		{"malformed yaml", "variables: [", "parsing scope"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseScope([]byte(tt.data), "typescript")
			if err == nil {
				t.Fatalf("expected error containing %q", tt.want)
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error = %v, want containing %q", err, tt.want)
			}
		})
	}
}

func TestParseArgs(t *testing.T) {
	opts, err := parseArgs([]string{"-scope", "scope.yaml", "person.name", "-depth", "3", "-base", "p"})
	if err != nil {
		t.Fatalf("parseArgs: %v", err)
	}
	if opts.scopePath != "scope.yaml" || opts.depth != 3 || opts.base != "p" {
		t.Errorf("opts = %+v", opts)
	}
	if len(opts.positional) != 1 || opts.positional[0] != "person.name" {
		t.Errorf("positional = %v", opts.positional)
	}

	if _, err := parseArgs([]string{"-depth", "zero"}); err == nil {
		t.Errorf("invalid depth should error")
	}
	if _, err := parseArgs([]string{"-scope"}); err == nil {
		t.Errorf("dangling flag should error")
	}
	if _, err := parseArgs([]string{"-frobnicate"}); err == nil {
		t.Errorf("unknown flag should error")
	}
}
