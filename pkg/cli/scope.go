package cli

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/typeforge/typeforge/internal/typeparse"
	"github.com/typeforge/typeforge/internal/typesystem"
)

// scopeFile is the yaml shape of a scope description: variables, functions
// and classes with their types written as annotation strings.
type scopeFile struct {
	Language  string                   `yaml:"language,omitempty"`
	Variables map[string]string        `yaml:"variables,omitempty"`
	Functions map[string]scopeFunction `yaml:"functions,omitempty"`

	// Classes is a list, not a map: property declaration order matters
	// for grammars and path search.
	Classes []scopeClass `yaml:"classes,omitempty"`
}

type scopeFunction struct {
	Params []scopeParam `yaml:"params,omitempty"`
	Return string       `yaml:"return,omitempty"`
}

type scopeClass struct {
	Name       string       `yaml:"name"`
	Properties []scopeParam `yaml:"properties,omitempty"`
}

type scopeParam struct {
	Name string `yaml:"name"`
	Type string `yaml:"type"`
}

// LoadScope reads a yaml scope file into a typing context.
func LoadScope(path, language string) (*typesystem.TypeContext, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading scope %s: %w", path, err)
	}
	return ParseScope(data, language)
}

// ParseScope parses yaml scope content. language is the fallback when the
// file does not name one.
func ParseScope(data []byte, language string) (*typesystem.TypeContext, error) {
	var file scopeFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parsing scope: %w", err)
	}
	if file.Language != "" {
		language = file.Language
	}

	tctx := typesystem.NewContext(language)
	adapter := typeparse.NewTSAdapter(tctx)

	for name, annotation := range file.Variables {
		t, err := adapter.ParseType(annotation)
		if err != nil {
			return nil, fmt.Errorf("variable %q: %w", name, err)
		}
		tctx.Variables[name] = t
	}

	for name, fn := range file.Functions {
		sig := typesystem.FunctionSignature{Name: name}
		for _, p := range fn.Params {
			t, err := adapter.ParseType(p.Type)
			if err != nil {
				return nil, fmt.Errorf("function %q param %q: %w", name, p.Name, err)
			}
			sig.Params = append(sig.Params, typesystem.TypeParameter{Name: p.Name, Type: t})
		}
		if fn.Return != "" {
			t, err := adapter.ParseType(fn.Return)
			if err != nil {
				return nil, fmt.Errorf("function %q return: %w", name, err)
			}
			sig.Return = t
		} else {
			sig.Return = typesystem.Prim(typesystem.VoidName)
		}
		tctx.Functions[name] = sig
	}

	for _, class := range file.Classes {
		if class.Name == "" {
			return nil, fmt.Errorf("class entries need a name")
		}
		var props []typesystem.TypeParameter
		for _, p := range class.Properties {
			t, err := adapter.ParseType(p.Type)
			if err != nil {
				return nil, fmt.Errorf("class %q property %q: %w", class.Name, p.Name, err)
			}
			props = append(props, typesystem.TypeParameter{Name: p.Name, Type: t})
		}
		tctx.Classes[class.Name] = typesystem.NewClass(class.Name, props...)
	}

	return tctx, nil
}
