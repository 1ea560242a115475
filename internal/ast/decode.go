package ast

import (
	"encoding/json"
	"fmt"

	"github.com/typeforge/typeforge/internal/typesystem"
)

// TypeParser resolves a type annotation string during decoding. Callers
// supply the language adapter's parser; it is only consulted for function
// literals, the one node kind that carries annotations.
type TypeParser func(text string) (typesystem.Type, error)

// jsonNode is the wire shape of one expression node.
type jsonNode struct {
	Kind     string          `json:"kind"`
	Type     string          `json:"type,omitempty"`     // literal
	Value    string          `json:"value,omitempty"`    // literal
	Name     string          `json:"name,omitempty"`     // identifier
	Callee   json.RawMessage `json:"callee,omitempty"`   // call
	Args     []json.RawMessage `json:"args,omitempty"`   // call
	Object   json.RawMessage `json:"object,omitempty"`   // member
	Property string          `json:"property,omitempty"` // member
	Elements []json.RawMessage `json:"elements,omitempty"` // array
	Fields   []jsonField     `json:"fields,omitempty"`   // object
	Params   []jsonParam     `json:"params,omitempty"`   // function
	Return   string          `json:"return,omitempty"`   // function
	Body     json.RawMessage `json:"body,omitempty"`     // function
}

type jsonField struct {
	Name  string          `json:"name"`
	Value json.RawMessage `json:"value"`
}

type jsonParam struct {
	Name string `json:"name"`
	Type string `json:"type,omitempty"`
}

// Decode parses the JSON encoding of an expression tree. parseType may be
// nil when the input is known to contain no function literals.
func Decode(data []byte, parseType TypeParser) (Expression, error) {
	var node jsonNode
	if err := json.Unmarshal(data, &node); err != nil {
		return nil, fmt.Errorf("decoding expression: %w", err)
	}
	return node.build(parseType)
}

func decodeRaw(raw json.RawMessage, parseType TypeParser) (Expression, error) {
	if len(raw) == 0 {
		return nil, fmt.Errorf("missing expression node")
	}
	return Decode(raw, parseType)
}

func (n *jsonNode) build(parseType TypeParser) (Expression, error) {
	switch n.Kind {
	case "literal":
		kind, err := literalKind(n.Type)
		if err != nil {
			return nil, err
		}
		return &Literal{Kind: kind, Raw: n.Value}, nil

	case "identifier":
		if n.Name == "" {
			return nil, fmt.Errorf("identifier node needs a name")
		}
		return &Identifier{Name: n.Name}, nil

	case "call":
		callee, err := decodeRaw(n.Callee, parseType)
		if err != nil {
			return nil, fmt.Errorf("call callee: %w", err)
		}
		args := make([]Expression, len(n.Args))
		for i, raw := range n.Args {
			if args[i], err = decodeRaw(raw, parseType); err != nil {
				return nil, fmt.Errorf("call arg %d: %w", i, err)
			}
		}
		return &Call{Callee: callee, Args: args}, nil

	case "member":
		obj, err := decodeRaw(n.Object, parseType)
		if err != nil {
			return nil, fmt.Errorf("member object: %w", err)
		}
		if n.Property == "" {
			return nil, fmt.Errorf("member node needs a property")
		}
		return &Member{Object: obj, Property: n.Property}, nil

	case "array":
		elems := make([]Expression, len(n.Elements))
		var err error
		for i, raw := range n.Elements {
			if elems[i], err = decodeRaw(raw, parseType); err != nil {
				return nil, fmt.Errorf("array element %d: %w", i, err)
			}
		}
		return &Array{Elements: elems}, nil

	case "object":
		fields := make([]ObjectField, len(n.Fields))
		for i, f := range n.Fields {
			value, err := decodeRaw(f.Value, parseType)
			if err != nil {
				return nil, fmt.Errorf("object field %q: %w", f.Name, err)
			}
			fields[i] = ObjectField{Name: f.Name, Value: value}
		}
		return &Object{Fields: fields}, nil

	case "function":
		fn := &Function{}
		for _, p := range n.Params {
			param := FunctionParam{Name: p.Name}
			if p.Type != "" {
				if parseType == nil {
					return nil, fmt.Errorf("function param %q has a type annotation but no type parser was supplied", p.Name)
				}
				t, err := parseType(p.Type)
				if err != nil {
					return nil, fmt.Errorf("function param %q: %w", p.Name, err)
				}
				param.Type = t
				param.Annotated = true
			}
			fn.Params = append(fn.Params, param)
		}
		if n.Return != "" {
			if parseType == nil {
				return nil, fmt.Errorf("function return annotation needs a type parser")
			}
			t, err := parseType(n.Return)
			if err != nil {
				return nil, fmt.Errorf("function return: %w", err)
			}
			fn.Return = t
			fn.Declared = true
		}
		if len(n.Body) > 0 {
			body, err := decodeRaw(n.Body, parseType)
			if err != nil {
				return nil, fmt.Errorf("function body: %w", err)
			}
			fn.Body = body
		}
		return fn, nil

	case "":
		return nil, fmt.Errorf("expression node needs a kind")
	default:
		return nil, fmt.Errorf("unknown expression kind %q", n.Kind)
	}
}

func literalKind(name string) (LiteralKind, error) {
	switch name {
	case "number":
		return NumberLiteral, nil
	case "string":
		return StringLiteral, nil
	case "boolean":
		return BooleanLiteral, nil
	case "null":
		return NullLiteral, nil
	default:
		return 0, fmt.Errorf("unknown literal type %q", name)
	}
}
