package typesystem

// TypeParameter is a named, typed function parameter.
type TypeParameter struct {
	Name     string
	Type     Type
	Optional bool
}

// FunctionSignature describes a callable known to the scope.
type FunctionSignature struct {
	Name    string
	Params  []TypeParameter
	Return  Type
	IsAsync bool
}

// AsType collapses the signature into a single function type,
// function(paramTypes..., returnType), for uniform handling.
func (fs FunctionSignature) AsType() Type {
	params := make([]Type, len(fs.Params))
	for i, p := range fs.Params {
		params[i] = p.Type
	}
	return Function(params, fs.Return)
}

// ClassType describes a nominal class with typed properties and methods.
// PropertyOrder preserves declaration order — grammars and path search
// must be deterministic, and Go maps are not.
type ClassType struct {
	Name          string
	Properties    map[string]Type
	PropertyOrder []string
	Methods       map[string]FunctionSignature
}

// NewClass builds a ClassType from (name, type) property pairs,
// recording declaration order.
func NewClass(name string, props ...TypeParameter) ClassType {
	c := ClassType{
		Name:       name,
		Properties: make(map[string]Type, len(props)),
		Methods:    map[string]FunctionSignature{},
	}
	for _, p := range props {
		c.Properties[p.Name] = p.Type
		c.PropertyOrder = append(c.PropertyOrder, p.Name)
	}
	return c
}

// Property returns the declared property type, if present.
func (c ClassType) Property(name string) (Type, bool) {
	t, ok := c.Properties[name]
	return t, ok
}

// InterfaceType describes a structural interface as an ordered method list.
type InterfaceType struct {
	Name    string
	Methods []FunctionSignature
}
