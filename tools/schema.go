package tools

import "github.com/BaSui01/contextbench/types"

type param struct {
	name     string
	schema   *types.JSONSchema
	required bool
}

func req(name string, s *types.JSONSchema, desc string) param {
	return param{name: name, schema: s.WithDescription(desc), required: true}
}

func opt(name string, s *types.JSONSchema, desc string) param {
	return param{name: name, schema: s.WithDescription(desc)}
}

func str() *types.JSONSchema { return types.NewStringSchema() }
func num() *types.JSONSchema { return types.NewNumberSchema() }
func integer() *types.JSONSchema { return types.NewIntegerSchema() }
func nums() *types.JSONSchema { return types.NewArraySchema(types.NewNumberSchema()) }

// describe builds tool metadata with a closed object schema.
func describe(name, description string, class Class, params ...param) Metadata {
	s := types.NewObjectSchema().Closed()
	for _, p := range params {
		s.AddProperty(p.name, p.schema)
		if p.required {
			s.AddRequired(p.name)
		}
	}
	return Metadata{
		Schema: types.ToolSchema{
			Name:        name,
			Description: description,
			Parameters:  s.MustRaw(),
		},
		Class: class,
	}
}

// add registers fn under the schema's name.
func (r *Registry) add(meta Metadata, fn Handler) {
	r.MustRegister(meta.Schema.Name, fn, meta)
}
