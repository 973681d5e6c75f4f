// Package schema checks extracted records against their published JSON
// contracts before they are returned to callers.
package schema

import (
	"bytes"
	"embed"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/toricodesthings/medscan-service/internal/fields"
)

//go:embed schemas/*.json
var files embed.FS

type Validator struct {
	byKind map[fields.Kind]*jsonschema.Schema
}

// New compiles the record schemas.
func New() (*Validator, error) {
	v := &Validator{byKind: make(map[fields.Kind]*jsonschema.Schema, 2)}
	for _, kind := range []fields.Kind{fields.KindPrescription, fields.KindPatient} {
		s, err := compile(kind)
		if err != nil {
			return nil, err
		}
		v.byKind[kind] = s
	}
	return v, nil
}

func compile(kind fields.Kind) (*jsonschema.Schema, error) {
	b, err := Raw(kind)
	if err != nil {
		return nil, err
	}
	name := string(kind) + ".json"
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(name, bytes.NewReader(b)); err != nil {
		return nil, fmt.Errorf("add schema %s: %w", name, err)
	}
	s, err := compiler.Compile(name)
	if err != nil {
		return nil, fmt.Errorf("compile schema %s: %w", name, err)
	}
	return s, nil
}

// Raw returns the JSON Schema document for kind.
func Raw(kind fields.Kind) ([]byte, error) {
	b, err := files.ReadFile("schemas/" + string(kind) + ".json")
	if err != nil {
		return nil, fmt.Errorf("no schema for %q: %w", kind, err)
	}
	return b, nil
}

func (v *Validator) Validate(rec fields.Record) error {
	if rec == nil {
		return fmt.Errorf("nil record")
	}
	s, ok := v.byKind[rec.Kind()]
	if !ok {
		return fmt.Errorf("no schema for %q", rec.Kind())
	}

	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal record: %w", err)
	}
	var doc any
	if err := json.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("unmarshal record: %w", err)
	}
	if err := s.Validate(doc); err != nil {
		return fmt.Errorf("%s does not match schema: %w", rec.Kind(), err)
	}
	return nil
}
