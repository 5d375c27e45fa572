package protocol

import (
	"bytes"
	"embed"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed schemas/*.json
var schemaFS embed.FS

const schemaBase = "https://foundry.ai/schemas/"

// Validator checks inbound messages against the embedded JSON schemas.
type Validator struct {
	hello *jsonschema.Schema
	req   *jsonschema.Schema
}

func NewValidator() (*Validator, error) {
	c := jsonschema.NewCompiler()
	names := []string{"hello.schema.json", "req.schema.json"}
	for _, name := range names {
		b, err := schemaFS.ReadFile("schemas/" + name)
		if err != nil {
			return nil, err
		}
		if err := c.AddResource(schemaBase+name, bytes.NewReader(b)); err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
	}
	hello, err := c.Compile(schemaBase + "hello.schema.json")
	if err != nil {
		return nil, fmt.Errorf("compile hello: %w", err)
	}
	req, err := c.Compile(schemaBase + "req.schema.json")
	if err != nil {
		return nil, fmt.Errorf("compile req: %w", err)
	}
	return &Validator{hello: hello, req: req}, nil
}

func (v *Validator) ValidateHello(raw []byte) error { return validate(v.hello, raw) }
func (v *Validator) ValidateReq(raw []byte) error   { return validate(v.req, raw) }

func validate(s *jsonschema.Schema, raw []byte) error {
	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return Errorf(ErrProtoBadRequest, "invalid json: %v", err)
	}
	if err := s.Validate(doc); err != nil {
		return Errorf(ErrProtoBadRequest, "%v", err)
	}
	return nil
}
