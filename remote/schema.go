package remote

import (
	"bytes"
	"embed"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

//go:embed schemas/*.json
var schemaFS embed.FS

// Schema names, one per remote endpoint.
const (
	schemaPrograms   = "programs"
	schemaTeamGroups = "team_groups"
	schemaTeams      = "teams"
	schemaEvents     = "events"
	schemaSkills     = "skills"
)

// validator checks response bodies against the embedded schemas.
type validator struct {
	once    sync.Once
	err     error
	schemas map[string]*jsonschema.Schema
}

func (v *validator) load() {
	c := jsonschema.NewCompiler()
	names := []string{schemaPrograms, schemaTeamGroups, schemaTeams, schemaEvents, schemaSkills}

	for _, name := range names {
		raw, err := schemaFS.ReadFile("schemas/" + name + ".json")
		if err != nil {
			v.err = fmt.Errorf("read schema %s: %w", name, err)
			return
		}
		doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(raw))
		if err != nil {
			v.err = fmt.Errorf("parse schema %s: %w", name, err)
			return
		}
		if err := c.AddResource(schemaURL(name), doc); err != nil {
			v.err = fmt.Errorf("add schema %s: %w", name, err)
			return
		}
	}

	v.schemas = make(map[string]*jsonschema.Schema, len(names))
	for _, name := range names {
		compiled, err := c.Compile(schemaURL(name))
		if err != nil {
			v.err = fmt.Errorf("compile schema %s: %w", name, err)
			return
		}
		v.schemas[name] = compiled
	}
}

// Validate checks body against the named schema. Shape violations wrap
// ErrPayloadShape.
func (v *validator) Validate(name string, body []byte) error {
	v.once.Do(v.load)
	if v.err != nil {
		return v.err
	}

	schema, ok := v.schemas[name]
	if !ok {
		return fmt.Errorf("unknown schema %q", name)
	}

	inst, err := jsonschema.UnmarshalJSON(bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("%w: %s: %w", ErrPayloadShape, name, err)
	}
	if err := schema.Validate(inst); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrPayloadShape, name, err)
	}
	return nil
}

func schemaURL(name string) string {
	return "vexsync://remote/" + name + ".json"
}
