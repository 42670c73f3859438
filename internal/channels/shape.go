package channels

import (
	"fmt"

	"github.com/xeipuuv/gojsonschema"
)

// ShapeValidator checks raw channel payloads against JSON schemas
// generated from the registry. Schemas are built once alongside the
// registry and reused for every profile.
type ShapeValidator struct {
	registry *Registry
	schemas  map[string]gojsonschema.JSONLoader
}

// NewShapeValidator builds one JSON schema per registered channel.
func NewShapeValidator(r *Registry) *ShapeValidator {
	schemas := make(map[string]gojsonschema.JSONLoader, len(r.Channels()))
	for _, ch := range r.Channels() {
		props := make(map[string]interface{}, len(ch.Fields))
		for _, f := range ch.Fields {
			if f.IsList {
				props[f.Name] = map[string]interface{}{
					"type":  "array",
					"items": map[string]interface{}{"type": "string"},
				}
				continue
			}
			// Counts arrive either as raw strings ("1,234") or numbers.
			props[f.Name] = map[string]interface{}{
				"type": []interface{}{"string", "number"},
			}
		}
		schemas[ch.Name] = gojsonschema.NewGoLoader(map[string]interface{}{
			"type":                 "object",
			"properties":           props,
			"additionalProperties": false,
		})
	}
	return &ShapeValidator{registry: r, schemas: schemas}
}

// Validate returns one message per shape violation in the payload for
// the named channel. An unknown channel is itself a violation.
func (v *ShapeValidator) Validate(channel string, payload map[string]interface{}) []string {
	loader, ok := v.schemas[channel]
	if !ok {
		return []string{fmt.Sprintf("%s is not a supported social channel", channel)}
	}

	result, err := gojsonschema.Validate(loader, gojsonschema.NewGoLoader(payload))
	if err != nil {
		return []string{fmt.Sprintf("%s channel data is not a valid document: %v", channel, err)}
	}

	if result.Valid() {
		return nil
	}

	msgs := make([]string, 0, len(result.Errors()))
	for _, re := range result.Errors() {
		msgs = append(msgs, fmt.Sprintf("%s: %s", channel, re.String()))
	}
	return msgs
}
