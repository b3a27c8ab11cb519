// Package validation checks inbound JSON payloads against JSON Schemas before
// they are decoded into domain types.
package validation

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// ErrInvalidPayload wraps every schema or decoding failure.
var ErrInvalidPayload = errors.New("invalid payload")

// Schema names one of the registered payload schemas.
type Schema string

const (
	MessageRequest    Schema = "message-request"
	TranscriptRequest Schema = "transcript-request"
	NegotiateRequest  Schema = "negotiate-request"
	SocketFrame       Schema = "socket-frame"
)

const schemaBase = "https://collectwise.schemas.local/"

const turnDef = `{
	"type": "object",
	"required": ["role", "content"],
	"properties": {
		"role": {"type": "string", "enum": ["system", "user", "assistant"]},
		"content": {"type": "string"}
	}
}`

const offerDef = `{
	"type": ["object", "null"],
	"required": ["label"],
	"properties": {
		"monthly_amount": {"type": "integer", "minimum": 0},
		"term_months": {"type": "integer", "minimum": 0},
		"label": {"type": "string"}
	}
}`

var sources = map[Schema]string{
	MessageRequest: `{
		"type": "object",
		"required": ["message"],
		"properties": {
			"message": {"type": "string", "minLength": 1, "maxLength": 4000}
		}
	}`,
	TranscriptRequest: `{
		"type": "object",
		"required": ["messages"],
		"properties": {
			"messages": {
				"type": "array",
				"items": {
					"allOf": [` + turnDef + `],
					"properties": {"content": {"type": "string", "minLength": 1}}
				}
			}
		}
	}`,
	NegotiateRequest: `{
		"type": "object",
		"required": ["turns"],
		"properties": {
			"turns": {"type": ["array", "null"], "items": ` + turnDef + `},
			"user_intent": {"type": "string"},
			"emotional_state": {"type": "string"},
			"security_threat_level": {"type": "string"},
			"negotiation_attempts": {"type": "integer"},
			"current_offer": ` + offerDef + `,
			"final_agreement": ` + offerDef + `,
			"conversation_ended": {"type": "boolean"}
		}
	}`,
	SocketFrame: `{
		"type": "object",
		"required": ["type"],
		"properties": {
			"type": {"type": "string", "enum": ["text", "ping"]},
			"data": {
				"type": "object",
				"properties": {"text": {"type": "string"}}
			}
		},
		"if": {"properties": {"type": {"const": "text"}}},
		"then": {
			"required": ["data"],
			"properties": {"data": {"required": ["text"], "properties": {"text": {"minLength": 1}}}}
		}
	}`,
}

// Validator holds the compiled payload schemas. It is safe for concurrent use.
type Validator struct {
	schemas map[Schema]*jsonschema.Schema
}

// New compiles every registered schema.
func New() (*Validator, error) {
	v := &Validator{schemas: make(map[Schema]*jsonschema.Schema, len(sources))}
	for name, source := range sources {
		c := jsonschema.NewCompiler()
		c.Draft = jsonschema.Draft2020
		schemaURL := fmt.Sprintf("%s%s.schema.json", schemaBase, name)
		if err := c.AddResource(schemaURL, strings.NewReader(source)); err != nil {
			return nil, fmt.Errorf("failed to load schema %s: %w", name, err)
		}
		compiled, err := c.Compile(schemaURL)
		if err != nil {
			return nil, fmt.Errorf("failed to compile schema %s: %w", name, err)
		}
		v.schemas[name] = compiled
	}
	return v, nil
}

// MustNew is New for package-level wiring; the schemas are constants.
func MustNew() *Validator {
	v, err := New()
	if err != nil {
		panic(err)
	}
	return v
}

// Validate checks raw JSON against the named schema.
func (v *Validator) Validate(name Schema, raw []byte) error {
	schema, ok := v.schemas[name]
	if !ok {
		return fmt.Errorf("unknown schema %q", name)
	}

	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return fmt.Errorf("%w: malformed JSON: %v", ErrInvalidPayload, err)
	}
	if err := schema.Validate(doc); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidPayload, describe(err))
	}
	return nil
}

// Decode validates raw and then unmarshals it into dst.
func (v *Validator) Decode(name Schema, raw []byte, dst any) error {
	if err := v.Validate(name, raw); err != nil {
		return err
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	return nil
}

// describe 取最深层的校验错误，给出 "位置: 原因" 形式的简短说明。
func describe(err error) string {
	var ve *jsonschema.ValidationError
	if !errors.As(err, &ve) {
		return err.Error()
	}
	for len(ve.Causes) > 0 {
		ve = ve.Causes[0]
	}
	location := ve.InstanceLocation
	if location == "" {
		location = "/"
	}
	return location + ": " + ve.Message
}
