// Package completion turns prompts into schema-validated, typed responses from
// a language model.
package completion

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/jsonschema-go/jsonschema"
)

// ErrCompletion marks failures of the completion service: transport errors,
// timeouts, empty responses and responses that violate the schema.
var ErrCompletion = errors.New("completion failed")

// Request is a single structured completion call.
type Request struct {
	System string
	User   string
	Schema *jsonschema.Schema
}

// Client returns the raw JSON text produced for a request.
type Client interface {
	Complete(ctx context.Context, req Request) (string, error)
}

// SchemaOption adjusts the schema derived for a response type.
type SchemaOption func(*jsonschema.Schema)

// Describe sets the description of the property at path. Array properties are
// traversed through their items, so "queries", "query" addresses the query
// field of each element of the queries array.
func Describe(description string, path ...string) SchemaOption {
	return func(s *jsonschema.Schema) {
		cur := s
		for _, key := range path {
			if cur.Type == "array" && cur.Items != nil {
				cur = cur.Items
			}
			next, ok := cur.Properties[key]
			if !ok {
				return
			}
			cur = next
		}
		cur.Description = description
	}
}

// SchemaFor derives the response schema for T. Structs accept additional
// properties so that chatty models are not rejected for extra fields.
func SchemaFor[T any](opts ...SchemaOption) (*jsonschema.Schema, error) {
	s, err := jsonschema.For[T](nil)
	if err != nil {
		return nil, fmt.Errorf("derive schema: %w", err)
	}
	relax(s)
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

func relax(s *jsonschema.Schema) {
	if s == nil {
		return
	}
	if s.Type == "object" && s.Properties != nil {
		s.AdditionalProperties = nil
	}
	for _, p := range s.Properties {
		relax(p)
	}
	relax(s.Items)
}

// Generate asks c for a response matching T's schema and decodes it.
func Generate[T any](ctx context.Context, c Client, system, user string, opts ...SchemaOption) (T, error) {
	var out T

	schema, err := SchemaFor[T](opts...)
	if err != nil {
		return out, err
	}

	raw, err := c.Complete(ctx, Request{System: system, User: user, Schema: schema})
	if err != nil {
		return out, fmt.Errorf("%w: %w", ErrCompletion, err)
	}

	if err := Decode(raw, schema, &out); err != nil {
		return out, err
	}
	return out, nil
}

// Decode validates raw against schema and unmarshals it into out.
func Decode(raw string, schema *jsonschema.Schema, out any) error {
	raw = stripFences(raw)
	if raw == "" {
		return fmt.Errorf("%w: empty response", ErrCompletion)
	}

	var instance any
	if err := json.Unmarshal([]byte(raw), &instance); err != nil {
		return fmt.Errorf("%w: parse response: %v", ErrCompletion, err)
	}

	if schema != nil {
		resolved, err := schema.Resolve(nil)
		if err != nil {
			return fmt.Errorf("resolve schema: %w", err)
		}
		if err := resolved.Validate(instance); err != nil {
			return fmt.Errorf("%w: response violates schema: %v", ErrCompletion, err)
		}
	}

	if err := json.Unmarshal([]byte(raw), out); err != nil {
		return fmt.Errorf("%w: decode response: %v", ErrCompletion, err)
	}
	return nil
}

// stripFences removes a surrounding markdown code fence, which some models
// emit even in JSON mode.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[i+1:]
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
