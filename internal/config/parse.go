package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

// Parse parses a configuration document in JSON or YAML. Unknown top-level
// fields are rejected; profile bodies are checked when resolved. Empty input
// returns a zero-value Config.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	decode := strictUnmarshal
	if isJSON(data) {
		decode = strictUnmarshalJSON
	}
	if err := decode(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return &cfg, nil
}

// isJSON reports whether data looks like a JSON object. JSON files commonly
// indent with tabs, which YAML rejects, so they get their own decoder.
func isJSON(data []byte) bool {
	trimmed := bytes.TrimLeft(data, " \t\r\n")
	return len(trimmed) > 0 && trimmed[0] == '{'
}

func strictUnmarshalJSON(data []byte, v any) error {
	decoder := json.NewDecoder(bytes.NewReader(data))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(v); err != nil {
		return fmt.Errorf("decode JSON: %w", err)
	}
	return nil
}

// strictUnmarshal unmarshals YAML data into v, rejecting unknown fields.
// Empty input is treated as valid, leaving v at its zero value.
func strictUnmarshal(data []byte, v any) error {
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	err := decoder.Decode(v)
	if errors.Is(err, io.EOF) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("decode YAML: %w", err)
	}
	return nil
}

// decodeProfile converts a merged raw profile mapping into a Profile.
// Round-tripping through YAML lets the strict decoder report typos such as
// "allowed_prefix" with the offending key.
func decodeProfile(raw map[string]any) (*Profile, error) {
	data, err := yaml.Marshal(raw)
	if err != nil {
		return nil, fmt.Errorf("encode profile: %w", err)
	}
	var p Profile
	if err := strictUnmarshal(data, &p); err != nil {
		return nil, err
	}
	return &p, nil
}
