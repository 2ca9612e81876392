package v1alpha1

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"sigs.k8s.io/yaml"

	"ftoperator/pkg/core"
)

// ParseBot decodes a Bot manifest given as YAML or JSON. Decoding failures, unknown
// fields, a missing or wrong apiVersion/kind, and a config that is not an object are
// reported as *core.SchemaError.
func ParseBot(data []byte) (*Bot, error) {
	raw, err := yaml.YAMLToJSONStrict(data)
	if err != nil {
		return nil, &core.SchemaError{Err: err}
	}
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || raw[0] != '{' {
		return nil, &core.SchemaError{Err: errors.New("manifest is not an object")}
	}

	var bot Bot
	decoder := json.NewDecoder(bytes.NewReader(raw))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&bot); err != nil {
		return nil, &core.SchemaError{Err: err}
	}
	if bot.APIVersion != GroupVersion.String() {
		return nil, &core.SchemaError{Field: "apiVersion", Err: fmt.Errorf("expected %s, got %q", GroupVersion.String(), bot.APIVersion)}
	}
	if bot.Kind != Kind {
		return nil, &core.SchemaError{Field: "kind", Err: fmt.Errorf("expected %s, got %q", Kind, bot.Kind)}
	}
	if _, err := core.ParseConfig(&bot.Spec); err != nil {
		return nil, err
	}
	return &bot, nil
}
