package core

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

// ParseConfig decodes spec.config into a generic tree. Numbers stay json.Number so
// integers of any size survive synthesis unchanged. An absent config yields an empty tree.
func ParseConfig(spec *BotSpec) (map[string]any, error) {
	if spec == nil || spec.Config == nil || len(bytes.TrimSpace(spec.Config.Raw)) == 0 {
		return map[string]any{}, nil
	}
	decoder := json.NewDecoder(bytes.NewReader(spec.Config.Raw))
	decoder.UseNumber()

	var value any
	if err := decoder.Decode(&value); err != nil {
		return nil, &SchemaError{Field: "spec.config", Err: err}
	}
	if _, err := decoder.Token(); !errors.Is(err, io.EOF) {
		return nil, &SchemaError{Field: "spec.config", Err: errors.New("trailing data after JSON value")}
	}
	switch tree := value.(type) {
	case nil:
		return map[string]any{}, nil
	case map[string]any:
		return tree, nil
	default:
		return nil, &SchemaError{Field: "spec.config", Err: fmt.Errorf("must be an object, got %T", value)}
	}
}
