package core

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ResolvedSecrets holds credential values after secretKeyRef resolution.
// Absent credentials are empty strings.
type ResolvedSecrets struct {
	APIUsername     string
	APIPassword     string
	APIWSToken      string
	APIJWTSecretKey string

	ExchangeKey      string
	ExchangeSecret   string
	ExchangePassword string

	TelegramToken  string
	TelegramChatID string
}

// SynthesisInput is everything besides the spec that ends up in the runtime config.
type SynthesisInput struct {
	BotName      string
	Secrets      ResolvedSecrets
	JWTSecretKey string
}

// InjectionRule sets one operator-owned path of the runtime config.
type InjectionRule struct {
	Path  string
	Value func(spec *BotSpec, in SynthesisInput) any
}

// InjectionRules are applied in order on top of spec.config. Every reserved path has
// exactly one rule.
var InjectionRules = []InjectionRule{
	{Path: "add_config_files", Value: func(*BotSpec, SynthesisInput) any { return []any{} }},
	{Path: "recursive_strategy_search", Value: func(*BotSpec, SynthesisInput) any { return false }},
	{Path: "strategy_path", Value: func(*BotSpec, SynthesisInput) any { return StrategyDir }},
	{Path: "strategy", Value: func(spec *BotSpec, _ SynthesisInput) any { return spec.Strategy.Name }},
	{Path: "bot_name", Value: func(_ *BotSpec, in SynthesisInput) any { return in.BotName }},
	{Path: "db_url", Value: func(spec *BotSpec, _ SynthesisInput) any { return spec.DatabaseURL() }},

	{Path: "api_server.enabled", Value: func(spec *BotSpec, _ SynthesisInput) any { return spec.APIEnabled() }},
	{Path: "api_server.listen_ip_address", Value: func(spec *BotSpec, _ SynthesisInput) any { return spec.APIHost() }},
	{Path: "api_server.listen_port", Value: func(spec *BotSpec, _ SynthesisInput) any { return spec.APIPort() }},
	{Path: "api_server.jwt_secret_key", Value: func(_ *BotSpec, in SynthesisInput) any { return in.JWTSecretKey }},
	{Path: "api_server.username", Value: func(_ *BotSpec, in SynthesisInput) any { return in.Secrets.APIUsername }},
	{Path: "api_server.password", Value: func(_ *BotSpec, in SynthesisInput) any { return in.Secrets.APIPassword }},
	{Path: "api_server.ws_token", Value: func(_ *BotSpec, in SynthesisInput) any { return in.Secrets.APIWSToken }},

	{Path: "telegram.token", Value: func(_ *BotSpec, in SynthesisInput) any { return in.Secrets.TelegramToken }},
	{Path: "telegram.chat_id", Value: func(_ *BotSpec, in SynthesisInput) any { return in.Secrets.TelegramChatID }},

	{Path: "exchange.name", Value: func(spec *BotSpec, _ SynthesisInput) any { return spec.Exchange }},
	{Path: "exchange.key", Value: func(_ *BotSpec, in SynthesisInput) any { return in.Secrets.ExchangeKey }},
	{Path: "exchange.secret", Value: func(_ *BotSpec, in SynthesisInput) any { return in.Secrets.ExchangeSecret }},
	{Path: "exchange.password", Value: func(_ *BotSpec, in SynthesisInput) any { return in.Secrets.ExchangePassword }},

	{Path: "freqai.enabled", Value: func(spec *BotSpec, _ SynthesisInput) any { return spec.Model != nil }},
}

// Document is a runtime configuration tree. Values are never mutated in place;
// With returns a new tree sharing untouched branches.
type Document map[string]any

// Synthesize merges spec.config with the operator-owned values from spec and in.
// It returns an error instead of a partial document.
func Synthesize(spec *BotSpec, in SynthesisInput) (Document, error) {
	if spec == nil {
		return nil, errors.New("synthesize: nil spec")
	}
	base, err := ParseConfig(spec)
	if err != nil {
		return nil, err
	}
	doc := Document(base)
	for _, rule := range InjectionRules {
		doc, err = doc.With(rule.Path, rule.Value(spec, in))
		if err != nil {
			return nil, fmt.Errorf("synthesize %s: %w", rule.Path, err)
		}
	}
	return doc, nil
}

// With returns a copy of d where the dotted path holds value. Missing or null
// intermediate keys become objects; any other non-object intermediate is an error.
func (d Document) With(path string, value any) (Document, error) {
	segments := SplitPath(path)
	updated, err := withPath(map[string]any(d), segments, value, nil)
	if err != nil {
		return nil, err
	}
	return Document(updated), nil
}

func withPath(tree map[string]any, segments []string, value any, walked []string) (map[string]any, error) {
	out := make(map[string]any, len(tree)+1)
	for k, v := range tree {
		out[k] = v
	}
	head := segments[0]
	if len(segments) == 1 {
		out[head] = value
		return out, nil
	}
	walked = append(walked, head)
	var child map[string]any
	switch existing := out[head].(type) {
	case nil:
		child = map[string]any{}
	case map[string]any:
		child = existing
	default:
		return nil, &SchemaError{
			Field: "spec.config." + strings.Join(walked, "."),
			Err:   fmt.Errorf("must be an object, got %T", existing),
		}
	}
	updatedChild, err := withPath(child, segments[1:], value, walked)
	if err != nil {
		return nil, err
	}
	out[head] = updatedChild
	return out, nil
}

// Lookup returns the value at a dotted path.
func (d Document) Lookup(path string) (any, bool) {
	var current any = map[string]any(d)
	for _, segment := range SplitPath(path) {
		tree, ok := current.(map[string]any)
		if !ok {
			return nil, false
		}
		current, ok = tree[segment]
		if !ok {
			return nil, false
		}
	}
	return current, true
}

// Marshal renders the document as indented JSON. Map keys are sorted by
// encoding/json, so equal documents always produce identical bytes.
func (d Document) Marshal() ([]byte, error) {
	var buf bytes.Buffer
	encoder := json.NewEncoder(&buf)
	encoder.SetEscapeHTML(false)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(map[string]any(d)); err != nil {
		return nil, fmt.Errorf("marshal config: %w", err)
	}
	return buf.Bytes(), nil
}
