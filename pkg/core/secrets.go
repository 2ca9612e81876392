package core

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
)

// GenerateSecretKey returns 32 random bytes, hex encoded, for the API server JWT key.
func GenerateSecretKey() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate secret key: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

// SecretRefNames returns the names of existing Secrets that spec references.
func SecretRefNames(spec *BotSpec) []string {
	if spec == nil {
		return nil
	}
	seen := map[string]struct{}{}
	var names []string
	for _, item := range spec.Secrets.Items() {
		if item.Item == nil || item.Item.SecretKeyRef == nil || item.Item.SecretKeyRef.Name == "" {
			continue
		}
		name := item.Item.SecretKeyRef.Name
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		names = append(names, name)
	}
	return names
}

// NamedSecretItem pairs a SecretItem with the resolved field it fills.
type NamedSecretItem struct {
	Field string
	Item  *SecretItem
	Set   func(*ResolvedSecrets, string)
}

// Items lists every credential slot in a fixed order.
func (s BotSecrets) Items() []NamedSecretItem {
	var items []NamedSecretItem
	if s.API != nil {
		items = append(items,
			NamedSecretItem{"secrets.api.username", s.API.Username, func(r *ResolvedSecrets, v string) { r.APIUsername = v }},
			NamedSecretItem{"secrets.api.password", s.API.Password, func(r *ResolvedSecrets, v string) { r.APIPassword = v }},
			NamedSecretItem{"secrets.api.wsToken", s.API.WSToken, func(r *ResolvedSecrets, v string) { r.APIWSToken = v }},
			NamedSecretItem{"secrets.api.jwtSecretKey", s.API.JWTSecretKey, func(r *ResolvedSecrets, v string) { r.APIJWTSecretKey = v }},
		)
	}
	if s.Exchange != nil {
		items = append(items,
			NamedSecretItem{"secrets.exchange.key", s.Exchange.Key, func(r *ResolvedSecrets, v string) { r.ExchangeKey = v }},
			NamedSecretItem{"secrets.exchange.secret", s.Exchange.Secret, func(r *ResolvedSecrets, v string) { r.ExchangeSecret = v }},
			NamedSecretItem{"secrets.exchange.password", s.Exchange.Password, func(r *ResolvedSecrets, v string) { r.ExchangePassword = v }},
		)
	}
	if s.Telegram != nil {
		items = append(items,
			NamedSecretItem{"secrets.telegram.token", s.Telegram.Token, func(r *ResolvedSecrets, v string) { r.TelegramToken = v }},
			NamedSecretItem{"secrets.telegram.chatId", s.Telegram.ChatID, func(r *ResolvedSecrets, v string) { r.TelegramChatID = v }},
		)
	}
	return items
}
