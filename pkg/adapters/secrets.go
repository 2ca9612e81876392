package adapters

import (
	"context"
	"errors"
	"fmt"

	corev1 "k8s.io/api/core/v1"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	"k8s.io/apimachinery/pkg/types"

	"ftoperator/pkg/core"
)

// MissingSecretError reports a secretKeyRef that does not resolve.
type MissingSecretError struct {
	Field     string
	Namespace string
	Name      string
	Key       string
	// KeyMissing is set when the Secret exists but lacks Key.
	KeyMissing bool
}

func (e *MissingSecretError) Error() string {
	if e.KeyMissing {
		return fmt.Sprintf("%s: secret %s/%s has no key %q", e.Field, e.Namespace, e.Name, e.Key)
	}
	return fmt.Sprintf("%s: secret %s/%s not found", e.Field, e.Namespace, e.Name)
}

// IsMissingSecret reports whether err wraps a MissingSecretError.
func IsMissingSecret(err error) bool {
	var missing *MissingSecretError
	return errors.As(err, &missing)
}

// SecretResolver turns the credential slots of a Bot into plain values, reading
// referenced Secrets from the Bot's namespace.
type SecretResolver struct {
	store ObjectStore
}

func NewSecretResolver(store ObjectStore) *SecretResolver {
	return &SecretResolver{store: store}
}

// Resolve returns every credential in secrets. Each referenced Secret is read once.
// A missing Secret or key is a permanent error: it only clears when the user acts.
func (resolver *SecretResolver) Resolve(ctx context.Context, namespace string, secrets core.BotSecrets) (core.ResolvedSecrets, error) {
	var resolved core.ResolvedSecrets
	fetched := map[string]*corev1.Secret{}

	for _, slot := range secrets.Items() {
		if slot.Item == nil {
			continue
		}
		if slot.Item.Value != nil {
			slot.Set(&resolved, *slot.Item.Value)
			continue
		}
		ref := slot.Item.SecretKeyRef
		if ref == nil {
			continue
		}

		secret, seen := fetched[ref.Name]
		if !seen {
			secret = &corev1.Secret{}
			err := resolver.store.Get(ctx, types.NamespacedName{Namespace: namespace, Name: ref.Name}, secret)
			switch {
			case apierrors.IsNotFound(err):
				secret = nil
			case err != nil:
				return core.ResolvedSecrets{}, fmt.Errorf("get secret %s/%s: %w", namespace, ref.Name, err)
			}
			fetched[ref.Name] = secret
		}

		optional := ref.Optional != nil && *ref.Optional
		if secret == nil {
			if optional {
				continue
			}
			return core.ResolvedSecrets{}, core.Permanent(&MissingSecretError{Field: slot.Field, Namespace: namespace, Name: ref.Name, Key: ref.Key})
		}
		value, ok := secret.Data[ref.Key]
		if !ok {
			if optional {
				continue
			}
			return core.ResolvedSecrets{}, core.Permanent(&MissingSecretError{Field: slot.Field, Namespace: namespace, Name: ref.Name, Key: ref.Key, KeyMissing: true})
		}
		slot.Set(&resolved, string(value))
	}
	return resolved, nil
}
