package adapters

import (
	"context"
	"errors"
	"testing"

	corev1 "k8s.io/api/core/v1"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/runtime"
	"k8s.io/utils/ptr"
	"sigs.k8s.io/controller-runtime/pkg/client"
	"sigs.k8s.io/controller-runtime/pkg/client/fake"
	"sigs.k8s.io/controller-runtime/pkg/client/interceptor"

	"ftoperator/pkg/core"
)

func newScheme(t *testing.T) *runtime.Scheme {
	t.Helper()
	scheme := runtime.NewScheme()
	if err := corev1.AddToScheme(scheme); err != nil {
		t.Fatalf("add core scheme: %v", err)
	}
	return scheme
}

func ref(name, key string) *core.SecretItem {
	return &core.SecretItem{SecretKeyRef: &corev1.SecretKeySelector{
		LocalObjectReference: corev1.LocalObjectReference{Name: name},
		Key:                  key,
	}}
}

func literal(value string) *core.SecretItem {
	return &core.SecretItem{Value: ptr.To(value)}
}

func TestSecretResolverResolvesLiteralsAndRefs(t *testing.T) {
	gets := 0
	kubeClient := fake.NewClientBuilder().
		WithScheme(newScheme(t)).
		WithObjects(&corev1.Secret{
			ObjectMeta: metav1.ObjectMeta{Namespace: "trading", Name: "kucoin-creds"},
			Data:       map[string][]byte{"key": []byte("k"), "secret": []byte("s")},
		}).
		WithInterceptorFuncs(interceptor.Funcs{Get: func(ctx context.Context, c client.WithWatch, key client.ObjectKey, obj client.Object, opts ...client.GetOption) error {
			gets++
			return c.Get(ctx, key, obj, opts...)
		}}).
		Build()

	resolver := NewSecretResolver(NewControllerRuntimeStore(kubeClient, 0))
	resolved, err := resolver.Resolve(context.Background(), "trading", core.BotSecrets{
		API:      &core.APISecrets{Username: literal("admin"), Password: literal("hunter2")},
		Exchange: &core.ExchangeSecrets{Key: ref("kucoin-creds", "key"), Secret: ref("kucoin-creds", "secret")},
	})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	want := core.ResolvedSecrets{APIUsername: "admin", APIPassword: "hunter2", ExchangeKey: "k", ExchangeSecret: "s"}
	if resolved != want {
		t.Fatalf("unexpected resolved secrets: %+v", resolved)
	}
	if gets != 1 {
		t.Fatalf("expected the shared secret to be read once, got %d reads", gets)
	}
}

func TestSecretResolverMissingSecretIsPermanent(t *testing.T) {
	kubeClient := fake.NewClientBuilder().WithScheme(newScheme(t)).Build()
	resolver := NewSecretResolver(NewControllerRuntimeStore(kubeClient, 0))

	_, err := resolver.Resolve(context.Background(), "trading", core.BotSecrets{
		Exchange: &core.ExchangeSecrets{Key: ref("absent", "key")},
	})
	if !IsMissingSecret(err) {
		t.Fatalf("expected missing secret error, got %v", err)
	}
	if core.ClassifyError(err) != core.ErrorCategoryPermanent {
		t.Fatalf("expected permanent classification, got %s", core.ClassifyError(err))
	}
	if got := err.Error(); got != "secrets.exchange.key: secret trading/absent not found" {
		t.Fatalf("unexpected message %q", got)
	}
}

func TestSecretResolverMissingKey(t *testing.T) {
	kubeClient := fake.NewClientBuilder().
		WithScheme(newScheme(t)).
		WithObjects(&corev1.Secret{ObjectMeta: metav1.ObjectMeta{Namespace: "trading", Name: "tg"}, Data: map[string][]byte{"token": []byte("t")}}).
		Build()
	resolver := NewSecretResolver(NewControllerRuntimeStore(kubeClient, 0))

	_, err := resolver.Resolve(context.Background(), "trading", core.BotSecrets{
		Exchange: &core.ExchangeSecrets{},
		Telegram: &core.TelegramSecrets{Token: ref("tg", "token"), ChatID: ref("tg", "chat")},
	})
	var missing *MissingSecretError
	if !errors.As(err, &missing) || !missing.KeyMissing || missing.Field != "secrets.telegram.chatId" {
		t.Fatalf("expected missing key on chatId, got %v", err)
	}
}

func TestSecretResolverOptionalRefs(t *testing.T) {
	kubeClient := fake.NewClientBuilder().WithScheme(newScheme(t)).Build()
	resolver := NewSecretResolver(NewControllerRuntimeStore(kubeClient, 0))

	item := ref("absent", "token")
	item.SecretKeyRef.Optional = ptr.To(true)
	resolved, err := resolver.Resolve(context.Background(), "trading", core.BotSecrets{Telegram: &core.TelegramSecrets{Token: item}})
	if err != nil {
		t.Fatalf("expected optional ref to be skipped, got %v", err)
	}
	if resolved.TelegramToken != "" {
		t.Fatalf("expected empty token, got %q", resolved.TelegramToken)
	}
}

func TestSecretResolverPropagatesStoreErrors(t *testing.T) {
	kubeClient := fake.NewClientBuilder().
		WithScheme(newScheme(t)).
		WithInterceptorFuncs(interceptor.Funcs{Get: func(context.Context, client.WithWatch, client.ObjectKey, client.Object, ...client.GetOption) error {
			return apierrors.NewServiceUnavailable("apiserver restarting")
		}}).
		Build()
	resolver := NewSecretResolver(NewControllerRuntimeStore(kubeClient, 0))

	_, err := resolver.Resolve(context.Background(), "trading", core.BotSecrets{Exchange: &core.ExchangeSecrets{Key: ref("creds", "key")}})
	if !core.IsRetryable(err) {
		t.Fatalf("expected retryable error, got %v", err)
	}
}
