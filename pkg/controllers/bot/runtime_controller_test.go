package bot

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	corev1 "k8s.io/api/core/v1"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/runtime/schema"
	"k8s.io/apimachinery/pkg/types"
	ctrl "sigs.k8s.io/controller-runtime"
	"sigs.k8s.io/controller-runtime/pkg/client/fake"
	"sigs.k8s.io/controller-runtime/pkg/reconcile"

	"ftoperator/pkg/api/v1alpha1"
	"ftoperator/pkg/core"
)

func TestToResult(t *testing.T) {
	conflict := apierrors.NewConflict(schema.GroupResource{Group: "freqtrade.io", Resource: "bots"}, "kucoin-bot", nil)
	timeout := apierrors.NewServerTimeout(schema.GroupResource{Resource: "deployments"}, "update", 1)

	cases := []struct {
		name    string
		outcome Outcome
		err     error
		want    ctrl.Result
		wantErr bool
	}{
		{name: "success resyncs", outcome: Outcome{RequeueAfter: 10 * time.Minute}, want: ctrl.Result{RequeueAfter: 10 * time.Minute}},
		{name: "conflict requeues at once", err: conflict, want: ctrl.Result{Requeue: true}},
		{name: "transient uses rate limiter", err: timeout, wantErr: true},
		{name: "permanent waits", outcome: Outcome{RequeueAfter: 5 * time.Minute}, err: core.Permanent(assert.AnError), want: ctrl.Result{RequeueAfter: 5 * time.Minute}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			result, err := toResult(tc.outcome, tc.err)
			assert.Equal(t, tc.want, result)
			if tc.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestIndexSecretRefs(t *testing.T) {
	bot := kucoinBot()
	bot.Spec.Secrets.Exchange.Key = &core.SecretItem{SecretKeyRef: &corev1.SecretKeySelector{LocalObjectReference: corev1.LocalObjectReference{Name: "kucoin-creds"}, Key: "key"}}
	bot.Spec.Secrets.Exchange.Secret = &core.SecretItem{SecretKeyRef: &corev1.SecretKeySelector{LocalObjectReference: corev1.LocalObjectReference{Name: "kucoin-creds"}, Key: "secret"}}
	bot.Spec.Secrets.Telegram = &core.TelegramSecrets{Token: &core.SecretItem{SecretKeyRef: &corev1.SecretKeySelector{LocalObjectReference: corev1.LocalObjectReference{Name: "telegram"}, Key: "token"}}}

	assert.Equal(t, []string{"kucoin-creds", "telegram"}, IndexSecretRefs(bot))
	assert.Nil(t, IndexSecretRefs(&corev1.Secret{}))
}

func TestBotsForSecretMapsReferencingBots(t *testing.T) {
	referencing := kucoinBot()
	referencing.Spec.Secrets.Exchange.Key = &core.SecretItem{SecretKeyRef: &corev1.SecretKeySelector{LocalObjectReference: corev1.LocalObjectReference{Name: "kucoin-creds"}, Key: "key"}}
	unrelated := kucoinBot()
	unrelated.Name = "binance-bot"
	unrelated.UID = "other-uid"
	otherNamespace := referencing.DeepCopy()
	otherNamespace.Namespace = "staging"

	kubeClient := fake.NewClientBuilder().
		WithScheme(newScheme(t)).
		WithObjects(referencing, unrelated, otherNamespace).
		WithIndex(&v1alpha1.Bot{}, SecretRefIndex, IndexSecretRefs).
		Build()

	requests := BotsForSecret(kubeClient)(context.Background(), &corev1.Secret{
		ObjectMeta: metav1.ObjectMeta{Namespace: "trading", Name: "kucoin-creds"},
	})
	require.Len(t, requests, 1)
	assert.Equal(t, reconcile.Request{NamespacedName: types.NamespacedName{Namespace: "trading", Name: "kucoin-bot"}}, requests[0])
}

func TestControllerOptionsRateLimiter(t *testing.T) {
	options := DefaultControllerOptions()
	limiter := options.RateLimiter()
	item := reconcile.Request{NamespacedName: botKey}

	assert.Equal(t, options.RetryBaseDelay, limiter.When(item))
	assert.Equal(t, 2*options.RetryBaseDelay, limiter.When(item))
	limiter.Forget(item)
	assert.Equal(t, options.RetryBaseDelay, limiter.When(item))
}
