package bot

import (
	"context"
	"fmt"
	"time"

	"github.com/go-logr/logr"
	"golang.org/x/time/rate"
	appsv1 "k8s.io/api/apps/v1"
	corev1 "k8s.io/api/core/v1"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	"k8s.io/client-go/util/workqueue"
	ctrl "sigs.k8s.io/controller-runtime"
	"sigs.k8s.io/controller-runtime/pkg/client"
	"sigs.k8s.io/controller-runtime/pkg/controller"
	"sigs.k8s.io/controller-runtime/pkg/handler"
	"sigs.k8s.io/controller-runtime/pkg/reconcile"

	"ftoperator/pkg/adapters"
	"ftoperator/pkg/adapters/events"
	"ftoperator/pkg/adapters/metrics"
	"ftoperator/pkg/api/v1alpha1"
	"ftoperator/pkg/core"
)

// SecretRefIndex indexes Bots by the names of Secrets their spec references.
const SecretRefIndex = "spec.secretRefs"

// ControllerOptions configures the controller-runtime integration.
type ControllerOptions struct {
	Reconciler     Options
	Workers        int
	RequestTimeout time.Duration
	RetryBaseDelay time.Duration
	RetryMaxDelay  time.Duration
	// QPS and Burst bound the overall requeue rate across all Bots.
	QPS   float64
	Burst int
}

func DefaultControllerOptions() ControllerOptions {
	return ControllerOptions{
		Reconciler:     DefaultOptions(),
		Workers:        4,
		RequestTimeout: adapters.DefaultRequestTimeout,
		RetryBaseDelay: 500 * time.Millisecond,
		RetryMaxDelay:  5 * time.Minute,
		QPS:            10,
		Burst:          100,
	}
}

// RateLimiter combines per-key exponential backoff with an overall token bucket.
func (options ControllerOptions) RateLimiter() workqueue.RateLimiter {
	return workqueue.NewMaxOfRateLimiter(
		workqueue.NewItemExponentialFailureRateLimiter(options.RetryBaseDelay, options.RetryMaxDelay),
		&workqueue.BucketRateLimiter{Limiter: rate.NewLimiter(rate.Limit(options.QPS), options.Burst)},
	)
}

// BotController reconciles Bot resources with a controller-runtime manager.
type BotController struct {
	client.Client
	logger     logr.Logger
	reconciler *Reconciler
}

var _ reconcile.Reconciler = &BotController{}

// NewController constructs a BotController wired with the manager's client.
func NewController(manager ctrl.Manager, options ControllerOptions) *BotController {
	logger := ctrl.Log.WithName("controllers").WithName("Bot")
	store := adapters.NewControllerRuntimeStore(manager.GetClient(), options.RequestTimeout)

	return &BotController{
		Client: manager.GetClient(),
		logger: logger,
		reconciler: NewReconciler(store, options.Reconciler,
			WithEvents(events.NewRecorder(manager.GetEventRecorderFor("bot-controller"))),
			WithMetrics(metrics.Default()),
			WithLogger(logger),
		),
	}
}

// Reconcile runs one pass and maps its outcome onto the controller's requeue policy.
func (botController *BotController) Reconcile(requestContext context.Context, reconcileRequest ctrl.Request) (ctrl.Result, error) {
	outcome, err := botController.reconciler.Reconcile(requestContext, reconcileRequest.NamespacedName)
	return toResult(outcome, err)
}

func toResult(outcome Outcome, err error) (ctrl.Result, error) {
	switch {
	case err == nil:
		return ctrl.Result{RequeueAfter: outcome.RequeueAfter}, nil
	case apierrors.IsConflict(err):
		return ctrl.Result{Requeue: true}, nil
	case core.IsRetryable(err):
		return ctrl.Result{}, err
	default:
		// Permanent failures are in status already; retry slowly without growing backoff.
		return ctrl.Result{RequeueAfter: outcome.RequeueAfter}, nil
	}
}

// SetupWithManager registers the controller and the Secret reference index.
func SetupWithManager(ctx context.Context, manager ctrl.Manager, options ControllerOptions) error {
	if err := manager.GetFieldIndexer().IndexField(ctx, &v1alpha1.Bot{}, SecretRefIndex, IndexSecretRefs); err != nil {
		return fmt.Errorf("index %s: %w", SecretRefIndex, err)
	}

	botController := NewController(manager, options)
	return ctrl.NewControllerManagedBy(manager).
		Named("bot").
		WithOptions(controller.Options{
			MaxConcurrentReconciles: options.Workers,
			RateLimiter:             options.RateLimiter(),
		}).
		For(&v1alpha1.Bot{}).
		Owns(&appsv1.Deployment{}).
		Owns(&corev1.Service{}).
		Owns(&corev1.Secret{}).
		Owns(&corev1.ConfigMap{}).
		Owns(&corev1.PersistentVolumeClaim{}).
		Watches(&corev1.Secret{}, handler.EnqueueRequestsFromMapFunc(BotsForSecret(manager.GetClient()))).
		Complete(botController)
}

// IndexSecretRefs extracts the referenced Secret names of a Bot for SecretRefIndex.
func IndexSecretRefs(obj client.Object) []string {
	bot, ok := obj.(*v1alpha1.Bot)
	if !ok {
		return nil
	}
	return core.SecretRefNames(&bot.Spec)
}

// BotsForSecret maps a Secret event to the Bots in its namespace that reference it.
func BotsForSecret(reader client.Reader) handler.MapFunc {
	return func(ctx context.Context, obj client.Object) []reconcile.Request {
		var bots v1alpha1.BotList
		if err := reader.List(ctx, &bots, client.InNamespace(obj.GetNamespace()), client.MatchingFields{SecretRefIndex: obj.GetName()}); err != nil {
			ctrl.Log.WithName("controllers").WithName("Bot").Error(err, "listing bots for secret", "secret", client.ObjectKeyFromObject(obj))
			return nil
		}
		requests := make([]reconcile.Request, 0, len(bots.Items))
		for i := range bots.Items {
			requests = append(requests, reconcile.Request{NamespacedName: bots.Items[i].Key()})
		}
		return requests
	}
}
