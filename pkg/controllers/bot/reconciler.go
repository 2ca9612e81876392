// Package bot converges the children of Bot resources toward the state their spec
// describes.
package bot

import (
	"context"
	"fmt"
	"time"

	"github.com/go-logr/logr"
	corev1 "k8s.io/api/core/v1"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/types"

	"ftoperator/pkg/adapters"
	"ftoperator/pkg/adapters/events"
	"ftoperator/pkg/adapters/metrics"
	"ftoperator/pkg/agents/status"
	"ftoperator/pkg/agents/summary"
	"ftoperator/pkg/api/v1alpha1"
	"ftoperator/pkg/core"
	"ftoperator/pkg/planner"
)

// Options tunes the reconciler.
type Options struct {
	// PermanentRequeue is the slow retry interval for failures that need a human.
	PermanentRequeue time.Duration
	// ResyncPeriod re-checks healthy Bots for drift that produced no watch event.
	ResyncPeriod time.Duration
	// Backoff governs in-pass retries of optimistic-concurrency conflicts.
	Backoff core.BackoffStrategy
	Planner planner.Options
}

// DefaultOptions returns the production tuning.
func DefaultOptions() Options {
	return Options{
		PermanentRequeue: 5 * time.Minute,
		ResyncPeriod:     10 * time.Minute,
		Backoff:          core.DefaultBackoff(),
		Planner:          planner.DefaultOptions(),
	}
}

// Outcome is the result of one reconcile pass.
type Outcome struct {
	Phase        core.Phase
	RequeueAfter time.Duration
	Summary      *summary.Summary
}

// Reconciler runs reconcile passes for single Bot keys. It holds no per-Bot state;
// everything is re-read from the store at the start of each pass.
type Reconciler struct {
	store   adapters.ObjectStore
	secrets *adapters.SecretResolver
	planner *planner.Planner
	events  *events.Recorder
	metrics *metrics.Recorder
	logger  logr.Logger
	options Options
	now     func() time.Time
}

// Option customizes a Reconciler.
type Option func(*Reconciler)

func WithEvents(recorder *events.Recorder) Option {
	return func(r *Reconciler) { r.events = recorder }
}

func WithMetrics(recorder *metrics.Recorder) Option {
	return func(r *Reconciler) { r.metrics = recorder }
}

func WithLogger(logger logr.Logger) Option {
	return func(r *Reconciler) { r.logger = logger }
}

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(r *Reconciler) { r.now = now }
}

func NewReconciler(store adapters.ObjectStore, options Options, opts ...Option) *Reconciler {
	reconciler := &Reconciler{
		store:   store,
		secrets: adapters.NewSecretResolver(store),
		planner: planner.New(options.Planner),
		logger:  logr.Discard(),
		options: options,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(reconciler)
	}
	return reconciler
}

// Reconcile performs one pass for the Bot identified by key. A returned error has
// already been recorded in status; callers retry it with backoff when
// core.IsRetryable reports true and otherwise wait for Outcome.RequeueAfter.
func (r *Reconciler) Reconcile(ctx context.Context, key types.NamespacedName) (Outcome, error) {
	start := r.now()
	log := r.logger.WithValues("bot", key.String())

	bot := &v1alpha1.Bot{}
	if err := r.store.Get(ctx, key, bot); err != nil {
		if apierrors.IsNotFound(err) {
			// Owner references let the garbage collector remove the children.
			log.V(1).Info("bot no longer exists")
			r.metrics.ForgetBot(key.String())
			return Outcome{}, nil
		}
		err = fmt.Errorf("get bot: %w", err)
		r.metrics.ObserveReconcile("", nil, err, r.now().Sub(start))
		return Outcome{}, err
	}

	outcome, err := r.reconcile(ctx, log, bot)
	r.metrics.ObserveReconcile(outcome.Phase, outcome.Summary, err, r.now().Sub(start))
	if outcome.Phase != "" {
		r.metrics.ObservePhase(key.String(), outcome.Phase)
	}
	if err != nil {
		log.Error(err, "reconciliation failed", "category", core.ClassifyError(err))
	} else {
		log.V(1).Info("reconciled", "phase", outcome.Phase, "changed", outcome.Summary.Changed())
	}
	return outcome, err
}

func (r *Reconciler) reconcile(ctx context.Context, log logr.Logger, bot *v1alpha1.Bot) (Outcome, error) {
	if !bot.DeletionTimestamp.IsZero() {
		return r.finish(ctx, bot, status.Observation{Generation: bot.Generation, Terminating: true}, Outcome{})
	}

	spec := bot.DeepCopy().Spec
	core.DefaultSpec(&spec)
	if errs := core.ValidateSpec(&spec); len(errs) > 0 {
		message := core.FormatErrors(errs)
		log.Info("spec rejected; leaving children untouched", "violations", len(errs))
		r.events.InvalidSpec(bot, message)
		return r.finish(ctx, bot, status.Observation{Generation: bot.Generation, Invalid: message}, Outcome{})
	}

	observed, err := r.fetchChildren(ctx, bot)
	if err != nil {
		return r.fail(ctx, bot, err)
	}

	resolved, err := r.secrets.Resolve(ctx, bot.Namespace, spec.Secrets)
	if err != nil {
		return r.fail(ctx, bot, err)
	}

	jwtSecretKey, err := jwtSecretKey(bot, resolved, observed.secret())
	if err != nil {
		return r.fail(ctx, bot, err)
	}

	document, err := core.Synthesize(&spec, core.SynthesisInput{BotName: bot.Name, Secrets: resolved, JWTSecretKey: jwtSecretKey})
	if err != nil {
		return r.fail(ctx, bot, core.Permanent(err))
	}
	config, err := document.Marshal()
	if err != nil {
		return r.fail(ctx, bot, core.Permanent(err))
	}

	desired, err := r.planner.Plan(planner.Input{Bot: bot, Spec: &spec, Config: config, JWTSecretKey: jwtSecretKey})
	if err != nil {
		return r.fail(ctx, bot, core.Permanent(err))
	}

	if gone, err := r.botGone(ctx, bot); err != nil {
		return r.fail(ctx, bot, err)
	} else if gone {
		log.V(1).Info("bot deleted mid-pass; nothing applied")
		return Outcome{}, nil
	}

	sum := &summary.Summary{}
	deployment, err := r.apply(ctx, bot, desired, observed, sum)
	r.events.Summary(bot, sum)
	if err != nil {
		outcome, failErr := r.fail(ctx, bot, err)
		outcome.Summary = sum
		return outcome, failErr
	}

	return r.finish(ctx, bot, status.Observation{
		Generation: bot.Generation,
		Summary:    sum,
		ConfigHash: desired.ConfigHash,
		Children:   desired.Refs(),
		Deployment: deployment,
	}, Outcome{Summary: sum, RequeueAfter: r.options.ResyncPeriod})
}

// fail records err on the Bot and picks the retry policy for it.
func (r *Reconciler) fail(ctx context.Context, bot *v1alpha1.Bot, err error) (Outcome, error) {
	category := core.ClassifyError(err)
	reason := status.ReasonReconcileError
	switch {
	case adapters.IsMissingSecret(err):
		reason = status.ReasonSecretNotFound
	case category == core.ErrorCategoryRBAC:
		reason = status.ReasonForbidden
	case category == core.ErrorCategoryTransient:
		reason = status.ReasonTransientError
	}
	r.events.Error(bot, err)

	outcome := Outcome{}
	if category != core.ErrorCategoryTransient {
		outcome.RequeueAfter = r.options.PermanentRequeue
	}
	outcome, statusErr := r.finish(ctx, bot, status.Observation{Generation: bot.Generation, Err: err, Reason: reason}, outcome)
	if statusErr != nil {
		r.logger.Error(statusErr, "recording failure in status", "bot", bot.Key().String())
	}
	return outcome, err
}

// finish computes and writes status. The write is skipped when nothing changed, so
// a pass over a converged Bot performs no writes at all.
func (r *Reconciler) finish(ctx context.Context, bot *v1alpha1.Bot, obs status.Observation, outcome Outcome) (Outcome, error) {
	now := r.now()
	next := status.Compute(bot.Status, obs, now)
	outcome.Phase = next.Phase
	if !bot.ApplyStatus(next, metav1.NewTime(now.UTC().Truncate(time.Second))) {
		return outcome, nil
	}
	if err := r.store.UpdateStatus(ctx, bot); err != nil {
		if apierrors.IsNotFound(err) {
			return outcome, nil
		}
		return outcome, fmt.Errorf("update status: %w", err)
	}
	return outcome, nil
}

// botGone re-reads the Bot right before children are written, so a Bot deleted or
// replaced while the pass was reading gets no new children.
func (r *Reconciler) botGone(ctx context.Context, bot *v1alpha1.Bot) (bool, error) {
	current := &v1alpha1.Bot{}
	if err := r.store.Get(ctx, bot.Key(), current); err != nil {
		if apierrors.IsNotFound(err) {
			return true, nil
		}
		return false, fmt.Errorf("get bot: %w", err)
	}
	return current.UID != bot.UID || !current.DeletionTimestamp.IsZero(), nil
}

// jwtSecretKey prefers a user-supplied key, then the key persisted in the managed
// Secret, and only generates a new one when neither exists. Regenerating would log
// out every API session.
func jwtSecretKey(bot *v1alpha1.Bot, resolved core.ResolvedSecrets, current *corev1.Secret) (string, error) {
	if resolved.APIJWTSecretKey != "" {
		return resolved.APIJWTSecretKey, nil
	}
	if current != nil && metav1.IsControlledBy(current, bot) {
		if key := current.Data[core.JWTSecretKeyKey]; len(key) > 0 {
			return string(key), nil
		}
	}
	return core.GenerateSecretKey()
}
