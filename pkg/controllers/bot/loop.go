package bot

import (
	"context"
	"sync"

	"github.com/go-logr/logr"
	"k8s.io/apimachinery/pkg/types"
	"k8s.io/client-go/util/workqueue"

	"ftoperator/pkg/core"
)

// KeyReconciler is the synchronous reconcile function a Loop drives.
type KeyReconciler interface {
	Reconcile(ctx context.Context, key types.NamespacedName) (Outcome, error)
}

// Loop feeds Bot keys from a rate-limited work queue to a fixed pool of workers.
// Different keys are processed in parallel; one key is never processed by two
// workers at once, and events for a key that arrive mid-pass are coalesced into one
// follow-up pass. It follows the retry policy of the controller-runtime controller
// so both drive Reconcile the same way.
type Loop struct {
	reconciler KeyReconciler
	queue      workqueue.RateLimitingInterface
	workers    int
	logger     logr.Logger
}

// NewLoop builds a loop whose failed keys are delayed by rateLimiter; pass
// ControllerOptions.RateLimiter for production tuning.
func NewLoop(reconciler KeyReconciler, workers int, rateLimiter workqueue.RateLimiter, logger logr.Logger) *Loop {
	if workers <= 0 {
		workers = 1
	}
	return &Loop{
		reconciler: reconciler,
		queue:      workqueue.NewRateLimitingQueue(rateLimiter),
		workers:    workers,
		logger:     logger,
	}
}

// Enqueue schedules a pass for key. It is safe to call from watch handlers.
func (loop *Loop) Enqueue(key types.NamespacedName) {
	loop.queue.Add(key)
}

// Run processes keys until ctx is cancelled, then waits for in-flight passes.
func (loop *Loop) Run(ctx context.Context) {
	var wg sync.WaitGroup
	for i := 0; i < loop.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for loop.processNext(ctx) {
			}
		}()
	}
	<-ctx.Done()
	loop.queue.ShutDown()
	wg.Wait()
}

func (loop *Loop) processNext(ctx context.Context) bool {
	item, shutdown := loop.queue.Get()
	if shutdown {
		return false
	}
	defer loop.queue.Done(item)

	key := item.(types.NamespacedName)
	outcome, err := loop.reconciler.Reconcile(ctx, key)
	switch {
	case err != nil && core.IsRetryable(err):
		loop.logger.V(1).Info("retrying", "bot", key.String(), "failures", loop.queue.NumRequeues(key)+1)
		loop.queue.AddRateLimited(key)
	case outcome.RequeueAfter > 0:
		loop.queue.Forget(key)
		loop.queue.AddAfter(key, outcome.RequeueAfter)
	default:
		loop.queue.Forget(key)
	}
	return true
}
