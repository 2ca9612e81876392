package adapters

import (
	"context"
	"time"

	"k8s.io/apimachinery/pkg/types"
	"sigs.k8s.io/controller-runtime/pkg/client"
)

// DefaultRequestTimeout bounds each call against the API server.
const DefaultRequestTimeout = 10 * time.Second

// ObjectStore is the slice of the cluster API the reconciler depends on. Writes carry
// the resourceVersion of the object passed in, so a stale write fails with a conflict
// instead of overwriting a concurrent change.
type ObjectStore interface {
	Get(ctx context.Context, key types.NamespacedName, obj client.Object) error
	List(ctx context.Context, list client.ObjectList, opts ...client.ListOption) error
	Create(ctx context.Context, obj client.Object) error
	Update(ctx context.Context, obj client.Object) error
	UpdateStatus(ctx context.Context, obj client.Object) error
	Delete(ctx context.Context, obj client.Object) error
}

type controllerRuntimeStore struct {
	client  client.Client
	timeout time.Duration
}

// NewControllerRuntimeStore returns an ObjectStore backed by a controller-runtime
// client.Client. A non-positive timeout selects DefaultRequestTimeout.
func NewControllerRuntimeStore(kubeClient client.Client, timeout time.Duration) ObjectStore {
	if timeout <= 0 {
		timeout = DefaultRequestTimeout
	}
	return &controllerRuntimeStore{client: kubeClient, timeout: timeout}
}

func (store *controllerRuntimeStore) Get(ctx context.Context, key types.NamespacedName, obj client.Object) error {
	requestContext, cancel := context.WithTimeout(ctx, store.timeout)
	defer cancel()

	return store.client.Get(requestContext, key, obj)
}

func (store *controllerRuntimeStore) List(ctx context.Context, list client.ObjectList, opts ...client.ListOption) error {
	requestContext, cancel := context.WithTimeout(ctx, store.timeout)
	defer cancel()

	return store.client.List(requestContext, list, opts...)
}

func (store *controllerRuntimeStore) Create(ctx context.Context, obj client.Object) error {
	requestContext, cancel := context.WithTimeout(ctx, store.timeout)
	defer cancel()

	return store.client.Create(requestContext, obj)
}

func (store *controllerRuntimeStore) Update(ctx context.Context, obj client.Object) error {
	requestContext, cancel := context.WithTimeout(ctx, store.timeout)
	defer cancel()

	return store.client.Update(requestContext, obj)
}

// UpdateStatus writes the status subresource only.
func (store *controllerRuntimeStore) UpdateStatus(ctx context.Context, obj client.Object) error {
	requestContext, cancel := context.WithTimeout(ctx, store.timeout)
	defer cancel()

	return store.client.Status().Update(requestContext, obj)
}

// Delete removes obj in the background, ignoring not found errors. The UID
// precondition keeps a recreated object with the same name from being removed.
func (store *controllerRuntimeStore) Delete(ctx context.Context, obj client.Object) error {
	requestContext, cancel := context.WithTimeout(ctx, store.timeout)
	defer cancel()

	opts := []client.DeleteOption{client.PropagationPolicy("Background")}
	if uid := obj.GetUID(); uid != "" {
		opts = append(opts, client.Preconditions{UID: &uid})
	}
	return client.IgnoreNotFound(store.client.Delete(requestContext, obj, opts...))
}
