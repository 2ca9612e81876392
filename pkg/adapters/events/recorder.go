package events

import (
	corev1 "k8s.io/api/core/v1"
	"k8s.io/client-go/tools/record"
	"sigs.k8s.io/controller-runtime/pkg/client"

	"ftoperator/pkg/agents/summary"
)

// Event reasons.
const (
	ReasonChildCreated   = "ChildCreated"
	ReasonChildUpdated   = "ChildUpdated"
	ReasonChildDeleted   = "ChildDeleted"
	ReasonInvalidSpec    = "InvalidSpec"
	ReasonReconcileError = "ReconcileError"
)

// Recorder wraps a controller-runtime EventRecorder with helper methods
// specific to Bot reconciliation.
//
// The helper methods guard against nil receivers so tests can pass a nil
// recorder when event emission is not under test.
type Recorder struct {
	recorder record.EventRecorder
}

// NewRecorder constructs a Recorder from the provided controller-runtime EventRecorder.
func NewRecorder(rec record.EventRecorder) *Recorder {
	return &Recorder{recorder: rec}
}

// ChildCreated records an event indicating a child object was created.
func (r *Recorder) ChildCreated(obj client.Object, kind, name string) {
	if r == nil || r.recorder == nil {
		return
	}
	r.recorder.Eventf(obj, corev1.EventTypeNormal, ReasonChildCreated, "%s %s created", kind, name)
}

// ChildUpdated records an event indicating a child object was updated.
func (r *Recorder) ChildUpdated(obj client.Object, kind, name string) {
	if r == nil || r.recorder == nil {
		return
	}
	r.recorder.Eventf(obj, corev1.EventTypeNormal, ReasonChildUpdated, "%s %s updated", kind, name)
}

// ChildDeleted records an event indicating a child object is no longer desired and was removed.
func (r *Recorder) ChildDeleted(obj client.Object, kind, name string) {
	if r == nil || r.recorder == nil {
		return
	}
	r.recorder.Eventf(obj, corev1.EventTypeNormal, ReasonChildDeleted, "%s %s deleted", kind, name)
}

// Summary emits one event per write in sum. Unchanged children stay silent.
func (r *Recorder) Summary(obj client.Object, sum *summary.Summary) {
	if r == nil || sum == nil {
		return
	}
	for _, action := range sum.Actions {
		switch action.Action {
		case summary.ActionCreated:
			r.ChildCreated(obj, action.Kind, action.Name)
		case summary.ActionUpdated:
			r.ChildUpdated(obj, action.Kind, action.Name)
		case summary.ActionDeleted:
			r.ChildDeleted(obj, action.Kind, action.Name)
		}
	}
}

// InvalidSpec records a warning with the aggregated validation message.
func (r *Recorder) InvalidSpec(obj client.Object, message string) {
	if r == nil || r.recorder == nil {
		return
	}
	r.recorder.Event(obj, corev1.EventTypeWarning, ReasonInvalidSpec, message)
}

// Error records an event indicating reconciliation failed.
func (r *Recorder) Error(obj client.Object, err error) {
	if r == nil || r.recorder == nil || err == nil {
		return
	}
	r.recorder.Eventf(obj, corev1.EventTypeWarning, ReasonReconcileError, "reconciliation error: %v", err)
}
