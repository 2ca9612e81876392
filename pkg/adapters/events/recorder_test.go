package events

import (
	"fmt"
	"testing"

	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/runtime"

	"ftoperator/pkg/agents/summary"
	"ftoperator/pkg/api/v1alpha1"
)

type recordedEvent struct {
	eventType string
	reason    string
	message   string
}

type fakeEventRecorder struct {
	events []recordedEvent
}

func (f *fakeEventRecorder) Event(object runtime.Object, eventtype, reason, message string) {
	f.events = append(f.events, recordedEvent{eventType: eventtype, reason: reason, message: message})
}

func (f *fakeEventRecorder) Eventf(object runtime.Object, eventtype, reason, messageFmt string, args ...interface{}) {
	f.events = append(f.events, recordedEvent{eventType: eventtype, reason: reason, message: fmt.Sprintf(messageFmt, args...)})
}

func (f *fakeEventRecorder) AnnotatedEventf(object runtime.Object, annotations map[string]string, eventtype, reason, messageFmt string, args ...interface{}) {
}

func TestRecorderHelpers(t *testing.T) {
	fake := &fakeEventRecorder{}
	rec := NewRecorder(fake)
	obj := &v1alpha1.Bot{ObjectMeta: metav1.ObjectMeta{Namespace: "trading", Name: "kucoin-bot"}}

	rec.ChildCreated(obj, "Secret", "kucoin-bot-config")
	rec.ChildUpdated(obj, "Deployment", "kucoin-bot")
	rec.ChildDeleted(obj, "Service", "kucoin-bot")
	rec.InvalidSpec(obj, "spec.exchange: Required value")
	rec.Error(obj, fmt.Errorf("boom"))

	if len(fake.events) != 5 {
		t.Fatalf("expected 5 events, got %d", len(fake.events))
	}
	if fake.events[0].reason != ReasonChildCreated || fake.events[0].message != "Secret kucoin-bot-config created" {
		t.Fatalf("unexpected create event: %+v", fake.events[0])
	}
	if fake.events[3].eventType != corev1.EventTypeWarning || fake.events[3].reason != ReasonInvalidSpec {
		t.Fatalf("expected invalid spec warning, got %+v", fake.events[3])
	}
	if fake.events[4].reason != ReasonReconcileError {
		t.Fatalf("expected error reason, got %+v", fake.events[4])
	}
}

func TestRecorderSummarySkipsUnchanged(t *testing.T) {
	fake := &fakeEventRecorder{}
	rec := NewRecorder(fake)
	obj := &v1alpha1.Bot{}
	sum := &summary.Summary{}
	sum.Record("Secret", "bot-config", summary.ActionUnchanged)
	sum.Record("Deployment", "bot", summary.ActionUpdated)
	sum.Record("ConfigMap", "bot-source", summary.ActionDeleted)

	rec.Summary(obj, sum)
	if len(fake.events) != 2 {
		t.Fatalf("expected 2 events, got %+v", fake.events)
	}
	if fake.events[0].reason != ReasonChildUpdated || fake.events[1].reason != ReasonChildDeleted {
		t.Fatalf("unexpected reasons: %+v", fake.events)
	}
}

func TestRecorderNilSafe(t *testing.T) {
	var rec *Recorder
	rec.ChildCreated(nil, "Secret", "name")
	rec.Summary(nil, &summary.Summary{Actions: []summary.ChildAction{{Action: summary.ActionCreated}}})
	// ensure no panic
}
