package status

import (
	"fmt"
	"time"

	appsv1 "k8s.io/api/apps/v1"
	corev1 "k8s.io/api/core/v1"
	"k8s.io/apimachinery/pkg/api/meta"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"

	"ftoperator/pkg/agents/summary"
	"ftoperator/pkg/core"
)

// Condition reasons.
const (
	ReasonTerminating    = "Terminating"
	ReasonInvalidSpec    = "InvalidSpec"
	ReasonReconcileError = "ReconcileError"
	ReasonPending        = "Pending"
	ReasonApplying       = "Applying"
	ReasonRollingOut     = "RollingOut"
	ReasonAvailable      = "Available"
	ReasonReconciled     = "Reconciled"
	ReasonHealthy        = "Healthy"
	ReasonChildUnhealthy = "ChildUnhealthy"
	ReasonSecretNotFound = "SecretNotFound"
	ReasonForbidden      = "Forbidden"
	ReasonTransientError = "TransientError"

	progressDeadlineReason = "ProgressDeadlineExceeded"
	defaultDegradedMessage = "reconciliation failed"
	invalidProgressMessage = "spec rejected; existing children left untouched"
)

// Observation is what one reconcile pass learned about a Bot.
type Observation struct {
	Generation  int64
	Terminating bool
	// Invalid is the aggregated validation message. Nothing was written.
	Invalid string
	// Err failed the pass; Reason names it on the Degraded condition.
	Err    error
	Reason string

	Summary    *summary.Summary
	ConfigHash string
	// Children is the desired child set, in apply order.
	Children []core.ChildRef
	// Deployment is the bot Deployment as last seen after applying.
	Deployment *appsv1.Deployment
}

// Health is the rollout state of the bot Deployment.
type Health int

const (
	HealthUnobserved Health = iota
	HealthRollingOut
	HealthAvailable
	HealthFailed
)

// DeploymentHealth reads the rollout state from the Deployment status.
func DeploymentHealth(deployment *appsv1.Deployment) (Health, string) {
	if deployment == nil {
		return HealthUnobserved, "Deployment not found"
	}
	if deployment.Status.ObservedGeneration == 0 {
		return HealthUnobserved, "waiting for the Deployment controller"
	}
	for _, cond := range deployment.Status.Conditions {
		if cond.Type == appsv1.DeploymentProgressing && cond.Status == corev1.ConditionFalse && cond.Reason == progressDeadlineReason {
			return HealthFailed, fmt.Sprintf("Deployment %s: %s", deployment.Name, cond.Message)
		}
	}
	if deployment.Status.ObservedGeneration < deployment.Generation {
		return HealthRollingOut, "waiting for the Deployment controller to observe the new revision"
	}
	desired := int32(1)
	if deployment.Spec.Replicas != nil {
		desired = *deployment.Spec.Replicas
	}
	st := deployment.Status
	switch {
	case st.UpdatedReplicas < desired:
		return HealthRollingOut, fmt.Sprintf("%d of %d replicas updated", st.UpdatedReplicas, desired)
	case st.Replicas > st.UpdatedReplicas:
		return HealthRollingOut, fmt.Sprintf("%d old replicas pending termination", st.Replicas-st.UpdatedReplicas)
	case st.AvailableReplicas < desired:
		return HealthRollingOut, fmt.Sprintf("%d of %d replicas available", st.AvailableReplicas, desired)
	}
	return HealthAvailable, fmt.Sprintf("%d of %d replicas available", st.AvailableReplicas, desired)
}

// Compute builds the next BotStatus from previous and what the pass observed.
// Conditions keep their transition time while their status does not change, so
// computing twice from the same observation yields the same status.
func Compute(previous core.BotStatus, obs Observation, now time.Time) core.BotStatus {
	status := previous
	status.Conditions = append([]metav1.Condition(nil), previous.Conditions...)
	status.ObservedGeneration = obs.Generation
	timestamp := metav1.NewTime(now.UTC().Truncate(time.Second))

	set := func(conditionType string, value metav1.ConditionStatus, reason, message string) {
		meta.SetStatusCondition(&status.Conditions, metav1.Condition{
			Type:               conditionType,
			Status:             value,
			Reason:             reason,
			Message:            message,
			ObservedGeneration: obs.Generation,
			LastTransitionTime: timestamp,
		})
	}

	switch {
	case obs.Terminating:
		status.Phase = core.PhaseTerminating
		set(core.CondReady, metav1.ConditionFalse, ReasonTerminating, "Bot is being deleted")
		set(core.CondProgressing, metav1.ConditionFalse, ReasonTerminating, "children are garbage collected")
		set(core.CondDegraded, metav1.ConditionFalse, ReasonTerminating, "Bot is being deleted")

	case obs.Invalid != "":
		status.Phase = core.PhaseDegraded
		set(core.CondReady, metav1.ConditionFalse, ReasonInvalidSpec, obs.Invalid)
		set(core.CondProgressing, metav1.ConditionFalse, ReasonInvalidSpec, invalidProgressMessage)
		set(core.CondDegraded, metav1.ConditionTrue, ReasonInvalidSpec, obs.Invalid)

	case obs.Err != nil:
		reason := obs.Reason
		if reason == "" {
			reason = ReasonReconcileError
		}
		message := fmt.Sprintf("%s: %v", defaultDegradedMessage, obs.Err)
		status.Phase = core.PhaseDegraded
		set(core.CondReady, metav1.ConditionFalse, reason, message)
		set(core.CondProgressing, metav1.ConditionFalse, reason, "paused due to error")
		set(core.CondDegraded, metav1.ConditionTrue, reason, message)

	default:
		status.LastAppliedConfigHash = obs.ConfigHash
		status.Children = obs.Children
		health, message := DeploymentHealth(obs.Deployment)
		switch {
		case health == HealthFailed:
			status.Phase = core.PhaseDegraded
			set(core.CondReady, metav1.ConditionFalse, ReasonChildUnhealthy, message)
			set(core.CondProgressing, metav1.ConditionFalse, ReasonChildUnhealthy, message)
			set(core.CondDegraded, metav1.ConditionTrue, ReasonChildUnhealthy, message)
		case health == HealthUnobserved:
			status.Phase = core.PhasePending
			set(core.CondReady, metav1.ConditionFalse, ReasonPending, message)
			set(core.CondProgressing, metav1.ConditionTrue, ReasonPending, message)
			set(core.CondDegraded, metav1.ConditionFalse, ReasonHealthy, "no errors")
		case obs.Summary.Changed():
			status.Phase = core.PhaseProgressing
			set(core.CondReady, metav1.ConditionFalse, ReasonApplying, "children were updated")
			set(core.CondProgressing, metav1.ConditionTrue, ReasonApplying, fmt.Sprintf("applied %d child changes", changes(obs.Summary)))
			set(core.CondDegraded, metav1.ConditionFalse, ReasonHealthy, "no errors")
		case health == HealthRollingOut:
			status.Phase = core.PhaseProgressing
			set(core.CondReady, metav1.ConditionFalse, ReasonRollingOut, message)
			set(core.CondProgressing, metav1.ConditionTrue, ReasonRollingOut, message)
			set(core.CondDegraded, metav1.ConditionFalse, ReasonHealthy, "no errors")
		default:
			status.Phase = core.PhaseReady
			set(core.CondReady, metav1.ConditionTrue, ReasonAvailable, message)
			set(core.CondProgressing, metav1.ConditionFalse, ReasonReconciled, "all children match the desired state")
			set(core.CondDegraded, metav1.ConditionFalse, ReasonHealthy, "no errors")
		}
	}
	return status
}

func changes(sum *summary.Summary) int {
	return sum.Count(summary.ActionCreated) + sum.Count(summary.ActionUpdated) + sum.Count(summary.ActionDeleted)
}
