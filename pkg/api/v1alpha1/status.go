package v1alpha1

import (
	"k8s.io/apimachinery/pkg/api/equality"
	"k8s.io/apimachinery/pkg/api/meta"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/types"

	"ftoperator/pkg/core"
)

// Key returns the namespaced name used as the work item for this Bot.
func (bot *Bot) Key() types.NamespacedName {
	return types.NamespacedName{Namespace: bot.Namespace, Name: bot.Name}
}

// ApplyStatus replaces the status with next and reports whether anything changed.
// LastUpdated only moves when another field changed, so an unchanged pass leaves
// the object identical and needs no write.
func (bot *Bot) ApplyStatus(next core.BotStatus, now metav1.Time) bool {
	current := deepCopyStatus(&bot.Status)
	candidate := deepCopyStatus(&next)
	current.LastUpdated = nil
	candidate.LastUpdated = nil
	if equality.Semantic.DeepEqual(current, candidate) {
		return false
	}
	candidate.LastUpdated = &now
	bot.Status = candidate
	return true
}

// Condition returns the condition of the given type, or nil.
func (bot *Bot) Condition(conditionType string) *metav1.Condition {
	return meta.FindStatusCondition(bot.Status.Conditions, conditionType)
}

// IsReady reports whether the Ready condition is True.
func (bot *Bot) IsReady() bool {
	return meta.IsStatusConditionTrue(bot.Status.Conditions, core.CondReady)
}
