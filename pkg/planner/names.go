package planner

import (
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"

	"ftoperator/pkg/api/v1alpha1"
	"ftoperator/pkg/core"
)

// Child kinds, used in status, events, and metrics.
const (
	KindDeployment = "Deployment"
	KindService    = "Service"
	KindSecret     = "Secret"
	KindConfigMap  = "ConfigMap"
	KindPVC        = "PersistentVolumeClaim"
)

// Component label values per child.
const (
	componentBot    = "bot"
	componentAPI    = "api"
	componentConfig = "config"
	componentSource = "source"
	componentData   = "data"
)

func DeploymentName(bot string) string { return bot }

func ServiceName(bot string) string { return bot }

func SecretName(bot string) string { return bot + "-config" }

func ConfigMapName(bot string) string { return bot + "-source" }

func PVCName(bot string) string { return bot + "-data" }

// SelectorLabels identify the pods of one Bot. They never change for the lifetime
// of the Bot because Deployment selectors are immutable.
func SelectorLabels(bot string) map[string]string {
	return map[string]string{
		core.NameLabel:     core.AppName,
		core.InstanceLabel: bot,
		core.BotLabel:      bot,
	}
}

// Labels returns the full label set for a child of the given component.
func Labels(bot, component string) map[string]string {
	labels := SelectorLabels(bot)
	labels[core.ComponentLabel] = component
	labels[core.PartOfLabel] = core.AppName
	labels[core.ManagedByLabel] = core.OperatorName
	return labels
}

// OwnerReference marks the Bot as the controlling owner so garbage collection
// removes children when the Bot is deleted.
func OwnerReference(bot *v1alpha1.Bot) metav1.OwnerReference {
	return *metav1.NewControllerRef(bot, v1alpha1.GroupVersionKind)
}

func objectMeta(bot *v1alpha1.Bot, name, component string) metav1.ObjectMeta {
	return metav1.ObjectMeta{
		Name:            name,
		Namespace:       bot.Namespace,
		Labels:          Labels(bot.Name, component),
		OwnerReferences: []metav1.OwnerReference{OwnerReference(bot)},
	}
}

func mergeStringMaps(maps ...map[string]string) map[string]string {
	out := map[string]string{}
	for _, m := range maps {
		for k, v := range m {
			out[k] = v
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
