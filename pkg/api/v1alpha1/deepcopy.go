package v1alpha1

import (
	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/runtime"

	"ftoperator/pkg/core"
)

var _ runtime.Object = &Bot{}
var _ runtime.Object = &BotList{}

// DeepCopyInto copies the receiver into out.
func (bot *Bot) DeepCopyInto(out *Bot) {
	if bot == nil || out == nil {
		return
	}
	*out = *bot
	bot.ObjectMeta.DeepCopyInto(&out.ObjectMeta)
	out.Spec = deepCopySpec(&bot.Spec)
	out.Status = deepCopyStatus(&bot.Status)
}

// DeepCopy creates a new deep copy of the receiver.
func (bot *Bot) DeepCopy() *Bot {
	if bot == nil {
		return nil
	}
	out := new(Bot)
	bot.DeepCopyInto(out)
	return out
}

// DeepCopyObject returns a deep copy as a runtime.Object.
func (bot *Bot) DeepCopyObject() runtime.Object {
	if bot == nil {
		return nil
	}
	return bot.DeepCopy()
}

// DeepCopyInto copies the receiver into out.
func (botList *BotList) DeepCopyInto(out *BotList) {
	if botList == nil || out == nil {
		return
	}
	*out = *botList
	botList.ListMeta.DeepCopyInto(&out.ListMeta)
	if botList.Items != nil {
		out.Items = make([]Bot, len(botList.Items))
		for index := range botList.Items {
			botList.Items[index].DeepCopyInto(&out.Items[index])
		}
	}
}

// DeepCopy creates a new deep copy of the list.
func (botList *BotList) DeepCopy() *BotList {
	if botList == nil {
		return nil
	}
	out := new(BotList)
	botList.DeepCopyInto(out)
	return out
}

// DeepCopyObject returns a deep copy of the list as a runtime.Object.
func (botList *BotList) DeepCopyObject() runtime.Object {
	if botList == nil {
		return nil
	}
	return botList.DeepCopy()
}

func deepCopySpec(source *core.BotSpec) core.BotSpec {
	if source == nil {
		return core.BotSpec{}
	}
	copied := *source

	if source.Config != nil {
		copied.Config = source.Config.DeepCopy()
	}
	if source.API != nil {
		api := *source.API
		if source.API.Port != nil {
			port := *source.API.Port
			api.Port = &port
		}
		copied.API = &api
	}
	copied.Secrets = deepCopySecrets(source.Secrets)
	if source.Model != nil {
		model := *source.Model
		copied.Model = &model
	}
	if source.Service != nil {
		service := *source.Service
		if source.Service.Ports != nil {
			service.Ports = make([]core.PortSpec, len(source.Service.Ports))
			for i, port := range source.Service.Ports {
				service.Ports[i] = port
				if port.TargetPort != nil {
					targetPort := *port.TargetPort
					service.Ports[i].TargetPort = &targetPort
				}
			}
		}
		service.Annotations = copyStringMap(source.Service.Annotations)
		service.Labels = copyStringMap(source.Service.Labels)
		copied.Service = &service
	}
	if source.Image != nil {
		image := *source.Image
		if source.Image.PullSecrets != nil {
			image.PullSecrets = append([]corev1.LocalObjectReference(nil), source.Image.PullSecrets...)
		}
		copied.Image = &image
	}
	if source.PVC != nil {
		pvc := *source.PVC
		if source.PVC.StorageClassName != nil {
			storageClass := *source.PVC.StorageClassName
			pvc.StorageClassName = &storageClass
		}
		copied.PVC = &pvc
	}
	if source.Deployment != nil {
		copied.Deployment = deepCopyDeployment(source.Deployment)
	}
	return copied
}

func deepCopySecrets(source core.BotSecrets) core.BotSecrets {
	var copied core.BotSecrets
	if source.API != nil {
		copied.API = &core.APISecrets{
			Username:     deepCopySecretItem(source.API.Username),
			Password:     deepCopySecretItem(source.API.Password),
			WSToken:      deepCopySecretItem(source.API.WSToken),
			JWTSecretKey: deepCopySecretItem(source.API.JWTSecretKey),
		}
	}
	if source.Exchange != nil {
		copied.Exchange = &core.ExchangeSecrets{
			Key:      deepCopySecretItem(source.Exchange.Key),
			Secret:   deepCopySecretItem(source.Exchange.Secret),
			Password: deepCopySecretItem(source.Exchange.Password),
		}
	}
	if source.Telegram != nil {
		copied.Telegram = &core.TelegramSecrets{
			Token:  deepCopySecretItem(source.Telegram.Token),
			ChatID: deepCopySecretItem(source.Telegram.ChatID),
		}
	}
	return copied
}

func deepCopySecretItem(source *core.SecretItem) *core.SecretItem {
	if source == nil {
		return nil
	}
	copied := &core.SecretItem{}
	if source.Value != nil {
		value := *source.Value
		copied.Value = &value
	}
	if source.SecretKeyRef != nil {
		copied.SecretKeyRef = source.SecretKeyRef.DeepCopy()
	}
	return copied
}

func deepCopyDeployment(source *core.DeploymentSpec) *core.DeploymentSpec {
	copied := *source
	if source.Command != nil {
		copied.Command = append([]string(nil), source.Command...)
	}
	copied.Annotations = copyStringMap(source.Annotations)
	copied.Labels = copyStringMap(source.Labels)
	copied.NodeSelector = copyStringMap(source.NodeSelector)
	if source.Resources != nil {
		copied.Resources = source.Resources.DeepCopy()
	}
	if source.Affinity != nil {
		copied.Affinity = source.Affinity.DeepCopy()
	}
	if source.Tolerations != nil {
		copied.Tolerations = make([]corev1.Toleration, len(source.Tolerations))
		for i := range source.Tolerations {
			source.Tolerations[i].DeepCopyInto(&copied.Tolerations[i])
		}
	}
	if source.PodSecurityContext != nil {
		copied.PodSecurityContext = source.PodSecurityContext.DeepCopy()
	}
	if source.SecurityContext != nil {
		copied.SecurityContext = source.SecurityContext.DeepCopy()
	}
	if source.Env != nil {
		copied.Env = make([]corev1.EnvVar, len(source.Env))
		for i := range source.Env {
			source.Env[i].DeepCopyInto(&copied.Env[i])
		}
	}
	if source.Volumes != nil {
		copied.Volumes = make([]corev1.Volume, len(source.Volumes))
		for i := range source.Volumes {
			source.Volumes[i].DeepCopyInto(&copied.Volumes[i])
		}
	}
	if source.VolumeMounts != nil {
		copied.VolumeMounts = make([]corev1.VolumeMount, len(source.VolumeMounts))
		for i := range source.VolumeMounts {
			source.VolumeMounts[i].DeepCopyInto(&copied.VolumeMounts[i])
		}
	}
	copied.InitContainers = copyContainers(source.InitContainers)
	copied.Containers = copyContainers(source.Containers)
	return &copied
}

func copyContainers(source []corev1.Container) []corev1.Container {
	if source == nil {
		return nil
	}
	copied := make([]corev1.Container, len(source))
	for i := range source {
		source[i].DeepCopyInto(&copied[i])
	}
	return copied
}

func deepCopyStatus(source *core.BotStatus) core.BotStatus {
	if source == nil {
		return core.BotStatus{}
	}
	copied := *source
	if source.Conditions != nil {
		copied.Conditions = make([]metav1.Condition, len(source.Conditions))
		for i := range source.Conditions {
			source.Conditions[i].DeepCopyInto(&copied.Conditions[i])
		}
	}
	if source.LastUpdated != nil {
		copied.LastUpdated = source.LastUpdated.DeepCopy()
	}
	if source.Children != nil {
		copied.Children = append([]core.ChildRef(nil), source.Children...)
	}
	return copied
}

func copyStringMap(source map[string]string) map[string]string {
	if source == nil {
		return nil
	}
	copied := make(map[string]string, len(source))
	for key, value := range source {
		copied[key] = value
	}
	return copied
}
