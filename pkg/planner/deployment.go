package planner

import (
	"fmt"

	appsv1 "k8s.io/api/apps/v1"
	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/util/intstr"
	"k8s.io/utils/ptr"

	"ftoperator/pkg/core"
)

// commandPlaceholder in spec.deployment.command expands to the default command.
const commandPlaceholder = "$CMD"

// DefaultCommand is the bot process command line for spec.
func DefaultCommand(spec *core.BotSpec) []string {
	command := []string{"freqtrade", "trade", "--config", core.ConfigFilePath}
	if name := spec.ModelName(); name != "" {
		command = append(command, "--freqaimodel", name, "--freqaimodel-path", core.ModelDir)
	}
	return command
}

// Command applies spec.deployment.command, expanding $CMD entries.
func Command(spec *core.BotSpec) []string {
	if spec.Deployment == nil || len(spec.Deployment.Command) == 0 {
		return DefaultCommand(spec)
	}
	var command []string
	for _, part := range spec.Deployment.Command {
		if part == commandPlaceholder {
			command = append(command, DefaultCommand(spec)...)
			continue
		}
		command = append(command, part)
	}
	return command
}

// Image resolves the container image reference.
func (p *Planner) Image(spec *core.BotSpec) string {
	repository, tag := p.options.DefaultImageRepository, p.options.DefaultImageTag
	if spec.Image != nil {
		if spec.Image.Repository != "" {
			repository = spec.Image.Repository
		}
		if spec.Image.Tag != "" {
			tag = spec.Image.Tag
		}
	}
	return fmt.Sprintf("%s:%s", repository, tag)
}

func (p *Planner) buildDeployment(in Input, configHash string) (*appsv1.Deployment, error) {
	spec := in.Spec
	overrides := spec.Deployment
	if overrides == nil {
		overrides = &core.DeploymentSpec{}
	}

	container := corev1.Container{
		Name:            core.ContainerName,
		Image:           p.Image(spec),
		Command:         Command(spec),
		Env:             overrides.Env,
		VolumeMounts:    append(botVolumeMounts(spec), overrides.VolumeMounts...),
		SecurityContext: overrides.SecurityContext,
	}
	if spec.Image != nil {
		container.ImagePullPolicy = spec.Image.PullPolicy
	}
	if overrides.Resources != nil {
		container.Resources = *overrides.Resources
	}
	if spec.APIEnabled() {
		container.Ports = []corev1.ContainerPort{{
			Name:          core.APIPortName,
			ContainerPort: spec.APIPort(),
			Protocol:      corev1.ProtocolTCP,
		}}
		container.ReadinessProbe = &corev1.Probe{
			ProbeHandler: corev1.ProbeHandler{
				HTTPGet: &corev1.HTTPGetAction{Path: "/api/v1/ping", Port: intstr.FromString(core.APIPortName)},
			},
			PeriodSeconds:    10,
			FailureThreshold: 3,
		}
	}

	podLabels := mergeStringMaps(overrides.Labels, Labels(in.Bot.Name, componentBot))
	podAnnotations := mergeStringMaps(overrides.Annotations, map[string]string{core.ConfigHashAnnotation: configHash})

	podSpec := corev1.PodSpec{
		InitContainers:  overrides.InitContainers,
		Containers:      append([]corev1.Container{container}, overrides.Containers...),
		Volumes:         append(botVolumes(in.Bot.Name, spec), overrides.Volumes...),
		NodeSelector:    overrides.NodeSelector,
		Affinity:        overrides.Affinity,
		Tolerations:     overrides.Tolerations,
		SecurityContext: overrides.PodSecurityContext,
	}
	if spec.Image != nil {
		podSpec.ImagePullSecrets = spec.Image.PullSecrets
	}

	deployment := &appsv1.Deployment{
		ObjectMeta: objectMeta(in.Bot, DeploymentName(in.Bot.Name), componentBot),
		Spec: appsv1.DeploymentSpec{
			Replicas: ptr.To[int32](1),
			Selector: &metav1.LabelSelector{MatchLabels: SelectorLabels(in.Bot.Name)},
			// A second pod trading the same account alongside the old one is never safe.
			Strategy: appsv1.DeploymentStrategy{Type: appsv1.RecreateDeploymentStrategyType},
			Template: corev1.PodTemplateSpec{
				ObjectMeta: metav1.ObjectMeta{Labels: podLabels, Annotations: podAnnotations},
				Spec:       podSpec,
			},
		},
	}
	if err := stampHash(deployment, deployment.Spec); err != nil {
		return nil, err
	}
	return deployment, nil
}

func botVolumeMounts(spec *core.BotSpec) []corev1.VolumeMount {
	mounts := []corev1.VolumeMount{{Name: core.ConfigVolumeName, MountPath: core.ConfigDir, ReadOnly: true}}
	mounts = append(mounts, corev1.VolumeMount{Name: core.StrategyVolumeName, MountPath: core.StrategyDir, ReadOnly: true})
	if spec.Model != nil {
		mounts = append(mounts, corev1.VolumeMount{Name: core.ModelVolumeName, MountPath: core.ModelDir, ReadOnly: true})
	}
	if spec.PVCEnabled() {
		mounts = append(mounts, corev1.VolumeMount{Name: core.UserDataVolumeName, MountPath: core.UserDataDir})
	}
	return mounts
}

func botVolumes(bot string, spec *core.BotSpec) []corev1.Volume {
	volumes := []corev1.Volume{{
		Name: core.ConfigVolumeName,
		VolumeSource: corev1.VolumeSource{Secret: &corev1.SecretVolumeSource{
			SecretName: SecretName(bot),
			Items:      []corev1.KeyToPath{{Key: core.ConfigFileName, Path: core.ConfigFileName}},
		}},
	}}
	volumes = append(volumes, sourceVolume(bot, core.StrategyVolumeName, core.StrategyFileKey, spec.Strategy.Source, spec.Strategy.ConfigMapName))
	if spec.Model != nil {
		volumes = append(volumes, sourceVolume(bot, core.ModelVolumeName, core.ModelFileKey, spec.Model.Source, spec.Model.ConfigMapName))
	}
	if spec.PVCEnabled() {
		volumes = append(volumes, corev1.Volume{
			Name: core.UserDataVolumeName,
			VolumeSource: corev1.VolumeSource{PersistentVolumeClaim: &corev1.PersistentVolumeClaimVolumeSource{
				ClaimName: PVCName(bot),
			}},
		})
	}
	return volumes
}

// sourceVolume mounts the inline source key from the owned ConfigMap, or the whole
// externally managed ConfigMap when configMapName is used.
func sourceVolume(bot, volumeName, key, source, external string) corev1.Volume {
	if source != "" {
		return corev1.Volume{
			Name: volumeName,
			VolumeSource: corev1.VolumeSource{ConfigMap: &corev1.ConfigMapVolumeSource{
				LocalObjectReference: corev1.LocalObjectReference{Name: ConfigMapName(bot)},
				Items:                []corev1.KeyToPath{{Key: key, Path: key}},
			}},
		}
	}
	return corev1.Volume{
		Name: volumeName,
		VolumeSource: corev1.VolumeSource{ConfigMap: &corev1.ConfigMapVolumeSource{
			LocalObjectReference: corev1.LocalObjectReference{Name: external},
		}},
	}
}
