package core

import (
	corev1 "k8s.io/api/core/v1"
	apiextensionsv1 "k8s.io/apiextensions-apiserver/pkg/apis/apiextensions/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/util/intstr"
)

// BotSpec models the desired state of a trading bot.
type BotSpec struct {
	Exchange   string                `json:"exchange"`
	Config     *apiextensionsv1.JSON `json:"config,omitempty"`
	Database   string                `json:"database,omitempty"`
	API        *APISpec              `json:"api,omitempty"`
	Secrets    BotSecrets            `json:"secrets"`
	Strategy   StrategySpec          `json:"strategy"`
	Model      *ModelSpec            `json:"model,omitempty"`
	Service    *ServiceSpec          `json:"service,omitempty"`
	Image      *ImageSpec            `json:"image,omitempty"`
	PVC        *PVCSpec              `json:"pvc,omitempty"`
	Deployment *DeploymentSpec       `json:"deployment,omitempty"`
}

// APISpec configures the bot's REST API server.
type APISpec struct {
	Enabled bool   `json:"enabled"`
	Host    string `json:"host,omitempty"`
	Port    *int32 `json:"port,omitempty"`
}

// BotSecrets groups the credentials injected into the runtime config.
type BotSecrets struct {
	API      *APISecrets      `json:"api,omitempty"`
	Exchange *ExchangeSecrets `json:"exchange,omitempty"`
	Telegram *TelegramSecrets `json:"telegram,omitempty"`
}

// APISecrets holds API server credentials.
type APISecrets struct {
	Username     *SecretItem `json:"username,omitempty"`
	Password     *SecretItem `json:"password,omitempty"`
	WSToken      *SecretItem `json:"wsToken,omitempty"`
	JWTSecretKey *SecretItem `json:"jwtSecretKey,omitempty"`
}

// ExchangeSecrets holds exchange credentials. Every field is optional.
type ExchangeSecrets struct {
	Key      *SecretItem `json:"key,omitempty"`
	Secret   *SecretItem `json:"secret,omitempty"`
	Password *SecretItem `json:"password,omitempty"`
}

// TelegramSecrets holds Telegram bot credentials.
type TelegramSecrets struct {
	Token  *SecretItem `json:"token,omitempty"`
	ChatID *SecretItem `json:"chatId,omitempty"`
}

// SecretItem is either a literal value or a reference to a key of an existing Secret.
type SecretItem struct {
	Value        *string                   `json:"value,omitempty"`
	SecretKeyRef *corev1.SecretKeySelector `json:"secretKeyRef,omitempty"`
}

// StrategySpec names the strategy and where its source comes from.
type StrategySpec struct {
	Name          string `json:"name"`
	Source        string `json:"source,omitempty"`
	ConfigMapName string `json:"configMapName,omitempty"`
}

// ModelSpec enables FreqAI with the named model.
type ModelSpec struct {
	Name          string `json:"name,omitempty"`
	Source        string `json:"source,omitempty"`
	ConfigMapName string `json:"configMapName,omitempty"`
}

// ServiceSpec overrides the generated Service.
type ServiceSpec struct {
	Type        corev1.ServiceType `json:"type,omitempty"`
	Ports       []PortSpec         `json:"ports,omitempty"`
	Annotations map[string]string  `json:"annotations,omitempty"`
	Labels      map[string]string  `json:"labels,omitempty"`
}

// PortSpec describes one Service port.
type PortSpec struct {
	Name       string              `json:"name"`
	Port       int32               `json:"port"`
	TargetPort *intstr.IntOrString `json:"targetPort,omitempty"`
	Protocol   corev1.Protocol     `json:"protocol,omitempty"`
	NodePort   int32               `json:"nodePort,omitempty"`
}

// ImageSpec selects the bot container image.
type ImageSpec struct {
	Repository  string                        `json:"repository,omitempty"`
	Tag         string                        `json:"tag,omitempty"`
	PullPolicy  corev1.PullPolicy             `json:"pullPolicy,omitempty"`
	PullSecrets []corev1.LocalObjectReference `json:"pullSecrets,omitempty"`
}

// PVCSpec configures the persistent user-data volume.
type PVCSpec struct {
	Enabled          bool    `json:"enabled"`
	Size             string  `json:"size,omitempty"`
	StorageClassName *string `json:"storageClassName,omitempty"`
}

// DeploymentSpec carries pod-level overrides for the bot Deployment.
type DeploymentSpec struct {
	Command            []string                     `json:"command,omitempty"`
	Annotations        map[string]string            `json:"annotations,omitempty"`
	Labels             map[string]string            `json:"labels,omitempty"`
	NodeSelector       map[string]string            `json:"nodeSelector,omitempty"`
	Resources          *corev1.ResourceRequirements `json:"resources,omitempty"`
	Affinity           *corev1.Affinity             `json:"affinity,omitempty"`
	Tolerations        []corev1.Toleration          `json:"tolerations,omitempty"`
	PodSecurityContext *corev1.PodSecurityContext   `json:"podSecurityContext,omitempty"`
	SecurityContext    *corev1.SecurityContext      `json:"securityContext,omitempty"`
	Env                []corev1.EnvVar              `json:"env,omitempty"`
	Volumes            []corev1.Volume              `json:"volumes,omitempty"`
	VolumeMounts       []corev1.VolumeMount         `json:"volumeMounts,omitempty"`
	InitContainers     []corev1.Container           `json:"initContainers,omitempty"`
	Containers         []corev1.Container           `json:"containers,omitempty"`
}

// BotStatus reports controller state.
type BotStatus struct {
	ObservedGeneration    int64              `json:"observedGeneration,omitempty"`
	Phase                 Phase              `json:"phase,omitempty"`
	Conditions            []metav1.Condition `json:"conditions,omitempty"`
	LastAppliedConfigHash string             `json:"lastAppliedConfigHash,omitempty"`
	LastUpdated           *metav1.Time       `json:"lastUpdated,omitempty"`
	Children              []ChildRef         `json:"children,omitempty"`
}

// ChildRef names an object owned by the Bot.
type ChildRef struct {
	Kind string `json:"kind"`
	Name string `json:"name"`
}
