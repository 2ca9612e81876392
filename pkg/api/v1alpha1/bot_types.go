package v1alpha1

import (
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"

	"ftoperator/pkg/core"
)

// BotSpec defines the desired state of Bot.
type BotSpec = core.BotSpec

// BotStatus defines observed state.
type BotStatus = core.BotStatus

// +kubebuilder:object:root=true
// +kubebuilder:subresource:status
// +kubebuilder:resource:scope=Namespaced,shortName=ftbot
// +kubebuilder:printcolumn:name="Exchange",type="string",JSONPath=".spec.exchange"
// +kubebuilder:printcolumn:name="Strategy",type="string",JSONPath=".spec.strategy.name"
// +kubebuilder:printcolumn:name="Phase",type="string",JSONPath=".status.phase"
// +kubebuilder:printcolumn:name="Age",type="date",JSONPath=".metadata.creationTimestamp"

// Bot is the Schema for the bots API.
type Bot struct {
	metav1.TypeMeta   `json:",inline"`
	metav1.ObjectMeta `json:"metadata,omitempty"`

	Spec   BotSpec   `json:"spec,omitempty"`
	Status BotStatus `json:"status,omitempty"`
}

// +kubebuilder:object:root=true

// BotList contains a list of Bot.
type BotList struct {
	metav1.TypeMeta `json:",inline"`
	metav1.ListMeta `json:"metadata,omitempty"`
	Items           []Bot `json:"items"`
}

func init() {
	SchemeBuilder.Register(&Bot{}, &BotList{})
}
