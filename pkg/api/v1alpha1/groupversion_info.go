// Package v1alpha1 contains API Schema definitions for the freqtrade.io v1alpha1 API group.
// +kubebuilder:object:generate=true
// +groupName=freqtrade.io
package v1alpha1

import (
	"k8s.io/apimachinery/pkg/runtime/schema"
	"sigs.k8s.io/controller-runtime/pkg/scheme"
)

var (
	// GroupVersion is group version used to register these objects.
	GroupVersion = schema.GroupVersion{Group: "freqtrade.io", Version: "v1alpha1"}

	// SchemeBuilder registers our API types with a scheme.
	SchemeBuilder = &scheme.Builder{GroupVersion: GroupVersion}

	// AddToScheme adds the types to the scheme.
	AddToScheme = SchemeBuilder.AddToScheme
)

// Kind is the kind name of the Bot resource.
const Kind = "Bot"

// GroupVersionKind identifies Bot objects.
var GroupVersionKind = GroupVersion.WithKind(Kind)
