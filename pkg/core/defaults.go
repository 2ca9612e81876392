package core

import (
	corev1 "k8s.io/api/core/v1"
)

// DefaultSpec fills unset optional fields in place. Callers apply it to a copy of
// the stored spec; defaults are resolved at read time and never written back.
func DefaultSpec(spec *BotSpec) {
	if spec == nil {
		return
	}
	if spec.Database == "" {
		spec.Database = DefaultDatabase
	}
	if spec.API != nil {
		if spec.API.Host == "" {
			spec.API.Host = DefaultAPIHost
		}
		if spec.API.Port == nil {
			port := DefaultAPIPort
			spec.API.Port = &port
		}
	}
	if spec.Model != nil && spec.Model.Name == "" {
		spec.Model.Name = DefaultModelName
	}
	if spec.Service != nil && spec.Service.Type == "" {
		spec.Service.Type = DefaultServiceType
	}
	if spec.PVC != nil && spec.PVC.Size == "" {
		spec.PVC.Size = DefaultPVCSize
	}
}

// APIEnabled reports whether the REST API server is turned on.
func (spec *BotSpec) APIEnabled() bool {
	return spec.API != nil && spec.API.Enabled
}

// APIHost returns the API listen address with the default applied.
func (spec *BotSpec) APIHost() string {
	if spec.API == nil || spec.API.Host == "" {
		return DefaultAPIHost
	}
	return spec.API.Host
}

// APIPort returns the API listen port with the default applied.
func (spec *BotSpec) APIPort() int32 {
	if spec.API == nil || spec.API.Port == nil {
		return DefaultAPIPort
	}
	return *spec.API.Port
}

// DatabaseURL returns the database connection string with the default applied.
func (spec *BotSpec) DatabaseURL() string {
	if spec.Database == "" {
		return DefaultDatabase
	}
	return spec.Database
}

// ServiceType returns the Service type with the default applied.
func (spec *BotSpec) ServiceType() corev1.ServiceType {
	if spec.Service == nil || spec.Service.Type == "" {
		return DefaultServiceType
	}
	return spec.Service.Type
}

// ModelName returns the FreqAI model name, or "" when FreqAI is disabled.
func (spec *BotSpec) ModelName() string {
	if spec.Model == nil {
		return ""
	}
	if spec.Model.Name == "" {
		return DefaultModelName
	}
	return spec.Model.Name
}

// PVCEnabled reports whether a user-data volume claim is requested.
func (spec *BotSpec) PVCEnabled() bool {
	return spec.PVC != nil && spec.PVC.Enabled
}

// PVCSize returns the requested claim size with the default applied.
func (spec *BotSpec) PVCSize() string {
	if spec.PVC == nil || spec.PVC.Size == "" {
		return DefaultPVCSize
	}
	return spec.PVC.Size
}
