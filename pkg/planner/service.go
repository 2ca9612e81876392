package planner

import (
	corev1 "k8s.io/api/core/v1"
	"k8s.io/apimachinery/pkg/util/intstr"

	"ftoperator/pkg/core"
)

func buildService(in Input) (*corev1.Service, error) {
	meta := objectMeta(in.Bot, ServiceName(in.Bot.Name), componentAPI)
	var overrides *core.ServiceSpec
	if in.Spec.Service != nil {
		overrides = in.Spec.Service
		meta.Labels = mergeStringMaps(overrides.Labels, meta.Labels)
		meta.Annotations = mergeStringMaps(overrides.Annotations)
	}

	service := &corev1.Service{
		ObjectMeta: meta,
		Spec: corev1.ServiceSpec{
			Type:     in.Spec.ServiceType(),
			Selector: SelectorLabels(in.Bot.Name),
			Ports:    ServicePorts(in.Spec),
		},
	}
	if err := stampHash(service, service.Spec); err != nil {
		return nil, err
	}
	return service, nil
}

// ServicePorts returns the default api port merged with spec.service.ports by name.
// An override with the same name replaces the default entry entirely; other
// overrides are appended in the order given.
func ServicePorts(spec *core.BotSpec) []corev1.ServicePort {
	ports := []corev1.ServicePort{{
		Name:       core.APIPortName,
		Port:       spec.APIPort(),
		TargetPort: intstr.FromInt32(spec.APIPort()),
		Protocol:   corev1.ProtocolTCP,
	}}
	if spec.Service == nil {
		return ports
	}
	for _, override := range spec.Service.Ports {
		port := toServicePort(override)
		replaced := false
		for i := range ports {
			if ports[i].Name == port.Name {
				ports[i] = port
				replaced = true
				break
			}
		}
		if !replaced {
			ports = append(ports, port)
		}
	}
	return ports
}

func toServicePort(spec core.PortSpec) corev1.ServicePort {
	port := corev1.ServicePort{
		Name:     spec.Name,
		Port:     spec.Port,
		Protocol: spec.Protocol,
		NodePort: spec.NodePort,
	}
	if port.Protocol == "" {
		port.Protocol = corev1.ProtocolTCP
	}
	if spec.TargetPort != nil {
		port.TargetPort = *spec.TargetPort
	} else {
		port.TargetPort = intstr.FromInt32(spec.Port)
	}
	return port
}
