package core

import (
	"fmt"
	"strings"

	corev1 "k8s.io/api/core/v1"
	"k8s.io/apimachinery/pkg/api/resource"
	"k8s.io/apimachinery/pkg/util/sets"
	"k8s.io/apimachinery/pkg/util/validation"
	"k8s.io/apimachinery/pkg/util/validation/field"
)

// Names the operator uses inside the pod template. User overrides may not reuse them.
const (
	ContainerName      = "freqtrade"
	ConfigVolumeName   = "config"
	StrategyVolumeName = "strategies"
	ModelVolumeName    = "models"
	UserDataVolumeName = "user-data"
	APIPortName        = "api"
)

var reservedVolumeNames = sets.New(ConfigVolumeName, StrategyVolumeName, ModelVolumeName, UserDataVolumeName)

var supportedServiceTypes = sets.New(
	string(corev1.ServiceTypeClusterIP),
	string(corev1.ServiceTypeNodePort),
	string(corev1.ServiceTypeLoadBalancer),
)

var supportedPullPolicies = sets.New(
	string(corev1.PullAlways),
	string(corev1.PullIfNotPresent),
	string(corev1.PullNever),
)

var supportedProtocols = sets.New(
	string(corev1.ProtocolTCP),
	string(corev1.ProtocolUDP),
	string(corev1.ProtocolSCTP),
)

// ValidateSpec checks every structural and semantic rule on spec and returns all
// violations at once. It has no side effects and is shared by the admission webhook
// and the reconciler.
func ValidateSpec(spec *BotSpec) field.ErrorList {
	root := field.NewPath("spec")
	if spec == nil {
		return field.ErrorList{field.Required(root, "spec is required")}
	}

	var errs field.ErrorList
	errs = append(errs, validateConfig(spec, root.Child("config"))...)

	if strings.TrimSpace(spec.Exchange) == "" {
		errs = append(errs, field.Required(root.Child("exchange"), "exchange identifier is required"))
	}

	errs = append(errs, validateSource("strategy", spec.Strategy.Name, spec.Strategy.Source, spec.Strategy.ConfigMapName, true, root.Child("strategy"))...)
	if spec.Model != nil {
		errs = append(errs, validateSource("model", spec.Model.Name, spec.Model.Source, spec.Model.ConfigMapName, false, root.Child("model"))...)
	}

	errs = append(errs, validateSecrets(&spec.Secrets, root.Child("secrets"))...)

	if spec.API != nil && spec.API.Port != nil {
		errs = append(errs, validatePort(*spec.API.Port, root.Child("api", "port"))...)
	}
	if spec.Service != nil {
		errs = append(errs, validateService(spec.Service, root.Child("service"))...)
	}
	if spec.Image != nil && spec.Image.PullPolicy != "" && !supportedPullPolicies.Has(string(spec.Image.PullPolicy)) {
		errs = append(errs, field.NotSupported(root.Child("image", "pullPolicy"), spec.Image.PullPolicy, sets.List(supportedPullPolicies)))
	}
	if spec.PVC != nil && spec.PVC.Size != "" {
		if quantity, err := resource.ParseQuantity(spec.PVC.Size); err != nil {
			errs = append(errs, field.Invalid(root.Child("pvc", "size"), spec.PVC.Size, err.Error()))
		} else if quantity.Sign() <= 0 {
			errs = append(errs, field.Invalid(root.Child("pvc", "size"), spec.PVC.Size, "must be greater than zero"))
		}
	}
	if spec.Deployment != nil {
		errs = append(errs, validateDeployment(spec.Deployment, root.Child("deployment"))...)
	}

	if size := CheckConfigMapSize(SourceData(spec)); size.Block {
		errs = append(errs, field.Invalid(root, field.OmitValueType{},
			fmt.Sprintf("inline strategy and model sources total %d bytes, over the %d byte ConfigMap limit; use configMapName instead", size.Bytes, ConfigMapSizeLimitBytes)))
	}

	return errs
}

// SpecWarnings returns non-fatal findings that admission surfaces as warnings.
func SpecWarnings(spec *BotSpec) []string {
	if spec == nil {
		return nil
	}
	var warnings []string
	if size := CheckConfigMapSize(SourceData(spec)); size.Warn {
		warnings = append(warnings, fmt.Sprintf("inline sources use %d of %d bytes allowed in a ConfigMap", size.Bytes, ConfigMapSizeLimitBytes))
	}
	if spec.APIEnabled() && (spec.Secrets.API == nil) {
		warnings = append(warnings, "api is enabled without spec.secrets.api; the API server will reject logins")
	}
	return warnings
}

func validateConfig(spec *BotSpec, fldPath *field.Path) field.ErrorList {
	tree, err := ParseConfig(spec)
	if err != nil {
		return field.ErrorList{field.TypeInvalid(fldPath, field.OmitValueType{}, err.Error())}
	}

	var errs field.ErrorList
	blocked := sets.New[string]()
	for _, path := range ReservedConfigPaths {
		lookup := LookupPath(tree, path)
		switch {
		case lookup.Found:
			segments := SplitPath(path)
			errs = append(errs, field.Forbidden(fldPath.Child(segments[0], segments[1:]...),
				fmt.Sprintf("config key `%s` is reserved and set by the operator", path)))
		case lookup.Blocked != "" && !blocked.Has(lookup.Blocked):
			blocked.Insert(lookup.Blocked)
			segments := SplitPath(lookup.Blocked)
			errs = append(errs, field.Invalid(fldPath.Child(segments[0], segments[1:]...), field.OmitValueType{},
				fmt.Sprintf("must be an object because the operator sets `%s`", path)))
		}
	}
	return errs
}

func validateSource(kind, name, source, configMapName string, nameRequired bool, fldPath *field.Path) field.ErrorList {
	var errs field.ErrorList
	if nameRequired && strings.TrimSpace(name) == "" {
		errs = append(errs, field.Required(fldPath.Child("name"), kind+" name is required"))
	}
	switch {
	case source != "" && configMapName != "":
		errs = append(errs, field.Forbidden(fldPath.Child("configMapName"), "may not be set together with source"))
	case source == "" && configMapName == "":
		errs = append(errs, field.Required(fldPath.Child("source"), "one of source or configMapName is required"))
	}
	if configMapName != "" {
		for _, msg := range validation.IsDNS1123Subdomain(configMapName) {
			errs = append(errs, field.Invalid(fldPath.Child("configMapName"), configMapName, msg))
		}
	}
	return errs
}

func validateSecrets(secrets *BotSecrets, fldPath *field.Path) field.ErrorList {
	var errs field.ErrorList

	if secrets.Exchange == nil {
		errs = append(errs, field.Required(fldPath.Child("exchange"), "exchange credentials block is required, its fields may be empty"))
	} else {
		exchangePath := fldPath.Child("exchange")
		errs = append(errs, validateSecretItem(secrets.Exchange.Key, exchangePath.Child("key"))...)
		errs = append(errs, validateSecretItem(secrets.Exchange.Secret, exchangePath.Child("secret"))...)
		errs = append(errs, validateSecretItem(secrets.Exchange.Password, exchangePath.Child("password"))...)
	}

	if secrets.API != nil {
		apiPath := fldPath.Child("api")
		if secrets.API.Username == nil {
			errs = append(errs, field.Required(apiPath.Child("username"), "required when api secrets are given"))
		}
		if secrets.API.Password == nil {
			errs = append(errs, field.Required(apiPath.Child("password"), "required when api secrets are given"))
		}
		errs = append(errs, validateSecretItem(secrets.API.Username, apiPath.Child("username"))...)
		errs = append(errs, validateSecretItem(secrets.API.Password, apiPath.Child("password"))...)
		errs = append(errs, validateSecretItem(secrets.API.WSToken, apiPath.Child("wsToken"))...)
		errs = append(errs, validateSecretItem(secrets.API.JWTSecretKey, apiPath.Child("jwtSecretKey"))...)
	}

	if secrets.Telegram != nil {
		telegramPath := fldPath.Child("telegram")
		errs = append(errs, validateSecretItem(secrets.Telegram.Token, telegramPath.Child("token"))...)
		errs = append(errs, validateSecretItem(secrets.Telegram.ChatID, telegramPath.Child("chatId"))...)
	}
	return errs
}

func validateSecretItem(item *SecretItem, fldPath *field.Path) field.ErrorList {
	if item == nil {
		return nil
	}
	var errs field.ErrorList
	switch {
	case item.Value != nil && item.SecretKeyRef != nil:
		errs = append(errs, field.Forbidden(fldPath.Child("secretKeyRef"), "may not be set together with value"))
	case item.Value == nil && item.SecretKeyRef == nil:
		errs = append(errs, field.Required(fldPath, "one of value or secretKeyRef is required"))
	case item.SecretKeyRef != nil:
		refPath := fldPath.Child("secretKeyRef")
		if item.SecretKeyRef.Name == "" {
			errs = append(errs, field.Required(refPath.Child("name"), ""))
		} else {
			for _, msg := range validation.IsDNS1123Subdomain(item.SecretKeyRef.Name) {
				errs = append(errs, field.Invalid(refPath.Child("name"), item.SecretKeyRef.Name, msg))
			}
		}
		if item.SecretKeyRef.Key == "" {
			errs = append(errs, field.Required(refPath.Child("key"), ""))
		}
	}
	return errs
}

func validatePort(port int32, fldPath *field.Path) field.ErrorList {
	var errs field.ErrorList
	for _, msg := range validation.IsValidPortNum(int(port)) {
		errs = append(errs, field.Invalid(fldPath, port, msg))
	}
	return errs
}

func validateService(service *ServiceSpec, fldPath *field.Path) field.ErrorList {
	var errs field.ErrorList
	if service.Type != "" && !supportedServiceTypes.Has(string(service.Type)) {
		errs = append(errs, field.NotSupported(fldPath.Child("type"), service.Type, sets.List(supportedServiceTypes)))
	}
	seen := sets.New[string]()
	for i, port := range service.Ports {
		portPath := fldPath.Child("ports").Index(i)
		switch {
		case port.Name == "":
			errs = append(errs, field.Required(portPath.Child("name"), "ports are merged by name"))
		case seen.Has(port.Name):
			errs = append(errs, field.Duplicate(portPath.Child("name"), port.Name))
		default:
			seen.Insert(port.Name)
		}
		errs = append(errs, validatePort(port.Port, portPath.Child("port"))...)
		if port.TargetPort != nil && port.TargetPort.IntVal != 0 {
			errs = append(errs, validatePort(port.TargetPort.IntVal, portPath.Child("targetPort"))...)
		}
		if port.NodePort != 0 {
			if service.Type == "" || service.Type == corev1.ServiceTypeClusterIP {
				errs = append(errs, field.Forbidden(portPath.Child("nodePort"), "may only be set when type is NodePort or LoadBalancer"))
			} else {
				errs = append(errs, validatePort(port.NodePort, portPath.Child("nodePort"))...)
			}
		}
		if port.Protocol != "" && !supportedProtocols.Has(string(port.Protocol)) {
			errs = append(errs, field.NotSupported(portPath.Child("protocol"), port.Protocol, sets.List(supportedProtocols)))
		}
	}
	return errs
}

func validateDeployment(deployment *DeploymentSpec, fldPath *field.Path) field.ErrorList {
	var errs field.ErrorList
	for i, env := range deployment.Env {
		if IsReservedEnvVar(env.Name) {
			errs = append(errs, field.Forbidden(fldPath.Child("env").Index(i).Child("name"),
				fmt.Sprintf("environment variable `%s` is reserved and set by the operator", env.Name)))
		}
	}
	for i, volume := range deployment.Volumes {
		if reservedVolumeNames.Has(volume.Name) {
			errs = append(errs, field.Duplicate(fldPath.Child("volumes").Index(i).Child("name"), volume.Name))
		}
	}
	for i, container := range deployment.Containers {
		if container.Name == ContainerName {
			errs = append(errs, field.Duplicate(fldPath.Child("containers").Index(i).Child("name"), container.Name))
		}
	}
	return errs
}

// FormatErrors joins every violation into one message for admission denials and
// status conditions.
func FormatErrors(errs field.ErrorList) string {
	messages := make([]string, 0, len(errs))
	for _, err := range errs {
		messages = append(messages, err.Error())
	}
	return strings.Join(messages, "; ")
}
