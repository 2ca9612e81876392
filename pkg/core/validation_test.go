package core

import (
	"encoding/json"
	"strings"
	"testing"

	corev1 "k8s.io/api/core/v1"
	apiextensionsv1 "k8s.io/apiextensions-apiserver/pkg/apis/apiextensions/v1"
	"k8s.io/apimachinery/pkg/util/validation/field"
	"k8s.io/utils/ptr"
)

func validSpec() *BotSpec {
	return &BotSpec{
		Exchange: "kucoin",
		Strategy: StrategySpec{Name: "SampleStrategy", Source: "class SampleStrategy: pass"},
		Secrets:  BotSecrets{Exchange: &ExchangeSecrets{}},
	}
}

func rawConfig(t *testing.T, tree map[string]any) *apiextensionsv1.JSON {
	t.Helper()
	raw, err := json.Marshal(tree)
	if err != nil {
		t.Fatalf("marshal config: %v", err)
	}
	return &apiextensionsv1.JSON{Raw: raw}
}

// nestPath builds {"a": {"b": value}} for "a.b".
func nestPath(path string, value any) map[string]any {
	segments := SplitPath(path)
	tree := map[string]any{segments[len(segments)-1]: value}
	for i := len(segments) - 2; i >= 0; i-- {
		tree = map[string]any{segments[i]: tree}
	}
	return tree
}

func TestValidateSpecAcceptsMinimalSpec(t *testing.T) {
	if errs := ValidateSpec(validSpec()); len(errs) != 0 {
		t.Fatalf("expected no errors, got %v", errs)
	}
}

func TestValidateSpecRejectsEveryReservedPath(t *testing.T) {
	for _, path := range ReservedConfigPaths {
		t.Run(path, func(t *testing.T) {
			spec := validSpec()
			spec.Config = rawConfig(t, nestPath(path, "user-value"))
			errs := ValidateSpec(spec)
			if len(errs) != 1 {
				t.Fatalf("expected exactly one error, got %v", errs)
			}
			if errs[0].Type != field.ErrorTypeForbidden {
				t.Fatalf("expected forbidden error, got %v", errs[0])
			}
			if errs[0].Field != "spec.config."+path {
				t.Fatalf("expected error to name spec.config.%s, got %s", path, errs[0].Field)
			}
		})
	}
}

func TestValidateSpecTelegramTokenExample(t *testing.T) {
	spec := validSpec()
	spec.Config = rawConfig(t, map[string]any{"telegram": map[string]any{"token": "abc"}})
	errs := ValidateSpec(spec)
	if len(errs) == 0 || !strings.Contains(errs.ToAggregate().Error(), "config.telegram.token") {
		t.Fatalf("expected error mentioning config.telegram.token, got %v", errs)
	}
}

func TestValidateSpecAllowsNonReservedSiblings(t *testing.T) {
	spec := validSpec()
	spec.Config = rawConfig(t, map[string]any{
		"stake_currency": "USDT",
		"exchange":       map[string]any{"pair_whitelist": []string{"BTC/USDT"}, "ccxt_config": map[string]any{}},
		"telegram":       map[string]any{"enabled": true},
		"api_server":     map[string]any{"verbosity": "error"},
		"freqai":         map[string]any{"train_period_days": 30},
	})
	if errs := ValidateSpec(spec); len(errs) != 0 {
		t.Fatalf("expected siblings of reserved keys to be allowed, got %v", errs)
	}
}

func TestValidateSpecRejectsScalarParentOfReservedPath(t *testing.T) {
	spec := validSpec()
	spec.Config = rawConfig(t, map[string]any{"telegram": "on"})
	errs := ValidateSpec(spec)
	if len(errs) != 1 || errs[0].Field != "spec.config.telegram" || errs[0].Type != field.ErrorTypeInvalid {
		t.Fatalf("expected a single invalid error on spec.config.telegram, got %v", errs)
	}
}

func TestValidateSpecRejectsNonObjectConfig(t *testing.T) {
	spec := validSpec()
	spec.Config = &apiextensionsv1.JSON{Raw: []byte(`["a"]`)}
	errs := ValidateSpec(spec)
	if len(errs) != 1 || errs[0].Field != "spec.config" {
		t.Fatalf("expected config type error, got %v", errs)
	}
}

func TestValidateSpecSourceExclusivity(t *testing.T) {
	cases := []struct {
		name          string
		source        string
		configMapName string
		wantErr       bool
	}{
		{name: "both", source: "class X: pass", configMapName: "strategies", wantErr: true},
		{name: "inline", source: "class X: pass"},
		{name: "configmap", configMapName: "strategies"},
		{name: "neither", wantErr: true},
	}
	for _, tc := range cases {
		t.Run("strategy/"+tc.name, func(t *testing.T) {
			spec := validSpec()
			spec.Strategy = StrategySpec{Name: "X", Source: tc.source, ConfigMapName: tc.configMapName}
			if got := len(ValidateSpec(spec)) > 0; got != tc.wantErr {
				t.Fatalf("expected error=%v, got %v", tc.wantErr, ValidateSpec(spec))
			}
		})
		t.Run("model/"+tc.name, func(t *testing.T) {
			spec := validSpec()
			spec.Model = &ModelSpec{Name: "M", Source: tc.source, ConfigMapName: tc.configMapName}
			if got := len(ValidateSpec(spec)) > 0; got != tc.wantErr {
				t.Fatalf("expected error=%v, got %v", tc.wantErr, ValidateSpec(spec))
			}
		})
	}
}

func TestValidateSpecCollectsAllViolations(t *testing.T) {
	spec := &BotSpec{
		Config: &apiextensionsv1.JSON{Raw: []byte(`{"strategy":"Other","exchange":{"key":"k"}}`)},
		Secrets: BotSecrets{
			API: &APISecrets{Username: &SecretItem{Value: ptr.To("admin")}},
		},
	}
	errs := ValidateSpec(spec)
	want := []string{
		"spec.config.strategy",
		"spec.config.exchange.key",
		"spec.exchange",
		"spec.strategy.name",
		"spec.strategy.source",
		"spec.secrets.exchange",
		"spec.secrets.api.password",
	}
	got := map[string]bool{}
	for _, err := range errs {
		got[err.Field] = true
	}
	for _, fieldPath := range want {
		if !got[fieldPath] {
			t.Fatalf("expected violation on %s, got %v", fieldPath, errs)
		}
	}
	if len(errs) != len(want) {
		t.Fatalf("expected %d violations, got %d: %v", len(want), len(errs), errs)
	}
}

func TestValidateSpecSecretItems(t *testing.T) {
	spec := validSpec()
	spec.Secrets.Exchange = &ExchangeSecrets{
		Key:    &SecretItem{Value: ptr.To("k"), SecretKeyRef: &corev1.SecretKeySelector{LocalObjectReference: corev1.LocalObjectReference{Name: "s"}, Key: "k"}},
		Secret: &SecretItem{},
		Password: &SecretItem{SecretKeyRef: &corev1.SecretKeySelector{
			LocalObjectReference: corev1.LocalObjectReference{Name: "Not_Valid"},
		}},
	}
	errs := ValidateSpec(spec)
	fields := map[string]field.ErrorType{}
	for _, err := range errs {
		fields[err.Field] = err.Type
	}
	if fields["spec.secrets.exchange.key.secretKeyRef"] != field.ErrorTypeForbidden {
		t.Fatalf("expected both value and ref to be forbidden, got %v", errs)
	}
	if fields["spec.secrets.exchange.secret"] != field.ErrorTypeRequired {
		t.Fatalf("expected empty item to be required, got %v", errs)
	}
	if fields["spec.secrets.exchange.password.secretKeyRef.name"] != field.ErrorTypeInvalid {
		t.Fatalf("expected invalid ref name, got %v", errs)
	}
	if fields["spec.secrets.exchange.password.secretKeyRef.key"] != field.ErrorTypeRequired {
		t.Fatalf("expected missing ref key, got %v", errs)
	}
}

func TestValidateSpecServiceAndDeploymentOverrides(t *testing.T) {
	spec := validSpec()
	spec.API = &APISpec{Enabled: true, Port: ptr.To[int32](70000)}
	spec.Service = &ServiceSpec{
		Type:  "ExternalName",
		Ports: []PortSpec{{Name: "api", Port: 80}, {Name: "api", Port: 81}, {Port: 82}},
	}
	spec.PVC = &PVCSpec{Enabled: true, Size: "lots"}
	spec.Image = &ImageSpec{PullPolicy: "Sometimes"}
	spec.Deployment = &DeploymentSpec{
		Env:        []corev1.EnvVar{{Name: "TZ", Value: "UTC"}, {Name: "FREQTRADE__EXCHANGE__KEY", Value: "k"}},
		Volumes:    []corev1.Volume{{Name: "config"}},
		Containers: []corev1.Container{{Name: "freqtrade"}},
	}
	errs := ValidateSpec(spec)
	want := []string{
		"spec.api.port",
		"spec.service.type",
		"spec.service.ports[1].name",
		"spec.service.ports[2].name",
		"spec.image.pullPolicy",
		"spec.pvc.size",
		"spec.deployment.env[1].name",
		"spec.deployment.volumes[0].name",
		"spec.deployment.containers[0].name",
	}
	got := map[string]bool{}
	for _, err := range errs {
		got[err.Field] = true
	}
	for _, fieldPath := range want {
		if !got[fieldPath] {
			t.Fatalf("expected violation on %s, got %v", fieldPath, errs)
		}
	}
}

func TestValidateSpecNodePortRequiresExposedService(t *testing.T) {
	for _, serviceType := range []corev1.ServiceType{"", corev1.ServiceTypeClusterIP} {
		spec := validSpec()
		spec.Service = &ServiceSpec{Type: serviceType, Ports: []PortSpec{{Name: "api", Port: 8080, NodePort: 30080}}}
		errs := ValidateSpec(spec)
		if len(errs) != 1 || errs[0].Field != "spec.service.ports[0].nodePort" || errs[0].Type != field.ErrorTypeForbidden {
			t.Fatalf("type %q: expected forbidden nodePort, got %v", serviceType, errs)
		}
	}
	for _, serviceType := range []corev1.ServiceType{corev1.ServiceTypeNodePort, corev1.ServiceTypeLoadBalancer} {
		spec := validSpec()
		spec.Service = &ServiceSpec{Type: serviceType, Ports: []PortSpec{{Name: "api", Port: 8080, NodePort: 30080}}}
		if errs := ValidateSpec(spec); len(errs) != 0 {
			t.Fatalf("type %q: unexpected errors %v", serviceType, errs)
		}
	}
}

func TestValidateSpecRejectsNonPositivePVCSize(t *testing.T) {
	for _, size := range []string{"0", "0Gi", "-1Gi"} {
		spec := validSpec()
		spec.PVC = &PVCSpec{Enabled: true, Size: size}
		errs := ValidateSpec(spec)
		if len(errs) != 1 || errs[0].Field != "spec.pvc.size" {
			t.Fatalf("size %q: expected one pvc.size violation, got %v", size, errs)
		}
	}
	spec := validSpec()
	spec.PVC = &PVCSpec{Enabled: true, Size: "1Gi"}
	if errs := ValidateSpec(spec); len(errs) != 0 {
		t.Fatalf("unexpected errors %v", errs)
	}
}

func TestValidateSpecRejectsOversizedInlineSource(t *testing.T) {
	spec := validSpec()
	spec.Strategy.Source = strings.Repeat("#", ConfigMapSizeLimitBytes)
	errs := ValidateSpec(spec)
	if len(errs) != 1 || errs[0].Field != "spec" {
		t.Fatalf("expected one size violation, got %v", errs)
	}
}

func TestSpecWarnings(t *testing.T) {
	spec := validSpec()
	spec.API = &APISpec{Enabled: true}
	spec.Strategy.Source = strings.Repeat("#", ConfigMapSizeWarnThresholdBytes)
	warnings := SpecWarnings(spec)
	if len(warnings) != 2 {
		t.Fatalf("expected size and api-credential warnings, got %v", warnings)
	}
	if SpecWarnings(validSpec()) != nil {
		t.Fatalf("expected no warnings for minimal spec")
	}
}

func secretRef(name, key string) *SecretItem {
	return &SecretItem{SecretKeyRef: &corev1.SecretKeySelector{LocalObjectReference: corev1.LocalObjectReference{Name: name}, Key: key}}
}

func TestFormatErrorsJoinsEveryViolation(t *testing.T) {
	errs := field.ErrorList{
		field.Required(field.NewPath("spec", "exchange"), "exchange identifier is required"),
		field.Forbidden(field.NewPath("spec", "config", "strategy"), "reserved"),
	}
	want := "spec.exchange: Required value: exchange identifier is required; spec.config.strategy: Forbidden: reserved"
	if got := FormatErrors(errs); got != want {
		t.Fatalf("unexpected message:\n%s", got)
	}
	if FormatErrors(nil) != "" {
		t.Fatalf("expected empty message for no errors")
	}
}
