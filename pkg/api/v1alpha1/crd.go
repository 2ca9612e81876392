package v1alpha1

import (
	apiextensionsv1 "k8s.io/apiextensions-apiserver/pkg/apis/apiextensions/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/utils/ptr"
	"sigs.k8s.io/yaml"
)

const (
	plural   = "bots"
	singular = "bot"
)

// CustomResourceDefinition returns the CRD manifest for Bot.
func CustomResourceDefinition() *apiextensionsv1.CustomResourceDefinition {
	return &apiextensionsv1.CustomResourceDefinition{
		TypeMeta: metav1.TypeMeta{
			APIVersion: apiextensionsv1.SchemeGroupVersion.String(),
			Kind:       "CustomResourceDefinition",
		},
		ObjectMeta: metav1.ObjectMeta{Name: plural + "." + GroupVersion.Group},
		Spec: apiextensionsv1.CustomResourceDefinitionSpec{
			Group: GroupVersion.Group,
			Scope: apiextensionsv1.NamespaceScoped,
			Names: apiextensionsv1.CustomResourceDefinitionNames{
				Plural:     plural,
				Singular:   singular,
				Kind:       Kind,
				ListKind:   Kind + "List",
				ShortNames: []string{"ftbot"},
			},
			Versions: []apiextensionsv1.CustomResourceDefinitionVersion{{
				Name:    GroupVersion.Version,
				Served:  true,
				Storage: true,
				Subresources: &apiextensionsv1.CustomResourceSubresources{
					Status: &apiextensionsv1.CustomResourceSubresourceStatus{},
				},
				AdditionalPrinterColumns: []apiextensionsv1.CustomResourceColumnDefinition{
					{Name: "Exchange", Type: "string", JSONPath: ".spec.exchange"},
					{Name: "Strategy", Type: "string", JSONPath: ".spec.strategy.name"},
					{Name: "Phase", Type: "string", JSONPath: ".status.phase"},
					{Name: "Age", Type: "date", JSONPath: ".metadata.creationTimestamp"},
				},
				Schema: &apiextensionsv1.CustomResourceValidation{OpenAPIV3Schema: botSchema()},
			}},
		},
	}
}

// CustomResourceDefinitionYAML renders the CRD as a YAML document.
func CustomResourceDefinitionYAML() ([]byte, error) {
	return yaml.Marshal(CustomResourceDefinition())
}

func botSchema() *apiextensionsv1.JSONSchemaProps {
	return &apiextensionsv1.JSONSchemaProps{
		Type: "object",
		Properties: map[string]apiextensionsv1.JSONSchemaProps{
			"apiVersion": {Type: "string"},
			"kind":       {Type: "string"},
			"metadata":   {Type: "object"},
			"spec":       specSchema(),
			"status":     statusSchema(),
		},
	}
}

func specSchema() apiextensionsv1.JSONSchemaProps {
	sourceProps := map[string]apiextensionsv1.JSONSchemaProps{
		"name":          {Type: "string"},
		"source":        {Type: "string"},
		"configMapName": {Type: "string"},
	}
	return apiextensionsv1.JSONSchemaProps{
		Type:     "object",
		Required: []string{"exchange", "strategy", "secrets"},
		Properties: map[string]apiextensionsv1.JSONSchemaProps{
			"exchange": {Type: "string", MinLength: ptr.To[int64](1)},
			"config": {
				Type:                   "object",
				XPreserveUnknownFields: ptr.To(true),
				Description:            "Free-form freqtrade configuration. Operator-owned keys are rejected.",
			},
			"database": {Type: "string"},
			"api": {
				Type: "object",
				Properties: map[string]apiextensionsv1.JSONSchemaProps{
					"enabled": {Type: "boolean"},
					"host":    {Type: "string"},
					"port":    {Type: "integer", Format: "int32", Minimum: ptr.To[float64](1), Maximum: ptr.To[float64](65535)},
				},
			},
			"secrets": {
				Type: "object",
				Properties: map[string]apiextensionsv1.JSONSchemaProps{
					"api":      secretGroupSchema("username", "password", "wsToken", "jwtSecretKey"),
					"exchange": secretGroupSchema("key", "secret", "password"),
					"telegram": secretGroupSchema("token", "chatId"),
				},
			},
			"strategy": {Type: "object", Required: []string{"name"}, Properties: sourceProps},
			"model":    {Type: "object", Properties: sourceProps},
			"service": {
				Type: "object",
				Properties: map[string]apiextensionsv1.JSONSchemaProps{
					"type": {Type: "string", Enum: enumOf("ClusterIP", "NodePort", "LoadBalancer")},
					"ports": {
						Type: "array",
						Items: &apiextensionsv1.JSONSchemaPropsOrArray{Schema: &apiextensionsv1.JSONSchemaProps{
							Type:     "object",
							Required: []string{"name", "port"},
							Properties: map[string]apiextensionsv1.JSONSchemaProps{
								"name":       {Type: "string"},
								"port":       {Type: "integer", Format: "int32"},
								"targetPort": {XIntOrString: true, AnyOf: []apiextensionsv1.JSONSchemaProps{{Type: "integer"}, {Type: "string"}}},
								"protocol":   {Type: "string"},
								"nodePort":   {Type: "integer", Format: "int32"},
							},
						}},
					},
					"annotations": stringMapSchema(),
					"labels":      stringMapSchema(),
				},
			},
			"image": {
				Type: "object",
				Properties: map[string]apiextensionsv1.JSONSchemaProps{
					"repository": {Type: "string"},
					"tag":        {Type: "string"},
					"pullPolicy": {Type: "string", Enum: enumOf("Always", "IfNotPresent", "Never")},
					"pullSecrets": {
						Type: "array",
						Items: &apiextensionsv1.JSONSchemaPropsOrArray{Schema: &apiextensionsv1.JSONSchemaProps{
							Type:       "object",
							Properties: map[string]apiextensionsv1.JSONSchemaProps{"name": {Type: "string"}},
						}},
					},
				},
			},
			"pvc": {
				Type: "object",
				Properties: map[string]apiextensionsv1.JSONSchemaProps{
					"enabled":          {Type: "boolean"},
					"size":             {Type: "string"},
					"storageClassName": {Type: "string"},
				},
			},
			"deployment": {
				Type:                   "object",
				XPreserveUnknownFields: ptr.To(true),
				Description:            "Pod-level overrides using core/v1 field shapes.",
			},
		},
	}
}

func statusSchema() apiextensionsv1.JSONSchemaProps {
	return apiextensionsv1.JSONSchemaProps{
		Type: "object",
		Properties: map[string]apiextensionsv1.JSONSchemaProps{
			"observedGeneration":    {Type: "integer", Format: "int64"},
			"phase":                 {Type: "string"},
			"lastAppliedConfigHash": {Type: "string"},
			"lastUpdated":           {Type: "string", Format: "date-time"},
			"conditions": {
				Type: "array",
				Items: &apiextensionsv1.JSONSchemaPropsOrArray{Schema: &apiextensionsv1.JSONSchemaProps{
					Type:                   "object",
					XPreserveUnknownFields: ptr.To(true),
				}},
			},
			"children": {
				Type: "array",
				Items: &apiextensionsv1.JSONSchemaPropsOrArray{Schema: &apiextensionsv1.JSONSchemaProps{
					Type: "object",
					Properties: map[string]apiextensionsv1.JSONSchemaProps{
						"kind": {Type: "string"},
						"name": {Type: "string"},
					},
				}},
			},
		},
	}
}

func secretGroupSchema(fields ...string) apiextensionsv1.JSONSchemaProps {
	item := apiextensionsv1.JSONSchemaProps{
		Type: "object",
		Properties: map[string]apiextensionsv1.JSONSchemaProps{
			"value": {Type: "string"},
			"secretKeyRef": {
				Type:     "object",
				Required: []string{"name", "key"},
				Properties: map[string]apiextensionsv1.JSONSchemaProps{
					"name":     {Type: "string"},
					"key":      {Type: "string"},
					"optional": {Type: "boolean"},
				},
			},
		},
	}
	props := make(map[string]apiextensionsv1.JSONSchemaProps, len(fields))
	for _, name := range fields {
		props[name] = item
	}
	return apiextensionsv1.JSONSchemaProps{Type: "object", Properties: props}
}

func stringMapSchema() apiextensionsv1.JSONSchemaProps {
	return apiextensionsv1.JSONSchemaProps{
		Type:                 "object",
		AdditionalProperties: &apiextensionsv1.JSONSchemaPropsOrBool{Allows: true, Schema: &apiextensionsv1.JSONSchemaProps{Type: "string"}},
	}
}

func enumOf(values ...string) []apiextensionsv1.JSON {
	out := make([]apiextensionsv1.JSON, 0, len(values))
	for _, value := range values {
		out = append(out, apiextensionsv1.JSON{Raw: []byte(`"` + value + `"`)})
	}
	return out
}
