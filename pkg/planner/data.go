package planner

import (
	"fmt"

	corev1 "k8s.io/api/core/v1"
	"k8s.io/apimachinery/pkg/api/resource"

	"ftoperator/pkg/core"
)

func buildSecret(in Input) (*corev1.Secret, error) {
	secret := &corev1.Secret{
		ObjectMeta: objectMeta(in.Bot, SecretName(in.Bot.Name), componentConfig),
		Type:       corev1.SecretTypeOpaque,
		Data: map[string][]byte{
			core.ConfigFileName:  append([]byte(nil), in.Config...),
			core.JWTSecretKeyKey: []byte(in.JWTSecretKey),
		},
	}
	content := map[string]string{
		core.ConfigFileName:  string(in.Config),
		core.JWTSecretKeyKey: in.JWTSecretKey,
	}
	if err := stampHash(secret, core.HashData(content)); err != nil {
		return nil, err
	}
	return secret, nil
}

func buildConfigMap(in Input, sources map[string]string) (*corev1.ConfigMap, error) {
	configMap := &corev1.ConfigMap{
		ObjectMeta: objectMeta(in.Bot, ConfigMapName(in.Bot.Name), componentSource),
		Data:       sources,
	}
	if err := stampHash(configMap, core.HashData(sources)); err != nil {
		return nil, err
	}
	return configMap, nil
}

func buildPVC(in Input) (*corev1.PersistentVolumeClaim, error) {
	size, err := resource.ParseQuantity(in.Spec.PVCSize())
	if err != nil {
		return nil, fmt.Errorf("parse pvc size: %w", err)
	}
	pvc := &corev1.PersistentVolumeClaim{
		ObjectMeta: objectMeta(in.Bot, PVCName(in.Bot.Name), componentData),
		Spec: corev1.PersistentVolumeClaimSpec{
			AccessModes: []corev1.PersistentVolumeAccessMode{corev1.ReadWriteOnce},
			Resources: corev1.VolumeResourceRequirements{
				Requests: corev1.ResourceList{corev1.ResourceStorage: size},
			},
			StorageClassName: in.Spec.PVC.StorageClassName,
		},
	}
	if err := stampHash(pvc, pvc.Spec); err != nil {
		return nil, err
	}
	return pvc, nil
}
