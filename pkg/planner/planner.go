// Package planner derives the child objects of a Bot. Everything here is a pure
// function of its input; the reconciler owns all cluster access.
package planner

import (
	"errors"
	"fmt"

	appsv1 "k8s.io/api/apps/v1"
	corev1 "k8s.io/api/core/v1"
	"sigs.k8s.io/controller-runtime/pkg/client"

	"ftoperator/pkg/api/v1alpha1"
	"ftoperator/pkg/core"
)

// Options carries operator-wide defaults.
type Options struct {
	DefaultImageRepository string
	DefaultImageTag        string
}

// DefaultOptions returns the upstream freqtrade image defaults.
func DefaultOptions() Options {
	return Options{
		DefaultImageRepository: core.DefaultImageRepository,
		DefaultImageTag:        core.DefaultImageTag,
	}
}

// Input is a validated, defaulted Bot plus its synthesized runtime config.
type Input struct {
	Bot          *v1alpha1.Bot
	Spec         *core.BotSpec
	Config       []byte
	JWTSecretKey string
}

// DesiredResourceSet is the full set of children a Bot should own. Optional
// children are nil when the spec does not call for them.
type DesiredResourceSet struct {
	Secret     *corev1.Secret
	ConfigMap  *corev1.ConfigMap
	PVC        *corev1.PersistentVolumeClaim
	Deployment *appsv1.Deployment
	Service    *corev1.Service

	// ConfigHash covers the runtime config and inline sources. It is stamped on the
	// pod template so any change rolls the bot.
	ConfigHash string
}

// Planner builds DesiredResourceSets.
type Planner struct {
	options Options
}

func New(options Options) *Planner {
	if options.DefaultImageRepository == "" {
		options.DefaultImageRepository = core.DefaultImageRepository
	}
	if options.DefaultImageTag == "" {
		options.DefaultImageTag = core.DefaultImageTag
	}
	return &Planner{options: options}
}

// Plan computes the desired children for in.
func (p *Planner) Plan(in Input) (*DesiredResourceSet, error) {
	if in.Bot == nil || in.Spec == nil {
		return nil, errors.New("plan: bot and spec are required")
	}
	if len(in.Config) == 0 {
		return nil, errors.New("plan: synthesized config is empty")
	}

	sources := core.SourceData(in.Spec)
	hashInput := map[string]string{core.ConfigFileName: string(in.Config)}
	for key, value := range sources {
		hashInput[key] = value
	}

	set := &DesiredResourceSet{ConfigHash: core.HashData(hashInput)}

	var err error
	if set.Secret, err = buildSecret(in); err != nil {
		return nil, err
	}
	if len(sources) > 0 {
		if set.ConfigMap, err = buildConfigMap(in, sources); err != nil {
			return nil, err
		}
	}
	if in.Spec.PVCEnabled() {
		if set.PVC, err = buildPVC(in); err != nil {
			return nil, err
		}
	}
	if set.Deployment, err = p.buildDeployment(in, set.ConfigHash); err != nil {
		return nil, err
	}
	if in.Spec.APIEnabled() {
		if set.Service, err = buildService(in); err != nil {
			return nil, err
		}
	}
	return set, nil
}

// Objects returns the present children in apply order: data before the pods that mount it.
func (set *DesiredResourceSet) Objects() []client.Object {
	var objects []client.Object
	if set.Secret != nil {
		objects = append(objects, set.Secret)
	}
	if set.ConfigMap != nil {
		objects = append(objects, set.ConfigMap)
	}
	if set.PVC != nil {
		objects = append(objects, set.PVC)
	}
	if set.Deployment != nil {
		objects = append(objects, set.Deployment)
	}
	if set.Service != nil {
		objects = append(objects, set.Service)
	}
	return objects
}

// Refs lists the present children for status reporting.
func (set *DesiredResourceSet) Refs() []core.ChildRef {
	var refs []core.ChildRef
	for _, obj := range set.Objects() {
		refs = append(refs, core.ChildRef{Kind: KindOf(obj), Name: obj.GetName()})
	}
	return refs
}

// KindOf names the kind of a child object.
func KindOf(obj client.Object) string {
	switch obj.(type) {
	case *appsv1.Deployment:
		return KindDeployment
	case *corev1.Service:
		return KindService
	case *corev1.Secret:
		return KindSecret
	case *corev1.ConfigMap:
		return KindConfigMap
	case *corev1.PersistentVolumeClaim:
		return KindPVC
	default:
		return fmt.Sprintf("%T", obj)
	}
}

// stampHash hashes content and records it on obj.
func stampHash(obj client.Object, content any) error {
	hash, err := core.HashObject(struct {
		Labels      map[string]string `json:"labels,omitempty"`
		Annotations map[string]string `json:"annotations,omitempty"`
		Content     any               `json:"content"`
	}{obj.GetLabels(), obj.GetAnnotations(), content})
	if err != nil {
		return fmt.Errorf("hash %s %s: %w", KindOf(obj), obj.GetName(), err)
	}
	annotations := obj.GetAnnotations()
	if annotations == nil {
		annotations = map[string]string{}
	}
	annotations[core.HashAnnotation] = hash
	obj.SetAnnotations(annotations)
	return nil
}

// ContentHash returns the hash annotation of obj, or "".
func ContentHash(obj client.Object) string {
	return obj.GetAnnotations()[core.HashAnnotation]
}
