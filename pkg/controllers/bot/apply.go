package bot

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"
	appsv1 "k8s.io/api/apps/v1"
	corev1 "k8s.io/api/core/v1"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/types"
	"sigs.k8s.io/controller-runtime/pkg/client"

	"ftoperator/pkg/agents/summary"
	"ftoperator/pkg/api/v1alpha1"
	"ftoperator/pkg/core"
	"ftoperator/pkg/planner"
)

// childSlot is one kind of child a Bot may own, in apply order.
type childSlot struct {
	kind      string
	name      func(bot string) string
	newObject func() client.Object
}

var childSlots = []childSlot{
	{planner.KindSecret, planner.SecretName, func() client.Object { return &corev1.Secret{} }},
	{planner.KindConfigMap, planner.ConfigMapName, func() client.Object { return &corev1.ConfigMap{} }},
	{planner.KindPVC, planner.PVCName, func() client.Object { return &corev1.PersistentVolumeClaim{} }},
	{planner.KindDeployment, planner.DeploymentName, func() client.Object { return &appsv1.Deployment{} }},
	{planner.KindService, planner.ServiceName, func() client.Object { return &corev1.Service{} }},
}

// observedChildren holds the current child per slot, nil when absent.
type observedChildren []client.Object

func (observed observedChildren) secret() *corev1.Secret {
	secret, _ := observed[0].(*corev1.Secret)
	return secret
}

// fetchChildren reads every possible child concurrently.
func (r *Reconciler) fetchChildren(ctx context.Context, bot *v1alpha1.Bot) (observedChildren, error) {
	observed := make(observedChildren, len(childSlots))
	group, groupContext := errgroup.WithContext(ctx)
	for i, slot := range childSlots {
		i, slot := i, slot
		group.Go(func() error {
			obj := slot.newObject()
			err := r.store.Get(groupContext, types.NamespacedName{Namespace: bot.Namespace, Name: slot.name(bot.Name)}, obj)
			if apierrors.IsNotFound(err) {
				return nil
			}
			if err != nil {
				return fmt.Errorf("get %s %s: %w", slot.kind, slot.name(bot.Name), err)
			}
			observed[i] = obj
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return nil, err
	}
	return observed, nil
}

// apply converges each slot in order and returns the live Deployment. It stops at the
// first failure; children already written stay written and the next pass resumes.
func (r *Reconciler) apply(ctx context.Context, bot *v1alpha1.Bot, desired *planner.DesiredResourceSet, observed observedChildren, sum *summary.Summary) (*appsv1.Deployment, error) {
	wanted := map[string]client.Object{}
	for _, obj := range desired.Objects() {
		wanted[planner.KindOf(obj)] = obj
	}

	var deployment *appsv1.Deployment
	for i, slot := range childSlots {
		target, current := wanted[slot.kind], observed[i]
		switch {
		case target != nil:
			action, live, err := r.applyChild(ctx, bot, slot, target, current)
			if err != nil {
				return nil, err
			}
			sum.Record(slot.kind, target.GetName(), action)
			if d, ok := live.(*appsv1.Deployment); ok {
				deployment = d
			}
		case current != nil && metav1.IsControlledBy(current, bot):
			if err := r.store.Delete(ctx, current); err != nil {
				return nil, fmt.Errorf("delete %s %s: %w", slot.kind, current.GetName(), err)
			}
			sum.Record(slot.kind, current.GetName(), summary.ActionDeleted)
		}
	}
	return deployment, nil
}

// applyChild creates or updates one child. Conflicts and create races re-read the
// child and try again with backoff; the write always carries the resourceVersion
// that was read, so a concurrent change is never overwritten blindly.
func (r *Reconciler) applyChild(ctx context.Context, bot *v1alpha1.Bot, slot childSlot, desired, current client.Object) (summary.ActionType, client.Object, error) {
	var (
		action summary.ActionType
		live   client.Object
	)
	_, err := r.options.Backoff.Retry(ctx, func() error {
		var err error
		action, live, err = r.applyOnce(ctx, bot, slot, desired, current)
		if !isWriteRace(err) {
			return err
		}
		fresh := slot.newObject()
		switch getErr := r.store.Get(ctx, client.ObjectKeyFromObject(desired), fresh); {
		case apierrors.IsNotFound(getErr):
			current = nil
		case getErr != nil:
			return fmt.Errorf("re-read %s %s: %w", slot.kind, desired.GetName(), getErr)
		default:
			current = fresh
		}
		return err
	}, isWriteRace)
	return action, live, err
}

func (r *Reconciler) applyOnce(ctx context.Context, bot *v1alpha1.Bot, slot childSlot, desired, current client.Object) (summary.ActionType, client.Object, error) {
	if current == nil {
		created := desired.DeepCopyObject().(client.Object)
		if err := r.store.Create(ctx, created); err != nil {
			return "", nil, fmt.Errorf("create %s %s: %w", slot.kind, desired.GetName(), err)
		}
		return summary.ActionCreated, created, nil
	}
	if !metav1.IsControlledBy(current, bot) {
		return "", nil, core.Permanent(fmt.Errorf("%s %s/%s exists and is not controlled by Bot %s", slot.kind, current.GetNamespace(), current.GetName(), bot.Name))
	}
	if planner.ContentHash(current) == planner.ContentHash(desired) {
		return summary.ActionUnchanged, current, nil
	}
	updated := mergeForUpdate(desired, current)
	if err := r.store.Update(ctx, updated); err != nil {
		return "", nil, fmt.Errorf("update %s %s: %w", slot.kind, desired.GetName(), err)
	}
	return summary.ActionUpdated, updated, nil
}

func isWriteRace(err error) bool {
	return apierrors.IsConflict(err) || apierrors.IsAlreadyExists(err)
}

// mergeForUpdate lays the desired content over a copy of current. Metadata and
// fields assigned by the API server or other controllers on current survive.
func mergeForUpdate(desired, current client.Object) client.Object {
	updated := current.DeepCopyObject().(client.Object)
	updated.SetLabels(overlay(current.GetLabels(), desired.GetLabels()))
	updated.SetAnnotations(overlay(current.GetAnnotations(), desired.GetAnnotations()))
	updated.SetOwnerReferences(desired.GetOwnerReferences())

	switch target := updated.(type) {
	case *corev1.Secret:
		target.Data = desired.(*corev1.Secret).Data
		target.StringData = nil
	case *corev1.ConfigMap:
		target.Data = desired.(*corev1.ConfigMap).Data
		target.BinaryData = nil
	case *corev1.PersistentVolumeClaim:
		// Everything but the requested size is immutable once bound.
		target.Spec.Resources = desired.(*corev1.PersistentVolumeClaim).Spec.Resources
	case *appsv1.Deployment:
		target.Spec = desired.(*appsv1.Deployment).Spec
	case *corev1.Service:
		target.Spec = mergeServiceSpec(desired.(*corev1.Service).Spec, target.Spec)
	}
	return updated
}

// mergeServiceSpec keeps the allocated cluster IPs and node ports of current.
func mergeServiceSpec(desired, current corev1.ServiceSpec) corev1.ServiceSpec {
	merged := desired
	merged.ClusterIP = current.ClusterIP
	merged.ClusterIPs = current.ClusterIPs
	merged.IPFamilies = current.IPFamilies
	merged.IPFamilyPolicy = current.IPFamilyPolicy
	if merged.Type != corev1.ServiceTypeNodePort && merged.Type != corev1.ServiceTypeLoadBalancer {
		return merged
	}
	if merged.Type == current.Type {
		merged.HealthCheckNodePort = current.HealthCheckNodePort
	}
	allocated := map[string]int32{}
	for _, port := range current.Ports {
		allocated[port.Name] = port.NodePort
	}
	merged.Ports = append([]corev1.ServicePort(nil), desired.Ports...)
	for i := range merged.Ports {
		if merged.Ports[i].NodePort == 0 {
			merged.Ports[i].NodePort = allocated[merged.Ports[i].Name]
		}
	}
	return merged
}

// overlay returns base with every entry of top applied.
func overlay(base, top map[string]string) map[string]string {
	if len(base) == 0 && len(top) == 0 {
		return nil
	}
	out := make(map[string]string, len(base)+len(top))
	for k, v := range base {
		out[k] = v
	}
	for k, v := range top {
		out[k] = v
	}
	return out
}
