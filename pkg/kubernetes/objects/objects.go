package objects

import (
	"fmt"
	"path"

	"k8s.io/apimachinery/pkg/runtime/schema"

	"github.com/akuity/devportal/pkg/kubernetes"
)

// ObjectToFetch is a kind of object listed for every entity.
type ObjectToFetch struct {
	// ObjectType is the plural resource name reported in responses.
	ObjectType       string
	GroupVersionKind schema.GroupVersionKind
}

// ListGroupVersionKind returns the GVK of a list of the object.
func (o ObjectToFetch) ListGroupVersionKind() schema.GroupVersionKind {
	gvk := o.GroupVersionKind
	gvk.Kind += "List"
	return gvk
}

// ResourcePath returns the API path of the object's collection.
func (o ObjectToFetch) ResourcePath(namespace string) string {
	root := path.Join("/apis", o.GroupVersionKind.Group, o.GroupVersionKind.Version)
	if o.GroupVersionKind.Group == "" {
		root = path.Join("/api", o.GroupVersionKind.Version)
	}
	if namespace != "" {
		return path.Join(root, "namespaces", namespace, o.ObjectType)
	}
	return path.Join(root, o.ObjectType)
}

func fromMatcher(m kubernetes.CustomResourceMatcher) ObjectToFetch {
	return ObjectToFetch{
		ObjectType:       m.Plural,
		GroupVersionKind: m.GroupVersionKind(),
	}
}

func gvk(group, version, kind string) schema.GroupVersionKind {
	return schema.GroupVersionKind{Group: group, Version: version, Kind: kind}
}

// DefaultObjects are the objects fetched for an entity when none are
// configured.
var DefaultObjects = []ObjectToFetch{
	{ObjectType: "pods", GroupVersionKind: gvk("", "v1", "Pod")},
	{ObjectType: "services", GroupVersionKind: gvk("", "v1", "Service")},
	{ObjectType: "configmaps", GroupVersionKind: gvk("", "v1", "ConfigMap")},
	{ObjectType: "limitranges", GroupVersionKind: gvk("", "v1", "LimitRange")},
	{ObjectType: "resourcequotas", GroupVersionKind: gvk("", "v1", "ResourceQuota")},
	{ObjectType: "deployments", GroupVersionKind: gvk("apps", "v1", "Deployment")},
	{ObjectType: "replicasets", GroupVersionKind: gvk("apps", "v1", "ReplicaSet")},
	{ObjectType: "statefulsets", GroupVersionKind: gvk("apps", "v1", "StatefulSet")},
	{ObjectType: "daemonsets", GroupVersionKind: gvk("apps", "v1", "DaemonSet")},
	{
		ObjectType:       "horizontalpodautoscalers",
		GroupVersionKind: gvk("autoscaling", "v2", "HorizontalPodAutoscaler"),
	},
	{ObjectType: "jobs", GroupVersionKind: gvk("batch", "v1", "Job")},
	{ObjectType: "cronjobs", GroupVersionKind: gvk("batch", "v1", "CronJob")},
	{ObjectType: "ingresses", GroupVersionKind: gvk("networking.k8s.io", "v1", "Ingress")},
}

// ObjectsFor selects the named DefaultObjects, in the order given, followed by
// customResources. An empty objectTypes selects all DefaultObjects.
func ObjectsFor(
	objectTypes []string,
	customResources []kubernetes.CustomResourceMatcher,
) ([]ObjectToFetch, error) {
	objs := make([]ObjectToFetch, 0, len(DefaultObjects)+len(customResources))
	if len(objectTypes) == 0 {
		objs = append(objs, DefaultObjects...)
	}
	for _, objectType := range objectTypes {
		found := false
		for _, o := range DefaultObjects {
			if o.ObjectType == objectType {
				objs = append(objs, o)
				found = true
				break
			}
		}
		if !found {
			return nil, fmt.Errorf("unknown object type %q", objectType)
		}
	}
	for _, cr := range customResources {
		objs = append(objs, fromMatcher(cr))
	}
	return objs, nil
}
