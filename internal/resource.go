package internal

import (
	"cmp"
	"strings"

	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
)

// AddManagedByMetadata marks an applied resource so that its origin can be
// traced back to this tool.
func AddManagedByMetadata(resource *unstructured.Unstructured) {
	labels := resource.GetLabels()
	if labels == nil {
		labels = make(map[string]string)
	}
	labels["app.kubernetes.io/managed-by"] = "preflight"
	resource.SetLabels(labels)
}

// Canonical returns a stable lowercase identifier for a resource:
// namespace.group.version.kind.name.
func Canonical(resource *unstructured.Unstructured) string {
	gvk := resource.GetObjectKind().GroupVersionKind()

	return strings.ToLower(strings.Join(
		[]string{
			cmp.Or(resource.GetNamespace(), "_"),
			cmp.Or(gvk.Group, "core"),
			gvk.Version,
			resource.GetKind(),
			resource.GetName(),
		},
		".",
	))
}
