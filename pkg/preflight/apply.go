package preflight

import (
	"cmp"
	"context"
	"fmt"
	"io"
	"time"

	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"

	"github.com/davidmdm/preflight/internal"
	"github.com/davidmdm/preflight/internal/k8s"
	"github.com/davidmdm/preflight/internal/text"
	"github.com/davidmdm/preflight/pkg/descriptor"
)

type ApplyParams struct {
	Path           string
	Input          io.Reader
	Namespace      string
	SkipDryRun     bool
	ForceConflicts bool
	DiffOnly       bool
	DiffContext    int
	Color          bool
	Wait           time.Duration
	Poll           time.Duration
}

// Apply validates the descriptor, checks that every secret reference
// resolves against the cluster, and submits it via server-side apply.
// A dry-run apply runs first unless explicitly skipped. With DiffOnly the
// descriptor is only diffed against the live object.
func (commander Commander) Apply(ctx context.Context, params ApplyParams) error {
	defer internal.DebugTimer(ctx, "apply")()

	data, err := readSource(params.Path, params.Input)
	if err != nil {
		return fmt.Errorf("failed to read descriptor source: %w", err)
	}

	spec, err := descriptor.Parse(data)
	if err != nil {
		return err
	}

	if err := spec.Validate(); err != nil {
		return err
	}

	// secret references must resolve in the namespace the deployment will
	// land in, so the namespace is settled before resolution
	spec.Namespace = cmp.Or(spec.Namespace, params.Namespace, "default")

	if _, err := descriptor.Resolve(ctx, *spec, commander.k8s); err != nil {
		return err
	}

	resource, err := spec.ToUnstructured()
	if err != nil {
		return err
	}

	internal.AddManagedByMetadata(resource)

	if params.DiffOnly {
		return commander.diff(ctx, resource, params)
	}

	if !params.SkipDryRun {
		if err := commander.k8s.ApplyResource(ctx, resource, k8s.ApplyOpts{DryRun: true}); err != nil {
			return fmt.Errorf("dry run: %s: %w", internal.Canonical(resource), err)
		}
	}

	opts := k8s.ApplyOpts{ForceConflicts: params.ForceConflicts}
	if err := commander.k8s.ApplyResource(ctx, resource, opts); err != nil {
		return fmt.Errorf("%s: %w", internal.Canonical(resource), err)
	}

	if params.Wait > 0 {
		waitOpts := k8s.WaitOptions{Timeout: params.Wait, Interval: params.Poll}
		if err := commander.k8s.WaitForReady(ctx, resource, waitOpts); err != nil {
			return fmt.Errorf("deployment did not become ready within wait period: %w", err)
		}
	}

	return nil
}

func (commander Commander) diff(ctx context.Context, resource *unstructured.Unstructured, params ApplyParams) error {
	live, err := commander.k8s.GetCurrent(ctx, resource)
	if err != nil {
		return fmt.Errorf("failed to get live state: %w", err)
	}

	current := map[string]any{}
	if live != nil {
		stripServerManagedFields(live)
		current = live.Object
	}

	a, err := text.ToYamlFile("current", current)
	if err != nil {
		return err
	}

	b, err := text.ToYamlFile("next", resource.Object)
	if err != nil {
		return err
	}

	opts := text.DiffOpts{Context: params.DiffContext, Color: params.Color}

	_, err = fmt.Fprint(internal.Stdout(ctx), text.Diff(a, b, opts))
	return err
}

// stripServerManagedFields removes the fields the api server populates on
// live objects so the diff only shows what the descriptor controls.
func stripServerManagedFields(resource *unstructured.Unstructured) {
	unstructured.RemoveNestedField(resource.Object, "status")
	unstructured.RemoveNestedField(resource.Object, "metadata", "managedFields")
	unstructured.RemoveNestedField(resource.Object, "metadata", "creationTimestamp")
	unstructured.RemoveNestedField(resource.Object, "metadata", "resourceVersion")
	unstructured.RemoveNestedField(resource.Object, "metadata", "uid")
	unstructured.RemoveNestedField(resource.Object, "metadata", "generation")
	unstructured.RemoveNestedField(resource.Object, "metadata", "annotations", "deployment.kubernetes.io/revision")
}
