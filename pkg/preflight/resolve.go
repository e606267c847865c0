package preflight

import (
	"cmp"
	"context"
	"fmt"
	"io"

	"github.com/davidmdm/preflight/internal"
	"github.com/davidmdm/preflight/pkg/descriptor"
)

type ResolveParams struct {
	Path      string
	Input     io.Reader
	Namespace string
	Lookup    descriptor.SecretLookup
}

// Resolve parses and validates the descriptor, then substitutes its
// secret references through the given lookup. An invalid descriptor is
// never resolved. When the descriptor has no secret references the
// original spec is returned along with a Warning.
func Resolve(ctx context.Context, params ResolveParams) (*descriptor.ResolvedSpec, error) {
	defer internal.DebugTimer(ctx, "resolve")()

	data, err := readSource(params.Path, params.Input)
	if err != nil {
		return nil, fmt.Errorf("failed to read descriptor source: %w", err)
	}

	spec, err := descriptor.Parse(data)
	if err != nil {
		return nil, err
	}

	if err := spec.Validate(); err != nil {
		return nil, err
	}

	// a descriptor without an explicit namespace is resolved in the
	// preferred namespace it would be applied to
	spec.Namespace = cmp.Or(spec.Namespace, params.Namespace)

	if len(spec.SecretRefs()) == 0 {
		return &descriptor.ResolvedSpec{DeploymentSpec: *spec}, internal.Warning("descriptor has no secret references: nothing to resolve")
	}

	return descriptor.Resolve(ctx, *spec, params.Lookup)
}
