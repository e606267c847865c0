package descriptor

import (
	"cmp"
	"context"
	"errors"
	"fmt"

	"github.com/davidmdm/x/xerr"
)

// ErrSecretNotFound is returned by SecretLookup implementations when the
// referenced secret or key does not exist.
var ErrSecretNotFound = errors.New("secret not found")

// SecretLookup is the read-only capability used to resolve secret
// references. Implementations must return ErrSecretNotFound for absent
// secrets or keys; any other error is treated as a lookup failure.
type SecretLookup interface {
	LookupSecretValue(ctx context.Context, namespace, name, key string) (string, error)
}

// StaticLookup resolves secrets from memory: secret name to key to value.
// It ignores namespaces and is meant for offline runs and tests.
type StaticLookup map[string]map[string]string

func (lookup StaticLookup) LookupSecretValue(_ context.Context, _, name, key string) (string, error) {
	value, ok := lookup[name][key]
	if !ok {
		return "", ErrSecretNotFound
	}
	return value, nil
}

// ResolutionError identifies a secret reference that could not be
// satisfied at apply time.
type ResolutionError struct {
	Secret string
	Key    string
}

func (err ResolutionError) Error() string {
	return fmt.Sprintf("failed to resolve secret reference %s/%s", err.Secret, err.Key)
}

func (ResolutionError) Is(err error) bool {
	_, ok := err.(ResolutionError)
	return ok
}

// ResolvedSpec is a DeploymentSpec whose secret references have all been
// substituted with their literal values. It is never written back to the
// cluster; resolution is an existence check and a preview aid.
type ResolvedSpec struct {
	DeploymentSpec
}

// Resolve substitutes every secret reference in the spec through the given
// lookup. All unresolved references are reported, not just the first.
func Resolve(ctx context.Context, spec DeploymentSpec, lookup SecretLookup) (*ResolvedSpec, error) {
	namespace := cmp.Or(spec.Namespace, "default")

	resolved := spec
	resolved.Template.Containers = make([]Container, len(spec.Template.Containers))

	var errs []error
	for i, container := range spec.Template.Containers {
		env := make([]EnvVar, len(container.Env))
		for j, variable := range container.Env {
			env[j] = variable
			ref := variable.SecretRef
			if ref == nil {
				continue
			}

			value, err := lookup.LookupSecretValue(ctx, namespace, ref.Name, ref.Key)
			if err != nil {
				if errors.Is(err, ErrSecretNotFound) {
					errs = append(errs, ResolutionError{Secret: ref.Name, Key: ref.Key})
					continue
				}
				errs = append(errs, fmt.Errorf("env %q: %w", variable.Name, err))
				continue
			}

			env[j] = EnvVar{Name: variable.Name, Value: value}
		}
		container.Env = env
		resolved.Template.Containers[i] = container
	}

	if err := xerr.MultiErrOrderedFrom("failed to resolve secret reference(s)", errs...); err != nil {
		return nil, err
	}

	return &ResolvedSpec{resolved}, nil
}
