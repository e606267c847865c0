package descriptor

import (
	"fmt"
	"maps"
	"slices"

	"github.com/davidmdm/x/xerr"
)

// ValidationError is a single invariant violation. Field is the path of
// the offending field in manifest notation.
type ValidationError struct {
	Field  string
	Detail string
}

func (err ValidationError) Error() string { return err.Field + ": " + err.Detail }

func (ValidationError) Is(err error) bool {
	_, ok := err.(ValidationError)
	return ok
}

// Validate reports every invariant violation found in the spec. A nil
// result means the descriptor is safe to submit to the cluster.
func (spec DeploymentSpec) Validate() error {
	violations := spec.Violations()

	errs := make([]error, len(violations))
	for i, violation := range violations {
		errs[i] = violation
	}

	return xerr.MultiErrOrderedFrom("invalid descriptor", errs...)
}

// Violations collects all violations instead of stopping at the first,
// so that an operator can fix a descriptor in one pass.
func (spec DeploymentSpec) Violations() []ValidationError {
	var violations []ValidationError

	invalid := func(field, format string, args ...any) {
		violations = append(violations, ValidationError{Field: field, Detail: fmt.Sprintf(format, args...)})
	}

	if spec.Replicas < 0 {
		invalid("spec.replicas", "must not be negative but got %d", spec.Replicas)
	}

	if len(spec.Selector) == 0 {
		invalid("spec.selector.matchLabels", "must not be empty")
	}
	for _, key := range slices.Sorted(maps.Keys(spec.Selector)) {
		if actual, ok := spec.Template.Labels[key]; !ok || actual != spec.Selector[key] {
			invalid("spec.selector.matchLabels", "%s=%s does not match the pod template labels", key, spec.Selector[key])
		}
	}

	seenPorts := map[int32]bool{}
	for i, container := range spec.Template.Containers {
		field := func(segment string) string {
			return fmt.Sprintf("spec.template.spec.containers[%d].%s", i, segment)
		}

		if container.Name == "" {
			invalid(field("name"), "must not be empty")
		}
		if container.Image == "" {
			invalid(field("image"), "must not be empty")
		}

		for _, port := range container.Ports {
			if seenPorts[port] {
				invalid(field("ports"), "duplicate container port %d", port)
			}
			seenPorts[port] = true
		}

		seenEnv := map[string]bool{}
		for _, variable := range container.Env {
			if variable.Name == "" {
				invalid(field("env"), "variable name must not be empty")
				continue
			}
			if seenEnv[variable.Name] {
				invalid(field("env"), "duplicate variable %q", variable.Name)
			}
			seenEnv[variable.Name] = true

			if variable.SecretRef != nil && variable.Value != "" {
				invalid(field("env"), "variable %q binds both a literal value and a secret reference", variable.Name)
			}
			if ref := variable.SecretRef; ref != nil && (ref.Name == "" || ref.Key == "") {
				invalid(field("env"), "variable %q has an incomplete secret reference", variable.Name)
			}
		}
	}

	return violations
}
