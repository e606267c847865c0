package descriptor

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestValidateAccountsDescriptor(t *testing.T) {
	spec := accountsSpec()
	require.Empty(t, spec.Violations())
	require.NoError(t, spec.Validate())
}

func TestValidateNegativeReplicas(t *testing.T) {
	spec := accountsSpec()
	spec.Replicas = -1

	violations := spec.Violations()
	require.Len(t, violations, 1)
	require.Equal(t, "spec.replicas", violations[0].Field)
	require.Equal(t, "must not be negative but got -1", violations[0].Detail)

	require.ErrorContains(t, spec.Validate(), "spec.replicas: must not be negative but got -1")
}

func TestValidate(t *testing.T) {
	cases := []struct {
		Name     string
		Mutate   func(spec *DeploymentSpec)
		Expected []ValidationError
	}{
		{
			Name:   "empty selector",
			Mutate: func(spec *DeploymentSpec) { spec.Selector = nil },
			Expected: []ValidationError{
				{Field: "spec.selector.matchLabels", Detail: "must not be empty"},
			},
		},
		{
			Name:   "selector not a subset of template labels",
			Mutate: func(spec *DeploymentSpec) { spec.Selector = map[string]string{"app": "payments"} },
			Expected: []ValidationError{
				{Field: "spec.selector.matchLabels", Detail: "app=payments does not match the pod template labels"},
			},
		},
		{
			Name: "duplicate container ports",
			Mutate: func(spec *DeploymentSpec) {
				spec.Template.Containers[0].Ports = []int32{8080, 8080}
			},
			Expected: []ValidationError{
				{Field: "spec.template.spec.containers[0].ports", Detail: "duplicate container port 8080"},
			},
		},
		{
			Name: "duplicate env variable",
			Mutate: func(spec *DeploymentSpec) {
				env := &spec.Template.Containers[0].Env
				*env = append(*env, EnvVar{Name: "DATABASE_HOST", Value: "other"})
			},
			Expected: []ValidationError{
				{Field: "spec.template.spec.containers[0].env", Detail: `duplicate variable "DATABASE_HOST"`},
			},
		},
		{
			Name: "literal and secret reference on the same variable",
			Mutate: func(spec *DeploymentSpec) {
				spec.Template.Containers[0].Env[1].Value = "plaintext"
			},
			Expected: []ValidationError{
				{Field: "spec.template.spec.containers[0].env", Detail: `variable "DATABASE_NAME" binds both a literal value and a secret reference`},
			},
		},
		{
			Name: "incomplete secret reference",
			Mutate: func(spec *DeploymentSpec) {
				spec.Template.Containers[0].Env[1].SecretRef.Key = ""
			},
			Expected: []ValidationError{
				{Field: "spec.template.spec.containers[0].env", Detail: `variable "DATABASE_NAME" has an incomplete secret reference`},
			},
		},
		{
			Name: "unnamed container without image",
			Mutate: func(spec *DeploymentSpec) {
				spec.Template.Containers = append(spec.Template.Containers, Container{})
			},
			Expected: []ValidationError{
				{Field: "spec.template.spec.containers[1].name", Detail: "must not be empty"},
				{Field: "spec.template.spec.containers[1].image", Detail: "must not be empty"},
			},
		},
	}

	for _, tc := range cases {
		t.Run(tc.Name, func(t *testing.T) {
			spec := accountsSpec()
			tc.Mutate(&spec)
			require.Equal(t, tc.Expected, spec.Violations())
		})
	}
}

func TestValidationIsIdempotentOnceFixed(t *testing.T) {
	spec := accountsSpec()
	spec.Replicas = -3
	spec.Selector = map[string]string{"app": "payments"}
	spec.Template.Containers[0].Ports = []int32{8080, 8080}

	require.Len(t, spec.Violations(), 3)

	spec.Replicas = 3
	spec.Selector = map[string]string{"app": "accounts"}
	spec.Template.Containers[0].Ports = []int32{8080}

	require.Empty(t, spec.Violations())
	require.NoError(t, spec.Validate())
}
