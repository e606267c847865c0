package descriptor

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	corev1 "k8s.io/api/core/v1"
	"k8s.io/apimachinery/pkg/api/resource"
)

const accountsManifest = `
apiVersion: apps/v1
kind: Deployment
metadata:
  name: accounts
  labels:
    app: accounts
spec:
  replicas: 3
  selector:
    matchLabels:
      app: accounts
  template:
    metadata:
      labels:
        app: accounts
    spec:
      containers:
        - name: accounts
          image: accounts:1
          ports:
            - containerPort: 8080
          env:
            - name: DATABASE_HOST
              value: postgresql
            - name: DATABASE_NAME
              valueFrom:
                secretKeyRef:
                  name: postgresql
                  key: database-name
            - name: DATABASE_USER
              valueFrom:
                secretKeyRef:
                  name: postgresql
                  key: database-user
            - name: DATABASE_PASSWORD
              valueFrom:
                secretKeyRef:
                  name: postgresql
                  key: database-password
          resources:
            requests:
              cpu: 100m
              memory: 128Mi
            limits:
              cpu: 200m
              memory: 256Mi
`

func accountsSpec() DeploymentSpec {
	return DeploymentSpec{
		Name:     "accounts",
		Labels:   map[string]string{"app": "accounts"},
		Replicas: 3,
		Selector: map[string]string{"app": "accounts"},
		Template: PodTemplate{
			Labels: map[string]string{"app": "accounts"},
			Containers: []Container{
				{
					Name:  "accounts",
					Image: "accounts:1",
					Ports: []int32{8080},
					Env: []EnvVar{
						{Name: "DATABASE_HOST", Value: "postgresql"},
						{Name: "DATABASE_NAME", SecretRef: &SecretRef{Name: "postgresql", Key: "database-name"}},
						{Name: "DATABASE_USER", SecretRef: &SecretRef{Name: "postgresql", Key: "database-user"}},
						{Name: "DATABASE_PASSWORD", SecretRef: &SecretRef{Name: "postgresql", Key: "database-password"}},
					},
					Resources: corev1.ResourceRequirements{
						Requests: corev1.ResourceList{
							corev1.ResourceCPU:    resource.MustParse("100m"),
							corev1.ResourceMemory: resource.MustParse("128Mi"),
						},
						Limits: corev1.ResourceList{
							corev1.ResourceCPU:    resource.MustParse("200m"),
							corev1.ResourceMemory: resource.MustParse("256Mi"),
						},
					},
				},
			},
		},
	}
}

func TestParse(t *testing.T) {
	cases := []struct {
		Name     string
		Input    string
		Expected DeploymentSpec
		Error    string
	}{
		{
			Name:     "accounts descriptor",
			Input:    accountsManifest,
			Expected: accountsSpec(),
		},
		{
			Name: "missing name",
			Input: `
apiVersion: apps/v1
kind: Deployment
spec:
  template:
    spec:
      containers:
        - name: app
          image: app:latest
`,
			Error: "metadata.name is required",
		},
		{
			Name: "missing image",
			Input: `
apiVersion: apps/v1
kind: Deployment
metadata:
  name: app
spec:
  template:
    spec:
      containers:
        - name: app
`,
			Error: "spec.template.spec.containers[0].image is required",
		},
		{
			Name: "no containers",
			Input: `
apiVersion: apps/v1
kind: Deployment
metadata:
  name: app
spec:
  template:
    spec:
      containers: []
`,
			Error: "spec.template.spec.containers requires at least one container",
		},
		{
			Name: "replicas is not an integer",
			Input: `
apiVersion: apps/v1
kind: Deployment
metadata:
  name: app
spec:
  replicas: three
  template:
    spec:
      containers:
        - name: app
          image: app:latest
`,
			Error: "replicas",
		},
		{
			Name: "wrong kind",
			Input: `
apiVersion: apps/v1
kind: Service
metadata:
  name: app
`,
			Error: `unexpected kind: want Deployment but got "Service"`,
		},
		{
			Name: "wrong apiVersion",
			Input: `
apiVersion: v1
kind: Deployment
metadata:
  name: app
`,
			Error: `unexpected apiVersion: want apps/v1 but got "v1"`,
		},
		{
			Name: "unsupported valueFrom",
			Input: `
apiVersion: apps/v1
kind: Deployment
metadata:
  name: app
spec:
  template:
    spec:
      containers:
        - name: app
          image: app:latest
          env:
            - name: SETTING
              valueFrom:
                configMapKeyRef:
                  name: settings
                  key: value
`,
			Error: `env "SETTING": only secretKeyRef bindings are supported for valueFrom`,
		},
	}

	for _, tc := range cases {
		t.Run(tc.Name, func(t *testing.T) {
			actual, err := Parse([]byte(tc.Input))

			if tc.Error != "" {
				require.ErrorContains(t, err, tc.Error)
				require.True(t, errors.Is(err, ParseError("")), "expected a ParseError but got %T", err)
				return
			}

			require.NoError(t, err)
			require.Equal(t, tc.Expected, *actual)
		})
	}
}

func TestParseDefaultsReplicas(t *testing.T) {
	spec, err := Parse([]byte(`
apiVersion: apps/v1
kind: Deployment
metadata:
  name: app
spec:
  template:
    spec:
      containers:
        - name: app
          image: app:latest
`))
	require.NoError(t, err)
	require.EqualValues(t, 1, spec.Replicas)
}

func TestRoundTrip(t *testing.T) {
	spec := accountsSpec()

	data, err := spec.ToYAML()
	require.NoError(t, err)

	actual, err := Parse(data)
	require.NoError(t, err)

	require.Equal(t, spec, *actual)
}
