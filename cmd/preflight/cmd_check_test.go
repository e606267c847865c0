package main

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/davidmdm/preflight/internal"
)

const validManifest = `
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
`

const invalidManifest = `
apiVersion: apps/v1
kind: Deployment
metadata:
  name: accounts
spec:
  replicas: -1
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
`

func TestGetCheckParams(t *testing.T) {
	settings := GlobalSettings{Namespace: "default"}

	_, err := GetCheckParams(settings, nil, nil)
	require.EqualError(t, err, "descriptor path is required as first positional arg")

	params, err := GetCheckParams(settings, nil, []string{"-chart", "accounts.tgz"})
	require.NoError(t, err)
	require.True(t, params.Chart)
	require.Equal(t, "accounts.tgz", params.Path)
	require.Equal(t, "default", params.CheckParams.Namespace)
}

func TestCheckCommand(t *testing.T) {
	settings := GlobalSettings{Namespace: "default"}

	var stdout bytes.Buffer
	ctx := internal.WithStdout(context.Background(), &stdout)

	params, err := GetCheckParams(settings, strings.NewReader(validManifest), nil)
	require.NoError(t, err)

	require.NoError(t, Check(ctx, *params))
	require.Contains(t, stdout.String(), "checked 1 descriptor(s): no violations found")
}

func TestCheckCommandReportsViolations(t *testing.T) {
	settings := GlobalSettings{Namespace: "default"}

	var stdout bytes.Buffer
	ctx := internal.WithStdout(context.Background(), &stdout)

	params, err := GetCheckParams(settings, strings.NewReader(invalidManifest), nil)
	require.NoError(t, err)

	require.EqualError(t, Check(ctx, *params), "found 1 violation(s)")
	require.Contains(t, stdout.String(), "spec.replicas")
	require.Contains(t, stdout.String(), "must not be negative but got -1")
}
