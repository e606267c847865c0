package main

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/davidmdm/preflight/internal"
)

const secretManifest = `
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
          env:
            - name: DATABASE_PASSWORD
              valueFrom:
                secretKeyRef:
                  name: postgresql
                  key: database-password
`

func TestResolveCommandWithSecretsFile(t *testing.T) {
	settings := GlobalSettings{Namespace: "default"}

	var stdout bytes.Buffer
	ctx := internal.WithStdout(context.Background(), &stdout)

	params, err := GetResolveParams(settings, strings.NewReader(secretManifest), []string{"-secrets", "testdata/secrets.yaml"})
	require.NoError(t, err)

	require.NoError(t, Resolve(ctx, *params))

	require.Contains(t, stdout.String(), "name: DATABASE_PASSWORD")
	require.Contains(t, stdout.String(), "value: hunter2")
	require.NotContains(t, stdout.String(), "secretKeyRef")
}

func TestResolveCommandUsesGlobalNamespace(t *testing.T) {
	settings := GlobalSettings{Namespace: "staging"}

	var stdout bytes.Buffer
	ctx := internal.WithStdout(context.Background(), &stdout)

	params, err := GetResolveParams(settings, strings.NewReader(secretManifest), []string{"-secrets", "testdata/secrets.yaml"})
	require.NoError(t, err)

	require.NoError(t, Resolve(ctx, *params))

	require.Contains(t, stdout.String(), "namespace: staging")
}

func TestResolveCommandMissingKey(t *testing.T) {
	settings := GlobalSettings{Namespace: "default"}

	params, err := GetResolveParams(settings, strings.NewReader(secretManifest), []string{"-secrets", "testdata/empty-secrets.yaml"})
	require.NoError(t, err)

	err = Resolve(context.Background(), *params)
	require.ErrorContains(t, err, "failed to resolve secret reference postgresql/database-password")
}
