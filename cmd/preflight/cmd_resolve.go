package main

import (
	"context"
	_ "embed"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/davidmdm/preflight/internal"
	"github.com/davidmdm/preflight/internal/k8s"
	"github.com/davidmdm/preflight/pkg/descriptor"
	"github.com/davidmdm/preflight/pkg/preflight"
)

type ResolveParams struct {
	GlobalSettings
	Path        string
	Input       io.Reader
	SecretsPath string
	Out         string
}

//go:embed cmd_resolve_help.txt
var resolveHelp string

func init() {
	resolveHelp = strings.TrimSpace(internal.Colorize(resolveHelp))
}

func GetResolveParams(settings GlobalSettings, source io.Reader, args []string) (*ResolveParams, error) {
	flagset := flag.NewFlagSet("resolve", flag.ExitOnError)

	flagset.Usage = func() {
		fmt.Fprintln(flagset.Output(), resolveHelp)
		flagset.PrintDefaults()
	}

	params := ResolveParams{GlobalSettings: settings, Input: source}

	RegisterGlobalFlags(flagset, &params.GlobalSettings)

	flagset.StringVar(&params.SecretsPath, "secrets", "", "resolve against a yaml file of secrets (name to key to value) instead of the cluster")
	flagset.StringVar(&params.Out, "out", "", "write the resolved manifest to the given file instead of standard out")

	flagset.Parse(args)

	params.Path = flagset.Arg(0)

	if params.Input == nil && params.Path == "" {
		return nil, fmt.Errorf("descriptor path is required as first positional arg")
	}

	return &params, nil
}

func Resolve(ctx context.Context, params ResolveParams) error {
	lookup, err := getLookup(params)
	if err != nil {
		return err
	}

	resolved, err := preflight.Resolve(ctx, preflight.ResolveParams{
		Path:      params.Path,
		Input:     params.Input,
		Namespace: params.Namespace,
		Lookup:    lookup,
	})
	if err != nil && !internal.IsWarning(err) {
		return err
	}

	warning := err

	resource, err := resolved.ToUnstructured()
	if err != nil {
		return err
	}

	if params.Out != "" {
		if err := internal.WriteYAML(params.Out, resource.Object); err != nil {
			return err
		}
		return warning
	}

	encoder := yaml.NewEncoder(internal.Stdout(ctx))
	encoder.SetIndent(2)

	if err := encoder.Encode(resource.Object); err != nil {
		return err
	}

	return warning
}

func getLookup(params ResolveParams) (descriptor.SecretLookup, error) {
	if params.SecretsPath == "" {
		return k8s.NewClientFromKubeConfig(params.KubeConfigPath)
	}

	data, err := os.ReadFile(params.SecretsPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read secrets file: %w", err)
	}

	var lookup descriptor.StaticLookup
	if err := yaml.Unmarshal(data, &lookup); err != nil {
		return nil, fmt.Errorf("failed to parse secrets file: %w", err)
	}

	return lookup, nil
}
