package preflight

import (
	"cmp"
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/davidmdm/preflight/internal"
	"github.com/davidmdm/preflight/pkg/descriptor"
	"github.com/davidmdm/preflight/pkg/helm"
)

type CheckParams struct {
	Path      string
	Input     io.Reader
	Chart     bool
	Namespace string
}

// Finding is the validation outcome for one descriptor. An empty
// Violations slice means the descriptor passed every check.
type Finding struct {
	Descriptor string
	Violations []descriptor.ValidationError
}

func (finding Finding) OK() bool { return len(finding.Violations) == 0 }

// Check parses the source and validates every deployment descriptor in
// it. A plain manifest yields one finding; a chart archive yields one per
// rendered Deployment.
func Check(ctx context.Context, params CheckParams) ([]Finding, error) {
	defer internal.DebugTimer(ctx, "check")()

	data, err := readSource(params.Path, params.Input)
	if err != nil {
		return nil, fmt.Errorf("failed to read descriptor source: %w", err)
	}

	if params.Chart {
		return checkChart(ctx, data, params)
	}

	spec, err := descriptor.Parse(data)
	if err != nil {
		return nil, err
	}

	return []Finding{{Descriptor: spec.Name, Violations: spec.Violations()}}, nil
}

func checkChart(ctx context.Context, data []byte, params CheckParams) ([]Finding, error) {
	chart, err := helm.LoadChartFromZippedArchive(data)
	if err != nil {
		return nil, fmt.Errorf("failed to load chart: %w", err)
	}

	release := cmp.Or(chart.Name(), strings.TrimSuffix(filepath.Base(params.Path), ".tgz"))

	resources, err := chart.RenderDeployments(release, cmp.Or(params.Namespace, "default"), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to render chart: %w", err)
	}

	findings := make([]Finding, len(resources))
	for i, resource := range resources {
		spec, err := descriptor.FromUnstructured(resource)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", internal.Canonical(resource), err)
		}
		findings[i] = Finding{Descriptor: spec.Name, Violations: spec.Violations()}
	}

	return findings, nil
}
