package helm

import (
	"archive/tar"
	"bytes"
	"compress/gzip"
	"encoding/json"
	"fmt"
	"io"
	"path"
	"slices"
	"strings"

	"helm.sh/helm/v3/pkg/chart"
	"helm.sh/helm/v3/pkg/chart/loader"
	"helm.sh/helm/v3/pkg/chartutil"
	"helm.sh/helm/v3/pkg/engine"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"k8s.io/apimachinery/pkg/util/yaml"

	"github.com/davidmdm/preflight/internal"
	"github.com/davidmdm/x/xerr"
)

func LoadChartFromZippedArchive(data []byte) (chart *Chart, err error) {
	gz, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to create gzip reader: %w", err)
	}
	defer func() {
		err = xerr.MultiErrFrom("", err, gz.Close())
	}()

	archive := tar.NewReader(gz)

	var files []*loader.BufferedFile
	for {
		header, err := archive.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to iterate through archive: %w", err)
		}

		if header.Typeflag != tar.TypeReg {
			continue
		}

		content, err := io.ReadAll(archive)
		if err != nil {
			return nil, err
		}

		files = append(files, &loader.BufferedFile{
			Name: header.Name,
			Data: content,
		})
	}

	stripToChart(files)

	underlyingChart, err := loader.LoadFiles(files)
	if err != nil {
		return nil, err
	}

	return &Chart{Chart: underlyingChart}, nil
}

type Chart struct {
	*chart.Chart
}

// RenderDeployments evaluates the chart's templates and returns only the
// Deployment resources found in the output, sorted by canonical name.
// Other kinds are skipped: this toolkit checks deployment descriptors.
func (chart Chart) RenderDeployments(release, namespace string, values any) ([]*unstructured.Unstructured, error) {
	opts := chartutil.ReleaseOptions{
		Name:      release,
		Namespace: namespace,
	}

	valueMap, err := asMap(values)
	if err != nil {
		return nil, fmt.Errorf("failed to convert values to map: %w", err)
	}

	valueMap, err = chartutil.ToRenderValues(chart.Chart, valueMap, opts, chartutil.DefaultCapabilities.Copy())
	if err != nil {
		return nil, err
	}

	rendered, err := engine.Engine{}.Render(chart.Chart, valueMap)
	if err != nil {
		return nil, err
	}

	var results []*unstructured.Unstructured

	for name, content := range rendered {
		if ext := path.Ext(name); ext != ".yaml" {
			continue
		}

		var resource unstructured.Unstructured
		if err := yaml.Unmarshal([]byte(content), &resource); err != nil {
			return nil, fmt.Errorf("%s: %w\n%s", name, err, content)
		}
		if resource.Object == nil || resource.GetKind() != "Deployment" {
			continue
		}
		results = append(results, &resource)
	}

	slices.SortFunc(results, func(a, b *unstructured.Unstructured) int {
		return strings.Compare(internal.Canonical(a), internal.Canonical(b))
	})

	return results, nil
}

func asMap(values any) (map[string]any, error) {
	if values == nil {
		return map[string]any{}, nil
	}
	if m, ok := values.(map[string]any); ok {
		return m, nil
	}

	data, err := json.Marshal(values)
	if err != nil {
		return nil, err
	}

	var m map[string]any
	err = json.Unmarshal(data, &m)
	return m, err
}

// stripToChart modifies the names of the files such that it removes the segments
// prior to the nearest Chart.yaml. This is done so that helm can recognize these files
// as a chart: archives usually nest the chart under a containing folder.
func stripToChart(files []*loader.BufferedFile) {
	idx := -1
	for _, file := range files {
		file.Name = path.Clean(file.Name)
		if path.Base(file.Name) != "Chart.yaml" {
			continue
		}
		if length := len(strings.Split(file.Name, "/")); idx == -1 || length < idx {
			idx = length
		}
	}
	if idx == -1 {
		return
	}

	for _, file := range files {
		file.Name = strings.Join(strings.Split(file.Name, "/")[idx-1:], "/")
	}
}
