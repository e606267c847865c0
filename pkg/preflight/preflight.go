package preflight

import (
	"fmt"
	"io"
	"os"

	"github.com/davidmdm/preflight/internal/k8s"
)

// Commander drives the cluster-facing operations: resolution against live
// secrets, diffing, and server-side apply. Offline operations (Check,
// Resolve with a static lookup) do not need one.
type Commander struct {
	k8s *k8s.Client
}

func FromKubeConfig(path string) (*Commander, error) {
	client, err := k8s.NewClientFromKubeConfig(path)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize k8s client: %w", err)
	}
	return &Commander{client}, nil
}

func FromK8Client(client *k8s.Client) *Commander {
	return &Commander{client}
}

// Cluster exposes the underlying client so that callers can use it as a
// descriptor.SecretLookup.
func (commander Commander) Cluster() *k8s.Client { return commander.k8s }

func readSource(path string, input io.Reader) ([]byte, error) {
	if input != nil {
		return io.ReadAll(input)
	}
	return os.ReadFile(path)
}
