package descriptor

import (
	"fmt"

	appsv1 "k8s.io/api/apps/v1"
	corev1 "k8s.io/api/core/v1"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"k8s.io/apimachinery/pkg/runtime"
	kyaml "k8s.io/apimachinery/pkg/util/yaml"
)

// ParseError signals a document that is malformed at the schema level:
// missing required fields, mismatched types, or the wrong resource kind.
type ParseError string

func (err ParseError) Error() string { return string(err) }

func (ParseError) Is(err error) bool {
	_, ok := err.(ParseError)
	return ok
}

func parseErrorf(format string, args ...any) ParseError {
	return ParseError(fmt.Sprintf(format, args...))
}

// Parse decodes a YAML or JSON deployment manifest into a DeploymentSpec.
// It fails with a ParseError; semantic invariants are left to Validate.
func Parse(data []byte) (*DeploymentSpec, error) {
	var deployment appsv1.Deployment
	if err := kyaml.Unmarshal(data, &deployment); err != nil {
		return nil, parseErrorf("failed to unmarshal document: %v", err)
	}
	return FromDeployment(&deployment)
}

// FromUnstructured converts a dynamically typed resource, such as one
// rendered out of a helm chart, into a DeploymentSpec.
func FromUnstructured(resource *unstructured.Unstructured) (*DeploymentSpec, error) {
	var deployment appsv1.Deployment
	if err := runtime.DefaultUnstructuredConverter.FromUnstructured(resource.Object, &deployment); err != nil {
		return nil, parseErrorf("failed to convert resource to deployment: %v", err)
	}
	return FromDeployment(&deployment)
}

func FromDeployment(deployment *appsv1.Deployment) (*DeploymentSpec, error) {
	if deployment.APIVersion != "apps/v1" {
		return nil, parseErrorf("unexpected apiVersion: want apps/v1 but got %q", deployment.APIVersion)
	}
	if deployment.Kind != "Deployment" {
		return nil, parseErrorf("unexpected kind: want Deployment but got %q", deployment.Kind)
	}
	if deployment.Name == "" {
		return nil, ParseError("metadata.name is required")
	}

	podSpec := deployment.Spec.Template.Spec
	if len(podSpec.Containers) == 0 {
		return nil, ParseError("spec.template.spec.containers requires at least one container")
	}
	if podSpec.Containers[0].Image == "" {
		return nil, ParseError("spec.template.spec.containers[0].image is required")
	}

	containers := make([]Container, len(podSpec.Containers))
	for i, container := range podSpec.Containers {
		parsed, err := fromCoreContainer(container)
		if err != nil {
			return nil, fmt.Errorf("spec.template.spec.containers[%d]: %w", i, err)
		}
		containers[i] = parsed
	}

	replicas := int32(1)
	if deployment.Spec.Replicas != nil {
		replicas = *deployment.Spec.Replicas
	}

	var selector map[string]string
	if deployment.Spec.Selector != nil {
		selector = deployment.Spec.Selector.MatchLabels
	}

	return &DeploymentSpec{
		Name:      deployment.Name,
		Namespace: deployment.Namespace,
		Labels:    deployment.Labels,
		Replicas:  replicas,
		Selector:  selector,
		Template: PodTemplate{
			Labels:     deployment.Spec.Template.Labels,
			Containers: containers,
		},
	}, nil
}

func fromCoreContainer(container corev1.Container) (Container, error) {
	var ports []int32
	for _, port := range container.Ports {
		ports = append(ports, port.ContainerPort)
	}

	var env []EnvVar
	for _, variable := range container.Env {
		if variable.ValueFrom == nil {
			env = append(env, EnvVar{Name: variable.Name, Value: variable.Value})
			continue
		}
		ref := variable.ValueFrom.SecretKeyRef
		if ref == nil {
			return Container{}, parseErrorf("env %q: only secretKeyRef bindings are supported for valueFrom", variable.Name)
		}
		env = append(env, EnvVar{
			Name:      variable.Name,
			SecretRef: &SecretRef{Name: ref.Name, Key: ref.Key},
		})
	}

	return Container{
		Name:      container.Name,
		Image:     container.Image,
		Ports:     ports,
		Env:       env,
		Resources: container.Resources,
	}, nil
}
