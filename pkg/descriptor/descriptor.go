package descriptor

import (
	"bytes"
	"fmt"

	"gopkg.in/yaml.v3"

	appsv1 "k8s.io/api/apps/v1"
	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"k8s.io/apimachinery/pkg/runtime"
)

// DeploymentSpec is the shape of a deployment descriptor after parsing.
// It models the subset of an apps/v1 Deployment that this toolkit
// understands and is what Validate and Resolve operate over.
type DeploymentSpec struct {
	Name      string
	Namespace string
	Labels    map[string]string
	Replicas  int32
	Selector  map[string]string
	Template  PodTemplate
}

type PodTemplate struct {
	Labels     map[string]string
	Containers []Container
}

type Container struct {
	Name      string
	Image     string
	Ports     []int32
	Env       []EnvVar
	Resources corev1.ResourceRequirements
}

// EnvVar is a tagged variant: either a literal Value, or a SecretRef
// pointing at a key of a secret in the descriptor's namespace. SecretRef
// nil means literal.
type EnvVar struct {
	Name      string
	Value     string
	SecretRef *SecretRef
}

type SecretRef struct {
	Name string
	Key  string
}

func (spec DeploymentSpec) ToDeployment() *appsv1.Deployment {
	containers := make([]corev1.Container, len(spec.Template.Containers))
	for i, container := range spec.Template.Containers {
		containers[i] = container.toCoreContainer()
	}

	return &appsv1.Deployment{
		TypeMeta: metav1.TypeMeta{
			APIVersion: "apps/v1",
			Kind:       "Deployment",
		},
		ObjectMeta: metav1.ObjectMeta{
			Name:      spec.Name,
			Namespace: spec.Namespace,
			Labels:    spec.Labels,
		},
		Spec: appsv1.DeploymentSpec{
			Replicas: &spec.Replicas,
			Selector: &metav1.LabelSelector{MatchLabels: spec.Selector},
			Template: corev1.PodTemplateSpec{
				ObjectMeta: metav1.ObjectMeta{Labels: spec.Template.Labels},
				Spec:       corev1.PodSpec{Containers: containers},
			},
		},
	}
}

func (container Container) toCoreContainer() corev1.Container {
	ports := make([]corev1.ContainerPort, len(container.Ports))
	for i, port := range container.Ports {
		ports[i] = corev1.ContainerPort{ContainerPort: port}
	}

	env := make([]corev1.EnvVar, len(container.Env))
	for i, variable := range container.Env {
		if ref := variable.SecretRef; ref != nil {
			env[i] = corev1.EnvVar{
				Name: variable.Name,
				ValueFrom: &corev1.EnvVarSource{
					SecretKeyRef: &corev1.SecretKeySelector{
						LocalObjectReference: corev1.LocalObjectReference{Name: ref.Name},
						Key:                  ref.Key,
					},
				},
			}
			continue
		}
		env[i] = corev1.EnvVar{Name: variable.Name, Value: variable.Value}
	}

	return corev1.Container{
		Name:      container.Name,
		Image:     container.Image,
		Ports:     ports,
		Env:       env,
		Resources: container.Resources,
	}
}

func (spec DeploymentSpec) ToUnstructured() (*unstructured.Unstructured, error) {
	object, err := runtime.DefaultUnstructuredConverter.ToUnstructured(spec.ToDeployment())
	if err != nil {
		return nil, fmt.Errorf("failed to convert deployment to unstructured object: %w", err)
	}
	return &unstructured.Unstructured{Object: object}, nil
}

func (spec DeploymentSpec) ToYAML() ([]byte, error) {
	resource, err := spec.ToUnstructured()
	if err != nil {
		return nil, err
	}

	var buffer bytes.Buffer
	encoder := yaml.NewEncoder(&buffer)
	encoder.SetIndent(2)

	if err := encoder.Encode(resource.Object); err != nil {
		return nil, err
	}

	return buffer.Bytes(), nil
}

// SecretRefs returns every secret reference bound in the pod template,
// in container then declaration order.
func (spec DeploymentSpec) SecretRefs() []SecretRef {
	var refs []SecretRef
	for _, container := range spec.Template.Containers {
		for _, variable := range container.Env {
			if variable.SecretRef != nil {
				refs = append(refs, *variable.SecretRef)
			}
		}
	}
	return refs
}
