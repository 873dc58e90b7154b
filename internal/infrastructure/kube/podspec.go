package kube

import (
	"context"
	"sort"
	"strings"

	corev1 "k8s.io/api/core/v1"
	k8serrors "k8s.io/apimachinery/pkg/api/errors"
	"k8s.io/apimachinery/pkg/api/resource"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"

	"github.com/zerozero/labforge/internal/domain/entity"
	"github.com/zerozero/labforge/pkg/errors"
	"github.com/zerozero/labforge/pkg/logger"
)

// labImages maps each supported ad-hoc lab type to its container image
var labImages = map[string]string{
	"docker":     "ubuntu:20.04",
	"python":     "python:3.9-slim",
	"nodejs":     "node:16-alpine",
	"kubernetes": "bitnami/kubectl:latest",
}

// labCommands bootstrap each ad-hoc lab type and then keep the container
// alive until the pod's active deadline or an explicit delete tears it down
var labCommands = map[string][]string{
	"docker":     {"/bin/bash", "-c", "apt-get update && apt-get install -y docker.io && sleep 7200"},
	"python":     {"/bin/sh", "-c", "pip install jupyter && sleep 7200"},
	"nodejs":     {"/bin/sh", "-c", "npm install -g nodemon && sleep 7200"},
	"kubernetes": {"/bin/sh", "-c", "sleep 7200"},
}

// keepAliveCommand is used for templated labs, whose setup runs through
// the pipeline rather than the container entrypoint
var keepAliveCommand = []string{"/bin/sh", "-c", "sleep infinity"}

// SupportedTypes returns the ad-hoc lab types in stable order
func SupportedTypes() []string {
	types := make([]string, 0, len(labImages))
	for t := range labImages {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}

// ImageFor resolves the container image for an ad-hoc lab type
func ImageFor(labType string) (string, bool) {
	image, ok := labImages[labType]
	return image, ok
}

// CreateLabPod implements Orchestrator. The pod carries the lab's identity
// in labels and env vars, never restarts, and is bounded by an active
// deadline matching the lab duration.
func (c *Client) CreateLabPod(ctx context.Context, lab *entity.Lab) error {
	image, ok := ImageFor(lab.LabType)
	if !ok {
		return errors.NewUnsupportedType(lab.LabType)
	}

	pod := c.basePod(lab, image, labCommands[lab.LabType], nil)

	// Docker labs exercise the host daemon directly; everything else gets
	// a scratch workspace volume.
	if lab.LabType == "docker" {
		hostPathType := corev1.HostPathSocket
		pod.Spec.Volumes = []corev1.Volume{
			{
				Name: "docker-sock",
				VolumeSource: corev1.VolumeSource{
					HostPath: &corev1.HostPathVolumeSource{
						Path: "/var/run/docker.sock",
						Type: &hostPathType,
					},
				},
			},
		}
		pod.Spec.Containers[0].VolumeMounts = []corev1.VolumeMount{
			{Name: "docker-sock", MountPath: "/var/run/docker.sock"},
		}
	} else {
		pod.Spec.Volumes = []corev1.Volume{
			{
				Name: "workspace",
				VolumeSource: corev1.VolumeSource{
					EmptyDir: &corev1.EmptyDirVolumeSource{},
				},
			},
		}
		pod.Spec.Containers[0].VolumeMounts = []corev1.VolumeMount{
			{Name: "workspace", MountPath: "/workspace"},
		}
	}

	return c.createPod(ctx, lab, pod)
}

// CreateTemplatePod implements Orchestrator. Templated labs run the
// template's base image under resource limits; docker-in-docker images
// additionally need a privileged security context.
func (c *Client) CreateTemplatePod(ctx context.Context, lab *entity.Lab, template *entity.LabTemplate) error {
	resources := &corev1.ResourceRequirements{
		Requests: corev1.ResourceList{
			corev1.ResourceCPU:    resource.MustParse("100m"),
			corev1.ResourceMemory: resource.MustParse("128Mi"),
		},
		Limits: corev1.ResourceList{
			corev1.ResourceCPU:    resource.MustParse("500m"),
			corev1.ResourceMemory: resource.MustParse("512Mi"),
		},
	}

	pod := c.basePod(lab, template.BaseImage, keepAliveCommand, resources)
	pod.ObjectMeta.Labels["template-id"] = template.ID
	pod.Spec.Containers[0].Env = append(pod.Spec.Containers[0].Env,
		corev1.EnvVar{Name: "TEMPLATE_ID", Value: template.ID})

	// Setup steps work under /workspace
	pod.Spec.Volumes = []corev1.Volume{
		{
			Name: "workspace",
			VolumeSource: corev1.VolumeSource{
				EmptyDir: &corev1.EmptyDirVolumeSource{},
			},
		},
	}
	pod.Spec.Containers[0].VolumeMounts = []corev1.VolumeMount{
		{Name: "workspace", MountPath: "/workspace"},
	}

	if strings.Contains(template.BaseImage, "dind") {
		privileged := true
		pod.Spec.Containers[0].SecurityContext = &corev1.SecurityContext{
			Privileged: &privileged,
		}
	}

	return c.createPod(ctx, lab, pod)
}

// basePod builds the pod shape shared by ad-hoc and templated labs
func (c *Client) basePod(lab *entity.Lab, image string, command []string, resources *corev1.ResourceRequirements) *corev1.Pod {
	activeDeadline := int64(lab.DurationSeconds)

	container := corev1.Container{
		Name:    c.container,
		Image:   image,
		Command: command,
		Env: []corev1.EnvVar{
			{Name: "LAB_ID", Value: lab.ID},
			{Name: "LAB_TYPE", Value: lab.LabType},
			{Name: "OWNER_ID", Value: lab.OwnerID},
		},
	}
	if resources != nil {
		container.Resources = *resources
	}

	return &corev1.Pod{
		ObjectMeta: metav1.ObjectMeta{
			Name:      lab.PodName,
			Namespace: c.namespace,
			Labels: map[string]string{
				"app":      "lab",
				"lab-id":   lab.ID,
				"owner-id": lab.OwnerID,
				"lab-type": lab.LabType,
			},
		},
		Spec: corev1.PodSpec{
			RestartPolicy:         corev1.RestartPolicyNever,
			ActiveDeadlineSeconds: &activeDeadline,
			Containers:            []corev1.Container{container},
		},
	}
}

func (c *Client) createPod(ctx context.Context, lab *entity.Lab, pod *corev1.Pod) error {
	_, err := c.clientset.CoreV1().Pods(c.namespace).Create(ctx, pod, metav1.CreateOptions{})
	if err != nil {
		if k8serrors.IsAlreadyExists(err) {
			return errors.NewConflict("Pod already exists").WithMetadata("pod", pod.Name)
		}
		return errors.NewProvision("Failed to create pod").
			WithMetadata("pod", pod.Name).
			WithError(err)
	}

	c.log.Info("Pod created",
		logger.String("pod", pod.Name),
		logger.String("lab_id", lab.ID),
		logger.String("image", pod.Spec.Containers[0].Image),
	)
	return nil
}
