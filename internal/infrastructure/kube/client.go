package kube

import (
	"context"
	"os"
	"path/filepath"
	"time"

	corev1 "k8s.io/api/core/v1"
	k8serrors "k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/kubernetes"
	"k8s.io/client-go/rest"
	"k8s.io/client-go/tools/clientcmd"
	"k8s.io/client-go/tools/remotecommand"

	"github.com/zerozero/labforge/internal/domain/entity"
	"github.com/zerozero/labforge/pkg/config"
	"github.com/zerozero/labforge/pkg/errors"
	"github.com/zerozero/labforge/pkg/logger"
)

// Pod phase names reported to callers. Succeeded and Failed both map to
// Stopped because a lab pod that ran to completion is no longer usable
// either way.
const (
	PhaseCreating = "Creating"
	PhaseRunning  = "Running"
	PhaseStopped  = "Stopped"
	PhaseUnknown  = "Unknown"
)

// Orchestrator is the contract the lifecycle layer uses to manage lab
// workloads. Implemented by Client against a real cluster and by fakes
// in tests.
type Orchestrator interface {
	// CreateLabPod provisions the pod backing an ad-hoc lab
	CreateLabPod(ctx context.Context, lab *entity.Lab) error

	// CreateTemplatePod provisions the pod backing a templated lab
	CreateTemplatePod(ctx context.Context, lab *entity.Lab, template *entity.LabTemplate) error

	// DeletePod removes a lab pod; deleting an absent pod is not an error
	DeletePod(ctx context.Context, podName string) error

	// GetPodPhase reports the mapped lifecycle phase of a lab pod
	GetPodPhase(ctx context.Context, podName string) (string, error)

	// Exec runs a shell command inside a lab pod with a hard timeout
	Exec(ctx context.Context, podName, command string, timeout time.Duration) (*ExecResult, error)
}

// Client talks to the cluster through client-go
type Client struct {
	clientset  kubernetes.Interface
	restClient rest.Interface
	restConfig *rest.Config
	namespace  string
	container  string
	log        logger.Logger

	// newExecutor is swapped out in tests to avoid dialing a real API server
	newExecutor executorFactory
}

var _ Orchestrator = (*Client)(nil)

// NewClient builds a cluster client, preferring in-cluster credentials and
// falling back to a kubeconfig file.
func NewClient(cfg *config.Config, log logger.Logger) (*Client, error) {
	restConfig, err := rest.InClusterConfig()
	if err != nil {
		kubeconfig := cfg.Kubernetes.Kubeconfig
		if kubeconfig == "" {
			if home, homeErr := os.UserHomeDir(); homeErr == nil {
				kubeconfig = filepath.Join(home, ".kube", "config")
			}
		}

		restConfig, err = clientcmd.BuildConfigFromFlags("", kubeconfig)
		if err != nil {
			return nil, errors.NewInternal("Failed to load cluster configuration").WithError(err)
		}
		log.Info("Using kubeconfig credentials", logger.String("path", kubeconfig))
	} else {
		log.Info("Using in-cluster credentials")
	}

	clientset, err := kubernetes.NewForConfig(restConfig)
	if err != nil {
		return nil, errors.NewInternal("Failed to create cluster client").WithError(err)
	}

	return &Client{
		clientset:   clientset,
		restClient:  clientset.CoreV1().RESTClient(),
		restConfig:  restConfig,
		namespace:   cfg.Kubernetes.Namespace,
		container:   cfg.Kubernetes.Container,
		log:         log,
		newExecutor: remotecommand.NewSPDYExecutor,
	}, nil
}

// DeletePod implements Orchestrator. A missing pod is treated as already
// deleted so teardown stays idempotent.
func (c *Client) DeletePod(ctx context.Context, podName string) error {
	err := c.clientset.CoreV1().Pods(c.namespace).Delete(ctx, podName, metav1.DeleteOptions{})
	if err != nil {
		if k8serrors.IsNotFound(err) {
			c.log.Debug("Pod already gone", logger.String("pod", podName))
			return nil
		}
		return errors.NewTermination("Failed to delete pod").
			WithMetadata("pod", podName).
			WithError(err)
	}

	c.log.Info("Pod deleted", logger.String("pod", podName))
	return nil
}

// GetPodPhase implements Orchestrator
func (c *Client) GetPodPhase(ctx context.Context, podName string) (string, error) {
	pod, err := c.clientset.CoreV1().Pods(c.namespace).Get(ctx, podName, metav1.GetOptions{})
	if err != nil {
		if k8serrors.IsNotFound(err) {
			return "", errors.NewNotFound("Pod")
		}
		return "", errors.NewProvision("Failed to get pod status").
			WithMetadata("pod", podName).
			WithError(err)
	}

	switch pod.Status.Phase {
	case corev1.PodPending:
		return PhaseCreating, nil
	case corev1.PodRunning:
		return PhaseRunning, nil
	case corev1.PodSucceeded, corev1.PodFailed:
		return PhaseStopped, nil
	default:
		return PhaseUnknown, nil
	}
}
