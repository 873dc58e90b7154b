package kube

import (
	"bytes"
	"context"
	stderrors "errors"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"time"

	corev1 "k8s.io/api/core/v1"
	"k8s.io/client-go/kubernetes/scheme"
	"k8s.io/client-go/rest"
	"k8s.io/client-go/tools/remotecommand"
	utilexec "k8s.io/client-go/util/exec"

	"github.com/zerozero/labforge/pkg/errors"
	"github.com/zerozero/labforge/pkg/logger"
	"github.com/zerozero/labforge/pkg/metrics"
)

// streamGracePeriod is how long a cancelled exec stream gets to unwind
// before we stop waiting for its goroutine.
const streamGracePeriod = 2 * time.Second

// executorFactory matches remotecommand.NewSPDYExecutor
type executorFactory func(config *rest.Config, method string, u *url.URL) (remotecommand.Executor, error)

// ExecResult is the outcome of one remote command execution. Success is
// true only for a clean zero exit; timeouts and transport failures report
// exit code -1.
type ExecResult struct {
	Output   string `json:"output"`
	Error    string `json:"error"`
	ExitCode int    `json:"exit_code"`
	Success  bool   `json:"success"`
}

// lockedBuffer serializes writes from the stdout and stderr stream
// goroutines, which the executor may run concurrently.
type lockedBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *lockedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *lockedBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

// Exec implements Orchestrator. A pod that is not running refuses the
// command with exit code -1. The command runs under /bin/sh -c inside
// the lab container; stdout and stderr are drained concurrently while the
// stream runs. When the timeout fires the stream context is cancelled,
// the goroutine gets a short grace period to unwind, and the result
// reports exit code -1 with a timeout message appended to stderr.
func (c *Client) Exec(ctx context.Context, podName, command string, timeout time.Duration) (*ExecResult, error) {
	phase, err := c.GetPodPhase(ctx, podName)
	if err != nil {
		metrics.ExecCommands.WithLabelValues("error").Inc()
		return nil, err
	}
	if phase != PhaseRunning {
		metrics.ExecCommands.WithLabelValues("rejected").Inc()
		return &ExecResult{
			Error:    fmt.Sprintf("Pod is not running (phase %s)", phase),
			ExitCode: -1,
		}, nil
	}

	req := c.restClient.Post().
		Resource("pods").
		Name(podName).
		Namespace(c.namespace).
		SubResource("exec").
		VersionedParams(&corev1.PodExecOptions{
			Container: c.container,
			Command:   []string{"/bin/sh", "-c", command},
			Stdout:    true,
			Stderr:    true,
		}, scheme.ParameterCodec)

	executor, err := c.newExecutor(c.restConfig, http.MethodPost, req.URL())
	if err != nil {
		metrics.ExecCommands.WithLabelValues("error").Inc()
		return nil, errors.NewExec("Failed to create remote executor").
			WithMetadata("pod", podName).
			WithError(err)
	}

	execCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	var stdout, stderr lockedBuffer
	done := make(chan error, 1)
	start := time.Now()

	go func() {
		done <- executor.StreamWithContext(execCtx, remotecommand.StreamOptions{
			Stdout: &stdout,
			Stderr: &stderr,
		})
	}()

	var streamErr error
	timedOut := false
	select {
	case streamErr = <-done:
	case <-time.After(timeout):
		timedOut = true
		cancel()
		select {
		case <-done:
		case <-time.After(streamGracePeriod):
			c.log.Warn("Exec stream did not unwind within grace period",
				logger.String("pod", podName))
		}
	}
	elapsed := time.Since(start)

	result := &ExecResult{
		Output: stdout.String(),
		Error:  stderr.String(),
	}

	switch {
	case timedOut:
		result.ExitCode = -1
		appendError(result, fmt.Sprintf("Command timed out after %ds", int(timeout.Seconds())))
	case streamErr == nil:
		result.ExitCode = 0
	default:
		var exitErr utilexec.ExitError
		if stderrors.As(streamErr, &exitErr) {
			result.ExitCode = exitErr.ExitStatus()
		} else {
			result.ExitCode = -1
			appendError(result, streamErr.Error())
		}
	}
	result.Success = result.ExitCode == 0

	outcome := "failure"
	if result.Success {
		outcome = "success"
	} else if timedOut {
		outcome = "timeout"
	}
	metrics.ExecCommands.WithLabelValues(outcome).Inc()
	metrics.ExecDuration.Observe(elapsed.Seconds())

	c.log.Debug("Command executed",
		logger.String("pod", podName),
		logger.Int("exit_code", result.ExitCode),
		logger.Duration("elapsed", elapsed),
	)
	return result, nil
}

func appendError(result *ExecResult, msg string) {
	if result.Error != "" {
		result.Error += "\n"
	}
	result.Error += msg
}
