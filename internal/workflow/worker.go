package workflow

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.temporal.io/api/serviceerror"
	temporalsdkactivity "go.temporal.io/sdk/activity"
	temporalsdkclient "go.temporal.io/sdk/client"
	"go.temporal.io/sdk/worker"
	temporalsdkworkflow "go.temporal.io/sdk/workflow"

	"github.com/takahashiJe/navpack-orchestrator/internal/pkg/logger"
	"github.com/takahashiJe/navpack-orchestrator/internal/platform/config"
	"github.com/takahashiJe/navpack-orchestrator/internal/temporalx"
)

// Runner starts and supervises the Temporal worker hosting the plan
// workflow and its activities, following the teacher's dial-with-retry
// worker-start loop since Temporal may not be reachable yet at boot in a
// freshly-started compose/k8s stack.
type Runner struct {
	log  *logger.Logger
	tc   temporalsdkclient.Client
	acts *Activities
	cfg  *config.Config
}

func NewRunner(log *logger.Logger, tc temporalsdkclient.Client, acts *Activities, cfg *config.Config) (*Runner, error) {
	if tc == nil {
		return nil, fmt.Errorf("temporal client is not configured")
	}
	if acts == nil {
		return nil, fmt.Errorf("temporal worker missing activities")
	}
	return &Runner{log: log, tc: tc, acts: acts, cfg: cfg}, nil
}

func (r *Runner) Start(ctx context.Context) error {
	if r == nil || r.tc == nil {
		return fmt.Errorf("temporal worker not initialized")
	}

	tcfg := temporalx.LoadConfig()
	r.log.Info("starting Temporal worker", "address", tcfg.Address, "namespace", tcfg.Namespace, "task_queue", tcfg.TaskQueue)

	maxWait := 60 * time.Second
	backoff := 250 * time.Millisecond
	backoffMax := 5 * time.Second
	deadline := time.Now().Add(maxWait)

	for attempt := 1; ; attempt++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		w := r.newWorker(tcfg)
		startErr := w.Start()
		if startErr == nil {
			go func() {
				<-ctx.Done()
				w.Stop()
			}()
			r.log.Info("Temporal worker started", "namespace", tcfg.Namespace, "task_queue", tcfg.TaskQueue, "attempts", attempt)
			return nil
		}
		w.Stop()

		var nfe *serviceerror.NamespaceNotFound
		if errors.As(startErr, &nfe) {
			if err := temporalx.EnsureNamespace(ctx, r.tc, tcfg.Namespace, r.log); err != nil {
				r.log.Warn("namespace ensure failed during worker start retry", "error", err.Error())
			}
		}

		if time.Now().After(deadline) {
			return fmt.Errorf("temporal worker start failed (namespace=%s): %w", tcfg.Namespace, startErr)
		}
		r.log.Warn("Temporal worker failed to start; retrying", "attempt", attempt, "error", startErr.Error())
		time.Sleep(backoffStep(backoff, backoffMax, attempt))
	}
}

func (r *Runner) newWorker(tcfg temporalx.Config) worker.Worker {
	concurrency := r.cfg.WorkerConcurrency
	if concurrency < 1 {
		concurrency = 4
	}
	w := worker.New(r.tc, tcfg.TaskQueue, worker.Options{
		MaxConcurrentActivityExecutionSize:     concurrency,
		MaxConcurrentWorkflowTaskExecutionSize: concurrency,
	})

	w.RegisterWorkflowWithOptions(Workflow, temporalsdkworkflow.RegisterOptions{Name: WorkflowName})
	w.RegisterActivityWithOptions(r.acts.ResolveWaypoints, temporalsdkactivity.RegisterOptions{Name: ActivityResolveWaypoints})
	w.RegisterActivityWithOptions(r.acts.BuildRoute, temporalsdkactivity.RegisterOptions{Name: ActivityBuildRoute})
	w.RegisterActivityWithOptions(r.acts.FindCorridorPOIs, temporalsdkactivity.RegisterOptions{Name: ActivityFindCorridorPOIs})
	w.RegisterActivityWithOptions(r.acts.PlanNarration, temporalsdkactivity.RegisterOptions{Name: ActivityPlanNarration})
	w.RegisterActivityWithOptions(r.acts.DispatchAudio, temporalsdkactivity.RegisterOptions{Name: ActivityDispatchAudio})
	w.RegisterActivityWithOptions(r.acts.AssembleManifest, temporalsdkactivity.RegisterOptions{Name: ActivityAssembleManifest})
	w.RegisterActivityWithOptions(r.acts.UpdateJobStage, temporalsdkactivity.RegisterOptions{Name: ActivityUpdateJobStage})
	w.RegisterActivityWithOptions(r.acts.MarkJobSucceeded, temporalsdkactivity.RegisterOptions{Name: ActivityMarkJobSucceeded})
	w.RegisterActivityWithOptions(r.acts.MarkJobFailed, temporalsdkactivity.RegisterOptions{Name: ActivityMarkJobFailed})
	return w
}

func backoffStep(base, max time.Duration, attempt int) time.Duration {
	sleep := base
	for i := 1; i < attempt; i++ {
		sleep *= 2
		if sleep >= max {
			return max
		}
	}
	if sleep > max {
		return max
	}
	return sleep
}
