package workflow

import (
	"context"
	"fmt"

	temporalsdkclient "go.temporal.io/sdk/client"
)

// Starter is the HTTP façade's only dependency on the Temporal client: it
// starts one workflow execution per submitted job, keyed by job id so a
// duplicate submit with the same id is rejected by Temporal itself rather
// than needing its own idempotency check here.
type Starter struct {
	tc        temporalsdkclient.Client
	taskQueue string
}

func NewStarter(tc temporalsdkclient.Client, taskQueue string) *Starter {
	return &Starter{tc: tc, taskQueue: taskQueue}
}

// Start launches the plan workflow asynchronously; it does not wait for
// completion, since the poll façade (C8) reads progress from the job_run
// row rather than from the workflow's own result future.
func (s *Starter) Start(ctx context.Context, jobID string, in PlanInput) error {
	if s == nil || s.tc == nil {
		return fmt.Errorf("temporal client is not configured")
	}
	opts := temporalsdkclient.StartWorkflowOptions{
		ID:        jobID,
		TaskQueue: s.taskQueue,
	}
	_, err := s.tc.ExecuteWorkflow(ctx, opts, WorkflowName, in)
	return err
}
