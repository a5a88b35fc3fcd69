package adapter

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/OpenCHAMI/mercator/pkg/record"
	"github.com/OpenCHAMI/mercator/pkg/vendors"
)

// DefaultJobPollInterval is the pause between job status polls.
const DefaultJobPollInterval = 5 * time.Second

var terminalJobStates = map[string]bool{
	"completed":           true,
	"completedwitherrors": true,
	"failed":              true,
	"cancelled":           true,
	"killed":              true,
	"exception":           true,
	"interrupted":         true,
}

// JobFinished reports whether a job state is final.
func JobFinished(state string) bool {
	return terminalJobStates[strings.ToLower(state)]
}

func (a *Adapter) Jobs(ctx context.Context) ([]*record.Record, error) {
	return list(ctx, "jobs", a.client.Jobs, a.norm.Jobs)
}

func (a *Adapter) JobStatus(ctx context.Context, id string) (*record.Record, error) {
	if id == "" {
		return nil, invalidArgument("job_status", "job_status: job id is empty")
	}
	raw, err := Call("job_status", func() (vendor.Raw, error) {
		return a.client.JobStatus(ctx, id)
	})
	if err != nil {
		return nil, err
	}
	return a.norm.Job(raw), nil
}

// WaitForJob polls a job every job poll interval until it reaches a final
// state. It fails with a TimeoutError when the job is still running after
// timeout.
func (a *Adapter) WaitForJob(ctx context.Context, id string, timeout time.Duration) (*record.Record, error) {
	interval := a.jobInterval
	attempts := 1
	if interval > 0 {
		attempts += int(timeout / interval)
	}
	var last *record.Record
	for i := 0; i < attempts; i++ {
		job, err := a.JobStatus(ctx, id)
		if err != nil {
			return nil, err
		}
		last = job
		state := job.String("state")
		a.logger.Debug().Str("job", id).Str("state", state).Msg("polled job")
		if JobFinished(state) {
			return job, nil
		}
		if i == attempts-1 {
			break
		}
		if err := a.sleep(ctx, interval); err != nil {
			break
		}
	}
	return last, &Error{
		Kind:    KindTimeout,
		Op:      "wait_for_job",
		Message: fmt.Sprintf("job %s did not finish within %s", id, timeout),
	}
}

func (a *Adapter) CancelJob(ctx context.Context, id string) (bool, error) {
	if id == "" {
		return false, invalidArgument("cancel_job", "cancel_job: job id is empty")
	}
	return Call("cancel_job", func() (bool, error) {
		return a.client.CancelJob(ctx, id)
	})
}
