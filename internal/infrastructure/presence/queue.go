package presence

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/oksasatya/langbridge/internal/application"
	"github.com/oksasatya/langbridge/pkg/helpers"
)

// Job is the queued form of a presence upsert.
type Job struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Image string `json:"image,omitempty"`
}

// QueueDirectory defers upserts to the worker through a job queue.
type QueueDirectory struct {
	Jobs application.JobPublisher
}

func NewQueueDirectory(jobs application.JobPublisher) *QueueDirectory {
	return &QueueDirectory{Jobs: jobs}
}

func (q *QueueDirectory) UpsertUser(ctx context.Context, u application.PresenceUser) error {
	return q.Jobs.PublishJSON(ctx, Job{ID: u.ID, Name: u.Name, Image: u.Image})
}

// Handler applies queued jobs to dir. Malformed jobs are dropped.
func Handler(dir application.PresenceDirectory) helpers.MessageHandler {
	return func(ctx context.Context, body []byte) error {
		var job Job
		if err := json.Unmarshal(body, &job); err != nil {
			return fmt.Errorf("%w: %v", helpers.ErrPoisonMessage, err)
		}
		if job.ID == "" {
			return fmt.Errorf("%w: missing user id", helpers.ErrPoisonMessage)
		}
		return dir.UpsertUser(ctx, application.PresenceUser{ID: job.ID, Name: job.Name, Image: job.Image})
	}
}

var _ application.PresenceDirectory = (*QueueDirectory)(nil)
