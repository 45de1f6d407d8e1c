// Package queue implements the Redis-backed task queue between the PHP
// caller and the ML workers. Tasks are pushed onto a list and their state
// and results live under per-task keys with a fixed TTL, so multiple
// workers can run side by side with BRPOP as the only coordination.
package queue

import (
	"time"

	"github.com/google/uuid"
)

// Status is the lifecycle state of a task.
type Status string

const (
	StatusQueued     Status = "queued"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

// Task is the queue record. Timestamps are Unix seconds; StartedAt,
// CompletedAt, and Error are filled in as the task progresses.
type Task struct {
	ID          string                 `json:"id"`
	Type        string                 `json:"type"`
	Data        map[string]interface{} `json:"data"`
	Status      Status                 `json:"status"`
	CreatedAt   int64                  `json:"created_at"`
	StartedAt   int64                  `json:"started_at,omitempty"`
	CompletedAt int64                  `json:"completed_at,omitempty"`
	Error       string                 `json:"error,omitempty"`
}

// NewTask creates a queued task with a fresh UUID.
func NewTask(taskType string, data map[string]interface{}) *Task {
	return &Task{
		ID:        uuid.NewString(),
		Type:      taskType,
		Data:      data,
		Status:    StatusQueued,
		CreatedAt: time.Now().Unix(),
	}
}

// StringField returns a string value from the task payload, empty when the
// field is missing or not a string.
func (t *Task) StringField(key string) string {
	v, ok := t.Data[key]
	if !ok {
		return ""
	}
	s, _ := v.(string)
	return s
}
