package model

import (
	"encoding/json"
	"fmt"
	"time"
)

// TaskStatus is the lifecycle state of a task row.
type TaskStatus string

const (
	TaskPending    TaskStatus = "pending"
	TaskInProgress TaskStatus = "in_progress"
	TaskCompleted  TaskStatus = "completed"
	TaskFailed     TaskStatus = "failed"
	TaskSkipped    TaskStatus = "skipped"
)

// Terminal reports whether the status can only change via an explicit requeue.
func (s TaskStatus) Terminal() bool {
	return s == TaskCompleted || s == TaskSkipped
}

// TaskType names a stage of the enrichment/provisioning workflow.
type TaskType string

const (
	// Enrichment stages.
	TaskISWCLookup      TaskType = "iswc_lookup"
	TaskRecordingEnrich TaskType = "recording_enrich"
	TaskArtistEnrich    TaskType = "artist_enrich"

	// Provisioning stages, gated by the dependency chain.
	TaskIdentityMint       TaskType = "identity_mint"
	TaskSocialAccount      TaskType = "social_account"
	TaskMonetizationDeploy TaskType = "monetization_deploy"
)

// EntityCategory is the kind of entity a task type operates on.
type EntityCategory string

const (
	CategoryTrack  EntityCategory = "track"
	CategoryArtist EntityCategory = "artist"
)

// Category returns which entity kind a task type applies to.
func (t TaskType) Category() EntityCategory {
	switch t {
	case TaskISWCLookup, TaskRecordingEnrich:
		return CategoryTrack
	default:
		return CategoryArtist
	}
}

// Provisioning reports whether the task type is dependency-gated (scheduled
// via prerequisite completion) rather than fresh/retry enrichment work.
func (t TaskType) Provisioning() bool {
	switch t {
	case TaskIdentityMint, TaskSocialAccount, TaskMonetizationDeploy:
		return true
	default:
		return false
	}
}

// Prerequisites maps a task type to the task type that must be completed
// first for the same entity. Absent key means no prerequisite. The chain is
// deliberately linear; a task type with more than one prerequisite would
// call for a proper topological sort instead of this map.
var Prerequisites = map[TaskType]TaskType{
	TaskSocialAccount:      TaskIdentityMint,
	TaskMonetizationDeploy: TaskSocialAccount,
}

// DefaultMaxRetries bounds automatic reselection of failed tasks.
const DefaultMaxRetries = 3

// AllTaskTypes lists every stage in workflow order.
var AllTaskTypes = []TaskType{
	TaskISWCLookup,
	TaskRecordingEnrich,
	TaskArtistEnrich,
	TaskIdentityMint,
	TaskSocialAccount,
	TaskMonetizationDeploy,
}

// ParseTaskType validates a task type arriving from the CLI or an HTTP query.
func ParseTaskType(s string) (TaskType, error) {
	for _, t := range AllTaskTypes {
		if string(t) == s {
			return t, nil
		}
	}
	return "", fmt.Errorf("unknown task type %q", s)
}

// Task is one row of per-entity, per-stage progress.
type Task struct {
	ID           string          `json:"id"`
	EntityID     string          `json:"entity_id"`
	Type         TaskType        `json:"task_type"`
	Status       TaskStatus      `json:"status"`
	RetryCount   int             `json:"retry_count"`
	MaxRetries   int             `json:"max_retries"`
	ResultData   json.RawMessage `json:"result_data,omitempty"`
	ErrorMessage string          `json:"error_message,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
	CompletedAt  *time.Time      `json:"completed_at,omitempty"`
}

// Retryable reports whether a failed task may still be reselected.
func (t *Task) Retryable() bool {
	return t.Status == TaskFailed && t.RetryCount < t.MaxRetries
}

// StatusCount is one bucket of a per-type status breakdown.
type StatusCount struct {
	Status TaskStatus `json:"status"`
	Count  int        `json:"count"`
}
