package job

import (
	"context"
	"encoding/json"
	"time"
)

// JobType represents the kind of job
type JobType string

const (
	JobPrepare  JobType = "prepare"
	JobFormat   JobType = "format"
	JobMetadata JobType = "metadata"
)

// JobStatus represents the current state of a job
type JobStatus string

const (
	StatusPending   JobStatus = "pending"
	StatusRunning   JobStatus = "running"
	StatusCompleted JobStatus = "completed"
	StatusFailed    JobStatus = "failed"
	StatusCancelled JobStatus = "cancelled"
)

// Job represents a queued pipeline stage for one video
type Job struct {
	ID          string          `json:"id"`
	Type        JobType         `json:"type"`
	Status      JobStatus       `json:"status"`
	VideoID     string          `json:"video_id"`
	Params      json.RawMessage `json:"params"`
	Progress    float64         `json:"progress"`
	Result      json.RawMessage `json:"result,omitempty"`
	Error       string          `json:"error,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
	StartedAt   *time.Time      `json:"started_at,omitempty"`
	CompletedAt *time.Time      `json:"completed_at,omitempty"`
}

// PrepareParams are parameters for a caption fetch job
type PrepareParams struct {
	URL string `json:"url"` // watch URL or bare video ID as submitted
}

// FormatParams are parameters for a punctuation repair job
type FormatParams struct {
	Model string `json:"model"` // catalog model name, e.g. "GPT-4"
}

// MetadataParams are parameters for a title/description job
type MetadataParams struct {
	Model string `json:"model"`
}

// PrepareResult is the output of a successful caption fetch
type PrepareResult struct {
	VideoID    string  `json:"video_id"`
	Title      string  `json:"title,omitempty"`
	Transcript int     `json:"transcript_chars"`
	Duration   float64 `json:"duration"` // processing time in seconds
}

// FormatResult is the output of a successful punctuation repair
type FormatResult struct {
	VideoID   string  `json:"video_id"`
	Model     string  `json:"model"`
	Formatted int     `json:"formatted_chars"`
	Duration  float64 `json:"duration"`
}

// MetadataResult is the output of a successful title/description generation
type MetadataResult struct {
	VideoID  string  `json:"video_id"`
	Model    string  `json:"model"`
	Duration float64 `json:"duration"`
}

// JobHandler processes a job. Implementations are provided by the script
// service. Handlers may set job.Result before returning; the queue persists
// it on completion.
type JobHandler func(ctx context.Context, job *Job, updateProgress func(float64)) error
