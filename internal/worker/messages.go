package worker

import "github.com/cwbudde/algo-stretch/internal/jobs"

// GenerateRequest asks for a personalized meditation.
type GenerateRequest struct {
	Worry string `json:"worry"`
}

// GenerateReply acknowledges a queued job.
type GenerateReply struct {
	JobID   string      `json:"job_id"`
	Status  jobs.Status `json:"status"`
	Message string      `json:"message"`
}

// StatusRequest asks for the state of a job.
type StatusRequest struct {
	JobID string `json:"job_id"`
}

// StatusReply reports the state of a job. Script and AudioKey are set once
// the job completed, Error once it failed.
type StatusReply struct {
	JobID    string      `json:"job_id"`
	Status   jobs.Status `json:"status"`
	Progress int         `json:"progress"`
	Script   string      `json:"meditation_script,omitempty"`
	AudioKey string      `json:"audio_key,omitempty"`
	Error    string      `json:"error,omitempty"`
}

// ErrorReply is sent for requests that cannot be served.
type ErrorReply struct {
	Error string `json:"error"`
}

const (
	msgNoWorry      = "No worry description provided"
	msgNotFound     = "Job not found"
	msgStarted      = "Meditation generation started"
	msgBadRequest   = "invalid request"
	msgUnknownFail  = "Unknown error"
	msgShuttingDown = "worker is shutting down"
)

func statusReply(j jobs.Job) StatusReply {
	r := StatusReply{JobID: j.ID, Status: j.Status, Progress: j.Progress}

	switch j.Status {
	case jobs.StatusCompleted:
		r.Script = j.Script
		r.AudioKey = j.AudioKey
	case jobs.StatusError:
		r.Error = j.Error
		if r.Error == "" {
			r.Error = msgUnknownFail
		}
	}

	return r
}
