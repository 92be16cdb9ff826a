package runs

import "time"

const (
	StatusProcessing = "processing"
	StatusCompleted  = "completed"
	StatusFailed     = "failed"
)

// Run is one résumé submission and its three generated texts.
type Run struct {
	ID             string
	DocumentID     string
	FileName       string
	Location       string
	Status         string
	Feedback       string
	ImprovedResume string
	JobRoles       string
	ErrorMessage   string
	CreatedAt      time.Time
	CompletedAt    *time.Time
}

// Finished reports whether the run reached a terminal status.
func (r Run) Finished() bool {
	return r.Status == StatusCompleted || r.Status == StatusFailed
}
