package runs

import (
	"time"

	"resume-coach/internal/coach"
)

// RunResponse is the outward-facing representation of a run.
type RunResponse struct {
	RunID          string     `json:"runId"`
	DocumentID     string     `json:"documentId,omitempty"`
	FileName       string     `json:"fileName"`
	Location       string     `json:"location"`
	Status         string     `json:"status"`
	Feedback       string     `json:"feedback"`
	ImprovedResume string     `json:"improvedResume"`
	JobRoles       string     `json:"jobRoles"`
	Error          string     `json:"error,omitempty"`
	CreatedAt      time.Time  `json:"createdAt"`
	CompletedAt    *time.Time `json:"completedAt,omitempty"`
}

// RunSummary is the list view of a run.
type RunSummary struct {
	RunID       string     `json:"runId"`
	FileName    string     `json:"fileName"`
	Location    string     `json:"location"`
	Status      string     `json:"status"`
	CreatedAt   time.Time  `json:"createdAt"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`
}

// ToResponse converts a Run, applying the section headings to its texts.
func ToResponse(run Run) RunResponse {
	feedback, improved, jobs := run.Result().Formatted()
	return RunResponse{
		RunID:          run.ID,
		DocumentID:     run.DocumentID,
		FileName:       run.FileName,
		Location:       run.Location,
		Status:         run.Status,
		Feedback:       feedback,
		ImprovedResume: improved,
		JobRoles:       jobs,
		Error:          run.ErrorMessage,
		CreatedAt:      run.CreatedAt,
		CompletedAt:    run.CompletedAt,
	}
}

func toSummary(run Run) RunSummary {
	return RunSummary{
		RunID:       run.ID,
		FileName:    run.FileName,
		Location:    run.Location,
		Status:      run.Status,
		CreatedAt:   run.CreatedAt,
		CompletedAt: run.CompletedAt,
	}
}

// Result returns the run's texts as a coach.Result.
func (r Run) Result() coach.Result {
	return coach.Result{
		Feedback:       r.Feedback,
		ImprovedResume: r.ImprovedResume,
		JobRoles:       r.JobRoles,
	}
}
