package coach

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"resume-coach/internal/llm"
	"resume-coach/internal/search"
	"resume-coach/internal/shared/telemetry"
)

// Input is one submission's extracted text and location.
type Input struct {
	ResumeText string
	Location   string
}

// Result holds the three generated texts. A failed step carries its error text in place of output.
type Result struct {
	Feedback       string
	ImprovedResume string
	JobRoles       string
	Err            error
}

// Formatted returns the three texts with their Markdown headings applied.
func (r Result) Formatted() (feedback, improved, jobs string) {
	return FeedbackTask.WithHeading(r.Feedback),
		RewriteTask.WithHeading(r.ImprovedResume),
		JobSearchTask.WithHeading(r.JobRoles)
}

// StepReport is passed to Pipeline.OnStep after every generation call.
type StepReport struct {
	Task     string
	Duration time.Duration
	Err      error
}

// Pipeline runs the feedback, rewrite and job search prompts one after another.
type Pipeline struct {
	gen      llm.Generator
	searcher search.Searcher
	OnStep   func(StepReport)
	OnSearch func(err error)
}

// NewPipeline builds a Pipeline. searcher may be nil.
func NewPipeline(gen llm.Generator, searcher search.Searcher) *Pipeline {
	return &Pipeline{gen: gen, searcher: searcher}
}

// Run issues the three generation calls in order and never returns early.
func (p *Pipeline) Run(ctx context.Context, in Input) Result {
	var (
		res  Result
		errs []error
	)

	res.Feedback = p.step(ctx, FeedbackTask, FeedbackPrompt(in.ResumeText), &errs)
	res.ImprovedResume = p.step(ctx, RewriteTask, RewritePrompt(in.ResumeText), &errs)
	res.JobRoles = p.step(ctx, JobSearchTask, p.jobSearchPrompt(ctx, in.Location), &errs)

	res.Err = errors.Join(errs...)
	return res
}

func (p *Pipeline) step(ctx context.Context, task Task, prompt string, errs *[]error) string {
	start := time.Now()
	text, err := llm.TextOrError(ctx, p.gen, prompt)
	elapsed := time.Since(start)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("%s: %w", task.Name, err))
		telemetry.Error("coach.step.failed", map[string]any{
			"task":        task.Name,
			"duration_ms": elapsed.Milliseconds(),
			"err":         err.Error(),
		})
	}
	if p.OnStep != nil {
		p.OnStep(StepReport{Task: task.Name, Duration: elapsed, Err: err})
	}
	return text
}

// jobSearchPrompt appends live search results when a searcher is configured.
func (p *Pipeline) jobSearchPrompt(ctx context.Context, location string) string {
	prompt := JobSearchPrompt(location)
	if p.searcher == nil || strings.TrimSpace(location) == "" {
		return prompt
	}

	results, err := p.searcher.Search(ctx, SearchQuery(location))
	if p.OnSearch != nil {
		p.OnSearch(err)
	}
	if err != nil {
		telemetry.Warn("coach.search.failed", map[string]any{
			"location": location,
			"err":      err.Error(),
		})
		return prompt
	}
	listing := search.FormatResults(results)
	if listing == "" {
		return prompt
	}
	return prompt + "\n\nRecent search results for reference:\n" + listing
}

// SearchQuery is the web query issued for a location.
func SearchQuery(location string) string {
	return strings.TrimSpace(location) + " latest job openings"
}
