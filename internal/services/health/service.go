package health

import (
	"context"
	"time"
)

// Pinger is satisfied by *sql.DB.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// Report is the /healthz payload.
type Report struct {
	OK       bool   `json:"ok"`
	Database string `json:"database"`
	LLM      string `json:"llm"`
	Search   string `json:"search"`
}

// Service encapsulates health-related checks.
type Service struct {
	DB               Pinger
	LLMConfigured    bool
	SearchConfigured bool
	Timeout          time.Duration
}

// NewService constructs a new health service. db may be nil when runs are kept in memory.
func NewService(db Pinger, llmConfigured, searchConfigured bool) *Service {
	return &Service{
		DB:               db,
		LLMConfigured:    llmConfigured,
		SearchConfigured: searchConfigured,
		Timeout:          2 * time.Second,
	}
}

// Status reports dependency state. Only a failing database ping makes the service unhealthy.
func (s *Service) Status(ctx context.Context) Report {
	r := Report{
		OK:       true,
		Database: "memory",
		LLM:      configured(s.LLMConfigured),
		Search:   configured(s.SearchConfigured),
	}
	if s.DB == nil {
		return r
	}

	timeout := s.Timeout
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if err := s.DB.PingContext(ctx); err != nil {
		r.OK = false
		r.Database = "unreachable"
		return r
	}
	r.Database = "ok"
	return r
}

func configured(ok bool) string {
	if ok {
		return "configured"
	}
	return "missing"
}
