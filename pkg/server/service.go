package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mikeboe/deep-research/pkg/research"
)

var (
	ErrQueryRequired = errors.New("query is required")
	ErrJobNotFound   = errors.New("job not found")
)

// Researcher is the research surface driven by the HTTP and MCP front-ends.
type Researcher interface {
	Research(ctx context.Context, query string, breadth, depth int, onProgress func(research.Progress)) research.Result
	WriteReport(ctx context.Context, prompt string, findings, sources []string) string
	WriteAnswer(ctx context.Context, prompt string, findings []string) string
	Feedback(ctx context.Context, query string, numQuestions int) []string
}

// Job statuses.
const (
	StatusPending   = "pending"
	StatusRunning   = "running"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

// Output modes.
const (
	ModeReport = "report"
	ModeAnswer = "answer"
)

const (
	DefaultBreadth = 3
	DefaultDepth   = 3
	maxListedJobs  = 50
)

type Job struct {
	ID          uuid.UUID         `json:"id"`
	Query       string            `json:"query"`
	Breadth     int               `json:"breadth"`
	Depth       int               `json:"depth"`
	Mode        string            `json:"mode"`
	Status      string            `json:"status"`
	Progress    research.Progress `json:"progress"`
	Learnings   []string          `json:"learnings,omitempty"`
	VisitedURLs []string          `json:"visited_urls,omitempty"`
	Output      *string           `json:"output,omitempty"`
	Error       string            `json:"error,omitempty"`
	CreatedAt   time.Time         `json:"created_at"`
	UpdatedAt   time.Time         `json:"updated_at"`
}

type LogEntry struct {
	ID        int             `json:"id"`
	Timestamp time.Time       `json:"timestamp"`
	Level     string          `json:"level"`
	Message   string          `json:"message"`
	Metadata  json.RawMessage `json:"metadata"`
}

type CreateJobRequest struct {
	Query   string `json:"query"`
	Breadth int    `json:"breadth"`
	Depth   int    `json:"depth"`
	Mode    string `json:"mode"`
}

type jobRecord struct {
	job  Job
	logs []LogEntry
}

// Service runs research jobs in the background and keeps their state, output
// and logs in memory.
type Service struct {
	// NewResearcher returns the researcher for one job, logging to logger.
	NewResearcher func(logger *slog.Logger) Researcher
	Logger        *slog.Logger

	mu    sync.RWMutex
	jobs  map[uuid.UUID]*jobRecord
	order []uuid.UUID
	wg    sync.WaitGroup
	now   func() time.Time
}

func NewService(newResearcher func(logger *slog.Logger) Researcher, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		NewResearcher: newResearcher,
		Logger:        logger,
		jobs:          make(map[uuid.UUID]*jobRecord),
		now:           time.Now,
	}
}

// Normalize applies defaults and limits to a request.
func (r CreateJobRequest) Normalize() (CreateJobRequest, error) {
	if r.Query == "" {
		return r, ErrQueryRequired
	}
	if r.Breadth == 0 {
		r.Breadth = DefaultBreadth
	}
	if r.Depth == 0 {
		r.Depth = DefaultDepth
	}
	r.Breadth = research.ClampBreadth(r.Breadth)
	r.Depth = research.ClampDepth(r.Depth)

	switch r.Mode {
	case "":
		r.Mode = ModeReport
	case ModeReport, ModeAnswer:
	default:
		return r, fmt.Errorf("unknown mode %q", r.Mode)
	}
	return r, nil
}

func (s *Service) CreateJob(ctx context.Context, req CreateJobRequest) (*Job, error) {
	req, err := req.Normalize()
	if err != nil {
		return nil, err
	}

	now := s.now()
	rec := &jobRecord{job: Job{
		ID:        uuid.New(),
		Query:     req.Query,
		Breadth:   req.Breadth,
		Depth:     req.Depth,
		Mode:      req.Mode,
		Status:    StatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}}

	s.mu.Lock()
	s.jobs[rec.job.ID] = rec
	s.order = append(s.order, rec.job.ID)
	job := rec.job
	s.mu.Unlock()

	s.Logger.Info("created research job", "job_id", job.ID, "breadth", job.Breadth, "depth", job.Depth, "mode", job.Mode)

	// The job outlives the request that created it.
	s.wg.Add(1)
	go s.runWorker(context.WithoutCancel(ctx), job)

	return &job, nil
}

func (s *Service) GetJob(_ context.Context, id uuid.UUID) (*Job, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.jobs[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrJobNotFound, id)
	}
	job := rec.job
	return &job, nil
}

// ListJobs returns the most recent jobs first.
func (s *Service) ListJobs(_ context.Context) ([]Job, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	jobs := make([]Job, 0, min(len(s.order), maxListedJobs))
	for _, id := range slices.Backward(s.order) {
		if len(jobs) == maxListedJobs {
			break
		}
		jobs = append(jobs, s.jobs[id].job)
	}
	return jobs, nil
}

func (s *Service) GetJobLogs(_ context.Context, jobID uuid.UUID) ([]LogEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.jobs[jobID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrJobNotFound, jobID)
	}
	return slices.Clone(rec.logs), nil
}

// Wait blocks until every started job has finished.
func (s *Service) Wait() {
	s.wg.Wait()
}

func (s *Service) appendLog(jobID uuid.UUID, entry LogEntry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.jobs[jobID]
	if !ok {
		return
	}
	entry.ID = len(rec.logs) + 1
	rec.logs = append(rec.logs, entry)
}

func (s *Service) update(jobID uuid.UUID, apply func(*Job)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if rec, ok := s.jobs[jobID]; ok {
		apply(&rec.job)
		rec.job.UpdatedAt = s.now()
	}
}

func (s *Service) runWorker(ctx context.Context, job Job) {
	defer s.wg.Done()

	jobLogger := slog.New(NewMemoryLogHandler(s, job.ID, s.Logger.Handler()))
	defer func() {
		if r := recover(); r != nil {
			s.failJob(jobLogger, job.ID, fmt.Sprintf("Research failed: %v", r))
		}
	}()

	s.update(job.ID, func(j *Job) { j.Status = StatusRunning })

	r := s.NewResearcher(jobLogger)
	res := r.Research(ctx, job.Query, job.Breadth, job.Depth, func(p research.Progress) {
		s.update(job.ID, func(j *Job) { j.Progress = p })
	})

	var output string
	if job.Mode == ModeAnswer {
		output = r.WriteAnswer(ctx, job.Query, res.Findings)
	} else {
		output = r.WriteReport(ctx, job.Query, res.Findings, res.Sources)
	}

	s.update(job.ID, func(j *Job) {
		j.Status = StatusCompleted
		j.Learnings = res.Findings
		j.VisitedURLs = res.Sources
		j.Output = &output
	})
	jobLogger.Info("research job completed", "learnings", len(res.Findings), "visited_urls", len(res.Sources))
}

func (s *Service) failJob(logger *slog.Logger, jobID uuid.UUID, reason string) {
	logger.Error(reason)
	s.update(jobID, func(j *Job) {
		j.Status = StatusFailed
		j.Error = reason
	})
}
