package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/mikeboe/deep-research/pkg/metrics"
	"github.com/mikeboe/deep-research/pkg/research"
)

type Handler struct {
	Service    *Service
	Researcher Researcher
	Metrics    *metrics.Recorder
	MCP        *mcp.Server
	Logger     *slog.Logger
}

func NewHandler(s *Service, r Researcher, rec *metrics.Recorder, mcpServer *mcp.Server) *Handler {
	return &Handler{Service: s, Researcher: r, Metrics: rec, MCP: mcpServer, Logger: s.Logger}
}

func (h *Handler) RegisterRoutes(r *gin.Engine) {
	if h.MCP != nil {
		mcpHandler := mcp.NewStreamableHTTPHandler(func(*http.Request) *mcp.Server { return h.MCP }, nil)
		r.Any("/mcp", gin.WrapH(mcpHandler))
	}
	r.GET("/metrics", gin.WrapH(h.Metrics.Handler()))

	api := r.Group("/api")
	{
		api.POST("/research", h.research)
		api.POST("/generate-report", h.generateReport)

		api.POST("/jobs", h.createJob)
		api.GET("/jobs", h.listJobs)
		api.GET("/jobs/:id", h.getJob)
		api.GET("/jobs/:id/logs", h.getJobLogs)
	}
}

type researchRequest struct {
	Query   string `json:"query"`
	Depth   int    `json:"depth"`
	Breadth int    `json:"breadth"`
}

// bindResearch parses and normalizes a synchronous research request, writing
// the error response itself when it fails.
func (h *Handler) bindResearch(c *gin.Context) (CreateJobRequest, bool) {
	var body researchRequest
	if err := bindJSON(c, &body); err != nil {
		badRequest(c, err)
		return CreateJobRequest{}, false
	}
	req, err := CreateJobRequest{Query: body.Query, Breadth: body.Breadth, Depth: body.Depth}.Normalize()
	if err != nil {
		badRequest(c, err)
		return CreateJobRequest{}, false
	}
	return req, true
}

// run executes fn and converts a panic into the 500 response.
func (h *Handler) run(c *gin.Context, fn func(ctx context.Context) gin.H) {
	defer func() {
		if r := recover(); r != nil {
			h.Logger.Error("error in research API", "error", r)
			c.JSON(http.StatusInternalServerError, gin.H{
				"error":   "An error occurred during research",
				"message": fmt.Sprint(r),
			})
		}
	}()
	c.JSON(http.StatusOK, fn(c.Request.Context()))
}

func (h *Handler) research(c *gin.Context) {
	req, ok := h.bindResearch(c)
	if !ok {
		return
	}
	h.Logger.Info("starting research", "query", req.Query, "breadth", req.Breadth, "depth", req.Depth)

	h.run(c, func(ctx context.Context) gin.H {
		res := h.Researcher.Research(ctx, req.Query, req.Breadth, req.Depth, nil)
		h.Logger.Info("research completed", "learnings", len(res.Findings), "visited_urls", len(res.Sources))
		answer := h.Researcher.WriteAnswer(ctx, req.Query, res.Findings)
		return gin.H{
			"success":      true,
			"answer":       answer,
			"learnings":    nonNil(res.Findings),
			"visited_urls": nonNil(res.Sources),
		}
	})
}

func (h *Handler) generateReport(c *gin.Context) {
	req, ok := h.bindResearch(c)
	if !ok {
		return
	}
	h.Logger.Info("starting report research", "query", req.Query, "breadth", req.Breadth, "depth", req.Depth)

	h.run(c, func(ctx context.Context) gin.H {
		res := h.Researcher.Research(ctx, req.Query, req.Breadth, req.Depth, nil)
		report := h.Researcher.WriteReport(ctx, req.Query, res.Findings, res.Sources)
		return gin.H{
			"success":      true,
			"report":       report,
			"learnings":    nonNil(res.Findings),
			"visited_urls": nonNil(res.Sources),
		}
	})
}

func (h *Handler) createJob(c *gin.Context) {
	var req CreateJobRequest
	if err := bindJSON(c, &req); err != nil {
		badRequest(c, err)
		return
	}

	job, err := h.Service.CreateJob(c.Request.Context(), req)
	if err != nil {
		badRequest(c, err)
		return
	}

	c.JSON(http.StatusCreated, job)
}

func (h *Handler) listJobs(c *gin.Context) {
	jobs, err := h.Service.ListJobs(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, jobs)
}

func (h *Handler) getJob(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid uuid"})
		return
	}

	job, err := h.Service.GetJob(c.Request.Context(), id)
	if err != nil {
		jobError(c, err)
		return
	}

	c.JSON(http.StatusOK, job)
}

func (h *Handler) getJobLogs(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid uuid"})
		return
	}

	logs, err := h.Service.GetJobLogs(c.Request.Context(), id)
	if err != nil {
		jobError(c, err)
		return
	}

	if logs == nil {
		logs = []LogEntry{}
	}
	c.JSON(http.StatusOK, logs)
}

// bindJSON decodes the request body. An empty body carries no query.
func bindJSON(c *gin.Context, obj any) error {
	if err := c.ShouldBindJSON(obj); err != nil {
		if errors.Is(err, io.EOF) {
			return ErrQueryRequired
		}
		return err
	}
	return nil
}

func badRequest(c *gin.Context, err error) {
	if errors.Is(err, ErrQueryRequired) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Query is required"})
		return
	}
	c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
}

func jobError(c *gin.Context, err error) {
	if errors.Is(err, ErrJobNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
}

// nonNil keeps empty lists as [] rather than null in responses.
func nonNil(items []string) []string {
	if items == nil {
		return []string{}
	}
	return items
}

var _ Researcher = (*research.Agent)(nil)
