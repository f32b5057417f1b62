package server

import (
	"context"
	"encoding/json"
	"log/slog"
	"slices"

	"github.com/google/uuid"
)

// MemoryLogHandler is a slog.Handler that records log lines against a job so
// they can be served from /api/jobs/:id/logs. Records are also passed to next
// when it is set.
type MemoryLogHandler struct {
	svc   *Service
	JobID uuid.UUID

	next   slog.Handler
	attrs  []slog.Attr
	groups []string
}

func NewMemoryLogHandler(svc *Service, jobID uuid.UUID, next slog.Handler) *MemoryLogHandler {
	return &MemoryLogHandler{
		svc:   svc,
		JobID: jobID,
		next:  next,
	}
}

func (h *MemoryLogHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return true // Log everything
}

func (h *MemoryLogHandler) Handle(ctx context.Context, r slog.Record) error {
	meta := make(map[string]any)
	for _, a := range h.attrs {
		put(meta, a.Key, a.Value)
	}
	r.Attrs(func(a slog.Attr) bool {
		put(meta, h.qualify(a.Key), a.Value)
		return true
	})

	metaJSON, err := json.Marshal(meta)
	if err != nil {
		metaJSON = []byte("{}")
	}

	h.svc.appendLog(h.JobID, LogEntry{
		Timestamp: r.Time,
		Level:     r.Level.String(),
		Message:   r.Message,
		Metadata:  metaJSON,
	})

	if h.next != nil && h.next.Enabled(ctx, r.Level) {
		return h.next.Handle(ctx, r.Clone())
	}
	return nil
}

// qualify prefixes key with the open groups.
func (h *MemoryLogHandler) qualify(key string) string {
	for _, g := range slices.Backward(h.groups) {
		key = g + "." + key
	}
	return key
}

func put(meta map[string]any, key string, v slog.Value) {
	v = v.Resolve()
	if v.Kind() == slog.KindAny {
		if err, ok := v.Any().(error); ok {
			meta[key] = err.Error()
			return
		}
	}
	meta[key] = v.Any()
}

func (h *MemoryLogHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	c := *h
	c.attrs = slices.Clip(h.attrs)
	for _, a := range attrs {
		c.attrs = append(c.attrs, slog.Attr{Key: h.qualify(a.Key), Value: a.Value})
	}
	if h.next != nil {
		c.next = h.next.WithAttrs(attrs)
	}
	return &c
}

func (h *MemoryLogHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	c := *h
	c.groups = append(slices.Clip(h.groups), name)
	if h.next != nil {
		c.next = h.next.WithGroup(name)
	}
	return &c
}
