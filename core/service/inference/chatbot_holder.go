package inference

import (
	"sync/atomic"

	"chatbot_server/core/domain"
)

// Holder serves predictions from the current Service and lets a finished
// retraining run swap in freshly loaded models without a restart.
type Holder struct {
	current atomic.Pointer[Service]
	paths   ArtifactPaths
	cfg     Config
}

// NewHolder loads the artifacts at paths. Missing artifacts are not an
// error; the service degrades to its fallbacks.
func NewHolder(paths ArtifactPaths, cfg Config) *Holder {
	h := &Holder{paths: paths, cfg: cfg}
	h.Reload()
	return h
}

// NewStaticHolder wraps an already built service.
func NewStaticHolder(s *Service) *Holder {
	h := &Holder{}
	h.current.Store(s)
	return h
}

// Reload re-reads the artifacts and atomically replaces the service.
// In-flight predictions finish on the previous models.
func (h *Holder) Reload() Status {
	arts, _ := LoadArtifacts(h.paths)
	s := NewService(arts, h.cfg)
	h.current.Store(s)
	return s.Status()
}

// Service returns the service currently in use.
func (h *Holder) Service() *Service { return h.current.Load() }

// PredictIntent delegates to the current service.
func (h *Holder) PredictIntent(text string) domain.Intent {
	return h.Service().PredictIntent(text)
}

// PredictSentiment delegates to the current service.
func (h *Holder) PredictSentiment(text string) domain.Sentiment {
	return h.Service().PredictSentiment(text)
}

// Status reports artifact availability of the current service.
func (h *Holder) Status() Status { return h.Service().Status() }
