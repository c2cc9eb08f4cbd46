package render

import (
	"fmt"
	"log/slog"
	"sync"
)

// Supervisor owns the primary and fallback backends and performs the
// runtime switch. A failure during init or any frame permanently demotes
// the primary for this supervisor's lifetime; scene state lives outside
// the backends, so nothing is lost in the switch.
type Supervisor struct {
	mu sync.Mutex

	primary  Backend
	fallback Backend
	logger   *slog.Logger

	usingFallback bool
	width, height int
	initialized   bool
}

// NewSupervisor creates a supervisor over the two backends.
func NewSupervisor(primary, fallback Backend, logger *slog.Logger) *Supervisor {
	return &Supervisor{
		primary:  primary,
		fallback: fallback,
		logger:   logger,
	}
}

// Init initializes the active backend for the given surface size,
// demoting the primary if its init fails.
func (s *Supervisor) Init(width, height int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.width = width
	s.height = height

	if !s.usingFallback {
		if err := s.primary.Init(width, height); err != nil {
			s.logger.Warn("Primary render backend failed to initialize, switching to fallback", "error", err)
			s.demoteLocked()
		} else {
			s.initialized = true
			return nil
		}
	}

	if err := s.fallback.Init(width, height); err != nil {
		return fmt.Errorf("fallback backend failed to initialize: %w", err)
	}
	s.initialized = true
	return nil
}

// Render draws a frame on the active backend. A primary failure switches
// to the fallback and redraws the same frame immediately.
func (s *Supervisor) Render(f *Frame) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.initialized {
		return fmt.Errorf("render supervisor not initialized")
	}

	if !s.usingFallback {
		if err := s.primary.DrawFrame(f); err == nil {
			return nil
		} else {
			s.logger.Warn("Primary render backend failed mid-frame, switching to fallback", "error", err)
			s.demoteLocked()
			if err := s.fallback.Init(s.width, s.height); err != nil {
				return fmt.Errorf("fallback backend failed to initialize after switch: %w", err)
			}
		}
	}

	if err := s.fallback.DrawFrame(f); err != nil {
		return fmt.Errorf("fallback backend draw failed: %w", err)
	}
	return nil
}

func (s *Supervisor) demoteLocked() {
	s.usingFallback = true
	s.primary.Dispose()
}

// UsingFallback reports whether the primary has been demoted.
func (s *Supervisor) UsingFallback() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.usingFallback
}

// Dispose releases both backends.
func (s *Supervisor) Dispose() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.usingFallback {
		s.primary.Dispose()
	}
	s.fallback.Dispose()
}
