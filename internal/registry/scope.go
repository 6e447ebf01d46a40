package registry

import (
	"errors"
	"log/slog"

	"github.com/Aman-CERP/amansearch/internal/directory"
)

// Scope carries the services available to one index configurer. It lives
// for a single resolution; cleanups registered with OnClose run when the
// resolution finishes.
type Scope struct {
	registry  *Registry
	directory directory.Factory
	cleanups  []func() error
}

func (r *Registry) newScope() (*Scope, error) {
	f, err := r.directory()
	if err != nil {
		return nil, err
	}
	return &Scope{registry: r, directory: f}, nil
}

// Directory returns the scope's default directory factory, or nil if the
// registry has no directory provider.
func (s *Scope) Directory() directory.Factory { return s.directory }

// Logger returns the registry logger.
func (s *Scope) Logger() *slog.Logger { return s.registry.logger }

// OnClose registers a cleanup run when the scope ends, in reverse order.
func (s *Scope) OnClose(fn func() error) {
	s.cleanups = append(s.cleanups, fn)
}

func (s *Scope) close() error {
	var errs []error
	for i := len(s.cleanups) - 1; i >= 0; i-- {
		if err := s.cleanups[i](); err != nil {
			errs = append(errs, err)
		}
	}
	s.cleanups = nil
	return errors.Join(errs...)
}
