// Package firms assembles the three registry views of zefixtools: company
// search, takeover chains and acquirer lookups.
//
// Each top-level operation fetches the legal-form catalogue once, passes it
// to the normalizer explicitly, and returns whatever it gathered together
// with a list of the secondary fetches that failed. Only a failure on the
// operation's own root is returned as an error.
package firms

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/Fmazzesi/zefixtools/internal/logging"
	"github.com/Fmazzesi/zefixtools/internal/normalize"
	"github.com/Fmazzesi/zefixtools/internal/registry"
	"github.com/Fmazzesi/zefixtools/pkg/models"
)

var (
	// ErrInvalidInput is returned for arguments of the wrong shape, such as a blank name.
	ErrInvalidInput = errors.New("firms: invalid input")

	// ErrCatalogueUnavailable is logged when the legal-form catalogue cannot be
	// fetched. Operations continue with raw legal-form ids.
	ErrCatalogueUnavailable = errors.New("firms: legal-form catalogue unavailable")

	// ErrCycleDetected marks a takeover reference back to one of its own ancestors.
	ErrCycleDetected = errors.New("firms: takeover cycle detected")
)

// Registry is the subset of the registry client the service needs.
type Registry interface {
	SearchByName(ctx context.Context, name string) ([]registry.SearchHit, error)
	FirmDetail(ctx context.Context, id models.EHRAID) (*registry.Firm, error)
	LegalForms(ctx context.Context) ([]registry.LegalForm, error)
}

// Service runs the registry views. It holds no per-operation state and is
// safe for concurrent use.
type Service struct {
	reg         Registry
	norm        *normalize.Normalizer
	concurrency int
	maxDepth    int
	logger      *slog.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithConcurrency bounds the number of detail fetches in flight within
// one fan-out. 1 makes every operation strictly sequential.
func WithConcurrency(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.concurrency = n
		}
	}
}

// WithMaxDepth stops takeover expansion below the given hop count.
// 0 means unlimited.
func WithMaxDepth(n int) Option {
	return func(s *Service) {
		if n >= 0 {
			s.maxDepth = n
		}
	}
}

// WithLogger sets the base logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// New creates a Service. A nil normalizer means no translation.
func New(reg Registry, norm *normalize.Normalizer, opts ...Option) *Service {
	if norm == nil {
		norm = normalize.New(nil)
	}
	s := &Service{
		reg:         reg,
		norm:        norm,
		concurrency: 4,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With("component", "firms")
	return s
}

// LegalForms returns the legal-form catalogue ordered by id.
func (s *Service) LegalForms(ctx context.Context) ([]registry.LegalForm, error) {
	forms, err := s.reg.LegalForms(ctx)
	if err != nil {
		return nil, fmt.Errorf("legal forms: %w", err)
	}
	return normalize.NewCatalogue(forms).Sorted(), nil
}

// catalogue fetches the legal-form catalogue for one operation. On failure
// it logs and returns nil so normalization falls back to raw ids.
func (s *Service) catalogue(ctx context.Context) normalize.Catalogue {
	forms, err := s.reg.LegalForms(ctx)
	if err != nil {
		logging.FromContext(ctx).Warn("legal forms will be shown as numeric ids",
			"error", fmt.Errorf("%w: %w", ErrCatalogueUnavailable, err))
		return nil
	}
	return normalize.NewCatalogue(forms)
}

// failure builds the report entry for a secondary fetch that failed.
func failure(ref models.FirmRef, hops *int, err error) models.FetchFailure {
	f := models.FetchFailure{
		EHRAID: ref.EHRAID,
		Name:   ref.Name,
		Hops:   hops,
		Error:  err.Error(),
	}
	switch {
	case errors.Is(err, ErrCycleDetected):
		f.Outcome = "CycleDetected"
	case registry.OutcomeOf(err) != 0:
		f.Outcome = registry.OutcomeOf(err).String()
	}
	return f
}

// blank reports whether a user-supplied name has no usable characters.
func blank(s string) bool { return strings.TrimSpace(s) == "" }
