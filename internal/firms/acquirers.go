package firms

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/Fmazzesi/zefixtools/internal/logging"
	"github.com/Fmazzesi/zefixtools/internal/normalize"
	"github.com/Fmazzesi/zefixtools/pkg/models"
)

// AcquirerResult lists the firms that took over Target. An empty
// Acquirers slice means the target was never acquired.
type AcquirerResult struct {
	Target    models.FirmRef        `json:"target"`
	Acquirers []models.Firm         `json:"acquirers"`
	Failures  []models.FetchFailure `json:"failures,omitempty"`
}

// Acquirers resolves the "was taken over by" relation of id, one hop
// only. Each acquirer is normalized with its own legal form. An acquirer
// that cannot be fetched is skipped and listed in Failures.
func (s *Service) Acquirers(ctx context.Context, id models.EHRAID) (*AcquirerResult, error) {
	if id <= 0 {
		return nil, fmt.Errorf("%w: ehraid must be positive, got %d", ErrInvalidInput, id)
	}
	ctx, log := logging.StartOperation(ctx, s.logger, "acquirers")

	target, err := s.reg.FirmDetail(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("acquirers of %s: %w", id, err)
	}
	res := &AcquirerResult{Target: target.Ref(), Acquirers: []models.Firm{}}
	if len(target.WasTakenOverBy) == 0 {
		log.Info("no acquisition records", "ehraid", id)
		return res, nil
	}

	cat := s.catalogue(ctx)
	refs := target.WasTakenOverBy
	firms := make([]*models.Firm, len(refs))
	errs := make([]error, len(refs))

	var g errgroup.Group
	g.SetLimit(s.concurrency)
	for i, ref := range refs {
		i, ref := i, ref
		g.Go(func() error {
			if ref.EHRAID <= 0 {
				errs[i] = fmt.Errorf("%w: reference without ehraid", ErrInvalidInput)
				return nil
			}
			raw, err := s.reg.FirmDetail(ctx, ref.EHRAID)
			if err != nil {
				errs[i] = err
				return nil // non-fatal
			}
			f := s.norm.Normalize(ctx, raw, cat, normalize.AcquirerFields)
			firms[i] = &f
			return nil
		})
	}
	_ = g.Wait()
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("acquirers: %w", err)
	}

	for i, ref := range refs {
		if errs[i] != nil {
			log.Warn("skipping acquirer", "ehraid", ref.EHRAID, "error", errs[i])
			res.Failures = append(res.Failures, failure(ref, nil, errs[i]))
			continue
		}
		res.Acquirers = append(res.Acquirers, *firms[i])
	}
	log.Info("acquirer lookup finished", "ehraid", id,
		"acquirers", len(res.Acquirers), "failures", len(res.Failures))
	return res, nil
}
