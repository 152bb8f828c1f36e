package firms

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"
	"golang.org/x/text/unicode/norm"

	"github.com/Fmazzesi/zefixtools/internal/logging"
	"github.com/Fmazzesi/zefixtools/internal/normalize"
	"github.com/Fmazzesi/zefixtools/internal/registry"
	"github.com/Fmazzesi/zefixtools/pkg/models"
)

// SearchMode selects how much detail a search returns.
type SearchMode int

const (
	// ModeFull fetches and normalizes every hit.
	ModeFull SearchMode = iota
	// ModeSimple returns only the identifying fields of each hit.
	ModeSimple
)

func (m SearchMode) String() string {
	if m == ModeSimple {
		return "simple"
	}
	return "full"
}

// SearchResult holds either Firms (full mode) or Summaries (simple mode),
// in the order the registry listed the hits.
type SearchResult struct {
	Query     string                `json:"query"`
	Mode      SearchMode            `json:"-"`
	Firms     []models.Firm         `json:"firms,omitempty"`
	Summaries []models.FirmSummary  `json:"summaries,omitempty"`
	Failures  []models.FetchFailure `json:"failures,omitempty"`
}

// Rows returns the records of the active mode as table rows.
func (r *SearchResult) Rows() []models.Row {
	if r.Mode == ModeSimple {
		rows := make([]models.Row, len(r.Summaries))
		for i, s := range r.Summaries {
			rows[i] = s
		}
		return rows
	}
	rows := make([]models.Row, len(r.Firms))
	for i, f := range r.Firms {
		rows[i] = f
	}
	return rows
}

// Len returns the number of records in the active mode.
func (r *SearchResult) Len() int {
	if r.Mode == ModeSimple {
		return len(r.Summaries)
	}
	return len(r.Firms)
}

// Search runs an exact-match name search. In full mode every hit is
// fetched and normalized; a hit whose detail fetch fails is skipped and
// listed in Failures.
func (s *Service) Search(ctx context.Context, name string, mode SearchMode) (*SearchResult, error) {
	if blank(name) {
		return nil, fmt.Errorf("%w: company name must not be empty", ErrInvalidInput)
	}
	name = norm.NFC.String(strings.TrimSpace(name))
	ctx, log := logging.StartOperation(ctx, s.logger, "search")

	hits, err := s.reg.SearchByName(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("search %q: %w", name, err)
	}
	log.Info("search hits", "name", name, "hits", len(hits), "mode", mode.String())

	res := &SearchResult{Query: name, Mode: mode}
	if mode == ModeSimple {
		res.Summaries = make([]models.FirmSummary, len(hits))
		for i, h := range hits {
			res.Summaries[i] = models.FirmSummary{
				Name:               h.Name,
				EHRAID:             h.EHRAID,
				LegalSeat:          h.LegalSeat,
				CantonalExcerptWeb: h.CantonalExcerptWeb,
			}
		}
		return res, nil
	}

	res.Firms = []models.Firm{}
	if len(hits) == 0 {
		return res, nil
	}
	cat := s.catalogue(ctx)
	firms, errs := s.details(ctx, hits, cat)
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("search %q: %w", name, err)
	}
	for i, h := range hits {
		if errs[i] != nil {
			log.Warn("skipping search hit", "ehraid", h.EHRAID, "error", errs[i])
			ref := models.FirmRef{EHRAID: h.EHRAID, Name: h.Name, LegalSeat: h.LegalSeat}
			res.Failures = append(res.Failures, failure(ref, nil, errs[i]))
			continue
		}
		res.Firms = append(res.Firms, firms[i])
	}
	return res, nil
}

// details fetches and normalizes every hit concurrently. Results keep the
// index of their hit.
func (s *Service) details(ctx context.Context, hits []registry.SearchHit, cat normalize.Catalogue) ([]models.Firm, []error) {
	firms := make([]models.Firm, len(hits))
	errs := make([]error, len(hits))

	var g errgroup.Group
	g.SetLimit(s.concurrency)
	for i, h := range hits {
		i, h := i, h
		g.Go(func() error {
			raw, err := s.reg.FirmDetail(ctx, h.EHRAID)
			if err != nil {
				errs[i] = err
				return nil // non-fatal
			}
			firms[i] = s.norm.Normalize(ctx, raw, cat, normalize.SearchFields)
			return nil
		})
	}
	_ = g.Wait()
	return firms, errs
}
