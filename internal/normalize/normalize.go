// Package normalize turns raw registry records into the flat, English
// records every view of zefixtools returns.
//
// The same pipeline runs for search hits, takeover chains and acquirers;
// only the FieldSelector differs. Normalization never fails: problems with
// a single field are attached to the record as issues.
package normalize

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/text/cases"

	"github.com/Fmazzesi/zefixtools/internal/registry"
	"github.com/Fmazzesi/zefixtools/pkg/models"
)

// ErrTranslation marks a free-text field that could not be translated.
var ErrTranslation = errors.New("normalize: translation failed")

// Translator renders registry free text in English.
type Translator interface {
	Translate(ctx context.Context, text string) (string, error)
}

// TranslationError reports which field failed. errors.Is(err, ErrTranslation) holds.
type TranslationError struct {
	Field string
	Err   error
}

func (e *TranslationError) Error() string {
	return fmt.Sprintf("normalize: translate %s: %v", e.Field, e.Err)
}

func (e *TranslationError) Unwrap() error { return e.Err }

func (e *TranslationError) Is(target error) bool { return target == ErrTranslation }

// Fixed labels for the three status codes the registry uses.
const (
	StatusActive        = "Active"
	StatusDeleted       = "Deleted"
	StatusInLiquidation = "In Liquidation"
)

var knownStatus = map[string]string{
	fold("EXISTIEREND"):   StatusActive,
	fold("GELOESCHT"):     StatusDeleted,
	fold("IN_AUFLOESUNG"): StatusInLiquidation,
}

// fold returns the caseless form of s. A Caser keeps state, so each call
// gets its own.
func fold(s string) string {
	return cases.Fold().String(strings.TrimSpace(s))
}

// Normalizer applies the enrichment pipeline. It is safe for concurrent
// use if its Translator is.
type Normalizer struct {
	translator Translator
	logger     *slog.Logger
}

// Option configures a Normalizer.
type Option func(*Normalizer)

// WithLogger sets the logger used for per-field warnings.
func WithLogger(l *slog.Logger) Option {
	return func(n *Normalizer) {
		if l != nil {
			n.logger = l
		}
	}
}

// New returns a Normalizer. A nil translator disables translation: free
// text and unknown status codes are kept verbatim without an issue.
func New(t Translator, opts ...Option) *Normalizer {
	n := &Normalizer{translator: t, logger: slog.Default()}
	for _, opt := range opts {
		opt(n)
	}
	n.logger = n.logger.With("component", "normalize")
	return n
}

// Normalize builds the record for raw, populating the fields in sel.
// cat may be nil when the legal-form catalogue could not be fetched.
func (n *Normalizer) Normalize(ctx context.Context, raw *registry.Firm, cat Catalogue, sel FieldSelector) models.Firm {
	f := models.Firm{
		Name:      raw.Name,
		EHRAID:    raw.EHRAID,
		Cancelled: raw.DeleteDate != nil,
	}

	if sel.Has(FieldLegalSeat) {
		f.LegalSeat = raw.LegalSeat
	}
	if sel.Has(FieldExcerpt) {
		f.CantonalExcerptWeb = raw.CantonalExcerptWeb
	}
	if sel.Has(FieldDeleteDate) && raw.DeleteDate != nil {
		f.DeleteDate = *raw.DeleteDate
	}
	if sel.Has(FieldWasTakenOverBy) {
		f.WasTakenOverBy = raw.WasTakenOverBy
	}
	if sel.Has(FieldStatus) {
		f.Status = n.status(ctx, raw.Status, &f)
	}
	if sel.Has(FieldLegalForm) {
		f.LegalForm = n.legalForm(raw.LegalFormID, cat, &f)
	}
	if sel.Has(FieldPurpose) {
		f.Purpose = n.purpose(ctx, raw.Purpose, &f)
	}
	if sel.Has(FieldCapital) {
		f.CapitalNominal = string(raw.CapitalNominal)
	}
	if sel.Has(FieldCounts) {
		f.NOfShabPub = models.IntPtr(len(raw.ShabPub))
		f.NOfBranchOffices = models.IntPtr(len(raw.BranchOffices))
		f.NOfOldNames = models.IntPtr(len(raw.OldNames))
		f.NOfHasTakenOver = models.IntPtr(len(raw.HasTakenOver))
	}
	if sel.Has(FieldAddress) && raw.Address != nil {
		f.Town = raw.Address.Town
		f.SwissZipCode = raw.Address.SwissZipCode
	}
	return f
}

// Status maps a registry status code to its English label. Unknown codes
// are translated.
func (n *Normalizer) Status(ctx context.Context, code string) (string, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return "", nil
	}
	if label, ok := knownStatus[fold(code)]; ok {
		return label, nil
	}
	return n.translate(ctx, "status", code)
}

func (n *Normalizer) status(ctx context.Context, code string, f *models.Firm) string {
	label, err := n.Status(ctx, code)
	if err != nil {
		n.addIssue(f, "status", err)
		return strings.TrimSpace(code)
	}
	return label
}

func (n *Normalizer) purpose(ctx context.Context, raw string, f *models.Firm) string {
	text := PlainText(raw)
	if text == "" {
		return ""
	}
	out, err := n.translate(ctx, "purpose", text)
	if err != nil {
		n.addIssue(f, "purpose", err)
		return text
	}
	return out
}

func (n *Normalizer) legalForm(id *int, cat Catalogue, f *models.Firm) string {
	if id == nil {
		return ""
	}
	if cat == nil {
		return strconv.Itoa(*id)
	}
	name, ok := cat.Name(*id)
	if !ok {
		f.Issues = append(f.Issues, models.Issue{
			Field:   "legalForm",
			Kind:    models.IssueLegalForm,
			Message: fmt.Sprintf("legal form id %d not in catalogue", *id),
		})
		return strconv.Itoa(*id)
	}
	return name
}

func (n *Normalizer) translate(ctx context.Context, field, text string) (string, error) {
	if n.translator == nil {
		return text, nil
	}
	out, err := n.translator.Translate(ctx, text)
	if err == nil && strings.TrimSpace(out) == "" {
		err = errors.New("empty translation")
	}
	if err != nil {
		return "", &TranslationError{Field: field, Err: err}
	}
	return strings.TrimSpace(out), nil
}

func (n *Normalizer) addIssue(f *models.Firm, field string, err error) {
	n.logger.Warn("field kept in source language", "ehraid", f.EHRAID, "field", field, "error", err)
	f.Issues = append(f.Issues, models.Issue{
		Field:   field,
		Kind:    models.IssueTranslation,
		Message: err.Error(),
	})
}

// PlainText strips markup and collapses whitespace. Purpose clauses from
// some cantons carry HTML fragments and entities.
func PlainText(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	if strings.ContainsAny(s, "<&") {
		if doc, err := goquery.NewDocumentFromReader(strings.NewReader(s)); err == nil {
			s = doc.Text()
		}
	}
	return strings.Join(strings.Fields(s), " ")
}
