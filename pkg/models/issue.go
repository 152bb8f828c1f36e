package models

import "fmt"

// IssueKind classifies a normalization problem attached to a record.
type IssueKind string

const (
	IssueTranslation IssueKind = "translation"
	IssueLegalForm   IssueKind = "legal_form"
)

// Issue records a field that could not be fully normalized.
type Issue struct {
	Field   string    `json:"field"`
	Kind    IssueKind `json:"kind"`
	Message string    `json:"message"`
}

func (i Issue) String() string {
	return fmt.Sprintf("%s (%s): %s", i.Field, i.Kind, i.Message)
}

// FetchFailure describes a secondary fetch that failed inside a fan-out
// (one traversal branch, one acquirer, one search hit). The surrounding
// result still carries everything else that was gathered.
type FetchFailure struct {
	EHRAID  EHRAID `json:"ehraid"`
	Name    string `json:"name,omitempty"`
	Hops    *int   `json:"hops,omitempty"`
	Outcome string `json:"outcome,omitempty"` // registry outcome, e.g. "ServerError"
	Error   string `json:"error"`
}

func (f FetchFailure) String() string {
	if f.Hops != nil {
		return fmt.Sprintf("ehraid %s (hop %d): %s", f.EHRAID, *f.Hops, f.Error)
	}
	return fmt.Sprintf("ehraid %s: %s", f.EHRAID, f.Error)
}
