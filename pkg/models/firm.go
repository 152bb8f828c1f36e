// Package models defines the normalized registry records shared by the
// search, takeover and acquirer views of zefixtools.
package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// EHRAID is the registry's numeric firm identifier.
// The upstream sends it as a JSON number, older payloads as a string.
type EHRAID int64

// ParseEHRAID parses a decimal identifier such as "110662".
func ParseEHRAID(s string) (EHRAID, error) {
	s = strings.TrimSpace(s)
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("invalid ehraid %q", s)
	}
	return EHRAID(n), nil
}

func (id EHRAID) String() string { return strconv.FormatInt(int64(id), 10) }

// UnmarshalJSON accepts both 110662 and "110662".
func (id *EHRAID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*id = 0
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		if s == "" {
			*id = 0
			return nil
		}
		parsed, err := ParseEHRAID(s)
		if err != nil {
			return err
		}
		*id = parsed
		return nil
	}
	var n int64
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("ehraid: %w", err)
	}
	*id = EHRAID(n)
	return nil
}

// FirmRef points at another firm from a relation list (hasTakenOver,
// wasTakenOverBy). Elements arrive either as a bare identifier or as a
// nested stub object; both decode into a FirmRef.
type FirmRef struct {
	EHRAID    EHRAID `json:"ehraid"`
	Name      string `json:"name,omitempty"`
	LegalSeat string `json:"legalSeat,omitempty"`
}

// Label returns the name, or the id when the stub carried no name.
func (r FirmRef) Label() string {
	if r.Name != "" {
		return r.Name
	}
	return r.EHRAID.String()
}

// UnmarshalJSON decodes a bare id, a numeric string, or a stub object.
func (r *FirmRef) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '{' {
		type stub FirmRef
		var s stub
		if err := json.Unmarshal(data, &s); err != nil {
			return fmt.Errorf("firm reference: %w", err)
		}
		*r = FirmRef(s)
		return nil
	}
	*r = FirmRef{}
	return r.EHRAID.UnmarshalJSON(data)
}

// Firm is a normalized registry record. Which optional fields are filled
// depends on the field selector of the view that produced it; Cancelled is
// always set, selected counts are always present (0 when the upstream list
// is missing).
type Firm struct {
	Name               string    `json:"name"`
	EHRAID             EHRAID    `json:"ehraid"`
	LegalSeat          string    `json:"legalSeat,omitempty"`
	CantonalExcerptWeb string    `json:"cantonalExcerptWeb,omitempty"`
	Status             string    `json:"status,omitempty"`
	DeleteDate         string    `json:"deleteDate,omitempty"`
	WasTakenOverBy     []FirmRef `json:"wasTakenOverBy,omitempty"`
	LegalForm          string    `json:"legalForm"`
	Purpose            string    `json:"purpose,omitempty"`
	CapitalNominal     string    `json:"capitalNominal,omitempty"`
	Cancelled          bool      `json:"cancelled"`
	NOfShabPub         *int      `json:"n_of_shabPub,omitempty"`
	NOfBranchOffices   *int      `json:"n_of_branchOffices,omitempty"`
	NOfOldNames        *int      `json:"n_of_oldNames,omitempty"`
	NOfHasTakenOver    *int      `json:"n_of_hasTakenOver,omitempty"`
	Town               string    `json:"town,omitempty"`
	SwissZipCode       string    `json:"swissZipCode,omitempty"`
	Hops               *int      `json:"hops,omitempty"`
	FetchError         string    `json:"fetchError,omitempty"`
	Issues             []Issue   `json:"issues,omitempty"`
}

// HopCount returns the hop distance, or -1 outside a takeover chain.
func (f Firm) HopCount() int {
	if f.Hops == nil {
		return -1
	}
	return *f.Hops
}

// Failed reports whether this is a placeholder for a firm that could not be fetched.
func (f Firm) Failed() bool { return f.FetchError != "" }

// Fields lists the populated columns in a stable order.
func (f Firm) Fields() []Field {
	fields := []Field{
		{Name: "name", Value: f.Name},
		{Name: "ehraid", Value: f.EHRAID.String()},
	}
	add := func(name, v string) {
		if v != "" {
			fields = append(fields, Field{Name: name, Value: v})
		}
	}
	addInt := func(name string, v *int) {
		if v != nil {
			fields = append(fields, Field{Name: name, Value: strconv.Itoa(*v)})
		}
	}
	add("legalSeat", f.LegalSeat)
	add("cantonalExcerptWeb", f.CantonalExcerptWeb)
	add("status", f.Status)
	add("deleteDate", f.DeleteDate)
	if len(f.WasTakenOverBy) > 0 {
		names := make([]string, len(f.WasTakenOverBy))
		for i, r := range f.WasTakenOverBy {
			names[i] = r.Label()
		}
		add("wasTakenOverBy", strings.Join(names, ", "))
	}
	add("legalForm", f.LegalForm)
	add("purpose", f.Purpose)
	add("capitalNominal", f.CapitalNominal)
	fields = append(fields, Field{Name: "cancelled", Value: strconv.FormatBool(f.Cancelled)})
	addInt("n_of_shabPub", f.NOfShabPub)
	addInt("n_of_branchOffices", f.NOfBranchOffices)
	addInt("n_of_oldNames", f.NOfOldNames)
	addInt("n_of_hasTakenOver", f.NOfHasTakenOver)
	add("town", f.Town)
	add("swissZipCode", f.SwissZipCode)
	addInt("hops", f.Hops)
	add("fetchError", f.FetchError)
	if len(f.Issues) > 0 {
		msgs := make([]string, len(f.Issues))
		for i, is := range f.Issues {
			msgs[i] = is.String()
		}
		fields = append(fields, Field{Name: "issues", Value: strings.Join(msgs, "; ")})
	}
	return fields
}

// FirmSummary is the identifying subset returned by a simple search.
type FirmSummary struct {
	Name               string `json:"name"`
	EHRAID             EHRAID `json:"ehraid"`
	LegalSeat          string `json:"legalSeat"`
	CantonalExcerptWeb string `json:"cantonalExcerptWeb"`
}

func (s FirmSummary) Fields() []Field {
	return []Field{
		{Name: "name", Value: s.Name},
		{Name: "ehraid", Value: s.EHRAID.String()},
		{Name: "legalSeat", Value: s.LegalSeat},
		{Name: "cantonalExcerptWeb", Value: s.CantonalExcerptWeb},
	}
}

// Field is one named column value of a tabular row.
type Field struct {
	Name  string
	Value string
}

// Row is implemented by every record that can be rendered as a table row.
type Row interface {
	Fields() []Field
}

// IntPtr returns a pointer to n.
func IntPtr(n int) *int { return &n }
