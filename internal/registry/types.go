package registry

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/Fmazzesi/zefixtools/pkg/models"
)

// ── Zefix REST response types ──

// Firm is the raw company detail returned by GET /firm/{ehraid}.
type Firm struct {
	EHRAID             models.EHRAID     `json:"ehraid"`
	UID                string            `json:"uid"`
	CHID               string            `json:"chid"`
	Name               string            `json:"name"`
	LegalSeat          string            `json:"legalSeat"`
	LegalFormID        *int              `json:"legalFormId"`
	Status             string            `json:"status"`
	Purpose            string            `json:"purpose"`
	CapitalNominal     FlexString        `json:"capitalNominal"`
	CapitalCurrency    string            `json:"capitalCurrency"`
	DeleteDate         *string           `json:"deleteDate"`
	ShabDate           string            `json:"shabDate"`
	CantonalExcerptWeb string            `json:"cantonalExcerptWeb"`
	Address            *Address          `json:"address"`
	HasTakenOver       []models.FirmRef  `json:"hasTakenOver"`
	WasTakenOverBy     []models.FirmRef  `json:"wasTakenOverBy"`
	OldNames           []json.RawMessage `json:"oldNames"`
	BranchOffices      []json.RawMessage `json:"branchOffices"`
	ShabPub            []json.RawMessage `json:"shabPub"`
}

// Ref returns a reference pointing at this firm.
func (f *Firm) Ref() models.FirmRef {
	return models.FirmRef{EHRAID: f.EHRAID, Name: f.Name, LegalSeat: f.LegalSeat}
}

// Address is the postal address block of a firm.
type Address struct {
	Organisation string `json:"organisation"`
	CareOf       string `json:"careOf"`
	Street       string `json:"street"`
	HouseNumber  string `json:"houseNumber"`
	Addon        string `json:"addon"`
	POBox        string `json:"poBox"`
	Town         string `json:"town"`
	SwissZipCode string `json:"swissZipCode"`
}

// SearchHit is one element of the search endpoint's "list".
type SearchHit struct {
	Name               string        `json:"name"`
	EHRAID             models.EHRAID `json:"ehraid"`
	UID                string        `json:"uid"`
	LegalSeat          string        `json:"legalSeat"`
	LegalFormID        *int          `json:"legalFormId"`
	Status             string        `json:"status"`
	CantonalExcerptWeb string        `json:"cantonalExcerptWeb"`
	DeleteDate         *string       `json:"deleteDate"`
}

type searchRequest struct {
	Name       string `json:"name"`
	SearchType string `json:"searchType"`
}

type searchResponse struct {
	List           []SearchHit `json:"list"`
	HasMoreResults bool        `json:"hasMoreResults"`
}

// LegalForm is one entry of the legal-form catalogue (GET /legalForm).
type LegalForm struct {
	ID        int           `json:"id"`
	UID       string        `json:"uid"`
	Name      LocalizedText `json:"name"`
	ShortName LocalizedText `json:"shortName"`
}

// LocalizedText holds the four official-language variants of a label.
type LocalizedText struct {
	De string `json:"de"`
	Fr string `json:"fr"`
	It string `json:"it"`
	En string `json:"en"`
}

// English returns the English label, falling back to German.
func (t LocalizedText) English() string {
	if t.En != "" {
		return t.En
	}
	return t.De
}

// FlexString decodes a JSON string, number, or null into text.
// capitalNominal is sent as either depending on the record's age.
type FlexString string

func (s *FlexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case bytes.Equal(data, []byte("null")):
		*s = ""
	case len(data) > 0 && data[0] == '"':
		var v string
		if err := json.Unmarshal(data, &v); err != nil {
			return err
		}
		*s = FlexString(v)
	default:
		var n json.Number
		if err := json.Unmarshal(data, &n); err != nil {
			return fmt.Errorf("flex string: %w", err)
		}
		*s = FlexString(n.String())
	}
	return nil
}
