package normalize

// Field is one optional output column group.
type Field uint16

const (
	FieldLegalSeat Field = 1 << iota
	FieldExcerpt
	FieldStatus
	FieldDeleteDate
	FieldWasTakenOverBy
	FieldLegalForm
	FieldPurpose
	FieldCapital
	FieldCounts  // n_of_shabPub, n_of_branchOffices, n_of_oldNames, n_of_hasTakenOver
	FieldAddress // town, swissZipCode
)

// FieldSelector is the set of optional fields a view populates. name,
// ehraid and cancelled are always set.
type FieldSelector Field

// Presets for the three views.
var (
	SearchFields = Select(FieldLegalSeat, FieldExcerpt, FieldStatus, FieldDeleteDate,
		FieldWasTakenOverBy, FieldPurpose, FieldLegalForm, FieldCounts, FieldAddress)
	TakeoverFields = Select(FieldLegalSeat, FieldLegalForm, FieldStatus, FieldExcerpt, FieldDeleteDate)
	AcquirerFields = Select(FieldLegalSeat, FieldLegalForm, FieldStatus, FieldExcerpt, FieldDeleteDate,
		FieldPurpose, FieldCapital)
)

// Select builds a selector from fields.
func Select(fields ...Field) FieldSelector {
	var s FieldSelector
	for _, f := range fields {
		s |= FieldSelector(f)
	}
	return s
}

// Has reports whether f is selected.
func (s FieldSelector) Has(f Field) bool { return s&FieldSelector(f) != 0 }
