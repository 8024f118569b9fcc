package telegram

// ItemAttribute classifies an item line's semantic role. The vocabulary is
// closed: adding a new dispensing code means extending prescriptionAttrs
// here, nowhere else.
type ItemAttribute string

const (
	// AttrPrescription tags a dispensed-drug (prescription) line.
	AttrPrescription ItemAttribute = "ID1"
)

var prescriptionAttrs = map[ItemAttribute]bool{
	AttrPrescription: true,
}

// IsPrescription reports whether the attribute denotes a dispensing line.
// Lines with other attributes are administrative rows: stored, but excluded
// from the prescription projection.
func (a ItemAttribute) IsPrescription() bool {
	return prescriptionAttrs[a]
}
