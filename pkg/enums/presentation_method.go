package enums

import "fmt"

// PresentationMethod records how a quote was shown to the patient.
type PresentationMethod string

const (
	PresentationInPerson PresentationMethod = "in_person"
	PresentationEmail    PresentationMethod = "email"
	PresentationPrint    PresentationMethod = "print"
)

var validPresentationMethods = []PresentationMethod{
	PresentationInPerson,
	PresentationEmail,
	PresentationPrint,
}

// IsValid reports whether the value is a known PresentationMethod.
func (m PresentationMethod) IsValid() bool {
	for _, candidate := range validPresentationMethods {
		if candidate == m {
			return true
		}
	}
	return false
}

// ParsePresentationMethod converts raw input into a PresentationMethod.
func ParsePresentationMethod(value string) (PresentationMethod, error) {
	for _, candidate := range validPresentationMethods {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid presentation method %q", value)
}
