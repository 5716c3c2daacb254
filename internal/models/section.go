package models

import "fmt"

// Section represents one of the four independently scored skill sections
type Section string

// Section constants
const (
	SectionListening Section = "listening"
	SectionReading   Section = "reading"
	SectionWriting   Section = "writing"
	SectionSpeaking  Section = "speaking"
)

// Sections lists all sections in a stable order
var Sections = []Section{SectionListening, SectionReading, SectionWriting, SectionSpeaking}

// ParseSection converts a raw path value into a Section
func ParseSection(s string) (Section, error) {
	switch Section(s) {
	case SectionListening, SectionReading, SectionWriting, SectionSpeaking:
		return Section(s), nil
	default:
		return "", fmt.Errorf("%w: invalid section: %s, must be 'listening', 'reading', 'writing' or 'speaking'", ErrValidation, s)
	}
}

// HasQuestions reports whether blocks of the section carry multiple-choice questions
func (s Section) HasQuestions() bool {
	return s == SectionListening || s == SectionReading
}

// Vertical is the category key (track) a test and a user profile belong to
type Vertical int

// Vertical constants
const (
	VerticalGeneral    Vertical = 1
	VerticalTechnology Vertical = 2
	VerticalBusiness   Vertical = 3
	VerticalHealth     Vertical = 4
)

var verticalNames = map[Vertical]string{
	VerticalGeneral:    "General",
	VerticalTechnology: "Technology",
	VerticalBusiness:   "Business",
	VerticalHealth:     "Health",
}

// Valid reports whether the vertical is one of the known category keys
func (v Vertical) Valid() bool {
	_, ok := verticalNames[v]
	return ok
}

// String returns the display name of the vertical
func (v Vertical) String() string {
	if name, ok := verticalNames[v]; ok {
		return name
	}
	return fmt.Sprintf("Vertical(%d)", int(v))
}
