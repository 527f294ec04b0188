package enums

import "fmt"

// QualityGrade is the classifier's condition grade, A (best) through D (worst).
type QualityGrade string

const (
	QualityGradeA QualityGrade = "A"
	QualityGradeB QualityGrade = "B"
	QualityGradeC QualityGrade = "C"
	QualityGradeD QualityGrade = "D"
)

var validQualityGrades = []QualityGrade{
	QualityGradeA,
	QualityGradeB,
	QualityGradeC,
	QualityGradeD,
}

// QualityGradeLowest is the grade assigned when classification degrades.
const QualityGradeLowest = QualityGradeD

// String implements fmt.Stringer.
func (g QualityGrade) String() string {
	return string(g)
}

// IsValid reports whether the value is a known QualityGrade.
func (g QualityGrade) IsValid() bool {
	for _, candidate := range validQualityGrades {
		if candidate == g {
			return true
		}
	}
	return false
}

// ParseQualityGrade converts raw input into a QualityGrade.
func ParseQualityGrade(value string) (QualityGrade, error) {
	for _, candidate := range validQualityGrades {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid quality grade %q", value)
}
