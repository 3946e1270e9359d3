package engine

// Priority labels the urgency of a substitution request.
type Priority string

const (
	PriorityCritical Priority = "critical"
	PriorityHigh     Priority = "high"
	PriorityMedium   Priority = "medium"
	PriorityNormal   Priority = "normal"
)

// Classify derives the urgency of covering a class from how far the class
// has progressed through its material and how heavily the subject is
// weighted. Rules are evaluated top to bottom and the first match wins; the
// comparisons are strict on purpose, so boundary values fall through to the
// next rule.
func Classify(progressPercent float64, subjectWeight int) Priority {
	if progressPercent < 50 && subjectWeight >= 4 {
		return PriorityCritical
	}
	if progressPercent < 75 && subjectWeight >= 3 {
		return PriorityHigh
	}
	if progressPercent < 75 {
		return PriorityMedium
	}
	return PriorityNormal
}
