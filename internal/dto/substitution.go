package dto

import "github.com/edusys-id/substitution-api/internal/models"

// SubstitutionDetail pairs a substitution request with the slot it covers.
type SubstitutionDetail struct {
	Request models.SubstitutionRequest `json:"request"`
	Slot    *SlotView                  `json:"slot,omitempty"`
}

// NewSubstitutionDetail builds the detail view; slot may be nil when the
// underlying slot could not be loaded.
func NewSubstitutionDetail(request models.SubstitutionRequest, slot *models.TimeSlot) SubstitutionDetail {
	detail := SubstitutionDetail{Request: request}
	if slot != nil {
		view := NewSlotView(*slot)
		detail.Slot = &view
	}
	return detail
}

// CandidateList is the ranked eligibility response for a substitution
// request.
type CandidateList struct {
	RequestID  string                         `json:"request_id"`
	SlotID     string                         `json:"slot_id"`
	Candidates []models.SubstitutionCandidate `json:"candidates"`
}
