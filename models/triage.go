package models

import "github.com/upb/triage-pipeline/utils"

// UrgencyLevel classifies how soon a patient must be seen (1 is most urgent)
type UrgencyLevel = int

const (
	UrgencyEmergency  UrgencyLevel = 1 // immediate attention
	UrgencyUrgent     UrgencyLevel = 2 // same day
	UrgencySemiUrgent UrgencyLevel = 3 // within 24-48 hours
	UrgencyRoutine    UrgencyLevel = 4 // within a week
	UrgencyPreventive UrgencyLevel = 5 // scheduled preventive care
)

// CareType is the recommended care setting
type CareType string

const (
	CareTypeEmergency  CareType = "emergency"
	CareTypeUrgentCare CareType = "urgent_care"
	CareTypeInPerson   CareType = "in_person"
	CareTypeTelehealth CareType = "telehealth"
	CareTypeRoutine    CareType = "routine"
)

// TriageOutput is the urgency classification produced by the triage stage
type TriageOutput struct {
	UrgencyLevel         int      `json:"urgency_level" validate:"gte=1,lte=5"`
	UrgencyReasoning     string   `json:"urgency_reasoning"`
	RecommendedSpecialty string   `json:"recommended_specialty" validate:"required"`
	RecommendedCareType  CareType `json:"recommended_care_type" validate:"required,oneof=emergency urgent_care in_person telehealth routine"`
	RedFlags             []string `json:"red_flags"`
	Confidence           float64  `json:"confidence" validate:"gte=0,lte=1"`
	FallbackUsed         bool     `json:"fallback_used"`
}

// Validate checks the triage output against its range constraints
func (o *TriageOutput) Validate() error {
	o.RedFlags = emptyIfNil(o.RedFlags)
	return utils.ValidateStruct(o)
}
