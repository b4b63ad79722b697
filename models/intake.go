package models

import "github.com/upb/triage-pipeline/utils"

// Patient holds the demographics extracted during intake
type Patient struct {
	Name   *string `json:"name"`
	Age    *int    `json:"age" validate:"omitempty,gte=0,lte=150"`
	Gender *string `json:"gender"`
}

// Symptom is a single complaint reported by the patient
type Symptom struct {
	Description string   `json:"description" validate:"required,notblank"`
	Duration    *string  `json:"duration"`
	Severity    *string  `json:"severity"`
	Modifiers   []string `json:"modifiers"`
}

// IntakeOutput is the structured record produced by the intake stage
type IntakeOutput struct {
	Patient            Patient   `json:"patient"`
	Symptoms           []Symptom `json:"symptoms" validate:"dive"`
	MedicalHistory     []string  `json:"medical_history"`
	CurrentMedications []string  `json:"current_medications"`
	Allergies          []string  `json:"allergies"`
	MissingInfo        []string  `json:"missing_info"`
	Confidence         float64   `json:"confidence" validate:"gte=0,lte=1"`
}

// Validate checks the intake output against its range constraints
func (o *IntakeOutput) Validate() error {
	o.normalize()
	return utils.ValidateStruct(o)
}

// SymptomDescriptions returns the symptom descriptions in reported order
func (o *IntakeOutput) SymptomDescriptions() []string {
	out := make([]string, len(o.Symptoms))
	for i, s := range o.Symptoms {
		out[i] = s.Description
	}
	return out
}

// normalize replaces nil lists with empty ones so the JSON form is stable
func (o *IntakeOutput) normalize() {
	if o.Symptoms == nil {
		o.Symptoms = []Symptom{}
	}
	for i := range o.Symptoms {
		if o.Symptoms[i].Modifiers == nil {
			o.Symptoms[i].Modifiers = []string{}
		}
	}
	o.MedicalHistory = emptyIfNil(o.MedicalHistory)
	o.CurrentMedications = emptyIfNil(o.CurrentMedications)
	o.Allergies = emptyIfNil(o.Allergies)
	o.MissingInfo = emptyIfNil(o.MissingInfo)
}

func emptyIfNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
