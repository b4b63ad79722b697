package models

import "github.com/upb/triage-pipeline/utils"

// SpecialtyGeneralPractice is the specialty used when nothing more specific matches
const SpecialtyGeneralPractice = "general_practice"

// Provider is a clinician entry from the provider directory
type Provider struct {
	ID                   string   `json:"id" toml:"id" validate:"required"`
	Name                 string   `json:"name" toml:"name" validate:"required"`
	Specialty            string   `json:"specialty" toml:"specialty" validate:"required"`
	Location             string   `json:"location" toml:"location"`
	Languages            []string `json:"languages" toml:"languages"`
	AcceptingNewPatients bool     `json:"accepting_new_patients" toml:"accepting_new_patients"`
}

// TimeSlot is an appointment slot offered by a provider
type TimeSlot struct {
	Date     string `json:"date" validate:"required,datetime=2006-01-02"`
	Time     string `json:"time" validate:"required,datetime=15:04"`
	SlotType string `json:"slot_type" validate:"required,oneof=in_person telehealth"`
}

// RoutingOutput is the provider match produced by the routing stage
type RoutingOutput struct {
	RecommendedProvider  Provider   `json:"recommended_provider"`
	AvailableSlots       []TimeSlot `json:"available_slots" validate:"dive"`
	RoutingReasoning     string     `json:"routing_reasoning" validate:"required"`
	AlternativeProviders []Provider `json:"alternative_providers" validate:"dive"`
	Confidence           float64    `json:"confidence" validate:"gte=0,lte=1"`
}

// Validate checks the routing output against its range constraints
func (o *RoutingOutput) Validate() error {
	if o.AvailableSlots == nil {
		o.AvailableSlots = []TimeSlot{}
	}
	if o.AlternativeProviders == nil {
		o.AlternativeProviders = []Provider{}
	}
	return utils.ValidateStruct(o)
}

// Validate checks that a directory entry carries the required identifiers
func (p Provider) Validate() error {
	return utils.ValidateStruct(p)
}
