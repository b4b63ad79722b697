// Package rules implements the deterministic keyword classifier used when the
// model-backed triage path fails or is disabled.
package rules

import (
	"fmt"
	"strings"

	"github.com/upb/triage-pipeline/models"
)

// Confidence reported by rule-based results
const (
	KeywordConfidence = 0.5
	DefaultConfidence = 0.4
)

// SpecialtyEmergencyMedicine is assigned to every emergency keyword match
const SpecialtyEmergencyMedicine = "emergency_medicine"

// Order is the tie-break: the first phrase found wins.
var emergencyKeywords = []string{
	"chest pain", "heart attack", "can't breathe", "difficulty breathing",
	"unconscious", "severe bleeding", "stroke", "paralysis",
	"suicidal", "overdose", "poisoning",
}

var urgentKeywords = []string{
	"high fever", "severe pain", "vomiting blood", "broken bone",
	"deep cut", "head injury", "allergic reaction",
}

type specialtyRule struct {
	keyword   string
	specialty string
}

var specialtyRules = []specialtyRule{
	{"chest", "cardiology"},
	{"heart", "cardiology"},
	{"breathing", "pulmonology"},
	{"lung", "pulmonology"},
	{"stomach", "gastroenterology"},
	{"digestive", "gastroenterology"},
	{"skin", "dermatology"},
	{"rash", "dermatology"},
	{"bone", "orthopedics"},
	{"joint", "orthopedics"},
	{"head", "neurology"},
	{"headache", "neurology"},
	{"mental", "psychiatry"},
	{"anxiety", "psychiatry"},
	{"depression", "psychiatry"},
}

// Classify triages a case from its symptom descriptions and medical history
// using fixed keyword lists. It is pure: equal inputs give equal outputs.
func Classify(symptoms []string, history []string) models.TriageOutput {
	text := strings.ToLower(strings.Join(symptoms, " ") + " " + strings.Join(history, " "))

	if kw, ok := firstMatch(text, emergencyKeywords); ok {
		return models.TriageOutput{
			UrgencyLevel:         models.UrgencyEmergency,
			UrgencyReasoning:     fmt.Sprintf("Rule-based fallback: Emergency keyword detected '%s'", kw),
			RecommendedSpecialty: SpecialtyEmergencyMedicine,
			RecommendedCareType:  models.CareTypeEmergency,
			RedFlags:             []string{kw},
			Confidence:           KeywordConfidence,
			FallbackUsed:         true,
		}
	}

	if kw, ok := firstMatch(text, urgentKeywords); ok {
		return models.TriageOutput{
			UrgencyLevel:         models.UrgencyUrgent,
			UrgencyReasoning:     fmt.Sprintf("Rule-based fallback: Urgent keyword detected '%s'", kw),
			RecommendedSpecialty: models.SpecialtyGeneralPractice,
			RecommendedCareType:  models.CareTypeUrgentCare,
			RedFlags:             []string{kw},
			Confidence:           KeywordConfidence,
			FallbackUsed:         true,
		}
	}

	return models.TriageOutput{
		UrgencyLevel:         models.UrgencySemiUrgent,
		UrgencyReasoning:     "Rule-based fallback: No urgent keywords detected, defaulting to semi-urgent",
		RecommendedSpecialty: Specialty(text),
		RecommendedCareType:  models.CareTypeInPerson,
		RedFlags:             []string{},
		Confidence:           DefaultConfidence,
		FallbackUsed:         true,
	}
}

// Specialty maps lower-cased text to the first matching specialty, or
// general practice when no keyword is present.
func Specialty(text string) string {
	for _, r := range specialtyRules {
		if strings.Contains(text, r.keyword) {
			return r.specialty
		}
	}
	return models.SpecialtyGeneralPractice
}

func firstMatch(text string, keywords []string) (string, bool) {
	for _, kw := range keywords {
		if strings.Contains(text, kw) {
			return kw, true
		}
	}
	return "", false
}
