package agents

import (
	"math"
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/upb/triage-pipeline/models"
)

var (
	namePattern = regexp.MustCompile(`(?:i'm|my name is|soy)\s+([a-záéíóúñ\s]+?)(?:\s|,|$|\.|tengo)`)
	agePattern  = regexp.MustCompile(`(\d+)\s+(?:years old|años)`)

	hypertensionPattern = regexp.MustCompile(`(?:history of|historial de).*(?:hypertension|high blood pressure|hipertensión)`)
	cholesterolPattern  = regexp.MustCompile(`(?:history of|historial de).*(?:high cholesterol|colesterol alto)`)
)

// symptomPattern maps English and Spanish phrasings to one description
type symptomPattern struct {
	description string
	pattern     *regexp.Regexp
}

var symptomPatterns = []symptomPattern{
	{"chest pain", regexp.MustCompile(`chest pain|dolor de pecho`)},
	{"headache", regexp.MustCompile(`headache|head hurts|dolor de cabeza`)},
	{"fever", regexp.MustCompile(`fever|fiebre`)},
	{"difficulty breathing", regexp.MustCompile(`difficulty breathing|can't breathe|dificultad para respirar`)},
}

// Heuristic confidence weights
const (
	heuristicBaseConfidence  = 0.5
	heuristicFieldBonus      = 0.15
	heuristicDetailBonus     = 0.05
	heuristicShortConfidence = 0.4
)

// ExtractHeuristic builds an IntakeOutput from raw text with fixed patterns.
// It understands a handful of English and Spanish phrasings and never fails.
func ExtractHeuristic(raw string) *models.IntakeOutput {
	text := strings.ToLower(raw)
	out := &models.IntakeOutput{
		Symptoms:           []models.Symptom{},
		MedicalHistory:     []string{},
		CurrentMedications: []string{},
		Allergies:          []string{},
		MissingInfo:        []string{},
	}

	if m := namePattern.FindStringSubmatch(text); m != nil {
		if name := strings.TrimSpace(m[1]); name != "" {
			// A Caser keeps per-call state, so each extraction builds its own.
			name = cases.Title(language.Und).String(name)
			out.Patient.Name = &name
		}
	}

	if m := agePattern.FindStringSubmatch(text); m != nil {
		if age, err := strconv.Atoi(m[1]); err == nil {
			out.Patient.Age = &age
		}
	}

	for _, sp := range symptomPatterns {
		if sp.pattern.MatchString(text) {
			out.Symptoms = append(out.Symptoms, models.Symptom{Description: sp.description, Modifiers: []string{}})
		}
	}

	if hypertensionPattern.MatchString(text) {
		out.MedicalHistory = append(out.MedicalHistory, "hypertension")
	}
	if cholesterolPattern.MatchString(text) {
		out.MedicalHistory = append(out.MedicalHistory, "high cholesterol")
	}

	if out.Patient.Name == nil {
		out.MissingInfo = append(out.MissingInfo, "name")
	}
	if out.Patient.Age == nil {
		out.MissingInfo = append(out.MissingInfo, "age")
	}
	out.MissingInfo = append(out.MissingInfo, "gender")

	out.Confidence = heuristicConfidence(out, len(strings.Fields(text)))
	return out
}

func heuristicConfidence(out *models.IntakeOutput, words int) float64 {
	if words <= 4 {
		return heuristicShortConfidence
	}

	confidence := heuristicBaseConfidence
	if out.Patient.Name != nil {
		confidence += heuristicFieldBonus
	}
	if out.Patient.Age != nil && *out.Patient.Age > 0 {
		confidence += heuristicFieldBonus
	}
	if len(out.Symptoms) > 0 {
		confidence += heuristicFieldBonus
	}
	if words > 5 {
		confidence += heuristicDetailBonus
	}
	return math.Min(confidence, 1.0)
}
