package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testContact struct {
	Phone string `json:"phone" validate:"required"`
}

type testSubmission struct {
	Input    string        `json:"patient_input" validate:"notblank"`
	Age      *int          `json:"age,omitempty" validate:"omitempty,gte=0,lte=150"`
	Level    int           `json:"level" validate:"gte=1,lte=5"`
	Kind     string        `json:"kind" validate:"omitempty,oneof=a b"`
	Contacts []testContact `json:"contacts" validate:"dive"`
	Internal string        `json:"-" validate:"required"`
	NoTag    string        `validate:"required"`
}

func validSubmission() testSubmission {
	return testSubmission{
		Input:    "chest pain",
		Level:    3,
		Contacts: []testContact{{Phone: "555"}},
		Internal: "x",
		NoTag:    "y",
	}
}

func TestValidateStruct(t *testing.T) {
	age := func(v int) *int { return &v }

	tests := []struct {
		name      string
		mutate    func(s *testSubmission)
		wantField string
		wantMsg   string
	}{
		{
			name:      "blank input",
			mutate:    func(s *testSubmission) { s.Input = "   " },
			wantField: "patient_input",
			wantMsg:   "patient_input must not be blank",
		},
		{
			name:      "age above range",
			mutate:    func(s *testSubmission) { s.Age = age(151) },
			wantField: "age",
			wantMsg:   "age must be less than or equal to 150",
		},
		{
			name:      "level below range",
			mutate:    func(s *testSubmission) { s.Level = 0 },
			wantField: "level",
			wantMsg:   "level must be greater than or equal to 1",
		},
		{
			name:      "oneof",
			mutate:    func(s *testSubmission) { s.Kind = "c" },
			wantField: "kind",
			wantMsg:   "kind must be one of: a b",
		},
		{
			name:      "nested field uses dotted json path",
			mutate:    func(s *testSubmission) { s.Contacts = append(s.Contacts, testContact{}) },
			wantField: "contacts[1].phone",
			wantMsg:   "contacts[1].phone is required",
		},
		{
			name:      "field without json tag keeps go name",
			mutate:    func(s *testSubmission) { s.NoTag = "" },
			wantField: "NoTag",
			wantMsg:   "NoTag is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := validSubmission()
			tt.mutate(&s)

			err := ValidateStruct(&s)
			require.Error(t, err)
			assert.True(t, IsValidationError(err))

			fields := GetValidationFields(err)
			require.Contains(t, fields, tt.wantField)
			assert.Equal(t, tt.wantMsg, fields[tt.wantField])
		})
	}

	t.Run("valid struct", func(t *testing.T) {
		s := validSubmission()
		s.Age = age(0)
		assert.NoError(t, ValidateStruct(&s))
	})
}

func TestValidationError_Error(t *testing.T) {
	t.Run("message only", func(t *testing.T) {
		err := &ValidationError{Message: "Validation failed"}
		assert.Equal(t, "Validation failed", err.Error())
	})

	t.Run("fields are sorted by key", func(t *testing.T) {
		err := &ValidationError{
			Message: "Validation failed",
			Fields: map[string]string{
				"urgency_level": "urgency_level must be at most 5",
				"age":           "age must be at most 150",
			},
		}
		assert.Equal(t, "Validation failed: age must be at most 150; urgency_level must be at most 5", err.Error())
	})
}

func TestIsValidationError(t *testing.T) {
	assert.True(t, IsValidationError(&ValidationError{Message: "test"}))
	assert.False(t, IsValidationError(assert.AnError))
	assert.Nil(t, GetValidationFields(assert.AnError))
}
