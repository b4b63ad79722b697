package directory

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/upb/triage-pipeline/models"
	"github.com/upb/triage-pipeline/services"
)

func TestDefault(t *testing.T) {
	d, err := Default()
	require.NoError(t, err)

	assert.Greater(t, d.Len(), 0)
	assert.NotEmpty(t, d.BySpecialty(models.SpecialtyGeneralPractice))
	assert.NotEmpty(t, d.BySpecialty("emergency_medicine"))
	assert.NotEmpty(t, d.BySpecialty("cardiology"))
}

func TestNew_Validation(t *testing.T) {
	tests := []struct {
		name      string
		providers []models.Provider
		sentinel  error
	}{
		{
			name:      "missing id",
			providers: []models.Provider{{Name: "Dr. A", Specialty: "cardiology"}},
			sentinel:  services.ErrInvalidDirectory,
		},
		{
			name:      "missing specialty",
			providers: []models.Provider{{ID: "P1", Name: "Dr. A"}},
			sentinel:  services.ErrInvalidDirectory,
		},
		{
			name: "duplicate id",
			providers: []models.Provider{
				{ID: "P1", Name: "Dr. A", Specialty: "cardiology"},
				{ID: "P1", Name: "Dr. B", Specialty: "neurology"},
			},
			sentinel: services.ErrDuplicateProvider,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := New(tt.providers)
			assert.Nil(t, d)
			assert.ErrorIs(t, err, tt.sentinel)
		})
	}
}

func TestBySpecialty_PreservesOrder(t *testing.T) {
	d, err := New([]models.Provider{
		{ID: "C1", Name: "Dr. One", Specialty: "cardiology"},
		{ID: "N1", Name: "Dr. Two", Specialty: "neurology"},
		{ID: "C2", Name: "Dr. Three", Specialty: "cardiology"},
	})
	require.NoError(t, err)

	got := d.BySpecialty("cardiology")
	require.Len(t, got, 2)
	assert.Equal(t, "C1", got[0].ID)
	assert.Equal(t, "C2", got[1].ID)

	assert.NotNil(t, d.BySpecialty("oncology"))
	assert.Empty(t, d.BySpecialty("oncology"))
}

func TestAccessorsReturnCopies(t *testing.T) {
	d, err := New([]models.Provider{
		{ID: "P1", Name: "Dr. A", Specialty: "cardiology", Languages: []string{"en"}},
	})
	require.NoError(t, err)

	all := d.All()
	all[0].Name = "changed"
	all[0].Languages[0] = "xx"

	again := d.All()
	assert.Equal(t, "Dr. A", again[0].Name)
	assert.Equal(t, []string{"en"}, again[0].Languages)
}

func TestParseJSON_UnknownField(t *testing.T) {
	_, err := ParseJSON([]byte(`[{"id":"P1","name":"Dr. A","specialty":"x","rating":5}]`))
	assert.ErrorIs(t, err, services.ErrInvalidDirectory)
}

func TestParseTOML(t *testing.T) {
	doc := `
[[providers]]
id = "P1"
name = "Dr. A"
specialty = "general_practice"
location = "Clinic"
languages = ["en", "es"]
accepting_new_patients = true

[[providers]]
id = "P2"
name = "Dr. B"
specialty = "cardiology"
`
	d, err := ParseTOML([]byte(doc))
	require.NoError(t, err)

	assert.Equal(t, 2, d.Len())
	gp := d.BySpecialty(models.SpecialtyGeneralPractice)
	require.Len(t, gp, 1)
	assert.Equal(t, []string{"en", "es"}, gp[0].Languages)
	assert.True(t, gp[0].AcceptingNewPatients)

	_, err = ParseTOML([]byte("[[providers]]\nid = \"P1\"\nname = \"A\"\nspecialty = \"x\"\nrating = 5\n"))
	assert.ErrorIs(t, err, services.ErrInvalidDirectory)
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	logger := zap.NewNop()

	jsonPath := filepath.Join(dir, "providers.json")
	require.NoError(t, os.WriteFile(jsonPath, []byte(`[{"id":"P1","name":"Dr. A","specialty":"general_practice"}]`), 0o600))

	d, err := Load(jsonPath, logger)
	require.NoError(t, err)
	assert.Equal(t, 1, d.Len())

	tomlPath := filepath.Join(dir, "providers.toml")
	require.NoError(t, os.WriteFile(tomlPath, []byte("[[providers]]\nid = \"P1\"\nname = \"A\"\nspecialty = \"x\"\n"), 0o600))

	d, err = Load(tomlPath, logger)
	require.NoError(t, err)
	assert.Equal(t, 1, d.Len())

	_, err = Load(filepath.Join(dir, "providers.yaml"), logger)
	assert.ErrorIs(t, err, services.ErrInvalidDirectory)

	d, err = Load("", logger)
	require.NoError(t, err)
	assert.Greater(t, d.Len(), 0)
}

func TestLoad_UnsupportedExtension(t *testing.T) {
	path := filepath.Join(t.TempDir(), "providers.csv")
	require.NoError(t, os.WriteFile(path, []byte("id,name"), 0o600))

	_, err := Load(path, zap.NewNop())
	assert.ErrorIs(t, err, services.ErrInvalidDirectory)
}
