package registrationService

import (
	"testing"

	"ekyc-backend/internal/api/registration"
	"ekyc-backend/internal/entity"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDigestID(t *testing.T) {
	first := digestID("ABCDE1234F")
	second := digestID("ABCDE1234F")

	assert.Equal(t, first, second, "same input must digest identically")
	assert.Len(t, first, 64)
	assert.Regexp(t, "^[0-9a-f]{64}$", first)

	assert.NotEqual(t, first, digestID("ABCDE1234G"))
}

func TestNormalizeDOB(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "already canonical",
			input:    "1994-03-21",
			expected: "1994-03-21",
		},
		{
			name:     "dashed day first",
			input:    "21-03-1994",
			expected: "1994-03-21",
		},
		{
			name:     "slashed day first",
			input:    "21/03/1994",
			expected: "1994-03-21",
		},
		{
			name:     "unparseable kept verbatim",
			input:    "21 March 1994",
			expected: "21 March 1994",
		},
		{
			name:     "empty kept verbatim",
			input:    "",
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, normalizeDOB(tt.input))
		})
	}
}

func TestNormalizeDOBIdempotent(t *testing.T) {
	once := normalizeDOB("21/03/1994")
	assert.Equal(t, once, normalizeDOB(once))
}

func TestNormalizeIdentity(t *testing.T) {
	fields := registration.IdentityFields{
		registration.FieldID:         "ABCDE1234F",
		registration.FieldName:       "Rakesh Kumar",
		registration.FieldFatherName: "Suresh Kumar",
		registration.FieldDOB:        "21/03/1994",
	}

	record := normalizeIdentity(entity.DocumentTypePAN, fields)

	require.Equal(t, entity.DocumentTypePAN, record.DocumentType)
	assert.Equal(t, digestID("ABCDE1234F"), record.IDDigest)
	assert.NotContains(t, record.IDDigest, "ABCDE1234F", "raw ID must not survive normalization")
	assert.Equal(t, "Rakesh Kumar", record.Name)
	assert.Equal(t, "Suresh Kumar", record.FatherName)
	assert.Equal(t, "1994-03-21", record.DOB)
	assert.Empty(t, record.Embedding, "embedding is attached after the duplicate check, not here")
}
