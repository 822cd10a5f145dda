package validator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsRoman(t *testing.T) {
	for _, s := range []string{"I", "IV", "XII", "XX", "MCMXCIV", "No. XV", "no X", " III "} {
		assert.True(t, IsRoman(s), s)
	}
	for _, s := range []string{"", "IIII", "12", "VX", "No.", "abc", "xii"} {
		assert.False(t, IsRoman(s), s)
	}
}

type item struct {
	Drug     string `json:"drug_name" validate:"required"`
	Quantity string `json:"quantity" validate:"required,roman"`
	Role     string `json:"role" validate:"omitempty,role"`
}

func TestValidate(t *testing.T) {
	v := New()

	require.NoError(t, v.Validate(item{Drug: "Amoxicillin", Quantity: "XV", Role: "doctor"}))

	err := v.Validate(item{Quantity: "15"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "drug_name is required")
	assert.Contains(t, err.Error(), "quantity must be a Roman numeral")

	err = v.Validate(item{Drug: "x", Quantity: "X", Role: "nurse"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "role must be one of")
}

func TestValidateField(t *testing.T) {
	v := New()

	assert.NoError(t, v.ValidateField("status", "Done", "required", "max=64"))
	err := v.ValidateField("status", "", "required")
	require.Error(t, err)
	assert.Equal(t, "status is required", err.Error())
}
