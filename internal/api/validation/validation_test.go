package validation_test

import (
	"testing"

	"github.com/mahosalu/estadisticas/internal/api/validation"
	"github.com/stretchr/testify/assert"
)

func TestIsValidEmail(t *testing.T) {
	assert.True(t, validation.IsValidEmail("laura@example.com"))
	assert.True(t, validation.IsValidEmail("laura.mendez+bi@salud.gob.ar"))
	assert.False(t, validation.IsValidEmail(""))
	assert.False(t, validation.IsValidEmail("sin-arroba"))
	assert.False(t, validation.IsValidEmail("@example.com"))
}

func TestIsValidPassword(t *testing.T) {
	cases := []struct {
		name     string
		password string
		ok       bool
	}{
		{"meets policy", "Password1", true},
		{"too short", "Pass1", false},
		{"no uppercase", "password1", false},
		{"no digit", "Contrasena", false},
		{"empty", "", false},
		{"long and valid", "UnaClaveMuyLarga2024", true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ok, msg := validation.IsValidPassword(tc.password)
			assert.Equal(t, tc.ok, ok)
			if !tc.ok {
				assert.NotEmpty(t, msg)
			}
		})
	}
}

func TestIsValidUUID(t *testing.T) {
	assert.True(t, validation.IsValidUUID("0d1f6ec2-90ab-4a6c-9cf1-1a8f9a3f1a2b"))
	assert.False(t, validation.IsValidUUID(""))
	assert.False(t, validation.IsValidUUID("123"))
}
