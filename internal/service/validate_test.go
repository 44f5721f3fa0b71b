package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsValidEmail(t *testing.T) {
	valid := []string{"user@example.com", "a+b@sub.example.org"}
	invalid := []string{"", "not-an-email", "user@", "@example.com", "User Name <user@example.com>"}

	for _, email := range valid {
		assert.True(t, IsValidEmail(email), email)
	}
	for _, email := range invalid {
		assert.False(t, IsValidEmail(email), email)
	}
}

func TestValidateRegister(t *testing.T) {
	assert.NoError(t, ValidateRegister("user@example.com", "secret123"))

	err := ValidateRegister("bad-email", "short")
	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Len(t, vErr.Fields, 2)
}

func TestValidateRegisterShortPassword(t *testing.T) {
	err := ValidateRegister("user@example.com", "12345")

	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)
	require.Len(t, vErr.Fields, 1)
	assert.Equal(t, "password", vErr.Fields[0].Field)
}

func TestValidateLogin(t *testing.T) {
	assert.NoError(t, ValidateLogin("user@example.com", "x"))

	err := ValidateLogin("user@example.com", "")
	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)
	require.Len(t, vErr.Fields, 1)
	assert.Equal(t, "password", vErr.Fields[0].Field)
}

func TestValidateCreateOrderServiceRules(t *testing.T) {
	input := CreateOrderInput{
		Lab:      "Lab A",
		Patient:  "Patient A",
		Customer: "Customer A",
		Services: []ServiceItemInput{
			{Name: "", Value: 10},
			{Name: "Service 2", Value: 0},
		},
	}

	err := ValidateCreateOrder(input)

	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Len(t, vErr.Fields, 2)
	assert.Equal(t, "services.0.name", vErr.Fields[0].Field)
	assert.Equal(t, "services.1.value", vErr.Fields[1].Field)
}
