package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateISODate(t *testing.T) {
	assert.NoError(t, ValidateISODate("2024-02-29"))
	assert.Error(t, ValidateISODate("2023-02-29"))
	assert.Error(t, ValidateISODate("2024/01/10"))
	assert.Error(t, ValidateISODate(""))
}

func TestParseAmount(t *testing.T) {
	amount, err := ParseAmount(" 1234.50 ")
	require.NoError(t, err)
	assert.Equal(t, "1234.5", amount.String())

	_, err = ParseAmount("-1")
	assert.ErrorContains(t, err, "negative")

	_, err = ParseAmount("10.005")
	assert.ErrorContains(t, err, "two decimal places")

	_, err = ParseAmount("ten")
	assert.ErrorContains(t, err, "decimal number")
}

func TestParseRate(t *testing.T) {
	rate, err := ParseRate("0.21", "vatRate")
	require.NoError(t, err)
	assert.Equal(t, "0.21", rate.String())

	_, err = ParseRate("-0.15", "withholdingRate")
	assert.ErrorContains(t, err, "withholdingRate must not be negative")
}
