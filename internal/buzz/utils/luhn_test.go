package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateLuhn(t *testing.T) {
	assert.True(t, ValidateLuhn("79927398713"))
	assert.True(t, ValidateLuhn("4561261212345467"))
	assert.False(t, ValidateLuhn("79927398710"))
	assert.False(t, ValidateLuhn("4561261212345464"))
	assert.False(t, ValidateLuhn("12a4"))
	assert.False(t, ValidateLuhn(""))
}

func TestLuhnCheckDigit(t *testing.T) {
	d, err := LuhnCheckDigit("7992739871")
	require.NoError(t, err)
	assert.Equal(t, byte('3'), d)

	_, err = LuhnCheckDigit("12x")
	assert.Error(t, err)
}

func TestGenerateLuhnCode(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 50; i++ {
		code, err := GenerateLuhnCode(12)
		require.NoError(t, err)
		assert.Len(t, code, 12)
		assert.True(t, ValidateLuhn(code), code)
		seen[code] = true
	}
	assert.Greater(t, len(seen), 45)

	_, err := GenerateLuhnCode(1)
	assert.Error(t, err)
}
