package utils

import (
	"crypto/rand"
	"errors"
	"math/big"
)

// ValidateLuhn checks if a string of digits ends with a correct Luhn check digit
func ValidateLuhn(number string) bool {
	if len(number) < 2 || !IsNumeric(number) {
		return false
	}
	return luhnSum(number, len(number)%2)%10 == 0
}

// LuhnCheckDigit returns the digit that makes payload+digit pass ValidateLuhn
func LuhnCheckDigit(payload string) (byte, error) {
	if payload == "" || !IsNumeric(payload) {
		return 0, errors.New("payload must be digits")
	}
	// The check digit will be appended, so doubling starts on the last payload digit.
	sum := luhnSum(payload, (len(payload)+1)%2)
	return byte('0' + (10-sum%10)%10), nil
}

// GenerateLuhnCode returns a random numeric code of length n whose last digit
// is the Luhn check digit of the rest.
func GenerateLuhnCode(n int) (string, error) {
	if n < 2 {
		return "", errors.New("code length must be at least 2")
	}
	buf := make([]byte, n)
	for i := 0; i < n-1; i++ {
		d, err := rand.Int(rand.Reader, big.NewInt(10))
		if err != nil {
			return "", err
		}
		buf[i] = byte('0' + d.Int64())
	}
	check, err := LuhnCheckDigit(string(buf[:n-1]))
	if err != nil {
		return "", err
	}
	buf[n-1] = check
	return string(buf), nil
}

// IsNumeric checks if a string contains only digits
func IsNumeric(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// luhnSum doubles every digit whose index has the given parity
func luhnSum(digits string, parity int) int {
	sum := 0
	for i, r := range digits {
		d := int(r - '0')
		if i%2 == parity {
			d *= 2
			if d > 9 {
				d -= 9
			}
		}
		sum += d
	}
	return sum
}
