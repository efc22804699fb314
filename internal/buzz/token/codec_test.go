package token

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bravo6co-debug/BUZZ-Main-sub002/internal/buzz/models"
)

func newTestCodec(t *testing.T) *Codec {
	t.Helper()
	c, err := NewCodec("test-secret")
	require.NoError(t, err)
	return c
}

func TestEncodeDecode(t *testing.T) {
	c := newTestCodec(t)
	issued := time.Date(2026, 10, 15, 9, 30, 0, 0, time.UTC)

	raw, err := c.Encode(models.KindCoupon, 42, 7, issued)
	require.NoError(t, err)

	p, err := c.Decode(raw)
	require.NoError(t, err)
	assert.Equal(t, models.KindCoupon, p.Kind)
	assert.Equal(t, int64(42), p.SubjectID)
	assert.Equal(t, int64(7), p.UserID)
	assert.True(t, p.IssuedAt.Equal(issued))
	assert.Equal(t, TTL, p.TTL)
	assert.NotEmpty(t, p.ID)
}

func TestTokensAreUnique(t *testing.T) {
	c := newTestCodec(t)
	issued := time.Now()
	a, err := c.Encode(models.KindMileage, 1, 1, issued)
	require.NoError(t, err)
	b, err := c.Encode(models.KindMileage, 1, 1, issued)
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestIsExpired(t *testing.T) {
	issued := time.Date(2026, 10, 15, 9, 30, 0, 0, time.UTC)
	p := Payload{IssuedAt: issued, TTL: 300 * time.Second}

	assert.False(t, IsExpired(p, issued))
	assert.False(t, IsExpired(p, issued.Add(300*time.Second)))
	assert.True(t, IsExpired(p, issued.Add(301*time.Second)))
}

func TestDecodeRejectsGarbage(t *testing.T) {
	c := newTestCodec(t)
	for _, raw := range []string{"", "abc", "a.b.c"} {
		_, err := c.Decode(raw)
		assert.ErrorIs(t, err, models.ErrMalformedToken, "raw=%q", raw)
	}
}

func TestDecodeRejectsForeignSignature(t *testing.T) {
	other, err := NewCodec("another-secret")
	require.NoError(t, err)
	raw, err := other.Encode(models.KindCoupon, 1, 1, time.Now())
	require.NoError(t, err)

	_, err = newTestCodec(t).Decode(raw)
	assert.ErrorIs(t, err, models.ErrMalformedToken)
}

func TestDecodeRejectsTamperedPayload(t *testing.T) {
	c := newTestCodec(t)
	raw, err := c.Encode(models.KindCoupon, 1, 1, time.Now())
	require.NoError(t, err)

	parts := strings.Split(raw, ".")
	require.Len(t, parts, 3)
	parts[1] = parts[1][:len(parts[1])-2] + "AA"

	_, err = c.Decode(strings.Join(parts, "."))
	assert.ErrorIs(t, err, models.ErrMalformedToken)
}

func TestEncodeRejectsUnknownKind(t *testing.T) {
	_, err := newTestCodec(t).Encode("voucher", 1, 1, time.Now())
	assert.Error(t, err)
}

func TestDecodeIgnoresClientClock(t *testing.T) {
	// A token issued long ago still decodes; expiry is a separate,
	// server-side decision.
	c := newTestCodec(t)
	raw, err := c.Encode(models.KindCoupon, 5, 6, time.Now().Add(-24*time.Hour))
	require.NoError(t, err)

	p, err := c.Decode(raw)
	require.NoError(t, err)
	assert.True(t, IsExpired(p, time.Now()))
}

func TestDeriveKeyDependsOnPurpose(t *testing.T) {
	a, err := DeriveKey("s", "one")
	require.NoError(t, err)
	b, err := DeriveKey("s", "two")
	require.NoError(t, err)
	assert.Len(t, a, 32)
	assert.NotEqual(t, a, b)

	_, err = DeriveKey("", "one")
	assert.Error(t, err)
}
