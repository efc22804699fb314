package token

import (
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"golang.org/x/crypto/hkdf"

	"github.com/bravo6co-debug/BUZZ-Main-sub002/internal/buzz/models"
)

// TTL is the lifetime of every redemption token
const TTL = 5 * time.Minute

// Payload is the decoded content of a redemption token
type Payload struct {
	ID        string
	Kind      models.RedemptionKind
	SubjectID int64
	UserID    int64
	IssuedAt  time.Time
	TTL       time.Duration
}

// IsExpired reports whether the token is past its lifetime at now. now must
// come from the server clock, never from the client.
func IsExpired(p Payload, now time.Time) bool {
	return now.After(p.IssuedAt.Add(p.TTL))
}

type claims struct {
	Kind   models.RedemptionKind `json:"knd"`
	UserID int64                 `json:"uid"`
	TTL    int64                 `json:"ttl"`
	jwt.RegisteredClaims
}

// Codec signs and verifies redemption tokens
type Codec struct {
	key    []byte
	parser *jwt.Parser
}

// NewCodec creates a codec whose signing key is derived from secret
func NewCodec(secret string) (*Codec, error) {
	key, err := DeriveKey(secret, "buzz redemption token")
	if err != nil {
		return nil, err
	}
	return &Codec{
		key: key,
		// Expiry is checked against the server clock by IsExpired, so the
		// library's own time validation stays off.
		parser: jwt.NewParser(
			jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Name}),
			jwt.WithoutClaimsValidation(),
		),
	}, nil
}

// DeriveKey expands secret into a 32 byte key bound to purpose
func DeriveKey(secret, purpose string) ([]byte, error) {
	if secret == "" {
		return nil, errors.New("empty secret")
	}
	key := make([]byte, 32)
	r := hkdf.New(sha256.New, []byte(secret), nil, []byte(purpose))
	if _, err := io.ReadFull(r, key); err != nil {
		return nil, fmt.Errorf("derive %s key: %w", purpose, err)
	}
	return key, nil
}

// Encode produces a signed token for the subject owned by userID
func (c *Codec) Encode(kind models.RedemptionKind, subjectID, userID int64, issuedAt time.Time) (string, error) {
	if !kind.Valid() {
		return "", fmt.Errorf("unknown redemption kind %q", kind)
	}
	cl := claims{
		Kind:   kind,
		UserID: userID,
		TTL:    int64(TTL / time.Second),
		RegisteredClaims: jwt.RegisteredClaims{
			ID:       uuid.NewString(),
			Subject:  strconv.FormatInt(subjectID, 10),
			IssuedAt: jwt.NewNumericDate(issuedAt),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, cl).SignedString(c.key)
}

// Decode verifies the signature and shape of a token. Any failure is
// models.ErrMalformedToken; expiry is not checked here.
func (c *Codec) Decode(raw string) (Payload, error) {
	cl := &claims{}
	_, err := c.parser.ParseWithClaims(raw, cl, func(t *jwt.Token) (interface{}, error) {
		return c.key, nil
	})
	if err != nil {
		return Payload{}, fmt.Errorf("%w: %v", models.ErrMalformedToken, err)
	}

	subjectID, err := strconv.ParseInt(cl.Subject, 10, 64)
	if err != nil || subjectID <= 0 {
		return Payload{}, fmt.Errorf("%w: bad subject %q", models.ErrMalformedToken, cl.Subject)
	}
	if !cl.Kind.Valid() || cl.UserID <= 0 || cl.TTL <= 0 || cl.IssuedAt == nil {
		return Payload{}, models.ErrMalformedToken
	}

	return Payload{
		ID:        cl.ID,
		Kind:      cl.Kind,
		SubjectID: subjectID,
		UserID:    cl.UserID,
		IssuedAt:  cl.IssuedAt.Time,
		TTL:       time.Duration(cl.TTL) * time.Second,
	}, nil
}
