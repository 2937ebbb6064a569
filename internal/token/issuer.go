// Package token signs and verifies session tokens. Verification here is
// purely cryptographic; equality with the user's stored token is checked
// one layer up so this primitive stays stateless and reusable.
package token

import (
	"context"
	"fmt"
	"strconv"
	"time"

	gojose "github.com/go-jose/go-jose/v4"
	gojwt "github.com/go-jose/go-jose/v4/jwt"
	"github.com/google/uuid"

	"github.com/ZLoganZ/SocialNetwork-Server/internal/domain"
	"github.com/ZLoganZ/SocialNetwork-Server/internal/ledger"
)

var allowedAlgorithms = []gojose.SignatureAlgorithm{gojose.HS256}

// Issuer mints signed session tokens and records each new token as the
// account's single live one.
type Issuer struct {
	secret []byte
	issuer string
	ttl    time.Duration
	ledger *ledger.Ledger
}

func NewIssuer(secret []byte, issuer string, ttl time.Duration, led *ledger.Ledger) *Issuer {
	return &Issuer{secret: secret, issuer: issuer, ttl: ttl, ledger: led}
}

// Issue signs a fresh token for userID and stores it on the user
// record. This is the only path that writes the stored token, which is
// what enforces at-most-one-live-token semantics.
func (i *Issuer) Issue(ctx context.Context, userID int64) (string, error) {
	signed, err := i.Sign(userID)
	if err != nil {
		return "", err
	}
	if err := i.ledger.SetSessionToken(ctx, userID, signed); err != nil {
		return "", fmt.Errorf("store session token: %w", err)
	}
	return signed, nil
}

// Sign produces a signed token without storing it.
func (i *Issuer) Sign(userID int64) (string, error) {
	signer, err := gojose.NewSigner(
		gojose.SigningKey{Algorithm: gojose.HS256, Key: i.secret},
		(&gojose.SignerOptions{}).WithType("JWT"),
	)
	if err != nil {
		return "", fmt.Errorf("new signer: %w", err)
	}

	now := time.Now().UTC()
	claims := gojwt.Claims{
		Subject:  strconv.FormatInt(userID, 10),
		Issuer:   i.issuer,
		ID:       uuid.NewString(),
		IssuedAt: gojwt.NewNumericDate(now),
		Expiry:   gojwt.NewNumericDate(now.Add(i.ttl)),
	}

	signed, err := gojwt.Signed(signer).Claims(claims).Serialize()
	if err != nil {
		return "", fmt.Errorf("serialize token: %w", err)
	}
	return signed, nil
}

// Verify checks signature and expiry only and returns the embedded user
// id. It deliberately does not consult stored state.
func (i *Issuer) Verify(raw string) (int64, error) {
	parsed, err := gojwt.ParseSigned(raw, allowedAlgorithms)
	if err != nil {
		return 0, domain.E(domain.KindInvalid, "Malformed token!")
	}

	var claims gojwt.Claims
	if err := parsed.Claims(i.secret, &claims); err != nil {
		return 0, domain.E(domain.KindInvalid, "Invalid token signature!")
	}

	if err := claims.Validate(gojwt.Expected{Issuer: i.issuer, Time: time.Now().UTC()}); err != nil {
		return 0, domain.E(domain.KindInvalid, "Token expired or not valid!")
	}

	userID, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil {
		return 0, domain.E(domain.KindInvalid, "Invalid token subject!")
	}
	return userID, nil
}
