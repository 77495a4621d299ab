package auth

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const resetAudience = "password-reset"

// ResetClaims is the payload of a password-reset link. It carries no
// role, so ParseToken refuses it as a session token, and its audience
// keeps session tokens out of ParseResetToken.
//
// Fingerprint is derived from the password hash at issue time. Once the
// password changes the fingerprint no longer matches, which makes every
// link single use.
type ResetClaims struct {
	UserID      uuid.UUID `json:"user_id"`
	Fingerprint string    `json:"fp"`
	jwt.RegisteredClaims
}

// PasswordFingerprint is the short digest of a password hash that reset
// links are bound to.
func PasswordFingerprint(passwordHash string) string {
	sum := sha256.Sum256([]byte(passwordHash))
	return hex.EncodeToString(sum[:8])
}

func GenerateResetToken(userID uuid.UUID, passwordHash, secret string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := ResetClaims{
		UserID:      userID,
		Fingerprint: PasswordFingerprint(passwordHash),
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    issuer,
			Audience:  jwt.ClaimStrings{resetAudience},
			Subject:   userID.String(),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("sign reset token: %w", err)
	}
	return signed, nil
}

// ParseResetToken checks signature, expiry and audience. The caller
// still has to compare Fingerprint against the current password hash.
func ParseResetToken(tokenString, secret string) (*ResetClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &ResetClaims{},
		func(token *jwt.Token) (any, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
			}
			return []byte(secret), nil
		},
		jwt.WithIssuer(issuer),
		jwt.WithAudience(resetAudience),
	)
	if err != nil {
		return nil, fmt.Errorf("parse reset token: %w", err)
	}

	claims, ok := token.Claims.(*ResetClaims)
	if !ok || !token.Valid || claims.UserID == uuid.Nil || claims.Fingerprint == "" {
		return nil, fmt.Errorf("invalid reset token claims")
	}
	return claims, nil
}
