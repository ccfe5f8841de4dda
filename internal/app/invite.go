package app

import (
	"fmt"
	"time"

	"github.com/form3tech-oss/jwt-go"
)

// DefaultInviteTTL applies when no explicit invite lifetime is configured.
const DefaultInviteTTL = 72 * time.Hour

// InviteService mints and verifies signed party invite tokens. Tokens are
// self-contained so an invite keeps working while the lobby sits idle and
// the server holds no invite state.
type InviteService struct {
	secret string
	issuer string
	ttl    time.Duration
}

// InviteClaims is the verified content of an invite token.
type InviteClaims struct {
	PartyID   string
	InviterID string
}

// NewInviteService constructs an invite service. ttl values of zero or less
// fall back to DefaultInviteTTL.
func NewInviteService(secret, issuer string, ttl time.Duration) *InviteService {
	if ttl <= 0 {
		ttl = DefaultInviteTTL
	}
	return &InviteService{secret: secret, issuer: issuer, ttl: ttl}
}

// CreateToken signs an invite to partyID issued by inviterID.
func (s *InviteService) CreateToken(partyID, inviterID string) (string, error) {
	if s == nil {
		return "", fmt.Errorf("invite service is nil")
	}
	if partyID == "" || inviterID == "" {
		return "", fmt.Errorf("party id and inviter id are required")
	}
	if s.secret == "" || s.issuer == "" {
		return "", fmt.Errorf("invite config is incomplete")
	}

	now := time.Now()
	claims := jwt.MapClaims{
		"iss": s.issuer,
		"sub": partyID,
		"inv": inviterID,
		"iat": now.Unix(),
		"exp": now.Add(s.ttl).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.secret))
}

// ParseToken verifies the token's signature, issuer and expiry and returns
// its claims.
func (s *InviteService) ParseToken(tokenString string) (InviteClaims, error) {
	if s == nil || s.secret == "" || s.issuer == "" {
		return InviteClaims{}, fmt.Errorf("invite config is incomplete")
	}

	parsed, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(s.secret), nil
	})
	if err != nil {
		return InviteClaims{}, fmt.Errorf("parse invite token: %w", err)
	}

	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok || !parsed.Valid {
		return InviteClaims{}, fmt.Errorf("invite token rejected")
	}
	if iss, _ := claims["iss"].(string); iss != s.issuer {
		return InviteClaims{}, fmt.Errorf("invite token issuer mismatch")
	}

	partyID, _ := claims["sub"].(string)
	if partyID == "" {
		return InviteClaims{}, fmt.Errorf("invite token missing party id")
	}
	inviterID, _ := claims["inv"].(string)

	return InviteClaims{PartyID: partyID, InviterID: inviterID}, nil
}
