package app

import (
	"fmt"
	"testing"
	"time"

	"github.com/form3tech-oss/jwt-go"
)

func TestInviteTokenRoundTrip(t *testing.T) {
	svc := NewInviteService("test-secret", "sketchrelay", time.Hour)

	tokenString, err := svc.CreateToken("party-1", "p1")
	if err != nil {
		t.Fatalf("CreateToken() error = %v", err)
	}

	claims, err := svc.ParseToken(tokenString)
	if err != nil {
		t.Fatalf("ParseToken() error = %v", err)
	}
	if claims.PartyID != "party-1" {
		t.Errorf("PartyID = %s, want party-1", claims.PartyID)
	}
	if claims.InviterID != "p1" {
		t.Errorf("InviterID = %s, want p1", claims.InviterID)
	}
}

func TestInviteTokenClaims(t *testing.T) {
	svc := NewInviteService("test-secret", "sketchrelay", time.Hour)

	tokenString, err := svc.CreateToken("party-1", "p1")
	if err != nil {
		t.Fatalf("CreateToken() error = %v", err)
	}

	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte("test-secret"), nil
	})
	if err != nil {
		t.Fatalf("parse token error: %v", err)
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		t.Fatal("claims are not map claims")
	}

	if got := stringClaim(t, claims, "iss"); got != "sketchrelay" {
		t.Errorf("iss = %s, want sketchrelay", got)
	}
	if got := stringClaim(t, claims, "sub"); got != "party-1" {
		t.Errorf("sub = %s, want party-1", got)
	}
	if got := stringClaim(t, claims, "inv"); got != "p1" {
		t.Errorf("inv = %s, want p1", got)
	}
	if _, ok := claims["exp"]; !ok {
		t.Error("missing exp claim")
	}
}

func TestParseTokenRejectsWrongSecret(t *testing.T) {
	minter := NewInviteService("secret-a", "sketchrelay", time.Hour)
	verifier := NewInviteService("secret-b", "sketchrelay", time.Hour)

	tokenString, err := minter.CreateToken("party-1", "p1")
	if err != nil {
		t.Fatalf("CreateToken() error = %v", err)
	}
	if _, err := verifier.ParseToken(tokenString); err == nil {
		t.Fatal("ParseToken() accepted a token signed with another secret")
	}
}

func TestParseTokenRejectsExpired(t *testing.T) {
	svc := NewInviteService("test-secret", "sketchrelay", time.Hour)

	claims := jwt.MapClaims{
		"iss": "sketchrelay",
		"sub": "party-1",
		"inv": "p1",
		"exp": time.Now().Add(-time.Minute).Unix(),
	}
	tokenString, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatalf("sign token error: %v", err)
	}

	if _, err := svc.ParseToken(tokenString); err == nil {
		t.Fatal("ParseToken() accepted an expired token")
	}
}

func TestParseTokenRejectsIssuerMismatch(t *testing.T) {
	minter := NewInviteService("test-secret", "other-app", time.Hour)
	verifier := NewInviteService("test-secret", "sketchrelay", time.Hour)

	tokenString, err := minter.CreateToken("party-1", "p1")
	if err != nil {
		t.Fatalf("CreateToken() error = %v", err)
	}
	if _, err := verifier.ParseToken(tokenString); err == nil {
		t.Fatal("ParseToken() accepted a token from another issuer")
	}
}

func TestParseTokenRequiresPartyID(t *testing.T) {
	svc := NewInviteService("test-secret", "sketchrelay", time.Hour)

	claims := jwt.MapClaims{
		"iss": "sketchrelay",
		"inv": "p1",
		"exp": time.Now().Add(time.Hour).Unix(),
	}
	tokenString, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatalf("sign token error: %v", err)
	}

	if _, err := svc.ParseToken(tokenString); err == nil {
		t.Fatal("ParseToken() accepted a token without a party id")
	}
}

func TestCreateTokenRequiresConfig(t *testing.T) {
	svc := NewInviteService("", "sketchrelay", time.Hour)
	if _, err := svc.CreateToken("party-1", "p1"); err == nil {
		t.Fatal("expected error for missing invite config")
	}

	svc = NewInviteService("secret", "sketchrelay", time.Hour)
	if _, err := svc.CreateToken("", "p1"); err == nil {
		t.Fatal("expected error for missing party id")
	}
	if _, err := svc.CreateToken("party-1", ""); err == nil {
		t.Fatal("expected error for missing inviter id")
	}
}

func stringClaim(t *testing.T, claims jwt.MapClaims, name string) string {
	t.Helper()
	value, ok := claims[name]
	if !ok {
		t.Fatalf("missing %s claim", name)
	}
	str, ok := value.(string)
	if !ok {
		t.Fatalf("%s claim is not a string", name)
	}
	return str
}
