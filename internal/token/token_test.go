package token

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func TestIssuer_IssueAndVerify(t *testing.T) {
	issuer := NewIssuer([]byte("test-secret"), time.Hour)

	tokenString, err := issuer.Issue("user@example.com")
	if err != nil {
		t.Fatalf("Issue returned error: %v", err)
	}
	if tokenString == "" {
		t.Fatal("Issue returned empty token")
	}

	claims, err := issuer.Verify(tokenString)
	if err != nil {
		t.Fatalf("Verify returned error: %v", err)
	}
	if claims.Email != "user@example.com" {
		t.Errorf("Email = %q, want %q", claims.Email, "user@example.com")
	}
}

func TestIssuer_TokenExpiryIsTTL(t *testing.T) {
	ttl := time.Hour
	issuer := NewIssuer([]byte("test-secret"), ttl)

	before := time.Now()
	tokenString, err := issuer.Issue("user@example.com")
	if err != nil {
		t.Fatalf("Issue returned error: %v", err)
	}
	after := time.Now()

	claims, err := issuer.Verify(tokenString)
	if err != nil {
		t.Fatalf("Verify returned error: %v", err)
	}

	// 有効期限は発行時刻+TTLちょうど
	exp := claims.ExpiresAt.Time
	if exp.Before(before.Add(ttl).Truncate(time.Second)) || exp.After(after.Add(ttl).Add(time.Second)) {
		t.Errorf("ExpiresAt = %v, want issued time + %v", exp, ttl)
	}
}

func TestIssuer_VerifyRejectsExpiredToken(t *testing.T) {
	// 負のTTLで既に期限切れのトークンを発行する
	issuer := NewIssuer([]byte("test-secret"), -time.Minute)

	tokenString, err := issuer.Issue("user@example.com")
	if err != nil {
		t.Fatalf("Issue returned error: %v", err)
	}

	if _, err := issuer.Verify(tokenString); err != ErrInvalidToken {
		t.Errorf("Verify(expired) = %v, want ErrInvalidToken", err)
	}
}

func TestIssuer_VerifyRejectsWrongSignature(t *testing.T) {
	issuer := NewIssuer([]byte("test-secret"), time.Hour)
	other := NewIssuer([]byte("another-secret"), time.Hour)

	tokenString, err := other.Issue("user@example.com")
	if err != nil {
		t.Fatalf("Issue returned error: %v", err)
	}

	if _, err := issuer.Verify(tokenString); err != ErrInvalidToken {
		t.Errorf("Verify(wrong signature) = %v, want ErrInvalidToken", err)
	}
}

func TestIssuer_VerifyRejectsMalformedToken(t *testing.T) {
	issuer := NewIssuer([]byte("test-secret"), time.Hour)

	tests := []struct {
		name  string
		token string
	}{
		{"empty", ""},
		{"garbage", "not-a-jwt"},
		{"truncated", "eyJhbGciOiJIUzI1NiJ9.eyJlbWFpbCI6"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := issuer.Verify(tt.token); err != ErrInvalidToken {
				t.Errorf("Verify(%q) = %v, want ErrInvalidToken", tt.token, err)
			}
		})
	}
}

func TestIssuer_VerifyRejectsMissingEmail(t *testing.T) {
	secret := []byte("test-secret")
	issuer := NewIssuer(secret, time.Hour)

	// メールアドレスなしの正規署名トークン
	raw := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		IssuedAt:  jwt.NewNumericDate(time.Now()),
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	})
	tokenString, err := raw.SignedString(secret)
	if err != nil {
		t.Fatalf("failed to sign token: %v", err)
	}

	if _, err := issuer.Verify(tokenString); err != ErrInvalidToken {
		t.Errorf("Verify(no email) = %v, want ErrInvalidToken", err)
	}
}

func TestIssuer_VerifyRejectsNoneAlgorithm(t *testing.T) {
	issuer := NewIssuer([]byte("test-secret"), time.Hour)

	// alg=noneのトークンは署名検証をすり抜けてはならない
	raw := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
		Email: "user@example.com",
	})
	tokenString, err := raw.SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatalf("failed to sign token: %v", err)
	}

	if _, err := issuer.Verify(tokenString); err != ErrInvalidToken {
		t.Errorf("Verify(alg=none) = %v, want ErrInvalidToken", err)
	}
}
