package token

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const testSecret = "test-token-secret-32bytes-long!!!"

func TestVerify_IssuedToken_ReturnsUserID(t *testing.T) {
	issuer := NewIssuer(testSecret, time.Hour)
	verifier := NewVerifier(testSecret)

	tokenString, err := issuer.Issue("user-123")
	if err != nil {
		t.Fatalf("failed to issue token: %v", err)
	}

	userID, err := verifier.Verify(tokenString)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if userID != "user-123" {
		t.Errorf("userID = %q, want %q", userID, "user-123")
	}
}

func TestVerify_MalformedToken_ReturnsErrInvalidToken(t *testing.T) {
	verifier := NewVerifier(testSecret)

	for _, tokenString := range []string{"", "not-a-jwt", "a.b.c"} {
		_, err := verifier.Verify(tokenString)
		if !errors.Is(err, ErrInvalidToken) {
			t.Errorf("Verify(%q) error = %v, want ErrInvalidToken", tokenString, err)
		}
	}
}

func TestVerify_WrongSecret_ReturnsErrInvalidToken(t *testing.T) {
	issuer := NewIssuer("another-secret-entirely-32bytes!!", time.Hour)
	verifier := NewVerifier(testSecret)

	tokenString, err := issuer.Issue("user-123")
	if err != nil {
		t.Fatalf("failed to issue token: %v", err)
	}

	_, err = verifier.Verify(tokenString)
	if !errors.Is(err, ErrInvalidToken) {
		t.Errorf("error = %v, want ErrInvalidToken", err)
	}
}

func TestVerify_ExpiredToken_ReturnsErrInvalidToken(t *testing.T) {
	issuer := NewIssuer(testSecret, -time.Minute)
	verifier := NewVerifier(testSecret)

	tokenString, err := issuer.Issue("user-123")
	if err != nil {
		t.Fatalf("failed to issue token: %v", err)
	}

	_, err = verifier.Verify(tokenString)
	if !errors.Is(err, ErrInvalidToken) {
		t.Errorf("error = %v, want ErrInvalidToken", err)
	}
}

func TestVerify_EmptyUserIDClaim_ReturnsErrInvalidToken(t *testing.T) {
	// userIdクレームを持たない構造的に不完全なトークン
	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	tokenString, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	if err != nil {
		t.Fatalf("failed to sign token: %v", err)
	}

	verifier := NewVerifier(testSecret)
	_, err = verifier.Verify(tokenString)
	if !errors.Is(err, ErrInvalidToken) {
		t.Errorf("error = %v, want ErrInvalidToken", err)
	}
}

func TestVerify_UnsignedToken_ReturnsErrInvalidToken(t *testing.T) {
	// alg=noneのトークンは署名方式の許可リストにより拒否される
	claims := &Claims{
		UserID: "user-123",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	tokenString, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatalf("failed to sign token: %v", err)
	}

	verifier := NewVerifier(testSecret)
	_, err = verifier.Verify(tokenString)
	if !errors.Is(err, ErrInvalidToken) {
		t.Errorf("error = %v, want ErrInvalidToken", err)
	}
}
