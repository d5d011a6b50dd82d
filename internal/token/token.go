// Package token はセッショントークンの発行と検証を提供する。
//
// トークンはHS256で署名されたJWTであり、userIdクレームにユーザーIDを持つ。
// 検証失敗の原因（形式不正・署名不正・期限切れ・クレーム欠落）は呼び出し側に
// 区別させず、一律にErrInvalidTokenとして扱う。
package token

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalidToken は検証に失敗したトークンを表す。
// 失敗原因に関わらず、呼び出し側は「未認証」として一様に扱うこと。
var ErrInvalidToken = errors.New("invalid token")

// Claims はトークンに格納するクレームを定義する。
// クレーム名userIdは既存クライアントとの互換のため固定。
type Claims struct {
	UserID string `json:"userId"`
	jwt.RegisteredClaims
}

// Verifier はトークンの検証を行う。副作用を持たない。
type Verifier struct {
	secret []byte
}

// NewVerifier はVerifierを生成する。
func NewVerifier(secret string) *Verifier {
	return &Verifier{secret: []byte(secret)}
}

// Verify はトークン文字列を検証し、ユーザーIDを返す。
// 署名・有効期限の検証に加え、userIdクレームが非空であることを要求する。
// いかなる検証失敗もErrInvalidTokenを返す。
func (v *Verifier) Verify(tokenString string) (string, error) {
	parsed, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		return v.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return "", ErrInvalidToken
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid || claims.UserID == "" {
		return "", ErrInvalidToken
	}

	return claims.UserID, nil
}

// Issuer はトークンの発行を行う。
type Issuer struct {
	secret []byte
	maxAge time.Duration
}

// NewIssuer はIssuerを生成する。maxAgeは発行するトークンの有効期間。
func NewIssuer(secret string, maxAge time.Duration) *Issuer {
	return &Issuer{secret: []byte(secret), maxAge: maxAge}
}

// Issue は指定ユーザーIDのトークンを発行する。
func (i *Issuer) Issue(userID string) (string, error) {
	now := time.Now()
	claims := &Claims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(i.maxAge)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    "devlink",
		},
	}

	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString(i.secret)
}
