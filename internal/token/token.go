// Package token はアクセストークン（JWT）の発行と検証を提供する。
// トークンはステートレスであり、署名と有効期限のみで検証される。
package token

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalidToken は署名不正・期限切れ・クレーム欠落のトークンを表す。
// 呼び出し側はこのエラーを一律に認証失敗（401）として扱う。
var ErrInvalidToken = errors.New("invalid token")

// Claims はトークンに含まれるクレームを表す。
// 標準クレームに加えて認証対象のメールアドレスを持つ。
type Claims struct {
	jwt.RegisteredClaims
	Email string `json:"email"`
}

// Issuer はアクセストークンの発行・検証を行う。
// 署名鍵と有効期間は構築時に注入され、以後変更されない。
type Issuer struct {
	secret []byte
	ttl    time.Duration
}

// NewIssuer はIssuerを生成する。ttlには発行するトークンの有効期間を指定する。
func NewIssuer(secret []byte, ttl time.Duration) *Issuer {
	return &Issuer{secret: secret, ttl: ttl}
}

// Issue は指定メールアドレスに対するHS256署名済みトークンを発行する。
// 有効期限は発行時刻からttl後に設定される。
func (i *Issuer) Issue(email string) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.ttl)),
		},
		Email: email,
	})

	return token.SignedString(i.secret)
}

// Verify はトークン文字列を検証し、含まれるクレームを返す。
// 署名不正・期限切れ・メールアドレス欠落はすべてErrInvalidTokenになる。
func (i *Issuer) Verify(tokenString string) (*Claims, error) {
	claims := &Claims{}

	parsed, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return i.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, ErrInvalidToken
	}
	if !parsed.Valid || claims.Email == "" {
		return nil, ErrInvalidToken
	}

	return claims, nil
}
