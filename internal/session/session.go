// Package session выдает и проверяет подписанные токены сессии.
// Токен несет профиль участника; роль в нем задает доступный набор действий.
package session

import (
	"errors"
	"fmt"
	"time"

	"github.com/Manthan2028/resqnet/internal/models"
	"github.com/golang-jwt/jwt/v5"
)

const issuer = "resqnet"

var ErrInvalidToken = errors.New("session: invalid token")

// Claims - содержимое токена сессии
type Claims struct {
	ProfileID string      `json:"pid"`
	Role      models.Role `json:"role"`
	Name      string      `json:"name"`
	City      string      `json:"city"`
	jwt.RegisteredClaims
}

type Issuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewIssuer(secret string, ttl time.Duration) *Issuer {
	return &Issuer{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// Issue подписывает токен для профиля и возвращает его вместе со временем истечения
func (i *Issuer) Issue(profile models.Profile) (string, time.Time, error) {
	now := i.now()
	expires := now.Add(i.ttl)
	claims := Claims{
		ProfileID: profile.ID,
		Role:      profile.Role,
		Name:      profile.Name,
		City:      profile.City,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   profile.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expires),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("session: could not sign token: %w", err)
	}
	return token, expires, nil
}

// Parse проверяет подпись и сроки токена
func (i *Issuer) Parse(token string) (*Claims, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return i.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithTimeFunc(i.now),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if claims.ProfileID == "" || !claims.Role.Valid() {
		return nil, fmt.Errorf("%w: missing profile", ErrInvalidToken)
	}
	return claims, nil
}
