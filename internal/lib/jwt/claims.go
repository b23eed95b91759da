package jwt

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/magabrotheeeer/saas-core/internal/models"
)

// Claims описывает данные, хранящиеся в токене: sub, email, role, iat, exp.
type Claims struct {
	Email                string      `json:"email"`
	Role                 models.Role `json:"role"`
	jwt.RegisteredClaims             // Subject, IssuedAt, ExpiresAt
}

// Principal возвращает субъекта, описанного claims.
func (c *Claims) Principal() models.Principal {
	return models.Principal{ID: c.Subject, Email: c.Email, Role: c.Role}
}

// GenerateToken создает токен для субъекта, подписывая его секретным ключом.
// iat = now, exp = now + SessionTTL.
func (j *MakerImpl) GenerateToken(principal models.Principal) (string, error) {
	const op = "jwt.GenerateToken"
	now := j.now()
	claims := Claims{
		Email: principal.Email,
		Role:  principal.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   principal.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(SessionTTL)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(j.secretKey)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return signed, nil
}

// ParseToken разбирает токен, проверяет срок действия и подпись.
//
// Возвращаемая ошибка всегда оборачивает ровно один из ErrMalformed,
// ErrInvalidSignature, ErrExpired. Просроченный токен отклоняется как ErrExpired
// независимо от корректности подписи.
func (j *MakerImpl) ParseToken(tokenStr string) (*Claims, error) {
	const op = "jwt.ParseToken"

	unverified := &Claims{}
	if _, _, err := jwt.NewParser().ParseUnverified(tokenStr, unverified); err != nil {
		return nil, fmt.Errorf("%s: %w: %w", op, ErrMalformed, err)
	}
	if unverified.ExpiresAt == nil {
		return nil, fmt.Errorf("%s: %w: missing exp", op, ErrMalformed)
	}
	if j.now().After(unverified.ExpiresAt.Time) {
		return nil, fmt.Errorf("%s: %w", op, ErrExpired)
	}

	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(j.now),
		jwt.WithExpirationRequired(),
		// exp проверен выше с точностью now <= exp; библиотека отклоняет и now == exp
		jwt.WithLeeway(time.Second),
	)
	token, err := parser.ParseWithClaims(tokenStr, &Claims{}, func(_ *jwt.Token) (any, error) {
		return j.secretKey, nil
	})
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return nil, fmt.Errorf("%s: %w", op, ErrExpired)
		case errors.Is(err, jwt.ErrTokenSignatureInvalid), errors.Is(err, jwt.ErrTokenUnverifiable):
			return nil, fmt.Errorf("%s: %w: %w", op, ErrInvalidSignature, err)
		default:
			return nil, fmt.Errorf("%s: %w: %w", op, ErrMalformed, err)
		}
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("%s: %w: invalid claims", op, ErrMalformed)
	}
	if claims.Subject == "" || !claims.Role.Valid() {
		return nil, fmt.Errorf("%s: %w: missing subject or unknown role", op, ErrMalformed)
	}
	return claims, nil
}
