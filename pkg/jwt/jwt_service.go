package jwt

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v4"

	"leaflens/domain"
)

const tokenLifetime = 120 * time.Minute

type (
	JWTService interface {
		GenerateTokenUser(email string, role string) (string, error)
		ValidateTokenUser(token string) (*jwt.Token, error)
		GetUserByToken(token string) (string, string, error)
	}

	jwtUserClaim struct {
		Email string `json:"email"`
		Role  string `json:"role"`
		jwt.RegisteredClaims
	}

	jwtService struct {
		secretKey string
		issuer    string
		now       func() time.Time
	}
)

func NewJWTService(secretKey string) JWTService {
	return &jwtService{
		secretKey: secretKey,
		issuer:    "LEAFLENS",
		now:       time.Now,
	}
}

func (j *jwtService) GenerateTokenUser(email string, role string) (string, error) {
	now := j.now()
	claims := jwtUserClaim{
		email,
		role,
		jwt.RegisteredClaims{
			Subject:   email,
			ExpiresAt: jwt.NewNumericDate(now.Add(tokenLifetime)),
			Issuer:    j.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(j.secretKey))
}

func (j *jwtService) parseToken(t_ *jwt.Token) (any, error) {
	if _, ok := t_.Method.(*jwt.SigningMethodHMAC); !ok {
		return nil, fmt.Errorf("unexpected signing method %v", t_.Header["alg"])
	}
	return []byte(j.secretKey), nil
}

func (j *jwtService) ValidateTokenUser(token string) (*jwt.Token, error) {
	return jwt.ParseWithClaims(token, &jwtUserClaim{}, j.parseToken)
}

// GetUserByToken returns the email and role carried by a valid session token.
func (j *jwtService) GetUserByToken(token string) (string, string, error) {
	t_Token, err := j.ValidateTokenUser(token)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", "", domain.ErrTokenExpired
		}
		return "", "", domain.ErrTokenInvalid
	}
	if !t_Token.Valid {
		return "", "", domain.ErrTokenInvalid
	}

	claims, ok := t_Token.Claims.(*jwtUserClaim)
	if !ok || claims.Email == "" || claims.Issuer != j.issuer {
		return "", "", domain.ErrTokenInvalid
	}
	return claims.Email, claims.Role, nil
}
