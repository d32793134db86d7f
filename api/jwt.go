package api

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"imgnote/models"
)

const (
	accessTokenCookie = "access_token"
	bcryptCost        = 10
)

type JWT struct {
	Username string `json:"username"`
	jwt.RegisteredClaims
}

func (impl *ServerImpl) issueJWT(user *models.User) (string, time.Time, error) {
	const op = "issueJWT"
	now := time.Now()
	expiresAt := now.Add(impl.config.Auth.ExpireDuration)
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, JWT{
		Username: user.Username,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    impl.config.Auth.Issuer,
			Subject:   user.ID.String(),
			ID:        uuid.NewString(),
		},
	})
	signed, err := token.SignedString(impl.config.Auth.Secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("[%s] Fail to sign JWT, err=%w", op, err)
	}
	return signed, expiresAt, nil
}

func (impl *ServerImpl) parseJWT(tokenString string) (*JWT, error) {
	const op = "parseJWT"
	token, err := jwt.ParseWithClaims(tokenString, &JWT{}, func(token *jwt.Token) (any, error) {
		return impl.config.Auth.Secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(impl.config.Auth.Issuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, fmt.Errorf("[%s] Fail to parse token, err=%w", op, err)
	}
	claims, ok := token.Claims.(*JWT)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("[%s] token claims are invalid", op)
	}
	return claims, nil
}

func hashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

func checkPassword(hash, password string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}

var errInvalidCredentials = errors.New("invalid credentials")
