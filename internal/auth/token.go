package auth

import (
	"fmt"
	"strings"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/guestbook-api/internal/models"
	"github.com/guestbook-api/pkg/apperrors"
)

const githubBaseURL = "https://github.com/"

// Claims is the session token payload written by the GitHub OAuth layer
type Claims struct {
	Name      string `json:"name,omitempty"`
	Picture   string `json:"picture,omitempty"`
	GitHubURL string `json:"github_url,omitempty"`
	Login     string `json:"login,omitempty"`
	Email     string `json:"email,omitempty"`
	jwt.StandardClaims
}

// IssueToken signs an HS256 session token for user
func IssueToken(secret string, user models.UserRef, login, email string, ttl time.Duration) (string, error) {
	claims := Claims{
		Name:      user.Name,
		Picture:   user.Avatar,
		GitHubURL: user.GitHubURL,
		Login:     login,
		Email:     email,
		StandardClaims: jwt.StandardClaims{
			Subject:   user.ID,
			IssuedAt:  time.Now().Unix(),
			ExpiresAt: time.Now().Add(ttl).Unix(),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

// ParseToken validates tokenString and returns the caller identity.
// All failures are UNAUTHENTICATED.
func ParseToken(secret, tokenString string) (models.UserRef, error) {
	if tokenString == "" {
		return models.UserRef{}, apperrors.Unauthenticated("missing session token")
	}

	var claims Claims
	token, err := jwt.ParseWithClaims(tokenString, &claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil {
		return models.UserRef{}, apperrors.Wrap(apperrors.CodeUnauthenticated, "invalid or expired session token", err)
	}
	if !token.Valid {
		return models.UserRef{}, apperrors.Unauthenticated("invalid session token")
	}

	return claims.Identity()
}

// Identity resolves the user id as sub, then login, then email.
func (c *Claims) Identity() (models.UserRef, error) {
	id := firstNonEmpty(c.Subject, c.Login, c.Email)
	if id == "" {
		return models.UserRef{}, apperrors.Unauthenticated("session token carries no user id")
	}

	name := firstNonEmpty(c.Name, c.Login, id)
	githubURL := c.GitHubURL
	if githubURL == "" && c.Login != "" {
		githubURL = githubBaseURL + c.Login
	}

	return models.UserRef{
		ID:        id,
		Name:      name,
		Avatar:    c.Picture,
		GitHubURL: githubURL,
	}, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if s := strings.TrimSpace(v); s != "" {
			return s
		}
	}
	return ""
}
