package httpapi

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/julienschmidt/httprouter"

	"github.com/Leganyst/slotswap-platform/internal/apperr"
	"github.com/Leganyst/slotswap-platform/internal/model"
)

type ctxKey string

const userIDKey ctxKey = "userID"

// JWT claims
type Claims struct {
	UserID string `json:"userId"`
	Name   string `json:"name"`
	jwt.RegisteredClaims
}

// UserIDFromContext достаёт идентификатор пользователя, положенный
// middleware Authenticate.
func UserIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(userIDKey).(string)
	return id
}

// IssueToken подписывает HS256-токен для пользователя.
func IssueToken(u *model.User, secret []byte, ttl time.Duration) (string, error) {
	claims := Claims{
		UserID: u.ID.String(),
		Name:   u.Name,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			Subject:   u.ID.String(),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}

// ParseToken валидирует токен и возвращает claims.
func ParseToken(tokenString string, secret []byte) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (any, error) {
		return secret, nil
	}, jwt.WithValidMethods([]string{"HS256"}))
	if err != nil || !token.Valid {
		return nil, apperr.Unauthorized("invalid token")
	}
	return claims, nil
}

// Authenticate проверяет Bearer-токен и кладёт user id в контекст запроса.
func Authenticate(secret []byte, next httprouter.Handle) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		tokenString := r.Header.Get("Authorization")
		if tokenString == "" {
			writeError(w, apperr.Unauthorized("missing token"))
			return
		}
		if len(tokenString) < 8 || tokenString[:7] != "Bearer " {
			writeError(w, apperr.Unauthorized("invalid token format"))
			return
		}

		claims, err := ParseToken(tokenString[7:], secret)
		if err != nil {
			writeError(w, err)
			return
		}

		ctx := context.WithValue(r.Context(), userIDKey, claims.UserID)
		next(w, r.WithContext(ctx), ps)
	}
}

// Logging логирует метод, путь, адрес клиента и длительность запроса.
func Logging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		log.Printf("%s %s from %s – %v", r.Method, r.RequestURI, r.RemoteAddr, time.Since(start))
	})
}
