package middlewares

import (
	"errors"
	"net/http"
	"strings"

	"SECUREATTEND/config"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v4"
)

// CurrentUserKey is the gin context key holding *config.JWTClaims after JWTAuth.
const CurrentUserKey = "currentUser"

var errBadSigningMethod = errors.New("unexpected signing method")

// ParseToken validates an HS256 token signed with key.
func ParseToken(tokenString string, key []byte) (*config.JWTClaims, error) {
	claims := &config.JWTClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errBadSigningMethod
		}
		return key, nil
	})
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, errors.New("invalid token")
	}
	return claims, nil
}

// JWTAuth requires "Authorization: Bearer <token>". Preflight requests pass through.
func JWTAuth(key []byte) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method == http.MethodOptions {
			c.Next()
			return
		}

		header := c.GetHeader("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Missing or invalid authorization header"})
			return
		}

		claims, err := ParseToken(strings.TrimPrefix(header, "Bearer "), key)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
			return
		}

		c.Set(CurrentUserKey, claims)
		c.Next()
	}
}
