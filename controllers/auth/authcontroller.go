package auth

import (
	"net/http"
	"strings"
	"time"

	"SECUREATTEND/config"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v4"
	"golang.org/x/crypto/bcrypt"
)

const adminRole = "faculty"

type LoginPayload struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type Controller struct {
	cfg config.AuthConfig
	now func() time.Time
}

func NewController(cfg config.AuthConfig) *Controller {
	return &Controller{cfg: cfg, now: time.Now}
}

// IssueToken signs an HS256 session token for email.
func IssueToken(cfg config.AuthConfig, email string, now time.Time) (string, error) {
	claims := config.JWTClaims{
		Email: email,
		Role:  adminRole,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   email,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(cfg.TokenTTL)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(cfg.JWTKey)
}

func (ctl *Controller) Login(c *gin.Context) {
	var payload LoginPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Email and password are required"})
		return
	}

	hash := ctl.cfg.AdminPasswordHash
	if hash == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
		return
	}
	pwErr := bcrypt.CompareHashAndPassword([]byte(hash), []byte(payload.Password))
	if !strings.EqualFold(strings.TrimSpace(payload.Email), ctl.cfg.AdminEmail) || pwErr != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
		return
	}

	token, err := IssueToken(ctl.cfg, ctl.cfg.AdminEmail, ctl.now())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to issue token"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success", "token": token, "role": adminRole})
}
