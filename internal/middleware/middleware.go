package middleware

import (
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/smartfab/model-factory-mes/internal/apperrors"
	"github.com/smartfab/model-factory-mes/internal/config"
)

// Identity headers propagated to downstream services once a token is verified.
const (
	HeaderAuthenticatedUser = "X-Authenticated-User"
	HeaderAuthenticatedRole = "X-Authenticated-Role"
	HeaderUserID            = "X-User-Id"
)

// Claims is the JWT payload issued by the auth service.
type Claims struct {
	UserID        uint   `json:"userId"`
	Username      string `json:"username"`
	Role          string `json:"role"`
	WorkstationID *uint  `json:"workstationId,omitempty"`
	jwt.RegisteredClaims
}

// CORS allows the SPA and tooling origins.
func CORS() gin.HandlerFunc {
	return cors.New(cors.Config{
		AllowAllOrigins:  true,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		MaxAge:           12 * time.Hour,
	})
}

// Logger logs each request with latency and status.
func Logger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Printf("%s %s %d %v", c.Request.Method, c.Request.URL.Path, c.Writer.Status(), time.Since(start))
	}
}

// Recovery converts panics into enveloped 500s.
func Recovery() gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered interface{}) {
		log.Printf("panic recovered: %v", recovered)
		apperrors.Respond(c, apperrors.Internal("INTERNAL_SERVER_ERROR", "an unexpected error occurred"))
		c.Abort()
	})
}

// AuthRequired validates the bearer token and stores the caller identity in
// the request context. Identity is also mirrored into the X-Authenticated-*
// headers the downstream services read.
func AuthRequired(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" || !strings.HasPrefix(header, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error":  "missing or malformed authorization header",
				"status": http.StatusUnauthorized,
			})
			return
		}

		tokenString := strings.TrimPrefix(header, "Bearer ")
		claims := &Claims{}
		token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, jwt.ErrSignatureInvalid
			}
			return []byte(cfg.JWTSecret), nil
		})
		if err != nil || !token.Valid {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error":  "invalid or expired token",
				"status": http.StatusUnauthorized,
			})
			return
		}

		c.Set("user_id", claims.UserID)
		c.Set("username", claims.Username)
		c.Set("role", claims.Role)
		if claims.WorkstationID != nil {
			c.Set("workstation_id", *claims.WorkstationID)
		}

		c.Request.Header.Set(HeaderAuthenticatedUser, claims.Username)
		c.Request.Header.Set(HeaderAuthenticatedRole, claims.Role)
		c.Request.Header.Set(HeaderUserID, strconv.FormatUint(uint64(claims.UserID), 10))

		c.Next()
	}
}

// RequireRole refuses the request unless the authenticated role is in the
// allowed set.
func RequireRole(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		role := c.GetString("role")
		for _, allowed := range roles {
			if role == allowed {
				c.Next()
				return
			}
		}
		apperrors.Respond(c, apperrors.Forbidden(apperrors.CodeUserUnauthorized, "insufficient role"))
		c.Abort()
	}
}

// Actor returns the authenticated username for ledger attribution, or
// "system" for unattributed internal mutations.
func Actor(c *gin.Context) string {
	if username := c.GetString("username"); username != "" {
		return username
	}
	return "system"
}
