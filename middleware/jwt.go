package middleware

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"github.com/infoshare/backend/models"
)

const USER_ID_KEY = "user_ID"

// setUserFromToken resolves the token's subject claim to a user and stores
// the user id in the request context.
func setUserFromToken(c *gin.Context, token *jwt.Token) error {
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		slog.Warn("token's claims have unexpected type")
		return fmt.Errorf("token is invalid")
	}
	subject, err := claims.GetSubject()
	if err != nil || subject == "" {
		slog.Warn("token has no subject claim", "error", err)
		return fmt.Errorf("token is invalid")
	}

	user, err := models.DB.GetUserBySubject(subject)
	if err != nil {
		slog.Error("error while fetching user", "subject", subject, "error", err)
		return err
	}
	if user == nil {
		slog.Warn("no user found for token subject", "subject", subject)
		return fmt.Errorf("token is invalid")
	}

	c.Set(USER_ID_KEY, user.ID)
	return nil
}

func parseBearerToken(c *gin.Context) (*jwt.Token, error) {
	authHeader := c.Request.Header.Get("Authorization")
	if authHeader == "" {
		return nil, fmt.Errorf("no Authorization header provided")
	}
	tokenString := strings.TrimPrefix(authHeader, "Bearer ")
	if tokenString == authHeader {
		return nil, fmt.Errorf("could not find bearer token in Authorization header")
	}

	jwtPublicKey := os.Getenv("JWT_PUBLIC_KEY")
	if jwtPublicKey == "" {
		return nil, fmt.Errorf("no JWT_PUBLIC_KEY environment variable provided")
	}
	publicKey, err := jwt.ParseRSAPublicKeyFromPEM([]byte(jwtPublicKey))
	if err != nil {
		return nil, fmt.Errorf("error while parsing public key: %v", err)
	}

	return jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodRSA); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return publicKey, nil
	})
}

func JWTBearerTokenAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := parseBearerToken(c)
		if err != nil {
			slog.Warn("can't parse a token", "error", err)
			c.String(http.StatusForbidden, "Authorization header is invalid")
			c.Abort()
			return
		}
		if !token.Valid {
			c.AbortWithStatus(http.StatusForbidden)
			return
		}
		if err := setUserFromToken(c, token); err != nil {
			c.AbortWithStatus(http.StatusForbidden)
			return
		}
		c.Next()
	}
}

func JWTWebAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString, err := c.Cookie("token")
		if err != nil || tokenString == "" {
			slog.Warn("can't get a cookie token", "error", err)
			c.AbortWithStatus(http.StatusForbidden)
			return
		}

		jwtPublicKey := os.Getenv("JWT_PUBLIC_KEY")
		if jwtPublicKey == "" {
			slog.Error("no JWT_PUBLIC_KEY environment variable provided")
			c.String(http.StatusInternalServerError, "Error occurred while reading public key")
			c.Abort()
			return
		}
		publicKey, err := jwt.ParseRSAPublicKeyFromPEM([]byte(jwtPublicKey))
		if err != nil {
			slog.Error("error while parsing public key", "error", err)
			c.String(http.StatusInternalServerError, "Error occurred while parsing public key")
			c.Abort()
			return
		}

		token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodRSA); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
			}
			return publicKey, nil
		})
		if err != nil || !token.Valid {
			slog.Warn("token validation failed", "error", err)
			c.AbortWithStatus(http.StatusForbidden)
			return
		}
		if err := setUserFromToken(c, token); err != nil {
			c.AbortWithStatus(http.StatusForbidden)
			return
		}
		c.Next()
	}
}

// RequireSystemAdmin gates a route group on the global system-admin role.
func RequireSystemAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		userId := c.GetUint(USER_ID_KEY)
		if userId == 0 {
			c.String(http.StatusForbidden, "Not allowed to access this resource")
			c.Abort()
			return
		}
		user, err := models.DB.GetUser(userId)
		if err != nil || user == nil || !user.IsSystemAdmin() {
			c.String(http.StatusForbidden, "Not allowed to access this resource")
			c.Abort()
			return
		}
		c.Next()
	}
}

func CORSMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}
