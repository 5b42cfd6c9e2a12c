package middleware

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/infoshare/backend/models"
)

func HttpBasicWebAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		slog.Debug("restricting access")
		username := os.Getenv("HTTP_BASIC_AUTH_USERNAME")
		password := os.Getenv("HTTP_BASIC_AUTH_PASSWORD")
		if username == "" || password == "" {
			c.Error(fmt.Errorf("configuration error: HTTP Basic Auth configured but username or password not set"))
		}
		gin.BasicAuth(gin.Accounts{
			username: password,
		})(c)
		setDefaultUser(c)
		c.Next()
	}
}

// setDefaultUser resolves the single-tenant fallback user configured by
// DEFAULT_USER_EMAIL.
func setDefaultUser(c *gin.Context) {
	email := os.Getenv("DEFAULT_USER_EMAIL")
	user := &models.User{}
	result := models.DB.GormDB.Take(user, "email = ?", email)
	if result.Error != nil {
		c.Error(fmt.Errorf("error fetching default user, please check your configuration"))
		return
	}
	c.Set(USER_ID_KEY, user.ID)
}

func HttpBasicApiAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.Request.Header.Get("Authorization")
		if authHeader == "" {
			c.String(http.StatusForbidden, "No Authorization header provided")
			c.Abort()
			return
		}
		token := strings.TrimPrefix(authHeader, "Bearer ")
		if token == authHeader {
			c.String(http.StatusForbidden, "Could not find bearer token in Authorization header")
			c.Abort()
			return
		}

		serviceToken, err := models.DB.GetToken(token)
		if err != nil {
			c.String(http.StatusInternalServerError, "Error occurred while fetching database")
			c.Abort()
			return
		}
		if serviceToken != nil && serviceToken.User != nil {
			c.Set(USER_ID_KEY, serviceToken.UserID)
			c.Next()
			return
		}

		if token == os.Getenv("BEARER_AUTH_TOKEN") {
			setDefaultUser(c)
			c.Next()
			return
		}

		c.String(http.StatusForbidden, "Invalid Bearer token")
		c.Abort()
	}
}
