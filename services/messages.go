package services

import (
	"log/slog"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
)

/// Flash messages are stored to the session and displayed only once.

func addMessage(c *gin.Context, message string, key string) {
	session := sessions.Default(c)
	var messages []string
	sessionMessages := session.Get(key)
	if sessionMessages == nil {
		messages = []string{message}
	} else {
		existing, ok := sessionMessages.([]string)
		if !ok {
			slog.Warn("unknown type stored to session", "key", key)
			session.Delete(key)
			if err := session.Save(); err != nil {
				slog.Warn("failed to save session", "error", err)
			}
			return
		}
		messages = append(existing, message)
	}
	session.Set(key, messages)
	if err := session.Save(); err != nil {
		slog.Warn("failed to save a message to session", "error", err)
	}
}

func AddMessage(c *gin.Context, message string) {
	addMessage(c, message, "messages")
}

func AddError(c *gin.Context, message string) {
	addMessage(c, message, "errors")
}

func AddWarning(c *gin.Context, message string) {
	addMessage(c, message, "warnings")
}

func GetMessages(c *gin.Context) map[string]any {
	session := sessions.Default(c)
	messages := session.Get("messages")
	errors := session.Get("errors")
	warnings := session.Get("warnings")
	session.Delete("messages")
	session.Delete("errors")
	session.Delete("warnings")
	if err := session.Save(); err != nil {
		slog.Warn("failed to clear session messages", "error", err)
	}
	return map[string]any{
		"Messages": messages,
		"Errors":   errors,
		"Warnings": warnings,
	}
}
