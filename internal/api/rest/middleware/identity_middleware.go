package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/kyegomez/mcs-platform-sub001/pkg/logger"
)

// userIDKey ключ идентификатора пользователя в контексте Gin
const userIDKey = "userID"

// UserIDHeader заголовок с идентификатором аутентифицированного пользователя.
// Сессии и аутентификация делегированы внешнему identity-провайдеру;
// сервис потребляет только факт "запрос аутентифицирован" и идентификатор.
const UserIDHeader = "X-User-ID"

// IdentityMiddleware извлекает идентификатор пользователя из запроса.
// Запрос без идентификатора отклоняется с 401.
func IdentityMiddleware(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetHeader(UserIDHeader)
		if userID == "" {
			log.Warn("Unauthenticated request to %s", c.Request.RequestURI)
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}

		c.Set(userIDKey, userID)
		c.Next()
	}
}

// UserID возвращает идентификатор пользователя текущего запроса
func UserID(c *gin.Context) string {
	return c.GetString(userIDKey)
}
