package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/ZLoganZ/SocialNetwork-Server/internal/domain"
	"github.com/ZLoganZ/SocialNetwork-Server/internal/service"
)

const currentUserKey = "currentUser"

// Auth guards routes that need an authenticated session.
type Auth struct {
	AuthService *service.AuthService
}

// RequireSession validates the bearer token against both its signature
// and the user's currently stored token, then attaches the user.
func (m *Auth) RequireSession(c *gin.Context) {
	raw := BearerToken(c)
	if raw == "" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid_token", "message": "No token found!"})
		return
	}

	user, err := m.AuthService.CheckSession(c.Request.Context(), raw)
	if err != nil {
		status := http.StatusUnauthorized
		if domain.IsKind(err, domain.KindNotFound) {
			status = http.StatusNotFound
		}
		c.AbortWithStatusJSON(status, gin.H{"error": string(domain.KindOf(err)), "message": err.Error()})
		return
	}

	c.Set(currentUserKey, user)
	c.Next()
}

// CurrentUser returns the user attached by RequireSession.
func CurrentUser(c *gin.Context) (domain.User, bool) {
	value, ok := c.Get(currentUserKey)
	if !ok {
		return domain.User{}, false
	}
	user, ok := value.(domain.User)
	return user, ok
}

// BearerToken extracts the session token from the Authorization header,
// stripping any quote characters some clients wrap around the value in
// transit. Token verification itself never sees the quotes.
func BearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	raw := parts[len(parts)-1]
	if len(parts) == 2 && !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return StripQuotes(raw)
}

// StripQuotes removes stray quoting artifacts added by transport
// layers.
func StripQuotes(raw string) string {
	return strings.Trim(strings.TrimSpace(raw), `"`)
}
