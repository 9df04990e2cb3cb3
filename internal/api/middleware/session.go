package middleware

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/isoplan/planner/internal/domain/session"
)

const (
	// HeaderSessionID carries the session ID for API clients.
	HeaderSessionID = "X-Session-ID"
	// CookieSession carries the session ID for browsers.
	CookieSession = "planner_session"

	sessionKey = "planner.session"

	msgSessionLimit = "För många aktiva sessioner, försök igen senare"
)

// Session resolves the caller's session from the header or cookie,
// creating a new one when it is missing or expired. The resolved ID is
// always echoed in the response header and cookie. Requests that would
// need a new session while the manager is full get 503.
func Session(manager *session.Manager, ttl time.Duration) gin.HandlerFunc {
	maxAge := int(ttl / time.Second)

	return func(c *gin.Context) {
		sessionID := c.GetHeader(HeaderSessionID)
		if sessionID == "" {
			sessionID, _ = c.Cookie(CookieSession)
		}

		s, _, err := manager.Resolve(sessionID)
		if err != nil {
			status := http.StatusInternalServerError
			message := err.Error()
			if errors.Is(err, session.ErrTooManySessions) {
				status = http.StatusServiceUnavailable
				message = msgSessionLimit
			}
			c.AbortWithStatusJSON(status, gin.H{"error": message})
			return
		}
		c.Set(sessionKey, s)
		c.Header(HeaderSessionID, s.ID)
		c.SetSameSite(http.SameSiteLaxMode)
		c.SetCookie(CookieSession, s.ID, maxAge, "/", "", false, true)

		c.Next()
	}
}

// CurrentSession returns the session resolved for this request.
func CurrentSession(c *gin.Context) *session.Session {
	if value, ok := c.Get(sessionKey); ok {
		if s, ok := value.(*session.Session); ok {
			return s
		}
	}
	return nil
}

// ClearSession drops the echoed session header and expires the cookie.
func ClearSession(c *gin.Context) {
	c.Header(HeaderSessionID, "")
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(CookieSession, "", -1, "/", "", false, true)
}
