package httpapi

import (
	"crypto/sha256"
	"encoding/hex"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/humandebri/jpycpay/internal/admin"
)

const requestIDHeader = "X-Request-Id"
const adminKeyHeader = "X-Relay-Admin-Key"

// requestID stamps every request with a correlation ID, generated unless the
// caller already supplied one, the way SafeMPC-mpc-signer's request-tracing
// middleware threads an ID through to its structured logs.
func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set("request_id", id)
		c.Header(requestIDHeader, id)
		c.Next()
	}
}

// requestLogger attaches a request-scoped zerolog.Logger carrying the
// correlation ID to the gin context, the ambient-logging analogue of the
// spec's note that every admission failure and admin mutation is logged.
func requestLogger(base zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID, _ := c.Get("request_id")
		logger := base.With().Interface("request_id", requestID).Str("path", c.FullPath()).Logger()
		c.Set("logger", logger)
		c.Next()
	}
}

func loggerFromContext(c *gin.Context) zerolog.Logger {
	v, ok := c.Get("logger")
	if !ok {
		return zerolog.Nop()
	}
	return v.(zerolog.Logger)
}

// adminAuth resolves the caller's Principal from the SHA-256 digest of the
// X-Relay-Admin-Key header, the Go-native analogue of ic_cdk::api::caller().
// It does not itself reject non-admins — that decision belongs to
// internal/admin, which is the single place the ACL is enforced — but a
// missing header is rejected here since there is no principal to check.
func adminAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.GetHeader(adminKeyHeader)
		if key == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing_admin_key"})
			return
		}
		digest := sha256.Sum256([]byte(key))
		c.Set("principal", hex.EncodeToString(digest[:]))
		c.Next()
	}
}

func principalFromContext(c *gin.Context) string {
	v, _ := c.Get("principal")
	p, _ := v.(string)
	return p
}

// respondAdminError writes the appropriate status for an admin-surface
// error: 403 for ErrNotAdmin, 400 for every other (validation) failure. It
// reports whether it wrote a response, so callers can early-return.
func respondAdminError(c *gin.Context, err error) bool {
	if err == nil {
		return false
	}
	if err == admin.ErrNotAdmin {
		c.JSON(http.StatusForbidden, gin.H{"error": "not_admin"})
		return true
	}
	c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	return true
}
