package http

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/macrolens/recipesync/internal/domain"
	"github.com/macrolens/recipesync/internal/infrastructure/qstash"
	"github.com/macrolens/recipesync/internal/platform/logger"
)

// maxJobBodyBytes bounds a job delivery body; job payloads are a few ids.
const maxJobBodyBytes = 64 << 10

// SignatureVerifier checks a job delivery signature against the raw body.
type SignatureVerifier interface {
	Verify(body []byte, header string) error
}

// CORSMiddleware handles CORS for the content admin frontend
func CORSMiddleware(allowedOrigins []string) gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")

		if isAllowedOrigin(origin, allowedOrigins) {
			c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
			c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
			c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS, PUT, DELETE")
			c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Requested-With")
			c.Writer.Header().Set("Access-Control-Max-Age", "3600")
		}

		// Handle preflight requests
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

// isAllowedOrigin checks if the origin is in the allowed list. A trailing "*" matches any suffix.
func isAllowedOrigin(origin string, allowedOrigins []string) bool {
	if origin == "" {
		return false
	}
	for _, allowed := range allowedOrigins {
		if prefix, ok := strings.CutSuffix(allowed, "*"); ok {
			if strings.HasPrefix(origin, prefix) {
				return true
			}
		} else if origin == allowed {
			return true
		}
	}
	return false
}

// LoggerMiddleware logs one line per request, at warn for 4xx and error for 5xx.
func LoggerMiddleware(log *logger.Logger) gin.HandlerFunc {
	log = log.With("service", "HTTP")
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		kv := []interface{}{
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", status,
			"latency_ms", time.Since(start).Milliseconds(),
			"client_ip", c.ClientIP(),
		}
		switch {
		case status >= http.StatusInternalServerError:
			log.Error("request", kv...)
		case status >= http.StatusBadRequest:
			log.Warn("request", kv...)
		default:
			log.Info("request", kv...)
		}
	}
}

// RecoveryMiddleware turns a panic into a 500 with the standard error body.
func RecoveryMiddleware(log *logger.Logger) gin.HandlerFunc {
	log = log.With("service", "HTTP")
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				log.Error("panic recovered", "path", c.Request.URL.Path, "panic", fmt.Sprint(r))
				c.AbortWithStatusJSON(http.StatusInternalServerError, ErrorBody{Error: ErrorDetail{
					Kind:    "InternalError",
					Message: "internal server error",
				}})
			}
		}()
		c.Next()
	}
}

// SignatureMiddleware rejects job deliveries whose signature does not match the raw
// body. The body is restored so handlers can decode it.
func SignatureMiddleware(verifier SignatureVerifier, log *logger.Logger) gin.HandlerFunc {
	log = log.With("service", "SignatureMiddleware")
	return func(c *gin.Context) {
		body, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, maxJobBodyBytes))
		if err != nil {
			abortWithError(c, http.StatusBadRequest, errors.Join(domain.ErrInvalidRequest, err))
			return
		}

		if err := verifier.Verify(body, c.GetHeader(qstash.SignatureHeader)); err != nil {
			log.Warn("job signature rejected", "path", c.Request.URL.Path, "error", err)
			abortWithError(c, http.StatusUnauthorized, err)
			return
		}

		c.Request.Body = io.NopCloser(bytes.NewReader(body))
		c.Next()
	}
}

func abortWithError(c *gin.Context, status int, err error) {
	c.AbortWithStatusJSON(status, ErrorBody{Error: ErrorDetail{Kind: domain.ErrorKind(err), Message: err.Error()}})
}
