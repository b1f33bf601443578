// Package security provides request hardening middleware for the JSON API:
// response headers, content-type enforcement, per-request timeouts, and
// product URL validation.
package security

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

// MaxURLLength bounds submitted product URLs. Retailer URLs are long but
// anything past this is abuse or a mistake.
const MaxURLLength = 2048

// HeadersMiddleware sets security headers on every response.
func HeadersMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("X-Frame-Options", "DENY")
		c.Header("X-Content-Type-Options", "nosniff")
		c.Header("Referrer-Policy", "strict-origin-when-cross-origin")
		c.Header("Permissions-Policy", "geolocation=(), microphone=(), camera=()")
		c.Next()
	}
}

// ContentTypeMiddleware rejects mutating requests whose body is not JSON.
func ContentTypeMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		switch c.Request.Method {
		case http.MethodPost, http.MethodPut, http.MethodPatch:
			ct := c.ContentType()
			if ct != "" && ct != "application/json" {
				c.AbortWithStatusJSON(http.StatusUnsupportedMediaType, gin.H{
					"error": "content type must be application/json",
				})
				return
			}
		}
		c.Next()
	}
}

// TimeoutMiddleware bounds total handler time. The deadline propagates
// through the request context into collaborator calls.
func TimeoutMiddleware(timeout time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), timeout)
		defer cancel()
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

// ValidateProductURL checks that a submitted product URL is fetchable:
// absolute, http or https, with a host, and within the length cap.
func ValidateProductURL(raw string) error {
	if raw == "" {
		return fmt.Errorf("product url is required")
	}
	if len(raw) > MaxURLLength {
		return fmt.Errorf("product url exceeds %d characters", MaxURLLength)
	}
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("product url is not valid: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("product url must use http or https")
	}
	if u.Host == "" {
		return fmt.Errorf("product url must include a host")
	}
	if strings.ContainsAny(raw, "\r\n") {
		return fmt.Errorf("product url contains control characters")
	}
	return nil
}
