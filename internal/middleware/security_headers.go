package middleware

import "github.com/gin-gonic/gin"

// SecurityHeadersMiddleware sets the API hardening headers. HSTS is only sent
// in production, where TLS terminates in front of the service.
func SecurityHeadersMiddleware(environment string) gin.HandlerFunc {
	return func(c *gin.Context) {
		headers := c.Writer.Header()

		headers.Set("X-Content-Type-Options", "nosniff")
		headers.Set("X-Frame-Options", "DENY")
		headers.Set("Referrer-Policy", "no-referrer")
		headers.Set("Content-Security-Policy", "default-src 'none'; frame-ancestors 'none'")
		headers.Set("Cache-Control", "no-store")

		if environment == "production" {
			headers.Set("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
		}

		c.Next()
	}
}
