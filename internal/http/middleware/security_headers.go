package middleware

import "github.com/gin-gonic/gin"

// SecurityHeaders adds security headers. Avatar images are served from the
// asset store's origin, so no content security policy restricts img-src here.
func SecurityHeaders() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		ctx.Header("X-Frame-Options", "DENY")
		ctx.Header("X-Content-Type-Options", "nosniff")
		ctx.Header("Referrer-Policy", "same-origin")
		ctx.Header("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
		ctx.Next()
	}
}
