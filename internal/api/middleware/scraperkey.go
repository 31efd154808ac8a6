package middleware

import (
	"bytes"
	"crypto/subtle"
	"encoding/json"
	"io"

	"github.com/gin-gonic/gin"

	"github.com/qs3c/matcharestock/internal/pkg/response"
)

const (
	APIKeyHeader = "X-API-Key"

	// 爬虫上报的请求体上限
	maxScraperBodyBytes = 4 << 20
)

// ScraperKey authenticates the trusted scraper by a shared key taken from the
// X-API-Key header or the apiKey / api_key field of the JSON body. The body is
// restored for the handler. Requests are rejected before any database access.
func ScraperKey(expected string) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.GetHeader(APIKeyHeader)
		if key == "" && c.Request.Body != nil {
			body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxScraperBodyBytes))
			if err != nil {
				response.ParamError(c, "Failed to read request body")
				c.Abort()
				return
			}
			c.Request.Body = io.NopCloser(bytes.NewReader(body))
			key = keyFromBody(body)
		}

		if expected == "" || key == "" ||
			subtle.ConstantTimeCompare([]byte(key), []byte(expected)) != 1 {
			response.AuthError(c, "Unauthorized")
			c.Abort()
			return
		}
		c.Next()
	}
}

func keyFromBody(body []byte) string {
	var payload struct {
		APIKey      string `json:"apiKey"`
		APIKeySnake string `json:"api_key"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return ""
	}
	if payload.APIKey != "" {
		return payload.APIKey
	}
	return payload.APIKeySnake
}
