// Package proxy forwards gateway requests to the owning backend service.
package proxy

import (
	"bytes"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/eaglebank/ledger/shared/middleware"
	"github.com/gin-gonic/gin"
)

const (
	UserIDHeader    = "X-User-ID"
	UserEmailHeader = "X-User-Email"
)

// Headers that describe a single connection and must not be forwarded.
var hopHeaders = map[string]bool{
	"Connection":          true,
	"Keep-Alive":          true,
	"Proxy-Authenticate":  true,
	"Proxy-Authorization": true,
	"Te":                  true,
	"Trailer":             true,
	"Transfer-Encoding":   true,
	"Upgrade":             true,
}

type Proxy struct {
	client *http.Client
}

func New(timeout time.Duration) *Proxy {
	return &Proxy{client: &http.Client{Timeout: timeout}}
}

// To returns a handler that replays the request against serviceURL, keeping
// path and query, and writes the upstream response back unchanged.
func (p *Proxy) To(serviceURL string) gin.HandlerFunc {
	return func(c *gin.Context) {
		targetURL := serviceURL + c.Request.URL.Path
		if c.Request.URL.RawQuery != "" {
			targetURL += "?" + c.Request.URL.RawQuery
		}

		var bodyBytes []byte
		if c.Request.Body != nil {
			var err error
			bodyBytes, err = io.ReadAll(c.Request.Body)
			if err != nil {
				middleware.RespondWithError(c, http.StatusBadRequest, "Failed to read request body")
				return
			}
		}

		req, err := http.NewRequestWithContext(c.Request.Context(), c.Request.Method, targetURL, bytes.NewReader(bodyBytes))
		if err != nil {
			middleware.RespondWithError(c, http.StatusInternalServerError, "Failed to create request")
			return
		}

		for key, values := range c.Request.Header {
			if hopHeaders[key] || key == UserIDHeader || key == UserEmailHeader {
				continue
			}
			for _, value := range values {
				req.Header.Add(key, value)
			}
		}

		// Identity headers only ever come from the gateway's own token check.
		if userID, ok := middleware.GetUserID(c); ok {
			req.Header.Set(UserIDHeader, strconv.FormatInt(userID, 10))
		}
		if email, ok := middleware.GetEmail(c); ok {
			req.Header.Set(UserEmailHeader, email)
		}
		if requestID := middleware.GetRequestID(c); requestID != "" {
			req.Header.Set(middleware.RequestIDHeader, requestID)
		}

		resp, err := p.client.Do(req)
		if err != nil {
			slog.Error("failed to proxy request", "target", targetURL, "requestId", middleware.GetRequestID(c), "error", err)
			middleware.RespondWithError(c, http.StatusBadGateway, "Service unavailable")
			return
		}
		defer resp.Body.Close()

		respBody, err := io.ReadAll(resp.Body)
		if err != nil {
			middleware.RespondWithError(c, http.StatusBadGateway, "Failed to read response")
			return
		}

		for key, values := range resp.Header {
			if hopHeaders[key] || key == "Content-Length" {
				continue
			}
			c.Writer.Header()[key] = append([]string(nil), values...)
		}

		c.Data(resp.StatusCode, resp.Header.Get("Content-Type"), respBody)
	}
}
