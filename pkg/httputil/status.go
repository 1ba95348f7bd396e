package httputil

import (
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/matzehuels/ogdraster/pkg/errors"
)

// CheckResponse converts a non-2xx response into a structured error.
// Transient failures (5xx, 429) are wrapped in [RetryableError] so that
// [Retry] attempts them again. The body is read (up to 512 bytes) for the
// error message but not closed.
func CheckResponse(resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
	msg := strings.TrimSpace(string(snippet))
	if msg == "" {
		msg = http.StatusText(resp.StatusCode)
	}
	url := ""
	if resp.Request != nil && resp.Request.URL != nil {
		url = resp.Request.URL.Redacted()
	}

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		retryAfter, _ := strconv.Atoi(resp.Header.Get("Retry-After"))
		return &RetryableError{Err: errors.Wrap(errors.ErrCodeRateLimited,
			&errors.RateLimitedError{RetryAfter: retryAfter, Message: msg}, "%s", url)}
	case resp.StatusCode >= 500:
		return &RetryableError{Err: errors.New(errors.ErrCodeNetwork,
			"%s: %d %s", url, resp.StatusCode, msg)}
	case resp.StatusCode == http.StatusNotFound:
		return errors.New(errors.ErrCodeNotFound, "%s: %s", url, msg)
	default:
		return errors.New(errors.ErrCodeNetwork, "%s: %s", url, fmt.Sprintf("%d %s", resp.StatusCode, msg))
	}
}
