package utils

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/sigweihq/tipjar/pkg/constants"
)

func CreateHTTPClientWithTimeouts() *http.Client {
	return &http.Client{
		Timeout: constants.APITimeout,
		Transport: &http.Transport{
			TLSHandshakeTimeout:   constants.TLSHandshakeTimeout,
			ResponseHeaderTimeout: constants.ResponseHeaderTimeout,
			ExpectContinueTimeout: constants.ExpectContinueTimeout,
		},
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse // Disable redirects to prevent redirect-based SSRF
		},
	}
}

// ValidateAPIURL validates that a backend URL is secure
// Returns error if URL doesn't use HTTPS (except for localhost/127.0.0.1 for testing)
func ValidateAPIURL(url string) error {
	if !strings.HasPrefix(url, "https://") {
		if strings.HasPrefix(url, "http://localhost") ||
			strings.HasPrefix(url, "http://127.0.0.1") ||
			strings.HasPrefix(url, "http://[::1]") {
			return nil
		}
		return fmt.Errorf("API URL must use HTTPS: %s", url)
	}
	return nil
}

// FormatAge renders how long ago a price was fetched, e.g. "updated 12s ago"
func FormatAge(age time.Duration) string {
	age = age.Truncate(time.Second)
	switch {
	case age < time.Second:
		return "updated just now"
	case age < time.Minute:
		return fmt.Sprintf("updated %ds ago", int(age.Seconds()))
	default:
		return fmt.Sprintf("updated %dm ago", int(age.Minutes()))
	}
}
