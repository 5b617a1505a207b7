package checks

import (
	"context"
	"log/slog"
	"net/http"
	"time"
)

const defaultHeadersBudget = 15 * time.Second

// securityHeaders lists the response headers whose absence is reported as a
// finding.
var securityHeaders = []string{
	"Strict-Transport-Security",
	"Content-Security-Policy",
	"X-Frame-Options",
	"X-Content-Type-Options",
	"X-XSS-Protection",
	"Referrer-Policy",
	"Permissions-Policy",
}

// HeadersCheck audits a target's HTTP response for missing security headers.
//
// Severity thresholds: 5 or more missing headers -> high, 3 or more ->
// medium, more than 0 -> low, none -> info.
type HeadersCheck struct {
	logger *slog.Logger
	client *http.Client
}

func NewHeadersCheck(logger *slog.Logger) *HeadersCheck {
	return &HeadersCheck{
		logger: logger,
		client: &http.Client{},
	}
}

func (c *HeadersCheck) Name() string { return "headers" }

func (c *HeadersCheck) Run(ctx context.Context, target string, cfg Config, budget time.Duration) Result {
	if budget <= 0 {
		budget = defaultHeadersBudget
	}
	ctx, cancel := context.WithTimeout(ctx, cfg.Seconds("headers_timeout", budget))
	defer cancel()

	url := ensureURL(target)
	c.logger.Info("Checking HTTP security headers", slog.String("url", url))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return failedResult("invalid target URL: " + err.Error())
	}

	resp, err := c.client.Do(req)
	if err != nil {
		c.logger.Warn("Failed to fetch headers",
			slog.String("url", url),
			slog.String("error", err.Error()),
		)
		return failedResult("failed to fetch headers")
	}
	defer resp.Body.Close()

	present := map[string]string{}
	for name := range resp.Header {
		present[name] = resp.Header.Get(name)
	}

	missing := []string{}
	for _, h := range securityHeaders {
		if resp.Header.Get(h) == "" {
			missing = append(missing, h)
		}
	}

	server := resp.Header.Get("Server")
	if server == "" {
		server = "unknown"
	}

	return Result{
		Status: StatusSuccess,
		Data: map[string]any{
			"headers_present": present,
			"missing_headers": missing,
			"server":          server,
			"status_code":     resp.StatusCode,
		},
		Findings: len(missing),
		Severity: headersSeverity(len(missing)),
	}
}

func headersSeverity(missing int) Severity {
	switch {
	case missing >= 5:
		return SeverityHigh
	case missing >= 3:
		return SeverityMedium
	case missing > 0:
		return SeverityLow
	default:
		return SeverityInfo
	}
}
