package checks

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"log/slog"
	"time"
)

const (
	defaultSSLBudget = 10 * time.Second

	// Certificates expiring within this window are flagged.
	sslExpiryWarning = 30 * 24 * time.Hour
)

// SSLCheck inspects the target's TLS certificate chain on port 443.
//
// Each issue carries a fixed severity and the overall severity is the
// highest one triggered: chain does not verify -> high, certificate expired
// -> high, self-signed certificate -> medium, certificate expires within 30
// days -> low, no issues -> info. Findings is the number of issues. A failed
// TLS handshake reports one finding at severity high.
type SSLCheck struct {
	logger *slog.Logger
}

func NewSSLCheck(logger *slog.Logger) *SSLCheck {
	return &SSLCheck{logger: logger}
}

func (c *SSLCheck) Name() string { return "ssl" }

func (c *SSLCheck) Run(ctx context.Context, target string, cfg Config, budget time.Duration) Result {
	if budget <= 0 {
		budget = defaultSSLBudget
	}
	ctx, cancel := context.WithTimeout(ctx, cfg.Seconds("ssl_timeout", budget))
	defer cancel()

	host := hostOnly(target)
	c.logger.Info("Checking TLS certificate", slog.String("target", host))

	// Verification is done manually afterwards so that certificate details
	// are still collected for broken chains.
	dialer := &tls.Dialer{
		Config: &tls.Config{
			ServerName:         host,
			InsecureSkipVerify: true,
		},
	}

	conn, err := dialer.DialContext(ctx, "tcp", host+":443")
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			c.logger.Warn("TLS check timed out", slog.String("target", host))
			return failedResult("ssl check timed out")
		}
		c.logger.Warn("TLS handshake failed",
			slog.String("target", host),
			slog.String("error", err.Error()),
		)
		return Result{
			Status:   StatusFailed,
			Data:     map[string]any{"error": "failed to connect to SSL/TLS server"},
			Findings: 1,
			Severity: SeverityHigh,
		}
	}
	defer conn.Close()

	state := conn.(*tls.Conn).ConnectionState()
	if len(state.PeerCertificates) == 0 {
		return Result{
			Status:   StatusFailed,
			Data:     map[string]any{"error": "server presented no certificate"},
			Findings: 1,
			Severity: SeverityHigh,
		}
	}

	leaf := state.PeerCertificates[0]
	issues, severity := auditCertificate(leaf, state.PeerCertificates[1:], host, time.Now())

	daysUntilExpiry := int(time.Until(leaf.NotAfter).Hours() / 24)

	return Result{
		Status: StatusSuccess,
		Data: map[string]any{
			"certificate": map[string]any{
				"issuer":            leaf.Issuer.String(),
				"subject":           leaf.Subject.String(),
				"expires":           leaf.NotAfter.Format(time.RFC3339),
				"days_until_expiry": daysUntilExpiry,
			},
			"issues":  issues,
			"has_ssl": true,
		},
		Findings: len(issues),
		Severity: severity,
	}
}

// auditCertificate evaluates the presented chain and returns the issues
// found together with the overall severity.
func auditCertificate(leaf *x509.Certificate, rest []*x509.Certificate, host string, now time.Time) ([]string, Severity) {
	issues := []string{}
	severity := SeverityInfo

	selfSigned := leaf.Issuer.String() == leaf.Subject.String()
	if selfSigned {
		issues = append(issues, "Self-signed certificate")
		severity = maxSeverity(severity, SeverityMedium)
	}

	intermediates := x509.NewCertPool()
	for _, cert := range rest {
		intermediates.AddCert(cert)
	}
	if _, err := leaf.Verify(x509.VerifyOptions{
		DNSName:       host,
		Intermediates: intermediates,
		CurrentTime:   now,
	}); err != nil && !selfSigned {
		issues = append(issues, "Certificate verification error")
		severity = maxSeverity(severity, SeverityHigh)
	}

	switch {
	case now.After(leaf.NotAfter):
		issues = append(issues, "Certificate has expired")
		severity = maxSeverity(severity, SeverityHigh)
	case leaf.NotAfter.Sub(now) < sslExpiryWarning:
		issues = append(issues, "Certificate expires within 30 days")
		severity = maxSeverity(severity, SeverityLow)
	}

	return issues, severity
}
