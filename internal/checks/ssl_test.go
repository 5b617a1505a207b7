package checks

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"crypto/x509/pkix"
	"math/big"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func makeCert(t *testing.T, subject pkix.Name, parent *x509.Certificate, parentKey *ecdsa.PrivateKey, notAfter time.Time, isCA bool) (*x509.Certificate, *ecdsa.PrivateKey) {
	t.Helper()

	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)

	tmpl := &x509.Certificate{
		SerialNumber:          big.NewInt(time.Now().UnixNano()),
		Subject:               subject,
		NotBefore:             time.Now().Add(-time.Hour),
		NotAfter:              notAfter,
		DNSNames:              []string{"example.com"},
		KeyUsage:              x509.KeyUsageDigitalSignature,
		BasicConstraintsValid: true,
		IsCA:                  isCA,
	}
	if isCA {
		tmpl.KeyUsage |= x509.KeyUsageCertSign
	}

	signer := tmpl
	signerKey := key
	if parent != nil {
		signer = parent
		signerKey = parentKey
	}
	der, err := x509.CreateCertificate(rand.Reader, tmpl, signer, &key.PublicKey, signerKey)
	require.NoError(t, err)

	cert, err := x509.ParseCertificate(der)
	require.NoError(t, err)
	return cert, key
}

func TestAuditCertificate(t *testing.T) {
	now := time.Now()

	t.Run("self-signed certificate", func(t *testing.T) {
		name := pkix.Name{CommonName: "example.com"}
		cert, _ := makeCert(t, name, nil, nil, now.Add(365*24*time.Hour), false)

		issues, severity := auditCertificate(cert, nil, "example.com", now)

		assert.Contains(t, issues, "Self-signed certificate")
		assert.Equal(t, SeverityMedium, severity)
	})

	t.Run("untrusted chain is a verification error", func(t *testing.T) {
		caName := pkix.Name{CommonName: "Test CA"}
		ca, caKey := makeCert(t, caName, nil, nil, now.Add(365*24*time.Hour), true)

		leafName := pkix.Name{CommonName: "example.com"}
		leaf, _ := makeCert(t, leafName, ca, caKey, now.Add(365*24*time.Hour), false)

		issues, severity := auditCertificate(leaf, []*x509.Certificate{ca}, "example.com", now)

		assert.Contains(t, issues, "Certificate verification error")
		assert.Equal(t, SeverityHigh, severity)
	})

	t.Run("expired certificate", func(t *testing.T) {
		name := pkix.Name{CommonName: "example.com"}
		cert, _ := makeCert(t, name, nil, nil, now.Add(-24*time.Hour), false)

		issues, severity := auditCertificate(cert, nil, "example.com", now)

		assert.Contains(t, issues, "Certificate has expired")
		assert.Equal(t, SeverityHigh, severity)
	})

	t.Run("certificate expiring within 30 days", func(t *testing.T) {
		name := pkix.Name{CommonName: "example.com"}
		cert, _ := makeCert(t, name, nil, nil, now.Add(10*24*time.Hour), false)

		issues, severity := auditCertificate(cert, nil, "example.com", now)

		assert.Contains(t, issues, "Certificate expires within 30 days")
		// Self-signed outranks the expiry warning.
		assert.Equal(t, SeverityMedium, severity)
		assert.Len(t, issues, 2)
	})

	t.Run("deterministic for the same input", func(t *testing.T) {
		name := pkix.Name{CommonName: "example.com"}
		cert, _ := makeCert(t, name, nil, nil, now.Add(365*24*time.Hour), false)

		firstIssues, firstSeverity := auditCertificate(cert, nil, "example.com", now)
		secondIssues, secondSeverity := auditCertificate(cert, nil, "example.com", now)

		assert.Equal(t, firstIssues, secondIssues)
		assert.Equal(t, firstSeverity, secondSeverity)
	})
}
