package checks

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const nmapXMLOutput = `<?xml version="1.0" encoding="UTF-8"?>
<nmaprun scanner="nmap" args="nmap -p- --open -T4 -oX - example.com">
  <host>
    <address addr="93.184.216.34" addrtype="ipv4"/>
    <ports>
      <port protocol="tcp" portid="22">
        <state state="open" reason="syn-ack"/>
        <service name="ssh" method="table"/>
      </port>
      <port protocol="tcp" portid="80">
        <state state="open" reason="syn-ack"/>
        <service name="http" method="table"/>
      </port>
      <port protocol="tcp" portid="443">
        <state state="filtered" reason="no-response"/>
        <service name="https" method="table"/>
      </port>
      <port protocol="tcp" portid="8080">
        <state state="open" reason="syn-ack"/>
        <service method="table"/>
      </port>
    </ports>
  </host>
</nmaprun>
`

func TestParseNmapXML(t *testing.T) {
	ports, err := parseNmapXML([]byte(nmapXMLOutput))
	require.NoError(t, err)
	require.Len(t, ports, 3, "only open ports are reported")

	assert.Equal(t, 22, ports[0].Port)
	assert.Equal(t, "ssh", ports[0].Service)
	assert.Equal(t, "tcp", ports[0].Protocol)
	assert.Equal(t, "open", ports[0].State)

	assert.Equal(t, 8080, ports[2].Port)
	assert.Equal(t, "unknown", ports[2].Service, "missing service name falls back to unknown")
}

func TestParseNmapXMLMalformed(t *testing.T) {
	_, err := parseNmapXML([]byte("<nmaprun><host>"))
	assert.Error(t, err)
}

func TestPortScanSeverity(t *testing.T) {
	tests := []struct {
		openPorts int
		want      Severity
	}{
		{0, SeverityInfo},
		{1, SeverityLow},
		{10, SeverityLow},
		{11, SeverityMedium},
		{20, SeverityMedium},
		{21, SeverityHigh},
		{100, SeverityHigh},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%d open ports", tt.openPorts), func(t *testing.T) {
			assert.Equal(t, tt.want, portScanSeverity(tt.openPorts))
			// Same input always yields the same severity.
			assert.Equal(t, portScanSeverity(tt.openPorts), portScanSeverity(tt.openPorts))
		})
	}
}
