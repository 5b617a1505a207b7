package checks

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

const linuxPingOutput = `PING example.com (93.184.216.34) 56(84) bytes of data.
64 bytes from 93.184.216.34: icmp_seq=1 ttl=56 time=11.2 ms
64 bytes from 93.184.216.34: icmp_seq=2 ttl=56 time=10.8 ms
64 bytes from 93.184.216.34: icmp_seq=3 ttl=56 time=11.0 ms
64 bytes from 93.184.216.34: icmp_seq=4 ttl=56 time=11.4 ms

--- example.com ping statistics ---
4 packets transmitted, 4 received, 0% packet loss, time 3004ms
rtt min/avg/max/mdev = 10.800/11.100/11.400/0.223 ms
`

const macPingOutput = `PING example.com (93.184.216.34): 56 data bytes
64 bytes from 93.184.216.34: icmp_seq=0 ttl=56 time=12.611 ms

--- example.com ping statistics ---
4 packets transmitted, 3 packets received, 25.0% packet loss
round-trip min/avg/max/stddev = 12.122/12.611/13.014/0.370 ms
`

func TestParsePingOutput(t *testing.T) {
	tests := []struct {
		name     string
		output   string
		wantRTT  float64
		wantLoss int
	}{
		{
			name:     "linux output",
			output:   linuxPingOutput,
			wantRTT:  11.100,
			wantLoss: 0,
		},
		{
			name:     "macos output with partial loss",
			output:   macPingOutput,
			wantRTT:  12.611,
			wantLoss: 25,
		},
		{
			name:     "unparseable output",
			output:   "garbage",
			wantRTT:  0,
			wantLoss: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rtt, loss := parsePingOutput(tt.output)
			assert.InDelta(t, tt.wantRTT, rtt, 0.001)
			assert.Equal(t, tt.wantLoss, loss)
		})
	}
}
