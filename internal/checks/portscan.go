package checks

import (
	"context"
	"encoding/xml"
	"errors"
	"log/slog"
	"os/exec"
	"time"
)

const defaultPortScanBudget = 15 * time.Minute

// XML structs for nmap -oX output. Only the fields the check reads.
type nmapRun struct {
	XMLName xml.Name   `xml:"nmaprun"`
	Hosts   []nmapHost `xml:"host"`
}

type nmapHost struct {
	Ports nmapPorts `xml:"ports"`
}

type nmapPorts struct {
	Ports []nmapPort `xml:"port"`
}

type nmapPort struct {
	Protocol string      `xml:"protocol,attr"`
	PortID   int         `xml:"portid,attr"`
	State    nmapState   `xml:"state"`
	Service  nmapService `xml:"service"`
}

type nmapState struct {
	State string `xml:"state,attr"`
}

type nmapService struct {
	Name string `xml:"name,attr"`
}

// openPort is one open port reported by nmap.
type openPort struct {
	Port     int    `json:"port"`
	Protocol string `json:"protocol"`
	Service  string `json:"service"`
	State    string `json:"state"`
}

// PortScanCheck enumerates open TCP ports with nmap.
//
// Severity thresholds: more than 20 open ports -> high, more than 10 ->
// medium, more than 0 -> low, none -> info.
type PortScanCheck struct {
	logger *slog.Logger
}

func NewPortScanCheck(logger *slog.Logger) *PortScanCheck {
	return &PortScanCheck{logger: logger}
}

func (c *PortScanCheck) Name() string { return "portscan" }

func (c *PortScanCheck) Run(ctx context.Context, target string, cfg Config, budget time.Duration) Result {
	if budget <= 0 {
		budget = defaultPortScanBudget
	}
	ctx, cancel := context.WithTimeout(ctx, cfg.Seconds("portscan_timeout", budget))
	defer cancel()

	host := hostOnly(target)
	c.logger.Info("Running port scan", slog.String("target", host))

	out, stderr, err := runTool(ctx, "nmap", "-p-", "--open", "-T4", "-oX", "-", host)
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			c.logger.Warn("Port scan timed out", slog.String("target", host))
			return failedResult("port scan timed out")
		}
		if errors.Is(err, exec.ErrNotFound) {
			return failedResult("nmap not installed")
		}
		c.logger.Warn("nmap scan failed",
			slog.String("target", host),
			slog.String("stderr", stderr),
		)
		return failedResult("nmap scan failed")
	}

	ports, err := parseNmapXML([]byte(out))
	if err != nil {
		c.logger.Error("Failed to parse nmap output",
			slog.String("target", host),
			slog.String("error", err.Error()),
		)
		return failedResult("failed to parse nmap output")
	}

	return Result{
		Status: StatusSuccess,
		Data: map[string]any{
			"open_ports":     ports,
			"total_open":     len(ports),
			"scan_completed": true,
		},
		Findings: len(ports),
		Severity: portScanSeverity(len(ports)),
	}
}

// parseNmapXML extracts open ports from nmap's XML report.
func parseNmapXML(data []byte) ([]openPort, error) {
	var run nmapRun
	if err := xml.Unmarshal(data, &run); err != nil {
		return nil, err
	}

	ports := []openPort{}
	for _, host := range run.Hosts {
		for _, p := range host.Ports.Ports {
			if p.State.State != "open" {
				continue
			}
			service := p.Service.Name
			if service == "" {
				service = "unknown"
			}
			ports = append(ports, openPort{
				Port:     p.PortID,
				Protocol: p.Protocol,
				Service:  service,
				State:    "open",
			})
		}
	}
	return ports, nil
}

func portScanSeverity(openPorts int) Severity {
	switch {
	case openPorts > 20:
		return SeverityHigh
	case openPorts > 10:
		return SeverityMedium
	case openPorts > 0:
		return SeverityLow
	default:
		return SeverityInfo
	}
}
