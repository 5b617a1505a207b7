package checks

import (
	"context"
	"errors"
	"log/slog"
	"os/exec"
	"regexp"
	"strconv"
	"time"
)

const defaultPingBudget = 10 * time.Second

var (
	pingRTTRe  = regexp.MustCompile(`(?:rtt|round-trip) min/avg/max[^=]*= [\d.]+/([\d.]+)/`)
	pingLossRe = regexp.MustCompile(`([\d.]+)% packet loss`)
)

// PingCheck verifies target availability with the system ping binary.
//
// Severity thresholds: unreachable target -> high (1 finding), ping timed
// out -> medium (1 finding), reachable -> info (0 findings).
type PingCheck struct {
	logger *slog.Logger
}

func NewPingCheck(logger *slog.Logger) *PingCheck {
	return &PingCheck{logger: logger}
}

func (c *PingCheck) Name() string { return "ping" }

func (c *PingCheck) Run(ctx context.Context, target string, cfg Config, budget time.Duration) Result {
	if budget <= 0 {
		budget = defaultPingBudget
	}
	ctx, cancel := context.WithTimeout(ctx, cfg.Seconds("ping_timeout", budget))
	defer cancel()

	host := hostOnly(target)
	c.logger.Info("Running ping check", slog.String("target", host))

	out, _, err := runTool(ctx, "ping", "-c", "4", host)
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			c.logger.Warn("Ping check timed out", slog.String("target", host))
			return Result{
				Status:   StatusFailed,
				Data:     map[string]any{"error": "ping check timed out"},
				Findings: 1,
				Severity: SeverityMedium,
			}
		}
		if errors.Is(err, exec.ErrNotFound) {
			return failedResult("ping not installed")
		}

		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			// Non-zero exit means no replies came back.
			return Result{
				Status: StatusSuccess,
				Data: map[string]any{
					"reachable":  false,
					"error":      "target is not reachable",
					"raw_output": out,
				},
				Findings: 1,
				Severity: SeverityHigh,
			}
		}
		return failedResult(err.Error())
	}

	rtt, loss := parsePingOutput(out)
	data := map[string]any{
		"reachable":           true,
		"packet_loss_percent": loss,
		"raw_output":          out,
	}
	if rtt > 0 {
		data["response_time_ms"] = rtt
	}

	return Result{
		Status:   StatusSuccess,
		Data:     data,
		Findings: 0,
		Severity: SeverityInfo,
	}
}

// parsePingOutput extracts the average round-trip time in milliseconds and
// the packet loss percentage from ping's summary lines. Missing values
// report as zero.
func parsePingOutput(out string) (avgRTT float64, lossPercent int) {
	if m := pingRTTRe.FindStringSubmatch(out); m != nil {
		avgRTT, _ = strconv.ParseFloat(m[1], 64)
	}
	if m := pingLossRe.FindStringSubmatch(out); m != nil {
		loss, _ := strconv.ParseFloat(m[1], 64)
		lossPercent = int(loss)
	}
	return avgRTT, lossPercent
}
