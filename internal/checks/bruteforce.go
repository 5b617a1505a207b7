package checks

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"
)

const (
	defaultBruteforceBudget = 5 * time.Minute
	defaultWordlist         = "/usr/share/wordlists/dirb/common.txt"
)

// minimalWordlist is the fallback used when no wordlist is available on the
// host running the worker.
var minimalWordlist = []string{
	"admin", "api", "backup", "config", "dashboard",
	"login", "test", "upload", ".git", ".env",
}

// foundPath is one path discovered by gobuster.
type foundPath struct {
	Path   string `json:"path"`
	Status string `json:"status"`
}

// BruteforceCheck probes for exposed paths with gobuster. The wordlist can
// be overridden per scan through the custom_wordlist config key.
//
// Severity thresholds: more than 20 discovered paths -> medium, more than 10
// -> low, otherwise info.
type BruteforceCheck struct {
	logger *slog.Logger
}

func NewBruteforceCheck(logger *slog.Logger) *BruteforceCheck {
	return &BruteforceCheck{logger: logger}
}

func (c *BruteforceCheck) Name() string { return "bruteforce" }

func (c *BruteforceCheck) Run(ctx context.Context, target string, cfg Config, budget time.Duration) Result {
	if budget <= 0 {
		budget = defaultBruteforceBudget
	}
	ctx, cancel := context.WithTimeout(ctx, cfg.Seconds("bruteforce_timeout", budget))
	defer cancel()

	url := ensureURL(target)
	c.logger.Info("Running directory brute-force", slog.String("url", url))

	wordlist := cfg.String("custom_wordlist", defaultWordlist)
	if _, err := os.Stat(wordlist); err != nil {
		c.logger.Warn("Wordlist not found, using minimal built-in list",
			slog.String("wordlist", wordlist),
		)
		tmp, err := writeMinimalWordlist()
		if err != nil {
			return failedResult("failed to prepare wordlist: " + err.Error())
		}
		defer os.Remove(tmp)
		wordlist = tmp
	}

	out, _, err := runTool(ctx, "gobuster", "dir",
		"-u", url,
		"-w", wordlist,
		"-t", "10",
		"-q",
		"--no-error",
		"--timeout", "30s",
	)
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			c.logger.Warn("Brute-force scan timed out", slog.String("url", url))
			return failedResult("brute-force scan timed out")
		}
		if errors.Is(err, exec.ErrNotFound) {
			return failedResult("gobuster not installed")
		}
		return failedResult("gobuster failed: " + err.Error())
	}

	found := parseGobusterOutput(out)

	return Result{
		Status: StatusSuccess,
		Data: map[string]any{
			"directories_found": found,
			"total_found":       len(found),
			"wordlist_used":     filepath.Base(wordlist),
		},
		Findings: len(found),
		Severity: bruteforceSeverity(len(found)),
	}
}

// parseGobusterOutput extracts discovered paths from gobuster's quiet-mode
// output. Lines look like "/admin (Status: 301) [Size: 0]".
func parseGobusterOutput(out string) []foundPath {
	found := []foundPath{}
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "=") {
			continue
		}
		parts := strings.Fields(line)
		if len(parts) < 2 {
			continue
		}
		status := strings.Trim(parts[1], "()")
		status = strings.TrimPrefix(status, "Status:")
		if len(parts) >= 3 && status == "" {
			status = strings.Trim(parts[2], "()")
		}
		if status == "" {
			status = "unknown"
		}
		found = append(found, foundPath{Path: parts[0], Status: status})
	}
	return found
}

func writeMinimalWordlist() (string, error) {
	f, err := os.CreateTemp("", "scanner-wordlist-*.txt")
	if err != nil {
		return "", err
	}
	if _, err := f.WriteString(strings.Join(minimalWordlist, "\n") + "\n"); err != nil {
		f.Close()
		os.Remove(f.Name())
		return "", err
	}
	if err := f.Close(); err != nil {
		os.Remove(f.Name())
		return "", err
	}
	return f.Name(), nil
}

func bruteforceSeverity(found int) Severity {
	switch {
	case found > 20:
		return SeverityMedium
	case found > 10:
		return SeverityLow
	default:
		return SeverityInfo
	}
}
