package checks

import (
	"bytes"
	"context"
	"os/exec"
	"strings"
)

// runTool executes an external binary and returns its stdout and stderr.
// The returned error is the raw exec error; callers distinguish missing
// binaries (exec.ErrNotFound), context timeouts and non-zero exits.
func runTool(ctx context.Context, binary string, args ...string) (stdout, stderr string, err error) {
	cmd := exec.CommandContext(ctx, binary, args...)

	var outBuf, errBuf bytes.Buffer
	cmd.Stdout = &outBuf
	cmd.Stderr = &errBuf

	err = cmd.Run()
	return outBuf.String(), errBuf.String(), err
}

// hostOnly strips an http/https scheme and any path from a target string,
// leaving the bare hostname.
func hostOnly(target string) string {
	host := strings.TrimPrefix(target, "https://")
	host = strings.TrimPrefix(host, "http://")
	if i := strings.IndexByte(host, '/'); i >= 0 {
		host = host[:i]
	}
	return host
}

// ensureURL prefixes https:// when the target carries no scheme.
func ensureURL(target string) string {
	if strings.HasPrefix(target, "http://") || strings.HasPrefix(target, "https://") {
		return target
	}
	return "https://" + target
}
