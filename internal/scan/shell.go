package scan

import (
	"context"
	"strings"

	"github.com/nerdfunk-net/cockpit-sub000/internal/domain"
)

// ShellDriver is the generic interactive-shell fallback. It runs
// after every vendor driver has missed: a vendor-style "show version"
// first (evidence of a network device the vendor drivers did not
// recognize), then a plain hostname/uname sequence to identify a
// general-purpose server.
type ShellDriver struct{}

func (d *ShellDriver) Name() string { return "shell" }

// Probe classifies the session as network-device or general-server.
// A host whose shell yields no identifiable output is a miss, which
// the classifier records as driver-not-supported.
func (d *ShellDriver) Probe(ctx context.Context, sess Session) (*Facts, error) {
	// A network device that none of the vendor drivers knew still
	// tends to answer "show version" with substantial output.
	if out, err := sess.Run("show version"); err == nil && looksLikeVersionOutput(out) {
		facts := &Facts{
			Family:   domain.FamilyNetworkDevice,
			Platform: firstLine(out),
			Raw:      out,
		}
		return facts, nil
	}

	hostname, err := sess.Run("hostname -f 2>/dev/null || hostname")
	if err != nil {
		return nil, nil
	}
	hostname = strings.TrimSpace(hostname)

	uname, err := sess.Run("uname -a")
	if err != nil {
		uname = ""
	}
	uname = strings.TrimSpace(uname)

	if hostname == "" && uname == "" {
		return nil, nil
	}
	if looksLikeShellError(hostname) {
		return nil, nil
	}

	facts := &Facts{
		Family:   domain.FamilyGeneralServer,
		Hostname: hostname,
		Raw:      uname,
	}

	// Platform from uname: kernel name and release
	// e.g. "Linux web01 5.15.0-76-generic #83-Ubuntu ... x86_64 GNU/Linux"
	if parts := strings.Fields(uname); len(parts) >= 3 {
		facts.Platform = parts[0] + " " + parts[2]
	} else if uname != "" {
		facts.Platform = uname
	}

	return facts, nil
}

// shellErrorMarkers are strings a shell emits instead of real command
// output
var shellErrorMarkers = []string{
	"command not found",
	"not recognized",
	"Unknown command",
	"Invalid input",
	"syntax error",
	"Permission denied",
	"% ",
	"sh: ",
}

// looksLikeVersionOutput reports whether "show version" returned
// substantial, error-free output
func looksLikeVersionOutput(out string) bool {
	out = strings.TrimSpace(out)
	if len(out) < 40 {
		return false
	}
	return !looksLikeShellError(out)
}

func looksLikeShellError(out string) bool {
	for _, marker := range shellErrorMarkers {
		if strings.Contains(out, marker) {
			return true
		}
	}
	return false
}

func firstLine(out string) string {
	out = strings.TrimSpace(out)
	if idx := strings.IndexByte(out, '\n'); idx > 0 {
		out = out[:idx]
	}
	return strings.TrimSpace(out)
}
