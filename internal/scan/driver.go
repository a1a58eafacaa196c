package scan

import (
	"context"
	"regexp"
	"strings"

	"github.com/nerdfunk-net/cockpit-sub000/internal/domain"
)

// Facts are the classification output for one authenticated host
type Facts struct {
	Family   domain.DeviceFamily
	Hostname string
	Platform string
	// Raw is the command output the facts were extracted from,
	// kept so parse templates can re-extract with higher fidelity
	Raw string
}

// Driver probes an authenticated session for device facts.
// A miss returns (nil, nil); the classifier moves strictly to the
// next driver in its fixed order, never retrying the same driver
// with different parameters.
type Driver interface {
	Name() string
	Probe(ctx context.Context, sess Session) (*Facts, error)
}

// VendorDrivers returns the fixed-priority driver order: IOS first,
// the NX-OS variant second, Junos third.
func VendorDrivers() []Driver {
	return []Driver{
		&IOSDriver{},
		&NXOSDriver{},
		&JunosDriver{},
	}
}

var (
	iosHostnameRe   = regexp.MustCompile(`(?m)^(\S+)\s+uptime is`)
	iosPlatformRe   = regexp.MustCompile(`Cisco IOS(?:-XE)? Software[^,]*, ([^,\r\n]+)`)
	nxosHostnameRe  = regexp.MustCompile(`(?i)Device name:\s*(\S+)`)
	junosHostnameRe = regexp.MustCompile(`(?i)Hostname:\s*(\S+)`)
	junosVersionRe  = regexp.MustCompile(`Junos: (\S+)`)
)

// IOSDriver detects Cisco IOS and IOS-XE devices
type IOSDriver struct{}

func (d *IOSDriver) Name() string { return "ios" }

// Probe runs "show version" and parses the IOS banner. Output that
// does not look like IOS is a miss, not an error.
func (d *IOSDriver) Probe(ctx context.Context, sess Session) (*Facts, error) {
	out, err := sess.Run("show version")
	if err != nil {
		return nil, nil
	}

	if !strings.Contains(out, "Cisco IOS Software") && !strings.Contains(out, "Cisco IOS-XE Software") {
		return nil, nil
	}

	facts := &Facts{
		Family:   domain.FamilyNetworkDevice,
		Platform: "ios",
		Raw:      out,
	}
	if m := iosHostnameRe.FindStringSubmatch(out); m != nil {
		facts.Hostname = m[1]
	}
	if m := iosPlatformRe.FindStringSubmatch(out); m != nil {
		facts.Platform = strings.TrimSpace(m[1])
	}
	return facts, nil
}

// NXOSDriver detects Cisco Nexus (NX-OS) devices
type NXOSDriver struct{}

func (d *NXOSDriver) Name() string { return "nxos" }

func (d *NXOSDriver) Probe(ctx context.Context, sess Session) (*Facts, error) {
	out, err := sess.Run("show version")
	if err != nil {
		return nil, nil
	}

	if !strings.Contains(out, "Cisco Nexus Operating System") && !strings.Contains(out, "NX-OS") {
		return nil, nil
	}

	facts := &Facts{
		Family:   domain.FamilyNetworkDevice,
		Platform: "nxos",
		Raw:      out,
	}
	if m := nxosHostnameRe.FindStringSubmatch(out); m != nil {
		facts.Hostname = m[1]
	}
	return facts, nil
}

// JunosDriver detects Juniper devices
type JunosDriver struct{}

func (d *JunosDriver) Name() string { return "junos" }

func (d *JunosDriver) Probe(ctx context.Context, sess Session) (*Facts, error) {
	out, err := sess.Run("show version")
	if err != nil {
		return nil, nil
	}

	if !strings.Contains(out, "JUNOS") && !strings.Contains(out, "Junos:") {
		return nil, nil
	}

	facts := &Facts{
		Family:   domain.FamilyNetworkDevice,
		Platform: "junos",
		Raw:      out,
	}
	if m := junosHostnameRe.FindStringSubmatch(out); m != nil {
		facts.Hostname = strings.TrimSuffix(m[1], ".")
	}
	if m := junosVersionRe.FindStringSubmatch(out); m != nil {
		facts.Platform = "junos " + m[1]
	}
	return facts, nil
}
