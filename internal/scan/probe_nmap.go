package scan

import (
	"context"
	"time"

	nmap "github.com/Ullaakut/nmap/v3"
)

// NmapProber checks reachability with an nmap ping scan (-sn).
// It is selected by config when the nmap binary is present; the ping
// prober remains the default.
type NmapProber struct {
	timeout time.Duration
}

// NewNmapProber creates an nmap-based reachability prober
func NewNmapProber(timeout time.Duration) *NmapProber {
	if timeout == 0 {
		timeout = 1500 * time.Millisecond
	}
	return &NmapProber{timeout: timeout}
}

// Available reports whether the nmap binary can be executed
func (p *NmapProber) Available(ctx context.Context) bool {
	scanner, err := nmap.NewScanner(
		ctx,
		nmap.WithTargets("localhost"),
		nmap.WithListScan(),
	)
	if err != nil {
		return false
	}
	_, _, err = scanner.Run()
	return err == nil
}

// Probe runs a host-discovery-only scan against a single address
func (p *NmapProber) Probe(ctx context.Context, addr string) bool {
	ctx, cancel := context.WithTimeout(ctx, p.timeout+time.Second)
	defer cancel()

	scanner, err := nmap.NewScanner(
		ctx,
		nmap.WithTargets(addr),
		nmap.WithPingScan(),
		nmap.WithHostTimeout(p.timeout),
	)
	if err != nil {
		return false
	}

	result, _, err := scanner.Run()
	if err != nil || result == nil {
		return false
	}

	for _, host := range result.Hosts {
		if host.Status.State == "up" {
			return true
		}
	}
	return false
}
