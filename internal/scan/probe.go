package scan

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os/exec"
	"strconv"
	"syscall"
	"time"

	"golang.org/x/time/rate"
)

// Prober answers the single question "is this address alive" with a
// short timeout. It exists purely as a cheap pre-filter before the
// expensive credential trials; it never authenticates.
type Prober interface {
	Probe(ctx context.Context, addr string) bool
}

// PingConfig holds configuration for the default reachability prober
type PingConfig struct {
	// Timeout for one reachability check
	Timeout time.Duration
	// FallbackPorts are dialed when ICMP is unavailable
	// (unprivileged containers without a ping binary)
	FallbackPorts []int
	// RatePerSecond caps outgoing probes across the whole job
	RatePerSecond float64
}

// DefaultPingConfig returns sensible defaults
func DefaultPingConfig() PingConfig {
	return PingConfig{
		Timeout:       1500 * time.Millisecond,
		FallbackPorts: []int{22, 23, 443},
		RatePerSecond: 100,
	}
}

// PingProber checks reachability with one ICMP echo via the system
// ping binary, falling back to TCP dials on common ports.
type PingProber struct {
	config  PingConfig
	limiter *rate.Limiter
}

// NewPingProber creates a prober with the given config
func NewPingProber(config PingConfig) *PingProber {
	if config.Timeout == 0 {
		config.Timeout = 1500 * time.Millisecond
	}
	if len(config.FallbackPorts) == 0 {
		config.FallbackPorts = []int{22, 23, 443}
	}
	if config.RatePerSecond == 0 {
		config.RatePerSecond = 100
	}
	return &PingProber{
		config:  config,
		limiter: rate.NewLimiter(rate.Limit(config.RatePerSecond), 10),
	}
}

// Probe returns true if the address answers an ICMP echo or accepts
// (or actively refuses) a TCP connection on a fallback port.
func (p *PingProber) Probe(ctx context.Context, addr string) bool {
	if err := p.limiter.Wait(ctx); err != nil {
		return false
	}

	if p.icmpPing(ctx, addr) {
		return true
	}
	return p.tcpPing(ctx, addr)
}

// icmpPing performs an ICMP ping using the system ping command
func (p *PingProber) icmpPing(ctx context.Context, ip string) bool {
	timeoutSec := int(p.config.Timeout.Seconds())
	if timeoutSec < 1 {
		timeoutSec = 1
	}

	ctx, cancel := context.WithTimeout(ctx, p.config.Timeout+time.Second)
	defer cancel()

	// Linux ping: -c count, -W timeout in seconds
	cmd := exec.CommandContext(ctx, "ping", "-c", "1", "-W", strconv.Itoa(timeoutSec), ip)
	return cmd.Run() == nil
}

// tcpPing attempts a TCP connection to fallback ports to check
// reachability. A refused connection still means the host is up: the
// RST came from the host itself. Timeouts and routing errors
// (host/network unreachable) do not.
func (p *PingProber) tcpPing(ctx context.Context, ip string) bool {
	for _, port := range p.config.FallbackPorts {
		addr := fmt.Sprintf("%s:%d", ip, port)

		dialer := net.Dialer{Timeout: p.config.Timeout}
		conn, err := dialer.DialContext(ctx, "tcp", addr)
		if err == nil {
			conn.Close()
			return true
		}
		if hostAnswered(err) {
			return true
		}
	}
	return false
}

// hostAnswered reports whether a failed dial still proves the host is
// alive. Only an active refusal qualifies.
func hostAnswered(err error) bool {
	return errors.Is(err, syscall.ECONNREFUSED)
}
