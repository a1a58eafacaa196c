package scan

import (
	"encoding/binary"
	"fmt"
	"net"

	"github.com/nerdfunk-net/cockpit-sub000/internal/domain"
)

// ExpandTargets converts the request's CIDR list into a de-duplicated,
// size-bounded list of candidate addresses. Expansion fails fast: any
// malformed or oversized network rejects the whole request before a
// single probe is sent.
//
// minPrefixLen is the safety ceiling; a network with a shorter prefix
// (more hosts) is rejected. First-seen order is preserved across
// overlapping networks so progress reporting stays deterministic.
func ExpandTargets(cidrs []string, minPrefixLen int) ([]string, error) {
	if len(cidrs) > domain.MaxNetworks {
		return nil, fmt.Errorf("too many networks: %d (max %d)", len(cidrs), domain.MaxNetworks)
	}

	seen := make(map[string]bool)
	var targets []string

	for _, cidr := range cidrs {
		ips, err := expandCIDR(cidr, minPrefixLen)
		if err != nil {
			return nil, fmt.Errorf("network %q: %w", cidr, err)
		}
		for _, ip := range ips {
			if seen[ip] {
				continue
			}
			seen[ip] = true
			targets = append(targets, ip)
		}
	}

	return targets, nil
}

// expandCIDR converts a CIDR notation to a list of host IPs.
// A bare IP is treated as a single-host target.
func expandCIDR(cidr string, minPrefixLen int) ([]string, error) {
	_, ipNet, err := net.ParseCIDR(cidr)
	if err != nil {
		// Try parsing as single IP
		ip := net.ParseIP(cidr)
		if ip != nil && ip.To4() != nil {
			return []string{ip.String()}, nil
		}
		return nil, err
	}

	ip := ipNet.IP.To4()
	if ip == nil {
		return nil, fmt.Errorf("only IPv4 supported")
	}

	ones, bits := ipNet.Mask.Size()
	if bits != 32 {
		return nil, fmt.Errorf("only IPv4 supported")
	}
	if ones < minPrefixLen {
		return nil, fmt.Errorf("network too large: /%d covers more hosts than the /%d ceiling allows", ones, minPrefixLen)
	}

	networkInt := binary.BigEndian.Uint32(ip)
	maskInt := binary.BigEndian.Uint32(ipNet.Mask)

	firstIP := networkInt & maskInt
	lastIP := firstIP | ^maskInt

	// Skip network and broadcast addresses for /24 and larger
	if ones <= 24 {
		firstIP++
		lastIP--
	}

	ips := make([]string, 0, lastIP-firstIP+1)
	for i := firstIP; i <= lastIP; i++ {
		ipBytes := make([]byte, 4)
		binary.BigEndian.PutUint32(ipBytes, i)
		ips = append(ips, net.IP(ipBytes).String())
	}

	return ips, nil
}
