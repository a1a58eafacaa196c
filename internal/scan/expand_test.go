package scan

import (
	"strings"
	"testing"
)

func TestExpandTargetsSlash24(t *testing.T) {
	targets, err := ExpandTargets([]string{"192.168.1.0/24"}, 22)
	if err != nil {
		t.Fatalf("ExpandTargets failed: %v", err)
	}
	if len(targets) != 254 {
		t.Errorf("expected 254 hosts, got %d", len(targets))
	}
	if targets[0] != "192.168.1.1" {
		t.Errorf("expected first host 192.168.1.1, got %s", targets[0])
	}
	if targets[len(targets)-1] != "192.168.1.254" {
		t.Errorf("expected last host 192.168.1.254, got %s", targets[len(targets)-1])
	}
	for _, target := range targets {
		if target == "192.168.1.0" || target == "192.168.1.255" {
			t.Errorf("network/broadcast address %s should be excluded", target)
		}
	}
}

func TestExpandTargetsSmallPrefix(t *testing.T) {
	// /30 is smaller than /24, so network and broadcast are kept
	targets, err := ExpandTargets([]string{"10.0.0.0/30"}, 22)
	if err != nil {
		t.Fatalf("ExpandTargets failed: %v", err)
	}
	if len(targets) != 4 {
		t.Errorf("expected 4 addresses for /30, got %d", len(targets))
	}
}

func TestExpandTargetsBareIP(t *testing.T) {
	targets, err := ExpandTargets([]string{"10.1.2.3"}, 22)
	if err != nil {
		t.Fatalf("ExpandTargets failed: %v", err)
	}
	if len(targets) != 1 || targets[0] != "10.1.2.3" {
		t.Errorf("expected single target 10.1.2.3, got %v", targets)
	}
}

func TestExpandTargetsOversizedNetwork(t *testing.T) {
	_, err := ExpandTargets([]string{"10.0.0.0/16"}, 22)
	if err == nil {
		t.Fatal("expected error for /16 against a /22 ceiling")
	}
	if !strings.Contains(err.Error(), "too large") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestExpandTargetsCeilingBoundary(t *testing.T) {
	// Exactly at the ceiling is allowed
	targets, err := ExpandTargets([]string{"10.0.0.0/22"}, 22)
	if err != nil {
		t.Fatalf("ExpandTargets failed at /22 ceiling: %v", err)
	}
	if len(targets) != 1022 {
		t.Errorf("expected 1022 hosts for /22, got %d", len(targets))
	}
}

func TestExpandTargetsTooManyNetworks(t *testing.T) {
	cidrs := make([]string, 11)
	for i := range cidrs {
		cidrs[i] = "10.0.0.1"
	}
	_, err := ExpandTargets(cidrs, 22)
	if err == nil {
		t.Fatal("expected error for 11 networks")
	}
}

func TestExpandTargetsOneBadNetworkRejectsAll(t *testing.T) {
	_, err := ExpandTargets([]string{"192.168.1.0/24", "not-a-network"}, 22)
	if err == nil {
		t.Fatal("expected error when one network is malformed")
	}
	if !strings.Contains(err.Error(), "not-a-network") {
		t.Errorf("error should name the offending network: %v", err)
	}
}

func TestExpandTargetsOverlapDedup(t *testing.T) {
	targets, err := ExpandTargets([]string{"192.168.1.0/30", "192.168.1.0/29"}, 22)
	if err != nil {
		t.Fatalf("ExpandTargets failed: %v", err)
	}

	seen := make(map[string]bool)
	for _, target := range targets {
		if seen[target] {
			t.Errorf("duplicate target %s", target)
		}
		seen[target] = true
	}
	// /30 contributes .0-.3; /29 adds .4-.7
	if len(targets) != 8 {
		t.Errorf("expected 8 unique targets, got %d", len(targets))
	}
	// First-seen order: the /30's addresses come first
	if targets[0] != "192.168.1.0" {
		t.Errorf("expected first-seen order to start at 192.168.1.0, got %s", targets[0])
	}
}

func TestExpandTargetsIPv6Rejected(t *testing.T) {
	_, err := ExpandTargets([]string{"2001:db8::/120"}, 22)
	if err == nil {
		t.Fatal("expected error for IPv6 network")
	}
}
