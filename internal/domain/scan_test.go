package domain

import (
	"strings"
	"testing"
)

func TestScanRequestValidate(t *testing.T) {
	tests := []struct {
		name    string
		req     ScanRequest
		wantErr string
	}{
		{
			name: "valid single network",
			req: ScanRequest{
				CIDRs:         []string{"10.0.0.0/24"},
				CredentialIDs: []string{"ssh.lab"},
			},
		},
		{
			name: "valid single address",
			req: ScanRequest{
				CIDRs:         []string{"192.168.1.10"},
				CredentialIDs: []string{"ssh.lab"},
			},
		},
		{
			name:    "no networks",
			req:     ScanRequest{CredentialIDs: []string{"ssh.lab"}},
			wantErr: "no networks",
		},
		{
			name: "eleven networks rejected",
			req: ScanRequest{
				CIDRs: []string{
					"10.0.0.0/28", "10.0.1.0/28", "10.0.2.0/28", "10.0.3.0/28",
					"10.0.4.0/28", "10.0.5.0/28", "10.0.6.0/28", "10.0.7.0/28",
					"10.0.8.0/28", "10.0.9.0/28", "10.0.10.0/28",
				},
				CredentialIDs: []string{"ssh.lab"},
			},
			wantErr: "too many networks",
		},
		{
			name: "malformed CIDR",
			req: ScanRequest{
				CIDRs:         []string{"10.0.0.0/33"},
				CredentialIDs: []string{"ssh.lab"},
			},
			wantErr: "invalid CIDR",
		},
		{
			name: "no credentials",
			req: ScanRequest{
				CIDRs: []string{"10.0.0.0/24"},
			},
			wantErr: "no credentials",
		},
		{
			name: "bad mode",
			req: ScanRequest{
				CIDRs:         []string{"10.0.0.0/24"},
				CredentialIDs: []string{"ssh.lab"},
				Mode:          "snmp",
			},
			wantErr: "invalid classification mode",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.req.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("Validate() unexpected error: %v", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("Validate() expected error containing %q, got nil", tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() error = %q, want substring %q", err, tt.wantErr)
			}
		})
	}
}

func TestScanRequestValidateDefaultsMode(t *testing.T) {
	req := ScanRequest{
		CIDRs:         []string{"10.0.0.0/24"},
		CredentialIDs: []string{"ssh.lab"},
	}
	if err := req.Validate(); err != nil {
		t.Fatalf("Validate() error: %v", err)
	}
	if req.Mode != ClassificationFull {
		t.Errorf("Mode = %q, want %q", req.Mode, ClassificationFull)
	}
}
