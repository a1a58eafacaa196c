package onboard

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/nerdfunk-net/cockpit-sub000/internal/domain"
	"github.com/nerdfunk-net/cockpit-sub000/internal/registration"
)

// fakeJobs serves one canned scan status
type fakeJobs struct {
	status *domain.ScanStatus
}

func (f *fakeJobs) Status(id string) (*domain.ScanStatus, error) {
	if f.status == nil || f.status.JobID != id {
		return nil, errors.New("scan job not found")
	}
	return f.status, nil
}

// fakeRegistrar records submissions and fails configured addresses
type fakeRegistrar struct {
	failFor     map[string]bool
	submissions []registration.Submission
}

func (f *fakeRegistrar) Submit(ctx context.Context, sub registration.Submission) (string, error) {
	f.submissions = append(f.submissions, sub)
	if f.failFor[sub.IP] {
		return "", errors.New("location does not exist")
	}
	return "track-" + sub.IP, nil
}

// fakeStore keeps artifacts in memory
type fakeStore struct {
	written    map[string][]byte
	commitErr  error
	committed  []string
	commitMsgs []string
}

func (f *fakeStore) Write(name string, content []byte) (string, error) {
	if f.written == nil {
		f.written = make(map[string][]byte)
	}
	path := "inventories/" + name
	f.written[path] = content
	return path, nil
}

func (f *fakeStore) Commit(ctx context.Context, relPath, message string) error {
	if f.commitErr != nil {
		return f.commitErr
	}
	f.committed = append(f.committed, relPath)
	f.commitMsgs = append(f.commitMsgs, message)
	return nil
}

// fakePublisher captures lifecycle events
type fakePublisher struct {
	types    []string
	payloads []interface{}
}

func (f *fakePublisher) PublishEvent(eventType string, payload interface{}) {
	f.types = append(f.types, eventType)
	f.payloads = append(f.payloads, payload)
}

func scanStatus() *domain.ScanStatus {
	return &domain.ScanStatus{
		JobID: "job-1",
		State: domain.JobFinished,
		Results: []domain.ScanResult{
			{Address: "10.0.0.1", CredentialID: "c1", Family: domain.FamilyNetworkDevice, Hostname: "sw-01", Platform: "ios"},
			{Address: "10.0.0.2", CredentialID: "c1", Family: domain.FamilyNetworkDevice, Hostname: "sw-02", Platform: "nxos"},
			{Address: "10.0.0.3", CredentialID: "c2", Family: domain.FamilyGeneralServer, Hostname: "web-01", Platform: "Linux 5.15.0"},
			{Address: "10.0.0.4", Failure: domain.FailureAuth},
		},
	}
}

func TestDispatchRoutesByFamily(t *testing.T) {
	registrar := &fakeRegistrar{}
	store := &fakeStore{}
	pub := &fakePublisher{}
	d := NewDispatcher(&fakeJobs{status: scanStatus()}, registrar, nil, store)
	d.SetEventPublisher(pub)

	result, err := d.Dispatch(context.Background(), domain.OnboardRequest{
		JobID: "job-1",
		Devices: []domain.DeviceSelection{
			{Address: "10.0.0.1", Location: "dc1", Role: "access"},
			{Address: "10.0.0.3", Role: "webserver"},
		},
	})
	if err != nil {
		t.Fatalf("Dispatch failed: %v", err)
	}

	if result.Accepted != 2 {
		t.Errorf("expected 2 accepted, got %d", result.Accepted)
	}
	if result.NetworkQueued != 1 {
		t.Errorf("expected 1 network device queued, got %d", result.NetworkQueued)
	}
	if result.ServersAdded != 1 {
		t.Errorf("expected 1 server added, got %d", result.ServersAdded)
	}
	if result.TrackingIDs["10.0.0.1"] != "track-10.0.0.1" {
		t.Errorf("missing tracking id: %v", result.TrackingIDs)
	}
	if result.ArtifactPath == "" {
		t.Error("expected artifact path")
	}
	if len(store.written) != 1 {
		t.Errorf("expected 1 artifact, got %d", len(store.written))
	}

	// Scan facts flow into the submission
	if len(registrar.submissions) != 1 {
		t.Fatalf("expected 1 submission, got %d", len(registrar.submissions))
	}
	sub := registrar.submissions[0]
	if sub.Name != "sw-01" {
		t.Errorf("expected scan hostname fallback, got %q", sub.Name)
	}
	if sub.SecretID != "c1" {
		t.Errorf("expected winning credential reference, got %q", sub.SecretID)
	}

	if len(pub.types) != 1 || pub.types[0] != "onboard-complete" {
		t.Errorf("expected one onboard-complete event, got %v", pub.types)
	}
}

func TestDispatchSilentlyDropsUnknownAddresses(t *testing.T) {
	registrar := &fakeRegistrar{}
	d := NewDispatcher(&fakeJobs{status: scanStatus()}, registrar, nil, &fakeStore{})

	result, err := d.Dispatch(context.Background(), domain.OnboardRequest{
		JobID: "job-1",
		Devices: []domain.DeviceSelection{
			{Address: "10.0.0.1"},
			{Address: "192.0.2.99"}, // never scanned
			{Address: "10.0.0.4"},   // scanned, auth-failed
		},
	})
	if err != nil {
		t.Fatalf("Dispatch must not fail on unknown addresses: %v", err)
	}
	if result.Accepted != 1 {
		t.Errorf("expected 1 accepted, got %d", result.Accepted)
	}
	if len(registrar.submissions) != 1 {
		t.Errorf("dropped selections must not be submitted, got %d", len(registrar.submissions))
	}
}

func TestDispatchUnknownJob(t *testing.T) {
	d := NewDispatcher(&fakeJobs{}, &fakeRegistrar{}, nil, &fakeStore{})

	_, err := d.Dispatch(context.Background(), domain.OnboardRequest{
		JobID:   "gone",
		Devices: []domain.DeviceSelection{{Address: "10.0.0.1"}},
	})
	if err == nil {
		t.Fatal("expected error for unknown job")
	}
}

func TestDispatchRegistrationFailureIsolated(t *testing.T) {
	registrar := &fakeRegistrar{failFor: map[string]bool{"10.0.0.1": true}}
	d := NewDispatcher(&fakeJobs{status: scanStatus()}, registrar, nil, &fakeStore{})

	result, err := d.Dispatch(context.Background(), domain.OnboardRequest{
		JobID: "job-1",
		Devices: []domain.DeviceSelection{
			{Address: "10.0.0.1"},
			{Address: "10.0.0.2"},
		},
	})
	if err != nil {
		t.Fatalf("one failing device must not abort the batch: %v", err)
	}
	if result.NetworkQueued != 1 {
		t.Errorf("expected 1 queued, got %d", result.NetworkQueued)
	}
	if result.RegistrationErrors["10.0.0.1"] == "" {
		t.Error("expected per-device error for 10.0.0.1")
	}
	if result.TrackingIDs["10.0.0.2"] == "" {
		t.Error("expected 10.0.0.2 to succeed independently")
	}
}

func TestDispatchPlatformAutoDetectNormalized(t *testing.T) {
	registrar := &fakeRegistrar{}
	store := &fakeStore{}
	d := NewDispatcher(&fakeJobs{status: scanStatus()}, registrar, nil, store)

	_, err := d.Dispatch(context.Background(), domain.OnboardRequest{
		JobID:        "job-1",
		ArtifactName: "inv.yaml",
		Devices: []domain.DeviceSelection{
			{Address: "10.0.0.1", Platform: domain.PlatformAutoDetect},
			{Address: "10.0.0.3", Platform: domain.PlatformAutoDetect},
		},
	})
	if err != nil {
		t.Fatalf("Dispatch failed: %v", err)
	}

	if registrar.submissions[0].Platform != "" {
		t.Errorf("auto-detect sentinel must be absent on the wire, got %q", registrar.submissions[0].Platform)
	}
	artifact := string(store.written["inventories/inv.yaml"])
	if strings.Contains(artifact, "platform: "+domain.PlatformAutoDetect) {
		t.Errorf("sentinel leaked into artifact:\n%s", artifact)
	}
	// With the sentinel gone, the scan's own platform fills in
	if !strings.Contains(artifact, "Linux 5.15.0") {
		t.Errorf("expected scan platform in artifact:\n%s", artifact)
	}
}

func TestDispatchCommit(t *testing.T) {
	store := &fakeStore{}
	d := NewDispatcher(&fakeJobs{status: scanStatus()}, &fakeRegistrar{}, nil, store)

	result, err := d.Dispatch(context.Background(), domain.OnboardRequest{
		JobID:         "job-1",
		Commit:        true,
		CommitMessage: "add scanned servers",
		Devices:       []domain.DeviceSelection{{Address: "10.0.0.3"}},
	})
	if err != nil {
		t.Fatalf("Dispatch failed: %v", err)
	}
	if !result.Committed {
		t.Error("expected committed result")
	}
	if len(store.committed) != 1 || store.commitMsgs[0] != "add scanned servers" {
		t.Errorf("unexpected commit %v / %v", store.committed, store.commitMsgs)
	}
}

func TestDispatchCommitFailureKeepsArtifact(t *testing.T) {
	store := &fakeStore{commitErr: errors.New("remote rejected")}
	d := NewDispatcher(&fakeJobs{status: scanStatus()}, &fakeRegistrar{}, nil, store)

	result, err := d.Dispatch(context.Background(), domain.OnboardRequest{
		JobID:   "job-1",
		Commit:  true,
		Devices: []domain.DeviceSelection{{Address: "10.0.0.3"}},
	})
	if err != nil {
		t.Fatalf("commit failure must not fail the dispatch: %v", err)
	}
	if result.Committed {
		t.Error("result must not claim a failed commit")
	}
	if result.CommitError == "" {
		t.Error("expected commit error in result")
	}
	if result.ArtifactPath == "" {
		t.Error("artifact path must survive a failed commit")
	}
}

func TestDispatchUnknownTemplate(t *testing.T) {
	d := NewDispatcher(&fakeJobs{status: scanStatus()}, &fakeRegistrar{}, nil, &fakeStore{})

	_, err := d.Dispatch(context.Background(), domain.OnboardRequest{
		JobID:    "job-1",
		Template: "nope",
		Devices:  []domain.DeviceSelection{{Address: "10.0.0.3"}},
	})
	if err == nil {
		t.Fatal("expected error for unknown inventory template")
	}
}

func TestDispatchEmptySelection(t *testing.T) {
	d := NewDispatcher(&fakeJobs{status: scanStatus()}, &fakeRegistrar{}, nil, &fakeStore{})

	if _, err := d.Dispatch(context.Background(), domain.OnboardRequest{JobID: "job-1"}); err == nil {
		t.Fatal("expected error for empty device selection")
	}
}

func TestDispatchAllDroppedIsNotAnError(t *testing.T) {
	registrar := &fakeRegistrar{}
	d := NewDispatcher(&fakeJobs{status: scanStatus()}, registrar, nil, &fakeStore{})

	result, err := d.Dispatch(context.Background(), domain.OnboardRequest{
		JobID:   "job-1",
		Devices: []domain.DeviceSelection{{Address: fmt.Sprintf("203.0.113.%d", 7)}},
	})
	if err != nil {
		t.Fatalf("Dispatch failed: %v", err)
	}
	if result.Accepted != 0 {
		t.Errorf("expected 0 accepted, got %d", result.Accepted)
	}
}
