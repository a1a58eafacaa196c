package onboard

import (
	"bytes"
	"context"
	"fmt"
	"log"

	"github.com/nerdfunk-net/cockpit-sub000/internal/domain"
	"github.com/nerdfunk-net/cockpit-sub000/internal/inventory"
	"github.com/nerdfunk-net/cockpit-sub000/internal/registration"
)

// JobLookup resolves a scan job id into its current status
type JobLookup interface {
	Status(id string) (*domain.ScanStatus, error)
}

// ArtifactStore persists rendered inventory artifacts
type ArtifactStore interface {
	Write(name string, content []byte) (string, error)
	Commit(ctx context.Context, relPath, message string) error
}

// EventPublisher receives onboarding lifecycle events
type EventPublisher interface {
	PublishEvent(eventType string, payload interface{})
}

// Dispatcher validates selected devices against a scan job's results
// and routes them: network devices to the registration API, general
// servers into a rendered inventory artifact.
type Dispatcher struct {
	jobs      JobLookup
	registrar registration.Submitter
	templates *inventory.Registry
	store     ArtifactStore
	publisher EventPublisher
}

// NewDispatcher creates an onboarding dispatcher. The store may be
// nil when no artifact repository is configured; general servers are
// then rejected at dispatch.
func NewDispatcher(jobs JobLookup, registrar registration.Submitter, templates *inventory.Registry, store ArtifactStore) *Dispatcher {
	if templates == nil {
		templates = inventory.NewRegistry()
	}
	return &Dispatcher{
		jobs:      jobs,
		registrar: registrar,
		templates: templates,
		store:     store,
	}
}

// SetEventPublisher sets the publisher for onboarding completion events
func (d *Dispatcher) SetEventPublisher(pub EventPublisher) {
	d.publisher = pub
}

// Dispatch runs one onboarding request. Selections that do not match
// a result of the referenced job are silently dropped: the accepted
// count in the result is the caller's signal. A failing registration
// submission never aborts the rest of the batch.
func (d *Dispatcher) Dispatch(ctx context.Context, req domain.OnboardRequest) (*domain.OnboardResult, error) {
	if req.JobID == "" {
		return nil, fmt.Errorf("no scan job referenced")
	}
	if len(req.Devices) == 0 {
		return nil, fmt.Errorf("no devices selected")
	}

	status, err := d.jobs.Status(req.JobID)
	if err != nil {
		return nil, fmt.Errorf("scan job %s: %w", req.JobID, err)
	}

	byAddress := make(map[string]domain.ScanResult, len(status.Results))
	for _, res := range status.Results {
		byAddress[res.Address] = res
	}

	var networkDevices []selection
	var servers []selection
	dropped := 0

	for _, sel := range req.Devices {
		res, ok := byAddress[sel.Address]
		if !ok {
			dropped++
			continue
		}
		// "Let the registration system decide" is expressed as an
		// absent platform on both branches
		if sel.Platform == domain.PlatformAutoDetect {
			sel.Platform = ""
		}
		switch res.Family {
		case domain.FamilyNetworkDevice:
			networkDevices = append(networkDevices, selection{sel, res})
		case domain.FamilyGeneralServer:
			servers = append(servers, selection{sel, res})
		default:
			// Unclassified hosts (auth-failed, driver-unsupported)
			// are not onboardable
			dropped++
		}
	}
	if dropped > 0 {
		log.Printf("Onboarding for job %s: dropped %d selections not onboardable from this scan", req.JobID, dropped)
	}

	result := &domain.OnboardResult{
		Accepted: len(networkDevices) + len(servers),
	}
	if result.Accepted == 0 {
		return result, nil
	}

	d.registerDevices(ctx, networkDevices, result)

	if len(servers) > 0 {
		if err := d.writeInventory(ctx, req, servers, result); err != nil {
			return nil, err
		}
	}

	if d.publisher != nil {
		d.publisher.PublishEvent("onboard-complete", map[string]interface{}{
			"job_id":         req.JobID,
			"accepted":       result.Accepted,
			"network_queued": result.NetworkQueued,
			"servers_added":  result.ServersAdded,
		})
	}

	return result, nil
}

// selection pairs the caller's metadata with the scan facts
type selection struct {
	sel domain.DeviceSelection
	res domain.ScanResult
}

// registerDevices submits each network device, isolating failures
// per device
func (d *Dispatcher) registerDevices(ctx context.Context, devices []selection, result *domain.OnboardResult) {
	if len(devices) == 0 {
		return
	}
	if d.registrar == nil {
		result.RegistrationErrors = make(map[string]string, len(devices))
		for _, dev := range devices {
			result.RegistrationErrors[dev.sel.Address] = "registration API not configured"
		}
		return
	}

	for _, dev := range devices {
		sub := registration.Submission{
			IP:        dev.sel.Address,
			Name:      dev.sel.Name,
			Location:  dev.sel.Location,
			Role:      dev.sel.Role,
			Status:    dev.sel.Status,
			Namespace: dev.sel.Namespace,
			Platform:  dev.sel.Platform,
			SecretID:  dev.res.CredentialID,
			Tags:      dev.sel.Tags,
		}
		if sub.Name == "" {
			sub.Name = dev.res.Hostname
		}

		trackingID, err := d.registrar.Submit(ctx, sub)
		if err != nil {
			log.Printf("Onboarding: registration of %s failed: %v", dev.sel.Address, err)
			if result.RegistrationErrors == nil {
				result.RegistrationErrors = make(map[string]string)
			}
			result.RegistrationErrors[dev.sel.Address] = err.Error()
			continue
		}

		if result.TrackingIDs == nil {
			result.TrackingIDs = make(map[string]string)
		}
		result.TrackingIDs[dev.sel.Address] = trackingID
		result.NetworkQueued++
	}
}

// writeInventory renders the selected servers and persists the
// artifact. Rendering and writing failures abort; a commit failure
// does not, since the artifact is already safely on disk.
func (d *Dispatcher) writeInventory(ctx context.Context, req domain.OnboardRequest, servers []selection, result *domain.OnboardResult) error {
	if d.store == nil {
		return fmt.Errorf("no inventory repository configured")
	}

	renderer, err := d.templates.Resolve(req.Template)
	if err != nil {
		return err
	}

	hosts := make([]inventory.Host, 0, len(servers))
	for _, srv := range servers {
		hosts = append(hosts, inventory.FromSelection(srv.sel, srv.res))
	}

	var buf bytes.Buffer
	if err := renderer.Render(hosts, &buf); err != nil {
		return fmt.Errorf("failed to render inventory: %w", err)
	}

	name := req.ArtifactName
	if name == "" {
		name = fmt.Sprintf("inventory-%s.yaml", req.JobID)
	}

	relPath, err := d.store.Write(name, buf.Bytes())
	if err != nil {
		return err
	}
	result.ArtifactPath = relPath
	result.ServersAdded = len(servers)

	if req.Commit {
		if err := d.store.Commit(ctx, relPath, req.CommitMessage); err != nil {
			log.Printf("Onboarding: commit of %s failed: %v", relPath, err)
			result.CommitError = err.Error()
		} else {
			result.Committed = true
		}
	}
	return nil
}
