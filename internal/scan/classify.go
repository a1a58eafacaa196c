package scan

import (
	"context"
	"log"

	"github.com/nerdfunk-net/cockpit-sub000/internal/domain"
)

// Classifier runs device-family detection over an authenticated
// session: vendor drivers in fixed priority order, generic shell
// probe last. The first driver that returns facts wins; the rest of
// the order is abandoned.
type Classifier struct {
	vendor    []Driver
	shell     Driver
	templates TemplateSet
}

// NewClassifier creates a classifier. Nil vendor drivers default to
// the fixed IOS/NX-OS/Junos order.
func NewClassifier(vendor []Driver, templates TemplateSet) *Classifier {
	if vendor == nil {
		vendor = VendorDrivers()
	}
	if templates == nil {
		templates = TemplateSet{}
	}
	return &Classifier{
		vendor:    vendor,
		shell:     &ShellDriver{},
		templates: templates,
	}
}

// Classify probes the session for device facts. Shell-only mode skips
// the vendor drivers entirely. A nil return means no probe yielded
// identifiable output; the caller records driver-not-supported.
func (c *Classifier) Classify(ctx context.Context, addr string, sess Session, mode domain.ClassificationMode, templateNames []string) *Facts {
	drivers := c.order(mode)

	for _, d := range drivers {
		if ctx.Err() != nil {
			return nil
		}

		facts, err := d.Probe(ctx, sess)
		if err != nil {
			log.Printf("Classifier: driver %s errored on %s: %v", d.Name(), addr, err)
			continue
		}
		if facts == nil {
			continue
		}

		c.templates.Apply(facts, templateNames)
		log.Printf("Classifier: %s identified %s as %s (platform=%q, hostname=%q)",
			d.Name(), addr, facts.Family, facts.Platform, facts.Hostname)
		return facts
	}

	return nil
}

// order returns the probe sequence for the given mode
func (c *Classifier) order(mode domain.ClassificationMode) []Driver {
	if mode == domain.ClassificationShell {
		return []Driver{c.shell}
	}
	drivers := make([]Driver, 0, len(c.vendor)+1)
	drivers = append(drivers, c.vendor...)
	drivers = append(drivers, c.shell)
	return drivers
}
