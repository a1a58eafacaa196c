package inventory

import (
	"fmt"
	"io"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/nerdfunk-net/cockpit-sub000/internal/domain"
)

// Host is one inventory entry: a general-purpose server selected for
// onboarding, enriched with whatever the scan learned about it.
type Host struct {
	Name     string
	Address  string
	Platform string
	Location string
	Role     string
	Tags     []string
	Extra    map[string]string
}

// Renderer writes an inventory artifact for a set of hosts
type Renderer interface {
	Format() string
	Render(hosts []Host, w io.Writer) error
}

// ansibleInventory is the on-disk Ansible inventory structure
type ansibleInventory struct {
	All ansibleGroup `yaml:"all"`
}

type ansibleGroup struct {
	Children map[string]ansibleGroupDef `yaml:"children,omitempty"`
	Hosts    map[string]ansibleHost     `yaml:"hosts,omitempty"`
}

type ansibleGroupDef struct {
	Hosts map[string]ansibleHost `yaml:"hosts,omitempty"`
}

type ansibleHost struct {
	AnsibleHost string                 `yaml:"ansible_host,omitempty"`
	Vars        map[string]interface{} `yaml:",inline"`
}

// AnsibleRenderer is the built-in default: a YAML Ansible inventory
// with hosts grouped by role (ungrouped hosts land under "servers").
type AnsibleRenderer struct{}

// NewAnsibleRenderer creates the default inventory renderer
func NewAnsibleRenderer() *AnsibleRenderer {
	return &AnsibleRenderer{}
}

func (r *AnsibleRenderer) Format() string {
	return "ansible-inventory"
}

// Render writes the hosts as an Ansible YAML inventory
func (r *AnsibleRenderer) Render(hosts []Host, w io.Writer) error {
	inv := ansibleInventory{
		All: ansibleGroup{
			Children: make(map[string]ansibleGroupDef),
		},
	}

	groups := make(map[string]map[string]ansibleHost)
	for _, h := range hosts {
		groupName := h.Role
		if groupName == "" {
			groupName = "servers"
		}
		if groups[groupName] == nil {
			groups[groupName] = make(map[string]ansibleHost)
		}

		name := h.Name
		if name == "" {
			name = h.Address
		}

		entry := ansibleHost{
			AnsibleHost: h.Address,
			Vars:        make(map[string]interface{}),
		}
		if h.Platform != "" {
			entry.Vars["platform"] = h.Platform
		}
		if h.Location != "" {
			entry.Vars["location"] = h.Location
		}
		if len(h.Tags) > 0 {
			entry.Vars["tags"] = h.Tags
		}
		for key, value := range h.Extra {
			entry.Vars[key] = value
		}

		groups[groupName][name] = entry
	}

	for groupName, groupHosts := range groups {
		inv.All.Children[groupName] = ansibleGroupDef{Hosts: groupHosts}
	}

	encoder := yaml.NewEncoder(w)
	encoder.SetIndent(2)
	defer encoder.Close()

	if err := encoder.Encode(&inv); err != nil {
		return fmt.Errorf("failed to encode inventory: %w", err)
	}
	return nil
}

// Registry resolves renderers by template name. The empty name is the
// built-in default; unknown names fail descriptively so a typo never
// silently produces the wrong artifact.
type Registry struct {
	fallback Renderer
	custom   map[string]Renderer
}

// NewRegistry creates a registry with the default Ansible renderer
func NewRegistry() *Registry {
	return &Registry{
		fallback: NewAnsibleRenderer(),
		custom:   make(map[string]Renderer),
	}
}

// Register adds a named custom renderer
func (r *Registry) Register(name string, renderer Renderer) {
	r.custom[name] = renderer
}

// Resolve returns the renderer for the named template
func (r *Registry) Resolve(name string) (Renderer, error) {
	if name == "" {
		return r.fallback, nil
	}
	renderer, ok := r.custom[name]
	if !ok {
		return nil, fmt.Errorf("unknown inventory template %q (known: %v)", name, r.Names())
	}
	return renderer, nil
}

// Names lists the registered custom template names, sorted
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.custom))
	for name := range r.custom {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// FromSelection builds an inventory host from a device selection and
// its scan facts
func FromSelection(sel domain.DeviceSelection, result domain.ScanResult) Host {
	host := Host{
		Name:     sel.Name,
		Address:  sel.Address,
		Platform: sel.Platform,
		Location: sel.Location,
		Role:     sel.Role,
		Tags:     sel.Tags,
		Extra:    sel.Extra,
	}
	if host.Name == "" {
		host.Name = result.Hostname
	}
	if host.Platform == "" {
		host.Platform = result.Platform
	}
	return host
}
