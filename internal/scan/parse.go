package scan

import (
	"regexp"
)

// OutputTemplate extracts hostname and platform from raw command
// output with higher fidelity than the drivers' built-in heuristics.
// Each pattern is a regular expression whose first capture group is
// the extracted value.
type OutputTemplate struct {
	Name     string `yaml:"name" json:"name"`
	Hostname string `yaml:"hostname,omitempty" json:"hostname,omitempty"`
	Platform string `yaml:"platform,omitempty" json:"platform,omitempty"`
}

// TemplateSet resolves parse template references by name
type TemplateSet map[string]OutputTemplate

// Apply refines facts using the named templates, in the order given.
// Any template failure - unknown name, invalid pattern, no match -
// falls back silently to the values the drivers already extracted.
func (ts TemplateSet) Apply(facts *Facts, names []string) {
	if facts == nil || facts.Raw == "" {
		return
	}

	for _, name := range names {
		tmpl, ok := ts[name]
		if !ok {
			continue
		}
		if v := extractFirst(tmpl.Hostname, facts.Raw); v != "" {
			facts.Hostname = v
		}
		if v := extractFirst(tmpl.Platform, facts.Raw); v != "" {
			facts.Platform = v
		}
	}
}

// extractFirst returns the first capture group of pattern applied to
// out, or "" when the pattern is empty, invalid, or does not match
func extractFirst(pattern, out string) string {
	if pattern == "" {
		return ""
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return ""
	}
	m := re.FindStringSubmatch(out)
	if len(m) < 2 {
		return ""
	}
	return m[1]
}
