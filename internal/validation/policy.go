package validation

import (
	"net/url"
	"strings"
)

// Decision is the policy classification of a resource URL.
type Decision int

const (
	// DecisionAllow marks a URL on the curated allow-list of documentation
	// domains. Only a true network failure can mark it unreachable.
	DecisionAllow Decision = iota

	// DecisionDeny marks a URL matching the deny-list. Denied resources are
	// removed from the curriculum before any network check.
	DecisionDeny

	// DecisionProvisional marks a URL matching neither list. It is kept and
	// its liveness check decides the reachable flag.
	DecisionProvisional
)

// Policy classifies resource URLs against a curated allow-list, a deny-list,
// and a URL-pattern blocklist, in that order.
type Policy struct {
	allowDomains []string
	denyDomains  []string
	denyPatterns []string
}

// Known high-quality documentation domains. Suffix-matched, so subdomains of
// an allowed domain are allowed too.
var defaultAllowDomains = []string{
	"doc.rust-lang.org",
	"docs.rs",
	"docs.python.org",
	"docs.oracle.com",
	"pkg.go.dev",
	"go.dev",
	"developer.mozilla.org",
	"learn.microsoft.com",
	"docs.microsoft.com",
	"kubernetes.io",
	"docs.docker.com",
	"postgresql.org",
	"readthedocs.io",
	"ecma-international.org",
	"w3.org",
	"ietf.org",
}

// Domains associated with tutorials, courses, and worked solutions. The
// curation philosophy rules these out regardless of content quality.
var defaultDenyDomains = []string{
	"youtube.com",
	"youtu.be",
	"udemy.com",
	"coursera.org",
	"medium.com",
	"dev.to",
	"w3schools.com",
	"geeksforgeeks.org",
	"freecodecamp.org",
	"tutorialspoint.com",
	"codecademy.com",
}

// Path fragments that indicate hand-holding content on otherwise neutral
// domains.
var defaultDenyPatterns = []string{
	"/tutorial",
	"/tutorials",
	"/how-to",
	"/howto",
	"/step-by-step",
	"/solutions",
	"/cheatsheet",
	"/course",
}

// DefaultPolicy returns the curated policy.
func DefaultPolicy() *Policy {
	return NewPolicy(defaultAllowDomains, defaultDenyDomains, defaultDenyPatterns)
}

// NewPolicy builds a policy from explicit lists. Domains are matched by
// suffix against the URL host; patterns are matched as substrings of the
// URL path.
func NewPolicy(allowDomains, denyDomains, denyPatterns []string) *Policy {
	return &Policy{
		allowDomains: allowDomains,
		denyDomains:  denyDomains,
		denyPatterns: denyPatterns,
	}
}

// Classify returns the policy decision for one URL. Unparseable URLs and
// non-HTTP schemes are denied: they cannot be presented to a learner as a
// reference link.
func (p *Policy) Classify(raw string) Decision {
	u, err := url.Parse(raw)
	if err != nil {
		return DecisionDeny
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return DecisionDeny
	}

	host := strings.ToLower(u.Hostname())
	if host == "" {
		return DecisionDeny
	}

	if matchDomain(host, p.allowDomains) {
		return DecisionAllow
	}
	if matchDomain(host, p.denyDomains) {
		return DecisionDeny
	}

	path := strings.ToLower(u.Path)
	for _, pattern := range p.denyPatterns {
		if strings.Contains(path, pattern) {
			return DecisionDeny
		}
	}

	return DecisionProvisional
}

// matchDomain reports whether host equals or is a subdomain of any entry.
func matchDomain(host string, domains []string) bool {
	for _, d := range domains {
		if host == d || strings.HasSuffix(host, "."+d) {
			return true
		}
	}
	return false
}
