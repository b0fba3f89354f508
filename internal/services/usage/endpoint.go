// Package usage fetches and normalizes Z.ai / BigModel usage metering data.
package usage

import "strings"

// Rule maps any of a set of URL fragments to a canonical API domain.
type Rule struct {
	Domain    string
	Fragments []string
}

// DefaultRules are the known vendor domains, checked in order.
var DefaultRules = []Rule{
	{Domain: "https://api.z.ai", Fragments: []string{"api.z.ai"}},
	{Domain: "https://open.bigmodel.cn", Fragments: []string{"open.bigmodel.cn", "dev.bigmodel.cn"}},
}

// Resolver maps a configured base URL to the domain that serves the
// monitoring endpoints.
type Resolver struct {
	rules []Rule
}

// NewResolver creates a resolver. With no rules it uses DefaultRules.
func NewResolver(rules ...Rule) *Resolver {
	if len(rules) == 0 {
		rules = DefaultRules
	}
	return &Resolver{rules: rules}
}

// Resolve returns the canonical domain for baseURL. Matching is by
// substring, first rule wins.
func (r *Resolver) Resolve(baseURL string) (string, error) {
	for _, rule := range r.rules {
		for _, frag := range rule.Fragments {
			if frag != "" && strings.Contains(baseURL, frag) {
				return rule.Domain, nil
			}
		}
	}
	return "", &UnrecognizedEndpointError{URL: baseURL}
}

var defaultResolver = NewResolver()

// ResolveDomain resolves baseURL against DefaultRules.
func ResolveDomain(baseURL string) (string, error) {
	return defaultResolver.Resolve(baseURL)
}
