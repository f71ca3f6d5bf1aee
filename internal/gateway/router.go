package gateway

import (
	"strings"

	"github.com/calder-ai/uniproxy/internal/llm"
)

// Model-name markers the router matches on. "gpt-" names the direct backend's
// own models, "azure-" names deployment aliases, and a bare "gpt" anywhere in
// the name marks the family the gateway backend can always serve.
const (
	directModelPrefix  = "gpt-"
	gatewayModelPrefix = "azure-"
	familyMarker       = "gpt"
)

// Registry holds the immutable set of provider handles, built once at
// startup. A nil field means that backend is not configured.
type Registry struct {
	Direct  llm.Provider // API-key backend ("openai")
	Gateway llm.Provider // identity/deployment backend ("azure")
}

// All returns the configured handles in a stable order.
func (r Registry) All() []llm.Provider {
	var out []llm.Provider
	if r.Direct != nil {
		out = append(out, r.Direct)
	}
	if r.Gateway != nil {
		out = append(out, r.Gateway)
	}
	return out
}

// RoutingDecision is the outcome of matching a model name to a provider.
// A nil Provider is the "no provider available" sentinel; converting that to
// an error is the caller's concern.
type RoutingDecision struct {
	Provider llm.Provider
}

func (d RoutingDecision) None() bool {
	return d.Provider == nil
}

// SelectProvider maps a model name to a provider handle. Deterministic and
// total over the registry; first match wins:
//
//  1. direct backend for its own naming prefix
//  2. gateway backend for its prefix or the family marker
//  3. gateway backend as default
//  4. direct backend as fallback
//  5. no-provider sentinel
//
// The asymmetric default (prefer the gateway backend) is intentional and
// relied upon by deployments that register only one backend.
func SelectProvider(model string, reg Registry) RoutingDecision {
	switch {
	case reg.Direct != nil && strings.HasPrefix(model, directModelPrefix):
		return RoutingDecision{Provider: reg.Direct}
	case reg.Gateway != nil && (strings.HasPrefix(model, gatewayModelPrefix) || strings.Contains(model, familyMarker)):
		return RoutingDecision{Provider: reg.Gateway}
	case reg.Gateway != nil:
		return RoutingDecision{Provider: reg.Gateway}
	case reg.Direct != nil:
		return RoutingDecision{Provider: reg.Direct}
	default:
		return RoutingDecision{}
	}
}
