package tools

import (
	"context"
	"fmt"

	"github.com/docsage/docsage/internal/log"
)

// Registry maps tool names to the provider that advertised them and keeps
// the aggregated catalog in discovery order.
//
// Discover rebuilds the registry wholesale; there is no incremental
// update. A Registry is not safe for concurrent mutation, matching the
// one-conversation-per-registry ownership model.
type Registry struct {
	logger  log.Logger
	catalog []Descriptor
	owners  map[string]Provider
}

// NewRegistry creates an empty registry. Call Discover before Invoke.
func NewRegistry(logger log.Logger) *Registry {
	if logger == nil {
		logger = log.NewNop()
	}
	return &Registry{
		logger: logger,
		owners: make(map[string]Provider),
	}
}

// Discover queries every provider in order and rebuilds the aggregated
// catalog. If two providers advertise the same tool name, the later
// provider silently shadows the earlier one (last write wins). That is a
// known edge case of flat aggregation, kept as-is and logged rather than
// deduplicated.
//
// A provider that fails to list its tools fails the whole discovery pass:
// there is no meaningful way to run a conversation against a partially
// known catalog.
func (r *Registry) Discover(ctx context.Context, providers ...Provider) error {
	catalog := make([]Descriptor, 0, len(r.catalog))
	owners := make(map[string]Provider)

	for _, p := range providers {
		descriptors, err := p.ListTools(ctx)
		if err != nil {
			return fmt.Errorf("listing tools from %s: %w", p.Name(), err)
		}
		for _, d := range descriptors {
			if prev, ok := owners[d.Name]; ok {
				r.logger.Warn("duplicate tool name, later provider shadows earlier",
					"tool", d.Name,
					"previous_provider", prev.Name(),
					"provider", p.Name())
				// Drop the shadowed catalog entry so the catalog and
				// ownership map stay consistent.
				for i, existing := range catalog {
					if existing.Name == d.Name {
						catalog = append(catalog[:i], catalog[i+1:]...)
						break
					}
				}
			}
			owners[d.Name] = p
			catalog = append(catalog, d)
		}
		r.logger.Info("discovered tools", "provider", p.Name(), "count", len(descriptors))
	}

	r.catalog = catalog
	r.owners = owners
	return nil
}

// Catalog returns the aggregated tool catalog in discovery order.
func (r *Registry) Catalog() []Descriptor {
	out := make([]Descriptor, len(r.catalog))
	copy(out, r.catalog)
	return out
}

// Invoke routes a named tool call to its owning provider. It never
// returns an error: failures of any kind produce an IsError result whose
// text names the tool, so the orchestrator can append it to the
// transcript and keep the conversation going.
func (r *Registry) Invoke(ctx context.Context, callID, name string, args map[string]any) (result *Result) {
	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Error("tool invocation panicked", "tool", name, "panic", rec)
			result = &Result{
				CallID:  callID,
				Name:    name,
				Content: []string{fmt.Sprintf("tool %q failed unexpectedly: %v", name, rec)},
				IsError: true,
			}
		}
	}()

	provider, ok := r.owners[name]
	if !ok {
		r.logger.Warn("tool not found in catalog", "tool", name)
		return &Result{
			CallID:  callID,
			Name:    name,
			Content: []string{fmt.Sprintf("tool %q is not available", name)},
			IsError: true,
		}
	}

	res, err := provider.CallTool(ctx, name, args)
	if err != nil {
		r.logger.Error("tool invocation failed", "tool", name, "provider", provider.Name(), "error", err)
		return &Result{
			CallID:  callID,
			Name:    name,
			Content: []string{fmt.Sprintf("tool %q failed: %v", name, err)},
			IsError: true,
		}
	}

	res.CallID = callID
	res.Name = name
	if res.IsError {
		r.logger.Warn("tool reported error", "tool", name, "provider", provider.Name())
	}
	return res
}
