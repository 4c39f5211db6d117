package extension

import "github.com/hupe1980/fetchmesh/core"

// Hooks lists every hook the engine dispatches, in pipeline order.
var Hooks = []core.Hook{
	core.HookRequestWillFetch,
	core.HookFetchDidSucceed,
	core.HookFetchDidFail,
}

// HasCapability reports whether ext exposes hook. The matching capability
// interface must be implemented, and an extension that also implements
// core.CapabilitySet must advertise the hook there.
func HasCapability(ext core.Extension, hook core.Hook) bool {
	if ext == nil {
		return false
	}

	var ok bool
	switch hook {
	case core.HookRequestWillFetch:
		_, ok = ext.(core.RequestWillFetcher)
	case core.HookFetchDidSucceed:
		_, ok = ext.(core.FetchDidSucceeder)
	case core.HookFetchDidFail:
		_, ok = ext.(core.FetchDidFailer)
	}
	if !ok {
		return false
	}

	if set, narrowed := ext.(core.CapabilitySet); narrowed {
		return set.Implements(hook)
	}
	return true
}

// SelectImplementing returns, in order, the extensions of exts that expose
// hook. It never fails; empty input yields an empty result.
func SelectImplementing(exts []core.Extension, hook core.Hook) []core.Extension {
	out := make([]core.Extension, 0, len(exts))
	for _, ext := range exts {
		if HasCapability(ext, hook) {
			out = append(out, ext)
		}
	}
	return out
}

// Capabilities returns the hooks ext exposes, in pipeline order.
func Capabilities(ext core.Extension) []core.Hook {
	var out []core.Hook
	for _, h := range Hooks {
		if HasCapability(ext, h) {
			out = append(out, h)
		}
	}
	return out
}
