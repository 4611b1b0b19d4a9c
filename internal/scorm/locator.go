package scorm

// Host abstracts one window in the frame hierarchy the runtime is loaded
// into. The locator walks Parent links toward the top window and then
// repeats the walk from Opener, the way content launched in a popup finds
// the LMS runtime.
type Host interface {
	API() API
	Parent() Host
	Opener() Host
}

// MaxLocatorHops bounds the ancestor walk so a cyclic or hostile frame
// chain cannot hang the runtime.
const MaxLocatorHops = 500

// Locate finds the host API starting from win. Returns nil when no API is
// reachable; callers then run in standalone mode.
func Locate(win Host) API {
	if win == nil {
		return nil
	}
	if api := scanAncestors(win); api != nil {
		return api
	}
	if op := win.Opener(); op != nil {
		return scanAncestors(op)
	}
	return nil
}

func scanAncestors(h Host) API {
	for hops := 0; h != nil && hops < MaxLocatorHops; hops++ {
		if api := h.API(); api != nil {
			return api
		}
		parent := h.Parent()
		if parent == nil || parent == h {
			return nil
		}
		h = parent
	}
	return nil
}
