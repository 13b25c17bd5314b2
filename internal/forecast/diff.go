package forecast

// Diff compares a freshly computed window set against the windows already
// announced and not yet retracted. It is a pure set difference over the
// structural key (date, start hour, end hour, source): a window that
// shifted by an hour shows up as one cancellation plus one new window.
//
// The engine performs no I/O and mutates nothing; the caller marks the new
// windows notified and the cancelled ones retracted.
func Diff(current []FlyableWindowInfo, notified []NotifiedWindow) (newWindows []FlyableWindowInfo, cancelled []NotifiedWindow) {
	known := make(map[WindowKey]bool, len(notified))
	for _, n := range notified {
		known[n.Key()] = true
	}

	present := make(map[WindowKey]bool, len(current))
	for _, w := range current {
		present[w.Key()] = true
		if !known[w.Key()] {
			newWindows = append(newWindows, w)
		}
	}

	for _, n := range notified {
		if !present[n.Key()] {
			cancelled = append(cancelled, n)
		}
	}

	return newWindows, cancelled
}
