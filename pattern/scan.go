package pattern

// Find returns the offset of the first (lowest) match of p in data, or -1
// when the pattern does not occur. A plain linear scan is deliberate: scans
// run over bounded module-sized regions at load time, not in a hot path, and
// wildcard support matters more than asymptotic speed.
func Find(data []byte, p Pattern) int {
	if !p.IsValid() || len(data) < len(p.Bytes) {
		return -1
	}
	last := len(data) - len(p.Bytes)
	for i := 0; i <= last; i++ {
		if p.Match(data, i) {
			return i
		}
	}
	return -1
}

// FindAll returns the offsets of every match of p in data, in ascending
// order. Matches may overlap.
func FindAll(data []byte, p Pattern) []int {
	if !p.IsValid() || len(data) < len(p.Bytes) {
		return nil
	}
	var offsets []int
	last := len(data) - len(p.Bytes)
	for i := 0; i <= last; i++ {
		if p.Match(data, i) {
			offsets = append(offsets, i)
		}
	}
	return offsets
}
