package matcher

// Collect walks a ranked buffer and returns the paths of matching entries
// (score > 0) in order, stopping after limit paths. A limit <= 0 means no cap.
// The buffer is not modified.
func Collect(buf MatchBuffer, limit int) []string {
	if limit <= 0 || limit > len(buf) {
		limit = len(buf)
	}

	results := make([]string, 0, min(limit, 64))
	for _, m := range buf {
		if len(results) >= limit {
			break
		}
		// NaN and negative scores count as "no match" too
		if !(m.Score > 0) {
			continue
		}
		results = append(results, m.Path)
	}
	return results
}
