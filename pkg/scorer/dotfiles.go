package scorer

// dotStarts returns the byte offsets of every '.' that starts a path component,
// i.e. the leading dot of a dot-file or dot-directory.
func dotStarts(path string) []int {
	var dots []int
	for i := 0; i < len(path); i++ {
		if path[i] == '.' && (i == 0 || path[i-1] == '/') {
			dots = append(dots, i)
		}
	}
	return dots
}

// HasDotFile reports whether any component of path starts with a dot.
func HasDotFile(path string) bool {
	for i := 0; i < len(path); i++ {
		if path[i] == '.' && (i == 0 || path[i-1] == '/') {
			return true
		}
	}
	return false
}

// dotMode is how a single score call treats dot components.
type dotMode int

const (
	dotsHidden   dotMode = iota // never show: any dot component fails the path
	dotsExplicit                // default: every dot component must be matched by the abbreviation
	dotsShown                   // always show: dot components are ordinary characters
)

// modeFor resolves the two flags. NeverShowDotFiles wins when both are set.
func modeFor(alwaysShowDotFiles, neverShowDotFiles bool) dotMode {
	switch {
	case neverShowDotFiles:
		return dotsHidden
	case alwaysShowDotFiles:
		return dotsShown
	default:
		return dotsExplicit
	}
}
