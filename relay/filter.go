package relay

import "strings"

// defaultFilters are the emulator graphics tags that flood logcat on
// Android emulators.
var defaultFilters = [...]string{
	"libEGL",
	"EGL_emulation",
	"OpenGLRenderer",
}

// FilterList holds substrings whose presence in a line causes it to be
// dropped. Matching is case sensitive.
type FilterList []string

// DefaultFilters returns a fresh copy of the built-in filter list.
func DefaultFilters() FilterList {
	f := make(FilterList, len(defaultFilters))
	copy(f, defaultFilters[:])
	return f
}

// Match reports whether line contains any entry of f. An empty list
// matches nothing.
func (f FilterList) Match(line string) bool {
	for _, s := range f {
		if strings.Contains(line, s) {
			return true
		}
	}
	return false
}
