package relay

import "testing"

func TestFilterListMatch(t *testing.T) {
	filters := DefaultFilters()

	tests := []struct {
		line string
		drop bool
	}{
		{"D/libEGL: loaded", true},
		{"D/MyApp: started", false},
		{"W/EGL_emulation( 1234): eglSurfaceAttrib not implemented", true},
		{"I/OpenGLRenderer: Initialized EGL, version 1.4", true},
		{"D/libegl: lower case is not filtered", false},
		{"", false},
		{"prefix libEGLsuffix", true},
	}

	for _, tt := range tests {
		if got := filters.Match(tt.line); got != tt.drop {
			t.Errorf("Match(%q) = %v, want %v", tt.line, got, tt.drop)
		}
	}
}

func TestFilterListOrderIndependent(t *testing.T) {
	lines := []string{
		"D/libEGL: loaded",
		"D/MyApp: started",
		"W/EGL_emulation: x",
		"I/OpenGLRenderer: y",
		"libEGL OpenGLRenderer both",
	}
	orders := []FilterList{
		{"libEGL", "EGL_emulation", "OpenGLRenderer"},
		{"OpenGLRenderer", "libEGL", "EGL_emulation"},
		{"EGL_emulation", "OpenGLRenderer", "libEGL"},
	}

	for _, line := range lines {
		want := orders[0].Match(line)
		for _, f := range orders[1:] {
			if got := f.Match(line); got != want {
				t.Errorf("Match(%q) with %v = %v, want %v", line, f, got, want)
			}
		}
	}
}

func TestEmptyFilterList(t *testing.T) {
	var f FilterList
	if f.Match("D/libEGL: loaded") {
		t.Error("An empty filter list must not drop anything")
	}
}

func TestDefaultFiltersIsCopy(t *testing.T) {
	f := DefaultFilters()
	f[0] = "changed"
	if DefaultFilters()[0] != "libEGL" {
		t.Error("DefaultFilters must not expose shared state")
	}
}
