package main

import (
	"math/rand"
	"regexp"
	"strings"
	"testing"

	"github.com/angch/logrelay/relay"
)

var briefFormat = regexp.MustCompile(`^[VDIWE]/[A-Za-z_]+\(\s*\d+\): .+$`)

func TestGenerateLineFormat(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	for i := 0; i < 200; i++ {
		line := generateLine(rng, 4242, 50)
		if !briefFormat.MatchString(line) {
			t.Fatalf("Line %q is not in brief format", line)
		}
		if !strings.Contains(line, "( 4242)") {
			t.Fatalf("Line %q does not carry the pid", line)
		}
	}
}

func TestGenerateLineNoise(t *testing.T) {
	filters := relay.DefaultFilters()
	rng := rand.New(rand.NewSource(1))

	for i := 0; i < 100; i++ {
		if line := generateLine(rng, 1, 100); !filters.Match(line) {
			t.Errorf("With 100%% noise, %q should be filtered", line)
		}
		if line := generateLine(rng, 1, 0); filters.Match(line) {
			t.Errorf("With 0%% noise, %q should not be filtered", line)
		}
	}
}
