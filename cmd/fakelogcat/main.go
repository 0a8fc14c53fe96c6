// Command fakelogcat imitates `logcat` for running logrelay on machines
// without an Android device. With -c it exits immediately, like
// `logcat -c`; otherwise it prints brief-format log lines, a share of them
// from the emulator graphics stack.
package main

import (
	"flag"
	"fmt"
	"math/rand"
	"os"
	"time"
)

var (
	clearFlag = flag.Bool("c", false, "Clear the (non-existent) buffer and exit")
	countFlag = flag.Int("count", 0, "Number of lines to print (0 for unlimited)")
	rateFlag  = flag.Duration("interval", 100*time.Millisecond, "Delay between lines")
	noiseRate = flag.Float64("noise", 50.0, "Percentage of emulator graphics lines (0-100)")
)

var (
	levels     = []string{"V", "D", "I", "W", "E"}
	noiseTags  = []string{"libEGL", "EGL_emulation", "OpenGLRenderer"}
	noiseLines = []string{
		"loaded /vendor/lib64/egl/libEGL_emulation.so",
		"eglSurfaceAttrib not implemented",
		"Davey! duration=812ms; Flags=0, IntendedVsync=0",
		"Failed to choose config with EGL_SWAP_BEHAVIOR_PRESERVED, retrying without...",
		"app_time_stats: avg=16.63ms min=2.11ms max=43.90ms count=60",
	}
	appTags  = []string{"MyApp", "ActivityManager", "FirebaseAuth", "SensorSync", "chromium"}
	appLines = []string{
		"started",
		"Displayed com.example.autofarmer/.MainActivity: +1s204ms",
		"Notifying id token listeners about user ( X1b2 )",
		"soil moisture reading 42.5%",
		"pump state changed to on",
		"Start proc 4242:com.example.autofarmer/u0a123 for activity",
	}
)

func main() {
	flag.Parse()

	if *clearFlag {
		return
	}

	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	pid := 1000 + rng.Intn(30000)

	for i := 0; *countFlag == 0 || i < *countFlag; i++ {
		line := generateLine(rng, pid, *noiseRate)
		if _, err := fmt.Println(line); err != nil {
			os.Exit(1)
		}
		if *rateFlag > 0 {
			time.Sleep(*rateFlag)
		}
	}
}

// generateLine returns one line in logcat's brief format,
// "L/Tag( pid): message".
func generateLine(rng *rand.Rand, pid int, noise float64) string {
	if rng.Float64()*100 < noise {
		tag := noiseTags[rng.Intn(len(noiseTags))]
		msg := noiseLines[rng.Intn(len(noiseLines))]
		return fmt.Sprintf("%s/%s(%5d): %s", levels[1+rng.Intn(3)], tag, pid, msg)
	}
	tag := appTags[rng.Intn(len(appTags))]
	msg := appLines[rng.Intn(len(appLines))]
	return fmt.Sprintf("%s/%s(%5d): %s", levels[rng.Intn(len(levels))], tag, pid, msg)
}
