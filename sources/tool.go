package sources

import (
	"fmt"
	"strings"
)

// Tool describes an external log tool by the two invocations the relay
// needs: one that streams output indefinitely and one that clears the
// tool's buffered history.
type Tool struct {
	Name   string
	Stream []string
	Clear  []string
}

var builtinTools = map[string]Tool{
	"logcat": {
		Name:   "logcat",
		Stream: []string{"logcat"},
		Clear:  []string{"logcat", "-c"},
	},
	"dmesg": {
		Name:   "dmesg",
		Stream: []string{"dmesg", "-w"},
		Clear:  []string{"dmesg", "-C"},
	},
	"journalctl": {
		Name:   "journalctl",
		Stream: []string{"journalctl", "-f"},
		Clear:  []string{"journalctl", "--rotate", "--vacuum-time=1s"},
	},
}

// LookupTool returns the built-in profile for name. For "command", the
// stream and clear command lines are taken from streamArgs and clearArgs.
func LookupTool(name, streamArgs, clearArgs string) (Tool, error) {
	if name == "command" {
		stream := strings.Fields(streamArgs)
		if len(stream) == 0 {
			return Tool{}, fmt.Errorf("command tool requires a stream command")
		}
		return Tool{
			Name:   stream[0],
			Stream: stream,
			Clear:  strings.Fields(clearArgs),
		}, nil
	}
	t, ok := builtinTools[name]
	if !ok {
		return Tool{}, fmt.Errorf("unknown tool: %s", name)
	}
	return t, nil
}

// IsKnownTool reports whether name is a built-in tool or "command".
func IsKnownTool(name string) bool {
	if name == "command" {
		return true
	}
	_, ok := builtinTools[name]
	return ok
}

// Source returns a CommandSource running the stream invocation.
func (t Tool) Source() *CommandSource {
	return NewCommandSource(t.Name, t.Stream[0], t.Stream[1:]...)
}
