package sysstat

import (
	"strings"
)

const redacted = "[REDACTED]"

var sensitiveKeys = []string{
	"password",
	"passwd",
	"token",
	"secret",
	"_key",
	"apikey",
	"credential",
	"session_id",
	"cookie",
	"signature",
	"dsn",
}

// SanitizeCommand joins command arguments into a string, redacting values
// of flags and KEY=value pairs whose names look sensitive.
func SanitizeCommand(args []string) string {
	out := make([]string, 0, len(args))
	for i := 0; i < len(args); i++ {
		arg := args[i]

		if key, _, ok := strings.Cut(arg, "="); ok {
			if isSensitiveKey(key) {
				arg = key + "=" + redacted
			}
			out = append(out, arg)
			continue
		}

		out = append(out, arg)
		// "--password value": only long flags take a separate value here,
		// so "-p 22" is left alone.
		if strings.HasPrefix(arg, "--") && isSensitiveKey(arg) && i+1 < len(args) {
			if next := args[i+1]; !strings.HasPrefix(next, "--") {
				out = append(out, redacted)
				i++
			}
		}
	}
	return strings.Join(out, " ")
}

func isSensitiveKey(key string) bool {
	k := strings.ToLower(strings.TrimLeft(key, "-"))
	k = strings.NewReplacer("-", "_", ".", "_").Replace(k)
	if k == "key" || k == "auth" {
		return true
	}
	for _, s := range sensitiveKeys {
		if strings.HasSuffix(k, s) {
			return true
		}
	}
	return false
}
