package adapters

import (
	"regexp"
	"strings"
)

// Session-id extraction is deliberately lenient: agent CLIs change their log
// formatting between versions without notice, so this is best-effort
// telemetry, not a hard contract. Pattern families are tried in order and
// the first non-empty match wins.
var sessionIDPatterns = []*regexp.Regexp{
	// Plain text: "Session: ses_abc123"
	regexp.MustCompile(`(?i)\bsession:\s*([A-Za-z0-9._-]+)`),
	// Embedded JSON: {"sessionId":"abc"} or {"session_id":"abc"}
	regexp.MustCompile(`"(?:sessionId|session_id)"\s*:\s*"([^"]+)"`),
	// Bracketed: [Session: abc]
	regexp.MustCompile(`\[[Ss]ession:\s*([A-Za-z0-9._-]+)\]`),
}

// ExtractSessionID searches combined agent output for a session identifier.
// It returns the empty string when no pattern matches.
func ExtractSessionID(output string) string {
	for _, pattern := range sessionIDPatterns {
		match := pattern.FindStringSubmatch(output)
		if len(match) > 1 && match[1] != "" {
			return strings.TrimRight(match[1], "].,")
		}
	}
	return ""
}

// DetectCompletion reports whether output contains the literal completion
// marker. Case-sensitive, exact substring; quoting the marker in unrelated
// text is a known false-positive risk inherent to the design.
func DetectCompletion(output string) bool {
	return strings.Contains(output, CompletionMarker)
}

// inspect runs both extractors over combined stdout+stderr and fills the
// telemetry fields of a RunResult.
func inspect(result *RunResult) {
	combined := result.Stdout + "\n" + result.Stderr
	result.SessionID = ExtractSessionID(combined)
	result.Completed = DetectCompletion(combined)
}
