package adapters

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractSessionID(t *testing.T) {
	tests := []struct {
		name   string
		output string
		want   string
	}{
		{
			name:   "plain text",
			output: "Starting run\nSession: ses_2f9ab31\nworking...",
			want:   "ses_2f9ab31",
		},
		{
			name:   "embedded json camel case",
			output: `{"type":"system","sessionId":"abc-123","subtype":"init"}`,
			want:   "abc-123",
		},
		{
			name:   "embedded json snake case",
			output: `event {"session_id":"deadbeef"} done`,
			want:   "deadbeef",
		},
		{
			name:   "bracketed",
			output: "log line [Session: br-42] more",
			want:   "br-42",
		},
		{
			name:   "first match wins",
			output: "Session: first\nSession: second",
			want:   "first",
		},
		{
			name:   "case insensitive label",
			output: "session: lower-9",
			want:   "lower-9",
		},
		{
			name:   "no match",
			output: "nothing to see here",
			want:   "",
		},
		{
			name:   "empty output",
			output: "",
			want:   "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExtractSessionID(tt.output))
		})
	}
}

func TestDetectCompletion(t *testing.T) {
	assert.True(t, DetectCompletion("all done\n<promise>COMPLETE</promise>\n"))
	assert.False(t, DetectCompletion("still working on task 3"))

	// Case-sensitive by design.
	assert.False(t, DetectCompletion("<promise>complete</promise>"))

	// Quoting the marker in unrelated text is a known false-positive risk
	// inherent to literal-substring detection.
	assert.True(t, DetectCompletion(`I will emit "<promise>COMPLETE</promise>" when finished`))
}

func TestInspectCombinesStreams(t *testing.T) {
	result := RunResult{
		Stdout: "working...",
		Stderr: "Session: err-stream-7\n<promise>COMPLETE</promise>",
	}
	inspect(&result)

	assert.Equal(t, "err-stream-7", result.SessionID)
	assert.True(t, result.Completed)
}
