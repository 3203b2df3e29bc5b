package llm

import (
	"regexp"
	"strings"
)

var fencedJSONRe = regexp.MustCompile("(?s)```(?:json)?\\s*(.*?)```")

// ExtractJSONBlock pulls the JSON payload out of a model response. Models
// asked for JSON routinely wrap it in a fenced code block and surround it
// with prose; the first fenced block wins, otherwise the trimmed response is
// returned as-is for the caller's unmarshal to judge.
func ExtractJSONBlock(response string) string {
	if m := fencedJSONRe.FindStringSubmatch(response); m != nil {
		return strings.TrimSpace(m[1])
	}
	return strings.TrimSpace(response)
}
