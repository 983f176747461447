package llm

import (
	"encoding/json"
	"strings"
)

// stringList decodes a JSON array of strings, a single string
// (optionally comma-separated), or null.
type stringList []string

func (s *stringList) UnmarshalJSON(data []byte) error {
	var arr []string
	if err := json.Unmarshal(data, &arr); err == nil {
		*s = cleanList(arr)
		return nil
	}
	var one string
	if err := json.Unmarshal(data, &one); err == nil {
		*s = cleanList(strings.Split(one, ","))
		return nil
	}
	// Unexpected shape: drop rather than fail the whole extraction.
	*s = nil
	return nil
}

func cleanList(in []string) []string {
	out := make([]string, 0, len(in))
	for _, v := range in {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
