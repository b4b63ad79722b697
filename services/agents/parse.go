package agents

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"

	"github.com/upb/triage-pipeline/services"
)

var errNoJSONObject = errors.New("no JSON object in model output")

// decodeModelJSON decodes the first JSON object in a model reply. Markdown
// code fences and surrounding prose are tolerated; anything else is a
// malformed-output error.
func decodeModelJSON(text string, v interface{}) error {
	raw, err := extractJSONObject(text)
	if err != nil {
		return services.WrapSentinel(services.ErrMalformedModelOutput, err)
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	if err := dec.Decode(v); err != nil {
		return services.WrapSentinel(services.ErrMalformedModelOutput, err)
	}
	return nil
}

func extractJSONObject(text string) ([]byte, error) {
	s := strings.TrimSpace(text)

	if strings.HasPrefix(s, "```") {
		// drop the opening fence line (``` or ```json)
		if nl := strings.IndexByte(s, '\n'); nl >= 0 {
			s = s[nl+1:]
		} else {
			s = strings.TrimPrefix(s, "```")
		}
		s = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(s), "```"))
	}

	start := strings.IndexByte(s, '{')
	end := strings.LastIndexByte(s, '}')
	if start < 0 || end < start {
		return nil, errNoJSONObject
	}
	return []byte(s[start : end+1]), nil
}
