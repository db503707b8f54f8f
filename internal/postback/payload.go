// Package postback implements the postback attribution and routing engine:
// payload normalization, alias/rule attribution, fallback resolution, the
// daily counter stabilizer, recipient expansion and notification dispatch.
package postback

import (
	"encoding/json"
	"net/url"
	"strconv"
)

// Payload is the raw conversion payload: a flat field-name to string-value
// mapping extracted from a JSON body, a form body, or a query string.
type Payload map[string]string

// FromJSON flattens a top-level JSON object into a Payload.
// Scalar values are stringified; nested objects and arrays are skipped.
// A body that is not a JSON object yields an empty payload, never an error
// the caller has to handle specially - malformed input degrades to defaults.
func FromJSON(body []byte) Payload {
	p := Payload{}
	var raw map[string]any
	if err := json.Unmarshal(body, &raw); err != nil {
		return p
	}
	for k, v := range raw {
		switch val := v.(type) {
		case string:
			p[k] = val
		case float64:
			p[k] = strconv.FormatFloat(val, 'f', -1, 64)
		case bool:
			p[k] = strconv.FormatBool(val)
		case nil:
			// skip
		}
	}
	return p
}

// FromValues builds a Payload from form or query values.
// Only the first value per key is taken.
func FromValues(values url.Values) Payload {
	p := Payload{}
	for k, vs := range values {
		if len(vs) > 0 {
			p[k] = vs[0]
		}
	}
	return p
}

// MergeDefaults applies values as defaults: a key already present in the
// payload is never overridden. Query parameters are merged this way so a
// body-supplied field always wins.
func (p Payload) MergeDefaults(values url.Values) {
	for k, vs := range values {
		if _, ok := p[k]; ok {
			continue
		}
		if len(vs) > 0 {
			p[k] = vs[0]
		}
	}
}
