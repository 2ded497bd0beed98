package analysis

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Model replies are free text with a JSON object embedded somewhere inside.
// Extraction scans for '{' candidates and strictly decodes exactly one JSON
// value from each position until one parses; it never slices out a substring
// by brace counting, so trailing prose after the object is harmless and a
// '{' inside prose just moves the scan forward.

var (
	// ErrNoStructuredResponse: the reply contains no '{' at all.
	ErrNoStructuredResponse = errors.New("no structured response in model output")
	// ErrMalformedResponse: braces are present but nothing decodes as JSON.
	ErrMalformedResponse = errors.New("malformed structured response")
)

// ResponseError tags a failed extraction and keeps the raw model text for
// diagnostics.
type ResponseError struct {
	Raw string
	Err error
}

func (e *ResponseError) Error() string {
	raw := e.Raw
	if len(raw) > 200 {
		raw = raw[:200] + "..."
	}
	return fmt.Sprintf("%v (raw: %q)", e.Err, raw)
}

func (e *ResponseError) Unwrap() error { return e.Err }

// decodeEmbedded finds the JSON object embedded in raw and unmarshals it
// into out.
func decodeEmbedded(raw string, out any) error {
	sawBrace := false
	for i := 0; i < len(raw); i++ {
		if raw[i] != '{' {
			continue
		}
		sawBrace = true

		dec := json.NewDecoder(strings.NewReader(raw[i:]))
		var candidate json.RawMessage
		if err := dec.Decode(&candidate); err != nil {
			continue
		}
		if err := json.Unmarshal(candidate, out); err != nil {
			continue
		}
		return nil
	}
	if !sawBrace {
		return &ResponseError{Raw: raw, Err: ErrNoStructuredResponse}
	}
	return &ResponseError{Raw: raw, Err: ErrMalformedResponse}
}

// flexFloat tolerates models that quote numbers ("12.5" instead of 12.5).
type flexFloat float64

func (f *flexFloat) UnmarshalJSON(data []byte) error {
	s := strings.TrimSpace(string(data))
	if s == "null" {
		*f = 0
		return nil
	}
	s = strings.Trim(s, `"`)
	if s == "" {
		*f = 0
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fmt.Errorf("numeric field: %w", err)
	}
	*f = flexFloat(v)
	return nil
}

// flexInt does the same for counts.
type flexInt int

func (f *flexInt) UnmarshalJSON(data []byte) error {
	var ff flexFloat
	if err := ff.UnmarshalJSON(data); err != nil {
		return err
	}
	*f = flexInt(ff)
	return nil
}

// categoriesPayload is the required top-level shape of a stage-1 reply. The
// pointer detects a reply that decodes fine but lacks the categories key.
type categoriesPayload struct {
	Categories *[]categoryPayload `json:"categories"`
}

type categoryPayload struct {
	Name         string    `json:"name"`
	TotalAmount  flexFloat `json:"total_amount"`
	Count        flexInt   `json:"count"`
	Descriptions []string  `json:"descriptions"`
	Patterns     []string  `json:"patterns"`
}

type patternsPayload struct {
	Patterns []string `json:"patterns"`
}

type insightsPayload struct {
	Insights        []string `json:"insights"`
	Recommendations []string `json:"recommendations"`
}
