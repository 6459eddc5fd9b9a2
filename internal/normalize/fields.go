package normalize

import (
	"encoding/json"
	"time"
)

// commonFields is the source-independent field set every posting is
// reduced to before it reaches the silver layer.
type commonFields struct {
	Title       string
	Company     string
	Location    string
	URL         string
	Description string
	Posted      json.RawMessage
}

type remotivePayload struct {
	Title                     string          `json:"title"`
	CompanyName               string          `json:"company_name"`
	CandidateRequiredLocation string          `json:"candidate_required_location"`
	URL                       string          `json:"url"`
	Description               string          `json:"description"`
	PublicationDate           json.RawMessage `json:"publication_date"`
}

type remoteOKPayload struct {
	Position    string          `json:"position"`
	Company     string          `json:"company"`
	Location    string          `json:"location"`
	URL         string          `json:"url"`
	Description string          `json:"description"`
	Date        json.RawMessage `json:"date"`
}

// extractFields maps a raw payload onto the common field set. The mapping
// is a closed set keyed on the source tag; a new source means a new case
// here.
func extractFields(source string, payload []byte) (commonFields, error) {
	switch source {
	case "remotive":
		var p remotivePayload
		if err := json.Unmarshal(payload, &p); err != nil {
			return commonFields{}, err
		}
		return commonFields{
			Title:       p.Title,
			Company:     p.CompanyName,
			Location:    p.CandidateRequiredLocation,
			URL:         p.URL,
			Description: p.Description,
			Posted:      p.PublicationDate,
		}, nil
	default:
		var p remoteOKPayload
		if err := json.Unmarshal(payload, &p); err != nil {
			return commonFields{}, err
		}
		return commonFields{
			Title:       p.Position,
			Company:     p.Company,
			Location:    p.Location,
			URL:         p.URL,
			Description: p.Description,
			Posted:      p.Date,
		}, nil
	}
}

// parseDate extracts a calendar date from whatever shape a source reports:
// an ISO-8601 date or datetime string, or a Unix epoch in seconds. Anything
// else yields the empty string, never an error.
func parseDate(raw json.RawMessage) string {
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		if len(s) < 10 {
			return ""
		}
		if _, err := time.Parse("2006-01-02", s[:10]); err != nil {
			return ""
		}
		return s[:10]
	}

	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		f, err := n.Float64()
		if err != nil {
			return ""
		}
		return time.Unix(int64(f), 0).UTC().Format("2006-01-02")
	}

	return ""
}
