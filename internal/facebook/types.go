package facebook

import (
	"fmt"
	"time"
)

// AdInsight is one ad-level row from the insights API. Spend comes back as
// a string from the Graph API.
type AdInsight struct {
	CampaignName string `json:"campaign_name"`
	AdName       string `json:"ad_name"`
	Spend        string `json:"spend"`
	AdID         string `json:"ad_id"`
	DateStart    string `json:"date_start"`
	DateStop     string `json:"date_stop"`
}

// GraphError is the error object the Graph API embeds in response bodies.
type GraphError struct {
	Message   string `json:"message"`
	Type      string `json:"type"`
	Code      int    `json:"code"`
	FBTraceID string `json:"fbtrace_id"`
}

// Error implements the error interface.
func (e *GraphError) Error() string {
	return fmt.Sprintf("graph api error (code %d, type %s): %s", e.Code, e.Type, e.Message)
}

// insightsPage is one page of the paginated insights response.
type insightsPage struct {
	Data   []AdInsight `json:"data"`
	Paging struct {
		Next string `json:"next"`
	} `json:"paging"`
	Error *GraphError `json:"error"`
}

// adDetail is the response for a single-ad field fetch.
type adDetail struct {
	CreatedTime string      `json:"created_time"`
	Error       *GraphError `json:"error"`
}

// graphTimeLayout matches the Graph API timestamp format, which uses a
// numeric zone offset without a colon.
const graphTimeLayout = "2006-01-02T15:04:05-0700"

// ParseGraphTime parses a Graph API timestamp. RFC 3339 is accepted as a
// fallback. The result is normalized to UTC with the zone dropped, so it
// compares cleanly against naive cutoff dates.
func ParseGraphTime(s string) (time.Time, error) {
	t, err := time.Parse(graphTimeLayout, s)
	if err != nil {
		t, err = time.Parse(time.RFC3339, s)
		if err != nil {
			return time.Time{}, fmt.Errorf("parse graph timestamp %q: %w", s, err)
		}
	}
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), u.Hour(), u.Minute(), u.Second(), 0, time.UTC), nil
}
