package backend

import (
	"context"
	"strconv"

	deskerr "github.com/mrz1836/swapdesk/pkg/errors"
)

// TrackingData reports what the user did with a proposed transaction.
type TrackingData struct {
	ActionClicked    *bool  `json:"action_clicked,omitempty"`
	ActionSuccessful *bool  `json:"action_successful,omitempty"`
	ErrorMessage     string `json:"error_message,omitempty"`
}

// Clicked reports that the user acted on a proposal.
func Clicked() TrackingData {
	t := true
	return TrackingData{ActionClicked: &t}
}

// Outcome reports the result of a submission. A nil err means success.
func Outcome(err error) TrackingData {
	ok := err == nil
	data := TrackingData{ActionSuccessful: &ok}
	if err != nil {
		data.ErrorMessage = err.Error()
	}
	return data
}

// TrackingClient reports message interactions.
type TrackingClient struct {
	http *httpClient
}

// NewTrackingClient creates a tracking client for baseURL.
func NewTrackingClient(baseURL string, opts *Options) *TrackingClient {
	return &TrackingClient{http: newHTTPClient(ServiceTracking, baseURL, opts)}
}

// Track posts data for messageID and returns the decoded response.
func (c *TrackingClient) Track(ctx context.Context, messageID int64, data TrackingData) (map[string]any, error) {
	if messageID <= 0 {
		return nil, deskerr.WithDetails(deskerr.ErrInvalidInput, map[string]string{"field": "message_id"})
	}

	var out map[string]any
	if err := c.http.postJSON(ctx, "/track/"+strconv.FormatInt(messageID, 10), data, &out); err != nil {
		return nil, err
	}
	return out, nil
}
