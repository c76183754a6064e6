// Package client talks to the organizer schedule endpoints over HTTP.  It is
// the remote side of the editor: fetch the allow-list, fetch the saved
// schedule for hydration, and submit a composition.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/iliyamo/event-ticketing-admin/internal/schedule"
	"github.com/iliyamo/event-ticketing-admin/internal/session"
)

const (
	defaultTimeout = 12 * time.Second
	maxErrorBody   = 8 << 10

	// GenericSaveMessage is shown for every save failure the server does not
	// explain in organizer terms.
	GenericSaveMessage = "failed to update event dates"
)

// knownSaveMessages are server messages shown to the organizer as they are.
var knownSaveMessages = []string{"must be one of event dates"}

// Client calls the API on behalf of one session per call.
type Client struct {
	httpClient *http.Client
	baseURL    string
}

// APIError is returned when the API responds with a non-2xx status.
type APIError struct {
	StatusCode int
	Endpoint   string
	Message    string // the "error" field of the body, or the raw body
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error %d from %s: %s", e.StatusCode, e.Endpoint, e.Message)
}

// SaveError is returned by SaveSchedule.  Error() is the message to show the
// organizer; Unwrap exposes the transport or API failure behind it.
type SaveError struct {
	Err error
}

func (e *SaveError) Error() string {
	var apiErr *APIError
	if errors.As(e.Err, &apiErr) {
		for _, known := range knownSaveMessages {
			if strings.Contains(apiErr.Message, known) {
				return apiErr.Message
			}
		}
	}
	return GenericSaveMessage
}

func (e *SaveError) Unwrap() error { return e.Err }

// New returns a client for the API rooted at baseURL.  A nil httpClient gets
// a default with a timeout.
func New(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultTimeout}
	}
	return &Client{httpClient: httpClient, baseURL: strings.TrimRight(baseURL, "/")}
}

func (c *Client) eventURL(eventID uint64, suffix string) string {
	return c.baseURL + "/v1/organizer/events/" + strconv.FormatUint(eventID, 10) + suffix
}

// AllowedDates returns the event's date allow-list.  An empty list means the
// event has none.
func (c *Client) AllowedDates(ctx context.Context, s session.Session, eventID uint64) ([]string, error) {
	var resp struct {
		Data struct {
			EventDates []string `json:"event_dates"`
		} `json:"data"`
	}
	body, err := c.do(ctx, s, http.MethodGet, c.eventURL(eventID, "/allowed-dates"), nil)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("decode allowed dates: %w", err)
	}
	if resp.Data.EventDates == nil {
		return []string{}, nil
	}
	return resp.Data.EventDates, nil
}

// Schedule returns the saved schedule in its wire shape.
func (c *Client) Schedule(ctx context.Context, s session.Session, eventID uint64) (schedule.ScheduleData, error) {
	body, err := c.do(ctx, s, http.MethodGet, c.eventURL(eventID, "/schedule"), nil)
	if err != nil {
		return schedule.ScheduleData{}, err
	}
	var resp schedule.ScheduleResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return schedule.ScheduleData{}, fmt.Errorf("%w: %v", schedule.ErrMalformedPayload, err)
	}
	if resp.Data == nil {
		return schedule.ScheduleData{EventDates: []string{}, SlotData: map[string][]schedule.WireSlot{}}, nil
	}
	return *resp.Data, nil
}

// ExistingSchedule fetches the saved schedule for hydration.  Only a failed
// request is reported; a body that cannot be parsed counts as no schedule.
func (c *Client) ExistingSchedule(ctx context.Context, s session.Session, eventID uint64) (map[string][]schedule.TimeSlot, error) {
	body, err := c.do(ctx, s, http.MethodGet, c.eventURL(eventID, "/schedule"), nil)
	if err != nil {
		return nil, err
	}
	existing, err := schedule.DecodeScheduleResponse(body)
	if err != nil {
		return map[string][]schedule.TimeSlot{}, nil
	}
	return existing, nil
}

// SaveSchedule PUTs a wire payload.  Every failure is a *SaveError.  The call
// is never retried.
func (c *Client) SaveSchedule(ctx context.Context, s session.Session, eventID uint64, p schedule.Payload) error {
	raw, err := json.Marshal(p)
	if err != nil {
		return &SaveError{Err: err}
	}
	if _, err := c.do(ctx, s, http.MethodPut, c.eventURL(eventID, "/schedule"), raw); err != nil {
		return &SaveError{Err: err}
	}
	return nil
}

// Submit validates the composition against the current allow-list and saves
// it.  Nothing is sent when validation fails.
func (c *Client) Submit(ctx context.Context, s session.Session, eventID uint64, comp *schedule.Composition) error {
	allowed, err := c.AllowedDates(ctx, s, eventID)
	if err != nil {
		return fmt.Errorf("load allowed dates: %w", err)
	}
	if err := comp.Validate(allowed); err != nil {
		return err
	}
	p, err := comp.ToWirePayload(strconv.FormatUint(eventID, 10))
	if err != nil {
		return err
	}
	return c.SaveSchedule(ctx, s, eventID, p)
}

// Hydrate loads the saved schedule into comp as read-only dates.  It reports
// whether anything was loaded; a failed fetch leaves comp untouched.
func (c *Client) Hydrate(ctx context.Context, s session.Session, eventID uint64, comp *schedule.Composition) bool {
	existing, err := c.ExistingSchedule(ctx, s, eventID)
	if err != nil {
		return false
	}
	comp.Hydrate(existing)
	return true
}

func (c *Client) do(ctx context.Context, s session.Session, method, endpoint string, payload []byte) ([]byte, error) {
	if s.Token == "" {
		return nil, session.ErrAnonymous
	}
	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.Token)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	res, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode < http.StatusOK || res.StatusCode >= http.StatusMultipleChoices {
		snippet, _ := io.ReadAll(io.LimitReader(res.Body, maxErrorBody))
		return nil, &APIError{StatusCode: res.StatusCode, Endpoint: endpoint, Message: errorMessage(snippet)}
	}
	return io.ReadAll(res.Body)
}

// errorMessage extracts {"error": "..."} or falls back to the trimmed body.
func errorMessage(body []byte) string {
	var e struct {
		Error string `json:"error"`
	}
	if json.Unmarshal(body, &e) == nil && e.Error != "" {
		return e.Error
	}
	return strings.TrimSpace(string(body))
}
