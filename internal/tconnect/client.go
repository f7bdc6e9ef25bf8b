// Package tconnect is the client for the pump vendor's cloud service:
// the raw event-log blob for a device and time range, and the
// lightweight device metadata used to detect new data without a full
// fetch.
package tconnect

import (
	"context"
	"encoding/base64"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"github.com/jwoglom/tconnectsync-sub000/internal/models"
)

// eventsResponse wraps the base64 event blob.
type eventsResponse struct {
	Status    int    `json:"status"`
	Msg       string `json:"msg"`
	EventData string `json:"eventData"` // base64-encoded 26-byte records
}

type metadataResponse struct {
	Status  int                     `json:"status"`
	Msg     string                  `json:"msg"`
	Devices []models.DeviceMetadata `json:"devices"`
}

// Client calls the vendor cloud API.
type Client struct {
	http   *resty.Client
	logger *zap.Logger
}

// NewClient creates a vendor cloud client. The access token comes from
// configuration; login/refresh flows are outside this service.
func NewClient(baseURL, accessToken string, logger *zap.Logger) *Client {
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(30 * time.Second). // event-log fetches for long windows are slow
		SetRetryCount(3).
		SetRetryWaitTime(1 * time.Second).
		SetRetryMaxWaitTime(5 * time.Second).
		SetAuthToken(accessToken).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")

	return &Client{
		http:   client,
		logger: logger,
	}
}

// FetchRawEvents fetches the pump event log for a device and time
// window and returns the decoded record bytes. An empty blob is
// legitimate (the pump uploaded nothing in the window) and returns nil.
// eventIDs, when non-empty, narrows the fetch server-side.
func (c *Client) FetchRawEvents(ctx context.Context, deviceID string, start, end time.Time, eventIDs []uint16) ([]byte, error) {
	c.logger.Debug("Fetching raw pump events",
		zap.String("device_id", deviceID),
		zap.Time("start", start),
		zap.Time("end", end),
	)

	req := c.http.R().
		SetContext(ctx).
		SetResult(&eventsResponse{}).
		SetQueryParam("minDate", start.UTC().Format(time.RFC3339)).
		SetQueryParam("maxDate", end.UTC().Format(time.RFC3339))
	if len(eventIDs) > 0 {
		ids := make([]string, len(eventIDs))
		for i, id := range eventIDs {
			ids[i] = strconv.Itoa(int(id))
		}
		req.SetQueryParam("eventIds", strings.Join(ids, ","))
	}

	resp, err := req.Get(fmt.Sprintf("/api/pumpevents/%s", deviceID))
	if err != nil {
		return nil, fmt.Errorf("failed to fetch pump events: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("pump events request failed: %s", resp.Status())
	}

	result := resp.Result().(*eventsResponse)
	if result.EventData == "" {
		return nil, nil
	}

	blob, err := base64.StdEncoding.DecodeString(result.EventData)
	if err != nil {
		return nil, fmt.Errorf("failed to decode event data: %w", err)
	}
	return blob, nil
}

// FetchDeviceMetadata lists the account's pumps with their
// most-recent-event timestamps.
func (c *Client) FetchDeviceMetadata(ctx context.Context) ([]models.DeviceMetadata, error) {
	resp, err := c.http.R().
		SetContext(ctx).
		SetResult(&metadataResponse{}).
		Get("/api/devices")
	if err != nil {
		return nil, fmt.Errorf("failed to fetch device metadata: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("device metadata request failed: %s", resp.Status())
	}

	result := resp.Result().(*metadataResponse)
	return result.Devices, nil
}

// pumpProfileResponse is the vendor's rendering of the active profile.
// Segment values arrive as strings with vendor-specific formatting.
type pumpProfileResponse struct {
	Name     string `json:"name"`
	Segments []struct {
		StartSeconds int    `json:"startSeconds"`
		BasalRate    string `json:"basalRate"`
		Isf          string `json:"isf"`
		CarbRatio    string `json:"carbRatio"`
		TargetBgLow  string `json:"targetBgLow"`
		TargetBgHigh string `json:"targetBgHigh"`
	} `json:"segments"`
}

// FetchPumpProfile fetches the pump's active personal profile in the
// normalized typed form used for comparison against the target store.
func (c *Client) FetchPumpProfile(ctx context.Context, deviceID string) (*models.Profile, error) {
	resp, err := c.http.R().
		SetContext(ctx).
		SetResult(&pumpProfileResponse{}).
		Get(fmt.Sprintf("/api/pumpsettings/%s/profile", deviceID))
	if err != nil {
		return nil, fmt.Errorf("failed to fetch pump profile: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("pump profile request failed: %s", resp.Status())
	}

	raw := resp.Result().(*pumpProfileResponse)
	profile := &models.Profile{Name: raw.Name}
	for _, seg := range raw.Segments {
		at := seg.StartSeconds
		profile.Basal = appendSegment(profile.Basal, at, seg.BasalRate)
		profile.Sensitivity = appendSegment(profile.Sensitivity, at, seg.Isf)
		profile.CarbRatio = appendSegment(profile.CarbRatio, at, seg.CarbRatio)
		profile.TargetLow = appendSegment(profile.TargetLow, at, seg.TargetBgLow)
		profile.TargetHigh = appendSegment(profile.TargetHigh, at, seg.TargetBgHigh)
	}
	return profile, nil
}

func appendSegment(s models.ProfileSchedule, at int, value string) models.ProfileSchedule {
	v, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil {
		v = 0
	}
	return append(s, models.ProfileSegment{TimeAsSeconds: at, Value: v})
}
