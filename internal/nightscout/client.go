// Package nightscout is the client for the target time-series store:
// last-uploaded queries, treatment upserts/deletes, entry uploads and
// profile read/write.
package nightscout

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"net/url"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"github.com/jwoglom/tconnectsync-sub000/internal/models"
	"github.com/jwoglom/tconnectsync-sub000/internal/translator"
)

// Client calls the target store's REST API.
type Client struct {
	http   *resty.Client
	logger *zap.Logger
}

// NewClient creates a target store client. The API secret is sent
// pre-hashed, which is what the store's authorization layer expects.
func NewClient(baseURL, apiSecret string, logger *zap.Logger) *Client {
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(15 * time.Second).
		SetRetryCount(3).
		SetRetryWaitTime(1 * time.Second).
		SetRetryMaxWaitTime(5 * time.Second).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")

	if apiSecret != "" {
		sum := sha1.Sum([]byte(apiSecret))
		client.SetHeader("api-secret", hex.EncodeToString(sum[:]))
	}

	return &Client{
		http:   client,
		logger: logger,
	}
}

// LastTreatment returns the most recent record of the given event type
// written by this service at or before the window end, or nil when none
// exists. This is the sync cursor for idempotent re-processing.
func (c *Client) LastTreatment(ctx context.Context, eventType string, win translator.Window) (*models.Treatment, error) {
	var result []models.Treatment
	resp, err := c.http.R().
		SetContext(ctx).
		SetResult(&result).
		SetQueryParam("find[eventType]", eventType).
		SetQueryParam("find[enteredBy]", models.EnteredBy).
		SetQueryParam("find[created_at][$lte]", win.End.UTC().Format(time.RFC3339)).
		SetQueryParam("count", "1").
		Get("/api/v1/treatments")
	if err != nil {
		return nil, fmt.Errorf("failed to query last treatment: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("last treatment query failed: %s", resp.Status())
	}
	if len(result) == 0 {
		return nil, nil
	}
	return &result[0], nil
}

// UpsertTreatment writes one treatment record.
func (c *Client) UpsertTreatment(ctx context.Context, t *models.Treatment) error {
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody([]*models.Treatment{t}).
		Post("/api/v1/treatments")
	if err != nil {
		return fmt.Errorf("failed to upsert treatment: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("treatment upsert failed: %s", resp.Status())
	}
	return nil
}

// DeleteTreatment removes a previously written record, used when a
// correction reissues it.
func (c *Client) DeleteTreatment(ctx context.Context, id string) error {
	resp, err := c.http.R().
		SetContext(ctx).
		Delete("/api/v1/treatments/" + url.PathEscape(id))
	if err != nil {
		return fmt.Errorf("failed to delete treatment: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("treatment delete failed: %s", resp.Status())
	}
	return nil
}

// LastEntry returns the most recent glucose entry, or nil when the
// store has none.
func (c *Client) LastEntry(ctx context.Context) (*models.Entry, error) {
	var result []models.Entry
	resp, err := c.http.R().
		SetContext(ctx).
		SetResult(&result).
		SetQueryParam("count", "1").
		Get("/api/v1/entries/sgv")
	if err != nil {
		return nil, fmt.Errorf("failed to query last entry: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("last entry query failed: %s", resp.Status())
	}
	if len(result) == 0 {
		return nil, nil
	}
	return &result[0], nil
}

// UploadEntries writes a batch of glucose entries.
func (c *Client) UploadEntries(ctx context.Context, entries []models.Entry) error {
	if len(entries) == 0 {
		return nil
	}
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(entries).
		Post("/api/v1/entries")
	if err != nil {
		return fmt.Errorf("failed to upload entries: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("entry upload failed: %s", resp.Status())
	}
	return nil
}

// CurrentProfile returns the store's active profile, or nil when the
// store has none yet.
func (c *Client) CurrentProfile(ctx context.Context) (*models.Profile, error) {
	var result []models.Profile
	resp, err := c.http.R().
		SetContext(ctx).
		SetResult(&result).
		SetQueryParam("count", "1").
		Get("/api/v1/profile")
	if err != nil {
		return nil, fmt.Errorf("failed to query current profile: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("profile query failed: %s", resp.Status())
	}
	if len(result) == 0 {
		return nil, nil
	}
	return &result[0], nil
}

// UpsertProfile writes the active profile.
func (c *Client) UpsertProfile(ctx context.Context, p *models.Profile) error {
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(p).
		Post("/api/v1/profile")
	if err != nil {
		return fmt.Errorf("failed to upsert profile: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("profile upsert failed: %s", resp.Status())
	}
	return nil
}
