package api

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// RatingsPerPage is the page size used for design ratings.
const RatingsPerPage = 5

// ErrInvalidRating is returned for scores outside 1..5.
var ErrInvalidRating = errors.New("rating score must be between 1 and 5")

// GetDesign fetches a shared design. Unshared designs are reported as ErrNotFound.
func (c *Client) GetDesign(ctx context.Context, id string) (*DesignDetails, error) {
	var d DesignDetails
	err := c.do(ctx, request{method: http.MethodGet, path: "/designs/" + url.PathEscape(id), out: &d})
	if err != nil {
		return nil, fmt.Errorf("get design %s: %w", id, err)
	}
	if !d.IsShared {
		return nil, fmt.Errorf("design %s is not shared: %w", id, ErrNotFound)
	}
	return &d, nil
}

// SaveDesign stores the designer state for the signed-in user.
func (c *Client) SaveDesign(ctx context.Context, cfg DesignConfig) (*SavedDesign, error) {
	if cfg.ProductID == "" || cfg.ColorID == "" || cfg.SizeID == "" {
		return nil, errors.New("save design: product, color and size are required")
	}
	if !cfg.IsLogoMode {
		cfg.LogoScale, cfg.LogoOffsetX, cfg.LogoOffsetY, cfg.LogoTargetPart = nil, nil, nil, nil
	}
	var saved SavedDesign
	if err := c.do(ctx, request{method: http.MethodPost, path: "/designs", body: cfg, out: &saved}); err != nil {
		return nil, fmt.Errorf("save design: %w", err)
	}
	return &saved, nil
}

// MyDesigns lists the signed-in user's designs.
func (c *Client) MyDesigns(ctx context.Context) ([]SavedDesign, error) {
	var out []SavedDesign
	if err := c.do(ctx, request{method: http.MethodGet, path: "/designs/my-designs", out: &out}); err != nil {
		return nil, fmt.Errorf("my designs: %w", err)
	}
	return out, nil
}

// Values encodes the query, omitting empty filters.
func (q MarketplaceQuery) Values() url.Values {
	v := url.Values{}
	if q.Search != "" {
		v.Set("search", q.Search)
	}
	if len(q.Tags) > 0 {
		v.Set("tags", strings.Join(q.Tags, ","))
	}
	if q.Sort != "" {
		v.Set("sort", q.Sort)
	}
	if q.CreatorID != "" {
		v.Set("creatorId", q.CreatorID)
	}
	return v
}

// Marketplace lists shared designs.
func (c *Client) Marketplace(ctx context.Context, q MarketplaceQuery) ([]MarketplaceItem, error) {
	switch q.Sort {
	case "", "newest", "views", "rating":
	default:
		return nil, fmt.Errorf("marketplace: unknown sort %q", q.Sort)
	}
	var out []MarketplaceItem
	err := c.do(ctx, request{method: http.MethodGet, path: "/marketplace/designs", query: q.Values(), out: &out})
	if err != nil {
		return nil, fmt.Errorf("marketplace: %w", err)
	}
	return out, nil
}

// Ratings fetches one page of a design's ratings. Pages start at 1.
func (c *Client) Ratings(ctx context.Context, designID string, page int) (*RatingsPage, error) {
	if page < 1 {
		page = 1
	}
	q := url.Values{}
	q.Set("page", strconv.Itoa(page))
	q.Set("limit", strconv.Itoa(RatingsPerPage))
	var out RatingsPage
	err := c.do(ctx, request{
		method: http.MethodGet,
		path:   "/designs/" + url.PathEscape(designID) + "/ratings",
		query:  q,
		out:    &out,
	})
	if err != nil {
		return nil, fmt.Errorf("ratings for %s: %w", designID, err)
	}
	return &out, nil
}

// SubmitRating rates a design. A repeated rating yields ErrConflict.
func (c *Client) SubmitRating(ctx context.Context, designID string, score int, comment string) (*Rating, error) {
	if score < 1 || score > 5 {
		return nil, ErrInvalidRating
	}
	body := struct {
		Score   int     `json:"score"`
		Comment *string `json:"comment,omitempty"`
	}{Score: score}
	if comment = strings.TrimSpace(comment); comment != "" {
		body.Comment = &comment
	}
	var out Rating
	err := c.do(ctx, request{
		method: http.MethodPost,
		path:   "/designs/" + url.PathEscape(designID) + "/ratings",
		body:   body,
		out:    &out,
	})
	if err != nil {
		return nil, fmt.Errorf("rate %s: %w", designID, err)
	}
	return &out, nil
}

// RequestUpload asks the backend for a presigned upload URL.
func (c *Client) RequestUpload(ctx context.Context, contentType, filename, folderID string) (*UploadTarget, error) {
	body := map[string]string{
		"contentType": contentType,
		"filename":    filename,
		"folderId":    folderID,
	}
	var t UploadTarget
	if err := c.do(ctx, request{method: http.MethodPost, path: "/r2/generate-upload-url", body: body, out: &t}); err != nil {
		return nil, fmt.Errorf("presign %s: %w", filename, err)
	}
	if t.PresignedURL == "" || t.ObjectKey == "" {
		return nil, fmt.Errorf("presign %s: incomplete response", filename)
	}
	return &t, nil
}

// PublicURL returns the public address of an uploaded object.
func (c *Client) PublicURL(objectKey string) string {
	return c.publicURL + "/" + strings.TrimLeft(objectKey, "/")
}

// Upload stores data in object storage under a fresh folder and returns its public URL.
func (c *Client) Upload(ctx context.Context, data []byte, contentType, filename string) (string, error) {
	folder := uuid.NewString()
	t, err := c.RequestUpload(ctx, contentType, filename, folder)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, t.PresignedURL, bytes.NewReader(data))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", contentType)
	resp, err := c.hc.Do(req)
	if err != nil {
		return "", fmt.Errorf("upload %s: %w", filename, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		return "", fmt.Errorf("upload %s: %w", filename, &StatusError{Code: resp.StatusCode, Message: strings.TrimSpace(string(msg))})
	}

	u := c.PublicURL(t.ObjectKey)
	c.log.Info("uploaded file", zap.String("file", filename), zap.String("url", u), zap.Int("bytes", len(data)))
	return u, nil
}
