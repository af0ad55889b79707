// Package media wraps the video-OTP and asset-upload provider APIs.
package media

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/jackson0tr/lerko-backend/internal/config"
	"github.com/jackson0tr/lerko-backend/internal/domain"
)

// PlaybackTicket is a one-time credential for streaming a protected video.
type PlaybackTicket struct {
	OTP          string `json:"otp"`
	PlaybackInfo string `json:"playbackInfo"`
}

// VideoGateway mints playback tickets for protected course videos.
type VideoGateway interface {
	PlaybackOTP(ctx context.Context, videoID string) (PlaybackTicket, error)
}

// Uploader stores an asset and returns its provider id and public URL.
type Uploader interface {
	Upload(ctx context.Context, folder, name string, data io.Reader) (domain.Asset, error)
	Remove(ctx context.Context, assetID string) error
}

// HTTPVideoGateway calls a vdocipher-style OTP endpoint.
type HTTPVideoGateway struct {
	baseURL    string
	apiSecret  string
	httpClient *http.Client
}

func NewHTTPVideoGateway(cfg *config.Config, client *http.Client) *HTTPVideoGateway {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &HTTPVideoGateway{
		baseURL:    strings.TrimRight(cfg.VideoAPIURL, "/"),
		apiSecret:  cfg.VideoAPISecret,
		httpClient: client,
	}
}

func (g *HTTPVideoGateway) PlaybackOTP(ctx context.Context, videoID string) (PlaybackTicket, error) {
	payload, err := json.Marshal(map[string]int{"ttl": 300})
	if err != nil {
		return PlaybackTicket{}, fmt.Errorf("encode otp request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/videos/%s/otp", g.baseURL, url.PathEscape(videoID))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return PlaybackTicket{}, fmt.Errorf("build otp request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Apisecret "+g.apiSecret)

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return PlaybackTicket{}, fmt.Errorf("%w: video provider: %v", domain.ErrUpstream, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return PlaybackTicket{}, fmt.Errorf("%w: read otp response: %v", domain.ErrUpstream, err)
	}
	if resp.StatusCode >= 300 {
		return PlaybackTicket{}, fmt.Errorf("%w: video provider status %d", domain.ErrUpstream, resp.StatusCode)
	}

	var ticket PlaybackTicket
	if err := json.Unmarshal(body, &ticket); err != nil {
		return PlaybackTicket{}, fmt.Errorf("%w: decode otp response: %v", domain.ErrUpstream, err)
	}
	return ticket, nil
}

// HTTPUploader posts assets to a cloudinary-style upload endpoint.
type HTTPUploader struct {
	uploadURL  string
	apiKey     string
	httpClient *http.Client
}

func NewHTTPUploader(cfg *config.Config, client *http.Client) *HTTPUploader {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &HTTPUploader{
		uploadURL:  strings.TrimRight(cfg.MediaUploadURL, "/"),
		apiKey:     cfg.MediaAPIKey,
		httpClient: client,
	}
}

func (u *HTTPUploader) Upload(ctx context.Context, folder, name string, data io.Reader) (domain.Asset, error) {
	endpoint := fmt.Sprintf("%s/upload?folder=%s&name=%s",
		u.uploadURL, url.QueryEscape(folder), url.QueryEscape(name))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, data)
	if err != nil {
		return domain.Asset{}, fmt.Errorf("build upload request: %w", err)
	}
	req.Header.Set("Content-Type", "application/octet-stream")
	req.Header.Set("Authorization", "Bearer "+u.apiKey)

	resp, err := u.httpClient.Do(req)
	if err != nil {
		return domain.Asset{}, fmt.Errorf("%w: media provider: %v", domain.ErrUpstream, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return domain.Asset{}, fmt.Errorf("%w: read upload response: %v", domain.ErrUpstream, err)
	}
	if resp.StatusCode >= 300 {
		return domain.Asset{}, fmt.Errorf("%w: media provider status %d", domain.ErrUpstream, resp.StatusCode)
	}

	var asset struct {
		PublicID  string `json:"public_id"`
		SecureURL string `json:"secure_url"`
	}
	if err := json.Unmarshal(body, &asset); err != nil {
		return domain.Asset{}, fmt.Errorf("%w: decode upload response: %v", domain.ErrUpstream, err)
	}
	return domain.Asset{ID: asset.PublicID, URL: asset.SecureURL}, nil
}

func (u *HTTPUploader) Remove(ctx context.Context, assetID string) error {
	endpoint := fmt.Sprintf("%s/destroy?public_id=%s", u.uploadURL, url.QueryEscape(assetID))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, nil)
	if err != nil {
		return fmt.Errorf("build destroy request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+u.apiKey)

	resp, err := u.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: media provider: %v", domain.ErrUpstream, err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, io.LimitReader(resp.Body, 1<<16))

	if resp.StatusCode >= 300 {
		return fmt.Errorf("%w: media provider status %d", domain.ErrUpstream, resp.StatusCode)
	}
	return nil
}
