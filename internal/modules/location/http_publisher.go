package location

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"gazflow/internal/types"
)

// PresenceRequest is the body of PUT /api/driver/presence.
type PresenceRequest struct {
	Online bool     `json:"online"`
	Lat    *float64 `json:"lat,omitempty"`
	Lng    *float64 `json:"lng,omitempty"`
}

type HTTPPublisher struct {
	baseURL string
	token   string
	client  *http.Client
}

func NewHTTPPublisher(baseURL, token string, client *http.Client) *HTTPPublisher {
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTPPublisher{baseURL: strings.TrimRight(baseURL, "/"), token: token, client: client}
}

func (p *HTTPPublisher) PublishPresence(ctx context.Context, online bool, pos *types.Point) error {
	body := PresenceRequest{Online: online}
	if pos != nil {
		lat, lng := pos.Lat, pos.Lng
		body.Lat, body.Lng = &lat, &lng
	}
	b, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, p.baseURL+"/api/driver/presence", bytes.NewReader(b))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+p.token)

	resp, err := p.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode/100 != 2 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("presence: status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}
	return nil
}
