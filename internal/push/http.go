package push

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// HTTPGateway relays notifications to a push-provider relay endpoint over
// plain HTTP. Provider wire specifics (FCM/APNs framing) live behind that
// endpoint; this client only cares about the outcome classification.
type HTTPGateway struct {
	endpoint string
	apiKey   string
	client   *http.Client
}

func NewHTTPGateway(endpoint, apiKey string, timeout time.Duration) *HTTPGateway {
	return &HTTPGateway{
		endpoint: endpoint,
		apiKey:   apiKey,
		client: &http.Client{
			Timeout: timeout,
		},
	}
}

type relayRequest struct {
	Token string            `json:"token"`
	Title string            `json:"title"`
	Body  string            `json:"body"`
	Data  map[string]string `json:"data"`
}

func (g *HTTPGateway) Send(ctx context.Context, msg Message) error {
	payload, err := json.Marshal(relayRequest{
		Token: msg.Token,
		Title: msg.Title,
		Body:  msg.Body,
		Data:  msg.Data,
	})
	if err != nil {
		return &Error{Kind: KindTransient, Err: fmt.Errorf("error encoding message: %w", err)}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.endpoint, bytes.NewReader(payload))
	if err != nil {
		return &Error{Kind: KindTransient, Err: fmt.Errorf("error creating request: %w", err)}
	}
	req.Header.Set("Content-Type", "application/json")
	if g.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+g.apiKey)
	}

	resp, err := g.client.Do(req)
	if err != nil {
		return &Error{Kind: KindTransient, Err: fmt.Errorf("error while doing request: %w", err)}
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return nil
	case resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusGone:
		// The provider convention for unregistered/expired tokens.
		return &Error{Kind: KindInvalidToken, Err: statusError(resp)}
	default:
		return &Error{Kind: KindTransient, Err: statusError(resp)}
	}
}

func statusError(resp *http.Response) error {
	detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
	return fmt.Errorf("unexpected status code: %d - body: %s", resp.StatusCode, bytes.TrimSpace(detail))
}
