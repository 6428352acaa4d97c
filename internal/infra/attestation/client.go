package attestation

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"gitproof/internal/domain"
)

// Client asks a local sidecar to perform the hardware attestation
// handshake for a proof hash. The sidecar speaks plain HTTP on
// localhost; the trust boundary is the machine.
type Client struct {
	endpoint   string
	sidecarURL string
	httpClient *http.Client
}

func New(endpoint, sidecarPort string) *Client {
	if sidecarPort == "" {
		sidecarPort = "8080"
	}
	return &Client{
		endpoint:   endpoint,
		sidecarURL: fmt.Sprintf("http://localhost:%s/attest/maa", sidecarPort),
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

func (c *Client) Configured() bool {
	return c != nil && c.endpoint != ""
}

// GetToken posts a base64 JSON envelope carrying the proof hash to the
// sidecar and extracts the attestation token from its response.
func (c *Client) GetToken(ctx context.Context, proofHash string) (string, error) {
	if !c.Configured() {
		return "", domain.ErrAttestationNotConfigured
	}

	runtimeData, err := json.Marshal(map[string]string{"proof_data_hash": proofHash})
	if err != nil {
		return "", err
	}
	payload, err := json.Marshal(map[string]string{
		"maa_endpoint": c.endpoint,
		"runtime_data": base64.StdEncoding.EncodeToString(runtimeData),
	})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.sidecarURL, bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %v", domain.ErrSidecarUnavailable, c.sidecarURL, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrSidecarUnavailable, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("%w: status %d: %s", domain.ErrSidecarUnavailable, resp.StatusCode, strings.TrimSpace(string(body)))
	}

	return parseTokenResponse(string(body))
}

// parseTokenResponse accepts either a JSON object with a token /
// attestation_token field, or a raw body that itself looks like a
// three-segment token.
func parseTokenResponse(body string) (string, error) {
	var decoded map[string]any
	if err := json.Unmarshal([]byte(body), &decoded); err == nil {
		for _, field := range []string{"token", "attestation_token"} {
			if value, ok := decoded[field]; ok {
				if token, ok := value.(string); ok {
					return token, nil
				}
			}
		}
		return "", fmt.Errorf("%w: response contains JSON but no recognizable token field", domain.ErrTokenInvalid)
	}

	token := strings.TrimSpace(body)
	if token == "" {
		return "", fmt.Errorf("%w: empty response from sidecar", domain.ErrTokenInvalid)
	}
	if parts := strings.Split(token, "."); len(parts) != 3 {
		return "", fmt.Errorf("%w: expected 3 token segments, got %d", domain.ErrTokenInvalid, len(parts))
	}
	return token, nil
}

// DecodeClaims parses the middle segment of a three-part token as
// base64 JSON, trying the URL-safe alphabet before the standard one.
func (c *Client) DecodeClaims(token string) (map[string]any, error) {
	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		return nil, fmt.Errorf("%w: expected 3 token segments, got %d", domain.ErrTokenInvalid, len(parts))
	}

	padded := parts[1]
	for len(padded)%4 != 0 {
		padded += "="
	}
	payload, err := base64.URLEncoding.DecodeString(padded)
	if err != nil {
		payload, err = base64.StdEncoding.DecodeString(padded)
		if err != nil {
			return nil, fmt.Errorf("%w: payload segment: %v", domain.ErrTokenInvalid, err)
		}
	}

	var claims map[string]any
	if err := json.Unmarshal(payload, &claims); err != nil {
		return nil, fmt.Errorf("%w: payload is not JSON: %v", domain.ErrTokenInvalid, err)
	}
	return claims, nil
}
