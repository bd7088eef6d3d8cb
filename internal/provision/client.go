// Package provision calls the external account-provisioning collaborator:
// a single RPC that creates the auth identity for a new member and returns
// the opaque UID the directory stores.
package provision

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// RemoteError carries the collaborator's human-readable message verbatim.
// The error policy here is deliberate pass-through: the provisioner knows
// why it refused ("An account with this email address already exists.")
// and we surface that text unmodified instead of translating it.
type RemoteError struct {
	Message string
}

func (e *RemoteError) Error() string {
	return e.Message
}

type Client struct {
	endpoint string
	http     *http.Client
}

func NewClient(endpoint string) *Client {
	return &Client{
		endpoint: endpoint,
		// The provisioner sends a welcome email before answering; give it
		// room, but never hang a dashboard action indefinitely.
		http: &http.Client{Timeout: 30 * time.Second},
	}
}

type createMemberRequest struct {
	Email string `json:"email"`
}

type createMemberResponse struct {
	Success bool   `json:"success"`
	UID     string `json:"uid"`
	Message string `json:"message"`
}

// CreateMember asks the collaborator to provision an account for email and
// returns the new UID. A structured refusal comes back as *RemoteError;
// transport problems come back wrapped and should be treated as retryable.
func (c *Client) CreateMember(ctx context.Context, email string) (string, error) {
	body, err := json.Marshal(createMemberRequest{Email: email})
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("call provisioner: %w", err)
	}
	defer resp.Body.Close()

	var out createMemberResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decode provisioner response: %w", err)
	}

	if resp.StatusCode != http.StatusOK || !out.Success {
		msg := out.Message
		if msg == "" {
			msg = fmt.Sprintf("provisioner returned status %d", resp.StatusCode)
		}
		return "", &RemoteError{Message: msg}
	}
	if out.UID == "" {
		return "", fmt.Errorf("provisioner returned success without a uid")
	}

	return out.UID, nil
}
