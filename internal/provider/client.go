package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/dkosir/partnerhub/internal/domain"
)

const requestTimeout = 15 * time.Second

// HTTPClient talks to the messaging provider's REST API. It is constructed
// once in main and injected into every component that needs it.
type HTTPClient struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

func NewHTTPClient(baseURL, apiKey string) *HTTPClient {
	return &HTTPClient{
		baseURL: baseURL,
		apiKey:  apiKey,
		http:    &http.Client{Timeout: requestTimeout},
	}
}

type channelRequest struct {
	Name     string          `json:"name"`
	Metadata domain.Metadata `json:"metadata,omitempty"`
}

type channelResponse struct {
	Channel Channel `json:"channel"`
}

type membershipRequest struct {
	MemberID string `json:"member_id"`
}

type membershipsResponse struct {
	Members []string `json:"members"`
}

type sendMessageRequest struct {
	SenderID string `json:"sender_id"`
	Body     string `json:"body"`
	Type     string `json:"type"`
	Persist  bool   `json:"persist"`
}

type sendMessageResponse struct {
	MessageID string `json:"message_id"`
}

type searchResponse struct {
	Channels []Channel `json:"channels"`
}

type errorResponse struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func (c *HTTPClient) CreateChannel(ctx context.Context, name string, metadata domain.Metadata) (string, error) {
	var resp channelResponse
	err := c.do(ctx, http.MethodPost, "/v1/channels", channelRequest{Name: name, Metadata: metadata}, &resp)
	if err != nil {
		return "", err
	}
	return resp.Channel.ID, nil
}

func (c *HTTPClient) DeleteChannel(ctx context.Context, channelID string) error {
	return c.do(ctx, http.MethodDelete, "/v1/channels/"+url.PathEscape(channelID), nil, nil)
}

func (c *HTTPClient) DescribeChannel(ctx context.Context, channelID string) (*Channel, error) {
	var resp channelResponse
	err := c.do(ctx, http.MethodGet, "/v1/channels/"+url.PathEscape(channelID), nil, &resp)
	if err != nil {
		return nil, err
	}
	return &resp.Channel, nil
}

func (c *HTTPClient) UpdateChannel(ctx context.Context, channelID, name string, metadata domain.Metadata) error {
	path := "/v1/channels/" + url.PathEscape(channelID)
	return c.do(ctx, http.MethodPut, path, channelRequest{Name: name, Metadata: metadata}, nil)
}

func (c *HTTPClient) CreateMembership(ctx context.Context, channelID, memberID string) error {
	path := "/v1/channels/" + url.PathEscape(channelID) + "/memberships"
	return c.do(ctx, http.MethodPost, path, membershipRequest{MemberID: memberID}, nil)
}

func (c *HTTPClient) DeleteMembership(ctx context.Context, channelID, memberID string) error {
	path := "/v1/channels/" + url.PathEscape(channelID) + "/memberships/" + url.PathEscape(memberID)
	return c.do(ctx, http.MethodDelete, path, nil, nil)
}

func (c *HTTPClient) ListMemberships(ctx context.Context, channelID string) ([]string, error) {
	var resp membershipsResponse
	path := "/v1/channels/" + url.PathEscape(channelID) + "/memberships"
	if err := c.do(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Members, nil
}

func (c *HTTPClient) SendMessage(ctx context.Context, channelID, senderID, body string, opts SendOptions) (string, error) {
	var resp sendMessageResponse
	path := "/v1/channels/" + url.PathEscape(channelID) + "/messages"
	req := sendMessageRequest{
		SenderID: senderID,
		Body:     body,
		Type:     string(opts.Type),
		Persist:  opts.Persist,
	}
	if err := c.do(ctx, http.MethodPost, path, req, &resp); err != nil {
		return "", err
	}
	return resp.MessageID, nil
}

func (c *HTTPClient) ListMessages(ctx context.Context, channelID, nextToken string) (*MessagePage, error) {
	path := "/v1/channels/" + url.PathEscape(channelID) + "/messages"
	if nextToken != "" {
		path += "?next_token=" + url.QueryEscape(nextToken)
	}
	var page MessagePage
	if err := c.do(ctx, http.MethodGet, path, nil, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

func (c *HTTPClient) SearchChannelsByMember(ctx context.Context, memberID string) ([]Channel, error) {
	var resp searchResponse
	path := "/v1/channels/search?member=" + url.QueryEscape(memberID)
	if err := c.do(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Channels, nil
}

func (c *HTTPClient) do(ctx context.Context, method, path string, body, out any) error {
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encoding request: %w", err)
		}
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("calling provider: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		apiErr := &APIError{Status: resp.StatusCode, Code: "UNKNOWN", Message: resp.Status}
		var decoded errorResponse
		if err := json.NewDecoder(resp.Body).Decode(&decoded); err == nil && decoded.Error.Message != "" {
			apiErr.Code = decoded.Error.Code
			apiErr.Message = decoded.Error.Message
		}
		return apiErr
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}
