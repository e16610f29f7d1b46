// Package upstream implements the one production UpstreamClient: a thin
// HTTP adapter over the upstream chat platform's REST API.
package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/time/rate"

	"github.com/akimon658/twittra/internal/domain"
)

// Client is the single concrete port.UpstreamClient implementation, backed
// by a shared, thread-safe, internally connection-pooled *http.Client.
type Client struct {
	httpClient *http.Client
	baseURL    string
	limiter    *rate.Limiter
}

// Option configures a Client at construction time.
type Option func(*Client)

// WithHTTPClient overrides the default *http.Client (tests inject one
// pointed at an httptest.Server).
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithRateLimit overrides the default outbound call rate.
func WithRateLimit(limiter *rate.Limiter) Option {
	return func(c *Client) { c.limiter = limiter }
}

// New builds a Client pointed at baseURL. By default outbound calls are
// capped at 10/s with a burst of 5, shared across every caller (the
// crawler and the cache-through service alike).
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: 10 * time.Second},
		baseURL:    baseURL,
		limiter:    rate.NewLimiter(rate.Limit(10), 5),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) do(ctx context.Context, method, path string, token domain.Token, body, out interface{}) (*http.Response, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, &domain.UpstreamHTTPError{Op: method + " " + path, Err: err}
	}

	var reqBody io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return nil, &domain.SerializationError{Op: "encode request body", Err: err}
		}
		reqBody = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return nil, &domain.UpstreamHTTPError{Op: method + " " + path, Err: err}
	}
	req.Header.Set("Authorization", "Bearer "+token.AccessToken)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &domain.UpstreamHTTPError{Op: method + " " + path, Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		defer resp.Body.Close()
		msg, _ := io.ReadAll(resp.Body)
		return resp, &domain.APIError{Status: resp.StatusCode, Message: string(msg)}
	}

	if out != nil {
		defer resp.Body.Close()
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return resp, &domain.SerializationError{Op: method + " " + path, Err: err}
		}
	}

	return resp, nil
}

type wireReaction struct {
	StampID    string `json:"stampId"`
	UserID     string `json:"userId"`
	StampCount int32  `json:"stampCount"`
}

type wireMessage struct {
	ID        string         `json:"id"`
	UserID    string         `json:"userId"`
	ChannelID string         `json:"channelId"`
	Content   string         `json:"content"`
	CreatedAt string         `json:"createdAt"`
	UpdatedAt string         `json:"updatedAt"`
	Reactions []wireReaction `json:"reactions"`
}

func (w wireMessage) toDomain() (domain.Message, error) {
	id, err := domain.ParseID(w.ID)
	if err != nil {
		return domain.Message{}, &domain.SerializationError{Op: "parse message id", Err: err}
	}
	userID, err := domain.ParseID(w.UserID)
	if err != nil {
		return domain.Message{}, &domain.SerializationError{Op: "parse message user id", Err: err}
	}
	channelID, err := domain.ParseID(w.ChannelID)
	if err != nil {
		return domain.Message{}, &domain.SerializationError{Op: "parse message channel id", Err: err}
	}
	createdAt, err := time.Parse(time.RFC3339, w.CreatedAt)
	if err != nil {
		return domain.Message{}, &domain.SerializationError{Op: "parse message created_at", Err: err}
	}
	updatedAt, err := time.Parse(time.RFC3339, w.UpdatedAt)
	if err != nil {
		return domain.Message{}, &domain.SerializationError{Op: "parse message updated_at", Err: err}
	}

	reactions := make([]domain.Reaction, 0, len(w.Reactions))
	for _, wr := range w.Reactions {
		stampID, err := domain.ParseID(wr.StampID)
		if err != nil {
			return domain.Message{}, &domain.SerializationError{Op: "parse reaction stamp id", Err: err}
		}
		rUserID, err := domain.ParseID(wr.UserID)
		if err != nil {
			return domain.Message{}, &domain.SerializationError{Op: "parse reaction user id", Err: err}
		}
		reactions = append(reactions, domain.Reaction{
			MessageID:  id,
			StampID:    stampID,
			UserID:     rUserID,
			StampCount: wr.StampCount,
		})
	}

	return domain.Message{
		ID:        id,
		UserID:    userID,
		ChannelID: channelID,
		Content:   w.Content,
		CreatedAt: createdAt,
		UpdatedAt: updatedAt,
		Reactions: reactions,
	}, nil
}

func (c *Client) SearchSince(ctx context.Context, token domain.Token, since time.Time) ([]domain.Message, error) {
	q := url.Values{"since": {since.UTC().Format(time.RFC3339)}}
	var wire []wireMessage
	if _, err := c.do(ctx, http.MethodGet, "/messages?"+q.Encode(), token, nil, &wire); err != nil {
		return nil, err
	}

	messages := make([]domain.Message, 0, len(wire))
	for _, w := range wire {
		m, err := w.toDomain()
		if err != nil {
			return nil, err
		}
		messages = append(messages, m)
	}
	return messages, nil
}

func (c *Client) GetMessage(ctx context.Context, token domain.Token, id domain.ID) (domain.Message, error) {
	var wire wireMessage
	if _, err := c.do(ctx, http.MethodGet, "/messages/"+id.String(), token, nil, &wire); err != nil {
		return domain.Message{}, err
	}
	return wire.toDomain()
}

type wireUser struct {
	ID          string `json:"id"`
	Handle      string `json:"handle"`
	DisplayName string `json:"displayName"`
}

func (c *Client) GetUser(ctx context.Context, token domain.Token, id domain.ID) (domain.User, error) {
	var wire wireUser
	if _, err := c.do(ctx, http.MethodGet, "/users/"+id.String(), token, nil, &wire); err != nil {
		return domain.User{}, err
	}
	userID, err := domain.ParseID(wire.ID)
	if err != nil {
		return domain.User{}, &domain.SerializationError{Op: "parse user id", Err: err}
	}
	return domain.User{ID: userID, Handle: wire.Handle, DisplayName: wire.DisplayName}, nil
}

func (c *Client) GetUserIcon(ctx context.Context, token domain.Token, id domain.ID) ([]byte, string, error) {
	return c.getBinary(ctx, token, "/users/"+id.String()+"/icon")
}

type wireStamp struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

func (w wireStamp) toDomain() (domain.Stamp, error) {
	id, err := domain.ParseID(w.ID)
	if err != nil {
		return domain.Stamp{}, &domain.SerializationError{Op: "parse stamp id", Err: err}
	}
	return domain.Stamp{ID: id, Name: w.Name}, nil
}

func (c *Client) GetStamp(ctx context.Context, token domain.Token, id domain.ID) (domain.Stamp, error) {
	var wire wireStamp
	if _, err := c.do(ctx, http.MethodGet, "/stamps/"+id.String(), token, nil, &wire); err != nil {
		return domain.Stamp{}, err
	}
	return wire.toDomain()
}

func (c *Client) GetStamps(ctx context.Context, token domain.Token) ([]domain.Stamp, error) {
	var wire []wireStamp
	if _, err := c.do(ctx, http.MethodGet, "/stamps", token, nil, &wire); err != nil {
		return nil, err
	}
	stamps := make([]domain.Stamp, 0, len(wire))
	for _, w := range wire {
		s, err := w.toDomain()
		if err != nil {
			return nil, err
		}
		stamps = append(stamps, s)
	}
	return stamps, nil
}

func (c *Client) GetStampImage(ctx context.Context, token domain.Token, id domain.ID) ([]byte, string, error) {
	return c.getBinary(ctx, token, "/stamps/"+id.String()+"/image")
}

func (c *Client) getBinary(ctx context.Context, token domain.Token, path string) ([]byte, string, error) {
	resp, err := c.do(ctx, http.MethodGet, path, token, nil, nil)
	if err != nil {
		return nil, "", err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", &domain.UpstreamHTTPError{Op: "read body " + path, Err: err}
	}
	return data, resp.Header.Get("Content-Type"), nil
}

func (c *Client) AddMessageStamp(ctx context.Context, token domain.Token, messageID, stampID domain.ID, count int32) error {
	path := fmt.Sprintf("/messages/%s/stamps/%s", messageID, stampID)
	body := map[string]int32{"count": count}
	_, err := c.do(ctx, http.MethodPost, path, token, body, nil)
	return err
}

func (c *Client) RemoveMessageStamp(ctx context.Context, token domain.Token, messageID, stampID domain.ID) error {
	path := fmt.Sprintf("/messages/%s/stamps/%s", messageID, stampID)
	_, err := c.do(ctx, http.MethodDelete, path, token, nil, nil)
	return err
}
