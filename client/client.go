package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/totegamma/tubesage"
)

const (
	defaultTimeout = 120 * time.Second
	maxErrorBody   = 4 << 10
)

// Client talks to the remote generation service. Transcripts are immutable
// for a given video, so successful fetches are kept in a short-lived cache.
type Client struct {
	client    *http.Client
	cache     *cache.Cache
	userAgent string
	endpoint  string
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.client = hc
		}
	}
}

func WithUserAgent(ua string) Option {
	return func(c *Client) { c.userAgent = ua }
}

func New(endpoint string, opts ...Option) *Client {
	c := &Client{
		client:    &http.Client{Timeout: defaultTimeout},
		cache:     cache.New(10*time.Minute, 15*time.Minute),
		userAgent: "tubesage",
		endpoint:  strings.TrimRight(endpoint, "/"),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// StatusError is a non-2xx answer from the generation service.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("unexpected status code: %d", e.Code)
	}
	return fmt.Sprintf("unexpected status code: %d: %s", e.Code, e.Body)
}

func (c *Client) post(ctx context.Context, path string, request, response any) error {
	body, err := json.Marshal(request)
	if err != nil {
		return fmt.Errorf("failed to encode request: %v", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to perform request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &StatusError{Code: resp.StatusCode, Body: strings.TrimSpace(string(snippet))}
	}

	err = json.NewDecoder(resp.Body).Decode(response)
	if err != nil {
		return fmt.Errorf("failed to decode response: %v", err)
	}
	return nil
}

func checkStatus(status, message string) error {
	if status == "" || status == "success" || status == "ok" {
		return nil
	}
	if message == "" {
		message = status
	}
	return fmt.Errorf("generation service: %s", message)
}

func (c *Client) Transcript(ctx context.Context, video tubesage.VideoRef) (tubesage.Transcript, error) {
	cacheKey := "transcript:" + tubesage.ComposeKey(video.Platform, video.VideoID)
	if x, found := c.cache.Get(cacheKey); found {
		return x.(tubesage.Transcript), nil
	}

	var res tubesage.TranscriptResponse
	err := c.post(ctx, "/transcript", tubesage.TranscriptRequest{Video: video}, &res)
	if err != nil {
		return tubesage.Transcript{}, err
	}
	if err := checkStatus(res.Status, res.Message); err != nil {
		return tubesage.Transcript{}, err
	}
	if strings.TrimSpace(res.Transcript.Text) == "" {
		return tubesage.Transcript{}, fmt.Errorf("generation service: transcript is empty")
	}

	c.cache.Set(cacheKey, res.Transcript, cache.DefaultExpiration)
	return res.Transcript, nil
}

func (c *Client) Summary(ctx context.Context, video tubesage.VideoRef, transcript tubesage.Transcript) (string, error) {
	var res tubesage.SummaryResponse
	err := c.post(ctx, "/summary", tubesage.SummaryRequest{Video: video, Transcript: transcript}, &res)
	if err != nil {
		return "", err
	}
	if err := checkStatus(res.Status, res.Message); err != nil {
		return "", err
	}
	if strings.TrimSpace(res.Summary) == "" {
		return "", fmt.Errorf("generation service: empty summary")
	}
	return res.Summary, nil
}

func (c *Client) Quiz(ctx context.Context, video tubesage.VideoRef, transcript tubesage.Transcript) ([]tubesage.QuizQuestion, error) {
	var res tubesage.QuizResponse
	err := c.post(ctx, "/quiz", tubesage.QuizRequest{Video: video, Transcript: transcript}, &res)
	if err != nil {
		return nil, err
	}
	if err := checkStatus(res.Status, res.Message); err != nil {
		return nil, err
	}
	return res.Questions, nil
}

func (c *Client) Chat(ctx context.Context, video tubesage.VideoRef, question string, history []tubesage.Turn) (string, error) {
	var res tubesage.ChatResponse
	err := c.post(ctx, "/chat", tubesage.ChatRequest{Video: video, Question: question, History: history}, &res)
	if err != nil {
		return "", err
	}
	if err := checkStatus(res.Status, res.Message); err != nil {
		return "", err
	}
	return res.Answer, nil
}
