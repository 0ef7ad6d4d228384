// Package meetbot drives an Attendee-compatible meeting bot API.
package meetbot

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

	"github.com/sandevgo/kurt/internal/config"
	"github.com/sandevgo/kurt/internal/core"
	"github.com/sandevgo/kurt/pkg/conv"
	"github.com/sandevgo/kurt/pkg/log"
)

const maxErrorBody = 1024

type Client struct {
	client  *http.Client
	baseURL string
	token   string
}

func NewClient(cfg *config.BotConfig) *Client {
	return &Client{
		client:  &http.Client{Timeout: 30 * time.Second},
		baseURL: strings.TrimRight(cfg.APIURL, "/"),
		token:   cfg.Token,
	}
}

// CreateBot sends a bot into the meeting and returns its id.
func (c *Client) CreateBot(ctx context.Context, meetingURL, botName string) (string, error) {
	payload := map[string]string{
		"meeting_url": meetingURL,
		"bot_name":    botName,
	}

	data, err := c.do(ctx, http.MethodPost, "/bots", payload)
	if err != nil {
		return "", fmt.Errorf("create bot: %w", err)
	}

	var bot struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(data, &bot); err != nil {
		return "", &core.TransportError{Service: core.ServiceBot, StatusCode: http.StatusOK, Err: fmt.Errorf("decode bot: %w", err)}
	}
	if bot.ID == "" {
		return "", &core.TransportError{Service: core.ServiceBot, StatusCode: http.StatusOK, Body: "bot id missing in response"}
	}

	log.FromCtx(ctx).Info().Str("bot_id", bot.ID).Str("bot_name", botName).Msg("meeting bot created")
	return bot.ID, nil
}

// Transcript returns the full transcript so far as "speaker: text" lines.
func (c *Client) Transcript(ctx context.Context, botID string) (string, error) {
	data, err := c.do(ctx, http.MethodGet, "/bots/"+url.PathEscape(botID)+"/transcript", nil)
	if err != nil {
		return "", fmt.Errorf("fetch transcript: %w", err)
	}

	text, err := normalizeTranscript(data)
	if err != nil {
		return "", &core.TransportError{Service: core.ServiceBot, StatusCode: http.StatusOK, Err: err}
	}
	return text, nil
}

func (c *Client) Leave(ctx context.Context, botID string) error {
	if _, err := c.do(ctx, http.MethodPost, "/bots/"+url.PathEscape(botID)+"/leave", nil); err != nil {
		return fmt.Errorf("leave meeting: %w", err)
	}
	log.FromCtx(ctx).Info().Str("bot_id", botID).Msg("bot left the meeting")
	return nil
}

// Close drops idle keep-alive connections to the bot API.
func (c *Client) Close(context.Context) error {
	c.client.CloseIdleConnections()
	return nil
}

type utterance struct {
	SpeakerName   string `json:"speaker_name"`
	Transcription *struct {
		Transcript string `json:"transcript"`
	} `json:"transcription"`
}

// normalizeTranscript accepts either a list of utterances or one aggregate
// {"transcript": "..."} object.
func normalizeTranscript(data []byte) (string, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return "", nil
	}

	if trimmed[0] == '[' {
		var items []utterance
		if err := json.Unmarshal(trimmed, &items); err != nil {
			return "", fmt.Errorf("decode transcript list: %w", err)
		}

		var b strings.Builder
		for _, it := range items {
			text := ""
			if it.Transcription != nil {
				text = it.Transcription.Transcript
			}
			b.WriteString(it.SpeakerName)
			b.WriteString(": ")
			b.WriteString(text)
			b.WriteByte('\n')
		}
		return b.String(), nil
	}

	var aggregate struct {
		Transcript string `json:"transcript"`
	}
	if err := json.Unmarshal(trimmed, &aggregate); err != nil {
		return "", fmt.Errorf("decode transcript: %w", err)
	}
	return aggregate.Transcript, nil
}

func (c *Client) do(ctx context.Context, method, path string, body any) ([]byte, error) {
	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshal: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Token "+c.token)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", core.KurtUserAgent)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, &core.TransportError{Service: core.ServiceBot, Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &core.TransportError{Service: core.ServiceBot, StatusCode: resp.StatusCode, Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &core.TransportError{Service: core.ServiceBot, StatusCode: resp.StatusCode, Body: conv.Truncate(string(data), maxErrorBody)}
	}
	return data, nil
}
