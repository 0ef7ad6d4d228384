// Package tracker files tickets in Linear through its GraphQL API.
package tracker

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/sandevgo/kurt/internal/config"
	"github.com/sandevgo/kurt/internal/core"
	"github.com/sandevgo/kurt/pkg/conv"
	"github.com/sandevgo/kurt/pkg/log"
	"github.com/sandevgo/kurt/pkg/retry"
)

const maxErrorBody = 1024

const teamsQuery = `query Teams { teams(first: 1) { nodes { id name } } }`

const issueCreateMutation = `mutation IssueCreate($input: IssueCreateInput!) {
  issueCreate(input: $input) { success issue { id title url } }
}`

const issueUpdateMutation = `mutation IssueUpdate($id: String!, $input: IssueUpdateInput!) {
  issueUpdate(id: $id, input: $input) { success issue { id title url } }
}`

type Linear struct {
	client  *http.Client
	apiURL  string
	apiKey  string
	retrier *retry.Retrier

	mu     sync.Mutex
	teamID string
}

type Option func(*Linear)

func WithHTTPClient(c *http.Client) Option {
	return func(l *Linear) {
		l.client = c
	}
}

func WithRetrier(r *retry.Retrier) Option {
	return func(l *Linear) {
		l.retrier = r
	}
}

func NewLinear(cfg *config.TrackerConfig, opts ...Option) *Linear {
	rc := retry.NewDefaultConfig()
	rc.Retryable = core.IsRetryable

	l := &Linear{
		client:  &http.Client{Timeout: 30 * time.Second},
		apiURL:  cfg.APIURL,
		apiKey:  cfg.APIKey,
		teamID:  cfg.TeamID,
		retrier: retry.NewRetrier(rc),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

type issueInput struct {
	TeamID      string `json:"teamId"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Priority    int    `json:"priority"`
	AssigneeID  string `json:"assigneeId,omitempty"`
	DueDate     string `json:"dueDate,omitempty"`
}

type issuePayload struct {
	Success bool `json:"success"`
	Issue   *struct {
		ID    string `json:"id"`
		Title string `json:"title"`
		URL   string `json:"url"`
	} `json:"issue"`
}

func (l *Linear) CreateIssue(ctx context.Context, draft core.TicketDraft) (core.TicketResult, error) {
	input, err := l.input(ctx, draft)
	if err != nil {
		return core.TicketResult{}, err
	}

	var data struct {
		IssueCreate issuePayload `json:"issueCreate"`
	}
	if err := l.do(ctx, issueCreateMutation, map[string]any{"input": input}, &data); err != nil {
		return core.TicketResult{}, fmt.Errorf("create issue: %w", err)
	}

	result, err := toResult(data.IssueCreate)
	if err != nil {
		return core.TicketResult{}, fmt.Errorf("create issue: %w", err)
	}

	log.FromCtx(ctx).Info().
		Str("issue_id", result.Issue.ID).
		Str("url", result.Issue.URL).
		Msg("linear issue created")
	return result, nil
}

func (l *Linear) UpdateIssue(ctx context.Context, issueID string, draft core.TicketDraft) (core.TicketResult, error) {
	input, err := l.input(ctx, draft)
	if err != nil {
		return core.TicketResult{}, err
	}

	var data struct {
		IssueUpdate issuePayload `json:"issueUpdate"`
	}
	vars := map[string]any{"id": issueID, "input": input}
	if err := l.do(ctx, issueUpdateMutation, vars, &data); err != nil {
		return core.TicketResult{}, fmt.Errorf("update issue %s: %w", issueID, err)
	}

	result, err := toResult(data.IssueUpdate)
	if err != nil {
		return core.TicketResult{}, fmt.Errorf("update issue %s: %w", issueID, err)
	}

	log.FromCtx(ctx).Info().
		Str("issue_id", result.Issue.ID).
		Str("url", result.Issue.URL).
		Msg("linear issue updated")
	return result, nil
}

func (l *Linear) Close(context.Context) error {
	l.client.CloseIdleConnections()
	return nil
}

func (l *Linear) input(ctx context.Context, draft core.TicketDraft) (issueInput, error) {
	teamID, err := l.team(ctx)
	if err != nil {
		return issueInput{}, err
	}
	return issueInput{
		TeamID:      teamID,
		Title:       draft.Title,
		Description: draft.Description,
		Priority:    draft.Priority,
		AssigneeID:  draft.AssigneeID,
		DueDate:     draft.DueDate,
	}, nil
}

// team returns the configured team, or looks up the workspace's first team once.
// A failed lookup is not cached.
func (l *Linear) team(ctx context.Context) (string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.teamID != "" {
		return l.teamID, nil
	}

	var data struct {
		Teams struct {
			Nodes []struct {
				ID   string `json:"id"`
				Name string `json:"name"`
			} `json:"nodes"`
		} `json:"teams"`
	}
	err := l.retrier.Do(ctx, func(ctx context.Context) error {
		return l.do(ctx, teamsQuery, nil, &data)
	})
	if err != nil {
		return "", fmt.Errorf("resolve team: %w", err)
	}
	if len(data.Teams.Nodes) == 0 || data.Teams.Nodes[0].ID == "" {
		return "", fmt.Errorf("resolve team: no team found")
	}

	team := data.Teams.Nodes[0]
	log.FromCtx(ctx).Info().Str("team_id", team.ID).Str("team", team.Name).Msg("linear team resolved")
	l.teamID = team.ID
	return l.teamID, nil
}

func toResult(p issuePayload) (core.TicketResult, error) {
	if !p.Success || p.Issue == nil {
		return core.TicketResult{}, &core.TransportError{
			Service:    core.ServiceTracker,
			StatusCode: http.StatusOK,
			Body:       "mutation returned success=false",
		}
	}
	return core.TicketResult{
		Success: true,
		Issue:   core.Issue{ID: p.Issue.ID, Title: p.Issue.Title, URL: p.Issue.URL},
	}, nil
}

type gqlRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables,omitempty"`
}

type gqlResponse struct {
	Data   json.RawMessage `json:"data"`
	Errors []struct {
		Message string `json:"message"`
	} `json:"errors"`
}

// do posts one GraphQL operation and decodes its data into out.
func (l *Linear) do(ctx context.Context, query string, vars map[string]any, out any) error {
	body, err := json.Marshal(gqlRequest{Query: query, Variables: vars})
	if err != nil {
		return fmt.Errorf("marshal: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, l.apiURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", l.apiKey)
	req.Header.Set("User-Agent", core.KurtUserAgent)

	resp, err := l.client.Do(req)
	if err != nil {
		return &core.TransportError{Service: core.ServiceTracker, Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return &core.TransportError{Service: core.ServiceTracker, StatusCode: resp.StatusCode, Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &core.TransportError{
			Service:    core.ServiceTracker,
			StatusCode: resp.StatusCode,
			Body:       conv.Truncate(string(data), maxErrorBody),
		}
	}

	var gql gqlResponse
	if err := json.Unmarshal(data, &gql); err != nil {
		return &core.TransportError{Service: core.ServiceTracker, StatusCode: resp.StatusCode, Err: fmt.Errorf("decode: %w", err)}
	}
	if len(gql.Errors) > 0 {
		msgs := make([]string, 0, len(gql.Errors))
		for _, e := range gql.Errors {
			msgs = append(msgs, e.Message)
		}
		return &core.TransportError{
			Service:    core.ServiceTracker,
			StatusCode: resp.StatusCode,
			Body:       strings.Join(msgs, "; "),
		}
	}

	if err := json.Unmarshal(gql.Data, out); err != nil {
		return &core.TransportError{Service: core.ServiceTracker, StatusCode: resp.StatusCode, Err: fmt.Errorf("decode data: %w", err)}
	}
	return nil
}
