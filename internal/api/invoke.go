package api

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/anthropics/anthropic-sdk-go"

	"github.com/loomhq/loom/internal/orchestrator"
	"github.com/loomhq/loom/pkg/models"
)

// defaultMaxTokens applies when an agent does not declare its own limit.
const defaultMaxTokens = 4096

// Invoke issues one agent call: the agent's system prompt and sampling
// parameters, one user message, one text response. Every failure is
// reported as *orchestrator.InvocationError with Retriable set for rate
// limits, server errors, and timeouts.
func (c *Client) Invoke(ctx context.Context, agent models.Agent, message string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.callTimeout)
	defer cancel()

	params := c.buildParams(agent, message)

	start := time.Now()
	resp, err := c.inner.Messages.New(ctx, params)
	if err != nil {
		return "", classifyError(agent.Name, err)
	}
	c.tracker.Add(resp.Usage.InputTokens, resp.Usage.OutputTokens)
	debugLog("[api.invoke] agent=%s tokens_in=%d tokens_out=%d duration=%s",
		agent.Name, resp.Usage.InputTokens, resp.Usage.OutputTokens, time.Since(start).Round(time.Millisecond))

	var text string
	for _, block := range resp.Content {
		if variant, ok := block.AsAny().(anthropic.TextBlock); ok {
			text += variant.Text
		}
	}
	if text == "" {
		return "", &orchestrator.InvocationError{
			Agent:   agent.Name,
			Message: "response contained no text content",
		}
	}
	return text, nil
}

// buildParams assembles the request for one agent call. A nil agent
// temperature leaves the provider default in place; an explicit zero is
// sent as-is.
func (c *Client) buildParams(agent models.Agent, message string) anthropic.MessageNewParams {
	params := anthropic.MessageNewParams{
		Model:     c.model,
		MaxTokens: maxTokens(agent),
		System: []anthropic.TextBlockParam{
			{Text: agent.SystemPrompt},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(message)),
		},
	}
	if agent.Temperature != nil {
		params.Temperature = anthropic.Float(*agent.Temperature)
	}
	return params
}

func maxTokens(agent models.Agent) int64 {
	if agent.MaxTokens > 0 {
		return int64(agent.MaxTokens)
	}
	return defaultMaxTokens
}

// classifyError maps SDK and context errors onto the invocation error
// taxonomy. Rate limits (429), server errors (5xx), and timeouts are
// retriable; everything else is not.
func classifyError(agentName string, err error) error {
	retriable := false

	var apiErr *anthropic.Error
	switch {
	case errors.As(err, &apiErr):
		retriable = apiErr.StatusCode == 429 || apiErr.StatusCode >= 500
	case errors.Is(err, context.DeadlineExceeded):
		retriable = true
	}

	return &orchestrator.InvocationError{
		Agent:     agentName,
		Message:   fmt.Sprintf("API call failed: %v", err),
		Retriable: retriable,
		Err:       err,
	}
}

// debugLog is an optional package-level logging hook, no-op by default.
var debugLog = func(format string, args ...interface{}) {}

// SetDebugLog sets the package-level debug logging function.
func SetDebugLog(fn func(format string, args ...interface{})) {
	if fn != nil {
		debugLog = fn
	}
}
