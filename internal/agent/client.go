package agent

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/mailpilot/mailpilot/internal/api"
	"github.com/mailpilot/mailpilot/internal/logging"
)

// Client drives the assistant over its REST surface. For the streaming
// conversation use Dial instead.
type Client struct {
	api    *api.Client
	logger *slog.Logger
}

// NewClient creates an assistant client.
func NewClient(apiClient *api.Client, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		api:    apiClient,
		logger: logging.WithStore(logger, "agent"),
	}
}

// Process runs a prompt against one email. Either promptType selects an
// active template on the server, or customPrompt supplies the
// instruction text directly; customPrompt wins when both are set.
func (c *Client) Process(ctx context.Context, emailID, promptType, customPrompt string) (*ProcessResult, error) {
	if emailID == "" {
		return nil, fmt.Errorf("emailID cannot be empty")
	}
	if promptType == "" && customPrompt == "" {
		return nil, fmt.Errorf("either promptType or customPrompt is required")
	}

	var result ProcessResult
	err := c.api.Post(ctx, "processEmail", "/agent/process", processRequest{
		EmailID:      emailID,
		PromptType:   promptType,
		CustomPrompt: customPrompt,
	}, &result)
	if err != nil {
		return nil, err
	}

	c.logger.Info("email processed",
		logging.Operation("processEmail"),
		logging.EmailID(emailID),
		slog.Bool("custom_prompt", result.UsedCustomPrompt))
	return &result, nil
}

// Chat sends a single stateless message to the assistant.
func (c *Client) Chat(ctx context.Context, message string) (*ChatResult, error) {
	if message == "" {
		return nil, fmt.Errorf("message cannot be empty")
	}

	var result ChatResult
	err := c.api.Post(ctx, "chat", "/agent/chat", chatRequest{Message: message}, &result)
	if err != nil {
		return nil, err
	}
	return &result, nil
}
