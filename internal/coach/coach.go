// Package coach turns a finished analysis result into narrative
// coaching advice using a locally hosted LLM. It runs strictly after
// analysis, so scoring stays deterministic; if the model host is down
// the deterministic feedback stands on its own.
package coach

import (
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"

	"github.com/agent-api/core/pkg/agent"
	"github.com/agent-api/core/types"
	"github.com/agent-api/ollama"

	"github.com/andyzwu25/AI-Powered-Rehab-Exercise-Analyzer/internal/exercises"
)

const coachSystemPrompt = "You are an exercise form coach. Given a form score and observations " +
	"for one repetition, write short, encouraging advice telling the athlete what to fix first. " +
	"Be concrete and reference the observations."

// NewAgent initializes and returns a new coaching agent backed by a
// local Ollama instance.
func NewAgent(ctx context.Context, logger *slog.Logger) (*agent.DefaultAgent, error) {
	// Check if Ollama is running
	_, err := exec.Command("curl", "-s", "http://localhost:11434/api/tags").Output()
	if err != nil {
		return nil, err
	}

	opts := &ollama.ProviderOpts{
		Logger:  logger,
		BaseURL: "http://localhost",
		Port:    11434,
	}
	provider := ollama.NewProvider(opts)

	model := &types.Model{
		ID: "llama3.2:3b",
	}
	provider.UseModel(ctx, model)

	agentConf := &agent.NewAgentConfig{
		Provider:     provider,
		Logger:       logger,
		SystemPrompt: coachSystemPrompt,
	}

	return agent.NewAgent(agentConf), nil
}

// Coach produces narrative advice from analysis results.
type Coach struct {
	agent  *agent.DefaultAgent
	logger *slog.Logger
}

// NewCoach wraps a coaching agent.
func NewCoach(a *agent.DefaultAgent, logger *slog.Logger) *Coach {
	if logger == nil {
		logger = slog.Default()
	}
	return &Coach{agent: a, logger: logger}
}

// Advise asks the model for coaching notes on one analysis result.
func (c *Coach) Advise(ctx context.Context, exerciseType string, result exercises.AnalysisResult) (string, error) {
	prompt := fmt.Sprintf(
		"Exercise: %s\nForm score: %.0f/100\nObservations:\n- %s",
		exerciseType, result.Score, strings.Join(result.Feedback, "\n- "))

	response := c.agent.Run(ctx, agent.WithInput(prompt))
	if response.Err != nil {
		return "", response.Err
	}
	if len(response.Messages) == 0 {
		return "", fmt.Errorf("no response messages received from model")
	}

	content := response.Messages[len(response.Messages)-1].Content
	c.logger.Debug("coach response", "exercise_type", exerciseType, "content", content)
	return content, nil
}
