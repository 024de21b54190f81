package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/fady17/task/internal/llm"
	"github.com/fady17/task/internal/model"
	"github.com/fady17/task/pkg/logger"
)

const (
	titlePrompt      = "Create a 2-4 word title for this todo request: '%s'"
	titleTemperature = 0.3
	titleMaxTokens   = 15
	titleTimeout     = 10 * time.Second
	titleMaxLen      = 80
)

// TitleService names sessions from their first prompt.
type TitleService struct {
	client llm.Client
	model  string
	logger *logger.Logger
}

// NewTitleService creates a title service. An empty model uses the client's
// default.
func NewTitleService(client llm.Client, model string, log *logger.Logger) *TitleService {
	return &TitleService{client: client, model: model, logger: log}
}

// Generate returns a short title for prompt. It never fails: any error or
// empty answer yields model.DefaultSessionTitle.
func (s *TitleService) Generate(ctx context.Context, prompt string) string {
	ctx, cancel := context.WithTimeout(ctx, titleTimeout)
	defer cancel()

	resp, err := s.client.Complete(ctx, &llm.CompletionRequest{
		Model:       s.model,
		Messages:    []llm.ChatMessage{{Role: "user", Content: fmt.Sprintf(titlePrompt, prompt)}},
		Temperature: titleTemperature,
		MaxTokens:   titleMaxTokens,
	})
	if err != nil {
		s.logger.Warn("title generation failed", zap.String("provider", s.client.Name()), zap.Error(err))
		return model.DefaultSessionTitle
	}

	title := CleanTitle(resp.Content)
	if title == "" {
		return model.DefaultSessionTitle
	}
	return title
}

// CleanTitle strips quote characters and surrounding whitespace and keeps
// the first line.
func CleanTitle(raw string) string {
	title := strings.TrimSpace(raw)
	if i := strings.IndexAny(title, "\r\n"); i >= 0 {
		title = title[:i]
	}
	title = strings.Map(func(r rune) rune {
		switch r {
		case '"', '“', '”':
			return -1
		}
		return r
	}, title)
	title = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(title), "Title:"))
	if runes := []rune(title); len(runes) > titleMaxLen {
		title = strings.TrimSpace(string(runes[:titleMaxLen]))
	}
	return title
}
