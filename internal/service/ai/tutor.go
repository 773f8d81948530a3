package ai

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"
	"github.com/rs/zerolog"

	"github.com/komekarch/site/backend/internal/analysis/topic"
	"github.com/komekarch/site/backend/internal/logger"
	"github.com/komekarch/site/backend/internal/model/chat"
	"github.com/komekarch/site/backend/internal/model/course"
)

const (
	historyLimit = 10
	streamBuffer = 8
)

var errEmptyReply = errors.New("model returned an empty reply")

// Options configures the tutor.
type Options struct {
	// Fallback answers whenever the model fails. Required.
	Fallback *topic.Engine
	// Timeout bounds one model call. Zero means 15s.
	Timeout time.Duration
	Prompt  TutorPrompt
	Modules []course.Module
}

// Tutor answers assistant questions with a chat model and falls back to
// the keyword engine on any error, so Reply never fails.
type Tutor struct {
	chain    compose.Runnable[map[string]any, *schema.Message]
	fallback *topic.Engine
	timeout  time.Duration
	system   string
	log      zerolog.Logger
}

// NewTutor compiles the prompt chain over chatModel.
func NewTutor(ctx context.Context, chatModel model.BaseChatModel, opts Options) (*Tutor, error) {
	if chatModel == nil {
		return nil, errors.New("chat model is required")
	}
	if opts.Fallback == nil {
		return nil, errors.New("fallback engine is required")
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 15 * time.Second
	}
	if opts.Prompt.Role == "" {
		opts.Prompt = DefaultTutorPrompt()
	}

	template := prompt.FromMessages(
		schema.FString,
		schema.SystemMessage("{system}"),
		schema.MessagesPlaceholder("history", true),
		schema.UserMessage("{query}"),
	)

	chain := compose.NewChain[map[string]any, *schema.Message]()
	chain.AppendChatTemplate(template)
	chain.AppendChatModel(chatModel)

	runnable, err := chain.Compile(ctx)
	if err != nil {
		return nil, fmt.Errorf("compile tutor chain: %w", err)
	}

	return &Tutor{
		chain:    runnable,
		fallback: opts.Fallback,
		timeout:  opts.Timeout,
		system:   opts.Prompt.Build(opts.Modules),
		log:      logger.For("ai"),
	}, nil
}

// Reply implements the session responder contract.
func (t *Tutor) Reply(ctx context.Context, question string, history []chat.Message) string {
	answer, err := t.Generate(ctx, question, history)
	if err != nil {
		t.log.Warn().Err(err).Msg("tutor failed, using keyword answer")
		return t.fallback.Respond(question)
	}
	return answer
}

// Generate runs the chain once. history is the conversation before the
// question; a trailing copy of the question itself is dropped.
func (t *Tutor) Generate(ctx context.Context, question string, history []chat.Message) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	started := time.Now()
	response, err := t.chain.Invoke(ctx, t.buildChainInput(question, history))
	if err != nil {
		return "", fmt.Errorf("run tutor chain: %w", err)
	}

	content := strings.TrimSpace(response.Content)
	if content == "" {
		return "", errEmptyReply
	}

	t.log.Debug().
		Dur("elapsed", time.Since(started)).
		Int("history", len(history)).
		Int("length", len(content)).
		Msg("tutor reply generated")
	return content, nil
}

// Stream runs the chain and returns the model's chunk stream. The
// timeout covers the whole stream, not only its start.
func (t *Tutor) Stream(ctx context.Context, question string, history []chat.Message) (*schema.StreamReader[*schema.Message], error) {
	ctx, cancel := context.WithTimeout(ctx, t.timeout)

	stream, err := t.chain.Stream(ctx, t.buildChainInput(question, history))
	if err != nil {
		cancel()
		return nil, fmt.Errorf("stream tutor chain: %w", err)
	}

	reader, writer := schema.Pipe[*schema.Message](streamBuffer)
	go func() {
		defer cancel()
		defer stream.Close()
		defer writer.Close()

		for {
			chunk, err := stream.Recv()
			if errors.Is(err, io.EOF) {
				return
			}
			if err != nil {
				writer.Send(nil, err)
				return
			}
			if closed := writer.Send(chunk, nil); closed {
				return
			}
		}
	}()
	return reader, nil
}

func (t *Tutor) buildChainInput(question string, history []chat.Message) map[string]any {
	if n := len(history); n > 0 {
		last := history[n-1]
		if last.Role == chat.RoleUser && last.Text == question {
			history = history[:n-1]
		}
	}
	return map[string]any{
		"system":  t.system,
		"history": buildHistoryMessages(history),
		"query":   question,
	}
}

func buildHistoryMessages(messages []chat.Message) []*schema.Message {
	if len(messages) == 0 {
		return nil
	}

	start := 0
	if len(messages) > historyLimit {
		start = len(messages) - historyLimit
	}

	history := make([]*schema.Message, 0, len(messages)-start)
	for _, msg := range messages[start:] {
		switch msg.Role {
		case chat.RoleUser:
			history = append(history, schema.UserMessage(msg.Text))
		case chat.RoleAssistant:
			history = append(history, schema.AssistantMessage(msg.Text, nil))
		}
	}
	return history
}
