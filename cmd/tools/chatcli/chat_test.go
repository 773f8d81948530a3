package main

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/komekarch/site/backend/internal/analysis/topic"
	"github.com/komekarch/site/backend/internal/model/chat"
)

func TestRunChatScript(t *testing.T) {
	var out bytes.Buffer
	script := strings.Join([]string{
		"кэш",
		"/close",
		"DRAM",
		"/open",
		"/9",
		"/nope",
		"/quit",
	}, "\n")

	err := runChat(context.Background(), strings.NewReader(script), &out, chatOptions{
		engine: topic.Default(),
		delay:  5 * time.Millisecond,
	})
	require.NoError(t, err)

	text := out.String()
	assert.Contains(t, text, "AI‑помощник")
	assert.Contains(t, text, "Кэш")
	assert.Contains(t, text, "assistant widget is closed")
	assert.Contains(t, text, "suggestion index out of range")
	assert.Contains(t, text, "unknown command /nope")
}

func TestAskCommand(t *testing.T) {
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs([]string{"ask", "что", "такое", "конвейер"})

	require.NoError(t, cmd.Execute())
	assert.Contains(t, out.String(), "topic: "+topic.TopicPipeline)
}

func TestCoursesCommand(t *testing.T) {
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"courses"})

	require.NoError(t, cmd.Execute())
	assert.Contains(t, out.String(), "Конвейеризация")
	assert.Contains(t, out.String(), "Базовый")
}

func TestRenderBubble(t *testing.T) {
	assert.Contains(t, renderBubble(chat.RoleUser, "hi"), "hi")
	assert.Contains(t, renderBubble(chat.RoleAssistant, "yo"), "yo")
}
