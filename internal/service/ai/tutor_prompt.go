package ai

import (
	"fmt"
	"strings"

	"github.com/komekarch/site/backend/internal/model/course"
)

// TutorPrompt holds the pieces the system prompt is assembled from.
type TutorPrompt struct {
	Role  string
	Rules []string
}

// DefaultTutorPrompt is the persona of the site assistant.
func DefaultTutorPrompt() TutorPrompt {
	return TutorPrompt{
		Role: "Ты AI‑ассистент учебного сайта по архитектуре компьютера. " +
			"Помогаешь студентам разобраться с процессорами, памятью, кэшем, конвейером и ISA.",
		Rules: []string{
			"Отвечай по-русски, коротко: 2–4 предложения.",
			"Объясняй простыми словами и приводи один понятный пример.",
			"Если вопрос не про архитектуру компьютера, мягко верни разговор к курсу.",
			"Не выдумывай модули курса, которых нет в списке ниже.",
		},
	}
}

// Build renders the system prompt with the course outline appended.
func (p TutorPrompt) Build(modules []course.Module) string {
	var builder strings.Builder
	builder.WriteString(p.Role)

	if len(p.Rules) > 0 {
		builder.WriteString("\n\nПравила:\n- ")
		builder.WriteString(strings.Join(p.Rules, "\n- "))
	}

	if len(modules) > 0 {
		builder.WriteString("\n\nМодули курса:")
		for _, m := range modules {
			builder.WriteString(fmt.Sprintf("\n- %s (%s, %s): %s", m.Title, m.Level, m.Duration, m.Focus))
		}
	}
	return builder.String()
}
