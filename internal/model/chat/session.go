package chat

import "time"

// State names the widget state machine states.
type State string

const (
	StateClosed        State = "closed"
	StateOpen          State = "open"
	StateIdle          State = "idle"
	StateAwaitingReply State = "awaitingReply"
)

// Snapshot is a point-in-time copy of one widget session.
type Snapshot struct {
	ID               string    `json:"id"`
	State            State     `json:"state"`
	IsOpen           bool      `json:"isOpen"`
	DraftText        string    `json:"draftText"`
	IsComposingReply bool      `json:"isComposingReply"`
	PendingReplies   int       `json:"pendingReplies"`
	Messages         []Message `json:"messages"`
	Widget           Widget    `json:"widget"`
	CreatedAt        time.Time `json:"createdAt"`
}

// Widget carries the static labels a client renders around the panel.
type Widget struct {
	Title       string   `json:"title"`
	Subtitle    string   `json:"subtitle"`
	Disclaimer  string   `json:"disclaimer"`
	Placeholder string   `json:"placeholder"`
	Suggestions []string `json:"suggestions"`
}

// Greeting is the assistant message every session starts with.
const Greeting = "Привет! Я AI‑помощник KomekArch. Спроси меня про CPU, память, кэш или конвейеризацию — объясню простыми словами и дам мини‑задачи."

// DefaultWidget returns the labels of the KomekArch assistant panel.
func DefaultWidget() Widget {
	return Widget{
		Title:       "AI‑помощник",
		Subtitle:    "KomekArch • демо‑чат",
		Disclaimer:  "Демо‑режим: ответы генерируются локально. Позже подключим настоящий AI API.",
		Placeholder: "Напиши вопрос… (Enter — отправить, Shift+Enter — новая строка)",
		Suggestions: Suggestions(),
	}
}

// Suggestions lists the quick-question chips in display order.
func Suggestions() []string {
	return []string{
		"Что такое конвейер (pipeline) простыми словами?",
		"Почему кэш ускоряет программу?",
		"В чём разница SRAM и DRAM?",
		"Объясни ISA и микроархитектуру",
	}
}
