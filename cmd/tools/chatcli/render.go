package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/komekarch/site/backend/internal/model/chat"
	"github.com/komekarch/site/backend/internal/model/course"
)

const (
	roleAssistant = chat.RoleAssistant
	roleUser      = chat.RoleUser
)

var (
	assistantStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("6")).
			Padding(0, 1).
			Width(64)

	userStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("5")).
			Foreground(lipgloss.Color("15")).
			Padding(0, 1).
			MarginLeft(12).
			Width(52)

	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	hintStyle  = lipgloss.NewStyle().Faint(true)
	errorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	levelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("0")).Background(lipgloss.Color("14")).Padding(0, 1)
)

func renderBubble(role chat.Role, text string) string {
	if role == chat.RoleUser {
		return userStyle.Render(text)
	}
	return assistantStyle.Render(text)
}

func renderHeader(widget chat.Widget) string {
	var b strings.Builder
	b.WriteString(titleStyle.Render(widget.Title))
	b.WriteString("  ")
	b.WriteString(hintStyle.Render(widget.Subtitle))
	b.WriteString("\n")
	for i, s := range widget.Suggestions {
		b.WriteString(hintStyle.Render(fmt.Sprintf("  /%d %s", i+1, s)))
		b.WriteString("\n")
	}
	b.WriteString(hintStyle.Render(widget.Disclaimer))
	return b.String()
}

func renderModule(m course.Module) string {
	var b strings.Builder
	b.WriteString(titleStyle.Render(m.Title))
	b.WriteString(" ")
	b.WriteString(levelStyle.Render(string(m.Level)))
	b.WriteString(" ")
	b.WriteString(hintStyle.Render(m.Duration))
	b.WriteString("\n")
	b.WriteString(m.Focus)
	b.WriteString("\n")
	for _, topic := range m.Topics {
		b.WriteString("  • ")
		b.WriteString(topic)
		b.WriteString("\n")
	}
	return b.String()
}
