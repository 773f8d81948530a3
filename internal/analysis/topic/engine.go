// Package topic answers learner questions from a fixed table of
// computer-architecture explanations. It stands in for a real AI backend
// while the assistant runs in demo mode.
package topic

import (
	"strings"
)

// Rule pairs a predicate over the lowercased question with a reply.
type Rule struct {
	Topic    string   `json:"topic" yaml:"topic"`
	Keywords []string `json:"keywords" yaml:"keywords"`
	Reply    string   `json:"reply" yaml:"reply"`
}

// Match reports whether any keyword occurs in the normalized question.
func (r Rule) Match(normalized string) bool {
	for _, keyword := range r.Keywords {
		if keyword == "" {
			continue
		}
		if strings.Contains(normalized, strings.ToLower(keyword)) {
			return true
		}
	}
	return false
}

// Answer is the outcome of one lookup.
type Answer struct {
	Topic   string `json:"topic"`
	Text    string `json:"text"`
	Matched bool   `json:"matched"`
}

// FallbackTopic labels answers produced when no rule matched.
const FallbackTopic = "fallback"

// Engine evaluates rules top to bottom; the first match wins.
type Engine struct {
	rules    []Rule
	fallback string
}

// NewEngine builds an engine over rules in priority order.
func NewEngine(rules []Rule, fallback string) *Engine {
	return &Engine{
		rules:    append([]Rule(nil), rules...),
		fallback: fallback,
	}
}

// Default returns the engine with the built-in KomekArch rule table.
func Default() *Engine {
	return NewEngine(DefaultRules(), FallbackReply)
}

// Rules returns a copy of the rule table in priority order.
func (e *Engine) Rules() []Rule {
	return append([]Rule(nil), e.rules...)
}

// Respond returns the explanation for question. It never fails: an
// unmatched question gets the fallback reply.
func (e *Engine) Respond(question string) string {
	return e.Lookup(question).Text
}

// Lookup is Respond with the matched topic attached.
func (e *Engine) Lookup(question string) Answer {
	normalized := strings.ToLower(question)
	for _, rule := range e.rules {
		if rule.Match(normalized) {
			return Answer{Topic: rule.Topic, Text: rule.Reply, Matched: true}
		}
	}
	return Answer{Topic: FallbackTopic, Text: e.fallback}
}
