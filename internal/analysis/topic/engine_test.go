package topic

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func replyFor(t *testing.T, topic string) string {
	t.Helper()
	for _, rule := range DefaultRules() {
		if rule.Topic == topic {
			return rule.Reply
		}
	}
	t.Fatalf("no built-in rule for %s", topic)
	return ""
}

func TestRespondScenarios(t *testing.T) {
	engine := Default()

	cases := []struct {
		question string
		topic    string
	}{
		{"Что такое конвейер?", TopicPipeline},
		{"расскажи про SRAM и DRAM", TopicMemory},
		{"просто привет", FallbackTopic},
		{"кэш", TopicCache},
		{"Почему CACHE ускоряет программу?", TopicCache},
		{"Объясни ISA и микроархитектуру", TopicISA},
		{"что такое микроархитектура", TopicISA},
		{"как устроена оперативная память", TopicMemory},
		{"PIPELINE hazards", TopicPipeline},
	}
	for _, tc := range cases {
		t.Run(tc.question, func(t *testing.T) {
			answer := engine.Lookup(tc.question)
			assert.Equal(t, tc.topic, answer.Topic)
			assert.Equal(t, tc.topic != FallbackTopic, answer.Matched)
			assert.Equal(t, answer.Text, engine.Respond(tc.question))
		})
	}

	assert.Equal(t, FallbackReply, engine.Respond("просто привет"))
	assert.Equal(t, replyFor(t, TopicPipeline), engine.Respond("Что такое конвейер?"))
}

func TestRespondPriority(t *testing.T) {
	engine := Default()

	assert.Equal(t, TopicCache, engine.Lookup("кэш и конвейер").Topic)
	assert.Equal(t, TopicCache, engine.Lookup("pipeline stalls on a cache miss").Topic)
	assert.Equal(t, TopicPipeline, engine.Lookup("конвейер и DRAM").Topic)
	assert.Equal(t, TopicMemory, engine.Lookup("SRAM vs ISA").Topic)
}

func TestRespondIsTotal(t *testing.T) {
	engine := Default()
	for _, q := range []string{"", "   ", "\n", "???", strings.Repeat("x", 4096)} {
		got := engine.Respond(q)
		assert.NotEmpty(t, got)
		assert.Equal(t, got, engine.Respond(q), "respond must be deterministic")
	}
}

func TestCustomRuleOrder(t *testing.T) {
	engine := NewEngine([]Rule{
		{Topic: "b", Keywords: []string{"shared"}, Reply: "first"},
		{Topic: "a", Keywords: []string{"shared", "only-a"}, Reply: "second"},
		{Topic: "empty", Keywords: []string{""}, Reply: "never"},
	}, "none")

	assert.Equal(t, "first", engine.Respond("a SHARED word"))
	assert.Equal(t, "second", engine.Respond("only-a"))
	assert.Equal(t, "none", engine.Respond("nothing here"))
}

func TestRulesReturnsCopy(t *testing.T) {
	engine := Default()
	rules := engine.Rules()
	rules[0].Reply = "mutated"
	assert.NotEqual(t, "mutated", engine.Rules()[0].Reply)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
rules:
  - topic: tlb
    keywords: [tlb]
    reply: TLB caches page translations.
`), 0o600))

	engine, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "TLB caches page translations.", engine.Respond("What is a TLB?"))
	assert.Equal(t, FallbackReply, engine.Respond("кэш"))
}

func TestLoadFileRejectsInvalidTables(t *testing.T) {
	dir := t.TempDir()
	cases := map[string]string{
		"empty":       "rules: []",
		"no reply":    "rules:\n  - topic: x\n    keywords: [x]\n",
		"no keywords": "rules:\n  - topic: x\n    reply: y\n",
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(dir, strings.ReplaceAll(name, " ", "_")+".yaml")
			require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
			_, err := LoadFile(path)
			assert.Error(t, err)
		})
	}

	_, err := LoadFile(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)
}
