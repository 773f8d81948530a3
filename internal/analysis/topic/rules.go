package topic

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Built-in topics, in priority order.
const (
	TopicCache    = "cache"
	TopicPipeline = "pipeline"
	TopicMemory   = "memory"
	TopicISA      = "isa"
)

// FallbackReply is the demo-mode answer for unmatched questions.
const FallbackReply = "Понял вопрос. Сейчас у нас демо‑режим без подключения к настоящему ИИ API, но я могу объяснять темы и давать упражнения.\n\n" +
	"Подсказка: спроси “объясни на примере” или “дай задачу на 5 минут” — так обучение быстрее."

// DefaultRules returns the built-in rule table. Order is priority: a
// question mentioning both cache and pipeline gets the cache answer.
func DefaultRules() []Rule {
	return []Rule{
		{
			Topic:    TopicCache,
			Keywords: []string{"кэш", "cache"},
			Reply: "Кэш — это быстрая память рядом с ядром CPU. Он хранит копии “горячих” данных из RAM, чтобы не ждать медленный доступ.\n\n" +
				"Мини‑проверка: локальность бывает двух типов — временная и пространственная. Можешь привести по одному примеру?",
		},
		{
			Topic:    TopicPipeline,
			Keywords: []string{"конвей", "pipeline"},
			Reply: "Конвейеризация — это разделение выполнения инструкции на стадии (например: fetch → decode → execute → mem → writeback), чтобы разные инструкции обрабатывались параллельно на разных стадиях.\n\n" +
				"Частая проблема — hazards (data/control). Хочешь разберём forwarding vs stall на примере?",
		},
		{
			Topic:    TopicMemory,
			Keywords: []string{"dram", "sram", "памят"},
			Reply: "SRAM быстрее и дороже (обычно кэши), DRAM медленнее и дешевле (обычно оперативная память).\n\n" +
				"Вопрос: почему DRAM “нужно обновлять” (refresh), а SRAM — нет?",
		},
		{
			Topic:    TopicISA,
			Keywords: []string{"isa", "микроарх"},
			Reply: "ISA — “контракт” между программой и процессором: какие есть инструкции, регистры, режимы адресации.\n" +
				"Микроархитектура — как именно конкретный CPU реализует эту ISA (конвейер, кэш, предсказание переходов и т.д.).\n\n" +
				"Если хочешь — назови ISA (x86-64, ARM, RISC‑V), и я дам короткий маршрут изучения.",
		},
	}
}

type rulesFile struct {
	Rules    []Rule `yaml:"rules"`
	Fallback string `yaml:"fallback"`
}

// LoadFile builds an engine from a YAML table:
//
//	rules:
//	  - topic: cache
//	    keywords: [кэш, cache]
//	    reply: ...
//	fallback: ...
//
// An empty fallback keeps FallbackReply.
func LoadFile(path string) (*Engine, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read rules: %w", err)
	}

	var file rulesFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("decode rules: %w", err)
	}
	if len(file.Rules) == 0 {
		return nil, errors.New("rule table is empty")
	}
	for i, rule := range file.Rules {
		if strings.TrimSpace(rule.Reply) == "" {
			return nil, fmt.Errorf("rule %d (%s): reply is required", i, rule.Topic)
		}
		if len(rule.Keywords) == 0 {
			return nil, fmt.Errorf("rule %d (%s): at least one keyword is required", i, rule.Topic)
		}
	}

	fallback := file.Fallback
	if strings.TrimSpace(fallback) == "" {
		fallback = FallbackReply
	}
	return NewEngine(file.Rules, fallback), nil
}
