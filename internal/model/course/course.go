package course

// Level is the difficulty badge of a module.
type Level string

const (
	LevelBasic        Level = "Базовый"
	LevelIntermediate Level = "Средний"
	LevelAdvanced     Level = "Продвинутый"
)

// Valid reports whether l is one of the known levels.
func (l Level) Valid() bool {
	switch l {
	case LevelBasic, LevelIntermediate, LevelAdvanced:
		return true
	}
	return false
}

// Module is one course card on the catalog page.
type Module struct {
	ID       string   `json:"id" yaml:"id"`
	Title    string   `json:"title" yaml:"title"`
	Level    Level    `json:"level" yaml:"level"`
	Duration string   `json:"duration" yaml:"duration"`
	Focus    string   `json:"focus" yaml:"focus"`
	Topics   []string `json:"topics" yaml:"topics"`
}

// Seed returns the modules published on the courses page.
func Seed() []Module {
	return []Module{
		{
			ID:       "cpu-arch",
			Title:    "Архитектура процессора",
			Level:    LevelBasic,
			Duration: "6–8 часов",
			Focus:    "От логических вентилей до простого процессорного ядра.",
			Topics: []string{
				"Модель фон Неймана и регистровая архитектура",
				"Набор команд (ISA) и форматы инструкций",
				"ALU, регистровый файл, счетчик команд",
				"Цикл выполнения инструкции: выборка, декодирование, исполнение",
			},
		},
		{
			ID:       "memory",
			Title:    "Подсистема памяти",
			Level:    LevelIntermediate,
			Duration: "8–10 часов",
			Focus:    "Как процессор работает с памятью и что влияет на скорость.",
			Topics: []string{
				"Типы памяти: регистры, SRAM, DRAM, постоянная память",
				"Адресное пространство и выравнивание данных",
				"Виртуальная память и страничная организация",
				"Задержки доступа и пропускная способность",
			},
		},
		{
			ID:       "cache",
			Title:    "Кэш‑память",
			Level:    LevelIntermediate,
			Duration: "6–8 часов",
			Focus:    "Почему кэш так важен и как он устроен.",
			Topics: []string{
				"Принцип локальности: временная и пространственная",
				"Уровни кэша (L1, L2, L3)",
				"Политики отображения: прямое, ассоциативное, set‑associative",
				"Политики замещения и записи (write‑through, write‑back)",
			},
		},
		{
			ID:       "pipelining",
			Title:    "Конвейеризация",
			Level:    LevelAdvanced,
			Duration: "8–12 часов",
			Focus:    "Как ускорить процессор за счёт параллелизма внутри ядра.",
			Topics: []string{
				"Идея конвейера и его стадии",
				"Структурные, управляющие и дата‑hazards",
				"Методы разрешения конфликтов (stall, forwarding, predication)",
				"Предсказание переходов и суперскалярные архитектуры",
			},
		},
	}
}
