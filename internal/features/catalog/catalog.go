// Package catalog — статическая таблица конфигурации: товары магазина,
// список игр для главного экрана и офлайн-банк вопросов викторины.
// По умолчанию используется встроенный catalog.yaml.
package catalog

import (
	_ "embed"
	"fmt"
	"os"
	"slices"

	"gopkg.in/yaml.v3"
)

//go:embed catalog.yaml
var defaultCatalog []byte

// Reward — товар в магазине наград.
type Reward struct {
	ID    string `yaml:"id"`
	Title string `yaml:"title"`
	Cost  int64  `yaml:"cost"`
	Icon  string `yaml:"icon"`
}

// Question — вопрос офлайн-банка.
type Question struct {
	Question      string   `yaml:"question"`
	Options       []string `yaml:"options"`
	CorrectAnswer string   `yaml:"correct_answer"`
	Difficulty    string   `yaml:"difficulty"`
}

// Catalog — весь каталог целиком.
type Catalog struct {
	QuickAmounts []int64    `yaml:"quick_amounts"`
	Rewards      []Reward   `yaml:"rewards"`
	Games        []string   `yaml:"games"`
	Questions    []Question `yaml:"questions"`
}

// Default возвращает встроенный каталог.
func Default() (*Catalog, error) {
	return Parse(defaultCatalog)
}

// Load читает каталог из файла. При пустом пути используется встроенный каталог.
func Load(path string) (*Catalog, error) {
	if path == "" {
		return Default()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog: %w", err)
	}
	return Parse(data)
}

// Parse разбирает YAML и проверяет результат.
func Parse(data []byte) (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("failed to parse catalog: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Validate проверяет каталог:
//   - у товаров уникальные непустые ID и положительная цена
//   - у вопросов минимум 2 варианта, правильный ответ встречается ровно один раз
//   - быстрые суммы положительные
func (c *Catalog) Validate() error {
	seen := make(map[string]bool, len(c.Rewards))
	for i, r := range c.Rewards {
		if r.ID == "" || r.Title == "" {
			return fmt.Errorf("reward #%d: id and title are required", i)
		}
		if seen[r.ID] {
			return fmt.Errorf("reward %s: duplicate id", r.ID)
		}
		seen[r.ID] = true
		if r.Cost <= 0 {
			return fmt.Errorf("reward %s: cost must be positive", r.ID)
		}
	}

	for i, q := range c.Questions {
		if err := ValidateQuestion(q.Question, q.Options, q.CorrectAnswer); err != nil {
			return fmt.Errorf("question #%d: %w", i, err)
		}
	}

	for _, a := range c.QuickAmounts {
		if a <= 0 {
			return fmt.Errorf("quick amount %d must be positive", a)
		}
	}
	return nil
}

// ValidateQuestion — общие правила корректности вопроса.
// Используется и для каталога, и для ответов внешнего сервиса вопросов.
func ValidateQuestion(text string, options []string, correct string) error {
	if text == "" {
		return fmt.Errorf("empty question text")
	}
	if len(options) < 2 {
		return fmt.Errorf("need at least 2 options, got %d", len(options))
	}
	n := 0
	for _, o := range options {
		if o == correct {
			n++
		}
	}
	if n != 1 {
		return fmt.Errorf("correct answer %q must appear exactly once, found %d", correct, n)
	}
	return nil
}

// RewardByID ищет товар по ID.
func (c *Catalog) RewardByID(id string) (Reward, bool) {
	i := slices.IndexFunc(c.Rewards, func(r Reward) bool { return r.ID == id })
	if i < 0 {
		return Reward{}, false
	}
	return c.Rewards[i], true
}
