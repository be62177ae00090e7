// Package trivia — gemini.go: клиент Gemini generateContent.
// Один клиент реализует и QuestionSupplier, и MessageGenerator.
package trivia

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/tidwall/gjson"

	"serotonyl.ru/superfast-bot/internal/common"
	"serotonyl.ru/superfast-bot/internal/metrics"
)

const (
	questionPrompt = "Generate a fun, simple general knowledge trivia question for a casual game app. " +
		"Provide 4 options and identify the correct one."
	messagePrompt = "Generate a short, exciting congratulatory message for winning %s in a game app. " +
		"Keep it under 15 words. Hindi-English mix (Hinglish) is preferred."
)

// GeminiConfig — параметры клиента.
type GeminiConfig struct {
	APIKey  string
	Model   string
	BaseURL string
	// Потолок ожидания одного запроса (поверх дедлайна ctx)
	Timeout time.Duration
}

// GeminiClient — HTTP-клиент Gemini API.
type GeminiClient struct {
	cfg    GeminiConfig
	client *http.Client
}

// NewGeminiClient создаёт клиент. Если httpClient == nil, создаётся клиент с cfg.Timeout.
func NewGeminiClient(cfg GeminiConfig, httpClient *http.Client) *GeminiClient {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	return &GeminiClient{cfg: cfg, client: httpClient}
}

// FetchQuestion запрашивает вопрос в JSON-режиме.
//
// Правила деградации:
//   - ctx отменён/истёк → (nil, ctx.Err()), раунд получит ErrQuestionUnavailable
//   - ошибка HTTP или разбора → встроенный FallbackQuestion
//   - пустой текст ответа → (nil, nil)
func (c *GeminiClient) FetchQuestion(ctx context.Context) (*Question, error) {
	body := map[string]any{
		"contents": []any{
			map[string]any{"parts": []any{map[string]string{"text": questionPrompt}}},
		},
		"generationConfig": map[string]any{
			"responseMimeType": "application/json",
			"responseSchema": map[string]any{
				"type": "OBJECT",
				"properties": map[string]any{
					"question":      map[string]string{"type": "STRING"},
					"options":       map[string]any{"type": "ARRAY", "items": map[string]string{"type": "STRING"}},
					"correctAnswer": map[string]string{"type": "STRING"},
					"difficulty":    map[string]any{"type": "STRING", "enum": []string{"easy", "medium", "hard"}},
				},
				"required": []string{"question", "options", "correctAnswer"},
			},
		},
	}

	text, err := c.generate(ctx, body)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		log.WithError(err).Warn("Gemini: не удалось получить вопрос, используем запасной")
		metrics.CapabilityFallbacks.WithLabelValues("question").Inc()
		return FallbackQuestion(), nil
	}
	if text == "" {
		return nil, nil
	}

	q, err := parseQuestion(text)
	if err != nil {
		log.WithError(err).Warn("Gemini: некорректный JSON вопроса, используем запасной")
		metrics.CapabilityFallbacks.WithLabelValues("question").Inc()
		return FallbackQuestion(), nil
	}
	return q, nil
}

// GenerateWinMessage просит короткое поздравление.
// Ошибка → "Wow! You won ₹N!", пустой ответ → "Congratulations! You won!".
func (c *GeminiClient) GenerateWinMessage(ctx context.Context, amount int64) string {
	body := map[string]any{
		"contents": []any{
			map[string]any{"parts": []any{map[string]string{"text": fmt.Sprintf(messagePrompt, common.FormatMoney(amount))}}},
		},
	}

	text, err := c.generate(ctx, body)
	if err != nil {
		log.WithError(err).Debug("Gemini: поздравление не получено")
		metrics.CapabilityFallbacks.WithLabelValues("message").Inc()
		return FallbackWinMessage(amount)
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return EmptyMessageText
	}
	return text
}

// generate выполняет generateContent и возвращает текст первой части первого кандидата.
func (c *GeminiClient) generate(ctx context.Context, body map[string]any) (string, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	// Ключ только в заголовке: URL попадает в текст ошибок транспорта
	endpoint := fmt.Sprintf("%s/models/%s:generateContent", c.cfg.BaseURL, url.PathEscape(c.cfg.Model))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", c.cfg.APIKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("gemini request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("read gemini response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("gemini returned %d: %s", resp.StatusCode, gjson.GetBytes(raw, "error.message").String())
	}
	if !gjson.ValidBytes(raw) {
		return "", fmt.Errorf("gemini returned invalid JSON")
	}

	return gjson.GetBytes(raw, "candidates.0.content.parts.0.text").String(), nil
}

// parseQuestion разбирает JSON вопроса из текста модели.
// Проверку корректности вариантов делает Game.Load.
func parseQuestion(text string) (*Question, error) {
	if !gjson.Valid(text) {
		return nil, fmt.Errorf("question text is not JSON")
	}
	res := gjson.Parse(text)
	if !res.IsObject() {
		return nil, fmt.Errorf("question JSON is not an object")
	}

	q := &Question{
		Question:      res.Get("question").String(),
		CorrectAnswer: res.Get("correctAnswer").String(),
		Difficulty:    Difficulty(res.Get("difficulty").String()),
	}
	for _, o := range res.Get("options").Array() {
		q.Options = append(q.Options, o.String())
	}
	if q.Difficulty == "" {
		q.Difficulty = Easy
	}
	return q, nil
}
