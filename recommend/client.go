package recommend

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/bookmarkedapp/bookmarked-engine/domain"
	"github.com/bookmarkedapp/bookmarked-engine/internal/errors"
)

// Token budgets from the generator contract: the bulk call returns up to
// twenty items, the single-category call three.
const (
	bulkMaxTokens     = 4000
	categoryMaxTokens = 1000
)

// ChatService defines the interface for making chat completion API calls.
// This abstraction enables testing without calling the real OpenAI API.
type ChatService interface {
	New(ctx context.Context, params openai.ChatCompletionNewParams, opts ...option.RequestOption) (*openai.ChatCompletion, error)
}

// Config holds recommendation client configuration.
type Config struct {
	// APIKey is the generator credential. Empty means unconfigured: every
	// call returns empty without a network attempt.
	APIKey string
	// Model overrides the default chat model.
	Model string
}

// Client produces recommendation items from the user's saved library.
type Client struct {
	chat     ChatService
	model    openai.ChatModel
	logger   *slog.Logger
	warnOnce sync.Once
}

// New creates a recommendation client. With no API key the client is inert:
// GetAll and GetCategory return empty immediately.
func New(cfg Config, logger *slog.Logger) *Client {
	c := &Client{logger: logger}
	if cfg.APIKey == "" {
		return c
	}

	model := openai.ChatModelGPT4oMini
	if cfg.Model != "" {
		model = openai.ChatModel(cfg.Model)
	}

	api := openai.NewClient(option.WithAPIKey(cfg.APIKey))
	c.chat = api.Chat.Completions
	c.model = model
	return c
}

// Configured reports whether the client has a generator to talk to.
func (c *Client) Configured() bool {
	return c.chat != nil
}

// bulkResponse matches the all-categories completion schema.
type bulkResponse struct {
	ByAuthors      []domain.Recommendation `json:"byAuthors"`
	ByGenres       []domain.Recommendation `json:"byGenres"`
	ByRatings      []domain.Recommendation `json:"byRatings"`
	BySomethingNew []domain.Recommendation `json:"bySomethingNew"`
}

// categoryResponse matches the single-category completion schema.
type categoryResponse struct {
	Recommendations []domain.Recommendation `json:"recommendations"`
}

// GetAll requests recommendations for all four categories in one completion.
// Any failure (unconfigured, transport, empty completion, bad JSON) yields
// empty slices for every category, logged here and never propagated.
func (c *Client) GetAll(ctx context.Context, lib []domain.SavedBook) map[domain.Category][]domain.Recommendation {
	if !c.ready(lib) {
		return emptyResult()
	}

	content, err := c.complete(ctx, bulkSystem, buildBulkPrompt(lib), bulkMaxTokens)
	if err != nil {
		c.logger.Error("bulk recommendation request failed", "error", err)
		return emptyResult()
	}

	var parsed bulkResponse
	if err := json.Unmarshal([]byte(content), &parsed); err != nil {
		c.logger.Error("bulk recommendation response unparseable",
			"error", errors.Wrap(err, errors.CodeParse, "decode bulk recommendations"))
		return emptyResult()
	}

	return map[domain.Category][]domain.Recommendation{
		domain.CategoryByAuthors:      orEmpty(parsed.ByAuthors),
		domain.CategoryByGenres:       orEmpty(parsed.ByGenres),
		domain.CategoryByRatings:      orEmpty(parsed.ByRatings),
		domain.CategoryBySomethingNew: orEmpty(parsed.BySomethingNew),
	}
}

// GetCategory requests a fresh batch for one category, telling the generator
// which titles are already on screen. Failures yield an empty slice, logged.
func (c *Client) GetCategory(ctx context.Context, lib []domain.SavedBook, cat domain.Category, excludeTitles []string) []domain.Recommendation {
	if !c.ready(lib) {
		return []domain.Recommendation{}
	}

	content, err := c.complete(ctx, categorySystem, buildCategoryPrompt(lib, cat, excludeTitles), categoryMaxTokens)
	if err != nil {
		c.logger.Error("category recommendation request failed", "category", string(cat), "error", err)
		return []domain.Recommendation{}
	}

	var parsed categoryResponse
	if err := json.Unmarshal([]byte(content), &parsed); err != nil {
		c.logger.Error("category recommendation response unparseable",
			"category", string(cat),
			"error", errors.Wrap(err, errors.CodeParse, "decode category recommendations"))
		return []domain.Recommendation{}
	}
	return orEmpty(parsed.Recommendations)
}

// ready gates every call: an unconfigured client warns once and stays silent
// after that; an empty library has nothing to recommend from.
func (c *Client) ready(lib []domain.SavedBook) bool {
	if !c.Configured() {
		c.warnOnce.Do(func() {
			c.logger.Warn("suggestions disabled",
				"error", errors.NotConfigured("recommendation generator has no API key"))
		})
		return false
	}
	return len(lib) > 0
}

// complete runs one JSON-mode chat completion and returns the raw content.
func (c *Client) complete(ctx context.Context, system, user string, maxTokens int64) (string, error) {
	resp, err := c.chat.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.F(c.model),
		Messages: openai.F([]openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(system),
			openai.UserMessage(user),
		}),
		MaxCompletionTokens: openai.F(maxTokens),
		ResponseFormat: openai.F[openai.ChatCompletionNewParamsResponseFormatUnion](
			openai.ResponseFormatJSONObjectParam{
				Type: openai.F(openai.ResponseFormatJSONObjectTypeJSONObject),
			},
		),
	})
	if err != nil {
		return "", errors.Transport("chat completion failed").WithCause(err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.Parse("chat completion returned no choices")
	}
	content := resp.Choices[0].Message.Content
	if content == "" {
		return "", errors.Parsef("empty completion, finish reason %q", resp.Choices[0].FinishReason)
	}
	return content, nil
}

// emptyResult maps every category to an empty slice.
func emptyResult() map[domain.Category][]domain.Recommendation {
	out := make(map[domain.Category][]domain.Recommendation, 4)
	for _, cat := range domain.Categories() {
		out[cat] = []domain.Recommendation{}
	}
	return out
}

func orEmpty(items []domain.Recommendation) []domain.Recommendation {
	if items == nil {
		return []domain.Recommendation{}
	}
	return items
}
