package adapters

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/ecothreads/threadscore/internal/errors"
	"github.com/ecothreads/threadscore/internal/resilience"
	"github.com/ecothreads/threadscore/internal/textile"
	"github.com/ecothreads/threadscore/internal/types"
)

// SentimentScorer turns review text into sustainability sentiment and infers
// a blend when a listing's material text carries no parseable signal.
type SentimentScorer interface {
	// ScoreReviews returns one 0-10 sentiment per review, index-aligned.
	ScoreReviews(ctx context.Context, reviews []types.Review) ([]float64, error)
	// InferBlend estimates composition from title and category.
	InferBlend(ctx context.Context, product types.Product) ([]textile.BlendComponent, error)
}

// LLMClient scores through a chat-completions style JSON API. Model replies
// are free text; the JSON payload is extracted by pattern before decoding.
type LLMClient struct {
	endpoint string
	apiKey   string
	model    string
	pool     *resilience.ConnectionPool
}

func NewLLMClient(endpoint, apiKey, model string) *LLMClient {
	cb := resilience.GetCircuitBreaker(resilience.CollaboratorSentiment, resilience.BreakerConfig{
		FailureThreshold: 5,
		RecoveryTimeout:  30 * time.Second,
		SuccessThreshold: 3,
	})
	return &LLMClient{
		endpoint: strings.TrimRight(endpoint, "/"),
		apiKey:   apiKey,
		model:    model,
		pool:     resilience.NewConnectionPool(5, 10, 60*time.Second, cb),
	}
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

var jsonBlockRe = regexp.MustCompile(`(?s)[\[{].*[\]}]`)

func (c *LLMClient) complete(ctx context.Context, prompt string) (string, error) {
	payload, err := json.Marshal(chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: "You are an apparel sustainability analyst. Reply with JSON only."},
			{Role: "user", Content: prompt},
		},
	})
	if err != nil {
		return "", err
	}

	headers := map[string]string{
		"Content-Type": "application/json",
		"Accept":       "application/json",
	}
	if c.apiKey != "" {
		headers["Authorization"] = "Bearer " + c.apiKey
	}

	resp, err := c.pool.DoRequest(ctx, http.MethodPost, c.endpoint+"/v1/chat/completions", headers, bytes.NewReader(payload))
	if err != nil {
		return "", errors.NewCollaboratorError(resilience.CollaboratorSentiment, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", errors.NewCollaboratorError(resilience.CollaboratorSentiment,
			fmt.Errorf("sentiment API returned %d: %s", resp.StatusCode, string(body)))
	}

	var parsed chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", errors.WrapError(err, "decoding sentiment API response")
	}
	if len(parsed.Choices) == 0 {
		return "", errors.NewCollaboratorError(resilience.CollaboratorSentiment,
			fmt.Errorf("sentiment API returned no choices"))
	}

	content := parsed.Choices[0].Message.Content
	block := jsonBlockRe.FindString(content)
	if block == "" {
		return "", errors.NewCollaboratorError(resilience.CollaboratorSentiment,
			fmt.Errorf("no JSON payload in model reply"))
	}
	return block, nil
}

func (c *LLMClient) ScoreReviews(ctx context.Context, reviews []types.Review) ([]float64, error) {
	if len(reviews) == 0 {
		return nil, nil
	}

	var b strings.Builder
	b.WriteString("Score each review's sustainability sentiment from 0 (very negative) to 10 (very positive).\n")
	b.WriteString("Reply with a JSON array of numbers, one per review, in order.\n\n")
	for i, r := range reviews {
		text := r.Text
		if len(text) > 300 {
			text = text[:300]
		}
		fmt.Fprintf(&b, "Review %d: %s\n", i+1, text)
	}

	block, err := c.complete(ctx, b.String())
	if err != nil {
		return nil, err
	}

	var scores []float64
	if err := json.Unmarshal([]byte(block), &scores); err != nil {
		return nil, errors.WrapError(err, "parsing sentiment scores")
	}
	if len(scores) != len(reviews) {
		return nil, fmt.Errorf("sentiment API returned %d scores for %d reviews", len(scores), len(reviews))
	}
	return scores, nil
}

func (c *LLMClient) InferBlend(ctx context.Context, product types.Product) ([]textile.BlendComponent, error) {
	prompt := fmt.Sprintf(
		"Infer the likely fiber composition of this apparel product.\n"+
			"Title: %s\nCategory: %s\nStated materials: %s\n"+
			"Reply with a JSON array of {\"material\": name, \"fraction\": 0.0-1.0} summing to at most 1.",
		product.Title, product.Category, product.MaterialsText)

	block, err := c.complete(ctx, prompt)
	if err != nil {
		return nil, err
	}

	var blend []textile.BlendComponent
	if err := json.Unmarshal([]byte(block), &blend); err != nil {
		return nil, errors.WrapError(err, "parsing inferred blend")
	}
	return blend, nil
}

// PoolStats exposes transport state for /health.
func (c *LLMClient) PoolStats() map[string]any {
	return c.pool.Stats()
}

func (c *LLMClient) Close() error {
	return c.pool.Close()
}

// LexiconScorer is the deterministic offline implementation: keyword lexicon
// sentiment and category heuristics for blend inference.
type LexiconScorer struct{}

func NewLexiconScorer() *LexiconScorer { return &LexiconScorer{} }

var (
	positiveLexicon = []string{
		"eco-friendly", "sustainable", "organic", "recycled", "ethical",
		"biodegradable", "fair trade", "durable", "quality", "traceable",
		"guilt-free", "chemical-free", "recyclable", "minimal packaging",
	}
	negativeLexicon = []string{
		"greenwash", "falling apart", "cheap plastic", "excessive packaging",
		"microplastic", "sweatshop", "wasteful", "toxic", "shrank",
		"wear out", "disposable", "fast fashion",
	}
)

func (s *LexiconScorer) ScoreReviews(ctx context.Context, reviews []types.Review) ([]float64, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	scores := make([]float64, len(reviews))
	for i, r := range reviews {
		text := strings.ToLower(r.Text)
		score := 5.0
		for _, w := range positiveLexicon {
			if strings.Contains(text, w) {
				score += 1.5
			}
		}
		for _, w := range negativeLexicon {
			if strings.Contains(text, w) {
				score -= 2.0
			}
		}
		if score > 10 {
			score = 10
		}
		if score < 0 {
			score = 0
		}
		scores[i] = score
	}
	return scores, nil
}

// InferBlend guesses from the product category the way a merchandiser would:
// athletic wear is polyester-heavy, denim is cotton, knitwear is wool.
func (s *LexiconScorer) InferBlend(ctx context.Context, product types.Product) ([]textile.BlendComponent, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	hint := strings.ToLower(product.Category + " " + product.Title)
	switch {
	case strings.Contains(hint, "jeans"), strings.Contains(hint, "denim"):
		return []textile.BlendComponent{
			{Material: "cotton", Fraction: 0.98},
			{Material: "elastane", Fraction: 0.02},
		}, nil
	case strings.Contains(hint, "fleece"):
		return []textile.BlendComponent{{Material: "polyester", Fraction: 1.0}}, nil
	case strings.Contains(hint, "puffer"):
		return []textile.BlendComponent{
			{Material: "polyester", Fraction: 0.9},
			{Material: "nylon", Fraction: 0.1},
		}, nil
	case strings.Contains(hint, "jacket"):
		return []textile.BlendComponent{
			{Material: "polyester", Fraction: 0.7},
			{Material: "cotton", Fraction: 0.3},
		}, nil
	case strings.Contains(hint, "sweater"), strings.Contains(hint, "wool"):
		return []textile.BlendComponent{
			{Material: "wool", Fraction: 0.8},
			{Material: "acrylic", Fraction: 0.2},
		}, nil
	case strings.Contains(hint, "athletic"), strings.Contains(hint, "sport"), strings.Contains(hint, "performance"):
		return []textile.BlendComponent{
			{Material: "polyester", Fraction: 0.9},
			{Material: "elastane", Fraction: 0.1},
		}, nil
	case strings.Contains(hint, "t-shirt"), strings.Contains(hint, "shirt"):
		return []textile.BlendComponent{
			{Material: "cotton", Fraction: 0.95},
			{Material: "elastane", Fraction: 0.05},
		}, nil
	default:
		return []textile.BlendComponent{
			{Material: "cotton", Fraction: 0.5},
			{Material: "polyester", Fraction: 0.5},
		}, nil
	}
}
