package genai

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"go.uber.org/zap"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const DefaultModel = "gemini-1.5-flash-latest"

// geminiClient implements the LLMClient interface using the Google Gemini API.
type geminiClient struct {
	client *genai.Client
	cfg    Config
	logger *zap.Logger
}

// LLMClient defines the interface for interacting with a generative AI model.
type LLMClient interface {
	// GenerateStringSamples returns up to count plausible values for a text column.
	GenerateStringSamples(ctx context.Context, tableName, columnName, dataType string, count int) ([]string, error)

	// IsAPIKeyValid checks if the configured API key is functional.
	IsAPIKeyValid(ctx context.Context) error

	// Close cleans up any resources used by the client.
	Close() error
}

// Config holds configuration for the GenAI client.
type Config struct {
	APIKey string
	Model  string
	// KnowledgeContext is free text describing the data set, added to every prompt.
	KnowledgeContext string
}

// NewClient creates a new Gemini client.
func NewClient(ctx context.Context, cfg Config, logger *zap.Logger) (LLMClient, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("cannot create Gemini client: API key is missing")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(cfg.APIKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	if cfg.Model == "" {
		cfg.Model = DefaultModel
		logger.Info("Gemini model not specified, using default", zap.String("model", cfg.Model))
	}

	return &geminiClient{
		client: client,
		cfg:    cfg,
		logger: logger,
	}, nil
}

// Close cleans up the underlying Gemini client.
func (c *geminiClient) Close() error {
	if c.client != nil {
		return c.client.Close()
	}
	return nil
}

// IsAPIKeyValid checks if the Gemini API key is valid by listing models.
func (c *geminiClient) IsAPIKeyValid(ctx context.Context) error {
	if c.client == nil {
		return fmt.Errorf("gemini client not initialized (likely missing API key)")
	}

	modelIterator := c.client.ListModels(ctx)
	_, err := modelIterator.Next() // Attempt to list one model
	if err != nil {
		if st, ok := status.FromError(err); ok {
			if st.Code() == codes.Unauthenticated || st.Code() == codes.PermissionDenied {
				return fmt.Errorf("invalid Gemini API key or insufficient permissions: %w", err)
			}
		}
		return fmt.Errorf("failed to verify Gemini API key by listing models: %w", err)
	}
	return nil
}

// GenerateStringSamples asks Gemini for realistic values of a text column.
func (c *geminiClient) GenerateStringSamples(ctx context.Context, tableName, columnName, dataType string, count int) ([]string, error) {
	if c.client == nil {
		return nil, fmt.Errorf("gemini client not initialized")
	}
	if count <= 0 {
		return nil, nil
	}

	model := c.client.GenerativeModel(c.cfg.Model)
	model.SetTemperature(0.9)
	model.SetMaxOutputTokens(800)
	model.SetTopP(0.95)
	model.SetTopK(40)

	resp, err := model.GenerateContent(ctx, genai.Text(buildSamplesPrompt(tableName, columnName, dataType, count, c.cfg.KnowledgeContext)))
	if err != nil {
		return nil, fmt.Errorf("Gemini API call failed: %w", err)
	}

	text, err := getFirstTextPart(resp)
	if err != nil {
		return nil, err
	}
	samples, err := parseSamples(text, count)
	if err != nil {
		return nil, fmt.Errorf("could not parse samples for %s.%s: %w", tableName, columnName, err)
	}
	c.logger.Debug("generated string samples",
		zap.String("table", tableName),
		zap.String("column", columnName),
		zap.Int("count", len(samples)))
	return samples, nil
}

func buildSamplesPrompt(tableName, columnName, dataType string, count int, knowledgeContext string) string {
	var contextBlock string
	if strings.TrimSpace(knowledgeContext) != "" {
		contextBlock = fmt.Sprintf(`
	********** Knowledge Context **********
	%s
	********** End Knowledge Context **********
	`, knowledgeContext)
	}

	return fmt.Sprintf(`
	You generate realistic but entirely fictional test data for a database.
	%s
	**Column Information:**
	- Table Name: %s
	- Column Name: %s
	- Data Type: %s

	**Instructions:**
	1. Produce %d distinct values that plausibly belong in this column.
	2. Never use real personal data. Names, emails, phones and addresses must be invented.
	3. Output one value per line, without numbering or quotes, enclosed ONLY in <samples></samples> tags.

	**Example Output:** <samples>
	Harbor View Cafe
	Northwind Outfitters
	</samples>
	`, contextBlock, tableName, columnName, dataType, count)
}

// parseSamples extracts at most limit values from a <samples> block. Values are
// one per line; list markers and surrounding quotes are dropped.
func parseSamples(text string, limit int) ([]string, error) {
	content, found := extractContentBetween(text, "<samples>", "</samples>")
	if !found {
		return nil, fmt.Errorf("tags '<samples>' and '</samples>' not found in response")
	}

	seen := make(map[string]bool)
	var samples []string
	for _, line := range strings.Split(content, "\n") {
		v := strings.TrimSpace(line)
		v = strings.TrimLeft(v, "-*• ")
		v = strings.Trim(strings.TrimSpace(v), `"'`)
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		samples = append(samples, v)
		if limit > 0 && len(samples) == limit {
			break
		}
	}
	if len(samples) == 0 {
		return nil, fmt.Errorf("response contained no samples")
	}
	return samples, nil
}

// getFirstTextPart extracts the first text part from a Gemini response.
func getFirstTextPart(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		finishReason := "unknown"
		safetyRatings := "none"
		if resp != nil && len(resp.Candidates) > 0 {
			finishReason = resp.Candidates[0].FinishReason.String()
			if resp.Candidates[0].SafetyRatings != nil {
				safetyRatings = fmt.Sprintf("%v", resp.Candidates[0].SafetyRatings)
			}
		}
		return "", fmt.Errorf("empty or incomplete response from Gemini API. FinishReason: %s, SafetyRatings: %s", finishReason, safetyRatings)
	}
	part := resp.Candidates[0].Content.Parts[0]
	text, ok := part.(genai.Text)
	if !ok {
		return "", fmt.Errorf("unexpected response part type: %T", part)
	}
	return string(text), nil
}

// extractContentBetween extracts content between start and end tags from a string.
func extractContentBetween(text, startTag, endTag string) (string, bool) {
	startIndex := strings.Index(text, startTag)
	if startIndex == -1 {
		return "", false
	}
	startIndex += len(startTag)
	endIndex := strings.Index(text[startIndex:], endTag)
	if endIndex == -1 {
		return "", false
	}
	return strings.TrimSpace(text[startIndex : startIndex+endIndex]), true
}
