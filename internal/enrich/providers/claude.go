package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"swissjobs-utils/internal/config"
	"swissjobs-utils/internal/logging"
	"swissjobs-utils/pkg/models"
)

// ClaudeProvider enriches listings using Anthropic's Claude.
type ClaudeProvider struct {
	client anthropic.Client
	config *config.Config
	logger logging.Logger
}

// NewClaudeProvider creates a Claude-backed enrichment provider.
func NewClaudeProvider(cfg *config.Config, logger logging.Logger) *ClaudeProvider {
	client := anthropic.NewClient(
		option.WithAPIKey(cfg.LLM.APIKey),
	)
	return &ClaudeProvider{
		client: client,
		config: cfg,
		logger: logger,
	}
}

// Name returns the provider identifier.
func (cp *ClaudeProvider) Name() string {
	return "claude"
}

// Enrich asks Claude for the requested enrichment fields of one
// listing and parses the structured reply.
func (cp *ClaudeProvider) Enrich(ctx context.Context, listing *models.JobListing, features []models.EnrichmentFeature, target models.Language) (*models.Enrichment, error) {
	description := listing.Description
	maxContentLength := cp.config.LLM.MaxTokens * 3 // rough 3 chars per token
	if maxContentLength > 0 && len(description) > maxContentLength {
		description = description[:maxContentLength] + "..."
		cp.logger.Debug("Listing description truncated for enrichment", map[string]interface{}{
			"listing_id": listing.ID,
		})
	}

	prompt := buildEnrichmentPrompt(listing.Title, description, features, target)

	response, err := cp.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:       cp.model(),
		MaxTokens:   int64(cp.config.LLM.MaxTokens),
		Temperature: anthropic.Float(float64(cp.config.LLM.Temperature)),
		Messages: []anthropic.MessageParam{{
			Content: []anthropic.ContentBlockParamUnion{{
				OfText: &anthropic.TextBlockParam{Text: prompt},
			}},
			Role: anthropic.MessageParamRoleUser,
		}},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to call Claude API: %w", err)
	}

	enrichment, err := parseEnrichmentResponse(response)
	if err != nil {
		return nil, err
	}
	pruneUnrequestedFeatures(enrichment, features)
	return enrichment, nil
}

// HealthCheck verifies the API key works with a minimal request.
func (cp *ClaudeProvider) HealthCheck(ctx context.Context) error {
	if cp.config.LLM.APIKey == "" {
		return fmt.Errorf("Claude API key not configured - set LLM_API_KEY environment variable")
	}

	_, err := cp.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     cp.model(),
		MaxTokens: 16,
		Messages: []anthropic.MessageParam{{
			Content: []anthropic.ContentBlockParamUnion{{
				OfText: &anthropic.TextBlockParam{Text: "Hello"},
			}},
			Role: anthropic.MessageParamRoleUser,
		}},
	})
	if err != nil {
		return fmt.Errorf("Claude API health check failed: %w", err)
	}
	return nil
}

func (cp *ClaudeProvider) model() anthropic.Model {
	if cp.config.LLM.Model != "" {
		return anthropic.Model(cp.config.LLM.Model)
	}
	return anthropic.ModelClaude3_7SonnetLatest
}

func buildEnrichmentPrompt(title, description string, features []models.EnrichmentFeature, target models.Language) string {
	requested := make([]string, 0, len(features))
	for _, f := range features {
		requested = append(requested, string(f))
	}

	return fmt.Sprintf(`You are a job posting analyzer for Swiss job listings. Analyze the posting below and return a valid JSON object with exactly these fields:

{
  "translated_title": "string - the job title translated to %[1]s",
  "translated_description": "string - the description translated to %[1]s (keep it complete)",
  "experience_level": "string - one of: entry, mid, senior, lead",
  "languages": ["array of strings - spoken languages the posting requires, as ISO 639-1 codes"],
  "education": "string - the minimum education or certification the posting requires",
  "keywords": ["array of strings - up to 10 skill keywords for matching"]
}

IMPORTANT RULES:
1. Return ONLY valid JSON, no additional text or explanation
2. Only fill in these requested aspects: %[2]s. Use "" or [] for everything else
3. Swiss postings are often German, French or Italian; translate faithfully
4. If an aspect cannot be determined from the posting, use "" or []

JOB TITLE:
%[3]s

JOB POSTING:
%[4]s`, target, strings.Join(requested, ", "), title, description)
}

func parseEnrichmentResponse(response *anthropic.Message) (*models.Enrichment, error) {
	if len(response.Content) == 0 {
		return nil, fmt.Errorf("empty response from Claude")
	}

	var responseText string
	for _, content := range response.Content {
		textContent := content.AsText()
		responseText = textContent.Text
		break
	}
	if responseText == "" {
		return nil, fmt.Errorf("no text content in Claude response")
	}

	// Strip markdown code fences if present
	responseText = strings.TrimSpace(responseText)
	if strings.HasPrefix(responseText, "```json") {
		responseText = strings.TrimPrefix(responseText, "```json")
		responseText = strings.TrimSuffix(responseText, "```")
		responseText = strings.TrimSpace(responseText)
	} else if strings.HasPrefix(responseText, "```") {
		responseText = strings.TrimPrefix(responseText, "```")
		responseText = strings.TrimSuffix(responseText, "```")
		responseText = strings.TrimSpace(responseText)
	}

	var enrichment models.Enrichment
	if err := json.Unmarshal([]byte(responseText), &enrichment); err != nil {
		return nil, fmt.Errorf("failed to parse JSON response from Claude: %w, response: %s", err, responseText)
	}
	return &enrichment, nil
}

// pruneUnrequestedFeatures blanks fields the caller did not ask for, in
// case the model filled them anyway.
func pruneUnrequestedFeatures(e *models.Enrichment, features []models.EnrichmentFeature) {
	requested := make(map[models.EnrichmentFeature]bool, len(features))
	for _, f := range features {
		requested[f] = true
	}
	if !requested[models.FeatureTranslation] {
		e.TranslatedTitle = ""
		e.TranslatedDescription = ""
	}
	if !requested[models.FeatureExperience] {
		e.ExperienceLevel = ""
	}
	if !requested[models.FeatureLanguages] {
		e.Languages = nil
	}
	if !requested[models.FeatureEducation] {
		e.Education = ""
	}
	if !requested[models.FeatureKeywords] {
		e.Keywords = nil
	}
}
