package qa

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"
)

// ReasoningClient is the Layer-2 interface: one call per review,
// evaluating coherence and completeness beyond what the deterministic
// prechecks can see.
type ReasoningClient interface {
	Review(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// ReasoningSummary is the artifact bundle handed to the reasoning layer.
type ReasoningSummary struct {
	BookID          string
	Title           string
	MethodologyType string
	Stages          []map[string]any
	Tools           []map[string]any
	Indicators      []map[string]any
	Rules           []map[string]any
	READMEExcerpt   string
}

// ReasoningResult is what the reasoning layer returns.
type ReasoningResult struct {
	Issues     []Issue
	Strengths  []string
}

// DefaultSystemPrompt is the fixed instruction set handed to any
// configured reasoning model. It forbids content invention and pins the
// same severity/decision vocabulary as the deterministic layer so the
// two layers can't silently disagree on what BLOCKER/MAJOR/MINOR mean.
const DefaultSystemPrompt = `You are the QA reviewer for a compiled methodology document. You perform quality assurance only.

Hard rules:
- Do NOT add new stages, tools, indicators, or rules.
- Do NOT rewrite the methodology content.
- Do NOT use external knowledge beyond the provided artifacts.
- Every finding must be grounded in evidence (a path or pointer plus a short snippet).

Your tasks:
1) Logical coherence: contradictions, duplication, or broken flow across stages.
2) Glossary consistency: terms used inconsistently with their definitions.
3) Formula sanity: formulas with obvious semantic or structural errors.
4) Completeness: whether the methodology is actionable.

Return a JSON object with:
- issues: array of {severity: "BLOCKER"|"MAJOR"|"MINOR", category: string, message: string, evidence: {path: string, pointer: string, snippet: string}, fix_hint: string}
- strengths: array of short strings

Severity:
- BLOCKER: must fix before publishing
- MAJOR: reduces usability or correctness
- MINOR: formatting or small clarity issues

Decision policy: any BLOCKER or three or more MAJORs means not approved.

Output ONLY valid JSON, no surrounding text.`

// BuildUserPrompt renders the artifact bundle into the reasoning
// model's user-turn content.
func BuildUserPrompt(s ReasoningSummary) (string, error) {
	stages, err := json.MarshalIndent(firstN(s.Stages, 5), "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal stages: %w", err)
	}
	tools, err := json.MarshalIndent(s.Tools, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal tools: %w", err)
	}
	indicators, err := json.MarshalIndent(firstN(s.Indicators, 10), "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal indicators: %w", err)
	}
	rules, err := json.MarshalIndent(s.Rules, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal rules: %w", err)
	}

	readme := s.READMEExcerpt
	truncated := ""
	if len(readme) > 2000 {
		readme = readme[:2000]
		truncated = "..."
	}

	return fmt.Sprintf(`Artifacts for review:

## Methodology
- id: %s
- title: %s
- methodology_type: %s

## Stages (first 5)
%s

## Tools
%s

## Indicators (first 10)
%s

## Rules
%s

## README excerpt
%s%s

Analyze for logical coherence, completeness, formula sanity, and consistency with the outline's intent. Return ONLY the JSON object described in the system prompt.`,
		s.BookID, s.Title, s.MethodologyType, stages, tools, indicators, rules, readme, truncated), nil
}

func firstN(items []map[string]any, n int) []map[string]any {
	if len(items) <= n {
		return items
	}
	return items[:n]
}

// reasoningEnvelope is the JSON shape expected back from the model.
type reasoningEnvelope struct {
	Issues []struct {
		Severity string   `json:"severity"`
		Category string   `json:"category"`
		Message  string   `json:"message"`
		Evidence Evidence `json:"evidence"`
		FixHint  string   `json:"fix_hint"`
	} `json:"issues"`
	Strengths []string `json:"strengths"`
}

// RunReasoningLayer calls client once and parses its response. Any
// failure — network, parse, or client error — degrades to zero issues
// rather than failing the whole review, matching reviewer.py's
// `except Exception: return [], []`.
func RunReasoningLayer(ctx context.Context, client ReasoningClient, s ReasoningSummary) ReasoningResult {
	if client == nil {
		return ReasoningResult{}
	}
	userPrompt, err := BuildUserPrompt(s)
	if err != nil {
		return ReasoningResult{}
	}
	raw, err := client.Review(ctx, DefaultSystemPrompt, userPrompt)
	if err != nil {
		return ReasoningResult{}
	}

	text := stripCodeFence(raw)
	var env reasoningEnvelope
	if err := json.Unmarshal([]byte(text), &env); err != nil {
		return ReasoningResult{}
	}

	var issues []Issue
	for idx, iss := range env.Issues {
		sev := Severity(strings.ToUpper(iss.Severity))
		if sev != Blocker && sev != Major && sev != Minor {
			sev = Minor
		}
		issues = append(issues, Issue{
			ID:       fmt.Sprintf("REASONING-%03d", idx+1),
			Severity: sev,
			Category: orDefault(iss.Category, "reasoning"),
			Message:  iss.Message,
			Evidence: iss.Evidence,
			FixHint:  iss.FixHint,
		})
	}
	return ReasoningResult{Issues: issues, Strengths: env.Strengths}
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

// stripCodeFence tolerates a ```json ... ``` or ``` ... ``` wrapper
// around the model's JSON response.
func stripCodeFence(s string) string {
	trimmed := strings.TrimSpace(s)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}
	if idx := strings.Index(trimmed, "\n"); idx != -1 {
		trimmed = trimmed[idx+1:]
	}
	if last := strings.LastIndex(trimmed, "```"); last != -1 {
		trimmed = trimmed[:last]
	}
	return strings.TrimSpace(trimmed)
}

// HTTPReasoningClient is a minimal, provider-agnostic chat-completions
// client: POST a system+user message pair to a configurable endpoint
// and return the assistant's text. Endpoint, API key and model are
// configurable; the request path (/v1/chat/completions), the Bearer
// auth header and the choices[0].message.content response envelope
// are fixed.
type HTTPReasoningClient struct {
	Endpoint   string
	APIKey     string
	Model      string
	HTTPClient *http.Client
}

// NewHTTPReasoningClientFromEnv builds a client from REASONER_ENDPOINT,
// REASONER_API_KEY and REASONER_MODEL. Returns nil, nil when no
// endpoint is configured — the caller should treat that as "Layer 2
// disabled" rather than an error.
func NewHTTPReasoningClientFromEnv() (*HTTPReasoningClient, error) {
	endpoint := os.Getenv("REASONER_ENDPOINT")
	if endpoint == "" {
		return nil, nil
	}
	apiKey := os.Getenv("REASONER_API_KEY")
	if apiKey == "" {
		return nil, fmt.Errorf("REASONER_API_KEY is required when REASONER_ENDPOINT is set")
	}
	model := os.Getenv("REASONER_MODEL")
	if model == "" {
		model = "default"
	}
	return &HTTPReasoningClient{
		Endpoint:   strings.TrimRight(endpoint, "/"),
		APIKey:     apiKey,
		Model:      model,
		HTTPClient: &http.Client{Timeout: 120 * time.Second},
	}, nil
}

type reasonerRequest struct {
	Model       string             `json:"model"`
	Messages    []reasonerMessage  `json:"messages"`
	Temperature float64            `json:"temperature"`
	MaxTokens   int                `json:"max_tokens,omitempty"`
}

type reasonerMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type reasonerResponse struct {
	Choices []struct {
		Message reasonerMessage `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// Review implements ReasoningClient.
func (c *HTTPReasoningClient) Review(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	body, err := json.Marshal(reasonerRequest{
		Model: c.Model,
		Messages: []reasonerMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: userPrompt},
		},
		Temperature: 0,
		MaxTokens:   4000,
	})
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.Endpoint+"/v1/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.APIKey)

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("reasoning endpoint returned %d: %s", resp.StatusCode, string(respBody))
	}

	var parsed reasonerResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return "", fmt.Errorf("unmarshal response: %w", err)
	}
	if parsed.Error != nil {
		return "", fmt.Errorf("reasoning API error: %s", parsed.Error.Message)
	}
	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("no choices in reasoning response")
	}
	return parsed.Choices[0].Message.Content, nil
}
