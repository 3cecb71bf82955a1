package translate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/go-resty/resty/v2"
)

// ---------------------------------------------------------------------------
// System prompt
// ---------------------------------------------------------------------------

// SystemPrompt instructs chat models how to translate message texts.
// {{sourceLang}} and {{targetLang}} are replaced by language names.
const SystemPrompt = `You are a professional translator specializing in software localization. You are translating UI strings of a web application from {{sourceLang}} to {{targetLang}}.

IMPORTANT TRANSLATION PRINCIPLES:
- Translate for NATURALNESS and FLUENCY in {{targetLang}}, not word-for-word
- Use established IT terminology in {{targetLang}}
- Keep brand names and proper nouns unchanged

CRITICAL MARKUP PRESERVATION RULES:
- Placeholders like {{0}} or {{1}} must appear in the translation exactly as in the source, unchanged
- Tags like <b>, </b>, <br>, <x/> or <ICU-Message-Ref_0/> must be kept exactly, in a valid order
- Translate only the text around and between them

TECHNICAL REQUIREMENTS:
- The input is a JSON array of strings
- Return ONLY a JSON array of translated strings, one for each input entry, in the same order
- Preserve leading/trailing whitespace and punctuation patterns
- Return ONLY the JSON array, no explanations or markdown code blocks`

func resolvedPrompt(sourceLang, targetLang string) string {
	return strings.NewReplacer(
		"{{sourceLang}}", LanguageName(sourceLang),
		"{{targetLang}}", LanguageName(targetLang),
	).Replace(SystemPrompt)
}

// ---------------------------------------------------------------------------
// OpenAI compatible chat completion provider
// ---------------------------------------------------------------------------

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model,omitempty"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

type apiError struct {
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

// OpenAI talks to any service exposing the OpenAI chat completions API
// (OpenAI, Groq, Ollama, LiteLLM, ...).
type OpenAI struct {
	cfg  ProviderConfig
	http *resty.Client
}

// NewOpenAI creates a chat completion client. Requests answered with 429
// or 5xx are retried with exponential backoff.
func NewOpenAI(cfg ProviderConfig) *OpenAI {
	c := resty.New().
		SetBaseURL(strings.TrimRight(cfg.BaseURL, "/")).
		SetTimeout(cfg.effectiveTimeout()).
		SetHeader("Content-Type", "application/json").
		SetRetryCount(cfg.effectiveMaxRetries()).
		SetRetryWaitTime(cfg.effectiveRetryWait()).
		SetRetryMaxWaitTime(30 * cfg.effectiveRetryWait()).
		AddRetryCondition(func(r *resty.Response, err error) bool {
			if err != nil || r == nil {
				return false
			}
			return r.StatusCode() == 429 || r.StatusCode() >= 500
		})
	if cfg.APIKey != "" {
		c.SetAuthToken(cfg.APIKey)
	}
	return &OpenAI{cfg: cfg, http: c}
}

func (o *OpenAI) Name() string { return o.cfg.ID }

// CallTimeout is the time one Translate call may take with every retry:
// each attempt runs up to the request timeout and waits at most the maximum
// backoff before the next one.
func (o *OpenAI) CallTimeout() time.Duration {
	retries := o.cfg.effectiveMaxRetries()
	return time.Duration(retries+1)*o.cfg.effectiveTimeout() + time.Duration(retries)*o.maxRetryWait()
}

func (o *OpenAI) maxRetryWait() time.Duration {
	return 30 * o.cfg.effectiveRetryWait()
}

func (o *OpenAI) MaxSegments() int { return MaxSegments }

func (o *OpenAI) Translate(ctx context.Context, req Request) (Response, error) {
	input, err := json.Marshal(req.Texts)
	if err != nil {
		return Response{}, o.fail(CodeInvalidRequest, err)
	}
	body := chatRequest{
		Model: o.cfg.Model,
		Messages: []chatMessage{
			{Role: "system", Content: resolvedPrompt(req.SourceLang, req.TargetLang)},
			{Role: "user", Content: fmt.Sprintf("Translate these %d entries:\n\n%s", len(req.Texts), input)},
		},
	}
	var result chatResponse
	var failure apiError
	r, err := o.http.R().
		SetContext(ctx).
		SetBody(body).
		SetResult(&result).
		SetError(&failure).
		Post("/chat/completions")
	if err != nil {
		return Response{}, o.fail(CodeConnectivity, err)
	}
	if r.IsError() {
		msg := failure.Error.Message
		if msg == "" {
			msg = truncate(r.String(), 300)
		}
		return Response{}, o.fail(codeForStatus(r.StatusCode()), fmt.Errorf("%s: %s", r.Status(), msg))
	}
	if len(result.Choices) == 0 {
		return Response{}, o.fail(CodeService, errors.New("no choices returned"))
	}
	translations, err := parseTranslations(result.Choices[0].Message.Content, len(req.Texts))
	if err != nil {
		return Response{}, o.fail(CodeService, err)
	}
	return Response{Translations: translations}, nil
}

func (o *OpenAI) fail(code ErrorCode, err error) error {
	return &ProviderError{Provider: o.Name(), Code: code, Err: err}
}

// ---------------------------------------------------------------------------
// Response parsing
// ---------------------------------------------------------------------------

var markdownCodeBlock = regexp.MustCompile("(?s)```(?:json)?\\s*(.*?)\\s*```")

// parseTranslations extracts a JSON array of strings from the model's
// answer.
func parseTranslations(content string, expected int) ([]string, error) {
	content = strings.TrimSpace(content)

	if m := markdownCodeBlock.FindStringSubmatch(content); len(m) > 1 {
		content = m[1]
	}

	startIdx := strings.Index(content, "[")
	endIdx := strings.LastIndex(content, "]")
	if startIdx >= 0 && endIdx > startIdx {
		content = content[startIdx : endIdx+1]
	}

	var translations []string
	if err := json.Unmarshal([]byte(content), &translations); err != nil {
		return nil, fmt.Errorf("failed to parse translation response as JSON array: %w\nResponse: %s", err, truncate(content, 300))
	}
	if len(translations) != expected {
		return nil, fmt.Errorf("got %d translations, expected %d", len(translations), expected)
	}
	return translations, nil
}

// truncate truncates a string to maxLen characters.
// truncate shortens s to at most maxLen bytes without splitting a rune.
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	cut := maxLen
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "..."
}
