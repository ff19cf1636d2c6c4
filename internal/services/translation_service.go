package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// TranslationService translates journey content via the Gemini API. The
// provider is a black box: callers only see translated text or an error.
type TranslationService interface {
	Translate(ctx context.Context, text, language string) (string, error)
}

type geminiTranslator struct {
	apiKey  string
	model   string
	baseURL string
	client  *http.Client
}

func NewGeminiTranslator(apiKey, model, baseURL string) TranslationService {
	return &geminiTranslator{
		apiKey:  apiKey,
		model:   model,
		baseURL: baseURL,
		client:  &http.Client{Timeout: 30 * time.Second},
	}
}

type geminiRequest struct {
	Contents []geminiContent `json:"contents"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiResponse struct {
	Candidates []struct {
		Content geminiContent `json:"content"`
	} `json:"candidates"`
}

func (t *geminiTranslator) Translate(ctx context.Context, text, language string) (string, error) {
	if t.apiKey == "" {
		return "", fmt.Errorf("GEMINI_API_KEY not set")
	}
	if text == "" {
		return "", nil
	}

	prompt := fmt.Sprintf(
		"Translate the following text to the language with ISO 639-1 code %q. Reply with the translation only.\n\n%s",
		language, text,
	)

	body, err := json.Marshal(geminiRequest{
		Contents: []geminiContent{{Parts: []geminiPart{{Text: prompt}}}},
	})
	if err != nil {
		return "", err
	}

	url := fmt.Sprintf("%s/models/%s:generateContent?key=%s", t.baseURL, t.model, t.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", fmt.Errorf("gemini API error: status %d: %s", resp.StatusCode, raw)
	}

	var result geminiResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", err
	}
	if len(result.Candidates) == 0 || len(result.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("gemini API returned no candidates")
	}

	return result.Candidates[0].Content.Parts[0].Text, nil
}
