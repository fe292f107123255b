package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// Client talks to an Ollama server's generate endpoint.
type Client struct {
	HTTPBaseURL string
	HTTPClient  *http.Client
}

type generateRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	Stream bool   `json:"stream"`
}

type generateResponse struct {
	Model    string `json:"model"`
	Response string `json:"response"`
	Done     bool   `json:"done"`
}

func truncateForLog(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit]) + "…"
}

// Generate submits a single non-streaming completion request and returns the
// trimmed response text. An empty or whitespace-only completion is an error so
// the caller's retry policy can treat it as a failed attempt.
func (c Client) Generate(ctx context.Context, model string, prompt string) (string, error) {
	requestPayload := generateRequest{Model: model, Prompt: prompt, Stream: false}
	requestBytes, marshalErr := json.Marshal(requestPayload)
	if marshalErr != nil {
		return "", marshalErr
	}

	httpRequest, buildErr := http.NewRequestWithContext(ctx, http.MethodPost, c.HTTPBaseURL+"/api/generate", bytes.NewReader(requestBytes))
	if buildErr != nil {
		return "", buildErr
	}
	httpRequest.Header.Set("Content-Type", "application/json")

	httpClient := c.HTTPClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	httpResponse, httpErr := httpClient.Do(httpRequest)
	if httpErr != nil {
		return "", httpErr
	}
	defer func(closer io.ReadCloser) { _ = closer.Close() }(httpResponse.Body)

	bodyBytes, readErr := io.ReadAll(httpResponse.Body)
	if readErr != nil {
		return "", readErr
	}
	bodyPreview := truncateForLog(string(bodyBytes), 512)

	if httpResponse.StatusCode < 200 || httpResponse.StatusCode >= 300 {
		return "", fmt.Errorf("model http error %d: %s", httpResponse.StatusCode, bodyPreview)
	}

	var completion generateResponse
	if decodeErr := json.Unmarshal(bodyBytes, &completion); decodeErr != nil {
		return "", fmt.Errorf("decode generate response: %w (body=%s)", decodeErr, bodyPreview)
	}

	trimmed := strings.TrimSpace(completion.Response)
	if trimmed == "" {
		return "", fmt.Errorf("model returned empty response (status=%d body=%s)", httpResponse.StatusCode, bodyPreview)
	}
	return trimmed, nil
}
