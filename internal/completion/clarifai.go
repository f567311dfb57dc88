package completion

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"
)

const clarifaiAPIBase = "https://api.clarifai.com/v2"

// statusSuccess is the provider's success code in response envelopes.
const statusSuccess = 10000

// Client calls the Clarifai text completion API. The token resolver runs
// per request so tokens saved through the settings API take effect without
// a restart.
type Client struct {
	baseURL      string
	resolveToken func() (string, error)
	httpClient   *http.Client
}

func NewClient(resolveToken func() (string, error)) *Client {
	return &Client{
		baseURL:      clarifaiAPIBase,
		resolveToken: resolveToken,
		httpClient: &http.Client{
			Timeout: 5 * time.Minute,
		},
	}
}

func (c *Client) Name() string {
	return "clarifai"
}

// Complete sends the prompt to the selected model version and returns the
// generated text. Provider failures surface the status description verbatim;
// there is no retry.
func (c *Client) Complete(ctx context.Context, model ModelSelection, prompt string) (string, error) {
	token, err := c.resolveToken()
	if err != nil {
		return "", err
	}

	reqBody := map[string]interface{}{
		"inputs": []map[string]interface{}{
			{
				"data": map[string]interface{}{
					"text": map[string]string{
						"raw": prompt,
					},
				},
			},
		},
	}

	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return "", err
	}

	url := fmt.Sprintf("%s/users/%s/apps/%s/models/%s/versions/%s/outputs",
		c.baseURL, model.UserID, model.AppID, model.ModelID, model.VersionID)
	httpReq, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewReader(jsonBody))
	if err != nil {
		return "", err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Key "+token)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("Clarifai API request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("Clarifai API error (status %d): %s", resp.StatusCode, string(body))
	}

	var apiResp struct {
		Status struct {
			Code        int    `json:"code"`
			Description string `json:"description"`
			Details     string `json:"details"`
		} `json:"status"`
		Outputs []struct {
			Data struct {
				Text struct {
					Raw string `json:"raw"`
				} `json:"text"`
			} `json:"data"`
		} `json:"outputs"`
	}
	if err := json.Unmarshal(body, &apiResp); err != nil {
		return "", fmt.Errorf("parse response: %w", err)
	}

	if apiResp.Status.Code != statusSuccess {
		desc := apiResp.Status.Description
		if apiResp.Status.Details != "" {
			desc += ": " + apiResp.Status.Details
		}
		return "", fmt.Errorf("completion failed: %s", desc)
	}

	if len(apiResp.Outputs) == 0 {
		return "", fmt.Errorf("empty completion response")
	}

	text := strings.TrimSpace(apiResp.Outputs[0].Data.Text.Raw)
	if text == "" {
		return "", fmt.Errorf("model returned no text")
	}

	log.Printf("[completion] %s/%s returned %d chars", model.UserID, model.ModelID, len(text))
	return text, nil
}
