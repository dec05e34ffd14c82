// internal/api/client.go
package api

import (
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Client talks to a running muscle selector server.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// Health is the healthcheck response body.
type Health struct {
	Status   string `json:"status"`
	Sessions int    `json:"sessions"`
}

// ImportResult is the response to a layout upload.
type ImportResult struct {
	Key    string `json:"key"`
	Labels int    `json:"labels"`
}

// New creates a new API client.
func New(baseURL string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// Healthcheck checks if the server is reachable and returns its status.
func (c *Client) Healthcheck() (Health, error) {
	resp, err := c.httpClient.Get(c.baseURL + "/healthcheck")
	if err != nil {
		return Health{}, fmt.Errorf("healthcheck request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Health{}, fmt.Errorf("healthcheck returned status %d", resp.StatusCode)
	}
	var h Health
	if err := json.NewDecoder(resp.Body).Decode(&h); err != nil {
		return Health{}, fmt.Errorf("failed to decode healthcheck: %w", err)
	}
	return h, nil
}

// UploadLayout replaces the server's stored layout with the file at filePath.
func (c *Client) UploadLayout(filePath string) (ImportResult, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return ImportResult{}, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	pr, pw := io.Pipe()
	writer := multipart.NewWriter(pw)

	errCh := make(chan error, 1)
	go func() {
		part, err := writer.CreateFormFile("file", filepath.Base(filePath))
		if err != nil {
			pw.CloseWithError(err)
			errCh <- fmt.Errorf("failed to create form file: %w", err)
			return
		}
		if _, err := io.Copy(part, file); err != nil {
			pw.CloseWithError(err)
			errCh <- fmt.Errorf("failed to copy file: %w", err)
			return
		}
		errCh <- writer.Close()
		pw.Close()
	}()

	req, err := http.NewRequest(http.MethodPut, c.baseURL+"/api/layout", pr)
	if err != nil {
		pr.Close()
		return ImportResult{}, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		pr.Close()
		<-errCh
		return ImportResult{}, fmt.Errorf("upload request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		// The server may answer before reading the whole form.
		pr.Close()
		<-errCh
		var body struct {
			Error string `json:"error"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&body)
		if body.Error != "" {
			return ImportResult{}, fmt.Errorf("upload returned status %d: %s", resp.StatusCode, body.Error)
		}
		return ImportResult{}, fmt.Errorf("upload returned status %d", resp.StatusCode)
	}
	if writeErr := <-errCh; writeErr != nil {
		return ImportResult{}, writeErr
	}

	var result ImportResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return ImportResult{}, fmt.Errorf("failed to decode upload response: %w", err)
	}
	return result, nil
}
