package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/ahmetcoskunkizilkaya/resume-backend/internal/models"
)

const maxPDFSize = 20 << 20

// Renderer turns a resume into a PDF document.
type Renderer interface {
	Render(ctx context.Context, resume *models.Resume, watermark bool) ([]byte, error)
}

// HTTPRenderer posts resumes to an external rendering service.
type HTTPRenderer struct {
	url    string
	token  string
	client *http.Client
}

func NewHTTPRenderer(url, token string, timeout time.Duration) *HTTPRenderer {
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	return &HTTPRenderer{
		url:    url,
		token:  token,
		client: &http.Client{Timeout: timeout},
	}
}

type renderRequest struct {
	Title     string               `json:"title"`
	Template  string               `json:"template"`
	Content   models.ResumeContent `json:"content"`
	PhotoURL  string               `json:"photo_url,omitempty"`
	Watermark bool                 `json:"watermark"`
}

func (r *HTTPRenderer) Render(ctx context.Context, resume *models.Resume, watermark bool) ([]byte, error) {
	if r.url == "" {
		return nil, fmt.Errorf("%w: renderer not configured", ErrRenderFailed)
	}

	reqBody, err := json.Marshal(renderRequest{
		Title:     resume.Title,
		Template:  resume.Template,
		Content:   resume.Content.Data(),
		PhotoURL:  resume.PhotoURL,
		Watermark: watermark,
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.url, bytes.NewBuffer(reqBody))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/pdf")
	if r.token != "" {
		req.Header.Set("Authorization", "Bearer "+r.token)
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRenderFailed, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxPDFSize))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRenderFailed, err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: renderer returned %d: %s", ErrRenderFailed, resp.StatusCode, string(body))
	}
	if ct := resp.Header.Get("Content-Type"); ct != "" && !strings.HasPrefix(ct, "application/pdf") {
		return nil, fmt.Errorf("%w: unexpected content type %q", ErrRenderFailed, ct)
	}
	if len(body) == 0 {
		return nil, fmt.Errorf("%w: empty document", ErrRenderFailed)
	}
	return body, nil
}
