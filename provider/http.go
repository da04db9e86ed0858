package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"
	"time"

	"SECUREATTEND/models"
)

const (
	defaultEmbeddingURL = "http://localhost:8000"
	faceEndpoint        = "/embed/face"
	maxResponseBytes    = 8 << 20
)

// HTTPClient calls an InsightFace-style embedding service over HTTP.
type HTTPClient struct {
	baseURL string
	client  *http.Client
}

func NewHTTPClient(baseURL string, timeout time.Duration) *HTTPClient {
	if baseURL == "" {
		baseURL = defaultEmbeddingURL
	}
	return &HTTPClient{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
	}
}

type faceDetection struct {
	FaceIndex int       `json:"face_index"`
	Dim       int       `json:"dim"`
	Embedding []float32 `json:"embedding"`
	BBox      []float64 `json:"bbox"` // [x1, y1, x2, y2]
	DetScore  float64   `json:"det_score"`
	Error     string    `json:"error,omitempty"`
}

type faceResponse struct {
	FacesCount int             `json:"faces_count"`
	Faces      []faceDetection `json:"faces"`
	Model      string          `json:"model"`
}

// DetectAndEmbed posts the image and converts every detection into a Face.
func (c *HTTPClient) DetectAndEmbed(ctx context.Context, image []byte) ([]Face, error) {
	if len(image) == 0 {
		return nil, fmt.Errorf("image is empty: %w", models.ErrInvalidInput)
	}

	body, status, err := c.postImage(ctx, image)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, fmt.Errorf("embedding request: %w", ctxErr)
		}
		return nil, fmt.Errorf("%w: %w", models.ErrEmbeddingFailed, err)
	}
	switch {
	case status == http.StatusUnprocessableEntity:
		return nil, fmt.Errorf("embedding service: %s: %w", strings.TrimSpace(string(body)), models.ErrDetectionFailed)
	case status != http.StatusOK:
		return nil, fmt.Errorf("embedding service status %d: %s: %w", status, strings.TrimSpace(string(body)), models.ErrEmbeddingFailed)
	}

	var resp faceResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("parse embedding response: %v: %w", err, models.ErrEmbeddingFailed)
	}

	faces := make([]Face, 0, len(resp.Faces))
	for i, d := range resp.Faces {
		f := Face{Index: i, Score: d.DetScore}
		if len(d.BBox) == 4 {
			f.Region = models.Region{X1: d.BBox[0], Y1: d.BBox[1], X2: d.BBox[2], Y2: d.BBox[3]}
		}
		switch {
		case d.Error != "":
			f.Err = fmt.Errorf("face %d: %s: %w", i, d.Error, models.ErrEmbeddingFailed)
		case len(d.Embedding) == 0:
			f.Err = fmt.Errorf("face %d: empty embedding: %w", i, models.ErrEmbeddingFailed)
		default:
			f.Embedding = make(models.Embedding, len(d.Embedding))
			for j, x := range d.Embedding {
				f.Embedding[j] = float64(x)
			}
		}
		faces = append(faces, f)
	}
	return faces, nil
}

func (c *HTTPClient) postImage(ctx context.Context, image []byte) ([]byte, int, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", `form-data; name="file"; filename="image.jpg"`)
	h.Set("Content-Type", http.DetectContentType(image))
	part, err := writer.CreatePart(h)
	if err != nil {
		return nil, 0, fmt.Errorf("create form file: %w", err)
	}
	if _, err := part.Write(image); err != nil {
		return nil, 0, fmt.Errorf("write image data: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, 0, fmt.Errorf("close multipart writer: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+faceEndpoint, &buf)
	if err != nil {
		return nil, 0, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes+1))
	if err != nil {
		return nil, 0, fmt.Errorf("read response: %w", err)
	}
	if len(body) > maxResponseBytes {
		return nil, 0, fmt.Errorf("response exceeds %d bytes", maxResponseBytes)
	}
	return body, resp.StatusCode, nil
}
