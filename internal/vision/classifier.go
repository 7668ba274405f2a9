// Package vision implements the camera capture and emotion tagging worker.
package vision

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"
)

// ErrNoFace is returned when the classifier finds no face in a frame. It
// is an expected steady-state condition, not a failure.
var ErrNoFace = errors.New("no face detected")

// Emotion is one classifier result.
type Emotion struct {
	Label string
	Score float64
}

// Classifier tags a video frame with the dominant facial emotion.
type Classifier interface {
	Classify(ctx context.Context, frame []byte) (Emotion, error)
}

// HTTPClassifier posts JPEG frames to a classifier service.
type HTTPClassifier struct {
	url string
	c   *http.Client
}

// NewHTTPClassifier returns a classifier client for the given base URL.
func NewHTTPClassifier(url string) *HTTPClassifier {
	return &HTTPClassifier{url: url, c: &http.Client{Timeout: 10 * time.Second}}
}

type classifyResponse struct {
	FaceDetected bool    `json:"face_detected"`
	Emotion      string  `json:"emotion"`
	Score        float64 `json:"score"`
}

// Classify uploads one frame and returns the dominant emotion.
func (h *HTTPClassifier) Classify(ctx context.Context, frame []byte) (Emotion, error) {
	var b bytes.Buffer
	w := multipart.NewWriter(&b)
	fw, err := w.CreateFormFile("frame", "frame.jpg")
	if err != nil {
		return Emotion{}, err
	}
	if _, err = fw.Write(frame); err != nil {
		return Emotion{}, err
	}
	if err = w.Close(); err != nil {
		return Emotion{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.url+"/classify", &b)
	if err != nil {
		return Emotion{}, err
	}
	req.Header.Set("Content-Type", w.FormDataContentType())

	resp, err := h.c.Do(req)
	if err != nil {
		return Emotion{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return Emotion{}, fmt.Errorf("classifier %s: %s", resp.Status, string(body))
	}

	var out classifyResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return Emotion{}, fmt.Errorf("classifier decode: %w", err)
	}
	if !out.FaceDetected {
		return Emotion{}, ErrNoFace
	}
	return Emotion{Label: out.Emotion, Score: out.Score}, nil
}
