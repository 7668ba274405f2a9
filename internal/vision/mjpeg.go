package vision

import (
	"context"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"strings"
)

// FrameSource yields camera frames as encoded JPEG bytes.
type FrameSource interface {
	// Open acquires the camera. Cancelling ctx tears the stream down.
	Open(ctx context.Context) error
	// ReadFrame blocks until the next frame arrives.
	ReadFrame() ([]byte, error)
	Close() error
}

// MJPEGSource pulls frames from a camera exposing a
// multipart/x-mixed-replace MJPEG stream over HTTP.
type MJPEGSource struct {
	url   string
	c     *http.Client
	resp  *http.Response
	parts *multipart.Reader
}

// NewMJPEGSource returns a source for the given stream URL.
func NewMJPEGSource(url string) *MJPEGSource {
	// No client timeout: the stream is long-lived and governed by the
	// Open context instead.
	return &MJPEGSource{url: url, c: &http.Client{}}
}

// Open connects to the stream. A camera that cannot be reached surfaces
// here, before any frame is read.
func (m *MJPEGSource) Open(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, m.url, nil)
	if err != nil {
		return fmt.Errorf("camera request: %w", err)
	}
	resp, err := m.c.Do(req)
	if err != nil {
		return fmt.Errorf("camera unavailable: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return fmt.Errorf("camera unavailable: %s", resp.Status)
	}
	mediaType, params, err := mime.ParseMediaType(resp.Header.Get("Content-Type"))
	if err != nil || !strings.HasPrefix(mediaType, "multipart/") || params["boundary"] == "" {
		resp.Body.Close()
		return fmt.Errorf("camera stream is not multipart MJPEG (got %q)", resp.Header.Get("Content-Type"))
	}
	m.resp = resp
	m.parts = multipart.NewReader(resp.Body, params["boundary"])
	return nil
}

// ReadFrame returns the next JPEG frame from the stream.
func (m *MJPEGSource) ReadFrame() ([]byte, error) {
	if m.parts == nil {
		return nil, fmt.Errorf("camera stream not open")
	}
	part, err := m.parts.NextPart()
	if err != nil {
		return nil, fmt.Errorf("camera stream: %w", err)
	}
	defer part.Close()
	frame, err := io.ReadAll(part)
	if err != nil {
		return nil, fmt.Errorf("camera frame: %w", err)
	}
	return frame, nil
}

// Close releases the stream connection.
func (m *MJPEGSource) Close() error {
	if m.resp == nil {
		return nil
	}
	err := m.resp.Body.Close()
	m.resp = nil
	m.parts = nil
	return err
}
