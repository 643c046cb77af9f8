// Package scanner pulls frames from a camera stream, decodes optical
// codes, and drives the check-in tail through a cooldown-gated loop.
package scanner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"strconv"
	"sync"
	"time"
)

// ErrCameraUnavailable means the camera could not be acquired: no
// device, no permission, or the capture endpoint is unreachable.
// Non-fatal; the operator may retry.
var ErrCameraUnavailable = errors.New("camera unavailable")

// Camera facing preferences.
const (
	FacingEnvironment = "environment"
	FacingUser        = "user"
)

// Frame is one raw video frame. A frame with no pixel data means the
// capture buffer is not primed yet; the loop skips it without counting
// it as a decode miss.
type Frame struct {
	Seq        int
	CapturedAt time.Time
	JPEG       []byte
}

// Source acquires a camera stream. Acquire after Release is a supported
// pattern (toggling the scanner on and off).
type Source interface {
	Acquire(ctx context.Context, facing string) (Stream, error)
}

// Stream is a lazy, infinite sequence of frames backed by an exclusive
// camera handle. Release must be safe to call more than once and must
// be called on every exit path.
type Stream interface {
	Next(ctx context.Context) (Frame, error)
	Release() error
}

// MJPEGSource acquires frames from an MJPEG-over-HTTP capture endpoint
// (multipart/x-mixed-replace), the usual streaming surface of IP and
// daemon-fronted cameras.
type MJPEGSource struct {
	url    string
	client *http.Client
	width  int
	height int
}

// NewMJPEGSource creates a source for the given capture URL with a
// 1280x720 resolution hint.
func NewMJPEGSource(url string) *MJPEGSource {
	return &MJPEGSource{
		url: url,
		// No overall timeout: the response body is a live stream.
		client: &http.Client{},
		width:  1280,
		height: 720,
	}
}

// Acquire opens the stream with the preferred facing mode.
func (s *MJPEGSource) Acquire(ctx context.Context, facing string) (Stream, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCameraUnavailable, err)
	}
	q := req.URL.Query()
	q.Set("facing", facing)
	q.Set("width", strconv.Itoa(s.width))
	q.Set("height", strconv.Itoa(s.height))
	req.URL.RawQuery = q.Encode()

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCameraUnavailable, err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("%w: capture endpoint returned %s", ErrCameraUnavailable, resp.Status)
	}
	mediaType, params, err := mime.ParseMediaType(resp.Header.Get("Content-Type"))
	if err != nil || mediaType != "multipart/x-mixed-replace" || params["boundary"] == "" {
		resp.Body.Close()
		return nil, fmt.Errorf("%w: unexpected content type %q", ErrCameraUnavailable, resp.Header.Get("Content-Type"))
	}
	return &mjpegStream{
		body:  resp.Body,
		parts: multipart.NewReader(resp.Body, params["boundary"]),
	}, nil
}

type mjpegStream struct {
	body    io.ReadCloser
	parts   *multipart.Reader
	seq     int
	release sync.Once
}

// Next blocks until the camera delivers the next part. The underlying
// body read is bound to the request context passed at Acquire, so
// cancelling that context unblocks a pending pull.
func (s *mjpegStream) Next(ctx context.Context) (Frame, error) {
	if err := ctx.Err(); err != nil {
		return Frame{}, err
	}
	part, err := s.parts.NextPart()
	if err != nil {
		return Frame{}, fmt.Errorf("next frame: %w", err)
	}
	data, err := io.ReadAll(part)
	if err != nil {
		return Frame{}, fmt.Errorf("read frame: %w", err)
	}
	s.seq++
	return Frame{Seq: s.seq, CapturedAt: time.Now(), JPEG: data}, nil
}

// Release closes the camera handle exactly once.
func (s *mjpegStream) Release() error {
	var err error
	s.release.Do(func() {
		err = s.body.Close()
	})
	return err
}
