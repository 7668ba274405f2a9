package speech

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// Streaming defaults for the realtime transcription endpoint.
const (
	SampleRate  = 16000
	FormatTurns = true
)

// WebsocketDialer abstracts the dialer so tests can inject a fake endpoint.
type WebsocketDialer interface {
	Dial(urlStr string, requestHeader http.Header) (*websocket.Conn, *http.Response, error)
}

// AudioSource captures raw PCM chunks from the microphone.
type AudioSource interface {
	// Open acquires the microphone; a busy device surfaces here.
	Open(ctx context.Context) error
	// ReadChunk blocks until the next audio chunk is captured.
	ReadChunk() ([]byte, error)
	Close() error
}

// Realtime service message types.
type beginMessage struct {
	ID        string    `json:"id"`
	Type      string    `json:"type"`
	ExpiresAt time.Time `json:"expires_at"`
}

type turnMessage struct {
	Type            string `json:"type"`
	Transcript      string `json:"transcript"`
	TurnIsFormatted bool   `json:"turn_is_formatted"`
	Words           []word `json:"words,omitempty"`
}

type word struct {
	Start      float64 `json:"start"`
	End        float64 `json:"end"`
	Text       string  `json:"text"`
	Confidence float64 `json:"confidence,omitempty"`
}

type terminateMessage struct {
	Type string `json:"type"`
}

// StreamRecognizer streams microphone audio to a realtime transcription
// service over a websocket and yields one Result per formatted turn.
type StreamRecognizer struct {
	// Dialer is replaceable in tests; defaults to websocket.DefaultDialer.
	Dialer WebsocketDialer

	serviceURL string
	apiKey     string
	source     AudioSource

	conn     *websocket.Conn
	wg       sync.WaitGroup
	turns    chan Result
	failures chan error
}

// NewStreamRecognizer returns a recognizer for the given websocket URL.
func NewStreamRecognizer(serviceURL, apiKey string, source AudioSource) *StreamRecognizer {
	return &StreamRecognizer{
		Dialer:     websocket.DefaultDialer,
		serviceURL: serviceURL,
		apiKey:     apiKey,
		source:     source,
		turns:      make(chan Result, 8),
		failures:   make(chan error, 1),
	}
}

// Start connects to the service, acquires the microphone, and begins
// streaming audio in the background.
func (r *StreamRecognizer) Start(ctx context.Context) error {
	u, err := url.Parse(r.serviceURL)
	if err != nil {
		return fmt.Errorf("speech service URL: %w", err)
	}
	q := u.Query()
	q.Set("sample_rate", fmt.Sprintf("%d", SampleRate))
	q.Set("format_turns", fmt.Sprintf("%t", FormatTurns))
	u.RawQuery = q.Encode()

	headers := http.Header{}
	headers.Set("Authorization", r.apiKey)

	conn, _, err := r.Dialer.Dial(u.String(), headers)
	if err != nil {
		return fmt.Errorf("speech service: %w", err)
	}
	if err := r.source.Open(ctx); err != nil {
		conn.Close()
		return fmt.Errorf("microphone: %w", err)
	}
	r.conn = conn

	// The goroutines work on their own reference; only Close touches
	// r.conn again, after joining them.
	r.wg.Add(2)
	go r.pumpAudio(ctx, conn)
	go r.readTurns(ctx, conn)
	return nil
}

// pumpAudio forwards captured chunks to the service until ctx is cancelled
// or the microphone fails.
func (r *StreamRecognizer) pumpAudio(ctx context.Context, conn *websocket.Conn) {
	defer r.wg.Done()
	for {
		select {
		case <-ctx.Done():
			r.terminate(conn)
			return
		default:
		}
		chunk, err := r.source.ReadChunk()
		if err != nil {
			if ctx.Err() == nil {
				log.Printf("speech: microphone read: %v", err)
				r.fail(ErrServiceUnavailable)
			}
			return
		}
		if err := conn.WriteMessage(websocket.BinaryMessage, chunk); err != nil {
			if ctx.Err() == nil {
				r.fail(ErrServiceUnavailable)
			}
			return
		}
	}
}

// readTurns delivers formatted turns from the service.
func (r *StreamRecognizer) readTurns(ctx context.Context, conn *websocket.Conn) {
	defer r.wg.Done()
	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() == nil {
				r.fail(ErrServiceUnavailable)
			}
			return
		}

		var base struct {
			Type string `json:"type"`
		}
		if err := json.Unmarshal(message, &base); err != nil {
			log.Printf("speech: unparseable service message: %v", err)
			continue
		}

		switch base.Type {
		case "Begin":
			var begin beginMessage
			if err := json.Unmarshal(message, &begin); err == nil {
				log.Printf("speech: session %s began", begin.ID)
			}
		case "Turn":
			var turn turnMessage
			if err := json.Unmarshal(message, &turn); err != nil {
				continue
			}
			if !turn.TurnIsFormatted {
				continue
			}
			res := Result{Text: turn.Transcript}
			if n := len(turn.Words); n > 0 {
				// Word timings are in milliseconds.
				res.Seconds = (turn.Words[n-1].End - turn.Words[0].Start) / 1000.0
			}
			select {
			case r.turns <- res:
			case <-ctx.Done():
				return
			}
		case "Termination":
			return
		case "Error":
			r.fail(ErrServiceUnavailable)
			return
		}
	}
}

// Recognize waits for the next formatted turn, at most one phrase window.
func (r *StreamRecognizer) Recognize(ctx context.Context, window time.Duration) (Result, error) {
	timer := time.NewTimer(window)
	defer timer.Stop()
	select {
	case res := <-r.turns:
		return res, nil
	case err := <-r.failures:
		return Result{}, err
	case <-timer.C:
		return Result{}, ErrUnrecognized
	case <-ctx.Done():
		return Result{}, ctx.Err()
	}
}

// Close releases the microphone and the service connection, then joins
// the streaming goroutines so none of them can touch a torn-down
// connection. Closing the connection and the source unblocks any read
// they are parked in.
func (r *StreamRecognizer) Close() error {
	var first error
	if r.conn != nil {
		first = r.conn.Close()
	}
	if err := r.source.Close(); err != nil && first == nil {
		first = err
	}
	r.wg.Wait()
	r.conn = nil
	return first
}

// terminate tells the service the session is over before disconnecting.
func (r *StreamRecognizer) terminate(conn *websocket.Conn) {
	data, err := json.Marshal(terminateMessage{Type: "Terminate"})
	if err != nil {
		return
	}
	if err := conn.WriteMessage(websocket.TextMessage, data); err == nil {
		// Give the message a moment to flush before Close tears the
		// connection down.
		time.Sleep(100 * time.Millisecond)
	}
}

func (r *StreamRecognizer) fail(err error) {
	select {
	case r.failures <- err:
	default:
	}
}
