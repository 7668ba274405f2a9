// Package companion exposes the HTTP endpoint the ah-counter device posts to.
package companion

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/hansenc101/podium/internal/model"
	"github.com/hansenc101/podium/internal/session"
)

const greeting = "<h1>Hello, World!</h1><p>This webserver is working!</p>"

// Server receives filler-word counts, status text, and color commands from
// the companion device. Handlers mutate the session state and publish view
// events; they never take the receiver down on bad input.
type Server struct {
	addr   string
	st     *session.State
	events chan<- model.Event

	srv *http.Server
	ln  net.Listener
}

// New returns a receiver bound to addr once started.
func New(addr string, st *session.State, events chan<- model.Event) *Server {
	return &Server{addr: addr, st: st, events: events}
}

// Start binds the listen address and serves in the background until ctx is
// cancelled or Stop is called. A bind failure (port taken) is returned
// synchronously.
func (s *Server) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("companion receiver: %w", err)
	}
	srv := &http.Server{Handler: s.Handler()}
	s.ln = ln
	s.srv = srv
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("companion receiver stopped: %v", err)
		}
	}()
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		// Shutdown is idempotent, so racing Stop here is harmless.
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Printf("companion receiver shutdown: %v", err)
		}
	}()
	return nil
}

// Stop shuts the receiver down, waiting for in-flight requests.
func (s *Server) Stop() {
	if s.srv == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := s.srv.Shutdown(ctx); err != nil {
		log.Printf("companion receiver shutdown: %v", err)
	}
	s.srv = nil
	s.ln = nil
}

// Addr returns the bound listen address, empty before Start.
func (s *Server) Addr() string {
	if s.ln == nil {
		return ""
	}
	return s.ln.Addr().String()
}

// Handler builds the route mux.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleHome)
	mux.HandleFunc("/time", s.handleTime)
	mux.HandleFunc("/set_text", s.handleSetText)
	mux.HandleFunc("/set_color", s.handleSetColor)
	return mux
}

func (s *Server) handleHome(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	fmt.Fprint(w, greeting)
}

func (s *Server) handleTime(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, map[string]string{"Current_Time": time.Now().Format("15:04:05")})
}

type setTextRequest struct {
	Status  *string `json:"status"`
	AhCount *string `json:"ahCount"`
}

func (s *Server) handleSetText(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req setTextRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid JSON body", http.StatusBadRequest)
		return
	}
	if req.Status == nil || req.AhCount == nil {
		http.Error(w, "status and ahCount fields are required", http.StatusBadRequest)
		return
	}
	count, err := strconv.Atoi(*req.AhCount)
	if err != nil || count < 0 {
		http.Error(w, "ahCount must be a non-negative integer", http.StatusBadRequest)
		return
	}

	alert := s.st.SetFillerCount(count)
	s.publish(model.StatusEvent{Status: *req.Status, AhCount: count, Alert: alert})

	// Echo contract: the device checks its payload came through intact.
	writeJSON(w, map[string]string{"status": *req.Status, "ahCount": *req.AhCount})
}

type setColorRequest struct {
	Red   *int `json:"red"`
	Green *int `json:"green"`
	Blue  *int `json:"blue"`
}

func (s *Server) handleSetColor(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req setColorRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid JSON body", http.StatusBadRequest)
		return
	}
	if req.Red == nil || req.Green == nil || req.Blue == nil {
		http.Error(w, "red, green and blue fields are required", http.StatusBadRequest)
		return
	}

	// Out-of-range values are clamped before they reach the view; the echo
	// still carries the values as received.
	s.publish(model.ColorEvent{
		Red:   clampChannel(*req.Red),
		Green: clampChannel(*req.Green),
		Blue:  clampChannel(*req.Blue),
	})

	writeJSON(w, map[string]int{"red": *req.Red, "green": *req.Green, "blue": *req.Blue})
}

func (s *Server) publish(ev model.Event) {
	select {
	case s.events <- ev:
	default:
		log.Printf("companion receiver: dropping %T, view not consuming", ev)
	}
}

func clampChannel(v int) int {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return v
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("companion receiver: failed to encode response: %v", err)
	}
}
