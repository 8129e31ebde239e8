package status

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/julienschmidt/httprouter"

	"github.com/norasector/iqcapture/pkg/capture"
)

// Source is anything that can report capture counters.
type Source interface {
	Snapshot() capture.Snapshot
}

type statusResponse struct {
	capture.Snapshot
	Session string `json:"session"`
}

// Server exposes the capture counters over HTTP. It only reads atomics owned
// by the capture loop.
type Server struct {
	source  Source
	session string
	srv     *http.Server
}

func NewServer(port int, session string, source Source) *Server {
	s := &Server{
		source:  source,
		session: session,
		srv:     &http.Server{Addr: fmt.Sprintf(":%d", port)},
	}
	s.srv.Handler = s.Handler()
	return s
}

func (s *Server) Handler() http.Handler {
	handler := httprouter.New()
	handler.GET("/", func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		w.Header().Set("Location", "/status")
		w.WriteHeader(http.StatusFound)
	})

	handler.GET("/status", func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(statusResponse{
			Snapshot: s.source.Snapshot(),
			Session:  s.session,
		})
	})

	handler.GET("/status/:field", func(w http.ResponseWriter, r *http.Request, params httprouter.Params) {
		snap := s.source.Snapshot()
		var value interface{}
		switch params.ByName("field") {
		case "state":
			value = snap.State
		case "blocks":
			value = snap.Blocks
		case "misses":
			value = snap.Misses
		case "bytes":
			value = snap.BytesWritten
		default:
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "text/plain")
		fmt.Fprintf(w, "%v\n", value)
	})
	return handler
}

// Run serves until ctx is done.
func (s *Server) Run(ctx context.Context) error {
	go func() {
		<-ctx.Done()
		s.srv.Shutdown(context.Background())
	}()

	err := s.srv.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}
