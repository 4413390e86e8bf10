// Package api exposes the REST control surface and a supplemental
// WebSocket stats feed over the Scheduler. Grounded on ipcaster's
// original api/Server.hpp, using the net/http + gorilla/mux idiom with
// explicit read/write timeouts on the server.
package api

import (
	"net/http"
	"time"

	"github.com/adolfomarver/ipcaster/egress"
	"github.com/adolfomarver/ipcaster/scheduler"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// Server is the REST API listener managing the stream collection.
type Server struct {
	addr    string
	sched   *scheduler.Scheduler
	muxer   *egress.Muxer
	log     *zap.Logger
	httpSrv *http.Server
}

// NewServer creates a Server that exposes sched's streams over addr
// (e.g. ":8080"). muxer supplies the bandwidth/burst metrics served by
// the WebSocket stats feed.
func NewServer(addr string, sched *scheduler.Scheduler, muxer *egress.Muxer, log *zap.Logger) *Server {
	s := &Server{addr: addr, sched: sched, muxer: muxer, log: log}

	router := mux.NewRouter()
	router.HandleFunc("/streams", s.handleList).Methods(http.MethodGet)
	router.HandleFunc("/streams", s.handleCreate).Methods(http.MethodPost)
	router.HandleFunc("/streams/{id}", s.handleDelete).Methods(http.MethodDelete)
	router.HandleFunc("/streams/ws", s.handleStats)

	s.httpSrv = &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	return s
}

// ListenAndServe blocks serving the REST API until Close is called,
// at which point it returns http.ErrServerClosed.
func (s *Server) ListenAndServe() error {
	s.log.Info("REST API server listening", zap.String("addr", s.addr))
	return s.httpSrv.ListenAndServe()
}

// Close shuts the HTTP server down.
func (s *Server) Close() error {
	return s.httpSrv.Close()
}
