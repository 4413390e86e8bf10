package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/adolfomarver/ipcaster/scheduler"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// endpoint is the REST wire shape of a stream's UDP destination.
type endpoint struct {
	IP   string `json:"ip"`
	Port int    `json:"port"`
}

// createStreamRequest is the body of POST /streams.
type createStreamRequest struct {
	Source   string   `json:"source"`
	Endpoint endpoint `json:"endpoint"`
}

// streamRecord is the JSON representation of one active stream,
// returned by GET /streams and POST /streams.
type streamRecord struct {
	ID       uint64   `json:"id"`
	Source   string   `json:"source"`
	Endpoint endpoint `json:"endpoint"`
}

func toRecord(h *scheduler.Handle) streamRecord {
	return streamRecord{
		ID:     h.ID,
		Source: h.Path,
		Endpoint: endpoint{
			IP:   h.TargetIP,
			Port: int(h.TargetPort),
		},
	}
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	handles := s.sched.ListStreams()
	records := make([]streamRecord, 0, len(handles))
	for _, h := range handles {
		records = append(records, toRecord(h))
	}
	writeJSON(w, http.StatusOK, map[string]any{"streams": records})
}

func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req createStreamRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if req.Source == "" || req.Endpoint.IP == "" || req.Endpoint.Port <= 0 {
		writeError(w, http.StatusBadRequest, "source and endpoint.ip/endpoint.port are required")
		return
	}

	h, err := s.sched.CreateStream(req.Source, req.Endpoint.IP, uint16(req.Endpoint.Port))
	if err != nil {
		s.log.Error("api: create stream failed", zap.String("source", req.Source), zap.Error(err))
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, toRecord(h))
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	idStr := mux.Vars(r)["id"]
	id, err := strconv.ParseUint(idStr, 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid stream id")
		return
	}

	if err := s.sched.DeleteStream(id); err != nil {
		if _, ok := err.(*scheduler.NotFoundError); ok {
			writeError(w, http.StatusNotFound, err.Error())
			return
		}
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	w.WriteHeader(http.StatusOK)
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

// writeError replies with the {"error":{"code","message"}} shape
// carried over from ipcaster's original api::Response::error.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]any{
		"error": map[string]any{
			"code":    status,
			"message": message,
		},
	})
}
