package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"net/http"
	"strconv"
	"time"

	"github.com/julienschmidt/httprouter"
	"go.uber.org/zap"

	"github.com/sxyafiq/snowflake/v2"
)

// decoratedHandle is an httprouter.Handle that gets a request-scoped logger
// and returns a status with an optional error. Handlers that succeed write
// their own body; otherwise wrap writes a JSON error body for the status.
type decoratedHandle func(http.ResponseWriter, *http.Request, httprouter.Params, *zap.Logger) (int, error)

type errorBody struct {
	Status  int    `json:"status"`
	Message string `json:"message"`
	Error   string `json:"error,omitempty"`
}

func (s *Server) wrap(fn decoratedHandle) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		logger := s.logger.With(
			zap.Int64("request_id", rand.Int63()),
			zap.String("method", r.Method),
			zap.Stringer("url", r.URL),
		)
		logger.Debug("request received")

		wrapped := &statusWriter{ResponseWriter: w}
		status, err := fn(wrapped, r, ps, logger)
		logger.Debug("request processed", zap.Int("status", status))

		if err != nil {
			logger := logger.With(zap.Error(err), zap.Int("status", status))
			switch {
			case status >= 500:
				logger.Error("request failed")
			case status >= 400:
				logger.Warn("request rejected")
			default:
				logger.Info("request returned an error")
			}
		}

		if wrapped.written {
			if status != wrapped.status {
				logger.Error("handler status does not match written status",
					zap.Int("status", status), zap.Int("written", wrapped.status))
			}
			return
		}

		body := errorBody{Status: status, Message: http.StatusText(status)}
		if s.opts.Debug && err != nil {
			body.Error = err.Error()
		}
		writeJSON(w, status, body)
	}
}

type statusWriter struct {
	http.ResponseWriter
	written bool
	status  int
}

func (w *statusWriter) WriteHeader(status int) {
	if !w.written {
		w.status = status
		w.written = true
	}
	w.ResponseWriter.WriteHeader(status)
}

func (w *statusWriter) Write(b []byte) (int, error) {
	if !w.written {
		w.status = http.StatusOK
		w.written = true
	}
	return w.ResponseWriter.Write(b)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// format reads ?format= and checks that it names a known encoding.
func format(r *http.Request) (string, error) {
	f := r.URL.Query().Get("format")
	if f == "" {
		return "decimal", nil
	}
	for _, enc := range snowflake.Encodings {
		if enc == f {
			return f, nil
		}
	}
	return "", fmt.Errorf("%w: %q", snowflake.ErrUnknownEncoding, f)
}

// GET /v1/id
func (s *Server) handleID(w http.ResponseWriter, r *http.Request, _ httprouter.Params, _ *zap.Logger) (int, error) {
	enc, err := format(r)
	if err != nil {
		return http.StatusBadRequest, err
	}
	id, err := s.gen.NextID(r.Context())
	s.observe(err)
	if err != nil {
		return statusOf(err), err
	}
	writeJSON(w, http.StatusOK, struct {
		ID snowflake.IDWithFormat `json:"id"`
	}{snowflake.IDWithFormat{ID: id, Format: enc}})
	return http.StatusOK, nil
}

// GET /v1/ids?count=N
func (s *Server) handleIDs(w http.ResponseWriter, r *http.Request, _ httprouter.Params, logger *zap.Logger) (int, error) {
	enc, err := format(r)
	if err != nil {
		return http.StatusBadRequest, err
	}
	count := 1
	if c := r.URL.Query().Get("count"); c != "" {
		count, err = strconv.Atoi(c)
		if err != nil {
			return http.StatusBadRequest, fmt.Errorf("count: %w", err)
		}
	}
	if count < 1 || count > s.opts.MaxBatch {
		return http.StatusBadRequest, fmt.Errorf("count must be between 1 and %d, got %d", s.opts.MaxBatch, count)
	}

	ids, err := s.gen.NextIDBulk(r.Context(), count)
	s.observe(err)
	if err != nil {
		logger.Warn("bulk generation stopped early", zap.Int("generated", len(ids)), zap.Int("requested", count))
		return statusOf(err), err
	}

	out := make([]snowflake.IDWithFormat, len(ids))
	for i, id := range ids {
		out[i] = snowflake.IDWithFormat{ID: id, Format: enc}
	}
	writeJSON(w, http.StatusOK, struct {
		IDs []snowflake.IDWithFormat `json:"ids"`
	}{out})
	return http.StatusOK, nil
}

type inspectBody struct {
	ID              snowflake.ID      `json:"id"`
	TimestampOffset uint64            `json:"timestamp_offset"`
	MachineID       uint64            `json:"machine_id"`
	Sequence        uint64            `json:"sequence"`
	Time            time.Time         `json:"time"`
	Encodings       map[string]string `json:"encodings"`
}

// GET /v1/ids/:id
//
// The path segment is parsed in ?format= (decimal by default). The time is
// computed against this server's epoch.
func (s *Server) handleInspect(w http.ResponseWriter, r *http.Request, ps httprouter.Params, _ *zap.Logger) (int, error) {
	enc, err := format(r)
	if err != nil {
		return http.StatusBadRequest, err
	}
	id, err := snowflake.Decode(ps.ByName("id"), enc)
	if err != nil {
		return http.StatusBadRequest, err
	}

	ts, machine, seq := id.Components()
	body := inspectBody{
		ID:              id,
		TimestampOffset: ts,
		MachineID:       machine,
		Sequence:        seq,
		Time:            id.Time(s.gen.Epoch()).UTC(),
		Encodings:       make(map[string]string, len(snowflake.Encodings)),
	}
	for _, e := range snowflake.Encodings {
		v, err := id.Encode(e)
		if err != nil {
			return http.StatusInternalServerError, err
		}
		body.Encodings[e] = v
	}
	writeJSON(w, http.StatusOK, body)
	return http.StatusOK, nil
}

// GET /health
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request, _ httprouter.Params) {
	if s.failing.Load() {
		body := map[string]string{"status": "failing"}
		if msg, ok := s.lastErr.Load().(string); ok {
			body["error"] = msg
		}
		writeJSON(w, http.StatusServiceUnavailable, body)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

var errNotFound = errors.New("no such route")

func (s *Server) notFound() http.Handler {
	h := s.wrap(func(http.ResponseWriter, *http.Request, httprouter.Params, *zap.Logger) (int, error) {
		return http.StatusNotFound, errNotFound
	})
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { h(w, r, nil) })
}
