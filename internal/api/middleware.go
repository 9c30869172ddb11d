package api

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/fastprodman/gamewallet/internal/services/ledger"
	"github.com/fastprodman/gamewallet/internal/signature"
	"github.com/google/uuid"
)

const requestIDHeader = "X-Request-ID"

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

func (s *statusRecorder) Unwrap() http.ResponseWriter {
	return s.ResponseWriter
}

// Hijack lets websocket upgrades pass through the logger.
func (s *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hj, ok := s.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("response writer does not support hijacking")
	}

	s.status = http.StatusSwitchingProtocols

	return hj.Hijack()
}

// requestLogger tags each request with an id (kept when the caller sent
// one) and logs its outcome.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}

		w.Header().Set(requestIDHeader, id)

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()

		next.ServeHTTP(rec, r)

		slog.InfoContext(r.Context(), "http request",
			"request_id", id,
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration", time.Since(start))
	})
}

// verifySignature authenticates the raw body before any decoding and
// hands the same bytes on to the next handler.
func verifySignature(v *signature.Verifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
			_ = r.Body.Close()
			if err != nil {
				writeError(w, r, fmt.Errorf("read body: %w: %w", ledger.ErrInvalidRequest, err))
				return
			}

			err = v.Verify(raw, r.Header.Get(signature.SignatureHeader), r.Header.Get(signature.APIKeyHeader))
			if err != nil {
				writeError(w, r, err)
				return
			}

			r.Body = io.NopCloser(bytes.NewReader(raw))

			next.ServeHTTP(w, r)
		})
	}
}
