// Package httpx содержит общие JSON-хелперы и middleware HTTP API витрины и сервиса заказов.
package httpx

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	log "github.com/sirupsen/logrus"
)

var (
	// ErrEmptyBody — тело запроса пустое.
	ErrEmptyBody = errors.New("request body is empty")
	// ErrBodyTooLarge — тело запроса больше допустимого.
	ErrBodyTooLarge = errors.New("request body exceeds allowed size")
)

// DefaultBodyLimit — предельный размер JSON-тела запроса.
const DefaultBodyLimit = 64 << 10

// WriteJSON пишет payload как JSON с указанным статусом.
func WriteJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

// WriteDetail пишет ошибку в формате {"detail": ...}.
func WriteDetail(w http.ResponseWriter, status int, detail interface{}) {
	WriteJSON(w, status, map[string]interface{}{"detail": detail})
}

// ReadLimitedBody читает тело не длиннее limit байт.
func ReadLimitedBody(r *http.Request, limit int64) ([]byte, error) {
	if r == nil || r.Body == nil {
		return nil, ErrEmptyBody
	}
	if limit <= 0 {
		limit = DefaultBodyLimit
	}
	data, err := io.ReadAll(io.LimitReader(r.Body, limit+1))
	if err != nil {
		return nil, err
	}
	if len(strings.TrimSpace(string(data))) == 0 {
		return nil, ErrEmptyBody
	}
	if int64(len(data)) > limit {
		return nil, ErrBodyTooLarge
	}
	return data, nil
}

// DecodeJSON читает и разбирает тело запроса в out.
func DecodeJSON(r *http.Request, out interface{}) error {
	data, err := ReadLimitedBody(r, DefaultBodyLimit)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, out)
}

// WriteDecodeError отвечает на ошибку DecodeJSON: 413 для слишком большого тела, иначе 422.
func WriteDecodeError(w http.ResponseWriter, err error) {
	if errors.Is(err, ErrBodyTooLarge) {
		WriteDetail(w, http.StatusRequestEntityTooLarge, err.Error())
		return
	}
	WriteDetail(w, http.StatusUnprocessableEntity, "invalid request body: "+err.Error())
}

// RequestLogger логирует каждый запрос с request id из middleware.RequestID.
func RequestLogger(logger *log.Entry) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			entry := logger.WithFields(log.Fields{
				"method":      r.Method,
				"path":        r.URL.Path,
				"status":      ww.Status(),
				"bytes":       ww.BytesWritten(),
				"duration_ms": time.Since(start).Milliseconds(),
			})
			if id := middleware.GetReqID(r.Context()); id != "" {
				entry = entry.WithField("request_id", id)
			}
			if ww.Status() >= http.StatusInternalServerError {
				entry.Warn("http request failed")
				return
			}
			entry.Debug("http request")
		})
	}
}
