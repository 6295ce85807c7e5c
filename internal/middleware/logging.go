// internal/middleware/logging.go

package middleware

import (
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
)

// statusRecorder captures the response code written by the wrapped handler.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (rec *statusRecorder) WriteHeader(code int) {
	rec.status = code
	rec.ResponseWriter.WriteHeader(code)
}

// LogMiddleware logs every HTTP request with its method, path, response
// status, and duration.
func LogMiddleware(logger *logrus.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

			next.ServeHTTP(rec, r)

			logger.WithFields(logrus.Fields{
				"method":   r.Method,
				"path":     r.URL.Path,
				"status":   rec.status,
				"duration": time.Since(start),
				"remote":   r.RemoteAddr,
			}).Info("HTTP request")
		})
	}
}

// LogSeatConnect records a seat's WebSocket joining its game.
func LogSeatConnect(logger *logrus.Logger, gameID string, seat int, remoteAddr string, reconnect bool) {
	logger.WithFields(logrus.Fields{
		"game":      gameID,
		"seat":      seat,
		"remote":    remoteAddr,
		"reconnect": reconnect,
	}).Info("Seat connected")
}

// LogSeatDisconnect records a seat's WebSocket leaving its game.
func LogSeatDisconnect(logger *logrus.Logger, gameID string, seat int) {
	logger.WithFields(logrus.Fields{
		"game": gameID,
		"seat": seat,
	}).Info("Seat disconnected")
}
