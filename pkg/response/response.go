package response

import (
	"net/http"
	"time"

	json "github.com/goccy/go-json"
	"go.uber.org/zap"
)

type Response struct {
	Success   bool      `json:"success"`
	Message   string    `json:"message,omitempty"`
	Data      any       `json:"data,omitempty"`
	Error     string    `json:"error,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// JSON sends a JSON response. Success follows the status code.
func JSON(w http.ResponseWriter, statusCode int, data any) {
	write(w, statusCode, Response{
		Success:   statusCode >= 200 && statusCode < 300,
		Data:      data,
		Timestamp: time.Now().UTC(),
	})
}

// Success sends a successful JSON response
func Success(w http.ResponseWriter, data any) {
	JSON(w, http.StatusOK, data)
}

// Accepted sends a 202 for work that was started
func Accepted(w http.ResponseWriter, data any) {
	JSON(w, http.StatusAccepted, data)
}

// Error sends an error JSON response
func Error(w http.ResponseWriter, statusCode int, message string, err error) {
	body := Response{
		Success:   false,
		Message:   message,
		Timestamp: time.Now().UTC(),
	}
	if err != nil {
		body.Error = err.Error()
	}
	write(w, statusCode, body)
}

// InternalServerError sends a 500 internal server error response
func InternalServerError(w http.ResponseWriter, message string, err error) {
	Error(w, http.StatusInternalServerError, message, err)
}

// ServiceUnavailable sends a 503 with the given payload
func ServiceUnavailable(w http.ResponseWriter, message string, data any) {
	write(w, http.StatusServiceUnavailable, Response{
		Success:   false,
		Message:   message,
		Data:      data,
		Timestamp: time.Now().UTC(),
	})
}

func write(w http.ResponseWriter, statusCode int, body Response) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(body); err != nil {
		zap.L().Warn("failed to encode response", zap.Error(err))
	}
}

// LoggingMiddleware logs every request with its status and duration
func LoggingMiddleware(logger *zap.Logger) func(http.Handler) http.Handler {
	logger = logger.Named("http")
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			recorder := &responseRecorder{ResponseWriter: w, statusCode: http.StatusOK}

			next.ServeHTTP(recorder, r)

			logger.Info("request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", recorder.statusCode),
				zap.Duration("duration", time.Since(start)),
			)
		})
	}
}

type responseRecorder struct {
	http.ResponseWriter
	statusCode int
}

func (rec *responseRecorder) WriteHeader(statusCode int) {
	rec.statusCode = statusCode
	rec.ResponseWriter.WriteHeader(statusCode)
}
