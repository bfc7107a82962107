package ops

import (
	"fmt"
	"net/http"
	"time"

	"github.com/vituk123/fpl-ai-thinktank4-sub000/pkg/logger"
	"github.com/vituk123/fpl-ai-thinktank4-sub000/pkg/metrics"
)

// MetricsMiddleware times an ops handler, records it under endpoint and
// logs the request at debug level.
func MetricsMiddleware(next http.HandlerFunc, endpoint string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(sw, r)

		took := time.Since(start)
		metrics.RecordHTTPRequest(endpoint, r.Method, sw.status, took)
		logger.Get().Debug(r.Context(), "ops request",
			logger.String("endpoint", endpoint),
			logger.String("method", r.Method),
			logger.Int("status", sw.status),
			logger.Duration("took", took))
	}
}

// statusWriter remembers the status code written by the handler.
type statusWriter struct {
	http.ResponseWriter
	status int
}

func (sw *statusWriter) WriteHeader(code int) {
	sw.status = code
	sw.ResponseWriter.WriteHeader(code)
}

func (sw *statusWriter) Write(b []byte) (int, error) {
	n, err := sw.ResponseWriter.Write(b)
	if err != nil {
		return n, fmt.Errorf("write ops response: %w", err)
	}
	return n, nil
}
