package middleware

import (
	"fmt"
	"net/http"
	"time"
)

// CORS echoes the request origin back when it is on the allow-list. The report
// API is read-only, so only GET and OPTIONS are advertised.
func CORS(origins []string) func(http.Handler) http.Handler {
	allowed := make(map[string]struct{}, len(origins))
	for _, o := range origins {
		allowed[o] = struct{}{}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")

			if _, ok := allowed[origin]; ok {
				w.Header().Set("Access-Control-Allow-Origin", origin)
				w.Header().Set("Vary", "Origin")
				w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
				w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
			}

			w.Header().Set("Access-Control-Expose-Headers", "Server-Timing, Cache-Control")

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// ServerTiming reports the handler duration in a Server-Timing header. The header
// is set before the first write, so it only covers time spent until then.
func ServerTiming(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tw := &timingWriter{ResponseWriter: w, start: time.Now()}
		next.ServeHTTP(tw, r)
		if !tw.wrote {
			tw.setHeader()
		}
	})
}

type timingWriter struct {
	http.ResponseWriter
	start time.Time
	wrote bool
}

func (tw *timingWriter) setHeader() {
	ms := float64(time.Since(tw.start).Microseconds()) / 1000
	tw.Header().Set("Server-Timing", fmt.Sprintf("app;dur=%.1f", ms))
}

func (tw *timingWriter) WriteHeader(code int) {
	if !tw.wrote {
		tw.wrote = true
		tw.setHeader()
	}
	tw.ResponseWriter.WriteHeader(code)
}

func (tw *timingWriter) Write(b []byte) (int, error) {
	if !tw.wrote {
		tw.WriteHeader(http.StatusOK)
	}
	return tw.ResponseWriter.Write(b)
}
