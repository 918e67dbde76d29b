package telraam

import (
	"log"
	"time"
)

// LogRequest logs an API request being made.
func LogRequest(method, url string, params map[string]interface{}) {
	if len(params) > 0 {
		log.Printf("[telraam] %s %s params=%v", method, url, params)
	} else {
		log.Printf("[telraam] %s %s", method, url)
	}
}

// LogResponse logs an API response received.
func LogResponse(statusCode int, duration time.Duration) {
	log.Printf("[telraam] response status=%d duration=%dms",
		statusCode, duration.Milliseconds())
}

// LogRetry logs a retried request.
func LogRetry(attempt int, reason string, wait time.Duration) {
	log.Printf("[telraam] attempt %d failed (%s), retrying in %dms", attempt, reason, wait.Milliseconds())
}

// LogError logs an error from an API operation.
func LogError(operation string, err error) {
	log.Printf("[telraam] %s error: %v", operation, err)
}

// LogTransform logs transformation of data.
func LogTransform(inputCount, outputCount int, duration time.Duration) {
	log.Printf("[telraam] transformed %d -> %d records in %dms",
		inputCount, outputCount, duration.Milliseconds())
}
