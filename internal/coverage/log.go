package coverage

import (
	"log"
	"time"
)

func logStage(stage string, inputCount, outputCount int, duration time.Duration) {
	log.Printf("[coverage] %s: %d -> %d rows in %dms",
		stage, inputCount, outputCount, duration.Milliseconds())
}

func logError(operation string, err error) {
	log.Printf("[coverage] %s error: %v", operation, err)
}
