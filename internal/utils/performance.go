package utils

import (
	"time"

	"github.com/rs/zerolog"
)

const (
	slowOperation = 30 * time.Second
	slowQuery     = 5 * time.Second
)

var now = time.Now

// OperationTimer starts timing a named job step. Call the returned func when
// the step ends.
func OperationTimer(operation string, log zerolog.Logger) func() {
	start := now()
	return func() {
		elapsed := now().Sub(start)
		event := log.Debug()
		if elapsed > slowOperation {
			event = log.Warn()
		}
		event.Str("operation", operation).
			Dur("duration", elapsed).
			Bool("slow", elapsed > slowOperation).
			Msg("Operation completed")
	}
}

// MeasureDBQuery is OperationTimer for repository writes; rows is the count
// the statement touched.
func MeasureDBQuery(queryName string, log zerolog.Logger) func(rows int64) {
	start := now()
	return func(rows int64) {
		elapsed := now().Sub(start)
		event := log.Debug()
		if elapsed > slowQuery {
			event = log.Warn()
		}
		event.Str("query", queryName).
			Dur("duration", elapsed).
			Int64("rows", rows).
			Bool("slow", elapsed > slowQuery).
			Msg("Query completed")
	}
}
