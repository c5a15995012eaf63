package ratelimit

import (
	"strconv"
	"time"
)

func formatInt(v int) string { return strconv.Itoa(v) }

// retryAfterSeconds arredonda para cima: um reset em 2.1s vira "3",
// nunca "2" (senão o cliente volta cedo demais e toma 429 de novo).
func retryAfterSeconds(d time.Duration) string {
	secs := int64(d / time.Second)
	if d%time.Second != 0 {
		secs++
	}
	if secs < 0 {
		secs = 0
	}
	return strconv.FormatInt(secs, 10)
}
