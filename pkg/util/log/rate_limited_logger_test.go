package log

import (
	"testing"

	"github.com/go-kit/log/level"
	"github.com/stretchr/testify/assert"
)

func TestRateLimitedLogger(t *testing.T) {
	logger := NewRateLimitedLogger(10, level.Error(Logger))
	assert.NotNil(t, logger)

	assert.NoError(t, logger.Log("msg", "test"))
	logger.Stop()
}

func TestRateLimitedLoggerDropsExcess(t *testing.T) {
	calls := 0
	counting := countingLogger(func() { calls++ })

	logger := NewRateLimitedLogger(2, counting)
	for i := 0; i < 10; i++ {
		_ = logger.Log("msg", "test")
	}

	assert.LessOrEqual(t, calls, 2)
}

type countingLogger func()

func (f countingLogger) Log(keyvals ...interface{}) error {
	f()
	return nil
}
