package node

import (
	"testing"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/misaka19683/miga/src/common"
)

// Config holds the parameters of the retrieval loop.
type Config struct {
	// RetryInterval is the fixed delay between lookup attempts after a
	// failure. There is no backoff growth and no attempt cap.
	RetryInterval time.Duration

	// KeepAliveInterval is the wake interval of the idle loop that keeps the
	// node reachable once sharing is active.
	KeepAliveInterval time.Duration

	// Verbose enables logging of engine events that the loop ignores.
	Verbose bool

	// Output is an optional explicit output path for the retrieved content.
	Output string

	// ShareDir is where synthesized filenames are placed when sharing is
	// enabled.
	ShareDir string

	// Description is attached to the exposure registration, when present.
	Description string

	// RePublish re-publishes the retrieved record into the DHT once it has
	// been persisted.
	RePublish bool

	Logger *logrus.Entry
}

// NewConfig ...
func NewConfig(
	retryInterval time.Duration,
	keepAliveInterval time.Duration,
	logger *logrus.Entry,
) *Config {
	return &Config{
		RetryInterval:     retryInterval,
		KeepAliveInterval: keepAliveInterval,
		Logger:            logger,
	}
}

// DefaultConfig returns the default retrieval configuration.
func DefaultConfig() *Config {
	logger := logrus.New()
	logger.Level = logrus.DebugLevel

	return &Config{
		RetryInterval:     5 * time.Second,
		KeepAliveInterval: 1 * time.Hour,
		ShareDir:          "./shared",
		Logger:            logger.WithField("prefix", "node"),
	}
}

// TestConfig returns a config with a test logger and a short retry interval.
func TestConfig(t *testing.T) *Config {
	config := DefaultConfig()
	config.RetryInterval = 50 * time.Millisecond
	config.KeepAliveInterval = 50 * time.Millisecond
	config.Logger = common.NewTestEntry(t)
	return config
}
