package config

import (
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
)

func TestLogLevel(t *testing.T) {
	tests := []struct {
		in       string
		expected logrus.Level
	}{
		{"debug", logrus.DebugLevel},
		{"info", logrus.InfoLevel},
		{"warn", logrus.WarnLevel},
		{"error", logrus.ErrorLevel},
		{"fatal", logrus.FatalLevel},
		{"panic", logrus.PanicLevel},
		{"bogus", logrus.InfoLevel},
		{"", logrus.InfoLevel},
	}

	for _, tt := range tests {
		if got := LogLevel(tt.in); got != tt.expected {
			t.Errorf("LogLevel(%q) = %v, expected %v", tt.in, got, tt.expected)
		}
	}
}

func TestExposureMode(t *testing.T) {
	tests := []struct {
		share    bool
		serve    bool
		expected ExposureMode
	}{
		{false, false, ExposureNone},
		{true, false, ExposureRePublish},
		{false, true, ExposureHTTPServe},
		{true, true, ExposureHTTPServe},
	}

	for _, tt := range tests {
		c := NewDefaultConfig()
		c.Share = tt.share
		c.Serve = tt.serve

		if got := c.ExposureMode(); got != tt.expected {
			t.Errorf("share=%v serve=%v: mode %s, expected %s", tt.share, tt.serve, got, tt.expected)
		}
		if got := c.Sharing(); got != (tt.share || tt.serve) {
			t.Errorf("share=%v serve=%v: Sharing() = %v", tt.share, tt.serve, got)
		}
	}
}

func TestSetDataDir(t *testing.T) {
	c := NewDefaultConfig()
	c.SetDataDir("/tmp/miga-test")

	if c.DataDir != "/tmp/miga-test" {
		t.Fatalf("DataDir is %s, expected /tmp/miga-test", c.DataDir)
	}
	expected := filepath.Join("/tmp/miga-test", DefaultBadgerFile)
	if c.DatabaseDir != expected {
		t.Fatalf("DatabaseDir is %s, expected %s", c.DatabaseDir, expected)
	}
}

func TestSetDataDirKeepsExplicitDatabaseDir(t *testing.T) {
	c := NewDefaultConfig()
	c.DatabaseDir = "/var/lib/miga/db"
	c.SetDataDir("/tmp/miga-test")

	if c.DatabaseDir != "/var/lib/miga/db" {
		t.Fatalf("DatabaseDir is %s, expected the explicit value to survive", c.DatabaseDir)
	}
}

func TestLoggerDuplicatesToFile(t *testing.T) {
	c := NewDefaultConfig()
	c.LogLevel = "debug"
	c.LogFile = filepath.Join(t.TempDir(), "miga.log")

	logger := c.Logger()
	if logger.Logger.Level != logrus.DebugLevel {
		t.Fatalf("level is %v, expected debug", logger.Logger.Level)
	}
	if len(logger.Logger.Hooks[logrus.InfoLevel]) == 0 {
		t.Fatal("expected a file hook to be installed")
	}
}
