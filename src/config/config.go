package config

import (
	"os"
	"os/user"
	"path/filepath"
	"runtime"
	"time"

	"github.com/rifflock/lfshook"
	"github.com/sirupsen/logrus"
	prefixed "github.com/x-cray/logrus-prefixed-formatter"
)

// Default filenames.
const (
	// DefaultBadgerFile is the default name of the folder containing the
	// Badger database used for the persistent DHT record store.
	DefaultBadgerFile = "badger_db"
)

// Default configuration values.
const (
	DefaultLogLevel          = "info"
	DefaultDHTPort           = 4001
	DefaultHTTPPort          = 8080
	DefaultShareDir          = "./shared"
	DefaultQueryTimeout      = 60 * time.Second
	DefaultRetryInterval     = 5 * time.Second
	DefaultKeepAliveInterval = 1 * time.Hour
)

// ExposureMode determines how retrieved content is re-exposed to other
// participants once it has been persisted locally.
type ExposureMode int

const (
	// ExposureNone exits after the content is persisted.
	ExposureNone ExposureMode = iota

	// ExposureRePublish puts the retrieved record back into the DHT and keeps
	// the node dialable.
	ExposureRePublish

	// ExposureHTTPServe makes the retrieved file downloadable over HTTP and
	// keeps the server reachable.
	ExposureHTTPServe
)

// String returns the string representation of an ExposureMode.
func (m ExposureMode) String() string {
	switch m {
	case ExposureNone:
		return "None"
	case ExposureRePublish:
		return "RePublish"
	case ExposureHTTPServe:
		return "HttpServe"
	default:
		return "Unknown"
	}
}

// Config contains all the configuration properties of a miga node.
type Config struct {
	// CID is the content identifier of the content to fetch. It is the only
	// required parameter.
	CID string `mapstructure:"cid"`

	// DataDir is the top-level directory containing miga data.
	DataDir string `mapstructure:"datadir"`

	// LogLevel determines the chattiness of the log output.
	LogLevel string `mapstructure:"log"`

	// LogFile, when set, duplicates log output to the given file.
	LogFile string `mapstructure:"log-file"`

	// Output is an optional explicit path for the retrieved content. When
	// empty, a filename is synthesized from the CID.
	Output string `mapstructure:"output"`

	// Verbose enables logging of engine events that the retrieval loop would
	// otherwise silently ignore.
	Verbose bool `mapstructure:"verbose"`

	// Share enables re-publishing the retrieved record into the DHT.
	Share bool `mapstructure:"share"`

	// Serve enables the HTTP exposure surface.
	Serve bool `mapstructure:"serve"`

	// DHTPort is the UDP port the DHT engine listens on.
	DHTPort int `mapstructure:"port"`

	// HTTPPort is the port of the HTTP exposure surface.
	HTTPPort int `mapstructure:"http-port"`

	// Description is an optional human-readable description stored alongside
	// shared content.
	Description string `mapstructure:"description"`

	// ShareDir is the directory where shared content is stored and served
	// from. It is created recursively when sharing is enabled.
	ShareDir string `mapstructure:"share-dir"`

	// Store activates the persistent badger record store instead of the
	// in-memory one.
	Store bool `mapstructure:"store"`

	// DatabaseDir is the directory containing the badger database files.
	DatabaseDir string `mapstructure:"db"`

	// QueryTimeout bounds a single DHT query round.
	QueryTimeout time.Duration `mapstructure:"query-timeout"`

	// RetryInterval is the fixed delay between lookup attempts after a failed
	// query. Retries are unbounded.
	RetryInterval time.Duration `mapstructure:"retry-interval"`

	// KeepAliveInterval is the wake interval of the idle loop that keeps the
	// node reachable while sharing is active.
	KeepAliveInterval time.Duration `mapstructure:"keep-alive"`

	logger *logrus.Logger
}

// NewDefaultConfig returns a config object with default values.
func NewDefaultConfig() *Config {
	return &Config{
		DataDir:           DefaultDataDir(),
		LogLevel:          DefaultLogLevel,
		DHTPort:           DefaultDHTPort,
		HTTPPort:          DefaultHTTPPort,
		ShareDir:          DefaultShareDir,
		DatabaseDir:       DefaultDatabaseDir(),
		QueryTimeout:      DefaultQueryTimeout,
		RetryInterval:     DefaultRetryInterval,
		KeepAliveInterval: DefaultKeepAliveInterval,
	}
}

// ExposureMode derives the exposure mode from the Share and Serve flags. When
// both are set, the HTTP surface wins because it subsumes keeping the node
// alive, and the record is still re-published.
func (c *Config) ExposureMode() ExposureMode {
	switch {
	case c.Serve:
		return ExposureHTTPServe
	case c.Share:
		return ExposureRePublish
	default:
		return ExposureNone
	}
}

// Sharing returns true when any exposure mode is active, in which case the
// process parks indefinitely after retrieval instead of exiting.
func (c *Config) Sharing() bool {
	return c.Share || c.Serve
}

// SetDataDir sets the top-level miga directory, and updates the database
// directory if it is currently set to the default value. If the database
// directory is not currently the default, the user has explicitly set it to
// something else, so avoid changing it again here.
func (c *Config) SetDataDir(dataDir string) {
	c.DataDir = dataDir
	if c.DatabaseDir == DefaultDatabaseDir() {
		c.DatabaseDir = filepath.Join(dataDir, DefaultBadgerFile)
	}
}

// Logger returns a formatted logrus Entry with prefix set to "miga". When
// LogFile is set, log output is duplicated to that file through an lfshook.
func (c *Config) Logger() *logrus.Entry {
	if c.logger == nil {
		c.logger = logrus.New()
		c.logger.Level = LogLevel(c.LogLevel)
		c.logger.Formatter = new(prefixed.TextFormatter)

		if c.LogFile != "" {
			if f, err := os.OpenFile(c.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666); err != nil {
				c.logger.Warnf("Failed to open %s, using stderr only", c.LogFile)
			} else {
				f.Close()
				pathMap := lfshook.PathMap{}
				for _, lvl := range logrus.AllLevels {
					pathMap[lvl] = c.LogFile
				}
				c.logger.Hooks.Add(lfshook.NewHook(pathMap, &logrus.TextFormatter{}))
			}
		}
	}
	return c.logger.WithField("prefix", "miga")
}

// DefaultDatabaseDir returns the default path for the badger database files.
func DefaultDatabaseDir() string {
	return filepath.Join(DefaultDataDir(), DefaultBadgerFile)
}

// DefaultDataDir returns the default directory name for top-level miga data
// based on the underlying OS, attempting to respect conventions.
func DefaultDataDir() string {
	home := HomeDir()
	if home != "" {
		if runtime.GOOS == "darwin" {
			return filepath.Join(home, ".Miga")
		} else if runtime.GOOS == "windows" {
			return filepath.Join(home, "AppData", "Roaming", "Miga")
		} else {
			return filepath.Join(home, ".miga")
		}
	}
	// As we cannot guess a stable location, return empty and handle later
	return ""
}

// HomeDir returns the user's home directory.
func HomeDir() string {
	if home := os.Getenv("HOME"); home != "" {
		return home
	}
	if usr, err := user.Current(); err == nil {
		return usr.HomeDir
	}
	return ""
}

// LogLevel parses a string into a logrus log level.
func LogLevel(l string) logrus.Level {
	switch l {
	case "debug":
		return logrus.DebugLevel
	case "info":
		return logrus.InfoLevel
	case "warn":
		return logrus.WarnLevel
	case "error":
		return logrus.ErrorLevel
	case "fatal":
		return logrus.FatalLevel
	case "panic":
		return logrus.PanicLevel
	default:
		return logrus.InfoLevel
	}
}
