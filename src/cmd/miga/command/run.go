package command

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/misaka19683/miga/src/config"
	"github.com/misaka19683/miga/src/miga"
	vers "github.com/misaka19683/miga/src/version"
)

var (
	conf    *config.Config
	datadir *string
	version *bool
)

func init() {
	conf = config.NewDefaultConfig()

	cobra.OnInitialize(initConfig)

	// Base datadir
	datadir = rootCmd.PersistentFlags().StringP("datadir", "d", conf.DataDir, "Base data directory")

	// Retrieval
	rootCmd.PersistentFlags().StringP("output", "o", conf.Output, "Output file path for the retrieved content")
	rootCmd.PersistentFlags().BoolP("verbose", "v", conf.Verbose, "Enable verbose output")

	// Sharing
	rootCmd.PersistentFlags().Bool("share", conf.Share, "Re-publish the retrieved content into the DHT")
	rootCmd.PersistentFlags().Bool("serve", conf.Serve, "Serve the retrieved content over HTTP")
	rootCmd.PersistentFlags().String("description", conf.Description, "Description of the content being shared")
	rootCmd.PersistentFlags().String("share-dir", conf.ShareDir, "Directory to store shared content")

	// Network
	rootCmd.PersistentFlags().Int("port", conf.DHTPort, "UDP port to listen on for DHT connections")
	rootCmd.PersistentFlags().Int("http-port", conf.HTTPPort, "Port of the HTTP sharing service")

	// Storage
	rootCmd.PersistentFlags().Bool("store", conf.Store, "Use badgerDB instead of in-mem record store")
	rootCmd.PersistentFlags().String("db", conf.DatabaseDir, "Database directory")

	// Logging
	rootCmd.PersistentFlags().String("log", conf.LogLevel, "Log level (debug, info, warn, error, fatal, panic)")
	rootCmd.PersistentFlags().String("log-file", conf.LogFile, "Duplicate log output to this file")

	// Version
	version = rootCmd.PersistentFlags().Bool("version", false, "Show version and exit")
}

func initConfig() {
	viper.AddConfigPath(*datadir)
	viper.SetConfigName("miga")

	viper.BindPFlags(rootCmd.PersistentFlags())

	if err := viper.ReadInConfig(); err != nil {
		conf.Logger().Debug(err, ". Taking cli or default.")
	}

	if err := viper.Unmarshal(conf); err != nil {
		conf.Logger().Warn(err, ". Taking cli or default.")
	}
}

var rootCmd = &cobra.Command{
	Use:   "miga <cid>",
	Short: "Fetch content-addressed data from a DHT overlay",
	Long: `Fetch content-addressed data from a DHT overlay.

miga joins the overlay, looks a CID up, persists the result locally, and can
re-expose it by publishing it back into the DHT (--share) or by serving it
over HTTP (--serve).`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if *version {
			fmt.Println(vers.Version)
			return nil
		}

		if len(args) < 1 {
			return fmt.Errorf("a content identifier is required")
		}
		conf.CID = args[0]

		if datadir != nil && *datadir != conf.DataDir {
			conf.SetDataDir(*datadir)
		}

		conf.Logger().WithFields(logrus.Fields{
			"cid":       conf.CID,
			"output":    conf.Output,
			"exposure":  conf.ExposureMode().String(),
			"port":      conf.DHTPort,
			"http-port": conf.HTTPPort,
			"share-dir": conf.ShareDir,
			"store":     conf.Store,
			"log":       conf.LogLevel,
		}).Debug("RUN")

		engine := miga.NewMiga(conf)

		if err := engine.Init(); err != nil {
			return err
		}

		return engine.Run()
	},
	SilenceUsage: true,
}

// Execute runs the root command and exits non-zero on a fatal error.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)

		os.Exit(1)
	}
}
