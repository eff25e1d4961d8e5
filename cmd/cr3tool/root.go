package main

import (
	"context"
	"errors"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/mitchellh/go-homedir"
	"github.com/paulmatencio/s3c/gLog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/vearutop/cr3"
	"github.com/vearutop/cr3/internal/sink"
)

const (
	levelError = 1 + iota
	levelWarning
	levelInfo
	levelTrace
)

var (
	config   string
	verbose  bool
	loglevel int

	rootCmd = &cobra.Command{
		Use:              "cr3tool",
		Short:            "Canon CR3 JPEG preview and EXIF tool",
		SilenceUsage:     true,
		SilenceErrors:    true,
		TraverseChildren: true,
	}
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&config, "config", "c", "", "full path of the config file, default $HOME/.cr3tool/config.yaml")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().IntVarP(&loglevel, "loglevel", "l", 0, "output level of logs (1: error, 2: warning, 3: info, 4: trace)")
	rootCmd.PersistentFlags().Int("chunk-size", 0, "read size of the JPEG scan in bytes")

	_ = viper.BindPFlag("logging.log_level", rootCmd.PersistentFlags().Lookup("loglevel"))
	_ = viper.BindPFlag("extract.chunk_size", rootCmd.PersistentFlags().Lookup("chunk-size"))

	viper.SetDefault("logging.log_level", levelWarning)
	viper.SetDefault("logging.output", "terminal")
	viper.SetDefault("extract.workers", 1)

	cobra.OnInitialize(initConfig)
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if config != "" {
		viper.SetConfigFile(config)
	} else {
		home, err := homedir.Dir()
		if err != nil {
			log.Fatalln(err)
		}
		viper.AddConfigPath("/etc/cr3tool")
		viper.AddConfigPath(filepath.Join(home, ".cr3tool"))
		viper.AddConfigPath(".")
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
	}

	viper.SetEnvPrefix("cr3tool")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	err := viper.ReadInConfig()
	var notFound viper.ConfigFileNotFoundError
	if err != nil && !errors.As(err, &notFound) {
		log.Printf("Error %v reading config file %s", err, viper.ConfigFileUsed())
	}

	level := viper.GetInt("logging.log_level")
	if verbose {
		level = levelTrace
	}
	initLogging(level, viper.GetString("logging.output"))

	if viper.ConfigFileUsed() != "" && err == nil {
		gLog.Trace.Printf("Using config file: %s", viper.ConfigFileUsed())
	}
	gLog.Trace.Printf("Logging level: %d", level)
}

// initLogging keeps standard output free for JPEG data when logging to the terminal.
func initLogging(level int, output string) {
	if output != "" && !strings.EqualFold(output, "terminal") {
		gLog.InitLog(rootCmd.Name(), level, output)
		return
	}

	stderrFrom := func(threshold int) io.Writer {
		if level >= threshold {
			return os.Stderr
		}
		return io.Discard
	}
	gLog.Init(stderrFrom(levelInfo), stderrFrom(levelWarning), os.Stderr, os.Stderr, stderrFrom(levelTrace), io.Discard)
}

// libraryLogger is the logger handed to the cr3 package.
func libraryLogger() *log.Logger {
	if verbose || viper.GetInt("logging.log_level") >= levelTrace {
		return gLog.Trace
	}
	return gLog.Info
}

func baseOptions(o *cr3.Options) {
	o.Logger = libraryLogger()
	o.ChunkSize = viper.GetInt("extract.chunk_size")
}

func newSink(dest string) (sink.Sink, error) {
	return sink.New(dest, sink.Config{
		Region:       viper.GetString("s3.region"),
		Endpoint:     viper.GetString("s3.endpoint"),
		SkipExisting: viper.GetBool("s3.skip_existing"),
		Logger:       gLog.Info,
	})
}

// commandContext returns the context the command was executed with, or a background
// context when it is invoked directly.
func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
