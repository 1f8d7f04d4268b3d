package cmd

import (
	"fmt"
	"os"

	homedir "github.com/mitchellh/go-homedir"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	// VERSION is set during build
	VERSION string
)

var (
	cfgFile string
	outFile string
	verbose bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "zipcat ARCHIVE [NAME [LENGTH]]",
	Short: "List and extract entries of ZIP archives, local or remote",
	Long: `zipcat reads ZIP archives without ever writing to them. The archive may be
a local file, an s3://bucket/key object or an http(s):// URL; remote archives
are read with ranged requests, so listing one entry does not download the
whole object.

With only an archive, zipcat lists every entry. With an entry name it
extracts that entry into a local file named after it. With a trailing
length N it extracts only the first N bytes of the entry.

example:

	zipcat archive.zip
	zipcat archive.zip docs/plan.txt
	zipcat s3://myBucket/builds/app.zip app/VERSION 64
	zipcat https://example.com/big.zip README.md -o readme.txt`,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          run,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute(version string) {
	VERSION = version
	rootCmd.Version = version

	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.zipcat.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.Flags().StringVarP(&outFile, "output", "o", "", "file to extract into (default is the entry's base name)")
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if cfgFile != "" {
		// Use config file from the flag.
		viper.SetConfigFile(cfgFile)
	} else {
		// Find home directory.
		home, err := homedir.Dir()
		if err != nil {
			fmt.Println(err)
			os.Exit(1)
		}

		// Search config in home directory with name ".zipcat" (without extension).
		viper.AddConfigPath(home)
		viper.SetConfigName(".zipcat")
	}

	viper.SetDefault("verbose", false)
	viper.AutomaticEnv() // read in environment variables that match

	// If a config file is found, read it in.
	if err := viper.ReadInConfig(); err == nil {
		fmt.Println("Using config file:", viper.ConfigFileUsed())
	}

	if verbose || viper.GetBool("verbose") {
		log.SetLevel(log.DebugLevel)
	}
}
