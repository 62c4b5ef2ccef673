package cmd

import (
	"errors"
	"log"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/spigell/careeros/internal/ai"
	"github.com/spigell/careeros/internal/server"
)

const (
	app = "careeros"
)

type Config struct {
	AI       *AIConfig       `mapstructure:"ai"`
	Roadmap  *RoadmapConfig  `mapstructure:"roadmap"`
	Store    *StoreConfig    `mapstructure:"store"`
	Matching *MatchingConfig `mapstructure:"matching"`
	Server   *server.Config  `mapstructure:"server"`
}

type AIConfig struct {
	Provider          string        `mapstructure:"provider"`
	Model             string        `mapstructure:"model"`
	Temperature       float64       `mapstructure:"temperature"`
	Timeout           time.Duration `mapstructure:"timeout"`
	RequestsPerMinute int           `mapstructure:"requests-per-minute"`
	MaxLogLength      int           `mapstructure:"max-log-length"`
	APIKey            string        `mapstructure:"api-key"`
	APIKeyFile        string        `mapstructure:"api-key-file"`
	Ollama            *OllamaConfig `mapstructure:"ollama"`
	OpenAI            *OpenAIConfig `mapstructure:"openai"`
}

type OllamaConfig struct {
	Host string `mapstructure:"host"`
}

type OpenAIConfig struct {
	BaseURL string `mapstructure:"base-url"`
}

type RoadmapConfig struct {
	MaxRevisions int `mapstructure:"max-revisions"`
	CacheSize    int `mapstructure:"cache-size"`
}

type StoreConfig struct {
	Path string `mapstructure:"path"`
}

type MatchingConfig struct {
	Limit            int      `mapstructure:"limit"`
	MinScore         float64  `mapstructure:"min-score"`
	ExcludeCompanies []string `mapstructure:"exclude-companies"`
	ExcludeFile      string   `mapstructure:"exclude-file"`
}

var (
	// Used for flags.
	cfgFile string

	rootCmd = &cobra.Command{
		Use:          app,
		Short:        "careeros turns a résumé and a target job into a reviewed learning roadmap",
		SilenceUsage: true,
	}
)

// Execute executes the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	if err := viper.BindEnv("ai.api-key-file", "CAREEROS_API_KEY_FILE"); err != nil {
		log.Fatalf("binding CAREEROS_API_KEY_FILE environment variable: %v", err)
	}

	viper.SetEnvPrefix(app)
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()

	setDefaults()

	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "a config file (default is careeros.yaml in current directory)")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "verbose/debug output")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "json format for logging")
	rootCmd.PersistentFlags().String("store", "", "path to the SQLite database")

	viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
	viper.BindPFlag("store.path", rootCmd.PersistentFlags().Lookup("store"))
}

func setDefaults() {
	viper.SetDefault("ai.provider", "ollama")
	viper.SetDefault("ai.temperature", ai.DefaultTemperature)
	viper.SetDefault("ai.timeout", ai.DefaultTimeout)
	viper.SetDefault("ai.max-log-length", 200)
	viper.SetDefault("roadmap.max-revisions", 0)
	viper.SetDefault("roadmap.cache-size", 0)
	viper.SetDefault("store.path", app+".db")
	viper.SetDefault("matching.limit", 20)
	viper.SetDefault("server.address", server.DefaultAddress)
	viper.SetDefault("server.read-timeout", server.DefaultReadTimeout)
	viper.SetDefault("server.write-timeout", server.DefaultWriteTimeout)
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigName(app)
		viper.SetConfigType("yaml")
	}

	// Every key has a default, so only an explicit or broken config is fatal.
	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile == "" && errors.As(err, &notFound) {
			return
		}
		log.Fatal(err)
	}
}

func getConfig() (*Config, error) {
	var config *Config
	err := viper.Unmarshal(&config)
	if err != nil {
		return config, err
	}

	if config.AI == nil {
		config.AI = &AIConfig{}
	}
	if config.AI.Ollama == nil {
		config.AI.Ollama = &OllamaConfig{}
	}
	if config.AI.OpenAI == nil {
		config.AI.OpenAI = &OpenAIConfig{}
	}
	if config.Roadmap == nil {
		config.Roadmap = &RoadmapConfig{}
	}
	if config.Store == nil {
		config.Store = &StoreConfig{}
	}
	if config.Matching == nil {
		config.Matching = &MatchingConfig{}
	}
	if config.Server == nil {
		config.Server = &server.Config{}
	}

	return config, nil
}
