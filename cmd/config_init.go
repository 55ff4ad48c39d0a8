package main

import (
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/lead-agent/internal/config"
	"github.com/sells-group/lead-agent/internal/store"
)

var configInitPath string

var configInitCmd = &cobra.Command{
	Use:   "config-init",
	Short: "Write a starter config.yaml",
	RunE: func(cmd *cobra.Command, _ []string) error {
		if _, err := os.Stat(configInitPath); err == nil {
			return eris.Errorf("%s already exists", configInitPath)
		}

		starter := config.Config{
			Store: store.Config{
				Driver:      "sqlite",
				DatabaseURL: "leads.db",
			},
			LLM: config.LLMConfig{
				Provider:      "ollama",
				OllamaBaseURL: "http://localhost:11434",
				OllamaModel:   "llama3.2",
				MaxTokens:     2048,
			},
			Server: config.ServerConfig{Port: 8000},
			Log:    config.LogConfig{Level: "info", Format: "json"},
		}

		data, err := yaml.Marshal(starter)
		if err != nil {
			return eris.Wrap(err, "marshal config")
		}

		if err := os.WriteFile(configInitPath, data, 0o644); err != nil {
			return eris.Wrap(err, "write config")
		}

		zap.L().Info("wrote starter config", zap.String("path", configInitPath))
		return nil
	},
}

func init() {
	configInitCmd.Flags().StringVar(&configInitPath, "out", "config.yaml", "output path")
	rootCmd.AddCommand(configInitCmd)
}
