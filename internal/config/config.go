package config

import (
	"encoding/json"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	ListenAddr       string   `json:"listen_addr"`
	DatabaseDSN      string   `json:"database_dsn"`
	DASEndpoint      string   `json:"das_endpoint"`
	SolanaWSEndpoint string   `json:"solana_ws_endpoint"`
	CollectionMint   string   `json:"collection_mint"`
	AllowedOrigins   []string `json:"allowed_origins"`
	LogLevel         string   `json:"log_level"`
	LogFormat        string   `json:"log_format"`
}

// LoadConfig reads the JSON config file and overlays environment
// variables. A .env file in the working directory is honored; secrets like
// the database DSN and indexer endpoint belong there, not in the file.
func LoadConfig(filePath string) (*Config, error) {
	_ = godotenv.Load()

	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, err
	}

	var config Config
	if err := json.Unmarshal(data, &config); err != nil {
		return nil, err
	}

	if v := os.Getenv("LISTEN_ADDR"); v != "" {
		config.ListenAddr = v
	}
	if v := os.Getenv("DATABASE_DSN"); v != "" {
		config.DatabaseDSN = v
	}
	if v := os.Getenv("DAS_ENDPOINT"); v != "" {
		config.DASEndpoint = v
	}
	if v := os.Getenv("SOLANA_WS_ENDPOINT"); v != "" {
		config.SolanaWSEndpoint = v
	}
	if v := os.Getenv("COLLECTION_MINT"); v != "" {
		config.CollectionMint = v
	}
	if v := os.Getenv("ALLOWED_ORIGINS"); v != "" {
		config.AllowedOrigins = strings.Split(v, ",")
	}

	if config.ListenAddr == "" {
		config.ListenAddr = ":8080"
	}
	if config.LogLevel == "" {
		config.LogLevel = "info"
	}

	return &config, nil
}
