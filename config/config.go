package config

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config представляет структуру конфигурации для приложения.
type Config struct {
	Server struct {
		Port         string `mapstructure:"port"`
		Env          string `mapstructure:"env"`
		ReadTimeout  int    `mapstructure:"readTimeout"`
		WriteTimeout int    `mapstructure:"writeTimeout"`
	} `mapstructure:"server"`
	Database struct {
		DSN string `mapstructure:"dsn"`
	} `mapstructure:"database"`
	Redis struct {
		Addr     string `mapstructure:"addr"`
		Password string `mapstructure:"password"`
		DB       int    `mapstructure:"db"`
	} `mapstructure:"redis"`
	Kafka struct {
		Brokers []string `mapstructure:"brokers"`
	} `mapstructure:"kafka"`
	Solana struct {
		RPCURL          string `mapstructure:"rpcUrl"`
		RecipientWallet string `mapstructure:"recipientWallet"`
		TimeoutSeconds  int    `mapstructure:"timeoutSeconds"`
	} `mapstructure:"solana"`
	Pricing struct {
		PriceFeedURL    string  `mapstructure:"priceFeedUrl"`
		AssetID         string  `mapstructure:"assetId"`
		FallbackRateUSD float64 `mapstructure:"fallbackRateUsd"`
		TimeoutSeconds  int     `mapstructure:"timeoutSeconds"`
	} `mapstructure:"pricing"`
}

// LoadConfig загружает конфигурацию из файла или переменных окружения.
func LoadConfig(path string) (*Config, error) {
	if os.Getenv("APP_ENV") != "production" {
		// .env опционален в dev-окружении
		_ = godotenv.Load(path)
	}

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")

	viper.AutomaticEnv() // Чтение переменных окружения

	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		// Файл конфигурации опционален: значения по умолчанию + env
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, err
	}

	return &config, nil
}

// setDefaults задает значения конфигурации по умолчанию.
func setDefaults() {
	viper.SetDefault("server.port", "8080")
	viper.SetDefault("server.env", "development")
	viper.SetDefault("server.readTimeout", 15)
	viper.SetDefault("server.writeTimeout", 15)

	viper.SetDefault("solana.rpcUrl", "https://api.mainnet-beta.solana.com")
	viper.SetDefault("solana.timeoutSeconds", 15)

	viper.SetDefault("pricing.priceFeedUrl", "https://api.coingecko.com/api/v3/simple/price")
	viper.SetDefault("pricing.assetId", "solana")
	viper.SetDefault("pricing.fallbackRateUsd", 100)
	viper.SetDefault("pricing.timeoutSeconds", 10)
}
