package types

import (
	"fmt"
	"os"
	"strconv"
)

type Config struct {
	ServerAddr  string
	DatasetPath string

	StoreBackend string // memory or postgres
	StorePath    string
	Postgres     PostgresConfig
	EmbeddingDim int

	Embedding EmbeddingConfig
	LLM       LLMConfig
	Translate TranslationConfig
	Speech    SpeechConfig
	Robot     RobotConfig

	TopK         int
	MinDocLength int
	SplitLength  int
}

type PostgresConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
}

// ConnString returns a libpq style connection string.
func (c PostgresConfig) ConnString() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		c.Host, c.Port, c.User, c.Password, c.DBName)
}

type EmbeddingConfig struct {
	Url   string
	Model string
}

type LLMConfig struct {
	Url       string
	Model     string
	MaxTokens int
}

type TranslationConfig struct {
	Url   string
	Token string
}

type SpeechConfig struct {
	APIKey   string
	Language string
}

type RobotConfig struct {
	Backend string // pepper or log
	IP      string
	Port    int
}

// LoadConfig reads the process environment. Call it after the .env file is loaded.
func LoadConfig() Config {
	return Config{
		ServerAddr:   getEnv("SERVER_ADDR", ":8000"),
		DatasetPath:  getEnv("DATASET_PATH", "./data/unipa_dataset.json"),
		StoreBackend: getEnv("STORE_BACKEND", "memory"),
		StorePath:    getEnv("STORE_PATH", "./output/document_store.json"),
		Postgres: PostgresConfig{
			Host:     getEnv("PG_HOST", "localhost"),
			Port:     getEnvInt("PG_PORT", 5432),
			User:     os.Getenv("PG_USER"),
			Password: os.Getenv("PG_PASS"),
			DBName:   os.Getenv("PG_DB_NAME"),
		},
		EmbeddingDim: getEnvInt("EMBEDDING_DIM", 1024),
		Embedding: EmbeddingConfig{
			Url:   getEnv("OLLAMA_EMBEDDING_URL", "http://localhost:11434/api/embeddings"),
			Model: getEnv("OLLAMA_EMBEDDING_MODEL", "gte-large"),
		},
		LLM: LLMConfig{
			Url:       getEnv("LLM_URL", "http://localhost:11434/api/generate"),
			Model:     getEnv("LLM_MODEL", "zephyr"),
			MaxTokens: getEnvInt("LLM_MAX_TOKENS", 100),
		},
		Translate: TranslationConfig{
			Url:   getEnv("TRANSLATION_URL", "https://api-inference.huggingface.co/models/Helsinki-NLP/opus-mt-en-it"),
			Token: os.Getenv("HF_TOKEN"),
		},
		Speech: SpeechConfig{
			APIKey:   os.Getenv("GOOGLE_API_KEY"),
			Language: getEnv("SPEECH_LANGUAGE", "it-IT"),
		},
		Robot: RobotConfig{
			Backend: getEnv("ROBOT_BACKEND", "pepper"),
			IP:      getEnv("PEPPER_IP", "192.168.1.13"),
			Port:    getEnvInt("PEPPER_PORT", 9559),
		},
		TopK:         getEnvInt("TOP_K", 5),
		MinDocLength: getEnvInt("MIN_DOC_LENGTH", 200),
		SplitLength:  getEnvInt("SPLIT_LENGTH", 2),
	}
}

func getEnv(key, def string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) int {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}
