package config

import (
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

type AppConfig struct {
	Port              string
	StoreDriver       string // sqlite | mongo
	DBPath            string
	MongoURI          string
	MongoDatabase     string
	MongoCollection   string
	DatasetPath       string
	ModelPath         string
	ModelEndpoint     string
	PredictTimeout    time.Duration
	UnknownCropPolicy string // zero | reject
	LogLevel          string
	LogPretty         bool
	CORSAllowOrigins  []string
}

func Load() AppConfig {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		log.Debug().Err(err).Msg("no .env file loaded")
	}

	get := func(k, def string) string {
		if v := os.Getenv(k); v != "" {
			return v
		}
		return def
	}
	timeout, err := time.ParseDuration(get("PREDICT_TIMEOUT", "5s"))
	if err != nil || timeout <= 0 {
		log.Warn().Str("value", os.Getenv("PREDICT_TIMEOUT")).Msg("bad PREDICT_TIMEOUT, using 5s")
		timeout = 5 * time.Second
	}
	cfg := AppConfig{
		Port:              get("PORT", "8080"),
		StoreDriver:       strings.ToLower(get("STORE_DRIVER", "sqlite")),
		DBPath:            get("DB_PATH", "farmsight.db"),
		MongoURI:          get("MONGODB_CONNECTION_STRING", ""),
		MongoDatabase:     get("MONGODB_DATABASE", "FarmSight"),
		MongoCollection:   get("MONGODB_COLLECTION", "crops"),
		DatasetPath:       get("REFERENCE_DATASET_PATH", "Model/dataset.csv"),
		ModelPath:         get("MODEL_PATH", "Model/model.json"),
		ModelEndpoint:     get("MODEL_ENDPOINT", ""),
		PredictTimeout:    timeout,
		UnknownCropPolicy: strings.ToLower(get("UNKNOWN_CROP_POLICY", "zero")),
		LogLevel:          get("LOG_LEVEL", "info"),
		LogPretty:         get("LOG_PRETTY", "false") == "true",
		CORSAllowOrigins:  splitList(get("CORS_ALLOW_ORIGINS", "*")),
	}
	return cfg
}

// Log writes the config with credentials masked.
func (c AppConfig) Log() {
	log.Info().
		Str("port", c.Port).
		Str("store_driver", c.StoreDriver).
		Str("db_path", c.DBPath).
		Str("mongo_uri", MaskURI(c.MongoURI)).
		Str("mongo_database", c.MongoDatabase).
		Str("mongo_collection", c.MongoCollection).
		Str("dataset_path", c.DatasetPath).
		Str("model_path", c.ModelPath).
		Str("model_endpoint", MaskURI(c.ModelEndpoint)).
		Dur("predict_timeout", c.PredictTimeout).
		Str("unknown_crop_policy", c.UnknownCropPolicy).
		Strs("cors_allow_origins", c.CORSAllowOrigins).
		Msg("config loaded")
}

// MaskURI hides the password of a connection string.
func MaskURI(s string) string {
	if s == "" {
		return ""
	}
	u, err := url.Parse(s)
	if err != nil {
		return "***"
	}
	if u.User != nil {
		if _, ok := u.User.Password(); ok {
			u.User = url.UserPassword(u.User.Username(), "xxxxx")
		}
	}
	return u.String()
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
