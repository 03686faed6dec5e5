package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/creasty/defaults"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

type Config struct {
	Env            string `default:"dev"`
	ServerPort     string `default:":3000"`
	DatabaseDriver string `default:"postgres"`
	DatabaseDSN    string
	AccessSecret   string
	BaseURL        string `default:"*"`

	MediaBaseURL  string
	MediaFolder   string `default:"directory/media"`
	CloudinaryUrl string

	KafkaBroker   string
	KafkaTopic    string `default:"directory.review"`
	KafkaGroupID  string `default:"directory-notify"`
	KafkaUsername string
	KafkaPassword string

	ListCacheTTL time.Duration `default:"30s"`
	PageSize     int           `default:"10"`

	SMTPHost     string `default:"smtp.gmail.com"`
	SMTPPort     string `default:"587"`
	SMTPUser     string
	SMTPPassword string
	MailFrom     string
	MailFromName string `default:"Directory Back-Office"`

	LogLevel  string `default:"info"`
	LogFormat string `default:"text"`

	AdminEmail    string
	AdminPassword string
}

func LoadConfig() Config {
	if os.Getenv("ENV") != "prod" {
		if err := godotenv.Overload(); err != nil {
			logrus.WithError(err).Debug("env file not loaded")
		}
	}

	cfg := FromEnv(os.Getenv)
	if err := defaults.Set(&cfg); err != nil {
		logrus.WithError(err).Warn("applying config defaults failed")
	}
	return cfg
}

// FromEnv reads every key through lookup. Unset keys stay zero so that
// defaults can fill them.
func FromEnv(lookup func(string) string) Config {
	get := func(key string) string {
		return strings.TrimSpace(lookup(key))
	}

	cfg := Config{
		Env:            get("ENV"),
		ServerPort:     get("SERVER_PORT"),
		DatabaseDriver: strings.ToLower(get("DATABASE_DRIVER")),
		DatabaseDSN:    get("DATABASE_DSN"),
		AccessSecret:   get("ACCESS_SECRET"),
		BaseURL:        get("BASE_URL"),
		MediaBaseURL:   get("MEDIA_BASE_URL"),
		MediaFolder:    get("MEDIA_FOLDER"),
		CloudinaryUrl:  get("CLOUDINARY_URL"),
		KafkaBroker:    get("KAFKA_BROKER"),
		KafkaTopic:     get("KAFKA_TOPIC"),
		KafkaGroupID:   get("KAFKA_GROUP_ID"),
		KafkaUsername:  get("KAFKA_USERNAME"),
		KafkaPassword:  get("KAFKA_PASSWORD"),
		SMTPHost:       get("SMTP_HOST"),
		SMTPPort:       get("SMTP_PORT"),
		SMTPUser:       get("SMTP_USER"),
		SMTPPassword:   get("SMTP_PASSWORD"),
		MailFrom:       get("MAIL_FROM"),
		MailFromName:   get("MAIL_FROM_NAME"),
		LogLevel:       get("LOG_LEVEL"),
		LogFormat:      get("LOG_FORMAT"),
		AdminEmail:     get("ADMIN_EMAIL"),
		AdminPassword:  get("ADMIN_PASSWORD"),
	}

	if v := get("LIST_CACHE_TTL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.ListCacheTTL = d
		} else {
			logrus.WithField("value", v).Warn("invalid LIST_CACHE_TTL, using default")
		}
	}
	if v := get("PAGE_SIZE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.PageSize = n
		} else {
			logrus.WithField("value", v).Warn("invalid PAGE_SIZE, using default")
		}
	}
	return cfg
}

// SetupLogging applies LOG_LEVEL and LOG_FORMAT to the standard logrus logger.
func SetupLogging(cfg Config) {
	if lvl, err := logrus.ParseLevel(cfg.LogLevel); err == nil {
		logrus.SetLevel(lvl)
	}
	if strings.EqualFold(cfg.LogFormat, "json") {
		logrus.SetFormatter(&logrus.JSONFormatter{})
		return
	}
	logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
}
