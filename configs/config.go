package config

import (
	"fmt"
	"os"
	"strings"
)

type Twitter struct {
	APIKey            string
	APISecretKey      string
	AccessToken       string
	AccessTokenSecret string
	BearerToken       string
	WebhookEnvName    string
}

type Config struct {
	Twitter          Twitter
	DriveCredentials string
	DriveFolderName  string
	RedisURI         string
	HostURL          string
	Port             string
	SecretKey        string
}

// mandatoryKeys are the environment variables the process refuses to start
// without. REDIS_URI is optional: without it the redis credential backend is
// simply not configured.
var mandatoryKeys = []string{
	"API_KEY",
	"API_SECRET_KEY",
	"ACCESS_TOKEN",
	"ACCESS_TOKEN_SECRET",
	"BEARER_TOKEN",
	"WEBHOOK_ENV_NAME",
	"GDRIVE_CREDENTIALS",
	"GDRIVE_FOLDER_NAME",
	"SECRET_KEY",
}

func LoadConfig() (*Config, error) {
	var missing []string
	for _, key := range mandatoryKeys {
		if os.Getenv(key) == "" {
			missing = append(missing, key)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("missing mandatory environment variables: %s", strings.Join(missing, ", "))
	}

	return &Config{
		Twitter: Twitter{
			APIKey:            getEnv("API_KEY", ""),
			APISecretKey:      getEnv("API_SECRET_KEY", ""),
			AccessToken:       getEnv("ACCESS_TOKEN", ""),
			AccessTokenSecret: getEnv("ACCESS_TOKEN_SECRET", ""),
			BearerToken:       getEnv("BEARER_TOKEN", ""),
			WebhookEnvName:    getEnv("WEBHOOK_ENV_NAME", ""),
		},
		DriveCredentials: getEnv("GDRIVE_CREDENTIALS", ""),
		DriveFolderName:  getEnv("GDRIVE_FOLDER_NAME", ""),
		RedisURI:         getEnv("REDIS_URI", ""),
		HostURL:          getEnv("HOST_URL", "localhost:3000"),
		Port:             getEnv("PORT", "3000"),
		SecretKey:        getEnv("SECRET_KEY", ""),
	}, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
