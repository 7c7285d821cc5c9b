package env

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"form-filler/internal/application/port/output"

	"github.com/joho/godotenv"
)

var _ output.EnvPort = (*EnvService)(nil)

type EnvService struct{}

// NewEnvService грузит .env с секретами и поверх него .env.$APP_ENV из dir.
func NewEnvService(dir string, logger output.LoggerPort) *EnvService {
	logger = output.OrNop(logger)

	appEnv := os.Getenv("APP_ENV")
	if appEnv == "" {
		appEnv = "dev"
	}

	if err := godotenv.Load(filepath.Join(dir, ".env")); err != nil {
		logger.Debug("No .env file with secrets found")
	}

	envFile := filepath.Join(dir, fmt.Sprintf(".env.%s", appEnv))
	if err := godotenv.Overload(envFile); err != nil {
		logger.Debug("Could not load env file", "file", envFile, "error", err)
	}

	logger.Debug("Environment loaded", "app_env", appEnv)
	return &EnvService{}
}

func (e *EnvService) Get(key string) string {
	return os.Getenv(key)
}

// MustGet паникует на пустом значении; только для старта процесса.
func (e *EnvService) MustGet(key string) string {
	val := os.Getenv(key)
	if val == "" {
		panic(fmt.Sprintf("ENV %s is missing", key))
	}
	return val
}

func (e *EnvService) GetBool(key string, defaultValue bool) bool {
	val := os.Getenv(key)
	if val == "" {
		return defaultValue
	}
	parsed, err := strconv.ParseBool(val)
	if err != nil {
		return defaultValue
	}
	return parsed
}

func (e *EnvService) GetInt(key string, defaultValue int) int {
	val := os.Getenv(key)
	if val == "" {
		return defaultValue
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return defaultValue
	}
	return parsed
}
