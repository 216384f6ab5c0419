// Package config resolves the logging client's configuration from the
// environment. A .env file in the working directory is honored when
// present. Lookups are cheap and never fail; absent values fall back to
// the documented defaults.
package config

import (
	"context"
	"os"
	"strings"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/joho/godotenv"
	"go.uber.org/zap/zapcore"
)

const (
	DefaultLogLevel    = "INFO"
	DefaultRegion      = "us-west-2"
	DefaultStreamName  = "chimera-log-fh"
	DefaultEnvironment = "dev"
)

var validLevels = map[string]struct{}{
	"DEBUG":    {},
	"INFO":     {},
	"WARNING":  {},
	"ERROR":    {},
	"CRITICAL": {},
}

func init() {
	// Best effort, like any dotenv loader: a missing file is not an error.
	_ = godotenv.Load()
}

// LogLevel returns the configured minimum level for the local sink,
// falling back to the default on absent or invalid values.
func LogLevel() string {
	level := strings.ToUpper(os.Getenv("CHIMERA_LOG_LEVEL"))
	if _, ok := validLevels[level]; ok {
		return level
	}
	return DefaultLogLevel
}

// ZapLevel maps the configured log level onto the local sink's scale.
func ZapLevel() zapcore.Level {
	switch LogLevel() {
	case "DEBUG":
		return zapcore.DebugLevel
	case "WARNING":
		return zapcore.WarnLevel
	case "ERROR", "CRITICAL":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

// StreamName returns the Firehose delivery stream name.
func StreamName() string {
	if name := os.Getenv("CHIMERA_STREAM_NAME"); name != "" {
		return name
	}
	return DefaultStreamName
}

// Region returns the AWS region.
func Region() string {
	if region := os.Getenv("AWS_REGION"); region != "" {
		return region
	}
	return DefaultRegion
}

// Environment returns the deployment environment name.
func Environment() string {
	if env := os.Getenv("ENVIRONMENT"); env != "" {
		return env
	}
	return DefaultEnvironment
}

// Service returns the service name, trying the common environment variable
// spellings in order. Empty when none is set.
func Service() string {
	for _, key := range []string{"SERVICE_NAME", "SERVICE", "APP_NAME", "APPLICATION"} {
		if service := os.Getenv(key); service != "" {
			return service
		}
	}
	return ""
}

// Tag returns the configured record tag. Empty when none is set.
func Tag() string {
	if tag := os.Getenv("CHIMERA_TAG"); tag != "" {
		return tag
	}
	return os.Getenv("LOG_TAG")
}

// ForceLocal reports whether local-only logging was explicitly requested.
func ForceLocal() bool {
	return strings.EqualFold(os.Getenv("CHIMERA_LOG_LOCAL"), "true")
}

// CanUseFirehose is the capability probe consulted when picking a
// transport. It reports false when local logging is forced or when AWS
// configuration cannot be resolved. It only resolves credentials and
// region; it does not test Firehose permissions.
func CanUseFirehose(ctx context.Context) bool {
	if ForceLocal() {
		return false
	}
	_, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(Region()))
	return err == nil
}
