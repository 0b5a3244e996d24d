package config

import (
	"os"
	"strings"
	"time"
)

// ServiceConfig holds configuration for a backend service
type ServiceConfig struct {
	Name        string
	Instances   []string
	Timeout     time.Duration
	HealthCheck string
}

// GatewayConfig holds the main gateway configuration
type GatewayConfig struct {
	Port     string
	Services map[string]ServiceConfig
}

// LoadConfig loads the gateway configuration from environment variables.
// Multiple instances of a service are given comma separated.
func LoadConfig() *GatewayConfig {
	return &GatewayConfig{
		Port: getEnv("GATEWAY_PORT", "8000"),
		Services: map[string]ServiceConfig{
			"user": {
				Name:        "user-service",
				Instances:   splitInstances(getEnv("USER_SERVICE_URL", "http://localhost:8080")),
				Timeout:     30 * time.Second,
				HealthCheck: "/health",
			},
			"product": {
				Name:        "product-service",
				Instances:   splitInstances(getEnv("PRODUCT_SERVICE_URL", "http://localhost:8081")),
				Timeout:     30 * time.Second,
				HealthCheck: "/health",
			},
		},
	}
}

func splitInstances(raw string) []string {
	var instances []string
	for _, instance := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(instance); trimmed != "" {
			instances = append(instances, trimmed)
		}
	}
	return instances
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
