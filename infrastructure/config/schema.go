package config

import (
	"encoding/json"
)

// JSONSchema represents a JSON Schema document.
type JSONSchema struct {
	Schema      string                 `json:"$schema,omitempty"`
	ID          string                 `json:"$id,omitempty"`
	Title       string                 `json:"title,omitempty"`
	Description string                 `json:"description,omitempty"`
	Type        string                 `json:"type,omitempty"`
	Properties  map[string]*JSONSchema `json:"properties,omitempty"`
	Required    []string               `json:"required,omitempty"`
	Enum        []string               `json:"enum,omitempty"`
	Default     any                    `json:"default,omitempty"`
	Minimum     *float64               `json:"minimum,omitempty"`
	Maximum     *float64               `json:"maximum,omitempty"`
	Pattern     string                 `json:"pattern,omitempty"`
}

// GenerateSchema generates a JSON Schema for the application Config.
func GenerateSchema() *JSONSchema {
	return &JSONSchema{
		Schema:      "https://json-schema.org/draft/2020-12/schema",
		ID:          "https://github.com/NickG503/World-Simulator/worldsim-config.schema.json",
		Title:       "Simulator Configuration",
		Description: "Configuration schema for the worldsim runtime",
		Type:        "object",
		Properties: map[string]*JSONSchema{
			"knowledge_base": generateKnowledgeBaseSchema(),
			"storage":        generateStorageSchema(),
			"logging":        generateLoggingSchema(),
			"observability":  generateObservabilitySchema(),
			"resilience":     generateResilienceSchema(),
		},
	}
}

func generateKnowledgeBaseSchema() *JSONSchema {
	return &JSONSchema{
		Type:        "object",
		Description: "Definition loading settings",
		Properties: map[string]*JSONSchema{
			"dir": {
				Type:        "string",
				Description: "Directory holding spaces/, objects/ and actions/",
				Default:     "kb",
			},
			"strict_fields": {
				Type:        "boolean",
				Description: "Reject definition files with unknown fields",
				Default:     false,
			},
		},
	}
}

func generateStorageSchema() *JSONSchema {
	return &JSONSchema{
		Type:        "object",
		Description: "Run persistence settings",
		Properties: map[string]*JSONSchema{
			"backend": {
				Type:        "string",
				Description: "Store implementation",
				Enum:        []string{BackendMemory, BackendFilesystem, BackendBadger, BackendSQLite},
				Default:     BackendMemory,
			},
			"dir": {
				Type:        "string",
				Description: "Data directory for the filesystem and badger backends",
			},
			"dsn": {
				Type:        "string",
				Description: "Data source name for the sqlite backend",
			},
			"key_prefix": {
				Type:        "string",
				Description: "Key namespace for the badger backend",
			},
		},
	}
}

func generateLoggingSchema() *JSONSchema {
	return &JSONSchema{
		Type:        "object",
		Description: "Structured logging settings",
		Properties: map[string]*JSONSchema{
			"level": {
				Type:        "string",
				Description: "Minimum log level",
				Enum:        []string{"trace", "debug", "info", "warn", "error"},
				Default:     "info",
			},
			"format": {
				Type:        "string",
				Description: "Log output format",
				Enum:        []string{"console", "json"},
				Default:     "console",
			},
		},
	}
}

func generateObservabilitySchema() *JSONSchema {
	return &JSONSchema{
		Type:        "object",
		Description: "Tracing and metrics settings",
		Properties: map[string]*JSONSchema{
			"service_name": {
				Type:        "string",
				Description: "Service name reported in telemetry",
				Default:     "worldsim",
			},
			"environment": {
				Type:        "string",
				Description: "Deployment environment tag",
				Default:     "development",
			},
			"trace_exporter": {
				Type:        "string",
				Description: "Trace exporter",
				Enum:        []string{"noop", "stdout"},
				Default:     "noop",
			},
			"metric_exporter": {
				Type:        "string",
				Description: "Metric exporter",
				Enum:        []string{"noop", "stdout"},
				Default:     "noop",
			},
			"sample_rate": {
				Type:        "number",
				Description: "Trace sampling rate",
				Minimum:     floatPtr(0),
				Maximum:     floatPtr(1),
				Default:     1.0,
			},
		},
	}
}

func generateResilienceSchema() *JSONSchema {
	return &JSONSchema{
		Type:        "object",
		Description: "Store operation guard settings",
		Properties: map[string]*JSONSchema{
			"max_concurrent": {
				Type:        "integer",
				Description: "Concurrent store operation limit",
				Minimum:     floatPtr(0),
				Default:     4,
			},
			"breaker_threshold": {
				Type:        "integer",
				Description: "Consecutive failures before the circuit opens",
				Minimum:     floatPtr(0),
				Default:     5,
			},
			"retry_max_attempts": {
				Type:        "integer",
				Description: "Maximum attempts per store operation",
				Minimum:     floatPtr(0),
				Default:     3,
			},
			"op_timeout": {
				Type:        "string",
				Description: "Single operation timeout, as a Go duration",
				Pattern:     `^[0-9]+(ns|us|µs|ms|s|m|h)`,
				Default:     "5s",
			},
		},
	}
}

func floatPtr(f float64) *float64 {
	return &f
}

// SchemaJSON returns the configuration schema as indented JSON.
func SchemaJSON() (string, error) {
	data, err := json.MarshalIndent(GenerateSchema(), "", "  ")
	if err != nil {
		return "", err
	}
	return string(data), nil
}
