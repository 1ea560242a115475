package config

// ConfigFileName is the canonical project configuration file.
const ConfigFileName = "typeforge.yaml"

// DefaultLanguage is assumed when a context does not name one.
const DefaultLanguage = "typescript"

// Search limits.
const (
	DefaultMaxDepth    = 5
	DefaultMaxAttempts = 3
	DefaultMaxTokens   = 256
)

// DefaultTemperature is the sampling temperature for constrained generation.
const DefaultTemperature = 0.2

// Provider kinds accepted in typeforge.yaml.
const (
	ProviderHTTP = "http"
	ProviderGRPC = "grpc"
)
