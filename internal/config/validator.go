package config

import (
	"fmt"
	"net/url"
	"strings"
)

// Validator validates individual configuration values.
type Validator struct{}

// NewValidator creates a new validator.
func NewValidator() *Validator {
	return &Validator{}
}

var (
	validProviders       = []string{"openai", "anthropic", "gemini", "ollama"}
	validFailurePolicies = []string{"continue", "abort"}
	validLogLevels       = []string{"debug", "info", "warn", "error"}
	validCategories      = []string{"os", "filesystem", "text", "math", "network", "database", "general"}
)

func oneOf(value string, allowed []string) bool {
	for _, a := range allowed {
		if value == a {
			return true
		}
	}
	return false
}

// ValidateProvider validates a model provider name.
func (v *Validator) ValidateProvider(provider string) error {
	if !oneOf(provider, validProviders) {
		return fmt.Errorf("invalid provider: %q (must be one of: %s)", provider, strings.Join(validProviders, ", "))
	}
	return nil
}

// ValidateAPIKey validates an API key format. Ollama needs no key.
func (v *Validator) ValidateAPIKey(key string, provider string) error {
	if provider == "ollama" {
		return nil
	}
	if key == "" {
		return fmt.Errorf("%s API key cannot be empty", provider)
	}

	switch provider {
	case "anthropic":
		if !strings.HasPrefix(key, "sk-ant-") {
			return fmt.Errorf("invalid Anthropic API key format (should start with sk-ant-)")
		}
	case "openai":
		if !strings.HasPrefix(key, "sk-") {
			return fmt.Errorf("invalid OpenAI API key format (should start with sk-)")
		}
	}

	return nil
}

// ValidateTemperature validates temperature value.
func (v *Validator) ValidateTemperature(temp float64) error {
	if temp < 0 || temp > 2 {
		return fmt.Errorf("temperature must be between 0 and 2, got %f", temp)
	}
	return nil
}

// ValidateMaxTokens validates max tokens value.
func (v *Validator) ValidateMaxTokens(tokens int) error {
	if tokens <= 0 {
		return fmt.Errorf("max tokens must be positive, got %d", tokens)
	}
	if tokens > 200000 {
		return fmt.Errorf("max tokens too large (max 200000), got %d", tokens)
	}
	return nil
}

// ValidateFailurePolicy validates the executor's step failure policy.
func (v *Validator) ValidateFailurePolicy(policy string) error {
	if !oneOf(policy, validFailurePolicies) {
		return fmt.Errorf("invalid failure policy: %q (must be one of: %s)", policy, strings.Join(validFailurePolicies, ", "))
	}
	return nil
}

// ValidateCategories validates tool category names.
func (v *Validator) ValidateCategories(categories []string) error {
	for _, c := range categories {
		if !oneOf(strings.ToLower(c), validCategories) {
			return fmt.Errorf("invalid tool category: %q (must be one of: %s)", c, strings.Join(validCategories, ", "))
		}
	}
	return nil
}

// ValidateLogLevel validates log level.
func (v *Validator) ValidateLogLevel(level string) error {
	if !oneOf(level, validLogLevels) {
		return fmt.Errorf("invalid log level: %q (must be one of: %s)", level, strings.Join(validLogLevels, ", "))
	}
	return nil
}

// ValidatePort validates a TCP port.
func (v *Validator) ValidatePort(port int) error {
	if port < 1 || port > 65535 {
		return fmt.Errorf("invalid port: %d (must be between 1 and 65535)", port)
	}
	return nil
}

// ValidateURL validates an absolute http(s) URL.
func (v *Validator) ValidateURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid URL %q: %w", raw, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("invalid URL %q: scheme must be http or https", raw)
	}
	if u.Host == "" {
		return fmt.Errorf("invalid URL %q: missing host", raw)
	}
	return nil
}
