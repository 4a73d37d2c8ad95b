package config

import "github.com/abdul-hamid-achik/fetchagent/packages/relay"

// DefaultConfig returns a configuration with default values
func DefaultConfig() *Config {
	return &Config{
		Timeout:      relay.DefaultTimeoutMs,
		MaxRedirects: relay.DefaultMaxRedirects,
		ValidateSSL:  nil, // true
		Proxy:        "",
		Headers:      nil,
		Listen:       DefaultListen,
		LogLevel:     "info",
		LogFormat:    "text",
		Output:       "console",
		NoColor:      nil, // false
	}
}

// IsDefault returns true if the config matches defaults
func (c *Config) IsDefault() bool {
	defaults := DefaultConfig()
	return c.Timeout == defaults.Timeout &&
		c.MaxRedirects == defaults.MaxRedirects &&
		c.GetValidateSSL() &&
		c.Proxy == defaults.Proxy &&
		len(c.Headers) == 0 &&
		c.Listen == defaults.Listen &&
		c.LogLevel == defaults.LogLevel &&
		c.LogFormat == defaults.LogFormat &&
		c.Output == defaults.Output &&
		!c.GetNoColor()
}
