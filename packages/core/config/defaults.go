package config

const (
	// DefaultRetryCount is the number of retries after a first failed attempt
	DefaultRetryCount = 2
	// DefaultAssumeExitCode marks an assumption failure of a command body (EX_TEMPFAIL)
	DefaultAssumeExitCode = 75
	// DefaultShell runs command bodies
	DefaultShell = "sh"
)

// DefaultConfig returns a configuration with default values
func DefaultConfig() *Config {
	return &Config{
		RetryDelay:     0,
		Flat:           BoolPtr(false),
		Reporters:      []string{"console"},
		AssumeExitCode: DefaultAssumeExitCode,
		Shell:          DefaultShell,
		Verbose:        BoolPtr(false),
		NoColor:        BoolPtr(false),
	}
}

// IsDefault returns true if the config matches defaults
func (c *Config) IsDefault() bool {
	defaults := DefaultConfig()
	return c.Parameters == defaults.Parameters &&
		c.Retry == defaults.Retry &&
		c.RetryDelay == defaults.RetryDelay &&
		c.GetFlat() == defaults.GetFlat() &&
		c.ResourceDir == defaults.ResourceDir &&
		c.OutputFile == defaults.OutputFile &&
		c.History == defaults.History &&
		c.AssumeExitCode == defaults.AssumeExitCode &&
		c.Shell == defaults.Shell &&
		c.GetVerbose() == defaults.GetVerbose() &&
		c.GetNoColor() == defaults.GetNoColor()
}
