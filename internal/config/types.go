package config

import (
	"os"
	"path/filepath"
	"time"
)

// Config represents the complete PAI configuration.
type Config struct {
	LLM       LLMConfig       `yaml:"llm"`
	Paths     PathsConfig     `yaml:"paths"`
	Skills    SkillsConfig    `yaml:"skills"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
	Server    ServerConfig    `yaml:"server"`
	Log       LogConfig       `yaml:"log"`
	Router    RouterConfig    `yaml:"router"`

	// SourceFile is the YAML file the config was read from, if any.
	SourceFile string `yaml:"-"`
}

// LLMConfig defines the hosted chat-completion endpoint.
type LLMConfig struct {
	BaseURL   string        `yaml:"base_url"`
	Model     string        `yaml:"model"`
	APIKeyEnv string        `yaml:"api_key_env"`
	Timeout   time.Duration `yaml:"timeout,omitempty"` // 0 means no timeout

	// APIKey is resolved from APIKeyEnv and never read from YAML.
	APIKey string `yaml:"-"`
}

// PathsConfig defines where skills find their data.
type PathsConfig struct {
	PAIDir     string `yaml:"pai_dir"`     // root of fabric patterns
	ContextDir string `yaml:"context_dir"` // <name>.md context documents
	SkillsDir  string `yaml:"skills_dir"`  // external skill scripts; empty resolves at load time
	RooConfig  string `yaml:"roo_config"`  // roo-code JSON config file
}

// SkillsConfig defines external skill execution settings.
type SkillsConfig struct {
	Timeout      time.Duration     `yaml:"timeout,omitempty"` // 0 means no timeout
	Interpreters map[string]string `yaml:"interpreters,omitempty"`
}

// TelemetryConfig defines the external event sink.
type TelemetryConfig struct {
	Endpoint  string        `yaml:"endpoint"` // empty disables delivery
	SourceApp string        `yaml:"source_app"`
	Timeout   time.Duration `yaml:"timeout"`
}

// ServerConfig defines the HTTP service.
type ServerConfig struct {
	Listen        string `yaml:"listen"`
	SecretEnv     string `yaml:"secret_env"`
	MaxUploadSize string `yaml:"max_upload_size"`
	LockPath      string `yaml:"lock_path"`

	// Secret is resolved from SecretEnv and never read from YAML.
	Secret string `yaml:"-"`
}

// LogConfig defines logger settings.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// RouterConfig defines the route skill.
type RouterConfig struct {
	DefaultModel string `yaml:"default_model"`
}

// DefaultInterpreters maps skill languages to interpreter binaries.
func DefaultInterpreters() map[string]string {
	return map[string]string{
		"typescript": "bun",
		"javascript": "node",
		"python":     "python3",
		"shell":      "sh",
	}
}

// Defaults returns a Config with sensible defaults.
func Defaults() *Config {
	return &Config{
		LLM: LLMConfig{
			BaseURL:   "https://openrouter.ai/api/v1",
			Model:     "minimax/minimax-m2:free",
			APIKeyEnv: "OPENROUTER_API_KEY",
		},
		Paths: PathsConfig{
			PAIDir:     defaultPAIDir(),
			ContextDir: "./context",
			RooConfig:  "./roo_code_config.json",
		},
		Skills: SkillsConfig{
			Interpreters: DefaultInterpreters(),
		},
		Telemetry: TelemetryConfig{
			SourceApp: "pai-cli",
			Timeout:   2 * time.Second,
		},
		Server: ServerConfig{
			Listen:        "0.0.0.0:5001",
			SecretEnv:     "PAI_SECRET_KEY",
			MaxUploadSize: "10MB",
			LockPath:      filepath.Join(os.TempDir(), "pai-serve.lock"),
		},
		Log: LogConfig{
			Level:  "warn",
			Format: "text",
		},
		Router: RouterConfig{
			DefaultModel: "mistralai/mistral-7b-instruct",
		},
	}
}

func defaultPAIDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".claude"
	}
	return filepath.Join(home, ".claude")
}

// Interpreter returns the binary configured for language.
func (c *Config) Interpreter(language string) (string, bool) {
	bin, ok := c.Skills.Interpreters[language]
	return bin, ok && bin != ""
}

// PatternPath returns the system prompt path of a fabric pattern.
func (c *Config) PatternPath(name string) string {
	return filepath.Join(c.Paths.PAIDir, "skills", "fabric", "fabric-repo", "data", "patterns", name, "system.md")
}
