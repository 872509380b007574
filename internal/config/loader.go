package config

import (
	"fmt"
	"net"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/valentinuuiuiu/Personal-AI-Infrastructure/internal/skill"
)

var envVarPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)

const (
	configFileName = "pai.yaml"
	envFileName    = ".env"
	skillsDirName  = "skills"
)

// Load reads .env files, the optional YAML config and environment overrides.
// Priority for the config file: $PAI_CONFIG, then $PAI_DIR/pai.yaml. A missing
// file is not an error; defaults apply.
func Load() (*Config, error) {
	loadEnvFiles()

	path := os.Getenv("PAI_CONFIG")
	if path == "" {
		candidate := filepath.Join(resolvePAIDir(), configFileName)
		if _, err := os.Stat(candidate); err == nil {
			path = candidate
		}
	}

	return LoadFile(path)
}

// LoadFile builds a Config from defaults, the YAML file at path (if non-empty)
// and environment overrides.
func LoadFile(path string) (*Config, error) {
	cfg := Defaults()

	if path != "" {
		absPath, err := filepath.Abs(path)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve config path %q: %w", path, err)
		}
		if err := loadConfigFile(absPath, cfg); err != nil {
			return nil, err
		}
		cfg.SourceFile = absPath
	}

	applyEnvOverrides(cfg)
	resolveSecrets(cfg)
	expandPaths(cfg)
	resolveSkillsDir(cfg)

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// loadEnvFiles loads ./.env and $PAI_DIR/.env. Variables already present in
// the environment win.
func loadEnvFiles() {
	for _, p := range []string{envFileName, filepath.Join(resolvePAIDir(), envFileName)} {
		if _, err := os.Stat(p); err == nil {
			_ = godotenv.Load(p)
		}
	}
}

func resolvePAIDir() string {
	if dir := os.Getenv("PAI_DIR"); dir != "" {
		return expandHome(dir)
	}
	return defaultPAIDir()
}

func loadConfigFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("config file not found: %s\n"+
			"Hint: Check the path in $PAI_CONFIG", path)
	}

	// Apply environment variable interpolation
	interpolated := interpolateEnv(string(data))

	if err := yaml.Unmarshal([]byte(interpolated), cfg); err != nil {
		return fmt.Errorf("failed to parse YAML %s: %w", path, err)
	}

	if cfg.Skills.Interpreters == nil {
		cfg.Skills.Interpreters = DefaultInterpreters()
	} else {
		for lang, bin := range DefaultInterpreters() {
			if _, ok := cfg.Skills.Interpreters[lang]; !ok {
				cfg.Skills.Interpreters[lang] = bin
			}
		}
	}

	return nil
}

func applyEnvOverrides(cfg *Config) {
	if dir := os.Getenv("PAI_DIR"); dir != "" {
		cfg.Paths.PAIDir = dir
	}
	if port := os.Getenv("PORT"); port != "" {
		host := "0.0.0.0"
		if h, _, err := net.SplitHostPort(cfg.Server.Listen); err == nil && h != "" {
			host = h
		}
		cfg.Server.Listen = net.JoinHostPort(host, port)
	}
	if level := os.Getenv("PAI_LOG_LEVEL"); level != "" {
		cfg.Log.Level = strings.ToLower(level)
	}
	if endpoint := os.Getenv("PAI_TELEMETRY_URL"); endpoint != "" {
		cfg.Telemetry.Endpoint = endpoint
	}
}

func resolveSecrets(cfg *Config) {
	if cfg.LLM.APIKeyEnv != "" {
		cfg.LLM.APIKey = os.Getenv(cfg.LLM.APIKeyEnv)
	}
	if cfg.Server.SecretEnv != "" {
		cfg.Server.Secret = os.Getenv(cfg.Server.SecretEnv)
	}
}

func expandPaths(cfg *Config) {
	cfg.Paths.PAIDir = expandHome(cfg.Paths.PAIDir)
	cfg.Paths.ContextDir = expandHome(cfg.Paths.ContextDir)
	cfg.Paths.SkillsDir = expandHome(cfg.Paths.SkillsDir)
	cfg.Paths.RooConfig = expandHome(cfg.Paths.RooConfig)
	cfg.Server.LockPath = expandHome(cfg.Server.LockPath)
}

// executable is replaced in tests.
var executable = os.Executable

// resolveSkillsDir fills an unset skills_dir with the skills directory next
// to the pai binary when it exists, else $PAI_DIR/skills.
func resolveSkillsDir(cfg *Config) {
	if cfg.Paths.SkillsDir != "" {
		return
	}
	if exe, err := executable(); err == nil {
		if resolved, err := filepath.EvalSymlinks(exe); err == nil {
			exe = resolved
		}
		candidate := filepath.Join(filepath.Dir(exe), skillsDirName)
		if info, err := os.Stat(candidate); err == nil && info.IsDir() {
			cfg.Paths.SkillsDir = candidate
			return
		}
	}
	cfg.Paths.SkillsDir = filepath.Join(cfg.Paths.PAIDir, skillsDirName)
}

func expandHome(p string) string {
	if p != "~" && !strings.HasPrefix(p, "~/") {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return p
	}
	return filepath.Join(home, strings.TrimPrefix(p, "~"))
}

// interpolateEnv replaces ${VAR} with the value of VAR. Unset variables are left
// in place so validation can report them.
func interpolateEnv(input string) string {
	return envVarPattern.ReplaceAllStringFunc(input, func(match string) string {
		varName := envVarPattern.FindStringSubmatch(match)[1]
		if value, exists := os.LookupEnv(varName); exists {
			return value
		}
		return match
	})
}

func validate(cfg *Config) error {
	validLogLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLogLevels[cfg.Log.Level] {
		return fmt.Errorf("log.level must be one of: debug, info, warn, error (got %q)", cfg.Log.Level)
	}
	if cfg.Log.Format != "text" && cfg.Log.Format != "json" {
		return fmt.Errorf("log.format must be text or json (got %q)", cfg.Log.Format)
	}

	if err := validateURL("llm.base_url", cfg.LLM.BaseURL); err != nil {
		return err
	}
	if cfg.LLM.Model == "" {
		return fmt.Errorf("llm.model is required")
	}
	if cfg.LLM.APIKeyEnv == "" {
		return fmt.Errorf("llm.api_key_env is required")
	}
	if cfg.LLM.Timeout < 0 {
		return fmt.Errorf("llm.timeout must not be negative")
	}

	if cfg.Telemetry.Endpoint != "" {
		if err := validateURL("telemetry.endpoint", cfg.Telemetry.Endpoint); err != nil {
			return err
		}
	}
	if cfg.Telemetry.Timeout <= 0 {
		return fmt.Errorf("telemetry.timeout must be positive")
	}

	if cfg.Skills.Timeout < 0 {
		return fmt.Errorf("skills.timeout must not be negative")
	}
	for lang, bin := range cfg.Skills.Interpreters {
		if strings.TrimSpace(bin) == "" {
			return fmt.Errorf("skills.interpreters.%s must not be empty", lang)
		}
	}

	if cfg.Paths.ContextDir == "" {
		return fmt.Errorf("paths.context_dir is required")
	}
	if cfg.Paths.SkillsDir == "" {
		return fmt.Errorf("paths.skills_dir is required")
	}
	if cfg.Paths.RooConfig == "" {
		return fmt.Errorf("paths.roo_config is required")
	}

	if cfg.Server.Listen == "" {
		return fmt.Errorf("server.listen is required")
	}
	if _, err := ParseSize(cfg.Server.MaxUploadSize); err != nil {
		return fmt.Errorf("server.max_upload_size: %w", err)
	}

	if cfg.Router.DefaultModel == "" {
		return fmt.Errorf("router.default_model is required")
	}

	return nil
}

func validateURL(field, raw string) error {
	if matches := envVarPattern.FindStringSubmatch(raw); len(matches) > 1 {
		return fmt.Errorf("%s: environment variable ${%s} is not set", field, matches[1])
	}
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("%s: %w", field, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%s must be an http(s) URL (got %q)", field, raw)
	}
	if u.Host == "" {
		return fmt.Errorf("%s has no host (got %q)", field, raw)
	}
	return nil
}

// RequireAPIKey returns skill.ErrMissingCredential naming the variable if the API key is unset.
func (c *Config) RequireAPIKey() error {
	if c.LLM.APIKey == "" {
		return fmt.Errorf("%w: set %s", skill.ErrMissingCredential, c.LLM.APIKeyEnv)
	}
	return nil
}

// ParseSize parses size strings like "1MB", "512KB", "2048" to bytes.
func ParseSize(size string) (int64, error) {
	if size == "" {
		return 0, fmt.Errorf("size is empty")
	}

	// Handle unit suffixes (KB, MB, GB)
	upper := strings.ToUpper(strings.TrimSpace(size))
	multiplier := int64(1)

	if strings.HasSuffix(upper, "KB") {
		multiplier = 1024
		upper = strings.TrimSuffix(upper, "KB")
	} else if strings.HasSuffix(upper, "MB") {
		multiplier = 1024 * 1024
		upper = strings.TrimSuffix(upper, "MB")
	} else if strings.HasSuffix(upper, "GB") {
		multiplier = 1024 * 1024 * 1024
		upper = strings.TrimSuffix(upper, "GB")
	}

	value, err := strconv.ParseInt(strings.TrimSpace(upper), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid size value: %w", err)
	}

	if value <= 0 {
		return 0, fmt.Errorf("size must be positive")
	}

	result := value * multiplier
	if result/multiplier != value { // overflow
		return 0, fmt.Errorf("size too large")
	}

	return result, nil
}
