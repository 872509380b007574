// Package doctor validates PAI configuration and skill prerequisites.
package doctor

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/valentinuuiuiu/Personal-AI-Infrastructure/internal/config"
	"github.com/valentinuuiuiu/Personal-AI-Infrastructure/internal/roocfg"
	"github.com/valentinuuiuiu/Personal-AI-Infrastructure/internal/skill"
)

// Result holds the outcome of a validation run.
type Result struct {
	Valid    bool    `json:"valid"`
	Errors   []Issue `json:"errors,omitempty"`
	Warnings []Issue `json:"warnings,omitempty"`
}

// Issue describes a single validation error or warning.
type Issue struct {
	Category string `json:"category"`
	Message  string `json:"message"`
	Field    string `json:"field,omitempty"`
}

// Context documents the ask skill reads.
var expectedContexts = []string{"personality", "validator"}

// Doctor validates configuration against the skill allow-list.
type Doctor struct {
	cfg      *config.Config
	registry *skill.Registry
	lookPath func(string) (string, error)
}

// New creates a Doctor from a loaded config and the skill registry.
func New(cfg *config.Config, registry *skill.Registry) *Doctor {
	return &Doctor{cfg: cfg, registry: registry, lookPath: exec.LookPath}
}

// Validate runs all checks and returns a result.
func (d *Doctor) Validate() *Result {
	r := &Result{Valid: true}

	d.validateCredential(r)
	d.validateExternalSkills(r)
	d.validateRooConfig(r)
	d.warnMissingContexts(r)
	d.warnMissingPattern(r)
	d.warnServerSecret(r)

	r.Valid = len(r.Errors) == 0
	return r
}

func (d *Doctor) addError(r *Result, category, field, msg string) {
	r.Errors = append(r.Errors, Issue{Category: category, Field: field, Message: msg})
}

func (d *Doctor) addWarning(r *Result, category, field, msg string) {
	r.Warnings = append(r.Warnings, Issue{Category: category, Field: field, Message: msg})
}

// validateCredential checks the API key needed by credentialed skills.
func (d *Doctor) validateCredential(r *Result) {
	if d.cfg.LLM.APIKeyEnv == "" {
		d.addError(r, "credential", "llm.api_key_env", "api_key_env is required")
		return
	}
	if err := d.cfg.RequireAPIKey(); err == nil {
		return
	}
	var needing []string
	for _, cmd := range d.registry.All() {
		if cmd.RequiresCredential {
			needing = append(needing, cmd.Name)
		}
	}
	if len(needing) > 0 {
		d.addWarning(r, "credential", "llm.api_key_env",
			fmt.Sprintf("%s is not set; these skills will fail: %s", d.cfg.LLM.APIKeyEnv, strings.Join(needing, ", ")))
	}
}

// validateExternalSkills checks interpreters and entrypoints of external skills.
func (d *Doctor) validateExternalSkills(r *Result) {
	for _, cmd := range d.registry.External() {
		ext := cmd.External
		field := fmt.Sprintf("skills.%s", cmd.Name)

		bin, ok := d.cfg.Interpreter(ext.Language)
		if !ok {
			d.addError(r, "skills", "skills.interpreters."+ext.Language,
				fmt.Sprintf("skill %q needs an interpreter for %q", cmd.Name, ext.Language))
		} else if _, err := d.lookPath(bin); err != nil {
			d.addWarning(r, "skills", "skills.interpreters."+ext.Language,
				fmt.Sprintf("interpreter %q for skill %q not found in PATH", bin, cmd.Name))
		}

		entry := filepath.Join(d.cfg.Paths.SkillsDir, ext.WorkDir, ext.Entrypoint)
		if _, err := os.Stat(entry); err != nil {
			d.addError(r, "skills", field,
				fmt.Sprintf("entrypoint %s not found; set paths.skills_dir to the directory holding it", entry))
		}
	}
}

// validateRooConfig checks that an existing roo-code config parses.
func (d *Doctor) validateRooConfig(r *Result) {
	if _, err := roocfg.Load(d.cfg.Paths.RooConfig, nil); err != nil {
		d.addError(r, "roo_code", "paths.roo_config", err.Error())
	}
}

func (d *Doctor) warnMissingContexts(r *Result) {
	for _, name := range expectedContexts {
		path := filepath.Join(d.cfg.Paths.ContextDir, name+".md")
		if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
			d.addWarning(r, "context", "paths.context_dir",
				fmt.Sprintf("%s not found; ask will proceed without it", path))
		}
	}
}

func (d *Doctor) warnMissingPattern(r *Result) {
	path := d.cfg.PatternPath("extract_wisdom")
	if _, err := os.Stat(path); err != nil {
		d.addWarning(r, "patterns", "paths.pai_dir",
			fmt.Sprintf("extract_wisdom pattern not found at %s; wisdom will fail", path))
	}
}

func (d *Doctor) warnServerSecret(r *Result) {
	if d.cfg.Server.Secret == "" {
		d.addWarning(r, "server", "server.secret_env",
			fmt.Sprintf("%s is not set; pai serve will refuse every request", d.cfg.Server.SecretEnv))
	}
}

// FormatHuman returns a human-readable validation report.
func FormatHuman(r *Result) string {
	var b strings.Builder

	if r.Valid && len(r.Warnings) == 0 {
		b.WriteString("Configuration valid.\n")
		return b.String()
	}

	if r.Valid {
		fmt.Fprintf(&b, "Configuration valid (%d warning(s))\n", len(r.Warnings))
	} else {
		fmt.Fprintf(&b, "Configuration invalid (%d error(s), %d warning(s))\n", len(r.Errors), len(r.Warnings))
	}

	for _, e := range r.Errors {
		writeIssue(&b, "ERROR", e)
	}
	for _, w := range r.Warnings {
		writeIssue(&b, "WARN ", w)
	}
	return b.String()
}

func writeIssue(b *strings.Builder, label string, i Issue) {
	if i.Field != "" {
		fmt.Fprintf(b, "  %s [%s] %s: %s\n", label, i.Category, i.Field, i.Message)
		return
	}
	fmt.Fprintf(b, "  %s [%s] %s\n", label, i.Category, i.Message)
}

// FormatJSON returns the result as indented JSON.
func FormatJSON(r *Result) (string, error) {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return "", err
	}
	return string(data), nil
}
