package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Config is the top-level gitpilot configuration.
type Config struct {
	DataDir            string        `mapstructure:"data_dir"`
	DBName             string        `mapstructure:"db_name"`
	BranchPrefix       string        `mapstructure:"branch_prefix"`
	DefaultBranch      string        `mapstructure:"default_branch"`
	MaxDiffBytes       int           `mapstructure:"max_diff_bytes"`
	Assistant          Assistant     `mapstructure:"assistant"`
	Host               Host          `mapstructure:"host"`
	Tasks              Tasks         `mapstructure:"tasks"`
	CleanBranches      CleanBranches `mapstructure:"clean_branches"`
	ActionItemPatterns []string      `mapstructure:"action_item_patterns"`
	Log                Log           `mapstructure:"log"`
	Output             Output        `mapstructure:"output"`
}

// Assistant selects and configures the AI assistant backend.
type Assistant struct {
	// Backend is "cli" (one-shot assistant CLI) or "api" (Messages API).
	Backend   string   `mapstructure:"backend"`
	Command   string   `mapstructure:"command"`
	Args      []string `mapstructure:"args"`
	Model     string   `mapstructure:"model"`
	APIKeyEnv string   `mapstructure:"api_key_env"`
}

// Host selects and configures the code-hosting backend.
type Host struct {
	// Backend is "gh" (GitHub CLI) or "api" (GitHub REST API).
	Backend  string `mapstructure:"backend"`
	Command  string `mapstructure:"command"`
	TokenEnv string `mapstructure:"token_env"`
}

// Tasks configures where pr-todos sends action items.
type Tasks struct {
	// Backend is "file" (local YAML task list) or "command" (external CLI).
	Backend string   `mapstructure:"backend"`
	File    string   `mapstructure:"file"`
	Command string   `mapstructure:"command"`
	Args    []string `mapstructure:"args"`
	Project string   `mapstructure:"project"`
}

// CleanBranches configures the clean-branches workflow.
type CleanBranches struct {
	// FetchPrune runs "git fetch --prune" before looking for branches whose
	// upstream is gone.
	FetchPrune bool `mapstructure:"fetch_prune"`
}

// Log configures the diagnostics log.
type Log struct {
	Level string `mapstructure:"level"`
}

// Output defines output preferences.
type Output struct {
	Color bool `mapstructure:"color"`
}

// expandPath replaces a leading ~ with the user's home directory.
func expandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, path[2:])
	}
	return path
}

// Load reads configuration from the given path (or the default location)
// and returns a Config with all defaults applied. Environment variables
// prefixed with GITPILOT_ override file values (GITPILOT_HOST_BACKEND=api).
func Load(cfgFile string) (*Config, error) {
	v := viper.New()

	v.SetDefault("data_dir", DefaultDataDir)
	v.SetDefault("db_name", DefaultDBName)
	v.SetDefault("branch_prefix", DefaultBranchPrefix)
	v.SetDefault("default_branch", DefaultBranch)
	v.SetDefault("max_diff_bytes", DefaultMaxDiffBytes)
	v.SetDefault("assistant.backend", DefaultAssistant.Backend)
	v.SetDefault("assistant.command", DefaultAssistant.Command)
	v.SetDefault("assistant.args", DefaultAssistant.Args)
	v.SetDefault("assistant.model", DefaultAssistant.Model)
	v.SetDefault("assistant.api_key_env", DefaultAssistant.APIKeyEnv)
	v.SetDefault("host.backend", DefaultHost.Backend)
	v.SetDefault("host.command", DefaultHost.Command)
	v.SetDefault("host.token_env", DefaultHost.TokenEnv)
	v.SetDefault("tasks.backend", DefaultTasks.Backend)
	v.SetDefault("tasks.file", DefaultTasks.File)
	v.SetDefault("tasks.command", DefaultTasks.Command)
	v.SetDefault("tasks.args", DefaultTasks.Args)
	v.SetDefault("tasks.project", DefaultTasks.Project)
	v.SetDefault("clean_branches.fetch_prune", DefaultCleanBranches.FetchPrune)
	v.SetDefault("action_item_patterns", DefaultActionItemPatterns)
	v.SetDefault("log.level", DefaultLog.Level)
	v.SetDefault("output.color", DefaultOutput.Color)

	v.SetEnvPrefix("GITPILOT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetConfigFile(Path(cfgFile))

	// Missing config file is not an error.
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !os.IsNotExist(err) {
			return nil, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	cfg.DataDir = expandPath(cfg.DataDir)
	if cfg.Tasks.File != "" && !filepath.IsAbs(cfg.Tasks.File) && !strings.HasPrefix(cfg.Tasks.File, "~/") {
		cfg.Tasks.File = filepath.Join(cfg.DataDir, cfg.Tasks.File)
	}
	cfg.Tasks.File = expandPath(cfg.Tasks.File)

	return &cfg, nil
}

// DBPath returns the full path to the SQLite activity database.
func (c *Config) DBPath() string {
	return filepath.Join(c.DataDir, c.DBName)
}

// LogPath returns the full path to the diagnostics log.
func (c *Config) LogPath() string {
	return filepath.Join(c.DataDir, DefaultLogName)
}

// ConfigDir returns the expanded configuration directory.
func ConfigDir() string {
	return expandPath(DefaultConfigDir)
}

// DefaultPath is the config file read when no path is given.
func DefaultPath() string {
	return filepath.Join(ConfigDir(), DefaultConfigFile)
}

// Path returns the config file Load reads for cfgFile.
func Path(cfgFile string) string {
	if cfgFile != "" {
		return expandPath(cfgFile)
	}
	return DefaultPath()
}
