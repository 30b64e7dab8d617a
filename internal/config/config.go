// Package config loads service configuration: compiled-in defaults, an
// optional TOML file, then REPOAGENT_ environment variables, in that
// precedence order.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Config is the full application configuration.
type Config struct {
	Server struct {
		Port          int    `koanf:"port"`
		WebhookSecret string `koanf:"webhook_secret"`
	} `koanf:"server"`

	GitHub struct {
		Token   string `koanf:"token"`
		BaseURL string `koanf:"base_url"`
		BotName string `koanf:"bot_name"`
	} `koanf:"github"`

	AI struct {
		Provider    string  `koanf:"provider"` // "ollama" or "openai"
		BaseURL     string  `koanf:"base_url"` // ollama server / openai-compatible endpoint
		APIKey      string  `koanf:"api_key"`
		LightModel  string  `koanf:"light_model"`
		HeavyModel  string  `koanf:"heavy_model"`
		Temperature float64 `koanf:"temperature"`
		MaxTokens   int     `koanf:"max_tokens"`
	} `koanf:"ai"`

	Review struct {
		Auto                  bool     `koanf:"auto"`
		SimpleChangeThreshold int      `koanf:"simple_change_threshold"`
		ReviewSimpleChanges   bool     `koanf:"review_simple_changes"`
		SkipExtensions        []string `koanf:"skip_extensions"`
		MaxFiles              int      `koanf:"max_files"`
		MaxComments           int      `koanf:"max_comments"`
		IgnoreKeyword         string   `koanf:"ignore_keyword"`
		UpdateDescription     bool     `koanf:"update_description"`
		PostLGTMComments      bool     `koanf:"post_lgtm_comments"`
		RepliesEnabled        bool     `koanf:"replies_enabled"`
	} `koanf:"review"`

	// Prompts maps slot names to override templates; unset slots use the
	// compiled-in defaults.
	Prompts map[string]string `koanf:"prompts"`

	Log struct {
		Level  string `koanf:"level"`
		Format string `koanf:"format"`
	} `koanf:"log"`
}

func defaults() map[string]interface{} {
	return map[string]interface{}{
		"server.port":                    8080,
		"github.base_url":                "https://api.github.com",
		"github.bot_name":                "repo-agent",
		"ai.provider":                    "ollama",
		"ai.base_url":                    "http://localhost:11434",
		"ai.light_model":                 "qwen2.5-coder:7b",
		"ai.heavy_model":                 "qwen2.5-coder:32b",
		"ai.temperature":                 0.2,
		"ai.max_tokens":                  4096,
		"review.auto":                    true,
		"review.simple_change_threshold": 20,
		"review.review_simple_changes":   false,
		"review.skip_extensions":         []string{"md", "txt", "rst", "png", "jpg", "jpeg", "gif"},
		"review.max_files":               50,
		"review.max_comments":            20,
		"review.ignore_keyword":          "@repo-agent: ignore",
		"review.update_description":      true,
		"review.post_lgtm_comments":      false,
		"review.replies_enabled":         true,
		"log.level":                      "info",
		"log.format":                     "console",
	}
}

// Load reads configuration from configPath (or the default locations when
// empty), layered over defaults and under REPOAGENT_ env vars.
func Load(configPath string) (*Config, error) {
	k := koanf.New(".")

	k.Load(confmap.Provider(defaults(), "."), nil)

	if configPath != "" {
		if err := k.Load(file.Provider(configPath), toml.Parser()); err != nil {
			return nil, fmt.Errorf("error loading config: %w", err)
		}
	} else {
		for _, path := range []string{"./repo-agent.toml", "$HOME/.repo-agent.toml"} {
			path = os.ExpandEnv(path)
			if _, err := os.Stat(path); err == nil {
				if err := k.Load(file.Provider(path), toml.Parser()); err == nil {
					break
				}
			}
		}
	}

	k.Load(env.Provider("REPOAGENT_", ".", func(s string) string {
		return strings.Replace(strings.ToLower(strings.TrimPrefix(s, "REPOAGENT_")), "_", ".", -1)
	}), nil)

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("error unmarshalling config: %w", err)
	}
	return &cfg, nil
}

// Init writes a commented sample configuration to configPath.
func Init(configPath string) error {
	if _, err := os.Stat(configPath); err == nil {
		return fmt.Errorf("configuration file already exists at %s", configPath)
	}

	sample := `# repo-agent configuration

[server]
port = 8080
webhook_secret = ""

[github]
token = "your-github-token"
bot_name = "repo-agent"

[ai]
provider = "ollama"
base_url = "http://localhost:11434"
light_model = "qwen2.5-coder:7b"
heavy_model = "qwen2.5-coder:32b"
temperature = 0.2

[review]
auto = true
simple_change_threshold = 20
review_simple_changes = false
max_comments = 20
update_description = true

[log]
level = "info"
format = "console"
`

	return os.WriteFile(configPath, []byte(sample), 0644)
}

// Validate checks the fields the service cannot run without.
func (c *Config) Validate() error {
	switch c.AI.Provider {
	case "ollama":
		if c.AI.BaseURL == "" {
			return fmt.Errorf("ai.base_url is required for the ollama provider")
		}
	case "openai":
		if c.AI.APIKey == "" {
			return fmt.Errorf("ai.api_key is required for the openai provider")
		}
	default:
		return fmt.Errorf("unknown ai.provider %q (want ollama or openai)", c.AI.Provider)
	}

	if c.AI.LightModel == "" || c.AI.HeavyModel == "" {
		return fmt.Errorf("ai.light_model and ai.heavy_model are required")
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port %d out of range", c.Server.Port)
	}
	return nil
}
