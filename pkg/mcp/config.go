package mcp

import (
	"strings"

	"github.com/knadh/koanf/providers/env"
	koanf "github.com/knadh/koanf/v2"
)

// FeatureConfig controls which capabilities are advertised during
// initialize, per spec.md §6.
type FeatureConfig struct {
	Resources  bool `koanf:"resources"`
	Tools      bool `koanf:"tools"`
	Prompts    bool `koanf:"prompts"`
	Sampling   bool `koanf:"sampling"`
	Logging    bool `koanf:"logging"`
	Completion bool `koanf:"completion"`
	Roots      bool `koanf:"roots"`
}

// DefaultFeatureConfig matches original_source/src/config.rs's defaults:
// every feature enabled except sampling/completion/roots, which require
// an external collaborator to be meaningful.
func DefaultFeatureConfig() FeatureConfig {
	return FeatureConfig{
		Resources: true,
		Tools:     true,
		Prompts:   true,
		Logging:   true,
	}
}

// AuthConfig is the shape of the auth collaborator's configuration; the
// core never loads or validates these fields itself (auth plumbing is
// out of scope per spec.md §1), it only carries them for a collaborator
// to consume.
type AuthConfig struct {
	Enabled      bool   `koanf:"enabled"`
	TokenURL     string `koanf:"token_url"`
	Introspect   string `koanf:"introspect_url"`
	ClientID     string `koanf:"client_id"`
	ClientSecret string `koanf:"client_secret"`
}

// Config is the top-level configuration surface consumed from
// collaborators, mirroring original_source/src/config.rs's Config
// struct. Loading it from a file is explicitly out of scope; callers may
// populate it however they like (flags, env, a koanf provider) and pass
// it to NewServer.
type Config struct {
	HTTP     HttpConfig    `koanf:"http"`
	Tools    ToolsConfig   `koanf:"tools"`
	Features FeatureConfig `koanf:"features"`
	Auth     AuthConfig    `koanf:"auth"`
}

// DefaultConfig returns the zero-configuration server.
func DefaultConfig() Config {
	return Config{
		HTTP:     DefaultHttpConfig(),
		Features: DefaultFeatureConfig(),
		Tools:    ToolsConfig{AutoDiscoverBuiltin: true, EnableAllByDefault: true},
	}
}

// LoadConfig starts from DefaultConfig and overlays environment variables
// prefixed MCPSERVER_ (e.g. MCPSERVER_HTTP_PORT). Loading a config file
// from disk is explicitly out of scope per spec.md §1's "TOML
// configuration loading" Non-goal; the Config/HttpConfig/ToolsConfig/
// FeatureConfig structs still carry koanf struct tags so a caller who
// wants file-based config can decode into them with koanf directly,
// without this function importing a file-loading code path itself.
func LoadConfig() (Config, error) {
	cfg := DefaultConfig()

	k := koanf.New(".")
	if err := k.Load(env.Provider("MCPSERVER_", ".", func(s string) string {
		lower := strings.ToLower(strings.TrimPrefix(s, "MCPSERVER_"))
		parts := strings.SplitN(lower, "_", 2)
		if len(parts) == 1 {
			return lower
		}
		return parts[0] + "." + parts[1]
	}), nil); err != nil {
		return cfg, ConfigErr("loading environment overrides: %v", err)
	}
	if err := k.Unmarshal("", &cfg); err != nil {
		return cfg, ConfigErr("applying environment overrides: %v", err)
	}

	return cfg, nil
}
