package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"github.com/trebuchet-org/treb-safe/internal/domain/config"
)

// ProjectFile marks the root of a treb-safe project
const ProjectFile = "safe.toml"

// Provider creates RuntimeConfig for Wire dependency injection
func Provider(v *viper.Viper) (*config.RuntimeConfig, error) {
	projectRoot := v.GetString("project_root")
	if projectRoot == "" {
		var err error
		projectRoot, err = FindProjectRoot()
		if err != nil {
			return nil, fmt.Errorf("failed to find project root: %w", err)
		}
	}

	cfg := &config.RuntimeConfig{
		ProjectRoot:    projectRoot,
		DataDir:        v.GetString("data_dir"),
		Debug:          v.GetBool("debug"),
		NonInteractive: v.GetBool("non_interactive"),
		JSON:           v.GetBool("json"),
		Timeout:        v.GetDuration("timeout"),
		ServiceURL:     v.GetString("service_url"),
		MetricsFile:    v.GetString("metrics_file"),
	}
	if cfg.DataDir == "" {
		cfg.DataDir = filepath.Join(projectRoot, ".treb-safe")
	}

	safeConfig, err := loadSafeConfig(projectRoot)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", ProjectFile, err)
	}
	cfg.SafeConfig = safeConfig

	// .env is loaded by now so PRIVATE_KEY may come from there
	cfg.PrivateKey = v.GetString("private_key")
	if cfg.PrivateKey == "" {
		cfg.PrivateKey = os.Getenv("PRIVATE_KEY")
	}

	resolver := NewNetworkResolver(safeConfig)
	switch {
	case v.GetString("rpc_url") != "":
		cfg.Network = resolver.FromURL(v.GetString("rpc_url"))
	case v.GetString("network") != "":
		network, err := resolver.Resolve(v.GetString("network"))
		if err != nil {
			return nil, err
		}
		cfg.Network = network
	}

	return cfg, nil
}

// FindProjectRoot walks up from the current directory looking for safe.toml.
// Without one the current directory is the project root.
func FindProjectRoot() (string, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return "", err
	}

	for dir := cwd; ; {
		if _, err := os.Stat(filepath.Join(dir, ProjectFile)); err == nil {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return cwd, nil
		}
		dir = parent
	}
}

// SetupViper creates and configures a viper instance
func SetupViper(projectRoot string, cmd *cobra.Command) *viper.Viper {
	v := viper.New()

	v.SetEnvPrefix("TREB_SAFE")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))

	v.SetDefault("timeout", "10m")
	v.SetDefault("debug", false)
	v.SetDefault("non_interactive", false)
	v.SetDefault("project_root", projectRoot)

	cmd.Flags().VisitAll(func(f *pflag.Flag) {
		if err := v.BindPFlag(strings.ReplaceAll(f.Name, "-", "_"), f); err != nil {
			panic(err)
		}
	})

	return v
}
