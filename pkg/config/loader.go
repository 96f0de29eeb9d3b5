package config

import (
	"errors"
	"os"

	"github.com/kkyr/fig"
)

const (
	EnvPrefix = "RELAY"
	FileName  = "config.yaml"
)

// LoadConfig loads a configuration file into the given struct.
// The path param specifies a custom directory of the configuration file.
// Reads and puts environment variables with the prefix RELAY_.
// Params from the config should be in uppercase separated with _,
// i.e. RELAY_COORDINATOR_PRESENCE_THRESHOLD=45s.
// When no file is found only struct defaults and environment are used.
func LoadConfig(config any, path string) error {
	dirs := []string{path}
	if path == "" {
		dirs = append(dirs, ".", "configs", "../../configs")
		if home, err := os.UserHomeDir(); err == nil {
			dirs = append(dirs, home+"/.relay")
		}
	}
	err := fig.Load(config, fig.File(FileName), fig.Dirs(dirs...), fig.UseEnv(EnvPrefix))
	if errors.Is(err, fig.ErrFileNotFound) {
		return LoadConfigEnv(config)
	}
	return err
}

func LoadConfigEnv(config any) error {
	return fig.Load(config, fig.IgnoreFile(), fig.UseEnv(EnvPrefix))
}
