package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
)

const (
	DefaultConfigFileName = "config.toml"
	DefaultDBName         = "tasks.db"
	DefaultLogName        = "grus.log"
	DefaultRootName       = "Inbox"
	DefaultIndent         = 4
)

type Keymap struct {
	Quit       string `toml:"quit"`
	Up         string `toml:"up"`
	Down       string `toml:"down"`
	Toggle     string `toml:"toggle"`
	Descend    string `toml:"descend"`
	Ascend     string `toml:"ascend"`
	Add        string `toml:"add"`
	Delete     string `toml:"delete"`
	Rename     string `toml:"rename"`
	DueDate    string `toml:"due_date"`
	AddSession string `toml:"add_session"`
	Link       string `toml:"link"`
	Import     string `toml:"import"`
	Export     string `toml:"export"`
	Confirm    string `toml:"confirm"`
	Cancel     string `toml:"cancel"`
}

type Config struct {
	DBPath   string `toml:"db_path"`
	LogPath  string `toml:"log_path"`
	LogLevel string `toml:"log_level"`
	RootName string `toml:"root_name"`
	Indent   int    `toml:"indent"`
	Glyphs   string `toml:"glyphs"`
	Mouse    bool   `toml:"mouse"`
	Keys     Keymap `toml:"keys"`
}

// ResolveConfigPath returns $GRUS_CONFIG when set, otherwise
// <user config dir>/grus/config.toml.
func ResolveConfigPath() string {
	if p := strings.TrimSpace(os.Getenv("GRUS_CONFIG")); p != "" {
		return p
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		return DefaultConfigFileName
	}
	return filepath.Join(dir, "grus", DefaultConfigFileName)
}

// LoadOrCreate reads the config at path, writing the defaults there first if
// the file does not exist. Relative db and log paths are resolved against the
// directory holding the config file.
func LoadOrCreate(path string) (Config, error) {
	cfg := defaultConfig()
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		if err := write(path, cfg); err != nil {
			return cfg, err
		}
		return cfg.resolve(filepath.Dir(path)), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}
	if cfg.DBPath == "" {
		cfg.DBPath = DefaultDBName
	}
	if cfg.RootName == "" {
		cfg.RootName = DefaultRootName
	}
	if cfg.Indent < 2 {
		cfg.Indent = DefaultIndent
	}
	return cfg.resolve(filepath.Dir(path)), nil
}

func (c Config) resolve(dir string) Config {
	if c.DBPath != ":memory:" && !strings.HasPrefix(c.DBPath, "file:") && !filepath.IsAbs(c.DBPath) {
		c.DBPath = filepath.Join(dir, c.DBPath)
	}
	if c.LogPath != "" && !filepath.IsAbs(c.LogPath) {
		c.LogPath = filepath.Join(dir, c.LogPath)
	}
	return c
}

func write(path string, cfg Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := toml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// Default returns the built-in configuration without touching the disk.
func Default() Config {
	return defaultConfig()
}

func defaultConfig() Config {
	return Config{
		DBPath:   DefaultDBName,
		LogPath:  DefaultLogName,
		LogLevel: "info",
		RootName: DefaultRootName,
		Indent:   DefaultIndent,
		Glyphs:   "unicode",
		Mouse:    true,
		Keys: Keymap{
			Quit:       "q",
			Up:         "k",
			Down:       "j",
			Toggle:     " ",
			Descend:    "l",
			Ascend:     "h",
			Add:        "a",
			Delete:     "d",
			Rename:     "r",
			DueDate:    "D",
			AddSession: "s",
			Link:       "L",
			Import:     "i",
			Export:     "x",
			Confirm:    "enter",
			Cancel:     "esc",
		},
	}
}
