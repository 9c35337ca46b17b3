package config

// StoreConfig configures the SQLite booking store.
type StoreConfig struct {
	Path string `yaml:"path"`
}

// DefaultStoreConfig returns sensible defaults.
func DefaultStoreConfig() StoreConfig {
	return StoreConfig{Path: "freightlens.db"}
}
