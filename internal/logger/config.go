// internal/logger/config.go
package logger

// Config controls where logs go and how verbose they are.
type Config struct {
	LogFile     string `mapstructure:"file"`
	MaxSize     int    `mapstructure:"max_size"`    // megabytes
	MaxAge      int    `mapstructure:"max_age"`     // days
	MaxBackups  int    `mapstructure:"max_backups"` // rotated files kept
	Compress    bool   `mapstructure:"compress"`
	Development bool   `mapstructure:"development"`
	// Console disables the stdout core when false, e.g. under the watch
	// view where stdout belongs to the terminal UI.
	Console bool `mapstructure:"console"`
}

// DefaultConfig returns production settings.
func DefaultConfig() *Config {
	return &Config{
		LogFile:     "logs/collector.log",
		MaxSize:     100,
		MaxAge:      7,
		MaxBackups:  3,
		Compress:    true,
		Development: false,
		Console:     true,
	}
}
