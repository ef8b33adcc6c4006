package model

// AppConfig holds application-wide preferences.
type AppConfig struct {
	LogLevel   string          `mapstructure:"log_level" yaml:"log_level" json:"log_level"`       // debug, info, warn, error
	Stage      string          `mapstructure:"stage" yaml:"stage" json:"stage"`                   // default stage asset file
	SpawnSlots int             `mapstructure:"spawn_slots" yaml:"spawn_slots" json:"spawn_slots"` // spawn panel size
	Seed       uint64          `mapstructure:"seed" yaml:"seed" json:"seed"`                      // shuffle seed, 0 = random
	Inventory  InventoryConfig `mapstructure:"inventory" yaml:"inventory" json:"inventory"`
	Solver     SolverConfig    `mapstructure:"solver" yaml:"solver" json:"solver"`
}

// InventoryConfig sizes the player's inventory grid.
type InventoryConfig struct {
	Width  int `mapstructure:"width" yaml:"width" json:"width"`
	Height int `mapstructure:"height" yaml:"height" json:"height"`
}

// SolverConfig bounds the backtracking search used by the solve command.
type SolverConfig struct {
	MaxSteps int `mapstructure:"max_steps" yaml:"max_steps" json:"max_steps"`
}

// DefaultAppConfig returns an AppConfig populated with sensible defaults.
func DefaultAppConfig() AppConfig {
	return AppConfig{
		LogLevel:   "info",
		Stage:      "",
		SpawnSlots: 6,
		Seed:       0,
		Inventory:  InventoryConfig{Width: 10, Height: 10},
		Solver:     SolverConfig{MaxSteps: 200000},
	}
}
