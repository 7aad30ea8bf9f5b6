package vexsync

// Target is a program season kept fresh by SyncActive.
type Target struct {
	Program int `json:"program" koanf:"program"`
	Season  int `json:"season" koanf:"season"`
}

// Config holds the configuration for an Engine.
type Config struct {
	// Concurrency bounds how many team groups are written at once.
	Concurrency int

	// NotifyRegistrations announces newly registered teams to the
	// subscribers of those teams.
	NotifyRegistrations bool

	// Active lists the program seasons SyncActive refreshes.
	Active []Target
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Concurrency: 4,
	}
}
