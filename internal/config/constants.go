package config

// Cache backends accepted by CACHE_BACKEND.
const (
	BackendMemory = "memory"
	BackendFS     = "fs"
	BackendSQLite = "sqlite"
	BackendRedis  = "redis"
)

// Scoreboard sources accepted by SCOREBOARD_SOURCE.
const (
	SourceESPN    = "espn"
	SourceFixture = "fixture"
)

// Regular season length; weeks are 1-based.
const maxSeasonWeeks = 18
