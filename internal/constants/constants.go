package constants

import "time"

var CacheTTL = struct {
	GachaResult time.Duration
}{
	GachaResult: 5 * time.Minute, // freshness window of the /gacha payload
}

var RetryConfig = struct {
	MaxAttempts int
	Delay       time.Duration
}{
	MaxAttempts: 3,
	Delay:       5 * time.Second,
}

var CircuitBreakerConfig = struct {
	FailureThreshold int
	ResetTimeout     time.Duration
}{
	FailureThreshold: 5,                // consecutive page failures before OPEN
	ResetTimeout:     30 * time.Second, // OPEN -> HALF_OPEN
}

var WikiConfig = struct {
	HistoryURL   string
	ArchiveURL   string
	Timeout      time.Duration
	UserAgent    string
	MaxBodyBytes int64
}{
	HistoryURL:   "https://wiki.biligame.com/ys/往期祈愿",
	ArchiveURL:   "https://wiki.biligame.com/ys/集录祈愿",
	Timeout:      10 * time.Second,
	UserAgent:    "Mozilla/5.0 (compatible; GenshinGachaAPI/1.0)",
	MaxBodyBytes: 16 << 20,
}

// Markup markers of the two wiki pages. The history page wraps each banner
// table inside a decorative outer table; the archive page does not.
var WikiMarkup = struct {
	OuterTableSelector  string
	InnerTableSelector  string
	DirectTableSelector string
	TitleHeaderSelector string
	TitleSpanSelector   string
}{
	OuterTableSelector:  "table.wikitable",
	InnerTableSelector:  "table.ys-qy-table",
	DirectTableSelector: "table.wikitable",
	TitleHeaderSelector: "th.ys-qy-title",
	TitleSpanSelector:   "th[colspan]",
}

var AggregateConfig = struct {
	LatestVersions      int
	ParseWorkers        int
	ArchiveCharacterCap int
	ArchiveWeaponCap    int
}{
	LatestVersions:      2,
	ParseWorkers:        4,
	ArchiveCharacterCap: 10,
	ArchiveWeaponCap:    18,
}

var ServerConfig = struct {
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
}{
	ReadTimeout:     15 * time.Second,
	WriteTimeout:    90 * time.Second, // a cold /gacha may sit through every retry
	IdleTimeout:     60 * time.Second,
	ShutdownTimeout: 10 * time.Second,
}

var RedisConfig = struct {
	SnapshotKey  string
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}{
	SnapshotKey:  "genshin:gacha:snapshot",
	DialTimeout:  5 * time.Second,
	ReadTimeout:  3 * time.Second,
	WriteTimeout: 3 * time.Second,
}
