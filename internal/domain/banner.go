package domain

import "strings"

type PoolKind string

const (
	PoolKindCharacter    PoolKind = "character-pool"
	PoolKindWeapon       PoolKind = "weapon-pool"
	PoolKindMixedArchive PoolKind = "mixed-archive-pool"
)

const (
	// UnknownBannerName marks a table whose title could not be located.
	UnknownBannerName = "unknown"
	// OtherVersionKey sorts below every real version key.
	OtherVersionKey = "other"
)

func (k PoolKind) String() string {
	return string(k)
}

func (k PoolKind) IsValid() bool {
	switch k {
	case PoolKindCharacter, PoolKindWeapon, PoolKindMixedArchive:
		return true
	default:
		return false
	}
}

// Substring markers checked against the lowercased banner name, weapon first.
var (
	weaponPoolMarkers  = []string{"武器", "weapon"}
	archivePoolMarkers = []string{"集录", "集錄", "chronicle", "archive"}
)

// ClassifyPoolKind derives the pool kind from a banner name.
func ClassifyPoolKind(name string) PoolKind {
	lower := strings.ToLower(name)
	if containsAny(lower, weaponPoolMarkers) {
		return PoolKindWeapon
	}
	if containsAny(lower, archivePoolMarkers) {
		return PoolKindMixedArchive
	}
	return PoolKindCharacter
}

func containsAny(s string, markers []string) bool {
	for _, m := range markers {
		if strings.Contains(s, m) {
			return true
		}
	}
	return false
}

// BannerRecord is one gacha banner as extracted from a wiki table.
type BannerRecord struct {
	Name          string   `json:"name"`
	Kind          PoolKind `json:"type"`
	VersionText   string   `json:"version"`
	VersionKey    string   `json:"version_key"`
	StartTime     string   `json:"start_time"`
	EndTime       string   `json:"end_time"`
	FiveStarItems []string `json:"five_stars"`
	FourStarItems []string `json:"four_stars"`
}

// NewBannerRecord returns a record with sentinel defaults and non-nil item lists.
func NewBannerRecord(name string) *BannerRecord {
	if strings.TrimSpace(name) == "" {
		name = UnknownBannerName
	}
	return &BannerRecord{
		Name:          name,
		Kind:          ClassifyPoolKind(name),
		VersionKey:    OtherVersionKey,
		FiveStarItems: []string{},
		FourStarItems: []string{},
	}
}

func (b *BannerRecord) IsKnown() bool {
	if b == nil {
		return false
	}
	return b.Name != "" && b.Name != UnknownBannerName
}

func (b *BannerRecord) HasVersionKey() bool {
	if b == nil {
		return false
	}
	return b.VersionKey != "" && b.VersionKey != OtherVersionKey
}
