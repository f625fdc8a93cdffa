package gacha

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/kapu/genshin-gacha-api/internal/constants"
	"github.com/kapu/genshin-gacha-api/internal/domain"
	"github.com/kapu/genshin-gacha-api/internal/util"
	"go.uber.org/zap"
)

var fourDigitYear = regexp.MustCompile(`\d{4}`)

// VersionGroup keeps records per version key in insertion order.
type VersionGroup struct {
	keys   []string
	groups map[string][]*domain.BannerRecord
}

func NewVersionGroup() *VersionGroup {
	return &VersionGroup{groups: make(map[string][]*domain.BannerRecord)}
}

func (g *VersionGroup) Add(rec *domain.BannerRecord) {
	key := rec.VersionKey
	if IsOtherKey(key) {
		key = domain.OtherVersionKey
	}
	if _, ok := g.groups[key]; !ok {
		g.keys = append(g.keys, key)
	}
	g.groups[key] = append(g.groups[key], rec)
}

// Keys returns version keys in first-seen order.
func (g *VersionGroup) Keys() []string {
	return append([]string(nil), g.keys...)
}

func (g *VersionGroup) Records(key string) []*domain.BannerRecord {
	return g.groups[key]
}

func (g *VersionGroup) Len() int {
	return len(g.keys)
}

// Aggregate is the selected slice of one aggregation run.
type Aggregate struct {
	Versions []string
	Records  []*domain.BannerRecord
	Groups   *VersionGroup
	Kept     int
}

type Aggregator struct {
	latest int
	now    func() time.Time
	logger *zap.Logger
}

func NewAggregator(latest int, logger *zap.Logger) *Aggregator {
	if logger == nil {
		logger = zap.NewNop()
	}
	if latest < 1 {
		latest = constants.AggregateConfig.LatestVersions
	}
	return &Aggregator{
		latest: latest,
		now:    util.NowCST,
		logger: logger,
	}
}

// WithClock replaces the clock used for year qualification.
func (a *Aggregator) WithClock(now func() time.Time) *Aggregator {
	a.now = now
	return a
}

// WithLatest returns a copy selecting n version groups; n is clamped to at least 1.
func (a *Aggregator) WithLatest(n int) *Aggregator {
	clone := *a
	clone.latest = util.Max(1, n)
	return &clone
}

func (a *Aggregator) Latest() int {
	return a.latest
}

// Aggregate filters, normalises and groups records, then selects the newest
// version groups. It fails with *StructureChangedError when nothing was kept.
func (a *Aggregator) Aggregate(records []*domain.BannerRecord, parseErrors int) (*Aggregate, error) {
	year := a.now().Year()
	seen := make(map[string]struct{}, len(records))
	groups := NewVersionGroup()
	kept := 0

	for _, rec := range records {
		if !rec.IsKnown() {
			continue
		}
		if _, dup := seen[rec.Name]; dup {
			a.logger.Debug("Dropping duplicate banner", zap.String("name", rec.Name))
			continue
		}
		seen[rec.Name] = struct{}{}

		rec.StartTime = QualifyYear(rec.StartTime, year)
		rec.EndTime = QualifyYear(rec.EndTime, year)

		if IsOtherKey(rec.VersionKey) {
			rec.VersionKey = domain.OtherVersionKey
			if key, ok := InferVersionKey(rec.Name); ok {
				rec.VersionKey = key
			}
		}

		groups.Add(rec)
		kept++
	}

	if kept == 0 {
		return nil, &StructureChangedError{
			Message:     "No banner records kept - wiki structure may have changed",
			ParseErrors: parseErrors,
		}
	}

	ordered := SortVersionKeys(groups.Keys())
	selected := ordered[:util.Min(a.latest, len(ordered))]

	out := make([]*domain.BannerRecord, 0, kept)
	for _, key := range selected {
		out = append(out, groups.Records(key)...)
	}

	a.logger.Debug("Aggregated banners",
		zap.Int("kept", kept),
		zap.Strings("versions", ordered),
		zap.Strings("selected", selected))

	return &Aggregate{
		Versions: selected,
		Records:  out,
		Groups:   groups,
		Kept:     kept,
	}, nil
}

// QualifyYear prefixes year to a date lacking a four-digit year and turns its
// slashes into dashes, e.g. "01/21 15:59" -> "2025/01-21 15:59".
func QualifyYear(date string, year int) string {
	if date == "" || fourDigitYear.MatchString(date) {
		return date
	}
	return strconv.Itoa(year) + "/" + strings.ReplaceAll(date, "/", "-")
}

// StructureChangedError reports that the pages were fetched but no banner survived parsing.
type StructureChangedError struct {
	Message     string
	ParseErrors int
}

func (e *StructureChangedError) Error() string {
	return fmt.Sprintf("%s (parse errors: %d)", e.Message, e.ParseErrors)
}

func IsStructureError(err error) bool {
	var target *StructureChangedError
	return errors.As(err, &target)
}
