package gacha

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/kapu/genshin-gacha-api/internal/constants"
	"github.com/kapu/genshin-gacha-api/internal/domain"
	"github.com/kapu/genshin-gacha-api/internal/util"
	"github.com/kapu/genshin-gacha-api/pkg/errors"
	"github.com/sourcegraph/conc/iter"
)

var (
	characterSectionMarkers = []string{"角色", "人物", "character"}
	weaponSectionMarkers    = []string{"武器", "weapon"}
)

// TableResult is the outcome of parsing one located table.
type TableResult struct {
	Record *domain.BannerRecord
	Err    error
}

// LocatedTable pairs a table with where it was found, for error reporting.
type LocatedTable struct {
	Source string
	Index  int
	Table  *goquery.Selection
}

// ParseTable turns one banner table into a record. A table without a title
// yields a record named domain.UnknownBannerName, which the aggregator drops.
func ParseTable(table *goquery.Selection) (*domain.BannerRecord, error) {
	if table == nil || table.Length() == 0 {
		return nil, fmt.Errorf("empty table selection")
	}

	rows := table.Find("tr")
	if rows.Length() == 0 {
		return nil, fmt.Errorf("table has no rows")
	}

	title := findTitleHeader(table)
	rec := domain.NewBannerRecord(titleText(title))

	rows.Each(func(_ int, row *goquery.Selection) {
		th := row.Find("th").First()
		if th.Length() == 0 {
			return
		}
		td := row.Find("td").First()
		if td.Length() == 0 {
			return
		}
		ApplyField(MatchHeader(th.Text()), td, rec)
	})

	if rec.Kind == domain.PoolKindMixedArchive && len(rec.FiveStarItems) == 0 {
		rec.FiveStarItems = archiveFallbackItems(table, title)
	}

	return rec, nil
}

// ParseTables parses every table with at most workers goroutines. Results keep
// the order of tables; failures are returned as *errors.ParseError values.
func ParseTables(tables []LocatedTable, workers int) []TableResult {
	if workers < 1 {
		workers = 1
	}
	mapper := iter.Mapper[LocatedTable, TableResult]{MaxGoroutines: workers}
	return mapper.Map(tables, func(lt *LocatedTable) TableResult {
		return parseLocated(*lt)
	})
}

func parseLocated(lt LocatedTable) (result TableResult) {
	defer func() {
		if r := recover(); r != nil {
			result = TableResult{Err: errors.NewParseError("table parse panicked", lt.Source, lt.Index, fmt.Errorf("%v", r))}
		}
	}()

	rec, err := ParseTable(lt.Table)
	if err != nil {
		return TableResult{Err: errors.NewParseError("failed to parse banner table", lt.Source, lt.Index, err)}
	}
	return TableResult{Record: rec}
}

func findTitleHeader(table *goquery.Selection) *goquery.Selection {
	if th := table.Find(constants.WikiMarkup.TitleHeaderSelector).First(); th.Length() > 0 {
		return th
	}
	return table.Find(constants.WikiMarkup.TitleSpanSelector).First()
}

func titleText(th *goquery.Selection) string {
	if th == nil || th.Length() == 0 {
		return ""
	}
	if alt, ok := th.Find("img").First().Attr("alt"); ok && strings.TrimSpace(alt) != "" {
		return strings.TrimSpace(alt)
	}
	return strings.TrimSpace(th.Text())
}

// archiveFallbackItems reads five-star candidates from the character and weapon
// sections of a chronicle table that has no explicit five-star row.
func archiveFallbackItems(table, title *goquery.Selection) []string {
	items := []string{}
	if cell := sectionCell(table, title, characterSectionMarkers); cell != nil {
		items = append(items, util.Truncate(CollectLinkTexts(cell), constants.AggregateConfig.ArchiveCharacterCap)...)
	}
	if cell := sectionCell(table, title, weaponSectionMarkers); cell != nil {
		items = append(items, util.Truncate(CollectLinkTexts(cell), constants.AggregateConfig.ArchiveWeaponCap)...)
	}
	return items
}

// sectionCell finds the first non-title header containing one of markers and
// returns the next data cell: a sibling in the same row, else the first cell of
// a following row.
func sectionCell(table, title *goquery.Selection, markers []string) *goquery.Selection {
	var header *goquery.Selection
	table.Find("th").EachWithBreak(func(_ int, th *goquery.Selection) bool {
		if title != nil && title.Length() > 0 && th.IsSelection(title) {
			return true
		}
		if util.ContainsAny(util.Normalize(th.Text()), markers) {
			header = th
			return false
		}
		return true
	})
	if header == nil {
		return nil
	}

	if td := header.NextAllFiltered("td").First(); td.Length() > 0 {
		return td
	}

	var cell *goquery.Selection
	header.Closest("tr").NextAll().EachWithBreak(func(_ int, row *goquery.Selection) bool {
		if td := row.Find("td").First(); td.Length() > 0 {
			cell = td
			return false
		}
		return true
	})
	return cell
}
