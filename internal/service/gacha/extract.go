package gacha

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/kapu/genshin-gacha-api/internal/domain"
	"github.com/kapu/genshin-gacha-api/internal/util"
)

// Field identifies which record field a row header feeds.
type Field int

const (
	FieldNone Field = iota
	FieldPeriod
	FieldVersion
	FieldFiveStar
	FieldFourStar
)

func (f Field) String() string {
	switch f {
	case FieldPeriod:
		return "period"
	case FieldVersion:
		return "version"
	case FieldFiveStar:
		return "five_star"
	case FieldFourStar:
		return "four_star"
	default:
		return "none"
	}
}

type headerRule struct {
	field   Field
	markers []string
}

// Lowercase markers, checked in order; the first rule that matches owns the row.
// Star rules come first: item headers may also mention a time window.
var headerRules = []headerRule{
	{FieldFiveStar, []string{"5星", "五星", "★5", "5★", "5-star", "5 star", "five-star", "five star"}},
	{FieldFourStar, []string{"4星", "四星", "★4", "4★", "4-star", "4 star", "four-star", "four star"}},
	{FieldPeriod, []string{"时间", "時間", "期間", "期间", "time", "period", "duration"}},
	{FieldVersion, []string{"版本", "version"}},
}

var periodSeparators = []string{"~", "～", "至"}

// MatchHeader maps row header text to the field it describes.
func MatchHeader(header string) Field {
	normalized := util.Normalize(header)
	if normalized == "" {
		return FieldNone
	}
	for _, rule := range headerRules {
		if util.ContainsAny(normalized, rule.markers) {
			return rule.field
		}
	}
	return FieldNone
}

// SplitPeriod splits a date range at its earliest separator.
func SplitPeriod(text string) (start, end string, ok bool) {
	cut := -1
	sepLen := 0
	for _, sep := range periodSeparators {
		if idx := strings.Index(text, sep); idx >= 0 && (cut < 0 || idx < cut) {
			cut = idx
			sepLen = len(sep)
		}
	}
	if cut < 0 {
		return "", "", false
	}
	return strings.TrimSpace(text[:cut]), strings.TrimSpace(text[cut+sepLen:]), true
}

// CollectLinkTexts returns the trimmed text of every link in cell, skipping empty ones.
func CollectLinkTexts(cell *goquery.Selection) []string {
	names := []string{}
	if cell == nil {
		return names
	}
	cell.Find("a").Each(func(_ int, a *goquery.Selection) {
		if text := strings.TrimSpace(a.Text()); text != "" {
			names = append(names, text)
		}
	})
	return names
}

// ApplyField runs the extractor for field against cell and stores the result on rec.
// It reports whether rec was changed.
func ApplyField(field Field, cell *goquery.Selection, rec *domain.BannerRecord) bool {
	if rec == nil || cell == nil {
		return false
	}

	switch field {
	case FieldPeriod:
		start, end, ok := SplitPeriod(strings.TrimSpace(cell.Text()))
		if !ok {
			return false
		}
		rec.StartTime, rec.EndTime = start, end
		return true
	case FieldVersion:
		rec.VersionText = strings.TrimSpace(cell.Text())
		if key, ok := ParseVersionKey(rec.VersionText); ok {
			rec.VersionKey = key
		}
		return true
	case FieldFiveStar:
		rec.FiveStarItems = CollectLinkTexts(cell)
		return true
	case FieldFourStar:
		rec.FourStarItems = CollectLinkTexts(cell)
		return true
	default:
		return false
	}
}
