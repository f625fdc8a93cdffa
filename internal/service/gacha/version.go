package gacha

import (
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/kapu/genshin-gacha-api/internal/domain"
)

const lunarPrefix = "月之"

var (
	lunarVersionPattern   = regexp.MustCompile(`月之([一二三四五六七八九十]+|\d+)`)
	numericVersionPattern = regexp.MustCompile(`(\d+)\.(\d+)\s*(?:上半|下半)?`)
	numericKeyPattern     = regexp.MustCompile(`^(\d+)\.(\d+)$`)
	digitRunPattern       = regexp.MustCompile(`\d+`)
)

// bannerIndexVersions maps the wiki's three-digit banner index, as it appears in
// banner names, to a version key. It only covers indices observed on the pages
// and must be extended by hand when new banners ship without a version row.
var bannerIndexVersions = map[string]string{
	"125": "5.5",
	"126": "5.5",
	"127": "5.6",
	"128": "5.6",
	"129": "5.7",
	"130": "5.7",
	"131": "5.8",
	"132": "5.8",
	"133": "月之一",
	"134": "月之一",
	"135": "月之二",
	"136": "月之二",
}

var chineseDigits = map[rune]int{
	'一': 1, '二': 2, '三': 3, '四': 4, '五': 5,
	'六': 6, '七': 7, '八': 8, '九': 9,
}

var chineseNumerals = []rune{0, '一', '二', '三', '四', '五', '六', '七', '八', '九'}

// ParseVersionKey extracts a canonical key from a printed version string.
// A lunar month label wins over a numeric version when both are present and is
// spelled with Chinese numerals whatever the source used; the upper/lower half
// marker is dropped.
func ParseVersionKey(text string) (string, bool) {
	if m := lunarVersionPattern.FindStringSubmatch(text); m != nil {
		if n, ok := parseChineseNumber(m[1]); ok {
			return lunarKey(n), true
		}
	}
	if m := numericVersionPattern.FindStringSubmatch(text); m != nil {
		return m[1] + "." + m[2], true
	}
	return "", false
}

// InferVersionKey maps a banner-index substring of name to a version key.
func InferVersionKey(name string) (string, bool) {
	for _, run := range digitRunPattern.FindAllString(name, -1) {
		if len(run) != 3 {
			continue
		}
		if key, ok := bannerIndexVersions[run]; ok {
			return key, true
		}
	}
	return "", false
}

type keyClass int

const (
	classOther keyClass = iota
	classNumeric
	classLunar
)

type versionRank struct {
	class keyClass
	major int
	minor int
}

func rankVersionKey(key string) versionRank {
	if strings.HasPrefix(key, lunarPrefix) {
		if n, ok := parseChineseNumber(strings.TrimPrefix(key, lunarPrefix)); ok {
			return versionRank{class: classLunar, major: n}
		}
		return versionRank{class: classOther}
	}
	if m := numericKeyPattern.FindStringSubmatch(key); m != nil {
		major, errMajor := strconv.Atoi(m[1])
		minor, errMinor := strconv.Atoi(m[2])
		if errMajor == nil && errMinor == nil {
			return versionRank{class: classNumeric, major: major, minor: minor}
		}
	}
	return versionRank{class: classOther}
}

// CompareVersionKeys returns a positive number when a is newer than b, negative
// when older and zero when they rank equal. "other" and unrecognised keys rank
// lowest, numeric keys next, lunar month keys highest.
func CompareVersionKeys(a, b string) int {
	ra, rb := rankVersionKey(a), rankVersionKey(b)
	switch {
	case ra.class != rb.class:
		return int(ra.class) - int(rb.class)
	case ra.major != rb.major:
		return ra.major - rb.major
	default:
		return ra.minor - rb.minor
	}
}

// SortVersionKeys returns keys ordered newest first. Keys of equal rank keep
// their relative order.
func SortVersionKeys(keys []string) []string {
	sorted := append([]string(nil), keys...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return CompareVersionKeys(sorted[i], sorted[j]) > 0
	})
	return sorted
}

// IsOtherKey reports whether key is the catch-all sentinel or empty.
func IsOtherKey(key string) bool {
	return key == "" || key == domain.OtherVersionKey
}

// lunarKey spells month n as 月之<numeral>; months above 99 keep their digits.
func lunarKey(n int) string {
	if n < 1 || n > 99 {
		return lunarPrefix + strconv.Itoa(n)
	}
	var b strings.Builder
	b.WriteString(lunarPrefix)
	tens, ones := n/10, n%10
	if tens > 1 {
		b.WriteRune(chineseNumerals[tens])
	}
	if tens > 0 {
		b.WriteRune('十')
	}
	if ones > 0 {
		b.WriteRune(chineseNumerals[ones])
	}
	return b.String()
}

func parseChineseNumber(s string) (int, bool) {
	if s == "" {
		return 0, false
	}
	if n, err := strconv.Atoi(s); err == nil {
		return n, n > 0
	}

	runes := []rune(s)
	tenIdx := -1
	for i, r := range runes {
		if r == '十' {
			if tenIdx >= 0 {
				return 0, false
			}
			tenIdx = i
		} else if _, ok := chineseDigits[r]; !ok {
			return 0, false
		}
	}

	if tenIdx < 0 {
		if len(runes) != 1 {
			return 0, false
		}
		return chineseDigits[runes[0]], true
	}

	tens, ones := 1, 0
	switch tenIdx {
	case 0:
	case 1:
		tens = chineseDigits[runes[0]]
	default:
		return 0, false
	}
	switch len(runes) - tenIdx - 1 {
	case 0:
	case 1:
		ones = chineseDigits[runes[tenIdx+1]]
	default:
		return 0, false
	}
	return tens*10 + ones, true
}
