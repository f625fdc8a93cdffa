package gacha

import (
	stderrors "errors"
	"fmt"
	"strings"
	"testing"

	"github.com/kapu/genshin-gacha-api/internal/domain"
	"github.com/kapu/genshin-gacha-api/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const characterBannerTable = `<table class="ys-qy-table">
<tr><th class="ys-qy-title" colspan="2"><img alt="浮生孰来" src="banner.png"></th></tr>
<tr><th>时间</th><td>2025/01/01 ~ 2025/01/21</td></tr>
<tr><th>版本</th><td>5.3上半</td></tr>
<tr><th>5星角色</th><td><a href="/m">玛薇卡</a> <a href="/x"> </a></td></tr>
<tr><th>4星角色</th><td><a>A</a><a>B</a><a>C</a></td></tr>
</table>`

func links(prefix string, n int) string {
	var b strings.Builder
	for i := 1; i <= n; i++ {
		fmt.Fprintf(&b, `<a href="/%s%d">%s%d</a>`, prefix, i, prefix, i)
	}
	return b.String()
}

func TestParseTableCharacterBanner(t *testing.T) {
	rec, err := ParseTable(mustSelection(t, characterBannerTable, "table"))
	require.NoError(t, err)

	assert.Equal(t, "浮生孰来", rec.Name)
	assert.Equal(t, domain.PoolKindCharacter, rec.Kind)
	assert.Equal(t, "2025/01/01", rec.StartTime)
	assert.Equal(t, "2025/01/21", rec.EndTime)
	assert.Equal(t, "5.3上半", rec.VersionText)
	assert.Equal(t, "5.3", rec.VersionKey)
	assert.Equal(t, []string{"玛薇卡"}, rec.FiveStarItems)
	assert.Equal(t, []string{"A", "B", "C"}, rec.FourStarItems)
}

func TestParseTableTitleFallsBackToSpanningHeaderText(t *testing.T) {
	html := `<table class="wikitable">
	<tr><th colspan="2"> 神铸赋形 Weapon Banner </th></tr>
	<tr><th>5星武器</th><td><a>Sword</a></td></tr>
	</table>`

	rec, err := ParseTable(mustSelection(t, html, "table"))
	require.NoError(t, err)
	assert.Equal(t, "神铸赋形 Weapon Banner", rec.Name)
	assert.Equal(t, domain.PoolKindWeapon, rec.Kind)
	assert.Equal(t, []string{"Sword"}, rec.FiveStarItems)
}

func TestParseTableWithoutTitleIsUnknown(t *testing.T) {
	html := `<table><tr><th>版本</th><td>5.1</td></tr></table>`

	rec, err := ParseTable(mustSelection(t, html, "table"))
	require.NoError(t, err)
	assert.Equal(t, domain.UnknownBannerName, rec.Name)
	assert.False(t, rec.IsKnown())
	assert.Equal(t, "5.1", rec.VersionKey)
}

func TestParseTableSkipsRowsMissingHeaderOrCell(t *testing.T) {
	html := `<table>
	<tr><th class="ys-qy-title">Banner</th></tr>
	<tr><th>5星角色</th></tr>
	<tr><td><a>orphan</a></td></tr>
	<tr><th>版本</th><td>5.2</td></tr>
	</table>`

	rec, err := ParseTable(mustSelection(t, html, "table"))
	require.NoError(t, err)
	assert.Equal(t, "Banner", rec.Name)
	assert.Empty(t, rec.FiveStarItems)
	assert.NotNil(t, rec.FiveStarItems)
	assert.Equal(t, "5.2", rec.VersionKey)
}

func TestParseTableArchiveFallbackCapsSections(t *testing.T) {
	html := `<table class="wikitable">
	<tr><th colspan="2">集录祈愿</th></tr>
	<tr><th>版本</th><td>月之一</td></tr>
	<tr><th>角色</th><td>` + links("c", 12) + `</td></tr>
	<tr><th>武器</th></tr>
	<tr><td>` + links("w", 20) + `</td></tr>
	</table>`

	rec, err := ParseTable(mustSelection(t, html, "table"))
	require.NoError(t, err)

	assert.Equal(t, domain.PoolKindMixedArchive, rec.Kind)
	require.Len(t, rec.FiveStarItems, 10+18)
	assert.Equal(t, "c1", rec.FiveStarItems[0])
	assert.Equal(t, "c10", rec.FiveStarItems[9])
	assert.Equal(t, "w1", rec.FiveStarItems[10])
	assert.Equal(t, "w18", rec.FiveStarItems[27])
}

func TestParseTableArchiveWithExplicitFiveStarSkipsFallback(t *testing.T) {
	html := `<table class="wikitable">
	<tr><th colspan="2">集录祈愿</th></tr>
	<tr><th>5星角色</th><td><a>Only</a></td></tr>
	<tr><th>角色</th><td>` + links("c", 3) + `</td></tr>
	</table>`

	rec, err := ParseTable(mustSelection(t, html, "table"))
	require.NoError(t, err)
	assert.Equal(t, []string{"Only"}, rec.FiveStarItems)
}

func TestParseTableWithoutRowsFails(t *testing.T) {
	_, err := ParseTable(mustSelection(t, `<div><table class="empty"></table></div>`, "table"))
	assert.Error(t, err)

	_, err = ParseTable(nil)
	assert.Error(t, err)
}

func TestParseTablesKeepsOrderAndReportsFailures(t *testing.T) {
	good := mustSelection(t, characterBannerTable, "table")
	empty := mustSelection(t, `<div><table></table></div>`, "table")

	located := []LocatedTable{
		{Source: "history", Index: 0, Table: good},
		{Source: "history", Index: 1, Table: empty},
		{Source: "archive", Index: 0, Table: good},
	}

	results := ParseTables(located, 4)
	require.Len(t, results, 3)

	require.NoError(t, results[0].Err)
	assert.Equal(t, "浮生孰来", results[0].Record.Name)

	var parseErr *errors.ParseError
	require.True(t, stderrors.As(results[1].Err, &parseErr))
	assert.Equal(t, "history", parseErr.Source)
	assert.Equal(t, 1, parseErr.TableIndex)
	assert.Nil(t, results[1].Record)

	require.NoError(t, results[2].Err)
	assert.NotSame(t, results[0].Record, results[2].Record)
}

func TestParseTablesWithZeroWorkers(t *testing.T) {
	results := ParseTables([]LocatedTable{{Table: mustSelection(t, characterBannerTable, "table")}}, 0)
	require.Len(t, results, 1)
	assert.NoError(t, results[0].Err)
}
