package wiki

import (
	"github.com/PuerkitoBio/goquery"
	"github.com/kapu/genshin-gacha-api/internal/constants"
)

// LocateTables returns every candidate banner table of doc in document order.
// Zero matches yield an empty slice.
func LocateTables(doc *goquery.Document, src Source) []*goquery.Selection {
	if doc == nil {
		return nil
	}

	var matches *goquery.Selection
	switch src.Layout {
	case LayoutNested:
		// Find on a multi-node selection de-duplicates, so tables inside
		// doubly-wrapped markup are only collected once.
		matches = doc.Find(constants.WikiMarkup.OuterTableSelector).
			Find(constants.WikiMarkup.InnerTableSelector)
	default:
		matches = doc.Find(constants.WikiMarkup.DirectTableSelector)
	}

	tables := make([]*goquery.Selection, 0, matches.Length())
	matches.Each(func(_ int, table *goquery.Selection) {
		tables = append(tables, table)
	})
	return tables
}
