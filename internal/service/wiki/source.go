package wiki

// Layout describes how banner tables are nested on a wiki page.
type Layout int

const (
	// LayoutDirect pages carry banner tables at the top level.
	LayoutDirect Layout = iota
	// LayoutNested pages wrap every banner table inside a decorative outer table.
	LayoutNested
)

func (l Layout) String() string {
	switch l {
	case LayoutNested:
		return "nested"
	default:
		return "direct"
	}
}

type Source struct {
	Name   string
	URL    string
	Layout Layout
}

const (
	SourceHistory = "history"
	SourceArchive = "archive"
)

// DefaultSources returns the two pages in fetch order.
func DefaultSources(historyURL, archiveURL string) []Source {
	return []Source{
		{Name: SourceHistory, URL: historyURL, Layout: LayoutNested},
		{Name: SourceArchive, URL: archiveURL, Layout: LayoutDirect},
	}
}
