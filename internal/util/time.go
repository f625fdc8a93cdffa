package util

import "time"

var cstLocation *time.Location

func init() {
	var err error
	cstLocation, err = time.LoadLocation("Asia/Shanghai")
	if err != nil {
		cstLocation = time.FixedZone("CST", 8*60*60)
	}
}

// NowCST is the wiki's wall clock; banner dates on the page are in this zone.
func NowCST() time.Time {
	return time.Now().In(cstLocation)
}

// FormatTimestamp renders t as RFC3339 in CST.
func FormatTimestamp(t time.Time) string {
	return t.In(cstLocation).Format(time.RFC3339)
}
