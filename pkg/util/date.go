package util

import (
	"fmt"
	"strings"
	"time"
)

// dateTokens are replaced longest first so "YYYY" is not read as two "YY".
var dateTokens = strings.NewReplacer(
	"YYYY", "2006",
	"YY", "06",
	"MM", "01",
	"DD", "02",
	"hh", "15",
	"mm", "04",
	"ss", "05",
)

// FormatTime formats t with a template using the placeholders YYYY, YY, MM,
// DD, hh, mm and ss. The zero time formats as "".
//
//	FormatTime(t, "YYYY-MM-DD hh:mm") // "2023-11-10 00:00"
func FormatTime(t time.Time, tpl string) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(dateTokens.Replace(tpl))
}

// HumanDuration renders d with at most two units, e.g. "3d4h", "12m5s", "0s".
func HumanDuration(d time.Duration) string {
	if d < time.Second {
		return "0s"
	}
	d = d.Round(time.Second)

	units := []struct {
		size time.Duration
		name string
	}{
		{24 * time.Hour, "d"},
		{time.Hour, "h"},
		{time.Minute, "m"},
		{time.Second, "s"},
	}

	var b strings.Builder
	parts := 0
	for _, u := range units {
		if d < u.size && parts == 0 {
			continue
		}
		n := d / u.size
		d -= n * u.size
		if n > 0 {
			fmt.Fprintf(&b, "%d%s", n, u.name)
		}
		parts++
		if parts == 2 {
			break
		}
	}
	return b.String()
}
