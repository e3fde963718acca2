package slots

import (
	"strings"

	"github.com/PuerkitoBio/goquery"

	domain "github.com/donaldgifford/slot-watcher/pkg/types"
)

const (
	// MaxCellsPerGroup bounds how many day cells are read from one month.
	MaxCellsPerGroup = 50

	cellSelector  = ".ui-datepicker-calendar td, .calendar td, table td"
	groupSelector = ".ui-datepicker-group"
	monthSelector = ".ui-datepicker-month"
)

// ParseHTML reads a rendered datepicker calendar. It reports false when the
// markup holds no day cell carrying a status class.
func ParseHTML(html string) (domain.Snapshot, bool) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return domain.Snapshot{}, false
	}

	fallbackMonth := strings.TrimSpace(doc.Find(monthSelector).First().Text())
	if fallbackMonth == "" {
		fallbackMonth = UnknownMonth
	}

	groups := doc.Find(groupSelector)
	if groups.Length() == 0 {
		groups = doc.Selection
	}

	var (
		slots      []domain.Slot
		classified bool
	)
	groups.Each(func(_ int, group *goquery.Selection) {
		month := strings.TrimSpace(group.Find(monthSelector).First().Text())
		if month == "" {
			month = fallbackMonth
		}

		group.Find(cellSelector).EachWithBreak(func(i int, cell *goquery.Selection) bool {
			if i >= MaxCellsPerGroup {
				return false
			}
			day := strings.TrimSpace(cell.Text())
			if !isDigits(day) {
				return true
			}
			st := cellStatus(cell)
			if st != domain.StatusUnknown {
				classified = true
			}
			slots = append(slots, domain.Slot{Key: month + " " + day + "日", Status: st})
			return true
		})
	})

	if !classified {
		return domain.Snapshot{}, false
	}
	return New(slots), true
}

func cellStatus(cell *goquery.Selection) domain.Status {
	class, _ := cell.Attr("class")
	switch {
	case cell.HasClass("status_1"):
		return domain.StatusFull
	case cell.HasClass("status_2"):
		return domain.StatusAlmostFull
	case cell.HasClass("status_3"):
		return domain.StatusAvailable
	case cell.HasClass("status_4"), strings.Contains(class, "disabled"):
		return domain.StatusUnavailable
	default:
		return domain.StatusUnknown
	}
}

// htmlLines flattens markup that is not a recognizable calendar into text
// lines for the line filter. Table rows become one line each.
func htmlLines(html string) []string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return strings.Split(html, "\n")
	}
	doc.Find("script, style, noscript").Remove()

	var lines []string
	doc.Find("tr").Each(func(_ int, row *goquery.Selection) {
		var cells []string
		row.Find("td, th").Each(func(_ int, c *goquery.Selection) {
			if t := strings.Join(strings.Fields(c.Text()), " "); t != "" {
				cells = append(cells, t)
			}
		})
		if len(cells) > 0 {
			lines = append(lines, strings.Join(cells, " "))
		}
	})
	doc.Find("table").Remove()

	lines = append(lines, strings.Split(doc.Text(), "\n")...)
	return lines
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
