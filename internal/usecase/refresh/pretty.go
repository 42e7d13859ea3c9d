package refreshuc

import (
	"fmt"
	"sort"
	"strings"
	"text/tabwriter"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// groups thousands: 12,345
var counts = message.NewPrinter(language.English)

type SourceRow struct {
	Name  string
	Items int
	Err   error
}

func ansi(code string, s string) string { return "\x1b[" + code + "m" + s + "\x1b[0m" }

func green(s string) string { return ansi("32", s) }
func red(s string) string   { return ansi("31", s) }
func dim(s string) string   { return ansi("2", s) }

// FormatSummary renders SOURCE | STATUS | ITEMS for the cycle log.
func FormatSummary(rows []SourceRow) string {
	rows = append([]SourceRow(nil), rows...)
	sort.Slice(rows, func(i, j int) bool { return rows[i].Name < rows[j].Name })

	var b strings.Builder
	w := tabwriter.NewWriter(&b, 0, 2, 2, ' ', 0)
	fmt.Fprintln(w, "SOURCE\tSTATUS\tITEMS")
	total := 0
	for _, r := range rows {
		status := green("ok")
		if r.Err != nil {
			status = red("unavailable")
		}
		total += r.Items
		fmt.Fprintf(w, "%s\t%s\t%s\n", r.Name, status, counts.Sprintf("%d", r.Items))
	}
	fmt.Fprintf(w, "%s\t\t%s\n", dim("TOTAL"), dim(counts.Sprintf("%d", total)))
	_ = w.Flush()
	return b.String()
}
