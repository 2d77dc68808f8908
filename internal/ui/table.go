package ui

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
)

// Table writes headers and rows as aligned columns. Cells may carry color codes.
func Table(w io.Writer, headers []string, rows [][]string) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)

	if len(headers) > 0 {
		styled := make([]string, len(headers))
		for i, h := range headers {
			styled[i] = Muted.color.Sprint(strings.ToUpper(h))
			if noColor() {
				styled[i] = strings.ToUpper(h)
			}
		}
		if _, err := fmt.Fprintln(tw, strings.Join(styled, "\t")); err != nil {
			return err
		}
	}

	for _, row := range rows {
		if _, err := fmt.Fprintln(tw, strings.Join(row, "\t")); err != nil {
			return err
		}
	}

	return tw.Flush()
}
