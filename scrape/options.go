// Package scrape extracts poll option identifiers from the student dashboard
// markup. The markup is not a stable contract; selectors are deliberately
// loose to survive small template changes.
package scrape

import (
	"fmt"
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Option is one selectable poll choice discovered in the page.
type Option struct {
	ID   string
	Text string
}

// pollSelector matches the poll controls the dashboard is known to render:
// named buttons, class-tagged buttons, and radio groups.
const pollSelector = `button[name="poll"], button.poll, input[type="radio"][name="poll"]`

// ExtractPollOptions parses dashboard markup and returns the poll options in
// document order. An empty slice means the page parsed fine but rendered no
// open poll.
func ExtractPollOptions(r io.Reader) ([]Option, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("parse dashboard markup: %w", err)
	}

	var options []Option
	doc.Find(pollSelector).Each(func(_ int, sel *goquery.Selection) {
		id, ok := sel.Attr("id")
		if !ok || id == "" {
			id, _ = sel.Attr("value")
		}
		text := strings.TrimSpace(sel.Text())
		if text == "" {
			text, _ = sel.Attr("value")
		}
		if id == "" && text == "" {
			return
		}
		if id == "" {
			id = text
		}
		options = append(options, Option{ID: id, Text: text})
	})

	return options, nil
}
