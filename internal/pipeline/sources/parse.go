package sources

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/net/html"
)

var dateLayouts = []string{
	"2006-01-02",
	"2006.01.02",
	"2006/01/02",
	"02.01.2006",
	"02/01/2006",
	"02-01-2006",
}

// looksLikeDate reports whether a cell token has the rough shape of a date:
// at least 8 characters, a separator, and digits.
func looksLikeDate(s string) bool {
	s = strings.TrimSpace(s)
	if len(s) < 8 {
		return false
	}
	if !strings.ContainsAny(s, "-./") {
		return false
	}
	return strings.ContainsAny(s, "0123456789")
}

// parseDate parses a date token against the known layouts and truncates it
// to a calendar date in UTC.
func parseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", s)
}

// groupedThousands matches numbers whose commas separate groups of three,
// like "90,000" or "-3,078.00".
var groupedThousands = regexp.MustCompile(`^-?\d{1,3}(,\d{3})+(\.\d+)?$`)

// parseNumber parses a human-formatted number: currency symbols and spaces
// are stripped, thousands separators removed, and a decimal comma converted
// to a decimal point.
func parseNumber(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	for _, junk := range []string{"zł", "PLN", "USD", "EUR", "$", "€", " ", " "} {
		s = strings.ReplaceAll(s, junk, "")
	}
	switch {
	case strings.Contains(s, ",") && strings.Contains(s, "."):
		// comma is the thousands separator
		s = strings.ReplaceAll(s, ",", "")
	case groupedThousands.MatchString(s):
		// comma groups of three without a period: "90,000" is ninety
		// thousand, not a decimal
		s = strings.ReplaceAll(s, ",", "")
	default:
		// comma, if any, is the decimal separator
		s = strings.ReplaceAll(s, ",", ".")
	}
	if s == "" || !strings.ContainsAny(s, "0123456789") {
		return decimal.Decimal{}, fmt.Errorf("no digits in %q", s)
	}
	return decimal.NewFromString(s)
}

// ── HTML tree helpers ──────────────────────────────────────────────────

// textContent collects the concatenated text of a node, trimmed.
func textContent(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return strings.TrimSpace(b.String())
}

// findAll returns every element node under root (root included) matching pred.
func findAll(root *html.Node, pred func(*html.Node) bool) []*html.Node {
	var out []*html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && pred(n) {
			out = append(out, n)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(root)
	return out
}

func isElement(n *html.Node, name string) bool {
	return n.Type == html.ElementNode && n.Data == name
}

func attrVal(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func hasClass(n *html.Node, class string) bool {
	for _, c := range strings.Fields(attrVal(n, "class")) {
		if c == class {
			return true
		}
	}
	return false
}

// closestAncestor walks up from n to the nearest ancestor element with the
// given tag name.
func closestAncestor(n *html.Node, name string) *html.Node {
	for p := n.Parent; p != nil; p = p.Parent {
		if isElement(p, name) {
			return p
		}
	}
	return nil
}
