// Package htmlutil provides HTML extraction helpers for profile pages that
// have no JSON API.
package htmlutil

import (
	"html"
	"regexp"
	"strconv"
	"strings"
	"sync"
)

var (
	tagPattern        = regexp.MustCompile(`<[^>]+>`)
	multiSpacePattern = regexp.MustCompile(`\s+`)

	// cellPatterns holds one compiled *regexp.Regexp per TableCell header.
	cellPatterns sync.Map
)

// StripTags removes HTML tags, decodes entities and collapses whitespace.
func StripTags(htmlContent string) string {
	if htmlContent == "" {
		return ""
	}
	content := tagPattern.ReplaceAllString(htmlContent, " ")
	content = html.UnescapeString(content)
	content = multiSpacePattern.ReplaceAllString(content, " ")
	return strings.TrimSpace(content)
}

// TableCell returns the plain text of the <td> that follows the <th> whose
// text starts with header, or "" when there is no such row. Matching is
// case-insensitive so "Rated Matches" also finds "Rated Matches <span>?</span>".
func TableCell(htmlContent, header string) string {
	m := cellPattern(header).FindStringSubmatch(htmlContent)
	if len(m) < 2 {
		return ""
	}
	return StripTags(m[1])
}

func cellPattern(header string) *regexp.Regexp {
	if re, ok := cellPatterns.Load(header); ok {
		return re.(*regexp.Regexp)
	}
	re := regexp.MustCompile(`(?is)<th[^>]*>\s*` + regexp.QuoteMeta(header) + `\b.*?</th>\s*<td[^>]*>(.*?)</td>`)
	actual, _ := cellPatterns.LoadOrStore(header, re)
	return actual.(*regexp.Regexp)
}

// TableInt returns the leading integer of TableCell, or nil when the cell is
// missing or does not start with a number.
func TableInt(htmlContent, header string) *int {
	cell := TableCell(htmlContent, header)
	end := 0
	for end < len(cell) && cell[end] >= '0' && cell[end] <= '9' {
		end++
	}
	if end == 0 {
		return nil
	}
	n, err := strconv.Atoi(cell[:end])
	if err != nil {
		return nil
	}
	return &n
}

// IsNotFound detects the "404 Not Found" or "Page not found" pages some sites
// serve with a 200 status.
func IsNotFound(text string) bool {
	lower := strings.ToLower(text)
	for _, p := range []string{"404 not found", "page not found", "user not found", "no such user"} {
		if strings.Contains(lower, p) {
			return true
		}
	}
	return false
}
