package htmlutil

import "testing"

const table = `<table class="dl-table">
<tr><th class="no-break">Rank</th><td>12th</td></tr>
<tr><th class="no-break">Rating</th><td><span class="user-red">3779</span></td></tr>
<tr><th class="no-break">Rated Matches <span class="glyphicon" title="help"></span></th><td>  59 </td></tr>
<tr><th>Affiliation</th><td>ITMO &amp; Friends</td></tr>
</table>`

func TestTableCell(t *testing.T) {
	tests := []struct {
		header string
		want   string
	}{
		{"Rank", "12th"},
		{"Rating", "3779"},
		{"Rated Matches", "59"},
		{"Affiliation", "ITMO & Friends"},
		{"Birth Year", ""},
	}
	for _, tt := range tests {
		if got := TableCell(table, tt.header); got != tt.want {
			t.Errorf("TableCell(%q) = %q, want %q", tt.header, got, tt.want)
		}
	}
}

func TestTableInt(t *testing.T) {
	if got := TableInt(table, "Rank"); got == nil || *got != 12 {
		t.Errorf("TableInt(Rank) = %v, want 12", got)
	}
	if got := TableInt(table, "Affiliation"); got != nil {
		t.Errorf("TableInt(Affiliation) = %d, want nil", *got)
	}
	if got := TableInt(table, "Missing"); got != nil {
		t.Errorf("TableInt(Missing) = %d, want nil", *got)
	}
}

func TestStripTags(t *testing.T) {
	if got := StripTags("<b>2 Dan</b>\n  <i>&lt;x&gt;</i>"); got != "2 Dan <x>" {
		t.Errorf("StripTags() = %q", got)
	}
}

func TestIsNotFound(t *testing.T) {
	if !IsNotFound("<h1>404 Not Found</h1>") || !IsNotFound("Page not found") {
		t.Error("not-found pages not detected")
	}
	if IsNotFound("<title>tourist - AtCoder</title>") {
		t.Error("profile page detected as not found")
	}
}

func TestTableCellReusesPattern(t *testing.T) {
	first := cellPattern("Highest Rating")
	if second := cellPattern("Highest Rating"); second != first {
		t.Error("pattern for the same header compiled twice")
	}
	if cellPattern("Rating") == first {
		t.Error("different headers share a pattern")
	}

	allocs := testing.AllocsPerRun(20, func() { TableCell(table, "Birth Year") })
	if allocs > 10 {
		t.Errorf("TableCell allocates %.0f times per miss, pattern likely recompiled", allocs)
	}
}
