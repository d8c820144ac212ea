// internal/selector/engine_test.go
package selector

import (
	"testing"

	"github.com/grantio/grantscraper/internal/config"
	"github.com/grantio/grantscraper/internal/utils"
)

const sampleHTML = `
<html>
<head><title>Dotační výzvy</title></head>
<body>
  <h1 class="call-title">Podpora digitalizace podniků</h1>
  <div class="meta">
    <span class="deadline">Uzávěrka: 30. 4. 2026</span>
    <span class="amount">Alokace: 500 mil. Kč</span>
  </div>
  <ul class="call-list">
    <li><a class="detail" href="/vyzvy/1">Výzva I</a></li>
    <li><a class="detail" href="/vyzvy/2">Výzva II</a></li>
    <li><a class="detail" href="https://other.cz/vyzvy/3">Výzva III</a></li>
  </ul>
  <table id="grants">
    <tr><td class="name">Program A</td><td class="sum">1 000 000</td></tr>
    <tr><td class="name">Program B</td><td class="sum">2 000 000</td></tr>
  </table>
</body>
</html>`

func parseSample(t *testing.T) *Document {
	t.Helper()
	doc, err := Parse("https://mpo.gov.cz/dotace/", []byte(sampleHTML))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	return doc
}

func TestSelect(t *testing.T) {
	engine := NewEngine(utils.NewNopLogger())
	doc := parseSample(t)

	tests := []struct {
		name  string
		chain []config.SelectorSpec
		want  string
		found bool
	}{
		{
			name:  "css text",
			chain: []config.SelectorSpec{{Expr: "h1.call-title"}},
			want:  "Podpora digitalizace podniků",
			found: true,
		},
		{
			name:  "css attribute",
			chain: []config.SelectorSpec{{Expr: "a.detail", Attr: "href"}},
			want:  "/vyzvy/1",
			found: true,
		},
		{
			name:  "xpath text",
			chain: []config.SelectorSpec{{Kind: config.KindXPath, Expr: "//span[@class='deadline']"}},
			want:  "Uzávěrka: 30. 4. 2026",
			found: true,
		},
		{
			name:  "regex capture group",
			chain: []config.SelectorSpec{{Kind: config.KindRegex, Expr: `Alokace:\s*([0-9]+ mil\. Kč)`}},
			want:  "500 mil. Kč",
			found: true,
		},
		{
			name:  "no match",
			chain: []config.SelectorSpec{{Expr: ".does-not-exist"}},
			want:  "",
			found: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, found := engine.Select(doc, tt.chain)
			if found != tt.found {
				t.Fatalf("Select() found = %v, want %v", found, tt.found)
			}
			if got != tt.want {
				t.Errorf("Select() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestSelectFallbackChain(t *testing.T) {
	engine := NewEngine(utils.NewNopLogger())
	doc := parseSample(t)

	// The first selector targets a redesigned layout that this page
	// does not have yet; the second must take over.
	chain := []config.SelectorSpec{
		{Expr: ".new-sel"},
		{Expr: ".call-title"},
	}

	got, found := engine.Select(doc, chain)
	if !found {
		t.Fatal("Select() found nothing, fallback did not engage")
	}
	if got != "Podpora digitalizace podniků" {
		t.Errorf("Select() = %q, want fallback value", got)
	}
}

func TestSelectAll(t *testing.T) {
	engine := NewEngine(utils.NewNopLogger())
	doc := parseSample(t)

	hrefs := engine.SelectAll(doc, []config.SelectorSpec{{Expr: ".call-list a.detail", Attr: "href"}})
	if len(hrefs) != 3 {
		t.Fatalf("SelectAll() returned %d values, want 3", len(hrefs))
	}
	if hrefs[0] != "/vyzvy/1" {
		t.Errorf("first href = %q, want /vyzvy/1", hrefs[0])
	}
}

func TestMalformedSelectorSkipped(t *testing.T) {
	engine := NewEngine(utils.NewNopLogger())
	doc := parseSample(t)

	// Malformed CSS must not abort the chain.
	chain := []config.SelectorSpec{
		{Expr: "li:["},
		{Expr: "h1.call-title"},
	}

	got, found := engine.Select(doc, chain)
	if !found || got != "Podpora digitalizace podniků" {
		t.Errorf("Select() = %q, %v; malformed selector broke the chain", got, found)
	}
}

func TestNodesAndSelectIn(t *testing.T) {
	engine := NewEngine(utils.NewNopLogger())
	doc := parseSample(t)

	rows := engine.Nodes(doc, []config.SelectorSpec{{Expr: "#grants tr"}})
	if len(rows) != 2 {
		t.Fatalf("Nodes() returned %d rows, want 2", len(rows))
	}

	name, found := engine.SelectIn(rows[1], []config.SelectorSpec{{Expr: "td.name"}})
	if !found || name != "Program B" {
		t.Errorf("SelectIn() = %q, %v; want Program B", name, found)
	}
}

func TestResolve(t *testing.T) {
	doc := parseSample(t)

	tests := []struct {
		ref  string
		want string
	}{
		{"/vyzvy/1", "https://mpo.gov.cz/vyzvy/1"},
		{"detail?id=5", "https://mpo.gov.cz/dotace/detail?id=5"},
		{"https://other.cz/vyzvy/3", "https://other.cz/vyzvy/3"},
		{"", ""},
	}

	for _, tt := range tests {
		if got := doc.Resolve(tt.ref); got != tt.want {
			t.Errorf("Resolve(%q) = %q, want %q", tt.ref, got, tt.want)
		}
	}
}

func TestDocumentTitle(t *testing.T) {
	doc := parseSample(t)
	if got := doc.Title(); got != "Dotační výzvy" {
		t.Errorf("Title() = %q, want %q", got, "Dotační výzvy")
	}
}
