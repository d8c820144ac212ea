// internal/navigator/navigator_test.go
package navigator

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/grantio/grantscraper/internal/config"
	"github.com/grantio/grantscraper/internal/fetch"
	"github.com/grantio/grantscraper/internal/selector"
	"github.com/grantio/grantscraper/internal/utils"
	"github.com/grantio/grantscraper/pkg/types"
)

// fakeFetcher serves pages from memory and records fetch counts.
type fakeFetcher struct {
	pages   map[string]string
	fetched map[string]int
}

func newFakeFetcher(pages map[string]string) *fakeFetcher {
	return &fakeFetcher{pages: pages, fetched: make(map[string]int)}
}

func (f *fakeFetcher) Fetch(ctx context.Context, url string) (*fetch.Response, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f.fetched[url]++
	body, ok := f.pages[url]
	if !ok {
		return nil, fmt.Errorf("%w: HTTP 404 for %s", fetch.ErrPermanent, url)
	}
	return &fetch.Response{
		URL:         url,
		StatusCode:  200,
		Body:        []byte(body),
		ContentType: "text/html",
		FetchedAt:   time.Now(),
	}, nil
}

func testDeps(src config.SourceConfig, fetcher fetch.Fetcher) Deps {
	return Deps{
		Source:  src,
		Fetcher: fetcher,
		Engine:  selector.NewEngine(utils.NewNopLogger()),
		Logger:  utils.NewNopLogger(),
	}
}

func collect(t *testing.T, nav Navigator) []types.GrantTarget {
	t.Helper()
	var targets []types.GrantTarget
	err := nav.Discover(context.Background(), func(target types.GrantTarget) bool {
		targets = append(targets, target)
		return true
	})
	if err != nil {
		t.Fatalf("Discover() error = %v", err)
	}
	return targets
}

func TestStaticNavigator(t *testing.T) {
	src := config.SourceConfig{
		ID:      "static-src",
		BaseURL: "https://a.cz",
		Navigator: config.NavigatorConfig{
			Type: config.NavigatorStatic,
			Targets: []config.StaticTarget{
				{URL: "https://a.cz/program", Title: "Program podpory"},
			},
		},
	}

	fetcher := newFakeFetcher(nil)
	nav, err := New(testDeps(src, fetcher))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	targets := collect(t, nav)
	if len(targets) != 1 {
		t.Fatalf("got %d targets, want 1", len(targets))
	}
	if targets[0].URL != "https://a.cz/program" || targets[0].Title != "Program podpory" {
		t.Errorf("unexpected target: %+v", targets[0])
	}
	if targets[0].SourceID != "static-src" {
		t.Errorf("SourceID = %q", targets[0].SourceID)
	}
	if len(fetcher.fetched) != 0 {
		t.Errorf("static navigator fetched %d pages, want 0", len(fetcher.fetched))
	}
	if targets[0].Metadata[MetaGrantType] != string(types.GrantTypeOngoingProgram) {
		t.Errorf("grant type tag = %q, want ongoing_program", targets[0].Metadata[MetaGrantType])
	}
}

func TestStaticNavigatorDefaultsToBaseURL(t *testing.T) {
	src := config.SourceConfig{
		ID:      "static-src",
		BaseURL: "https://a.cz/program",
		Navigator: config.NavigatorConfig{
			Type: config.NavigatorStatic,
		},
	}

	nav, err := New(testDeps(src, newFakeFetcher(nil)))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	targets := collect(t, nav)
	if len(targets) != 1 {
		t.Fatalf("got %d targets, want 1", len(targets))
	}
	if targets[0].URL != "https://a.cz/program" {
		t.Errorf("target URL = %q, want the base URL", targets[0].URL)
	}
}

func TestSingleLevelNavigatorPagination(t *testing.T) {
	pages := map[string]string{
		"https://a.cz/vyzvy": `<html><body>
			<ul><li><a class="d" href="/vyzvy/1">Výzva 1</a></li>
			<li><a class="d" href="/vyzvy/2">Výzva 2</a></li></ul>
			<a class="next" href="/vyzvy?page=2">Další</a>
		</body></html>`,
		"https://a.cz/vyzvy?page=2": `<html><body>
			<ul><li><a class="d" href="/vyzvy/3">Výzva 3</a></li>
			<li><a class="d" href="/vyzvy/1">Výzva 1 znovu</a></li></ul>
		</body></html>`,
	}

	src := config.SourceConfig{
		ID:      "mpo",
		BaseURL: "https://a.cz/vyzvy",
		Navigator: config.NavigatorConfig{
			Type:          config.NavigatorSingleLevel,
			LinkSelectors: []config.SelectorSpec{{Expr: "a.d"}},
			NextPage:      []config.SelectorSpec{{Expr: "a.next"}},
			MaxPages:      10,
		},
	}

	nav, err := New(testDeps(src, newFakeFetcher(pages)))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	targets := collect(t, nav)
	if len(targets) != 3 {
		t.Fatalf("got %d targets, want 3 (duplicate suppressed)", len(targets))
	}
	if targets[0].URL != "https://a.cz/vyzvy/1" {
		t.Errorf("first target URL = %q", targets[0].URL)
	}
	if targets[2].URL != "https://a.cz/vyzvy/3" {
		t.Errorf("third target URL = %q", targets[2].URL)
	}
	if targets[0].Title != "Výzva 1" {
		t.Errorf("first target title = %q", targets[0].Title)
	}
}

func TestSingleLevelNavigatorEarlyStop(t *testing.T) {
	pages := map[string]string{
		"https://a.cz/vyzvy": `<html><body>
			<a class="d" href="/vyzvy/1">1</a>
			<a class="d" href="/vyzvy/2">2</a>
			<a class="d" href="/vyzvy/3">3</a>
		</body></html>`,
	}

	src := config.SourceConfig{
		ID:      "mpo",
		BaseURL: "https://a.cz/vyzvy",
		Navigator: config.NavigatorConfig{
			Type:          config.NavigatorSingleLevel,
			LinkSelectors: []config.SelectorSpec{{Expr: "a.d"}},
			MaxPages:      1,
		},
	}

	nav, err := New(testDeps(src, newFakeFetcher(pages)))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	var count int
	err = nav.Discover(context.Background(), func(types.GrantTarget) bool {
		count++
		return count < 2
	})
	if err != nil {
		t.Fatalf("Discover() error = %v", err)
	}
	if count != 2 {
		t.Errorf("emitted %d targets after stop, want 2", count)
	}
}

func TestMultiLevelNavigator(t *testing.T) {
	pages := map[string]string{
		"https://a.cz/programy": `<html><body>
			<a class="prog" href="/programy/p1">Program 1</a>
			<a class="prog" href="/programy/p2">Program 2</a>
		</body></html>`,
		"https://a.cz/programy/p1": `<html><body>
			<a class="call" href="/vyzvy/11">Výzva 1.1</a>
			<a class="prog" href="/programy/p2">Souvisí: Program 2</a>
		</body></html>`,
		"https://a.cz/programy/p2": `<html><body>
			<a class="call" href="/vyzvy/21">Výzva 2.1</a>
			<a class="call" href="/vyzvy/22">Výzva 2.2</a>
		</body></html>`,
	}

	src := config.SourceConfig{
		ID:      "kraj",
		BaseURL: "https://a.cz/programy",
		Navigator: config.NavigatorConfig{
			Type: config.NavigatorMultiLevel,
			Levels: []config.LevelConfig{
				{LinkSelectors: []config.SelectorSpec{{Expr: "a.prog"}}},
				{LinkSelectors: []config.SelectorSpec{{Expr: "a.call"}}, Terminal: true},
			},
		},
	}

	fetcher := newFakeFetcher(pages)
	nav, err := New(testDeps(src, fetcher))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	targets := collect(t, nav)
	if len(targets) != 3 {
		t.Fatalf("got %d targets, want 3", len(targets))
	}

	// Program 2 is linked from both the overview and program 1; the
	// visited set must keep it to a single fetch.
	if got := fetcher.fetched["https://a.cz/programy/p2"]; got != 1 {
		t.Errorf("program 2 fetched %d times, want 1", got)
	}
	for _, target := range targets {
		if target.Depth != 1 {
			t.Errorf("target %s depth = %d, want 1", target.URL, target.Depth)
		}
	}
}

func TestMultiLevelNavigatorCycleSafety(t *testing.T) {
	// Two program pages linking to each other must not loop.
	pages := map[string]string{
		"https://a.cz/root": `<html><body><a class="p" href="/a">A</a></body></html>`,
		"https://a.cz/a":    `<html><body><a class="p" href="/b">B</a></body></html>`,
		"https://a.cz/b":    `<html><body><a class="p" href="/a">A again</a></body></html>`,
	}

	src := config.SourceConfig{
		ID:      "loop",
		BaseURL: "https://a.cz/root",
		Navigator: config.NavigatorConfig{
			Type: config.NavigatorMultiLevel,
			Levels: []config.LevelConfig{
				{LinkSelectors: []config.SelectorSpec{{Expr: "a.p"}}},
				{LinkSelectors: []config.SelectorSpec{{Expr: "a.p"}}},
				{LinkSelectors: []config.SelectorSpec{{Expr: "a.p"}}, Terminal: true},
			},
		},
	}

	fetcher := newFakeFetcher(pages)
	nav, err := New(testDeps(src, fetcher))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	done := make(chan []types.GrantTarget, 1)
	go func() {
		done <- collect(t, nav)
	}()

	select {
	case targets := <-done:
		// /a emits nothing at terminal depth because its only link
		// (/b) was already visited at depth 1.
		if len(targets) != 0 {
			t.Errorf("got %d targets from cycle, want 0", len(targets))
		}
	case <-time.After(5 * time.Second):
		t.Fatal("multi-level discovery did not terminate on cyclic links")
	}

	for url, count := range fetcher.fetched {
		if count > 1 {
			t.Errorf("page %s fetched %d times", url, count)
		}
	}
}

func TestDocumentNavigator(t *testing.T) {
	pages := map[string]string{
		"https://a.cz/dokumenty": `<html><body>
			<a class="doc" href="/files/vyzva-2026.pdf">Text výzvy 2026</a>
			<a class="doc" href="/files/priloha.docx">Příloha</a>
			<a class="doc" href="/dotace/detail">Detail (není soubor)</a>
		</body></html>`,
	}

	src := config.SourceConfig{
		ID:      "docs-src",
		BaseURL: "https://a.cz/dokumenty",
		Navigator: config.NavigatorConfig{
			Type:              config.NavigatorDocument,
			DocumentSelectors: []config.SelectorSpec{{Expr: "a.doc"}},
		},
	}

	nav, err := New(testDeps(src, newFakeFetcher(pages)))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	targets := collect(t, nav)
	if len(targets) != 2 {
		t.Fatalf("got %d targets, want 2 (non-file link skipped)", len(targets))
	}
	for _, target := range targets {
		if target.Metadata[MetaDocument] != "true" {
			t.Errorf("target %s missing document metadata", target.URL)
		}
	}
}

func TestHybridNavigator(t *testing.T) {
	pages := map[string]string{
		"https://a.cz/vyzvy": `<html><body>
			<a class="d" href="/vyzvy/1">Výzva 1</a>
			<a class="f" href="/files/vyzva-2.pdf">Výzva 2 (PDF)</a>
		</body></html>`,
	}

	src := config.SourceConfig{
		ID:      "hybrid-src",
		BaseURL: "https://a.cz/vyzvy",
		Navigator: config.NavigatorConfig{
			Type:              config.NavigatorHybrid,
			LinkSelectors:     []config.SelectorSpec{{Expr: "a.d"}},
			DocumentSelectors: []config.SelectorSpec{{Expr: "a.f"}},
			MaxPages:          1,
		},
	}

	nav, err := New(testDeps(src, newFakeFetcher(pages)))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	targets := collect(t, nav)
	if len(targets) != 2 {
		t.Fatalf("got %d targets, want 2", len(targets))
	}
	if targets[0].Metadata[MetaDocument] == "true" {
		t.Error("page target marked as document")
	}
	if targets[1].Metadata[MetaDocument] != "true" {
		t.Error("file target missing document metadata")
	}
	// Siblings from one listing carry the same navigation metadata.
	for i, target := range targets {
		if target.Metadata[MetaListing] != "https://a.cz/vyzvy" {
			t.Errorf("target %d listing metadata = %q", i, target.Metadata[MetaListing])
		}
	}
}

func TestNewUnknownType(t *testing.T) {
	src := config.SourceConfig{Navigator: config.NavigatorConfig{Type: "bogus"}}
	if _, err := New(testDeps(src, newFakeFetcher(nil))); err == nil {
		t.Error("New() with unknown type expected error")
	}
}
