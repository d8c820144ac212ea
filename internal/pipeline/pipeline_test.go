// internal/pipeline/pipeline_test.go
package pipeline

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/grantio/grantscraper/internal/config"
	"github.com/grantio/grantscraper/internal/utils"
	"github.com/grantio/grantscraper/pkg/types"
)

func newGrantSite(t *testing.T) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/vyzvy", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html><body><ul class="calls">
			<li><a class="detail" href="/vyzvy/1">Výzva A</a></li>
			<li><a class="detail" href="/vyzvy/2">Výzva B</a></li>
		</ul></body></html>`)
	})
	mux.HandleFunc("/vyzvy/1", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html><body>
			<h1>Výzva A</h1>
			<p class="deadline">Uzávěrka: 30. 4. 2026</p>
			<p>Maximální výše podpory 5 mil. Kč.</p>
		</body></html>`)
	})
	mux.HandleFunc("/vyzvy/2", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html><body>
			<h1>Výzva B</h1>
			<p>Podrobnosti budou doplněny.</p>
		</body></html>`)
	})
	mux.HandleFunc("/program", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html><head><title>Program podpory sportu</title></head><body>
			<h1>Program podpory sportu</h1>
			<p>Žádosti přijímáme celoročně.</p>
		</body></html>`)
	})
	mux.HandleFunc("/agg", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html><body>
			<a class="detail" href="/agg/1">Výzva A</a>
		</body></html>`)
	})
	mux.HandleFunc("/agg/1", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html><body>
			<h1>Výzva A</h1>
			<p class="deadline">do 30. 4. 2026</p>
		</body></html>`)
	})

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func detailSource(id, tier, baseURL, listing string) config.SourceConfig {
	return config.SourceConfig{
		ID:                id,
		Name:              id,
		BaseURL:           baseURL + listing,
		Tier:              tier,
		RequestsPerSecond: 1000,
		Navigator: config.NavigatorConfig{
			Type:          config.NavigatorSingleLevel,
			LinkSelectors: []config.SelectorSpec{{Expr: "a.detail", Attr: "href"}},
			MaxPages:      1,
		},
		Parser: config.ParserConfig{
			Type: config.ParserHTMLDetail,
			Fields: map[string][]config.SelectorSpec{
				"title":    {{Expr: "h1"}},
				"deadline": {{Expr: ".deadline"}},
			},
			SkipDocuments: true,
		},
	}
}

func TestPipelineRun(t *testing.T) {
	server := newGrantSite(t)
	source := detailSource("mpo", config.TierPrimary, server.URL, "/vyzvy")
	source.Priority = 1

	p, err := New(source, Options{Logger: utils.NewNopLogger()})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	grants, report := p.Run(context.Background(), 0)
	if len(grants) != 2 {
		t.Fatalf("got %d grants, want 2: %+v", len(grants), report.Errors)
	}
	if report.Targets != 2 || report.Failed != 0 {
		t.Errorf("report = %+v", report)
	}

	byTitle := map[string]types.Grant{}
	for _, g := range grants {
		byTitle[g.Title] = g
	}

	a := byTitle["Výzva A"]
	if !a.HasDeadline() || a.Deadline.Format("2006-01-02") != "2026-04-30" {
		t.Errorf("Výzva A deadline = %v", a.Deadline)
	}
	if a.Funding.Max != 5_000_000 {
		t.Errorf("Výzva A funding max = %v", a.Funding.Max)
	}
	if a.Status != types.StatusOK {
		t.Errorf("Výzva A status = %s", a.Status)
	}

	b := byTitle["Výzva B"]
	if b.Status != types.StatusPartial {
		t.Errorf("Výzva B status = %s, want partial", b.Status)
	}
	if report.Partial != 1 {
		t.Errorf("report.Partial = %d, want 1", report.Partial)
	}
}

func TestPipelineStaticSourceScrapesBaseURL(t *testing.T) {
	server := newGrantSite(t)

	source := config.SourceConfig{
		ID:                "sport",
		Name:              "sport",
		BaseURL:           server.URL + "/program",
		Tier:              config.TierPrimary,
		RequestsPerSecond: 1000,
		Navigator:         config.NavigatorConfig{Type: config.NavigatorStatic},
		Parser: config.ParserConfig{
			Type:          config.ParserStaticPage,
			SkipDocuments: true,
		},
	}

	p, err := New(source, Options{Logger: utils.NewNopLogger()})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	grants, report := p.Run(context.Background(), 0)
	if len(grants) != 1 {
		t.Fatalf("got %d grants, want 1: %+v", len(grants), report.Errors)
	}

	g := grants[0]
	if g.Type != types.GrantTypeOngoingProgram {
		t.Errorf("type = %s, want ongoing_program", g.Type)
	}
	// An ongoing program without a deadline is complete, not partial.
	if g.Status != types.StatusOK {
		t.Errorf("status = %s, want ok", g.Status)
	}
	if g.Title != "Program podpory sportu" {
		t.Errorf("title = %q", g.Title)
	}
}

func TestPipelineMaxTargets(t *testing.T) {
	server := newGrantSite(t)
	source := detailSource("mpo", config.TierPrimary, server.URL, "/vyzvy")

	p, err := New(source, Options{Logger: utils.NewNopLogger()})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	grants, report := p.Run(context.Background(), 1)
	if report.Targets != 1 {
		t.Errorf("targets = %d, want 1", report.Targets)
	}
	if len(grants) != 1 {
		t.Errorf("grants = %d, want 1", len(grants))
	}
}

func TestPipelineDeadListing(t *testing.T) {
	server := newGrantSite(t)
	source := detailSource("mpo", config.TierPrimary, server.URL, "/missing")

	p, err := New(source, Options{Logger: utils.NewNopLogger()})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	grants, report := p.Run(context.Background(), 0)
	if len(grants) != 0 {
		t.Errorf("grants = %d, want 0", len(grants))
	}
	if len(report.Errors) == 0 {
		t.Error("report should record the discovery failure")
	}
}

func TestOrchestratorDeduplicatesAcrossSources(t *testing.T) {
	server := newGrantSite(t)

	primary := detailSource("mpo", config.TierPrimary, server.URL, "/vyzvy")
	primary.Priority = 1
	aggregator := detailSource("agg", config.TierAggregator, server.URL, "/agg")
	aggregator.Priority = 10

	cfg := &config.Config{
		Sources:     []config.SourceConfig{primary, aggregator},
		Concurrency: 2,
	}

	o := NewOrchestrator(cfg, utils.NewNopLogger())
	result, err := o.Run(context.Background(), RunOptions{})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if len(result.Grants) != 2 {
		t.Fatalf("got %d grants, want 2", len(result.Grants))
	}
	if result.Merged != 1 {
		t.Errorf("Merged = %d, want 1", result.Merged)
	}
	if len(result.Reports) != 2 {
		t.Errorf("Reports = %d, want 2", len(result.Reports))
	}

	for _, g := range result.Grants {
		if g.Title != "Výzva A" {
			continue
		}
		if len(g.SourceRefs) != 2 {
			t.Errorf("merged grant refs = %d, want 2", len(g.SourceRefs))
		}
		if g.PrimaryRef().SourceID != "mpo" {
			t.Errorf("canonical source = %s, want mpo", g.PrimaryRef().SourceID)
		}
	}
}

func TestOrchestratorModeGate(t *testing.T) {
	server := newGrantSite(t)

	primary := detailSource("mpo", config.TierPrimary, server.URL, "/vyzvy")
	aggregator := detailSource("agg", config.TierAggregator, server.URL, "/agg")

	cfg := &config.Config{
		Sources:     []config.SourceConfig{primary, aggregator},
		Concurrency: 2,
	}

	o := NewOrchestrator(cfg, utils.NewNopLogger())
	result, err := o.Run(context.Background(), RunOptions{Mode: ModeAggregator})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if len(result.Reports) != 1 || result.Reports[0].SourceID != "agg" {
		t.Errorf("Reports = %+v, want just agg", result.Reports)
	}
}

func TestOrchestratorSourceFilter(t *testing.T) {
	server := newGrantSite(t)

	cfg := &config.Config{
		Sources: []config.SourceConfig{
			detailSource("mpo", config.TierPrimary, server.URL, "/vyzvy"),
			detailSource("agg", config.TierAggregator, server.URL, "/agg"),
		},
		Concurrency: 2,
	}

	o := NewOrchestrator(cfg, utils.NewNopLogger())
	result, err := o.Run(context.Background(), RunOptions{Sources: []string{"mpo"}})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if len(result.Reports) != 1 || result.Reports[0].SourceID != "mpo" {
		t.Errorf("Reports = %+v, want just mpo", result.Reports)
	}

	if _, err := o.Run(context.Background(), RunOptions{Sources: []string{"nope"}}); err == nil {
		t.Error("empty selection expected error")
	}
}

func TestOrchestratorFailingSourceDoesNotAbort(t *testing.T) {
	server := newGrantSite(t)

	good := detailSource("mpo", config.TierPrimary, server.URL, "/vyzvy")
	bad := detailSource("dead", config.TierPrimary, server.URL, "/missing")

	cfg := &config.Config{
		Sources:     []config.SourceConfig{good, bad},
		Concurrency: 2,
	}

	o := NewOrchestrator(cfg, utils.NewNopLogger())
	result, err := o.Run(context.Background(), RunOptions{})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if len(result.Grants) != 2 {
		t.Errorf("grants = %d, want the good source's 2", len(result.Grants))
	}
	if result.Failures != 1 {
		t.Errorf("Failures = %d, want 1", result.Failures)
	}

	found := false
	for _, report := range result.Reports {
		if report.SourceID == "dead" {
			found = true
			if len(report.Errors) == 0 || !strings.Contains(report.Errors[0], "discovery") {
				t.Errorf("dead source errors = %v", report.Errors)
			}
		}
	}
	if !found {
		t.Error("dead source missing from reports")
	}
}
