// internal/selector/engine.go

// Package selector evaluates configured selector chains against parsed
// HTML documents. A chain is tried in order and the first expression
// that yields a non-empty result wins, which lets configs survive site
// redesigns by listing the new selector before the old one.
package selector

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"sync"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"
	"github.com/antchfx/htmlquery"
	"golang.org/x/net/html"

	"github.com/grantio/grantscraper/internal/config"
	"github.com/grantio/grantscraper/internal/utils"
)

// Document is a parsed HTML page. The underlying node tree is shared
// between the CSS and XPath engines so a page is parsed exactly once.
type Document struct {
	base *url.URL
	root *html.Node
	gq   *goquery.Document
	raw  string
}

// Parse builds a Document from raw HTML. baseURL anchors relative
// link resolution and may be empty.
func Parse(baseURL string, body []byte) (*Document, error) {
	root, err := html.Parse(strings.NewReader(string(body)))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}

	doc := &Document{
		root: root,
		gq:   goquery.NewDocumentFromNode(root),
		raw:  string(body),
	}

	if baseURL != "" {
		base, err := url.Parse(baseURL)
		if err != nil {
			return nil, fmt.Errorf("invalid base URL %q: %w", baseURL, err)
		}
		doc.base = base
	}

	return doc, nil
}

// URL returns the document's base URL, empty when unknown.
func (d *Document) URL() string {
	if d.base == nil {
		return ""
	}
	return d.base.String()
}

// Resolve turns a possibly relative reference into an absolute URL.
// Unresolvable references come back unchanged.
func (d *Document) Resolve(ref string) string {
	ref = strings.TrimSpace(ref)
	if ref == "" || d.base == nil {
		return ref
	}
	parsed, err := url.Parse(ref)
	if err != nil {
		return ref
	}
	return d.base.ResolveReference(parsed).String()
}

// Text returns the whole document as plain text with collapsed
// whitespace. Keyword-based extraction runs against this.
func (d *Document) Text() string {
	return collapseSpace(d.gq.Text())
}

// Title returns the page title.
func (d *Document) Title() string {
	return collapseSpace(d.gq.Find("title").First().Text())
}

// Node is a sub-scope of a document, typically one table row. Chains
// evaluated against a Node only see its subtree.
type Node struct {
	doc *Document
	n   *html.Node
}

// Text returns the node's text content with collapsed whitespace.
func (n *Node) Text() string {
	return collapseSpace(goquery.NewDocumentFromNode(n.n).Text())
}

// Attr returns an attribute of the node itself.
func (n *Node) Attr(name string) string {
	return nodeValue(n.n, name)
}

// Engine evaluates selector chains. Malformed expressions are logged
// once per expression and then skipped for the rest of the run.
type Engine struct {
	logger utils.Logger

	mu     sync.Mutex
	warned map[string]bool
}

// NewEngine creates a selector engine.
func NewEngine(logger utils.Logger) *Engine {
	if logger == nil {
		logger = utils.NewNopLogger()
	}
	return &Engine{
		logger: logger,
		warned: make(map[string]bool),
	}
}

// Select evaluates the chain against the whole document and returns
// the first non-empty value.
func (e *Engine) Select(doc *Document, chain []config.SelectorSpec) (string, bool) {
	for _, spec := range chain {
		values := e.evaluate(doc, doc.root, spec, 1)
		if len(values) > 0 {
			return values[0], true
		}
	}
	return "", false
}

// SelectAll evaluates the chain and returns every value produced by
// the first expression that matches anything.
func (e *Engine) SelectAll(doc *Document, chain []config.SelectorSpec) []string {
	for _, spec := range chain {
		values := e.evaluate(doc, doc.root, spec, -1)
		if len(values) > 0 {
			return values
		}
	}
	return nil
}

// Nodes returns the matched elements themselves rather than their
// values, for callers that evaluate further chains inside each match.
func (e *Engine) Nodes(doc *Document, chain []config.SelectorSpec) []*Node {
	for _, spec := range chain {
		matched := e.matchNodes(doc, doc.root, spec)
		if len(matched) > 0 {
			nodes := make([]*Node, 0, len(matched))
			for _, n := range matched {
				nodes = append(nodes, &Node{doc: doc, n: n})
			}
			return nodes
		}
	}
	return nil
}

// SelectIn evaluates the chain inside a node's subtree.
func (e *Engine) SelectIn(node *Node, chain []config.SelectorSpec) (string, bool) {
	for _, spec := range chain {
		values := e.evaluate(node.doc, node.n, spec, 1)
		if len(values) > 0 {
			return values[0], true
		}
	}
	return "", false
}

// SelectAllIn evaluates the chain inside a node's subtree and returns
// every match of the first productive expression.
func (e *Engine) SelectAllIn(node *Node, chain []config.SelectorSpec) []string {
	for _, spec := range chain {
		values := e.evaluate(node.doc, node.n, spec, -1)
		if len(values) > 0 {
			return values
		}
	}
	return nil
}

// evaluate runs one spec against a scope. limit < 0 means all matches.
func (e *Engine) evaluate(doc *Document, scope *html.Node, spec config.SelectorSpec, limit int) []string {
	if spec.Kind == config.KindRegex {
		return e.evaluateRegex(doc, scope, spec, limit)
	}

	matched := e.matchNodes(doc, scope, spec)
	values := make([]string, 0, len(matched))
	for _, n := range matched {
		value := nodeValue(n, spec.Attr)
		if value == "" {
			continue
		}
		values = append(values, value)
		if limit > 0 && len(values) >= limit {
			break
		}
	}
	return values
}

func (e *Engine) matchNodes(doc *Document, scope *html.Node, spec config.SelectorSpec) []*html.Node {
	switch spec.Kind {
	case config.KindXPath:
		nodes, err := htmlquery.QueryAll(scope, spec.Expr)
		if err != nil {
			e.warnOnce(spec.Expr, "xpath", err)
			return nil
		}
		return nodes
	case config.KindCSS, "":
		sel, err := cascadia.Parse(spec.Expr)
		if err != nil {
			e.warnOnce(spec.Expr, "css", err)
			return nil
		}
		return cascadia.QueryAll(scope, sel)
	default:
		return nil
	}
}

// evaluateRegex matches against the scope's rendered text. The first
// capture group is returned when present, the whole match otherwise.
func (e *Engine) evaluateRegex(doc *Document, scope *html.Node, spec config.SelectorSpec, limit int) []string {
	re, err := regexp.Compile(spec.Expr)
	if err != nil {
		e.warnOnce(spec.Expr, "regex", err)
		return nil
	}

	var text string
	if scope == doc.root {
		text = doc.raw
	} else {
		text = (&Node{doc: doc, n: scope}).Text()
	}

	max := limit
	if max < 0 {
		max = -1
	}
	matches := re.FindAllStringSubmatch(text, max)

	values := make([]string, 0, len(matches))
	for _, m := range matches {
		value := m[0]
		if len(m) > 1 && m[1] != "" {
			value = m[1]
		}
		if value = strings.TrimSpace(value); value != "" {
			values = append(values, value)
		}
	}
	return values
}

func (e *Engine) warnOnce(expr, kind string, err error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.warned[expr] {
		return
	}
	e.warned[expr] = true
	e.logger.WithFields(map[string]interface{}{
		"kind": kind,
		"expr": expr,
	}).Warnf("skipping malformed selector: %v", err)
}

func nodeValue(n *html.Node, attr string) string {
	if attr != "" {
		for _, a := range n.Attr {
			if a.Key == attr {
				return strings.TrimSpace(a.Val)
			}
		}
		return ""
	}
	return collapseSpace(htmlquery.InnerText(n))
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
