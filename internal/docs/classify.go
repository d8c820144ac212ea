// internal/docs/classify.go

// Package docs handles grant attachments: recognizing downloadable
// files, classifying them by purpose and pulling text or tabular data
// out of the ones we can read.
package docs

import (
	"net/url"
	"path"
	"strings"

	"github.com/grantio/grantscraper/internal/normalize"
	"github.com/grantio/grantscraper/pkg/types"
)

// documentExtensions are the file types collected from grant pages.
var documentExtensions = map[string]bool{
	".pdf":  true,
	".doc":  true,
	".docx": true,
	".xls":  true,
	".xlsx": true,
	".zip":  true,
	".odt":  true,
	".ods":  true,
	".rtf":  true,
}

// typePatterns map diacritics-folded keywords to document types. The
// order matters: the first pattern present in the link text wins, and
// the specific kinds come before the catch-all "příloha".
var typePatterns = []struct {
	keywords []string
	docType  types.DocumentType
}{
	{[]string{"text vyzvy", "zneni vyzvy", "vyhlaseni"}, types.DocTypeCallText},
	{[]string{"pokyny", "prirucka", "metodika", "navod"}, types.DocTypeGuidelines},
	{[]string{"vzor", "sablona", "formular"}, types.DocTypeTemplate},
	{[]string{"rozpocet", "financni plan"}, types.DocTypeBudget},
	{[]string{"caste dotazy", "faq", "otazky a odpovedi"}, types.DocTypeFAQ},
	{[]string{"rozhodnuti", "usneseni"}, types.DocTypeDecision},
	{[]string{"pravidla", "podminky", "zasady"}, types.DocTypeRules},
	{[]string{"priloha"}, types.DocTypeAnnex},
}

// IsDocumentURL reports whether a link points at a collectible file.
func IsDocumentURL(rawURL string) bool {
	return Extension(rawURL) != ""
}

// Extension returns the lowercased file extension of a URL when it is
// a collectible document type, empty otherwise.
func Extension(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	ext := strings.ToLower(path.Ext(parsed.Path))
	if documentExtensions[ext] {
		return ext
	}
	return ""
}

// Classify builds a Document from a link URL and its anchor text.
func Classify(rawURL, title string) types.Document {
	return types.Document{
		URL:       rawURL,
		Title:     normalize.CollapseWhitespace(title),
		Type:      classifyType(rawURL, title),
		Extension: strings.TrimPrefix(Extension(rawURL), "."),
	}
}

func classifyType(rawURL, title string) types.DocumentType {
	folded := strings.ToLower(normalize.FoldDiacritics(title + " " + rawURL))
	for _, p := range typePatterns {
		for _, kw := range p.keywords {
			if strings.Contains(folded, kw) {
				return p.docType
			}
		}
	}
	return types.DocTypeOther
}
