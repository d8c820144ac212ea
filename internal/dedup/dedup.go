// internal/dedup/dedup.go

// Package dedup merges grants scraped from multiple sources into one
// record per real-world grant. Identity is a content hash over the
// normalized title and deadline; when several sources see the same
// grant, the source with the lowest priority number wins and the
// others survive as references on the winning record.
package dedup

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strings"

	"github.com/grantio/grantscraper/internal/normalize"
	"github.com/grantio/grantscraper/pkg/types"
)

// ContentHash derives the identity of a grant from its normalized
// title and deadline. Two sources describing the same call produce the
// same hash even when casing and spacing differ.
func ContentHash(grant *types.Grant) string {
	title := strings.ToLower(normalize.CollapseWhitespace(grant.Title))

	deadline := ""
	if grant.HasDeadline() {
		deadline = normalize.FormatDate(grant.Deadline)
	}

	sum := sha256.Sum256([]byte(title + "|" + deadline))
	return hex.EncodeToString(sum[:])
}

type entry struct {
	grant types.Grant
	order int
}

// Deduplicator accumulates grants across sources and resolves
// duplicates by source priority.
type Deduplicator struct {
	entries map[string][]entry
	count   int
}

func New() *Deduplicator {
	return &Deduplicator{entries: make(map[string][]entry)}
}

// Add records a grant under its content hash. The grant's Priority
// carries its source's tier, lower numbers being more authoritative.
func (d *Deduplicator) Add(grant types.Grant) {
	hash := ContentHash(&grant)
	d.entries[hash] = append(d.entries[hash], entry{
		grant: grant,
		order: d.count,
	})
	d.count++
}

// Resolve returns one grant per content hash. The winning grant keeps
// all of its fields; losing duplicates contribute only their source
// references. Output order follows first appearance, so repeated runs
// over the same input produce identical results.
func (d *Deduplicator) Resolve() []types.Grant {
	type resolvedEntry struct {
		grant types.Grant
		first int
	}
	resolved := make([]resolvedEntry, 0, len(d.entries))

	for hash, group := range d.entries {
		sort.SliceStable(group, func(i, j int) bool {
			return group[i].grant.Priority < group[j].grant.Priority
		})

		winner := group[0].grant
		winner.ContentHash = hash
		first := group[0].order
		for _, e := range group[1:] {
			winner.SourceRefs = append(winner.SourceRefs, e.grant.SourceRefs...)
			if e.order < first {
				first = e.order
			}
		}

		resolved = append(resolved, resolvedEntry{grant: winner, first: first})
	}

	sort.Slice(resolved, func(i, j int) bool {
		return resolved[i].first < resolved[j].first
	})

	grants := make([]types.Grant, len(resolved))
	for i, e := range resolved {
		grants[i] = e.grant
	}
	return grants
}
