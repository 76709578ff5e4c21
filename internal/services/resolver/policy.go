// Package resolver implements the per-event cascade: given one search
// query, decide which source adapters to consult, in what order, with what
// fallbacks, and which candidate to accept.
package resolver

import (
	"fmt"

	"github.com/ternarybob/memoria/internal/models"
)

// Adapter identifiers used in policy tables. The wikipedia entry matches by
// prefix so the policy stays valid for any configured language edition.
const (
	adapterCommons   = "commons"
	adapterArchive   = "archive"
	adapterWikipedia = "wikipedia"
)

// defaultPolicy maps each category to its ordered adapter list.
//
// Global categories favor the language-agnostic image archives before the
// native-language encyclopedia: their subjects (products, discoveries,
// world events) photograph the same everywhere. Local categories lead with
// the national-archive search, whose collection covers domestic politics,
// sports and daily life far better than Commons at large.
var defaultPolicy = map[models.Category][]string{
	models.CategoryTechnology:    {adapterCommons, adapterWikipedia},
	models.CategoryScience:       {adapterCommons, adapterWikipedia},
	models.CategoryWorld:         {adapterCommons, adapterWikipedia},
	models.CategoryMusic:         {adapterCommons, adapterWikipedia},
	models.CategoryEntertainment: {adapterCommons, adapterWikipedia},
	models.CategoryPolitics:      {adapterArchive, adapterCommons, adapterWikipedia},
	models.CategorySports:        {adapterArchive, adapterCommons, adapterWikipedia},
	models.CategoryCulture:       {adapterArchive, adapterCommons, adapterWikipedia},
	models.CategoryLocal:         {adapterArchive, adapterCommons, adapterWikipedia},
	models.CategoryPersonal:      {adapterArchive, adapterCommons, adapterWikipedia},
	models.CategoryCelebrity:     {adapterCommons, adapterWikipedia},
}

// metadataFirstCategories are consulted against the person/movie metadata
// backend before the general cascade
var metadataFirstCategories = map[models.Category]bool{
	models.CategoryCelebrity:     true,
	models.CategoryMusic:         true,
	models.CategoryEntertainment: true,
}

// Policy is the validated category -> ordered adapter list table
type Policy map[models.Category][]string

// NewPolicy builds the cascade policy from defaults plus config overrides
// and validates it: every category must map to a non-empty list of known
// adapter identifiers. The policy is data, not control flow, so a bad table
// fails at startup instead of mis-routing at resolution time.
func NewPolicy(overrides map[string][]string, available []string) (Policy, error) {
	known := make(map[string]bool, len(available))
	for _, name := range available {
		known[name] = true
	}

	policy := make(Policy, len(defaultPolicy))
	for category, order := range defaultPolicy {
		policy[category] = order
	}

	for name, order := range overrides {
		category := models.Category(name)
		if !category.IsValid() {
			return nil, fmt.Errorf("cascade policy: unknown category %q", name)
		}
		policy[category] = order
	}

	for _, category := range models.AllCategories {
		order := policy[category]
		if len(order) == 0 {
			return nil, fmt.Errorf("cascade policy: category %q has no adapters", category)
		}
		for _, adapter := range order {
			if !known[adapter] {
				return nil, fmt.Errorf("cascade policy: category %q references unknown adapter %q", category, adapter)
			}
		}
	}

	return policy, nil
}

// OrderFor returns the adapter order for a category. Unknown categories use
// the world order so a malformed upstream event still resolves.
func (p Policy) OrderFor(category models.Category) []string {
	if order, ok := p[category]; ok {
		return order
	}
	return p[models.CategoryWorld]
}

// MetadataFirst reports whether the query should consult the metadata
// backend before the cascade: person/movie/poster databases are far more
// precise for those subject types.
func MetadataFirst(query *models.SearchQuery) bool {
	if query.IsCelebrity || query.IsMovie || query.IsTV || query.IsMusic {
		return true
	}
	return metadataFirstCategories[query.Category]
}
