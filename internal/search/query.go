package search

import (
	"context"
	"fmt"
	"strings"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/search/query"
)

// Sort orders for SearchParams.SortBy.
const (
	SortRelevance = "relevance"
	SortRecent    = "recent"
	SortTitle     = "title"
)

// SearchParams configures a search query.
type SearchParams struct {
	Query string

	// Filters. Zero values are ignored.
	CategoryID int64
	Priority   string
	Status     string

	Limit  int
	Offset int

	SortBy    string
	SortOrder string

	IncludeFacets bool
	Highlight     bool
}

// DefaultSearchParams returns relevance-ordered params with facets.
func DefaultSearchParams() SearchParams {
	return SearchParams{
		Limit:         20,
		SortBy:        SortRelevance,
		SortOrder:     "desc",
		IncludeFacets: true,
		Highlight:     true,
	}
}

// SearchResult is a page of matching item ids.
type SearchResult struct {
	Query  string       `json:"query"`
	Total  uint64       `json:"total"`
	TookMs int64        `json:"took_ms"`
	Hits   []SearchHit  `json:"hits"`
	Facets SearchFacets `json:"facets,omitzero"`
}

// SearchHit is a single matching item.
type SearchHit struct {
	ID         string            `json:"id"`
	Score      float64           `json:"score"`
	Title      string            `json:"title"`
	Priority   string            `json:"priority,omitempty"`
	Status     string            `json:"status,omitempty"`
	Highlights map[string]string `json:"highlights,omitempty"`
}

// SearchFacets holds counts per priority and status.
type SearchFacets struct {
	Priorities []FacetCount `json:"priorities,omitempty"`
	Statuses   []FacetCount `json:"statuses,omitempty"`
}

// FacetCount is a facet value and its count.
type FacetCount struct {
	Value string `json:"value"`
	Count int    `json:"count"`
}

// Search runs params against the index.
func (s *ItemIndex) Search(ctx context.Context, params SearchParams) (*SearchResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if params.Limit <= 0 {
		params.Limit = DefaultSearchParams().Limit
	}

	req := bleve.NewSearchRequestOptions(buildSearchQuery(params), params.Limit, params.Offset, false)
	addSorting(req, params)
	if params.IncludeFacets {
		req.AddFacet("priority", bleve.NewFacetRequest("priority", 3))
		req.AddFacet("status", bleve.NewFacetRequest("status", 3))
	}
	if params.Highlight {
		req.Highlight = bleve.NewHighlight()
		req.Highlight.AddField("title")
	}
	req.Fields = []string{"title", "priority", "status"}

	res, err := s.index.SearchInContext(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("execute search: %w", err)
	}

	result := &SearchResult{
		Query:  params.Query,
		Total:  res.Total,
		TookMs: res.Took.Milliseconds(),
		Hits:   make([]SearchHit, 0, len(res.Hits)),
	}
	for _, hit := range res.Hits {
		h := SearchHit{ID: hit.ID, Score: hit.Score}
		h.Title, _ = hit.Fields["title"].(string)
		h.Priority, _ = hit.Fields["priority"].(string)
		h.Status, _ = hit.Fields["status"].(string)
		if len(hit.Fragments) > 0 {
			h.Highlights = make(map[string]string, len(hit.Fragments))
			for field, fragments := range hit.Fragments {
				if len(fragments) > 0 {
					h.Highlights[field] = fragments[0]
				}
			}
		}
		result.Hits = append(result.Hits, h)
	}

	if params.IncludeFacets {
		result.Facets = SearchFacets{
			Priorities: facetCounts(res, "priority"),
			Statuses:   facetCounts(res, "status"),
		}
	}
	return result, nil
}

// buildSearchQuery matches the text against title and description and ANDs
// in the filters.
func buildSearchQuery(params SearchParams) query.Query {
	var queries []query.Query

	if q := strings.TrimSpace(params.Query); q != "" {
		titleMatch := bleve.NewMatchQuery(q)
		titleMatch.SetField("title")
		titleMatch.SetBoost(3.0)

		descMatch := bleve.NewMatchQuery(q)
		descMatch.SetField("description")

		textQueries := []query.Query{titleMatch, descMatch}

		// Typo tolerance for single Latin words.
		if !strings.ContainsAny(q, " \t") && isASCII(q) && len(q) >= 4 {
			fuzzy := bleve.NewFuzzyQuery(strings.ToLower(q))
			fuzzy.SetField("title")
			fuzzy.SetFuzziness(1)
			fuzzy.SetBoost(0.5)
			textQueries = append(textQueries, fuzzy)
		}
		queries = append(queries, bleve.NewDisjunctionQuery(textQueries...))
	}

	if params.CategoryID > 0 {
		v := float64(params.CategoryID)
		inclusive := true
		rq := bleve.NewNumericRangeInclusiveQuery(&v, &v, &inclusive, &inclusive)
		rq.SetField("category_id")
		queries = append(queries, rq)
	}
	if params.Priority != "" {
		tq := bleve.NewTermQuery(params.Priority)
		tq.SetField("priority")
		queries = append(queries, tq)
	}
	if params.Status != "" {
		tq := bleve.NewTermQuery(params.Status)
		tq.SetField("status")
		queries = append(queries, tq)
	}

	switch len(queries) {
	case 0:
		return bleve.NewMatchAllQuery()
	case 1:
		return queries[0]
	default:
		return bleve.NewConjunctionQuery(queries...)
	}
}

func addSorting(req *bleve.SearchRequest, params SearchParams) {
	desc := params.SortOrder != "asc"
	switch params.SortBy {
	case SortRecent:
		if desc {
			req.SortBy([]string{"-created_at"})
		} else {
			req.SortBy([]string{"created_at"})
		}
	case SortTitle:
		if desc {
			req.SortBy([]string{"-title"})
		} else {
			req.SortBy([]string{"title"})
		}
	default:
		req.SortBy([]string{"-_score", "-created_at"})
	}
}

func facetCounts(res *bleve.SearchResult, field string) []FacetCount {
	facet, ok := res.Facets[field]
	if !ok || facet.Terms == nil {
		return nil
	}
	var out []FacetCount
	for _, term := range facet.Terms.Terms() {
		out = append(out, FacetCount{Value: term.Term, Count: term.Count})
	}
	return out
}

func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] >= 0x80 {
			return false
		}
	}
	return true
}
