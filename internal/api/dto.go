package api

import (
	"github.com/starford/zk/internal/index"
	"github.com/starford/zk/internal/zettelservice"
)

// SaveZettelRequest is the request body for PUT /zettels/{id}.
type SaveZettelRequest struct {
	Content string `json:"content"`
}

// RenameRequest is the request body for POST /zettels/{id}/rename.
type RenameRequest struct {
	To string `json:"to"`
}

// RenameResponse reports the outcome of a rename.
type RenameResponse struct {
	ID        string   `json:"id"`
	Rewritten []string `json:"rewritten"`
}

// ZettelListResponse wraps paginated zettel listings.
type ZettelListResponse struct {
	Zettels []zettelservice.ZettelListItem `json:"zettels"`
	Total   int                            `json:"total"`
}

// SearchResponse wraps search results.
type SearchResponse struct {
	Results []index.SearchResult `json:"results"`
}

// GraphResponse wraps the reference graph.
type GraphResponse struct {
	Nodes []index.GraphNode `json:"nodes"`
	Links []index.GraphLink `json:"links"`
}
