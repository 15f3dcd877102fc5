package index

// ZettelIndex is the set of index operations consumers depend on.
type ZettelIndex interface {
	UpsertZettel(z ZettelRow, body string, refs []string) error
	DeleteZettel(id string) error
	GetChecksum(id string) (string, error)
	GetZettel(id string) (*ZettelRow, error)
	ListZettels(limit, offset int) ([]ZettelRow, int, error)
	Search(query string, limit int) ([]SearchResult, error)
	Graph() ([]GraphNode, []GraphLink, error)
	Refs(source string) ([]string, error)
	Backlinks(target string) ([]string, error)
	AllChecksums() (map[string]string, error)
	Close() error
}

var _ ZettelIndex = (*DB)(nil)
