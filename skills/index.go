package skills

import (
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/standard"
	"github.com/blevesearch/bleve/v2/mapping"
)

// Index is a full-text capability index over skill profiles.
type Index struct {
	mu    sync.RWMutex
	index bleve.Index
}

// profileDocument is the indexed form of a Profile.
type profileDocument struct {
	Worker      string `json:"worker"`
	Skills      string `json:"skills"`
	Description string `json:"description"`
	Networks    string `json:"networks"`
}

// NewIndex opens or creates a capability index at path. An empty path
// creates a memory-only index.
func NewIndex(path string) (*Index, error) {
	m := buildIndexMapping()

	var idx bleve.Index
	var err error

	switch {
	case path == "":
		idx, err = bleve.NewMemOnly(m)
	default:
		if _, statErr := os.Stat(path); os.IsNotExist(statErr) {
			idx, err = bleve.New(path, m)
		} else {
			idx, err = bleve.Open(path)
		}
	}
	if err != nil {
		return nil, fmt.Errorf("open skills index: %w", err)
	}

	return &Index{index: idx}, nil
}

func buildIndexMapping() mapping.IndexMapping {
	doc := bleve.NewDocumentMapping()

	textField := bleve.NewTextFieldMapping()
	textField.Analyzer = standard.Name

	keywordField := bleve.NewKeywordFieldMapping()

	doc.AddFieldMappingsAt("worker", keywordField)
	doc.AddFieldMappingsAt("skills", textField)
	doc.AddFieldMappingsAt("description", textField)
	doc.AddFieldMappingsAt("networks", textField)

	m := bleve.NewIndexMapping()
	m.DefaultMapping = doc
	m.DefaultAnalyzer = standard.Name
	return m
}

// Put indexes or reindexes a worker's profile.
func (x *Index) Put(p Profile) error {
	if p.Worker == "" {
		return fmt.Errorf("worker name required")
	}

	doc := profileDocument{
		Worker:      p.Worker,
		Skills:      strings.Join(p.Skills, " "),
		Description: p.Description,
		Networks:    strings.Join(p.Networks, " "),
	}

	x.mu.Lock()
	defer x.mu.Unlock()
	if err := x.index.Index(p.Worker, doc); err != nil {
		return fmt.Errorf("index profile: %w", err)
	}
	return nil
}

// Remove deletes a worker from the index.
func (x *Index) Remove(worker string) error {
	x.mu.Lock()
	defer x.mu.Unlock()
	return x.index.Delete(worker)
}

// Hit is one discovery search result.
type Hit struct {
	Worker string
	Score  float64
}

// Search finds workers whose profiles match a free-form query, best
// match first.
func (x *Index) Search(queryText string, limit int) ([]Hit, error) {
	if limit <= 0 {
		limit = 10
	}

	q := bleve.NewMatchQuery(queryText)
	req := bleve.NewSearchRequest(q)
	req.Size = limit
	req.Fields = []string{"worker"}

	x.mu.RLock()
	res, err := x.index.Search(req)
	x.mu.RUnlock()
	if err != nil {
		return nil, fmt.Errorf("search skills: %w", err)
	}

	hits := make([]Hit, 0, len(res.Hits))
	for _, h := range res.Hits {
		hits = append(hits, Hit{Worker: h.ID, Score: h.Score})
	}
	return hits, nil
}

// Rebuild replaces the index contents with a registry's profiles.
func (x *Index) Rebuild(r *Registry) error {
	for _, worker := range r.Workers() {
		p, err := r.Get(worker)
		if err != nil {
			continue
		}
		if err := x.Put(p); err != nil {
			return err
		}
	}
	return nil
}

// Close releases the index.
func (x *Index) Close() error {
	return x.index.Close()
}
