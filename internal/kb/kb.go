package kb

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	chromem "github.com/philippgille/chromem-go"
	"go.uber.org/zap"

	"campus-support-backend/internal/agent"
)

const collectionName = "college_rules"

// Store is the knowledge-base retrieval collaborator: a persistent chromem
// collection of college-rules passages, searched semantically per FAQ turn.
type Store struct {
	mu      sync.RWMutex
	db      *chromem.DB
	col     *chromem.Collection
	embedFn chromem.EmbeddingFunc
	log     *zap.Logger
}

// New opens (or creates) the persistent vector store at dataDir/kb/.
func New(dataDir, openAIKey string, log *zap.Logger) (*Store, error) {
	dir := filepath.Join(dataDir, "kb")
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("create kb dir: %w", err)
	}
	db, err := chromem.NewPersistentDB(dir, false)
	if err != nil {
		return nil, fmt.Errorf("open kb store: %w", err)
	}
	embedFn := chromem.NewEmbeddingFuncOpenAI(openAIKey, chromem.EmbeddingModelOpenAI3Small)
	col, err := db.GetOrCreateCollection(collectionName, nil, embedFn)
	if err != nil {
		return nil, fmt.Errorf("open kb collection: %w", err)
	}
	return &Store{db: db, col: col, embedFn: embedFn, log: log}, nil
}

// IndexFile loads a plain-text rules file, one passage per blank-line
// separated block, and upserts every passage. Safe to re-run on startup;
// passage ids are content-positional.
func (s *Store) IndexFile(ctx context.Context, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open rules file: %w", err)
	}
	defer f.Close()

	var (
		passages []string
		current  strings.Builder
	)
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			if current.Len() > 0 {
				passages = append(passages, current.String())
				current.Reset()
			}
			continue
		}
		if current.Len() > 0 {
			current.WriteString("\n")
		}
		current.WriteString(line)
	}
	if current.Len() > 0 {
		passages = append(passages, current.String())
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read rules file: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for i, p := range passages {
		doc := chromem.Document{
			ID:      fmt.Sprintf("passage-%04d", i),
			Content: p,
		}
		if err := s.col.AddDocument(ctx, doc); err != nil {
			return fmt.Errorf("index passage %d: %w", i, err)
		}
	}
	s.log.Info("knowledge base indexed", zap.Int("passages", len(passages)), zap.String("file", path))
	return nil
}

// Search returns up to topK passages ranked by similarity.
func (s *Store) Search(ctx context.Context, query string, topK int) ([]agent.Passage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.col.Count() == 0 {
		return nil, nil
	}
	if topK > s.col.Count() {
		topK = s.col.Count()
	}
	results, err := s.col.Query(ctx, query, topK, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("kb query: %w", err)
	}
	out := make([]agent.Passage, 0, len(results))
	for _, r := range results {
		out = append(out, agent.Passage{Content: r.Content, Score: r.Similarity})
	}
	return out, nil
}
