package knowledge

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/hupe1980/kbchat/core"
	"github.com/hupe1980/kbchat/logging"
)

// sectionSeparator closes each rendered document section.
const sectionSeparator = "\n---\n\n"

// Options configure a DirSource.
type Options struct {
	// Extensions lists the file extensions treated as documents.
	Extensions []string
	// Logger receives skip warnings for unreadable documents.
	Logger logging.Logger
}

// DirSource is a read-only core.KnowledgeSource over a flat directory of
// text documents. Loads are performed fresh on every call; caching of the
// combined blob is the orchestrator's responsibility.
type DirSource struct {
	dir    string
	exts   map[string]struct{}
	logger logging.Logger
}

// NewDirSource creates a source reading documents from dir.
func NewDirSource(dir string, optFns ...func(o *Options)) *DirSource {
	opts := Options{
		Extensions: []string{".md", ".txt"},
		Logger:     logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	exts := make(map[string]struct{}, len(opts.Extensions))
	for _, e := range opts.Extensions {
		exts[strings.ToLower(e)] = struct{}{}
	}
	return &DirSource{dir: dir, exts: exts, logger: opts.Logger}
}

// ListDocuments implements core.KnowledgeSource.
func (s *DirSource) ListDocuments(ctx context.Context) ([]core.Document, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", core.ErrSourceUnavailable, s.dir, err)
	}
	docs := make([]core.Document, 0, len(entries))
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if _, ok := s.exts[strings.ToLower(filepath.Ext(name))]; !ok {
			continue
		}
		content, err := os.ReadFile(filepath.Join(s.dir, name))
		if err != nil {
			// A single unreadable document must not abort the load.
			s.logger.Warn("skipping unreadable document", "file", name, "error", err)
			continue
		}
		doc := core.Document{
			FileName: name,
			Title:    deriveTitle(string(content), name),
			Content:  string(content),
		}
		if info, err := entry.Info(); err == nil {
			doc.LastModified = info.ModTime()
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

// CombinedText implements core.KnowledgeSource.
func (s *DirSource) CombinedText(ctx context.Context) (string, error) {
	docs, err := s.ListDocuments(ctx)
	if err != nil {
		return "", err
	}
	// ReadDir returns sorted entries, but the ordering invariant belongs
	// here, not to the filesystem.
	sort.Slice(docs, func(i, j int) bool { return docs[i].FileName < docs[j].FileName })

	var b strings.Builder
	for _, doc := range docs {
		b.WriteString("## ")
		b.WriteString(doc.Title)
		b.WriteString("\nSource: ")
		b.WriteString(doc.FileName)
		b.WriteString("\n\n")
		b.WriteString(strings.TrimRight(doc.Content, "\n"))
		b.WriteString("\n")
		b.WriteString(sectionSeparator)
	}
	return b.String(), nil
}

// deriveTitle returns the first level-1 heading line of the content, or the
// file name without extension when no heading is present.
func deriveTitle(content, fileName string) string {
	for _, line := range strings.Split(content, "\n") {
		trimmed := strings.TrimSpace(line)
		if after, ok := strings.CutPrefix(trimmed, "# "); ok {
			return strings.TrimSpace(after)
		}
	}
	return strings.TrimSuffix(fileName, filepath.Ext(fileName))
}
