// Package corpus provides CSV loaders for the reference corpora. Each
// knowledge source ships its own column layout; loaders normalize all of
// them into entities.ReferenceTerm.
package corpus

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/nicemagician/nice-classification/internal/domain/entities"
)

// Source names of the reference corpora.
const (
	SourceAlphabetical = "alphabetical"
	SourceIPOS         = "ipos"
	SourceUSPTO        = "uspto"
	SourceMGSNotes     = "mgs_notes"
)

// Loader parses one corpus file format into reference terms.
type Loader interface {
	// Load reads a corpus CSV from the given path.
	Load(ctx context.Context, path string) ([]entities.ReferenceTerm, error)

	// Source returns the knowledge source this loader feeds.
	Source() string
}

// AlphabeticalLoader reads the WIPO alphabetical list export:
// term, description, class_number, language, basic_number.
type AlphabeticalLoader struct{}

func (AlphabeticalLoader) Source() string { return SourceAlphabetical }

func (AlphabeticalLoader) Load(ctx context.Context, path string) ([]entities.ReferenceTerm, error) {
	return load(ctx, path, SourceAlphabetical, func(row record) entities.ReferenceTerm {
		return entities.ReferenceTerm{
			Term:        row.get("term"),
			Description: row.get("description"),
			Class:       entities.ParseClass(row.get("class_number")),
			Language:    defaultLang(row.get("language")),
			LocalID:     row.get("basic_number"),
		}
	})
}

// IPOSLoader reads the Singapore IPOS database export:
// "Goods and Services Description", "Class No.".
type IPOSLoader struct{}

func (IPOSLoader) Source() string { return SourceIPOS }

func (IPOSLoader) Load(ctx context.Context, path string) ([]entities.ReferenceTerm, error) {
	return load(ctx, path, SourceIPOS, func(row record) entities.ReferenceTerm {
		return entities.ReferenceTerm{
			Term:     row.get("Goods and Services Description"),
			Class:    entities.ParseClass(row.get("Class No.")),
			Language: "en",
		}
	})
}

// USPTOLoader reads the USPTO ID manual export: Description, Class.
type USPTOLoader struct{}

func (USPTOLoader) Source() string { return SourceUSPTO }

func (USPTOLoader) Load(ctx context.Context, path string) ([]entities.ReferenceTerm, error) {
	return load(ctx, path, SourceUSPTO, func(row record) entities.ReferenceTerm {
		return entities.ReferenceTerm{
			Term:     row.get("Description"),
			Class:    entities.ParseClass(row.get("Class")),
			Language: "en",
		}
	})
}

// MGSLoader reads Madrid Goods & Services note exports:
// term, description, class_number, language.
type MGSLoader struct{}

func (MGSLoader) Source() string { return SourceMGSNotes }

func (MGSLoader) Load(ctx context.Context, path string) ([]entities.ReferenceTerm, error) {
	return load(ctx, path, SourceMGSNotes, func(row record) entities.ReferenceTerm {
		return entities.ReferenceTerm{
			Term:        row.get("term"),
			Description: row.get("description"),
			Class:       entities.ParseClass(row.get("class_number")),
			Language:    defaultLang(row.get("language")),
		}
	})
}

// MultiLoader dispatches to the loader for a given source name.
type MultiLoader struct {
	loaders map[string]Loader
}

// NewMultiLoader creates a loader covering all four corpus formats.
func NewMultiLoader() *MultiLoader {
	return &MultiLoader{
		loaders: map[string]Loader{
			SourceAlphabetical: AlphabeticalLoader{},
			SourceIPOS:         IPOSLoader{},
			SourceUSPTO:        USPTOLoader{},
			SourceMGSNotes:     MGSLoader{},
		},
	}
}

// Load parses the file using the named source's format.
func (m *MultiLoader) Load(ctx context.Context, source, path string) ([]entities.ReferenceTerm, error) {
	loader, ok := m.loaders[source]
	if !ok {
		return nil, fmt.Errorf("no loader for source %q", source)
	}
	return loader.Load(ctx, path)
}

// DetectSource maps a corpus filename to its source by naming convention:
// alphabetical_list.csv, ipos_database.csv, uspto_database.csv,
// mgs_note_class_*.csv. Returns "" when the name matches nothing.
func DetectSource(path string) string {
	name := strings.ToLower(filepath.Base(path))
	switch {
	case strings.HasPrefix(name, "alphabetical"):
		return SourceAlphabetical
	case strings.HasPrefix(name, "ipos"):
		return SourceIPOS
	case strings.HasPrefix(name, "uspto"):
		return SourceUSPTO
	case strings.HasPrefix(name, "mgs_note"):
		return SourceMGSNotes
	}
	return ""
}

// record is one CSV row with header-keyed access.
type record struct {
	header map[string]int
	fields []string
}

func (r record) get(column string) string {
	i, ok := r.header[column]
	if !ok || i >= len(r.fields) {
		return ""
	}
	return strings.TrimSpace(r.fields[i])
}

// load reads a headered CSV and maps each row. Rows with an empty term are
// skipped; a missing or unparseable class keeps the row with ClassUnknown.
func load(ctx context.Context, path, source string, mapRow func(record) entities.ReferenceTerm) ([]entities.ReferenceTerm, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1 // tolerate ragged rows

	head, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("reading header of %s: %w", path, err)
	}
	header := make(map[string]int, len(head))
	for i, col := range head {
		header[strings.TrimSpace(col)] = i
	}

	var terms []entities.ReferenceTerm
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		fields, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", path, err)
		}
		t := mapRow(record{header: header, fields: fields})
		if t.Term == "" {
			continue
		}
		t.Source = source
		terms = append(terms, t)
	}
	return terms, nil
}

func defaultLang(lang string) string {
	if lang == "" {
		return "en"
	}
	return lang
}
