package corpus

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/nicemagician/nice-classification/internal/domain/entities"
)

func writeCSV(t *testing.T, name, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("writing fixture: %v", err)
	}
	return path
}

func TestAlphabeticalLoader(t *testing.T) {
	path := writeCSV(t, "alphabetical_list.csv",
		"term,description,class_number,language,basic_number\n"+
			"computers,data processing apparatus,9,en,120012\n"+
			"chaussettes,,25,fr,250051\n"+
			",missing term row,9,en,999\n")

	terms, err := AlphabeticalLoader{}.Load(context.Background(), path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	if len(terms) != 2 {
		t.Fatalf("expected 2 terms (empty-term row skipped), got %d", len(terms))
	}
	want := entities.ReferenceTerm{
		Term:        "computers",
		Description: "data processing apparatus",
		Class:       9,
		Language:    "en",
		Source:      "alphabetical",
		LocalID:     "120012",
	}
	if terms[0] != want {
		t.Errorf("got %+v, want %+v", terms[0], want)
	}
	if terms[1].Language != "fr" {
		t.Errorf("language column not preserved: %+v", terms[1])
	}
}

func TestIPOSLoader(t *testing.T) {
	path := writeCSV(t, "ipos_database.csv",
		"Goods and Services Description,Class No.\n"+
			"printed publications,16\n")

	terms, err := IPOSLoader{}.Load(context.Background(), path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if len(terms) != 1 || terms[0].Term != "printed publications" || terms[0].Class != 16 {
		t.Errorf("unexpected terms: %+v", terms)
	}
	if terms[0].Source != "ipos" {
		t.Errorf("source tag missing: %+v", terms[0])
	}
}

func TestUSPTOLoader_UnparseableClassKeptAsUnknown(t *testing.T) {
	path := writeCSV(t, "uspto_database.csv",
		"Description,Class\n"+
			"widgets,not-a-number\n"+
			"floats,9.0\n")

	terms, err := USPTOLoader{}.Load(context.Background(), path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if terms[0].Class != entities.ClassUnknown {
		t.Errorf("unparseable class should map to Unknown, got %d", terms[0].Class)
	}
	if terms[1].Class != 9 {
		t.Errorf("stored float class should collapse to 9, got %d", terms[1].Class)
	}
}

func TestMGSLoader(t *testing.T) {
	path := writeCSV(t, "mgs_note_class_09.csv",
		"term,description,class_number,language\n"+
			"downloadable software,computer programs,9,\n")

	terms, err := MGSLoader{}.Load(context.Background(), path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if len(terms) != 1 || terms[0].Language != "en" {
		t.Errorf("empty language should default to en: %+v", terms)
	}
}

func TestMultiLoader_UnknownSource(t *testing.T) {
	if _, err := NewMultiLoader().Load(context.Background(), "nowhere", "x.csv"); err == nil {
		t.Fatal("unknown source should error")
	}
}

func TestDetectSource(t *testing.T) {
	cases := map[string]string{
		"/data/alphabetical_list.csv":  SourceAlphabetical,
		"/data/ipos_database.csv":      SourceIPOS,
		"/data/USPTO_database.csv":     SourceUSPTO,
		"/data/mgs_note_class_09.csv":  SourceMGSNotes,
		"/data/unrelated_notes.csv":    "",
	}
	for path, want := range cases {
		if got := DetectSource(path); got != want {
			t.Errorf("DetectSource(%q) = %q, want %q", path, got, want)
		}
	}
}
