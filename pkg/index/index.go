package index

import (
	"bytes"
	_ "embed"
	"fmt"
	"html/template"
	"io"
	"path"
	"sort"
	"time"

	"github.com/dustin/go-humanize"

	"flickrdl/pkg/metadata"
	"flickrdl/pkg/storage"
)

//go:embed index.html.tmpl
var indexHTML string

var indexTemplate = template.Must(template.New("index").Funcs(template.FuncMap{
	"comma": func(n int) string { return humanize.Comma(int64(n)) },
}).Parse(indexHTML))

// Entry is one photo in the index
type Entry struct {
	ID          string
	Title       string
	Owner       string
	Taken       string
	PageURL     string
	MediaPath   string
	IsVideo     bool
	Description string
}

// DisplayTitle returns the title, or the photo ID for untitled photos
func (e Entry) DisplayTitle() string {
	if e.Title != "" {
		return e.Title
	}
	return "Untitled (" + e.ID + ")"
}

// Page is the data rendered into index.html
type Page struct {
	Title     string
	Generated time.Time
	Entries   []Entry
}

// FileWriter persists a file atomically
type FileWriter interface {
	WriteFile(path string, data []byte) error
}

// Build collects every archived photo of kind. Records come from the JSON in
// dataDir and media links from the files in photosDir, so photos archived by
// earlier runs are included. Entries are sorted newest first.
func Build(kind, dataDir, photosDir string) (*Page, []error) {
	records, errs := metadata.LoadRecords(dataDir)

	media, err := storage.ListMedia(photosDir)
	if err != nil {
		errs = append(errs, err)
		media = map[string]string{}
	}

	entries := make([]Entry, 0, len(records))
	for _, stored := range records {
		r := stored.Record
		entry := Entry{
			ID:          r.ID,
			Title:       r.Title,
			Owner:       r.OwnerName,
			Taken:       r.TakenDate,
			PageURL:     r.PageURL(),
			IsVideo:     r.IsVideo(),
			Description: r.DescriptionHTML,
		}
		if name, ok := media[r.ID]; ok {
			entry.MediaPath = path.Join("photos", name)
		}
		entries = append(entries, entry)
	}

	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].Taken != entries[j].Taken {
			return entries[i].Taken > entries[j].Taken
		}
		return entries[i].ID > entries[j].ID
	})

	return &Page{
		Title:     fmt.Sprintf("Flickr %s", kind),
		Generated: time.Now(),
		Entries:   entries,
	}, errs
}

// Render writes page as HTML to w
func Render(w io.Writer, page *Page) error {
	if err := indexTemplate.Execute(w, page); err != nil {
		return fmt.Errorf("failed to render index: %w", err)
	}
	return nil
}

// Write renders page and stores it at filename
func Write(filename string, files FileWriter, page *Page) error {
	var buf bytes.Buffer
	if err := Render(&buf, page); err != nil {
		return err
	}
	return files.WriteFile(filename, buf.Bytes())
}
