// Package model defines the persistent data model for books, chapters and
// their cloud-side artifacts.
package model

import "time"

// DefaultVersion is assigned to books created locally.
const DefaultVersion = "1.0.0"

// Source records where a book originated.
type Source string

const (
	// SourceLocal marks a book that has never left this device.
	SourceLocal Source = "local"
	// SourceCloud marks a book that has been exported at least once.
	SourceCloud Source = "cloud"
	// SourceImported marks a book that originated from the remote store.
	SourceImported Source = "imported"
)

// SyncStatus tracks a book's position in the sync state machine.
type SyncStatus string

const (
	SyncLocalOnly SyncStatus = "local_only"
	SyncCloudOnly SyncStatus = "cloud_only"
	SyncInSync    SyncStatus = "in_sync"
	SyncOutOfSync SyncStatus = "out_of_sync"
)

// ChapterSyncStatus tracks whether a chapter's content has been pushed since
// its last local write.
type ChapterSyncStatus string

const (
	ChapterPending ChapterSyncStatus = "pending"
	ChapterSynced  ChapterSyncStatus = "synced"
)

// Chapter is the metadata for one chapter. FileName is derived once from the
// title and id at creation and never changes afterwards, even if the title
// does, so that the remote file name stays stable.
type Chapter struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	FileName string `json:"fileName"`
}

// Idea is a short ordered note attached to a chapter. Order values within a
// chapter's idea list are dense: 0..n-1 with no gaps.
type Idea struct {
	ID    string `json:"id"`
	Text  string `json:"text"`
	Order int    `json:"order"`
}

// Config holds a book's chapter set, chapter ordering and per-chapter idea
// lists. ChapterOrder is always a permutation of the ids in Chapters, and
// every chapter id has an entry in Ideas (possibly empty).
type Config struct {
	Chapters     map[string]Chapter `json:"chapters"`
	ChapterOrder []string           `json:"chapterOrder"`
	Ideas        map[string][]Idea  `json:"ideas"`
}

// NewConfig returns an empty, fully initialized Config.
func NewConfig() Config {
	return Config{
		Chapters:     make(map[string]Chapter),
		ChapterOrder: []string{},
		Ideas:        make(map[string][]Idea),
	}
}

// Normalize fills in nil maps and slices after JSON decoding.
func (c *Config) Normalize() {
	if c.Chapters == nil {
		c.Chapters = make(map[string]Chapter)
	}
	if c.ChapterOrder == nil {
		c.ChapterOrder = []string{}
	}
	if c.Ideas == nil {
		c.Ideas = make(map[string][]Idea)
	}
}

// Clone returns a deep copy of the config.
func (c Config) Clone() Config {
	out := Config{
		Chapters:     make(map[string]Chapter, len(c.Chapters)),
		ChapterOrder: make([]string, len(c.ChapterOrder)),
		Ideas:        make(map[string][]Idea, len(c.Ideas)),
	}
	for id, ch := range c.Chapters {
		out.Chapters[id] = ch
	}
	copy(out.ChapterOrder, c.ChapterOrder)
	for id, ideas := range c.Ideas {
		list := make([]Idea, len(ideas))
		copy(list, ideas)
		out.Ideas[id] = list
	}
	return out
}

// OrderedChapters returns the chapters in ChapterOrder sequence.
func (c Config) OrderedChapters() []Chapter {
	out := make([]Chapter, 0, len(c.ChapterOrder))
	for _, id := range c.ChapterOrder {
		if ch, ok := c.Chapters[id]; ok {
			out = append(out, ch)
		}
	}
	return out
}

// Book is the top-level document unit. ID is generated at local creation and
// reused forever, including after a cloud import.
type Book struct {
	ID                string     `json:"id"`
	Name              string     `json:"name"`
	Source            Source     `json:"source"`
	SyncStatus        SyncStatus `json:"syncStatus"`
	Config            Config     `json:"config"`
	LocalLastModified time.Time  `json:"localLastModified"`
	CloudLastModified *time.Time `json:"cloudLastModified,omitempty"`
	Version           string     `json:"version"`
	CloudFolderPath   string     `json:"cloudFolderPath,omitempty"`
}

// IndexEntry is one book's summary in the remote index.
type IndexEntry struct {
	Name         string    `json:"name"`
	FolderPath   string    `json:"folderPath"`
	LastModified time.Time `json:"lastModified"`
	Version      string    `json:"version"`
}

// BooksIndex is the single per-account directory file mapping book id to
// summary metadata, stored as books.json in the app folder.
type BooksIndex struct {
	Books       map[string]IndexEntry `json:"books"`
	LastUpdated time.Time             `json:"lastUpdated"`
}

// NewBooksIndex returns an empty index.
func NewBooksIndex() *BooksIndex {
	return &BooksIndex{Books: make(map[string]IndexEntry)}
}

// BookInfo is the per-book metadata file (info.json) in the remote store,
// the source of truth for pull and import.
type BookInfo struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Version      string    `json:"version"`
	CreatedAt    time.Time `json:"createdAt"`
	LastModified time.Time `json:"lastModified"`
	Config       Config    `json:"config"`
}

// ChapterFile pairs a chapter's immutable file name with its markdown content.
type ChapterFile struct {
	FileName string
	Content  []byte
}
