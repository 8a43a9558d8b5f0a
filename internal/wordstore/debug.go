// file: internal/wordstore/debug.go
// version: 1.0.0
// guid: 4e6a1c93-2b8f-4d07-a5e3-9c1f7b0d8a24

package wordstore

import (
	"context"

	"github.com/jdfalk/speed-reader/internal/legacy"
)

// Diagnostics describes where a book's words currently live.
type Diagnostics struct {
	BookID          string
	ObjectChunks    int
	ObjectWords     int
	ObjectError     string
	LegacyAvailable bool
	Legacy          legacy.WordsInfo
}

// Debug inspects both backends for bookID without modifying anything.
func (f *Facade) Debug(ctx context.Context, bookID string) (d Diagnostics) {
	d = Diagnostics{BookID: bookID, Legacy: legacy.WordsInfo{Format: legacy.FormatNone}}
	defer f.recoverTo("debug", bookID)

	if f.store != nil {
		refs, err := f.store.ListChunkRefs(ctx)
		if err != nil {
			d.ObjectError = err.Error()
		} else {
			for _, r := range refs {
				if r.BookID == bookID {
					d.ObjectChunks++
				}
			}
		}
		if d.ObjectChunks > 0 {
			words, err := f.store.LoadWordChunks(ctx, bookID)
			if err != nil {
				d.ObjectError = err.Error()
			}
			d.ObjectWords = len(words)
		}
	}

	if f.legacy != nil {
		d.LegacyAvailable = f.legacy.IsAvailable()
		if d.LegacyAvailable {
			d.Legacy = f.legacy.InspectWords(bookID)
		}
	}

	f.log.Debug("storage for %s: %d chunks / %d words in object store, legacy %s (%d words)",
		bookID, d.ObjectChunks, d.ObjectWords, d.Legacy.Format, d.Legacy.TotalWords)
	return d
}
