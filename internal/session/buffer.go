package session

import (
	"strings"

	"github.com/bhandras/termroom/internal/termhtml"
)

// Buffer holds the decoded output of one session as an ordered list of
// markup fragments. Fragments are only ever appended, wholesale replaced by a
// history snapshot, or cleared.
//
// The zero value is an empty buffer using the default decoder.
type Buffer struct {
	decoder   termhtml.Decoder
	fragments []string
}

// NewBuffer returns an empty buffer that decodes chunks with d.
func NewBuffer(d termhtml.Decoder) Buffer {
	return Buffer{decoder: d}
}

// Append decodes chunk and adds it after the existing content.
func (b *Buffer) Append(chunk string) {
	markup := b.decoder.Decode(chunk)
	if markup == "" {
		return
	}
	b.fragments = append(b.fragments, markup)
}

// Replace discards everything and stores the decoded history blob.
func (b *Buffer) Replace(blob string) {
	// A fresh slice, so copies taken before the replace keep their content.
	b.fragments = nil
	if markup := b.decoder.Decode(blob); markup != "" {
		b.fragments = []string{markup}
	}
}

// Clear empties the buffer.
func (b *Buffer) Clear() {
	b.fragments = nil
}

// Content returns the concatenated markup.
func (b Buffer) Content() string {
	switch len(b.fragments) {
	case 0:
		return ""
	case 1:
		return b.fragments[0]
	default:
		return strings.Join(b.fragments, "")
	}
}

// Len returns the number of stored fragments.
func (b Buffer) Len() int { return len(b.fragments) }
