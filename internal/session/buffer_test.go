package session

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/bhandras/termroom/internal/termhtml"
)

var chunkAlphabet = []rune("ab <>&;/\x1b[31m0\n\r")

func chunkGen() *rapid.Generator[string] {
	return rapid.StringOf(rapid.SampledFrom(chunkAlphabet))
}

func TestBuffer_AppendConcatenatesInOrder(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		chunks := rapid.SliceOf(chunkGen()).Draw(t, "chunks")

		var b Buffer
		var want strings.Builder
		for _, c := range chunks {
			b.Append(c)
			want.WriteString(termhtml.Decode(c))
		}
		if got := b.Content(); got != want.String() {
			t.Fatalf("content %q, want %q", got, want.String())
		}
	})
}

func TestBuffer_ReplaceDiscardsEarlierContent(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		before := rapid.SliceOf(chunkGen()).Draw(t, "before")
		blob := chunkGen().Draw(t, "blob")
		after := rapid.SliceOf(chunkGen()).Draw(t, "after")

		var b Buffer
		for _, c := range before {
			b.Append(c)
		}
		b.Replace(blob)

		want := termhtml.Decode(blob)
		for _, c := range after {
			b.Append(c)
			want += termhtml.Decode(c)
		}
		if got := b.Content(); got != want {
			t.Fatalf("content %q, want %q", got, want)
		}
	})
}

func TestBuffer_ClearEmpties(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		var b Buffer
		for _, c := range rapid.SliceOf(chunkGen()).Draw(t, "chunks") {
			if rapid.Bool().Draw(t, "history") {
				b.Replace(c)
			} else {
				b.Append(c)
			}
		}
		b.Clear()
		if b.Content() != "" || b.Len() != 0 {
			t.Fatalf("buffer not empty after clear: %q", b.Content())
		}
	})
}

func TestBuffer_HistoryScenario(t *testing.T) {
	t.Parallel()

	var b Buffer
	b.Append("a")
	b.Append("b")
	require.Equal(t, "ab", b.Content())
	require.Equal(t, 2, b.Len())

	b.Replace("<b>hi</b>")
	require.Equal(t, termhtml.Decode("<b>hi</b>"), b.Content())
	require.Equal(t, "<b>hi</b>", b.Content())
}

func TestBuffer_CopyKeepsContentAcrossReplace(t *testing.T) {
	t.Parallel()

	var b Buffer
	b.Append("one")
	snapshot := b
	b.Replace("two")
	require.Equal(t, "one", snapshot.Content())
	require.Equal(t, "two", b.Content())
}

func TestBuffer_ExpandEscapes(t *testing.T) {
	t.Parallel()

	b := NewBuffer(termhtml.Decoder{ExpandEscapes: true})
	b.Append(`\x1b[32mok\x1b[0m`)
	require.Equal(t, `<span style="color:#00bb00;">ok</span>`, b.Content())
}
