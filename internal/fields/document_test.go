package fields

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeStripsCarriageReturnsAndBlankLines(t *testing.T) {
	doc := Normalize("  Name: A\r\n\r\n\t\n  Address: 1 Main St  \r\nlast")

	assert.Equal(t, "  Name: A\n\n\t\n  Address: 1 Main St  \nlast", doc.Text)
	assert.Equal(t, []string{"Name: A", "Address: 1 Main St", "last"}, doc.Lines)
}

func TestNormalizeEmptyInput(t *testing.T) {
	doc := Normalize("")

	assert.Equal(t, "", doc.Text)
	assert.Empty(t, doc.Lines)
}

func TestNormalizeSplitsOnPageBreaks(t *testing.T) {
	doc := Normalize("page one\fpage two\vthree")

	assert.Equal(t, []string{"page one", "page two", "three"}, doc.Lines)
}

func TestIndexWithPrefixIsCaseInsensitive(t *testing.T) {
	doc := Normalize("header\nDIRECTIONS: rest\ndirections again")

	assert.Equal(t, 1, doc.indexWithPrefix("directions"))
	assert.Equal(t, -1, doc.indexWithPrefix("refill"))
}

func TestJoinFragmentsDropsEmptyParts(t *testing.T) {
	assert.Equal(t, "a b", joinFragments([]string{" ", "a ", "", " b"}))
	assert.Equal(t, "", joinFragments(nil))
}
