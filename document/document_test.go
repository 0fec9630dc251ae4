package document_test

import (
	"testing"

	"github.com/datakit-io/datakit/document"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate(t *testing.T) {
	t.Run("structured document", func(t *testing.T) {
		doc := &document.Document{
			Title: "Report",
			Sections: []document.Section{
				{Heading: "Summary", Level: 1, Text: "All good."},
				{Table: [][]string{{"metric", "value"}, {"rows", "10"}}},
			},
		}
		require.NoError(t, doc.Validate())
	})

	t.Run("ragged section table rejected", func(t *testing.T) {
		doc := &document.Document{
			Sections: []document.Section{
				{Table: [][]string{{"a", "b"}, {"only one"}}},
			},
		}
		assert.Error(t, doc.Validate())
	})

	t.Run("negative heading level rejected", func(t *testing.T) {
		doc := &document.Document{Sections: []document.Section{{Heading: "x", Level: -1}}}
		assert.Error(t, doc.Validate())
	})
}

func TestConstructors(t *testing.T) {
	text := document.FromText("hello")
	assert.Equal(t, "hello", text.Body)
	assert.False(t, text.IsRaw())

	raw := document.FromBytes([]byte{0x50, 0x4b})
	assert.True(t, raw.IsRaw())
}
