package api_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/idilsaglam/wishlist/internal/api"
)

func TestDecodeList(t *testing.T) {
	t.Run("bare array", func(t *testing.T) {
		p := api.DecodeList([]byte(`[{"id":1,"title":"Bike"},{"id":2,"title":"Book"}]`))
		assert.Equal(t, api.ShapeArray, p.Shape)
		require.Len(t, p.Wishes(), 2)
		assert.Equal(t, "Book", p.Wishes()[1].Title)
	})

	t.Run("wishes envelope", func(t *testing.T) {
		p := api.DecodeList([]byte(`{"wishes":[{"id":1,"title":"Bike"}],"totalItems":7,"totalPages":1,"currentPage":0}`))
		assert.Equal(t, api.ShapeWishes, p.Shape)
		require.Len(t, p.Wishes(), 1)
		require.NotNil(t, p.TotalItems)
		assert.EqualValues(t, 7, *p.TotalItems)
	})

	t.Run("content envelope", func(t *testing.T) {
		p := api.DecodeList([]byte(`{"content":[{"id":1,"title":"Bike","completed":false}],"totalItems":1}`))
		assert.Equal(t, api.ShapeContent, p.Shape)
		wishes := p.Wishes()
		require.Len(t, wishes, 1)
		assert.EqualValues(t, 1, wishes[0].ID)
		assert.Equal(t, "Bike", wishes[0].Title)
	})

	t.Run("spring page metadata", func(t *testing.T) {
		p := api.DecodeList([]byte(`{"content":[],"totalElements":12,"number":1,"totalPages":2}`))
		assert.Equal(t, api.ShapeContent, p.Shape)
		assert.NotNil(t, p.Wishes())
		assert.Empty(t, p.Wishes())
		assert.EqualValues(t, 12, *p.TotalItems)
		assert.Equal(t, 1, *p.CurrentPage)
	})

	t.Run("wishes wins over content", func(t *testing.T) {
		p := api.DecodeList([]byte(`{"wishes":[{"id":1}],"content":[{"id":2},{"id":3}]}`))
		assert.Equal(t, api.ShapeWishes, p.Shape)
		assert.Len(t, p.Wishes(), 1)
	})

	t.Run("non array wishes field falls through to content", func(t *testing.T) {
		p := api.DecodeList([]byte(`{"wishes":"nope","content":[{"id":2}]}`))
		assert.Equal(t, api.ShapeContent, p.Shape)
		assert.Len(t, p.Wishes(), 1)
	})

	for name, body := range map[string]string{
		"empty body":      ``,
		"null":            `null`,
		"scalar":          `42`,
		"string":          `"wishes"`,
		"other object":    `{"items":[{"id":1}]}`,
		"non array field": `{"wishes":{"id":1}}`,
		"malformed":       `[{"id":`,
		"odd metadata":    `{"items":[],"totalItems":"many"}`,
	} {
		t.Run(name, func(t *testing.T) {
			p := api.DecodeList([]byte(body))
			assert.Equal(t, api.ShapeUnknown, p.Shape)
			assert.NotNil(t, p.Wishes())
			assert.Empty(t, p.Wishes())
			assert.Error(t, p.Err)
		})
	}

	t.Run("odd metadata keeps the list", func(t *testing.T) {
		p := api.DecodeList([]byte(`{"wishes":[{"id":1}],"totalItems":"many"}`))
		assert.Equal(t, api.ShapeWishes, p.Shape)
		assert.Len(t, p.Wishes(), 1)
		assert.Nil(t, p.TotalItems)
	})
}
