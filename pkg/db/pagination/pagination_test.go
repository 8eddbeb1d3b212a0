package pagination

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildCursorPageInfo(t *testing.T) {
	rows := []int{1, 2, 3, 4}
	extract := func(v int) (string, error) {
		return EncodeCursor(Cursor{ID: string(rune('0' + v))})
	}

	kept, info, err := BuildCursorPageInfo(rows, 3, extract)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 3}, kept)
	assert.True(t, info.HasMore)

	cursor, err := DecodeCursor(info.NextPageToken)
	require.NoError(t, err)
	assert.Equal(t, "3", cursor.ID)

	kept, info, err = BuildCursorPageInfo(rows, 10, extract)
	require.NoError(t, err)
	assert.Len(t, kept, 4)
	assert.False(t, info.HasMore)
	assert.Empty(t, info.NextPageToken)
}

func TestDecodeCursorRejectsGarbage(t *testing.T) {
	_, err := DecodeCursor("%%%")
	assert.ErrorIs(t, err, ErrInvalidPageToken)
}

func TestPaginationLimit(t *testing.T) {
	assert.Equal(t, DefaultPageSize, Pagination{}.Limit())
	assert.Equal(t, MaxPageSize, Pagination{PageSize: 10000}.Limit())
	assert.Equal(t, 5, Pagination{PageSize: 5}.Limit())
}
