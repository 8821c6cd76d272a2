package document_test

import (
	"errors"
	"testing"

	"github.com/restlens/go-restlens/document"
	"github.com/stretchr/testify/require"
)

func TestPositionAt(t *testing.T) {
	d := document.New("file:///a", 0, "GET /users/42\nsecond line\r\nthird")

	require.Equal(t, document.Position{Line: 0, Character: 0}, d.PositionAt(0))
	require.Equal(t, document.Position{Line: 0, Character: 13}, d.PositionAt(13))
	require.Equal(t, document.Position{Line: 1, Character: 0}, d.PositionAt(14))
	require.Equal(t, document.Position{Line: 1, Character: 6}, d.PositionAt(20))
	require.Equal(t, document.Position{Line: 2, Character: 0}, d.PositionAt(27))
	require.Equal(t, document.Position{Line: 2, Character: 5}, d.PositionAt(1000))
	require.Equal(t, document.Position{Line: 0, Character: 0}, d.PositionAt(-3))
}

func TestPositionAtUTF16(t *testing.T) {
	// "é" is two bytes and one UTF-16 unit. "😀" is four bytes and two units.
	text := "é😀x"
	d := document.New("file:///u", 0, text)

	require.Equal(t, uint32(1), d.PositionAt(2).Character)
	require.Equal(t, uint32(3), d.PositionAt(6).Character)
	require.Equal(t, uint32(4), d.PositionAt(7).Character)

	require.Equal(t, 2, d.OffsetAt(document.Position{Character: 1}))
	require.Equal(t, 6, d.OffsetAt(document.Position{Character: 3}))
	// Inside the surrogate pair stays before the rune.
	require.Equal(t, 2, d.OffsetAt(document.Position{Character: 2}))
}

func TestOffsetAtClamps(t *testing.T) {
	d := document.New("file:///a", 0, "ab\ncd")
	require.Equal(t, 2, d.OffsetAt(document.Position{Line: 0, Character: 99}))
	require.Equal(t, 4, d.OffsetAt(document.Position{Line: 1, Character: 1}))
	require.Equal(t, 5, d.OffsetAt(document.Position{Line: 9, Character: 0}))
}

func TestApply(t *testing.T) {
	d := document.New("file:///a", 1, "hello world")

	nd, err := d.Apply(2, []document.Change{{
		Range: &document.Span{
			Start: document.Position{Character: 6},
			End:   document.Position{Character: 11},
		},
		Text: "there",
	}})
	require.NoError(t, err)
	require.Equal(t, "hello there", nd.Text())
	require.Equal(t, int64(2), nd.Version())
	// The original snapshot is unchanged.
	require.Equal(t, "hello world", d.Text())

	nd, err = nd.Apply(3, []document.Change{
		{Text: "line1\nline2"},
		{
			Range: &document.Span{
				Start: document.Position{Line: 1, Character: 0},
				End:   document.Position{Line: 1, Character: 0},
			},
			Text: ">",
		},
	})
	require.NoError(t, err)
	require.Equal(t, "line1\n>line2", nd.Text())

	_, err = nd.Apply(1, nil)
	require.ErrorContains(t, err, "older")
}

func TestStore(t *testing.T) {
	s := document.NewStore()
	s.Open("file:///a", 0, "abc")
	require.Equal(t, 1, s.Len())

	d, err := s.Change("file:///a", 1, []document.Change{{Text: "xyz"}})
	require.NoError(t, err)
	require.Equal(t, "xyz", d.Text())

	got, ok := s.Get("file:///a")
	require.True(t, ok)
	require.Equal(t, int64(1), got.Version())

	_, err = s.Change("file:///missing", 1, nil)
	require.True(t, errors.Is(err, document.ErrNotFound))

	s.Close("file:///a")
	_, ok = s.Get("file:///a")
	require.False(t, ok)
	require.Zero(t, s.Len())
}
