package pagination

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolve(t *testing.T) {
	tests := []struct {
		name       string
		count      int64
		raw        string
		wantNumber int
		wantPages  int
		wantOffset int
	}{
		{"no page param", 13, "", 1, 2, 0},
		{"second page", 13, "2", 2, 2, 10},
		{"not a number", 13, "abc", 1, 2, 0},
		{"beyond last", 13, "9", 2, 2, 10},
		{"zero", 13, "0", 2, 2, 10},
		{"negative", 13, "-1", 2, 2, 10},
		{"empty set", 0, "", 1, 1, 0},
		{"empty set page 3", 0, "3", 1, 1, 0},
		{"exact multiple", 20, "2", 2, 2, 10},
		{"overflowing integer", 13, "99999999999999999999", 2, 2, 10},
		{"overflowing negative", 13, "-99999999999999999999", 2, 2, 10},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := Resolve(tt.count, tt.raw, 10)
			assert.Equal(t, tt.wantNumber, w.Number)
			assert.Equal(t, tt.wantPages, w.NumPages)
			assert.Equal(t, tt.wantOffset, w.Offset)
			assert.Equal(t, 10, w.Limit)
		})
	}
}

func TestPageNavigation(t *testing.T) {
	first := New([]int{1, 2}, 13, Resolve(13, "", DefaultPerPage))
	assert.True(t, first.HasNext())
	assert.False(t, first.HasPrevious())
	assert.Equal(t, 2, first.NextNumber())

	second := New([]int{10, 11, 12}, 13, Resolve(13, "2", DefaultPerPage))
	assert.Equal(t, 3, second.Len())
	assert.False(t, second.HasNext())
	assert.Equal(t, 1, second.PreviousNumber())
	assert.Equal(t, []int{1, 2}, second.PageRange())
}

func TestNewNeverNil(t *testing.T) {
	p := New[int](nil, 0, Resolve(0, "", 10))
	assert.NotNil(t, p.Items)
	assert.False(t, p.HasOtherPages())
}
