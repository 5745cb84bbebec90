package api

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func intPtr(v int) *int { return &v }

func TestParsePagination(t *testing.T) {
	tests := []struct {
		name           string
		limit, offset  *int
		wantL, wantOff int64
	}{
		{"defaults", nil, nil, defaultPageSize, 0},
		{"explicit", intPtr(10), intPtr(5), 10, 5},
		{"limit above max", intPtr(500), nil, maxPageSize, 0},
		{"zero limit", intPtr(0), nil, 1, 0},
		{"negative limit", intPtr(-3), nil, 1, 0},
		{"negative offset", nil, intPtr(-10), defaultPageSize, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l, o := parsePagination(tt.limit, tt.offset)
			assert.Equal(t, tt.wantL, l)
			assert.Equal(t, tt.wantOff, o)
		})
	}
}

func TestBuildPaginationMeta(t *testing.T) {
	tests := []struct {
		name                 string
		total, limit, offset int64
		hasMore              bool
	}{
		{"first of several pages", 120, 50, 0, true},
		{"last full page", 100, 50, 50, false},
		{"page larger than total", 7, 50, 0, false},
		{"offset past end", 7, 50, 100, false},
		{"no users", 0, 50, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			meta := buildPaginationMeta(tt.total, tt.limit, tt.offset)
			assert.Equal(t, PaginationMeta{
				Total:   int(tt.total),
				Limit:   int(tt.limit),
				Offset:  int(tt.offset),
				HasMore: tt.hasMore,
			}, meta)
		})
	}
}

func TestPaginationWalk(t *testing.T) {
	const total = 23
	var pages int
	for offset := int64(0); ; offset += 10 {
		pages++
		if !buildPaginationMeta(total, 10, offset).HasMore {
			break
		}
	}
	assert.Equal(t, 3, pages)
}
