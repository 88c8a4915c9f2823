package bot

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPageLinks(t *testing.T) {
	tests := []struct {
		name        string
		page, pages int
		want        []pageLink
	}{
		{"single page", 1, 1, []pageLink{{linkCurrent, 1}}},
		{"first of many", 1, 10, []pageLink{
			{linkCurrent, 1}, {linkNext, 2}, {linkFwd5, 6}, {linkLast, 10},
		}},
		{"last of many", 10, 10, []pageLink{
			{linkFirst, 1}, {linkBack5, 5}, {linkPrev, 9}, {linkCurrent, 10},
		}},
		{"middle", 7, 20, []pageLink{
			{linkFirst, 1}, {linkBack5, 2}, {linkPrev, 6}, {linkCurrent, 7},
			{linkNext, 8}, {linkFwd5, 12}, {linkLast, 20},
		}},
		{"second of three", 2, 3, []pageLink{
			{linkPrev, 1}, {linkCurrent, 2}, {linkNext, 3},
		}},
		{"page out of range", 15, 3, []pageLink{
			{linkFirst, 1}, {linkPrev, 2}, {linkCurrent, 3},
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, pageLinks(tt.page, tt.pages))
		})
	}
}

func TestPageLinks_TargetsInRange(t *testing.T) {
	for pages := 1; pages <= 15; pages++ {
		for page := 1; page <= pages; page++ {
			for _, l := range pageLinks(page, pages) {
				assert.GreaterOrEqual(t, l.page, 1)
				assert.LessOrEqual(t, l.page, pages)
				if l.kind != linkCurrent {
					assert.NotEqual(t, page, l.page, "page %d/%d", page, pages)
				}
			}
		}
	}
}

func TestTotalPages(t *testing.T) {
	assert.Equal(t, 1, totalPages(0, 5))
	assert.Equal(t, 1, totalPages(5, 5))
	assert.Equal(t, 2, totalPages(6, 5))
	assert.Equal(t, 3, totalPages(11, 5))
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "Шоколадн…", truncate("Шоколадний торт", 9))
	assert.Equal(t, "a b", truncate("a\n  b", 10))
}

func TestIsValidPhone(t *testing.T) {
	tests := []struct {
		phone string
		want  bool
	}{
		{"+380991234567", true},
		{"0991234567", true},
		{"380991234567", true},
		{"12345", false},
		{"+38099123456789", false},
		{"099 123 4567", false},
		{"phone", false},
		{"", false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, IsValidPhone(tt.phone), tt.phone)
	}
}
