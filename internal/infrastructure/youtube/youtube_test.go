package youtube

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	ytapi "google.golang.org/api/youtube/v3"
)

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 100))
	assert.Equal(t, strings.Repeat("a", 100), truncate(strings.Repeat("a", 150), 100))

	// Rune-aware, never splits a multi-byte character
	assert.Equal(t, "héllo", truncate("héllo world", 5))
}

func TestCapTags(t *testing.T) {
	few := []string{"a", "b"}
	assert.Equal(t, few, capTags(few, 30))

	many := make([]string, 45)
	for i := range many {
		many[i] = "tag"
	}
	assert.Len(t, capTags(many, 30), 30)
}

func TestParseISODuration(t *testing.T) {
	cases := map[string]int64{
		"PT15S":     15,
		"PT4M13S":   253,
		"PT1H2M3S":  3723,
		"PT2H":      7200,
		"P1DT1H":    90000,
		"P2D":       172800,
		"":          0,
		"not-a-dur": 0,
	}
	for input, want := range cases {
		assert.Equal(t, want, parseISODuration(input), "input %q", input)
	}
}

func TestBestThumbnail(t *testing.T) {
	assert.Equal(t, "", bestThumbnail(nil))

	details := &ytapi.ThumbnailDetails{
		Default: &ytapi.Thumbnail{Url: "default.jpg"},
		High:    &ytapi.Thumbnail{Url: "high.jpg"},
	}
	assert.Equal(t, "high.jpg", bestThumbnail(details))

	details.Maxres = &ytapi.Thumbnail{Url: "maxres.jpg"}
	assert.Equal(t, "maxres.jpg", bestThumbnail(details))
}
