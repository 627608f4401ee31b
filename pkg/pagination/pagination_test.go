package pagination

import (
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func paramsFor(t *testing.T, query string) Params {
	t.Helper()
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest("GET", "/?"+query, nil)
	return Parse(c)
}

func TestParse(t *testing.T) {
	cases := []struct {
		name  string
		query string
		page  int
		limit int
	}{
		{"defaults", "", DefaultPage, DefaultLimit},
		{"explicit", "page=3&limit=50", 3, 50},
		{"zero page", "page=0", DefaultPage, DefaultLimit},
		{"negative limit", "limit=-4", DefaultPage, DefaultLimit},
		{"limit clamped", "limit=5000", DefaultPage, MaxLimit},
		{"garbage", "page=abc&limit=xyz", DefaultPage, DefaultLimit},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := paramsFor(t, tc.query)
			if got.Page != tc.page || got.Limit != tc.limit {
				t.Errorf("Parse(%q) = page %d limit %d, want %d/%d",
					tc.query, got.Page, got.Limit, tc.page, tc.limit)
			}
			if want := (got.Page - 1) * got.Limit; got.Offset != want {
				t.Errorf("offset = %d, want %d", got.Offset, want)
			}
		})
	}
}
