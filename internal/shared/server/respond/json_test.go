package respond

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func TestPage(t *testing.T) {
	gin.SetMode(gin.TestMode)
	tests := []struct {
		query      string
		wantLimit  int
		wantOffset int
	}{
		{query: "", wantLimit: DefaultPageSize, wantOffset: 0},
		{query: "?limit=5&offset=10", wantLimit: 5, wantOffset: 10},
		{query: "?limit=500", wantLimit: MaxPageSize, wantOffset: 0},
		{query: "?limit=-1&offset=-4", wantLimit: 0, wantOffset: 0},
		{query: "?limit=abc&offset=xyz", wantLimit: DefaultPageSize, wantOffset: 0},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			c, _ := gin.CreateTestContext(httptest.NewRecorder())
			c.Request = httptest.NewRequest(http.MethodGet, "/x"+tt.query, nil)
			limit, offset := Page(c)
			if limit != tt.wantLimit || offset != tt.wantOffset {
				t.Fatalf("want %d/%d got %d/%d", tt.wantLimit, tt.wantOffset, limit, offset)
			}
		})
	}
}
