package handler_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/restopos/api/internal/catalog"
)

const catalogJSON = `{
	"items": [
		{
			"name": "Burger",
			"kitchen": "GRILL",
			"price": 100,
			"size": {"enabled": true, "small": 80, "medium": 100, "large": 120},
			"spicy": {"enabled": true, "spicy_price": 30, "non_spicy_price": 0},
			"addons": [{"name": "Cola", "price": 20, "kitchen": "BAR", "cold": {"enabled": true, "ice_price": 5}}],
			"ingredients": [{"name": "Patty", "calories": 250, "protein": 20, "carbs": 0, "fat": 18}]
		}
	],
	"bundles": [{"name": "Family Deal", "total_price": 300, "items": [{"name": "Burger", "kitchen": "GRILL"}]}]
}`

func testCatalog(t *testing.T) *catalog.MemoryProvider {
	t.Helper()
	c, err := catalog.DecodeCatalog([]byte(catalogJSON))
	if err != nil {
		t.Fatalf("decode catalog: %v", err)
	}
	return catalog.NewMemoryProvider(c)
}

func doRequest(t *testing.T, router http.Handler, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal request: %v", err)
		}
		req = httptest.NewRequest(method, path, bytes.NewReader(b))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	return rr
}

func decodeBody(t *testing.T, rr *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.NewDecoder(rr.Body).Decode(v); err != nil {
		t.Fatalf("decode response: %v (body %q)", err, rr.Body.String())
	}
}

func errorMessage(t *testing.T, rr *httptest.ResponseRecorder) string {
	t.Helper()
	var resp map[string]string
	decodeBody(t, rr, &resp)
	return resp["error"]
}

func newRecorder() *httptest.ResponseRecorder {
	return httptest.NewRecorder()
}
