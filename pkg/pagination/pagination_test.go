package pagination

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
)

func newContext(query string) echo.Context {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/?"+query, nil)
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec)
}

func TestFromContext_Defaults(t *testing.T) {
	p := FromContext(newContext(""))
	if p.Limit != DefaultLimit {
		t.Errorf("expected default limit %d, got %d", DefaultLimit, p.Limit)
	}
	if p.Offset != 0 {
		t.Errorf("expected offset 0, got %d", p.Offset)
	}
}

func TestFromContext_Explicit(t *testing.T) {
	p := FromContext(newContext("limit=50&offset=10"))
	if p.Limit != 50 {
		t.Errorf("expected 50, got %d", p.Limit)
	}
	if p.Offset != 10 {
		t.Errorf("expected 10, got %d", p.Offset)
	}
}

func TestFromContext_CapsAtMax(t *testing.T) {
	p := FromContext(newContext("limit=5000"))
	if p.Limit != MaxLimit {
		t.Errorf("expected cap %d, got %d", MaxLimit, p.Limit)
	}
}

func TestNewResponse_HasMore(t *testing.T) {
	r := NewResponse(nil, 100, 20, 0)
	if !r.HasMore {
		t.Error("expected has_more for first page of 100")
	}
	r = NewResponse(nil, 15, 20, 0)
	if r.HasMore {
		t.Error("did not expect has_more when total fits in one page")
	}
}

func TestNextOffset(t *testing.T) {
	p := Params{Limit: 20, Offset: 40}
	if p.NextOffset() != 60 {
		t.Errorf("expected 60, got %d", p.NextOffset())
	}
	if !p.HasNext(100) {
		t.Error("expected next page")
	}
	if p.HasNext(60) {
		t.Error("did not expect next page at the end")
	}
}
