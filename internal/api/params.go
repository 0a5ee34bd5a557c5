package api

import (
	"net/http"
	"net/url"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/joshdemeester-svg/acme-motors-api-sub001/internal/auth"
	"github.com/joshdemeester-svg/acme-motors-api-sub001/internal/service"
	"github.com/joshdemeester-svg/acme-motors-api-sub001/internal/validation"
)

// pathID reads a numeric path variable; the route pattern already guarantees digits
func pathID(r *http.Request, name string) (int64, error) {
	n, err := strconv.ParseInt(mux.Vars(r)[name], 10, 64)
	if err != nil || n <= 0 {
		return 0, validation.FieldError(name, "must be a positive integer")
	}
	return n, nil
}

// query collects typed query parameters and every parse failure
type query struct {
	values url.Values
	errs   map[string]string
}

func newQuery(r *http.Request) *query {
	return &query{values: r.URL.Query(), errs: map[string]string{}}
}

func (q *query) str(name string) string {
	return q.values.Get(name)
}

func (q *query) num64(name string) int64 {
	v := q.values.Get(name)
	if v == "" {
		return 0
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		q.errs[name] = "must be an integer"
	}
	return n
}

func (q *query) num(name string) int {
	return int(q.num64(name))
}

func (q *query) flag(name string) bool {
	v := q.values.Get(name)
	if v == "" {
		return false
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		q.errs[name] = "must be true or false"
	}
	return b
}

func (q *query) page() service.Page {
	p := service.Page{Limit: q.num("limit"), Offset: q.num("offset")}
	if p.Limit < 0 {
		q.errs["limit"] = "must be at least 0"
	}
	if p.Offset < 0 {
		q.errs["offset"] = "must be at least 0"
	}
	return p
}

func (q *query) err() error {
	if len(q.errs) == 0 {
		return nil
	}
	return &validation.Error{Fields: q.errs}
}

// actor is the signed-in admin's user id
func actor(r *http.Request) *int64 {
	s := auth.FromContext(r.Context())
	if s == nil || s.UserID == 0 {
		return nil
	}
	id := s.UserID
	return &id
}
