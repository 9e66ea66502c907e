package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/oapi-codegen/runtime"
)

// pathParam binds a required simple-style path parameter.
func pathParam(r *http.Request, name string) (string, error) {
	var v string
	err := runtime.BindStyledParameterWithOptions("simple", name, chi.URLParam(r, name), &v,
		runtime.BindStyledParameterOptions{ParamLocation: runtime.ParamLocationPath, Required: true})
	return v, err
}

// pageParams binds the optional ?page= and ?limit= query parameters.
func pageParams(r *http.Request) (page, limit *int, err error) {
	q := r.URL.Query()
	if err := runtime.BindQueryParameter("form", true, false, "page", q, &page); err != nil {
		return nil, nil, err
	}
	if err := runtime.BindQueryParameter("form", true, false, "limit", q, &limit); err != nil {
		return nil, nil, err
	}
	return page, limit, nil
}
