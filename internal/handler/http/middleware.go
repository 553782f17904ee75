package http

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/tillhouse/pos/pkg/httputil"
	"github.com/tillhouse/pos/pkg/middleware"
)

// ContentTypeJSON rejects mutating requests that do not declare a JSON body.
func ContentTypeJSON(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost || r.Method == http.MethodPut || r.Method == http.MethodPatch {
			contentType := r.Header.Get("Content-Type")
			if !strings.HasPrefix(contentType, "application/json") {
				httputil.WriteJSON(w, http.StatusUnsupportedMediaType, httputil.Response{
					Error: &httputil.ErrorResponse{
						Code:    "UNSUPPORTED_MEDIA_TYPE",
						Message: "Content-Type must be application/json",
					},
				})
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}

// ShopAccess enforces tenant isolation on shop-scoped routes: the shopID in
// the URL must match the shop granted by the access token. Mount after Auth.
func ShopAccess(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		urlShopID := chi.URLParam(r, "shopID")
		tokenShopID := middleware.ShopIDFromContext(r.Context())

		if urlShopID == "" || tokenShopID == "" || urlShopID != tokenShopID {
			httputil.WriteJSON(w, http.StatusForbidden, httputil.Response{
				Error: &httputil.ErrorResponse{
					Code:    "FORBIDDEN",
					Message: "access to this shop is not allowed",
				},
			})
			return
		}

		next.ServeHTTP(w, r)
	})
}
