package i18n

import "net/http"

// QueryParam overrides the Accept-Language header when present.
const QueryParam = "lang"

// Middleware negotiates the response language of each request and stores
// it in the request context for GetLocale.
func Middleware(t *Translator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			pref := r.URL.Query().Get(QueryParam)
			if pref == "" {
				pref = r.Header.Get("Accept-Language")
			}
			lang := t.Match(pref)
			w.Header().Set("Content-Language", lang)
			next.ServeHTTP(w, r.WithContext(SetLocale(r.Context(), lang)))
		})
	}
}
