// Package i18n renders validation violations in the language a caller asks
// for.
//
// Catalogs are YAML or JSON documents keyed by language code. Nested keys
// are flattened with dots and values may reference the violation's
// translation values with %{name} placeholders:
//
//	en:
//	  validation:
//	    gte: "must be at least %{value}"
//	    string:
//	      min_len: "must be at least %{value} characters long"
//
// English and German catalogs are embedded. Extra catalogs are merged over
// them with WithCatalog:
//
//	extra, err := i18n.LoadFile("locales/uk.yaml")
//	if err != nil {
//		return err
//	}
//	tr, err := i18n.New(i18n.WithCatalog(extra))
//	if err != nil {
//		return err
//	}
//	lang := tr.Match(r.Header.Get("Accept-Language"))
//	localized := tr.Localize(lang, violations)
//
// A violation is looked up under its translation key first, for example
// validation.int64.gte, then under the kind-less key validation.gte. When
// neither exists in the requested or default language the engine's own
// message is kept. Predicate violations always keep their declared message.
//
// Middleware negotiates the language of HTTP requests from the lang query
// parameter or the Accept-Language header and stores it for GetLocale.
package i18n
