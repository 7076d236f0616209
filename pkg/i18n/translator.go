package i18n

import (
	"embed"
	"encoding/hex"
	"fmt"
	"log/slog"
	"regexp"
	"slices"
	"strings"
	"time"

	"golang.org/x/text/language"

	"github.com/dmitrymomot/protorules/pkg/logger"
	"github.com/dmitrymomot/protorules/pkg/validator"
)

// DefaultLanguage is used when no preference matches a loaded catalog.
const DefaultLanguage = "en"

// maxAcceptLanguageLength caps the header size handed to the parser.
const maxAcceptLanguageLength = 4096

//go:embed locales/*.yaml
var builtin embed.FS

// Translator renders violation messages in the languages of its catalog.
// It is immutable after New and safe for concurrent use.
type Translator struct {
	catalog     Catalog
	defaultLang string
	langs       []string
	matcher     language.Matcher
	log         *slog.Logger
}

type options struct {
	defaultLang string
	catalogs    []Catalog
	builtin     bool
	log         *slog.Logger
}

// Option configures a Translator.
type Option func(*options)

// WithDefaultLanguage sets the fallback language. It must be present in the
// loaded catalogs.
func WithDefaultLanguage(lang string) Option {
	return func(o *options) {
		if lang != "" {
			o.defaultLang = strings.ToLower(lang)
		}
	}
}

// WithCatalog merges c over the built-in catalogs. Later catalogs win.
func WithCatalog(c Catalog) Option {
	return func(o *options) { o.catalogs = append(o.catalogs, c) }
}

// WithoutBuiltin skips the embedded English and German catalogs.
func WithoutBuiltin() Option {
	return func(o *options) { o.builtin = false }
}

func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.log = l
		}
	}
}

// New builds a Translator from the embedded catalogs plus any WithCatalog
// additions.
func New(opts ...Option) (*Translator, error) {
	o := options{defaultLang: DefaultLanguage, builtin: true, log: logger.Discard()}
	for _, opt := range opts {
		opt(&o)
	}

	catalog := make(Catalog)
	if o.builtin {
		c, err := LoadFS(builtin, "locales/*.yaml")
		if err != nil {
			return nil, err
		}
		catalog.Merge(c)
	}
	for _, c := range o.catalogs {
		catalog.Merge(c)
	}
	if _, ok := catalog[o.defaultLang]; !ok {
		return nil, fmt.Errorf("%w: no translations for default language %q", ErrInvalidCatalog, o.defaultLang)
	}

	// The matcher falls back to its first tag, so the default leads.
	langs := []string{o.defaultLang}
	for lang := range catalog {
		if lang != o.defaultLang {
			langs = append(langs, lang)
		}
	}
	slices.Sort(langs[1:])

	tags := make([]language.Tag, 0, len(langs))
	for _, lang := range langs {
		tag, err := language.Parse(lang)
		if err != nil {
			return nil, fmt.Errorf("%w: language %q: %w", ErrInvalidCatalog, lang, err)
		}
		tags = append(tags, tag)
	}

	t := &Translator{
		catalog:     catalog,
		defaultLang: o.defaultLang,
		langs:       langs,
		matcher:     language.NewMatcher(tags),
		log:         o.log,
	}
	t.log.Debug("translations loaded", slog.Any("languages", langs))
	return t, nil
}

// SupportedLanguages lists the catalog languages, default first.
func (t *Translator) SupportedLanguages() []string {
	return slices.Clone(t.langs)
}

// DefaultLanguage returns the fallback language.
func (t *Translator) DefaultLanguage() string {
	return t.defaultLang
}

// Match negotiates an Accept-Language header, or a bare language code,
// against the catalog languages. Anything unparsable or unmatched yields
// the default language.
func (t *Translator) Match(accept string) string {
	accept = strings.TrimSpace(accept)
	if accept == "" {
		return t.defaultLang
	}
	if len(accept) > maxAcceptLanguageLength {
		accept = accept[:maxAcceptLanguageLength]
	}
	prefs, _, err := language.ParseAcceptLanguage(accept)
	if err != nil || len(prefs) == 0 {
		return t.defaultLang
	}
	_, idx, conf := t.matcher.Match(prefs...)
	if conf == language.No || idx < 0 || idx >= len(t.langs) {
		return t.defaultLang
	}
	return t.langs[idx]
}

// Has reports whether lang itself carries key.
func (t *Translator) Has(lang, key string) bool {
	_, ok := t.catalog[strings.ToLower(lang)][key]
	return ok
}

// T translates key into lang, falling back to the default language and
// then to the key itself. %{name} placeholders are filled from params.
func (t *Translator) T(lang, key string, params map[string]string) string {
	tmpl, ok := t.lookup(lang, key)
	if !ok {
		return key
	}
	return substitute(tmpl, params)
}

// Violation renders the message of v in lang. The rule specific key such as
// validation.string.min_len is tried before the kind-less validation.min_len.
// Violations without any translation keep their own message.
func (t *Translator) Violation(lang string, v validator.ValidationError) string {
	params := make(map[string]string, len(v.TranslationValues))
	for k, val := range v.TranslationValues {
		params[k] = formatValue(val)
	}
	for _, key := range candidateKeys(v) {
		if tmpl, ok := t.lookup(lang, key); ok {
			return substitute(tmpl, params)
		}
	}
	t.log.Debug("missing translation", logger.RuleID(v.RuleID), slog.String("lang", lang))
	return v.Message
}

// Localize returns a copy of errs with every message rendered in lang.
func (t *Translator) Localize(lang string, errs validator.ValidationErrors) validator.ValidationErrors {
	if errs == nil {
		return nil
	}
	out := make(validator.ValidationErrors, len(errs))
	for i, v := range errs {
		v.Message = t.Violation(lang, v)
		out[i] = v
	}
	return out
}

func (t *Translator) lookup(lang, key string) (string, bool) {
	if tmpl, ok := t.catalog[strings.ToLower(lang)][key]; ok {
		return tmpl, true
	}
	tmpl, ok := t.catalog[t.defaultLang][key]
	return tmpl, ok
}

// candidateKeys lists translation keys from most to least specific.
// Predicate violations carry author written messages and are never
// translated.
func candidateKeys(v validator.ValidationError) []string {
	if v.TranslationKey == "" || v.RuleID == "cel_rule" {
		return nil
	}
	keys := []string{v.TranslationKey}
	if _, rule, ok := strings.Cut(v.RuleID, "."); ok && v.RuleID != "message.oneof" {
		keys = append(keys, "validation."+rule)
	}
	return keys
}

var paramRegex = regexp.MustCompile(`%\{([^}]+)\}`)

// substitute replaces %{name} placeholders. Unknown names stay verbatim.
func substitute(tmpl string, params map[string]string) string {
	if len(params) == 0 {
		return tmpl
	}
	return paramRegex.ReplaceAllStringFunc(tmpl, func(match string) string {
		if val, ok := params[match[2:len(match)-1]]; ok {
			return val
		}
		return match
	})
}

func formatValue(v any) string {
	switch val := v.(type) {
	case time.Time:
		return val.Format(time.RFC3339Nano)
	case []byte:
		return hex.EncodeToString(val)
	case fmt.Stringer:
		return val.String()
	}
	return fmt.Sprint(v)
}
