package api

import (
	"errors"
	"fmt"
	"mime"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"google.golang.org/protobuf/encoding/protojson"

	"github.com/dmitrymomot/protorules/pkg/i18n"
	"github.com/dmitrymomot/protorules/pkg/logger"
	"github.com/dmitrymomot/protorules/pkg/schema"
	"github.com/dmitrymomot/protorules/pkg/validator"
)

// MessageInfo summarizes a message of the schema.
type MessageInfo struct {
	Name   string      `json:"name"`
	Fields []FieldInfo `json:"fields"`
	Oneofs []string    `json:"oneofs,omitempty"`
}

type FieldInfo struct {
	Name     string `json:"name"`
	Tag      int32  `json:"tag"`
	Kind     string `json:"kind"`
	Repeated bool   `json:"repeated,omitempty"`
	Key      string `json:"key,omitempty"`
	Value    string `json:"value,omitempty"`
	Ref      string `json:"ref,omitempty"`
	Oneof    string `json:"oneof,omitempty"`
}

// Violation is the wire form of one validator.ValidationError.
type Violation struct {
	Field   string `json:"field"`
	Rule    string `json:"rule"`
	Message string `json:"message"`
	ForKey  bool   `json:"for_key,omitempty"`
}

// Result is the data of a validate response.
type Result struct {
	Message    string      `json:"message"`
	Valid      bool        `json:"valid"`
	Violations []Violation `json:"violations,omitempty"`
}

func messageInfo(m *schema.Message) MessageInfo {
	info := MessageInfo{Name: m.FullName(), Fields: make([]FieldInfo, 0, len(m.Fields))}
	for _, f := range m.Fields {
		info.Fields = append(info.Fields, FieldInfo{
			Name:     f.Name,
			Tag:      f.Tag,
			Kind:     f.Kind,
			Repeated: f.Repeated,
			Key:      f.Key,
			Value:    f.Value,
			Ref:      f.Ref,
			Oneof:    f.Oneof,
		})
	}
	for _, o := range m.Oneofs {
		info.Oneofs = append(info.Oneofs, o.Name)
	}
	return info
}

func (a *API) listMessages(w http.ResponseWriter, r *http.Request) {
	out := make([]MessageInfo, 0, len(a.opts.Schema.Messages))
	for _, m := range a.opts.Schema.Messages {
		out = append(out, messageInfo(m))
	}
	writeJSON(w, http.StatusOK, Response{Data: out, Meta: map[string]any{"package": a.opts.Schema.Package}})
}

func (a *API) getMessage(w http.ResponseWriter, r *http.Request) {
	m, ok := a.opts.Schema.Message(chi.URLParam(r, "name"))
	if !ok {
		writeError(w, http.StatusNotFound, CodeUnknownMessage, fmt.Sprintf("unknown message %q", chi.URLParam(r, "name")))
		return
	}
	writeJSON(w, http.StatusOK, Response{Data: messageInfo(m)})
}

func (a *API) validate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	name := chi.URLParam(r, "name")
	msg, err := a.opts.Registry.Message(name)
	if err != nil {
		writeError(w, http.StatusNotFound, CodeUnknownMessage, fmt.Sprintf("unknown message %q", name))
		return
	}

	failFast := a.opts.FailFast
	if q := r.URL.Query().Get("fail_fast"); q != "" {
		v, err := strconv.ParseBool(q)
		if err != nil {
			writeError(w, http.StatusBadRequest, CodeInvalidDocument, fmt.Sprintf("invalid fail_fast %q", q))
			return
		}
		failFast = v
	}

	doc, err := schema.DecodeDocument(r.Body, requestFormat(r))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, CodeRequestTooLarge,
				fmt.Sprintf("document exceeds %d bytes", tooLarge.Limit))
			return
		}
		writeError(w, http.StatusBadRequest, CodeInvalidDocument, err.Error())
		return
	}

	acc := validator.NewAccumulator(failFast)
	if err := msg.ValidateInto(doc, acc); err != nil {
		a.log.ErrorContext(ctx, "validation aborted", logger.Message(msg.Name()), logger.Error(err))
		writeError(w, http.StatusInternalServerError, CodeEvaluationFailed, err.Error())
		return
	}

	verrs := a.opts.Translator.Localize(i18n.GetLocale(ctx), acc.Violations())
	res := Result{Message: msg.Name(), Valid: len(verrs) == 0}
	if res.Valid {
		writeJSON(w, http.StatusOK, Response{Data: res})
		return
	}

	details := make(map[string][]string)
	for _, v := range verrs {
		res.Violations = append(res.Violations, Violation{
			Field:   v.Field,
			Rule:    v.RuleID,
			Message: v.Message,
			ForKey:  v.ForKey,
		})
		key := v.Field
		if key == "" {
			key = msg.Name()
		}
		details[key] = append(details[key], v.Message)
	}
	a.log.DebugContext(ctx, "document rejected", logger.Message(msg.Name()), logger.Violations(len(verrs)))
	writeJSON(w, http.StatusUnprocessableEntity, Response{
		Data: res,
		Error: &ErrorDetail{
			Code:    CodeValidationFailed,
			Message: fmt.Sprintf("document violates %d rule(s)", len(verrs)),
			Details: details,
		},
	})
}

func (a *API) getDescriptor(w http.ResponseWriter, r *http.Request) {
	if a.descErr != nil {
		writeError(w, http.StatusInternalServerError, CodeInternal, a.descErr.Error())
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(a.descriptor)
}

func marshalDescriptor(s *schema.Schema) ([]byte, error) {
	set, err := s.FileDescriptorSet()
	if err != nil {
		return nil, err
	}
	return protojson.Marshal(set)
}

// requestFormat reads YAML bodies by content type; everything else is JSON.
func requestFormat(r *http.Request) schema.Format {
	mt, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	switch mt {
	case "application/yaml", "application/x-yaml", "text/yaml":
		return schema.FormatYAML
	}
	return schema.FormatJSON
}
