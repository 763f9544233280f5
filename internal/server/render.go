package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"mime"
	"net/http"
	"net/url"
	"sort"
	"strconv"

	"github.com/dharsanguruparan/jobtrack/internal/flash"
	"github.com/dharsanguruparan/jobtrack/internal/model"
	"github.com/dharsanguruparan/jobtrack/internal/tracker"
)

const maxBodyBytes = 1 << 20

// pageDoc is the page document the front end turns into a screen.
type pageDoc struct {
	Component string         `json:"component"`
	Props     map[string]any `json:"props"`
	URL       string         `json:"url"`
}

type errorBody struct {
	Message string            `json:"message"`
	Errors  map[string]string `json:"errors,omitempty"`
}

func respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Printf("encode response: %v", err)
	}
}

// render answers with a page document and consumes the user's pending flash.
func (s *Server) render(w http.ResponseWriter, r *http.Request, component string, props map[string]any) {
	f, err := s.deps.Flash.Pop(r.Context(), flashKey(currentUser(r)))
	if err != nil {
		log.Printf("pop flash: %v", err)
	}
	props["flash"] = f
	respondJSON(w, http.StatusOK, pageDoc{Component: component, Props: props, URL: r.URL.RequestURI()})
}

// redirect stores f for the next page and answers 303 so the browser follows
// with a GET.
func (s *Server) redirect(w http.ResponseWriter, r *http.Request, to string, f flash.Flash) {
	if !f.Empty() {
		if err := s.deps.Flash.Put(r.Context(), flashKey(currentUser(r)), f); err != nil {
			log.Printf("store flash: %v", err)
		}
	}
	http.Redirect(w, r, to, http.StatusSeeOther)
}

// fail maps service errors onto status codes.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	var verr *tracker.ValidationError
	switch {
	case errors.As(err, &verr):
		respondJSON(w, http.StatusUnprocessableEntity, errorBody{Message: validationSummary(verr), Errors: verr.Fields})
	case errors.Is(err, model.ErrNotFound):
		respondJSON(w, http.StatusNotFound, errorBody{Message: "Not Found."})
	default:
		log.Printf("%s %s: %v", r.Method, r.URL.Path, err)
		respondJSON(w, http.StatusInternalServerError, errorBody{Message: "Server Error."})
	}
}

// validationSummary reports the first message and how many others follow.
func validationSummary(verr *tracker.ValidationError) string {
	keys := make([]string, 0, len(verr.Fields))
	for k := range verr.Fields {
		keys = append(keys, k)
	}
	if len(keys) == 0 {
		return "The given data was invalid."
	}
	sort.Strings(keys)
	msg := verr.Fields[keys[0]]
	switch extra := len(keys) - 1; {
	case extra == 1:
		msg += " (and 1 more error)"
	case extra > 1:
		msg += fmt.Sprintf(" (and %d more errors)", extra)
	}
	return msg
}

func flashKey(userID int64) string {
	return strconv.FormatInt(userID, 10)
}

// back is the same-origin Referer path, or fallback.
func back(r *http.Request, fallback string) string {
	ref := r.Header.Get("Referer")
	if ref == "" {
		return fallback
	}
	u, err := url.Parse(ref)
	if err != nil || (u.Host != "" && u.Host != r.Host) || u.Path == "" || u.Path[0] != '/' {
		return fallback
	}
	return u.RequestURI()
}

// pathID parses the {id} wildcard. A malformed id is simply not found.
func pathID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	return id, err == nil && id > 0
}

// decodeInput flattens a JSON or form body into field values.
func decodeInput(w http.ResponseWriter, r *http.Request) (map[string]string, error) {
	ct, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if ct == "application/json" {
		r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
		dec := json.NewDecoder(r.Body)
		dec.UseNumber()
		var raw map[string]any
		if err := dec.Decode(&raw); err != nil {
			return nil, fmt.Errorf("decode json body: %w", err)
		}
		out := make(map[string]string, len(raw))
		for k, v := range raw {
			switch t := v.(type) {
			case nil:
				out[k] = ""
			case string:
				out[k] = t
			case json.Number:
				out[k] = t.String()
			default:
				// lists, objects and booleans fail validation on whatever field they land in
				out[k] = tracker.NotAString
			}
		}
		return out, nil
	}
	if ct == "multipart/form-data" {
		if err := r.ParseMultipartForm(maxBodyBytes); err != nil {
			return nil, fmt.Errorf("parse multipart form: %w", err)
		}
	} else if err := r.ParseForm(); err != nil {
		return nil, fmt.Errorf("parse form: %w", err)
	}
	out := make(map[string]string, len(r.PostForm))
	for k, v := range r.PostForm {
		if len(v) > 0 {
			out[k] = v[0]
		}
	}
	return out, nil
}

// badRequest answers a body that could not be decoded.
func badRequest(w http.ResponseWriter, err error) {
	respondJSON(w, http.StatusBadRequest, errorBody{Message: err.Error()})
}
