// internal/webhook/webhook.go
//
// Content-change webhook.
//
// Context
// -------
// The CMS calls this API when authors save or delete content.  Each
// request builds a fresh bundle.Registry from the shared Deps, so the
// registry's identity caches never outlive one request and no locking is
// needed around them.
//
// Routes
// ------
//
//	POST   /sources/{kind}/{id}/invalidate?new=1   source saved
//	DELETE /sources/{kind}/{id}                    source deleted
//	POST   /elements/invalidate                    element saved (JSON body)
//	POST   /install                                build every bundle
//	POST   /reload                                 drop site and defaults caches
//	GET    /bundles?all_sites=1                    list content bundles
//	GET    /bundles/{kind}/{ref}/sites/{site}      resolve one bundle
//
// `{kind}` accepts `global`, `section`, `categorygroup`, and `product`.
// `{ref}` is a numeric source id or a source handle.
//
// Errors
// ------
// Unknown kinds answer 400, Product answers 501, and a source that has no
// bundle on the requested site answers 404.  Bodies are JSON objects with
// an `error` key.
package webhook

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/yanizio/seobundles/internal/bundle"
	"github.com/yanizio/seobundles/internal/middleware"
)

// Options configures the router.
type Options struct {
	// Token, when set, is required as a bearer token on every route.
	Token string
	// Reload is called by POST /reload.  Nil disables the route.
	Reload func()
	Log    *zap.SugaredLogger
}

type handler struct {
	deps bundle.Deps
	opts Options
	log  *zap.SugaredLogger
}

// New returns the webhook router.
func New(deps bundle.Deps, opts Options) http.Handler {
	log := opts.Log
	if log == nil {
		log = zap.S()
	}
	if deps.Log == nil {
		deps.Log = log
	}
	h := &handler{deps: deps, opts: opts, log: log}

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.Recoverer)
	r.Use(middleware.RequestLog(log))
	r.Use(middleware.Security)
	r.Use(middleware.BearerToken(opts.Token))

	r.Post("/sources/{kind}/{id}/invalidate", h.invalidateSource)
	r.Delete("/sources/{kind}/{id}", h.deleteSource)
	r.Post("/elements/invalidate", h.invalidateElement)
	r.Post("/install", h.install)
	if opts.Reload != nil {
		r.Post("/reload", h.reload)
	}
	r.Get("/bundles", h.listBundles)
	r.Get("/bundles/{kind}/{ref}/sites/{site}", h.getBundle)
	return r
}

func (h *handler) registry() *bundle.Registry { return bundle.New(h.deps) }

/*──────────────────────────── handlers ─────────────────────────────────────*/

func (h *handler) invalidateSource(w http.ResponseWriter, r *http.Request) {
	kind, ok := h.kind(w, r)
	if !ok {
		return
	}
	id, ok := intParam(w, r, "id", minSourceID(kind))
	if !ok {
		return
	}
	isNew := r.URL.Query().Get("new") == "1"

	h.registry().InvalidateBySourceID(r.Context(), kind, id, isNew)
	writeJSON(w, http.StatusAccepted, map[string]any{"kind": kind, "sourceId": id, "new": isNew})
}

func (h *handler) deleteSource(w http.ResponseWriter, r *http.Request) {
	kind, ok := h.kind(w, r)
	if !ok {
		return
	}
	id, ok := intParam(w, r, "id", minSourceID(kind))
	if !ok {
		return
	}
	h.registry().DeleteBySourceID(r.Context(), kind, id)
	w.WriteHeader(http.StatusNoContent)
}

// elementPayload is the body of POST /elements/invalidate.
type elementPayload struct {
	Type     string `json:"type"` // entry, category, product
	ID       int64  `json:"id"`
	SourceID int64  `json:"sourceId"`
	SiteID   int64  `json:"siteId"`
	URI      string `json:"uri"`
	New      bool   `json:"new"`
}

func (p elementPayload) element() (bundle.Element, error) {
	switch p.Type {
	case "entry":
		return &bundle.Entry{ID: p.ID, SectionID: p.SourceID, SiteID: p.SiteID, URI: p.URI}, nil
	case "category":
		return &bundle.Category{ID: p.ID, GroupID: p.SourceID, SiteID: p.SiteID, URI: p.URI}, nil
	case "product":
		return &bundle.Product{ID: p.ID, TypeID: p.SourceID, SiteID: p.SiteID, URI: p.URI}, nil
	}
	return nil, errors.New("unknown element type " + strconv.Quote(p.Type))
}

func (h *handler) invalidateElement(w http.ResponseWriter, r *http.Request) {
	var p elementPayload
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	e, err := p.element()
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	h.registry().InvalidateByElement(r.Context(), e, p.New)

	sourceID, siteID := bundle.SourceIDFromElement(e)
	writeJSON(w, http.StatusAccepted, map[string]any{"sourceId": sourceID, "siteId": siteID, "new": p.New})
}

func (h *handler) install(w http.ResponseWriter, r *http.Request) {
	reg := h.registry()
	globals := reg.CreateAllGlobalBundles(r.Context())
	content := reg.CreateAllContentBundles(r.Context())
	h.log.Infow("bundles installed", "global", globals, "content", content)
	writeJSON(w, http.StatusOK, map[string]int{"global": globals, "content": content})
}

func (h *handler) reload(w http.ResponseWriter, _ *http.Request) {
	h.opts.Reload()
	w.WriteHeader(http.StatusNoContent)
}

func (h *handler) listBundles(w http.ResponseWriter, r *http.Request) {
	allSites := r.URL.Query().Get("all_sites") == "1"
	bundles := h.registry().ContentBundles(r.Context(), allSites)
	if bundles == nil {
		bundles = []*bundle.Bundle{}
	}
	writeJSON(w, http.StatusOK, bundles)
}

func (h *handler) getBundle(w http.ResponseWriter, r *http.Request) {
	kind, ok := h.kind(w, r)
	if !ok {
		return
	}
	siteID, ok := intParam(w, r, "site", 1)
	if !ok {
		return
	}

	var (
		b   *bundle.Bundle
		err error
		ref = chi.URLParam(r, "ref")
	)
	if id, perr := strconv.ParseInt(ref, 10, 64); perr == nil {
		if id < minSourceID(kind) {
			writeError(w, http.StatusBadRequest, errors.New("invalid ref"))
			return
		}
		b, err = h.registry().BundleBySourceID(r.Context(), kind, id, siteID)
	} else {
		b, err = h.registry().BundleBySourceHandle(r.Context(), kind, ref, siteID)
	}
	switch {
	case errors.Is(err, bundle.ErrUnsupportedKind):
		writeError(w, http.StatusNotImplemented, err)
	case err != nil:
		writeError(w, http.StatusBadRequest, err)
	case b == nil:
		writeError(w, http.StatusNotFound, errors.New("no bundle for source on site"))
	default:
		writeJSON(w, http.StatusOK, b)
	}
}

/*──────────────────────────── helpers ─────────────────────────────────────*/

// kind parses {kind}.  Product is accepted here; the registry decides
// what it can do with it.
func (h *handler) kind(w http.ResponseWriter, r *http.Request) (bundle.Kind, bool) {
	k, err := bundle.ParseKind(chi.URLParam(r, "kind"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return "", false
	}
	return k, true
}

// minSourceID is the smallest source id kind accepts.  Global bundles are
// addressed by 0; content sources start at 1.
func minSourceID(kind bundle.Kind) int64 {
	if kind == bundle.KindGlobal {
		return 0
	}
	return 1
}

// intParam parses the {name} path segment and rejects values below floor.
func intParam(w http.ResponseWriter, r *http.Request, name string, floor int64) (int64, bool) {
	n, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || n < floor {
		writeError(w, http.StatusBadRequest, errors.New("invalid "+name))
		return 0, false
	}
	return n, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
