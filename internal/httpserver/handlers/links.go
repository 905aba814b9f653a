package handlers

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/catmanduz/link-reminder/internal/domain"
	"github.com/catmanduz/link-reminder/internal/httpserver/deps"
)

type quickSaveRequest struct {
	URL   string `json:"url"`
	Title string `json:"title"`
}

// ListLinks returns the library, newest first, optionally filtered
// by category, domain, url and keywords query parameters.
func ListLinks(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		all, err := d.Links.List(r.Context())
		if err != nil {
			writeError(w, r, d, err)
			return
		}

		q := r.URL.Query()
		filter := domain.Filter{
			Category: q.Get("category"),
			Domain:   q.Get("domain"),
			URL:      q.Get("url"),
			Keywords: domain.ParseKeywordQuery(q.Get("keywords")),
		}

		writeJSON(w, http.StatusOK, filter.Apply(all))
	}
}

// ExportLinks returns every link as a downloadable JSON file.
func ExportLinks(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		all, err := d.Links.List(r.Context())
		if err != nil {
			writeError(w, r, d, err)
			return
		}

		name := fmt.Sprintf("links-%s.json", d.Now().Format("20060102"))
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
		writeJSON(w, http.StatusOK, all)
	}
}

func GetLink(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		link, err := d.Links.Get(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, r, d, err)
			return
		}
		writeJSON(w, http.StatusOK, link)
	}
}

// SaveLink is the detailed save: upsert by URL, then arm or disarm the
// reminder to match reminderAt.
func SaveLink(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in domain.LinkInput
		if err := decodeJSON(w, r, &in); err != nil {
			writeError(w, r, d, err)
			return
		}
		if in.ReminderAt != nil && !in.ReminderAt.After(d.Now()) {
			writeError(w, r, d, domain.ErrReminderInPast)
			return
		}

		ctx := r.Context()
		link, err := d.Links.Upsert(ctx, in)
		if err != nil {
			writeError(w, r, d, err)
			return
		}
		if err := d.Reminders.Arm(ctx, link.ID, in.ReminderAt); err != nil {
			writeError(w, r, d, err)
			return
		}

		link, err = d.Links.Get(ctx, link.ID)
		if err != nil {
			writeError(w, r, d, err)
			return
		}
		writeJSON(w, http.StatusOK, link)
	}
}

// QuickSave is the one-click save; it never touches category, keywords or reminder.
func QuickSave(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req quickSaveRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, r, d, err)
			return
		}

		link, err := d.Links.QuickUpsert(r.Context(), req.URL, req.Title)
		if err != nil {
			writeError(w, r, d, err)
			return
		}
		writeJSON(w, http.StatusOK, link)
	}
}

func DeleteLink(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := d.Links.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
			writeError(w, r, d, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func ClearLinks(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := d.Links.ClearAll(r.Context()); err != nil {
			writeError(w, r, d, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// Categories returns the category vocabulary, insertion order unless sorted=true.
func Categories(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cats, err := d.Links.Categories(r.Context())
		if err != nil {
			writeError(w, r, d, err)
			return
		}
		if r.URL.Query().Get("sorted") == "true" {
			cats = domain.SortCategories(cats)
		}
		writeJSON(w, http.StatusOK, cats)
	}
}
