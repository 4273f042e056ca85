// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"inkwell/internal/blog"
	"inkwell/internal/markdown"
	"inkwell/internal/metrics"
	"inkwell/internal/middleware"
	"inkwell/internal/models"
)

// CategoryService is the category API backend. *blog.CategoryService
// satisfies it.
type CategoryService interface {
	List(ctx context.Context) ([]models.Category, error)
	GetByID(ctx context.Context, id int64) (*models.Category, error)
	GetBySlug(ctx context.Context, slug string) (*models.Category, error)
	Create(ctx context.Context, in blog.CreateCategoryInput) (*models.Category, error)
	Update(ctx context.Context, in blog.UpdateCategoryInput) (*models.Category, error)
	Delete(ctx context.Context, id int64) (*models.DeleteResult, error)
}

// PostService is the post API backend. *blog.PostService satisfies it.
type PostService interface {
	List(ctx context.Context, in blog.ListPostsInput) ([]models.Post, error)
	GetByID(ctx context.Context, id int64) (*models.Post, error)
	GetBySlug(ctx context.Context, slug string) (*models.Post, error)
	Create(ctx context.Context, in blog.CreatePostInput) (*models.Post, error)
	Update(ctx context.Context, in blog.UpdatePostInput) (*models.Post, error)
	Delete(ctx context.Context, id int64) (*models.DeleteResult, error)
}

// procedure runs one API operation on raw JSON input.
type procedure func(ctx context.Context, input []byte) (any, error)

// API dispatches /api/{procedure} requests. Queries are served over GET
// with their input JSON in the "input" query parameter; mutations are
// served over POST with a JSON body.
type API struct {
	queries   map[string]procedure
	mutations map[string]procedure
}

// NewAPI registers the category and post procedures.
func NewAPI(categories CategoryService, posts PostService) *API {
	return &API{
		queries: map[string]procedure{
			"categories.list": func(ctx context.Context, _ []byte) (any, error) {
				return categories.List(ctx)
			},
			"categories.getById":   byID(categories.GetByID),
			"categories.getBySlug": bySlug(categories.GetBySlug),

			"posts.list":      withInput(posts.List),
			"posts.getById":   byID(posts.GetByID),
			"posts.getBySlug": bySlug(renderedPost(posts.GetBySlug)),
		},
		mutations: map[string]procedure{
			"categories.create": withInput(categories.Create),
			"categories.update": withInput(categories.Update),
			"categories.delete": byID(categories.Delete),

			"posts.create": withInput(posts.Create),
			"posts.update": withInput(posts.Update),
			"posts.delete": byID(posts.Delete),
		},
	}
}

// Query serves GET /api/{procedure}.
func (a *API) Query(w http.ResponseWriter, r *http.Request) {
	a.serve(w, r, a.queries, []byte(r.URL.Query().Get("input")))
}

// Mutate serves POST /api/{procedure}.
func (a *API) Mutate(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "PAYLOAD_TOO_LARGE", "Request body too large")
			return
		}
		writeError(w, http.StatusBadRequest, string(blog.KindValidationFailed), "Could not read request body")
		return
	}
	a.serve(w, r, a.mutations, body)
}

func (a *API) serve(w http.ResponseWriter, r *http.Request, table map[string]procedure, input []byte) {
	name := chi.URLParam(r, "procedure")

	proc, ok := table[name]
	if !ok {
		_, isQuery := a.queries[name]
		_, isMutation := a.mutations[name]
		if isQuery || isMutation {
			writeError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Procedure "+name+" does not accept "+r.Method)
			return
		}
		writeError(w, http.StatusNotFound, string(blog.KindNotFound), "Unknown procedure")
		return
	}

	result, err := proc(r.Context(), input)
	if err != nil {
		kind := blog.KindOf(err)
		metrics.Procedures.WithLabelValues(name, string(kind)).Inc()
		if kind == blog.KindInternal {
			slog.Error("procedure failed",
				"procedure", name,
				"error", err,
				"request_id", middleware.RequestIDFromCtx(r.Context()),
			)
		}
		writeServiceError(w, err)
		return
	}

	metrics.Procedures.WithLabelValues(name, "OK").Inc()
	writeResult(w, result)
}

func invalidInput(msg string) error {
	return &blog.Error{Kind: blog.KindValidationFailed, Message: msg}
}

// decode parses procedure input into T. Empty input yields the zero value;
// unknown fields are rejected.
func decode[T any](input []byte) (T, error) {
	var v T
	if len(bytes.TrimSpace(input)) == 0 {
		return v, nil
	}
	dec := json.NewDecoder(bytes.NewReader(input))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&v); err != nil {
		return v, invalidInput("Invalid input: " + err.Error())
	}
	if dec.More() {
		return v, invalidInput("Invalid input: trailing data")
	}
	return v, nil
}

func withInput[I, R any](fn func(context.Context, I) (R, error)) procedure {
	return func(ctx context.Context, input []byte) (any, error) {
		in, err := decode[I](input)
		if err != nil {
			return nil, err
		}
		return fn(ctx, in)
	}
}

type idInput struct {
	ID int64 `json:"id"`
}

func byID[R any](fn func(context.Context, int64) (R, error)) procedure {
	return func(ctx context.Context, input []byte) (any, error) {
		in, err := decode[idInput](input)
		if err != nil {
			return nil, err
		}
		if msg := validateID(in.ID); msg != "" {
			return nil, invalidInput(msg)
		}
		return fn(ctx, in.ID)
	}
}

type slugInput struct {
	Slug string `json:"slug"`
}

func bySlug[R any](fn func(context.Context, string) (R, error)) procedure {
	return func(ctx context.Context, input []byte) (any, error) {
		in, err := decode[slugInput](input)
		if err != nil {
			return nil, err
		}
		if msg := validateSlugInput(in.Slug); msg != "" {
			return nil, invalidInput(msg)
		}
		return fn(ctx, in.Slug)
	}
}

// renderedPost adds the Markdown rendering of the content to a fetched
// post. A rendering failure leaves ContentHTML empty.
func renderedPost(get func(context.Context, string) (*models.Post, error)) func(context.Context, string) (*models.Post, error) {
	return func(ctx context.Context, s string) (*models.Post, error) {
		p, err := get(ctx, s)
		if err != nil {
			return nil, err
		}
		html, err := markdown.ToHTML(p.Content)
		if err != nil {
			slog.Warn("render post content failed", "post_id", p.ID, "error", err)
			return p, nil
		}
		p.ContentHTML = html
		return p, nil
	}
}
