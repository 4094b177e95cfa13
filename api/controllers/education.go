package controllers

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/jaradmin/jar-backend/api/responses"
	"github.com/jaradmin/jar-backend/api/validators"
	"github.com/jaradmin/jar-backend/internal/education"
	"github.com/jaradmin/jar-backend/pkg/logger"
)

// News and knowledge-base handlers share the same shapes, so each pair is
// generated from the matching service methods.

func createPost[M any](
	create func(ctx context.Context, actorID uuid.UUID, input education.PostInput) (*M, error),
	logg *logger.Logger,
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := actorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var body education.PostInput
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		post, err := create(r.Context(), actor, body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, post)
	}
}

func updatePost[M any](
	param string,
	update func(ctx context.Context, actorID, id uuid.UUID, input education.PostInput) (*M, error),
	logg *logger.Logger,
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := actorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		id, err := pathUUID(r, param)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var body education.PostInput
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		post, err := update(r.Context(), actor, id, body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, post)
	}
}

func getPost[M any](
	param string,
	get func(ctx context.Context, id uuid.UUID) (*M, error),
	logg *logger.Logger,
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathUUID(r, param)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		post, err := get(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, post)
	}
}

func listPosts[R any](
	list func(ctx context.Context, params education.ListPostsParams) (*R, error),
	publishedOnly bool,
	logg *logger.Logger,
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit, err := validators.ParseQueryInt(r, "limit", 0, 1, 200)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		result, err := list(r.Context(), education.ListPostsParams{
			Limit:         limit,
			Cursor:        strings.TrimSpace(r.URL.Query().Get("cursor")),
			PublishedOnly: publishedOnly,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

func deletePost(
	param string,
	remove func(ctx context.Context, actorID, id uuid.UUID) error,
	logg *logger.Logger,
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := actorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		id, err := pathUUID(r, param)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := remove(r.Context(), actor, id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"deleted": true})
	}
}

func CreateNews(svc education.Service, logg *logger.Logger) http.HandlerFunc {
	return createPost(svc.CreateNews, logg)
}

func UpdateNews(svc education.Service, logg *logger.Logger) http.HandlerFunc {
	return updatePost("newsId", svc.UpdateNews, logg)
}

func GetNews(svc education.Service, logg *logger.Logger) http.HandlerFunc {
	return getPost("newsId", svc.GetNews, logg)
}

// ListNews serves the editorial view including drafts and scheduled posts.
func ListNews(svc education.Service, logg *logger.Logger) http.HandlerFunc {
	return listPosts(svc.ListNews, false, logg)
}

// ListPublishedNews serves the reader-facing feed.
func ListPublishedNews(svc education.Service, logg *logger.Logger) http.HandlerFunc {
	return listPosts(svc.ListNews, true, logg)
}

func DeleteNews(svc education.Service, logg *logger.Logger) http.HandlerFunc {
	return deletePost("newsId", svc.DeleteNews, logg)
}

func CreateKnowledge(svc education.Service, logg *logger.Logger) http.HandlerFunc {
	return createPost(svc.CreateKnowledge, logg)
}

func UpdateKnowledge(svc education.Service, logg *logger.Logger) http.HandlerFunc {
	return updatePost("knowledgeId", svc.UpdateKnowledge, logg)
}

func GetKnowledge(svc education.Service, logg *logger.Logger) http.HandlerFunc {
	return getPost("knowledgeId", svc.GetKnowledge, logg)
}

// ListKnowledge serves the editorial view including drafts.
func ListKnowledge(svc education.Service, logg *logger.Logger) http.HandlerFunc {
	return listPosts(svc.ListKnowledge, false, logg)
}

// ListPublishedKnowledge serves the reader-facing knowledge base.
func ListPublishedKnowledge(svc education.Service, logg *logger.Logger) http.HandlerFunc {
	return listPosts(svc.ListKnowledge, true, logg)
}

func DeleteKnowledge(svc education.Service, logg *logger.Logger) http.HandlerFunc {
	return deletePost("knowledgeId", svc.DeleteKnowledge, logg)
}
