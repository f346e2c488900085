package logs

import (
	"net/http"
	"strconv"

	"github.com/Voltaic314/DataRoom/core/activity"
	"github.com/Voltaic314/DataRoom/types/api"
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers the activity log routes. The group is admin only.
func RegisterRoutes(r chi.Router, server interface{}) {
	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		HandleList(w, r, server)
	})
}

// HandleList filters the activity log with ?user&q&from&to&page&limit
func HandleList(w http.ResponseWriter, r *http.Request, server interface{}) {
	logger := server.(interface{ GetActivityLogger() *activity.Logger }).GetActivityLogger()

	q := r.URL.Query()
	page, _ := strconv.Atoi(q.Get("page"))
	limit, _ := strconv.Atoi(q.Get("limit"))
	res, err := logger.List(r.Context(), activity.ListRequest{
		User:  q.Get("user"),
		Q:     q.Get("q"),
		From:  q.Get("from"),
		To:    q.Get("to"),
		Page:  page,
		Limit: limit,
	})
	if err != nil {
		api.Error(w, err)
		return
	}
	api.Success(w, res)
}
