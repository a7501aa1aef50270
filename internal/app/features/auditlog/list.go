// internal/app/features/auditlog/list.go
package auditlog

import (
	"net/http"
	"time"

	"github.com/dalemusser/missionhub/internal/app/store/audit"
	"github.com/dalemusser/missionhub/internal/app/system/apiutil"
	"github.com/dalemusser/missionhub/internal/app/system/apperr"
	"github.com/dalemusser/missionhub/internal/app/system/authz"
	"github.com/dalemusser/missionhub/internal/app/system/normalize"
	"github.com/dalemusser/missionhub/internal/app/system/paging"
	"github.com/dalemusser/missionhub/internal/app/system/timeouts"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ServeList handles GET /api/audit, a paged audit event query.
//
// Admins see every event. Chiefs are pinned to their own department,
// whatever department filter they send.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	actor, ok := authz.UserCtx(r)
	if !ok {
		apiutil.WriteError(w, h.Log, apperr.Unauthenticatedf("sign in required"))
		return
	}
	if !actor.IsAdmin() && !actor.IsChief() {
		apiutil.WriteError(w, h.Log, apperr.Forbiddenf("only admins and chiefs view the audit log"))
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Long(), h.Log, "audit log list")
	defer cancel()

	page := paging.ParsePage(r)
	limit := paging.ParseLimit(r)

	filter := audit.QueryFilter{
		Category:  normalize.QueryParam(r.URL.Query().Get("category")),
		EventType: normalize.QueryParam(r.URL.Query().Get("event_type")),
		Limit:     limit,
		Offset:    paging.Skip(page, limit),
	}

	if s := normalize.QueryParam(r.URL.Query().Get("user_id")); s != "" {
		id, err := primitive.ObjectIDFromHex(s)
		if err != nil {
			apiutil.WriteError(w, h.Log, apperr.Invalidf("malformed user id"))
			return
		}
		filter.UserID = &id
	}
	if s := normalize.QueryParam(r.URL.Query().Get("start_date")); s != "" {
		t, err := time.Parse("2006-01-02", s)
		if err != nil {
			apiutil.WriteError(w, h.Log, apperr.Invalidf("start_date must be YYYY-MM-DD"))
			return
		}
		filter.StartTime = &t
	}
	if s := normalize.QueryParam(r.URL.Query().Get("end_date")); s != "" {
		t, err := time.Parse("2006-01-02", s)
		if err != nil {
			apiutil.WriteError(w, h.Log, apperr.Invalidf("end_date must be YYYY-MM-DD"))
			return
		}
		endOfDay := t.Add(24*time.Hour - time.Second)
		filter.EndTime = &endOfDay
	}

	if actor.IsChief() {
		if actor.DepartmentID == nil {
			apiutil.WriteError(w, h.Log, apperr.Forbiddenf("chief account has no department"))
			return
		}
		filter.DepartmentID = actor.DepartmentID
	} else if s := normalize.QueryParam(r.URL.Query().Get("department_id")); s != "" {
		id, err := primitive.ObjectIDFromHex(s)
		if err != nil {
			apiutil.WriteError(w, h.Log, apperr.Invalidf("malformed department id"))
			return
		}
		filter.DepartmentID = &id
	}

	events, err := h.Store.Query(ctx, filter)
	if err != nil {
		apiutil.WriteError(w, h.Log, apperr.Remote(err))
		return
	}
	total, err := h.Store.CountByFilter(ctx, filter)
	if err != nil {
		apiutil.WriteError(w, h.Log, apperr.Remote(err))
		return
	}

	views := make([]eventView, 0, len(events))
	for _, e := range events {
		views = append(views, toEventView(e))
	}
	apiutil.WriteJSON(w, http.StatusOK, listResponse{
		Events:     views,
		Total:      total,
		Page:       page,
		PageSize:   limit,
		TotalPages: paging.Pages(total, limit),
	})
}

// ServeTypes handles GET /api/audit/types, listing the categories and
// event types the dashboard can filter on.
func (h *Handler) ServeTypes(w http.ResponseWriter, r *http.Request) {
	apiutil.WriteJSON(w, http.StatusOK, eventTypes())
}
