package httpx

import (
	"net/http"

	"github.com/krishnx/vestigas/internal/domain/model"
	"github.com/krishnx/vestigas/internal/service"
)

// DeliveryHandlers provides HTTP handlers for querying stored deliveries.
type DeliveryHandlers struct {
	Svc *service.DeliveryQueryService
}

// ListDeliveries returns one page of deliveries matching the query filters:
// siteId, status, min_score, limit, offset.
func (h *DeliveryHandlers) ListDeliveries(w http.ResponseWriter, r *http.Request) {
	opts, err := parseDeliveryListOptions(r)
	if err != nil {
		WriteAppError(w, err)
		return
	}

	page, err := h.Svc.List(r.Context(), opts)
	if err != nil {
		WriteAppError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, page)
}

func parseDeliveryListOptions(r *http.Request) (model.DeliveryListOptions, error) {
	var opts model.DeliveryListOptions

	q := r.URL.Query()
	if v := q.Get("siteId"); v != "" {
		opts.SiteID = &v
	}
	if v := q.Get("status"); v != "" {
		status := model.DeliveryStatus(v)
		opts.Status = &status
	}
	minScore, err := parseFloatQuery(r, "min_score")
	if err != nil {
		return opts, err
	}
	opts.MinScore = minScore

	opts.Limit, err = parseIntQueryStrict(r, "limit", service.DefaultPageSize)
	if err != nil {
		return opts, err
	}
	opts.Offset, err = parseIntQueryStrict(r, "offset", 0)
	if err != nil {
		return opts, err
	}
	return opts, nil
}
