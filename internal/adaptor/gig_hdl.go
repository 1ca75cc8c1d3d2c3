package adaptor

import (
	"net/http"

	"gig-booking/internal/dto/request"
	"gig-booking/internal/usecase"
	"gig-booking/pkg/utils"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type GigHandler struct {
	service usecase.GigService
	log     *zap.Logger
}

func NewGigHandler(service usecase.GigService, log *zap.Logger) *GigHandler {
	return &GigHandler{
		service: service,
		log:     log.With(zap.String("handler", "gig")),
	}
}

// CreateGig handles POST /api/gigs
func (h *GigHandler) CreateGig(w http.ResponseWriter, r *http.Request) {
	actor, meta, ok := requestContext(w, r)
	if !ok {
		return
	}

	var req request.CreateGigRequest
	if !decodeAndValidate(w, r, &req, false) {
		return
	}

	gig, err := h.service.CreateGig(r.Context(), actor, &req, meta)
	if err != nil {
		handleServiceError(w, h.log, err, "create gig")
		return
	}

	utils.ResponseCreated(w, "Gig created successfully", gig)
}

// PreauthorizeGig handles POST /api/gigs/{id}/preauthorize. The body is
// optional.
func (h *GigHandler) PreauthorizeGig(w http.ResponseWriter, r *http.Request) {
	actor, meta, ok := requestContext(w, r)
	if !ok {
		return
	}

	var req request.PreauthorizeGigRequest
	if !decodeAndValidate(w, r, &req, true) {
		return
	}

	gig, err := h.service.PreauthorizeGig(r.Context(), actor, chi.URLParam(r, "id"), &req, meta)
	if err != nil {
		handleServiceError(w, h.log, err, "preauthorize gig")
		return
	}

	utils.ResponseSuccess(w, "Gig preauthorized successfully", gig)
}

// PublishGig handles POST /api/gigs/{id}/publish
func (h *GigHandler) PublishGig(w http.ResponseWriter, r *http.Request) {
	actor, meta, ok := requestContext(w, r)
	if !ok {
		return
	}

	gig, err := h.service.PublishGig(r.Context(), actor, chi.URLParam(r, "id"), meta)
	if err != nil {
		handleServiceError(w, h.log, err, "publish gig")
		return
	}

	utils.ResponseSuccess(w, "Gig published successfully", gig)
}

// ListGigs handles GET /api/gigs?page=&per_page=&venue_id=&publish_status=
func (h *GigHandler) ListGigs(w http.ResponseWriter, r *http.Request) {
	actor, _, ok := requestContext(w, r)
	if !ok {
		return
	}

	query := r.URL.Query()
	req := &request.ListGigsRequest{
		PaginatedRequest: request.PaginatedRequest{
			Page:    utils.ParseInt(query.Get("page"), 1),
			PerPage: utils.ParseInt(query.Get("per_page"), 10),
		},
		VenueID:       utils.StringPtr(query.Get("venue_id")),
		PublishStatus: utils.StringPtr(query.Get("publish_status")),
	}
	if validationErrors := utils.ValidateStruct(req); len(validationErrors) > 0 {
		utils.ResponseBadRequest(w, "Validation failed", validationErrors)
		return
	}

	gigs, err := h.service.ListGigs(r.Context(), actor, req)
	if err != nil {
		handleServiceError(w, h.log, err, "list gigs")
		return
	}

	utils.ResponseSuccess(w, "Gigs retrieved successfully", gigs)
}

// GetGig handles GET /api/gigs/{id}
func (h *GigHandler) GetGig(w http.ResponseWriter, r *http.Request) {
	actor, _, ok := requestContext(w, r)
	if !ok {
		return
	}

	gig, err := h.service.GetGig(r.Context(), actor, chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, h.log, err, "get gig")
		return
	}

	utils.ResponseSuccess(w, "Gig retrieved successfully", gig)
}
