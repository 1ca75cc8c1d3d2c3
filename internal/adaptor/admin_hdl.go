package adaptor

import (
	"net/http"
	"strconv"

	"gig-booking/internal/dto/request"
	"gig-booking/internal/usecase"
	"gig-booking/pkg/utils"

	"go.uber.org/zap"
)

type AdminHandler struct {
	audit   usecase.AuditService
	catalog usecase.CatalogService
	log     *zap.Logger
}

func NewAdminHandler(audit usecase.AuditService, catalog usecase.CatalogService, log *zap.Logger) *AdminHandler {
	return &AdminHandler{
		audit:   audit,
		catalog: catalog,
		log:     log.With(zap.String("handler", "admin")),
	}
}

// ListAuditEvents handles GET /api/admin/audit?entity_type=&entity_id=&actor_user_id=&action=&limit=
func (h *AdminHandler) ListAuditEvents(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	req := &request.AuditQueryRequest{
		EntityType:  query.Get("entity_type"),
		EntityID:    query.Get("entity_id"),
		ActorUserID: query.Get("actor_user_id"),
		Action:      query.Get("action"),
	}
	if raw := query.Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil {
			utils.ResponseBadRequest(w, "limit must be a number", nil)
			return
		}
		req.Limit = limit
	}
	if validationErrors := utils.ValidateStruct(req); len(validationErrors) > 0 {
		utils.ResponseBadRequest(w, "Validation failed", validationErrors)
		return
	}

	events, err := h.audit.List(r.Context(), req)
	if err != nil {
		handleServiceError(w, h.log, err, "list audit events")
		return
	}

	utils.ResponseSuccess(w, "Audit events retrieved successfully", events)
}

// SeedCatalog handles POST /api/admin/catalog/seed
func (h *AdminHandler) SeedCatalog(w http.ResponseWriter, r *http.Request) {
	actor, meta, ok := requestContext(w, r)
	if !ok {
		return
	}

	result, err := h.catalog.SeedDefaults(r.Context(), actor, meta)
	if err != nil {
		handleServiceError(w, h.log, err, "seed catalog")
		return
	}

	utils.ResponseSuccess(w, "Catalog seeded", result)
}
