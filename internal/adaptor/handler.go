package adaptor

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"gig-booking/internal/data/entity"
	"gig-booking/internal/usecase"
	"gig-booking/pkg/apperr"
	"gig-booking/pkg/utils"

	"go.uber.org/zap"
)

type Handler struct {
	Gig     *GigHandler
	Booking *BookingHandler
	Admin   *AdminHandler
}

func NewHandler(service *usecase.Service, log *zap.Logger) *Handler {
	return &Handler{
		Gig:     NewGigHandler(service.Gig, log),
		Booking: NewBookingHandler(service.Booking, log),
		Admin:   NewAdminHandler(service.Audit, service.Catalog, log),
	}
}

// handleServiceError writes err with its stable code. Internal failures are
// logged and their details hidden from the client.
func handleServiceError(w http.ResponseWriter, log *zap.Logger, err error, operation string) {
	appErr := apperr.As(err)

	if appErr.Kind == apperr.KindInternal {
		log.Error("Failed to "+operation,
			zap.Error(err),
			zap.String("operation", operation),
		)
		utils.ResponseInternalError(w, "Internal server error")
		return
	}

	if appErr.Kind == apperr.KindUnavailable {
		log.Error(operation+" failed upstream",
			zap.Error(err),
			zap.String("code", appErr.Code),
		)
	} else {
		log.Warn(operation+" rejected",
			zap.String("code", appErr.Code),
			zap.String("operation", operation),
		)
	}

	utils.ResponseError(w, appErr.Kind.HTTPStatus(), appErr.Code, appErr.Message, nil)
}

// requestContext returns the authenticated actor and client metadata, or
// writes 401 when the auth middleware did not run.
func requestContext(w http.ResponseWriter, r *http.Request) (entity.Actor, entity.ClientMeta, bool) {
	actor, ok := utils.GetActorFromContext(r.Context())
	if !ok {
		utils.ResponseUnauthorized(w, "Authentication required")
		return entity.Actor{}, entity.ClientMeta{}, false
	}
	return actor, utils.GetClientMetaFromContext(r.Context()), true
}

// decodeAndValidate reads a JSON body into dst. An empty body is accepted
// when optional is true.
func decodeAndValidate(w http.ResponseWriter, r *http.Request, dst any, optional bool) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		if !(optional && errors.Is(err, io.EOF)) {
			utils.ResponseBadRequest(w, "Invalid request body", nil)
			return false
		}
	}

	if validationErrors := utils.ValidateStruct(dst); len(validationErrors) > 0 {
		utils.ResponseBadRequest(w, "Validation failed", validationErrors)
		return false
	}
	return true
}
