package http

import (
	"net/http"

	"github.com/YelzhanWeb/restaurant/internal/adapter/logger"
	"github.com/YelzhanWeb/restaurant/internal/domain"
	"github.com/YelzhanWeb/restaurant/internal/interfaces"
)

type PermissionHandler struct {
	service interfaces.PermissionAdminService
	logger  logger.Logger
}

func NewPermissionHandler(service interfaces.PermissionAdminService, logger logger.Logger) *PermissionHandler {
	return &PermissionHandler{service: service, logger: logger}
}

func (h *PermissionHandler) List(w http.ResponseWriter, r *http.Request) {
	who, err := caller(r)
	if err != nil {
		failed(h.logger, w, r, "permissions_list_failed", err)
		return
	}
	perms, err := h.service.ListPermissions(r.Context(), who)
	if err != nil {
		failed(h.logger, w, r, "permissions_list_failed", err)
		return
	}
	writeJSON(w, http.StatusOK, perms)
}

// Set upserts the given entries; takes effect for the next request.
func (h *PermissionHandler) Set(w http.ResponseWriter, r *http.Request) {
	who, err := caller(r)
	if err != nil {
		failed(h.logger, w, r, "permissions_update_failed", err)
		return
	}
	var perms []domain.Permission
	if err := decodeBody(r, &perms); err != nil {
		failed(h.logger, w, r, "permissions_update_failed", err)
		return
	}

	if err := h.service.SetPermissions(r.Context(), who, perms); err != nil {
		failed(h.logger, w, r, "permissions_update_failed", err)
		return
	}
	h.logger.Info("permissions_updated", "Permission table updated", requestIDOf(r), map[string]interface{}{
		"by":      who.Actor(),
		"entries": len(perms),
	})
	w.WriteHeader(http.StatusNoContent)
}
