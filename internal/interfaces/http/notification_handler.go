package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/despensa-api/internal/application/alerting"
)

// NotificationHandler bandeja de notificaciones de stock (protegido).
type NotificationHandler struct {
	inbox *alerting.Inbox
}

// NewNotificationHandler construye el handler.
func NewNotificationHandler(inbox *alerting.Inbox) *NotificationHandler {
	return &NotificationHandler{inbox: inbox}
}

// List godoc
// @Summary      Listar notificaciones
// @Tags         notifications
// @Security     Bearer
// @Produce      json
// @Success      200  {array}  dto.NotificationDTO
// @Router       /api/notifications [get]
func (h *NotificationHandler) List(c *fiber.Ctx) error {
	userID := GetUserID(c)
	if userID == "" {
		return unauthorized(c)
	}
	out, err := h.inbox.List(c.UserContext(), userID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// Dismiss godoc
// @Summary      Marcar notificación como vista
// @Description  Deja de bloquear nuevas alertas para el mismo ítem.
// @Tags         notifications
// @Security     Bearer
// @Param        id   path  string  true  "ID de la notificación"
// @Success      204
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/notifications/{id}/seen [post]
func (h *NotificationHandler) Dismiss(c *fiber.Ctx) error {
	userID := GetUserID(c)
	if userID == "" {
		return unauthorized(c)
	}
	if err := h.inbox.Dismiss(c.UserContext(), userID, c.Params("id")); err != nil {
		return writeError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// Delete godoc
// @Summary      Borrar notificación
// @Tags         notifications
// @Security     Bearer
// @Param        id   path  string  true  "ID de la notificación"
// @Success      204
// @Router       /api/notifications/{id} [delete]
func (h *NotificationHandler) Delete(c *fiber.Ctx) error {
	userID := GetUserID(c)
	if userID == "" {
		return unauthorized(c)
	}
	if err := h.inbox.Delete(c.UserContext(), userID, c.Params("id")); err != nil {
		return writeError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
