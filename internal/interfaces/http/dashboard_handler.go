package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/despensa-api/internal/application/session"
)

// DashboardHandler expone la vista derivada de la sesión sincronizada del usuario.
type DashboardHandler struct {
	sessions *session.Manager
}

// NewDashboardHandler construye el handler.
func NewDashboardHandler(sessions *session.Manager) *DashboardHandler {
	return &DashboardHandler{sessions: sessions}
}

// Get godoc
// @Summary      Dashboard de la despensa
// @Description  Stock con días restantes, listas, notificaciones y contadores. stale=true si alguna suscripción falló.
// @Tags         dashboard
// @Security     Bearer
// @Produce      json
// @Success      200  {object}  dto.DashboardDTO
// @Failure      503  {object}  dto.ErrorResponse
// @Router       /api/dashboard [get]
func (h *DashboardHandler) Get(c *fiber.Ctx) error {
	userID := GetUserID(c)
	if userID == "" {
		return unauthorized(c)
	}
	s, err := h.sessions.Get(userID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(s.View().DTO())
}

// End godoc
// @Summary      Cerrar la sesión sincronizada
// @Description  Libera las suscripciones en vivo del usuario (logout).
// @Tags         dashboard
// @Security     Bearer
// @Success      204
// @Router       /api/session [delete]
func (h *DashboardHandler) End(c *fiber.Ctx) error {
	userID := GetUserID(c)
	if userID == "" {
		return unauthorized(c)
	}
	h.sessions.End(userID)
	return c.SendStatus(fiber.StatusNoContent)
}
