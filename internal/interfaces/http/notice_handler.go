package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/despensa-api/internal/infrastructure/notice"
)

// NoticeHandler entrega los avisos pendientes (éxito, error, info) del usuario.
type NoticeHandler struct {
	feed *notice.Feed
}

// NewNoticeHandler construye el handler.
func NewNoticeHandler(feed *notice.Feed) *NoticeHandler {
	return &NoticeHandler{feed: feed}
}

// Drain godoc
// @Summary      Avisos pendientes
// @Description  Devuelve y vacía la cola de avisos del usuario.
// @Tags         notices
// @Security     Bearer
// @Produce      json
// @Success      200  {array}  notice.Notice
// @Router       /api/notices [get]
func (h *NoticeHandler) Drain(c *fiber.Ctx) error {
	userID := GetUserID(c)
	if userID == "" {
		return unauthorized(c)
	}
	out := h.feed.Drain(userID)
	if out == nil {
		out = []notice.Notice{}
	}
	return c.JSON(out)
}
