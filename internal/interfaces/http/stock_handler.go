package http

import (
	"io"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/despensa-api/internal/application/dto"
	"github.com/jhoicas/despensa-api/internal/application/stock"
)

// StockHandler maneja el ciclo de vida de los ítems de la despensa (protegido).
type StockHandler struct {
	uc *stock.UseCase
}

// NewStockHandler construye el handler.
func NewStockHandler(uc *stock.UseCase) *StockHandler {
	return &StockHandler{uc: uc}
}

// Add godoc
// @Summary      Agregar stock
// @Description  Calcula la línea de tiempo, programa el recordatorio y opcionalmente enlaza el ítem a una lista por nombre.
// @Tags         stock
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.AddStockRequest  true  "Datos del ítem"
// @Success      201   {object}  dto.AddStockResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      502   {object}  dto.ErrorResponse
// @Router       /api/stock [post]
func (h *StockHandler) Add(c *fiber.Ctx) error {
	userID := GetUserID(c)
	if userID == "" {
		return unauthorized(c)
	}
	var in dto.AddStockRequest
	if err := c.BodyParser(&in); err != nil {
		return invalidBody(c)
	}
	out, err := h.uc.AddStock(c.UserContext(), userID, in)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// List godoc
// @Summary      Listar stock
// @Tags         stock
// @Security     Bearer
// @Produce      json
// @Success      200  {array}  dto.StockItemDTO
// @Router       /api/stock [get]
func (h *StockHandler) List(c *fiber.Ctx) error {
	userID := GetUserID(c)
	if userID == "" {
		return unauthorized(c)
	}
	out, err := h.uc.List(c.UserContext(), userID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// Low godoc
// @Summary      Stock por agotarse
// @Description  Ítems con días restantes <= min(2, duración).
// @Tags         stock
// @Security     Bearer
// @Produce      json
// @Success      200  {array}  dto.StockItemDTO
// @Router       /api/stock/low [get]
func (h *StockHandler) Low(c *fiber.Ctx) error {
	userID := GetUserID(c)
	if userID == "" {
		return unauthorized(c)
	}
	out, err := h.uc.LowStock(c.UserContext(), userID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// Get godoc
// @Summary      Obtener ítem de stock
// @Tags         stock
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID del ítem"
// @Success      200  {object}  dto.StockItemDTO
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/stock/{id} [get]
func (h *StockHandler) Get(c *fiber.Ctx) error {
	userID := GetUserID(c)
	if userID == "" {
		return unauthorized(c)
	}
	out, err := h.uc.Get(c.UserContext(), userID, c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// Update godoc
// @Summary      Editar ítem de stock
// @Description  Un cambio de duración recalcula la línea de tiempo desde el inicio original y reemplaza el recordatorio.
// @Tags         stock
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string                  true  "ID del ítem"
// @Param        body  body  dto.UpdateStockRequest  true  "Campos a cambiar"
// @Success      200   {object}  dto.StockItemDTO
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Router       /api/stock/{id} [patch]
func (h *StockHandler) Update(c *fiber.Ctx) error {
	userID := GetUserID(c)
	if userID == "" {
		return unauthorized(c)
	}
	var in dto.UpdateStockRequest
	if err := c.BodyParser(&in); err != nil {
		return invalidBody(c)
	}
	out, err := h.uc.Update(c.UserContext(), userID, c.Params("id"), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// Restock godoc
// @Summary      Reabastecer
// @Description  Reinicia la línea de tiempo desde ahora, cancela el recordatorio anterior y programa uno nuevo.
// @Tags         stock
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string              true   "ID del ítem"
// @Param        body  body  dto.RestockRequest  false  "Nueva cantidad o duración"
// @Success      200   {object}  dto.StockItemDTO
// @Failure      404   {object}  dto.ErrorResponse
// @Router       /api/stock/{id}/restock [post]
func (h *StockHandler) Restock(c *fiber.Ctx) error {
	userID := GetUserID(c)
	if userID == "" {
		return unauthorized(c)
	}
	var in dto.RestockRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&in); err != nil {
			return invalidBody(c)
		}
	}
	out, err := h.uc.Restock(c.UserContext(), userID, c.Params("id"), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// Delete godoc
// @Summary      Borrar ítem de stock
// @Description  Cancela el recordatorio, borra sus notificaciones y luego el ítem.
// @Tags         stock
// @Security     Bearer
// @Success      204
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/stock/{id} [delete]
func (h *StockHandler) Delete(c *fiber.Ctx) error {
	userID := GetUserID(c)
	if userID == "" {
		return unauthorized(c)
	}
	if err := h.uc.Delete(c.UserContext(), userID, c.Params("id")); err != nil {
		return writeError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// UploadImage godoc
// @Summary      Subir foto del ítem
// @Tags         stock
// @Security     Bearer
// @Accept       mpfd
// @Produce      json
// @Param        id     path      string  true  "ID del ítem"
// @Param        image  formData  file    true  "Imagen jpeg, png o webp"
// @Success      200    {object}  dto.StockItemDTO
// @Failure      400    {object}  dto.ErrorResponse
// @Router       /api/stock/{id}/image [put]
func (h *StockHandler) UploadImage(c *fiber.Ctx) error {
	userID := GetUserID(c)
	if userID == "" {
		return unauthorized(c)
	}
	fh, err := c.FormFile("image")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "MISSING_IMAGE", Message: "campo image requerido"})
	}
	f, err := fh.Open()
	if err != nil {
		return invalidBody(c)
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		return invalidBody(c)
	}
	out, err := h.uc.SetImage(c.UserContext(), userID, c.Params("id"), fh.Header.Get("Content-Type"), data)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// Report godoc
// @Summary      Reporte PDF de la despensa
// @Tags         stock
// @Security     Bearer
// @Produce      application/pdf
// @Success      200  {file}  binary
// @Router       /api/stock/report [get]
func (h *StockHandler) Report(c *fiber.Ctx) error {
	userID := GetUserID(c)
	if userID == "" {
		return unauthorized(c)
	}
	pdf, err := h.uc.Report(c.UserContext(), userID)
	if err != nil {
		return writeError(c, err)
	}
	c.Set(fiber.HeaderContentType, "application/pdf")
	c.Set(fiber.HeaderContentDisposition, `inline; filename="despensa.pdf"`)
	return c.Send(pdf)
}
