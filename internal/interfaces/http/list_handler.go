package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/despensa-api/internal/application/dto"
	"github.com/jhoicas/despensa-api/internal/application/lists"
)

// ListHandler maneja las listas de compras y sus ítems (protegido).
type ListHandler struct {
	uc *lists.UseCase
}

// NewListHandler construye el handler.
func NewListHandler(uc *lists.UseCase) *ListHandler {
	return &ListHandler{uc: uc}
}

// Create godoc
// @Summary      Crear lista de compras
// @Tags         lists
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CreateListRequest  true  "Nombre"
// @Success      201   {object}  dto.GroceryListDTO
// @Failure      400   {object}  dto.ErrorResponse
// @Router       /api/lists [post]
func (h *ListHandler) Create(c *fiber.Ctx) error {
	userID := GetUserID(c)
	if userID == "" {
		return unauthorized(c)
	}
	var in dto.CreateListRequest
	if err := c.BodyParser(&in); err != nil {
		return invalidBody(c)
	}
	out, err := h.uc.CreateList(c.UserContext(), userID, in)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// List godoc
// @Summary      Listar listas de compras
// @Tags         lists
// @Security     Bearer
// @Produce      json
// @Success      200  {array}  dto.GroceryListDTO
// @Router       /api/lists [get]
func (h *ListHandler) List(c *fiber.Ctx) error {
	userID := GetUserID(c)
	if userID == "" {
		return unauthorized(c)
	}
	out, err := h.uc.Lists(c.UserContext(), userID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// Get godoc
// @Summary      Obtener lista con sus ítems
// @Tags         lists
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID de la lista"
// @Success      200  {object}  dto.GroceryListDTO
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/lists/{id} [get]
func (h *ListHandler) Get(c *fiber.Ctx) error {
	userID := GetUserID(c)
	if userID == "" {
		return unauthorized(c)
	}
	out, err := h.uc.GetList(c.UserContext(), userID, c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// Delete godoc
// @Summary      Borrar lista
// @Tags         lists
// @Security     Bearer
// @Param        id   path  string  true  "ID de la lista"
// @Success      204
// @Router       /api/lists/{id} [delete]
func (h *ListHandler) Delete(c *fiber.Ctx) error {
	userID := GetUserID(c)
	if userID == "" {
		return unauthorized(c)
	}
	if err := h.uc.DeleteList(c.UserContext(), userID, c.Params("id")); err != nil {
		return writeError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// AddItem godoc
// @Summary      Agregar ítem a la lista
// @Tags         lists
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string               true  "ID de la lista"
// @Param        body  body  dto.ListItemRequest  true  "Ítem"
// @Success      201   {object}  dto.ListItemDTO
// @Failure      400   {object}  dto.ErrorResponse
// @Router       /api/lists/{id}/items [post]
func (h *ListHandler) AddItem(c *fiber.Ctx) error {
	userID := GetUserID(c)
	if userID == "" {
		return unauthorized(c)
	}
	var in dto.ListItemRequest
	if err := c.BodyParser(&in); err != nil {
		return invalidBody(c)
	}
	out, err := h.uc.AddItem(c.UserContext(), userID, c.Params("id"), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// UpdateItem godoc
// @Summary      Actualizar ítem de la lista
// @Tags         lists
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id      path  string               true  "ID de la lista"
// @Param        itemId  path  string               true  "ID del ítem"
// @Param        body    body  dto.ListItemRequest  true  "Campos"
// @Success      200     {object}  dto.ListItemDTO
// @Failure      404     {object}  dto.ErrorResponse
// @Router       /api/lists/{id}/items/{itemId} [patch]
func (h *ListHandler) UpdateItem(c *fiber.Ctx) error {
	userID := GetUserID(c)
	if userID == "" {
		return unauthorized(c)
	}
	var in dto.ListItemRequest
	if err := c.BodyParser(&in); err != nil {
		return invalidBody(c)
	}
	out, err := h.uc.UpdateItem(c.UserContext(), userID, c.Params("id"), c.Params("itemId"), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// DeleteItem godoc
// @Summary      Borrar ítem de la lista
// @Tags         lists
// @Security     Bearer
// @Param        id      path  string  true  "ID de la lista"
// @Param        itemId  path  string  true  "ID del ítem"
// @Success      204
// @Router       /api/lists/{id}/items/{itemId} [delete]
func (h *ListHandler) DeleteItem(c *fiber.Ctx) error {
	userID := GetUserID(c)
	if userID == "" {
		return unauthorized(c)
	}
	if err := h.uc.DeleteItem(c.UserContext(), userID, c.Params("id"), c.Params("itemId")); err != nil {
		return writeError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
