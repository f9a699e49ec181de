package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/intersect-health/fhir-api/internal/core/domain"
	"github.com/intersect-health/fhir-api/internal/core/ports"
)

// ResourceHandler exposes CRUD for every supported FHIR resource type under
// /:type.
type ResourceHandler struct {
	service ports.ResourceService
}

func NewResourceHandler(service ports.ResourceService) *ResourceHandler {
	return &ResourceHandler{service: service}
}

// resourceType rejects unknown types before the body is read.
func resourceType(c echo.Context) (string, error) {
	t := c.Param("type")
	if !domain.IsSupportedResource(t) {
		return "", domain.ErrUnsupportedResource
	}
	return t, nil
}

// bindResource reads the body only; path params must not leak into the map.
func bindResource(c echo.Context) (domain.Resource, error) {
	var doc domain.Resource
	if err := (&echo.DefaultBinder{}).BindBody(c, &doc); err != nil || doc == nil {
		return nil, echo.NewHTTPError(http.StatusBadRequest, "body must be a JSON object")
	}
	return doc, nil
}

// Create handles POST /:type.
//
// @Summary      Create a resource
// @Tags         fhir
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        type  path      string  true  "Resource type, e.g. Patient"
// @Param        body  body      object  true  "FHIR resource"
// @Success      201   {object}  object
// @Failure      403   {object}  errorResponse
// @Failure      404   {object}  errorResponse
// @Failure      409   {object}  errorResponse
// @Failure      422   {object}  errorResponse
// @Router       /{type} [post]
func (h *ResourceHandler) Create(c echo.Context) error {
	claims, err := ctxClaims(c)
	if err != nil {
		return err
	}
	t, err := resourceType(c)
	if err != nil {
		return err
	}
	doc, err := bindResource(c)
	if err != nil {
		return err
	}

	created, err := h.service.Create(c.Request().Context(), claims.Subject, t, doc)
	if err != nil {
		return err
	}
	c.Response().Header().Set(echo.HeaderLocation, c.Request().URL.Path+"/"+created.ID())
	return c.JSON(http.StatusCreated, created)
}

// Get handles GET /:type/:id.
//
// @Summary      Read a resource
// @Tags         fhir
// @Produce      json
// @Security     BearerAuth
// @Param        type  path      string  true  "Resource type"
// @Param        id    path      string  true  "Resource id"
// @Success      200   {object}  object
// @Failure      404   {object}  errorResponse
// @Router       /{type}/{id} [get]
func (h *ResourceHandler) Get(c echo.Context) error {
	t, err := resourceType(c)
	if err != nil {
		return err
	}
	doc, err := h.service.Get(c.Request().Context(), t, c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, doc)
}

// List handles GET /:type.
//
// @Summary      List resources
// @Tags         fhir
// @Produce      json
// @Security     BearerAuth
// @Param        type     path      string  true   "Resource type"
// @Param        _count   query     int     false  "Page size (max 1000)"
// @Param        _offset  query     int     false  "Offset"
// @Success      200      {array}   object
// @Failure      404      {object}  errorResponse
// @Router       /{type} [get]
func (h *ResourceHandler) List(c echo.Context) error {
	t, err := resourceType(c)
	if err != nil {
		return err
	}
	filter, err := pageParams(c)
	if err != nil {
		return err
	}
	docs, err := h.service.List(c.Request().Context(), t, filter)
	if err != nil {
		return err
	}
	if docs == nil {
		docs = []domain.Resource{}
	}
	return c.JSON(http.StatusOK, docs)
}

// Update handles PUT /:type/:id.
//
// @Summary      Replace a resource
// @Tags         fhir
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        type  path      string  true  "Resource type"
// @Param        id    path      string  true  "Resource id"
// @Param        body  body      object  true  "FHIR resource"
// @Success      200   {object}  object
// @Failure      403   {object}  errorResponse
// @Failure      404   {object}  errorResponse
// @Failure      422   {object}  errorResponse
// @Router       /{type}/{id} [put]
func (h *ResourceHandler) Update(c echo.Context) error {
	claims, err := ctxClaims(c)
	if err != nil {
		return err
	}
	t, err := resourceType(c)
	if err != nil {
		return err
	}
	doc, err := bindResource(c)
	if err != nil {
		return err
	}

	updated, err := h.service.Update(c.Request().Context(), claims.Subject, t, c.Param("id"), doc)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, updated)
}

// Delete handles DELETE /:type/:id.
//
// @Summary      Delete a resource
// @Tags         fhir
// @Security     BearerAuth
// @Param        type  path  string  true  "Resource type"
// @Param        id    path  string  true  "Resource id"
// @Success      204
// @Failure      403   {object}  errorResponse
// @Failure      404   {object}  errorResponse
// @Router       /{type}/{id} [delete]
func (h *ResourceHandler) Delete(c echo.Context) error {
	claims, err := ctxClaims(c)
	if err != nil {
		return err
	}
	t, err := resourceType(c)
	if err != nil {
		return err
	}
	if err := h.service.Delete(c.Request().Context(), claims.Subject, t, c.Param("id")); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}
