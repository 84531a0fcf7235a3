package controller

import (
	"errors"
	"net/http"
	"strconv"

	"storefront/pkg/logger"
	"storefront/service"

	"github.com/labstack/echo/v4"
)

// ContactController handles verified contact HTTP requests
type ContactController struct {
	contactService service.ContactService
	logger         *logger.Logger
}

// NewContactController creates a new contact controller instance
func NewContactController(contactService service.ContactService, logger *logger.Logger) *ContactController {
	return &ContactController{
		contactService: contactService,
		logger:         logger,
	}
}

// GetContact retrieves a single verified contact by ID
// @Summary Get Verified Contact
// @Description Get verified contact details by ID
// @Tags Admin
// @Accept json
// @Produce json
// @Security AdminKey
// @Param id path int true "Contact ID"
// @Success 200 {object} entity.ContactResponse
// @Failure 400 {object} map[string]interface{}
// @Failure 401 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Failure 500 {object} map[string]interface{}
// @Router /admin/contacts/{id} [get]
func (c *ContactController) GetContact(ctx echo.Context) error {
	idParam := ctx.Param("id")
	contactID, err := strconv.Atoi(idParam)
	if err != nil {
		c.logger.Warnw("Invalid contact ID", "id", idParam, "error", err)
		return ctx.JSON(http.StatusBadRequest, map[string]interface{}{
			"error":   "Invalid contact ID",
			"details": "Contact ID must be a valid integer",
		})
	}

	contact, err := c.contactService.GetByID(ctx.Request().Context(), contactID)
	if err != nil {
		if errors.Is(err, service.ErrContactNotFound) {
			c.logger.Infow("Contact not found", "contact_id", contactID)
			return ctx.JSON(http.StatusNotFound, map[string]interface{}{
				"error":   "Contact not found",
				"details": "The requested contact does not exist",
			})
		}

		c.logger.Errorw("Failed to get contact", "contact_id", contactID, "error", err)
		return ctx.JSON(http.StatusInternalServerError, map[string]interface{}{
			"error":   "Failed to retrieve contact",
			"details": "Internal server error",
		})
	}

	return ctx.JSON(http.StatusOK, contact)
}

// ListContacts retrieves a paginated list of verified contacts with optional search
// @Summary List Verified Contacts
// @Description Get paginated list of verified contacts with optional search
// @Tags Admin
// @Accept json
// @Produce json
// @Security AdminKey
// @Param page query int false "Page number" default(1)
// @Param page_size query int false "Page size" default(20)
// @Param search query string false "Search by contact"
// @Success 200 {object} entity.ContactsListResponse
// @Failure 401 {object} map[string]interface{}
// @Failure 500 {object} map[string]interface{}
// @Router /admin/contacts [get]
func (c *ContactController) ListContacts(ctx echo.Context) error {
	page := 1
	if pageParam := ctx.QueryParam("page"); pageParam != "" {
		if p, err := strconv.Atoi(pageParam); err == nil && p > 0 {
			page = p
		}
	}

	pageSize := 20
	if pageSizeParam := ctx.QueryParam("page_size"); pageSizeParam != "" {
		if ps, err := strconv.Atoi(pageSizeParam); err == nil && ps > 0 && ps <= 100 {
			pageSize = ps
		}
	}

	search := ctx.QueryParam("search")

	response, err := c.contactService.GetList(ctx.Request().Context(), page, pageSize, search)
	if err != nil {
		c.logger.Errorw("Failed to get contacts list", "page", page, "page_size", pageSize, "search", search, "error", err)
		return ctx.JSON(http.StatusInternalServerError, map[string]interface{}{
			"error":   "Failed to retrieve contacts list",
			"details": "Internal server error",
		})
	}

	c.logger.Infow("Contacts list retrieved", "page", page, "page_size", pageSize, "total", response.Total)
	return ctx.JSON(http.StatusOK, response)
}
