package handler

import (
	"github.com/gin-gonic/gin"
	apppos "github.com/posterdash/backend/internal/application/pos"
)

// PosAccountHandler manages an organization's POS connections
type PosAccountHandler struct {
	BaseHandler
	accounts *apppos.AccountService
}

// NewPosAccountHandler creates a new PosAccountHandler
func NewPosAccountHandler(accounts *apppos.AccountService) *PosAccountHandler {
	return &PosAccountHandler{accounts: accounts}
}

// List handles GET /pos-accounts
func (h *PosAccountHandler) List(c *gin.Context) {
	orgID, ok := h.orgID(c)
	if !ok {
		return
	}
	accounts, err := h.accounts.List(c.Request.Context(), orgID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, accounts)
}

// Create handles POST /pos-accounts
func (h *PosAccountHandler) Create(c *gin.Context) {
	orgID, ok := h.orgID(c)
	if !ok {
		return
	}
	var input apppos.AccountInput
	if err := c.ShouldBindJSON(&input); err != nil {
		h.HandleBindError(c, err)
		return
	}

	account, err := h.accounts.Create(c.Request.Context(), orgID, input)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, account)
}

// Update handles PUT /pos-accounts/:id
func (h *PosAccountHandler) Update(c *gin.Context) {
	orgID, ok := h.orgID(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c)
	if !ok {
		return
	}
	var input apppos.AccountInput
	if err := c.ShouldBindJSON(&input); err != nil {
		h.HandleBindError(c, err)
		return
	}

	account, err := h.accounts.Update(c.Request.Context(), orgID, id, input)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, account)
}

// Verify handles POST /pos-accounts/:id/verify
func (h *PosAccountHandler) Verify(c *gin.Context) {
	orgID, ok := h.orgID(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c)
	if !ok {
		return
	}

	accounts, err := h.accounts.Verify(c.Request.Context(), orgID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, accounts)
}
