package handlers

import (
	"context"

	"github.com/gin-gonic/gin"

	"ayanna/internal/core/id"
	"ayanna/internal/domain/accounting"
	"ayanna/internal/domain/journal"
	"ayanna/internal/infrastructure/http/v1/dto"
)

// JournalReader loads posted journals.
type JournalReader interface {
	Get(ctx context.Context, journalID id.ID) (*journal.Journal, error)
}

// AccountingHandler serves the chart of accounts, POS posting configuration and journals.
type AccountingHandler struct {
	*BaseHandler
	service  *accounting.Service
	journals JournalReader
}

// NewAccountingHandler creates a new accounting handler.
func NewAccountingHandler(base *BaseHandler, service *accounting.Service, journals JournalReader) *AccountingHandler {
	return &AccountingHandler{BaseHandler: base, service: service, journals: journals}
}

// ListAccounts handles GET /accounts
func (h *AccountingHandler) ListAccounts(c *gin.Context) {
	var q dto.ListAccountsQuery
	if !h.BindQuery(c, &q) {
		return
	}
	enterpriseID, err := dto.ParseID("enterpriseId", q.EnterpriseID)
	if err != nil {
		h.Error(c, err)
		return
	}

	accounts, err := h.service.ListAccounts(c.Request.Context(), enterpriseID, q.Class)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, accounts)
}

// CreateAccount handles POST /accounts
func (h *AccountingHandler) CreateAccount(c *gin.Context) {
	var req dto.CreateAccountRequest
	if !h.BindJSON(c, &req) {
		return
	}
	in, err := req.ToInput()
	if err != nil {
		h.Error(c, err)
		return
	}

	account, err := h.service.UpsertAccount(c.Request.Context(), in)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, account)
}

// GetConfig handles GET /accounting/config/:posId
func (h *AccountingHandler) GetConfig(c *gin.Context) {
	posID, ok := h.PathID(c, "posId")
	if !ok {
		return
	}

	cfg, err := h.service.GetConfig(c.Request.Context(), posID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, cfg)
}

// SaveConfig handles PUT /accounting/config/:posId
func (h *AccountingHandler) SaveConfig(c *gin.Context) {
	posID, ok := h.PathID(c, "posId")
	if !ok {
		return
	}
	var req dto.AccountingConfigRequest
	if !h.BindJSON(c, &req) {
		return
	}

	ctx := c.Request.Context()
	cfg := &accounting.Config{POSID: posID}
	if existing, err := h.service.GetConfig(ctx, posID); err == nil {
		cfg.BaseEntity = existing.BaseEntity
	}
	if err := req.ToConfig(cfg); err != nil {
		h.Error(c, err)
		return
	}

	if err := h.service.SaveConfig(ctx, cfg); err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, cfg)
}

// GetJournal handles GET /journals/:id
func (h *AccountingHandler) GetJournal(c *gin.Context) {
	journalID, ok := h.PathID(c, "id")
	if !ok {
		return
	}

	j, err := h.journals.Get(c.Request.Context(), journalID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, j)
}
