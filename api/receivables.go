package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/xraph/treasury"
	"github.com/xraph/treasury/id"
	"github.com/xraph/treasury/receivable"
)

func (h *Handler) listReceivables(c *gin.Context) {
	opts := receivable.ListOpts{
		IncludeArchived: queryBool(c, "archived"),
		Debtor:          c.Query("debtor"),
		Currency:        c.Query("currency"),
	}
	out, err := h.t.Receivables(c.Request.Context(), opts)
	h.reply(c, http.StatusOK, out, err)
}

func (h *Handler) listDebtors(c *gin.Context) {
	out, err := h.t.Debtors(c.Request.Context(), queryBool(c, "archived"))
	h.reply(c, http.StatusOK, out, err)
}

func (h *Handler) getReceivable(c *gin.Context) {
	recvID, ok := h.pathID(c, "receivableID", id.ParseReceivableID)
	if !ok {
		return
	}
	out, err := h.t.Receivable(c.Request.Context(), recvID)
	h.reply(c, http.StatusOK, out, err)
}

func (h *Handler) addReceivable(c *gin.Context) {
	var in treasury.AddReceivableInput
	if !h.bind(c, &in) {
		return
	}
	out, err := h.t.AddReceivable(c.Request.Context(), in)
	h.reply(c, http.StatusCreated, out, err)
}

func (h *Handler) payReceivable(c *gin.Context) {
	recvID, ok := h.pathID(c, "receivableID", id.ParseReceivableID)
	if !ok {
		return
	}
	var in treasury.PayReceivableInput
	if !h.bind(c, &in) {
		return
	}
	in.ReceivableID = recvID
	out, err := h.t.PayReceivable(c.Request.Context(), in)
	h.reply(c, http.StatusCreated, out, err)
}

func (h *Handler) receivableAction(c *gin.Context, fn func(*gin.Context, id.ReceivableID) error) {
	recvID, ok := h.pathID(c, "receivableID", id.ParseReceivableID)
	if !ok {
		return
	}
	h.reply(c, http.StatusNoContent, nil, fn(c, recvID))
}

func (h *Handler) archiveReceivable(c *gin.Context) {
	h.receivableAction(c, func(c *gin.Context, recvID id.ReceivableID) error {
		return h.t.ArchiveReceivable(c.Request.Context(), recvID)
	})
}

func (h *Handler) restoreReceivable(c *gin.Context) {
	h.receivableAction(c, func(c *gin.Context, recvID id.ReceivableID) error {
		return h.t.RestoreReceivable(c.Request.Context(), recvID)
	})
}

func (h *Handler) deleteReceivable(c *gin.Context) {
	h.receivableAction(c, func(c *gin.Context, recvID id.ReceivableID) error {
		return h.t.DeleteArchivedReceivable(c.Request.Context(), recvID)
	})
}

type debtorRequest struct {
	Debtor   string `json:"debtor" binding:"required"`
	Currency string `json:"currency" binding:"required"`
}

func (h *Handler) archiveDebtor(c *gin.Context) {
	var req debtorRequest
	if !h.bind(c, &req) {
		return
	}
	h.reply(c, http.StatusNoContent, nil, h.t.ArchiveDebtor(c.Request.Context(), req.Debtor, req.Currency))
}

func (h *Handler) restoreDebtor(c *gin.Context) {
	var req debtorRequest
	if !h.bind(c, &req) {
		return
	}
	h.reply(c, http.StatusNoContent, nil, h.t.RestoreDebtor(c.Request.Context(), req.Debtor, req.Currency))
}

func (h *Handler) mergeDebtor(c *gin.Context) {
	var req debtorRequest
	if !h.bind(c, &req) {
		return
	}
	out, err := h.t.MergeDebtorReceivables(c.Request.Context(), req.Debtor, req.Currency)
	h.reply(c, http.StatusCreated, out, err)
}
