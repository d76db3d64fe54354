package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/xraph/treasury/id"
	"github.com/xraph/treasury/transaction"
)

func (h *Handler) listTransactions(c *gin.Context) {
	from, ok := queryTime(c, "from")
	if !ok {
		return
	}
	to, ok := queryTime(c, "to")
	if !ok {
		return
	}
	f := transaction.Filter{
		Type:           transaction.Type(c.Query("type")),
		From:           from,
		To:             to,
		IncludeDeleted: queryBool(c, "deleted"),
		IncludeHidden:  queryBool(c, "hidden"),
	}
	if raw := c.Query("asset"); raw != "" {
		assetID, err := id.ParseAssetID(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "field": "asset"})
			return
		}
		f.AssetID = assetID
	}
	out, err := h.t.Transactions(c.Request.Context(), f)
	h.reply(c, http.StatusOK, out, err)
}

func (h *Handler) getTransaction(c *gin.Context) {
	txID, ok := h.pathID(c, "txID", id.ParseTransactionID)
	if !ok {
		return
	}
	out, err := h.t.Transaction(c.Request.Context(), txID)
	h.reply(c, http.StatusOK, out, err)
}

func (h *Handler) getOperation(c *gin.Context) {
	opID, ok := h.pathID(c, "opID", id.ParseOperationID)
	if !ok {
		return
	}
	out, err := h.t.Operation(c.Request.Context(), opID)
	h.reply(c, http.StatusOK, out, err)
}

// voidTransaction voids the operation of a row. ?policy=silently_voided
// hides it; the default is a visible reversal.
func (h *Handler) voidTransaction(c *gin.Context) {
	txID, ok := h.pathID(c, "txID", id.ParseTransactionID)
	if !ok {
		return
	}
	policy := transaction.DeletionPolicy(c.DefaultQuery("policy", string(transaction.Reversed)))
	out, err := h.t.Void(c.Request.Context(), txID, policy)
	h.reply(c, http.StatusOK, out, err)
}

type idsRequest struct {
	IDs       []id.TransactionID    `json:"ids" binding:"required"`
	Direction transaction.Direction `json:"direction"`
	Hidden    bool                  `json:"hidden"`
}

func (h *Handler) shiftDate(c *gin.Context) {
	var req idsRequest
	if !h.bind(c, &req) {
		return
	}
	h.reply(c, http.StatusNoContent, nil, h.t.ShiftDate(c.Request.Context(), req.IDs, req.Direction))
}

func (h *Handler) setHidden(c *gin.Context) {
	var req idsRequest
	if !h.bind(c, &req) {
		return
	}
	h.reply(c, http.StatusNoContent, nil, h.t.SetTemporarilyHidden(c.Request.Context(), req.IDs, req.Hidden))
}

func (h *Handler) summary(c *gin.Context) {
	day, ok := queryTime(c, "day")
	if !ok {
		return
	}
	if day.IsZero() {
		day = time.Now()
	}
	out, err := h.t.Summary(c.Request.Context(), day)
	h.reply(c, http.StatusOK, out, err)
}

func (h *Handler) reconcile(c *gin.Context) {
	out, err := h.t.Reconcile(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"balanced": len(out) == 0, "discrepancies": out})
}
