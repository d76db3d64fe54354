package api

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/xraph/treasury"
	"github.com/xraph/treasury/dollarcard"
	"github.com/xraph/treasury/id"
	"github.com/xraph/treasury/opcost"
	"github.com/xraph/treasury/pos"
	"github.com/xraph/treasury/transaction"
)

// ──────────────────────────────────────────────────
// POS
// ──────────────────────────────────────────────────

func (h *Handler) listPos(c *gin.Context) {
	from, ok := queryTime(c, "from")
	if !ok {
		return
	}
	to, ok := queryTime(c, "to")
	if !ok {
		return
	}
	opts := pos.ListOpts{IncludeArchived: queryBool(c, "archived"), From: from, To: to}
	if raw := c.Query("bank"); raw != "" {
		bankID, err := id.ParseAssetID(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "field": "bank"})
			return
		}
		opts.BankID = bankID
	}
	out, err := h.t.PosTransactions(c.Request.Context(), opts)
	h.reply(c, http.StatusOK, out, err)
}

func (h *Handler) addPos(c *gin.Context) {
	var in treasury.AddPosInput
	if !h.bind(c, &in) {
		return
	}
	out, err := h.t.AddPosTransaction(c.Request.Context(), in)
	h.reply(c, http.StatusCreated, out, err)
}

func (h *Handler) posAction(c *gin.Context, fn func(*gin.Context, id.PosID) error) {
	posID, ok := h.pathID(c, "posID", id.ParsePosID)
	if !ok {
		return
	}
	h.reply(c, http.StatusNoContent, nil, fn(c, posID))
}

func (h *Handler) archivePos(c *gin.Context) {
	h.posAction(c, func(c *gin.Context, posID id.PosID) error {
		return h.t.ArchivePosTransaction(c.Request.Context(), posID)
	})
}

func (h *Handler) restorePos(c *gin.Context) {
	h.posAction(c, func(c *gin.Context, posID id.PosID) error {
		return h.t.RestorePosTransaction(c.Request.Context(), posID)
	})
}

func (h *Handler) deletePos(c *gin.Context) {
	h.posAction(c, func(c *gin.Context, posID id.PosID) error {
		return h.t.DeletePosTransaction(c.Request.Context(), posID)
	})
}

// ──────────────────────────────────────────────────
// Dollar cards
// ──────────────────────────────────────────────────

func (h *Handler) listPurchases(c *gin.Context) {
	out, err := h.t.DollarCardPurchases(c.Request.Context(), dollarcard.ListOpts{Status: dollarcard.Status(c.Query("status"))})
	h.reply(c, http.StatusOK, out, err)
}

func (h *Handler) getPurchase(c *gin.Context) {
	purchaseID, ok := h.pathID(c, "purchaseID", id.ParseCardPurchaseID)
	if !ok {
		return
	}
	out, err := h.t.DollarCardPurchase(c.Request.Context(), purchaseID)
	h.reply(c, http.StatusOK, out, err)
}

func (h *Handler) addPurchase(c *gin.Context) {
	var in treasury.AddPurchaseInput
	if !h.bind(c, &in) {
		return
	}
	out, err := h.t.AddDollarCardPurchase(c.Request.Context(), in)
	h.reply(c, http.StatusCreated, out, err)
}

func (h *Handler) addCardPayment(c *gin.Context) {
	purchaseID, ok := h.pathID(c, "purchaseID", id.ParseCardPurchaseID)
	if !ok {
		return
	}
	var in treasury.CardPaymentInput
	if !h.bind(c, &in) {
		return
	}
	in.PurchaseID = purchaseID
	out, err := h.t.AddDollarCardPayment(c.Request.Context(), in)
	h.reply(c, http.StatusCreated, out, err)
}

func (h *Handler) deleteCardPayment(c *gin.Context) {
	purchaseID, ok := h.pathID(c, "purchaseID", id.ParseCardPurchaseID)
	if !ok {
		return
	}
	paymentID, ok := h.pathID(c, "paymentID", id.ParseCardPaymentID)
	if !ok {
		return
	}
	h.reply(c, http.StatusNoContent, nil, h.t.DeleteDollarCardPayment(c.Request.Context(), purchaseID, paymentID))
}

func (h *Handler) completePurchase(c *gin.Context) {
	purchaseID, ok := h.pathID(c, "purchaseID", id.ParseCardPurchaseID)
	if !ok {
		return
	}
	var in treasury.CompleteInput
	if !h.bind(c, &in) {
		return
	}
	in.PurchaseID = purchaseID
	out, err := h.t.CompleteDollarCardPurchase(c.Request.Context(), in)
	h.reply(c, http.StatusOK, out, err)
}

func (h *Handler) deletePurchase(c *gin.Context) {
	purchaseID, ok := h.pathID(c, "purchaseID", id.ParseCardPurchaseID)
	if !ok {
		return
	}
	h.reply(c, http.StatusNoContent, nil, h.t.DeleteDollarCardPurchase(c.Request.Context(), purchaseID))
}

// ──────────────────────────────────────────────────
// Operating costs
// ──────────────────────────────────────────────────

func (h *Handler) listCosts(c *gin.Context) {
	from, ok := queryTime(c, "from")
	if !ok {
		return
	}
	to, ok := queryTime(c, "to")
	if !ok {
		return
	}
	opts := opcost.ListOpts{From: from, To: to}
	if raw := c.Query("type"); raw != "" {
		typeID, err := id.ParseExpenseTypeID(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "field": "type"})
			return
		}
		opts.ExpenseTypeID = typeID
	}
	out, err := h.t.OperatingCosts(c.Request.Context(), opts)
	h.reply(c, http.StatusOK, out, err)
}

func (h *Handler) addCost(c *gin.Context) {
	var in treasury.AddCostInput
	if !h.bind(c, &in) {
		return
	}
	out, err := h.t.AddOperatingCost(c.Request.Context(), in)
	h.reply(c, http.StatusCreated, out, err)
}

func (h *Handler) deleteCost(c *gin.Context) {
	costID, ok := h.pathID(c, "costID", id.ParseOperatingCostID)
	if !ok {
		return
	}
	policy := transaction.DeletionPolicy(c.Query("policy"))
	h.reply(c, http.StatusNoContent, nil, h.t.DeleteOperatingCost(c.Request.Context(), costID, policy))
}

type nameRequest struct {
	Name string `json:"name" binding:"required"`
}

func (h *Handler) listExpenseTypes(c *gin.Context) {
	out, err := h.t.ExpenseTypes(c.Request.Context())
	h.reply(c, http.StatusOK, out, err)
}

func (h *Handler) addExpenseType(c *gin.Context) {
	var req nameRequest
	if !h.bind(c, &req) {
		return
	}
	out, err := h.t.AddExpenseType(c.Request.Context(), req.Name)
	h.reply(c, http.StatusCreated, out, err)
}

func (h *Handler) renameExpenseType(c *gin.Context) {
	typeID, ok := h.pathID(c, "typeID", id.ParseExpenseTypeID)
	if !ok {
		return
	}
	var req nameRequest
	if !h.bind(c, &req) {
		return
	}
	h.reply(c, http.StatusNoContent, nil, h.t.RenameExpenseType(c.Request.Context(), typeID, req.Name))
}

func (h *Handler) deleteExpenseType(c *gin.Context) {
	typeID, ok := h.pathID(c, "typeID", id.ParseExpenseTypeID)
	if !ok {
		return
	}
	h.reply(c, http.StatusNoContent, nil, h.t.DeleteExpenseType(c.Request.Context(), typeID))
}

// ──────────────────────────────────────────────────
// External values
// ──────────────────────────────────────────────────

func (h *Handler) listExternalValues(c *gin.Context) {
	out, err := h.t.ExternalValues(c.Request.Context())
	h.reply(c, http.StatusOK, out, err)
}

func (h *Handler) addExternalValue(c *gin.Context) {
	var in treasury.AddExternalValueInput
	if !h.bind(c, &in) {
		return
	}
	out, err := h.t.AddExternalValue(c.Request.Context(), in)
	h.reply(c, http.StatusCreated, out, err)
}

func (h *Handler) adjustExternalValue(c *gin.Context) {
	valueID, ok := h.pathID(c, "valueID", id.ParseExternalValueID)
	if !ok {
		return
	}
	var in treasury.AdjustInput
	if !h.bind(c, &in) {
		return
	}
	in.ValueID = valueID
	out, err := h.t.AdjustExternalValue(c.Request.Context(), in)
	h.reply(c, http.StatusCreated, out, err)
}

func (h *Handler) deleteExternalEntry(c *gin.Context) {
	valueID, ok := h.pathID(c, "valueID", id.ParseExternalValueID)
	if !ok {
		return
	}
	entryID, ok := h.pathID(c, "entryID", id.ParseExternalChangeID)
	if !ok {
		return
	}
	out, err := h.t.DeleteExternalValueEntry(c.Request.Context(), valueID, entryID)
	h.reply(c, http.StatusOK, out, err)
}

func (h *Handler) deleteExternalValue(c *gin.Context) {
	valueID, ok := h.pathID(c, "valueID", id.ParseExternalValueID)
	if !ok {
		return
	}
	h.reply(c, http.StatusNoContent, nil, h.t.DeleteExternalValue(c.Request.Context(), valueID))
}

// ──────────────────────────────────────────────────
// Export / import
// ──────────────────────────────────────────────────

func (h *Handler) exportData(c *gin.Context) {
	doc, err := h.t.ExportData(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="treasury.json"`)
	c.Data(http.StatusOK, "application/json", []byte(doc))
}

func (h *Handler) importData(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	h.reply(c, http.StatusNoContent, nil, h.t.ImportData(c.Request.Context(), string(body)))
}
