package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/xraph/treasury"
	"github.com/xraph/treasury/debt"
	"github.com/xraph/treasury/id"
	"github.com/xraph/treasury/types"
)

func (h *Handler) listCustomers(c *gin.Context) {
	opts := debt.ListOpts{
		IncludeArchived: queryBool(c, "archived"),
		Currency:        c.Query("currency"),
	}
	out, err := h.t.Customers(c.Request.Context(), opts)
	h.reply(c, http.StatusOK, out, err)
}

func (h *Handler) getCustomer(c *gin.Context) {
	custID, ok := h.pathID(c, "customerID", id.ParseCustomerID)
	if !ok {
		return
	}
	out, err := h.t.Customer(c.Request.Context(), custID)
	h.reply(c, http.StatusOK, out, err)
}

func (h *Handler) addCustomer(c *gin.Context) {
	var in treasury.AddCustomerInput
	if !h.bind(c, &in) {
		return
	}
	out, err := h.t.AddCustomer(c.Request.Context(), in)
	h.reply(c, http.StatusCreated, out, err)
}

func (h *Handler) customerAction(c *gin.Context, fn func(*gin.Context, id.CustomerID) error) {
	custID, ok := h.pathID(c, "customerID", id.ParseCustomerID)
	if !ok {
		return
	}
	h.reply(c, http.StatusNoContent, nil, fn(c, custID))
}

func (h *Handler) archiveCustomer(c *gin.Context) {
	h.customerAction(c, func(c *gin.Context, custID id.CustomerID) error {
		return h.t.ArchiveCustomer(c.Request.Context(), custID)
	})
}

func (h *Handler) restoreCustomer(c *gin.Context) {
	h.customerAction(c, func(c *gin.Context, custID id.CustomerID) error {
		return h.t.RestoreCustomer(c.Request.Context(), custID)
	})
}

func (h *Handler) deleteCustomer(c *gin.Context) {
	h.customerAction(c, func(c *gin.Context, custID id.CustomerID) error {
		return h.t.DeleteArchivedCustomer(c.Request.Context(), custID)
	})
}

func (h *Handler) mergeDebts(c *gin.Context) {
	custID, ok := h.pathID(c, "customerID", id.ParseCustomerID)
	if !ok {
		return
	}
	out, err := h.t.MergeCustomerDebts(c.Request.Context(), custID)
	h.reply(c, http.StatusCreated, out, err)
}

func (h *Handler) addDebt(c *gin.Context) {
	custID, ok := h.pathID(c, "customerID", id.ParseCustomerID)
	if !ok {
		return
	}
	var in treasury.AddDebtInput
	if !h.bind(c, &in) {
		return
	}
	in.CustomerID = custID
	out, err := h.t.AddDebt(c.Request.Context(), in)
	h.reply(c, http.StatusCreated, out, err)
}

// debtPath parses both ids of a /customers/:customerID/debts/:debtID route.
func (h *Handler) debtPath(c *gin.Context) (id.CustomerID, id.DebtID, bool) {
	custID, ok := h.pathID(c, "customerID", id.ParseCustomerID)
	if !ok {
		return id.Nil, id.Nil, false
	}
	debtID, ok := h.pathID(c, "debtID", id.ParseDebtID)
	return custID, debtID, ok
}

func (h *Handler) quoteDebtPayment(c *gin.Context) {
	custID, debtID, ok := h.debtPath(c)
	if !ok {
		return
	}
	var req struct {
		Amount types.Money `json:"amount"`
	}
	if !h.bind(c, &req) {
		return
	}
	out, err := h.t.QuoteDebtPayment(c.Request.Context(), custID, debtID, req.Amount)
	h.reply(c, http.StatusOK, out, err)
}

// payDebt answers 202 when the payment awaits a surplus decision.
func (h *Handler) payDebt(c *gin.Context) {
	custID, debtID, ok := h.debtPath(c)
	if !ok {
		return
	}
	var in treasury.PayDebtInput
	if !h.bind(c, &in) {
		return
	}
	in.CustomerID, in.DebtID = custID, debtID
	out, err := h.t.PayDebt(c.Request.Context(), in)
	status := http.StatusCreated
	if err == nil && out.Status == treasury.PaymentAwaitingSurplusDecision {
		status = http.StatusAccepted
	}
	h.reply(c, status, out, err)
}

func (h *Handler) archiveDebt(c *gin.Context) {
	custID, debtID, ok := h.debtPath(c)
	if !ok {
		return
	}
	h.reply(c, http.StatusNoContent, nil, h.t.ArchiveDebt(c.Request.Context(), custID, debtID))
}

func (h *Handler) restoreDebt(c *gin.Context) {
	custID, debtID, ok := h.debtPath(c)
	if !ok {
		return
	}
	h.reply(c, http.StatusNoContent, nil, h.t.RestoreDebt(c.Request.Context(), custID, debtID))
}

func (h *Handler) convertDebt(c *gin.Context) {
	custID, debtID, ok := h.debtPath(c)
	if !ok {
		return
	}
	var in treasury.ConvertDebtInput
	if !h.bind(c, &in) {
		return
	}
	in.CustomerID, in.DebtID = custID, debtID
	out, err := h.t.ConvertSingleUSDDebtToLYD(c.Request.Context(), in)
	h.reply(c, http.StatusCreated, out, err)
}
