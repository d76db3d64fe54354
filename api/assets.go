package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/xraph/treasury"
	"github.com/xraph/treasury/asset"
	"github.com/xraph/treasury/id"
)

func (h *Handler) listAssets(c *gin.Context) {
	opts := asset.ListOpts{
		Kind:     asset.Kind(c.Query("kind")),
		Currency: c.Query("currency"),
		Location: c.Query("location"),
		POSOnly:  queryBool(c, "pos"),
	}
	out, err := h.t.Assets(c.Request.Context(), opts)
	h.reply(c, http.StatusOK, out, err)
}

func (h *Handler) getAsset(c *gin.Context) {
	assetID, ok := h.pathID(c, "assetID", id.ParseAssetID)
	if !ok {
		return
	}
	out, err := h.t.Asset(c.Request.Context(), assetID)
	h.reply(c, http.StatusOK, out, err)
}

func (h *Handler) createBank(c *gin.Context) {
	var in treasury.CreateBankInput
	if !h.bind(c, &in) {
		return
	}
	out, err := h.t.CreateBank(c.Request.Context(), in)
	h.reply(c, http.StatusCreated, out, err)
}

func (h *Handler) updateBank(c *gin.Context) {
	bankID, ok := h.pathID(c, "assetID", id.ParseAssetID)
	if !ok {
		return
	}
	var in treasury.UpdateBankInput
	if !h.bind(c, &in) {
		return
	}
	out, err := h.t.UpdateBank(c.Request.Context(), bankID, in)
	h.reply(c, http.StatusOK, out, err)
}

func (h *Handler) deleteBank(c *gin.Context) {
	bankID, ok := h.pathID(c, "assetID", id.ParseAssetID)
	if !ok {
		return
	}
	h.reply(c, http.StatusNoContent, nil, h.t.DeleteBank(c.Request.Context(), bankID))
}

func (h *Handler) deposit(c *gin.Context) {
	var in treasury.MovementInput
	if !h.bind(c, &in) {
		return
	}
	out, err := h.t.Deposit(c.Request.Context(), in)
	h.reply(c, http.StatusCreated, out, err)
}

func (h *Handler) withdraw(c *gin.Context) {
	var in treasury.MovementInput
	if !h.bind(c, &in) {
		return
	}
	out, err := h.t.Withdraw(c.Request.Context(), in)
	h.reply(c, http.StatusCreated, out, err)
}

func (h *Handler) transfer(c *gin.Context) {
	var in treasury.TransferInput
	if !h.bind(c, &in) {
		return
	}
	out, err := h.t.Transfer(c.Request.Context(), in)
	h.reply(c, http.StatusCreated, out, err)
}

func (h *Handler) transferBetweenBanks(c *gin.Context) {
	var in treasury.TransferInput
	if !h.bind(c, &in) {
		return
	}
	out, err := h.t.TransferBetweenBanks(c.Request.Context(), in)
	h.reply(c, http.StatusCreated, out, err)
}

func (h *Handler) exchange(c *gin.Context) {
	var in treasury.ExchangeInput
	if !h.bind(c, &in) {
		return
	}
	out, err := h.t.Exchange(c.Request.Context(), in)
	h.reply(c, http.StatusCreated, out, err)
}
