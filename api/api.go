// Package api exposes the treasury over HTTP with gin. Every route is gated
// by an area:action permission taken from a JWT; the treasury itself never
// checks permissions.
package api

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/xraph/treasury"
	"github.com/xraph/treasury/id"
)

// Handler serves the treasury routes.
type Handler struct {
	t      *treasury.Treasury
	auth   Auth
	logger *slog.Logger
}

// New creates a Handler.
func New(t *treasury.Treasury, auth Auth, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{t: t, auth: auth, logger: logger}
}

// Router builds a gin engine with every route registered.
func (h *Handler) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), h.requestLog())
	r.GET("/healthz", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })
	h.Register(r.Group("/api", h.auth.Middleware()))
	return r
}

// Register mounts every route on g.
func (h *Handler) Register(g *gin.RouterGroup) {
	perm := h.auth.RequirePermission

	assets := g.Group("/assets")
	{
		assets.GET("", perm(AreaCash, ActionView), h.listAssets)
		assets.GET("/:assetID", perm(AreaCash, ActionView), h.getAsset)
		assets.POST("/deposit", perm(AreaCash, ActionEdit), h.deposit)
		assets.POST("/withdraw", perm(AreaCash, ActionEdit), h.withdraw)
		assets.POST("/transfer", perm(AreaCash, ActionEdit), h.transfer)
		assets.POST("/exchange", perm(AreaCash, ActionEdit), h.exchange)
	}

	banks := g.Group("/banks")
	{
		banks.POST("", perm(AreaBanks, ActionEdit), h.createBank)
		banks.PATCH("/:assetID", perm(AreaBanks, ActionEdit), h.updateBank)
		banks.DELETE("/:assetID", perm(AreaBanks, ActionDelete), h.deleteBank)
		banks.POST("/transfer", perm(AreaBanks, ActionEdit), h.transferBetweenBanks)
	}

	txns := g.Group("/transactions")
	{
		txns.GET("", perm(AreaCash, ActionView), h.listTransactions)
		txns.GET("/summary", perm(AreaCash, ActionView), h.summary)
		txns.GET("/reconcile", perm(AreaSettings, ActionView), h.reconcile)
		txns.GET("/:txID", perm(AreaCash, ActionView), h.getTransaction)
		txns.DELETE("/:txID", perm(AreaCash, ActionDelete), h.voidTransaction)
		txns.POST("/shift", perm(AreaCash, ActionEdit), h.shiftDate)
		txns.POST("/hide", perm(AreaCash, ActionEdit), h.setHidden)
	}
	g.GET("/operations/:opID", perm(AreaCash, ActionView), h.getOperation)

	customers := g.Group("/customers")
	{
		customers.GET("", perm(AreaDebts, ActionView), h.listCustomers)
		customers.POST("", perm(AreaDebts, ActionEdit), h.addCustomer)
		customers.GET("/:customerID", perm(AreaDebts, ActionView), h.getCustomer)
		customers.DELETE("/:customerID", perm(AreaDebts, ActionDelete), h.deleteCustomer)
		customers.POST("/:customerID/archive", perm(AreaDebts, ActionEdit), h.archiveCustomer)
		customers.POST("/:customerID/restore", perm(AreaDebts, ActionEdit), h.restoreCustomer)
		customers.POST("/:customerID/merge", perm(AreaDebts, ActionEdit), h.mergeDebts)
		customers.POST("/:customerID/debts", perm(AreaDebts, ActionEdit), h.addDebt)
		customers.POST("/:customerID/debts/:debtID/quote", perm(AreaDebts, ActionView), h.quoteDebtPayment)
		customers.POST("/:customerID/debts/:debtID/payments", perm(AreaDebts, ActionEdit), h.payDebt)
		customers.POST("/:customerID/debts/:debtID/archive", perm(AreaDebts, ActionEdit), h.archiveDebt)
		customers.POST("/:customerID/debts/:debtID/restore", perm(AreaDebts, ActionEdit), h.restoreDebt)
		customers.POST("/:customerID/debts/:debtID/convert", perm(AreaDebts, ActionEdit), h.convertDebt)
	}

	recv := g.Group("/receivables")
	{
		recv.GET("", perm(AreaReceivables, ActionView), h.listReceivables)
		recv.POST("", perm(AreaReceivables, ActionEdit), h.addReceivable)
		recv.GET("/debtors", perm(AreaReceivables, ActionView), h.listDebtors)
		recv.POST("/debtors/archive", perm(AreaReceivables, ActionEdit), h.archiveDebtor)
		recv.POST("/debtors/restore", perm(AreaReceivables, ActionEdit), h.restoreDebtor)
		recv.POST("/debtors/merge", perm(AreaReceivables, ActionEdit), h.mergeDebtor)
		recv.GET("/:receivableID", perm(AreaReceivables, ActionView), h.getReceivable)
		recv.POST("/:receivableID/payments", perm(AreaReceivables, ActionEdit), h.payReceivable)
		recv.POST("/:receivableID/archive", perm(AreaReceivables, ActionEdit), h.archiveReceivable)
		recv.POST("/:receivableID/restore", perm(AreaReceivables, ActionEdit), h.restoreReceivable)
		recv.DELETE("/:receivableID", perm(AreaReceivables, ActionDelete), h.deleteReceivable)
	}

	posGroup := g.Group("/pos")
	{
		posGroup.GET("", perm(AreaPOS, ActionView), h.listPos)
		posGroup.POST("", perm(AreaPOS, ActionEdit), h.addPos)
		posGroup.POST("/:posID/archive", perm(AreaPOS, ActionEdit), h.archivePos)
		posGroup.POST("/:posID/restore", perm(AreaPOS, ActionEdit), h.restorePos)
		posGroup.DELETE("/:posID", perm(AreaPOS, ActionDelete), h.deletePos)
	}

	cards := g.Group("/dollar-cards")
	{
		cards.GET("", perm(AreaDollarCards, ActionView), h.listPurchases)
		cards.POST("", perm(AreaDollarCards, ActionEdit), h.addPurchase)
		cards.GET("/:purchaseID", perm(AreaDollarCards, ActionView), h.getPurchase)
		cards.POST("/:purchaseID/payments", perm(AreaDollarCards, ActionEdit), h.addCardPayment)
		cards.DELETE("/:purchaseID/payments/:paymentID", perm(AreaDollarCards, ActionDelete), h.deleteCardPayment)
		cards.POST("/:purchaseID/complete", perm(AreaDollarCards, ActionEdit), h.completePurchase)
		cards.DELETE("/:purchaseID", perm(AreaDollarCards, ActionDelete), h.deletePurchase)
	}

	costs := g.Group("/operating-costs")
	{
		costs.GET("", perm(AreaOperatingCosts, ActionView), h.listCosts)
		costs.POST("", perm(AreaOperatingCosts, ActionEdit), h.addCost)
		costs.DELETE("/:costID", perm(AreaOperatingCosts, ActionDelete), h.deleteCost)
		costs.GET("/types", perm(AreaOperatingCosts, ActionView), h.listExpenseTypes)
		costs.POST("/types", perm(AreaOperatingCosts, ActionEdit), h.addExpenseType)
		costs.PATCH("/types/:typeID", perm(AreaOperatingCosts, ActionEdit), h.renameExpenseType)
		costs.DELETE("/types/:typeID", perm(AreaOperatingCosts, ActionDelete), h.deleteExpenseType)
	}

	ext := g.Group("/external-values")
	{
		ext.GET("", perm(AreaExternalValues, ActionView), h.listExternalValues)
		ext.POST("", perm(AreaExternalValues, ActionEdit), h.addExternalValue)
		ext.POST("/:valueID/entries", perm(AreaExternalValues, ActionEdit), h.adjustExternalValue)
		ext.DELETE("/:valueID/entries/:entryID", perm(AreaExternalValues, ActionDelete), h.deleteExternalEntry)
		ext.DELETE("/:valueID", perm(AreaExternalValues, ActionDelete), h.deleteExternalValue)
	}

	data := g.Group("/data")
	{
		data.GET("/export", perm(AreaSettings, ActionView), h.exportData)
		data.POST("/import", perm(AreaSettings, ActionEdit), h.importData)
	}
}

func (h *Handler) requestLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		h.logger.Debug("http request",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"duration_ms", time.Since(start).Milliseconds(),
		)
	}
}

// ──────────────────────────────────────────────────
// Request helpers
// ──────────────────────────────────────────────────

// pathID parses the named path parameter, answering 400 on failure.
func (h *Handler) pathID(c *gin.Context, name string, parse func(string) (id.ID, error)) (id.ID, bool) {
	v, err := parse(c.Param(name))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "field": name})
		return id.Nil, false
	}
	return v, true
}

func (h *Handler) bind(c *gin.Context, v any) bool {
	if err := c.ShouldBindJSON(v); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return false
	}
	return true
}

// reply writes v with status, or the mapped error.
func (h *Handler) reply(c *gin.Context, status int, v any, err error) {
	if err != nil {
		h.fail(c, err)
		return
	}
	if v == nil {
		c.Status(http.StatusNoContent)
		return
	}
	c.JSON(status, v)
}

func queryBool(c *gin.Context, key string) bool {
	b, _ := strconv.ParseBool(c.Query(key))
	return b
}

// queryTime parses an RFC 3339 timestamp or a YYYY-MM-DD date.
func queryTime(c *gin.Context, key string) (time.Time, bool) {
	raw := c.Query(key)
	if raw == "" {
		return time.Time{}, true
	}
	for _, layout := range []string{time.RFC3339, time.DateOnly} {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, true
		}
	}
	c.JSON(http.StatusBadRequest, gin.H{"error": "invalid time", "field": key})
	return time.Time{}, false
}
