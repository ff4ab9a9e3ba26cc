package api

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"storefront-service/internal/models"
	"storefront-service/internal/service"
	"storefront-service/internal/util"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Handler contains HTTP handlers
type Handler struct {
	orders      *service.OrderService
	fulfillment *service.FulfillmentService
	loyalty     *service.LoyaltyService
	referrals   *service.ReferralService
	flashSale   *service.FlashSaleService
	memberships *service.MembershipService
	catalog     *service.CatalogService
	stock       *service.StockClient
}

// NewHandler creates a new HTTP handler
func NewHandler(
	orders *service.OrderService,
	fulfillment *service.FulfillmentService,
	loyalty *service.LoyaltyService,
	referrals *service.ReferralService,
	flashSale *service.FlashSaleService,
	memberships *service.MembershipService,
	catalog *service.CatalogService,
	stock *service.StockClient,
) *Handler {
	return &Handler{
		orders:      orders,
		fulfillment: fulfillment,
		loyalty:     loyalty,
		referrals:   referrals,
		flashSale:   flashSale,
		memberships: memberships,
		catalog:     catalog,
		stock:       stock,
	}
}

// SetupRoutes sets up HTTP routes
func (h *Handler) SetupRoutes(router *gin.Engine) {
	router.Use(gin.Recovery())
	router.Use(prometheusMiddleware())
	router.Use(gin.Logger())

	router.GET("/health", h.healthCheck)
	router.GET("/ready", h.readinessCheck)

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := router.Group("/api/v1")
	{
		v1.POST("/orders", h.createOrder)
		v1.GET("/orders/:id", h.getOrder)
		v1.POST("/orders/:id/payment-proof", h.uploadPaymentProof)
		v1.GET("/users/:id/orders", h.listUserOrders)

		v1.GET("/products", h.listProducts)
		v1.GET("/products/:id", h.getProduct)
		v1.GET("/products/:id/price", h.getProductPrice)
		v1.GET("/products/:id/variants", h.listVariants)

		v1.GET("/bundles", h.listBundles)
		v1.GET("/bundles/:id", h.getBundle)

		v1.GET("/flash-sale", h.getFlashSale)

		v1.GET("/users/:id/loyalty", h.getLoyaltyAccount)
		v1.GET("/users/:id/loyalty/transactions", h.listPointTransactions)
		v1.POST("/users/:id/loyalty/redeem", h.redeemPoints)
		v1.GET("/users/:id/coupons", h.listCoupons)

		v1.POST("/referrals", h.registerReferral)
		v1.GET("/users/:id/referrals", h.listReferrals)

		v1.POST("/memberships", h.requestMembership)
		v1.GET("/users/:id/memberships", h.listMemberships)

		admin := v1.Group("/admin")
		{
			admin.POST("/orders/:id/approve", h.approveOrder)
			admin.POST("/orders/:id/reject", h.rejectOrder)
			admin.DELETE("/orders/:id", h.deleteOrder)

			admin.POST("/products", h.createProduct)
			admin.PUT("/products/:id", h.updateProduct)
			admin.DELETE("/products/:id", h.deleteProduct)
			admin.POST("/products/:id/variants", h.createVariant)
			admin.POST("/products/:id/stock-keys", h.uploadStockKeys)

			admin.POST("/bundles", h.createBundle)
			admin.PUT("/bundles/:id", h.updateBundle)
			admin.DELETE("/bundles/:id", h.deleteBundle)

			admin.PUT("/flash-sale", h.saveFlashSale)

			admin.POST("/memberships/:id/approve", h.approveMembership)
			admin.POST("/memberships/:id/reject", h.rejectMembership)
			admin.POST("/memberships/:id/revoke", h.revokeMembership)
			admin.POST("/memberships/:id/extend", h.extendMembership)
			admin.DELETE("/memberships/:id", h.deleteMembership)
		}
	}
}

// respondError maps domain sentinel errors to HTTP status codes. This is the
// only place error taxonomy meets the wire.
func respondError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, models.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, models.ErrValidation):
		status = http.StatusBadRequest
	case errors.Is(err, models.ErrConflict), errors.Is(err, models.ErrInvalidTransition):
		status = http.StatusConflict
	case errors.Is(err, models.ErrOutOfStock), errors.Is(err, models.ErrInsufficientPoints):
		status = http.StatusUnprocessableEntity
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

func pathID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return 0, false
	}
	return id, true
}

func (h *Handler) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy", "time": time.Now().Unix()})
}

func (h *Handler) readinessCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ready", "time": time.Now().Unix()})
}

// --- orders ---

func (h *Handler) createOrder(c *gin.Context) {
	var req service.CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return
	}

	if req.IdempotencyKey == "" {
		req.IdempotencyKey = c.GetHeader("Idempotency-Key")
	}

	resp, err := h.orders.CreateOrder(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, resp)
}

func (h *Handler) getOrder(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	order, err := h.orders.GetOrder(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, order)
}

func (h *Handler) listUserOrders(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	orders, err := h.orders.ListUserOrders(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"orders": orders})
}

func (h *Handler) uploadPaymentProof(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file required"})
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		respondError(c, err)
		return
	}
	defer file.Close()

	order, err := h.orders.AttachPaymentProof(c.Request.Context(), id,
		fileHeader.Filename, fileHeader.Header.Get("Content-Type"), fileHeader.Size, file)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, order)
}

func (h *Handler) approveOrder(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	var req struct {
		Credentials string `json:"credentials"`
	}
	if err := c.ShouldBindJSON(&req); err != nil && err.Error() != "EOF" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	order, err := h.fulfillment.ApproveOrder(c.Request.Context(), id, req.Credentials)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, order)
}

func (h *Handler) rejectOrder(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	var req struct {
		Reason string `json:"reason" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "reason required"})
		return
	}

	if err := h.orders.RejectOrder(c.Request.Context(), id, req.Reason); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": models.OrderStatusCancelled})
}

func (h *Handler) deleteOrder(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	if err := h.orders.DeleteOrder(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// --- catalog ---

func (h *Handler) listProducts(c *gin.Context) {
	products, err := h.catalog.ListProducts(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"products": products})
}

func (h *Handler) getProduct(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	product, err := h.catalog.GetProduct(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, product)
}

func (h *Handler) getProductPrice(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	product, err := h.catalog.GetProduct(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}

	price, err := h.flashSale.PriceForProduct(c.Request.Context(), product, time.Now())
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"product_id":      product.ID,
		"base_price":      product.SalePrice,
		"effective_price": price,
	})
}

func (h *Handler) createProduct(c *gin.Context) {
	var product models.Product
	if err := c.ShouldBindJSON(&product); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return
	}

	if err := h.catalog.CreateProduct(c.Request.Context(), &product); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, product)
}

func (h *Handler) updateProduct(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	var product models.Product
	if err := c.ShouldBindJSON(&product); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	product.ID = id

	if err := h.catalog.UpdateProduct(c.Request.Context(), &product); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, product)
}

func (h *Handler) deleteProduct(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	if err := h.catalog.DeleteProduct(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *Handler) createVariant(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	var variant models.ProductVariant
	if err := c.ShouldBindJSON(&variant); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	variant.ProductID = id

	if err := h.catalog.CreateVariant(c.Request.Context(), &variant); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, variant)
}

func (h *Handler) listVariants(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	variants, err := h.catalog.ListVariants(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"variants": variants})
}

func (h *Handler) uploadStockKeys(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	var req struct {
		Keys []string `json:"keys" binding:"required,min=1"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "keys required"})
		return
	}

	count, err := h.stock.UploadKeys(c.Request.Context(), id, req.Keys)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"inserted": count})
}

// --- bundles ---

func (h *Handler) listBundles(c *gin.Context) {
	bundles, err := h.catalog.ListBundles(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"bundles": bundles})
}

func (h *Handler) getBundle(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	bundle, err := h.catalog.GetBundle(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, bundle)
}

func (h *Handler) createBundle(c *gin.Context) {
	var bundle models.Bundle
	if err := c.ShouldBindJSON(&bundle); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	if err := h.catalog.CreateBundle(c.Request.Context(), &bundle); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, bundle)
}

func (h *Handler) updateBundle(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	var bundle models.Bundle
	if err := c.ShouldBindJSON(&bundle); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	bundle.ID = id

	if err := h.catalog.UpdateBundle(c.Request.Context(), &bundle); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, bundle)
}

func (h *Handler) deleteBundle(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	if err := h.catalog.DeleteBundle(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// --- flash sale ---

func (h *Handler) getFlashSale(c *gin.Context) {
	view, err := h.flashSale.GetConfig(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (h *Handler) saveFlashSale(c *gin.Context) {
	var req struct {
		Enabled   bool                       `json:"enabled"`
		EndTime   time.Time                  `json:"end_time" binding:"required"`
		Discounts []models.FlashSaleDiscount `json:"discounts"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return
	}

	cfg, err := h.flashSale.SaveConfig(c.Request.Context(), req.Enabled, req.EndTime, req.Discounts)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, cfg)
}

// --- loyalty ---

func (h *Handler) getLoyaltyAccount(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	account, err := h.loyalty.GetAccount(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, account)
}

func (h *Handler) listPointTransactions(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	txns, err := h.loyalty.ListTransactions(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"transactions": txns})
}

func (h *Handler) redeemPoints(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	coupon, err := h.loyalty.RedeemPointsForCoupon(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, coupon)
}

func (h *Handler) listCoupons(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	coupons, err := h.loyalty.ListCoupons(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"coupons": coupons})
}

// --- referrals ---

func (h *Handler) registerReferral(c *gin.Context) {
	var req struct {
		ReferrerID int64  `json:"referrer_id" binding:"required"`
		ReferredID int64  `json:"referred_id" binding:"required"`
		Code       string `json:"code" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return
	}

	ref, err := h.referrals.Register(c.Request.Context(), req.ReferrerID, req.ReferredID, req.Code)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, ref)
}

func (h *Handler) listReferrals(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	refs, err := h.referrals.ListByReferrer(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"referrals": refs})
}

// --- memberships ---

func (h *Handler) requestMembership(c *gin.Context) {
	userID, err := strconv.ParseInt(c.PostForm("user_id"), 10, 64)
	if err != nil || userID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "user_id required"})
		return
	}
	planType := c.PostForm("plan_type")
	pricePaid, _ := strconv.ParseInt(c.PostForm("price_paid"), 10, 64)

	var (
		filename    string
		contentType string
		size        int64
		reader      io.Reader
	)

	if fileHeader, err := c.FormFile("payment_proof"); err == nil {
		file, err := fileHeader.Open()
		if err != nil {
			respondError(c, err)
			return
		}
		defer file.Close()
		filename = fileHeader.Filename
		contentType = fileHeader.Header.Get("Content-Type")
		size = fileHeader.Size
		reader = file
	}

	m, err := h.memberships.Request(c.Request.Context(), userID, planType, pricePaid,
		filename, contentType, size, reader)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, m)
}

func (h *Handler) listMemberships(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	ms, err := h.memberships.ListByUser(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"memberships": ms})
}

func (h *Handler) approveMembership(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	m, err := h.memberships.Approve(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, m)
}

func (h *Handler) rejectMembership(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	var req struct {
		Reason string `json:"reason" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "reason required"})
		return
	}

	if err := h.memberships.Reject(c.Request.Context(), id, req.Reason); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": models.MembershipStatusRejected})
}

func (h *Handler) revokeMembership(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	var req struct {
		Reason string `json:"reason" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "reason required"})
		return
	}

	if err := h.memberships.Revoke(c.Request.Context(), id, req.Reason); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": models.MembershipStatusRevoked})
}

func (h *Handler) extendMembership(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	var req struct {
		Days int `json:"days" binding:"required,min=1"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "days required"})
		return
	}

	m, err := h.memberships.Extend(c.Request.Context(), id, req.Days)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, m)
}

func (h *Handler) deleteMembership(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	if err := h.memberships.Delete(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// prometheusMiddleware collects HTTP metrics
func prometheusMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(c.Writer.Status())

		util.HTTPRequestDuration.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			status,
		).Observe(duration)

		util.HTTPRequestsTotal.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			status,
		).Inc()
	}
}
