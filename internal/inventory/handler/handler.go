package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/oakline/inventory-service/internal/apierror"
	"github.com/oakline/inventory-service/internal/auth"
	"github.com/oakline/inventory-service/internal/inventory"
	"github.com/oakline/inventory-service/internal/inventory/dto"
	"github.com/oakline/inventory-service/internal/model"
	"github.com/oakline/inventory-service/pkg/logger"
)

type InventoryHandler struct {
	uc     inventory.UseCase
	logger logger.ZapLogger
}

func NewInventoryHandler(uc inventory.UseCase, log logger.ZapLogger) *InventoryHandler {
	return &InventoryHandler{uc: uc, logger: log}
}

// RegisterRoutes mounts the inventory API under /api/v1.
func (h *InventoryHandler) RegisterRoutes(r *gin.Engine) {
	v1 := r.Group("/api/v1/inventory")
	{
		v1.GET("/low-stock", h.ListLowStock)
		v1.GET("/:productId", h.GetProductInventory)
		v1.GET("/:productId/transactions", h.ListTransactions)
		v1.POST("/receive", h.Receive)
		v1.POST("/adjust", h.Adjust)
		v1.POST("/reserve", h.Reserve)
		v1.POST("/consume", h.Consume)
		v1.POST("/manufactured", h.RecordManufactured)
		v1.POST("/production/begin", h.BeginProduction)
	}
}

func (h *InventoryHandler) GetProductInventory(c *gin.Context) {
	snap, err := h.uc.GetProductInventory(c.Request.Context(), c.Param("productId"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, snap)
}

func (h *InventoryHandler) ListLowStock(c *gin.Context) {
	page, pageSize := pagination(c)
	items, total, err := h.uc.ListLowStock(c.Request.Context(), page, pageSize)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": items, "total": total})
}

func (h *InventoryHandler) ListTransactions(c *gin.Context) {
	page, pageSize := pagination(c)
	filters := &dto.TransactionFilters{
		ProductID:      c.Param("productId"),
		Type:           model.TransactionType(c.Query("type")),
		ReferenceDocID: c.Query("referenceDocId"),
		Page:           page,
		PageSize:       pageSize,
	}
	items, total, err := h.uc.ListTransactions(c.Request.Context(), filters)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": items, "total": total})
}

func (h *InventoryHandler) Receive(c *gin.Context) {
	var input dto.ReceiveInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, apierror.New(err.Error()))
		return
	}
	snap, err := h.uc.Receive(h.actorCtx(c), &input)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, snap)
}

func (h *InventoryHandler) Adjust(c *gin.Context) {
	var input dto.AdjustInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, apierror.New(err.Error()))
		return
	}
	snap, err := h.uc.Adjust(h.actorCtx(c), &input)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, snap)
}

func (h *InventoryHandler) Reserve(c *gin.Context) {
	var input dto.ReserveInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, apierror.New(err.Error()))
		return
	}
	result, err := h.uc.Reserve(h.actorCtx(c), &input)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *InventoryHandler) Consume(c *gin.Context) {
	var input dto.ConsumeInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, apierror.New(err.Error()))
		return
	}
	result, err := h.uc.Consume(h.actorCtx(c), &input)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *InventoryHandler) RecordManufactured(c *gin.Context) {
	var input dto.ManufactureInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, apierror.New(err.Error()))
		return
	}
	result, err := h.uc.RecordManufactured(h.actorCtx(c), &input)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

type beginProductionRequest struct {
	ProductID string `json:"productId" binding:"required"`
	Quantity  int64  `json:"quantity" binding:"required"`
}

func (h *InventoryHandler) BeginProduction(c *gin.Context) {
	var req beginProductionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, apierror.New(err.Error()))
		return
	}
	snap, err := h.uc.BeginProduction(h.actorCtx(c), req.ProductID, req.Quantity)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, snap)
}

// actorCtx attaches the acting user (X-User-Id header) for created_by
// attribution on recorded transactions.
func (h *InventoryHandler) actorCtx(c *gin.Context) context.Context {
	ctx := c.Request.Context()
	if userID := c.GetHeader("X-User-Id"); userID != "" {
		ctx = auth.WithUserID(ctx, userID)
	}
	return ctx
}

func (h *InventoryHandler) fail(c *gin.Context, err error) {
	if errors.Is(err, inventory.ErrNotFound) {
		c.JSON(http.StatusNotFound, apierror.New("inventory snapshot not found"))
		return
	}
	h.logger.Error("inventory request failed", zap.String("path", c.FullPath()), zap.Error(err))
	c.JSON(http.StatusInternalServerError, apierror.New("internal error"))
}

func pagination(c *gin.Context) (int, int) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("pageSize", "50"))
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 500 {
		pageSize = 50
	}
	return page, pageSize
}
