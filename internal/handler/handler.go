package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gofrs/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"orders_service/internal/auth"
	"orders_service/internal/service"
)

type Handler struct {
	authService  *service.AuthService
	orderService *service.OrderService
	tokens       *auth.TokenManager
	limiter      RateLimiter
	authLimit    int
	authWindow   time.Duration
	log          *slog.Logger
}

type errorResponse struct {
	Error   string               `json:"error"`
	Details []service.FieldError `json:"details,omitempty"`
}

func newErrorResponse(c *gin.Context, statusCode int, errMessage string) {
	c.AbortWithStatusJSON(statusCode, errorResponse{Error: errMessage})
}

func NewHandler(authSvc *service.AuthService, orderSvc *service.OrderService, tokens *auth.TokenManager, limiter RateLimiter, authLimit int, authWindow time.Duration, lgr *slog.Logger) *Handler {
	return &Handler{
		authService:  authSvc,
		orderService: orderSvc,
		tokens:       tokens,
		limiter:      limiter,
		authLimit:    authLimit,
		authWindow:   authWindow,
		log:          lgr,
	}
}

func (h *Handler) InitRoutes() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), RequestIDMiddleware(), metricsMiddleware())

	router.GET("/health", h.Health)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	authGroup := router.Group("/auth")
	authGroup.Use(rateLimitMiddleware(h.limiter, h.authLimit, h.authWindow))
	{
		authGroup.POST("/register", h.Register)
		authGroup.POST("/login", h.Login)
	}

	orders := router.Group("/orders")
	orders.Use(AuthMiddleware(h.tokens, h.log))
	{
		orders.POST("", h.CreateOrder)
		orders.GET("", h.ListOrders)
		orders.PATCH("/:id/advance", h.AdvanceOrder)
	}

	return router
}

// GET /health
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// POST /auth/register
func (h *Handler) Register(c *gin.Context) {
	const op = "handler.Register"

	log := h.log.With(slog.String("op", op))

	var req credentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		newErrorResponse(c, http.StatusBadRequest, "Invalid request body")

		return
	}

	if err := service.ValidateRegister(req.Email, req.Password); err != nil {
		h.respondError(c, err)

		return
	}

	result, err := h.authService.Register(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		log.Error("failed to register user", slog.Any("error", err))

		h.respondError(c, err)

		return
	}

	c.JSON(http.StatusCreated, result)
}

// POST /auth/login
func (h *Handler) Login(c *gin.Context) {
	const op = "handler.Login"

	log := h.log.With(slog.String("op", op))

	var req credentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		newErrorResponse(c, http.StatusBadRequest, "Invalid request body")

		return
	}

	if err := service.ValidateLogin(req.Email, req.Password); err != nil {
		h.respondError(c, err)

		return
	}

	result, err := h.authService.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		log.Error("failed to login user", slog.Any("error", err))

		h.respondError(c, err)

		return
	}

	c.JSON(http.StatusOK, result)
}

// POST /orders
func (h *Handler) CreateOrder(c *gin.Context) {
	const op = "handler.CreateOrder"

	log := h.log.With(slog.String("op", op))

	userID, ok := currentUserID(c)
	if !ok {
		newErrorResponse(c, http.StatusUnauthorized, "Unauthorized")

		return
	}

	var input service.CreateOrderInput
	if err := c.ShouldBindJSON(&input); err != nil {
		newErrorResponse(c, http.StatusBadRequest, "Invalid request body")

		return
	}

	order, err := h.orderService.Create(c.Request.Context(), userID, input)
	if err != nil {
		log.Error("failed to create order", slog.Any("error", err))

		h.respondError(c, err)

		return
	}

	c.JSON(http.StatusCreated, order)
}

// GET /orders
func (h *Handler) ListOrders(c *gin.Context) {
	const op = "handler.ListOrders"

	log := h.log.With(slog.String("op", op))

	userID, ok := currentUserID(c)
	if !ok {
		newErrorResponse(c, http.StatusUnauthorized, "Unauthorized")

		return
	}

	page := queryInt(c, "page", service.DefaultPage)
	limit := queryInt(c, "limit", service.DefaultLimit)
	state := c.Query("state")

	list, err := h.orderService.List(c.Request.Context(), userID, page, limit, state)
	if err != nil {
		log.Error("failed to list orders", slog.Any("error", err))

		h.respondError(c, err)

		return
	}

	c.JSON(http.StatusOK, list)
}

// PATCH /orders/:id/advance
func (h *Handler) AdvanceOrder(c *gin.Context) {
	const op = "handler.AdvanceOrder"

	log := h.log.With(slog.String("op", op))

	userID, ok := currentUserID(c)
	if !ok {
		newErrorResponse(c, http.StatusUnauthorized, "Unauthorized")

		return
	}

	orderID, err := uuid.FromString(c.Param("id"))
	if err != nil {
		// An unparseable id is indistinguishable from a missing order.
		h.respondError(c, service.ErrOrderNotFound)

		return
	}

	order, err := h.orderService.Advance(c.Request.Context(), userID, orderID)
	if err != nil {
		log.Error("failed to advance order",
			slog.String("order_id", orderID.String()),
			slog.Any("error", err),
		)

		h.respondError(c, err)

		return
	}

	c.JSON(http.StatusOK, order)
}

// respondError maps the service error taxonomy onto fixed status codes.
// Anything unclassified becomes an opaque 500.
func (h *Handler) respondError(c *gin.Context, err error) {
	var vErr *service.ValidationError

	switch {
	case errors.As(err, &vErr):
		c.AbortWithStatusJSON(http.StatusBadRequest, errorResponse{
			Error:   "Validation error",
			Details: vErr.Fields,
		})
	case errors.Is(err, service.ErrInvalidCredentials):
		newErrorResponse(c, http.StatusUnauthorized, err.Error())
	case errors.Is(err, service.ErrOrderConflict):
		newErrorResponse(c, http.StatusConflict, err.Error())
	case errors.Is(err, service.ErrEmailTaken),
		errors.Is(err, service.ErrOrderNotFound),
		errors.Is(err, service.ErrOrderCompleted),
		errors.Is(err, service.ErrOrderValue):
		newErrorResponse(c, http.StatusBadRequest, err.Error())
	default:
		newErrorResponse(c, http.StatusInternalServerError, "Internal server error")
	}
}

func currentUserID(c *gin.Context) (uuid.UUID, bool) {
	value, ok := c.Get(ctxKeyUserID)
	if !ok {
		return uuid.Nil, false
	}

	userID, ok := value.(uuid.UUID)
	if !ok || userID == uuid.Nil {
		return uuid.Nil, false
	}

	return userID, true
}

func queryInt(c *gin.Context, name string, fallback int) int {
	raw := c.Query(name)
	if raw == "" {
		return fallback
	}

	value, err := strconv.Atoi(raw)
	if err != nil || value < 1 {
		return fallback
	}

	return value
}
