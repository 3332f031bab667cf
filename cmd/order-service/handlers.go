package main

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/MikeMC777/multimarket/internal/cart"
	"github.com/MikeMC777/multimarket/internal/httpx"
	ord "github.com/MikeMC777/multimarket/internal/order"
	"github.com/MikeMC777/multimarket/internal/pricing"
)

// errorStatus maps domain errors to HTTP codes.
func errorStatus(err error) int {
	switch {
	case errors.Is(err, ord.ErrValidation),
		errors.Is(err, ord.ErrEmptyCart),
		errors.Is(err, cart.ErrInvalidProduct),
		errors.Is(err, pricing.ErrInvalidPrice),
		errors.Is(err, pricing.ErrNegativeSubtotal):
		return http.StatusBadRequest
	case errors.Is(err, ord.ErrForbidden),
		errors.Is(err, ord.ErrCancelWindowExpired):
		return http.StatusForbidden
	case errors.Is(err, ord.ErrNotFound),
		errors.Is(err, ord.ErrProductNotFound),
		errors.Is(err, cart.ErrItemNotFound):
		return http.StatusNotFound
	case errors.Is(err, ord.ErrInvalidTransition),
		errors.Is(err, ord.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, ord.ErrUpstream):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func respondError(c *gin.Context, err error) {
	code := errorStatus(err)
	if code == http.StatusInternalServerError {
		_ = c.Error(err)
		c.JSON(code, gin.H{"error": "internal error"})
		return
	}
	c.JSON(code, gin.H{"error": err.Error()})
}

func bind(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return false
	}
	return true
}

// ---- cart ----

// getCartHandler godoc
// @Summary   Current cart with pricing breakdown
// @Tags      cart
// @Produce   json
// @Security  BearerAuth
// @Success   200  {object}  ord.CartView
// @Router    /cart [get]
func getCartHandler(svc *ord.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		p, _ := httpx.Principal(c)
		v, err := svc.Cart(c.Request.Context(), p.UID)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, v)
	}
}

type addToCartRequest struct {
	ProductID string `json:"product_id" example:"3f0c2a8e-..."`
}

// addToCartHandler godoc
// @Summary   Add one unit of a product
// @Tags      cart
// @Accept    json
// @Produce   json
// @Security  BearerAuth
// @Param     body  body  addToCartRequest  true  "product"
// @Success   200  {object}  ord.CartView
// @Failure   404  {object}  map[string]string
// @Router    /cart [post]
func addToCartHandler(svc *ord.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req addToCartRequest
		if !bind(c, &req) {
			return
		}
		p, _ := httpx.Principal(c)
		v, err := svc.AddToCart(c.Request.Context(), p.UID, req.ProductID)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, v)
	}
}

type cartEdit func(ctx context.Context, userID, productID string) (ord.CartView, error)

func cartItemHandler(edit cartEdit) gin.HandlerFunc {
	return func(c *gin.Context) {
		p, _ := httpx.Principal(c)
		v, err := edit(c.Request.Context(), p.UID, c.Param("product_id"))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, v)
	}
}

// increaseItemHandler godoc
// @Summary   Increase quantity
// @Tags      cart
// @Security  BearerAuth
// @Param     product_id  path  string  true  "product id"
// @Success   200  {object}  ord.CartView
// @Router    /cart/{product_id}/increase [post]
func increaseItemHandler(svc *ord.Service) gin.HandlerFunc { return cartItemHandler(svc.IncreaseItem) }

// decreaseItemHandler godoc
// @Summary   Decrease quantity (stays at 1)
// @Tags      cart
// @Security  BearerAuth
// @Param     product_id  path  string  true  "product id"
// @Success   200  {object}  ord.CartView
// @Router    /cart/{product_id}/decrease [post]
func decreaseItemHandler(svc *ord.Service) gin.HandlerFunc { return cartItemHandler(svc.DecreaseItem) }

// removeItemHandler godoc
// @Summary   Remove a line
// @Tags      cart
// @Security  BearerAuth
// @Param     product_id  path  string  true  "product id"
// @Success   200  {object}  ord.CartView
// @Router    /cart/{product_id} [delete]
func removeItemHandler(svc *ord.Service) gin.HandlerFunc { return cartItemHandler(svc.RemoveItem) }

// clearCartHandler godoc
// @Summary   Empty the cart
// @Tags      cart
// @Security  BearerAuth
// @Success   200  {object}  ord.CartView
// @Router    /cart [delete]
func clearCartHandler(svc *ord.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		p, _ := httpx.Principal(c)
		v, err := svc.ClearCart(c.Request.Context(), p.UID)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, v)
	}
}

// ---- buyer orders ----

// createOrderHandler godoc
// @Summary      Checkout the current cart
// @Description  Validates the buyer, snapshots the cart, prices it and clears the cart once the order is stored.
// @Tags         orders
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body  ord.CheckoutRequest  true  "contact and payment"
// @Success      201  {object}  ord.View
// @Failure      400  {object}  map[string]string
// @Failure      403  {object}  map[string]string
// @Failure      502  {object}  map[string]string
// @Router       /orders [post]
func createOrderHandler(svc *ord.Service, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req ord.CheckoutRequest
		if !bind(c, &req) {
			return
		}
		p, _ := httpx.Principal(c)
		o, err := svc.Checkout(c.Request.Context(), p, req)
		if err != nil {
			if errorStatus(err) >= http.StatusInternalServerError {
				logger.Error("checkout failed", zap.String("user_id", p.UID),
					zap.String("rid", httpx.RequestIDFrom(c)), zap.Error(err))
			}
			respondError(c, err)
			return
		}
		v := ord.NewView(o)
		left := svc.CancellableFor(o)
		v.CancellableFor = &left
		c.JSON(http.StatusCreated, v)
	}
}

// listMyOrdersHandler godoc
// @Summary   Buyer order history, newest first
// @Tags      orders
// @Produce   json
// @Security  BearerAuth
// @Param     limit   query  int  false  "page size"
// @Param     offset  query  int  false  "offset"
// @Success   200  {object}  map[string]interface{}
// @Router    /orders/mine [get]
func listMyOrdersHandler(svc *ord.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		p, _ := httpx.Principal(c)
		limit, offset := httpx.Page(c)
		items, err := svc.ListMine(c.Request.Context(), p, limit, offset)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"limit": limit, "offset": offset, "items": items})
	}
}

// getOrderHandler godoc
// @Summary   Get one order (owner or admin)
// @Tags      orders
// @Produce   json
// @Security  BearerAuth
// @Param     id  path  string  true  "order id"
// @Success   200  {object}  ord.View
// @Failure   403  {object}  map[string]string
// @Failure   404  {object}  map[string]string
// @Router    /orders/{id} [get]
func getOrderHandler(svc *ord.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		p, _ := httpx.Principal(c)
		o, err := svc.Get(c.Request.Context(), p, c.Param("id"))
		if err != nil {
			respondError(c, err)
			return
		}
		v := ord.NewView(o)
		if o.UserID == p.UID {
			left := svc.CancellableFor(o)
			v.CancellableFor = &left
		}
		c.JSON(http.StatusOK, v)
	}
}

// cancelMyOrderHandler godoc
// @Summary      Cancel an own order
// @Description  Allowed while pending or driver_assigned and within the cancellation window.
// @Tags         orders
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path  string             true   "order id"
// @Param        body  body  ord.CancelRequest  false  "reason"
// @Success      200  {object}  ord.View
// @Failure      403  {object}  map[string]string
// @Failure      409  {object}  map[string]string
// @Router       /orders/{id}/cancel [post]
func cancelMyOrderHandler(svc *ord.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req ord.CancelRequest
		if c.Request.ContentLength > 0 && !bind(c, &req) {
			return
		}
		p, _ := httpx.Principal(c)
		o, err := svc.CancelByBuyer(c.Request.Context(), p, c.Param("id"), req.Reason)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, ord.NewView(o))
	}
}

// ---- admin desk ----

// adminListOrdersHandler godoc
// @Summary   Order desk list
// @Tags      admin
// @Produce   json
// @Security  BearerAuth
// @Param     status  query  string  false  "pending | driver_assigned | delivered | cancelled"
// @Param     q       query  string  false  "order number, name, phone or email"
// @Param     limit   query  int     false  "page size"
// @Param     offset  query  int     false  "offset"
// @Success   200  {object}  map[string]interface{}
// @Router    /admin/orders [get]
func adminListOrdersHandler(svc *ord.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		limit, offset := httpx.Page(c)
		f := ord.ListFilter{
			Status: ord.Status(strings.TrimSpace(c.Query("status"))),
			Query:  c.Query("q"),
			Limit:  limit,
			Offset: offset,
		}
		items, err := svc.List(c.Request.Context(), f)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"limit": limit, "offset": offset, "items": items})
	}
}

// adminStatsHandler godoc
// @Summary   Order counters
// @Tags      admin
// @Produce   json
// @Security  BearerAuth
// @Success   200  {object}  ord.Stats
// @Router    /admin/orders/stats [get]
func adminStatsHandler(svc *ord.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		st, err := svc.Stats(c.Request.Context())
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, st)
	}
}

func transitionResult(c *gin.Context, o *ord.Order, err error) {
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, ord.NewView(o))
}

// assignDriverHandler godoc
// @Summary   Assign a driver (pending -> driver_assigned)
// @Tags      admin
// @Accept    json
// @Produce   json
// @Security  BearerAuth
// @Param     id    path  string                   true  "order id"
// @Param     body  body  ord.AssignDriverRequest  true  "driver"
// @Success   200  {object}  ord.View
// @Failure   409  {object}  map[string]string
// @Router    /admin/orders/{id}/assign [post]
func assignDriverHandler(svc *ord.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req ord.AssignDriverRequest
		if !bind(c, &req) {
			return
		}
		o, err := svc.AssignDriver(c.Request.Context(), c.Param("id"), req)
		transitionResult(c, o, err)
	}
}

// deliverHandler godoc
// @Summary   Mark delivered (driver_assigned -> delivered)
// @Tags      admin
// @Security  BearerAuth
// @Param     id  path  string  true  "order id"
// @Success   200  {object}  ord.View
// @Router    /admin/orders/{id}/deliver [post]
func deliverHandler(svc *ord.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		o, err := svc.MarkDelivered(c.Request.Context(), c.Param("id"))
		transitionResult(c, o, err)
	}
}

// adminCancelHandler godoc
// @Summary   Cancel with a reason
// @Tags      admin
// @Accept    json
// @Security  BearerAuth
// @Param     id    path  string             true  "order id"
// @Param     body  body  ord.CancelRequest  true  "reason"
// @Success   200  {object}  ord.View
// @Router    /admin/orders/{id}/cancel [post]
func adminCancelHandler(svc *ord.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req ord.CancelRequest
		if !bind(c, &req) {
			return
		}
		o, err := svc.CancelByAdmin(c.Request.Context(), c.Param("id"), req.Reason)
		transitionResult(c, o, err)
	}
}

// markPaidHandler godoc
// @Summary   Mark a prepaid order as paid
// @Tags      admin
// @Security  BearerAuth
// @Param     id  path  string  true  "order id"
// @Success   200  {object}  ord.View
// @Router    /admin/orders/{id}/payment [post]
func markPaidHandler(svc *ord.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		o, err := svc.MarkPaid(c.Request.Context(), c.Param("id"))
		transitionResult(c, o, err)
	}
}

// updateOrderStatusHandler godoc
// @Summary   Generic status change
// @Tags      admin
// @Accept    json
// @Produce   json
// @Security  BearerAuth
// @Param     id    path  string             true  "order id"
// @Param     body  body  ord.StatusRequest  true  "target status"
// @Success   200  {object}  ord.View
// @Failure   400  {object}  map[string]string
// @Failure   409  {object}  map[string]string
// @Router    /admin/orders/{id}/status [put]
func updateOrderStatusHandler(svc *ord.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req ord.StatusRequest
		if !bind(c, &req) {
			return
		}
		o, err := svc.SetStatus(c.Request.Context(), c.Param("id"), req)
		transitionResult(c, o, err)
	}
}
