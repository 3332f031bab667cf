package main

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/MikeMC777/multimarket/internal/httpx"
	prod "github.com/MikeMC777/multimarket/internal/product"
)

const minSearchLen = 2

func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, prod.ErrValidation):
		c.JSON(http.StatusBadRequest, prod.HTTPError{Error: err.Error()})
	case errors.Is(err, prod.ErrNotFound):
		c.JSON(http.StatusNotFound, prod.HTTPError{Error: "not found"})
	default:
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, prod.HTTPError{Error: "internal error"})
	}
}

// listOnlyHandler godoc
// @Summary      List products
// @Description  Newest first, optional category filter; no text search.
// @Tags         products
// @Produce      json
// @Param        category  query  string  false  "elektr | santexnika"
// @Param        limit     query  int     false  "page size (1..100)"
// @Param        offset    query  int     false  "offset"
// @Success      200  {object}  prod.ListResponse
// @Failure      400  {object}  prod.HTTPError
// @Router       /products [get]
func listOnlyHandler(repo prod.Repository) gin.HandlerFunc {
	return func(c *gin.Context) {
		limit, offset := httpx.Page(c)
		cat, ok := categoryParam(c)
		if !ok {
			return
		}
		items, err := repo.List(c.Request.Context(), prod.Query{Category: cat, Limit: limit, Offset: offset})
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, prod.ListResponse{Category: cat, Limit: limit, Offset: offset, Items: items})
	}
}

// categoryParam reads the optional ?category filter and writes 400 when it is unknown.
func categoryParam(c *gin.Context) (prod.Category, bool) {
	cat := prod.Category(strings.TrimSpace(c.Query("category")))
	if cat != "" && !cat.Valid() {
		c.JSON(http.StatusBadRequest, prod.HTTPError{Error: "category must be elektr or santexnika"})
		return "", false
	}
	return cat, true
}

// searchHandler godoc
// @Summary      Search products by title
// @Tags         products
// @Produce      json
// @Param        q         query  string  true   "search text, at least 2 characters"
// @Param        category  query  string  false  "elektr or santexnika"
// @Param        limit   query  int     false  "page size"
// @Param        offset  query  int     false  "offset"
// @Success      200  {object}  prod.ListResponse
// @Failure      400  {object}  prod.HTTPError
// @Router       /products/search [get]
func searchHandler(repo prod.Repository) gin.HandlerFunc {
	return func(c *gin.Context) {
		q := strings.TrimSpace(c.Query("q"))
		if len([]rune(q)) < minSearchLen {
			c.JSON(http.StatusBadRequest, prod.HTTPError{Error: "q must be at least 2 characters"})
			return
		}
		limit, offset := httpx.Page(c)
		cat, ok := categoryParam(c)
		if !ok {
			return
		}
		items, err := repo.List(c.Request.Context(), prod.Query{Q: q, Category: cat, Limit: limit, Offset: offset})
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, prod.ListResponse{Q: q, Category: cat, Limit: limit, Offset: offset, Items: items})
	}
}

// getProductHandler godoc
// @Summary      Get product
// @Tags         products
// @Produce      json
// @Param        id   path  string  true  "product id"
// @Success      200  {object}  prod.Product
// @Failure      404  {object}  prod.HTTPError
// @Router       /products/{id} [get]
func getProductHandler(repo prod.Repository) gin.HandlerFunc {
	return func(c *gin.Context) {
		p, err := repo.GetByID(c.Request.Context(), c.Param("id"))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, p)
	}
}

// createProductHandler godoc
// @Summary      Create product
// @Tags         products
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body  prod.CreateProductRequest  true  "product"
// @Success      201  {object}  prod.Product
// @Failure      400  {object}  prod.HTTPError
// @Router       /products [post]
func createProductHandler(repo prod.Repository) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req prod.CreateProductRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, prod.HTTPError{Error: "invalid json"})
			return
		}
		p, err := req.Validate()
		if err != nil {
			respondError(c, err)
			return
		}
		p.ID = uuid.NewString()
		if err := repo.Create(c.Request.Context(), p); err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, p)
	}
}

// updateProductHandler godoc
// @Summary      Update product (partial)
// @Description  Omitted fields keep their current value.
// @Tags         products
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path  string                     true  "product id"
// @Param        body  body  prod.UpdateProductRequest  true  "fields to change"
// @Success      200  {object}  prod.Product
// @Failure      400  {object}  prod.HTTPError
// @Failure      404  {object}  prod.HTTPError
// @Router       /products/{id} [put]
func updateProductHandler(repo prod.Repository) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req prod.UpdateProductRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, prod.HTTPError{Error: "invalid json"})
			return
		}
		patch, err := req.Validate()
		if err != nil {
			respondError(c, err)
			return
		}
		if patch.Empty() {
			c.JSON(http.StatusBadRequest, prod.HTTPError{Error: "nothing to update"})
			return
		}
		p, err := repo.Update(c.Request.Context(), c.Param("id"), patch)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, p)
	}
}

// deleteProductHandler godoc
// @Summary      Delete product
// @Tags         products
// @Security     BearerAuth
// @Param        id  path  string  true  "product id"
// @Success      204
// @Failure      404  {object}  prod.HTTPError
// @Router       /products/{id} [delete]
func deleteProductHandler(repo prod.Repository) gin.HandlerFunc {
	return func(c *gin.Context) {
		ok, err := repo.Delete(c.Request.Context(), c.Param("id"))
		if err != nil {
			respondError(c, err)
			return
		}
		if !ok {
			c.JSON(http.StatusNotFound, prod.HTTPError{Error: "not found"})
			return
		}
		c.Status(http.StatusNoContent)
	}
}
