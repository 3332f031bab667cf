package main

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	tm "github.com/MikeMC777/multimarket/internal/testimonial"
)

func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, tm.ErrValidation):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, tm.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	default:
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

// listApprovedHandler godoc
// @Summary   Approved testimonials, newest first
// @Tags      testimonials
// @Produce   json
// @Param     limit  query  int  false  "max items (0 = all)"
// @Success   200  {array}  tm.Testimonial
// @Router    /testimonials [get]
func listApprovedHandler(repo tm.Repository) gin.HandlerFunc {
	return func(c *gin.Context) {
		limit, _ := strconv.Atoi(c.DefaultQuery("limit", "0"))
		items, err := repo.ListApproved(c.Request.Context(), limit)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, items)
	}
}

// submitHandler godoc
// @Summary   Submit a testimonial for moderation
// @Tags      testimonials
// @Accept    json
// @Produce   json
// @Param     body  body  tm.SubmitRequest  true  "review"
// @Success   201  {object}  tm.Testimonial
// @Failure   400  {object}  map[string]string
// @Router    /testimonials [post]
func submitHandler(repo tm.Repository) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req tm.SubmitRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
			return
		}
		t, err := req.Validate()
		if err != nil {
			respondError(c, err)
			return
		}
		if err := repo.Create(c.Request.Context(), t); err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, t)
	}
}

// adminListHandler godoc
// @Summary   Moderation queue
// @Tags      testimonials
// @Produce   json
// @Security  BearerAuth
// @Param     status  query  string  false  "pending | approved | rejected"
// @Success   200  {array}  tm.Testimonial
// @Router    /admin/testimonials [get]
func adminListHandler(repo tm.Repository) gin.HandlerFunc {
	return func(c *gin.Context) {
		status := tm.Status(strings.TrimSpace(c.Query("status")))
		if status != "" && !status.Valid() {
			c.JSON(http.StatusBadRequest, gin.H{"error": "status must be pending, approved or rejected"})
			return
		}
		items, err := repo.List(c.Request.Context(), status)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, items)
	}
}

// setStatusHandler godoc
// @Summary      Moderate a testimonial
// @Description  approve publishes it, reject hides it, restore returns it to pending
// @Tags         testimonials
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "testimonial id"
// @Success      200  {object}  tm.Testimonial
// @Failure      404  {object}  map[string]string
// @Router       /admin/testimonials/{id}/approve [post]
// @Router       /admin/testimonials/{id}/reject [post]
// @Router       /admin/testimonials/{id}/restore [post]
func setStatusHandler(repo tm.Repository, to tm.Status) gin.HandlerFunc {
	return func(c *gin.Context) {
		t, err := repo.SetStatus(c.Request.Context(), c.Param("id"), to)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, t)
	}
}

// deleteHandler godoc
// @Summary   Delete permanently
// @Tags      testimonials
// @Security  BearerAuth
// @Param     id  path  string  true  "testimonial id"
// @Success   204
// @Failure   404  {object}  map[string]string
// @Router    /admin/testimonials/{id} [delete]
func deleteHandler(repo tm.Repository) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := repo.Delete(c.Request.Context(), c.Param("id")); err != nil {
			respondError(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}
