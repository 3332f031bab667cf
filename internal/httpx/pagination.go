package httpx

import (
	"strconv"

	"github.com/gin-gonic/gin"
)

// Page reads limit/offset query params, clamping limit to 1..100 (default 20).
func Page(c *gin.Context) (limit, offset int) {
	limit, _ = strconv.Atoi(c.DefaultQuery("limit", "20"))
	offset, _ = strconv.Atoi(c.DefaultQuery("offset", "0"))
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
