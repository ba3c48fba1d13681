package server

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	balancesdomain "github.com/helloword214/zmstore-pos-sub004/internal/balances/domain"
)

const maxBalancePageSize = 200

// @Summary      Open Balances
// @Description  List customers with an open balance, largest first
// @Tags         balances
// @Produce      json
// @Param        q      query  string  false  "Name, alias, or phone substring"
// @Param        limit  query  int     false  "Maximum rows"
// @Success      200  {object}  []balancesdomain.CustomerBalanceSummary
// @Router       /balances [get]
func (s *Server) ListOpenBalances(c *gin.Context) {
	if s.balancesSvc == nil {
		AbortWithError(c, ErrServiceUnavailable)
		return
	}

	if !s.listLimiter.Allow(c.ClientIP()) {
		c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": gin.H{
			"code":    "rate_limited",
			"message": "too many requests",
		}})
		return
	}

	limit := 0
	if raw := strings.TrimSpace(c.Query("limit")); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			AbortWithError(c, newValidationError("limit", "invalid_limit", "invalid limit"))
			return
		}
		limit = parsed
	}
	if limit == 0 || limit > maxBalancePageSize {
		limit = maxBalancePageSize
	}

	resp, err := s.balancesSvc.ListOpenBalances(c.Request.Context(), balancesdomain.ListFilter{
		Query: strings.TrimSpace(c.Query("q")),
		Limit: limit,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}
