package server

import (
	"strconv"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
)

const dateLayout = "2006-01-02"

func parseCustomerID(c *gin.Context) (snowflake.ID, error) {
	raw := strings.TrimSpace(c.Param("id"))
	id, err := snowflake.ParseString(raw)
	if err != nil {
		return 0, newValidationError("id", "invalid_customer_id", "invalid customer id")
	}
	return id, nil
}

// parseDate interprets a calendar date in the store's local timezone.
func parseDate(field, raw string) (time.Time, error) {
	value, err := time.ParseInLocation(dateLayout, strings.TrimSpace(raw), time.Local)
	if err != nil {
		return time.Time{}, newValidationError(field, "invalid_date", "expected YYYY-MM-DD")
	}
	return value, nil
}

func parsePeriod(c *gin.Context) (time.Time, time.Time, error) {
	startRaw := c.Query("start")
	endRaw := c.Query("end")
	if strings.TrimSpace(startRaw) == "" {
		return time.Time{}, time.Time{}, newValidationError("start", "required", "start is required")
	}
	if strings.TrimSpace(endRaw) == "" {
		return time.Time{}, time.Time{}, newValidationError("end", "required", "end is required")
	}

	start, err := parseDate("start", startRaw)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	end, err := parseDate("end", endRaw)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	return start, end, nil
}

func parseOptionalBool(raw string) (*bool, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	value, err := strconv.ParseBool(raw)
	if err != nil {
		return nil, err
	}
	return &value, nil
}

func parseHistoricalFlag(c *gin.Context) (bool, error) {
	value, err := parseOptionalBool(c.Query("historical"))
	if err != nil {
		return false, newValidationError("historical", "invalid_flag", "invalid historical flag")
	}
	if value == nil {
		return false, nil
	}
	return *value, nil
}
