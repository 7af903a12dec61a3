package controllers

import (
	"context"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/yeremiapane/restaurant-platform/contracts"
	"github.com/yeremiapane/restaurant-platform/middlewares"
	"github.com/yeremiapane/restaurant-platform/rpc"
	"github.com/yeremiapane/restaurant-platform/utils"
)

// caller returns the identity the auth relay attached to the request.
func caller(c *gin.Context) (tenantID string, userID uint) {
	return c.GetString(middlewares.KeyTenantID), c.GetUint(middlewares.KeyUserID)
}

func uintParam(c *gin.Context, name string) (uint, error) {
	return parseID(name, c.Param(name))
}

func parseID(field, raw string) (uint, error) {
	id, err := strconv.ParseUint(strings.TrimSpace(raw), 10, 32)
	if err != nil || id == 0 {
		return 0, utils.Validation(utils.FieldError{Field: field, Message: "must be a positive integer"})
	}
	return uint(id), nil
}

// parseIDList reads a comma separated id list such as "1,2,3".
func parseIDList(field, raw string) ([]uint, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	var ids []uint
	for _, part := range strings.Split(raw, ",") {
		id, err := parseID(field, part)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func bindJSON(c *gin.Context, req interface{}) error {
	if err := c.ShouldBindJSON(req); err != nil {
		return utils.Validation(utils.FieldError{Field: "body", Message: "malformed JSON body"})
	}
	return nil
}

// send validates req at the edge and forwards it; the service validates again.
func send(ctx context.Context, client rpc.Client, pattern string, req contracts.Validator, out interface{}) error {
	if err := req.Validate(); err != nil {
		return err
	}
	return client.Send(ctx, pattern, req, out)
}
