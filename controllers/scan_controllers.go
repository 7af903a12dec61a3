package controllers

import (
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"unicode"

	"github.com/gin-gonic/gin"
	"github.com/yeremiapane/restaurant-platform/contracts"
	"github.com/yeremiapane/restaurant-platform/rpc"
	"github.com/yeremiapane/restaurant-platform/utils"
)

const maxScanMessage = 200

// ScanController handles the public QR scan. In release mode the customer is
// redirected; in debug mode the outcome is echoed as JSON.
type ScanController struct {
	Tables       rpc.Client
	Release      bool
	ScanErrorURL string
}

func NewScanController(tables rpc.Client, release bool, scanErrorURL string) *ScanController {
	return &ScanController{Tables: tables, Release: release, ScanErrorURL: scanErrorURL}
}

// Scan serves /qr/scan/:token and /qr/scan?token=
func (sc *ScanController) Scan(c *gin.Context) {
	token := c.Param("token")
	if token == "" {
		token = c.Query("token")
	}

	result, err := sc.validate(c, token)
	if err != nil {
		sc.fail(c, err)
		return
	}

	utils.InfoLogger.Printf("QR scan accepted: tenant=%s table=%d", result.TenantID, result.TableID)
	if sc.Release {
		c.Redirect(http.StatusFound, result.RedirectPath)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Scan accepted", gin.H{
		"tenantId":  result.TenantID,
		"tableId":   result.TableID,
		"tableName": result.TableName,
		"redirect":  result.RedirectPath,
	})
}

func (sc *ScanController) validate(c *gin.Context, token string) (contracts.ScanResult, error) {
	req := contracts.ValidateScanRequest{Token: token}

	var result contracts.ScanResult
	if err := send(c.Request.Context(), sc.Tables, contracts.CmdQRValidateScan, &req, &result); err != nil {
		return result, err
	}
	if !result.Accepted() {
		utils.InfoLogger.Printf("QR scan rejected: %s (trail=%s)", result.Reason, strings.Join(result.Trail, ">"))
		return result, result.Err()
	}
	return result, nil
}

func (sc *ScanController) fail(c *gin.Context, err error) {
	appErr := utils.AsAppError(err)
	if appErr.Code == utils.CodeInternal {
		utils.ErrorLogger.Errorf("QR scan failed: %v", err)
	}

	if sc.Release {
		q := url.Values{}
		q.Set("reason", strconv.Itoa(appErr.Code))
		q.Set("message", sanitizeMessage(utils.NewErrorResponse(appErr, "").Message))
		c.Redirect(http.StatusFound, sc.ScanErrorURL+"?"+q.Encode())
		return
	}

	status := appErr.Status
	if status == 0 {
		status = http.StatusInternalServerError
	}
	// the route pattern is reported instead of the path so the token is not echoed
	c.AbortWithStatusJSON(status, utils.NewErrorResponse(appErr, c.FullPath()))
}

// sanitizeMessage keeps messages safe to place on the error page.
func sanitizeMessage(msg string) string {
	msg = strings.Map(func(r rune) rune {
		switch {
		case r == '<' || r == '>' || r == '"' || r == '\'' || r == '&':
			return -1
		case unicode.IsControl(r):
			return ' '
		}
		return r
	}, msg)
	msg = strings.TrimSpace(msg)
	if runes := []rune(msg); len(runes) > maxScanMessage {
		msg = string(runes[:maxScanMessage])
	}
	return msg
}
