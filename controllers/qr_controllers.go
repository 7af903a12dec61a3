package controllers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yeremiapane/restaurant-platform/contracts"
	"github.com/yeremiapane/restaurant-platform/kds"
	"github.com/yeremiapane/restaurant-platform/qrexport"
	"github.com/yeremiapane/restaurant-platform/rpc"
	"github.com/yeremiapane/restaurant-platform/utils"
)

type QRController struct {
	Tables   rpc.Client
	Renderer *qrexport.Renderer
	Hub      *kds.Hub
}

func NewQRController(tables rpc.Client, renderer *qrexport.Renderer, hub *kds.Hub) *QRController {
	return &QRController{Tables: tables, Renderer: renderer, Hub: hub}
}

// Generate issues a fresh token for the table; older codes stop working.
func (qc *QRController) Generate(c *gin.Context) {
	qc.issue(c, contracts.CmdQRGenerate, "QR code generated")
}

func (qc *QRController) Regenerate(c *gin.Context) {
	qc.issue(c, contracts.CmdQRRegenerate, "QR code regenerated")
}

func (qc *QRController) issue(c *gin.Context, pattern, message string) {
	req, err := qc.qrRequest(c)
	if err != nil {
		utils.RespondError(c, err)
		return
	}

	var code contracts.QRCode
	if err := send(c.Request.Context(), qc.Tables, pattern, &req, &code); err != nil {
		utils.RespondError(c, err)
		return
	}

	qc.Hub.Broadcast(req.TenantID, kds.EventQRRegenerated, gin.H{
		"tableId":      code.TableID,
		"tokenVersion": code.TokenVersion,
	})
	utils.RespondJSON(c, http.StatusOK, message, code)
}

func (qc *QRController) Current(c *gin.Context) {
	req, err := qc.qrRequest(c)
	if err != nil {
		utils.RespondError(c, err)
		return
	}

	var code contracts.QRCode
	if err := send(c.Request.Context(), qc.Tables, contracts.CmdQRCurrent, &req, &code); err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Current QR code", code)
}

// Download renders the current code of one table as png or svg.
func (qc *QRController) Download(c *gin.Context) {
	format, err := qrexport.ParseFormat(c.DefaultQuery("format", string(qrexport.FormatPNG)))
	if err == nil && format != qrexport.FormatPNG && format != qrexport.FormatSVG {
		err = utils.Validation(utils.FieldError{Field: "format", Message: "must be one of png, svg"})
	}
	if err != nil {
		utils.RespondError(c, err)
		return
	}

	req, err := qc.qrRequest(c)
	if err != nil {
		utils.RespondError(c, err)
		return
	}

	var code contracts.QRCode
	if err := send(c.Request.Context(), qc.Tables, contracts.CmdQRCurrent, &req, &code); err != nil {
		utils.RespondError(c, err)
		return
	}

	qc.render(c, format, []contracts.QRCode{code}, "table-"+code.TableName)
}

func (qc *QRController) BulkRegenerate(c *gin.Context) {
	var req contracts.QRSelection
	if err := bindJSON(c, &req); err != nil {
		utils.RespondError(c, err)
		return
	}
	req.TenantID, _ = caller(c)

	var result contracts.BulkQRResult
	if err := send(c.Request.Context(), qc.Tables, contracts.CmdQRBulkRegenerate, &req, &result); err != nil {
		utils.RespondError(c, err)
		return
	}

	for _, code := range result.Results {
		qc.Hub.Broadcast(req.TenantID, kds.EventQRRegenerated, gin.H{
			"tableId":      code.TableID,
			"tokenVersion": code.TokenVersion,
		})
	}
	utils.RespondJSON(c, http.StatusOK, "Bulk regeneration finished", result)
}

// Export -> ?format=png|svg|pdf|zip&floor_id=&ids=1,2,3
func (qc *QRController) Export(c *gin.Context) {
	format, err := qrexport.ParseFormat(c.Query("format"))
	if err != nil {
		utils.RespondError(c, err)
		return
	}

	tenantID, _ := caller(c)
	req := contracts.QRSelection{TenantID: tenantID}
	if raw := c.Query("floor_id"); raw != "" {
		floorID, err := parseID("floor_id", raw)
		if err != nil {
			utils.RespondError(c, err)
			return
		}
		req.FloorID = &floorID
	}
	if req.TableIDs, err = parseIDList("ids", c.Query("ids")); err != nil {
		utils.RespondError(c, err)
		return
	}

	var codes []contracts.QRCode
	if err := send(c.Request.Context(), qc.Tables, contracts.CmdQRList, &req, &codes); err != nil {
		utils.RespondError(c, err)
		return
	}

	name := "tables-qr"
	if req.FloorID != nil {
		name = fmt.Sprintf("floor-%d-qr", *req.FloorID)
	}
	qc.render(c, format, codes, name)
}

func (qc *QRController) render(c *gin.Context, format qrexport.Format, codes []contracts.QRCode, name string) {
	items := make([]qrexport.Item, 0, len(codes))
	for _, code := range codes {
		items = append(items, qrexport.Item{
			Label:    code.TableName,
			Subtitle: fmt.Sprintf("version %d", code.TokenVersion),
			Content:  code.ScanURL,
			FileStem: "table-" + code.TableName,
		})
	}

	doc, err := qc.Renderer.Render(format, items, name)
	if err != nil {
		utils.RespondError(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", doc.Filename))
	c.Data(http.StatusOK, doc.ContentType, doc.Body)
}

func (qc *QRController) qrRequest(c *gin.Context) (contracts.GenerateQRRequest, error) {
	tenantID, _ := caller(c)
	id, err := uintParam(c, "table_id")
	if err != nil {
		return contracts.GenerateQRRequest{}, err
	}
	return contracts.GenerateQRRequest{
		TenantID:     tenantID,
		TableID:      id,
		IncludeImage: c.Query("include_image") == "true",
	}, nil
}
