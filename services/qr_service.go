package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/yeremiapane/restaurant-platform/contracts"
	"github.com/yeremiapane/restaurant-platform/models"
	"github.com/yeremiapane/restaurant-platform/qrexport"
	"github.com/yeremiapane/restaurant-platform/qrtoken"
	"github.com/yeremiapane/restaurant-platform/utils"
)

// QRService issues and validates table QR tokens. Regeneration is the only way
// a table's old codes stop working.
type QRService struct {
	Tables        *TableRegistry
	Codec         *qrtoken.Codec
	Validator     *ScanValidator
	Renderer      *qrexport.Renderer
	PublicBaseURL string
	now           func() time.Time
}

func NewQRService(tables *TableRegistry, codec *qrtoken.Codec, renderer *qrexport.Renderer, publicBaseURL, customerAppURL string) *QRService {
	return &QRService{
		Tables:        tables,
		Codec:         codec,
		Validator:     NewScanValidator(tables, codec, customerAppURL),
		Renderer:      renderer,
		PublicBaseURL: strings.TrimRight(publicBaseURL, "/"),
		now:           time.Now,
	}
}

// Generate issues a fresh code for the table, invalidating every earlier one.
func (qs *QRService) Generate(ctx context.Context, req contracts.GenerateQRRequest) (*contracts.QRCode, error) {
	table, err := qs.Tables.Get(ctx, req.TenantID, req.TableID)
	if err != nil {
		return nil, err
	}
	if !table.IsActive {
		return nil, utils.NewAppError(utils.CodeTableUnavailable, "table is inactive", 0, nil)
	}

	table, err = qs.Tables.IncrementTokenVersion(ctx, req.TenantID, req.TableID)
	if err != nil {
		return nil, err
	}

	code, err := qs.issue(ctx, table, req.IncludeImage)
	if err != nil {
		return nil, err
	}
	utils.InfoLogger.Printf("QR regenerated for table %d (tenant=%s version=%d)", table.ID, table.TenantID, table.TokenVersion)
	return code, nil
}

func (qs *QRService) Regenerate(ctx context.Context, req contracts.GenerateQRRequest) (*contracts.QRCode, error) {
	return qs.Generate(ctx, req)
}

// Current returns the code for the table's current version without bumping it.
func (qs *QRService) Current(ctx context.Context, req contracts.GenerateQRRequest) (*contracts.QRCode, error) {
	table, err := qs.Tables.Get(ctx, req.TenantID, req.TableID)
	if err != nil {
		return nil, err
	}
	return qs.current(ctx, table, req.IncludeImage)
}

// BulkRegenerate regenerates every selected table independently; one table
// failing does not stop the others.
func (qs *QRService) BulkRegenerate(ctx context.Context, sel contracts.QRSelection) (*contracts.BulkQRResult, error) {
	ids, missing, err := qs.selectIDs(ctx, sel)
	if err != nil {
		return nil, err
	}

	result := &contracts.BulkQRResult{FailedIDs: []uint{}, Results: []contracts.QRCode{}}
	for _, id := range missing {
		recordFailure(result, id, errTableNotFound)
	}

	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			recordFailure(result, id, err)
			continue
		}
		code, err := qs.Generate(ctx, contracts.GenerateQRRequest{TenantID: sel.TenantID, TableID: id, IncludeImage: sel.IncludeImage})
		if err != nil {
			recordFailure(result, id, err)
			continue
		}
		result.Succeeded++
		result.Results = append(result.Results, *code)
	}

	utils.InfoLogger.Printf("Bulk QR regeneration for tenant %s: %d succeeded, %d failed", sel.TenantID, result.Succeeded, result.Failed)
	return result, nil
}

// ListCurrent returns the current codes of the selected tables for export.
func (qs *QRService) ListCurrent(ctx context.Context, sel contracts.QRSelection) ([]contracts.QRCode, error) {
	var tables []models.Table
	var err error
	if len(sel.TableIDs) > 0 {
		tables, err = qs.Tables.ListByIDs(ctx, sel.TenantID, sel.TableIDs)
		if err == nil && len(tables) != len(uniqueIDs(sel.TableIDs)) {
			return nil, errTableNotFound
		}
	} else {
		tables, err = qs.Tables.List(ctx, contracts.ListTablesRequest{TenantID: sel.TenantID, FloorID: sel.FloorID})
	}
	if err != nil {
		return nil, err
	}

	codes := make([]contracts.QRCode, 0, len(tables))
	for i := range tables {
		code, err := qs.current(ctx, &tables[i], sel.IncludeImage)
		if err != nil {
			return nil, err
		}
		codes = append(codes, *code)
	}
	return codes, nil
}

func (qs *QRService) ValidateScan(ctx context.Context, token string) (contracts.ScanResult, error) {
	return qs.Validator.Validate(ctx, token)
}

// ScanURL is the address a printed code points at.
func (qs *QRService) ScanURL(token string) string {
	return qs.PublicBaseURL + "/qr/scan/" + token
}

func (qs *QRService) current(ctx context.Context, table *models.Table, withImage bool) (*contracts.QRCode, error) {
	if table.QRToken != "" {
		if claims, err := qs.Codec.Decode(table.QRToken); err == nil && claims.TokenVersion == table.TokenVersion {
			return qs.build(table, table.QRToken, withImage)
		}
	}
	return qs.issue(ctx, table, withImage)
}

func (qs *QRService) issue(ctx context.Context, table *models.Table, withImage bool) (*contracts.QRCode, error) {
	token, err := qs.Codec.Encode(qrtoken.Claims{
		TenantID:     table.TenantID,
		TableID:      table.ID,
		TokenVersion: table.TokenVersion,
	})
	if err != nil {
		return nil, err
	}

	at := qs.now()
	cached, err := qs.Tables.CacheToken(ctx, table.TenantID, table.ID, table.TokenVersion, token, at)
	if err != nil {
		return nil, err
	}
	if cached {
		table.QRToken = token
		table.QRGeneratedAt = &at
	}
	return qs.build(table, token, withImage)
}

func (qs *QRService) build(table *models.Table, token string, withImage bool) (*contracts.QRCode, error) {
	code := &contracts.QRCode{
		TenantID:     table.TenantID,
		TableID:      table.ID,
		TableName:    table.Name,
		FloorID:      table.FloorID,
		TokenVersion: table.TokenVersion,
		Token:        token,
		ScanURL:      qs.ScanURL(token),
		GeneratedAt:  qs.now(),
	}
	if table.QRGeneratedAt != nil {
		code.GeneratedAt = *table.QRGeneratedAt
	}
	if withImage && qs.Renderer != nil {
		png, err := qs.Renderer.PNG(code.ScanURL)
		if err != nil {
			return nil, err
		}
		code.Image = png
	}
	return code, nil
}

// selectIDs resolves a selection into the tenant's table ids. Explicit ids
// that do not belong to the tenant are returned separately as missing.
func (qs *QRService) selectIDs(ctx context.Context, sel contracts.QRSelection) (found, missing []uint, err error) {
	if len(sel.TableIDs) == 0 {
		tables, err := qs.Tables.List(ctx, contracts.ListTablesRequest{TenantID: sel.TenantID, FloorID: sel.FloorID})
		if err != nil {
			return nil, nil, err
		}
		for _, t := range tables {
			found = append(found, t.ID)
		}
		return found, nil, nil
	}

	ids := uniqueIDs(sel.TableIDs)
	tables, err := qs.Tables.ListByIDs(ctx, sel.TenantID, ids)
	if err != nil {
		return nil, nil, err
	}
	known := make(map[uint]bool, len(tables))
	for _, t := range tables {
		known[t.ID] = true
	}
	for _, id := range ids {
		if known[id] {
			found = append(found, id)
		} else {
			missing = append(missing, id)
		}
	}
	return found, missing, nil
}

func uniqueIDs(ids []uint) []uint {
	seen := make(map[uint]bool, len(ids))
	out := make([]uint, 0, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}

func recordFailure(result *contracts.BulkQRResult, tableID uint, err error) {
	result.Failed++
	result.FailedIDs = append(result.FailedIDs, tableID)
	result.Failures = append(result.Failures, bulkFailure(tableID, err))
}

func bulkFailure(tableID uint, err error) contracts.BulkFailure {
	var appErr *utils.AppError
	if !errors.As(err, &appErr) {
		appErr = utils.AsAppError(err)
	}
	msg := appErr.Message
	if appErr.Code == utils.CodeInternal {
		utils.ErrorLogger.Printf("Bulk QR regeneration failed for table %d: %v", tableID, err)
	}
	return contracts.BulkFailure{TableID: tableID, Code: appErr.Code, Message: msg}
}
