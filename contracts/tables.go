package contracts

import (
	"fmt"
	"strings"
	"time"

	"github.com/yeremiapane/restaurant-platform/utils"
)

type CreateTableRequest struct {
	TenantID string `json:"tenantId"`
	Name     string `json:"name"`
	Capacity int    `json:"capacity"`
	FloorID  *uint  `json:"floorId,omitempty"`
}

func (r *CreateTableRequest) Validate() error {
	var f fieldErrors
	f.tenant(r.TenantID)
	f.name("name", r.Name)
	f.check(r.Capacity >= 1 && r.Capacity <= maxTableSeats, "capacity", "must be between 1 and %d", maxTableSeats)
	if r.FloorID != nil {
		f.id("floorId", *r.FloorID)
	}
	r.Name = strings.TrimSpace(r.Name)
	return f.err()
}

type TableRef struct {
	TenantID string `json:"tenantId"`
	TableID  uint   `json:"tableId"`
}

func (r *TableRef) Validate() error {
	var f fieldErrors
	f.tenant(r.TenantID)
	f.id("tableId", r.TableID)
	return f.err()
}

type ListTablesRequest struct {
	TenantID        string `json:"tenantId"`
	FloorID         *uint  `json:"floorId,omitempty"`
	IncludeInactive bool   `json:"includeInactive"`
}

func (r *ListTablesRequest) Validate() error {
	var f fieldErrors
	f.tenant(r.TenantID)
	if r.FloorID != nil {
		f.id("floorId", *r.FloorID)
	}
	return f.err()
}

// UpdateTableRequest is a partial update; nil fields are left untouched.
// ClearFloor detaches the table from its floor.
type UpdateTableRequest struct {
	TenantID   string  `json:"tenantId"`
	TableID    uint    `json:"tableId"`
	Name       *string `json:"name,omitempty"`
	Capacity   *int    `json:"capacity,omitempty"`
	FloorID    *uint   `json:"floorId,omitempty"`
	ClearFloor bool    `json:"clearFloor,omitempty"`
	IsActive   *bool   `json:"isActive,omitempty"`
}

func (r *UpdateTableRequest) Validate() error {
	var f fieldErrors
	f.tenant(r.TenantID)
	f.id("tableId", r.TableID)
	if r.Name != nil {
		f.name("name", *r.Name)
		trimmed := strings.TrimSpace(*r.Name)
		r.Name = &trimmed
	}
	if r.Capacity != nil {
		f.check(*r.Capacity >= 1 && *r.Capacity <= maxTableSeats, "capacity", "must be between 1 and %d", maxTableSeats)
	}
	if r.FloorID != nil {
		f.id("floorId", *r.FloorID)
		f.check(!r.ClearFloor, "clearFloor", "cannot be combined with floorId")
	}
	return f.err()
}

type CreateFloorRequest struct {
	TenantID    string `json:"tenantId"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	SortOrder   int    `json:"sortOrder,omitempty"`
}

func (r *CreateFloorRequest) Validate() error {
	var f fieldErrors
	f.tenant(r.TenantID)
	f.name("name", r.Name)
	r.Name = strings.TrimSpace(r.Name)
	return f.err()
}

type FloorRef struct {
	TenantID string `json:"tenantId"`
	FloorID  uint   `json:"floorId"`
}

func (r *FloorRef) Validate() error {
	var f fieldErrors
	f.tenant(r.TenantID)
	f.id("floorId", r.FloorID)
	return f.err()
}

type ListFloorsRequest struct {
	TenantID        string `json:"tenantId"`
	IncludeInactive bool   `json:"includeInactive"`
}

func (r *ListFloorsRequest) Validate() error {
	var f fieldErrors
	f.tenant(r.TenantID)
	return f.err()
}

type UpdateFloorRequest struct {
	TenantID    string  `json:"tenantId"`
	FloorID     uint    `json:"floorId"`
	Name        *string `json:"name,omitempty"`
	Description *string `json:"description,omitempty"`
	SortOrder   *int    `json:"sortOrder,omitempty"`
	IsActive    *bool   `json:"isActive,omitempty"`
}

func (r *UpdateFloorRequest) Validate() error {
	var f fieldErrors
	f.tenant(r.TenantID)
	f.id("floorId", r.FloorID)
	if r.Name != nil {
		f.name("name", *r.Name)
		trimmed := strings.TrimSpace(*r.Name)
		r.Name = &trimmed
	}
	return f.err()
}

type GenerateQRRequest struct {
	TenantID     string `json:"tenantId"`
	TableID      uint   `json:"tableId"`
	IncludeImage bool   `json:"includeImage,omitempty"`
}

func (r *GenerateQRRequest) Validate() error {
	var f fieldErrors
	f.tenant(r.TenantID)
	f.id("tableId", r.TableID)
	return f.err()
}

// QRSelection picks tables by floor or by explicit ids. An empty selection
// means every active table of the tenant.
type QRSelection struct {
	TenantID     string `json:"tenantId"`
	FloorID      *uint  `json:"floorId,omitempty"`
	TableIDs     []uint `json:"tableIds,omitempty"`
	IncludeImage bool   `json:"includeImage,omitempty"`
}

const maxBulkTables = 500

func (r *QRSelection) Validate() error {
	var f fieldErrors
	f.tenant(r.TenantID)
	if r.FloorID != nil {
		f.id("floorId", *r.FloorID)
		f.check(len(r.TableIDs) == 0, "tableIds", "cannot be combined with floorId")
	}
	f.check(len(r.TableIDs) <= maxBulkTables, "tableIds", "must contain at most %d ids", maxBulkTables)
	for _, id := range r.TableIDs {
		if id == 0 {
			f.add("tableIds", "must not contain 0")
			break
		}
	}
	return f.err()
}

type ValidateScanRequest struct {
	Token string `json:"token"`
}

func (r *ValidateScanRequest) Validate() error {
	var f fieldErrors
	f.check(r.Token != "", "token", "is required")
	return f.err()
}

type QRCode struct {
	TenantID     string    `json:"tenantId"`
	TableID      uint      `json:"tableId"`
	TableName    string    `json:"tableName"`
	FloorID      *uint     `json:"floorId,omitempty"`
	TokenVersion uint      `json:"tokenVersion"`
	Token        string    `json:"token"`
	ScanURL      string    `json:"scanUrl"`
	GeneratedAt  time.Time `json:"generatedAt"`
	Image        []byte    `json:"image,omitempty"`
}

type BulkFailure struct {
	TableID uint   `json:"tableId"`
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type BulkQRResult struct {
	Succeeded int           `json:"succeeded"`
	Failed    int           `json:"failed"`
	FailedIDs []uint        `json:"failedIds"`
	Failures  []BulkFailure `json:"failures,omitempty"`
	Results   []QRCode      `json:"results"`
}

// Scan states and rejection reasons.
const (
	ScanReceived       = "Received"
	ScanDecoded        = "Decoded"
	ScanVersionChecked = "VersionChecked"
	ScanAccepted       = "Accepted"
	ScanRejected       = "Rejected"

	ReasonInvalidToken     = "InvalidToken"
	ReasonTableUnavailable = "TableUnavailable"
	ReasonStaleVersion     = "StaleOrInvalidVersion"
)

type ScanResult struct {
	State        string   `json:"state"`
	Reason       string   `json:"reason,omitempty"`
	TenantID     string   `json:"tenantId,omitempty"`
	TableID      uint     `json:"tableId,omitempty"`
	TableName    string   `json:"tableName,omitempty"`
	RedirectPath string   `json:"redirectPath,omitempty"`
	Trail        []string `json:"trail"`
}

func (r ScanResult) Accepted() bool {
	return r.State == ScanAccepted
}

// Err maps a rejected scan to the typed error surfaced to clients.
func (r ScanResult) Err() *utils.AppError {
	switch r.Reason {
	case ReasonInvalidToken:
		return utils.NewAppError(utils.CodeInvalidToken, "this QR code is not valid", 0, nil)
	case ReasonStaleVersion:
		return utils.NewAppError(utils.CodeStaleOrInvalidVersion, "this QR code has been replaced, please scan the code on your table", 0, nil)
	case ReasonTableUnavailable:
		return utils.NewAppError(utils.CodeTableUnavailable, "this table is not available", 0, nil)
	}
	return utils.Internal(fmt.Errorf("unexpected scan result %s/%s", r.State, r.Reason))
}
