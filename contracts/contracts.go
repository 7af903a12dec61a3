// Package contracts holds the request and response types carried by the
// internal commands. Every request type validates itself before it reaches
// business logic.
package contracts

import (
	"fmt"
	"net/mail"
	"strings"
	"unicode/utf8"

	"github.com/yeremiapane/restaurant-platform/utils"
)

// Command names.
const (
	CmdTablesCreate     = "tables:create"
	CmdTablesGet        = "tables:get"
	CmdTablesList       = "tables:list"
	CmdTablesUpdate     = "tables:update"
	CmdTablesSoftDelete = "tables:soft-delete"
	CmdTablesDelete     = "tables:delete"

	CmdFloorsCreate     = "floors:create"
	CmdFloorsGet        = "floors:get"
	CmdFloorsList       = "floors:list"
	CmdFloorsUpdate     = "floors:update"
	CmdFloorsSoftDelete = "floors:soft-delete"
	CmdFloorsDelete     = "floors:delete"

	CmdQRGenerate       = "qr:generate"
	CmdQRRegenerate     = "qr:regenerate"
	CmdQRCurrent        = "qr:current"
	CmdQRList           = "qr:list"
	CmdQRBulkRegenerate = "qr:bulk-regenerate"
	CmdQRValidateScan   = "qr:validate-scan"

	CmdAuthRegister      = "auth:register"
	CmdUsersCreate       = "users:create"
	CmdAuthLogin         = "auth:login"
	CmdAuthValidateToken = "auth:validate-token"
	CmdAuthRefresh       = "auth:refresh"
	CmdAuthLogout        = "auth:logout"
	CmdProfileGet        = "profile:get"
	CmdProfileUpdate     = "profile:update"

	CmdCategoriesCreate = "categories:create"
	CmdCategoriesList   = "categories:list"
	CmdCategoriesUpdate = "categories:update"
	CmdCategoriesDelete = "categories:delete"
	CmdMenusCreate      = "menus:create"
	CmdMenusList        = "menus:list"
	CmdMenusUpdate      = "menus:update"
	CmdMenusDelete      = "menus:delete"
	CmdMenusPublic      = "menus:public"
)

// Validator is implemented by every request type.
type Validator interface {
	Validate() error
}

const (
	maxTenantIDLen = 64
	maxNameLen     = 100
	maxTableSeats  = 100
)

type fieldErrors []utils.FieldError

func (f *fieldErrors) add(field, format string, args ...interface{}) {
	*f = append(*f, utils.FieldError{Field: field, Message: fmt.Sprintf(format, args...)})
}

func (f *fieldErrors) check(ok bool, field, format string, args ...interface{}) {
	if !ok {
		f.add(field, format, args...)
	}
}

func (f fieldErrors) err() error {
	if len(f) == 0 {
		return nil
	}
	return utils.Validation(f...)
}

func (f *fieldErrors) tenant(tenantID string) {
	switch {
	case tenantID == "":
		f.add("tenantId", "is required")
	case len(tenantID) > maxTenantIDLen:
		f.add("tenantId", "must be at most %d characters", maxTenantIDLen)
	case strings.ContainsAny(tenantID, "| \t\r\n"):
		f.add("tenantId", "contains invalid characters")
	}
}

func (f *fieldErrors) id(field string, id uint) {
	f.check(id > 0, field, "is required")
}

func (f *fieldErrors) name(field, name string) {
	trimmed := strings.TrimSpace(name)
	switch {
	case trimmed == "":
		f.add(field, "is required")
	case utf8.RuneCountInString(trimmed) > maxNameLen:
		f.add(field, "must be at most %d characters", maxNameLen)
	}
}

func (f *fieldErrors) password(field, password string) {
	f.check(len(password) >= minPasswordLen, field, "must be at least %d characters", minPasswordLen)
	f.check(len(password) <= 72, field, "must be at most 72 bytes")
}

func (f *fieldErrors) email(field, email string) {
	if email == "" {
		f.add(field, "is required")
		return
	}
	if _, err := mail.ParseAddress(email); err != nil {
		f.add(field, "must be a valid email address")
	}
}

// TenantScope is the minimal payload of tenant-wide list commands.
type TenantScope struct {
	TenantID string `json:"tenantId"`
}

func (r *TenantScope) Validate() error {
	var f fieldErrors
	f.tenant(r.TenantID)
	return f.err()
}

type DeleteResult struct {
	ID uint `json:"id"`
}
