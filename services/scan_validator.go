package services

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/yeremiapane/restaurant-platform/contracts"
	"github.com/yeremiapane/restaurant-platform/models"
	"github.com/yeremiapane/restaurant-platform/qrtoken"
	"github.com/yeremiapane/restaurant-platform/utils"
)

// TableLookup is the read side of the table registry the validator needs.
type TableLookup interface {
	Get(ctx context.Context, tenantID string, tableID uint) (*models.Table, error)
}

type TokenDecoder interface {
	Decode(token string) (qrtoken.Claims, error)
}

// ScanValidator turns a scanned token into an accepted table reference or a
// rejection. It never writes.
//
//	Received -> Decoded -> VersionChecked -> Accepted
//	    |           |             |
//	    +-----------+-------------+--------> Rejected
type ScanValidator struct {
	Tables         TableLookup
	Codec          TokenDecoder
	CustomerAppURL string
}

func NewScanValidator(tables TableLookup, codec TokenDecoder, customerAppURL string) *ScanValidator {
	return &ScanValidator{Tables: tables, Codec: codec, CustomerAppURL: strings.TrimRight(customerAppURL, "/")}
}

// Validate returns a Rejected result for bad tokens and unusable tables; the
// error is reserved for infrastructure failures (database down, timeouts).
func (sv *ScanValidator) Validate(ctx context.Context, token string) (contracts.ScanResult, error) {
	result := contracts.ScanResult{State: contracts.ScanReceived, Trail: []string{contracts.ScanReceived}}

	claims, err := sv.Codec.Decode(token)
	if err != nil {
		return reject(result, contracts.ReasonInvalidToken), nil
	}
	result = advance(result, contracts.ScanDecoded)
	result.TenantID = claims.TenantID
	result.TableID = claims.TableID

	table, err := sv.Tables.Get(ctx, claims.TenantID, claims.TableID)
	if errors.Is(err, utils.ErrNotFound) {
		return reject(result, contracts.ReasonTableUnavailable), nil
	}
	if err != nil {
		return contracts.ScanResult{}, err
	}
	if !table.IsActive {
		return reject(result, contracts.ReasonTableUnavailable), nil
	}

	result = advance(result, contracts.ScanVersionChecked)
	// a newer version than the table has can only come from a replayed or
	// fabricated token and is rejected the same way as an older one
	if claims.TokenVersion != table.TokenVersion {
		return reject(result, contracts.ReasonStaleVersion), nil
	}

	result = advance(result, contracts.ScanAccepted)
	result.TableName = table.Name
	result.RedirectPath = sv.redirectFor(claims.TenantID, claims.TableID)
	return result, nil
}

func (sv *ScanValidator) redirectFor(tenantID string, tableID uint) string {
	q := url.Values{}
	q.Set("tenantId", tenantID)
	q.Set("tableId", fmt.Sprint(tableID))
	return sv.CustomerAppURL + "/menu?" + q.Encode()
}

func advance(r contracts.ScanResult, state string) contracts.ScanResult {
	r.State = state
	r.Trail = append(r.Trail, state)
	return r
}

func reject(r contracts.ScanResult, reason string) contracts.ScanResult {
	r = advance(r, contracts.ScanRejected)
	r.Reason = reason
	return r
}
