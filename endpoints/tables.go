// Package endpoints binds each service's commands to its business logic.
// Every handler decodes and validates its payload before calling a service.
package endpoints

import (
	"context"
	"encoding/json"

	"github.com/yeremiapane/restaurant-platform/contracts"
	"github.com/yeremiapane/restaurant-platform/rpc"
	"github.com/yeremiapane/restaurant-platform/services"
)

// RegisterTableEndpoints serves tables:*, floors:* and qr:* commands.
func RegisterTableEndpoints(r *rpc.Router, tables *services.TableRegistry, floors *services.FloorRegistry, qr *services.QRService) {
	r.Handle(contracts.CmdTablesCreate, func(ctx context.Context, p json.RawMessage) (interface{}, error) {
		var req contracts.CreateTableRequest
		if err := rpc.Bind(p, &req); err != nil {
			return nil, err
		}
		return tables.Create(ctx, req)
	})
	r.Handle(contracts.CmdTablesGet, func(ctx context.Context, p json.RawMessage) (interface{}, error) {
		var req contracts.TableRef
		if err := rpc.Bind(p, &req); err != nil {
			return nil, err
		}
		return tables.Get(ctx, req.TenantID, req.TableID)
	})
	r.Handle(contracts.CmdTablesList, func(ctx context.Context, p json.RawMessage) (interface{}, error) {
		var req contracts.ListTablesRequest
		if err := rpc.Bind(p, &req); err != nil {
			return nil, err
		}
		return tables.List(ctx, req)
	})
	r.Handle(contracts.CmdTablesUpdate, func(ctx context.Context, p json.RawMessage) (interface{}, error) {
		var req contracts.UpdateTableRequest
		if err := rpc.Bind(p, &req); err != nil {
			return nil, err
		}
		return tables.Update(ctx, req)
	})
	r.Handle(contracts.CmdTablesSoftDelete, func(ctx context.Context, p json.RawMessage) (interface{}, error) {
		var req contracts.TableRef
		if err := rpc.Bind(p, &req); err != nil {
			return nil, err
		}
		return tables.SoftDelete(ctx, req.TenantID, req.TableID)
	})
	r.Handle(contracts.CmdTablesDelete, func(ctx context.Context, p json.RawMessage) (interface{}, error) {
		var req contracts.TableRef
		if err := rpc.Bind(p, &req); err != nil {
			return nil, err
		}
		if err := tables.PermanentDelete(ctx, req.TenantID, req.TableID); err != nil {
			return nil, err
		}
		return contracts.DeleteResult{ID: req.TableID}, nil
	})

	r.Handle(contracts.CmdFloorsCreate, func(ctx context.Context, p json.RawMessage) (interface{}, error) {
		var req contracts.CreateFloorRequest
		if err := rpc.Bind(p, &req); err != nil {
			return nil, err
		}
		return floors.Create(ctx, req)
	})
	r.Handle(contracts.CmdFloorsGet, func(ctx context.Context, p json.RawMessage) (interface{}, error) {
		var req contracts.FloorRef
		if err := rpc.Bind(p, &req); err != nil {
			return nil, err
		}
		return floors.Get(ctx, req.TenantID, req.FloorID)
	})
	r.Handle(contracts.CmdFloorsList, func(ctx context.Context, p json.RawMessage) (interface{}, error) {
		var req contracts.ListFloorsRequest
		if err := rpc.Bind(p, &req); err != nil {
			return nil, err
		}
		return floors.List(ctx, req)
	})
	r.Handle(contracts.CmdFloorsUpdate, func(ctx context.Context, p json.RawMessage) (interface{}, error) {
		var req contracts.UpdateFloorRequest
		if err := rpc.Bind(p, &req); err != nil {
			return nil, err
		}
		return floors.Update(ctx, req)
	})
	r.Handle(contracts.CmdFloorsSoftDelete, func(ctx context.Context, p json.RawMessage) (interface{}, error) {
		var req contracts.FloorRef
		if err := rpc.Bind(p, &req); err != nil {
			return nil, err
		}
		return floors.SoftDelete(ctx, req.TenantID, req.FloorID)
	})
	r.Handle(contracts.CmdFloorsDelete, func(ctx context.Context, p json.RawMessage) (interface{}, error) {
		var req contracts.FloorRef
		if err := rpc.Bind(p, &req); err != nil {
			return nil, err
		}
		if err := floors.PermanentDelete(ctx, req.TenantID, req.FloorID); err != nil {
			return nil, err
		}
		return contracts.DeleteResult{ID: req.FloorID}, nil
	})

	r.Handle(contracts.CmdQRGenerate, func(ctx context.Context, p json.RawMessage) (interface{}, error) {
		var req contracts.GenerateQRRequest
		if err := rpc.Bind(p, &req); err != nil {
			return nil, err
		}
		return qr.Generate(ctx, req)
	})
	r.Handle(contracts.CmdQRRegenerate, func(ctx context.Context, p json.RawMessage) (interface{}, error) {
		var req contracts.GenerateQRRequest
		if err := rpc.Bind(p, &req); err != nil {
			return nil, err
		}
		return qr.Regenerate(ctx, req)
	})
	r.Handle(contracts.CmdQRCurrent, func(ctx context.Context, p json.RawMessage) (interface{}, error) {
		var req contracts.GenerateQRRequest
		if err := rpc.Bind(p, &req); err != nil {
			return nil, err
		}
		return qr.Current(ctx, req)
	})
	r.Handle(contracts.CmdQRList, func(ctx context.Context, p json.RawMessage) (interface{}, error) {
		var req contracts.QRSelection
		if err := rpc.Bind(p, &req); err != nil {
			return nil, err
		}
		return qr.ListCurrent(ctx, req)
	})
	r.Handle(contracts.CmdQRBulkRegenerate, func(ctx context.Context, p json.RawMessage) (interface{}, error) {
		var req contracts.QRSelection
		if err := rpc.Bind(p, &req); err != nil {
			return nil, err
		}
		return qr.BulkRegenerate(ctx, req)
	})
	r.Handle(contracts.CmdQRValidateScan, func(ctx context.Context, p json.RawMessage) (interface{}, error) {
		var req contracts.ValidateScanRequest
		if err := rpc.Bind(p, &req); err != nil {
			return nil, err
		}
		return qr.ValidateScan(ctx, req.Token)
	})
}
