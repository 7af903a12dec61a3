package endpoints

import (
	"context"
	"encoding/json"

	"github.com/yeremiapane/restaurant-platform/contracts"
	"github.com/yeremiapane/restaurant-platform/rpc"
	"github.com/yeremiapane/restaurant-platform/services"
)

func RegisterCatalogEndpoints(r *rpc.Router, catalog *services.CatalogService) {
	r.Handle(contracts.CmdCategoriesCreate, func(ctx context.Context, p json.RawMessage) (interface{}, error) {
		var req contracts.CreateCategoryRequest
		if err := rpc.Bind(p, &req); err != nil {
			return nil, err
		}
		return catalog.CreateCategory(ctx, req)
	})
	r.Handle(contracts.CmdCategoriesList, func(ctx context.Context, p json.RawMessage) (interface{}, error) {
		var req contracts.TenantScope
		if err := rpc.Bind(p, &req); err != nil {
			return nil, err
		}
		return catalog.ListCategories(ctx, req.TenantID)
	})
	r.Handle(contracts.CmdCategoriesUpdate, func(ctx context.Context, p json.RawMessage) (interface{}, error) {
		var req contracts.UpdateCategoryRequest
		if err := rpc.Bind(p, &req); err != nil {
			return nil, err
		}
		return catalog.UpdateCategory(ctx, req)
	})
	r.Handle(contracts.CmdCategoriesDelete, func(ctx context.Context, p json.RawMessage) (interface{}, error) {
		var req contracts.CategoryRef
		if err := rpc.Bind(p, &req); err != nil {
			return nil, err
		}
		if err := catalog.DeleteCategory(ctx, req.TenantID, req.CategoryID); err != nil {
			return nil, err
		}
		return contracts.DeleteResult{ID: req.CategoryID}, nil
	})

	r.Handle(contracts.CmdMenusCreate, func(ctx context.Context, p json.RawMessage) (interface{}, error) {
		var req contracts.CreateMenuRequest
		if err := rpc.Bind(p, &req); err != nil {
			return nil, err
		}
		return catalog.CreateMenu(ctx, req)
	})
	r.Handle(contracts.CmdMenusList, func(ctx context.Context, p json.RawMessage) (interface{}, error) {
		var req contracts.ListMenusRequest
		if err := rpc.Bind(p, &req); err != nil {
			return nil, err
		}
		return catalog.ListMenus(ctx, req)
	})
	r.Handle(contracts.CmdMenusUpdate, func(ctx context.Context, p json.RawMessage) (interface{}, error) {
		var req contracts.UpdateMenuRequest
		if err := rpc.Bind(p, &req); err != nil {
			return nil, err
		}
		return catalog.UpdateMenu(ctx, req)
	})
	r.Handle(contracts.CmdMenusDelete, func(ctx context.Context, p json.RawMessage) (interface{}, error) {
		var req contracts.MenuRef
		if err := rpc.Bind(p, &req); err != nil {
			return nil, err
		}
		if err := catalog.DeleteMenu(ctx, req.TenantID, req.MenuID); err != nil {
			return nil, err
		}
		return contracts.DeleteResult{ID: req.MenuID}, nil
	})
	r.Handle(contracts.CmdMenusPublic, func(ctx context.Context, p json.RawMessage) (interface{}, error) {
		var req contracts.TenantScope
		if err := rpc.Bind(p, &req); err != nil {
			return nil, err
		}
		return catalog.PublicMenu(ctx, req.TenantID)
	})
}
