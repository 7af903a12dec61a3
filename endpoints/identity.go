package endpoints

import (
	"context"
	"encoding/json"

	"github.com/yeremiapane/restaurant-platform/contracts"
	"github.com/yeremiapane/restaurant-platform/rpc"
	"github.com/yeremiapane/restaurant-platform/services"
)

func RegisterIdentityEndpoints(r *rpc.Router, identity *services.IdentityService) {
	r.Handle(contracts.CmdAuthRegister, func(ctx context.Context, p json.RawMessage) (interface{}, error) {
		var req contracts.RegisterRequest
		if err := rpc.Bind(p, &req); err != nil {
			return nil, err
		}
		return identity.Register(ctx, req)
	})
	r.Handle(contracts.CmdUsersCreate, func(ctx context.Context, p json.RawMessage) (interface{}, error) {
		var req contracts.CreateUserRequest
		if err := rpc.Bind(p, &req); err != nil {
			return nil, err
		}
		return identity.CreateUser(ctx, req)
	})
	r.Handle(contracts.CmdAuthLogin, func(ctx context.Context, p json.RawMessage) (interface{}, error) {
		var req contracts.LoginRequest
		if err := rpc.Bind(p, &req); err != nil {
			return nil, err
		}
		return identity.Login(ctx, req)
	})
	r.Handle(contracts.CmdAuthValidateToken, func(ctx context.Context, p json.RawMessage) (interface{}, error) {
		var req contracts.ValidateTokenRequest
		if err := rpc.Bind(p, &req); err != nil {
			return nil, err
		}
		return identity.ValidateToken(ctx, req)
	})
	r.Handle(contracts.CmdAuthRefresh, func(ctx context.Context, p json.RawMessage) (interface{}, error) {
		var req contracts.RefreshRequest
		if err := rpc.Bind(p, &req); err != nil {
			return nil, err
		}
		return identity.Refresh(ctx, req)
	})
	r.Handle(contracts.CmdAuthLogout, func(ctx context.Context, p json.RawMessage) (interface{}, error) {
		var req contracts.RefreshRequest
		if err := rpc.Bind(p, &req); err != nil {
			return nil, err
		}
		return nil, identity.Logout(ctx, req)
	})
	r.Handle(contracts.CmdProfileGet, func(ctx context.Context, p json.RawMessage) (interface{}, error) {
		var req contracts.ProfileRequest
		if err := rpc.Bind(p, &req); err != nil {
			return nil, err
		}
		return identity.GetProfile(ctx, req)
	})
	r.Handle(contracts.CmdProfileUpdate, func(ctx context.Context, p json.RawMessage) (interface{}, error) {
		var req contracts.UpdateProfileRequest
		if err := rpc.Bind(p, &req); err != nil {
			return nil, err
		}
		return identity.UpdateProfile(ctx, req)
	})
}
