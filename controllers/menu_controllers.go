package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yeremiapane/restaurant-platform/contracts"
	"github.com/yeremiapane/restaurant-platform/models"
	"github.com/yeremiapane/restaurant-platform/rpc"
	"github.com/yeremiapane/restaurant-platform/utils"
)

type MenuController struct {
	Catalog rpc.Client
}

func NewMenuController(catalog rpc.Client) *MenuController {
	return &MenuController{Catalog: catalog}
}

// GetAllMenus -> ?category_id=&available=true
func (mc *MenuController) GetAllMenus(c *gin.Context) {
	tenantID, _ := caller(c)
	req := contracts.ListMenusRequest{TenantID: tenantID, OnlyAvailable: c.Query("available") == "true"}
	if raw := c.Query("category_id"); raw != "" {
		categoryID, err := parseID("category_id", raw)
		if err != nil {
			utils.RespondError(c, err)
			return
		}
		req.CategoryID = &categoryID
	}

	var menus []models.Menu
	if err := send(c.Request.Context(), mc.Catalog, contracts.CmdMenusList, &req, &menus); err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "List of menus", menus)
}

// CreateMenu
func (mc *MenuController) CreateMenu(c *gin.Context) {
	var req contracts.CreateMenuRequest
	if err := bindJSON(c, &req); err != nil {
		utils.RespondError(c, err)
		return
	}
	req.TenantID, _ = caller(c)

	var menu models.Menu
	if err := send(c.Request.Context(), mc.Catalog, contracts.CmdMenusCreate, &req, &menu); err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusCreated, "Menu created", menu)
}

// UpdateMenu
func (mc *MenuController) UpdateMenu(c *gin.Context) {
	id, err := uintParam(c, "menu_id")
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	var req contracts.UpdateMenuRequest
	if err := bindJSON(c, &req); err != nil {
		utils.RespondError(c, err)
		return
	}
	req.TenantID, _ = caller(c)
	req.MenuID = id

	var menu models.Menu
	if err := send(c.Request.Context(), mc.Catalog, contracts.CmdMenusUpdate, &req, &menu); err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Menu updated", menu)
}

// DeleteMenu
func (mc *MenuController) DeleteMenu(c *gin.Context) {
	id, err := uintParam(c, "menu_id")
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	tenantID, _ := caller(c)
	req := contracts.MenuRef{TenantID: tenantID, MenuID: id}

	var result contracts.DeleteResult
	if err := send(c.Request.Context(), mc.Catalog, contracts.CmdMenusDelete, &req, &result); err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Menu deleted", result)
}

// PublicMenu is what a customer sees after scanning; the tenant comes from the path.
func (mc *MenuController) PublicMenu(c *gin.Context) {
	req := contracts.TenantScope{TenantID: c.Param("tenant_id")}

	var menu contracts.PublicMenu
	if err := send(c.Request.Context(), mc.Catalog, contracts.CmdMenusPublic, &req, &menu); err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Menu", menu)
}
