package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yeremiapane/restaurant-platform/contracts"
	"github.com/yeremiapane/restaurant-platform/models"
	"github.com/yeremiapane/restaurant-platform/rpc"
	"github.com/yeremiapane/restaurant-platform/utils"
)

type MenuCategoryController struct {
	Catalog rpc.Client
}

func NewMenuCategoryController(catalog rpc.Client) *MenuCategoryController {
	return &MenuCategoryController{Catalog: catalog}
}

// GetAllCategories
func (mcc *MenuCategoryController) GetAllCategories(c *gin.Context) {
	tenantID, _ := caller(c)
	req := contracts.TenantScope{TenantID: tenantID}

	var categories []models.MenuCategory
	if err := send(c.Request.Context(), mcc.Catalog, contracts.CmdCategoriesList, &req, &categories); err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "All menu categories", categories)
}

// CreateCategory
func (mcc *MenuCategoryController) CreateCategory(c *gin.Context) {
	var req contracts.CreateCategoryRequest
	if err := bindJSON(c, &req); err != nil {
		utils.RespondError(c, err)
		return
	}
	req.TenantID, _ = caller(c)

	var category models.MenuCategory
	if err := send(c.Request.Context(), mcc.Catalog, contracts.CmdCategoriesCreate, &req, &category); err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusCreated, "Category created", category)
}

// UpdateCategory
func (mcc *MenuCategoryController) UpdateCategory(c *gin.Context) {
	id, err := uintParam(c, "category_id")
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	var req contracts.UpdateCategoryRequest
	if err := bindJSON(c, &req); err != nil {
		utils.RespondError(c, err)
		return
	}
	req.TenantID, _ = caller(c)
	req.CategoryID = id

	var category models.MenuCategory
	if err := send(c.Request.Context(), mcc.Catalog, contracts.CmdCategoriesUpdate, &req, &category); err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Category updated", category)
}

// DeleteCategory fails with a conflict while menu items still use it.
func (mcc *MenuCategoryController) DeleteCategory(c *gin.Context) {
	id, err := uintParam(c, "category_id")
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	tenantID, _ := caller(c)
	req := contracts.CategoryRef{TenantID: tenantID, CategoryID: id}

	var result contracts.DeleteResult
	if err := send(c.Request.Context(), mcc.Catalog, contracts.CmdCategoriesDelete, &req, &result); err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Category deleted", result)
}
