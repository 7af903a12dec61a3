package controllers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/yeremiapane/restaurant-platform/contracts"
	"github.com/yeremiapane/restaurant-platform/kds"
	"github.com/yeremiapane/restaurant-platform/models"
	"github.com/yeremiapane/restaurant-platform/rpc"
	"github.com/yeremiapane/restaurant-platform/utils"
)

type TableController struct {
	Tables rpc.Client
	Hub    *kds.Hub
}

func NewTableController(tables rpc.Client, hub *kds.Hub) *TableController {
	return &TableController{Tables: tables, Hub: hub}
}

// CreateTable -> menambahkan meja baru
func (tc *TableController) CreateTable(c *gin.Context) {
	var req contracts.CreateTableRequest
	if err := bindJSON(c, &req); err != nil {
		utils.RespondError(c, err)
		return
	}
	req.TenantID, _ = caller(c)

	var table models.Table
	if err := send(c.Request.Context(), tc.Tables, contracts.CmdTablesCreate, &req, &table); err != nil {
		utils.RespondError(c, err)
		return
	}

	tc.Hub.Broadcast(req.TenantID, kds.EventTableCreate, table)
	utils.RespondJSON(c, http.StatusCreated, "Table created successfully", table)
}

// ListTables -> ?floor_id=&include_inactive=true
func (tc *TableController) ListTables(c *gin.Context) {
	tenantID, _ := caller(c)
	req := contracts.ListTablesRequest{TenantID: tenantID}

	if raw := c.Query("floor_id"); raw != "" {
		floorID, err := parseID("floor_id", raw)
		if err != nil {
			utils.RespondError(c, err)
			return
		}
		req.FloorID = &floorID
	}
	if raw := c.Query("include_inactive"); raw != "" {
		include, err := strconv.ParseBool(raw)
		if err != nil {
			utils.RespondError(c, utils.Validation(utils.FieldError{Field: "include_inactive", Message: "must be true or false"}))
			return
		}
		req.IncludeInactive = include
	}

	var tables []models.Table
	if err := send(c.Request.Context(), tc.Tables, contracts.CmdTablesList, &req, &tables); err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "List of tables", tables)
}

func (tc *TableController) GetTable(c *gin.Context) {
	ref, err := tc.tableRef(c)
	if err != nil {
		utils.RespondError(c, err)
		return
	}

	var table models.Table
	if err := send(c.Request.Context(), tc.Tables, contracts.CmdTablesGet, &ref, &table); err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Table detail", table)
}

func (tc *TableController) UpdateTable(c *gin.Context) {
	ref, err := tc.tableRef(c)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	var req contracts.UpdateTableRequest
	if err := bindJSON(c, &req); err != nil {
		utils.RespondError(c, err)
		return
	}
	req.TenantID, req.TableID = ref.TenantID, ref.TableID

	var table models.Table
	if err := send(c.Request.Context(), tc.Tables, contracts.CmdTablesUpdate, &req, &table); err != nil {
		utils.RespondError(c, err)
		return
	}

	tc.Hub.Broadcast(ref.TenantID, kds.EventTableUpdate, table)
	utils.RespondJSON(c, http.StatusOK, "Table updated", table)
}

// DeactivateTable hides the table and invalidates its QR codes.
func (tc *TableController) DeactivateTable(c *gin.Context) {
	tc.remove(c, contracts.CmdTablesSoftDelete, "Table deactivated")
}

func (tc *TableController) DeleteTable(c *gin.Context) {
	tc.remove(c, contracts.CmdTablesDelete, "Table deleted")
}

func (tc *TableController) remove(c *gin.Context, pattern, message string) {
	ref, err := tc.tableRef(c)
	if err != nil {
		utils.RespondError(c, err)
		return
	}

	var result contracts.DeleteResult
	if err := send(c.Request.Context(), tc.Tables, pattern, &ref, &result); err != nil {
		utils.RespondError(c, err)
		return
	}

	tc.Hub.Broadcast(ref.TenantID, kds.EventTableDelete, result)
	utils.RespondJSON(c, http.StatusOK, message, result)
}

func (tc *TableController) tableRef(c *gin.Context) (contracts.TableRef, error) {
	tenantID, _ := caller(c)
	id, err := uintParam(c, "table_id")
	if err != nil {
		return contracts.TableRef{}, err
	}
	return contracts.TableRef{TenantID: tenantID, TableID: id}, nil
}

type FloorController struct {
	Tables rpc.Client
	Hub    *kds.Hub
}

func NewFloorController(tables rpc.Client, hub *kds.Hub) *FloorController {
	return &FloorController{Tables: tables, Hub: hub}
}

func (fc *FloorController) CreateFloor(c *gin.Context) {
	var req contracts.CreateFloorRequest
	if err := bindJSON(c, &req); err != nil {
		utils.RespondError(c, err)
		return
	}
	req.TenantID, _ = caller(c)

	var floor models.Floor
	if err := send(c.Request.Context(), fc.Tables, contracts.CmdFloorsCreate, &req, &floor); err != nil {
		utils.RespondError(c, err)
		return
	}

	fc.Hub.Broadcast(req.TenantID, kds.EventFloorUpdate, floor)
	utils.RespondJSON(c, http.StatusCreated, "Floor created successfully", floor)
}

func (fc *FloorController) ListFloors(c *gin.Context) {
	tenantID, _ := caller(c)
	req := contracts.ListFloorsRequest{TenantID: tenantID, IncludeInactive: c.Query("include_inactive") == "true"}

	var floors []models.Floor
	if err := send(c.Request.Context(), fc.Tables, contracts.CmdFloorsList, &req, &floors); err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "List of floors", floors)
}

func (fc *FloorController) GetFloor(c *gin.Context) {
	ref, err := fc.floorRef(c)
	if err != nil {
		utils.RespondError(c, err)
		return
	}

	var floor models.Floor
	if err := send(c.Request.Context(), fc.Tables, contracts.CmdFloorsGet, &ref, &floor); err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Floor detail", floor)
}

func (fc *FloorController) UpdateFloor(c *gin.Context) {
	ref, err := fc.floorRef(c)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	var req contracts.UpdateFloorRequest
	if err := bindJSON(c, &req); err != nil {
		utils.RespondError(c, err)
		return
	}
	req.TenantID, req.FloorID = ref.TenantID, ref.FloorID

	var floor models.Floor
	if err := send(c.Request.Context(), fc.Tables, contracts.CmdFloorsUpdate, &req, &floor); err != nil {
		utils.RespondError(c, err)
		return
	}

	fc.Hub.Broadcast(ref.TenantID, kds.EventFloorUpdate, floor)
	utils.RespondJSON(c, http.StatusOK, "Floor updated", floor)
}

func (fc *FloorController) DeactivateFloor(c *gin.Context) {
	fc.remove(c, contracts.CmdFloorsSoftDelete, "Floor deactivated")
}

// DeleteFloor removes the floor; its tables stay, detached.
func (fc *FloorController) DeleteFloor(c *gin.Context) {
	fc.remove(c, contracts.CmdFloorsDelete, "Floor deleted")
}

func (fc *FloorController) remove(c *gin.Context, pattern, message string) {
	ref, err := fc.floorRef(c)
	if err != nil {
		utils.RespondError(c, err)
		return
	}

	var result contracts.DeleteResult
	if err := send(c.Request.Context(), fc.Tables, pattern, &ref, &result); err != nil {
		utils.RespondError(c, err)
		return
	}

	fc.Hub.Broadcast(ref.TenantID, kds.EventFloorUpdate, result)
	utils.RespondJSON(c, http.StatusOK, message, result)
}

func (fc *FloorController) floorRef(c *gin.Context) (contracts.FloorRef, error) {
	tenantID, _ := caller(c)
	id, err := uintParam(c, "floor_id")
	if err != nil {
		return contracts.FloorRef{}, err
	}
	return contracts.FloorRef{TenantID: tenantID, FloorID: id}, nil
}
