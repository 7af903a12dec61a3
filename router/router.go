package router

import (
	"github.com/gin-gonic/gin"
	"github.com/yeremiapane/restaurant-platform/controllers"
	"github.com/yeremiapane/restaurant-platform/kds"
	"github.com/yeremiapane/restaurant-platform/middlewares"
	"github.com/yeremiapane/restaurant-platform/models"
	"github.com/yeremiapane/restaurant-platform/qrexport"
	"github.com/yeremiapane/restaurant-platform/rpc"
)

// Gateway is everything the public HTTP surface depends on.
type Gateway struct {
	Identity rpc.Client
	Tables   rpc.Client
	Catalog  rpc.Client

	Hub      *kds.Hub
	Renderer *qrexport.Renderer
	Health   *Health

	Limiter       *middlewares.RateLimiter
	StrictLimiter *middlewares.RateLimiter

	CORSOrigins  []string
	Release      bool
	ScanErrorURL string
}

func base(health *Health) *gin.Engine {
	r := gin.New()
	r.Use(middlewares.Recovery())
	r.Use(middlewares.LoggerMiddleware())
	r.Use(middlewares.SecurityHeaders())
	health.Register(r)
	return r
}

func SetupGatewayRouter(g Gateway) *gin.Engine {
	r := base(g.Health)
	r.Use(middlewares.CORSMiddlewares(g.CORSOrigins))
	if g.Limiter != nil {
		r.Use(g.Limiter.RateLimit())
	}

	// Inisialisasi controller
	userCtrl := controllers.NewUserController(g.Identity)
	tableCtrl := controllers.NewTableController(g.Tables, g.Hub)
	floorCtrl := controllers.NewFloorController(g.Tables, g.Hub)
	qrCtrl := controllers.NewQRController(g.Tables, g.Renderer, g.Hub)
	scanCtrl := controllers.NewScanController(g.Tables, g.Release, g.ScanErrorURL)
	categoryCtrl := controllers.NewMenuCategoryController(g.Catalog)
	menuCtrl := controllers.NewMenuController(g.Catalog)
	eventsCtrl := controllers.NewEventsController(g.Hub, g.CORSOrigins)

	// ----------------------------------------------------------------
	//                      PUBLIC ROUTES
	// ----------------------------------------------------------------
	// Rate limiter ketat untuk login/register
	public := r.Group("/auth")
	if g.StrictLimiter != nil {
		public.Use(g.StrictLimiter.RateLimit())
	}
	{
		public.POST("/register", userCtrl.Register)
		public.POST("/login", userCtrl.Login)
		public.POST("/refresh", userCtrl.Refresh)
		public.POST("/logout", userCtrl.Logout)
	}

	// Scan QR
	r.GET("/qr/scan/:token", scanCtrl.Scan)
	r.GET("/qr/scan", scanCtrl.Scan)

	r.GET("/public/tenants/:tenant_id/menu", menuCtrl.PublicMenu)

	// ----------------------------------------------------------------
	//                      AUTHENTICATED ROUTES
	// ----------------------------------------------------------------
	auth := r.Group("/admin")
	auth.Use(middlewares.AuthRelay(g.Identity))

	auth.GET("/profile", userCtrl.GetProfile)
	auth.PATCH("/profile", userCtrl.UpdateProfile)

	owners := auth.Group("/users")
	owners.Use(middlewares.RequireRoles(models.RoleOwner))
	owners.POST("", userCtrl.CreateUser)

	auth.GET("/tables", tableCtrl.ListTables)
	auth.GET("/tables/:table_id", tableCtrl.GetTable)
	auth.GET("/tables/:table_id/qr", qrCtrl.Current)
	auth.GET("/tables/:table_id/qr/download", qrCtrl.Download)
	auth.GET("/floors", floorCtrl.ListFloors)
	auth.GET("/floors/:floor_id", floorCtrl.GetFloor)
	auth.GET("/qr/export", qrCtrl.Export)
	auth.GET("/categories", categoryCtrl.GetAllCategories)
	auth.GET("/menus", menuCtrl.GetAllMenus)

	// Write access: owner/manager only
	manage := auth.Group("")
	manage.Use(middlewares.RequireRoles(models.RoleOwner, models.RoleManager))
	{
		manage.POST("/tables", tableCtrl.CreateTable)
		manage.PATCH("/tables/:table_id", tableCtrl.UpdateTable)
		manage.POST("/tables/:table_id/deactivate", tableCtrl.DeactivateTable)
		manage.DELETE("/tables/:table_id", tableCtrl.DeleteTable)

		manage.POST("/floors", floorCtrl.CreateFloor)
		manage.PATCH("/floors/:floor_id", floorCtrl.UpdateFloor)
		manage.POST("/floors/:floor_id/deactivate", floorCtrl.DeactivateFloor)
		manage.DELETE("/floors/:floor_id", floorCtrl.DeleteFloor)

		manage.POST("/tables/:table_id/qr", qrCtrl.Generate)
		manage.POST("/tables/:table_id/qr/regenerate", qrCtrl.Regenerate)
		manage.POST("/qr/bulk-regenerate", qrCtrl.BulkRegenerate)

		manage.POST("/categories", categoryCtrl.CreateCategory)
		manage.PATCH("/categories/:category_id", categoryCtrl.UpdateCategory)
		manage.DELETE("/categories/:category_id", categoryCtrl.DeleteCategory)

		manage.POST("/menus", menuCtrl.CreateMenu)
		manage.PATCH("/menus/:menu_id", menuCtrl.UpdateMenu)
		manage.DELETE("/menus/:menu_id", menuCtrl.DeleteMenu)
	}

	// WebSocket: browsers cannot set headers on the upgrade, so the token rides in the query
	ws := r.Group("/ws")
	ws.Use(middlewares.WebSocketAuthRelay(g.Identity))
	{
		ws.GET("/events", eventsCtrl.Events)
	}

	return r
}

// SetupServiceRouter serves one backend service's commands over HTTP.
func SetupServiceRouter(commands *rpc.Router, health *Health) *gin.Engine {
	r := base(health)
	commands.Mount(r)
	return r
}
