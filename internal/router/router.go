package router

import (
	"fmt"
	"sort"
	"strings"

	"github.com/canting-next/internal/authz"
	"github.com/canting-next/internal/cache"
	"github.com/canting-next/internal/config"
	adminhandlers "github.com/canting-next/internal/http/handlers/admin"
	publichandlers "github.com/canting-next/internal/http/handlers/public"
	"github.com/canting-next/internal/http/response"
	"github.com/canting-next/internal/logger"
	"github.com/canting-next/internal/provider"

	"github.com/gin-gonic/gin"
)

// SetupRouter 初始化路由
func SetupRouter(cfg *config.Config, c *provider.Container) *gin.Engine {
	log := logger.L
	if log == nil {
		log = logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	}
	r := gin.New()

	// 初始化 Handler（按前台/后台分组）
	publicHandler := publichandlers.New(c)
	adminHandler := adminhandlers.New(c)
	redisPrefix := strings.TrimSpace(cfg.Redis.Prefix)
	if redisPrefix == "" {
		redisPrefix = "ct"
	}
	redisClient := cache.Client()
	loginRule := RateLimitRule{
		Prefix:        fmt.Sprintf("%s:rate:login", redisPrefix),
		WindowSeconds: cfg.Security.LoginRateLimit.WindowSeconds,
		MaxRequests:   cfg.Security.LoginRateLimit.MaxAttempts,
		Message:       "登录尝试过于频繁，请稍后重试",
	}
	adminLoginRule := RateLimitRule{
		Prefix:        fmt.Sprintf("%s:rate:admin_login", redisPrefix),
		WindowSeconds: cfg.Security.LoginRateLimit.WindowSeconds,
		MaxRequests:   cfg.Security.LoginRateLimit.MaxAttempts,
		Message:       "登录尝试过于频繁，请稍后重试",
	}

	// 中间件
	r.Use(gin.Recovery())
	r.Use(RequestIDMiddleware())
	r.Use(LoggerMiddleware(log))
	r.Use(CORSMiddleware(cfg.CORS))

	// API 路由组
	apiV1 := r.Group("/api/v1")
	{
		// 公开接口
		public := apiV1.Group("/public")
		{
			public.GET("/menu/categories", publicHandler.GetMenuCategories)
			public.GET("/menu/items", publicHandler.GetMenuItems)
			public.GET("/tables", publicHandler.GetTables)
			public.GET("/reviews/adopted", publicHandler.ListAdoptedReviews)
			public.GET("/points/levels", publicHandler.ListPointLevels)
		}

		// 用户认证接口
		auth := apiV1.Group("/auth")
		{
			auth.POST("/register", publicHandler.Register)
			auth.POST("/login", RateLimitMiddleware(redisClient, loginRule, KeyByIPAndJSONField("phone")), publicHandler.Login)
		}

		// 用户接口（需鉴权）
		user := apiV1.Group("")
		user.Use(UserJWTAuthMiddleware(cfg.UserJWT.SecretKey, c.UserRepo))
		{
			user.GET("/me", publicHandler.Profile)

			user.POST("/reservations", publicHandler.CreateReservation)
			user.GET("/reservations", publicHandler.ListMyReservations)
			user.POST("/reservations/:id/deposit", publicHandler.PayReservationDeposit)
			user.POST("/reservations/:id/cancel", publicHandler.CancelMyReservation)

			user.POST("/orders", publicHandler.CreateOrder)
			user.GET("/orders", publicHandler.ListMyOrders)
			user.GET("/orders/:id", publicHandler.GetMyOrder)
			user.POST("/orders/:id/pay", publicHandler.PayOrder)

			user.POST("/reviews", publicHandler.CreateReview)
			user.GET("/reviews", publicHandler.ListMyReviews)

			user.POST("/coupons/redeem", publicHandler.RedeemCoupon)
			user.GET("/coupons", publicHandler.ListMyCoupons)
			user.POST("/coupons/:id/use", publicHandler.UseCoupon)

			user.GET("/points/account", publicHandler.GetMyPointAccount)
			user.GET("/points/transactions", publicHandler.ListMyPointTransactions)
		}

		// 管理员接口
		admin := apiV1.Group("/admin")
		{
			// 登录接口（无需鉴权）
			admin.POST("/login", RateLimitMiddleware(redisClient, adminLoginRule, KeyByIP), adminHandler.Login)

			// 需要鉴权的接口
			authorized := admin.Use(JWTAuthMiddleware(cfg.JWT.SecretKey, c.AdminRepo), AdminRBACMiddleware(c.AuthzService))
			{
				authorized.GET("/me", adminHandler.Profile)

				// 菜单管理
				authorized.GET("/menu/categories", adminHandler.ListMenuCategories)
				authorized.POST("/menu/categories", adminHandler.CreateMenuCategory)
				authorized.PUT("/menu/categories/:id", adminHandler.UpdateMenuCategory)
				authorized.GET("/menu/items", adminHandler.ListMenuItems)
				authorized.POST("/menu/items", adminHandler.CreateMenuItem)
				authorized.PUT("/menu/items/:id", adminHandler.UpdateMenuItem)

				// 餐桌管理
				authorized.GET("/tables", adminHandler.ListTables)
				authorized.POST("/tables", adminHandler.CreateTable)
				authorized.PUT("/tables/:id", adminHandler.UpdateTable)
				authorized.PUT("/tables/:id/status", adminHandler.UpdateTableStatus)

				// 预订管理
				authorized.GET("/reservations", adminHandler.ListReservations)
				authorized.POST("/reservations/:id/confirm", adminHandler.ConfirmReservation)
				authorized.POST("/reservations/:id/seat", adminHandler.SeatReservation)
				authorized.POST("/reservations/:id/complete", adminHandler.CompleteReservation)
				authorized.POST("/reservations/:id/cancel", adminHandler.CancelReservation)
				authorized.POST("/reservations/:id/deposit-paid", adminHandler.MarkReservationDepositPaid)

				// 订单管理
				authorized.GET("/orders", adminHandler.ListOrders)
				authorized.GET("/orders/:id", adminHandler.GetOrder)
				authorized.POST("/orders/:id/paid", adminHandler.MarkOrderPaid)
				authorized.POST("/orders/:id/complete", adminHandler.CompleteOrder)
				authorized.POST("/orders/:id/cancel", adminHandler.CancelOrder)

				// 评价管理
				authorized.GET("/reviews", adminHandler.ListReviews)
				authorized.POST("/reviews/:id/approve", adminHandler.ApproveReview)
				authorized.POST("/reviews/:id/reject", adminHandler.RejectReview)
				authorized.POST("/reviews/:id/adopt", adminHandler.AdoptReview)

				// 优惠券记录
				authorized.GET("/coupons", adminHandler.ListCoupons)

				// 积分管理
				authorized.GET("/points/rules", adminHandler.ListPointRules)
				authorized.PUT("/points/rules", adminHandler.SavePointRule)
				authorized.GET("/points/levels", adminHandler.ListPointLevels)
				authorized.PUT("/points/levels", adminHandler.SavePointLevel)
				authorized.POST("/points/levels/resync", adminHandler.ResyncPointLevels)
				authorized.GET("/points/accounts", adminHandler.ListPointAccounts)
				authorized.GET("/points/accounts/:user_id", adminHandler.GetPointAccount)
				authorized.POST("/points/accounts/:user_id/adjust", adminHandler.AdjustPoints)
				authorized.GET("/points/transactions", adminHandler.ListPointTransactions)
				authorized.GET("/points/statistics", adminHandler.ListPointStatistics)
				authorized.POST("/points/statistics/recalculate", adminHandler.RecalculatePointStatistics)
				authorized.GET("/points/anomalies", adminHandler.ListPointAnomalies)

				// 用户管理
				authorized.GET("/users", adminHandler.ListUsers)
				authorized.GET("/users/:id", adminHandler.GetUser)

				// 权限管理
				authorized.GET("/roles", adminHandler.ListRoles)
				authorized.POST("/roles", adminHandler.CreateRole)
				authorized.DELETE("/roles/:role", adminHandler.DeleteRole)
				authorized.GET("/roles/:role/policies", adminHandler.GetRolePolicies)
				authorized.POST("/roles/:role/policies", adminHandler.GrantRolePolicy)
				authorized.DELETE("/roles/:role/policies", adminHandler.RevokeRolePolicy)
				authorized.GET("/admins/:id/roles", adminHandler.GetAdminRoles)
				authorized.PUT("/admins/:id/roles", adminHandler.SetAdminRoles)
				authorized.POST("/policies/reload", adminHandler.ReloadPolicies)
				authorized.GET("/permissions/catalog", func(ctx *gin.Context) {
					response.Success(ctx, buildAdminPermissionCatalog(r))
				})

				// 审计日志
				authorized.GET("/audit-logs", adminHandler.ListAuthzAuditLogs)

				// 设置管理
				authorized.GET("/settings", adminHandler.ListSettings)
				authorized.GET("/settings/:key", adminHandler.GetSetting)
				authorized.PUT("/settings/:key", adminHandler.SetSetting)
			}
		}
	}

	// 健康检查
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	return r
}

type adminPermissionCatalogItem struct {
	Module     string `json:"module"`
	Method     string `json:"method"`
	Object     string `json:"object"`
	Permission string `json:"permission"`
}

func buildAdminPermissionCatalog(engine *gin.Engine) []adminPermissionCatalogItem {
	if engine == nil {
		return []adminPermissionCatalogItem{}
	}

	routes := engine.Routes()
	seen := make(map[string]struct{}, len(routes))
	items := make([]adminPermissionCatalogItem, 0, len(routes))

	for _, item := range routes {
		method := strings.ToUpper(strings.TrimSpace(item.Method))
		if method == "" || method == "OPTIONS" || method == "HEAD" {
			continue
		}
		if !strings.HasPrefix(item.Path, "/api/v1/admin/") {
			continue
		}
		if item.Path == "/api/v1/admin/login" {
			continue
		}
		object := authz.NormalizeObject(item.Path)
		permission := method + ":" + object
		if _, exists := seen[permission]; exists {
			continue
		}
		seen[permission] = struct{}{}
		items = append(items, adminPermissionCatalogItem{
			Module:     deriveAdminPermissionModule(object),
			Method:     method,
			Object:     object,
			Permission: permission,
		})
	}

	sort.Slice(items, func(i, j int) bool {
		if items[i].Module == items[j].Module {
			if items[i].Object == items[j].Object {
				return items[i].Method < items[j].Method
			}
			return items[i].Object < items[j].Object
		}
		return items[i].Module < items[j].Module
	})

	return items
}

func deriveAdminPermissionModule(object string) string {
	normalized := strings.TrimPrefix(strings.TrimSpace(object), "/")
	if normalized == "" {
		return "system"
	}
	segments := strings.Split(normalized, "/")
	if len(segments) <= 1 {
		return segments[0]
	}
	if segments[0] != "admin" {
		return segments[0]
	}
	if segments[1] == "points" && len(segments) > 2 {
		return "points"
	}
	return segments[1]
}
