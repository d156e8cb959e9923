package provider

import (
	"time"

	"github.com/canting-next/internal/authz"
	"github.com/canting-next/internal/cache"
	"github.com/canting-next/internal/config"
	"github.com/canting-next/internal/constants"
	"github.com/canting-next/internal/events"
	"github.com/canting-next/internal/logger"
	"github.com/canting-next/internal/models"
	"github.com/canting-next/internal/queue"
	"github.com/canting-next/internal/repository"
	"github.com/canting-next/internal/service"

	"github.com/shopspring/decimal"
)

// Container 依赖注入容器
type Container struct {
	Config      *config.Config
	QueueClient *queue.Client
	EventBus    *events.Bus

	// Repositories
	AdminRepo          repository.AdminRepository
	UserRepo           repository.UserRepository
	SettingRepo        repository.SettingRepository
	AuthzAuditLogRepo  repository.AuthzAuditLogRepository
	TableRepo          repository.TableRepository
	ReservationRepo    repository.ReservationRepository
	MenuRepo           repository.MenuRepository
	OrderRepo          repository.OrderRepository
	ReviewRepo         repository.ReviewRepository
	CouponRepo         repository.CouponRepository
	PointRepo          repository.PointRepository
	PointRuleRepo      repository.PointRuleRepository
	PointLevelRepo     repository.PointLevelRepository
	PointStatisticRepo repository.PointStatisticRepository

	// Services
	AuthzService          *authz.Service
	AuthService           *service.AuthService
	UserAuthService       *service.UserAuthService
	SettingService        *service.SettingService
	AuthzAuditService     *service.AuthzAuditService
	TableService          *service.TableService
	ReservationService    *service.ReservationService
	MenuService           *service.MenuService
	OrderService          *service.OrderService
	ReviewService         *service.ReviewService
	CouponService         *service.CouponService
	PointRuleService      *service.PointRuleService
	PointLevelService     *service.PointLevelService
	PointService          *service.PointService
	PointStatisticService *service.PointStatisticService
	AnomalyService        *service.AnomalyService
}

// NewContainer 初始化容器
func NewContainer(cfg *config.Config) *Container {
	if err := cache.InitRedis(&cfg.Redis); err != nil {
		logger.Warnw("provider_init_redis_failed", "error", err)
	}

	var queueClient *queue.Client
	if cfg.Queue.Enabled {
		qc, err := queue.NewClient(&cfg.Queue)
		if err != nil {
			logger.Errorw("provider_init_queue_client_failed", "error", err)
		} else {
			queueClient = qc
		}
	}

	c := &Container{
		Config:      cfg,
		QueueClient: queueClient,
		EventBus:    events.NewBus(),
	}

	// 1. 初始化 Repositories
	c.initRepositories()

	// 2. 初始化 Services
	c.initServices()

	// 3. 订阅领域事件
	c.registerEventHandlers()

	return c
}

func (c *Container) initRepositories() {
	db := models.DB
	c.AdminRepo = repository.NewAdminRepository(db)
	c.UserRepo = repository.NewUserRepository(db)
	c.SettingRepo = repository.NewSettingRepository(db)
	c.AuthzAuditLogRepo = repository.NewAuthzAuditLogRepository(db)
	c.TableRepo = repository.NewTableRepository(db)
	c.ReservationRepo = repository.NewReservationRepository(db)
	c.MenuRepo = repository.NewMenuRepository(db)
	c.OrderRepo = repository.NewOrderRepository(db)
	c.ReviewRepo = repository.NewReviewRepository(db)
	c.CouponRepo = repository.NewCouponRepository(db)
	c.PointRepo = repository.NewPointRepository(db)
	c.PointRuleRepo = repository.NewPointRuleRepository(db)
	c.PointLevelRepo = repository.NewPointLevelRepository(db)
	c.PointStatisticRepo = repository.NewPointStatisticRepository(db)
}

func (c *Container) initServices() {
	authzService, err := authz.NewService(models.DB)
	if err != nil {
		logger.Errorw("provider_init_authz_failed", "error", err)
		panic(err)
	}
	c.AuthzService = authzService
	if err := c.AuthzService.BootstrapBuiltinRoles(); err != nil {
		logger.Errorw("provider_bootstrap_builtin_roles_failed", "error", err)
		panic(err)
	}

	c.SettingService = service.NewSettingService(c.SettingRepo)
	c.AuthService = service.NewAuthService(c.Config, c.AdminRepo)
	c.UserAuthService = service.NewUserAuthService(c.Config, c.UserRepo)
	c.AuthzAuditService = service.NewAuthzAuditService(c.AuthzAuditLogRepo)
	c.TableService = service.NewTableService(c.TableRepo)
	c.MenuService = service.NewMenuService(c.MenuRepo)

	c.PointRuleService = service.NewPointRuleService(
		c.PointRuleRepo,
		c.PointLevelRepo,
		time.Duration(c.Config.Points.RuleCacheTTLHours)*time.Hour,
	)
	c.PointLevelService = service.NewPointLevelService(c.PointLevelRepo, c.PointRepo)
	c.PointService = service.NewPointService(
		c.PointRepo,
		c.PointRuleService,
		c.PointLevelService,
		c.Config.Points.ExpireDays,
	)
	c.PointStatisticService = service.NewPointStatisticService(c.PointRepo, c.PointStatisticRepo)
	c.AnomalyService = service.NewAnomalyService(c.PointRepo)

	c.ReservationService = service.NewReservationService(
		c.ReservationRepo,
		c.TableRepo,
		c.Config.Reservation.TimeoutMinutes,
		parseDepositAmount(c.Config.Reservation.DepositAmount),
	)
	c.OrderService = service.NewOrderService(c.OrderRepo, c.MenuRepo, c.EventBus)
	c.ReviewService = service.NewReviewService(c.ReviewRepo, c.OrderRepo, c.EventBus)
	c.CouponService = service.NewCouponService(c.CouponRepo, c.PointService, c.EventBus)
}

// registerEventHandlers 领域事件接入积分服务。
// 处理失败由事件总线记录日志并吞掉，绝不影响触发方主写入。
func (c *Container) registerEventHandlers() {
	c.EventBus.OnOrderPaid(func(order models.Order) error {
		_, err := c.PointService.EarnFromOrder(&order)
		return err
	})
	c.EventBus.OnReviewApproved(func(review models.Review) error {
		_, err := c.PointService.EarnFromReview(&review)
		return err
	})
	c.EventBus.OnReviewAdopted(func(review models.Review) error {
		_, err := c.PointService.EarnFromAdoption(&review)
		return err
	})
	c.EventBus.OnCouponUsed(func(coupon models.Coupon) error {
		_, err := c.PointService.Unfreeze(service.PointUnfreezeInput{
			UserID:   coupon.UserID,
			Amount:   coupon.PointsCost,
			CouponID: coupon.ID,
			Outcome:  constants.CouponOutcomeUsed,
		})
		return err
	})
	c.EventBus.OnCouponExpired(func(coupon models.Coupon) error {
		_, err := c.PointService.Unfreeze(service.PointUnfreezeInput{
			UserID:   coupon.UserID,
			Amount:   coupon.PointsCost,
			CouponID: coupon.ID,
			Outcome:  constants.CouponOutcomeExpired,
		})
		return err
	})
}

func parseDepositAmount(raw string) models.Money {
	amount, err := decimal.NewFromString(raw)
	if err != nil || amount.IsNegative() {
		amount = decimal.NewFromInt(50)
	}
	return models.NewMoneyFromDecimal(amount.Round(2))
}
