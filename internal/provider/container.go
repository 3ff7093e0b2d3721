package provider

import (
	"github.com/redactor-pro/license-api/internal/cache"
	"github.com/redactor-pro/license-api/internal/config"
	"github.com/redactor-pro/license-api/internal/logger"
	"github.com/redactor-pro/license-api/internal/models"
	"github.com/redactor-pro/license-api/internal/queue"
	"github.com/redactor-pro/license-api/internal/repository"
	"github.com/redactor-pro/license-api/internal/service"
)

// Container 依赖注入容器
type Container struct {
	Config      *config.Config
	QueueClient *queue.Client

	// Repositories
	AdminRepo         repository.AdminRepository
	RedeemCodeRepo    repository.RedeemCodeRepository
	DonationEventRepo repository.DonationEventRepository

	// Services
	AuthService         *service.AuthService
	EmailService        *service.EmailService
	SlackService        *service.SlackService
	RedeemCodeService   *service.RedeemCodeService
	LicenseTokenService *service.LicenseTokenService
	KofiService         *service.KofiService
}

// NewContainer 初始化容器
func NewContainer(cfg *config.Config) *Container {
	// 初始化缓存
	if err := cache.InitRedis(&cfg.Redis); err != nil {
		logger.Warnw("provider_init_redis_failed", "error", err)
	}

	// 初始化队列客户端
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
	}

	// 1. 初始化 Repositories
	c.initRepositories()

	// 2. 初始化 Services
	c.initServices()

	return c
}

func (c *Container) initRepositories() {
	db := models.DB
	c.AdminRepo = repository.NewAdminRepository(db)
	c.RedeemCodeRepo = repository.NewRedeemCodeRepository(db)
	c.DonationEventRepo = repository.NewDonationEventRepository(db)
}

func (c *Container) initServices() {
	c.AuthService = service.NewAuthService(c.Config, c.AdminRepo)
	c.EmailService = service.NewEmailService(&c.Config.Email)
	c.SlackService = service.NewSlackService(c.Config.Slack)
	c.RedeemCodeService = service.NewRedeemCodeService(c.RedeemCodeRepo, c.Config.Redeem.DefaultPlan)
	c.LicenseTokenService = service.NewLicenseTokenService(c.Config.Redeem.TokenSecret, c.RedeemCodeRepo)
	c.KofiService = service.NewKofiService(
		c.Config.Kofi,
		c.RedeemCodeService,
		c.DonationEventRepo,
		c.EmailService,
		c.SlackService,
		c.QueueClient,
	)
}
