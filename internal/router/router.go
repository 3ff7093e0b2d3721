package router

import (
	"fmt"
	"strings"

	"github.com/redactor-pro/license-api/internal/cache"
	"github.com/redactor-pro/license-api/internal/config"
	"github.com/redactor-pro/license-api/internal/constants"
	adminhandlers "github.com/redactor-pro/license-api/internal/http/handlers/admin"
	publichandlers "github.com/redactor-pro/license-api/internal/http/handlers/public"
	"github.com/redactor-pro/license-api/internal/logger"
	"github.com/redactor-pro/license-api/internal/provider"

	"github.com/gin-gonic/gin"
)

// SetupRouter 初始化路由
func SetupRouter(cfg *config.Config, c *provider.Container) *gin.Engine {
	log := logger.L
	if log == nil {
		log = logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	}
	r := gin.New()

	// 初始化 Handler（按公开/后台分组）
	publicHandler := publichandlers.New(c)
	adminHandler := adminhandlers.New(c)
	redisPrefix := strings.TrimSpace(cfg.Redis.Prefix)
	if redisPrefix == "" {
		redisPrefix = constants.RedisPrefixDefault
	}
	redisClient := cache.Client()
	adminLoginRule := RateLimitRule{
		Prefix:        fmt.Sprintf("%s:rate:admin_login", redisPrefix),
		WindowSeconds: cfg.Security.LoginRateLimit.WindowSeconds,
		MaxRequests:   cfg.Security.LoginRateLimit.MaxAttempts,
		BlockSeconds:  cfg.Security.LoginRateLimit.BlockSeconds,
		Message:       "登录尝试过于频繁",
	}

	// 中间件
	r.Use(gin.Recovery())
	r.Use(RequestIDMiddleware())
	r.Use(LoggerMiddleware(log))
	r.Use(CORSMiddleware(cfg.CORS))

	// API 路由组
	apiV1 := r.Group("/api/v1")
	{
		// 兑换码接口：发放与验证都要求共享密钥
		redeem := apiV1.Group("/redeem")
		redeem.Use(APIKeyAuthMiddleware(constants.RedeemCodeAPIKeyHeader, cfg.Redeem.APIKey))
		{
			redeem.POST("/issue", publicHandler.IssueRedeemCode)
			redeem.POST("/validate", publicHandler.ValidateRedeemCode)
		}

		// 许可令牌校验：Bearer 令牌本身就是凭证
		apiV1.POST("/license/verify", publicHandler.VerifyLicense)

		// Ko-fi 捐赠回调（verification_token 在负载内校验）
		apiV1.POST("/webhook/kofi", publicHandler.KofiWebhook)

		// 管理员接口
		admin := apiV1.Group("/admin")
		{
			// 登录接口（无需鉴权）
			admin.POST("/login", RateLimitMiddleware(redisClient, adminLoginRule, KeyByIP), adminHandler.AdminLogin)

			// 需要鉴权的接口
			authorized := admin.Use(JWTAuthMiddleware(cfg.JWT.SecretKey, c.AdminRepo))
			{
				authorized.GET("/me", adminHandler.GetAdminProfile)
				authorized.PUT("/password", adminHandler.UpdateAdminPassword)

				// 兑换码管理
				authorized.GET("/redeem-codes", adminHandler.GetRedeemCodes)
				authorized.POST("/redeem-codes", adminHandler.IssueRedeemCode)
				authorized.DELETE("/redeem-codes/:id", adminHandler.DeleteRedeemCode)

				// 捐赠事件
				authorized.GET("/donations", adminHandler.GetDonationEvents)

				// 统计
				authorized.GET("/stats", adminHandler.GetStats)
			}
		}
	}

	// 健康检查
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	return r
}
