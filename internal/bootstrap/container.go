package bootstrap

import (
	"dms-gmail-addon/internal/config"
	"dms-gmail-addon/internal/controller"
	"dms-gmail-addon/internal/pkg/logger"
	"dms-gmail-addon/internal/repository/contract"
	"dms-gmail-addon/internal/repository/implementation"
	"dms-gmail-addon/internal/service"
	"dms-gmail-addon/pkg/gmailmsg"

	"github.com/redis/go-redis/v9"
)

type Container struct {
	// Controllers
	AddonController controller.IAddonController

	// Services exposed for tests and the OAuth callback wiring
	OAuthService    service.IOAuthService
	SettingsService service.ISettingsService
}

func NewContainer(redisClient *redis.Client, cfg *config.Config) *Container {
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.Environment == "production")

	// Durable settings tier
	var settingsRepo contract.ISettingsRepository = implementation.NewSettingsRepository(redisClient)

	// Services
	settingsService := service.NewSettingsService(settingsRepo, cfg, sysLogger)
	oauthService := service.NewOAuthService(settingsService, cfg, sysLogger)
	gmailClient := gmailmsg.NewClient("", nil)
	addonService := service.NewAddonService(settingsService, oauthService, gmailClient, nil, cfg, sysLogger)
	dispatchService := service.NewDispatchService(addonService.HandlerTable(), sysLogger)

	// Controllers
	addonController := controller.NewAddonController(dispatchService, addonService, oauthService)

	return &Container{
		AddonController: addonController,
		OAuthService:    oauthService,
		SettingsService: settingsService,
	}
}
