package provider

import (
	"errors"

	"github.com/tixgate/internal/authz"
	"github.com/tixgate/internal/cache"
	"github.com/tixgate/internal/config"
	"github.com/tixgate/internal/logger"
	"github.com/tixgate/internal/models"
	"github.com/tixgate/internal/payment"
	"github.com/tixgate/internal/payment/builtin"
	"github.com/tixgate/internal/queue"
	"github.com/tixgate/internal/repository"
	"github.com/tixgate/internal/service"
	"github.com/tixgate/internal/vault"
)

// Container 依赖注入容器
type Container struct {
	Config      *config.Config
	QueueClient *queue.Client
	Vault       *vault.Vault
	Registry    *payment.Registry

	// Repositories
	PaymentRepo            repository.PaymentRepository
	PaymentTransactionRepo repository.PaymentTransactionRepository
	ProviderConfigRepo     repository.PaymentProviderConfigRepository

	// Collaborators
	RegistrationCompleter service.RegistrationCompleter
	PaymentNotifier       service.PaymentNotifier

	// Services
	AuthzService          *authz.Service
	TenantAuthService     *service.TenantAuthService
	ProviderConfigService *service.ProviderConfigService
	PaymentGatewayService *service.PaymentGatewayService
}

// NewContainer 初始化容器，凭证密钥由调用方加载并注入
func NewContainer(cfg *config.Config, credentialVault *vault.Vault) *Container {
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

	registry, err := builtin.NewRegistry()
	if err != nil {
		logger.Errorw("provider_init_payment_registry_failed", "error", err)
		panic(err)
	}

	c := &Container{
		Config:      cfg,
		QueueClient: queueClient,
		Vault:       credentialVault,
		Registry:    registry,
	}

	// 1. 初始化 Repositories
	c.initRepositories()

	// 2. 初始化协作方
	c.initCollaborators()

	// 3. 初始化 Services
	c.initServices()

	return c
}

func (c *Container) initRepositories() {
	db := models.DB
	c.PaymentRepo = repository.NewPaymentRepository(db)
	c.PaymentTransactionRepo = repository.NewPaymentTransactionRepository(db)
	c.ProviderConfigRepo = repository.NewPaymentProviderConfigRepository(db)
}

func (c *Container) initCollaborators() {
	if client := service.NewRegistrationClient(c.Config.Collaborators.Registration); client != nil {
		c.RegistrationCompleter = client
	} else {
		logger.Warnw("provider_registration_collaborator_disabled")
	}
	if client := service.NewNotificationClient(c.Config.Collaborators.Notification); client != nil {
		c.PaymentNotifier = client
	}
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
	if roles, err := c.AuthzService.ListRoles(); err == nil {
		logger.Infow("provider_authz_roles_ready", "roles", roles)
	}

	c.TenantAuthService = service.NewTenantAuthService(c.Config.JWT)
	c.ProviderConfigService = service.NewProviderConfigService(c.ProviderConfigRepo, c.Registry, c.Vault)
	dispatcher := service.NewCollaboratorDispatcher(c.QueueClient, c.RegistrationCompleter, c.PaymentNotifier)
	c.PaymentGatewayService = service.NewPaymentGatewayService(
		c.PaymentRepo,
		c.PaymentTransactionRepo,
		c.ProviderConfigService,
		c.Registry,
		dispatcher,
		c.Config.Payment,
	)
}

// Close 释放队列客户端与缓存连接
func (c *Container) Close() error {
	var errs []error
	if c.QueueClient != nil {
		if err := c.QueueClient.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if err := cache.Close(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}
