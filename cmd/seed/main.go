package main

import (
	"errors"
	"flag"
	"fmt"
	"strings"

	"github.com/tixgate/internal/config"
	"github.com/tixgate/internal/constants"
	"github.com/tixgate/internal/logger"
	"github.com/tixgate/internal/models"
	"github.com/tixgate/internal/payment"
	"github.com/tixgate/internal/payment/builtin"
	"github.com/tixgate/internal/repository"
	"github.com/tixgate/internal/service"
	"github.com/tixgate/internal/vault"
)

// ECPay 官方测试商户
const (
	stagingMerchantID = "3002607"
	stagingHashKey    = "pwFHCqoQZGmho4w6"
	stagingHashIV     = "EkRm7iFT261dpevs"
)

func main() {
	var (
		organizerID uint
		memberID    uint
		role        string
	)
	flag.UintVar(&organizerID, "organizer", 1, "租户 ID")
	flag.UintVar(&memberID, "member", 1, "成员 ID")
	flag.StringVar(&role, "role", constants.MemberRoleOwner, "令牌角色: owner / finance / staff")
	flag.Parse()

	cfg := config.Load()
	logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	stdLog := logger.StdLogger()

	credentialVault, err := vault.NewFromHex(cfg.Security.CredentialEncryptionKey)
	if err != nil {
		stdLog.Fatalf("Failed to load credential encryption key: %v", err)
	}
	if err := models.InitDB(cfg.Database); err != nil {
		stdLog.Fatalf("Failed to connect database: %v", err)
	}
	if err := models.AutoMigrate(); err != nil {
		stdLog.Fatalf("Failed to migrate database: %v", err)
	}

	registry, err := builtin.NewRegistry()
	if err != nil {
		stdLog.Fatalf("Failed to build provider registry: %v", err)
	}
	configSvc := service.NewProviderConfigService(repository.NewPaymentProviderConfigRepository(models.DB), registry, credentialVault)

	created, err := configSvc.CreateProviderConfig(service.CreateProviderConfigInput{
		OrganizerID: organizerID,
		ProviderID:  constants.PaymentProviderECPay,
		DisplayName: "ECPay Staging",
		Credentials: payment.Credentials{
			"merchant_id": stagingMerchantID,
			"hash_key":    stagingHashKey,
			"hash_iv":     stagingHashIV,
			"environment": constants.ProviderEnvStaging,
		},
		IsDefault: true,
	})
	switch {
	case errors.Is(err, service.ErrProviderConfigExists):
		logger.Infow("seed_provider_config_exists", "organizer_id", organizerID, "provider_id", constants.PaymentProviderECPay)
	case err != nil:
		stdLog.Fatalf("Failed to seed provider config: %v", err)
	default:
		logger.Infow("seed_provider_config_created", "organizer_id", organizerID, "config_id", created.ID)
	}

	token, expiresAt, err := service.NewTenantAuthService(cfg.JWT).GenerateJWT(organizerID, memberID, strings.ToLower(strings.TrimSpace(role)))
	if err != nil {
		stdLog.Fatalf("Failed to issue tenant token: %v", err)
	}
	fmt.Printf("organizer_id=%d member_id=%d role=%s expires_at=%s\n", organizerID, memberID, role, expiresAt.Format("2006-01-02 15:04:05"))
	fmt.Println(token)
}
