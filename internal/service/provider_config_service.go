package service

import (
	"errors"
	"fmt"
	"strings"

	"github.com/tixgate/internal/models"
	"github.com/tixgate/internal/payment"
	"github.com/tixgate/internal/repository"
	"github.com/tixgate/internal/vault"

	"gorm.io/gorm"
)

// ProviderConfigService 主办方支付提供方配置服务
type ProviderConfigService struct {
	configRepo repository.PaymentProviderConfigRepository
	registry   *payment.Registry
	vault      *vault.Vault
}

// NewProviderConfigService 创建提供方配置服务
func NewProviderConfigService(configRepo repository.PaymentProviderConfigRepository, registry *payment.Registry, v *vault.Vault) *ProviderConfigService {
	return &ProviderConfigService{
		configRepo: configRepo,
		registry:   registry,
		vault:      v,
	}
}

// CreateProviderConfigInput 新增配置
type CreateProviderConfigInput struct {
	OrganizerID uint
	ProviderID  string
	DisplayName string
	Credentials payment.Credentials
	Settings    models.JSON
	IsActive    *bool
	IsDefault   bool
}

// UpdateProviderConfigInput 更新配置，nil 字段保持不变
type UpdateProviderConfigInput struct {
	OrganizerID uint
	ID          uint
	DisplayName *string
	Credentials payment.Credentials
	Settings    models.JSON
	IsActive    *bool
	IsDefault   *bool
}

// GetActiveProvider 解析租户可用配置：指定提供方 > 默认 > 任一启用 > nil
func (s *ProviderConfigService) GetActiveProvider(organizerID uint, preferredID string) (*models.PaymentProviderConfig, error) {
	if organizerID == 0 {
		return nil, ErrProviderConfigInvalid
	}
	if preferred := strings.TrimSpace(preferredID); preferred != "" {
		cfg, err := s.configRepo.GetActiveByProvider(organizerID, preferred)
		if err != nil {
			return nil, err
		}
		if cfg != nil {
			return cfg, nil
		}
	}
	cfg, err := s.configRepo.GetActiveDefault(organizerID)
	if err != nil {
		return nil, err
	}
	if cfg != nil {
		return cfg, nil
	}
	return s.configRepo.GetFirstActive(organizerID)
}

// GetActiveConfigForProvider 回调使用的配置，必须启用
func (s *ProviderConfigService) GetActiveConfigForProvider(organizerID uint, providerID string) (*models.PaymentProviderConfig, error) {
	cfg, err := s.configRepo.GetActiveByProvider(organizerID, providerID)
	if err != nil {
		return nil, err
	}
	if cfg == nil {
		return nil, ErrProviderConfigNotFound
	}
	return cfg, nil
}

// CreateProviderConfig 新增提供方配置
func (s *ProviderConfigService) CreateProviderConfig(input CreateProviderConfigInput) (*models.PaymentProviderConfig, error) {
	providerID := strings.TrimSpace(input.ProviderID)
	if input.OrganizerID == 0 || providerID == "" {
		return nil, ErrProviderConfigInvalid
	}
	provider, err := s.registry.GetProvider(providerID)
	if err != nil {
		return nil, ErrPaymentProviderNotSupported
	}
	if err := provider.ValidateCredentials(input.Credentials); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrProviderCredentialsInvalid, err)
	}

	existing, err := s.configRepo.GetByProvider(input.OrganizerID, providerID)
	if err != nil {
		return nil, ErrProviderConfigSaveFailed
	}
	if existing != nil {
		return nil, ErrProviderConfigExists
	}

	encrypted, err := s.vault.EncryptJSON(input.Credentials, vault.CredentialContext(input.OrganizerID, providerID))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrProviderConfigSaveFailed, err)
	}

	isActive := true
	if input.IsActive != nil {
		isActive = *input.IsActive
	}
	if input.IsDefault && !isActive {
		return nil, ErrProviderConfigInactive
	}

	cfg := &models.PaymentProviderConfig{
		OrganizerID:          input.OrganizerID,
		ProviderID:           providerID,
		DisplayName:          pickFirstNonEmpty(input.DisplayName, provider.Describe().DisplayName),
		EncryptedCredentials: encrypted,
		Settings:             input.Settings,
		IsActive:             isActive,
		IsDefault:            input.IsDefault,
	}

	log := paymentLogger("organizer_id", input.OrganizerID, "provider_id", providerID)
	err = models.DB.Transaction(func(tx *gorm.DB) error {
		repo := s.configRepo.WithTx(tx)
		count, err := repo.CountByOrganizer(input.OrganizerID)
		if err != nil {
			return err
		}
		if count == 0 && isActive {
			cfg.IsDefault = true
		}
		if cfg.IsDefault {
			if err := repo.ClearDefault(input.OrganizerID, 0); err != nil {
				return err
			}
		}
		return repo.Create(cfg)
	})
	if err != nil {
		log.Errorw("provider_config_create_failed", "error", err)
		return nil, ErrProviderConfigSaveFailed
	}
	log.Infow("provider_config_created", "config_id", cfg.ID, "is_default", cfg.IsDefault, "is_active", cfg.IsActive)
	return cfg, nil
}

// UpdateProviderConfig 更新提供方配置
func (s *ProviderConfigService) UpdateProviderConfig(input UpdateProviderConfigInput) (*models.PaymentProviderConfig, error) {
	if input.OrganizerID == 0 || input.ID == 0 {
		return nil, ErrProviderConfigInvalid
	}
	cfg, err := s.configRepo.GetByID(input.OrganizerID, input.ID)
	if err != nil {
		return nil, ErrProviderConfigSaveFailed
	}
	if cfg == nil {
		return nil, ErrProviderConfigNotFound
	}

	if input.Credentials != nil {
		provider, err := s.registry.GetProvider(cfg.ProviderID)
		if err != nil {
			return nil, ErrPaymentProviderNotSupported
		}
		if err := provider.ValidateCredentials(input.Credentials); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrProviderCredentialsInvalid, err)
		}
		encrypted, err := s.vault.EncryptJSON(input.Credentials, vault.CredentialContext(cfg.OrganizerID, cfg.ProviderID))
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrProviderConfigSaveFailed, err)
		}
		cfg.EncryptedCredentials = encrypted
	}
	if input.DisplayName != nil {
		cfg.DisplayName = strings.TrimSpace(*input.DisplayName)
	}
	if input.Settings != nil {
		cfg.Settings = input.Settings
	}
	if input.IsActive != nil {
		cfg.IsActive = *input.IsActive
		if !cfg.IsActive {
			cfg.IsDefault = false
		}
	}
	if input.IsDefault != nil {
		if *input.IsDefault && !cfg.IsActive {
			return nil, ErrProviderConfigInactive
		}
		cfg.IsDefault = *input.IsDefault
	}

	log := paymentLogger("organizer_id", cfg.OrganizerID, "provider_id", cfg.ProviderID, "config_id", cfg.ID)
	err = models.DB.Transaction(func(tx *gorm.DB) error {
		repo := s.configRepo.WithTx(tx)
		if cfg.IsDefault {
			if err := repo.ClearDefault(cfg.OrganizerID, cfg.ID); err != nil {
				return err
			}
		}
		return repo.Update(cfg)
	})
	if err != nil {
		log.Errorw("provider_config_update_failed", "error", err)
		return nil, ErrProviderConfigSaveFailed
	}
	log.Infow("provider_config_updated",
		"is_default", cfg.IsDefault,
		"is_active", cfg.IsActive,
		"credentials_rotated", input.Credentials != nil,
	)
	return cfg, nil
}

// SetDefaultProviderConfig 设为默认
func (s *ProviderConfigService) SetDefaultProviderConfig(organizerID, id uint) (*models.PaymentProviderConfig, error) {
	isDefault := true
	return s.UpdateProviderConfig(UpdateProviderConfigInput{
		OrganizerID: organizerID,
		ID:          id,
		IsDefault:   &isDefault,
	})
}

// RemoveProviderConfig 软删除：停用并取消默认
func (s *ProviderConfigService) RemoveProviderConfig(organizerID, id uint) error {
	isActive := false
	_, err := s.UpdateProviderConfig(UpdateProviderConfigInput{
		OrganizerID: organizerID,
		ID:          id,
		IsActive:    &isActive,
	})
	return err
}

// ListProviderConfigs 列出租户配置
func (s *ProviderConfigService) ListProviderConfigs(organizerID uint) ([]models.PaymentProviderConfig, error) {
	if organizerID == 0 {
		return nil, ErrProviderConfigInvalid
	}
	return s.configRepo.List(repository.PaymentProviderConfigListFilter{OrganizerID: organizerID})
}

// GetProviderConfig 获取租户配置
func (s *ProviderConfigService) GetProviderConfig(organizerID, id uint) (*models.PaymentProviderConfig, error) {
	cfg, err := s.configRepo.GetByID(organizerID, id)
	if err != nil {
		return nil, err
	}
	if cfg == nil {
		return nil, ErrProviderConfigNotFound
	}
	return cfg, nil
}

// GetDecryptedCredentials 解密配置凭证
func (s *ProviderConfigService) GetDecryptedCredentials(cfg *models.PaymentProviderConfig) (payment.Credentials, error) {
	if cfg == nil {
		return nil, ErrProviderConfigNotFound
	}
	creds := payment.Credentials{}
	if err := s.vault.DecryptJSON(cfg.EncryptedCredentials, vault.CredentialContext(cfg.OrganizerID, cfg.ProviderID), &creds); err != nil {
		if !errors.Is(err, vault.ErrDecryptionFailed) {
			err = fmt.Errorf("%w: %w", vault.ErrDecryptionFailed, err)
		}
		return nil, fmt.Errorf("%w: %w", ErrCredentialDecryptFailed, err)
	}
	return creds, nil
}
