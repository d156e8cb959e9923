package service

import (
	"strings"

	"github.com/canting-next/internal/models"
	"github.com/canting-next/internal/repository"
)

// SettingService 系统设置服务
type SettingService struct {
	settingRepo repository.SettingRepository
}

// NewSettingService 创建系统设置服务
func NewSettingService(settingRepo repository.SettingRepository) *SettingService {
	return &SettingService{settingRepo: settingRepo}
}

// Get 按键获取设置
func (s *SettingService) Get(key string) (*models.Setting, error) {
	setting, err := s.settingRepo.GetByKey(strings.TrimSpace(key))
	if err != nil {
		return nil, err
	}
	if setting == nil {
		return nil, ErrSettingNotFound
	}
	return setting, nil
}

// GetValue 按键获取设置值，缺失时返回空映射
func (s *SettingService) GetValue(key string) (models.JSON, error) {
	setting, err := s.settingRepo.GetByKey(strings.TrimSpace(key))
	if err != nil {
		return nil, err
	}
	if setting == nil {
		return models.JSON{}, nil
	}
	return setting.ValueJSON, nil
}

// Set 写入设置（存在则覆盖）
func (s *SettingService) Set(key string, value models.JSON) error {
	key = strings.TrimSpace(key)
	if key == "" {
		return ErrSettingNotFound
	}
	return s.settingRepo.Upsert(&models.Setting{
		Key:       key,
		ValueJSON: value,
	})
}

// ListAll 获取全部设置
func (s *SettingService) ListAll() ([]models.Setting, error) {
	return s.settingRepo.ListAll()
}
