package service

import (
	"strings"

	"github.com/canting-next/internal/models"
	"github.com/canting-next/internal/repository"
)

// TableService 桌台管理服务
type TableService struct {
	tableRepo repository.TableRepository
}

// NewTableService 创建桌台管理服务
func NewTableService(tableRepo repository.TableRepository) *TableService {
	return &TableService{tableRepo: tableRepo}
}

// ListAll 获取全部桌台
func (s *TableService) ListAll() ([]models.DiningTable, error) {
	return s.tableRepo.ListAll()
}

// ListByStatus 按状态获取桌台
func (s *TableService) ListByStatus(status string) ([]models.DiningTable, error) {
	return s.tableRepo.ListByStatus(status)
}

// GetByID 按ID获取桌台
func (s *TableService) GetByID(id uint) (*models.DiningTable, error) {
	table, err := s.tableRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if table == nil {
		return nil, ErrTableNotFound
	}
	return table, nil
}

// Save 创建或更新桌台
func (s *TableService) Save(table *models.DiningTable) error {
	if table == nil || strings.TrimSpace(table.TableNo) == "" {
		return ErrTableNotFound
	}
	table.TableNo = strings.TrimSpace(table.TableNo)
	if table.Capacity <= 0 {
		table.Capacity = 2
	}
	if table.ID == 0 {
		return s.tableRepo.Create(table)
	}
	existing, err := s.tableRepo.GetByID(table.ID)
	if err != nil {
		return err
	}
	if existing == nil {
		return ErrTableNotFound
	}
	existing.TableNo = table.TableNo
	existing.Name = table.Name
	existing.Capacity = table.Capacity
	existing.Status = table.Status
	existing.SortOrder = table.SortOrder
	if err := s.tableRepo.Update(existing); err != nil {
		return err
	}
	*table = *existing
	return nil
}

// UpdateStatus 更新桌台状态
func (s *TableService) UpdateStatus(id uint, status string) error {
	table, err := s.tableRepo.GetByID(id)
	if err != nil {
		return err
	}
	if table == nil {
		return ErrTableNotFound
	}
	return s.tableRepo.UpdateStatus(id, status)
}
