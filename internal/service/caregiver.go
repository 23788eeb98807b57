package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"CareCompanion/internal/model"
	"CareCompanion/internal/model/dto"
	"CareCompanion/internal/repository"
	"CareCompanion/pkg/errors"
	"CareCompanion/pkg/logger"
	"CareCompanion/storage/database"
	"CareCompanion/utils"
)

const (
	defaultListLimit = 50
	maxListLimit     = 200
)

// CaregiverService 告警、动态与用药记录
type CaregiverService struct{}

var (
	caregiverService *CaregiverService
	caregiverOnce    sync.Once
)

func Caregiver() *CaregiverService {
	caregiverOnce.Do(func() {
		caregiverService = &CaregiverService{}
	})
	return caregiverService
}

func clampLimit(limit int) int {
	if limit <= 0 {
		return defaultListLimit
	}
	if limit > maxListLimit {
		return maxListLimit
	}
	return limit
}

// ListAlerts status 取值 open / acknowledged / 空
func (s *CaregiverService) ListAlerts(ctx context.Context, caregiverID int64, status string, limit int) ([]dto.AlertItem, error) {
	st := model.CaregiverAlertStatus(status)
	switch st {
	case "", model.CaregiverAlertStatusOpen, model.CaregiverAlertStatusAcknowledged:
	default:
		return nil, errors.InvalidRequest
	}

	rows, err := repository.NewCaregiverRepository(database.DB()).ListAlerts(ctx, caregiverID, st, clampLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("failed to list alerts: %w", err)
	}

	items := make([]dto.AlertItem, 0, len(rows))
	for _, a := range rows {
		items = append(items, dto.AlertItem{
			ID:              a.ID,
			PatientID:       a.PatientID,
			ReminderID:      a.ReminderID,
			OccurrenceID:    a.OccurrenceID,
			AlertType:       a.AlertType,
			PatientName:     a.PatientName,
			Label:           a.Label,
			DoseTimeDisplay: a.DoseTimeDisplay,
			Status:          string(a.Status),
			CreatedAt:       a.CreatedAt,
			AcknowledgedAt:  a.AcknowledgedAt,
		})
	}
	return items, nil
}

func (s *CaregiverService) AcknowledgeAlert(ctx context.Context, caregiverID, alertID int64) error {
	ok, err := repository.NewCaregiverRepository(database.DB()).AcknowledgeAlert(ctx, alertID, caregiverID, time.Now())
	if err != nil {
		return fmt.Errorf("failed to acknowledge alert %d: %w", alertID, err)
	}
	if !ok {
		return errors.AlertNotFound
	}
	logger.Logger.Info("Caregiver alert acknowledged",
		zap.Int64("alert_id", alertID),
		zap.Int64("caregiver_id", caregiverID),
	)
	return nil
}

func (s *CaregiverService) ListActivity(ctx context.Context, caregiverID, patientID int64, limit int) ([]dto.ActivityItem, error) {
	db := database.DB()
	if _, err := authorizePatient(ctx, db, caregiverID, patientID); err != nil {
		return nil, err
	}

	rows, err := repository.NewCaregiverRepository(db).ListActivity(ctx, patientID, clampLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("failed to list activity: %w", err)
	}
	items := make([]dto.ActivityItem, 0, len(rows))
	for _, e := range rows {
		items = append(items, dto.ActivityItem{
			ID:          e.ID,
			Description: e.Description,
			OccurredAt:  e.OccurredAt,
			Icon:        e.Icon,
			Completed:   e.Completed,
		})
	}
	return items, nil
}

func (s *CaregiverService) CreateMedication(ctx context.Context, caregiverID int64, req dto.CreateMedicationRequest) (*dto.MedicationItem, error) {
	req.Name = strings.TrimSpace(req.Name)
	if req.PatientID <= 0 || req.Name == "" || len(req.Name) > 128 {
		return nil, errors.InvalidRequest
	}
	if req.DoseTime != "" {
		if _, err := utils.ParseClock(req.DoseTime, time.Now()); err != nil {
			return nil, errors.InvalidRequest
		}
	}

	db := database.DB()
	if _, err := authorizePatient(ctx, db, caregiverID, req.PatientID); err != nil {
		return nil, err
	}

	m := &model.Medication{
		PatientID: req.PatientID,
		Name:      req.Name,
		Dosage:    strings.TrimSpace(req.Dosage),
		DoseTime:  req.DoseTime,
	}
	if err := repository.NewCaregiverRepository(db).CreateMedication(ctx, m); err != nil {
		return nil, fmt.Errorf("failed to create medication: %w", err)
	}
	item := toMedicationItem(m)
	return &item, nil
}

func (s *CaregiverService) ListMedications(ctx context.Context, caregiverID, patientID int64) ([]dto.MedicationItem, error) {
	db := database.DB()
	if _, err := authorizePatient(ctx, db, caregiverID, patientID); err != nil {
		return nil, err
	}

	rows, err := repository.NewCaregiverRepository(db).ListMedications(ctx, patientID)
	if err != nil {
		return nil, fmt.Errorf("failed to list medications: %w", err)
	}
	items := make([]dto.MedicationItem, 0, len(rows))
	for i := range rows {
		items = append(items, toMedicationItem(&rows[i]))
	}
	return items, nil
}

func toMedicationItem(m *model.Medication) dto.MedicationItem {
	return dto.MedicationItem{
		ID:        m.ID,
		PatientID: m.PatientID,
		Name:      m.Name,
		Dosage:    m.Dosage,
		DoseTime:  m.DoseTime,
		Taken:     m.Taken,
		TakenAt:   m.TakenAt,
	}
}
