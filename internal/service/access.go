package service

import (
	"context"
	stderrors "errors"
	"fmt"

	"gorm.io/gorm"

	"CareCompanion/internal/model"
	"CareCompanion/internal/repository"
	"CareCompanion/pkg/errors"
)

// authorizePatient 校验照护者负责该患者，患者不存在同样返回 NotYourPatient
func authorizePatient(ctx context.Context, db *gorm.DB, caregiverID, patientID int64) (*model.User, error) {
	users := repository.NewUserRepository(db)

	caregiver, err := users.Get(ctx, caregiverID)
	if stderrors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errors.Unauthorized
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load caregiver %d: %w", caregiverID, err)
	}
	if !caregiver.IsCaregiver() {
		return nil, errors.CaregiverOnly
	}

	patient, err := users.Get(ctx, patientID)
	if stderrors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errors.NotYourPatient
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load patient %d: %w", patientID, err)
	}
	if !caregiver.CaresFor(patient) {
		return nil, errors.NotYourPatient
	}
	return patient, nil
}
