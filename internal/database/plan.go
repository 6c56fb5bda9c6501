package database

import (
	"license-api/internal/models"
)

// GetPlanByID gets a plan by ID, including soft-deleted references excluded
func GetPlanByID(id uint) (*models.Plan, error) {
	var plan models.Plan
	err := DB.First(&plan, id).Error
	if err != nil {
		return nil, err
	}
	return &plan, nil
}

// GetActivePlanByID gets an active plan by ID
func GetActivePlanByID(id uint) (*models.Plan, error) {
	var plan models.Plan
	err := DB.Where("id = ? AND is_active = ?", id, true).First(&plan).Error
	if err != nil {
		return nil, err
	}
	return &plan, nil
}

// GetActivePlans lists active plans ordered by priority
func GetActivePlans() ([]models.Plan, error) {
	var plans []models.Plan
	err := DB.Where("is_active = ?", true).Order("priority DESC, id ASC").Find(&plans).Error
	return plans, err
}

// GetAllPlans lists every plan including inactive ones (admin view)
func GetAllPlans() ([]models.Plan, error) {
	var plans []models.Plan
	err := DB.Order("priority DESC, id ASC").Find(&plans).Error
	return plans, err
}

// CreatePlan creates a plan
func CreatePlan(plan *models.Plan) error {
	return DB.Create(plan).Error
}

// UpdatePlan applies a partial update to a plan
func UpdatePlan(id uint, updates map[string]interface{}) error {
	return DB.Model(&models.Plan{}).Where("id = ?", id).Updates(updates).Error
}

// DeletePlan soft-deletes a plan. Keys and orders already referencing it
// keep their copied duration and device limits.
func DeletePlan(id uint) error {
	return DB.Delete(&models.Plan{}, id).Error
}
