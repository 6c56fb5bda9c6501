package services

import (
	"errors"

	"license-api/internal/database"
	"license-api/internal/models"

	"gorm.io/gorm"
)

// PlanService provides plan catalog operations
type PlanService struct {
	db *gorm.DB
}

// NewPlanService creates a new plan service
func NewPlanService() *PlanService {
	return &PlanService{
		db: database.GetDB(),
	}
}

// ResellerPlanView is a plan as priced for a specific reseller.
type ResellerPlanView struct {
	models.Plan
	EffectivePrice int64 `json:"effective_price"`
}

// ActivePlans lists active plans for the storefront.
func (s *PlanService) ActivePlans() ([]models.Plan, error) {
	return database.GetActivePlans()
}

// PlansForReseller lists active plans with the reseller's discounted
// per-key price applied.
func (s *PlanService) PlansForReseller(reseller *models.Reseller) ([]ResellerPlanView, error) {
	plans, err := database.GetActivePlans()
	if err != nil {
		return nil, err
	}

	views := make([]ResellerPlanView, 0, len(plans))
	for i := range plans {
		views = append(views, ResellerPlanView{
			Plan:           plans[i],
			EffectivePrice: reseller.UnitPrice(&plans[i]),
		})
	}
	return views, nil
}

// AllPlans lists every plan for the admin view.
func (s *PlanService) AllPlans() ([]models.Plan, error) {
	return database.GetAllPlans()
}

// CreatePlan validates and stores a plan.
func (s *PlanService) CreatePlan(plan *models.Plan, features []string) error {
	if !models.ValidDurationType(plan.DurationType) {
		return ErrPlanInactive
	}
	if err := plan.SetFeatures(features); err != nil {
		return err
	}
	return database.CreatePlan(plan)
}

// UpdatePlan applies a partial update. Keys already issued keep the
// duration and device limit copied at issuance.
func (s *PlanService) UpdatePlan(id uint, updates map[string]interface{}) error {
	if _, err := database.GetPlanByID(id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return err
	}
	return database.UpdatePlan(id, updates)
}

// DeletePlan soft-deletes a plan.
func (s *PlanService) DeletePlan(id uint) error {
	if _, err := database.GetPlanByID(id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return err
	}
	return database.DeletePlan(id)
}
