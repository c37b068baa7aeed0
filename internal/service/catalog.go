package service

import (
	"context"
	"fmt"
	"strings"

	"restodesk/backend/internal/domain"
	"restodesk/backend/internal/store"
)

func (s *Service) CreateWarehouse(ctx context.Context, wh domain.Warehouse) (domain.Warehouse, error) {
	if err := s.requireAdmin(ctx); err != nil {
		return domain.Warehouse{}, err
	}
	wh.Name = strings.TrimSpace(wh.Name)
	if wh.IsProduction && wh.LinkedWarehouseID == "" {
		return domain.Warehouse{}, fmt.Errorf("%w: a production warehouse needs a linked warehouse", store.ErrValidation)
	}
	created, err := s.repo.CreateWarehouse(ctx, wh)
	if err != nil {
		return domain.Warehouse{}, err
	}
	s.logAudit(ctx, "warehouse_create", fmt.Sprintf("warehouse=%s,name=%s", created.ID, created.Name))
	return *created, nil
}

func (s *Service) ListWarehouses(ctx context.Context) ([]domain.Warehouse, error) {
	return s.repo.ListWarehouses(ctx)
}

func (s *Service) CreateIngredient(ctx context.Context, ing domain.Ingredient) (domain.Ingredient, error) {
	if err := s.requireAdmin(ctx); err != nil {
		return domain.Ingredient{}, err
	}
	ing.Name = strings.TrimSpace(ing.Name)
	ing.Unit = strings.TrimSpace(ing.Unit)
	if ing.CostCents < 0 {
		return domain.Ingredient{}, fmt.Errorf("%w: cost must not be negative", store.ErrValidation)
	}
	created, err := s.repo.CreateIngredient(ctx, ing)
	if err != nil {
		return domain.Ingredient{}, err
	}
	s.logAudit(ctx, "ingredient_create", fmt.Sprintf("ingredient=%s,name=%s", created.ID, created.Name))
	return *created, nil
}

func (s *Service) ListIngredients(ctx context.Context) ([]domain.Ingredient, error) {
	return s.repo.ListIngredients(ctx)
}

func (s *Service) CreateTechCard(ctx context.Context, card domain.TechCard) (domain.TechCard, error) {
	if err := s.requireAdmin(ctx); err != nil {
		return domain.TechCard{}, err
	}
	card.Name = strings.TrimSpace(card.Name)
	created, err := s.repo.CreateTechCard(ctx, card)
	if err != nil {
		return domain.TechCard{}, err
	}
	s.logAudit(ctx, "tech_card_create", fmt.Sprintf("card=%s,product=%s,items=%d", created.ID, created.ProductID, len(created.Items)))
	return *created, nil
}

func (s *Service) ListTechCards(ctx context.Context) ([]domain.TechCard, error) {
	return s.repo.ListTechCards(ctx)
}

func (s *Service) CreateModifier(ctx context.Context, mod domain.Modifier) (domain.Modifier, error) {
	if err := s.requireAdmin(ctx); err != nil {
		return domain.Modifier{}, err
	}
	mod.Name = strings.TrimSpace(mod.Name)
	created, err := s.repo.CreateModifier(ctx, mod)
	if err != nil {
		return domain.Modifier{}, err
	}
	s.logAudit(ctx, "modifier_create", fmt.Sprintf("modifier=%s,name=%s", created.ID, created.Name))
	return *created, nil
}

func (s *Service) ListModifiers(ctx context.Context) ([]domain.Modifier, error) {
	return s.repo.ListModifiers(ctx)
}

func (s *Service) CreateAutoDeductionRule(ctx context.Context, rule domain.AutoDeductionRule) (domain.AutoDeductionRule, error) {
	if err := s.requireAdmin(ctx); err != nil {
		return domain.AutoDeductionRule{}, err
	}
	rule.Name = strings.TrimSpace(rule.Name)
	created, err := s.repo.CreateAutoDeductionRule(ctx, rule)
	if err != nil {
		return domain.AutoDeductionRule{}, err
	}
	s.logAudit(ctx, "auto_rule_create", fmt.Sprintf("rule=%s,trigger=%s", created.ID, created.TriggerType))
	return *created, nil
}

func (s *Service) ListAutoDeductionRules(ctx context.Context) ([]domain.AutoDeductionRule, error) {
	return s.repo.ListAutoDeductionRules(ctx)
}

func (s *Service) CreateSupplier(ctx context.Context, supplier domain.Supplier) (domain.Supplier, error) {
	if err := s.requireAdmin(ctx); err != nil {
		return domain.Supplier{}, err
	}
	supplier.Name = strings.TrimSpace(supplier.Name)
	created, err := s.repo.CreateSupplier(ctx, supplier)
	if err != nil {
		return domain.Supplier{}, err
	}
	s.logAudit(ctx, "supplier_create", fmt.Sprintf("supplier=%s,name=%s", created.ID, created.Name))
	return *created, nil
}

func (s *Service) ListSuppliers(ctx context.Context) ([]domain.Supplier, error) {
	return s.repo.ListSuppliers(ctx)
}

func (s *Service) SupplierDebts(ctx context.Context) ([]domain.SupplierDebt, error) {
	if err := s.requireAdmin(ctx); err != nil {
		return nil, err
	}
	return s.repo.GetSupplierDebts(ctx)
}

// PaySupplier records a payment against a supplier's open supply invoices,
// oldest first. The unapplied remainder, if any, is reported back.
func (s *Service) PaySupplier(ctx context.Context, supplierID string, req domain.SupplierPaymentRequest) (int64, error) {
	if err := s.requireAdmin(ctx); err != nil {
		return 0, err
	}
	if req.AmountCents <= 0 {
		return 0, fmt.Errorf("%w: payment must be positive", store.ErrValidation)
	}
	remaining, err := s.repo.ApplySupplierPayment(ctx, supplierID, req.AmountCents)
	if err != nil {
		return 0, err
	}
	s.logAudit(ctx, "supplier_payment", fmt.Sprintf("supplier=%s,amount=%d,unapplied=%d", supplierID, req.AmountCents, remaining))
	return remaining, nil
}

func (s *Service) CreateEmployee(ctx context.Context, emp domain.Employee) (domain.Employee, error) {
	if err := s.requireAdmin(ctx); err != nil {
		return domain.Employee{}, err
	}
	emp.Name = strings.TrimSpace(emp.Name)
	emp.Active = true
	emp.CashBalanceCents = 0
	created, err := s.repo.CreateEmployee(ctx, emp)
	if err != nil {
		return domain.Employee{}, err
	}
	s.logAudit(ctx, "employee_create", fmt.Sprintf("employee=%s,name=%s", created.ID, created.Name))
	return *created, nil
}

func (s *Service) ListEmployees(ctx context.Context) ([]domain.Employee, error) {
	return s.repo.ListEmployees(ctx)
}
