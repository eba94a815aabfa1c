package authorization

import (
	"context"
	_ "embed"
	"fmt"
	"strings"

	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"
	gormadapter "github.com/casbin/gorm-adapter/v3"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

//go:embed model.conf
var modelText string

type Params struct {
	fx.In

	Log      *zap.Logger
	Enforcer *casbin.SyncedEnforcer
}

type ServiceImpl struct {
	log      *zap.Logger
	enforcer *casbin.SyncedEnforcer
}

func NewEnforcer(db *gorm.DB) (*casbin.SyncedEnforcer, error) {
	adapter, err := gormadapter.NewAdapterByDB(db)
	if err != nil {
		return nil, err
	}
	m, err := model.NewModelFromString(modelText)
	if err != nil {
		return nil, err
	}
	enforcer, err := casbin.NewSyncedEnforcer(m, adapter)
	if err != nil {
		return nil, err
	}
	enforcer.EnableAutoSave(true)
	enforcer.EnableAutoBuildRoleLinks(true)
	if err := enforcer.LoadPolicy(); err != nil {
		return nil, err
	}
	if err := seedPolicies(enforcer); err != nil {
		return nil, err
	}
	enforcer.BuildRoleLinks()
	return enforcer, nil
}

func NewService(p Params) Service {
	return &ServiceImpl{
		log:      p.Log.Named("authorization.service"),
		enforcer: p.Enforcer,
	}
}

func (s *ServiceImpl) Authorize(ctx context.Context, userID string, role string, object string, action string) error {
	userID = strings.TrimSpace(userID)
	role = strings.ToLower(strings.TrimSpace(role))
	if userID == "" || role == "" {
		return ErrInvalidActor
	}
	object = strings.TrimSpace(object)
	if object == "" {
		return ErrInvalidObject
	}
	action = strings.TrimSpace(action)
	if action == "" {
		return ErrInvalidAction
	}

	subject := fmt.Sprintf("user:%s", userID)
	roleName := fmt.Sprintf("role:%s", role)
	if err := s.ensureGrouping(subject, roleName); err != nil {
		return err
	}

	allowed, err := s.enforcer.Enforce(subject, object, action)
	if err != nil {
		return err
	}
	if !allowed {
		s.log.Debug("authorization denied",
			zap.String("subject", subject),
			zap.String("object", object),
			zap.String("action", action),
		)
		return ErrForbidden
	}
	return nil
}

// ensureGrouping keeps a user's casbin grouping in sync with the role stored
// on the account row. A stale grouping from a role change is replaced here.
func (s *ServiceImpl) ensureGrouping(subject string, roleName string) error {
	existing, err := s.enforcer.GetFilteredGroupingPolicy(0, subject)
	if err != nil {
		return err
	}
	for _, rule := range existing {
		if len(rule) < 2 {
			continue
		}
		if rule[1] != roleName {
			params := make([]interface{}, 0, len(rule))
			for _, value := range rule {
				params = append(params, value)
			}
			_, _ = s.enforcer.RemoveGroupingPolicy(params...)
		}
	}

	has, err := s.enforcer.HasGroupingPolicy(subject, roleName)
	if err != nil {
		return err
	}
	if has {
		return nil
	}
	_, err = s.enforcer.AddGroupingPolicy(subject, roleName)
	return err
}

func seedPolicies(enforcer *casbin.SyncedEnforcer) error {
	crudObjects := []string{ObjectApartment, ObjectTenant, ObjectContract, ObjectMeter}

	policies := [][]string{
		// Read-only staff accounts.
		{"role:user", ObjectApartment, ActionView},
		{"role:user", ObjectTenant, ActionView},
		{"role:user", ObjectContract, ActionView},
		{"role:user", ObjectMeter, ActionView},
		{"role:user", ObjectInvoice, ActionView},
		{"role:user", ObjectSettings, ActionView},

		// Managers run day-to-day operations but cannot touch accounts or
		// cost settings.
		{"role:manager", ObjectInvoice, ActionView},
		{"role:manager", ObjectInvoice, ActionInvoicePay},
		{"role:manager", ObjectSettings, ActionView},
		{"role:manager", ObjectBilling, ActionView},
		{"role:manager", ObjectBilling, ActionBillingGenerate},
		{"role:manager", ObjectMeter, ActionMeterRollover},

		// Admins additionally manage users, settings and invoice voiding.
		{"role:admin", ObjectInvoice, ActionView},
		{"role:admin", ObjectInvoice, ActionInvoicePay},
		{"role:admin", ObjectInvoice, ActionInvoiceVoid},
		{"role:admin", ObjectSettings, ActionView},
		{"role:admin", ObjectSettings, ActionUpdate},
		{"role:admin", ObjectBilling, ActionView},
		{"role:admin", ObjectBilling, ActionBillingGenerate},
		{"role:admin", ObjectMeter, ActionMeterRollover},
		{"role:admin", ObjectUser, ActionView},
		{"role:admin", ObjectUser, ActionCreate},
		{"role:admin", ObjectUser, ActionUpdate},
		{"role:admin", ObjectUser, ActionDelete},
	}

	for _, object := range crudObjects {
		for _, action := range []string{ActionView, ActionCreate, ActionUpdate, ActionDelete} {
			policies = append(policies,
				[]string{"role:manager", object, action},
				[]string{"role:admin", object, action},
			)
		}
	}

	for _, policy := range policies {
		if len(policy) < 3 {
			continue
		}
		if _, err := enforcer.AddPolicy(policy); err != nil {
			return err
		}
	}
	return nil
}

var Module = fx.Module("authorization",
	fx.Provide(NewEnforcer),
	fx.Provide(NewService),
)
