// Package authorization enforces role-based access with casbin. Roles are
// the closed set from the auth domain; there is no per-user policy editing.
package authorization

import (
	"context"
	"errors"
)

var (
	ErrForbidden     = errors.New("forbidden")
	ErrInvalidActor  = errors.New("invalid actor")
	ErrInvalidObject = errors.New("invalid object")
	ErrInvalidAction = errors.New("invalid action")
)

const (
	ObjectApartment = "apartment"
	ObjectTenant    = "tenant"
	ObjectContract  = "contract"
	ObjectSettings  = "settings"
	ObjectMeter     = "meter"
	ObjectInvoice   = "invoice"
	ObjectBilling   = "billing"
	ObjectUser      = "user"
)

const (
	ActionView   = "view"
	ActionCreate = "create"
	ActionUpdate = "update"
	ActionDelete = "delete"

	ActionInvoicePay  = "invoice.pay"
	ActionInvoiceVoid = "invoice.void"

	ActionBillingGenerate = "billing.generate"
	ActionMeterRollover   = "meter.rollover"
)

type Service interface {
	// Authorize checks whether a user with the given role may perform the
	// action on the object. Returns ErrForbidden on denial.
	Authorize(ctx context.Context, userID string, role string, object string, action string) error
}
