package handler

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/oapi-codegen/runtime"
	openapi_types "github.com/oapi-codegen/runtime/types"
)

// Parameter binding follows the openapi.yaml styles: path parameters are
// "simple", query parameters are exploded "form".

// ListAuditParams defines parameters for ListAudit.
type ListAuditParams struct {
	TagID   *string
	Actor   *string
	RiderID *string
	Page    *int
	Limit   *int
}

// ValidatePickupParams defines parameters for ValidatePickup.
type ValidatePickupParams struct {
	RiderID *string
}

// ReconcileRiderParams defines parameters for ReconcileRider.
type ReconcileRiderParams struct {
	PhysicalCount int
}

func bindPathString(r *http.Request, name string) (string, error) {
	var v string
	err := runtime.BindStyledParameterWithOptions("simple", name, chi.URLParam(r, name), &v,
		runtime.BindStyledParameterOptions{ParamLocation: runtime.ParamLocationPath, Explode: false, Required: true})
	if err != nil {
		return "", fmt.Errorf("invalid format for parameter %s: %w", name, err)
	}
	return v, nil
}

func bindPathUUID(r *http.Request, name string) (openapi_types.UUID, error) {
	var v openapi_types.UUID
	err := runtime.BindStyledParameterWithOptions("simple", name, chi.URLParam(r, name), &v,
		runtime.BindStyledParameterOptions{ParamLocation: runtime.ParamLocationPath, Explode: false, Required: true})
	if err != nil {
		return openapi_types.UUID{}, fmt.Errorf("invalid format for parameter %s: %w", name, err)
	}
	return v, nil
}

func bindListAuditParams(r *http.Request) (ListAuditParams, error) {
	var params ListAuditParams
	q := r.URL.Query()
	if err := runtime.BindQueryParameter("form", true, false, "tag_id", q, &params.TagID); err != nil {
		return params, fmt.Errorf("invalid format for parameter tag_id: %w", err)
	}
	if err := runtime.BindQueryParameter("form", true, false, "actor", q, &params.Actor); err != nil {
		return params, fmt.Errorf("invalid format for parameter actor: %w", err)
	}
	if err := runtime.BindQueryParameter("form", true, false, "rider_id", q, &params.RiderID); err != nil {
		return params, fmt.Errorf("invalid format for parameter rider_id: %w", err)
	}
	if err := runtime.BindQueryParameter("form", true, false, "page", q, &params.Page); err != nil {
		return params, fmt.Errorf("invalid format for parameter page: %w", err)
	}
	if err := runtime.BindQueryParameter("form", true, false, "limit", q, &params.Limit); err != nil {
		return params, fmt.Errorf("invalid format for parameter limit: %w", err)
	}
	return params, nil
}

func bindValidatePickupParams(r *http.Request) (ValidatePickupParams, error) {
	var params ValidatePickupParams
	if err := runtime.BindQueryParameter("form", true, false, "rider_id", r.URL.Query(), &params.RiderID); err != nil {
		return params, fmt.Errorf("invalid format for parameter rider_id: %w", err)
	}
	return params, nil
}

func bindReconcileRiderParams(r *http.Request) (ReconcileRiderParams, error) {
	var params ReconcileRiderParams
	if err := runtime.BindQueryParameter("form", true, true, "physical_count", r.URL.Query(), &params.PhysicalCount); err != nil {
		return params, fmt.Errorf("invalid format for parameter physical_count: %w", err)
	}
	return params, nil
}

func derefString(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}
