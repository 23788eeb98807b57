package handler

import (
	"context"

	"github.com/cloudwego/hertz/pkg/app"

	"CareCompanion/internal/model/dto"
	"CareCompanion/internal/service"
	"CareCompanion/pkg/response"
)

// ListAlerts GET /v1/alerts?status=&limit=
func ListAlerts(ctx context.Context, c *app.RequestContext) {
	uid, ok := currentUserID(ctx, c)
	if !ok {
		return
	}
	items, err := service.Caregiver().ListAlerts(ctx, uid, c.Query("status"), queryLimit(c))
	if err != nil {
		response.Error(ctx, c, err)
		return
	}
	response.SuccessWithMeta(ctx, c, items, map[string]interface{}{"count": len(items)})
}

// AckAlert POST /v1/alerts/:id/ack
func AckAlert(ctx context.Context, c *app.RequestContext) {
	uid, ok := currentUserID(ctx, c)
	if !ok {
		return
	}
	id, ok := pathID(ctx, c, "id")
	if !ok {
		return
	}
	if err := service.Caregiver().AcknowledgeAlert(ctx, uid, id); err != nil {
		response.Error(ctx, c, err)
		return
	}
	response.NoContent(ctx, c)
}

// ListActivity GET /v1/activity?patient_id=&limit=
func ListActivity(ctx context.Context, c *app.RequestContext) {
	uid, ok := currentUserID(ctx, c)
	if !ok {
		return
	}
	patientID, ok := queryID(ctx, c, "patient_id")
	if !ok {
		return
	}
	items, err := service.Caregiver().ListActivity(ctx, uid, patientID, queryLimit(c))
	if err != nil {
		response.Error(ctx, c, err)
		return
	}
	response.SuccessWithMeta(ctx, c, items, map[string]interface{}{"count": len(items)})
}

// CreateMedication POST /v1/medications
func CreateMedication(ctx context.Context, c *app.RequestContext) {
	uid, ok := currentUserID(ctx, c)
	if !ok {
		return
	}
	var req dto.CreateMedicationRequest
	if err := c.Bind(&req); err != nil {
		response.BindError(ctx, c, err)
		return
	}
	resp, err := service.Caregiver().CreateMedication(ctx, uid, req)
	if err != nil {
		response.Error(ctx, c, err)
		return
	}
	response.Success(ctx, c, resp)
}

// ListMedications GET /v1/medications?patient_id=
func ListMedications(ctx context.Context, c *app.RequestContext) {
	uid, ok := currentUserID(ctx, c)
	if !ok {
		return
	}
	patientID, ok := queryID(ctx, c, "patient_id")
	if !ok {
		return
	}
	items, err := service.Caregiver().ListMedications(ctx, uid, patientID)
	if err != nil {
		response.Error(ctx, c, err)
		return
	}
	response.Success(ctx, c, items)
}
