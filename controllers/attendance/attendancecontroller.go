package attendance

import (
	"net/http"

	"SECUREATTEND/controllers"
	"SECUREATTEND/helper"
	"SECUREATTEND/service"

	"github.com/gin-gonic/gin"
)

type CheckInPayload struct {
	Image string `json:"image" binding:"required"`
}

type Controller struct {
	svc *service.Service
}

func NewController(svc *service.Service) *Controller {
	return &Controller{svc: svc}
}

func (ctl *Controller) CheckIn(c *gin.Context) {
	var payload CheckInPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "error": "Image is required."})
		return
	}
	image, err := helper.DecodeImage(payload.Image)
	if err != nil {
		controllers.RespondError(c, err)
		return
	}

	result, err := ctl.svc.CheckIn(c.Request.Context(), image)
	if err != nil {
		controllers.RespondError(c, err)
		return
	}

	status := "success"
	if len(result.Recognized) == 0 {
		status = "unrecognized"
	}
	c.JSON(http.StatusOK, gin.H{
		"status":         status,
		"date":           result.Date,
		"faces_detected": result.FacesDetected,
		"recognized":     result.Recognized,
		"warnings":       result.Warnings,
	})
}

// GetAttendance serves ?date=YYYY-MM-DD, defaulting to today.
func (ctl *Controller) GetAttendance(c *gin.Context) {
	date := c.DefaultQuery("date", ctl.svc.Today())

	attendance, err := ctl.svc.GetAttendance(c.Request.Context(), date)
	if err != nil {
		controllers.RespondError(c, err)
		return
	}
	records, err := ctl.svc.AttendanceReport(c.Request.Context(), date)
	if err != nil {
		controllers.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"date": date, "attendance": attendance, "records": records})
}

func (ctl *Controller) Dates(c *gin.Context) {
	dates, err := ctl.svc.AttendanceDates(c.Request.Context())
	if err != nil {
		controllers.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"dates": dates})
}
