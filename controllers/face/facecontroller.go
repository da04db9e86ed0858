package face

import (
	"fmt"
	"net/http"

	"SECUREATTEND/controllers"
	"SECUREATTEND/helper"
	"SECUREATTEND/models"
	"SECUREATTEND/service"

	"github.com/gin-gonic/gin"
)

// RegisterPayload enrolls from a photo, as sent by the web client.
type RegisterPayload struct {
	Name  string `json:"name" binding:"required"`
	Image string `json:"image" binding:"required"`
}

// RegisterFacePayload enrolls a precomputed embedding, as sent by the mobile client.
// RegNo and Course are optional; when either is set both go to the roster.
type RegisterFacePayload struct {
	Name      string    `json:"name" binding:"required"`
	Embedding []float64 `json:"embedding" binding:"required"`
	RegNo     string    `json:"reg_no"`
	Course    string    `json:"course"`
}

// StudentPayload enrolls a photo together with the student's roster record.
type StudentPayload struct {
	RegNo  string `json:"reg_no" binding:"required"`
	Name   string `json:"name" binding:"required"`
	Course string `json:"course" binding:"required"`
	Image  string `json:"image" binding:"required"`
}

type ReplacePayload struct {
	Image string `json:"image" binding:"required"`
}

type Controller struct {
	svc *service.Service
}

func NewController(svc *service.Service) *Controller {
	return &Controller{svc: svc}
}

func (ctl *Controller) Register(c *gin.Context) {
	var payload RegisterPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "error": "Name and image are required."})
		return
	}
	image, err := helper.DecodeImage(payload.Image)
	if err != nil {
		controllers.RespondError(c, err)
		return
	}

	if err := ctl.svc.Enroll(c.Request.Context(), payload.Name, image); err != nil {
		controllers.RespondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"status":  "success",
		"message": fmt.Sprintf("User %s registered successfully.", payload.Name),
	})
}

func (ctl *Controller) RegisterEmbedding(c *gin.Context) {
	var payload RegisterFacePayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid face data: " + err.Error()})
		return
	}

	ctx := c.Request.Context()
	emb := models.Embedding(payload.Embedding)
	var err error
	if payload.RegNo != "" || payload.Course != "" {
		err = ctl.svc.EnrollStudent(ctx, models.Student{RegNo: payload.RegNo, Name: payload.Name, Course: payload.Course}, emb)
	} else {
		err = ctl.svc.EnrollEmbedding(ctx, payload.Name, emb)
	}
	if err != nil {
		controllers.RespondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Face registered", "dimension": len(payload.Embedding)})
}

func (ctl *Controller) AddStudent(c *gin.Context) {
	var payload StudentPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "error": "All fields are required"})
		return
	}
	image, err := helper.DecodeImage(payload.Image)
	if err != nil {
		controllers.RespondError(c, err)
		return
	}

	st := models.Student{RegNo: payload.RegNo, Name: payload.Name, Course: payload.Course}
	if err := ctl.svc.AddStudent(c.Request.Context(), st, image); err != nil {
		controllers.RespondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"status": "success", "message": "Student added successfully"})
}

func (ctl *Controller) Students(c *gin.Context) {
	students, err := ctl.svc.Students(c.Request.Context())
	if err != nil {
		controllers.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"students": students, "count": len(students)})
}

func (ctl *Controller) Courses(c *gin.Context) {
	courses, err := ctl.svc.Courses(c.Request.Context())
	if err != nil {
		controllers.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"courses": courses})
}

func (ctl *Controller) List(c *gin.Context) {
	identities, err := ctl.svc.Identities(c.Request.Context())
	if err != nil {
		controllers.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"identities": identities, "count": len(identities)})
}

func (ctl *Controller) Replace(c *gin.Context) {
	var payload ReplacePayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Image is required."})
		return
	}
	image, err := helper.DecodeImage(payload.Image)
	if err != nil {
		controllers.RespondError(c, err)
		return
	}

	name := c.Param("name")
	if err := ctl.svc.ReplaceEnrollment(c.Request.Context(), name, image); err != nil {
		controllers.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": fmt.Sprintf("User %s re-enrolled.", name)})
}

func (ctl *Controller) Remove(c *gin.Context) {
	name := c.Param("name")
	if err := ctl.svc.RemoveIdentity(c.Request.Context(), name); err != nil {
		controllers.RespondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
