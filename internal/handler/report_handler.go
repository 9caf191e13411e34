package handler

import (
	"net/http"

	"pawhome/internal/middleware"
	"pawhome/internal/model"
	"pawhome/internal/service"
	"pawhome/pkg/pagination"
	"pawhome/pkg/response"

	"github.com/gin-gonic/gin"
)

type ReportHandler struct {
	reportService service.ReportService
	matchService  service.MatchService
}

// NewReportHandler sets up the routing dependencies for report endpoints
func NewReportHandler(reportService service.ReportService, matchService service.MatchService) *ReportHandler {
	return &ReportHandler{reportService: reportService, matchService: matchService}
}

// RegisterRoutes binds the endpoints to the gin Engine or RouterGroup
func (h *ReportHandler) RegisterRoutes(router *gin.RouterGroup) {
	reports := router.Group("/report")
	{
		// Creation is open to anonymous reporters; a present token still
		// attributes ownership.
		reports.POST("", middleware.OptionalAuth(), h.CreateFound)
		reports.POST("/lost", middleware.OptionalAuth(), h.CreateLost)

		reports.GET("", h.ListReports)
		reports.GET("/my-reports", middleware.RequireRole(model.RoleAdmin, model.RolePetOwner, model.RoleTrainer, model.RoleVet), h.MyReports)
		reports.GET("/status/:status", h.ListByStatus)
		reports.GET("/potential-matches/:id", middleware.RequireRole(model.RoleAdmin), h.PotentialMatches)
		reports.GET("/:id", h.GetReport)

		reports.PUT("/:id", middleware.OptionalAuth(), h.UpdateReport)
		reports.DELETE("/:id", middleware.OptionalAuth(), h.DeleteReport)

		admin := middleware.RequireRole(model.RoleAdmin)
		reports.PUT("/:id/approve", admin, h.ApproveReport)
		reports.PUT("/:id/archive", middleware.OptionalAuth(), h.ArchiveReport)
		reports.PUT("/:id/unarchive", middleware.OptionalAuth(), h.UnarchiveReport)
		reports.PUT("/:id/reunited", admin, h.ReuniteReport)
		reports.PUT("/:id/unmatch", admin, h.UnmatchReport)
		reports.POST("/match", admin, h.MatchReports)
	}
}

// CreateFound handles POST /report to file a Found report
// @Summary      Create a Found report
// @Description  Files a report for a found pet. Anonymous reporters must supply contact email and phone.
// @Tags         reports
// @Accept       json
// @Produce      json
// @Param        payload  body      service.CreateReportRequest  true  "Report Payload"
// @Success      201      {object}  response.Response{data=model.Report}
// @Failure      400      {object}  response.Response
// @Router       /report [post]
func (h *ReportHandler) CreateFound(c *gin.Context) {
	h.create(c, model.ReportTypeFound)
}

// CreateLost handles POST /report/lost to file a Lost report
// @Summary      Create a Lost report
// @Description  Files a report for a lost pet. Requires the pet's name and gender plus reporter contact info.
// @Tags         reports
// @Accept       json
// @Produce      json
// @Param        payload  body      service.CreateReportRequest  true  "Report Payload"
// @Success      201      {object}  response.Response{data=model.Report}
// @Failure      400      {object}  response.Response
// @Router       /report/lost [post]
func (h *ReportHandler) CreateLost(c *gin.Context) {
	h.create(c, model.ReportTypeLost)
}

func (h *ReportHandler) create(c *gin.Context, reportType string) {
	var req service.CreateReportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	report, err := h.reportService.Create(c.Request.Context(), caller(c), reportType, req)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, report))
}

// ListReports returns all reports, paginated
// @Summary      List reports
// @Tags         reports
// @Produce      json
// @Param        page   query     int  false  "Page"
// @Param        limit  query     int  false  "Page size"
// @Success      200    {object}  response.Response{data=[]model.Report}
// @Router       /report [get]
func (h *ReportHandler) ListReports(c *gin.Context) {
	p := pagination.Parse(c)
	reports, total, err := h.reportService.List(c.Request.Context(), p.Page, p.Limit)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{
		"reports": reports,
		"meta":    pagination.NewMeta(p, total),
	}))
}

// ListByStatus returns reports filtered by lifecycle status
// @Summary      List reports by status
// @Tags         reports
// @Produce      json
// @Param        status  path      string  true  "Pending, Matched or Reunited"
// @Success      200     {object}  response.Response{data=[]model.Report}
// @Failure      400     {object}  response.Response
// @Router       /report/status/{status} [get]
func (h *ReportHandler) ListByStatus(c *gin.Context) {
	p := pagination.Parse(c)
	reports, total, err := h.reportService.ListByStatus(c.Request.Context(), c.Param("status"), p.Page, p.Limit)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{
		"reports": reports,
		"meta":    pagination.NewMeta(p, total),
	}))
}

// MyReports returns the authenticated caller's reports
// @Summary      List my reports
// @Tags         reports
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  response.Response{data=[]model.Report}
// @Router       /report/my-reports [get]
func (h *ReportHandler) MyReports(c *gin.Context) {
	p := pagination.Parse(c)
	reports, total, err := h.reportService.ListMine(c.Request.Context(), caller(c), p.Page, p.Limit)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{
		"reports": reports,
		"meta":    pagination.NewMeta(p, total),
	}))
}

// GetReport returns a single report by id
// @Summary      Get a report
// @Tags         reports
// @Produce      json
// @Param        id   path      string  true  "Report ID"
// @Success      200  {object}  response.Response{data=model.Report}
// @Failure      404  {object}  response.Response
// @Router       /report/{id} [get]
func (h *ReportHandler) GetReport(c *gin.Context) {
	report, err := h.reportService.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, report))
}

// UpdateReport handles PUT /report/:id partial edits
// @Summary      Update a report
// @Description  Owner or admin only. Non-admin edits of significant fields put the report back into the approval queue.
// @Tags         reports
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string                       true  "Report ID"
// @Param        payload  body      service.UpdateReportRequest  true  "Partial Report Payload"
// @Success      200      {object}  response.Response{data=model.Report}
// @Failure      400      {object}  response.Response
// @Failure      403      {object}  response.Response
// @Failure      404      {object}  response.Response
// @Router       /report/{id} [put]
func (h *ReportHandler) UpdateReport(c *gin.Context) {
	var req service.UpdateReportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	report, msg, err := h.reportService.Update(c.Request.Context(), caller(c), c.Param("id"), req)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, response.SuccessMsg(http.StatusOK, msg, report))
}

// DeleteReport hard-removes a report
// @Summary      Delete a report
// @Description  Owner or admin only. Also serves as the reject action for unapproved reports.
// @Tags         reports
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Report ID"
// @Success      200  {object}  response.Response
// @Failure      403  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Router       /report/{id} [delete]
func (h *ReportHandler) DeleteReport(c *gin.Context) {
	if err := h.reportService.Delete(c.Request.Context(), caller(c), c.Param("id")); err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, response.SuccessMsg(http.StatusOK, "report deleted", nil))
}

// ApproveReport lifts the admin visibility gate on a report
// @Summary      Approve a report
// @Tags         reports
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Report ID"
// @Success      200  {object}  response.Response{data=model.Report}
// @Failure      403  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Router       /report/{id}/approve [put]
func (h *ReportHandler) ApproveReport(c *gin.Context) {
	report, err := h.reportService.Approve(c.Request.Context(), caller(c), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, report))
}

// ArchiveReport hides a report without deleting it
// @Summary      Archive a report
// @Tags         reports
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Report ID"
// @Success      200  {object}  response.Response{data=model.Report}
// @Failure      400  {object}  response.Response
// @Failure      403  {object}  response.Response
// @Router       /report/{id}/archive [put]
func (h *ReportHandler) ArchiveReport(c *gin.Context) {
	report, err := h.reportService.Archive(c.Request.Context(), caller(c), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, report))
}

// UnarchiveReport restores an archived report
// @Summary      Unarchive a report
// @Tags         reports
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Report ID"
// @Success      200  {object}  response.Response{data=model.Report}
// @Failure      400  {object}  response.Response
// @Failure      403  {object}  response.Response
// @Router       /report/{id}/unarchive [put]
func (h *ReportHandler) UnarchiveReport(c *gin.Context) {
	report, err := h.reportService.Unarchive(c.Request.Context(), caller(c), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, report))
}

// PotentialMatches runs the heuristic scorer for a report
// @Summary      Get potential matches
// @Description  Ranks opposite-type candidate reports by similarity score, capped at 10.
// @Tags         matching
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Report ID"
// @Success      200  {object}  response.Response{data=[]service.ScoredReport}
// @Failure      400  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Router       /report/potential-matches/{id} [get]
func (h *ReportHandler) PotentialMatches(c *gin.Context) {
	matches, err := h.matchService.GetPotentialMatches(c.Request.Context(), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, matches))
}

type matchRequest struct {
	FirstReportID  string `json:"first_report_id" binding:"required"`
	SecondReportID string `json:"second_report_id" binding:"required"`
}

// MatchReports binds two opposite-type pending reports together
// @Summary      Match two reports
// @Tags         matching
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        payload  body      matchRequest  true  "Report ID Pair"
// @Success      200      {object}  response.Response
// @Failure      400      {object}  response.Response
// @Failure      403      {object}  response.Response
// @Failure      404      {object}  response.Response
// @Router       /report/match [post]
func (h *ReportHandler) MatchReports(c *gin.Context) {
	var req matchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	first, second, err := h.matchService.Match(c.Request.Context(), caller(c), req.FirstReportID, req.SecondReportID)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{
		"first":  first,
		"second": second,
	}))
}

// UnmatchReport dissolves an existing match pair
// @Summary      Unmatch a report
// @Tags         matching
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Report ID"
// @Success      200  {object}  response.Response{data=model.Report}
// @Failure      400  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Router       /report/{id}/unmatch [put]
func (h *ReportHandler) UnmatchReport(c *gin.Context) {
	report, err := h.matchService.Unmatch(c.Request.Context(), caller(c), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, report))
}

// ReuniteReport marks a matched pair as reunited
// @Summary      Mark a report reunited
// @Tags         matching
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Report ID"
// @Success      200  {object}  response.Response{data=model.Report}
// @Failure      400  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Router       /report/{id}/reunited [put]
func (h *ReportHandler) ReuniteReport(c *gin.Context) {
	report, err := h.matchService.Reunite(c.Request.Context(), caller(c), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, report))
}
