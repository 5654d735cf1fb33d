package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/luckygas/luckygas/api/middleware"
	model2 "github.com/luckygas/luckygas/api/model"
	"github.com/luckygas/luckygas/internal/apierror"
	"github.com/luckygas/luckygas/model"
)

// driverTokenTTL bounds how long an issued device token stays valid.
const driverTokenTTL = 30 * 24 * time.Hour

func (a Api) CreateDriver(c *gin.Context) {
	var newDriver model2.CreateDriver
	if err := c.ShouldBindJSON(&newDriver); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"errors": err.Error()})
		return
	}

	if err := newDriver.ValidateCreateDriver(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"errors": err.Error()})
		return
	}

	resp, err := a.luckygas.CreateDriver(c.Request.Context(), newDriver.ToDriver())
	if err != nil {
		c.JSON(apierror.MapErrorToHTTPStatus(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, resp)
}

func (a Api) GetDriver(c *gin.Context) {
	id, passed := c.Params.Get("id")
	if !passed {
		c.JSON(http.StatusBadRequest, gin.H{"error": "id is required. pass id in the route /:id"})
		return
	}

	resp, err := a.luckygas.GetDriverByID(c.Request.Context(), id)
	if err != nil {
		c.JSON(apierror.MapErrorToHTTPStatus(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (a Api) GetAllDrivers(c *gin.Context) {
	filter := model.DriverFilter{
		Limit:  queryInt(c, "limit", 50),
		Offset: queryInt(c, "offset", 0),
	}
	if available := c.Query("available"); available != "" {
		parsed, err := strconv.ParseBool(available)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "available must be true or false"})
			return
		}
		filter.Available = &parsed
	}

	resp, err := a.luckygas.GetAllDrivers(c.Request.Context(), filter)
	if err != nil {
		c.JSON(apierror.MapErrorToHTTPStatus(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (a Api) SetDriverAvailability(c *gin.Context) {
	id, passed := c.Params.Get("id")
	if !passed {
		c.JSON(http.StatusBadRequest, gin.H{"error": "id is required. pass id in the route /:id"})
		return
	}

	var availability model2.SetAvailability
	if err := c.ShouldBindJSON(&availability); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"errors": err.Error()})
		return
	}
	if err := availability.ValidateSetAvailability(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"errors": err.Error()})
		return
	}

	if err := a.luckygas.SetDriverAvailability(c.Request.Context(), id, *availability.Available); err != nil {
		c.JSON(apierror.MapErrorToHTTPStatus(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "driver availability updated"})
}

// IssueDriverToken issues the JWT a driver device uses for sync replays. Only
// the back office can mint tokens, for drivers that exist.
func (a Api) IssueDriverToken(c *gin.Context) {
	id, passed := c.Params.Get("id")
	if !passed {
		c.JSON(http.StatusBadRequest, gin.H{"error": "id is required. pass id in the route /:id"})
		return
	}

	driver, err := a.luckygas.GetDriverByID(c.Request.Context(), id)
	if err != nil {
		c.JSON(apierror.MapErrorToHTTPStatus(err), gin.H{"error": err.Error()})
		return
	}

	token, err := middleware.IssueDriverToken(driver.DriverID, driverTokenTTL)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"token": token, "driver_id": driver.DriverID})
}
