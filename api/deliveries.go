package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/luckygas/luckygas/internal/apierror"
	"github.com/luckygas/luckygas/model"
)

func (a Api) GetDelivery(c *gin.Context) {
	id, passed := c.Params.Get("id")
	if !passed {
		c.JSON(http.StatusBadRequest, gin.H{"error": "id is required. pass id in the route /:id"})
		return
	}

	resp, err := a.luckygas.GetDeliveryByID(c.Request.Context(), id)
	if err != nil {
		c.JSON(apierror.MapErrorToHTTPStatus(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (a Api) GetAllDeliveries(c *gin.Context) {
	filter := model.DeliveryFilter{
		OrderID:  c.Query("order_id"),
		DriverID: c.Query("driver_id"),
		Limit:    queryInt(c, "limit", 50),
		Offset:   queryInt(c, "offset", 0),
	}

	resp, err := a.luckygas.GetAllDeliveries(c.Request.Context(), filter)
	if err != nil {
		c.JSON(apierror.MapErrorToHTTPStatus(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, resp)
}
