/*
Copyright 2024 Lucky Gas Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package api

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/xuri/excelize/v2"

	"github.com/luckygas/luckygas/internal/apierror"
	"github.com/luckygas/luckygas/model"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// ExportOrdersReport streams the order book as an XLSX workbook for the
// dashboard's export function. Filters mirror GET /orders.
func (a Api) ExportOrdersReport(c *gin.Context) {
	filter := model.OrderFilter{
		CustomerID: c.Query("customer_id"),
		RouteID:    c.Query("route_id"),
		Status:     model.OrderStatus(c.Query("status")),
		Limit:      queryInt(c, "limit", 1000),
		Offset:     queryInt(c, "offset", 0),
	}

	orders, err := a.luckygas.GetAllOrders(c.Request.Context(), filter)
	if err != nil {
		c.JSON(apierror.MapErrorToHTTPStatus(err), gin.H{"error": err.Error()})
		return
	}

	file := excelize.NewFile()
	defer file.Close()

	sheet := "Orders"
	if err := file.SetSheetName("Sheet1", sheet); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	headers := []string{"Order ID", "Customer ID", "Route ID", "Status", "Total", "Scheduled Date", "Delivered At", "Created At"}
	for i, header := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = file.SetCellValue(sheet, cell, header)
	}

	for row, order := range orders {
		deliveredAt := ""
		if order.DeliveredAt != nil {
			deliveredAt = order.DeliveredAt.Format(time.RFC3339)
		}
		values := []interface{}{
			order.OrderID,
			order.CustomerID,
			order.RouteID,
			string(order.Status),
			order.Total.String(),
			order.ScheduledDate.Format("2006-01-02"),
			deliveredAt,
			order.CreatedAt.Format(time.RFC3339),
		}
		for col, value := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row+2)
			_ = file.SetCellValue(sheet, cell, value)
		}
	}

	writeWorkbook(c, file, fmt.Sprintf("orders-%s.xlsx", time.Now().Format("2006-01-02")))
}

// ExportDeliveriesReport streams completed deliveries as an XLSX workbook.
func (a Api) ExportDeliveriesReport(c *gin.Context) {
	filter := model.DeliveryFilter{
		DriverID: c.Query("driver_id"),
		Limit:    queryInt(c, "limit", 1000),
		Offset:   queryInt(c, "offset", 0),
	}

	deliveries, err := a.luckygas.GetAllDeliveries(c.Request.Context(), filter)
	if err != nil {
		c.JSON(apierror.MapErrorToHTTPStatus(err), gin.H{"error": err.Error()})
		return
	}

	file := excelize.NewFile()
	defer file.Close()

	sheet := "Deliveries"
	if err := file.SetSheetName("Sheet1", sheet); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	headers := []string{"Delivery ID", "Order ID", "Route ID", "Driver ID", "Cylinders Delivered", "Cylinders Collected", "Completed At"}
	for i, header := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = file.SetCellValue(sheet, cell, header)
	}

	for row, delivery := range deliveries {
		values := []interface{}{
			delivery.DeliveryID,
			delivery.OrderID,
			delivery.RouteID,
			delivery.DriverID,
			delivery.CylindersDelivered,
			delivery.CylindersCollected,
			delivery.CompletedAt.Format(time.RFC3339),
		}
		for col, value := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row+2)
			_ = file.SetCellValue(sheet, cell, value)
		}
	}

	writeWorkbook(c, file, fmt.Sprintf("deliveries-%s.xlsx", time.Now().Format("2006-01-02")))
}

func writeWorkbook(c *gin.Context, file *excelize.File, filename string) {
	c.Header("Content-Type", xlsxContentType)
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	if err := file.Write(c.Writer); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}
