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
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/luckygas/luckygas"
	"github.com/luckygas/luckygas/api/middleware"
	"github.com/luckygas/luckygas/config"
	"github.com/luckygas/luckygas/internal/cache"
	"github.com/luckygas/luckygas/internal/respcache"
)

type Api struct {
	luckygas  *luckygas.LuckyGas
	router    *gin.Engine
	hub       *Hub
	respStore *respcache.Store
}

// Router registers every route under /api/v1. Back-office routes sit behind
// the secret key; the sync routes behind driver JWTs. Read endpoints carry
// the network-first response cache so dashboards keep data during outages;
// the websocket route stays outside it because its connection is hijacked.
func (a Api) Router() *gin.Engine {
	router := a.router
	office := router.Group("/api/v1", middleware.SecretKeyAuthMiddleware())
	if a.respStore != nil {
		office.Use(a.respStore.Middleware())
	}

	office.POST("/customers", a.CreateCustomer)
	office.GET("/customers/:id", a.GetCustomer)
	office.GET("/customers", a.GetAllCustomers)
	office.PUT("/customers/:id", a.UpdateCustomer)
	office.DELETE("/customers/:id", a.DeleteCustomer)

	office.POST("/orders", a.CreateOrder)
	office.GET("/orders/:id", a.GetOrder)
	office.GET("/orders", a.GetAllOrders)
	office.PUT("/orders/:id/status", a.UpdateOrderStatus)
	office.PUT("/orders/:id/route", a.AssignOrderToRoute)

	office.POST("/routes", a.CreateRoute)
	office.GET("/routes/:id", a.GetRoute)
	office.GET("/routes", a.GetAllRoutes)
	office.PUT("/routes/:id/status", a.UpdateRouteStatus)
	office.PUT("/routes/:id/driver", a.AssignDriverToRoute)

	office.POST("/drivers", a.CreateDriver)
	office.GET("/drivers/:id", a.GetDriver)
	office.GET("/drivers", a.GetAllDrivers)
	office.PUT("/drivers/:id/availability", a.SetDriverAvailability)
	office.POST("/drivers/:id/token", a.IssueDriverToken)

	office.GET("/deliveries/:id", a.GetDelivery)
	office.GET("/deliveries", a.GetAllDeliveries)

	office.GET("/mocked-customer", a.generateMockCustomer)

	office.GET("/reports/orders", a.ExportOrdersReport)
	office.GET("/reports/deliveries", a.ExportDeliveriesReport)

	office.GET("/backup", a.BackupDB)
	office.GET("/backup-s3", a.BackupDBS3)

	office.POST("/search/:collection", a.Search)
	office.POST("/multi-search", a.MultiSearch)

	router.GET("/api/v1/ws", middleware.SecretKeyAuthMiddleware(), a.DashboardWS)

	driver := router.Group("/api/v1/sync", middleware.DriverAuthMiddleware())
	driver.POST("/:type", a.ReplayMutation)
	driver.GET("/progress", a.SyncProgress)

	return a.router
}

func NewAPI(l *luckygas.LuckyGas) *Api {
	gin.SetMode(gin.ReleaseMode)
	conf, err := config.Fetch()
	if err != nil {
		return nil
	}
	r := gin.Default()
	r.Use(otelgin.Middleware("luckygas"))
	r.Use(middleware.RateLimitMiddleware(conf))

	var respStore *respcache.Store
	if responseCache, err := cache.NewCache(); err == nil {
		respStore = respcache.NewStore(responseCache, conf.Cache.Version, conf.Cache.ResponseTTL)
	}

	r.GET("/", func(c *gin.Context) {
		c.JSON(200, "server running...")
	})
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return &Api{luckygas: l, router: r, hub: NewHub(l.Events()), respStore: respStore}
}
