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
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/luckygas/luckygas/api/middleware"
	model2 "github.com/luckygas/luckygas/api/model"
	"github.com/luckygas/luckygas/internal/apierror"
	"github.com/luckygas/luckygas/model"
)

// IdempotencyHeader carries the key minted when the mutation was first
// queued on the device. Every replay of the same item repeats it.
const IdempotencyHeader = "X-Idempotency-Key"

// ReplayMutation handles POST /api/v1/sync/:type, the receiving end of the
// driver queue replay. Per-driver passes are serialized behind a Redis lock;
// a concurrent pass for the same driver gets a 503 and the agent retries on
// its next sync.
func (a Api) ReplayMutation(c *gin.Context) {
	mutationType := model.MutationType(c.Param("type"))
	if !model.ValidMutationType(mutationType) {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("unknown mutation type: %s", mutationType)})
		return
	}

	idempotencyKey := c.GetHeader(IdempotencyHeader)
	if idempotencyKey == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("%s header is required", IdempotencyHeader)})
		return
	}

	var replay model2.ReplayMutation
	if err := c.ShouldBindJSON(&replay); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"errors": err.Error()})
		return
	}
	if err := replay.ValidateReplayMutation(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"errors": err.Error()})
		return
	}

	if tokenDriver := middleware.DriverFromContext(c); tokenDriver != "" && tokenDriver != replay.DriverID {
		c.JSON(http.StatusForbidden, gin.H{"error": "token does not belong to this driver"})
		return
	}

	item := replay.ToQueueItem(mutationType, idempotencyKey)

	var duplicate bool
	err := a.luckygas.WithSyncPassLock(c.Request.Context(), replay.DriverID, func(ctx context.Context) error {
		var applyErr error
		duplicate, applyErr = a.luckygas.ApplyMutation(ctx, replay.DriverID, &item)
		return applyErr
	})
	if err != nil {
		c.JSON(apierror.MapErrorToHTTPStatus(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "applied", "duplicate": duplicate})
}

// SyncProgress reports the audit trail of a driver's replayed mutations.
func (a Api) SyncProgress(c *gin.Context) {
	driverID := middleware.DriverFromContext(c)
	if driverID == "" {
		driverID = c.Query("driver_id")
	}
	if driverID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "driver_id is required"})
		return
	}

	mutations, err := a.luckygas.GetSyncMutations(c.Request.Context(), driverID, queryInt(c, "limit", 50), queryInt(c, "offset", 0))
	if err != nil {
		c.JSON(apierror.MapErrorToHTTPStatus(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"driver_id": driverID, "mutations": mutations})
}
