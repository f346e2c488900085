package server

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/Voltaic314/DataRoom/db"
	"github.com/Voltaic314/DataRoom/types/api"
)

type HealthResponse struct {
	Status   string `json:"status"`
	Service  string `json:"service"`
	Database string `json:"database"`
}

// HandleHealth handles health check requests. It answers 503 when the
// database does not respond.
func HandleHealth(w http.ResponseWriter, r *http.Request, server interface{}) {
	database := server.(interface{ GetDB() *db.DB }).GetDB()

	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	var one int
	if err := database.QueryRow(ctx, "SELECT 1").Scan(&one); err != nil {
		log.Printf("⚠️  Health check failed: %v", err)
		api.NewErrorResponse("Database unavailable").SendJSON(w, http.StatusServiceUnavailable)
		return
	}
	api.Success(w, HealthResponse{Status: "healthy", Service: "DataRoom", Database: database.Driver()})
}
