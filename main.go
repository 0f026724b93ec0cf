package main

import (
	"github.com/qalamhq/qalam/config"
	"github.com/qalamhq/qalam/models"
	"github.com/qalamhq/qalam/routes"
	"github.com/qalamhq/qalam/utils"
)

func main() {
	cfg := config.Load()

	// Initialize logger early
	if err := utils.InitLogger(cfg); err != nil {
		panic(err)
	}

	db := config.InitDatabase(&models.User{}, &models.Post{})

	r := routes.SetupRouter(db)

	utils.Sugar.Infof("Starting server on port %s (graceful)", cfg.AppPort)
	if err := utils.GraceServer(":"+cfg.AppPort, r); err != nil {
		utils.Sugar.Fatalf("server stopped with error: %v", err)
	}
}
