package main

import (
	"fmt"

	"bitwise74/storage-api/api"
	"bitwise74/storage-api/config"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func main() {
	gin.SetMode(gin.ReleaseMode)

	cfg, err := config.Setup()
	if err != nil {
		panic(err)
	}

	a, err := api.NewRouter(cfg)
	if err != nil {
		panic(err)
	}

	zap.L().Info("Server starting", zap.Int("port", cfg.Port))

	err = a.Router.Run(fmt.Sprintf(":%d", cfg.Port))
	if err != nil {
		panic(err)
	}
}
