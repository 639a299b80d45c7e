package main

import (
	"fmt"
	"os"

	"github.com/neurobridge-labs/infobar-core/internal/app"
	"github.com/neurobridge-labs/infobar-core/internal/config"
)

func main() {
	a, err := app.New()
	if err != nil {
		fmt.Printf("failed to initialize app: %v\n", err)
		os.Exit(1)
	}
	defer a.Close()

	port := config.GetEnv("PORT", "8080", a.Log)
	fmt.Printf("info-bar core listening on :%s\n", port)
	if err := a.Run(":" + port); err != nil {
		a.Log.Warn("server exited", "error", err)
	}
}
