package main

import (
	"go.uber.org/fx"

	"github.com/Additional-Code/sketchbook/internal/app"
	"github.com/Additional-Code/sketchbook/internal/logger"
)

func main() {
	fx.New(app.Module, logger.FxLogger).Run()
}
