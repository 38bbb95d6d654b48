package main

import (
	"go.uber.org/fx"

	"github.com/you/homeauth/internal/app"
)

func main() {
	fx.New(app.Module).Run()
}
