package main

import (
	"fmt"

	"github.com/infoshare/backend/bootstrap"
	"github.com/infoshare/backend/config"
	"github.com/infoshare/backend/controllers"
)

func main() {
	r := bootstrap.Bootstrap()
	r.GET("/", controllers.Home)
	port := config.GetPort()
	r.Run(fmt.Sprintf(":%d", port))
}
