package main

import (
	"github.com/DRSN-tech/catalog-service/internal/app"
)

func main() {
	app.Run()
}
