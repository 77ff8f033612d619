// Package main is a minimal project using seedkit with Go and SQL seeds.
//
// To run this example:
//
//	cd example
//	go run . run
//	go run . status
//	go run . rollback
package main

import (
	"github.com/shashiranjanraj/seedkit/example/models"
	"github.com/shashiranjanraj/seedkit/pkg/app"

	_ "github.com/shashiranjanraj/seedkit/example/seeders"
)

func main() {
	app.New().
		AutoMigrate(&models.Role{}, &models.User{}).
		Run()
}
