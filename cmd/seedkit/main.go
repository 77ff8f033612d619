package main

import "github.com/shashiranjanraj/seedkit/pkg/app"

func main() {
	app.New().Run()
}
