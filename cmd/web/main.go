package main

import "dthink_backend/internal/app"

func main() {
	app.Run()
}
