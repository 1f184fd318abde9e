package main

import "ticketinsights/internal/app"

func main() {
	app.Main()
}
