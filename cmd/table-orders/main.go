package main

import "table-orders/internal/cli"

func main() {
	cli.Execute()
}
