package main

import "github.com/rudderlabs/analytics-go/internal/cli"

func main() {
	cli.Execute()
}
