package main

import "github.com/honeycarbs/job-sync/internal/cli"

func main() {
	cli.Execute()
}
