package main

import "github.com/slackito/zip/cmd"

// version is overridden at build time
var version = "dev"

func main() {
	cmd.Execute(version)
}
