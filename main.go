package main

import "github.com/erhandundarofficial/zerobait/cmd"

func main() {
	cmd.Execute()
}
