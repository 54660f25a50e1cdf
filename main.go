/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package main

import "github.com/relaychat/server/cmd"

func main() {
	cmd.Execute()
}
