/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>

*/
package main

import "b00m.in/landgrid/cmd"

func main() {
	cmd.Execute()
}
