package main

import "github.com/vibast-solutions/ms-go-payment-intake/cmd"

func main() {
	cmd.Execute()
}
