package main

import "github.com/varalys/entroscan/cmd/entroscan"

func main() { entroscan.Execute() }
