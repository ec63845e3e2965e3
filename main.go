package main

import "github.com/hiramhuang/mui-toolpad/cmd"

func main() {
	cmd.Execute()
}
