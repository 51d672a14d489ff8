package main

import "github.com/oshokin/alarm-scheduler/cmd/alarmctl/cmd"

func main() {
	cmd.Execute()
}
