package main

import "fmt"

func (cli *commandLine) listSlots() error {
	slots, err := cli.storage.Slots(cli.ctx)
	if err != nil {
		return err
	}
	for _, slot := range slots {
		fmt.Fprintln(cli.out, slot)
	}
	return nil
}
