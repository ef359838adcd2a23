package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"beatmachine/midi"
	"beatmachine/sequencer"
)

var portsCmd = &cobra.Command{
	Use:   "ports",
	Short: "List MIDI output ports",
	RunE: func(cmd *cobra.Command, args []string) error {
		defer midi.CloseDriver()

		fmt.Println("(waiting up to 3 seconds...)")
		names, err := midi.ListOutPorts()
		if err != nil {
			return err
		}
		if len(names) == 0 {
			fmt.Println("No MIDI output ports found")
			return nil
		}
		for i, name := range names {
			fmt.Printf("  [%d] %s\n", i, name)
		}
		return nil
	},
}

var auditionCmd = &cobra.Command{
	Use:   "audition",
	Short: "Play each sound of the kit once",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		defer midi.CloseDriver()

		out, err := midi.OpenOutput(cfg.Audio.PortName, cfg.Audio.Gate)
		if err != nil {
			return err
		}
		defer out.Close()

		kit := sequencer.GetKit(cfg.Audio.Kit)
		player := sequencer.NewMIDIPlayer(out, kit, cfg.Audio.Channel)
		fmt.Printf("Kit %s on %s\n", kit.Name, out.Name())
		for _, s := range sequencer.Sounds() {
			fmt.Printf("  %-10s note %d\n", s.Label(), kit.Note(s))
			if err := player.Trigger(s, time.Now(), sequencer.MaxVelocity); err != nil {
				return err
			}
			time.Sleep(400 * time.Millisecond)
		}
		return nil
	},
}
