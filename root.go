package main

import (
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"beatmachine/beats"
	"beatmachine/config"
	"beatmachine/debug"
	"beatmachine/midi"
	"beatmachine/sequencer"
	"beatmachine/theme"
	"beatmachine/tui"
)

var (
	configPath string
	debugLog   bool
	portName   string
	kitName    string
	authorID   string
	serverURL  string
)

var rootCmd = &cobra.Command{
	Use:   "beatmachine",
	Short: "Step sequencer for drum beats",
	Long: `beatmachine is a terminal drum machine: a grid of six sounds by
ten steps played in a loop through a MIDI drum output.

Beats are saved to and deleted from a beats server (see 'beatmachine serve').`,
	SilenceUsage: true,
	RunE:         runMachine,
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default ~/.config/beatmachine/config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debugLog, "debug", false, "Write a debug log")

	rootCmd.PersistentFlags().StringVar(&portName, "port", "", "MIDI output port (default first port)")
	rootCmd.PersistentFlags().StringVar(&kitName, "kit", "", "Drum kit note mapping")
	rootCmd.Flags().StringVar(&authorID, "author", "", "Author id sent with saves")
	rootCmd.Flags().StringVar(&serverURL, "url", "", "Beats server URL")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(portsCmd)
	rootCmd.AddCommand(auditionCmd)
}

func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if configPath != "" {
		cfg, err = config.LoadFromPath(configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	if flags.Changed("debug") {
		cfg.Log.Debug = debugLog
	}
	if flags.Changed("port") {
		cfg.Audio.PortName = portName
	}
	if flags.Changed("kit") {
		cfg.Audio.Kit = kitName
	}
	if flags.Changed("author") {
		cfg.Client.Author = authorID
	}
	if flags.Changed("url") {
		cfg.Client.BaseURL = serverURL
	}

	if cfg.Log.Debug {
		path := cfg.Log.File
		if path == "" {
			path = debug.DefaultPath()
		}
		if err := debug.Enable(path); err != nil {
			fmt.Fprintf(os.Stderr, "warning: debug log disabled: %v\n", err)
		}
	}
	return cfg, nil
}

// openPlayer opens the configured MIDI port. Without one the machine
// still runs, silently.
func openPlayer(cfg *config.Config) (sequencer.Player, func()) {
	out, err := midi.OpenOutput(cfg.Audio.PortName, cfg.Audio.Gate)
	if err != nil {
		fmt.Fprintf(os.Stderr, "warning: no MIDI output (%v), running muted\n", err)
		debug.Log("midi", "open output: %v", err)
		return sequencer.Mute{}, midi.CloseDriver
	}
	kit := sequencer.GetKit(cfg.Audio.Kit)
	debug.Log("midi", "playing kit %s on %s channel %d", kit.Name, out.Name(), cfg.Audio.Channel)
	return sequencer.NewMIDIPlayer(out, kit, cfg.Audio.Channel), func() {
		out.Close()
		midi.CloseDriver()
	}
}

func runMachine(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	defer debug.Disable()

	palette, err := theme.LoadOrDefault(cfg.UI.Palette)
	if err != nil {
		return fmt.Errorf("load palette: %w", err)
	}
	th := theme.New(palette)

	player, closeAudio := openPlayer(cfg)
	defer closeAudio()

	client := beats.NewClient(cfg.Client.BaseURL,
		beats.WithAuthor(cfg.Client.Author),
		beats.WithAuthorHeader(cfg.Server.AuthorHeader),
		beats.WithTimeout(cfg.Client.Timeout),
	)

	screen := tui.NewScreen()
	machine := sequencer.NewMachine(sequencer.MachineOptions{
		Steps:      cfg.Grid.Steps,
		Scheduler:  sequencer.NewClock(cfg.UI.Tempo),
		Player:     player,
		Service:    client,
		View:       screen,
		OnSave:     screen.BeatSaved,
		OnDelete:   screen.BeatDeleted,
		OnUnselect: screen.Unselect,
	})
	defer machine.Close()

	m := tui.NewModel(machine, client, screen, th)
	p := tea.NewProgram(m, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("run tui: %w", err)
	}
	return nil
}
