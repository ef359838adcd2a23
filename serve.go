package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"beatmachine/beats"
	"beatmachine/debug"
	"beatmachine/sequencer"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the beats server",
	Long: `Serve the beats REST API backed by SQLite.

Routes:
  GET    /beats       list beats
  POST   /beats       create a beat (form fields name, sound)
  GET    /beats/{id}  fetch a beat
  DELETE /beats/{id}  delete a beat you own

The author of a request is read from the configured header
(X-Beat-Author by default).`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Listen address (default :3000)")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if serveAddr != "" {
		cfg.Server.Addr = serveAddr
	}

	log, err := serverLogger(cfg.Log.Level)
	if err != nil {
		return err
	}

	dbPath := cfg.Server.DBPath
	if dbPath == "" {
		dbPath = beats.DefaultDBPath()
	}
	store, err := beats.OpenStore(dbPath)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer store.Close()
	log.WithField("db", store.Path()).Info("store opened")

	steps := cfg.Grid.Steps
	if steps < 1 {
		steps = sequencer.DefaultSteps
	}
	srv := beats.NewServer(store,
		beats.WithAuthenticator(beats.HeaderAuthenticator(cfg.Server.AuthorHeader)),
		beats.WithSoundValidator(func(sound string) error {
			return sequencer.ValidPattern(sequencer.NumSounds, steps, sound)
		}),
		beats.WithLogger(log),
	)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return srv.ListenAndServe(ctx, cfg.Server.Addr)
}

// serverLogger builds the request logger. --debug forces debug level.
func serverLogger(level string) (*logrus.Logger, error) {
	log := logrus.New()
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("log level: %w", err)
	}
	log.SetLevel(lvl)
	if debug.Enabled() {
		log.SetLevel(logrus.DebugLevel)
	}
	return log, nil
}
