// The admin command groups the operational tasks that must never run as
// implicit server side effects: schema migration and catalog seeding.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/ardanlabs/conf/v3"
	"github.com/avelkova/studiofit/config"
	"github.com/avelkova/studiofit/database"
	"github.com/sirupsen/logrus"
)

func main() {
	log := logrus.New()
	log.SetOutput(os.Stdout)

	if err := run(log); err != nil {
		log.Error(err)
		os.Exit(1)
	}
}

func run(log *logrus.Logger) error {
	cfg := struct {
		conf.Version
		Args conf.Args
		DB   config.DB
	}{
		Version: conf.Version{
			Build: "develop",
			Desc:  "administrative commands",
		},
	}

	const prefix = "STUDIO"
	help, err := conf.Parse(prefix, &cfg)
	if err != nil {
		if errors.Is(err, conf.ErrHelpWanted) {
			fmt.Println(help)
			return nil
		}
		return fmt.Errorf("parsing config: %w", err)
	}

	db, err := database.Open(cfg.DB)
	if err != nil {
		return fmt.Errorf("failed to open db connection: %w", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	switch cfg.Args.Num(0) {
	case "migrate":
		if err := database.Migrate(db); err != nil {
			return fmt.Errorf("migrating database: %w", err)
		}
		log.Info("migrations complete")

	case "seed":
		if err := database.Migrate(db); err != nil {
			return fmt.Errorf("migrating database: %w", err)
		}
		if err := database.Seed(ctx, db); err != nil {
			return fmt.Errorf("seeding database: %w", err)
		}
		log.Info("seed complete")

	default:
		return errors.New("must specify a command: migrate | seed")
	}

	return nil
}
