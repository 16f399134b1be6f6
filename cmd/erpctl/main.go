// Command erpctl is a terminal front end for the ERP portal API.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/hongminglow/erp-portal/internal/client"
	"github.com/hongminglow/erp-portal/internal/config"
	"github.com/hongminglow/erp-portal/internal/guard"
	"github.com/hongminglow/erp-portal/internal/logging"
	"github.com/hongminglow/erp-portal/internal/session"
)

const usage = `usage: erpctl <command> [flags]

commands:
  login -u <utilisateur> [-p <mot de passe>]
  logout
  whoami
  register -u <utilisateur> -p <mot de passe> -role <rôle> [-employee <id>]
  passwd -old <actuel> -new <nouveau>
  check-username <utilisateur>
  employees
  clients [-q terme] [-page n] [-size n] [-sort colonne] [-desc] [-city ville]
  client-add -code <code> -name <nom> [-email e] [-phone t] [-city v]
  client-rm <id>
  search        recherche de clients au fil de la saisie (stdin)
  open <route>  affiche où mène une navigation
`

type app struct {
	cfg      config.ClientConfig
	sessions *session.Store
	router   *guard.Router
	auth     *client.AuthService
	clients  *client.ClientService
	logger   zerolog.Logger
	stdin    io.Reader
	out      io.Writer
}

func main() {
	_ = godotenv.Load()

	cfg, err := config.LoadClient()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	logger := logging.Setup(cfg.LogLevel, cfg.Production)

	sessions := session.NewStore(
		session.WithPersister(session.NewFilePersister(cfg.SessionFile)),
		session.WithLogger(logger),
	)
	router := guard.NewRouter(sessions, guard.DefaultRoutes(), logger)
	c := client.New(cfg.APIURL, sessions, router,
		client.WithTimeout(cfg.HTTPTimeout),
		client.WithLogger(logger),
	)

	a := &app{
		cfg:      cfg,
		sessions: sessions,
		router:   router,
		auth:     client.NewAuthService(c, sessions),
		clients:  client.NewClientService(c),
		logger:   logger,
		stdin:    os.Stdin,
		out:      os.Stdout,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := a.run(ctx, os.Args[1:]); err != nil {
		switch {
		case errors.Is(err, flag.ErrHelp):
			stop()
			os.Exit(0)
		case errors.Is(err, errUsage):
			fmt.Fprintln(os.Stderr, err)
		default:
			fmt.Fprintln(os.Stderr, client.UserMessage(err))
		}
		logger.Debug().Err(err).Msg("command failed")
		stop()
		os.Exit(1)
	}
}
