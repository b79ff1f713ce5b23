package cli

import (
	"github.com/spf13/cobra"

	"github.com/alexanderramin/waypoint/internal/config"
	"github.com/alexanderramin/waypoint/internal/domain"
	"github.com/alexanderramin/waypoint/internal/server"
	"github.com/alexanderramin/waypoint/internal/service"
)

// App holds the services and settings CLI commands run against.
type App struct {
	Roadmap  service.RoadmapService
	Progress service.ProgressService

	// Owner scopes every plan and progress record the CLI touches.
	Owner string

	// Server and ServerAddr back `waypoint serve`; Auth backs `waypoint token`.
	Server     *server.Server
	ServerAddr string
	Auth       *server.TokenAuth

	// IsInteractive reports whether stdin is a terminal, enabling forms and
	// spinners.
	IsInteractive func() bool

	// Config and ConfigPath back `waypoint config`.
	Config     config.Config
	ConfigPath string

	session *domain.Session
}

// Session returns the process-wide session for the configured owner.
func (a *App) Session() *domain.Session {
	if a.session == nil || a.session.OwnerID != a.Owner {
		a.session = domain.NewSession(a.Owner)
	}
	return a.session
}

func (a *App) interactive() bool {
	return a.IsInteractive != nil && a.IsInteractive()
}

// NewRootCmd creates the top-level "waypoint" command and registers all
// subcommands against the provided App.
func NewRootCmd(app *App) *cobra.Command {
	root := &cobra.Command{
		Use:           "waypoint",
		Short:         "Goal roadmaps generated week by week, with progress tracking",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&app.Owner, "owner", app.Owner, "Owner id the plans belong to")

	root.AddCommand(
		newPlanCmd(app),
		newWeekCmd(app),
		newProgressCmd(app),
		newReflectCmd(app),
		newTrackCmd(app),
		newServeCmd(app),
		newTokenCmd(app),
		newConfigCmd(app),
	)
	return root
}
