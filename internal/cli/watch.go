package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"fleet_tracker/internal/client"
	"fleet_tracker/internal/livemap"
	"fleet_tracker/internal/models"
	"fleet_tracker/internal/realtime"
)

func init() {
	watchCmd.Flags().String("api", "http://localhost:8080", "base URL of the fleet API")
	watchCmd.Flags().String("token", os.Getenv("FLEET_TOKEN"), "session token (defaults to FLEET_TOKEN)")
	watchCmd.Flags().String("email", "", "sign in with this email instead of a token")
	watchCmd.Flags().String("password", os.Getenv("FLEET_PASSWORD"), "password for --email")
	watchCmd.Flags().String("source", "stream", "update source: stream (event stream) or realtime (websocket)")
}

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Follow the company's live map in the terminal",
	RunE: func(cmd *cobra.Command, args []string) error {
		flags := cmd.Flags()
		apiURL, _ := flags.GetString("api")
		token, _ := flags.GetString("token")
		email, _ := flags.GetString("email")
		password, _ := flags.GetString("password")
		source, _ := flags.GetString("source")

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		api := client.New(apiURL, token)
		users := client.NewUserProvider(api)
		if email != "" {
			user, err := api.SignIn(ctx, email, password)
			if err != nil {
				return fmt.Errorf("sign in: %w", err)
			}
			users.Set(user)
		}
		if api.Token() == "" {
			return errors.New("either --token or --email is required")
		}

		user, err := users.GetUser(ctx)
		if err != nil {
			return fmt.Errorf("load user: %w", err)
		}
		if !user.IsCompanyAdmin() {
			return errors.New("the signed-in user does not administer a company")
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Watching drivers for %s (%s)\n", user.Email, *user.CompanyID)
		board := livemap.NewBoard()

		switch source {
		case "stream":
			return watchStream(ctx, api, board, out)
		case "realtime":
			return watchRealtime(ctx, api, board, out)
		default:
			return fmt.Errorf("unknown source %q", source)
		}
	},
}

func watchStream(ctx context.Context, api *client.Client, board *livemap.Board, out io.Writer) error {
	return api.Stream(ctx,
		func(snapshot []models.DriverWithCar) {
			board.Load(snapshot)
			printBoard(out, board.Markers())
		},
		func(err error) {
			fmt.Fprintf(out, "stream error: %v\n", err)
		},
	)
}

// watchRealtime loads one snapshot and then applies row changes as they
// arrive over the websocket.
func watchRealtime(ctx context.Context, api *client.Client, board *livemap.Board, out io.Writer) error {
	snapshot, err := api.Drivers(ctx)
	if err != nil {
		return err
	}
	board.Load(snapshot)
	printBoard(out, board.Markers())

	return api.Subscribe(ctx, func(ch realtime.Change) {
		board.Apply(ch)
		printBoard(out, board.Markers())
	})
}

func printBoard(out io.Writer, markers []livemap.Marker) {
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "\n%s  %d drivers\n", time.Now().Format(time.TimeOnly), len(markers))
	fmt.Fprintln(tw, "DRIVER\tPHONE\tCAR\tPOSITION\tSOURCE\tUPDATED")
	for _, m := range markers {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
			m.Name, dash(m.PhoneNumber), carLabel(m.Car), position(m), positionSource(m), dash(m.LastUpdated))
	}
	tw.Flush()
}

func carLabel(car *livemap.CarInfo) string {
	if car == nil {
		return "-"
	}
	if car.PlateNumber != "" {
		return car.Name + " (" + car.PlateNumber + ")"
	}
	return dash(car.Name)
}

func position(m livemap.Marker) string {
	if !m.Plottable() {
		return "-"
	}
	return fmt.Sprintf("%.5f,%.5f", *m.Latitude, *m.Longitude)
}

func positionSource(m livemap.Marker) string {
	switch {
	case !m.Plottable():
		return "-"
	case m.Live:
		return "live"
	default:
		return "stored"
	}
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
