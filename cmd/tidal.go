package main

import (
	"context"
	"fmt"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/Rovitz/spotify2tidal/internal/services"
	"github.com/Rovitz/spotify2tidal/internal/shared"
)

// TidalAuth performs the OAuth2 device authorization flow for Tidal.
//
// Prints a verification URL and user code, then polls the token endpoint
// until the user approves the device. The service persists the session.
func (r *Runner) TidalAuth(ctx context.Context, cmd *cli.Command) error {
	config, err := r.commandConfig(cmd)
	if err != nil {
		return err
	}

	if config.Credentials.Tidal.ClientID == "" || config.Credentials.Tidal.ClientSecret == "" {
		return fmt.Errorf("%w: tidal client_id and client_secret must be set in config.toml", shared.ErrInvalidArgument)
	}

	srv, err := services.NewTidalService(config.Credentials.Tidal.Map(), r.sessionStore())
	if err != nil {
		return fmt.Errorf("failed to create tidal service: %w", err)
	}
	if config.Sync.SearchLimit > 0 {
		srv.SetSearchLimit(config.Sync.SearchLimit)
	}
	r.tidal = srv

	if token := cmd.String("token"); token != "" {
		if err := srv.Authenticate(ctx, map[string]string{"access_token": token}); err != nil {
			return fmt.Errorf("failed to authenticate with token: %w", err)
		}
		if err := srv.CheckSession(ctx); err != nil {
			return err
		}
		r.writePlainln("✓ Access token accepted (valid until it expires, no refresh)")
		return nil
	}

	auth, err := srv.StartDeviceAuth(ctx)
	if err != nil {
		return err
	}

	r.writePlainHeader("Tidal Device Authorization")
	r.writePlain("1. Open %s in a browser\n", auth.VerificationURI)
	r.writePlain("2. Enter the code: %s\n\n", auth.UserCode)

	if auth.VerificationURIComplete != "" {
		if err := shared.OpenBrowser(auth.VerificationURIComplete); err != nil {
			r.logger.Warnf("failed to open browser automatically %v", err)
		}
	}

	r.writePlain("→ Waiting for approval (code expires at %s)...\n", auth.Expiry.Format(time.Kitchen))

	if err := srv.CompleteDeviceAuth(ctx, auth); err != nil {
		return err
	}

	r.writePlainln("✓ Tidal authorization successful")
	r.writePlain("You can now run: s2t sync\n")
	return nil
}

// TidalPlaylists lists the authenticated user's Tidal playlists.
func (r *Runner) TidalPlaylists(ctx context.Context, cmd *cli.Command) error {
	limit := cmd.Int("limit")
	useJSON := cmd.Bool("json")
	pretty := cmd.Bool("pretty")

	if r.tidal == nil {
		return fmt.Errorf("%w: tidal service not initialized, check credentials in config.toml", shared.ErrServiceUnavailable)
	}

	if err := r.tidal.Authenticate(ctx, nil); err != nil {
		return fmt.Errorf("%w: run 's2t tidal auth' first: %v", shared.ErrNotAuthenticated, err)
	}

	r.logger.Infof("listing tidal playlists with limit %v", limit)

	playlists, err := r.tidal.GetPlaylists(ctx)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}

	if limit > 0 && limit < len(playlists) {
		playlists = playlists[:limit]
	}

	if useJSON {
		return r.writeJSON(playlists, pretty)
	}

	r.writePlain("Found %d playlists:\n\n", len(playlists))
	for i, p := range playlists {
		r.writePlain("%d. %s\n", i+1, p.Name)
		if p.Description != "" {
			r.writePlain("   Description: %s\n", p.Description)
		}
		r.writePlain("   ID: %s\n", p.ID)
		r.writePlain("   Tracks: %d\n", p.TrackCount)
		r.writePlain("\n")
	}

	return nil
}

// tidalCommand handles Tidal operations
func tidalCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "tidal",
		Usage: "Tidal playlist operations",
		Commands: []*cli.Command{
			{
				Name:  "auth",
				Usage: "Authenticate with Tidal using the device flow",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "config",
						Aliases: []string{"c"},
						Usage:   "Path to configuration file",
						Value:   "config.toml",
					},
					&cli.StringFlag{
						Name:  "token",
						Usage: "Use a pasted access token instead of the device flow",
					},
				},
				Action: r.TidalAuth,
			},
			{
				Name:  "playlists",
				Usage: "List Tidal playlists",
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  "limit",
						Usage: "Maximum number of playlists to return",
						Value: 50,
					},
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
					&cli.BoolFlag{
						Name:  "pretty",
						Usage: "Pretty-print output",
					},
				},
				Action: r.TidalPlaylists,
			},
		},
	}
}
