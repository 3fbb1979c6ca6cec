package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/desertthunder/playdeck/internal/filters"
	"github.com/desertthunder/playdeck/internal/formatter"
	"github.com/desertthunder/playdeck/internal/models"
	"github.com/desertthunder/playdeck/internal/repositories"
	"github.com/desertthunder/playdeck/internal/shared"
	"github.com/desertthunder/playdeck/internal/tasks"
	"github.com/urfave/cli/v3"
)

// resolveProfile finds a profile by ID, then by exact name.
func resolveProfile(repo *repositories.ProfileRepository, ref string) (*models.Profile, error) {
	if ref == "" {
		return nil, fmt.Errorf("%w: profile id or name", shared.ErrMissingArgument)
	}
	profile, err := repo.Get(ref)
	if err == nil {
		return profile, nil
	}
	if !errors.Is(err, shared.ErrProfileNotFound) {
		return nil, err
	}
	return repo.FindByName(ref)
}

// ProfileCreate saves a new profile.
func (r *Runner) ProfileCreate(ctx context.Context, cmd *cli.Command) error {
	repo, err := r.profileRepository()
	if err != nil {
		return err
	}

	profile := models.NewProfile(cmd.StringArg("name"), filters.ParseKeywords(cmd.String("keywords")), cmd.String("color"))
	profile.SetIcon(cmd.String("icon"))
	if err := repo.Create(profile); err != nil {
		return err
	}

	r.logger.Info("profile created", "id", profile.ID(), "name", profile.Name())
	r.writePlain("✓ Created profile %s\n", profile.Name())
	r.writePlain("  ID: %s\n", profile.ID())
	return r.writePlain("  Keywords: %s\n", strings.Join(profile.Keywords(), ", "))
}

// ProfileList prints every saved profile.
func (r *Runner) ProfileList(ctx context.Context, cmd *cli.Command) error {
	repo, err := r.profileRepository()
	if err != nil {
		return err
	}

	profiles, err := repo.List(map[string]any{"name": cmd.String("name")})
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(profiles, cmd.Bool("pretty"))
	}

	if len(profiles) == 0 {
		return r.writePlain("No profiles yet. Create one with: playdeck profiles create <name> --keywords a,b\n")
	}

	r.writePlain("Found %d profiles:\n\n", len(profiles))
	for i, p := range profiles {
		r.writePlain("%d. %s\n", i+1, p.Name())
		r.writePlain("   ID: %s\n", p.ID())
		r.writePlain("   Keywords: %s\n", strings.Join(p.Keywords(), ", "))
		if p.Color() != "" {
			r.writePlain("   Color: %s\n", p.Color())
		}
		r.writePlain("   Updated: %s\n\n", formatter.RelativeTime(p.UpdatedAt()))
	}
	return nil
}

// ProfileUpdate changes the fields given on the command line.
func (r *Runner) ProfileUpdate(ctx context.Context, cmd *cli.Command) error {
	repo, err := r.profileRepository()
	if err != nil {
		return err
	}

	profile, err := resolveProfile(repo, cmd.StringArg("profile"))
	if err != nil {
		return err
	}

	if cmd.IsSet("name") {
		profile.SetName(cmd.String("name"))
	}
	if cmd.IsSet("keywords") {
		profile.SetKeywords(filters.ParseKeywords(cmd.String("keywords")))
	}
	if cmd.IsSet("color") {
		profile.SetColor(cmd.String("color"))
	}
	if cmd.IsSet("icon") {
		profile.SetIcon(cmd.String("icon"))
	}

	if err := repo.Update(profile); err != nil {
		return err
	}
	return r.writePlain("✓ Updated profile %s\n", profile.Name())
}

// ProfileDelete soft-deletes a profile.
func (r *Runner) ProfileDelete(ctx context.Context, cmd *cli.Command) error {
	repo, err := r.profileRepository()
	if err != nil {
		return err
	}

	profile, err := resolveProfile(repo, cmd.StringArg("profile"))
	if err != nil {
		return err
	}
	if err := repo.Delete(profile.ID()); err != nil {
		return err
	}
	return r.writePlain("✓ Deleted profile %s\n", profile.Name())
}

// ProfileMatch lists the playlists whose names contain one of the profile's keywords.
func (r *Runner) ProfileMatch(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireSpotify(); err != nil {
		return err
	}
	repo, err := r.profileRepository()
	if err != nil {
		return err
	}

	profile, err := resolveProfile(repo, cmd.StringArg("profile"))
	if err != nil {
		return err
	}

	matched := filters.FilterPlaylistsByProfile(r.spotify.UserPlaylists(ctx), profile)
	if cmd.Bool("json") {
		return r.writeJSON(map[string]any{"profile": profile, "playlists": matched}, cmd.Bool("pretty"))
	}

	r.writePlain("Profile: %s (%s)\n", profile.Name(), strings.Join(profile.Keywords(), ", "))
	return r.writePlaylists(matched)
}

// ProfileGroups groups every playlist under each profile it matches.
func (r *Runner) ProfileGroups(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireSpotify(); err != nil {
		return err
	}
	repo, err := r.profileRepository()
	if err != nil {
		return err
	}

	profiles, err := repo.List(nil)
	if err != nil {
		return err
	}

	groups := filters.GroupPlaylistsByProfiles(r.spotify.UserPlaylists(ctx), profiles)
	if cmd.Bool("json") {
		return r.writeJSON(groups, cmd.Bool("pretty"))
	}

	for _, p := range profiles {
		r.writePlainHeader(fmt.Sprintf("%s (%d)", p.Name(), len(groups[p.ID()])))
		for _, pl := range groups[p.ID()] {
			r.writePlain("  • %s\n", pl.Name)
		}
		r.writePlain("\n")
	}
	return nil
}

// ProfileExport writes every playlist matching a profile to disk.
func (r *Runner) ProfileExport(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireSpotify(); err != nil {
		return err
	}
	repo, err := r.profileRepository()
	if err != nil {
		return err
	}

	profile, err := resolveProfile(repo, cmd.StringArg("profile"))
	if err != nil {
		return err
	}

	playlists := filters.FilterPlaylistsByProfile(r.spotify.UserPlaylists(ctx), profile)
	if len(playlists) == 0 {
		return r.writePlain("No playlists match profile %s\n", profile.Name())
	}

	r.writePlain("Exporting %d playlists for %s...\n", len(playlists), profile.Name())

	progress, wait := r.reportProgress(len(playlists) * 2)
	result, err := r.engine.BulkExport(ctx, progress, playlists, tasks.BulkExportOpts{
		Format:     cmd.String("format"),
		OutputDir:  cmd.String("output"),
		NumWorkers: cmd.Int("workers"),
		RateLimit:  cmd.Float("rate"),
		Profile:    profile.Name(),
		WithCovers: cmd.Bool("covers"),
	})
	wait()
	if err != nil {
		return err
	}

	r.writePlain("\n")
	r.writePlainHeader("Export Complete")
	r.writePlain("Output: %s\n", result.OutputDirectory)
	r.writePlain("Exported: %d/%d\n", result.SuccessfulExports, result.TotalPlaylists)
	if result.FailedExports > 0 {
		r.writePlain("\nFailed to export %d playlists:\n", result.FailedExports)
		for _, res := range result.Results {
			if !res.Success {
				r.writePlain("  - %s: %v\n", res.PlaylistName, res.Error)
			}
		}
	}
	return r.writePlain("Manifest: %s\n", result.ManifestPath)
}
