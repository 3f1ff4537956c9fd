package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/spf13/cobra"
	"golang.design/x/clipboard"

	"github.com/milk9111/overlay/config"
	"github.com/milk9111/overlay/ecs"
	"github.com/milk9111/overlay/ecs/entity"
	"github.com/milk9111/overlay/ecs/render"
	"github.com/milk9111/overlay/ecs/system"
	"github.com/milk9111/overlay/particles"
	"github.com/milk9111/overlay/prefabs"
	"github.com/milk9111/overlay/twitch"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		log.Fatal(err)
	}
}

func newRootCommand() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:           "overlay",
		Short:         "Transparent stream overlay with a subathon clock and Twitch reactions",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "overlay.yaml", "config file")

	run := &cobra.Command{
		Use:   "run",
		Short: "Open the overlay window",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			return runOverlay(cfg)
		},
	}
	root.RunE = run.RunE

	validate := &cobra.Command{
		Use:   "validate",
		Short: "Check the config, prefabs, effects and reaction script",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			return validateAll(cfg)
		},
	}

	auth := &cobra.Command{
		Use:   "auth",
		Short: "Authorize the overlay with Twitch and store the tokens",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			return authorize(cmd.Context(), cfg)
		},
	}

	root.AddCommand(run, validate, auth)
	return root
}

func runOverlay(cfg *config.Config) error {
	prefabs.SetDir(cfg.Prefabs.Dir)
	if cfg.Window.Monitor > 0 {
		if monitors := ebiten.AppendMonitors(nil); cfg.Window.Monitor < len(monitors) {
			ebiten.SetMonitor(monitors[cfg.Window.Monitor])
		}
	}

	w, h := ebiten.Monitor().Size()
	if cfg.Window.Width > 0 {
		w = cfg.Window.Width
	}
	if cfg.Window.Height > 0 {
		h = cfg.Window.Height
	}
	ebiten.SetWindowSize(w, h)
	ebiten.SetWindowPosition(0, 0)
	ebiten.SetWindowTitle("overlay")
	ebiten.SetWindowDecorated(false)
	ebiten.SetWindowFloating(true)
	ebiten.SetWindowMousePassthrough(cfg.Window.Passthrough)
	ebiten.SetTPS(cfg.Window.TPS)
	ebiten.SetRunnableOnUnfocused(true)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	game, err := NewGame(ctx, cfg, w, h)
	if err != nil {
		return err
	}
	defer game.Close()

	opts := &ebiten.RunGameOptions{ScreenTransparent: cfg.Window.Transparent}
	if err := ebiten.RunGameWithOptions(game, opts); err != nil && !errors.Is(err, ebiten.Termination) {
		return err
	}
	return nil
}

// validateAll builds every prefab into a scratch world and compiles every
// effect, script and shader, reporting all failures.
func validateAll(cfg *config.Config) error {
	prefabs.SetDir(cfg.Prefabs.Dir)
	var problems []string
	fail := func(err error) {
		problems = append(problems, err.Error())
	}

	lib := particles.NewLibrary()
	for _, name := range prefabs.List("effects", ".yaml") {
		if err := prefabs.LoadEffectInto(lib, name); err != nil {
			fail(err)
		}
	}

	for _, name := range prefabs.List("scripts", ".tengo") {
		src, err := prefabs.LoadScript(name)
		if err != nil {
			fail(err)
			continue
		}
		if _, err := system.CompileReactions(src); err != nil {
			fail(fmt.Errorf("%s: %w", name, err))
		}
	}

	for _, name := range prefabs.List("", ".yaml") {
		if name == sceneFile {
			if _, err := prefabs.LoadSceneSpec(name); err != nil {
				fail(err)
			}
			continue
		}
		if _, err := entity.BuildEntity(ecs.NewWorld(), name); err != nil {
			fail(err)
		}
	}

	for _, name := range prefabs.List("shaders", ".kage") {
		if _, err := render.LoadShader(strings.TrimSuffix(name[len("shaders/"):], ".kage")); err != nil {
			fail(err)
		}
	}

	if len(problems) > 0 {
		return fmt.Errorf("validate: %d problems:\n  %s", len(problems), strings.Join(problems, "\n  "))
	}
	log.Printf("validate: ok")
	return nil
}

func authorize(ctx context.Context, cfg *config.Config) error {
	if cfg.Twitch.ClientID == "" || cfg.Twitch.ClientSecret == "" {
		return fmt.Errorf("auth: twitch.client_id and twitch.client_secret are required")
	}
	client := twitch.NewClient(twitchConfig(cfg))

	clipboardOK := clipboard.Init() == nil
	_, err := client.Authorize(ctx, func(authURL string) {
		if clipboardOK {
			clipboard.Write(clipboard.FmtText, []byte(authURL))
			log.Printf("auth: authorize URL copied to the clipboard")
		}
		fmt.Println(authURL)
	})
	if err != nil {
		return err
	}
	log.Printf("auth: tokens saved to %s", cfg.Twitch.UserTokenFile)
	return nil
}

func twitchConfig(cfg *config.Config) twitch.Config {
	return twitch.Config{
		ClientID:         cfg.Twitch.ClientID,
		ClientSecret:     cfg.Twitch.ClientSecret,
		BroadcasterLogin: cfg.Twitch.Broadcaster,
		RedirectURL:      cfg.Twitch.RedirectURL,
		UserTokenFile:    cfg.Twitch.UserTokenFile,
		RefreshTokenFile: cfg.Twitch.RefreshTokenFile,
		EventSubURL:      cfg.Twitch.EventSubURL,
		HelixURL:         cfg.Twitch.HelixURL,
	}
}
