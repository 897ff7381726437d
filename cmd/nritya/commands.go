package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ayusman/nritya/internal/app"
	"github.com/ayusman/nritya/internal/capture"
	"github.com/ayusman/nritya/internal/config"
	"github.com/ayusman/nritya/internal/controller"
	"github.com/ayusman/nritya/internal/detector"
	"github.com/ayusman/nritya/internal/gesture"
	"github.com/ayusman/nritya/internal/plugin"
	"github.com/ayusman/nritya/internal/recovery"
	"github.com/ayusman/nritya/internal/server"
	"github.com/ayusman/nritya/internal/store"
	"github.com/ayusman/nritya/internal/tray"
)

var rootCmd = &cobra.Command{
	Use:   "nritya",
	Short: "Gesture-controlled slideshow",
	Long: `Nritya watches a webcam for hand gestures and turns them into slideshow
commands: swipe to change slides, open palm to play, closed fist to pause.`,
	SilenceUsage: true,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the camera pipeline, HTTP API and tray",
	RunE:  runServe,
}

var simulateCmd = &cobra.Command{
	Use:   "simulate [keys...]",
	Short: "Feed keyboard triggers through the debouncer and print emitted events",
	Long: `Feeds keys (arguments, or whitespace-separated tokens on stdin) through the
keyboard trigger path. Arrow keys swipe, o/space open palm, f closed fist,
p pointing, t thumb up.`,
	RunE: runSimulate,
}

var profilesCmd = &cobra.Command{
	Use:   "profiles",
	Short: "List saved calibration profiles",
	RunE:  runProfilesList,
}

var profilesActivateCmd = &cobra.Command{
	Use:   "activate <id>",
	Short: "Load a profile at the next start",
	Args:  cobra.ExactArgs(1),
	RunE:  runProfilesActivate,
}

var profilesDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a saved profile",
	Args:  cobra.ExactArgs(1),
	RunE:  runProfilesDelete,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags (override config file)
	rootCmd.PersistentFlags().IntP("camera", "c", 0, "camera device index")
	rootCmd.PersistentFlags().StringP("addr", "a", ":8080", "HTTP listen address")
	rootCmd.PersistentFlags().String("data-dir", "", "data directory (default ~/.nritya)")
	rootCmd.PersistentFlags().String("plugin-dir", "", "plugin directory (default <data-dir>/plugins)")
	rootCmd.PersistentFlags().Bool("tray", true, "show the system tray menu")
	rootCmd.PersistentFlags().BoolP("debug", "D", false, "enable debug output")

	profilesCmd.AddCommand(profilesActivateCmd, profilesDeleteCmd)
	rootCmd.AddCommand(serveCmd, simulateCmd, profilesCmd)
}

// bindFlags binds flags to viper keys.
func bindFlags() {
	flags := rootCmd.PersistentFlags()
	viper.BindPFlag("camera_device", flags.Lookup("camera"))
	viper.BindPFlag("addr", flags.Lookup("addr"))
	viper.BindPFlag("data_dir", flags.Lookup("data-dir"))
	viper.BindPFlag("plugin_dir", flags.Lookup("plugin-dir"))
	viper.BindPFlag("tray", flags.Lookup("tray"))
	viper.BindPFlag("debug", flags.Lookup("debug"))
}

func initConfig() {
	bindFlags()
	if err := config.Init(); err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		os.Exit(1)
	}
}

func loadSettings() (*config.Settings, error) {
	settings, err := config.Get()
	if err != nil {
		return nil, err
	}
	if settings.Debug {
		log.SetFlags(log.LstdFlags | log.Lshortfile)
	}
	return settings, nil
}

// openStore opens the database in the data directory, creating it if
// needed.
func openStore(settings *config.Settings) (*store.Store, string, error) {
	dataDir, err := settings.ResolveDataDir()
	if err != nil {
		return nil, "", err
	}
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, "", fmt.Errorf("create data directory: %w", err)
	}

	st, err := store.New(filepath.Join(dataDir, config.AppName+".db"))
	if err != nil {
		return nil, "", fmt.Errorf("initialize store: %w", err)
	}
	return st, dataDir, nil
}

// newDetector tries MediaPipe first and falls back to a detector that never
// sees a hand.
func newDetector(settings *config.Settings) detector.Detector {
	if !settings.LandmarksEnabled {
		return detector.NewMockDetector()
	}
	mp, err := detector.NewMediaPipeDetector(settings.DetectorConfig())
	if err != nil {
		log.Printf("MediaPipe not available (%v), landmark gestures disabled", err)
		return detector.NewMockDetector()
	}
	log.Println("Using MediaPipe hand detection")
	return mp
}

func runServe(cmd *cobra.Command, args []string) error {
	settings, err := loadSettings()
	if err != nil {
		return err
	}

	st, dataDir, err := openStore(settings)
	if err != nil {
		return err
	}
	defer st.Close()

	pluginDir, err := settings.ResolvePluginDir()
	if err != nil {
		return err
	}
	plugins := plugin.NewManager(pluginDir)
	if err := plugins.Discover(); err != nil {
		log.Printf("Plugin discovery failed: %v", err)
	}
	log.Printf("Discovered %d plugins in %s", len(plugins.List()), pluginDir)

	if n, err := controller.SeedDefaults(st.Actions()); err != nil {
		return fmt.Errorf("seed default bindings: %w", err)
	} else if n > 0 {
		log.Printf("Bound %d gestures to the %s plugin", n, controller.DefaultPlugin)
	}

	a := app.New(app.Config{
		Store:       st,
		Camera:      capture.NewCamera(settings.CameraConfig()),
		Detector:    newDetector(settings),
		Classifier:  settings.ClassifierConfig(),
		Debounce:    settings.DebounceConfig(),
		Calibration: settings.CalibrationConfig(),
		Swipe:       settings.SwipeConfig(),
		Landmarks:   settings.LandmarksEnabled,
		Motion:      settings.SwipeEnabled,
		FPS:         settings.CameraFPS,
	})
	if err := a.LoadProfile(); err != nil {
		log.Printf("Failed to load calibration profile: %v", err)
	}

	ctrl := controller.New(st.Actions(), plugins, plugin.NewExecutor(settings.PluginTimeout))
	hub := server.NewEventHub()
	a.OnEvent(ctrl.Handle)
	a.OnEvent(hub.Publish)

	webDir := findWebDir(dataDir)
	if webDir != "" {
		log.Printf("Serving static files from: %s", webDir)
	}
	httpSrv := server.New(server.Config{
		StaticDir: webDir,
		Store:     st,
		App:       a,
		Plugins:   plugins,
		Hub:       hub,
	}).HTTPServer(settings.Addr)

	go func() {
		defer recovery.HandlePanic()
		log.Printf("Starting server on %s", settings.Addr)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("Server failed: %v", err)
		}
	}()

	if err := a.Start(); err != nil {
		log.Printf("Camera unavailable (%v); serving API and keyboard simulation only", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if settings.Tray {
		t := tray.New(a.IsEnabled())
		t.OnToggle(a.SetEnabled)
		t.OnSettings(func() {
			log.Printf("Settings available at http://localhost%s", settings.Addr)
		})
		t.OnQuit(stop)
		a.OnEvent(t.Handle)

		go func() {
			<-ctx.Done()
			t.Quit()
		}()
		t.Run()
	} else {
		<-ctx.Done()
	}

	log.Println("Shutting down")
	a.Stop()
	hub.Close()
	ctrl.Wait()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return httpSrv.Shutdown(shutdownCtx)
}

func runSimulate(cmd *cobra.Command, args []string) error {
	settings, err := loadSettings()
	if err != nil {
		return err
	}

	a := app.New(app.Config{
		Classifier: settings.ClassifierConfig(),
		Debounce:   settings.DebounceConfig(),
	})

	out := cmd.OutOrStdout()
	a.OnEvent(func(ev gesture.Event) {
		fmt.Fprintf(out, "%s %.2f %s\n", ev.Type, ev.Confidence, ev.Source)
	})

	if len(args) > 0 {
		for _, key := range args {
			a.HandleKey(key)
		}
		return nil
	}

	scanner := bufio.NewScanner(cmd.InOrStdin())
	scanner.Split(bufio.ScanWords)
	for scanner.Scan() {
		a.HandleKey(scanner.Text())
	}
	return scanner.Err()
}

func runProfilesList(cmd *cobra.Command, args []string) error {
	settings, err := loadSettings()
	if err != nil {
		return err
	}
	st, _, err := openStore(settings)
	if err != nil {
		return err
	}
	defer st.Close()

	profiles, err := st.Profiles().List()
	if err != nil {
		return fmt.Errorf("list profiles: %w", err)
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tACTIVE\tCREATED\tGESTURES")
	for _, p := range profiles {
		gestures := make([]string, len(p.Gestures))
		for i, g := range p.Gestures {
			gestures[i] = string(g)
		}
		active := ""
		if p.Active {
			active = "*"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			p.ID, p.Name, active, p.CreatedAt.Format(time.DateTime), strings.Join(gestures, ","))
	}
	return w.Flush()
}

func runProfilesActivate(cmd *cobra.Command, args []string) error {
	return withStore(func(st *store.Store) error {
		if err := st.Profiles().SetActive(args[0]); err != nil {
			return fmt.Errorf("activate profile %s: %w", args[0], err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Activated %s\n", args[0])
		return nil
	})
}

func runProfilesDelete(cmd *cobra.Command, args []string) error {
	return withStore(func(st *store.Store) error {
		if err := st.Profiles().Delete(args[0]); err != nil {
			return fmt.Errorf("delete profile %s: %w", args[0], err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s\n", args[0])
		return nil
	})
}

func withStore(fn func(st *store.Store) error) error {
	settings, err := loadSettings()
	if err != nil {
		return err
	}
	st, _, err := openStore(settings)
	if err != nil {
		return err
	}
	defer st.Close()
	return fn(st)
}

// findWebDir searches for the web directory in common locations.
// It checks "web", "../web" and <data_dir>/web.
// Returns the first existing directory or empty string if none found.
func findWebDir(dataDir string) string {
	for _, p := range []string{"web", "../web", filepath.Join(dataDir, "web")} {
		if info, err := os.Stat(p); err == nil && info.IsDir() {
			if abs, err := filepath.Abs(p); err == nil {
				return abs
			}
			return p
		}
	}
	return ""
}
