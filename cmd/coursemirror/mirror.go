package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"coursemirror/pkg/config"
	"coursemirror/pkg/logger"
	"coursemirror/pkg/mirror"
	"coursemirror/pkg/ui"
	"coursemirror/pkg/ui/tui"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var (
	// Mirror command flags
	outputDir   string
	accountName string
	cookies     string
	maxDepth    int
	maxPages    int
	rateLimit   int
	headless    bool
	useTUI      bool
	notify      bool
)

// mirrorCmd represents the mirror command
var mirrorCmd = &cobra.Command{
	Use:   "mirror [course-url]",
	Short: "Download every file of a course",
	Long: `Walk a course's file listing recursively and download every document.

Folders are recreated under the output directory following the breadcrumb
shown on each listing page. Pages are visited once per run; a page or file
that fails is logged and skipped without stopping the run.

The course URL can also come from portal.start_url in the config file or
COURSEMIRROR_START_URL.`,
	Example: `  # Mirror using a stored account (browser login)
  coursemirror mirror https://ninova.itu.edu.tr/Sinif/1234.56789/DersDosyalari

  # Reuse a logged-in browser session
  coursemirror mirror https://ninova.itu.edu.tr/Sinif/1234.56789/DersDosyalari \
      --cookies 'ASP.NET_SessionId=...; .ASPXAUTH=...'

  # Watch the browser while it logs in and show the dashboard
  coursemirror mirror <course-url> --headless=false --tui`,
	Args: cobra.MaximumNArgs(1),
	RunE: runMirror,
}

func init() {
	rootCmd.AddCommand(mirrorCmd)

	mirrorCmd.Flags().StringVarP(&outputDir, "output", "o", "", "output directory (default ./downloads)")
	mirrorCmd.Flags().StringVarP(&accountName, "account", "a", "", "stored account to log in with")
	mirrorCmd.Flags().StringVar(&cookies, "cookies", "", "cookie header of a logged-in browser session")
	mirrorCmd.Flags().IntVar(&maxDepth, "max-depth", 0, "maximum folder depth")
	mirrorCmd.Flags().IntVar(&maxPages, "max-pages", 0, "maximum number of listing pages")
	mirrorCmd.Flags().IntVar(&rateLimit, "rate", 0, "maximum requests per minute (0 keeps the configured value)")
	mirrorCmd.Flags().BoolVar(&headless, "headless", true, "run the login browser without a window")
	mirrorCmd.Flags().BoolVar(&useTUI, "tui", false, "show the interactive dashboard")
	mirrorCmd.Flags().BoolVar(&notify, "notify", false, "send a desktop notification when done")
}

func runMirror(cmd *cobra.Command, args []string) error {
	flags := map[string]interface{}{
		"output":    outputDir,
		"cookies":   cookies,
		"max-depth": maxDepth,
		"max-pages": maxPages,
		"rate":      rateLimit,
	}
	if len(args) == 1 {
		flags["start-url"] = args[0]
	}
	if cmd.Flags().Changed("headless") {
		flags["headless"] = headless
	}

	cfg, err := loadConfig(flags)
	if err != nil {
		return err
	}
	if cfg.Portal.StartURL == "" {
		return errors.New("a course URL is required (argument, portal.start_url or COURSEMIRROR_START_URL)")
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var stats *mirror.Stats
	if useTUI {
		stats, err = mirrorWithDashboard(ctx, cfg)
	} else {
		stats, err = mirrorWithSpinner(ctx, cfg)
	}
	if stats == nil {
		return err
	}

	if !useTUI {
		ui.PrintSummary(*stats, cfg.Download.BaseDirectory)
	}
	if notify {
		n := ui.NewNotifier()
		switch {
		case err != nil:
			n.SendError("Mirror stopped", err.Error())
		default:
			n.SendSuccess("Mirror complete", ui.StatusLine(*stats))
		}
	}
	return err
}

// mirrorWithSpinner runs with console logging and, on a terminal, a spinner
func mirrorWithSpinner(ctx context.Context, cfg *config.Config) (*mirror.Stats, error) {
	interactive := term.IsTerminal(int(os.Stdout.Fd()))
	log, err := setupLogger(cfg, interactive)
	if err != nil {
		return nil, err
	}

	var progress *ui.Progress
	var onProgress func(mirror.Stats)
	if interactive && !verbose {
		progress = ui.NewProgress(os.Stderr)
		onProgress = progress.Update
	}

	ui.PrintInfo("Course", cfg.Portal.StartURL)
	ui.PrintInfo("Output", cfg.Download.BaseDirectory)

	return runEngine(ctx, cfg, log, onProgress, func() {
		if progress != nil {
			progress.Start()
		}
	}, func() {
		if progress != nil {
			progress.Stop()
		}
	})
}

// mirrorWithDashboard routes the log stream into the dashboard and runs the
// engine in the background until the user quits.
func mirrorWithDashboard(ctx context.Context, cfg *config.Config) (*mirror.Stats, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	dash := tui.New(cfg.Portal.StartURL, cfg.Download.BaseDirectory, cancel)
	log, err := logger.NewWithWriter(cfg.Logging.Level, dash)
	if err != nil {
		return nil, err
	}

	type result struct {
		stats *mirror.Stats
		err   error
	}
	done := make(chan result, 1)

	go func() {
		stats, err := runEngine(ctx, cfg, log, dash.Progress, nil, nil)
		final := mirror.Stats{}
		if stats != nil {
			final = *stats
		}
		dash.Done(final, err)
		done <- result{stats, err}
	}()

	if err := dash.Run(); err != nil {
		cancel()
		<-done
		return nil, fmt.Errorf("dashboard failed: %w", err)
	}

	cancel()
	res := <-done
	if res.stats != nil {
		fmt.Println(ui.StatusLine(*res.stats))
	}
	return res.stats, res.err
}

// runEngine opens the session and mirrors the course. started and finished
// bracket the traversal itself so a spinner does not cover the login.
func runEngine(ctx context.Context, cfg *config.Config, log logger.Logger, progress func(mirror.Stats), started, finished func()) (*mirror.Stats, error) {
	httpClient, err := openSession(ctx, cfg, accountName, log)
	if err != nil {
		return nil, err
	}

	client := newPortalClient(cfg, httpClient, log)
	files, err := newFetcher(cfg, client, log)
	if err != nil {
		return nil, err
	}

	engine := mirror.NewEngine(client, files, engineOptions(cfg, progress), log)

	if started != nil {
		started()
	}
	stats, err := engine.Run(ctx, cfg.Portal.StartURL, cfg.Download.BaseDirectory)
	if finished != nil {
		finished()
	}
	return stats, err
}
