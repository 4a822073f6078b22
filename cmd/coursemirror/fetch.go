package main

import (
	"os"
	"os/signal"
	"syscall"

	"coursemirror/pkg/ui"

	"github.com/spf13/cobra"
)

var fetchName string

// fetchCmd downloads a single file
var fetchCmd = &cobra.Command{
	Use:   "fetch <file-url>",
	Short: "Download a single file from the portal",
	Long: `Download one file with the same session, naming and storage rules as
'mirror'. The file name comes from --name, the Content-Disposition header,
the URL path or the configured fallback, in that order.`,
	Example: `  coursemirror fetch https://ninova.itu.edu.tr/Sinif/1234.56789/DersDosyalari?g397 -o ./notes
  coursemirror fetch <file-url> --name "Week 1.pdf" --cookies "$NINOVA_COOKIES"`,
	Args: cobra.ExactArgs(1),
	RunE: runFetch,
}

func init() {
	rootCmd.AddCommand(fetchCmd)

	fetchCmd.Flags().StringVarP(&outputDir, "output", "o", "", "directory to save into (default ./downloads)")
	fetchCmd.Flags().StringVar(&fetchName, "name", "", "file name to save as")
	fetchCmd.Flags().StringVarP(&accountName, "account", "a", "", "stored account to log in with")
	fetchCmd.Flags().StringVar(&cookies, "cookies", "", "cookie header of a logged-in browser session")
	fetchCmd.Flags().BoolVar(&headless, "headless", true, "run the login browser without a window")
}

func runFetch(cmd *cobra.Command, args []string) error {
	flags := map[string]interface{}{
		"output":  outputDir,
		"cookies": cookies,
	}
	if cmd.Flags().Changed("headless") {
		flags["headless"] = headless
	}

	cfg, err := loadConfig(flags)
	if err != nil {
		return err
	}

	log, err := setupLogger(cfg, false)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	httpClient, err := openSession(ctx, cfg, accountName, log)
	if err != nil {
		return err
	}

	files, err := newFetcher(cfg, newPortalClient(cfg, httpClient, log), log)
	if err != nil {
		return err
	}

	download, err := files.Fetch(ctx, args[0], cfg.Download.BaseDirectory, fetchName)
	if err != nil {
		return err
	}

	ui.PrintSuccess("Saved " + download.Path + " (" + ui.FormatBytes(download.Bytes) + ")")
	return nil
}
