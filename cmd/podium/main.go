// Package main provides the CLI entrypoint for podium.
package main

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/hansenc101/podium/internal/config"
	"github.com/hansenc101/podium/internal/controller"
	"github.com/hansenc101/podium/internal/model"
	"github.com/hansenc101/podium/internal/report"
	"github.com/hansenc101/podium/internal/tui"
)

const (
	defaultGreen         = 60
	defaultYellow        = 120
	defaultRed           = 180
	defaultLimit         = 300
	defaultPhraseSeconds = 5
	defaultListenAddr    = ":5000"
	defaultCameraURL     = "http://127.0.0.1:8081/stream"
	defaultClassifierURL = "http://127.0.0.1:8000"
	defaultSpeechURL     = "wss://streaming.assemblyai.com/v3/ws"
)

var (
	sessionGreen         int
	sessionYellow        int
	sessionRed           int
	sessionLimit         int
	sessionPhraseSeconds int
	sessionListenAddr    string
	sessionCameraURL     string
	sessionClassifierURL string
	sessionSpeechURL     string
)

func main() {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "podium",
		Short:         "Terminal public-speaking coach",
		SilenceUsage:  true,
		SilenceErrors: false,
		RunE:          runSessionCmd,
	}

	rootCmd.Flags().IntVar(&sessionGreen, "green", defaultGreen, "seconds until the clock turns green")
	rootCmd.Flags().IntVar(&sessionYellow, "yellow", defaultYellow, "seconds until the clock turns yellow")
	rootCmd.Flags().IntVar(&sessionRed, "red", defaultRed, "seconds until the clock turns red")
	rootCmd.Flags().IntVar(&sessionLimit, "limit", defaultLimit, "session time limit in seconds")
	rootCmd.Flags().IntVar(&sessionPhraseSeconds, "phrase-seconds", defaultPhraseSeconds, "listening window per transcription phrase")
	rootCmd.Flags().StringVar(&sessionListenAddr, "listen-addr", defaultListenAddr, "companion receiver listen address")
	rootCmd.Flags().StringVar(&sessionCameraURL, "camera-url", defaultCameraURL, "MJPEG webcam stream URL")
	rootCmd.Flags().StringVar(&sessionClassifierURL, "classifier-url", defaultClassifierURL, "emotion classifier base URL")
	rootCmd.Flags().StringVar(&sessionSpeechURL, "speech-url", defaultSpeechURL, "streaming transcription websocket URL")

	rootCmd.AddCommand(newConfigCmd())
	rootCmd.AddCommand(newReportCmd())

	return rootCmd
}

func runSessionCmd(cmd *cobra.Command, _ []string) error {
	config.LoadDotenv()

	fileCfg, err := config.LoadConfig(config.DefaultConfigPath())
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	applyIntConfig(cmd, "green", &sessionGreen, fileCfg.Session.Green)
	applyIntConfig(cmd, "yellow", &sessionYellow, fileCfg.Session.Yellow)
	applyIntConfig(cmd, "red", &sessionRed, fileCfg.Session.Red)
	applyIntConfig(cmd, "limit", &sessionLimit, fileCfg.Session.Limit)
	applyIntConfig(cmd, "phrase-seconds", &sessionPhraseSeconds, fileCfg.Session.PhraseSeconds)
	applyStringConfig(cmd, "listen-addr", &sessionListenAddr, fileCfg.Companion.ListenAddr)
	applyStringConfig(cmd, "camera-url", &sessionCameraURL, fileCfg.Services.CameraURL)
	applyStringConfig(cmd, "classifier-url", &sessionClassifierURL, fileCfg.Services.ClassifierURL)
	applyStringConfig(cmd, "speech-url", &sessionSpeechURL, fileCfg.Services.SpeechURL)

	cfg := model.Config{
		CameraURL:     sessionCameraURL,
		ClassifierURL: sessionClassifierURL,
		SpeechURL:     sessionSpeechURL,
		CompanionAddr: sessionListenAddr,
		PhraseSeconds: sessionPhraseSeconds,
		Thresholds: model.Thresholds{
			Green:  sessionGreen,
			Yellow: sessionYellow,
			Red:    sessionRed,
			Limit:  sessionLimit,
		},
	}
	if err := cfg.Thresholds.Validate(); err != nil {
		return err
	}
	if cfg.PhraseSeconds <= 0 {
		return fmt.Errorf("--phrase-seconds must be > 0")
	}

	apiKey := config.SpeechAPIKey()
	if apiKey == "" {
		logErrf("%s is not set; transcription will not connect\n", config.SpeechAPIKeyEnvVar)
	}

	ctl := controller.New(cfg, config.DefaultReportDir(), controller.DefaultFactory(cfg, apiKey))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go ctl.Run(ctx)

	program := tea.NewProgram(tui.NewModel(ctl), tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("failed to run TUI: %w", err)
	}
	return nil
}

func newConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Create/open config file",
		Args:  cobra.NoArgs,
		RunE:  runConfigCmd,
	}
}

func runConfigCmd(_ *cobra.Command, _ []string) error {
	path := config.DefaultConfigPath()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if _, err := os.Stat(path); err != nil {
		if !os.IsNotExist(err) {
			return fmt.Errorf("failed to stat config: %w", err)
		}
		if err := os.WriteFile(path, []byte(defaultConfigTemplate()), 0o644); err != nil {
			return fmt.Errorf("failed to write config: %w", err)
		}
	}

	editor := strings.TrimSpace(os.Getenv("EDITOR"))
	if editor == "" {
		editor = "vi"
	}
	parts := strings.Fields(editor)
	if len(parts) == 0 {
		return fmt.Errorf("editor command is empty")
	}
	cmd := exec.Command(parts[0], append(parts[1:], path)...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("failed to open editor: %w", err)
	}
	return nil
}

func newReportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "report <path>",
		Short: "Print a saved session report",
		Args:  cobra.ExactArgs(1),
		RunE:  runReportCmd,
	}
}

func runReportCmd(cmd *cobra.Command, args []string) error {
	text, err := report.Load(args[0])
	if err != nil {
		return fmt.Errorf("failed to load report: %w", err)
	}
	width := 80
	if w, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil && w > 0 {
		width = w
	}
	for _, line := range strings.Split(strings.TrimRight(text, "\n"), "\n") {
		if len(line) > width {
			line = line[:width]
		}
		if _, err := fmt.Fprintln(cmd.OutOrStdout(), line); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
	}
	return nil
}

func applyStringConfig(cmd *cobra.Command, name string, target, value *string) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyIntConfig(cmd *cobra.Command, name string, target, value *int) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func defaultConfigTemplate() string {
	return fmt.Sprintf(`# podium configuration
# Uncomment a value to enable it. CLI flags override config values.

[session]
# green-seconds = %d       # Seconds until the clock turns green
# yellow-seconds = %d     # Seconds until the clock turns yellow
# red-seconds = %d        # Seconds until the clock turns red
# limit-seconds = %d      # Session time limit
# phrase-seconds = %d       # Listening window per transcription phrase

[services]
# camera-url = %q
# classifier-url = %q
# speech-url = %q

[companion]
# listen-addr = %q         # Companion receiver listen address
`,
		defaultGreen,
		defaultYellow,
		defaultRed,
		defaultLimit,
		defaultPhraseSeconds,
		defaultCameraURL,
		defaultClassifierURL,
		defaultSpeechURL,
		defaultListenAddr,
	)
}

func logErrf(format string, args ...any) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		// Best-effort logging to stderr.
		_ = err
	}
}
