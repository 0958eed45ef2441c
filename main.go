// Package main provides the entry point for the voxify CLI.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	"github.com/dustin/go-humanize"
	gap "github.com/muesli/go-app-paths"
	"github.com/muesli/termenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/term"
	"gopkg.in/yaml.v3"

	"github.com/dgnsrekt/voxify/tts"
	"github.com/dgnsrekt/voxify/tts/audio"
	"github.com/dgnsrekt/voxify/tts/compose"
	"github.com/dgnsrekt/voxify/tts/engines"
	"github.com/dgnsrekt/voxify/tts/export"
	"github.com/dgnsrekt/voxify/tts/segment"
)

var (
	// Version as provided by goreleaser.
	Version = ""
	// CommitSHA as provided by goreleaser.
	CommitSHA = ""

	configFile string
	verbose    bool

	keyword = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#04B575", Dark: "#04B575"}).Render
	subtle  = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#9B9B9B", Dark: "#5C5C5C"}).Render

	rootCmd = &cobra.Command{
		Use:   "voxify",
		Short: "Convert text to audio files on the CLI",
		Long: paragraph(
			fmt.Sprintf("\nConvert text to %s, one sentence at a time.", keyword("spoken audio")),
		),
		SilenceErrors: false,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if verbose {
				log.SetLevel(log.DebugLevel)
			}
			if cmd.Flags().Changed("config") {
				viper.SetConfigFile(configFile)
				if err := viper.ReadInConfig(); err != nil {
					return fmt.Errorf("reading config %s: %w", configFile, err)
				}
			}
			return nil
		},
	}

	convertCmd = &cobra.Command{
		Use:   "convert [TEXT|FILE|-]",
		Short: "Convert one text to an audio file",
		Long: paragraph("\nConvert a text argument, a text file, or stdin to a single audio file. " +
			"Sentences are synthesized one at a time and joined with configurable gaps."),
		Example: paragraph("voxify convert \"Hello there, world.\"\nvoxify convert chapter.txt -o audiobooks\ncat notes.txt | voxify convert -"),
		Args:    cobra.MaximumNArgs(1),
		RunE:    runConvert,
	}

	batchCmd = &cobra.Command{
		Use:   "batch FILE...",
		Short: "Convert several texts to separate audio files",
		Long: paragraph("\nConvert each file to its own audio file. With a single file and --paragraphs, " +
			"each blank-line-separated paragraph becomes its own item instead."),
		Example: paragraph("voxify batch intro.txt chapter1.txt chapter2.txt\nvoxify batch chapters.txt --paragraphs --prefix chapter"),
		Args:    cobra.MinimumNArgs(1),
		RunE:    runBatch,
	}

	qaCmd = &cobra.Command{
		Use:   "qa FILE",
		Short: "Convert a question/answer file to per-answer audio files",
		Long: paragraph("\nRead a YAML or JSON list of question/answer pairs and synthesize one audio file " +
			"per pair. Questions are kept as metadata unless --include-questions is set."),
		Example: paragraph("voxify qa flashcards.yml\nvoxify qa quiz.json --include-questions"),
		Args:    cobra.ExactArgs(1),
		RunE:    runQA,
	}

	voicesCmd = &cobra.Command{
		Use:   "voices",
		Short: "List the voices of the configured engine",
		Args:  cobra.NoArgs,
		RunE:  runVoices,
	}

	playCmd = &cobra.Command{
		Use:     "play FILE",
		Short:   "Play an exported audio file",
		Example: paragraph("voxify play output/greeting.wav"),
		Args:    cobra.ExactArgs(1),
		RunE:    runPlay,
	}
)

var (
	outputName       string
	batchPrefix      string
	splitParagraphs  bool
	includeQuestions bool
)

func paragraph(s string) string {
	return lipgloss.NewStyle().Margin(0, 0, 0, 2).Render(strings.TrimSpace(s)) + "\n"
}

// loadConfig resolves the effective pipeline configuration from defaults,
// environment, config file, and flags.
func loadConfig() (tts.Config, error) {
	cfg, err := tts.LoadConfigFromViper()
	if err != nil {
		return cfg, err
	}
	return cfg, nil
}

// newConverter assembles the full pipeline for the given configuration.
func newConverter(cfg tts.Config) (*tts.Converter, error) {
	engine, err := engines.ForConfig(cfg)
	if err != nil {
		return nil, err
	}

	seg := segment.NewSegmenter()
	seg.CleanText = cfg.CleanText

	exp := export.NewExporter(cfg.OutputDir)
	exp.Overwrite = cfg.Overwrite

	return tts.NewConverter(engine, seg, compose.NewComposer(), exp, cfg), nil
}

// signalContext returns a context canceled by SIGINT or SIGTERM so a long
// batch can stop cleanly between items.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func runConvert(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	text, err := readTextArg(args)
	if err != nil {
		return err
	}

	conv, err := newConverter(cfg)
	if err != nil {
		return err
	}
	defer conv.Close() //nolint:errcheck

	ctx, cancel := signalContext()
	defer cancel()

	start := time.Now()
	item := conv.ConvertText(ctx, text, outputName)
	if item.Err != nil {
		return item.Err
	}

	printArtifact(*item.Artifact, time.Since(start))
	if item.Degraded() {
		fmt.Printf("%s %v\n", subtle("skipped units:"), item.FailedUnits)
	}
	return nil
}

func runBatch(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	texts, err := collectBatchTexts(args)
	if err != nil {
		return err
	}

	conv, err := newConverter(cfg)
	if err != nil {
		return err
	}
	defer conv.Close() //nolint:errcheck

	ctx, cancel := signalContext()
	defer cancel()

	report, err := conv.ConvertBatch(ctx, texts, batchPrefix)
	if report != nil {
		printReport(report)
	}
	return err
}

func runQA(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	pairs, err := readQAFile(args[0])
	if err != nil {
		return err
	}

	conv, err := newConverter(cfg)
	if err != nil {
		return err
	}
	defer conv.Close() //nolint:errcheck

	ctx, cancel := signalContext()
	defer cancel()

	report, err := conv.ConvertQuestionsAndAnswers(ctx, pairs, includeQuestions)
	if report != nil {
		printReport(report)
	}
	return err
}

func runVoices(*cobra.Command, []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	engine, err := engines.ForConfig(cfg)
	if err != nil {
		return err
	}
	defer engine.Close() //nolint:errcheck

	caps := engine.Capabilities()
	fmt.Printf("%s %s", keyword(cfg.Engine), subtle(fmt.Sprintf("(native %dHz", caps.NativeRate)))
	if caps.RequiresNetwork {
		fmt.Print(subtle(", networked"))
	}
	fmt.Println(subtle(")"))

	for _, v := range engine.Voices() {
		line := fmt.Sprintf("  %-24s %s", v.ID, v.Language)
		if v.Gender != "" {
			line += subtle(" " + v.Gender)
		}
		fmt.Println(line)
	}
	return nil
}

func runPlay(cmd *cobra.Command, args []string) error {
	buf, err := audio.LoadFile(args[0])
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	fmt.Printf("playing %s %s\n", args[0], subtle(buf.Duration().Round(time.Millisecond).String()))
	return audio.NewPlayer().Play(ctx, buf)
}

// readTextArg resolves the convert argument: inline text, a readable file,
// "-" or a pipe for stdin.
func readTextArg(args []string) (string, error) {
	if len(args) == 0 || args[0] == "-" {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return "", fmt.Errorf("reading stdin: %w", err)
		}
		return string(data), nil
	}

	arg := args[0]
	if st, err := os.Stat(arg); err == nil && !st.IsDir() {
		data, err := os.ReadFile(arg)
		if err != nil {
			return "", fmt.Errorf("reading %s: %w", arg, err)
		}
		return string(data), nil
	}
	return arg, nil
}

// collectBatchTexts builds the batch item list from file arguments.
func collectBatchTexts(files []string) ([]string, error) {
	if splitParagraphs {
		if len(files) != 1 {
			return nil, fmt.Errorf("--paragraphs takes exactly one file")
		}
		data, err := os.ReadFile(files[0])
		if err != nil {
			return nil, err
		}
		var texts []string
		for _, block := range strings.Split(string(data), "\n\n") {
			if strings.TrimSpace(block) != "" {
				texts = append(texts, strings.TrimSpace(block))
			}
		}
		return texts, nil
	}

	texts := make([]string, 0, len(files))
	for _, file := range files {
		data, err := os.ReadFile(file)
		if err != nil {
			return nil, err
		}
		texts = append(texts, string(data))
	}
	return texts, nil
}

// readQAFile parses a YAML or JSON list of pairs. YAML handles both since
// JSON is a YAML subset.
func readQAFile(path string) ([]tts.QAPair, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var pairs []tts.QAPair
	if err := yaml.Unmarshal(data, &pairs); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	for i, p := range pairs {
		if strings.TrimSpace(p.Answer) == "" {
			return nil, fmt.Errorf("pair %d in %s has no answer", i+1, path)
		}
	}
	return pairs, nil
}

func printArtifact(a tts.Artifact, took time.Duration) {
	fmt.Printf("%s %s %s\n",
		keyword(a.Path),
		humanize.Bytes(uint64(a.Bytes)), //nolint:gosec
		subtle(fmt.Sprintf("%s audio, took %s",
			a.Duration.Round(time.Millisecond),
			took.Round(time.Millisecond))),
	)
}

func printReport(r *tts.BatchReport) {
	for _, item := range r.Items {
		if item.OK() {
			marker := "✓"
			if item.Degraded() {
				marker = "±"
			}
			fmt.Printf("%s %s %s\n", marker, item.Artifact.Path,
				subtle(humanize.Bytes(uint64(item.Artifact.Bytes)))) //nolint:gosec
		} else {
			fmt.Printf("✗ item %d: %v\n", item.Index+1, item.Err)
		}
	}
	fmt.Printf("%s\n", subtle(fmt.Sprintf("%d succeeded, %d failed, %s total audio",
		r.Succeeded, r.Failed, r.TotalDuration.Round(time.Millisecond))))
}

func main() {
	closer, err := setupLog()
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
	if err := rootCmd.Execute(); err != nil {
		_ = closer()
		os.Exit(1)
	}
	_ = closer()
}

func init() {
	tryLoadConfigFromDefaultPlaces()
	if len(CommitSHA) >= 7 {
		vt := rootCmd.VersionTemplate()
		rootCmd.SetVersionTemplate(vt[:len(vt)-1] + " (" + CommitSHA[0:7] + ")\n")
	}
	if Version == "" {
		Version = "unknown (built from source)"
	}
	rootCmd.Version = Version
	rootCmd.InitDefaultCompletionCmd()

	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", fmt.Sprintf("config file (default %s)", viper.GetViper().ConfigFileUsed()))
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().String("engine", "", "synthesis engine (mock/piper/gtts)")
	rootCmd.PersistentFlags().StringP("output-dir", "o", "", "directory for audio artifacts")
	rootCmd.PersistentFlags().StringP("format", "f", "", "output format (wav/ulaw)")
	rootCmd.PersistentFlags().Bool("overwrite", false, "overwrite existing artifacts instead of suffixing")
	rootCmd.PersistentFlags().String("voice", "", "engine voice identifier")
	rootCmd.PersistentFlags().String("language", "", "language code (e.g. en-US)")
	rootCmd.PersistentFlags().Float64("rate", 0, "speech rate multiplier")
	rootCmd.PersistentFlags().Bool("clean-text", false, "normalize abbreviations, numbers and symbols before synthesis")

	_ = viper.BindPFlag("engine", rootCmd.PersistentFlags().Lookup("engine"))
	_ = viper.BindPFlag("output_dir", rootCmd.PersistentFlags().Lookup("output-dir"))
	_ = viper.BindPFlag("format", rootCmd.PersistentFlags().Lookup("format"))
	_ = viper.BindPFlag("overwrite", rootCmd.PersistentFlags().Lookup("overwrite"))
	_ = viper.BindPFlag("voice", rootCmd.PersistentFlags().Lookup("voice"))
	_ = viper.BindPFlag("language", rootCmd.PersistentFlags().Lookup("language"))
	_ = viper.BindPFlag("rate", rootCmd.PersistentFlags().Lookup("rate"))
	_ = viper.BindPFlag("clean_text", rootCmd.PersistentFlags().Lookup("clean-text"))

	convertCmd.Flags().StringVar(&outputName, "name", "", "artifact base name (default derives from the text)")

	batchCmd.Flags().StringVar(&batchPrefix, "prefix", "batch", "artifact name prefix")
	batchCmd.Flags().BoolVar(&splitParagraphs, "paragraphs", false, "treat each paragraph of a single file as its own item")

	qaCmd.Flags().BoolVar(&includeQuestions, "include-questions", false, "speak questions before answers")

	rootCmd.AddCommand(convertCmd, batchCmd, qaCmd, voicesCmd, playCmd, configCmd)
}

func tryLoadConfigFromDefaultPlaces() {
	scope := gap.NewScope(gap.User, "voxify")
	dirs, err := scope.ConfigDirs()
	if err != nil {
		fmt.Println("Could not find configuration directory.")
		os.Exit(1)
	}

	if c := os.Getenv("XDG_CONFIG_HOME"); c != "" {
		dirs = append([]string{filepath.Join(c, "voxify")}, dirs...)
	}

	if c := os.Getenv("VOXIFY_CONFIG_HOME"); c != "" {
		dirs = append([]string{c}, dirs...)
	}

	for _, v := range dirs {
		viper.AddConfigPath(v)
	}

	viper.SetConfigName("voxify")
	viper.SetConfigType("yaml")
	viper.SetEnvPrefix("voxify")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			log.Warn("Could not parse configuration file", "err", err)
		}
	}

	if used := viper.ConfigFileUsed(); used != "" {
		log.Debug("Using configuration file", "path", viper.ConfigFileUsed())
		return
	}

	if viper.ConfigFileUsed() == "" {
		configFile = filepath.Join(dirs[0], "voxify.yml")
	}
}

// setupLog routes logging to VOXIFY_LOGFILE when set, otherwise stderr.
func setupLog() (func() error, error) {
	log.SetOutput(os.Stderr)
	log.SetLevel(log.WarnLevel)

	if !term.IsTerminal(int(os.Stderr.Fd())) {
		log.SetColorProfile(termenv.Ascii)
	}

	if path := os.Getenv("VOXIFY_LOGFILE"); path != "" {
		f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, fmt.Errorf("error opening log file: %w", err)
		}
		log.SetOutput(f)
		log.SetLevel(log.DebugLevel)
		return f.Close, nil
	}
	return func() error { return nil }, nil
}
