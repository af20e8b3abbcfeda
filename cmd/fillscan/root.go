package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"fillscan"
	"fillscan/client"
	"fillscan/internal/botguard"
	"fillscan/internal/config"
	"fillscan/internal/exclusions"
	"fillscan/internal/logger"
	"fillscan/internal/queryfile"
	"fillscan/internal/report"
	"fillscan/types"
	"fillscan/youtube/innertube"
)

type flagValues struct {
	configPath      string
	maxResults      int
	minSimilarity   int
	searchTerms     []string
	queriesFile     string
	ignoreUploaders []string
	playlistID      string
	knownIDs        string
	quiet           bool
	outputPath      string
	logLevel        string
	itClient        string
	itClientVersion string
	bgScript        string
}

func newRootCommand() *cobra.Command {
	cmd, _ := buildRootCommand()
	return cmd
}

func buildRootCommand() (*cobra.Command, *flagValues) {
	fl := &flagValues{}

	cmd := &cobra.Command{
		Use:   "fillscan",
		Short: "Find unauthorized re-uploads of scripts on YouTube",
		Long: `fillscan searches YouTube for re-uploads ("fills") of known scripts.

For each search term it fetches candidate videos, drops already-known ids,
ignored uploaders and uploads older than the term's date, then ranks the
survivors by fuzzy title similarity.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, fl)
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&fl.configPath, "config", "c", "", "Path to a TOML config file")
	flags.IntVarP(&fl.maxResults, "max-results", "n", 25, "Candidates to fetch per search term")
	flags.IntVarP(&fl.minSimilarity, "min-similarity", "m", 0, "Discard matches scoring below this (0-100)")
	flags.StringArrayVarP(&fl.searchTerms, "search-term", "s", nil, "Search term (repeatable)")
	flags.StringVarP(&fl.queriesFile, "queries-file", "f", "", "CSV file with Title and Date columns")
	flags.StringArrayVarP(&fl.ignoreUploaders, "ignore-uploader", "i", nil, "Uploader name to skip (repeatable, case-insensitive)")
	flags.StringVar(&fl.playlistID, "playlist-id", "", "Playlist whose videos count as already known")
	flags.StringVar(&fl.knownIDs, "known-ids", "known_ids.json", "Known video id cache file (empty disables)")
	flags.BoolVarP(&fl.quiet, "quiet", "q", false, "Only log errors")
	flags.StringVarP(&fl.outputPath, "output", "o", "", "Also write plain results to this file")
	flags.StringVar(&fl.logLevel, "log-level", "INFO", "Log level (DEBUG, INFO, WARN, ERROR)")
	flags.StringVar(&fl.itClient, "it-client", "", "InnerTube client name override")
	flags.StringVar(&fl.itClientVersion, "it-client-version", "", "InnerTube client version override")
	flags.StringVar(&fl.bgScript, "bg-script", "", "Botguard interpreter script path")

	cmd.AddCommand(newConfigCommand())
	return cmd, fl
}

func newConfigCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Print an annotated sample configuration file",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprint(cmd.OutOrStdout(), config.Sample())
		},
	}
}

// mergeFlags copies explicitly set flags over the loaded configuration, so
// file values win over flag defaults but lose to flags the user typed.
func mergeFlags(cmd *cobra.Command, cfg *config.Config, fl *flagValues) {
	set := cmd.Flags().Changed
	if set("max-results") {
		cfg.Search.MaxResults = fl.maxResults
	}
	if set("min-similarity") {
		cfg.Search.MinSimilarity = fl.minSimilarity
	}
	if set("ignore-uploader") {
		cfg.Search.IgnoredUploaders = append(cfg.Search.IgnoredUploaders, fl.ignoreUploaders...)
	}
	if set("playlist-id") {
		cfg.Search.PlaylistID = fl.playlistID
	}
	if set("known-ids") {
		cfg.Search.KnownIDsPath = fl.knownIDs
	}
	if set("it-client") {
		cfg.Search.ClientName = fl.itClient
	}
	if set("it-client-version") {
		cfg.Search.ClientVersion = fl.itClientVersion
	}
	if set("bg-script") {
		cfg.Search.BotguardScript = fl.bgScript
	}
	if set("log-level") {
		cfg.Logging.Level = fl.logLevel
	}
	if fl.quiet {
		cfg.Logging.Level = "ERROR"
	}
}

// collectQueries gathers queries from the CSV file (if any) followed by the
// inline terms. At least one source must be present.
func collectQueries(searchTerms []string, queriesFile string) ([]types.Query, error) {
	var queries []types.Query
	if queriesFile != "" {
		fromFile, err := queryfile.Read(queriesFile)
		if err != nil {
			return nil, err
		}
		queries = append(queries, fromFile...)
	}
	for _, term := range searchTerms {
		queries = append(queries, types.Query{Term: term})
	}
	if len(queries) == 0 {
		return nil, fmt.Errorf("no search terms given: use --search-term or --queries-file")
	}
	return queries, nil
}

func setupLogging(cfg config.Logging) {
	logCfg := logger.DefaultConfig()
	logCfg.Level = logger.ParseLevel(cfg.Level)
	if cfg.Format == "json" {
		logCfg.Format = logger.FormatJSON
	}
	logCfg.Timestamp = cfg.Timestamps
	logger.SetGlobalLogger(logger.New(logCfg))
}

func run(cmd *cobra.Command, fl *flagValues) error {
	cfg, err := config.Load(fl.configPath)
	if err != nil {
		return err
	}
	mergeFlags(cmd, cfg, fl)
	if err := cfg.Validate(); err != nil {
		return err
	}

	queries, err := collectQueries(fl.searchTerms, fl.queriesFile)
	if err != nil {
		return err
	}

	setupLogging(cfg.Logging)
	log := logger.WithComponent(logger.ComponentApp)

	httpc := client.NewWith(client.Config{
		Timeout:   time.Duration(cfg.HTTP.TimeoutSeconds) * time.Second,
		Retries:   cfg.HTTP.Retries,
		UserAgent: cfg.HTTP.UserAgent,
		ProxyURL:  cfg.HTTP.ProxyURL,
	})

	it := innertube.New(httpc.HTTPClient)
	if cfg.Search.ClientName != "" {
		it = it.WithClient(cfg.Search.ClientName, cfg.Search.ClientVersion)
	}
	if cfg.Search.BotguardScript != "" {
		solver := botguard.NewGojaSolverWithScript(cfg.Search.BotguardScript)
		var bgCache botguard.Cache
		if cfg.Search.BotguardCacheDir != "" {
			fc, err := botguard.NewFileCache(cfg.Search.BotguardCacheDir)
			if err != nil {
				return fmt.Errorf("botguard cache: %w", err)
			}
			bgCache = fc
		} else {
			bgCache = botguard.NewMemoryCache()
		}
		it = it.WithBotguard(solver, bgCache)
	}

	var idCache *exclusions.Cache
	if cfg.Search.KnownIDsPath != "" {
		idCache = exclusions.NewCache(cfg.Search.KnownIDsPath)
	}
	set, err := exclusions.Build(it, cfg.Search.PlaylistID, idCache, cfg.Search.IgnoredUploaders)
	if err != nil {
		return err
	}
	log.Debug("exclusion set built", map[string]interface{}{
		"known_ids":         set.IDCount(),
		"ignored_uploaders": len(cfg.Search.IgnoredUploaders),
	})

	scanner := fillscan.New(it).
		WithMaxResults(cfg.Search.MaxResults).
		WithMinSimilarity(cfg.Search.MinSimilarity)

	matches, err := scanner.Scan(queries, set)
	if err != nil {
		return err
	}

	if len(matches) == 0 {
		log.Info("no matches found", map[string]interface{}{"queries": len(queries)})
		return nil
	}

	fmt.Fprintln(cmd.OutOrStdout(), report.Render(matches, report.ColorEnabled(os.Stdout)))

	if fl.outputPath != "" {
		f, err := os.Create(fl.outputPath)
		if err != nil {
			return fmt.Errorf("create output file: %w", err)
		}
		defer f.Close()
		if err := report.WritePlain(f, matches); err != nil {
			return fmt.Errorf("write output file: %w", err)
		}
		log.Info("results written", map[string]interface{}{"path": fl.outputPath, "matches": len(matches)})
	}
	return nil
}
