// Command tlcache translates user content and manages the local translation cache.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/ZaguanLabs/tlcache"
	"github.com/ZaguanLabs/tlcache/cache"
	"github.com/ZaguanLabs/tlcache/internal/config"
	"github.com/ZaguanLabs/tlcache/provider"
	"github.com/ZaguanLabs/tlcache/storage"
)

// Build-time variables (can be overridden with ldflags)
var (
	version   = tlcache.Version
	commit    = tlcache.GitCommit
	buildDate = tlcache.BuildDate
)

// stdin is read when translate is given no file.
var stdin io.Reader = os.Stdin

const usage = `Usage: tlcache <command> [flags]

Commands:
  translate  Translate a text and cache the result
  show       Print a cached translation
  has        Report whether a translation is cached
  clear      Forget one cached translation, or all of them
  list       List cached translations
  export     Write the cache as JSON
  import     Load translations from an export
  version    Show version

Storage and backend settings come from the environment (TLCACHE_*, OPENAI_*).
`

func main() {
	if err := run(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string, stdout, stderr io.Writer) error {
	if len(args) == 0 {
		fmt.Fprint(stderr, usage)
		return errors.New("command is required")
	}

	cmd, args := args[0], args[1:]
	switch cmd {
	case "version", "--version", "-version":
		return runVersion(stdout)
	case "help", "--help", "-h":
		fmt.Fprint(stdout, usage)
		return nil
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger := newLogger(stderr, cfg.Level())

	adapter, closeFn, err := openStorage(cfg, logger)
	if err != nil {
		return err
	}
	defer closeFn()

	store := cache.New(adapter,
		cache.WithClient(!cfg.Stateless),
		cache.WithRootKey(cfg.RootKey),
		cache.WithTTL(cfg.TTL),
		cache.WithLogger(logger.With().Str("component", "cache").Logger()),
	)

	app := &app{cfg: cfg, logger: logger, store: store, stdout: stdout, stderr: stderr}

	switch cmd {
	case "translate":
		return app.translate(args)
	case "show":
		return app.show(args)
	case "has":
		return app.has(args)
	case "clear":
		return app.clear(args)
	case "list":
		return app.list(args)
	case "export":
		return app.export(args)
	case "import":
		return app.importFile(args)
	default:
		fmt.Fprint(stderr, usage)
		return fmt.Errorf("unknown command %q", cmd)
	}
}

func runVersion(stdout io.Writer) error {
	fmt.Fprintf(stdout, "%s %s\n", tlcache.Name, version)
	if commit != "unknown" && commit != "" {
		fmt.Fprintf(stdout, "  commit:  %s\n", commit)
	}
	if buildDate != "unknown" && buildDate != "" {
		fmt.Fprintf(stdout, "  built:   %s\n", buildDate)
	}
	return nil
}

func newLogger(w io.Writer, level zerolog.Level) zerolog.Logger {
	return zerolog.New(zerolog.ConsoleWriter{Out: w, TimeFormat: time.Kitchen}).
		Level(level).
		With().
		Timestamp().
		Logger()
}

// openStorage picks Redis, then a directory, then process memory.
func openStorage(cfg config.Config, logger zerolog.Logger) (storage.Adapter, func() error, error) {
	noop := func() error { return nil }

	switch {
	case cfg.RedisURL != "":
		r, err := storage.NewRedis(storage.RedisConfig{URL: cfg.RedisURL, KeyPrefix: cfg.RedisKeyPrefix})
		if err != nil {
			return nil, noop, fmt.Errorf("opening redis storage: %w", err)
		}
		logger.Debug().Str("storage", "redis").Msg("storage opened")
		return r, r.Close, nil

	case cfg.Dir != "":
		f, err := storage.NewFileDir(cfg.Dir, cfg.QuotaBytes)
		if err != nil {
			return nil, noop, fmt.Errorf("opening storage directory: %w", err)
		}
		logger.Debug().Str("storage", "file").Str("dir", cfg.Dir).Msg("storage opened")
		return f, noop, nil

	default:
		logger.Debug().Str("storage", "memory").Msg("no TLCACHE_REDIS_URL or TLCACHE_DIR, translations last for this run only")
		return storage.NewMemory(cfg.QuotaBytes), noop, nil
	}
}

type app struct {
	cfg    config.Config
	logger zerolog.Logger
	store  *cache.Store
	stdout io.Writer
	stderr io.Writer
}

func (a *app) flagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet("tlcache "+name, flag.ContinueOnError)
	fs.SetOutput(a.stderr)
	return fs
}

func (a *app) newTranslator() (*tlcache.Translator, error) {
	if a.cfg.OpenAIAPIKey == "" {
		return nil, errors.New("OpenAI API key required (OPENAI_API_KEY env)")
	}

	var backend tlcache.TranslationBackend = provider.NewOpenAIBackend(provider.OpenAIConfig{
		APIKey:  a.cfg.OpenAIAPIKey,
		BaseURL: a.cfg.OpenAIBaseURL,
		Model:   a.cfg.Model,
	})

	// Inside the retry wrapper so retries are paced too
	if a.cfg.RequestsPerMinute > 0 {
		a.logger.Debug().Int("requests_per_minute", a.cfg.RequestsPerMinute).Msg("pacing translation backend")
		backend = tlcache.NewRateLimitedBackend(backend,
			tlcache.RateLimitConfig{RequestsPerMinute: a.cfg.RequestsPerMinute},
			a.logger.With().Str("component", "ratelimit").Logger(),
		)
	}

	retryable := tlcache.NewRetryableBackend(backend, tlcache.DefaultRetryConfig(), a.logger)

	return tlcache.NewTranslator(retryable,
		tlcache.WithCache(a.store),
		tlcache.WithLogger(a.logger.With().Str("component", "translator").Logger()),
	), nil
}

// TranslateOutput is the JSON form of a translate result.
type TranslateOutput struct {
	ItemType  string `json:"item_type"`
	ItemID    string `json:"item_id"`
	Content   string `json:"content"`
	Format    string `json:"format"`
	Trusted   bool   `json:"trusted"`
	Cached    bool   `json:"cached"`
	ElapsedMs int64  `json:"elapsed_ms"`
}

func (a *app) translate(args []string) error {
	fs := a.flagSet("translate")
	targetLang := fs.String("lang", "", "Target language code (e.g., es, pt_BR)")
	sourceLang := fs.String("source", "", "Source language code (detected when empty)")
	format := fs.String("format", string(tlcache.FormatPlain), "Content format: html, bbcode or plain")
	itemType := fs.String("type", "text", "Item type the translation is cached under")
	itemID := fs.String("id", "", "Item id (default: hash of the text)")
	jsonOutput := fs.Bool("json", false, "Output result as JSON")

	if err := fs.Parse(args); err != nil {
		return err
	}

	if *targetLang == "" {
		fs.Usage()
		return errors.New("--lang is required")
	}

	var data []byte
	var err error
	if fs.NArg() == 0 {
		data, err = io.ReadAll(stdin)
		if err != nil {
			return fmt.Errorf("reading stdin: %w", err)
		}
	} else {
		data, err = os.ReadFile(fs.Arg(0)) // #nosec G304 - CLI tool reads user-specified files
		if err != nil {
			return fmt.Errorf("reading file: %w", err)
		}
	}
	text := string(data)

	id := *itemID
	if id == "" {
		id = tlcache.ItemID(text)
	}

	translator, err := a.newTranslator()
	if err != nil {
		return err
	}

	cached := translator.HasTranslation(*itemType, id)

	start := time.Now()
	result, err := translator.Translate(context.Background(), tlcache.Request{
		Text:       text,
		SourceLang: *sourceLang,
		TargetLang: *targetLang,
		Format:     tlcache.Format(*format),
		ItemType:   *itemType,
		ItemID:     id,
	})
	if err != nil {
		return fmt.Errorf("translation failed: %w", err)
	}
	elapsed := time.Since(start)

	if *jsonOutput {
		return writeJSON(a.stdout, TranslateOutput{
			ItemType:  *itemType,
			ItemID:    id,
			Content:   result.Content,
			Format:    string(result.Format),
			Trusted:   result.Trusted,
			Cached:    cached,
			ElapsedMs: elapsed.Milliseconds(),
		})
	}

	fmt.Fprintln(a.stdout, result.Content)
	return nil
}

// itemArgs are the flags every single-item command takes.
type itemArgs struct {
	itemType string
	itemID   string
	format   tlcache.Format
}

func (a *app) parseItem(name string, args []string) (itemArgs, error) {
	fs := a.flagSet(name)
	itemType := fs.String("type", "text", "Item type")
	itemID := fs.String("id", "", "Item id")
	format := fs.String("format", string(tlcache.FormatPlain), "Content format: html, bbcode or plain")

	if err := fs.Parse(args); err != nil {
		return itemArgs{}, err
	}
	if *itemID == "" {
		fs.Usage()
		return itemArgs{}, errors.New("--id is required")
	}
	return itemArgs{itemType: *itemType, itemID: *itemID, format: tlcache.Format(*format)}, nil
}

func (a *app) show(args []string) error {
	item, err := a.parseItem("show", args)
	if err != nil {
		return err
	}

	translator := tlcache.NewTranslator(nil, tlcache.WithCache(a.store))
	content, ok := translator.Cached(item.itemType, item.itemID, item.format)
	if !ok {
		return fmt.Errorf("no cached translation for %s/%s", item.itemType, item.itemID)
	}

	if content.Trusted {
		fmt.Fprintln(a.stdout, content.PlainText())
	} else {
		fmt.Fprintln(a.stdout, content.String())
	}
	return nil
}

func (a *app) has(args []string) error {
	item, err := a.parseItem("has", args)
	if err != nil {
		return err
	}

	fmt.Fprintln(a.stdout, a.store.Has(item.itemType, item.itemID))
	return nil
}

func (a *app) clear(args []string) error {
	fs := a.flagSet("clear")
	itemType := fs.String("type", "text", "Item type")
	itemID := fs.String("id", "", "Item id")
	all := fs.Bool("all", false, "Remove every cached translation")

	if err := fs.Parse(args); err != nil {
		return err
	}

	switch {
	case *all:
		if err := a.store.Clear(); err != nil {
			return fmt.Errorf("clearing cache: %w", err)
		}
	case *itemID != "":
		a.store.Remove(*itemType, *itemID)
	default:
		fs.Usage()
		return errors.New("--id or --all is required")
	}
	return nil
}

func (a *app) list(args []string) error {
	fs := a.flagSet("list")
	itemType := fs.String("type", "", "Only list this item type")
	jsonOutput := fs.Bool("json", false, "Output as JSON")

	if err := fs.Parse(args); err != nil {
		return err
	}

	doc := a.store.Document()
	if *itemType != "" {
		doc = cache.Document{*itemType: a.store.Namespace(*itemType)}
	}

	type row struct {
		ItemType string    `json:"item_type"`
		ItemID   string    `json:"item_id"`
		Language string    `json:"language,omitempty"`
		Cached   time.Time `json:"cached_at"`
		Content  string    `json:"content"`
	}

	var rows []row
	for t, ns := range doc {
		for id, e := range ns {
			rows = append(rows, row{ItemType: t, ItemID: id, Language: e.Language, Cached: e.Time().UTC(), Content: e.Content})
		}
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].ItemType != rows[j].ItemType {
			return rows[i].ItemType < rows[j].ItemType
		}
		return rows[i].ItemID < rows[j].ItemID
	})

	if *jsonOutput {
		if rows == nil {
			rows = []row{}
		}
		return writeJSON(a.stdout, rows)
	}

	for _, r := range rows {
		content := strings.ReplaceAll(r.Content, "\n", " ")
		if len(content) > 50 {
			content = content[:47] + "..."
		}
		fmt.Fprintf(a.stdout, "%s/%s\t%s\t%s\t%q\n", r.ItemType, r.ItemID, r.Language, r.Cached.Format(time.RFC3339), content)
	}
	fmt.Fprintf(a.stderr, "%d cached translations\n", len(rows))
	return nil
}

func (a *app) export(args []string) error {
	fs := a.flagSet("export")
	output := fs.String("output", "", "Output file (default: stdout)")
	outputShort := fs.String("o", "", "Output file (short for --output)")

	if err := fs.Parse(args); err != nil {
		return err
	}
	if *outputShort != "" && *output == "" {
		*output = *outputShort
	}

	exporter := cache.NewExporter(a.store)
	metadata := map[string]string{"tool": tlcache.UserAgent()}

	if *output != "" {
		if err := exporter.ExportToFile(*output, metadata); err != nil {
			return err
		}
		fmt.Fprintf(a.stderr, "Exported %d translations to %s\n", a.store.Len(), filepath.Base(*output))
		return nil
	}
	return exporter.Export(a.stdout, metadata)
}

func (a *app) importFile(args []string) error {
	fs := a.flagSet("import")
	if err := fs.Parse(args); err != nil {
		return err
	}

	importer := cache.NewImporter(a.store)

	var result *cache.ImportResult
	var err error
	if fs.NArg() == 0 {
		result, err = importer.Import(stdin)
	} else {
		result, err = importer.ImportFromFile(fs.Arg(0))
	}
	if err != nil {
		return fmt.Errorf("import failed: %w", err)
	}

	fmt.Fprintf(a.stdout, "Imported: %d\nSkipped:  %d\nFailed:   %d\n", result.Imported, result.Skipped, result.Failed)
	return nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
