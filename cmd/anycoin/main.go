package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sort"
	"syscall"
	"text/tabwriter"

	"github.com/alecthomas/kong"
	"go.uber.org/zap"

	"anycoin/internal/anycoin"
	"anycoin/internal/config"
	"anycoin/internal/logger"
	"anycoin/internal/quote"
	"anycoin/internal/symbol"
)

type Quotes struct {
	Coins  string `help:"Coins to quote, e.g. btc,trx" default:"btc,trx"`
	Quotes string `help:"Currencies to quote in, e.g. usd,eur,brl" default:"usd,eur,brl"`
}

type Symbols struct{}

type IDs struct {
	Provider string `arg:"" enum:"coinmarketcap,coingecko" help:"Provider whose identifier mapping is dumped."`
	Role     string `enum:"asset,quote" default:"asset" help:"Mapping to dump: asset or quote."`
}

type CLI struct {
	Config   string `help:"Path to config.json." env:"CONFIG_FILE" type:"path"`
	LogLevel string `help:"Overrides the configured log level." default:"error"`

	Quotes  Quotes  `cmd:"" help:"Fetch latest quotes through the configured provider chain."`
	Symbols Symbols `cmd:"" help:"List supported coins and currencies."`
	IDs     IDs     `cmd:"" name:"ids" help:"Dump a provider's identifier mapping."`
}

func main() {
	var cli CLI
	kctx := kong.Parse(&cli,
		kong.Name("anycoin"),
		kong.Description("Crypto quotes from CoinMarketCap and CoinGecko."),
		kong.UsageOnError(),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var err error
	switch kctx.Command() {
	case "quotes":
		err = runQuotes(ctx, &cli, os.Stdout)
	case "symbols":
		printSymbols(os.Stdout, symbol.All())
	case "ids <provider>":
		err = runIDs(ctx, &cli, os.Stdout)
	default:
		err = fmt.Errorf("unknown command: %s", kctx.Command())
	}
	kctx.FatalIfErrorf(err)
}

func newApp(ctx context.Context, cli *CLI) (*anycoin.App, *zap.Logger, error) {
	cfg, err := config.Load(cli.Config)
	if err != nil {
		return nil, nil, fmt.Errorf("config: %w", err)
	}
	if cli.LogLevel != "" {
		cfg.Log.Level = cli.LogLevel
	}
	lg, err := logger.New(cfg.Log.Level, cfg.Log.File)
	if err != nil {
		return nil, nil, fmt.Errorf("logger: %w", err)
	}
	app, err := anycoin.New(ctx, cfg, anycoin.WithLogger(lg))
	if err != nil {
		return nil, nil, err
	}
	return app, lg, nil
}

func runQuotes(ctx context.Context, cli *CLI, w io.Writer) error {
	coins, err := symbol.ParseList(cli.Quotes.Coins)
	if err != nil {
		return err
	}
	quotes, err := symbol.ParseList(cli.Quotes.Quotes)
	if err != nil {
		return err
	}

	app, lg, err := newApp(ctx, cli)
	if err != nil {
		return err
	}
	defer func() { _ = lg.Sync() }()
	defer func() { _ = app.Close() }()

	q, err := app.GetCoinQuotes(ctx, coins, quotes)
	if err != nil {
		return err
	}
	return printQuotes(w, q)
}

func runIDs(ctx context.Context, cli *CLI, w io.Writer) error {
	app, lg, err := newApp(ctx, cli)
	if err != nil {
		return err
	}
	defer func() { _ = lg.Sync() }()
	defer func() { _ = app.Close() }()

	c, err := app.Client(cli.IDs.Provider)
	if err != nil {
		return err
	}
	var ids map[symbol.Symbol]string
	if cli.IDs.Role == "quote" {
		ids, err = c.QuoteIDs(ctx)
	} else {
		ids, err = c.AssetIDs(ctx)
	}
	if err != nil {
		return err
	}
	return printIDs(w, ids)
}

func printQuotes(w io.Writer, q *quote.CoinQuotes) error {
	tw := tabwriter.NewWriter(w, 0, 0, 1, ' ', 0)
	fmt.Fprintf(tw, "provider: %s\n", q.Provider)
	for _, p := range q.Pairs() {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", p.Coin.Value(), p.Quote.Value(), p.Price.String())
	}
	return tw.Flush()
}

func printSymbols(w io.Writer, all []symbol.Symbol) {
	tw := tabwriter.NewWriter(w, 0, 0, 1, ' ', 0)
	for _, s := range all {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", s.Value(), s.Kind(), s.Name())
	}
	_ = tw.Flush()
}

// printIDs writes the mapping sorted by symbol value.
func printIDs(w io.Writer, ids map[symbol.Symbol]string) error {
	keys := make([]symbol.Symbol, 0, len(ids))
	for s := range ids {
		keys = append(keys, s)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].Value() < keys[j].Value() })

	tw := tabwriter.NewWriter(w, 0, 0, 1, ' ', 0)
	for _, s := range keys {
		fmt.Fprintf(tw, "%s\t%s\n", s.Value(), ids[s])
	}
	return tw.Flush()
}
