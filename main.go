package main

import (
	"context"
	"flag"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"strings"

	"gofichero/journal"
	"gofichero/printer/fichero"
	"gofichero/render"
	"gofichero/server"
)

func usage() {
	fmt.Fprintln(os.Stderr, `Usage: gofichero <command> [flags]

Commands:
  info     Show device info
  status   Show detailed status
  text     Print a text label
  image    Print an image file
  qr       Print a QR code label
  set      Change a printer setting (density/shutdown/paper)
  feed     Feed paper forward by n dots
  reset    Factory-reset the printer
  serve    Run the HTTP print server
  history  Show recent print jobs from the journal`)
}

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	var err error
	switch os.Args[1] {
	case "info":
		err = cmdInfo(os.Args[2:])
	case "status":
		err = cmdStatus(os.Args[2:])
	case "text":
		err = cmdText(os.Args[2:])
	case "image":
		err = cmdImage(os.Args[2:])
	case "qr":
		err = cmdQR(os.Args[2:])
	case "set":
		err = cmdSet(os.Args[2:])
	case "feed":
		err = cmdFeed(os.Args[2:])
	case "reset":
		err = cmdReset(os.Args[2:])
	case "serve":
		err = cmdServe(os.Args[2:])
	case "history":
		err = cmdHistory(os.Args[2:])
	default:
		usage()
		os.Exit(2)
	}

	if err != nil {
		slog.Error("Command failed", "err", err)
		os.Exit(1)
	}
}

func commonFlags(fs *flag.FlagSet) (address *string, verbose *bool) {
	address = fs.String("address", os.Getenv("FICHERO_ADDR"), "BLE address (skip scanning, or set FICHERO_ADDR)")
	verbose = fs.Bool("verbose", false, "enable debug logging")
	return
}

func printFlags(fs *flag.FlagSet) (density, copies *int, paper *string) {
	density = fs.Int("density", 1, "print density: 0=light, 1=medium, 2=thick")
	copies = fs.Int("copies", 1, "number of copies")
	paper = fs.String("paper", "gap", "paper sensing: gap, black or continuous")
	return
}

func connect(address string, verbose bool) (*fichero.Connection, error) {
	if verbose {
		slog.SetLogLoggerLevel(slog.LevelDebug)
	}

	var conn *fichero.Connection
	var err error
	if address != "" {
		conn, err = fichero.FromAddress(address)
	} else {
		conn, err = fichero.Discover()
	}
	if err != nil {
		return nil, err
	}
	if err := conn.Connect(); err != nil {
		return nil, err
	}
	return conn, nil
}

func cmdInfo(args []string) error {
	fs := flag.NewFlagSet("info", flag.ExitOnError)
	address, verbose := commonFlags(fs)
	fs.Parse(args)

	conn, err := connect(*address, *verbose)
	if err != nil {
		return err
	}
	defer conn.Disconnect()
	c := conn.Client()

	model, _ := c.Model()
	firmware, _ := c.Firmware()
	boot, _ := c.BootVersion()
	serial, _ := c.Serial()
	battery, _ := c.Battery()
	shutdown, _ := c.ShutdownTimeout()
	status, _ := c.Status()

	fmt.Printf("  model:    %s\n", model)
	fmt.Printf("  firmware: %s\n", firmware)
	fmt.Printf("  boot:     %s\n", boot)
	fmt.Printf("  serial:   %s\n", serial)
	fmt.Printf("  battery:  %d%%\n", battery)
	fmt.Printf("  shutdown: %d min\n", shutdown)
	fmt.Printf("  status:   %s\n", status)

	info, err := c.Info()
	if err != nil {
		return err
	}
	if info.Parsed() && info.Name != "" {
		fmt.Printf("\n  bt name:     %s\n", info.Name)
		fmt.Printf("  mac classic: %s\n", info.ClassicMAC)
		fmt.Printf("  mac ble:     %s\n", info.BLEMAC)
	} else if info.Raw != "" {
		fmt.Printf("\n  raw info: %s\n", info.Raw)
	}
	return nil
}

func cmdStatus(args []string) error {
	fs := flag.NewFlagSet("status", flag.ExitOnError)
	address, verbose := commonFlags(fs)
	fs.Parse(args)

	conn, err := connect(*address, *verbose)
	if err != nil {
		return err
	}
	defer conn.Disconnect()

	status, err := conn.Client().Status()
	if err != nil {
		return err
	}
	fmt.Printf("  Status: %s\n", status)
	fmt.Printf("  Raw: 0x%02X (%08b)\n", status.Raw, status.Raw)
	fmt.Printf("  printing=%v coverOpen=%v noPaper=%v lowBattery=%v overheated=%v charging=%v\n",
		status.Printing, status.CoverOpen, status.NoPaper, status.LowBattery, status.Overheated, status.Charging)
	return nil
}

func printImage(address string, verbose bool, i image.Image, density, copies int, paper string) error {
	packed, err := render.ForDevice(i)
	if err != nil {
		return err
	}
	mode, err := fichero.ParsePaperMode(paper)
	if err != nil {
		return err
	}

	conn, err := connect(address, verbose)
	if err != nil {
		return err
	}
	defer conn.Disconnect()

	result, err := conn.Client().Print(context.Background(), fichero.Job{
		Bitmap:  packed,
		Density: density,
		Paper:   mode,
		Copies:  copies,
	})
	if err != nil {
		return err
	}

	for _, warning := range result.Warnings {
		fmt.Printf("  WARNING: %s\n", warning)
	}
	fmt.Printf("Done: %d copies printed.\n", result.CopiesPrinted)
	return nil
}

func cmdText(args []string) error {
	fs := flag.NewFlagSet("text", flag.ExitOnError)
	address, verbose := commonFlags(fs)
	density, copies, paper := printFlags(fs)
	length := fs.Int("length", fichero.MaxRows, "label length in rows")
	fs.Parse(args)

	if fs.NArg() == 0 {
		return fmt.Errorf("no text given")
	}
	text := strings.Join(fs.Args(), " ")

	i, err := render.Text(text, *length)
	if err != nil {
		return err
	}
	fmt.Printf("Printing %q...\n", text)
	return printImage(*address, *verbose, i, *density, *copies, *paper)
}

func cmdImage(args []string) error {
	fs := flag.NewFlagSet("image", flag.ExitOnError)
	address, verbose := commonFlags(fs)
	density, copies, paper := printFlags(fs)
	fs.Parse(args)

	if fs.NArg() != 1 {
		return fmt.Errorf("expected exactly one image path")
	}
	f, err := os.Open(fs.Arg(0))
	if err != nil {
		return err
	}
	defer f.Close()

	i, _, err := image.Decode(f)
	if err != nil {
		return fmt.Errorf("couldn't decode image: %w", err)
	}
	fmt.Printf("Printing %s...\n", fs.Arg(0))
	return printImage(*address, *verbose, i, *density, *copies, *paper)
}

func cmdQR(args []string) error {
	fs := flag.NewFlagSet("qr", flag.ExitOnError)
	address, verbose := commonFlags(fs)
	density, copies, paper := printFlags(fs)
	fs.Parse(args)

	if fs.NArg() == 0 {
		return fmt.Errorf("no QR content given")
	}
	content := strings.Join(fs.Args(), " ")

	i, err := render.QR(content)
	if err != nil {
		return err
	}
	fmt.Printf("Printing QR code for %q...\n", content)
	return printImage(*address, *verbose, i, *density, *copies, *paper)
}

func cmdSet(args []string) error {
	fs := flag.NewFlagSet("set", flag.ExitOnError)
	address, verbose := commonFlags(fs)
	fs.Parse(args)

	if fs.NArg() != 2 {
		return fmt.Errorf("usage: set <density|shutdown|paper> <value>")
	}
	setting, value := fs.Arg(0), fs.Arg(1)

	conn, err := connect(*address, *verbose)
	if err != nil {
		return err
	}
	defer conn.Disconnect()
	c := conn.Client()

	var ok bool
	switch setting {
	case "density":
		level, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("density must be a number: %w", err)
		}
		ok, err = c.SetDensity(level)
		if err != nil {
			return err
		}
	case "shutdown":
		minutes, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("shutdown must be a number of minutes: %w", err)
		}
		ok, err = c.SetShutdownTimeout(minutes)
		if err != nil {
			return err
		}
	case "paper":
		mode, err := fichero.ParsePaperMode(value)
		if err != nil {
			return err
		}
		ok, err = c.SetPaperMode(mode)
		if err != nil {
			return err
		}
	default:
		return fmt.Errorf("unknown setting %q (use density, shutdown or paper)", setting)
	}

	if !ok {
		return fmt.Errorf("printer didn't acknowledge setting %s=%s", setting, value)
	}
	fmt.Printf("  Set %s=%s: OK\n", setting, value)
	return nil
}

func cmdFeed(args []string) error {
	fs := flag.NewFlagSet("feed", flag.ExitOnError)
	address, verbose := commonFlags(fs)
	fs.Parse(args)

	if fs.NArg() != 1 {
		return fmt.Errorf("usage: feed <dots>")
	}
	dots, err := strconv.Atoi(fs.Arg(0))
	if err != nil || dots < 0 || dots > 255 {
		return fmt.Errorf("dots must be a number in 0..255")
	}

	conn, err := connect(*address, *verbose)
	if err != nil {
		return err
	}
	defer conn.Disconnect()

	return conn.Client().FeedDots(dots)
}

func cmdReset(args []string) error {
	fs := flag.NewFlagSet("reset", flag.ExitOnError)
	address, verbose := commonFlags(fs)
	yes := fs.Bool("yes", false, "confirm the factory reset")
	fs.Parse(args)

	if !*yes {
		return fmt.Errorf("factory reset wipes all settings; pass -yes to confirm")
	}

	conn, err := connect(*address, *verbose)
	if err != nil {
		return err
	}
	defer conn.Disconnect()

	ok, err := conn.Client().FactoryReset()
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("printer didn't acknowledge the reset")
	}
	fmt.Println("Factory reset done.")
	return nil
}

func cmdServe(args []string) error {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	address, verbose := commonFlags(fs)
	port := fs.String("port", "8080", "port to listen on")
	dbPath := fs.String("db", "gofichero.db", "journal database path (empty to disable)")
	fs.Parse(args)

	conn, err := connect(*address, *verbose)
	if err != nil {
		return err
	}
	defer conn.Disconnect()

	var j *journal.Journal
	if *dbPath != "" {
		if j, err = journal.Open(*dbPath); err != nil {
			return err
		}
		defer j.Close()
	}

	s := server.New(conn.Client(), j)
	slog.Info("Starting server", "port", *port)
	return http.ListenAndServe(":"+*port, s.Handler())
}

func cmdHistory(args []string) error {
	fs := flag.NewFlagSet("history", flag.ExitOnError)
	dbPath := fs.String("db", "gofichero.db", "journal database path")
	limit := fs.Int("limit", 20, "number of entries to show")
	fs.Parse(args)

	j, err := journal.Open(*dbPath)
	if err != nil {
		return err
	}
	defer j.Close()

	entries, err := j.Recent(*limit)
	if err != nil {
		return err
	}
	for _, e := range entries {
		warnings := ""
		if e.Warnings > 0 {
			warnings = fmt.Sprintf(" (%d warnings)", e.Warnings)
		}
		fmt.Printf("  %s  %-6s %3d rows x%d%s\n",
			e.CreatedAt.Local().Format("2006-01-02 15:04"), e.Kind, e.Rows, e.Copies, warnings)
	}
	return nil
}
