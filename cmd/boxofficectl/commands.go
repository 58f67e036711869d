package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cast"
	"github.com/spf13/pflag"

	"github.com/taopiaopiao/boxoffice/internal/apiclient"
	"github.com/taopiaopiao/boxoffice/internal/listview"
	"github.com/taopiaopiao/boxoffice/internal/terminal"
)

const (
	defaultAPIBase  = "http://localhost:8080/api"
	defaultPageSize = 10
	defaultTimeout  = 15 * time.Second
)

// filterFlags maps list flags to the query keys they set.
var filterFlags = []struct {
	flag, key, usage string
}{
	{"keyword", "keyword", "search by name"},
	{"status", "status", "filter by status"},
	{"type", "type", "filter events by type"},
	{"event-id", "eventId", "filter sessions by event"},
	{"city", "city", "filter venues by city"},
	{"district", "district", "filter venues by district"},
}

// api is the part of the ticketing API client the tool uses.
type api interface {
	listview.Fetcher
	Get(ctx context.Context, path string, params any, out any) error
	Put(ctx context.Context, path string, body any, out any) error
	Delete(ctx context.Context, path string) error
}

type cli struct {
	api      api
	pageSize int
	in       *bufio.Reader
	out      io.Writer
}

type usageError struct {
	msg string
}

func (e usageError) Error() string { return e.msg }

func usageErrorf(format string, args ...any) error {
	return usageError{msg: fmt.Sprintf(format, args...)}
}

// exitError ends the command with code after output has been written.
type exitError struct {
	code int
}

func (e exitError) Error() string { return "exit status " + strconv.Itoa(e.code) }

func run(args []string, stdin io.Reader, stdout, stderr io.Writer, getenv func(string) string) int {
	root := pflag.NewFlagSet("boxofficectl", pflag.ContinueOnError)
	root.SetInterspersed(false)
	root.SetOutput(stderr)
	apiURL := root.String("api", defaultAPI(getenv), "admin API base URL (API_BASE_URL + /admin)")
	token := root.String("token", getenv("BOXOFFICE_TOKEN"), "bearer token of an admin session (BOXOFFICE_TOKEN)")
	pageSize := root.Int("page-size", defaultPageSize, "rows per page")
	timeout := root.Duration("timeout", defaultTimeout, "request timeout")
	root.Usage = func() { usage(stderr, root) }

	if err := root.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return 0
		}
		return 2
	}
	if root.NArg() == 0 {
		usage(stderr, root)
		return 2
	}
	if *pageSize < 1 {
		*pageSize = defaultPageSize
	}

	bearer := strings.TrimSpace(*token)
	c := &cli{
		api: apiclient.New(*apiURL,
			apiclient.WithTimeout(*timeout),
			apiclient.WithTokenSource(apiclient.TokenFunc(func(context.Context) string { return bearer })),
		),
		pageSize: *pageSize,
		in:       bufio.NewReader(stdin),
		out:      stdout,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	var err error
	rest := root.Args()
	switch rest[0] {
	case "list":
		err = c.list(ctx, rest[1:])
	case "status":
		err = c.status(ctx, rest[1:])
	case "delete":
		err = c.delete(ctx, rest[1:])
	case "help":
		usage(stdout, root)
	default:
		err = usageErrorf("unknown command %q", rest[0])
	}
	return exitCode(stderr, err)
}

func exitCode(stderr io.Writer, err error) int {
	var (
		uerr usageError
		eerr exitError
	)
	switch {
	case err == nil:
		return 0
	case errors.Is(err, pflag.ErrHelp):
		return 0
	case errors.As(err, &eerr):
		return eerr.code
	case errors.As(err, &uerr):
		fmt.Fprintf(stderr, "error: %v\n", err)
		return 2
	case apiclient.IsAuthExpired(err):
		fmt.Fprintln(stderr, "error: the token is missing or expired; sign in to the console and set BOXOFFICE_TOKEN")
		return 1
	default:
		fmt.Fprintf(stderr, "error: %s\n", apiclient.Message(err))
		return 1
	}
}

func defaultAPI(getenv func(string) string) string {
	base := strings.TrimRight(getenv("API_BASE_URL"), "/")
	if base == "" {
		base = defaultAPIBase
	}
	return base + "/admin"
}

func usage(w io.Writer, root *pflag.FlagSet) {
	fmt.Fprint(w, `Usage: boxofficectl [global flags] <command> [flags]

Commands:
  list <events|sessions|venues>          print one page of a list
  status <resource> <id> <target>        move an event or session to a new status
  delete <resource> <id>                 delete an entity that has no sales

Global flags:
`)
	fmt.Fprint(w, root.FlagUsages())
}

func (c *cli) list(ctx context.Context, args []string) error {
	fs := pflag.NewFlagSet("list", pflag.ContinueOnError)
	fs.SetOutput(c.out)
	values := make(map[string]*string, len(filterFlags))
	for _, f := range filterFlags {
		values[f.flag] = fs.String(f.flag, "", f.usage)
	}
	page := fs.Int("page", 1, "page number")
	width := fs.Int("max-width", 32, "truncate cells wider than this")
	if err := fs.Parse(args); err != nil {
		return parseError(err)
	}
	if fs.NArg() != 1 {
		return usageErrorf("list takes one resource: %s", resourceNames())
	}
	res, err := lookup(fs.Arg(0))
	if err != nil {
		return err
	}

	q := url.Values{}
	for _, f := range filterFlags {
		if !fs.Changed(f.flag) {
			continue
		}
		if !res.hasFilter(f.key) {
			return usageErrorf("--%s does not apply to %s", f.flag, res.name)
		}
		q.Set(f.key, *values[f.flag])
	}
	if *page > 1 {
		q.Set("page", strconv.Itoa(*page))
	}

	table, loadErr := res.load(ctx, c.api, q, c.pageSize)
	if apiclient.IsAuthExpired(loadErr) {
		return loadErr
	}
	if err := terminal.New(c.out).WithMaxCell(*width).Table(table); err != nil {
		return err
	}
	if loadErr != nil {
		return exitError{code: 1}
	}
	return nil
}

func (c *cli) status(ctx context.Context, args []string) error {
	fs := pflag.NewFlagSet("status", pflag.ContinueOnError)
	fs.SetOutput(c.out)
	yes := fs.BoolP("yes", "y", false, "do not ask for confirmation")
	if err := fs.Parse(args); err != nil {
		return parseError(err)
	}
	if fs.NArg() != 3 {
		return usageErrorf("status takes a resource, an id and a target status")
	}
	res, err := lookup(fs.Arg(0))
	if err != nil {
		return err
	}
	id, err := parseID(fs.Arg(1))
	if err != nil {
		return err
	}
	target := strings.TrimSpace(fs.Arg(2))

	status, sold, err := c.state(ctx, res, id)
	if err != nil {
		return err
	}
	if !res.rules.Allows(status, target, sold) {
		return fmt.Errorf("%s %s is %s and cannot move to %s", res.rules.Entity(), id, res.rules.Badge(status).Label, target)
	}
	if !*yes {
		ok, err := c.confirm(res.rules.ConfirmText(target))
		if err != nil || !ok {
			fmt.Fprintln(c.out, "Cancelled.")
			return err
		}
	}
	if err := c.api.Put(ctx, res.entityPath(id)+"/status", map[string]string{"status": target}, nil); err != nil {
		return err
	}
	fmt.Fprintf(c.out, "%s %s is now %s\n", res.label(), id, res.rules.Badge(target).Label)
	return nil
}

func (c *cli) delete(ctx context.Context, args []string) error {
	fs := pflag.NewFlagSet("delete", pflag.ContinueOnError)
	fs.SetOutput(c.out)
	yes := fs.BoolP("yes", "y", false, "do not ask for confirmation")
	if err := fs.Parse(args); err != nil {
		return parseError(err)
	}
	if fs.NArg() != 2 {
		return usageErrorf("delete takes a resource and an id")
	}
	res, err := lookup(fs.Arg(0))
	if err != nil {
		return err
	}
	id, err := parseID(fs.Arg(1))
	if err != nil {
		return err
	}

	status, sold, err := c.state(ctx, res, id)
	if err != nil {
		return err
	}
	if !res.rules.CanDelete(status, sold) {
		if sold > 0 {
			return fmt.Errorf("%s %s has %d tickets sold and cannot be deleted", res.rules.Entity(), id, sold)
		}
		return fmt.Errorf("%s %s cannot be deleted while %s", res.rules.Entity(), id, res.rules.Badge(status).Label)
	}
	if !*yes {
		ok, err := c.confirm(res.rules.DeleteText())
		if err != nil || !ok {
			fmt.Fprintln(c.out, "Cancelled.")
			return err
		}
	}
	if err := c.api.Delete(ctx, res.entityPath(id)); err != nil {
		return err
	}
	fmt.Fprintf(c.out, "%s %s deleted\n", res.label(), id)
	return nil
}

// state loads the status and sold count that decide which actions apply.
func (c *cli) state(ctx context.Context, res *resource, id string) (string, int, error) {
	var entity map[string]any
	if err := c.api.Get(ctx, res.entityPath(id), nil, &entity); err != nil {
		if apiclient.IsNotFound(err) {
			return "", 0, fmt.Errorf("%s %s does not exist", res.rules.Entity(), id)
		}
		return "", 0, err
	}
	sold := 0
	if res.soldKey != "" {
		sold = cast.ToInt(entity[res.soldKey])
	}
	return cast.ToString(entity["status"]), sold, nil
}

// confirm asks a yes/no question. Anything but y or yes declines.
func (c *cli) confirm(question string) (bool, error) {
	fmt.Fprintf(c.out, "%s [y/N]: ", question)
	answer, err := c.in.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return false, err
	}
	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "y", "yes":
		return true, nil
	}
	return false, nil
}

func parseID(raw string) (string, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil || id <= 0 {
		return "", usageErrorf("invalid id %q", raw)
	}
	return strconv.FormatInt(id, 10), nil
}

func parseError(err error) error {
	if errors.Is(err, pflag.ErrHelp) {
		return err
	}
	return usageError{msg: err.Error()}
}
