package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"shiftsync/api"
	"shiftsync/auth"
	"shiftsync/contract"
	"shiftsync/domain"
	"shiftsync/internal"
	"shiftsync/repositories"
	"shiftsync/runtime"
	"shiftsync/runtime/workers"
	"shiftsync/store"
	"shiftsync/timeutil"

	"github.com/Netflix/go-env"
	"github.com/dgraph-io/badger/v4"
	"github.com/gookit/color"
	"github.com/joho/godotenv"
	"github.com/mama165/sdk-go/logs"
	"github.com/olekukonko/tablewriter"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Fatal error: %v\n", err)
		os.Exit(1)
	}
}

// run wires configuration, the API client, the local cache and the stores,
// performs the initial synchronization, then keeps the background workers
// alive until a signal arrives. Returning the error to main keeps the defers
// running on every exit path.
func run() error {
	// 1. Configuration & Logger
	_ = godotenv.Load()
	var config internal.Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	if err := config.Validate(); err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	log := logs.GetLoggerFromString(config.LogLevel)

	// 2. API client with proactive token refresh
	var client *api.Client
	tokens := auth.NewTokenSource(
		auth.TokenPair{Access: config.AccessToken, Refresh: config.RefreshToken},
		func(ctx context.Context, refreshToken string) (auth.TokenPair, error) {
			return client.RefreshToken(ctx, refreshToken)
		},
	)
	client = api.NewClient(config.APIBase(), &http.Client{Timeout: config.HTTPTimeout}, tokens, log)

	// 3. Local cache (BadgerDB), optional
	var cache contract.Cache
	if config.BadgerFilepath != "" {
		db, err := badger.Open(badger.DefaultOptions(config.BadgerFilepath).
			WithLoggingLevel(badger.WARNING))
		if err != nil {
			return fmt.Errorf("cache opening failed: %w", err)
		}
		defer func() {
			log.Info("Closing BadgerDB...")
			_ = db.Close()
		}()
		cache = repositories.NewCache(db, log)
		if config.InspectPort > 0 {
			internal.StartDebugServer(db, config.InspectPort, nil, nil)
			log.Info("Cache inspector listening", "port", config.InspectPort)
		}
	}

	// 4. Stores
	conversations := store.NewConversationStore(log, client, cache, nil, config.ViewerID, config.PageSize)
	ticker := runtime.NewSessionTicker(log, config.SessionTickInterval)
	timeClock := store.NewTimeClockStore(log, client, nil, ticker, config.RecentEntriesLimit)
	defer timeClock.Close()
	schedules := store.NewScheduleStore(log, client)

	// 5. Context & Signals
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 6. Initial synchronization, cache first so stale data shows immediately
	conversations.WarmFromCache()
	if err := conversations.LoadConversations(ctx); err != nil {
		log.Warn("Initial conversation load failed, serving cached state", "error", err)
	}
	if err := timeClock.RefreshStatus(ctx); err != nil {
		log.Warn("Initial status refresh failed", "error", err)
	}
	if err := timeClock.LoadRecentEntries(ctx); err != nil {
		log.Warn("Initial entries load failed", "error", err)
	}
	if err := timeClock.LoadWorkTimeSummaries(ctx); err != nil {
		log.Warn("Initial summary load failed", "error", err)
	}
	if err := schedules.Refresh(ctx); err != nil {
		log.Warn("Initial schedule load failed", "error", err)
	}

	printState(config.ViewerID, conversations, timeClock, schedules)

	// 7. Background workers under supervision
	sup := workers.NewSupervisor(log, config.RestartInterval)
	sup.Add(
		workers.NewSummaryWorker(log, timeClock, config.SummaryRefreshInterval),
		workers.NewTelemetryWorker(log, config.TelemetryInterval),
	)
	log.Info("Background workers running, Ctrl+C to stop")
	sup.Run(ctx)

	log.Info("Shutting down gracefully...")
	log.Info("Program stopped cleanly")

	return nil
}

func printState(viewerID string, conversations *store.ConversationStore, timeClock *store.TimeClockStore,
	schedules *store.ScheduleStore) {
	header := color.New(color.BgBlack, color.FgGreen)

	fmt.Println(header.Render("Conversations"))
	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"ID", "Name", "Participants", "Last Activity", "Last Message"})
	table.SetAutoWrapText(false)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetBorder(false)
	for _, c := range conversations.Conversations() {
		last := ""
		if !c.LastMessageAt.IsZero() {
			last = c.LastMessageAt.UTC().Format("2006-01-02 15:04")
		}
		table.Append([]string{
			c.ID,
			c.DisplayName(viewerID),
			fmt.Sprintf("%d", len(c.Participants)),
			last,
			lastMessagePreview(c),
		})
	}
	table.Render()

	fmt.Println()
	fmt.Println(header.Render("Time clock"))
	status := "CLOCKED_OUT"
	if timeClock.IsClockedIn() {
		status = "CLOCKED_IN"
	}
	fmt.Printf("Status: %s  Session: %s  Today: %s  Week: %s\n",
		status,
		timeClock.CurrentSessionDisplay(),
		timeClock.TodayWorkTime().Display,
		timeClock.WeekWorkTime().Display,
	)

	entries := timeClock.RecentEntries()
	if len(entries) == 0 {
		return
	}
	table = tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Clock In", "Clock Out", "Duration", "Notes"})
	table.SetAutoWrapText(false)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetBorder(false)
	for _, e := range entries {
		out := "-"
		if e.ClockOutTime != nil {
			out = e.ClockOutTime.UTC().Format("2006-01-02 15:04")
		}
		table.Append([]string{
			e.ClockInTime.UTC().Format("2006-01-02 15:04"),
			out,
			timeutil.FormatDuration(e.TotalMinutes),
			truncate(e.Notes, 40),
		})
	}
	table.Render()

	list := schedules.Schedules()
	if len(list) == 0 {
		return
	}
	fmt.Println()
	fmt.Println(header.Render("Schedules"))
	shiftCount := len(schedules.Shifts())
	current, hasCurrent := schedules.CurrentSchedule()
	table = tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Name", "Period", "Status", "Shifts"})
	table.SetAutoWrapText(false)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetBorder(false)
	for _, s := range list {
		shifts := ""
		if hasCurrent && s.ID == current.ID {
			shifts = fmt.Sprintf("%d", shiftCount)
		}
		table.Append([]string{
			s.Name,
			fmt.Sprintf("%s .. %s", s.StartDate, s.EndDate),
			string(s.Status),
			shifts,
		})
	}
	table.Render()
}

// lastMessagePreview renders the trailing message column of the conversation
// table. Conversations fetched before any message was exchanged carry no last
// message at all.
func lastMessagePreview(c domain.Conversation) string {
	if c.LastMessage == nil {
		return ""
	}
	return truncate(c.LastMessage.Content, 40)
}

func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max-1]) + "…"
}
