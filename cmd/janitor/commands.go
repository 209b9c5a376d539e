package main

import (
	"bufio"
	"errors"
	"fmt"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/mmenanno/media-janitor/internal/actions"
	"github.com/mmenanno/media-janitor/internal/constants"
	"github.com/mmenanno/media-janitor/internal/dashboard"
	"github.com/mmenanno/media-janitor/internal/database"
	"github.com/mmenanno/media-janitor/internal/expiry"
	"github.com/mmenanno/media-janitor/internal/issues"
	"github.com/mmenanno/media-janitor/internal/logging"
	"github.com/mmenanno/media-janitor/internal/metrics"
	"github.com/mmenanno/media-janitor/internal/modal"
	"github.com/mmenanno/media-janitor/internal/notify"
	"github.com/mmenanno/media-janitor/internal/server"
	"github.com/mmenanno/media-janitor/internal/whitelist"
)

// commandKinds maps whitelist action commands to their action
var commandKinds = map[string]actions.Kind{
	"protect":     actions.Protect,
	"french-only": actions.FrenchOnly,
	"exempt":      actions.LanguageExempt,
	"hide":        actions.HideRequest,
}

func (a *app) issuesPage(filter issues.Filter, pageSize int, notifier notify.Notifier) *dashboard.IssuesPage {
	return dashboard.NewIssuesPage(dashboard.IssuesPageOptions{
		Source:        a.client,
		Mutator:       a.client,
		Status:        a.client,
		Notifier:      notifier,
		Recorder:      database.NewJournal(a.db),
		Observer:      metrics.Actions{},
		Filter:        filter,
		PageSize:      pageSize,
		ActionTimeout: a.cfg.ActionTimeout,
		StatusTTL:     a.cfg.StatusCacheTTL,
	})
}

// loadForAction loads the widest page of the filter so the id can be found
func (a *app) loadForAction(cmd *cobra.Command) (*dashboard.IssuesPage, error) {
	raw, _ := cmd.Flags().GetString("filter")
	filter, err := issues.ParseFilter(raw)
	if err != nil {
		return nil, err
	}
	page := a.issuesPage(filter, constants.MaxIssuesPerPage, notify.NewWriterNotifier(a.out))
	if err := page.Load(cmd.Context()); err != nil {
		return nil, fmt.Errorf("failed to load issues: %w", err)
	}
	return page, nil
}

func (a *app) runIssues(cmd *cobra.Command, args []string) error {
	raw, _ := cmd.Flags().GetString("filter")
	pageNum, _ := cmd.Flags().GetInt("page")

	filter, err := issues.ParseFilter(raw)
	if err != nil {
		return err
	}
	page := a.issuesPage(filter, a.cfg.PageSize, notify.NewWriterNotifier(a.out))
	page.SetPage(pageNum)
	if err := page.Load(cmd.Context()); err != nil {
		return fmt.Errorf("failed to load issues: %w", err)
	}

	snap := page.Snapshot()
	if len(snap.Items) == 0 {
		fmt.Fprintln(a.out, "No issues found")
		return nil
	}

	rows := make([][]string, 0, len(snap.Items))
	for _, item := range snap.Items {
		size := "-"
		if !item.IsRequest() {
			size = issues.FormatSize(item.SizeBytes())
		}
		rows = append(rows, []string{item.ID, item.DisplayName(), string(item.MediaType), issueDetail(item), size})
	}
	fmt.Fprintln(a.out, renderTable(
		[]string{"ID", "Name", "Type", "Issues", "Size"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignRight},
		"", fmt.Sprintf("%d items", snap.TotalCount), "", "", snap.TotalSizeFormatted,
	))
	return nil
}

func issueDetail(item issues.Item) string {
	labels := item.IssueLabels()
	if item.IsRequest() {
		if labels == "" {
			return "request"
		}
		return labels + ", request"
	}
	if langs := item.LanguageIssues(); len(langs) > 0 {
		codes := make([]string, len(langs))
		for i, l := range langs {
			codes[i] = string(l)
		}
		labels += " (" + strings.Join(codes, ", ") + ")"
	}
	return labels
}

// itemID accepts a bare Jellyseerr id for request rows
func itemID(kind actions.Kind, raw string) string {
	if kind == actions.HideRequest {
		if _, err := strconv.Atoi(raw); err == nil {
			return issues.RequestIDPrefix + raw
		}
	}
	return raw
}

func (a *app) runWhitelistAction(cmd *cobra.Command, args []string) error {
	kind, ok := commandKinds[cmd.Name()]
	if !ok {
		return fmt.Errorf("unknown action %q", cmd.Name())
	}
	rawDuration, _ := cmd.Flags().GetString("duration")
	date, _ := cmd.Flags().GetString("date")

	duration, err := expiry.ParseDuration(rawDuration)
	if err != nil {
		return err
	}
	if date != "" && duration == expiry.Permanent && !cmd.Flags().Changed("duration") {
		duration = expiry.Custom
	}

	page, err := a.loadForAction(cmd)
	if err != nil {
		return err
	}

	picker := page.DurationDialog()
	if err := page.OpenDuration(itemID(kind, args[0]), kind); err != nil {
		return err
	}
	if err := picker.Select(duration); err != nil {
		return err
	}
	if err := picker.SetCustomDate(date); err != nil {
		return err
	}
	if err := picker.Validate(); err != nil {
		picker.Cancel()
		return err
	}

	var result actions.Result
	if err := page.ConfirmDuration(cmd.Context(), func(r actions.Result) { result = r }); err != nil {
		return err
	}
	page.Wait()
	return outcomeError(kind, result)
}

func (a *app) runDelete(cmd *cobra.Command, args []string) error {
	keepArr, _ := cmd.Flags().GetBool("keep-arr")
	keepRequests, _ := cmd.Flags().GetBool("keep-requests")
	yes, _ := cmd.Flags().GetBool("yes")

	page, err := a.loadForAction(cmd)
	if err != nil {
		return err
	}

	id := args[0]
	if _, err := page.Item(id); errors.Is(err, dashboard.ErrItemNotFound) {
		id = itemID(actions.HideRequest, id)
	}
	if err := page.OpenDelete(cmd.Context(), id); err != nil {
		return err
	}

	dialog := page.DeleteDialog()
	if keepArr {
		_ = dialog.SetLibraryManager(false)
	}
	if keepRequests {
		_ = dialog.SetRequestManager(false)
	}

	current := dialog.Current()
	if !dialog.CanConfirm() {
		dialog.Cancel()
		return fmt.Errorf("%s: %w", current.Target.DisplayName(), actions.ErrNothingToDelete)
	}

	if !yes {
		fmt.Fprintf(a.out, "About to delete %s (%s). Continue? (yes/no): ", current.Target.DisplayName(), deleteTargets(current))
		response, _ := bufio.NewReader(a.in).ReadString('\n')
		if strings.TrimSpace(response) != "yes" {
			dialog.Cancel()
			fmt.Fprintln(a.out, "Aborted")
			return nil
		}
	}

	var result actions.Result
	if err := page.ConfirmDelete(cmd.Context(), func(r actions.Result) { result = r }); err != nil {
		return err
	}
	page.Wait()
	return outcomeError(actions.DeleteKindFor(current.Target), result)
}

func deleteTargets(d *modal.DeleteDialog) string {
	if d.Target.IsRequest() {
		return "Jellyseerr request"
	}
	var targets []string
	targets = append(targets, "Jellyfin")
	if d.LibraryManager.Checked {
		if d.Target.MediaType == issues.MediaSeries {
			targets = append(targets, "Sonarr")
		} else {
			targets = append(targets, "Radarr")
		}
	}
	if d.RequestManager.Checked {
		targets = append(targets, "Jellyseerr")
	}
	return strings.Join(targets, ", ")
}

// outcomeError turns a failed dispatch into a command error; the toast has
// already been printed
func outcomeError(kind actions.Kind, result actions.Result) error {
	if result.Outcome.Succeeded() {
		return nil
	}
	if result.Err != nil {
		return fmt.Errorf("%s %s: %w", kind, result.Outcome, result.Err)
	}
	return fmt.Errorf("%s %s", kind, result.Outcome)
}

func (a *app) runWhitelistList(cmd *cobra.Command, args []string) error {
	kinds := whitelist.Kinds
	if len(args) == 1 {
		kind, err := whitelist.ParseKind(args[0])
		if err != nil {
			return err
		}
		kinds = []whitelist.Kind{kind}
	}

	page := dashboard.NewWhitelistPage(a.client, notify.NewWriterNotifier(a.out))
	now := time.Now()
	var rows [][]string
	for _, kind := range kinds {
		if err := page.Load(cmd.Context(), kind); err != nil {
			return err
		}
		for _, e := range page.Entries(kind) {
			status := ""
			if e.IsExpired(now) {
				status = "expired"
			}
			rows = append(rows, []string{kind.PathSegment(), strconv.Itoa(e.ID), e.Name, e.OwnerID, expiry.Describe(e.ExpiresAt), status})
		}
	}

	if len(rows) == 0 {
		fmt.Fprintln(a.out, "No whitelist entries")
		return nil
	}
	fmt.Fprintln(a.out, renderTable(
		[]string{"Kind", "ID", "Name", "Owner", "Expires", "Status"},
		rows,
		[]columnAlignment{alignLeft, alignRight},
	))
	return nil
}

func (a *app) runWhitelistRemove(cmd *cobra.Command, args []string) error {
	kind, err := whitelist.ParseKind(args[0])
	if err != nil {
		return err
	}
	id, err := strconv.Atoi(args[1])
	if err != nil {
		return fmt.Errorf("invalid entry id %q", args[1])
	}

	page := dashboard.NewWhitelistPage(a.client, notify.NewWriterNotifier(a.out))
	if err := page.Load(cmd.Context(), kind); err != nil {
		return err
	}
	return page.Remove(cmd.Context(), kind, id)
}

func (a *app) runHistory(cmd *cobra.Command, args []string) error {
	kind, _ := cmd.Flags().GetString("kind")
	item, _ := cmd.Flags().GetString("item")
	outcome, _ := cmd.Flags().GetString("outcome")
	limit, _ := cmd.Flags().GetInt("limit")
	prune, _ := cmd.Flags().GetInt("prune")

	ctx := cmd.Context()
	if prune > 0 {
		removed, err := a.db.DeleteOldActions(ctx, prune)
		if err != nil {
			return err
		}
		fmt.Fprintf(a.out, "Pruned %d entries older than %d days\n", removed, prune)
	}

	if kind != "" {
		k, err := actions.ParseKind(kind)
		if err != nil {
			return err
		}
		kind = string(k)
	}

	entries, total, err := a.db.ListActions(ctx, database.ActionFilters{
		Kind:    kind,
		ItemID:  item,
		Outcome: outcome,
		Limit:   limit,
	})
	if err != nil {
		return fmt.Errorf("failed to list actions: %w", err)
	}
	if len(entries) == 0 {
		fmt.Fprintln(a.out, "No actions recorded")
		return nil
	}

	colorize := shouldColorize(a.out)
	rows := make([][]string, 0, len(entries))
	for _, e := range entries {
		detail := e.Message
		if e.DeleteFlags != "" {
			detail = strings.TrimSpace(detail + " [" + e.DeleteFlags + "]")
		}
		if !actions.Kind(e.Kind).IsDelete() {
			detail = strings.TrimSpace(expiry.Describe(e.ExpiresAt) + " " + detail)
		}
		rows = append(rows, []string{
			e.CreatedAt.Local().Format("2006-01-02 15:04:05"),
			e.Kind,
			e.ItemName,
			outcomeColor(e.Outcome, colorize),
			fmt.Sprintf("%dms", e.Duration),
			detail,
		})
	}
	outcomes, err := a.db.CountActionsByOutcome(ctx)
	if err != nil {
		return fmt.Errorf("failed to summarize actions: %w", err)
	}
	summary := make([]string, 0, len(outcomes))
	for _, o := range []actions.Outcome{
		actions.OutcomeRemoved, actions.OutcomeRefetched, actions.OutcomeConflict, actions.OutcomeRejected,
		actions.OutcomeFailed, actions.OutcomeSessionExpired, actions.OutcomeBusy, actions.OutcomeNotApplicable,
	} {
		if n := outcomes[string(o)]; n > 0 {
			summary = append(summary, fmt.Sprintf("%s=%d", outcomeColor(string(o), colorize), n))
		}
	}

	fmt.Fprintln(a.out, renderTable(
		[]string{"Time", "Action", "Item", "Outcome", "Took", "Detail"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignRight},
		"", fmt.Sprintf("%d of %d", len(entries), total),
	))
	fmt.Fprintln(a.out, "All time: "+strings.Join(summary, " "))
	return nil
}

func (a *app) runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log := logging.Component("serve")
	toasts := notify.NewCenter(0)
	toasts.OnAdd(func(t notify.Toast) {
		log.Info().Str("kind", string(t.Kind)).Msg(t.Message)
	})

	session := server.NewSession()
	a.client.OnSessionExpired(session.Expire)

	page := a.issuesPage(issues.FilterAll, a.cfg.PageSize, toasts)
	if err := page.Load(ctx); err != nil {
		log.Warn().Err(err).Msg("initial issue load failed")
	}

	srv := server.New(server.Options{
		Config:    a.cfg,
		Issues:    page,
		Whitelist: dashboard.NewWhitelistPage(a.client, toasts),
		Toasts:    toasts,
		DB:        a.db,
		Session:   session,
		Routes:    a.client,
		Version:   Version,
	})

	log.Info().Str("version", Version).Int("port", a.cfg.ListenPort).Str("api", a.client.BaseURL()).Msg("starting media janitor")
	return srv.Run(ctx, a.cfg.ListenPort)
}

func (a *app) runConfigValidate(cmd *cobra.Command, args []string) error {
	if err := a.cfg.Validate(); err != nil {
		fmt.Fprintf(a.out, "Configuration is INVALID: %v\n", err)
		return err
	}

	fmt.Fprintln(a.out, "Configuration is valid")
	return nil
}

func (a *app) runConfigShow(cmd *cobra.Command, args []string) error {
	shown := *a.cfg
	if shown.Server.Token != "" {
		shown.Server.Token = "********"
	}
	data, err := json.MarshalIndent(shown, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	fmt.Fprintln(a.out, string(data))
	return nil
}
